package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/LinkTsang/tcpts-observer/internal/capture"
	"github.com/LinkTsang/tcpts-observer/internal/config"
	"github.com/LinkTsang/tcpts-observer/internal/decoder"
	"github.com/LinkTsang/tcpts-observer/internal/filter"
	"github.com/LinkTsang/tcpts-observer/internal/logging"
	"github.com/LinkTsang/tcpts-observer/internal/observer"
	"github.com/LinkTsang/tcpts-observer/internal/output"
)

func handle(cCtx *cli.Context) error {
	overrides, err := overridesFrom(cCtx)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cCtx.String("config"), overrides)
	if err != nil {
		return err
	}

	if cCtx.Bool("print-config") {
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	remote, local, err := cfg.Flow.Addrs()
	if err != nil {
		return err
	}
	endpoint := decoder.FlowEndpoint{Addr: remote, Port: cfg.Flow.RemotePort}

	session := uuid.NewString()
	log := logger.WithFields(logrus.Fields{
		"session": session,
		"remote":  endpoint.String(),
	})

	extractor, err := decoder.NewExtractor(decoder.Config{
		Remote:       endpoint,
		Local:        local,
		PayloadsOnly: cfg.Flow.PayloadsOnly,
	})
	if err != nil {
		return err
	}

	filterExpr := cfg.Capture.Filter
	if filterExpr == "" {
		if local.IsValid() {
			filterExpr = filter.Expression(local, remote, cfg.Flow.RemotePort)
		} else {
			filterExpr = filter.RemoteOnly(remote, cfg.Flow.RemotePort)
		}
	}
	log.WithField("filter", filterExpr).Info("capture filter")

	source, err := openSource(cfg.Capture, filterExpr, log)
	if err != nil {
		return err
	}
	defer source.Close()

	consumer, err := openConsumer(cfg.Output, session)
	if err != nil {
		return err
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			log.WithError(err).Error("failed to close output")
		}
	}()

	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"payloads_only": cfg.Flow.PayloadsOnly,
		"output":        cfg.Output.File,
	}).Info("observer started")
	return observer.New(source, extractor, consumer, log, cfg.StatsInterval).Run(ctx)
}

func openSource(cfg config.CaptureConfig, filterExpr string, log logrus.FieldLogger) (capture.Source, error) {
	if cfg.ReadFile != "" {
		return capture.OpenOffline(cfg.ReadFile, filterExpr, log)
	}
	if cfg.Engine == config.EngineAFPacket {
		return capture.OpenAFPacket(capture.AFPacketOptions{
			Device:       cfg.Device,
			SnapLen:      cfg.SnapLen,
			BufferSizeMB: cfg.BufferSizeMB,
			Timeout:      cfg.Timeout,
			Filter:       filterExpr,
		}, log)
	}
	return capture.OpenLive(capture.LiveOptions{
		Device:     cfg.Device,
		SnapLen:    cfg.SnapLen,
		Promisc:    cfg.Promisc,
		Timeout:    cfg.Timeout,
		BufferSize: cfg.BufferSizeMB << 20,
		Filter:     filterExpr,
	}, log)
}

func openConsumer(cfg config.OutputConfig, session string) (output.RecordConsumer, error) {
	var consumers output.Multi
	if cfg.File != "" {
		c, err := output.NewFileConsumer(cfg.File)
		if err != nil {
			return nil, err
		}
		consumers = append(consumers, c)
	}
	if cfg.Kafka.Enabled {
		k, err := output.NewKafkaConsumer(output.KafkaOptions{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			Version: cfg.Kafka.Version,
			Session: session,
		})
		if err != nil {
			_ = consumers.Close()
			return nil, err
		}
		consumers = append(consumers, k)
	}
	if len(consumers) == 1 {
		return consumers[0], nil
	}
	return consumers, nil
}

const positionalNote = "The positional form always sets my_ip, so segments that belong to neither " +
	"direction of the flow are dropped, even when --pcap-filter admits them."

func main() {
	app := &cli.App{
		Name:        "tcpts-observer",
		Usage:       "record TCP timestamps of one flow",
		ArgsUsage:   "[interface my_ip target_ip target_port output_file [payloads_only]]",
		Description: positionalNote,
		Flags:       flags(),
		Action:      handle,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
