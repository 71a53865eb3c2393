package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
)

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "yaml config file"},
		&cli.BoolFlag{Name: "print-config", Usage: "print the effective config and exit"},
		&cli.StringFlag{Name: "engine", Value: "pcap", Usage: "capture engine: pcap or afpacket"},
		&cli.StringFlag{Name: "pcap-device", Value: "", Usage: "device for pcap"},
		&cli.IntFlag{Name: "pcap-snaplen", Value: 8192, Usage: "snaplen for pcap"},
		&cli.StringFlag{Name: "pcap-filter", Usage: "bpf filter for pcap, generated from the flow when empty"},
		&cli.BoolFlag{Name: "pcap-promisc", Usage: "capture in promiscuous mode"},
		&cli.DurationFlag{Name: "pcap-timeout", Usage: "read timeout"},
		&cli.IntFlag{Name: "pcap-buffer-mb", Usage: "capture buffer size in megabytes"},
		&cli.StringFlag{Name: "read-file", Usage: "replay a pcap file instead of capturing live"},
		&cli.StringFlag{Name: "local-ip", Usage: "address of this host; when set, segments outside the flow are dropped instead of recorded as sent"},
		&cli.StringFlag{Name: "remote-ip", Usage: "address of the remote peer"},
		&cli.UintFlag{Name: "remote-port", Usage: "tcp port of the remote peer"},
		&cli.BoolFlag{Name: "all-segments", Usage: "record segments without payload too"},
		&cli.StringFlag{Name: "output", Usage: "record output file, - for stdout"},
		&cli.StringFlag{Name: "kafka-brokers", Usage: "kafka brokers, separated by ;"},
		&cli.StringFlag{Name: "kafka-topic", Usage: "kafka topic"},
		&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error"},
		&cli.StringFlag{Name: "log-format", Usage: "text or json"},
		&cli.StringFlag{Name: "log-file", Usage: "also write logs to this rotated file"},
		&cli.DurationFlag{Name: "stats-interval", Usage: "how often to log counters, 0 to disable"},
	}
}

// flagKeys maps flags onto config keys. Only flags given on the command line
// override the config file.
var flagKeys = map[string]string{
	"engine":         "capture.engine",
	"pcap-device":    "capture.device",
	"pcap-snaplen":   "capture.snaplen",
	"pcap-filter":    "capture.filter",
	"pcap-timeout":   "capture.timeout",
	"pcap-buffer-mb": "capture.buffer_size_mb",
	"read-file":      "capture.read_file",
	"local-ip":       "flow.local_ip",
	"remote-ip":      "flow.remote_ip",
	"remote-port":    "flow.remote_port",
	"output":         "output.file",
	"kafka-topic":    "output.kafka.topic",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"log-file":       "log.file.path",
	"stats-interval": "stats_interval",
}

type flagSource interface {
	IsSet(name string) bool
	Value(name string) interface{}
	Bool(name string) bool
	String(name string) string
	Args() cli.Args
}

func overridesFrom(c flagSource) (map[string]any, error) {
	overrides := map[string]any{}
	for name, key := range flagKeys {
		if c.IsSet(name) {
			overrides[key] = c.Value(name)
		}
	}
	if c.IsSet("pcap-promisc") {
		overrides["capture.promisc"] = c.Bool("pcap-promisc")
	}
	if c.IsSet("all-segments") {
		overrides["flow.payloads_only"] = !c.Bool("all-segments")
	}
	if c.IsSet("kafka-brokers") {
		overrides["output.kafka.enabled"] = true
		overrides["output.kafka.brokers"] = strings.Split(c.String("kafka-brokers"), ";")
	}

	if err := positionalOverrides(c.Args().Slice(), overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}

// positionalOverrides accepts the classic invocation
//
//	observer {interface} {my_ip} {target_ip} {target_port} {output_file} [{payloads_only?}]
//
// where a payloads_only argument starting with '0' records every segment. my_ip
// is always set in this form, so segments outside the flow are dropped.
func positionalOverrides(args []string, overrides map[string]any) error {
	switch {
	case len(args) == 0:
		return nil
	case len(args) < 5 || len(args) > 6:
		return fmt.Errorf("expected 5 or 6 positional arguments, got %d", len(args))
	}

	port, err := strconv.ParseUint(args[3], 10, 16)
	if err != nil {
		return fmt.Errorf("invalid target port %q: %w", args[3], err)
	}
	overrides["capture.device"] = args[0]
	overrides["flow.local_ip"] = args[1]
	overrides["flow.remote_ip"] = args[2]
	overrides["flow.remote_port"] = uint16(port)
	overrides["output.file"] = args[4]
	if len(args) == 6 && strings.HasPrefix(args[5], "0") {
		overrides["flow.payloads_only"] = false
	}
	return nil
}
