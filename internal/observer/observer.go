// Package observer runs the capture loop: frames are read from a source,
// turned into records and handed to a consumer, one at a time.
package observer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/sirupsen/logrus"

	"github.com/LinkTsang/tcpts-observer/internal/capture"
	"github.com/LinkTsang/tcpts-observer/internal/decoder"
	"github.com/LinkTsang/tcpts-observer/internal/output"
	"github.com/LinkTsang/tcpts-observer/internal/record"
)

type Observer struct {
	source        capture.Source
	extractor     *decoder.Extractor
	consumer      output.RecordConsumer
	logger        logrus.FieldLogger
	stats         *Stats
	statsInterval time.Duration
}

// New wires an observer. A statsInterval of zero logs counters only when Run
// returns.
func New(source capture.Source, extractor *decoder.Extractor, consumer output.RecordConsumer,
	logger logrus.FieldLogger, statsInterval time.Duration) *Observer {
	return &Observer{
		source:        source,
		extractor:     extractor,
		consumer:      consumer,
		logger:        logger,
		stats:         NewStats(),
		statsInterval: statsInterval,
	}
}

func (o *Observer) Stats() *Stats { return o.stats }

// Run processes frames until ctx is cancelled, the source is exhausted or the
// source fails. Cancellation is checked between frames only, so a frame being
// processed always completes. Cancellation and end of file return nil.
func (o *Observer) Run(ctx context.Context) error {
	defer func() {
		o.logger.WithFields(o.stats.Fields()).Info("capture finished")
	}()

	var tick <-chan time.Time
	if o.statsInterval > 0 {
		ticker := time.NewTicker(o.statsInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	precision := o.source.Precision()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			o.logger.WithFields(o.stats.Fields()).Info("capture progress")
		default:
		}

		data, ci, err := o.source.ReadFrame()
		switch {
		case errors.Is(err, capture.ErrTimeout):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("capture read failed: %w", err)
		}

		o.handle(data, ci, precision)
	}
}

func (o *Observer) handle(data []byte, ci gopacket.CaptureInfo, precision record.Precision) {
	frame := decoder.RawFrame{
		Data:     data,
		CapLen:   ci.CaptureLength,
		Observed: record.NewTimestamp(ci.Timestamp, precision),
	}

	rec, err := o.extractor.Extract(frame)
	if err != nil {
		o.stats.Reject(err)
		return
	}
	o.stats.Accept()

	if err := o.consumer.Consume(&rec); err != nil {
		o.stats.SinkError()
		o.logger.WithError(err).Warn("failed to write record")
	}
}
