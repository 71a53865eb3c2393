package observer

import (
	"errors"

	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"

	"github.com/LinkTsang/tcpts-observer/internal/decoder"
)

const (
	metricAccepted   = "frames.accepted"
	metricRejected   = "frames.rejected."
	metricSinkErrors = "sink.errors"
)

// Stats counts frame outcomes for one capture session.
type Stats struct {
	registry   metrics.Registry
	accepted   metrics.Counter
	rejected   map[decoder.Rejection]metrics.Counter
	unknown    metrics.Counter
	sinkErrors metrics.Counter
}

func NewStats() *Stats {
	r := metrics.NewRegistry()
	s := &Stats{
		registry:   r,
		accepted:   metrics.NewRegisteredCounter(metricAccepted, r),
		rejected:   make(map[decoder.Rejection]metrics.Counter, len(decoder.Rejections)),
		unknown:    metrics.NewRegisteredCounter(metricRejected+"unknown", r),
		sinkErrors: metrics.NewRegisteredCounter(metricSinkErrors, r),
	}
	for _, rej := range decoder.Rejections {
		s.rejected[rej] = metrics.NewRegisteredCounter(metricRejected+rej.Name(), r)
	}
	return s
}

func (s *Stats) Accept() { s.accepted.Inc(1) }

func (s *Stats) Reject(err error) {
	var rej decoder.Rejection
	if errors.As(err, &rej) {
		if c, ok := s.rejected[rej]; ok {
			c.Inc(1)
			return
		}
	}
	s.unknown.Inc(1)
}

func (s *Stats) SinkError() { s.sinkErrors.Inc(1) }

func (s *Stats) Accepted() int64 { return s.accepted.Count() }

func (s *Stats) Rejected(rej decoder.Rejection) int64 {
	if c, ok := s.rejected[rej]; ok {
		return c.Count()
	}
	return 0
}

func (s *Stats) SinkErrors() int64 { return s.sinkErrors.Count() }

// Fields snapshots every non-zero counter, plus the accepted count.
func (s *Stats) Fields() logrus.Fields {
	fields := logrus.Fields{metricAccepted: s.accepted.Count()}
	s.registry.Each(func(name string, m interface{}) {
		if c, ok := m.(metrics.Counter); ok && c.Count() != 0 {
			fields[name] = c.Count()
		}
	})
	return fields
}
