package decoder

import (
	"net/netip"

	"github.com/LinkTsang/tcpts-observer/internal/record"
)

// Config selects the flow to observe and the recording policy.
type Config struct {
	Remote FlowEndpoint
	// Local is the address of the observing host. When set, segments that
	// belong to neither direction of the flow are rejected.
	Local netip.Addr
	// PayloadsOnly drops segments without payload.
	PayloadsOnly bool
}

// Extractor turns frames into records. It holds no mutable state and may be
// shared between goroutines.
type Extractor struct {
	classifier   Classifier
	payloadsOnly bool
}

func NewExtractor(cfg Config) (*Extractor, error) {
	c, err := NewClassifier(cfg.Remote, cfg.Local)
	if err != nil {
		return nil, err
	}
	return &Extractor{classifier: c, payloadsOnly: cfg.PayloadsOnly}, nil
}

// Extract parses f and builds its record. A non-nil error is always a
// Rejection.
func (e *Extractor) Extract(f RawFrame) (record.Record, error) {
	h, err := ParseHeaders(f)
	if err != nil {
		return record.Record{}, err
	}
	return e.build(&h, f.Observed)
}

func (e *Extractor) build(h *Headers, observed record.Timestamp) (record.Record, error) {
	payload := h.PayloadLen()
	if payload < 0 {
		return record.Record{}, ErrInconsistentLength
	}
	if payload == 0 && e.payloadsOnly {
		return record.Record{}, ErrEmptyPayloadFiltered
	}

	dir, localPort := e.classifier.Classify(h)
	if dir == Unmatched {
		return record.Record{}, ErrUnmatchedFlow
	}

	tsval, _ := TimestampOption(h.Options)

	return record.Record{
		LocalPort:  localPort,
		Sent:       dir == Sent,
		PayloadLen: uint16(payload),
		TCPSeq:     h.Seq,
		TCPAck:     h.Ack,
		Observed:   observed,
		TSVal:      tsval,
	}, nil
}
