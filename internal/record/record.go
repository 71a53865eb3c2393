package record

import (
	"strconv"
	"time"
)

// Precision tags the scale of Timestamp.Frac. It is fixed for a capture session.
type Precision uint8

const (
	Microsecond Precision = iota
	Nanosecond
)

func (p Precision) String() string {
	if p == Nanosecond {
		return "nanosecond"
	}
	return "microsecond"
}

// Timestamp is a capture time as delivered by the capture facility.
type Timestamp struct {
	Sec       int64
	Frac      int64
	Precision Precision
}

// NewTimestamp splits t at the given precision, truncating sub-microsecond
// digits for microsecond sessions.
func NewTimestamp(t time.Time, p Precision) Timestamp {
	frac := int64(t.Nanosecond())
	if p == Microsecond {
		frac /= 1000
	}
	return Timestamp{Sec: t.Unix(), Frac: frac, Precision: p}
}

// Nanos returns the timestamp as nanoseconds since the epoch.
func (ts Timestamp) Nanos() int64 {
	frac := ts.Frac
	if ts.Precision == Microsecond {
		frac *= 1000
	}
	return ts.Sec*int64(time.Second) + frac
}

func (ts Timestamp) Time() time.Time {
	return time.Unix(0, ts.Nanos())
}

// Record is one observed TCP segment of the flow.
type Record struct {
	LocalPort  uint16
	Sent       bool
	PayloadLen uint16
	TCPSeq     uint32
	TCPAck     uint32
	Observed   Timestamp
	TSVal      uint32 // 0 when the segment carried no timestamp option
}

// AppendJSON appends r as a single JSON object followed by a newline. Field
// names and order are those of the legacy listener log.
func (r *Record) AppendJSON(b []byte) []byte {
	b = append(b, `{"local_port":`...)
	b = strconv.AppendUint(b, uint64(r.LocalPort), 10)
	b = append(b, `,"sent":`...)
	if r.Sent {
		b = append(b, '1')
	} else {
		b = append(b, '0')
	}
	b = append(b, `,"payload_len":`...)
	b = strconv.AppendUint(b, uint64(r.PayloadLen), 10)
	b = append(b, `,"tcpseq":`...)
	b = strconv.AppendUint(b, uint64(r.TCPSeq), 10)
	b = append(b, `,"tcpack":`...)
	b = strconv.AppendUint(b, uint64(r.TCPAck), 10)
	b = append(b, `,"observed":`...)
	b = strconv.AppendInt(b, r.Observed.Nanos(), 10)
	b = append(b, `,"tsval":`...)
	b = strconv.AppendUint(b, uint64(r.TSVal), 10)
	return append(b, "}\n"...)
}

func (r *Record) MarshalJSON() ([]byte, error) {
	b := r.AppendJSON(make([]byte, 0, 128))
	return b[:len(b)-1], nil
}
