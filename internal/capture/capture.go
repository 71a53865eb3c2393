// Package capture opens packet sources for the observer: live pcap handles,
// pcap files and, on Linux, AF_PACKET rings.
package capture

import (
	"errors"
	"time"

	"github.com/google/gopacket"

	"github.com/LinkTsang/tcpts-observer/internal/record"
)

// ErrTimeout is returned by ReadFrame when no frame arrived within the read
// timeout. Callers should simply read again.
var ErrTimeout = errors.New("capture: read timeout")

// Source delivers captured frames one at a time. The returned data is only
// valid until the next call to ReadFrame. io.EOF marks the end of a file.
type Source interface {
	ReadFrame() ([]byte, gopacket.CaptureInfo, error)
	Precision() record.Precision
	Close()
}

// LiveOptions configures a live pcap capture.
type LiveOptions struct {
	Device     string
	SnapLen    int
	Promisc    bool
	Timeout    time.Duration
	BufferSize int // bytes; 0 keeps the libpcap default
	Filter     string
}

// AFPacketOptions configures an AF_PACKET ring capture.
type AFPacketOptions struct {
	Device       string
	SnapLen      int
	BufferSizeMB int
	Timeout      time.Duration
	Filter       string
}

func precisionOf(res gopacket.TimestampResolution) record.Precision {
	if res == gopacket.TimestampResolutionNanosecond {
		return record.Nanosecond
	}
	return record.Microsecond
}
