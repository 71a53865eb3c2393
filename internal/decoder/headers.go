package decoder

import "github.com/LinkTsang/tcpts-observer/internal/record"

const (
	ethernetHeaderLen = 14
	ipv4HeaderMinLen  = 20
	tcpHeaderMinLen   = 20
)

// RawFrame is one captured frame. Data must not be retained after the
// extraction call returns; capture sources reuse their buffers.
type RawFrame struct {
	Data     []byte
	CapLen   int
	Observed record.Timestamp
}

// View returns the captured bytes, bounded by both CapLen and len(Data).
func (f RawFrame) View() View {
	n := f.CapLen
	if n > len(f.Data) {
		n = len(f.Data)
	}
	if n < 0 {
		n = 0
	}
	return View(f.Data[:n])
}

// Headers holds the fixed IPv4 and TCP fields of a frame and the offsets of
// the variable parts. All offsets are relative to the start of the frame.
type Headers struct {
	IPOffset     int
	IPHeaderLen  int
	IPTotalLen   int // as declared by the sender, independent of caplen
	TCPOffset    int
	TCPHeaderLen int

	SrcIP   [4]byte
	DstIP   [4]byte
	SrcPort uint16
	DstPort uint16
	Seq     uint32
	Ack     uint32
	Flags   uint8

	// Options is the TCP options area, cut short if the capture was.
	Options View
}

// ParseHeaders validates the IPv4 and TCP headers of an Ethernet frame. The
// IP header and the fixed 20 bytes of the TCP header must lie within caplen;
// the TCP options area may be truncated.
func ParseHeaders(f RawFrame) (Headers, error) {
	return parseHeaders(f.View())
}

func parseHeaders(v View) (Headers, error) {
	var h Headers

	h.IPOffset = ethernetHeaderLen
	vhl, ok := v.Uint8(h.IPOffset)
	if !ok {
		return h, ErrTruncatedHeader
	}
	h.IPHeaderLen = int(vhl&0x0f) * 4
	if h.IPHeaderLen < ipv4HeaderMinLen {
		return h, ErrMalformedIPHeader
	}
	if !v.in(h.IPOffset, h.IPHeaderLen) {
		return h, ErrTruncatedHeader
	}

	total, _ := v.Uint16(h.IPOffset + 2)
	h.IPTotalLen = int(total)
	h.SrcIP, _ = v.Addr4(h.IPOffset + 12)
	h.DstIP, _ = v.Addr4(h.IPOffset + 16)

	h.TCPOffset = h.IPOffset + h.IPHeaderLen
	off, ok := v.Uint8(h.TCPOffset + 12)
	if !ok {
		return h, ErrTruncatedHeader
	}
	h.TCPHeaderLen = int(off>>4) * 4
	if h.TCPHeaderLen < tcpHeaderMinLen {
		return h, ErrMalformedTCPHeader
	}
	if !v.in(h.TCPOffset, tcpHeaderMinLen) {
		return h, ErrTruncatedHeader
	}

	h.SrcPort, _ = v.Uint16(h.TCPOffset)
	h.DstPort, _ = v.Uint16(h.TCPOffset + 2)
	h.Seq, _ = v.Uint32(h.TCPOffset + 4)
	h.Ack, _ = v.Uint32(h.TCPOffset + 8)
	h.Flags, _ = v.Uint8(h.TCPOffset + 13)
	h.Options = v.Slice(h.TCPOffset+tcpHeaderMinLen, h.TCPHeaderLen-tcpHeaderMinLen)

	return h, nil
}

// PayloadLen returns the declared TCP payload length, which is negative when
// the declared IP total length is smaller than the two headers.
func (h *Headers) PayloadLen() int {
	return h.IPTotalLen - h.IPHeaderLen - h.TCPHeaderLen
}
