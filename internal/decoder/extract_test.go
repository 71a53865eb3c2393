package decoder

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LinkTsang/tcpts-observer/internal/record"
)

func newExtractor(t testing.TB, payloadsOnly bool) *Extractor {
	t.Helper()
	e, err := NewExtractor(Config{
		Remote:       FlowEndpoint{Addr: remoteAddr, Port: remotePort},
		PayloadsOnly: payloadsOnly,
	})
	require.NoError(t, err)
	return e
}

func TestExtractReceivedWithTimestamp(t *testing.T) {
	e := newExtractor(t, false)
	opts := append(timestampOption(1, 0), 0, 0)
	f := received(opts, 0)
	f.totalLen = 52
	b := f.bytes()
	require.Equal(t, 32, f.tcpHeaderLen)

	ts := record.Timestamp{Sec: 1700000000, Frac: 42, Precision: record.Nanosecond}
	r, err := e.Extract(RawFrame{Data: b, CapLen: len(b), Observed: ts})
	require.NoError(t, err)

	assert.Equal(t, record.Record{
		LocalPort:  localPort,
		Sent:       false,
		PayloadLen: 0,
		TCPSeq:     1000,
		TCPAck:     2000,
		Observed:   ts,
		TSVal:      1,
	}, r)

	_, err = newExtractor(t, true).Extract(rawFrame(b))
	assert.ErrorIs(t, err, ErrEmptyPayloadFiltered)
}

func TestExtractNopsThenEndOfList(t *testing.T) {
	e := newExtractor(t, false)
	f := received([]byte{optionNOP, optionNOP, optionEndOfList}, 0)
	f.tcpHeaderLen = 32
	f.totalLen = 52

	r, err := e.Extract(rawFrame(f.bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), r.TSVal)
	assert.False(t, r.Sent)
}

func TestExtractInconsistentLength(t *testing.T) {
	for _, payloadsOnly := range []bool{true, false} {
		f := received(timestampOption(1, 0), 0)
		f.totalLen = 10

		_, err := newExtractor(t, payloadsOnly).Extract(rawFrame(f.bytes()))
		assert.ErrorIs(t, err, ErrInconsistentLength)
	}
}

func TestExtractMalformedHeadersNeverYieldRecord(t *testing.T) {
	e := newExtractor(t, false)
	for words := 0; words < 5; words++ {
		b := received(nil, 10).bytes()
		b[ethernetHeaderLen] = 0x40 | byte(words)
		_, err := e.Extract(rawFrame(b))
		assert.ErrorIs(t, err, ErrMalformedIPHeader)

		b = received(nil, 10).bytes()
		b[ethernetHeaderLen+20+12] = byte(words) << 4
		_, err = e.Extract(rawFrame(b))
		assert.ErrorIs(t, err, ErrMalformedTCPHeader)
	}
}

func TestExtractPayloadLength(t *testing.T) {
	r, err := newExtractor(t, true).Extract(rawFrame(sent(nil, 1448).bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint16(1448), r.PayloadLen)

	// The declared length wins over the captured length.
	b := sent(nil, 1448).bytes()
	r, err = newExtractor(t, true).Extract(RawFrame{Data: b, CapLen: 54})
	require.NoError(t, err)
	assert.Equal(t, uint16(1448), r.PayloadLen)
}

func TestExtractDirection(t *testing.T) {
	e := newExtractor(t, false)
	other := netip.MustParseAddr("192.0.2.9").As4()

	tests := []struct {
		name      string
		src       [4]byte
		srcPort   uint16
		dstPort   uint16
		sent      bool
		localPort uint16
	}{
		{"remote tuple", remoteIP, remotePort, localPort, false, localPort},
		{"local host", localIP, localPort, remotePort, true, localPort},
		{"remote ip other port", remoteIP, 8443, 40000, true, 8443},
		{"other ip remote port", other, remotePort, 40000, true, remotePort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := received(nil, 1)
			f.src, f.srcPort, f.dstPort = tt.src, tt.srcPort, tt.dstPort

			r, err := e.Extract(rawFrame(f.bytes()))
			require.NoError(t, err)
			assert.Equal(t, tt.sent, r.Sent)
			assert.Equal(t, tt.localPort, r.LocalPort)
		})
	}
}

func TestExtractStrictDirection(t *testing.T) {
	e, err := NewExtractor(Config{
		Remote:       FlowEndpoint{Addr: remoteAddr, Port: remotePort},
		Local:        localAddr,
		PayloadsOnly: true,
	})
	require.NoError(t, err)

	r, err := e.Extract(rawFrame(received(nil, 1).bytes()))
	require.NoError(t, err)
	assert.False(t, r.Sent)

	r, err = e.Extract(rawFrame(sent(nil, 1).bytes()))
	require.NoError(t, err)
	assert.True(t, r.Sent)
	assert.Equal(t, uint16(localPort), r.LocalPort)

	stray := sent(nil, 1)
	stray.dstPort = 8080
	_, err = e.Extract(rawFrame(stray.bytes()))
	assert.ErrorIs(t, err, ErrUnmatchedFlow)

	elsewhere := received(nil, 1)
	elsewhere.dst = netip.MustParseAddr("10.0.0.3").As4()
	_, err = e.Extract(rawFrame(elsewhere.bytes()))
	assert.ErrorIs(t, err, ErrUnmatchedFlow)
}

func TestExtractTruncatedOptionsAtEveryCut(t *testing.T) {
	e := newExtractor(t, true)
	opts := append([]byte{optionNOP, optionNOP}, timestampOption(0xdeadbeef, 3)...)
	f := received(opts, 100)
	b := f.bytes()
	optStart := ethernetHeaderLen + 20 + 20
	tsEnd := optStart + 2 + 6

	for cut := optStart; cut <= optStart+f.tcpHeaderLen-20; cut++ {
		r, err := e.Extract(RawFrame{Data: b, CapLen: cut})
		require.NoError(t, err, "caplen=%d", cut)
		assert.Equal(t, uint16(100), r.PayloadLen)
		if cut < tsEnd {
			assert.Equal(t, uint32(0), r.TSVal, "caplen=%d", cut)
		} else {
			assert.Equal(t, uint32(0xdeadbeef), r.TSVal, "caplen=%d", cut)
		}
	}
}

func TestExtractNopPadding(t *testing.T) {
	e := newExtractor(t, true)
	base, err := e.Extract(rawFrame(received(timestampOption(123456, 9), 1).bytes()))
	require.NoError(t, err)
	require.Equal(t, uint32(123456), base.TSVal)

	for n := 1; n <= 30; n++ {
		opts := make([]byte, n)
		for i := range opts {
			opts[i] = optionNOP
		}
		opts = append(opts, timestampOption(123456, 9)...)

		r, err := e.Extract(rawFrame(received(opts, 1).bytes()))
		require.NoError(t, err)
		assert.Equal(t, base.TSVal, r.TSVal, "nops=%d", n)
	}
}

func TestNewExtractorRejectsIPv6(t *testing.T) {
	_, err := NewExtractor(Config{Remote: FlowEndpoint{Addr: netip.MustParseAddr("2001:db8::1"), Port: 1}})
	assert.Error(t, err)

	_, err = NewExtractor(Config{
		Remote: FlowEndpoint{Addr: remoteAddr, Port: 1},
		Local:  netip.MustParseAddr("::1"),
	})
	assert.Error(t, err)
}

func TestRejectionNames(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range Rejections {
		assert.NotEqual(t, "unknown", r.Name())
		assert.False(t, seen[r.Name()], r.Name())
		seen[r.Name()] = true
	}
	assert.Equal(t, "decoder: inconsistent_length", ErrInconsistentLength.Error())
	assert.False(t, ErrEmptyPayloadFiltered.Malformed())
	assert.True(t, ErrInconsistentLength.Malformed())
	assert.Equal(t, "unknown", Rejection(0).Name())
}

func BenchmarkExtract(b *testing.B) {
	e := newExtractor(b, true)
	opts := append([]byte{optionNOP, optionNOP}, timestampOption(1, 2)...)
	f := rawFrame(received(opts, 512).bytes())

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Extract(f); err != nil {
			b.Fatal(err)
		}
	}
}

func FuzzExtract(f *testing.F) {
	f.Add(received(timestampOption(1, 0), 0).bytes(), 66)
	f.Add(sent([]byte{2, 4, 5, 0xb4, 1, 3, 3, 7}, 10).bytes(), 62)
	f.Add([]byte{}, 0)

	e, err := NewExtractor(Config{Remote: FlowEndpoint{Addr: remoteAddr, Port: remotePort}})
	require.NoError(f, err)

	f.Fuzz(func(t *testing.T, data []byte, caplen int) {
		r, err := e.Extract(RawFrame{Data: data, CapLen: caplen})
		if err != nil {
			var rej Rejection
			require.ErrorAs(t, err, &rej)
			return
		}
		h, err := ParseHeaders(RawFrame{Data: data, CapLen: caplen})
		require.NoError(t, err)
		assert.Equal(t, h.PayloadLen(), int(r.PayloadLen))
	})
}
