package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	f := received(timestampOption(7, 8), 5)
	f.ipHeaderLen = 24

	h, err := ParseHeaders(rawFrame(f.bytes()))
	require.NoError(t, err)

	assert.Equal(t, 14, h.IPOffset)
	assert.Equal(t, 24, h.IPHeaderLen)
	assert.Equal(t, 24+32+5, h.IPTotalLen)
	assert.Equal(t, 38, h.TCPOffset)
	assert.Equal(t, 32, h.TCPHeaderLen)
	assert.Equal(t, remoteIP, h.SrcIP)
	assert.Equal(t, localIP, h.DstIP)
	assert.Equal(t, uint16(remotePort), h.SrcPort)
	assert.Equal(t, uint16(localPort), h.DstPort)
	assert.Equal(t, uint32(1000), h.Seq)
	assert.Equal(t, uint32(2000), h.Ack)
	assert.Equal(t, uint8(0x18), h.Flags)
	assert.Equal(t, 12, h.Options.Len())
	assert.Equal(t, 5, h.PayloadLen())
}

func TestParseHeadersMalformedIP(t *testing.T) {
	for words := 0; words < 5; words++ {
		b := received(nil, 10).bytes()
		b[ethernetHeaderLen] = 0x40 | byte(words)

		_, err := ParseHeaders(rawFrame(b))
		assert.ErrorIs(t, err, ErrMalformedIPHeader, "ihl=%d", words)
	}
}

func TestParseHeadersMalformedTCP(t *testing.T) {
	for words := 0; words < 5; words++ {
		b := received(nil, 10).bytes()
		b[ethernetHeaderLen+20+12] = byte(words) << 4

		_, err := ParseHeaders(rawFrame(b))
		assert.ErrorIs(t, err, ErrMalformedTCPHeader, "data offset=%d", words)
	}
}

func TestParseHeadersTruncated(t *testing.T) {
	b := received(nil, 0).bytes()
	require.Len(t, b, 54)

	for cut := 0; cut < len(b); cut++ {
		_, err := ParseHeaders(RawFrame{Data: b, CapLen: cut})
		assert.ErrorIs(t, err, ErrTruncatedHeader, "caplen=%d", cut)

		_, err = ParseHeaders(RawFrame{Data: b[:cut], CapLen: len(b)})
		assert.ErrorIs(t, err, ErrTruncatedHeader, "len(data)=%d", cut)
	}

	_, err := ParseHeaders(rawFrame(b))
	assert.NoError(t, err)
}

func TestParseHeadersIPOptionsPastCaplen(t *testing.T) {
	f := received(nil, 0)
	f.ipHeaderLen = 60
	b := f.bytes()

	_, err := ParseHeaders(RawFrame{Data: b, CapLen: ethernetHeaderLen + 40})
	assert.ErrorIs(t, err, ErrTruncatedHeader)
}

func TestParseHeadersOptionsClippedToCaplen(t *testing.T) {
	f := received(timestampOption(1, 2), 0)
	b := f.bytes()

	h, err := ParseHeaders(RawFrame{Data: b, CapLen: len(b) - 5})
	require.NoError(t, err)
	assert.Equal(t, 32, h.TCPHeaderLen)
	assert.Equal(t, 7, h.Options.Len())
}

func TestRawFrameViewNegativeCaplen(t *testing.T) {
	f := RawFrame{Data: []byte{1, 2, 3}, CapLen: -1}
	assert.Equal(t, 0, f.View().Len())
}

func TestViewBounds(t *testing.T) {
	v := View{0x01, 0x02, 0x03, 0x04, 0x05}

	u8, ok := v.Uint8(4)
	assert.True(t, ok)
	assert.Equal(t, uint8(5), u8)
	_, ok = v.Uint8(5)
	assert.False(t, ok)
	_, ok = v.Uint8(-1)
	assert.False(t, ok)

	u16, ok := v.Uint16(3)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x0405), u16)
	_, ok = v.Uint16(4)
	assert.False(t, ok)

	u32, ok := v.Uint32(1)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x02030405), u32)
	_, ok = v.Uint32(2)
	assert.False(t, ok)

	a, ok := v.Addr4(0)
	assert.True(t, ok)
	assert.Equal(t, [4]byte{1, 2, 3, 4}, a)

	assert.Equal(t, View{0x04, 0x05}, v.Slice(3, 10))
	assert.Nil(t, v.Slice(5, 1))
	assert.Nil(t, v.Slice(0, 0))
}
