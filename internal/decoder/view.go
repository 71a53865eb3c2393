// Package decoder turns captured Ethernet/IPv4/TCP frames into flow records.
package decoder

import "encoding/binary"

// View is a read-only window over captured bytes. Every accessor checks its
// range against the captured length, so nothing past caplen is ever read.
type View []byte

// Len returns the number of readable bytes.
func (v View) Len() int { return len(v) }

func (v View) in(off, n int) bool {
	return off >= 0 && n >= 0 && off <= len(v)-n
}

func (v View) Uint8(off int) (uint8, bool) {
	if !v.in(off, 1) {
		return 0, false
	}
	return v[off], true
}

func (v View) Uint16(off int) (uint16, bool) {
	if !v.in(off, 2) {
		return 0, false
	}
	return binary.BigEndian.Uint16(v[off:]), true
}

func (v View) Uint32(off int) (uint32, bool) {
	if !v.in(off, 4) {
		return 0, false
	}
	return binary.BigEndian.Uint32(v[off:]), true
}

// Addr4 returns the four bytes at off as an IPv4 address.
func (v View) Addr4(off int) ([4]byte, bool) {
	var a [4]byte
	if !v.in(off, 4) {
		return a, false
	}
	copy(a[:], v[off:off+4])
	return a, true
}

// Slice returns the sub-view [off, off+n), clipped to the readable length.
func (v View) Slice(off, n int) View {
	if off < 0 || n <= 0 || off >= len(v) {
		return nil
	}
	if n > len(v)-off {
		n = len(v) - off
	}
	return v[off : off+n]
}
