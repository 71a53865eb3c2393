package decoder

import (
	"encoding/binary"
	"net/netip"
)

var (
	remoteAddr = netip.MustParseAddr("93.184.216.34")
	localAddr  = netip.MustParseAddr("10.0.0.2")
	remoteIP   = remoteAddr.As4()
	localIP    = localAddr.As4()
)

const (
	remotePort = 443
	localPort  = 50000
)

// tcpFrame describes an Ethernet/IPv4/TCP frame for tests.
type tcpFrame struct {
	ipHeaderLen  int // default 20
	tcpHeaderLen int // default 20
	totalLen     int // declared IP total length; 0 derives it
	src, dst     [4]byte
	srcPort      uint16
	dstPort      uint16
	seq, ack     uint32
	options      []byte
	payload      int
}

func (f tcpFrame) bytes() []byte {
	ipl, tcpl := f.ipHeaderLen, f.tcpHeaderLen
	if ipl == 0 {
		ipl = 20
	}
	if tcpl == 0 {
		tcpl = 20
	}
	total := f.totalLen
	if total == 0 {
		total = ipl + tcpl + f.payload
	}

	b := make([]byte, ethernetHeaderLen+ipl+tcpl+f.payload)
	binary.BigEndian.PutUint16(b[12:], 0x0800)

	ip := b[ethernetHeaderLen:]
	ip[0] = 0x40 | byte(ipl/4)
	binary.BigEndian.PutUint16(ip[2:], uint16(total))
	ip[8] = 64
	ip[9] = 6
	copy(ip[12:], f.src[:])
	copy(ip[16:], f.dst[:])

	tcp := ip[ipl:]
	binary.BigEndian.PutUint16(tcp[0:], f.srcPort)
	binary.BigEndian.PutUint16(tcp[2:], f.dstPort)
	binary.BigEndian.PutUint32(tcp[4:], f.seq)
	binary.BigEndian.PutUint32(tcp[8:], f.ack)
	tcp[12] = byte(tcpl/4) << 4
	tcp[13] = 0x18
	copy(tcp[20:tcpl], f.options)
	return b
}

func received(options []byte, payload int) tcpFrame {
	return tcpFrame{
		tcpHeaderLen: 20 + (len(options)+3)/4*4,
		src:          remoteIP,
		dst:          localIP,
		srcPort:      remotePort,
		dstPort:      localPort,
		seq:          1000,
		ack:          2000,
		options:      options,
		payload:      payload,
	}
}

func sent(options []byte, payload int) tcpFrame {
	f := received(options, payload)
	f.src, f.dst = localIP, remoteIP
	f.srcPort, f.dstPort = localPort, remotePort
	return f
}

func timestampOption(tsval, tsecr uint32) []byte {
	b := []byte{optionTimestamp, 10, 0, 0, 0, 0, 0, 0, 0, 0}
	binary.BigEndian.PutUint32(b[2:], tsval)
	binary.BigEndian.PutUint32(b[6:], tsecr)
	return b
}

func rawFrame(b []byte) RawFrame {
	return RawFrame{Data: b, CapLen: len(b)}
}
