package decoder

import (
	"fmt"
	"net/netip"
)

// FlowEndpoint is the remote side of the observed flow.
type FlowEndpoint struct {
	Addr netip.Addr
	Port uint16
}

func (e FlowEndpoint) String() string {
	return netip.AddrPortFrom(e.Addr, e.Port).String()
}

// Direction of a segment relative to the local host.
type Direction uint8

const (
	Unmatched Direction = iota
	Sent
	Received
)

func (d Direction) String() string {
	switch d {
	case Sent:
		return "sent"
	case Received:
		return "received"
	default:
		return "unmatched"
	}
}

// Classifier assigns segments to a direction of the flow.
//
// Without a local address the classification is single sided: a segment
// whose source is the remote endpoint is Received and everything else is
// Sent. With a local address both tuples are compared and segments that fit
// neither direction are Unmatched.
type Classifier struct {
	remoteIP   [4]byte
	remotePort uint16
	localIP    [4]byte
	strict     bool
}

// NewClassifier builds a classifier for the given remote endpoint. local may
// be the zero Addr.
func NewClassifier(remote FlowEndpoint, local netip.Addr) (Classifier, error) {
	remote.Addr = remote.Addr.Unmap()
	local = local.Unmap()
	if !remote.Addr.Is4() {
		return Classifier{}, fmt.Errorf("remote address %v is not IPv4", remote.Addr)
	}
	c := Classifier{remoteIP: remote.Addr.As4(), remotePort: remote.Port}
	if local.IsValid() {
		if !local.Is4() {
			return Classifier{}, fmt.Errorf("local address %v is not IPv4", local)
		}
		c.localIP = local.As4()
		c.strict = true
	}
	return c, nil
}

// Classify returns the direction of h and the port on the local side.
func (c *Classifier) Classify(h *Headers) (Direction, uint16) {
	fromRemote := h.SrcIP == c.remoteIP && h.SrcPort == c.remotePort
	if !c.strict {
		if fromRemote {
			return Received, h.DstPort
		}
		return Sent, h.SrcPort
	}

	if fromRemote && h.DstIP == c.localIP {
		return Received, h.DstPort
	}
	if h.SrcIP == c.localIP && h.DstIP == c.remoteIP && h.DstPort == c.remotePort {
		return Sent, h.SrcPort
	}
	return Unmatched, 0
}
