// Package filter builds capture filter expressions for the observed flow.
package filter

import (
	"fmt"
	"net/netip"
)

// Expression returns a pcap filter that admits only TCP segments between
// local and remote where the remote side uses port.
func Expression(local, remote netip.Addr, port uint16) string {
	return fmt.Sprintf("(src host %s and dst host %s and tcp and src port %d) or (dst host %s and src host %s and tcp and dst port %d)",
		remote, local, port, remote, local, port)
}

// RemoteOnly is used when the local address is unknown; it admits every TCP
// segment to or from the remote endpoint.
func RemoteOnly(remote netip.Addr, port uint16) string {
	return fmt.Sprintf("tcp and host %s and port %d", remote, port)
}
