// Package network dials the TCP connections used by the transport, applying
// socket options on the file descriptor before the connection is established.
package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"
	"time"
)

var (
	ErrNoAddress = errors.New("no address found for host")
)

// Options are the socket options applied to dialed connections. Zero values
// leave the operating system defaults in place.
type Options struct {
	// Disables Nagle's algorithm, requests are written in few large writes and
	// the latency of small upload chunks matters more than coalescing.
	NoDelay bool
	// Size of the kernel send buffer. Smaller buffers make the backlog of an
	// upload visible to the sender sooner.
	SendBuffer int
	// Size of the kernel receive buffer.
	ReceiveBuffer int
	// Interval of TCP keep-alive messages, negative values disable them.
	KeepAlive time.Duration
}

// Dialer establishes TCP connections with Options applied.
type Dialer struct {
	Options
}

// DialContext connects to addr. The connection attempt is aborted when ctx is
// canceled.
func (d *Dialer) DialContext(ctx context.Context, addr netip.AddrPort) (net.Conn, error) {
	dialer := net.Dialer{
		KeepAlive: d.KeepAlive,
		Control:   d.control,
	}
	return dialer.DialContext(ctx, "tcp", addr.String())
}

func (d *Dialer) control(network, address string, rawConn syscall.RawConn) error {
	var err error
	if cerr := rawConn.Control(func(fd uintptr) { err = d.setOptions(int(fd)) }); cerr != nil {
		return cerr
	}
	if err != nil {
		return fmt.Errorf("%s %s: setting socket options: %w", network, address, err)
	}
	return nil
}

// FirstAddr returns the first address of addrs, preferring IPv4 addresses
// since they are the most likely to be routable from hosts with partial IPv6
// configurations.
func FirstAddr(addrs []netip.Addr, port uint16) (netip.AddrPort, error) {
	if len(addrs) == 0 {
		return netip.AddrPort{}, ErrNoAddress
	}
	for _, addr := range addrs {
		if addr.Is4() || addr.Is4In6() {
			return netip.AddrPortFrom(addr.Unmap(), port), nil
		}
	}
	return netip.AddrPortFrom(addrs[0], port), nil
}
