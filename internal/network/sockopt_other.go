//go:build !unix

package network

import (
	"errors"
	"net"
)

var errNotSupported = errors.New("socket options are not supported on this platform")

func (d *Dialer) setOptions(fd int) error {
	return nil
}

func sendBufferSize(conn net.Conn) (int, error) {
	return -1, errNotSupported
}

func receiveBufferSize(conn net.Conn) (int, error) {
	return -1, errNotSupported
}
