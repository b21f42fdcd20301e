//go:build unix

package network

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

func (d *Dialer) setOptions(fd int) error {
	if d.NoDelay {
		if err := setsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
			return err
		}
	}
	if d.SendBuffer > 0 {
		if err := setsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, d.SendBuffer); err != nil {
			return err
		}
	}
	if d.ReceiveBuffer > 0 {
		if err := setsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, d.ReceiveBuffer); err != nil {
			return err
		}
	}
	return nil
}

// sendBufferSize returns the size of the kernel send buffer of conn.
func sendBufferSize(conn net.Conn) (int, error) {
	return getOptInt(conn, unix.SOL_SOCKET, unix.SO_SNDBUF)
}

// receiveBufferSize returns the size of the kernel receive buffer of conn.
func receiveBufferSize(conn net.Conn) (int, error) {
	return getOptInt(conn, unix.SOL_SOCKET, unix.SO_RCVBUF)
}

func getOptInt(conn net.Conn, level, name int) (int, error) {
	sc, ok := conn.(interface {
		SyscallConn() (syscall.RawConn, error)
	})
	if !ok {
		return -1, unix.ENOTSOCK
	}
	rawConn, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}
	var value int
	var opterr error
	if err := rawConn.Control(func(fd uintptr) {
		value, opterr = getsockoptInt(int(fd), level, name)
	}); err != nil {
		return -1, err
	}
	return value, opterr
}

// This function is used to automatically retry syscalls when they return
// EINTR due to having handled a signal instead of executing.
func ignoreEINTR(f func() error) error {
	for {
		if err := f(); err != unix.EINTR {
			return err
		}
	}
}

func ignoreEINTR2[F func() (R, error), R any](f F) (R, error) {
	for {
		v, err := f()
		if err != unix.EINTR {
			return v, err
		}
	}
}

func getsockoptInt(fd, level, name int) (int, error) {
	return ignoreEINTR2(func() (int, error) { return unix.GetsockoptInt(fd, level, name) })
}

func setsockoptInt(fd, level, name, value int) error {
	return ignoreEINTR(func() error { return unix.SetsockoptInt(fd, level, name, value) })
}
