package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
)

// Conn is a connection created by a Manager. Its methods must be called from
// the goroutine that polls the manager.
type Conn struct {
	id     ConnID
	m      *Manager
	host   string
	port   uint16
	tls    bool
	ctx    context.Context
	cancel context.CancelFunc

	mutex    sync.Mutex
	commands []command
	wake     chan struct{}

	queued  int64
	flushed int64
	closing bool
	closed  bool
}

type command struct {
	data []byte
	tls  *tls.Config
}

func (c *Conn) ID() ConnID { return c.id }

func (c *Conn) Host() string { return c.host }

func (c *Conn) Port() uint16 { return c.port }

// TLS reports whether the connection was created to carry TLS.
func (c *Conn) TLS() bool { return c.tls }

// Send queues b to be written to the connection. The slice is retained until
// it was written, the caller must not modify it after the call.
func (c *Conn) Send(b []byte) {
	if c.closing || c.closed || len(b) == 0 {
		return
	}
	c.queued += int64(len(b))
	c.push(command{data: b})
}

// StartTLS queues a client handshake with the given server name. Bytes sent
// after the call are encrypted, bytes are only read from the connection once
// the handshake completed.
func (c *Conn) StartTLS(serverName string) {
	if c.closing || c.closed {
		return
	}
	c.push(command{tls: c.m.tlsConfig(serverName)})
}

// Pending returns the number of bytes sent but not yet flushed to the socket.
func (c *Conn) Pending() int64 { return c.queued - c.flushed }

// Flushed returns the number of bytes flushed to the socket.
func (c *Conn) Flushed() int64 { return c.flushed }

// Close aborts the connection. Queued bytes are discarded. The Close event is
// still delivered by a later poll.
func (c *Conn) Close() error {
	if !c.closing {
		c.closing = true
		c.cancel()
	}
	return nil
}

func (c *Conn) push(cmd command) {
	c.mutex.Lock()
	c.commands = append(c.commands, cmd)
	c.mutex.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Conn) takeCommands() []command {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	commands := c.commands
	c.commands = nil
	return commands
}

func (c *Conn) emit(kind EventKind) {
	c.m.emit(Event{Conn: c.id, Kind: kind})
}

// fail reports err unless the connection was aborted, in which case the error
// is only a consequence of closing the socket.
func (c *Conn) fail(err error) {
	if c.ctx.Err() == nil {
		c.m.emit(Event{Conn: c.id, Kind: Error, Err: err})
	}
}

func (c *Conn) run() {
	defer c.emit(Close)
	defer c.cancel()

	addr, err := c.m.resolve(c.ctx, c.host, c.port)
	if err != nil {
		c.fail(err)
		return
	}
	conn, err := c.m.dialer.DialContext(c.ctx, addr)
	if err != nil {
		c.fail(err)
		return
	}
	stop := context.AfterFunc(c.ctx, func() { conn.Close() })
	defer stop()

	var readErrs chan error
	defer func() {
		conn.Close()
		// Wait for the reader so no Read event can follow the Close event.
		if readErrs != nil {
			<-readErrs
		}
	}()

	c.emit(Connect)
	if !c.tls {
		readErrs = c.startReader(conn)
	}

	var rw net.Conn = conn
	for {
		select {
		case <-c.ctx.Done():
			return

		case err := <-readErrs:
			readErrs = nil
			if !errors.Is(err, io.EOF) {
				c.fail(err)
			}
			return

		case <-c.wake:
			for _, cmd := range c.takeCommands() {
				if cmd.tls != nil {
					tlsConn := tls.Client(conn, cmd.tls)
					if err := tlsConn.HandshakeContext(c.ctx); err != nil {
						c.fail(err)
						return
					}
					rw = tlsConn
					c.emit(Handshake)
					readErrs = c.startReader(rw)
					continue
				}
				if err := c.write(rw, cmd.data); err != nil {
					c.fail(err)
					return
				}
			}
		}
	}
}

func (c *Conn) write(w io.Writer, b []byte) error {
	for len(b) > 0 {
		p := b
		if max := c.m.opts.MaxWrite; max > 0 && len(p) > max {
			p = p[:max]
		}
		n, err := w.Write(p)
		if n > 0 {
			c.m.emit(Event{Conn: c.id, Kind: Write, N: n})
		}
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func (c *Conn) startReader(r io.Reader) chan error {
	errs := make(chan error, 1)
	go func() {
		size := int64(c.m.opts.ReadSize)
		for {
			buf := c.m.pool.Get(size)
			n, err := r.Read(buf.Data)
			if n > 0 {
				c.m.emit(Event{Conn: c.id, Kind: Read, Data: buf.Data[:n], buf: buf})
			} else {
				c.m.pool.Put(buf)
			}
			if err != nil {
				errs <- err
				return
			}
		}
	}()
	return errs
}
