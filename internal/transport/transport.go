// Package transport is the connection layer below the HTTP client. It owns
// sockets, DNS lookups and TLS sessions, and reports what happened to each
// connection as events.
//
// Blocking network operations run in per-connection goroutines, but events are
// only ever handed to the application by Manager.Poll, on the goroutine that
// calls it. Connection state visible to the application (queued and flushed
// byte counts) is only mutated from that goroutine as well.
package transport

import (
	"context"
	"crypto/tls"
	"net"
	"net/netip"
	"time"

	"github.com/stealthrocket/httpoll/internal/buffer"
	"github.com/stealthrocket/httpoll/internal/network"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultReadSize      = 16 * 1024
	DefaultQueueSize     = 256
	DefaultLookupTimeout = 10 * time.Second
)

// Resolver resolves host names to IP addresses, *net.Resolver implements it.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Options configures a Manager.
type Options struct {
	Network network.Options
	// Size of the buffers that connections read into. Each Read event carries
	// at most this many bytes.
	ReadSize int
	// When positive, writes are broken down into pieces of at most this size,
	// each reported by its own Write event.
	MaxWrite int
	// Capacity of the queue of events waiting to be polled. Connections stop
	// reading when the queue is full.
	QueueSize     int
	LookupTimeout time.Duration
	Resolver      Resolver
	// Base configuration of TLS sessions, the server name is set from the host
	// of each connection unless already present.
	TLSConfig *tls.Config
}

// Manager creates connections and delivers their events.
type Manager struct {
	opts    Options
	dialer  network.Dialer
	events  chan Event
	done    chan struct{}
	lookups singleflight.Group
	pool    buffer.Pool
	conns   map[ConnID]*Conn
	lastID  ConnID
	closed  bool
}

// New constructs a Manager. Zero values of opts fields are replaced by
// defaults.
func New(opts Options) *Manager {
	if opts.ReadSize <= 0 {
		opts.ReadSize = DefaultReadSize
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	if opts.Resolver == nil {
		opts.Resolver = net.DefaultResolver
	}
	return &Manager{
		opts:   opts,
		dialer: network.Dialer{Options: opts.Network},
		events: make(chan Event, opts.QueueSize),
		done:   make(chan struct{}),
		conns:  make(map[ConnID]*Conn),
	}
}

// Connect starts connecting to host:port in the background. The outcome is
// reported by a Connect or an Error event, followed eventually by exactly one
// Close event. Connect returns nil after the manager was closed.
func (m *Manager) Connect(host string, port uint16, useTLS bool) *Conn {
	if m.closed {
		return nil
	}
	m.lastID++
	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		id:     m.lastID,
		m:      m,
		host:   host,
		port:   port,
		tls:    useTLS,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
	}
	m.conns[c.id] = c
	go c.run()
	return c
}

// Len returns the number of connections that were not reported closed yet.
func (m *Manager) Len() int {
	return len(m.conns)
}

// Poll waits up to timeout for events and passes them to handle in the order
// they were produced. Events already queued are handled without waiting. The
// number of events handled is bounded by what was queued when the wait ended,
// so a busy connection cannot keep the caller in Poll forever.
func (m *Manager) Poll(timeout time.Duration, handle func(*Conn, Event)) int {
	limit := len(m.events)
	if limit == 0 {
		if timeout <= 0 {
			return 0
		}
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case ev := <-m.events:
			m.dispatch(ev, handle)
			limit = len(m.events) + 1
		case <-timer.C:
			return 0
		}
		limit--
		for i := 0; i < limit; i++ {
			m.dispatch(<-m.events, handle)
		}
		return limit + 1
	}
	for i := 0; i < limit; i++ {
		m.dispatch(<-m.events, handle)
	}
	return limit
}

func (m *Manager) dispatch(ev Event, handle func(*Conn, Event)) {
	defer buffer.Release(&ev.buf, &m.pool)

	c := m.conns[ev.Conn]
	if c == nil {
		return
	}
	switch ev.Kind {
	case Write:
		c.flushed += int64(ev.N)
	case Close:
		c.closed = true
		delete(m.conns, ev.Conn)
	}
	handle(c, ev)
}

// Close aborts all connections. Events not polled yet are discarded.
func (m *Manager) Close() error {
	if !m.closed {
		m.closed = true
		close(m.done)
		for _, c := range m.conns {
			c.cancel()
		}
	}
	return nil
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	case <-m.done:
		buffer.Release(&ev.buf, &m.pool)
	}
}

func (m *Manager) resolve(ctx context.Context, host string, port uint16) (netip.AddrPort, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return netip.AddrPortFrom(addr, port), nil
	}
	// Concurrent connections to the same host share the lookup, which is not
	// bound to the context of any of them so one connection giving up does
	// not fail the others.
	ch := m.lookups.DoChan(host, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), m.opts.LookupTimeout)
		defer cancel()
		return m.opts.Resolver.LookupNetIP(ctx, "ip", host)
	})
	select {
	case <-ctx.Done():
		return netip.AddrPort{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return netip.AddrPort{}, r.Err
		}
		return network.FirstAddr(r.Val.([]netip.Addr), port)
	}
}

func (m *Manager) tlsConfig(serverName string) *tls.Config {
	var config *tls.Config
	if m.opts.TLSConfig != nil {
		config = m.opts.TLSConfig.Clone()
	} else {
		config = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if config.ServerName == "" {
		config.ServerName = serverName
	}
	return config
}
