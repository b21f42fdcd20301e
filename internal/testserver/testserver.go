// Package testserver runs raw TCP servers speaking just enough HTTP/1.1 to
// exercise clients at the wire level, including misbehaving peers that a
// regular http.Server cannot emulate.
package testserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

// Handler serves one accepted connection. The connection is closed when the
// handler returns.
type Handler func(ctx context.Context, conn net.Conn) error

// Server accepts connections on a loopback address and serves each of them
// with a handler in its own goroutine.
type Server struct {
	listener net.Listener
	group    *errgroup.Group
	ctx      context.Context
	cancel   context.CancelFunc

	mutex sync.Mutex
	conns map[net.Conn]struct{}
	count int
}

// Start starts a server which is closed when the test ends. Errors returned by
// handlers fail the test.
func Start(t testing.TB, handler Handler) *Server {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	s := &Server{listener: l, conns: make(map[net.Conn]struct{})}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.group, s.ctx = errgroup.WithContext(s.ctx)
	s.group.Go(func() error { return s.serve(handler) })

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Error("test server:", err)
		}
	})
	return s
}

func (s *Server) serve(handler Handler) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if !s.track(conn) {
			conn.Close()
			return nil
		}
		s.group.Go(func() error {
			defer s.untrack(conn)
			err := handler(s.ctx, conn)
			if s.ctx.Err() != nil || isClosed(err) {
				return nil
			}
			return err
		})
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	s.count++
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	conn.Close()
	delete(s.conns, conn)
}

// Addr returns the host:port address the server listens on.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// URL returns an http URL of the server with the given path.
func (s *Server) URL(path string) string {
	return fmt.Sprintf("http://%s%s", s.Addr(), path)
}

// Accepted returns the number of connections accepted so far.
func (s *Server) Accepted() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.count
}

// Close stops the server, aborts open connections and waits for handlers to
// return. It returns the first error reported by a handler.
func (s *Server) Close() error {
	s.mutex.Lock()
	conns := s.conns
	s.conns = nil
	s.mutex.Unlock()

	if conns == nil {
		return nil
	}
	s.cancel()
	s.listener.Close()
	for conn := range conns {
		conn.Close()
	}
	return s.group.Wait()
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, errClientGone)
}
