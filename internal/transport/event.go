package transport

import (
	"fmt"

	"github.com/stealthrocket/httpoll/internal/buffer"
)

// ConnID identifies a connection of a Manager.
type ConnID uint64

// EventKind is the type of events reported for connections.
type EventKind uint8

const (
	// The TCP connection was established.
	Connect EventKind = iota + 1
	// The TLS handshake completed.
	Handshake
	// Bytes were received, Event.Data holds them.
	Read
	// Bytes were flushed to the socket, Event.N is the count.
	Write
	// The connection failed, Event.Err is the cause. A Close event follows.
	Error
	// The connection is closed, no more events are reported for it.
	Close
)

func (k EventKind) String() string {
	switch k {
	case Connect:
		return "connect"
	case Handshake:
		return "handshake"
	case Read:
		return "read"
	case Write:
		return "write"
	case Error:
		return "error"
	case Close:
		return "close"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// Event is a notification about a connection. Data is only valid until the
// handler which received the event returns.
type Event struct {
	Conn ConnID
	Kind EventKind
	Data []byte
	N    int
	Err  error

	buf *buffer.Buffer
}

func (ev Event) String() string {
	switch ev.Kind {
	case Read:
		return fmt.Sprintf("conn=%d %s n=%d", ev.Conn, ev.Kind, len(ev.Data))
	case Write:
		return fmt.Sprintf("conn=%d %s n=%d", ev.Conn, ev.Kind, ev.N)
	case Error:
		return fmt.Sprintf("conn=%d %s err=%v", ev.Conn, ev.Kind, ev.Err)
	default:
		return fmt.Sprintf("conn=%d %s", ev.Conn, ev.Kind)
	}
}
