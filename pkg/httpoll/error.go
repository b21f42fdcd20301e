package httpoll

import (
	"fmt"
	"strconv"
)

// Kind classifies the failures reported to error callbacks.
type Kind uint8

const (
	// The request could not be started: malformed URL, unsupported scheme,
	// invalid header line or closed client. Reported synchronously.
	ConnectFailure Kind = iota + 1
	// The connection was not established before the connect deadline.
	ConnectTimeout
	// The request did not complete before the overall deadline.
	Timeout
	// A download received a response status other than 200.
	HTTPStatus
	// The connection failed, or the response could not be parsed.
	Transport
	// The upload source returned no data, too much data, or an error.
	ReadCallback
	// The connection closed before the response was complete.
	UnexpectedClose
	// The request was aborted by Client.Cancel or Client.Close.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case ConnectFailure:
		return "Failed to connect"
	case ConnectTimeout:
		return "Connection timeout"
	case Timeout:
		return "Timeout"
	case HTTPStatus:
		return "HTTP error"
	case Transport:
		return "transport error"
	case ReadCallback:
		return "read callback failed"
	case UnexpectedClose:
		return "connection closed unexpectedly"
	case Cancelled:
		return "request cancelled"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Error is the type of errors passed to error callbacks.
//
// Errors compare equal with errors.Is when they have the same kind, so the
// sentinel values below can be used to classify failures:
//
//	if errors.Is(err, httpoll.ErrConnectTimeout) {
//		...
//	}
type Error struct {
	Kind Kind
	// URL of the request that failed.
	URL string
	// Response status, only set for HTTPStatus errors.
	Status int
	// Underlying cause, may be nil.
	Err error
}

var (
	ErrConnectFailure  = &Error{Kind: ConnectFailure}
	ErrConnectTimeout  = &Error{Kind: ConnectTimeout}
	ErrTimeout         = &Error{Kind: Timeout}
	ErrHTTPStatus      = &Error{Kind: HTTPStatus}
	ErrTransport       = &Error{Kind: Transport}
	ErrReadCallback    = &Error{Kind: ReadCallback}
	ErrUnexpectedClose = &Error{Kind: UnexpectedClose}
	ErrCancelled       = &Error{Kind: Cancelled}
)

func (e *Error) Error() string {
	switch {
	case e.Kind == HTTPStatus:
		return "HTTP error " + strconv.Itoa(e.Status)
	case e.Err == nil:
		return e.Kind.String()
	case e.Kind == Transport, e.Kind == ReadCallback:
		// The cause is already a complete description of the failure.
		return e.Err.Error()
	default:
		return e.Kind.String() + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, url string, err error) *Error {
	return &Error{Kind: kind, URL: url, Err: err}
}

func readCallbackError(url string, n, size int) *Error {
	var err error
	if n > size {
		err = fmt.Errorf("read callback returned %d bytes, more than the %d requested", n, size)
	} else {
		err = fmt.Errorf("read callback returned %d bytes", n)
	}
	return newError(ReadCallback, url, err)
}
