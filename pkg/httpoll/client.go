// Package httpoll is an HTTP/1.1 client for programs built around a main loop
// that must never block on the network.
//
// Requests are issued with callbacks and make progress only when the program
// calls Client.Poll, typically once per iteration of its loop. All callbacks
// run on the goroutine calling Poll, so they can touch the state of the
// program without synchronization. Each request owns one connection, closed
// after the request terminated.
//
// Every request ends with exactly one call to either its completion callback
// or its error callback.
package httpoll

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stealthrocket/httpoll/internal/http1"
	"github.com/stealthrocket/httpoll/internal/transport"
	"go.uber.org/zap"
)

const (
	// DefaultDrainTimeout is how long Close waits for connections to close.
	DefaultDrainTimeout = time.Second

	pollSlice = 100 * time.Millisecond
)

type (
	// Callback receives the response of a request that completed.
	Callback func(*Response)
	// ErrorCallback receives the failure of a request, always an *Error.
	ErrorCallback func(error)
	// DownloadCallback receives body chunks of a download. The chunk is only
	// valid until the callback returns. total is zero when the response had no
	// Content-Length.
	DownloadCallback func(chunk []byte, downloaded, total int64)
	// ProgressCallback reports the progress of an upload after every poll in
	// which the upload was active, with the estimated speed in bytes/s.
	ProgressCallback func(sent, total int64, speed float64)
	// ReadChunkCallback fills dst with the content of an upload starting at
	// offset. It must return a count between 1 and len(dst).
	ReadChunkCallback func(dst []byte, offset int64) (int, error)
)

var errClientClosed = errors.New("client closed")

// Client issues requests and drives them from calls to Poll. A Client is not
// safe for concurrent use, all its methods must be called from the same
// goroutine.
type Client struct {
	// Header lines added to every request issued after they are set, before
	// the headers of the request.
	Headers []string

	opts     options
	log      *zap.Logger
	manager  *transport.Manager
	contexts map[transport.ConnID]*requestContext
	ids      map[uuid.UUID]transport.ConnID
	closed   bool
}

// New constructs a client. Options passed to New apply to every request.
func New(opts ...Option) *Client {
	o := options{
		logger:       zap.NewNop(),
		drainTimeout: DefaultDrainTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.resource = nil
	return &Client{
		opts:     o,
		log:      o.logger,
		manager:  transport.New(o.transport),
		contexts: make(map[transport.ConnID]*requestContext),
		ids:      make(map[uuid.UUID]transport.ConnID),
	}
}

// Get issues a GET request. headers is a block of header lines separated by
// CRLF, it may be empty. The default timeout is 5s.
func (c *Client) Get(url, headers string, onDone Callback, onError ErrorCallback, opts ...Option) uuid.UUID {
	return c.issue(&requestContext{
		mode:    buffered,
		method:  "GET",
		url:     url,
		onDone:  onDone,
		onError: onError,
	}, shortRequest, opts, headers)
}

// Post issues a POST request with the given body. The default timeout is 5s.
func (c *Client) Post(url string, body []byte, headers string, onDone Callback, onError ErrorCallback, opts ...Option) uuid.UUID {
	return c.issue(&requestContext{
		mode:    buffered,
		method:  "POST",
		url:     url,
		body:    body,
		onDone:  onDone,
		onError: onError,
	}, shortRequest, opts, headers)
}

// PostJSON issues a POST request with a JSON body. The default timeout is 5s.
func (c *Client) PostJSON(url string, json []byte, onDone Callback, onError ErrorCallback, opts ...Option) uuid.UUID {
	return c.issue(&requestContext{
		mode:    buffered,
		method:  "POST",
		url:     url,
		body:    json,
		onDone:  onDone,
		onError: onError,
	}, shortRequest, opts, "Content-Type: application/json")
}

// Request issues a request with any method. The response body is buffered
// and passed to onDone, whatever the response status. The default timeout is
// 60s and the default connect timeout is 5s.
func (c *Client) Request(method, url string, body []byte, headers string, onDone Callback, onError ErrorCallback, opts ...Option) uuid.UUID {
	return c.issue(&requestContext{
		mode:    buffered,
		method:  method,
		url:     url,
		body:    body,
		onDone:  onDone,
		onError: onError,
	}, genericRequest, opts, headers)
}

// DownloadFile issues a GET request whose response body is streamed to
// onDownload. The request fails with an HTTPStatus error unless the response
// status is 200. The default timeout is 60s and the default connect timeout
// is 10s.
func (c *Client) DownloadFile(url string, onDownload DownloadCallback, onDone Callback, onError ErrorCallback, opts ...Option) uuid.UUID {
	return c.issue(&requestContext{
		mode:       download,
		method:     "GET",
		url:        url,
		onDownload: onDownload,
		onDone:     onDone,
		onError:    onError,
	}, downloadRequest, opts, "")
}

// Upload issues a POST request sending content with the chunked transfer
// encoding.
func (c *Client) Upload(url string, content []byte, onProgress ProgressCallback, onDone Callback, onError ErrorCallback, opts ...Option) uuid.UUID {
	return c.UploadChunks(url, int64(len(content)), func(dst []byte, offset int64) (int, error) {
		return copy(dst, content[offset:]), nil
	}, onProgress, onDone, onError, opts...)
}

// UploadChunks issues a POST request sending contentLength bytes obtained
// from onReadChunk with the chunked transfer encoding. Chunks are sent at the
// pace allowed by the connection and the bandwidth limit. The default timeout
// is 60s and the default connect timeout is 5s.
func (c *Client) UploadChunks(url string, contentLength int64, onReadChunk ReadChunkCallback, onProgress ProgressCallback, onDone Callback, onError ErrorCallback, opts ...Option) uuid.UUID {
	return c.issue(&requestContext{
		mode:       upload,
		method:     "POST",
		url:        url,
		onRead:     onReadChunk,
		onProgress: onProgress,
		onDone:     onDone,
		onError:    onError,
		upload: uploadState{
			total: max(contentLength, 0),
			sizer: newChunkSizer(),
		},
	}, uploadRequest, opts, "")
}

func (c *Client) issue(r *requestContext, defaults requestDefaults, opts []Option, headers string) uuid.UUID {
	o := c.resolve(defaults, opts)
	r.id = uuid.New()
	r.state = Opening
	r.resource = o.resource
	r.upload.limiter.limit = *o.bandwidthLimit
	r.log = c.log.With(
		zap.Stringer("request", r.id),
		zap.String("method", r.method),
		zap.String("url", r.url),
	)

	var err error
	if r.target, err = http1.ParseTarget(r.url); err == nil {
		r.headers, err = http1.MergeHeaders(append(append([]string{}, c.Headers...), headers)...)
	}
	if err == nil && c.closed {
		err = errClientClosed
	}
	if err == nil && r.mode == upload && r.onRead == nil {
		err = errors.New("upload without read callback")
	}
	if err != nil {
		r.fail(newError(ConnectFailure, r.url, err))
		return uuid.Nil
	}

	r.conn = c.manager.Connect(r.target.Host, r.target.Port, r.target.TLS)
	r.open(c.opts.now(), *o.timeout, *o.connectTimeout)
	c.contexts[r.conn.ID()] = r
	c.ids[r.id] = r.conn.ID()
	r.log.Debug("request issued")
	return r.id
}

// Poll waits up to wait for network events, dispatches them to the requests
// they belong to, then checks the deadlines of every request and sends the
// next chunk of uploads. All callbacks are invoked from Poll.
//
// Poll must not be called from a callback.
func (c *Client) Poll(wait time.Duration) {
	c.manager.Poll(wait, c.dispatch)
	now := c.opts.now()
	for _, r := range c.contexts {
		r.tick(now)
	}
}

func (c *Client) dispatch(conn *transport.Conn, ev transport.Event) {
	r := c.contexts[conn.ID()]
	if r == nil {
		return
	}
	switch ev.Kind {
	case transport.Connect:
		r.connect(c.opts.now())
	case transport.Handshake:
		r.handshake()
	case transport.Read:
		r.read(ev.Data)
	case transport.Write:
		r.wrote(ev.N)
	case transport.Error:
		r.transportError(ev.Err)
	case transport.Close:
		r.closed()
		delete(c.contexts, conn.ID())
		delete(c.ids, r.id)
	}
}

// PollMax polls in short slices until no request is live or max elapsed.
func (c *Client) PollMax(max time.Duration) {
	deadline := c.opts.now().Add(max)
	for len(c.contexts) > 0 {
		remain := deadline.Sub(c.opts.now())
		if remain <= 0 {
			return
		}
		c.Poll(min(remain, pollSlice))
	}
}

// Pending returns the number of live requests, including requests that
// terminated but whose connection was not closed yet.
func (c *Client) Pending() int {
	return len(c.contexts)
}

// Cancel aborts the request with the given id: its error callback receives an
// ErrCancelled error and its connection is closed. It returns false if the
// request was not live or already terminated.
func (c *Client) Cancel(id uuid.UUID) bool {
	r := c.lookup(id)
	return r != nil && r.cancel()
}

// Stats is a snapshot of the progress of a request.
type Stats struct {
	State       State
	Downloaded  int64
	TotalSize   int64
	UploadSent  int64
	UploadTotal int64
	ChunkMax    int64
	// Estimated upload speed in bytes/s.
	Speed float64
	// Bytes of the request written to the socket, and bytes queued behind
	// them, framing included.
	Flushed int64
	Backlog int64
}

// Stats returns the progress of a live request.
func (c *Client) Stats(id uuid.UUID) (Stats, bool) {
	r := c.lookup(id)
	if r == nil {
		return Stats{}, false
	}
	s := Stats{
		State:      r.state,
		Downloaded: r.downloaded,
		TotalSize:  r.totalSize,
		Flushed:    r.conn.Flushed(),
		Backlog:    r.conn.Pending(),
	}
	if r.mode == upload {
		s.UploadSent = r.upload.sent
		s.UploadTotal = r.upload.total
		s.ChunkMax = r.upload.sizer.max
		s.Speed = r.upload.speed.bytesPerSecond()
	}
	return s, true
}

func (c *Client) lookup(id uuid.UUID) *requestContext {
	connID, ok := c.ids[id]
	if !ok {
		return nil
	}
	return c.contexts[connID]
}

// Close cancels all live requests, waits up to the drain timeout for their
// connections to close and releases the resources of the client. Requests
// issued after Close fail with a ConnectFailure error.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	for _, r := range c.contexts {
		r.cancel()
	}
	c.PollMax(c.opts.drainTimeout)
	if n := c.manager.Len(); n > 0 {
		c.log.Warn("closing client with connections still open", zap.Int("count", n))
	}
	return c.manager.Close()
}
