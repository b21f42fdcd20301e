package httpoll

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stealthrocket/httpoll/internal/buffer"
	"github.com/stealthrocket/httpoll/internal/http1"
	"github.com/stealthrocket/httpoll/internal/transport"
	"go.uber.org/zap"
)

// State is the position of a request in its lifecycle.
type State uint8

const (
	Opening State = iota
	Connecting
	TLSHandshake
	// The request was written and no response byte was received yet.
	RequestSent
	// A download is waiting for the response head.
	ReceivingHeaders
	// A download is streaming the response body.
	ReceivingBody
	UploadingChunks
	AwaitingResponse
	Completed
	Failed
	Closed
)

var stateNames = [...]string{
	Opening:          "opening",
	Connecting:       "connecting",
	TLSHandshake:     "tls-handshake",
	RequestSent:      "request-sent",
	ReceivingHeaders: "receiving-headers",
	ReceivingBody:    "receiving-body",
	UploadingChunks:  "uploading-chunks",
	AwaitingResponse: "awaiting-response",
	Completed:        "completed",
	Failed:           "failed",
	Closed:           "closed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// Terminal reports whether the request invoked its completion or error
// callback.
func (s State) Terminal() bool { return s >= Completed }

type mode uint8

const (
	buffered mode = iota
	download
	upload
)

// requestContext holds the state of one request. It is owned by the client
// and only accessed from the goroutine calling Client.Poll.
type requestContext struct {
	id      uuid.UUID
	conn    *transport.Conn
	log     *zap.Logger
	mode    mode
	state   State
	method  string
	url     string
	target  http1.Target
	headers string
	body    []byte

	connectDeadline time.Time
	deadline        time.Time
	connected       bool
	errorOccurred   bool
	finished        bool

	onDone     Callback
	onError    ErrorCallback
	onDownload DownloadCallback
	onProgress ProgressCallback
	onRead     ReadChunkCallback
	resource   io.Closer

	// Bytes received and not consumed yet. Downloads only use it until the
	// response head was parsed.
	rx      buffer.Buffer
	head    *http1.Head
	chunks  http1.ChunkDecoder
	resBody []byte

	totalSize  int64
	downloaded int64
	decoded    []byte

	upload uploadState
}

type uploadState struct {
	total       int64
	sent        int64
	headersSent bool
	done        bool
	sizer       chunkSizer
	limiter     bandwidthLimiter
	speed       speedometer
	chunk       []byte
}

// open records the deadlines of the request. A timeout less than or equal to
// zero disables both deadlines, a connect timeout less than or equal to zero
// disables the connect deadline only.
func (r *requestContext) open(now time.Time, timeout, connectTimeout time.Duration) {
	r.state = Connecting
	if timeout <= 0 {
		return
	}
	r.deadline = now.Add(timeout)
	if connectTimeout > 0 {
		r.connectDeadline = now.Add(connectTimeout)
	}
}

func (r *requestContext) terminated() bool {
	return r.finished || r.errorOccurred
}

// tick checks the deadlines and drives uploads, it runs on every poll.
func (r *requestContext) tick(now time.Time) {
	if r.terminated() {
		return
	}
	if !r.connected && !r.connectDeadline.IsZero() && now.After(r.connectDeadline) {
		r.fail(newError(ConnectTimeout, r.url, nil))
		return
	}
	if !r.deadline.IsZero() && now.After(r.deadline) {
		r.fail(newError(Timeout, r.url, nil))
		return
	}
	if r.mode == upload && r.upload.headersSent && !r.upload.done {
		r.uploadTick(now)
	}
}

func (r *requestContext) connect(now time.Time) {
	if r.terminated() {
		return
	}
	r.connected = true
	r.log.Debug("connected",
		zap.String("host", r.conn.Host()),
		zap.Uint16("port", r.conn.Port()),
		zap.Bool("tls", r.conn.TLS()),
	)

	if r.target.TLS {
		r.state = TLSHandshake
		r.conn.StartTLS(r.target.Host)
	}

	var head []byte
	switch r.mode {
	case download:
		head = http1.AppendRequestHead(nil, r.method, r.target, r.headers, http1.NoBodyClose, 0)
	case upload:
		head = http1.AppendRequestHead(nil, r.method, r.target, r.headers, http1.Chunked, 0)
	default:
		head = http1.AppendRequestHead(make([]byte, 0, 512+len(r.body)), r.method, r.target, r.headers, http1.ContentLength, len(r.body))
		head = append(head, r.body...)
	}
	r.conn.Send(head)

	if r.mode == upload {
		r.upload.headersSent = true
		r.upload.limiter = newBandwidthLimiter(r.upload.limiter.limit, now)
		r.upload.speed = newSpeedometer(now)
	}
	if !r.target.TLS {
		r.sent()
	}
}

func (r *requestContext) handshake() {
	if r.terminated() {
		return
	}
	r.log.Debug("tls handshake completed")
	r.sent()
}

// sent moves the request to the state waiting for the response of its mode.
func (r *requestContext) sent() {
	switch r.mode {
	case download:
		r.state = ReceivingHeaders
	case upload:
		r.state = UploadingChunks
	default:
		r.state = RequestSent
	}
}

func (r *requestContext) wrote(n int) {
	if r.mode == upload {
		r.upload.speed.add(n)
	}
}

func (r *requestContext) read(data []byte) {
	if r.terminated() {
		return
	}
	if r.mode == download {
		r.readDownload(data)
	} else {
		r.readResponse(data)
	}
}

// readResponse buffers the response of plain requests and uploads until it is
// complete.
func (r *requestContext) readResponse(data []byte) {
	if r.state == RequestSent {
		r.state = AwaitingResponse
	}
	r.rx.Append(data)

	if r.head == nil {
		head, ok := r.parseHead()
		if !ok {
			return
		}
		r.head = head
	}

	switch {
	case !r.head.BodyAllowed(r.method):
		r.complete(nil)
	case r.head.Chunked:
		body, n, err := r.chunks.Decode(r.resBody, r.rx.Data)
		r.resBody = body
		r.rx.Discard(n)
		if err != nil {
			r.fail(newError(Transport, r.url, err))
		} else if r.chunks.Done() {
			r.complete(r.resBody)
		}
	case r.head.ContentLength >= 0:
		if int64(r.rx.Len()) >= r.head.ContentLength {
			r.complete(r.rx.Data[:r.head.ContentLength])
		}
	}
	// Bodies delimited by the end of the connection complete in closed.
}

// parseHead consumes the response head buffered in rx, skipping interim
// responses. It returns false when the head is incomplete or was malformed, in
// which case the request failed.
func (r *requestContext) parseHead() (*http1.Head, bool) {
	for {
		head, err := http1.ParseResponseHead(r.rx.Data)
		if err != nil {
			if !errors.Is(err, http1.ErrIncomplete) {
				r.fail(newError(Transport, r.url, err))
			}
			return nil, false
		}
		r.rx.Discard(head.Size)
		if !head.Interim() {
			r.log.Debug("response received", zap.Int("status", head.Status))
			return &head, true
		}
	}
}

// readDownload streams the body of a download to the download callback. Only
// the response head is buffered, body bytes are passed on as they are read.
func (r *requestContext) readDownload(data []byte) {
	if r.head == nil {
		r.rx.Append(data)
		head, ok := r.parseHead()
		if !ok {
			return
		}
		r.head = head
		r.state = ReceivingBody
		if head.Status != 200 {
			r.rx.Reset()
			r.fail(&Error{Kind: HTTPStatus, URL: r.url, Status: head.Status})
			return
		}
		r.totalSize = max(head.ContentLength, 0)
		if !head.BodyAllowed(r.method) || head.ContentLength == 0 {
			r.complete(nil)
			return
		}
		data = r.rx.Data
		defer r.rx.Reset()
	}

	if r.head.Chunked {
		decoded, _, err := r.chunks.Decode(r.decoded[:0], data)
		r.decoded = decoded
		if err != nil {
			r.fail(newError(Transport, r.url, err))
			return
		}
		r.deliver(r.decoded)
		if !r.terminated() && r.chunks.Done() {
			r.complete(nil)
		}
		return
	}

	if r.totalSize > 0 {
		if remain := r.totalSize - r.downloaded; int64(len(data)) > remain {
			data = data[:remain]
		}
	}
	r.deliver(data)
	if !r.terminated() && r.totalSize > 0 && r.downloaded == r.totalSize {
		r.complete(nil)
	}
}

func (r *requestContext) deliver(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	r.downloaded += int64(len(chunk))
	// The callback may cancel the request.
	if r.onDownload != nil {
		r.onDownload(chunk, r.downloaded, r.totalSize)
	}
}

// uploadTick sends the next chunk of an upload if the connection backlog and
// the bandwidth limit allow it, then reports progress.
func (r *requestContext) uploadTick(now time.Time) {
	u := &r.upload
	u.speed.sample(now)
	defer r.progress()

	if r.conn.Pending() > 0 {
		u.sizer.shrink()
		return
	}
	u.sizer.grow()

	size := min(u.sizer.max, u.total-u.sent)
	if avail := u.limiter.available(now); avail == 0 {
		return
	} else if avail > 0 {
		size = min(size, avail)
	}

	if size > 0 {
		if int64(cap(u.chunk)) < size {
			u.chunk = make([]byte, size)
		}
		dst := u.chunk[:size]
		n, err := r.onRead(dst, u.sent)
		switch {
		case err != nil:
			r.fail(newError(ReadCallback, r.url, err))
			return
		case n <= 0 || int64(n) > size:
			r.fail(readCallbackError(r.url, n, int(size)))
			return
		}
		r.conn.Send(http1.AppendChunk(nil, dst[:n]))
		u.sent += int64(n)
		u.limiter.sent(int64(n))
	}

	if u.sent == u.total {
		r.conn.Send(http1.AppendLastChunk(nil))
		u.done = true
		if r.head == nil {
			r.state = RequestSent
		} else {
			r.state = AwaitingResponse
		}
		r.log.Debug("upload sent", zap.Int64("bytes", u.sent))
	}
}

func (r *requestContext) progress() {
	if r.onProgress != nil && !r.terminated() {
		r.onProgress(r.upload.sent, r.upload.total, r.upload.speed.bytesPerSecond())
	}
}

func (r *requestContext) transportError(err error) {
	if !r.terminated() {
		r.fail(newError(Transport, r.url, err))
	}
}

// closed runs when the transport reported the connection closed. Responses
// delimited by the end of the connection complete here, any other request
// that did not terminate yet fails.
func (r *requestContext) closed() {
	if !r.terminated() {
		switch {
		case r.head == nil || r.head.Chunked || r.head.ContentLength >= 0:
			r.fail(newError(UnexpectedClose, r.url, nil))
		case r.mode == download:
			r.complete(nil)
		default:
			r.complete(r.rx.Data)
		}
	}
	r.state = Closed
	r.log.Debug("closed")
}

func (r *requestContext) cancel() bool {
	if r.terminated() {
		return false
	}
	r.fail(newError(Cancelled, r.url, nil))
	return true
}

func (r *requestContext) complete(body []byte) {
	if r.mode == download {
		body = nil
	}
	res := newResponse(r.head, append([]byte{}, body...))
	r.finished = true
	r.state = Completed
	r.log.Debug("request completed", zap.Int("status", res.Status))
	if r.onDone != nil {
		r.onDone(res)
	}
	r.release()
}

func (r *requestContext) fail(err *Error) {
	r.errorOccurred = true
	r.state = Failed
	if r.onError != nil {
		r.log.Debug("request failed", zap.Error(err))
		r.onError(err)
	} else {
		r.log.Warn("request failed", zap.Error(err))
	}
	r.release()
}

// release closes the connection and the resource owned by the request, after
// the terminal callback ran.
func (r *requestContext) release() {
	r.rx = buffer.Buffer{}
	r.resBody, r.decoded, r.upload.chunk = nil, nil, nil
	if r.conn != nil {
		r.conn.Close()
	}
	if r.resource != nil {
		if err := r.resource.Close(); err != nil {
			r.log.Warn("closing request resource", zap.Error(err))
		}
		r.resource = nil
	}
}
