package testserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Recorder keeps the requests received by handlers.
type Recorder struct {
	mutex    sync.Mutex
	requests []*Request
}

func (rec *Recorder) add(req *Request) {
	if rec != nil {
		rec.mutex.Lock()
		rec.requests = append(rec.requests, req)
		rec.mutex.Unlock()
	}
}

// Requests returns the requests received so far.
func (rec *Recorder) Requests() []*Request {
	rec.mutex.Lock()
	defer rec.mutex.Unlock()
	return append([]*Request(nil), rec.requests...)
}

// Last returns the last request received, or nil.
func (rec *Recorder) Last() *Request {
	rec.mutex.Lock()
	defer rec.mutex.Unlock()
	if len(rec.requests) == 0 {
		return nil
	}
	return rec.requests[len(rec.requests)-1]
}

func write(conn net.Conn, b []byte) error {
	_, err := conn.Write(b)
	return gone(err)
}

// Response formats a response with a Content-Length header and the given
// extra header lines.
func Response(status int, body string, header ...string) string {
	s := fmt.Sprintf("HTTP/1.1 %d %s\r\n", status, http.StatusText(status))
	for _, h := range header {
		s += h + "\r\n"
	}
	return s + "Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body
}

// Reply serves requests with a response carrying the given status and body.
func Reply(rec *Recorder, status int, body string, header ...string) Handler {
	return Raw(rec, Response(status, body, header...))
}

// Raw reads a full request and answers with the response bytes verbatim
// before closing the connection.
func Raw(rec *Recorder, response string) Handler {
	return func(ctx context.Context, conn net.Conn) error {
		req, err := ReadRequest(bufio.NewReader(conn), nil)
		if err != nil {
			return err
		}
		rec.add(req)
		return write(conn, []byte(response))
	}
}

// Echo reads a full request and answers 200 with the number of body bytes
// received as the response body.
func Echo(rec *Recorder) Handler {
	return func(ctx context.Context, conn net.Conn) error {
		return echo(rec, conn, bufio.NewReader(conn))
	}
}

// echo records the request even when the body was cut short, so tests can
// inspect what was received before the client aborted.
func echo(rec *Recorder, conn net.Conn, r *bufio.Reader) error {
	req, err := ReadHead(r)
	if err != nil {
		return err
	}
	err = req.ReadBody(r, nil)
	rec.add(req)
	if err != nil {
		return err
	}
	return write(conn, []byte(Response(200, strconv.Itoa(len(req.Body)))))
}

// Pattern returns the byte at offset i of the bodies served by Download.
func Pattern(i int64) byte { return byte(i % 251) }

// Download serves a body of size bytes following Pattern, written in pieces
// of at most 8 KiB. With chunked set the body is framed with the chunked
// transfer encoding instead of a Content-Length header.
func Download(size int64, chunked bool) Handler {
	return func(ctx context.Context, conn net.Conn) error {
		if _, err := ReadHead(bufio.NewReader(conn)); err != nil {
			return err
		}
		head := "HTTP/1.1 200 OK\r\n"
		if chunked {
			head += "Transfer-Encoding: chunked\r\n\r\n"
		} else {
			head += "Content-Length: " + strconv.FormatInt(size, 10) + "\r\n\r\n"
		}
		if err := write(conn, []byte(head)); err != nil {
			return err
		}
		buf := make([]byte, 0, 8192+16)
		for off := int64(0); off < size; {
			n := min(size-off, 8192)
			buf = buf[:0]
			if chunked {
				buf = strconv.AppendInt(buf, n, 16)
				buf = append(buf, "\r\n"...)
			}
			for i := int64(0); i < n; i++ {
				buf = append(buf, Pattern(off+i))
			}
			if chunked {
				buf = append(buf, "\r\n"...)
			}
			if err := write(conn, buf); err != nil {
				return err
			}
			off += n
		}
		if chunked {
			return write(conn, []byte("0\r\n\r\n"))
		}
		return nil
	}
}

// Hang reads the request head and never answers.
func Hang() Handler {
	return func(ctx context.Context, conn net.Conn) error {
		r := bufio.NewReader(conn)
		if _, err := ReadHead(r); err != nil {
			return err
		}
		go io.Copy(io.Discard, r)
		<-ctx.Done()
		return nil
	}
}

// Early answers with response as soon as the request head was received, then
// reads what the client keeps sending until it closes the connection. The
// request is recorded once the connection is closed, its body holds as many
// zero bytes as were received.
func Early(rec *Recorder, response string) Handler {
	return func(ctx context.Context, conn net.Conn) error {
		r := bufio.NewReader(conn)
		req, err := ReadHead(r)
		if err != nil {
			return err
		}
		if err := write(conn, []byte(response)); err != nil {
			return err
		}
		n, _ := io.Copy(io.Discard, r)
		req.Body = make([]byte, n)
		rec.add(req)
		return nil
	}
}

// Slow reads the request body in pieces of size bytes, pausing between reads,
// so the client observes a congested connection. It then answers like Echo.
func Slow(rec *Recorder, size int, pause time.Duration) Handler {
	return func(ctx context.Context, conn net.Conn) error {
		if tcp, ok := conn.(*net.TCPConn); ok {
			tcp.SetReadBuffer(size)
		}
		return echo(rec, conn, bufio.NewReaderSize(&slowReader{ctx: ctx, r: conn, pause: pause}, size))
	}
}

type slowReader struct {
	ctx   context.Context
	r     io.Reader
	pause time.Duration
}

func (s *slowReader) Read(b []byte) (int, error) {
	select {
	case <-time.After(s.pause):
	case <-s.ctx.Done():
		return 0, s.ctx.Err()
	}
	return s.r.Read(b)
}
