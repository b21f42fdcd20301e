package testserver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"
)

var errClientGone = errors.New("client went away")

// Request is a request received by a server.
type Request struct {
	Method string
	Target string
	// Header lines as received, without the request line.
	Header []string
	Body   []byte
	// Sizes of the chunks when the body used the chunked transfer encoding.
	Chunks []int
}

// Get returns the value of the last header with the given name.
func (req *Request) Get(name string) string {
	value := ""
	for _, line := range req.Header {
		k, v, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(k), name) {
			value = strings.TrimSpace(v)
		}
	}
	return value
}

// ReadHead reads the request line and headers.
func ReadHead(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	method, rest, ok := strings.Cut(line, " ")
	target, proto, ok2 := strings.Cut(rest, " ")
	if !ok || !ok2 || proto != "HTTP/1.1" {
		return nil, fmt.Errorf("malformed request line: %q", line)
	}
	req := &Request{Method: method, Target: target}
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		if line == "" {
			return req, nil
		}
		req.Header = append(req.Header, line)
	}
}

// ReadRequest reads a full request, with its body framed by Content-Length or
// the chunked transfer encoding. The visit function, when not nil, is called
// with each piece of body read.
func ReadRequest(r *bufio.Reader, visit func([]byte)) (*Request, error) {
	req, err := ReadHead(r)
	if err != nil {
		return nil, err
	}
	if err := req.ReadBody(r, visit); err != nil {
		return nil, err
	}
	return req, nil
}

// ReadBody reads the body of a request whose head was read by ReadHead.
func (req *Request) ReadBody(r *bufio.Reader, visit func([]byte)) error {
	if visit == nil {
		visit = func([]byte) {}
	}
	if strings.EqualFold(req.Get("Transfer-Encoding"), "chunked") {
		return req.readChunks(r, visit)
	}
	n := 0
	if cl := req.Get("Content-Length"); cl != "" {
		v, err := strconv.Atoi(cl)
		if err != nil || v < 0 {
			return fmt.Errorf("malformed content length: %q", cl)
		}
		n = v
	}
	req.Body = make([]byte, n)
	if _, err := io.ReadFull(r, req.Body); err != nil {
		return gone(err)
	}
	visit(req.Body)
	return nil
}

func (req *Request) readChunks(r *bufio.Reader, visit func([]byte)) error {
	for {
		line, err := readLine(r)
		if err != nil {
			return err
		}
		size, _, _ := strings.Cut(line, ";")
		n, err := strconv.ParseUint(strings.TrimSpace(size), 16, 32)
		if err != nil {
			return fmt.Errorf("malformed chunk size: %q", line)
		}
		if n == 0 {
			break
		}
		chunk := make([]byte, n)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return gone(err)
		}
		if crlf, err := readLine(r); err != nil {
			return err
		} else if crlf != "" {
			return fmt.Errorf("chunk of size %d followed by %q", n, crlf)
		}
		req.Chunks = append(req.Chunks, int(n))
		req.Body = append(req.Body, chunk...)
		visit(chunk)
	}
	for {
		line, err := readLine(r)
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", gone(err)
	}
	if !strings.HasSuffix(line, "\r\n") {
		return "", fmt.Errorf("line not terminated by CRLF: %q", line)
	}
	return line[:len(line)-2], nil
}

// gone classifies errors caused by the client closing its end of the
// connection, which handlers do not report as failures.
func gone(err error) error {
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return fmt.Errorf("%w: %w", errClientGone, err)
	}
	return err
}
