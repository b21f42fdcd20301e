package http1

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrIncomplete = errors.New("incomplete response head")
	ErrMalformed  = errors.New("malformed response head")
)

// MaxHeadSize is the largest response head accepted by ParseResponseHead.
const MaxHeadSize = 64 * 1024

// Field is a header field of a response.
type Field struct {
	Name  string
	Value string
}

// Head is the parsed status line and header section of a response.
type Head struct {
	Proto  string
	Status int
	Reason string
	Fields []Field
	// Value of the Content-Length header, or -1 when the header is absent or
	// ignored because the body is chunked.
	ContentLength int64
	Chunked       bool
	Close         bool
	// Number of bytes occupied by the head, including the empty line which
	// terminates it.
	Size int
}

// Interim reports whether the response is a 1xx informational response which
// is followed by the final response on the same connection.
func (h *Head) Interim() bool {
	return h.Status >= 100 && h.Status < 200 && h.Status != 101
}

// BodyAllowed reports whether a response with this head to a request with the
// given method may carry a body.
func (h *Head) BodyAllowed(method string) bool {
	switch {
	case method == "HEAD":
		return false
	case h.Status == 204, h.Status == 304:
		return false
	case h.Status >= 100 && h.Status < 200:
		return false
	}
	return true
}

// ParseResponseHead parses the response head at the beginning of b. The
// function returns ErrIncomplete if b does not contain the full head yet.
func ParseResponseHead(b []byte) (Head, error) {
	end, size := headEnd(b)
	if end < 0 {
		if len(b) > MaxHeadSize {
			return Head{}, fmt.Errorf("%w: head larger than %d bytes", ErrMalformed, MaxHeadSize)
		}
		return Head{}, ErrIncomplete
	}

	h := Head{ContentLength: -1, Size: size}
	lines := strings.Split(string(b[:end]), "\n")

	statusLine := strings.TrimSuffix(lines[0], "\r")
	proto, rest, ok := strings.Cut(statusLine, " ")
	if !ok || !strings.HasPrefix(proto, "HTTP/1.") {
		return Head{}, fmt.Errorf("%w: invalid status line: %q", ErrMalformed, statusLine)
	}
	code, reason, _ := strings.Cut(rest, " ")
	status, err := strconv.Atoi(code)
	if err != nil || len(code) != 3 || status < 100 {
		return Head{}, fmt.Errorf("%w: invalid status code: %q", ErrMalformed, code)
	}
	h.Proto, h.Status, h.Reason = proto, status, reason
	h.Close = proto == "HTTP/1.0"

	for _, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" || strings.TrimSpace(name) != name {
			return Head{}, fmt.Errorf("%w: invalid header line: %q", ErrMalformed, line)
		}
		value = strings.TrimSpace(value)
		h.Fields = append(h.Fields, Field{Name: name, Value: value})

		switch {
		case strings.EqualFold(name, "Content-Length"):
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil || n < 0 {
				return Head{}, fmt.Errorf("%w: invalid content length: %q", ErrMalformed, value)
			}
			if h.ContentLength >= 0 && h.ContentLength != n {
				return Head{}, fmt.Errorf("%w: conflicting content lengths: %d and %d", ErrMalformed, h.ContentLength, n)
			}
			h.ContentLength = n
		case strings.EqualFold(name, "Transfer-Encoding"):
			h.Chunked = lastToken(value, "chunked")
		case strings.EqualFold(name, "Connection"):
			if lastToken(value, "close") {
				h.Close = true
			}
		}
	}

	if h.Chunked {
		h.ContentLength = -1
	}
	return h, nil
}

// headEnd returns the offset of the empty line terminating the head and the
// total size of the head, or -1 if b does not contain a full head. Bare LF
// line endings are tolerated.
func headEnd(b []byte) (end, size int) {
	crlf := bytes.Index(b, []byte("\r\n\r\n"))
	lf := bytes.Index(b, []byte("\n\n"))
	switch {
	case crlf < 0 && lf < 0:
		return -1, 0
	case lf < 0 || (crlf >= 0 && crlf < lf):
		return crlf, crlf + 4
	default:
		return lf, lf + 2
	}
}

func lastToken(value, token string) bool {
	tokens := strings.Split(value, ",")
	return strings.EqualFold(strings.TrimSpace(tokens[len(tokens)-1]), token)
}
