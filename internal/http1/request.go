// Package http1 implements the pieces of the HTTP/1.1 wire protocol used by
// the client: request heads, response heads, and chunked transfer encoding.
package http1

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
)

var (
	ErrInvalidHeader = errors.New("invalid header line")
	ErrInvalidURL    = errors.New("invalid URL")
)

// Framing describes how the body of a request is delimited on the wire.
type Framing int

const (
	// The body is sent in full after a Content-Length header.
	ContentLength Framing = iota
	// No body, the server is asked to close the connection after the
	// response (streaming downloads).
	NoBodyClose
	// The body is sent incrementally with chunked transfer encoding.
	Chunked
)

const (
	CRLF     = "\r\n"
	Protocol = "HTTP/1.1"
)

// Target is the destination of a request extracted from its URL.
type Target struct {
	// Address to dial, always with a port.
	Host string
	Port uint16
	// Value of the Host header.
	Authority string
	// Request target of the request line.
	URI string
	TLS bool
}

// ParseTarget parses rawURL and returns the destination of requests sent to
// it. Only the http and https schemes are supported.
func ParseTarget(rawURL string) (Target, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	t := Target{URI: u.RequestURI()}
	var defaultPort uint16
	switch u.Scheme {
	case "http":
		defaultPort = 80
	case "https":
		defaultPort, t.TLS = 443, true
	default:
		return Target{}, fmt.Errorf("%w: unsupported scheme: %q", ErrInvalidURL, u.Scheme)
	}
	if t.Host = u.Hostname(); t.Host == "" {
		return Target{}, fmt.Errorf("%w: missing host: %q", ErrInvalidURL, rawURL)
	}
	t.Port = defaultPort
	if p := u.Port(); p != "" {
		port, err := strconv.ParseUint(p, 10, 16)
		if err != nil || port == 0 {
			return Target{}, fmt.Errorf("%w: invalid port: %q", ErrInvalidURL, p)
		}
		t.Port = uint16(port)
	}
	authority, err := httpguts.PunycodeHostPort(u.Host)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	t.Authority = authority
	return t, nil
}

// MergeHeaders concatenates header blocks, each terminated by CRLF, in the
// order they are given. Blocks may contain multiple lines separated by CRLF.
// Headers with the same name are not deduplicated. Every line is validated.
func MergeHeaders(blocks ...string) (string, error) {
	var b strings.Builder
	for _, block := range blocks {
		block = strings.TrimRight(block, CRLF)
		if block == "" {
			continue
		}
		for _, line := range strings.Split(block, CRLF) {
			if err := validHeaderLine(line); err != nil {
				return "", err
			}
		}
		b.WriteString(block)
		b.WriteString(CRLF)
	}
	return b.String(), nil
}

func validHeaderLine(line string) error {
	name, value, ok := strings.Cut(line, ":")
	if !ok || !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidHeader, line)
	}
	if !httpguts.ValidHeaderFieldValue(strings.TrimSpace(value)) {
		return fmt.Errorf("%w: %q", ErrInvalidHeader, line)
	}
	return nil
}

// AppendRequestHead appends the request line and header section of a request
// to dst. headers must be a block produced by MergeHeaders. For the
// ContentLength framing, contentLength is written in the Content-Length
// header and the caller appends the body after the head.
func AppendRequestHead(dst []byte, method string, t Target, headers string, framing Framing, contentLength int) []byte {
	dst = append(dst, method...)
	dst = append(dst, ' ')
	dst = append(dst, t.URI...)
	dst = append(dst, " "+Protocol+CRLF...)
	dst = append(dst, "Host: "...)
	dst = append(dst, t.Authority...)
	dst = append(dst, CRLF...)
	dst = append(dst, headers...)

	switch framing {
	case NoBodyClose:
		dst = append(dst, "Connection: close"+CRLF+CRLF...)
	case Chunked:
		dst = append(dst, "Transfer-Encoding: chunked"+CRLF...)
		dst = append(dst, "Content-Type: application/octet-stream"+CRLF+CRLF...)
	default:
		dst = append(dst, "Content-Length: "...)
		dst = strconv.AppendInt(dst, int64(contentLength), 10)
		dst = append(dst, CRLF+CRLF...)
	}
	return dst
}
