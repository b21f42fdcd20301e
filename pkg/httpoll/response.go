package httpoll

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/stealthrocket/httpoll/internal/http1"
)

// Response is the outcome of a request that completed. Downloads deliver
// their body to the download callback, the Body of their response is empty.
type Response struct {
	Status int
	// Header values by name as received. When a name is repeated the last
	// value wins.
	Headers map[string]string
	Body    []byte
}

func newResponse(head *http1.Head, body []byte) *Response {
	res := &Response{
		Status:  head.Status,
		Headers: make(map[string]string, len(head.Fields)),
		Body:    body,
	}
	for _, f := range head.Fields {
		res.Headers[f.Name] = f.Value
	}
	return res
}

// Header returns the value of the header with the given name, matched without
// regard to case.
func (res *Response) Header(name string) string {
	if v, ok := res.Headers[name]; ok {
		return v
	}
	for k, v := range res.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// DecodedBody returns the body with the content codings listed in the
// Content-Encoding header removed. The gzip, deflate and zstd codings are
// supported.
func (res *Response) DecodedBody() ([]byte, error) {
	codings := strings.Split(res.Header("Content-Encoding"), ",")
	body := res.Body
	// Codings are listed in the order they were applied.
	for i := len(codings) - 1; i >= 0; i-- {
		var err error
		switch coding := strings.ToLower(strings.TrimSpace(codings[i])); coding {
		case "", "identity":
		case "gzip", "x-gzip":
			body, err = readAll(gzip.NewReader(bytes.NewReader(body)))
		case "deflate":
			body, err = inflate(body)
		case "zstd":
			body, err = zstdDecoder().DecodeAll(body, nil)
		default:
			err = fmt.Errorf("unsupported content encoding: %q", coding)
		}
		if err != nil {
			return nil, err
		}
	}
	return body, nil
}

// inflate decodes deflate bodies, which servers send either with the zlib
// wrapper or as a raw deflate stream.
func inflate(body []byte) ([]byte, error) {
	if b, err := readAll(zlib.NewReader(bytes.NewReader(body))); err == nil {
		return b, nil
	}
	r := flate.NewReader(bytes.NewReader(body))
	defer r.Close()
	return io.ReadAll(r)
}

func readAll(r io.ReadCloser, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

var (
	zstdOnce sync.Once
	zstdDec  *zstd.Decoder
)

// zstdDecoder returns a decoder shared by all responses, DecodeAll is safe to
// call concurrently.
func zstdDecoder() *zstd.Decoder {
	zstdOnce.Do(func() {
		zstdDec, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return zstdDec
}
