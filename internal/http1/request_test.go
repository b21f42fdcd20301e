package http1_test

import (
	"testing"

	"github.com/stealthrocket/httpoll/internal/assert"
	"github.com/stealthrocket/httpoll/internal/http1"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		url    string
		target http1.Target
	}{
		{
			url:    "http://test.local/ok",
			target: http1.Target{Host: "test.local", Port: 80, Authority: "test.local", URI: "/ok"},
		},
		{
			url:    "https://example.com:8443/a/b?c=d",
			target: http1.Target{Host: "example.com", Port: 8443, Authority: "example.com:8443", URI: "/a/b?c=d", TLS: true},
		},
		{
			url:    "http://127.0.0.1:8080",
			target: http1.Target{Host: "127.0.0.1", Port: 8080, Authority: "127.0.0.1:8080", URI: "/"},
		},
		{
			url:    "http://bücher.example/",
			target: http1.Target{Host: "bücher.example", Port: 80, Authority: "xn--bcher-kva.example", URI: "/"},
		},
	}

	for _, test := range tests {
		t.Run(test.url, func(t *testing.T) {
			target, err := http1.ParseTarget(test.url)
			assert.OK(t, err)
			assert.Equal(t, target, test.target)
		})
	}
}

func TestParseTargetInvalid(t *testing.T) {
	for _, url := range []string{
		"ftp://example.com/",
		"test.local/ok",
		"http:///path",
		"http://example.com:99999/",
		"http://example.com:0/",
		"://",
	} {
		t.Run(url, func(t *testing.T) {
			_, err := http1.ParseTarget(url)
			assert.Error(t, err, http1.ErrInvalidURL)
		})
	}
}

func TestMergeHeaders(t *testing.T) {
	headers, err := http1.MergeHeaders(
		"User-Agent: httpoll",
		"X-Token: a",
		"",
		"X-Token: b\r\nAccept: application/json\r\n",
	)
	assert.OK(t, err)
	assert.Equal(t, headers, "User-Agent: httpoll\r\nX-Token: a\r\nX-Token: b\r\nAccept: application/json\r\n")
}

func TestMergeHeadersInvalid(t *testing.T) {
	for _, block := range []string{
		"no colon",
		"Bad Name: value",
		"X-Value: a\x00b",
		": empty name",
	} {
		t.Run(block, func(t *testing.T) {
			_, err := http1.MergeHeaders(block)
			assert.Error(t, err, http1.ErrInvalidHeader)
		})
	}
}

func TestAppendRequestHead(t *testing.T) {
	target := http1.Target{Authority: "test.local:8080", URI: "/upload"}
	headers := "X-A: 1\r\nX-A: 2\r\n"

	tests := []struct {
		scenario string
		method   string
		framing  http1.Framing
		length   int
		head     string
	}{
		{
			scenario: "content length",
			method:   "POST",
			framing:  http1.ContentLength,
			length:   4,
			head:     "POST /upload HTTP/1.1\r\nHost: test.local:8080\r\nX-A: 1\r\nX-A: 2\r\nContent-Length: 4\r\n\r\n",
		},
		{
			scenario: "download",
			method:   "GET",
			framing:  http1.NoBodyClose,
			head:     "GET /upload HTTP/1.1\r\nHost: test.local:8080\r\nX-A: 1\r\nX-A: 2\r\nConnection: close\r\n\r\n",
		},
		{
			scenario: "chunked upload",
			method:   "POST",
			framing:  http1.Chunked,
			head:     "POST /upload HTTP/1.1\r\nHost: test.local:8080\r\nX-A: 1\r\nX-A: 2\r\nTransfer-Encoding: chunked\r\nContent-Type: application/octet-stream\r\n\r\n",
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			head := http1.AppendRequestHead(nil, test.method, target, headers, test.framing, test.length)
			assert.Equal(t, string(head), test.head)
		})
	}
}
