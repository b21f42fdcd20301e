package httpoll_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/stealthrocket/httpoll/pkg/httpoll"
)

func ExampleClient_Get() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "pong")
	}))
	defer server.Close()

	client := httpoll.New()
	defer client.Close()

	client.Get(server.URL+"/ping", "", func(res *httpoll.Response) {
		fmt.Println(res.Status, string(res.Body))
	}, func(err error) {
		fmt.Println("error:", err)
	})

	// A program would call Poll from its main loop instead.
	client.PollMax(5 * time.Second)
	// Output:
	// 200 pong
}

func ExampleClient_DownloadFile() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "26")
		fmt.Fprint(w, strings.Repeat("abcdefghijklm", 2))
	}))
	defer server.Close()

	client := httpoll.New()
	defer client.Close()

	var size int64
	client.DownloadFile(server.URL+"/alphabet.txt", func(chunk []byte, downloaded, total int64) {
		size = total
	}, func(res *httpoll.Response) {
		fmt.Printf("downloaded %d bytes\n", size)
	}, nil)

	client.PollMax(5 * time.Second)
	// Output:
	// downloaded 26 bytes
}

func ExampleClient_Upload() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := httpoll.New()
	defer client.Close()

	client.Upload(server.URL+"/scores", []byte("1,2,3"), nil, func(res *httpoll.Response) {
		fmt.Println(res.Status)
	}, func(err error) {
		fmt.Println("error:", err)
	})

	client.PollMax(5 * time.Second)
	// Output:
	// 201
}
