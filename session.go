package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/stealthrocket/httpoll/internal/config"
	"github.com/stealthrocket/httpoll/internal/human"
	"github.com/stealthrocket/httpoll/pkg/httpoll"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// session groups the configuration, logger and client shared by the request
// commands.
type session struct {
	config *config.Config
	client *httpoll.Client
	log    *zap.Logger
}

func openSession(verbose bool, headers []string, opts ...httpoll.Option) (*session, error) {
	c, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := c.NewLogger(verbose)
	if err != nil {
		return nil, err
	}
	client := c.NewClient(append(opts, httpoll.WithLogger(log))...)
	client.Headers = append(client.Headers, headers...)
	return &session{config: c, client: client, log: log}, nil
}

// wait polls the client until no request is pending. When ctx is cancelled
// the pending requests are cancelled and the function returns ctx.Err().
func (s *session) wait(ctx context.Context) error {
	interval := time.Duration(s.config.Client.PollInterval)
	for s.client.Pending() > 0 {
		if ctx.Err() != nil {
			_ = s.client.Close()
			break
		}
		s.client.Poll(interval)
	}
	return ctx.Err()
}

func (s *session) Close() error {
	err := s.client.Close()
	_ = s.log.Sync()
	return err
}

// progress prints transfer progress on stderr, at most once per second.
type progress struct {
	verb  string
	every rate.Sometimes
	start time.Time
}

func newProgress(verb string) *progress {
	return &progress{
		verb:  verb,
		every: rate.Sometimes{First: 1, Interval: time.Second},
		start: time.Now(),
	}
}

func (p *progress) report(done, total int64, speed float64) {
	p.every.Do(func() { p.print(done, total, speed) })
}

func (p *progress) print(done, total int64, speed float64) {
	if speed <= 0 {
		if elapsed := time.Since(p.start).Seconds(); elapsed > 0 {
			speed = float64(done) / elapsed
		}
	}
	bw := human.Bandwidth(speed)
	if total > 0 {
		fmt.Fprintf(os.Stderr, "%s %v / %v (%v) at %v\n", p.verb,
			human.Bytes(done), human.Bytes(total), human.RatioOf(done, total), bw)
	} else {
		fmt.Fprintf(os.Stderr, "%s %v at %v\n", p.verb, human.Bytes(done), bw)
	}
}
