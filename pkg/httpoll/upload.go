package httpoll

import (
	"math"
	"time"
)

const (
	// MinChunkSize is the floor of the adaptive chunk size of uploads, and its
	// initial value.
	MinChunkSize = 1024

	bandwidthWindow = time.Second
	speedWindow     = 100 * time.Millisecond
	speedWeight     = 0.2
)

// chunkSizer adapts the size of upload chunks to the backlog of the
// connection: it shrinks by 1% every time bytes of the previous chunks are
// still queued, and grows by 10% otherwise.
type chunkSizer struct {
	max int64
}

func newChunkSizer() chunkSizer {
	return chunkSizer{max: MinChunkSize}
}

func (s *chunkSizer) shrink() {
	s.max = max(s.max*99/100, MinChunkSize)
}

func (s *chunkSizer) grow() {
	if s.max > math.MaxInt64/11 {
		s.max = math.MaxInt64
	} else {
		s.max = s.max * 11 / 10
	}
}

// bandwidthLimiter accounts for the bytes sent in a one second window that
// restarts when it expires. Within the window, the budget grows linearly with
// the time elapsed since the window started.
type bandwidthLimiter struct {
	limit       int64
	windowStart time.Time
	windowSent  int64
}

func newBandwidthLimiter(limit int64, now time.Time) bandwidthLimiter {
	return bandwidthLimiter{limit: limit, windowStart: now}
}

// available returns the number of bytes that can be sent at time now, or -1 if
// the limiter is disabled.
func (l *bandwidthLimiter) available(now time.Time) int64 {
	if l.limit <= 0 {
		return -1
	}
	elapsed := now.Sub(l.windowStart)
	if elapsed >= bandwidthWindow {
		l.windowStart, l.windowSent, elapsed = now, 0, 0
	}
	allowed := l.limit * elapsed.Milliseconds() / 1000
	if l.windowSent >= allowed {
		return 0
	}
	return allowed - l.windowSent
}

func (l *bandwidthLimiter) sent(n int64) {
	l.windowSent += n
}

// speedometer estimates the transfer rate from the bytes flushed to the
// socket, blending samples of at least 100ms into an exponential moving
// average.
type speedometer struct {
	start   time.Time
	flushed int64
	speed   float64
}

func newSpeedometer(now time.Time) speedometer {
	return speedometer{start: now}
}

func (s *speedometer) add(n int) {
	s.flushed += int64(n)
}

func (s *speedometer) sample(now time.Time) {
	elapsed := now.Sub(s.start)
	if elapsed < speedWindow {
		return
	}
	rate := float64(s.flushed) / elapsed.Seconds()
	s.speed = speedWeight*rate + (1-speedWeight)*s.speed
	s.start, s.flushed = now, 0
}

// bytesPerSecond returns the current estimate.
func (s *speedometer) bytesPerSecond() float64 { return s.speed }
