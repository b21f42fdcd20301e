// Package buffer implements the byte buffers used on the receive path of
// connections.
package buffer

import "sync"

// DefaultSize is the default capacity of buffers allocated by a Pool and the
// alignment of buffer capacities.
const DefaultSize = 4096

// Buffer is a growable byte buffer which supports removing bytes from any
// position, so a parser can drop consumed body bytes while retaining bytes
// that precede them.
type Buffer struct{ Data []byte }

func (buf *Buffer) Len() int {
	return len(buf.Data)
}

func (buf *Buffer) Size() int64 {
	return int64(len(buf.Data))
}

// Append adds b at the end of the buffer.
func (buf *Buffer) Append(b []byte) {
	if n := len(buf.Data) + len(b); n > cap(buf.Data) {
		data := make([]byte, len(buf.Data), Align(int64(n), DefaultSize))
		copy(data, buf.Data)
		buf.Data = data
	}
	buf.Data = append(buf.Data, b...)
}

// Delete removes n bytes starting at offset off. Out of range values are
// clamped to the buffer length.
func (buf *Buffer) Delete(off, n int) {
	if off < 0 || off >= len(buf.Data) || n <= 0 {
		return
	}
	if off+n > len(buf.Data) {
		n = len(buf.Data) - off
	}
	m := copy(buf.Data[off:], buf.Data[off+n:])
	buf.Data = buf.Data[:off+m]
}

// Discard removes the first n bytes of the buffer.
func (buf *Buffer) Discard(n int) {
	buf.Delete(0, n)
}

func (buf *Buffer) Reset() {
	buf.Data = buf.Data[:0]
}

type Pool struct{ pool sync.Pool }

// Get returns a buffer of length size, reusing a pooled buffer when one with
// enough capacity is available.
func (p *Pool) Get(size int64) *Buffer {
	b, _ := p.pool.Get().(*Buffer)
	if b != nil {
		if int(size) <= cap(b.Data) {
			b.Data = b.Data[:size]
			return b
		}
		p.Put(b)
		b = nil
	}
	return New(size)
}

func (p *Pool) Put(b *Buffer) {
	if b != nil {
		p.pool.Put(b)
	}
}

func New(size int64) *Buffer {
	return &Buffer{Data: make([]byte, size, Align(size, DefaultSize))}
}

// Release puts the buffer pointed to by buf back in the pool and clears the
// pointer, so a buffer is never returned twice.
func Release(buf **Buffer, pool *Pool) {
	if b := *buf; b != nil {
		*buf = nil
		pool.Put(b)
	}
}

func Align(size, to int64) int64 {
	return ((size + (to - 1)) / to) * to
}
