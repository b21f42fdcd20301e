package http1

import (
	"errors"
	"strconv"
)

var (
	ErrChunkSize   = errors.New("invalid chunk size")
	ErrChunkFormat = errors.New("invalid chunk framing")
)

// The largest chunk size accepted by the decoder, large enough for any body a
// client would buffer or stream.
const maxChunkSize = 1 << 40

// AppendChunk appends p framed as a chunk: <hex-length>\r\n<bytes>\r\n. An
// empty p would terminate the body, so nothing is appended in that case.
func AppendChunk(dst, p []byte) []byte {
	if len(p) == 0 {
		return dst
	}
	dst = strconv.AppendUint(dst, uint64(len(p)), 16)
	dst = append(dst, CRLF...)
	dst = append(dst, p...)
	dst = append(dst, CRLF...)
	return dst
}

// AppendLastChunk appends the zero-length chunk which terminates a chunked
// body, without trailers.
func AppendLastChunk(dst []byte) []byte {
	return append(dst, "0"+CRLF+CRLF...)
}

type chunkState uint8

const (
	chunkSize chunkState = iota
	chunkExt
	chunkSizeLF
	chunkData
	chunkDataCR
	chunkDataLF
	chunkTrailer
	chunkTrailerLine
	chunkTrailerLF
	chunkDone
)

// ChunkDecoder is an incremental decoder of chunked transfer encoding. Input
// may be split at any byte boundary across calls to Decode.
type ChunkDecoder struct {
	state  chunkState
	size   int64
	digits int
}

// Done reports whether the last chunk and the trailer section were decoded.
func (d *ChunkDecoder) Done() bool {
	return d.state == chunkDone
}

// Decode consumes bytes of src, appends the decoded payload to dst and returns
// it along with the number of bytes consumed. Once the body is complete the
// remaining bytes of src are left unconsumed.
func (d *ChunkDecoder) Decode(dst, src []byte) ([]byte, int, error) {
	i := 0
	for i < len(src) && d.state != chunkDone {
		c := src[i]

		switch d.state {
		case chunkSize:
			switch {
			case c == '\r' || c == '\n' || c == ';' || c == ' ' || c == '\t':
				if d.digits == 0 {
					return dst, i, ErrChunkSize
				}
				switch c {
				case '\r':
					d.state = chunkSizeLF
				case '\n':
					d.endSizeLine()
				default:
					d.state = chunkExt
				}
			default:
				v, ok := unhex(c)
				if !ok {
					return dst, i, ErrChunkSize
				}
				if d.size = d.size<<4 | int64(v); d.size > maxChunkSize {
					return dst, i, ErrChunkSize
				}
				d.digits++
			}
			i++

		case chunkExt:
			if c == '\n' {
				d.endSizeLine()
			}
			i++

		case chunkSizeLF:
			if c != '\n' {
				return dst, i, ErrChunkFormat
			}
			d.endSizeLine()
			i++

		case chunkData:
			n := len(src) - i
			if int64(n) > d.size {
				n = int(d.size)
			}
			dst = append(dst, src[i:i+n]...)
			d.size -= int64(n)
			if d.size == 0 {
				d.state = chunkDataCR
			}
			i += n

		case chunkDataCR:
			switch c {
			case '\r':
				d.state = chunkDataLF
			case '\n':
				d.state = chunkSize
			default:
				return dst, i, ErrChunkFormat
			}
			i++

		case chunkDataLF:
			if c != '\n' {
				return dst, i, ErrChunkFormat
			}
			d.state = chunkSize
			i++

		case chunkTrailer:
			switch c {
			case '\r':
				d.state = chunkTrailerLF
			case '\n':
				d.state = chunkDone
			default:
				d.state = chunkTrailerLine
			}
			i++

		case chunkTrailerLine:
			if c == '\n' {
				d.state = chunkTrailer
			}
			i++

		case chunkTrailerLF:
			if c != '\n' {
				return dst, i, ErrChunkFormat
			}
			d.state = chunkDone
			i++
		}
	}
	return dst, i, nil
}

func (d *ChunkDecoder) endSizeLine() {
	if d.size == 0 {
		d.state = chunkTrailer
	} else {
		d.state = chunkData
	}
	d.digits = 0
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
