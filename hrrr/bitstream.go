package hrrr

import (
	"encoding/binary"
	"fmt"
)

// bitReader pulls big-endian, MSB-first bit fields of any width up to 64
// out of a byte slice.
type bitReader struct {
	buf []byte
	pos int // bit offset
}

func newBitReader(b []byte) *bitReader { return &bitReader{buf: b} }

// read consumes n bits (0 <= n <= 64). Reading past the end of the buffer is
// an error, never a panic: the bytes come straight off the network.
func (r *bitReader) read(n int) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	if n < 0 || n > 64 {
		return 0, fmt.Errorf("bitReader: invalid width %d", n)
	}
	end := r.pos + n
	if end > len(r.buf)*8 {
		return 0, fmt.Errorf("bitReader: %d bits at offset %d overrun %d-byte buffer", n, r.pos, len(r.buf))
	}

	if r.pos%8 == 0 {
		b := r.buf[r.pos/8:]
		var v uint64
		switch n {
		case 8:
			v = uint64(b[0])
		case 16:
			v = uint64(binary.BigEndian.Uint16(b))
		case 32:
			v = uint64(binary.BigEndian.Uint32(b))
		case 64:
			v = binary.BigEndian.Uint64(b)
		default:
			return r.readBits(n, end), nil
		}
		r.pos = end
		return v, nil
	}
	return r.readBits(n, end), nil
}

func (r *bitReader) readBits(n, end int) uint64 {
	var v uint64
	for p := r.pos; p < end; p++ {
		bit := (r.buf[p/8] >> (7 - p%8)) & 1
		v = v<<1 | uint64(bit)
	}
	r.pos = end
	return v
}

// align skips to the next byte boundary.
func (r *bitReader) align() {
	if rem := r.pos % 8; rem != 0 {
		r.pos += 8 - rem
	}
}

// bytePos is the current offset in whole bytes; only meaningful when aligned.
func (r *bitReader) bytePos() int { return r.pos / 8 }
