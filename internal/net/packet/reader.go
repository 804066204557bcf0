package packet

import (
	"encoding/binary"
	"math"
)

// Reader reads little-endian fields from a received frame. A read past the
// end returns zero and marks the reader short; check Short once after a
// batch of reads instead of after every field.
type Reader struct {
	data  []byte
	off   int
	short bool
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) take(n int) []byte {
	if r.off+n > len(r.data) {
		r.off = len(r.data)
		r.short = true
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// ReadC reads 1 unsigned byte.
func (r *Reader) ReadC() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadBool reads one byte; any non-zero value is true.
func (r *Reader) ReadBool() bool {
	return r.ReadC() != 0
}

// ReadD reads 4 bytes as little-endian int32.
func (r *Reader) ReadD() int32 {
	return int32(r.ReadDU())
}

// ReadDU reads 4 bytes as little-endian uint32.
func (r *Reader) ReadDU() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadQ reads 8 bytes as little-endian int64.
func (r *Reader) ReadQ() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

// ReadF reads an IEEE-754 double.
func (r *Reader) ReadF() float64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Short reports whether any read ran past the end of the data.
func (r *Reader) Short() bool {
	return r.short
}
