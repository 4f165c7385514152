// Package bitstream provides the growable output buffer shared by the image
// encoders. Bytes are appended directly; bits are packed LSB-first, the way
// DEFLATE streams expect them.
package bitstream

import (
	"encoding/binary"
	"errors"
)

// ErrOutOfRange signals a patch outside the written region.
var ErrOutOfRange = errors.New("bitstream: offset out of range")

// Stream is an append-only byte buffer with a bit accumulator.
// The zero value is ready to use.
type Stream struct {
	buf  []byte
	bits uint32 // Pending bits, LSB first
	n    uint   // Number of valid bits in bits
}

// New returns a Stream with room for capacity bytes.
func New(capacity int) *Stream {
	return &Stream{buf: make([]byte, 0, capacity)}
}

// Len returns the number of whole bytes written.
func (s *Stream) Len() int { return len(s.buf) }

// Bytes returns the written bytes. The slice aliases the stream.
func (s *Stream) Bytes() []byte { return s.buf }

// Reserve grows the capacity so that n more bytes fit without reallocation.
func (s *Stream) Reserve(n int) {
	if cap(s.buf)-len(s.buf) >= n {
		return
	}
	c := 2 * cap(s.buf)
	if c < len(s.buf)+n {
		c = len(s.buf) + n
	}
	nb := make([]byte, len(s.buf), c)
	copy(nb, s.buf)
	s.buf = nb
}

// Write appends p. It never fails.
func (s *Stream) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// WriteByte appends a single byte.
func (s *Stream) WriteByte(c byte) error {
	s.buf = append(s.buf, c)
	return nil
}

// WriteString appends the bytes of str.
func (s *Stream) WriteString(str string) (int, error) {
	s.buf = append(s.buf, str...)
	return len(str), nil
}

// WriteBe16 appends v in big-endian order.
func (s *Stream) WriteBe16(v uint16) {
	s.buf = binary.BigEndian.AppendUint16(s.buf, v)
}

// WriteBe32 appends v in big-endian order.
func (s *Stream) WriteBe32(v uint32) {
	s.buf = binary.BigEndian.AppendUint32(s.buf, v)
}

// WriteLe16 appends v in little-endian order.
func (s *Stream) WriteLe16(v uint16) {
	s.buf = binary.LittleEndian.AppendUint16(s.buf, v)
}

// WriteLe32 appends v in little-endian order.
func (s *Stream) WriteLe32(v uint32) {
	s.buf = binary.LittleEndian.AppendUint32(s.buf, v)
}

// PutBe32At overwrites four bytes at off with v, for length fields that are
// only known after the payload was written.
func (s *Stream) PutBe32At(off int, v uint32) error {
	if off < 0 || off+4 > len(s.buf) {
		return ErrOutOfRange
	}
	binary.BigEndian.PutUint32(s.buf[off:], v)
	return nil
}

// PutLe32At overwrites four bytes at off with v.
func (s *Stream) PutLe32At(off int, v uint32) error {
	if off < 0 || off+4 > len(s.buf) {
		return ErrOutOfRange
	}
	binary.LittleEndian.PutUint32(s.buf[off:], v)
	return nil
}

// WriteBits appends the low count bits of v, least significant first.
// count must not exceed 24.
func (s *Stream) WriteBits(v uint32, count uint) {
	s.bits |= (v & (1<<count - 1)) << s.n
	s.n += count
	for s.n >= 8 {
		s.buf = append(s.buf, byte(s.bits))
		s.bits >>= 8
		s.n -= 8
	}
}

// FlushBits pads the pending bits with zeros to a byte boundary.
func (s *Stream) FlushBits() {
	if s.n > 0 {
		s.WriteBits(0, 8-s.n%8)
	}
	s.bits, s.n = 0, 0
}

// Pending returns the number of bits waiting for a byte boundary.
func (s *Stream) Pending() uint { return s.n }

// Reset discards all content but keeps the allocation.
func (s *Stream) Reset() {
	s.buf = s.buf[:0]
	s.bits, s.n = 0, 0
}

// Release hands the written bytes to the caller and leaves the stream empty.
// Pending bits are flushed first.
func (s *Stream) Release() []byte {
	s.FlushBits()
	out := s.buf
	s.buf = nil
	return out
}
