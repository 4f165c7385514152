package jpeg

import "github.com/jpfielding/imgsave.go/pkg/bitstream"

const (
	queueSize = 2048
	// worst case pushes for one macroblock: six data units of DC, 63 AC
	// codes with magnitudes, run markers and EOB
	blockReserve = 6 * 130
)

// BitWriter queues codewords and packs them MSB first into a byte stream,
// stuffing a zero byte after every 0xFF.
type BitWriter struct {
	s     *bitstream.Stream
	queue [queueSize]Code
	n     int
	acc   uint32
	cnt   uint
}

// NewBitWriter returns a BitWriter appending to s.
func NewBitWriter(s *bitstream.Stream) *BitWriter {
	return &BitWriter{s: s}
}

// Push queues one codeword.
func (b *BitWriter) Push(c Code) {
	b.queue[b.n] = c
	b.n++
}

// PushBits queues the low size bits of v.
func (b *BitWriter) PushBits(v uint16, size uint8) {
	b.Push(Code{Bits: v, Size: size})
}

// Full reports whether the queue may not hold another macroblock.
func (b *BitWriter) Full() bool {
	return b.n > queueSize-blockReserve
}

// Len returns the number of queued codewords.
func (b *BitWriter) Len() int { return b.n }

// Flush packs all queued codewords into the stream. Bits short of a byte
// stay in the accumulator.
func (b *BitWriter) Flush() {
	for _, c := range b.queue[:b.n] {
		b.write(c)
	}
	b.n = 0
}

func (b *BitWriter) write(c Code) {
	b.cnt += uint(c.Size)
	b.acc |= (uint32(c.Bits) & (1<<c.Size - 1)) << (24 - b.cnt)
	for b.cnt >= 8 {
		v := byte(b.acc >> 16)
		_ = b.s.WriteByte(v)
		if v == 0xFF {
			_ = b.s.WriteByte(0)
		}
		b.acc <<= 8
		b.cnt -= 8
	}
}

// Finish drains the queue and pads the last byte with one bits. Bits left
// over after padding are dropped.
func (b *BitWriter) Finish() {
	b.Push(Code{Bits: 0x7F, Size: 7})
	b.Flush()
	b.acc, b.cnt = 0, 0
}
