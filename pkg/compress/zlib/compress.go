// Package zlib writes zlib streams holding a single fixed-Huffman DEFLATE
// block. Matches are found with per-hash buckets of recent positions and a
// one-step lazy check.
package zlib

import (
	"math/bits"

	"github.com/jpfielding/imgsave.go/pkg/bitstream"
)

const (
	hashSize   = 16384
	window     = 32768
	maxMatch   = 258
	minMatch   = 3
	minQuality = 5

	// DefaultQuality is the search depth used when none is given.
	DefaultQuality = 8
)

// CompressFunc compresses data into s as a complete zlib stream.
type CompressFunc func(data []byte, quality int, s *bitstream.Stream)

// Hash mixes the three bytes at p[0:3] into a bucket key.
func Hash(p []byte) uint32 {
	h := uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
	h ^= h << 3
	h += h >> 5
	h ^= h << 4
	h += h >> 17
	h ^= h << 25
	h += h >> 6
	return h
}

// matchLen returns the common prefix length of a and b, at most limit and 258.
func matchLen(a, b []byte, limit int) int {
	if limit > maxMatch {
		limit = maxMatch
	}
	n := 0
	for n < limit && a[n] == b[n] {
		n++
	}
	return n
}

// writeCode appends a Huffman code, which DEFLATE stores MSB first.
func writeCode(s *bitstream.Stream, code uint16, length uint) {
	s.WriteBits(uint32(bits.Reverse16(code)>>(16-length)), length)
}

// writeSymbol appends a fixed-Huffman literal/length symbol.
func writeSymbol(s *bitstream.Stream, n int) {
	switch {
	case n <= 143:
		writeCode(s, uint16(0x30+n), 8)
	case n <= 255:
		writeCode(s, uint16(0x190+n-144), 9)
	case n <= 279:
		writeCode(s, uint16(n-256), 7)
	default:
		writeCode(s, uint16(0xC0+n-280), 8)
	}
}

func writeMatch(s *bitstream.Stream, length, dist int) {
	if dist < 1 || dist >= window || length < minMatch || length > maxMatch {
		panic("zlib: match out of range")
	}
	j := 0
	for length > int(lenBase[j+1])-1 {
		j++
	}
	writeSymbol(s, j+257)
	if lenExtra[j] != 0 {
		s.WriteBits(uint32(length-int(lenBase[j])), uint(lenExtra[j]))
	}
	j = 0
	for dist > int(distBase[j+1])-1 {
		j++
	}
	writeCode(s, uint16(j), 5)
	if distExtra[j] != 0 {
		s.WriteBits(uint32(dist-int(distBase[j])), uint(distExtra[j]))
	}
}

// Compress appends a zlib stream of data to s. quality sets the number of
// positions remembered per hash bucket (2*quality) and is raised to 5 at least.
func Compress(data []byte, quality int, s *bitstream.Stream) {
	if quality < minQuality {
		quality = minQuality
	}
	basket := 2 * quality
	table := make([]int32, hashSize*basket)
	for k := range table {
		table[k] = -1
	}

	size := len(data)
	s.Reserve(size/2 + 64)
	_ = s.WriteByte(0x78)
	_ = s.WriteByte(0x5e)
	s.WriteBits(1, 1) // BFINAL
	s.WriteBits(1, 2) // BTYPE fixed

	i := 0
	for i < size-3 {
		h := int(Hash(data[i:]) & (hashSize - 1))
		bucket := table[h*basket : (h+1)*basket]
		best, bestLoc := minMatch, -1
		j := 0
		for ; j < basket && bucket[j] != -1; j++ {
			p := int(bucket[j])
			if p > i-window {
				if d := matchLen(data[p:], data[i:], size-i); d >= best {
					best, bestLoc = d, p
				}
			}
		}
		if j == basket {
			copy(bucket, bucket[quality:])
			for k := quality; k < basket; k++ {
				bucket[k] = -1
			}
			j = quality
		}
		bucket[j] = int32(i)

		if bestLoc >= 0 {
			h = int(Hash(data[i+1:]) & (hashSize - 1))
			next := table[h*basket : (h+1)*basket]
			for j = 0; j < basket && next[j] != -1; j++ {
				p := int(next[j])
				if p > i-window+1 {
					if e := matchLen(data[p:], data[i+1:], size-i-1); e > best {
						bestLoc = -1
						break
					}
				}
			}
		}

		if bestLoc >= 0 {
			writeMatch(s, best, i-bestLoc)
			i += best
		} else {
			writeSymbol(s, int(data[i]))
			i++
		}
	}
	for ; i < size; i++ {
		writeSymbol(s, int(data[i]))
	}
	writeSymbol(s, 256)
	s.FlushBits()
	s.WriteBe32(Adler32(data))
}

// CompressBytes returns the zlib stream of data as a new slice.
func CompressBytes(data []byte, quality int) []byte {
	s := bitstream.New(len(data)/2 + 64)
	Compress(data, quality, s)
	return s.Release()
}
