package zlib

const (
	adlerMod   = 65521
	adlerBlock = 5552 // largest n with 255*n*(n+1)/2 + (n+1)*(mod-1) < 2^32
)

// Adler32 returns the Adler-32 checksum of data. An empty input yields 1.
func Adler32(data []byte) uint32 {
	lo, hi := uint32(1), uint32(0)
	n := len(data) % adlerBlock
	for len(data) > 0 {
		block := data[:n]
		var sum, weighted uint32
		for k, d := range block {
			sum += uint32(d)
			weighted += uint32(d) * uint32(n-k)
		}
		hi = (hi + weighted + lo*uint32(n)%adlerMod) % adlerMod
		lo = (lo + sum) % adlerMod
		data = data[n:]
		n = adlerBlock
	}
	return hi<<16 | lo
}
