package jpeg

import (
	"math"
	"math/bits"
)

// ProcessDUFunc quantizes a transformed 8x8 block, entropy codes it into bw
// and returns its DC value, the predictor for the next block of the component.
type ProcessDUFunc func(bw *BitWriter, blk []float32, stride int, fdtbl *[64]float32, dc int, dcTab, acTab *HuffmanTable) int

// maxAC is the largest magnitude the baseline AC tables can code.
const maxAC = 1023

// calcBits returns the magnitude category of v and its bit pattern;
// negative values are stored as v-1 in that many bits.
func calcBits(v int) Code {
	m := v
	if v < 0 {
		m = -v
		v--
	}
	n := bits.Len(uint(m))
	return Code{Bits: uint16(v & (1<<n - 1)), Size: uint8(n)}
}

func roundHalfAway(v float32) int {
	return int(math.Round(float64(v)))
}

func processDU(bw *BitWriter, blk []float32, stride int, fdtbl *[64]float32, dc int, dcTab, acTab *HuffmanTable) int {
	var du [64]int
	for y, j := 0, 0; y < 8; y++ {
		row := blk[y*stride : y*stride+8]
		for x := 0; x < 8; x, j = x+1, j+1 {
			du[zigzag[j]] = roundHalfAway(row[x] * fdtbl[j])
		}
	}
	for i := 1; i < 64; i++ {
		du[i] = min(max(du[i], -maxAC), maxAC)
	}

	if diff := du[0] - dc; diff == 0 {
		bw.Push(dcTab[0])
	} else {
		c := calcBits(diff)
		bw.Push(dcTab[c.Size])
		bw.Push(c)
	}

	end := 63
	for end > 0 && du[end] == 0 {
		end--
	}
	if end == 0 {
		bw.Push(acTab[0x00])
		return du[0]
	}
	for i := 1; i <= end; i++ {
		start := i
		for du[i] == 0 {
			i++
		}
		run := i - start
		for ; run >= 16; run -= 16 {
			bw.Push(acTab[0xF0])
		}
		c := calcBits(du[i])
		bw.Push(acTab[run<<4+int(c.Size)])
		bw.Push(c)
	}
	if end != 63 {
		bw.Push(acTab[0x00])
	}
	return du[0]
}

// processGrayUV emits the U and V data units of a single-channel image:
// a zero DC difference followed by EOB, for each component.
func processGrayUV(bw *BitWriter, dcTab, acTab *HuffmanTable) {
	bw.Push(dcTab[0])
	bw.Push(acTab[0x00])
	bw.Push(dcTab[0])
	bw.Push(acTab[0x00])
}
