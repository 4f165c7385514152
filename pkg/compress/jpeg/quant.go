package jpeg

// quantizer holds the quantization tables for one quality setting.
type quantizer struct {
	// uY and uUv are written to DQT in zig-zag order
	uY, uUv [64]uint8
	// fY and fUv are reciprocal scaled divisors in natural order
	fY, fUv   [64]float32
	subSample bool
	block     int
}

func clampQuant(v int) uint8 {
	if v < 1 {
		return 1
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// newQuantizer derives the tables for quality (0 means DefaultQuality).
// Chroma is subsampled at quality 90 and below, and always for YUV sources.
func newQuantizer(quality int, yuv bool) *quantizer {
	q := &quantizer{}
	if quality == 0 {
		quality = DefaultQuality
	}
	q.subSample = quality <= 90 || yuv
	quality = min(max(quality, 1), 100)
	scale := 200 - quality*2
	if quality < 50 {
		scale = 5000 / quality
	}
	for i := 0; i < 64; i++ {
		q.uY[zigzag[i]] = clampQuant((lumaQuant[i]*scale + 50) / 100)
		q.uUv[zigzag[i]] = clampQuant((chromaQuant[i]*scale + 50) / 100)
	}
	for y, i := 0, 0; y < 8; y++ {
		for x := 0; x < 8; x, i = x+1, i+1 {
			q.fY[i] = 1 / (float32(q.uY[zigzag[i]]) * aanScale[y] * aanScale[x])
			q.fUv[i] = 1 / (float32(q.uUv[zigzag[i]]) * aanScale[y] * aanScale[x])
		}
	}
	q.block = 8
	if q.subSample {
		q.block = 16
	}
	return q
}
