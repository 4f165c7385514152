package png

// Filter types as stored in the leading byte of each scanline.
const (
	FilterNone byte = iota
	FilterSub
	FilterUp
	FilterAverage
	FilterPaeth
	filterCount
)

// FilterFunc writes the filtered form of row into dst and returns the sum of
// the filtered bytes read as signed values. prev is the unfiltered previous
// row, or nil for the first row.
type FilterFunc func(dst, row, prev []byte, bpp int) uint32

func abs8(v byte) uint32 {
	if s := int8(v); s < 0 {
		return uint32(-int32(s))
	}
	return uint32(v)
}

// Paeth returns the predictor among a (left), b (up) and c (upper left)
// closest to a+b-c.
func Paeth(a, b, c int) int {
	p := a + b - c
	pa, pb, pc := absInt(p-a), absInt(p-b), absInt(p-c)
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func filterNone(dst, row, _ []byte, _ int) uint32 {
	var sum uint32
	for i, v := range row {
		dst[i] = v
		sum += abs8(v)
	}
	return sum
}

func filterSub(dst, row, _ []byte, bpp int) uint32 {
	var sum uint32
	for i := range row {
		v := row[i]
		if i >= bpp {
			v -= row[i-bpp]
		}
		dst[i] = v
		sum += abs8(v)
	}
	return sum
}

func filterUp(dst, row, prev []byte, _ int) uint32 {
	if prev == nil {
		return filterNone(dst, row, nil, 0)
	}
	var sum uint32
	for i := range row {
		v := row[i] - prev[i]
		dst[i] = v
		sum += abs8(v)
	}
	return sum
}

func filterAverage(dst, row, prev []byte, bpp int) uint32 {
	var sum uint32
	for i := range row {
		var left, up int
		if i >= bpp {
			left = int(row[i-bpp])
		}
		if prev != nil {
			up = int(prev[i])
		}
		v := row[i] - byte((left+up)>>1)
		dst[i] = v
		sum += abs8(v)
	}
	return sum
}

func filterPaeth(dst, row, prev []byte, bpp int) uint32 {
	var sum uint32
	for i := range row {
		var left, up, upLeft int
		if i >= bpp {
			left = int(row[i-bpp])
		}
		if prev != nil {
			up = int(prev[i])
			if i >= bpp {
				upLeft = int(prev[i-bpp])
			}
		}
		v := row[i] - byte(Paeth(left, up, upLeft))
		dst[i] = v
		sum += abs8(v)
	}
	return sum
}

// Row 0 has no row above, so only None and Sub are tried there.
var (
	firstRowFilters = []byte{FilterNone, FilterSub}
	rowFilters      = []byte{FilterNone, FilterSub, FilterUp, FilterAverage, FilterPaeth}
)

// selector picks the cheapest filter per scanline.
type selector struct {
	filters [filterCount]FilterFunc
	scratch [filterCount][]byte
}

func newSelector(filters [filterCount]FilterFunc, rowBytes int) *selector {
	s := &selector{filters: filters}
	for i := range s.scratch {
		s.scratch[i] = make([]byte, rowBytes)
	}
	return s
}

// filterRow appends the filter type byte and the chosen filtered bytes of row
// to out. The first candidate with the smallest cost wins.
func (s *selector) filterRow(out, row, prev []byte, bpp int) []byte {
	candidates := rowFilters
	if prev == nil {
		candidates = firstRowFilters
	}
	best, bestCost := candidates[0], ^uint32(0)
	for _, t := range candidates {
		if cost := s.filters[t](s.scratch[t], row, prev, bpp); cost < bestCost {
			best, bestCost = t, cost
		}
	}
	out = append(out, best)
	return append(out, s.scratch[best][:len(row)]...)
}

// FilterRows filters height rows of rowBytes bytes each, read from src at the
// given stride, into the pre-compression scanline buffer.
func FilterRows(k Kernels, src []byte, stride, rowBytes, height, bpp int) []byte {
	out := make([]byte, 0, (rowBytes+1)*height)
	sel := newSelector(k.Filters, rowBytes)
	var prev []byte
	for y := 0; y < height; y++ {
		row := src[y*stride : y*stride+rowBytes]
		out = sel.filterRow(out, row, prev, bpp)
		prev = row
	}
	return out
}
