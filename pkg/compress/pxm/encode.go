// Package pxm writes Netpbm gray (PGM) and color (PPM) maps in their plain
// text (P2, P3) and raw binary (P5, P6) forms. Gray sources written as PPM
// are expanded to three equal channels; color sources written as PGM are
// reduced to luma. Alpha is dropped.
package pxm

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jpfielding/imgsave.go/pkg/bitstream"
	"github.com/jpfielding/imgsave.go/pkg/pixel"
)

// Kind selects the Netpbm variant.
type Kind byte

const (
	PgmTxt Kind = '2'
	PpmTxt Kind = '3'
	PgmBin Kind = '5'
	PpmBin Kind = '6'
)

// lines of plain files stay below 70 characters
const maxLine = 70

func (k Kind) String() string {
	return "P" + string(k)
}

func (k Kind) channels() int {
	if k == PgmTxt || k == PgmBin {
		return 1
	}
	return 3
}

func (k Kind) binary() bool {
	return k == PgmBin || k == PpmBin
}

func (k Kind) valid() bool {
	switch k {
	case PgmTxt, PpmTxt, PgmBin, PpmBin:
		return true
	}
	return false
}

// convertRow fills dst with width pixels of n channels taken from a row of
// format f.
func convertRow(dst, src []byte, width int, f pixel.Format, n int) {
	c := f.Channels()
	if c == 1 {
		if n == 1 {
			copy(dst[:width], src)
			return
		}
		for x, v := range src[:width] {
			dst[3*x], dst[3*x+1], dst[3*x+2] = v, v, v
		}
		return
	}
	ri, bi := 0, 2
	if f.IsBgr() {
		ri, bi = 2, 0
	}
	for x := 0; x < width; x++ {
		p := src[x*c:]
		if n == 1 {
			dst[x] = pixel.Luma(p[ri], p[1], p[bi])
			continue
		}
		dst[3*x], dst[3*x+1], dst[3*x+2] = p[ri], p[1], p[bi]
	}
}

// EncodeBytes returns the k encoding of a width x height image of format f.
func EncodeBytes(src []byte, stride, width, height int, f pixel.Format, k Kind) ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("pxm: kind %q: %w", byte(k), pixel.ErrUnsupportedFormat)
	}
	if err := pixel.Check(src, stride, width, height, f); err != nil {
		return nil, fmt.Errorf("pxm: %w", err)
	}
	n := k.channels()
	header := fmt.Sprintf("%s\n%d %d\n255\n", k, width, height)
	size := len(header) + width*height*n
	if !k.binary() {
		size *= 4
	}
	s := bitstream.New(size)
	_, _ = s.WriteString(header)

	row := make([]byte, width*n)
	text := make([]byte, 0, maxLine+4)
	for y := 0; y < height; y++ {
		convertRow(row, src[y*stride:], width, f, n)
		if k.binary() {
			_, _ = s.Write(row)
			continue
		}
		text = text[:0]
		for i, v := range row {
			if len(text) > maxLine-4 {
				text = append(text, '\n')
				_, _ = s.Write(text)
				text = text[:0]
			} else if i > 0 {
				text = append(text, ' ')
			}
			text = strconv.AppendUint(text, uint64(v), 10)
		}
		text = append(text, '\n')
		_, _ = s.Write(text)
	}
	return s.Release(), nil
}

// Encode writes the k encoding of src to w.
func Encode(w io.Writer, src []byte, stride, width, height int, f pixel.Format, k Kind) error {
	data, err := EncodeBytes(src, stride, width, height, f, k)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
