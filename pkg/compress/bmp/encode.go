// Package bmp writes uncompressed Windows bitmaps: 8 bits with a gray
// palette, 24 bits BGR, or 32 bits BGRA behind a V4 header.
package bmp

import (
	"fmt"
	"io"

	"github.com/jpfielding/imgsave.go/pkg/bitstream"
	"github.com/jpfielding/imgsave.go/pkg/pixel"
)

const (
	fileHeaderLen = 14
	infoHeaderLen = 40
	v4HeaderLen   = 108

	compressionRGB       = 0
	compressionBitFields = 3

	pixelsPerMeter = 2835 // 72 DPI
	lcsSRGB        = 0x73524742
)

// header describes the layout chosen for a pixel format.
type header struct {
	bpp         int
	infoLen     int
	paletteLen  int
	compression uint32
}

func headerFor(f pixel.Format) header {
	switch f.Channels() {
	case 1:
		return header{bpp: 8, infoLen: infoHeaderLen, paletteLen: 256 * 4, compression: compressionRGB}
	case 3:
		return header{bpp: 24, infoLen: infoHeaderLen, compression: compressionRGB}
	default:
		return header{bpp: 32, infoLen: v4HeaderLen, compression: compressionBitFields}
	}
}

// rowSize is the padded size of one stored row.
func rowSize(width, bpp int) int {
	return (width*bpp/8 + 3) &^ 3
}

// EncodeBytes returns the bitmap of a width x height image of format f read
// from src at the given stride.
func EncodeBytes(src []byte, stride, width, height int, f pixel.Format) ([]byte, error) {
	if err := pixel.Check(src, stride, width, height, f); err != nil {
		return nil, fmt.Errorf("bmp: %w", err)
	}
	h := headerFor(f)
	row := rowSize(width, h.bpp)
	offset := fileHeaderLen + h.infoLen + h.paletteLen
	size := offset + row*height

	s := bitstream.New(size)
	_, _ = s.WriteString("BM")
	s.WriteLe32(uint32(size))
	s.WriteLe32(0)
	s.WriteLe32(uint32(offset))

	s.WriteLe32(uint32(h.infoLen))
	s.WriteLe32(uint32(width))
	s.WriteLe32(uint32(height)) // positive: bottom-up
	s.WriteLe16(1)
	s.WriteLe16(uint16(h.bpp))
	s.WriteLe32(h.compression)
	s.WriteLe32(uint32(row * height))
	s.WriteLe32(pixelsPerMeter)
	s.WriteLe32(pixelsPerMeter)
	if h.paletteLen > 0 {
		s.WriteLe32(256)
		s.WriteLe32(256)
	} else {
		s.WriteLe32(0)
		s.WriteLe32(0)
	}
	if h.infoLen == v4HeaderLen {
		s.WriteLe32(0x00FF0000) // red
		s.WriteLe32(0x0000FF00) // green
		s.WriteLe32(0x000000FF) // blue
		s.WriteLe32(0xFF000000) // alpha
		s.WriteLe32(lcsSRGB)
		_, _ = s.Write(make([]byte, 36+12)) // endpoints, gamma
	}
	for i := 0; i < h.paletteLen/4; i++ {
		_, _ = s.Write([]byte{byte(i), byte(i), byte(i), 0})
	}

	line := make([]byte, row)
	for y := height - 1; y >= 0; y-- {
		pixel.ToBgrRow(line, src[y*stride:], width, f)
		_, _ = s.Write(line)
	}
	return s.Release(), nil
}

// Encode writes the bitmap to w.
func Encode(w io.Writer, src []byte, stride, width, height int, f pixel.Format) error {
	data, err := EncodeBytes(src, stride, width, height, f)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
