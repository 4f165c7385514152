package pixel

import (
	"errors"
	"fmt"
	"strings"
)

// Format describes the memory layout of a packed 8-bit pixel buffer.
type Format int

const (
	None Format = iota
	Gray8
	Bgr24
	Bgra32
	Rgb24
	Rgba32
)

var formatNames = map[Format]string{
	None:   "none",
	Gray8:  "gray8",
	Bgr24:  "bgr24",
	Bgra32: "bgra32",
	Rgb24:  "rgb24",
	Rgba32: "rgba32",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Channels returns the number of bytes per pixel, or 0 for None/unknown formats.
func (f Format) Channels() int {
	switch f {
	case Gray8:
		return 1
	case Bgr24, Rgb24:
		return 3
	case Bgra32, Rgba32:
		return 4
	default:
		return 0
	}
}

// Valid reports whether f is one of the five concrete pixel formats.
func (f Format) Valid() bool {
	return f.Channels() != 0
}

// HasAlpha reports whether the format carries a fourth (alpha) byte.
func (f Format) HasAlpha() bool {
	return f == Bgra32 || f == Rgba32
}

// IsBgr reports whether color channels are stored blue first.
func (f Format) IsBgr() bool {
	return f == Bgr24 || f == Bgra32
}

// ParseFormat maps a case-insensitive name (gray8, bgr24, ...) to a Format.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range formatNames {
		if n == name && f != None {
			return f, nil
		}
	}
	return None, fmt.Errorf("unknown pixel format %q", name)
}

// RowBytes returns the number of meaningful bytes in one row of width pixels.
func (f Format) RowBytes(width int) int {
	return width * f.Channels()
}

// MinBufferSize returns the smallest buffer holding height rows at the given stride.
func (f Format) MinBufferSize(width, height, stride int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return stride*(height-1) + f.RowBytes(width)
}

var (
	ErrInvalidDimensions = errors.New("pixel: width and height must be positive")
	ErrUnsupportedFormat = errors.New("pixel: unsupported pixel format")
	ErrShortBuffer       = errors.New("pixel: buffer too small for image")
)

// Check verifies that src can hold a width x height image of format f laid
// out with the given stride.
func Check(src []byte, stride, width, height int, f Format) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidDimensions
	}
	if !f.Valid() {
		return ErrUnsupportedFormat
	}
	if stride < f.RowBytes(width) {
		return fmt.Errorf("stride %d below row size %d: %w", stride, f.RowBytes(width), ErrShortBuffer)
	}
	if need := f.MinBufferSize(width, height, stride); len(src) < need {
		return fmt.Errorf("have %d bytes, need %d: %w", len(src), need, ErrShortBuffer)
	}
	return nil
}
