// Package png encodes packed 8-bit pixel buffers as PNG files with a single
// IDAT chunk compressed by the fixed-Huffman zlib writer.
package png

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"io"
	"log/slog"

	"github.com/jpfielding/imgsave.go/pkg/bitstream"
	"github.com/jpfielding/imgsave.go/pkg/compress/zlib"
	"github.com/jpfielding/imgsave.go/pkg/pixel"
)

const pngHeader = "\x89PNG\r\n\x1a\n"

// DefaultQuality is the zlib search depth used when Options.Quality is 0.
const DefaultQuality = zlib.DefaultQuality

// Kernels holds the per-scanline filters and the compressor.
type Kernels struct {
	Filters  [filterCount]FilterFunc
	Compress zlib.CompressFunc
}

// DefaultKernels returns the portable implementations.
func DefaultKernels() Kernels {
	return Kernels{
		Filters:  [filterCount]FilterFunc{filterNone, filterSub, filterUp, filterAverage, filterPaeth},
		Compress: zlib.Compress,
	}
}

// Options configures the PNG encoder.
type Options struct {
	// Quality sets the match search depth (default 8, minimum effective 5)
	Quality int
	// Kernels overrides the filter and compression routines when non-nil
	Kernels *Kernels
}

// Encode writes a width x height image of format f, read from src at the
// given stride, to w as PNG.
func Encode(w io.Writer, src []byte, stride, width, height int, f pixel.Format, opts *Options) error {
	s, err := encodeStream(src, stride, width, height, f, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(s.Bytes())
	return err
}

// EncodeBytes is Encode returning the file contents.
func EncodeBytes(src []byte, stride, width, height int, f pixel.Format, opts *Options) ([]byte, error) {
	s, err := encodeStream(src, stride, width, height, f, opts)
	if err != nil {
		return nil, err
	}
	return s.Release(), nil
}

// EncodeImage packs img and encodes it.
func EncodeImage(w io.Writer, img image.Image, opts *Options) error {
	buf, stride, f := pixel.FromImage(img)
	b := img.Bounds()
	return Encode(w, buf, stride, b.Dx(), b.Dy(), f, opts)
}

func colorType(f pixel.Format) byte {
	switch f.Channels() {
	case 1:
		return 0
	case 3:
		return 2
	default:
		return 6
	}
}

type encoder struct {
	s       *bitstream.Stream
	quality int
	kernels Kernels
}

func encodeStream(src []byte, stride, width, height int, f pixel.Format, opts *Options) (*bitstream.Stream, error) {
	if err := pixel.Check(src, stride, width, height, f); err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	e := &encoder{quality: DefaultQuality, kernels: DefaultKernels()}
	if opts != nil {
		if opts.Quality > 0 {
			e.quality = opts.Quality
		}
		if opts.Kernels != nil {
			e.kernels = *opts.Kernels
		}
	}
	rowBytes := f.RowBytes(width)
	e.s = bitstream.New(len(pngHeader) + 25 + rowBytes*height/2 + 24)

	if f.IsBgr() {
		rgb := make([]byte, rowBytes*height)
		for y := 0; y < height; y++ {
			pixel.ToRgbRow(rgb[y*rowBytes:], src[y*stride:], width, f)
		}
		src, stride = rgb, rowBytes
	}
	filtered := FilterRows(e.kernels, src, stride, rowBytes, height, f.Channels())

	_, _ = e.s.WriteString(pngHeader)
	e.writeIHDR(width, height, colorType(f))
	e.writeIDAT(filtered)
	e.writeChunk("IEND", nil)

	slog.Debug("png encoded",
		slog.Int("width", width), slog.Int("height", height),
		slog.String("format", f.String()), slog.Int("quality", e.quality),
		slog.Int("bytes", e.s.Len()))
	return e.s, nil
}

func (e *encoder) writeIHDR(width, height int, ct byte) {
	var hdr [13]byte
	binary.BigEndian.PutUint32(hdr[0:], uint32(width))
	binary.BigEndian.PutUint32(hdr[4:], uint32(height))
	hdr[8] = 8 // bit depth
	hdr[9] = ct
	// compression, filter and interlace methods stay 0
	e.writeChunk("IHDR", hdr[:])
}

// writeIDAT compresses straight into the output and patches the length after.
func (e *encoder) writeIDAT(filtered []byte) {
	start := e.s.Len()
	e.s.WriteBe32(0)
	_, _ = e.s.WriteString("IDAT")
	e.kernels.Compress(filtered, e.quality, e.s)
	n := e.s.Len() - start - 8
	_ = e.s.PutBe32At(start, uint32(n))
	e.s.WriteBe32(crc32.ChecksumIEEE(e.s.Bytes()[start+4:]))
}

func (e *encoder) writeChunk(name string, data []byte) {
	e.s.WriteBe32(uint32(len(data)))
	start := e.s.Len()
	_, _ = e.s.WriteString(name)
	_, _ = e.s.Write(data)
	e.s.WriteBe32(crc32.ChecksumIEEE(e.s.Bytes()[start:]))
}
