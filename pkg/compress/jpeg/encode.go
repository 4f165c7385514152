// Package jpeg writes baseline sequential JPEG files from packed pixel
// buffers and from NV12 or I420 planes, using the AAN forward DCT and the
// standard Huffman tables.
package jpeg

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/jpfielding/imgsave.go/pkg/bitstream"
	"github.com/jpfielding/imgsave.go/pkg/pixel"
)

// DefaultQuality is used when Options.Quality is 0.
const DefaultQuality = 90

// ErrOddDimensions is returned for YUV sources with odd width or height.
var ErrOddDimensions = errors.New("jpeg: yuv source needs even width and height")

// Kernels holds the per-block routines of the encoder.
type Kernels struct {
	RgbToYuv  RgbToYuvFunc
	GrayToY   GrayToYFunc
	DCT       DCTFunc
	ProcessDU ProcessDUFunc
}

// DefaultKernels returns the portable implementations.
func DefaultKernels() Kernels {
	return Kernels{
		RgbToYuv:  rgbToYuv,
		GrayToY:   grayToY,
		DCT:       FDCT,
		ProcessDU: processDU,
	}
}

// Options configures the JPEG encoder.
type Options struct {
	// Quality 1-100; 0 selects DefaultQuality. Above 90 chroma is kept at
	// full resolution for packed pixel sources.
	Quality int
	// Kernels overrides the block routines when non-nil
	Kernels *Kernels
}

type encoder struct {
	s  *bitstream.Stream
	bw *BitWriter
	q  *quantizer
	k  Kernels
	t  *[4]HuffmanTable
	dc [3]int

	writeBlock func(width, height int, r, g, b []byte, stride int, gray bool)

	y, u, v [256]float32
	su, sv  [64]float32
}

func newEncoder(opts *Options, yuv bool, sizeHint int) *encoder {
	quality := 0
	e := &encoder{k: DefaultKernels(), t: huffmanTables()}
	if opts != nil {
		quality = opts.Quality
		if opts.Kernels != nil {
			e.k = *opts.Kernels
		}
	}
	e.q = newQuantizer(quality, yuv)
	e.s = bitstream.New(sizeHint)
	e.bw = NewBitWriter(e.s)
	if e.q.subSample {
		e.writeBlock = e.writeSubs
	} else {
		e.writeBlock = e.writeFull
	}
	return e
}

func (e *encoder) finish() []byte {
	e.bw.Finish()
	e.writeMarker(MarkerEOI)
	return e.s.Release()
}

// EncodeBytes encodes a width x height image of format f, read from src at
// the given stride, and returns the JPEG file.
func EncodeBytes(src []byte, stride, width, height int, f pixel.Format, opts *Options) ([]byte, error) {
	if err := pixel.Check(src, stride, width, height, f); err != nil {
		return nil, fmt.Errorf("jpeg: %w", err)
	}
	if width > 0xFFFF || height > 0xFFFF {
		return nil, fmt.Errorf("jpeg: %dx%d: %w", width, height, pixel.ErrInvalidDimensions)
	}
	e := newEncoder(opts, false, width*height/4+1024)
	e.writeHeader(width, height)

	block := e.q.block
	gray := f == pixel.Gray8
	var r, g, b []byte
	aligned := (width + block - 1) / block * block
	if !gray {
		planes := make([]byte, 3*aligned*block)
		r, g, b = planes[:aligned*block], planes[aligned*block:2*aligned*block], planes[2*aligned*block:]
	}
	for row := 0; row < height; row += block {
		n := min(row+block, height) - row
		band := src[row*stride:]
		if gray {
			e.writeBlock(width, n, band, band, band, stride, true)
			continue
		}
		pixel.Deinterleave(band, stride, width, n, f, r, g, b, aligned)
		e.writeBlock(width, n, r, g, b, aligned, false)
	}
	out := e.finish()
	slog.Debug("jpeg encoded",
		slog.Int("width", width), slog.Int("height", height),
		slog.String("format", f.String()), slog.Int("quality", opts.quality()),
		slog.Bool("subsample", e.q.subSample), slog.Int("bytes", len(out)))
	return out, nil
}

// Encode writes the JPEG encoding of src to w.
func Encode(w io.Writer, src []byte, stride, width, height int, f pixel.Format, opts *Options) error {
	data, err := EncodeBytes(src, stride, width, height, f, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// EncodeImage packs img and encodes it. Alpha is ignored.
func EncodeImage(w io.Writer, img image.Image, opts *Options) error {
	buf, stride, f := pixel.FromImage(img)
	b := img.Bounds()
	return Encode(w, buf, stride, b.Dx(), b.Dy(), f, opts)
}

func (o *Options) quality() int {
	if o == nil || o.Quality == 0 {
		return DefaultQuality
	}
	return o.Quality
}

func checkPlane(name string, p []byte, stride, width, height int) error {
	if stride < width {
		return fmt.Errorf("jpeg: %s stride %d below width %d: %w", name, stride, width, pixel.ErrShortBuffer)
	}
	if need := stride*(height-1) + width; len(p) < need {
		return fmt.Errorf("jpeg: %s plane has %d bytes, need %d: %w", name, len(p), need, pixel.ErrShortBuffer)
	}
	return nil
}

func checkYuv(width, height int) error {
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return fmt.Errorf("jpeg: %dx%d: %w", width, height, pixel.ErrInvalidDimensions)
	}
	if width%2 != 0 || height%2 != 0 {
		return fmt.Errorf("jpeg: %dx%d: %w", width, height, ErrOddDimensions)
	}
	return nil
}

// EncodeNV12 encodes a luma plane and an interleaved UV plane at half
// resolution. Chroma is always subsampled.
func EncodeNV12(y []byte, yStride int, uv []byte, uvStride, width, height int, opts *Options) ([]byte, error) {
	if err := checkYuv(width, height); err != nil {
		return nil, err
	}
	if err := checkPlane("y", y, yStride, width, height); err != nil {
		return nil, err
	}
	if err := checkPlane("uv", uv, uvStride, width, height/2); err != nil {
		return nil, err
	}
	e := newEncoder(opts, true, width*height/4+1024)
	e.writeHeader(width, height)
	for row := 0; row < height; row += e.q.block {
		n := min(row+e.q.block, height) - row
		e.writeNv12(width, n, y[row*yStride:], yStride, uv[(row/2)*uvStride:], uvStride)
	}
	out := e.finish()
	slog.Debug("jpeg encoded nv12",
		slog.Int("width", width), slog.Int("height", height),
		slog.Int("quality", opts.quality()), slog.Int("bytes", len(out)))
	return out, nil
}

// EncodeYUV420p encodes three planes, with U and V at half resolution.
func EncodeYUV420p(y []byte, yStride int, u []byte, uStride int, v []byte, vStride, width, height int, opts *Options) ([]byte, error) {
	if err := checkYuv(width, height); err != nil {
		return nil, err
	}
	if err := checkPlane("y", y, yStride, width, height); err != nil {
		return nil, err
	}
	if err := checkPlane("u", u, uStride, width/2, height/2); err != nil {
		return nil, err
	}
	if err := checkPlane("v", v, vStride, width/2, height/2); err != nil {
		return nil, err
	}
	e := newEncoder(opts, true, width*height/4+1024)
	e.writeHeader(width, height)
	for row := 0; row < height; row += e.q.block {
		n := min(row+e.q.block, height) - row
		c := row / 2
		e.writeYuv420p(width, n, y[row*yStride:], yStride, u[c*uStride:], uStride, v[c*vStride:], vStride)
	}
	out := e.finish()
	slog.Debug("jpeg encoded yuv420p",
		slog.Int("width", width), slog.Int("height", height),
		slog.Int("quality", opts.quality()), slog.Int("bytes", len(out)))
	return out, nil
}
