package pixel

import (
	"image"
	"image/color"
)

// Deinterleave splits rows of a packed color buffer into red, green and blue
// planes of planeStride bytes per row. Alpha is dropped. Gray8 input is copied
// into all three planes.
func Deinterleave(src []byte, stride, width, height int, f Format, r, g, b []byte, planeStride int) {
	n := f.Channels()
	ri, gi, bi := 0, 1, 2
	if f.IsBgr() {
		ri, bi = 2, 0
	}
	for y := 0; y < height; y++ {
		row := src[y*stride:]
		ro, gp, bo := r[y*planeStride:], g[y*planeStride:], b[y*planeStride:]
		if n == 1 {
			copy(ro[:width], row[:width])
			copy(gp[:width], row[:width])
			copy(bo[:width], row[:width])
			continue
		}
		for x, o := 0, 0; x < width; x, o = x+1, o+n {
			ro[x] = row[o+ri]
			gp[x] = row[o+gi]
			bo[x] = row[o+bi]
		}
	}
}

// ToRgbRow writes one row of width pixels in RGB (or RGBA) channel order into
// dst, swapping red and blue for BGR formats. dst must hold RowBytes(width).
func ToRgbRow(dst, src []byte, width int, f Format) {
	n := f.RowBytes(width)
	if !f.IsBgr() {
		copy(dst[:n], src[:n])
		return
	}
	c := f.Channels()
	for o := 0; o < n; o += c {
		dst[o+0] = src[o+2]
		dst[o+1] = src[o+1]
		dst[o+2] = src[o+0]
		if c == 4 {
			dst[o+3] = src[o+3]
		}
	}
}

// ToBgrRow writes one row of width pixels in BGR (or BGRA) channel order.
// Gray rows are copied unchanged.
func ToBgrRow(dst, src []byte, width int, f Format) {
	n := f.RowBytes(width)
	if f.IsBgr() || f == Gray8 {
		copy(dst[:n], src[:n])
		return
	}
	c := f.Channels()
	for o := 0; o < n; o += c {
		dst[o+0] = src[o+2]
		dst[o+1] = src[o+1]
		dst[o+2] = src[o+0]
		if c == 4 {
			dst[o+3] = src[o+3]
		}
	}
}

// Luma returns the BT.601 luma of an RGB triple in fixed point.
func Luma(r, g, b byte) byte {
	return byte((int(r)*19595 + int(g)*38470 + int(b)*7471 + 1<<15) >> 16)
}

// FromImage packs an arbitrary image into a Gray8, Rgb24 or Rgba32 buffer.
// Gray images stay single channel and opaque images drop alpha.
func FromImage(img image.Image) (buf []byte, stride int, f Format) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	switch src := img.(type) {
	case *image.Gray:
		stride = w
		buf = make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(buf[y*stride:], src.Pix[y*src.Stride:y*src.Stride+w])
		}
		return buf, stride, Gray8
	case *image.NRGBA:
		if !src.Opaque() {
			stride = w * 4
			buf = make([]byte, stride*h)
			for y := 0; y < h; y++ {
				copy(buf[y*stride:], src.Pix[y*src.Stride:y*src.Stride+stride])
			}
			return buf, stride, Rgba32
		}
	}

	if img.ColorModel() == color.GrayModel {
		stride = w
		buf = make([]byte, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				buf[y*stride+x] = color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
			}
		}
		return buf, stride, Gray8
	}

	f = Rgb24
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		f = Rgba32
	}
	n := f.Channels()
	stride = w * n
	buf = make([]byte, stride*h)
	for y := 0; y < h; y++ {
		row := buf[y*stride:]
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			o := x * n
			row[o+0], row[o+1], row[o+2] = c.R, c.G, c.B
			if n == 4 {
				row[o+3] = c.A
			}
		}
	}
	return buf, stride, f
}
