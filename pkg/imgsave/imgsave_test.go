package imgsave

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	stdjpeg "image/jpeg"
	stdpng "image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xbmp "golang.org/x/image/bmp"

	"github.com/jpfielding/imgsave.go/pkg/compress/jpeg"
	"github.com/jpfielding/imgsave.go/pkg/pixel"
)

func rgbPattern(w, h int) ([]byte, int) {
	stride := w * 3
	src := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := src[y*stride+x*3:]
			p[0], p[1], p[2] = byte(x*8), byte(y*8), byte(128)
		}
	}
	return src, stride
}

func TestValidateDefaults(t *testing.T) {
	tests := []struct {
		name    string
		p       Param
		file    FileType
		quality int
	}{
		{"gray to pgm", Param{Width: 2, Height: 2, Format: pixel.Gray8, YuvType: YuvUnknown}, PgmBin, 0},
		{"color to ppm", Param{Width: 2, Height: 2, Format: pixel.Bgra32, YuvType: YuvUnknown}, PpmBin, 0},
		{"jpeg default", Param{Width: 2, Height: 2, Format: pixel.Rgb24, FileType: Jpeg}, Jpeg, 90},
		{"png default", Param{Width: 2, Height: 2, Format: pixel.Rgb24, FileType: Png}, Png, 8},
		{"kept quality", Param{Width: 2, Height: 2, Format: pixel.Rgb24, FileType: Jpeg, Quality: 40}, Jpeg, 40},
		{"yuv to jpeg", Param{Width: 4, Height: 2, YuvType: Trect871}, Jpeg, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			require.NoError(t, p.Validate())
			assert.Equal(t, tt.file, p.FileType)
			assert.Equal(t, tt.quality, p.Quality)
		})
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		p     Param
		field string
		err   error
	}{
		{"zero width", Param{Height: 2, Format: pixel.Gray8}, "size", ErrInvalidDimensions},
		{"bad quality", Param{Width: 2, Height: 2, Format: pixel.Gray8, Quality: 101}, "quality", ErrInvalidQuality},
		{"no format", Param{Width: 2, Height: 2, YuvType: YuvUnknown}, "format", ErrUnsupportedFormat},
		{"bad file type", Param{Width: 2, Height: 2, Format: pixel.Gray8, FileType: FileType(42)}, "fileType", ErrUnsupportedFileType},
		{"bt709", Param{Width: 2, Height: 2, YuvType: Bt709}, "yuvType", ErrUnsupportedYuv},
		{"odd yuv", Param{Width: 3, Height: 2, YuvType: Trect871}, "size", ErrOddDimensions},
		{"yuv to png", Param{Width: 2, Height: 2, YuvType: Trect871, FileType: Png}, "fileType", ErrUnsupportedFileType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			err := p.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParseNames(t *testing.T) {
	ft, err := ParseFileType("JPG")
	require.NoError(t, err)
	assert.Equal(t, Jpeg, ft)
	ft, err = ParseFileType("pgm-txt")
	require.NoError(t, err)
	assert.Equal(t, PgmTxt, ft)
	_, err = ParseFileType("gif")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	yt, err := ParseYuvType("Trect871")
	require.NoError(t, err)
	assert.Equal(t, Trect871, yt)
	_, err = ParseYuvType("nope")
	assert.ErrorIs(t, err, ErrUnsupportedYuv)

	assert.Equal(t, Jpeg, FileTypeFromPath("a/b.JPEG"))
	assert.Equal(t, Bmp, FileTypeFromPath("x.bmp"))
	assert.Equal(t, Undefined, FileTypeFromPath("x.gif"))
	assert.Equal(t, ".ppm", PpmTxt.Ext())
}

func TestSaveToMemory(t *testing.T) {
	w, h := 12, 10
	src, stride := rgbPattern(w, h)
	tests := []struct {
		t     FileType
		magic []byte
	}{
		{PgmTxt, []byte("P2\n")},
		{PgmBin, []byte("P5\n")},
		{PpmTxt, []byte("P3\n")},
		{PpmBin, []byte("P6\n")},
		{Png, []byte("\x89PNG")},
		{Jpeg, []byte{0xFF, 0xD8, 0xFF, 0xE0}},
		{Bmp, []byte("BM")},
		{Undefined, []byte("P6\n")},
	}
	for _, tt := range tests {
		t.Run(tt.t.String(), func(t *testing.T) {
			data, err := SaveToMemory(src, stride, w, h, pixel.Rgb24, tt.t, 0)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, tt.magic))
		})
	}
}

func TestSaveDecodes(t *testing.T) {
	w, h := 9, 7
	src, stride := rgbPattern(w, h)

	data, err := SaveToMemory(src, stride, w, h, pixel.Rgb24, Png, 0)
	require.NoError(t, err)
	img, err := stdpng.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 16, G: 24, B: 128, A: 255}, color.NRGBAModel.Convert(img.At(2, 3)))

	data, err = SaveToMemory(src, stride, w, h, pixel.Rgb24, Bmp, 0)
	require.NoError(t, err)
	img, err = xbmp.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 64, G: 48, B: 128, A: 255}, color.RGBAModel.Convert(img.At(8, 6)))

	data, err = SaveToMemory(src, stride, w, h, pixel.Rgb24, Jpeg, 95)
	require.NoError(t, err)
	img, err = stdjpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, w, h), img.Bounds())
}

func TestSaveErrorsReturnNil(t *testing.T) {
	data, err := SaveToMemory(make([]byte, 4), 2, 2, 2, pixel.Rgb24, Png, 0)
	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrShortBuffer)

	data, err = SaveToMemory(nil, 0, 0, 0, pixel.Rgb24, Png, 0)
	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestSaveToFile(t *testing.T) {
	dir := t.TempDir()
	w, h := 16, 16
	src, stride := rgbPattern(w, h)

	for _, name := range []string{"a.pgm", "a.ppm", "a.png", "a.jpg", "a.jpeg", "a.bmp"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveToFile(src, stride, w, h, pixel.Rgb24, Undefined, 0, path), name)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		want, err := SaveToMemory(src, stride, w, h, pixel.Rgb24, FileTypeFromPath(name), 0)
		require.NoError(t, err)
		assert.Equal(t, want, data, name)
	}

	// explicit type wins over the extension
	path := filepath.Join(dir, "b.png")
	require.NoError(t, SaveToFile(src, stride, w, h, pixel.Rgb24, Bmp, 0, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "BM", string(data[:2]))

	// unknown extension falls back to Netpbm
	path = filepath.Join(dir, "c.raw")
	require.NoError(t, SaveToFile(src, stride, w, h, pixel.Rgb24, Undefined, 0, path))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "P6", string(data[:2]))
}

func TestSaveToFileJpegQuality(t *testing.T) {
	dir := t.TempDir()
	w, h := 16, 16
	src, stride := rgbPattern(w, h)
	path := filepath.Join(dir, "q.jpg")
	require.NoError(t, SaveToFile(src, stride, w, h, pixel.Rgb24, Undefined, 100, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := SaveToMemory(src, stride, w, h, pixel.Rgb24, Jpeg, 85)
	require.NoError(t, err)
	assert.Equal(t, want, data)

	// an explicit Jpeg keeps quality 100
	path = filepath.Join(dir, "q100.jpg")
	require.NoError(t, SaveToFile(src, stride, w, h, pixel.Rgb24, Jpeg, 100, path))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	want, err = SaveToMemory(src, stride, w, h, pixel.Rgb24, Jpeg, 100)
	require.NoError(t, err)
	assert.Equal(t, want, data)
}

func TestSaveToFileError(t *testing.T) {
	src, stride := rgbPattern(2, 2)
	err := SaveToFile(src, stride, 2, 2, pixel.Rgb24, Png, 0, filepath.Join(t.TempDir(), "missing", "x.png"))
	assert.Error(t, err)
}

func yuvPlanes(w, h int) (y, u, v, uv []byte) {
	y = make([]byte, w*h)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			y[r*w+c] = byte(16 + r*3 + c*2)
		}
	}
	cw, ch := w/2, h/2
	u, v, uv = make([]byte, cw*ch), make([]byte, cw*ch), make([]byte, 2*cw*ch)
	for i := range u {
		u[i], v[i] = byte(100+i%7), byte(150-i%5)
		uv[2*i], uv[2*i+1] = u[i], v[i]
	}
	return y, u, v, uv
}

func TestYuvEntryPoints(t *testing.T) {
	w, h := 32, 16
	y, u, v, uv := yuvPlanes(w, h)
	nv12, err := Nv12SaveAsJpegToMemory(y, w, uv, w, w, h, Trect871, 80)
	require.NoError(t, err)
	i420, err := Yuv420pSaveAsJpegToMemory(y, w, u, w/2, v, w/2, w, h, Trect871, 80)
	require.NoError(t, err)
	assert.Equal(t, nv12, i420)

	direct, err := jpeg.EncodeNV12(y, w, uv, w, w, h, &jpeg.Options{Quality: 80})
	require.NoError(t, err)
	assert.Equal(t, direct, nv12)

	img, err := stdjpeg.Decode(bytes.NewReader(nv12))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, w, h), img.Bounds())
}

func TestYuvErrors(t *testing.T) {
	y, u, v, uv := yuvPlanes(4, 4)
	tests := []struct {
		name string
		run  func() ([]byte, error)
		err  error
	}{
		{"nv12 unknown", func() ([]byte, error) { return Nv12SaveAsJpegToMemory(y, 4, uv, 4, 4, 4, YuvUnknown, 0) }, ErrUnsupportedYuv},
		{"nv12 bt601", func() ([]byte, error) { return Nv12SaveAsJpegToMemory(y, 4, uv, 4, 4, 4, Bt601, 0) }, ErrUnsupportedYuv},
		{"nv12 odd", func() ([]byte, error) { return Nv12SaveAsJpegToMemory(y, 4, uv, 4, 3, 4, Trect871, 0) }, ErrOddDimensions},
		{"nv12 zero", func() ([]byte, error) { return Nv12SaveAsJpegToMemory(y, 4, uv, 4, 0, 4, Trect871, 0) }, ErrInvalidDimensions},
		{"nv12 short", func() ([]byte, error) { return Nv12SaveAsJpegToMemory(y, 4, uv[:3], 4, 4, 4, Trect871, 0) }, ErrShortBuffer},
		{"i420 odd", func() ([]byte, error) {
			return Yuv420pSaveAsJpegToMemory(y, 4, u, 2, v, 2, 4, 5, Trect871, 0)
		}, ErrOddDimensions},
		{"i420 short v", func() ([]byte, error) {
			return Yuv420pSaveAsJpegToMemory(y, 4, u, 2, v[:1], 2, 4, 4, Trect871, 0)
		}, ErrShortBuffer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.run()
			assert.Nil(t, data)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestSaveImage(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 5, 4))
	for i := range gray.Pix {
		gray.Pix[i] = byte(i * 10)
	}
	data, err := SaveImage(gray, Undefined, 0)
	require.NoError(t, err)
	assert.Equal(t, "P5\n5 4\n255\n", string(data[:11]))
	assert.Equal(t, gray.Pix, data[11:])

	nrgba := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	nrgba.SetNRGBA(1, 1, color.NRGBA{R: 200, G: 10, B: 20, A: 128})
	data, err = SaveImage(nrgba, Png, 0)
	require.NoError(t, err)
	img, err := stdpng.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 200, G: 10, B: 20, A: 128}, color.NRGBAModel.Convert(img.At(1, 1)))
}

func TestSaverRegistry(t *testing.T) {
	for ft, name := range map[FileType]string{Png: "png", Jpeg: "jpeg", Bmp: "bmp", PgmTxt: "pxm-P2", PpmBin: "pxm-P6"} {
		s, err := SaverFor(ft)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}
	_, err := SaverFor(Undefined)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}
