package imgsave

import (
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/jpfielding/imgsave.go/pkg/compress/jpeg"
	"github.com/jpfielding/imgsave.go/pkg/pixel"
)

// jpegFileQuality replaces a requested quality of 100 when SaveToFile picks
// JPEG from a .jpg or .jpeg extension.
const jpegFileQuality = 85

// SaveToMemory encodes a width x height image of format f, read from src at
// the given stride, as file type t. Quality 0 selects the file type default.
func SaveToMemory(src []byte, stride, width, height int, f pixel.Format, t FileType, quality int) ([]byte, error) {
	p := Param{Width: width, Height: height, Format: f, FileType: t, Quality: quality, YuvType: YuvUnknown}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return save(src, stride, p)
}

func save(src []byte, stride int, p Param) ([]byte, error) {
	s, err := SaverFor(p.FileType)
	if err != nil {
		return nil, err
	}
	data, err := s.Save(src, stride, p)
	if err != nil {
		return nil, err
	}
	slog.Debug("image saved",
		slog.String("saver", s.Name()),
		slog.Int("width", p.Width), slog.Int("height", p.Height),
		slog.String("format", p.Format.String()), slog.Int("quality", p.Quality),
		slog.Int("bytes", len(data)))
	return data, nil
}

// SaveToFile encodes like SaveToMemory and writes the result to path. An
// Undefined t is taken from the path extension; a JPEG chosen that way at
// quality 100 is written at quality 85.
func SaveToFile(src []byte, stride, width, height int, f pixel.Format, t FileType, quality int, path string) error {
	if t == Undefined {
		t = FileTypeFromPath(path)
		if t == Jpeg && quality == 100 {
			quality = jpegFileQuality
		}
	}
	data, err := SaveToMemory(src, stride, width, height, f, t, quality)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("imgsave: %w", err)
	}
	return nil
}

func yuvParam(width, height int, yuvType YuvType, quality int) (Param, error) {
	p := Param{Width: width, Height: height, FileType: Jpeg, Quality: quality, YuvType: yuvType}
	if yuvType == YuvUnknown {
		return p, &ValidationError{Field: "yuvType", Message: yuvType.String(), Err: ErrUnsupportedYuv}
	}
	return p, p.Validate()
}

// Nv12SaveAsJpegToMemory encodes a luma plane and an interleaved half
// resolution UV plane as JPEG. Width and height must be even.
func Nv12SaveAsJpegToMemory(y []byte, yStride int, uv []byte, uvStride, width, height int, yuvType YuvType, quality int) ([]byte, error) {
	p, err := yuvParam(width, height, yuvType, quality)
	if err != nil {
		return nil, err
	}
	return jpeg.EncodeNV12(y, yStride, uv, uvStride, width, height, &jpeg.Options{Quality: p.Quality})
}

// Yuv420pSaveAsJpegToMemory encodes three I420 planes as JPEG. Width and
// height must be even.
func Yuv420pSaveAsJpegToMemory(y []byte, yStride int, u []byte, uStride int, v []byte, vStride, width, height int, yuvType YuvType, quality int) ([]byte, error) {
	p, err := yuvParam(width, height, yuvType, quality)
	if err != nil {
		return nil, err
	}
	return jpeg.EncodeYUV420p(y, yStride, u, uStride, v, vStride, width, height, &jpeg.Options{Quality: p.Quality})
}

// SaveImage packs img into Gray8, Rgb24 or Rgba32 and encodes it as t.
func SaveImage(img image.Image, t FileType, quality int) ([]byte, error) {
	buf, stride, f := pixel.FromImage(img)
	b := img.Bounds()
	return SaveToMemory(buf, stride, b.Dx(), b.Dy(), f, t, quality)
}
