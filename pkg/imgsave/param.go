package imgsave

import (
	"errors"
	"fmt"

	"github.com/jpfielding/imgsave.go/pkg/compress/jpeg"
	"github.com/jpfielding/imgsave.go/pkg/compress/png"
	"github.com/jpfielding/imgsave.go/pkg/pixel"
)

var (
	ErrInvalidDimensions   = pixel.ErrInvalidDimensions
	ErrUnsupportedFormat   = pixel.ErrUnsupportedFormat
	ErrShortBuffer         = pixel.ErrShortBuffer
	ErrOddDimensions       = jpeg.ErrOddDimensions
	ErrUnsupportedFileType = errors.New("imgsave: unsupported file type")
	ErrUnsupportedYuv      = errors.New("imgsave: unsupported yuv type")
	ErrInvalidQuality      = errors.New("imgsave: quality out of range")
)

// ValidationError reports the parameter that failed validation
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("imgsave: invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Param describes one save request. A Format of pixel.None with a YuvType
// other than YuvUnknown marks a planar YUV source, in which case FileType
// must be Jpeg or Undefined.
type Param struct {
	Width    int
	Height   int
	Format   pixel.Format
	FileType FileType
	Quality  int // 0 selects the file type default
	YuvType  YuvType
}

// Yuv reports whether p describes a planar YUV source.
func (p *Param) Yuv() bool {
	return p.Format == pixel.None && p.YuvType != YuvUnknown
}

// Validate checks p and fills in defaults: an undefined file type becomes
// PgmBin for Gray8 and PpmBin otherwise (Jpeg for YUV sources), and a zero
// quality becomes the JPEG or PNG default.
func (p *Param) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return &ValidationError{Field: "size", Message: fmt.Sprintf("%dx%d", p.Width, p.Height), Err: ErrInvalidDimensions}
	}
	if p.Quality < 0 || p.Quality > 100 {
		return &ValidationError{Field: "quality", Message: fmt.Sprintf("%d not in [0,100]", p.Quality), Err: ErrInvalidQuality}
	}
	if p.Yuv() {
		if p.YuvType != Trect871 {
			return &ValidationError{Field: "yuvType", Message: p.YuvType.String(), Err: ErrUnsupportedYuv}
		}
		if p.Width%2 != 0 || p.Height%2 != 0 {
			return &ValidationError{Field: "size", Message: fmt.Sprintf("%dx%d is odd", p.Width, p.Height), Err: ErrOddDimensions}
		}
		if p.FileType == Undefined {
			p.FileType = Jpeg
		}
		if p.FileType != Jpeg {
			return &ValidationError{Field: "fileType", Message: p.FileType.String() + " from yuv", Err: ErrUnsupportedFileType}
		}
	} else {
		if !p.Format.Valid() {
			return &ValidationError{Field: "format", Message: p.Format.String(), Err: ErrUnsupportedFormat}
		}
		if p.FileType == Undefined {
			if p.Format == pixel.Gray8 {
				p.FileType = PgmBin
			} else {
				p.FileType = PpmBin
			}
		}
		if _, ok := savers[p.FileType]; !ok {
			return &ValidationError{Field: "fileType", Message: p.FileType.String(), Err: ErrUnsupportedFileType}
		}
	}
	if p.Quality == 0 {
		switch p.FileType {
		case Jpeg:
			p.Quality = jpeg.DefaultQuality
		case Png:
			p.Quality = png.DefaultQuality
		}
	}
	return nil
}
