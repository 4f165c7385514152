package imgsave

import (
	"fmt"

	"github.com/jpfielding/imgsave.go/pkg/compress/bmp"
	"github.com/jpfielding/imgsave.go/pkg/compress/jpeg"
	"github.com/jpfielding/imgsave.go/pkg/compress/png"
	"github.com/jpfielding/imgsave.go/pkg/compress/pxm"
)

// Saver encodes a packed pixel buffer described by a validated Param.
type Saver interface {
	// Save returns the encoded file
	Save(src []byte, stride int, p Param) ([]byte, error)
	// Name returns the saver identifier (e.g., "png")
	Name() string
}

// jpegSaver implements Saver for baseline JPEG
type jpegSaver struct{}

func (s *jpegSaver) Save(src []byte, stride int, p Param) ([]byte, error) {
	return jpeg.EncodeBytes(src, stride, p.Width, p.Height, p.Format, &jpeg.Options{Quality: p.Quality})
}

func (s *jpegSaver) Name() string {
	return "jpeg"
}

// pngSaver implements Saver for PNG
type pngSaver struct{}

func (s *pngSaver) Save(src []byte, stride int, p Param) ([]byte, error) {
	return png.EncodeBytes(src, stride, p.Width, p.Height, p.Format, &png.Options{Quality: p.Quality})
}

func (s *pngSaver) Name() string {
	return "png"
}

// bmpSaver implements Saver for BMP
type bmpSaver struct{}

func (s *bmpSaver) Save(src []byte, stride int, p Param) ([]byte, error) {
	return bmp.EncodeBytes(src, stride, p.Width, p.Height, p.Format)
}

func (s *bmpSaver) Name() string {
	return "bmp"
}

// pxmSaver implements Saver for the four Netpbm variants
type pxmSaver struct {
	kind pxm.Kind
}

func (s *pxmSaver) Save(src []byte, stride int, p Param) ([]byte, error) {
	return pxm.EncodeBytes(src, stride, p.Width, p.Height, p.Format, s.kind)
}

func (s *pxmSaver) Name() string {
	return "pxm-" + s.kind.String()
}

// savers maps file types to implementations
var savers = map[FileType]Saver{
	PgmTxt: &pxmSaver{kind: pxm.PgmTxt},
	PgmBin: &pxmSaver{kind: pxm.PgmBin},
	PpmTxt: &pxmSaver{kind: pxm.PpmTxt},
	PpmBin: &pxmSaver{kind: pxm.PpmBin},
	Png:    &pngSaver{},
	Jpeg:   &jpegSaver{},
	Bmp:    &bmpSaver{},
}

// SaverFor returns the saver registered for t.
func SaverFor(t FileType) (Saver, error) {
	if s, ok := savers[t]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("imgsave: %s: %w", t, ErrUnsupportedFileType)
}
