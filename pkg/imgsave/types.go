// Package imgsave serializes raw pixel buffers and YUV planes into JPEG,
// PNG, BMP and Netpbm files. Each call validates a Param, picks the saver
// registered for the file type and returns an owned byte slice.
package imgsave

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileType is the container written by a saver.
type FileType int

const (
	Undefined FileType = iota
	PgmTxt
	PgmBin
	PpmTxt
	PpmBin
	Png
	Jpeg
	Bmp
)

var fileTypeNames = map[FileType]string{
	Undefined: "undefined",
	PgmTxt:    "pgm-txt",
	PgmBin:    "pgm",
	PpmTxt:    "ppm-txt",
	PpmBin:    "ppm",
	Png:       "png",
	Jpeg:      "jpeg",
	Bmp:       "bmp",
}

func (t FileType) String() string {
	if name, ok := fileTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("FileType(%d)", int(t))
}

// ParseFileType maps a name such as "png", "jpg" or "pgm-txt" to a FileType.
func ParseFileType(name string) (FileType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "jpg" {
		return Jpeg, nil
	}
	for t, n := range fileTypeNames {
		if n == name && t != Undefined {
			return t, nil
		}
	}
	return Undefined, fmt.Errorf("unknown file type %q: %w", name, ErrUnsupportedFileType)
}

// extensions maps lower-case path extensions to the binary variant of each
// container.
var extensions = map[string]FileType{
	".pgm":  PgmBin,
	".ppm":  PpmBin,
	".png":  Png,
	".jpg":  Jpeg,
	".jpeg": Jpeg,
	".bmp":  Bmp,
}

// FileTypeFromPath infers the file type from the extension of path.
// Unknown extensions give Undefined.
func FileTypeFromPath(path string) FileType {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Ext returns the canonical extension for t, including the dot.
func (t FileType) Ext() string {
	switch t {
	case PgmTxt, PgmBin:
		return ".pgm"
	case PpmTxt, PpmBin:
		return ".ppm"
	case Png:
		return ".png"
	case Jpeg:
		return ".jpg"
	case Bmp:
		return ".bmp"
	}
	return ""
}

// YuvType names the YUV standard of planar sources. Only Trect871 is
// accepted by the JPEG entry points.
type YuvType int

const (
	YuvUnknown YuvType = -1
	Bt601      YuvType = 0
	Bt709      YuvType = 1
	Bt2020     YuvType = 2
	Trect871   YuvType = 3
)

func (t YuvType) String() string {
	switch t {
	case YuvUnknown:
		return "unknown"
	case Bt601:
		return "bt601"
	case Bt709:
		return "bt709"
	case Bt2020:
		return "bt2020"
	case Trect871:
		return "trect871"
	}
	return fmt.Sprintf("YuvType(%d)", int(t))
}

// ParseYuvType maps a name to a YuvType.
func ParseYuvType(name string) (YuvType, error) {
	for _, t := range []YuvType{Bt601, Bt709, Bt2020, Trect871} {
		if strings.EqualFold(strings.TrimSpace(name), t.String()) {
			return t, nil
		}
	}
	return YuvUnknown, fmt.Errorf("unknown yuv type %q: %w", name, ErrUnsupportedYuv)
}
