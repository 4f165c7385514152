package cmd

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"strings"

	kzlib "github.com/klauspost/compress/zlib"
	"github.com/jpfielding/imgsave.go/pkg/util"
	"github.com/spf13/cobra"
)

// segment is one marker, chunk or header found in a file
type segment struct {
	Name   string
	Offset int
	Length int
	Note   string
	Bad    bool
}

var jpegMarkerNames = map[byte]string{
	0xD8: "SOI",
	0xD9: "EOI",
	0xC0: "SOF0",
	0xC2: "SOF2",
	0xC4: "DHT",
	0xDB: "DQT",
	0xDA: "SOS",
	0xDD: "DRI",
	0xE0: "APP0",
	0xE1: "APP1",
	0xFE: "COM",
}

func markerName(m byte) string {
	if name, ok := jpegMarkerNames[m]; ok {
		return name
	}
	return fmt.Sprintf("FF%02X", m)
}

// inspectJPEG walks the marker segments and measures each entropy coded scan.
func inspectJPEG(data []byte) ([]segment, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, fmt.Errorf("missing SOI")
	}
	segs := []segment{{Name: "SOI"}}
	pos := 2
	for {
		if pos+2 > len(data) {
			return segs, fmt.Errorf("truncated at %d", pos)
		}
		if data[pos] != 0xFF {
			return segs, fmt.Errorf("expected marker at %d, found %02X", pos, data[pos])
		}
		m := data[pos+1]
		if m == 0xD9 {
			segs = append(segs, segment{Name: "EOI", Offset: pos})
			if rest := len(data) - pos - 2; rest > 0 {
				segs[len(segs)-1].Note = fmt.Sprintf("%d trailing bytes", rest)
			}
			return segs, nil
		}
		if pos+4 > len(data) {
			return segs, fmt.Errorf("truncated %s at %d", markerName(m), pos)
		}
		length := int(binary.BigEndian.Uint16(data[pos+2:]))
		if pos+2+length > len(data) {
			return segs, fmt.Errorf("%s at %d overruns the file", markerName(m), pos)
		}
		seg := segment{Name: markerName(m), Offset: pos, Length: length}
		body := data[pos+4 : pos+2+length]
		if m == 0xC0 && len(body) >= 6 {
			h := binary.BigEndian.Uint16(body[1:])
			w := binary.BigEndian.Uint16(body[3:])
			seg.Note = fmt.Sprintf("%dx%d components=%d", w, h, body[5])
			if len(body) >= 9 {
				seg.Note += fmt.Sprintf(" sampling=%02X", body[7])
			}
		}
		segs = append(segs, seg)
		pos += 2 + length
		if m != 0xDA {
			continue
		}
		start, stuffed := pos, 0
		for pos+1 < len(data) {
			if data[pos] == 0xFF {
				next := data[pos+1]
				if next == 0x00 {
					stuffed++
					pos += 2
					continue
				}
				if next < 0xD0 || next > 0xD7 {
					break
				}
			}
			pos++
		}
		segs = append(segs, segment{Name: "scan", Offset: start, Length: pos - start,
			Note: fmt.Sprintf("stuffed=%d", stuffed)})
	}
}

// pngChannels maps IHDR color types to samples per pixel.
var pngChannels = map[byte]int{0: 1, 2: 3, 3: 1, 4: 2, 6: 4}

// inspectPNG lists chunks and checks their CRCs. With inflate the IDAT
// payload is decompressed and its size checked against IHDR.
func inspectPNG(data []byte, inflate bool) ([]segment, error) {
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		return nil, fmt.Errorf("missing PNG signature")
	}
	var segs []segment
	var idat []byte
	var width, height, depth, channels int
	pos := 8
	for pos < len(data) {
		if pos+12 > len(data) {
			return segs, fmt.Errorf("truncated chunk at %d", pos)
		}
		n := int(binary.BigEndian.Uint32(data[pos:]))
		if pos+12+n > len(data) {
			return segs, fmt.Errorf("chunk at %d overruns the file", pos)
		}
		name := string(data[pos+4 : pos+8])
		body := data[pos+8 : pos+8+n]
		want := binary.BigEndian.Uint32(data[pos+8+n:])
		got := crc32.ChecksumIEEE(data[pos+4 : pos+8+n])
		seg := segment{Name: name, Offset: pos, Length: n, Note: "crc ok"}
		if got != want {
			seg.Note, seg.Bad = fmt.Sprintf("crc %08x, stored %08x", got, want), true
		}
		switch name {
		case "IHDR":
			if n >= 13 {
				width = int(binary.BigEndian.Uint32(body))
				height = int(binary.BigEndian.Uint32(body[4:]))
				depth, channels = int(body[8]), pngChannels[body[9]]
				seg.Note += fmt.Sprintf(" %dx%d depth=%d color=%d", width, height, depth, body[9])
			}
		case "IDAT":
			idat = append(idat, body...)
		}
		segs = append(segs, seg)
		pos += 12 + n
		if name == "IEND" {
			break
		}
	}
	if !inflate {
		return segs, nil
	}
	zr, err := kzlib.NewReader(bytes.NewReader(idat))
	if err != nil {
		return segs, fmt.Errorf("inflate: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return segs, fmt.Errorf("inflate: %w", err)
	}
	rowBytes := (width*channels*depth + 7) / 8
	want := height * (1 + rowBytes)
	seg := segment{Name: "zlib", Length: len(idat), Note: fmt.Sprintf("inflated %d bytes", len(raw))}
	if len(raw) != want {
		seg.Note, seg.Bad = fmt.Sprintf("inflated %d bytes, want %d", len(raw), want), true
	} else {
		var counts [5]int
		for y := 0; y < height; y++ {
			ft := raw[y*(1+rowBytes)]
			if ft > 4 {
				seg.Note, seg.Bad = fmt.Sprintf("row %d has filter %d", y, ft), true
				break
			}
			counts[ft]++
		}
		if !seg.Bad {
			seg.Note += fmt.Sprintf(" filters=%v", counts)
		}
	}
	return append(segs, seg), nil
}

func inspectBMP(data []byte) ([]segment, error) {
	if len(data) < 30 {
		return nil, fmt.Errorf("truncated bitmap header")
	}
	le := binary.LittleEndian
	size, offset := le.Uint32(data[2:]), le.Uint32(data[10:])
	seg := segment{Name: "BM", Length: int(offset), Note: fmt.Sprintf("%dx%d bpp=%d header=%d",
		int32(le.Uint32(data[18:])), int32(le.Uint32(data[22:])), le.Uint16(data[28:]), le.Uint32(data[14:]))}
	if int(size) != len(data) {
		seg.Note, seg.Bad = seg.Note+fmt.Sprintf(" size field %d, file %d", size, len(data)), true
	}
	return []segment{seg, {Name: "pixels", Offset: int(offset), Length: len(data) - int(offset)}}, nil
}

func inspectPNM(data []byte) ([]segment, error) {
	fields := strings.Fields(string(data[:min(len(data), 64)]))
	if len(fields) < 4 {
		return nil, fmt.Errorf("truncated netpbm header")
	}
	header := fmt.Sprintf("%s\n%s %s\n%s\n", fields[0], fields[1], fields[2], fields[3])
	return []segment{
		{Name: fields[0], Length: len(header), Note: fmt.Sprintf("%sx%s max=%s", fields[1], fields[2], fields[3])},
		{Name: "pixels", Offset: len(header), Length: len(data) - len(header)},
	}, nil
}

// inspect identifies data by its magic bytes and lists its structure.
func inspect(data []byte, inflate bool) (string, []segment, error) {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		segs, err := inspectJPEG(data)
		return "jpeg", segs, err
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		segs, err := inspectPNG(data, inflate)
		return "png", segs, err
	case bytes.HasPrefix(data, []byte("BM")):
		segs, err := inspectBMP(data)
		return "bmp", segs, err
	case len(data) > 2 && data[0] == 'P' && strings.ContainsRune("2356", rune(data[1])):
		segs, err := inspectPNM(data)
		return "netpbm", segs, err
	}
	return "", nil, fmt.Errorf("unrecognized file format")
}

// NewInfoCmd prints the structure of an encoded file
func NewInfoCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "List markers, chunks and checksums of an encoded file",
		Long:  "Lists JPEG markers with segment lengths, PNG chunks with CRC verification, and BMP/Netpbm headers.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inflate, _ := cmd.Flags().GetBool("inflate")
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return runInfo(cmd.OutOrStdout(), args[0], data, inflate)
		},
	}
	pf := cmd.PersistentFlags()
	pf.Bool("inflate", false, "inflate PNG image data and check its size")
	return cmd
}

func runInfo(w io.Writer, name string, data []byte, inflate bool) error {
	kind, segs, err := inspect(data, inflate)
	fmt.Fprintf(w, "%s: %s %d bytes xxhash=%s\n", name, kind, len(data), util.ContentHashHex(data))
	bad := 0
	for _, s := range segs {
		mark := ""
		if s.Bad {
			mark = " !"
			bad++
		}
		fmt.Fprintf(w, "  %-6s offset=%-8d length=%-8d %s%s\n", s.Name, s.Offset, s.Length, s.Note, mark)
	}
	if err != nil {
		return err
	}
	if bad > 0 {
		return fmt.Errorf("%s: %d bad segments", name, bad)
	}
	return nil
}
