package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/imgsave.go/pkg/imgsave"
	"github.com/jpfielding/imgsave.go/pkg/util"
	"github.com/spf13/cobra"
)

// yuvFrame is one raw 4:2:0 frame with tightly packed planes
type yuvFrame struct {
	layout        string
	width, height int
	y, u, v, uv   []byte
}

func frameSize(width, height int) int {
	return width*height + width*height/2
}

// splitFrame cuts frame index n out of a raw NV12 or I420 file.
func splitFrame(data []byte, layout string, width, height, n int) (*yuvFrame, error) {
	size := frameSize(width, height)
	if off := n * size; n < 0 || off+size > len(data) {
		return nil, fmt.Errorf("frame %d of %dx%d needs %d bytes, file has %d", n, width, height, (n+1)*size, len(data))
	}
	raw := data[n*size : (n+1)*size]
	ySize, cSize := width*height, width*height/4
	f := &yuvFrame{layout: layout, width: width, height: height, y: raw[:ySize]}
	switch layout {
	case "nv12":
		f.uv = raw[ySize:]
	case "i420":
		f.u = raw[ySize : ySize+cSize]
		f.v = raw[ySize+cSize:]
	default:
		return nil, fmt.Errorf("unknown layout %q, want nv12 or i420", layout)
	}
	return f, nil
}

func (f *yuvFrame) encode(yuvType imgsave.YuvType, quality int) ([]byte, error) {
	if f.layout == "nv12" {
		return imgsave.Nv12SaveAsJpegToMemory(f.y, f.width, f.uv, f.width, f.width, f.height, yuvType, quality)
	}
	return imgsave.Yuv420pSaveAsJpegToMemory(f.y, f.width, f.u, f.width/2, f.v, f.width/2, f.width, f.height, yuvType, quality)
}

// NewYuvCmd encodes raw NV12 or I420 frames as JPEG
func NewYuvCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yuv <raw-file>",
		Short: "Encode a raw NV12 or I420 frame as jpeg",
		Long:  "Reads frame --frame of a raw 4:2:0 file with tightly packed planes and encodes it as a baseline JPEG with 2x2 chroma subsampling.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, _ := cmd.Flags().GetString("layout")
			width, _ := cmd.Flags().GetInt("width")
			height, _ := cmd.Flags().GetInt("height")
			frame, _ := cmd.Flags().GetInt("frame")
			quality, _ := cmd.Flags().GetInt("quality")
			out, _ := cmd.Flags().GetString("out")
			yuvName, _ := cmd.Flags().GetString("yuv-type")
			yuvType, err := imgsave.ParseYuvType(yuvName)
			if err != nil {
				return err
			}
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			return runYuv(ctx, cmd.OutOrStdout(), args[0], strings.ToLower(layout), width, height, frame, yuvType, quality, out)
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("layout", "l", "nv12", "plane layout (nv12|i420)")
	pf.IntP("width", "W", 0, "frame width (even)")
	pf.IntP("height", "H", 0, "frame height (even)")
	pf.Int("frame", 0, "index of the frame to encode")
	pf.IntP("quality", "q", 0, "jpeg quality 1-100 (0 = default)")
	pf.String("yuv-type", "trect871", "yuv standard of the source")
	pf.StringP("out", "o", "", "output jpeg file")
	return cmd
}

func runYuv(ctx context.Context, w io.Writer, in, layout string, width, height, n int, yuvType imgsave.YuvType, quality int, out string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("--width and --height are required")
	}
	raw, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	frame, err := splitFrame(raw, layout, width, height, n)
	if err != nil {
		return err
	}
	data, err := frame.encode(yuvType, quality)
	if err != nil {
		return fmt.Errorf("encode %s: %w", in, err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	slog.InfoContext(ctx, "encoded yuv", slog.String("in", in), slog.String("layout", layout),
		slog.Int("frame", n), slog.String("out", out), slog.Int("bytes", len(data)))
	fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", in, out, len(data), util.ContentHashHex(data))
	return nil
}
