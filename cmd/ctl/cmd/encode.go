package cmd

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/jpfielding/imgsave.go/pkg/imgsave"
	"github.com/jpfielding/imgsave.go/pkg/pixel"
	"github.com/jpfielding/imgsave.go/pkg/util"
	"github.com/spf13/cobra"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// encodeOptions collects the encode flags
type encodeOptions struct {
	fileType imgsave.FileType
	format   pixel.Format
	quality  int
	out      string
	outDir   string
	resizeW  int
	resizeH  int
	flip     string
	rotate   int
}

// NewEncodeCmd decodes images and saves them through the imgsave encoders
func NewEncodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <image>...",
		Short: "Encode images as jpeg, png, bmp, pgm or ppm",
		Long: `Decodes each input (png, jpeg, gif, bmp, tiff, webp), optionally resizes,
flips or rotates it, packs it into the requested pixel format and saves it.
With --out the file type follows the extension unless --type is set; with
--out-dir files are named by a UUID derived from their content.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseEncodeFlags(cmd)
			if err != nil {
				return err
			}
			if opts.out != "" && len(args) > 1 {
				return fmt.Errorf("--out takes a single input, use --out-dir for %d inputs", len(args))
			}
			if opts.out == "" && opts.outDir == "" {
				return fmt.Errorf("one of --out or --out-dir is required")
			}
			for _, in := range args {
				if err := runEncode(ctx, cmd.OutOrStdout(), in, opts); err != nil {
					return err
				}
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("type", "t", "", "file type (png|jpeg|bmp|pgm|ppm|pgm-txt|ppm-txt), default from --out")
	pf.StringP("format", "f", "", "pixel format to pack (gray8|bgr24|bgra32|rgb24|rgba32), default from the image")
	pf.IntP("quality", "q", 0, "jpeg quality 1-100 or png search depth (0 = default)")
	pf.StringP("out", "o", "", "output file")
	pf.String("out-dir", "", "output directory for content-named files")
	pf.String("resize", "", "resize to WxH before encoding; 0 keeps the aspect ratio")
	pf.String("flip", "", "flip h or v")
	pf.Int("rotate", 0, "rotate counter-clockwise by 90, 180 or 270")
	return cmd
}

func parseEncodeFlags(cmd *cobra.Command) (encodeOptions, error) {
	var opts encodeOptions
	var err error
	if name, _ := cmd.Flags().GetString("type"); name != "" {
		if opts.fileType, err = imgsave.ParseFileType(name); err != nil {
			return opts, err
		}
	}
	if name, _ := cmd.Flags().GetString("format"); name != "" {
		if opts.format, err = pixel.ParseFormat(name); err != nil {
			return opts, err
		}
	}
	opts.quality, _ = cmd.Flags().GetInt("quality")
	opts.out, _ = cmd.Flags().GetString("out")
	opts.outDir, _ = cmd.Flags().GetString("out-dir")
	if size, _ := cmd.Flags().GetString("resize"); size != "" {
		if opts.resizeW, opts.resizeH, err = parseSize(size); err != nil {
			return opts, err
		}
	}
	opts.flip, _ = cmd.Flags().GetString("flip")
	if opts.flip != "" && opts.flip != "h" && opts.flip != "v" {
		return opts, fmt.Errorf("invalid --flip %q", opts.flip)
	}
	opts.rotate, _ = cmd.Flags().GetInt("rotate")
	switch opts.rotate {
	case 0, 90, 180, 270:
	default:
		return opts, fmt.Errorf("invalid --rotate %d", opts.rotate)
	}
	return opts, nil
}

// parseSize reads "WxH"; one side may be 0 to keep the aspect ratio.
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q, want WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q: %w", s, err)
	}
	if w < 0 || h < 0 || (w == 0 && h == 0) {
		return 0, 0, fmt.Errorf("invalid size %q", s)
	}
	return w, h, nil
}

func transform(img image.Image, opts encodeOptions) image.Image {
	if opts.resizeW > 0 || opts.resizeH > 0 {
		img = imaging.Resize(img, opts.resizeW, opts.resizeH, imaging.Lanczos)
	}
	switch opts.flip {
	case "h":
		img = imaging.FlipH(img)
	case "v":
		img = imaging.FlipV(img)
	}
	switch opts.rotate {
	case 90:
		img = imaging.Rotate90(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate270(img)
	}
	return img
}

// packImage lays img out as f, or as the closest format when f is None.
func packImage(img image.Image, f pixel.Format) ([]byte, int, pixel.Format) {
	if f == pixel.None {
		return pixel.FromImage(img)
	}
	b := img.Bounds()
	n := f.Channels()
	stride := b.Dx() * n
	buf := make([]byte, stride*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			p := buf[y*stride+x*n:]
			if n == 1 {
				p[0] = color.GrayModel.Convert(c).(color.Gray).Y
				continue
			}
			nc := color.NRGBAModel.Convert(c).(color.NRGBA)
			r, bl := nc.R, nc.B
			if f.IsBgr() {
				r, bl = bl, r
			}
			p[0], p[1], p[2] = r, nc.G, bl
			if n == 4 {
				p[3] = nc.A
			}
		}
	}
	return buf, stride, f
}

func decodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, kind, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", path, err)
	}
	return img, kind, nil
}

func runEncode(ctx context.Context, out io.Writer, in string, opts encodeOptions) error {
	img, kind, err := decodeFile(in)
	if err != nil {
		return err
	}
	img = transform(img, opts)
	buf, stride, f := packImage(img, opts.format)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	slog.DebugContext(ctx, "encode input",
		slog.String("path", in), slog.String("decoder", kind),
		slog.Int("width", w), slog.Int("height", h), slog.String("format", f.String()))

	var dest string
	var data []byte
	if opts.out != "" {
		dest = opts.out
		if err := imgsave.SaveToFile(buf, stride, w, h, f, opts.fileType, opts.quality, dest); err != nil {
			return fmt.Errorf("save %s: %w", in, err)
		}
		if data, err = os.ReadFile(dest); err != nil {
			return err
		}
	} else {
		ft := opts.fileType
		if ft == imgsave.Undefined {
			ft = imgsave.Png
		}
		if data, err = imgsave.SaveToMemory(buf, stride, w, h, f, ft, opts.quality); err != nil {
			return fmt.Errorf("save %s: %w", in, err)
		}
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		dest = filepath.Join(opts.outDir, util.OutputName(data, ft.Ext()))
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
	}
	slog.InfoContext(ctx, "encoded", slog.String("in", in), slog.String("out", dest), slog.Int("bytes", len(data)))
	fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", in, dest, len(data), util.ContentHashHex(data))
	return nil
}
