package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	stdjpeg "image/jpeg"
	stdpng "image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/imgsave.go/pkg/imgsave"
	"github.com/jpfielding/imgsave.go/pkg/pixel"
	"github.com/jpfielding/imgsave.go/pkg/util"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRoot(context.Background(), "test-sha")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeInput(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: byte(x * 10), G: byte(y * 10), B: 90, A: 255})
		}
	}
	path := filepath.Join(dir, "in.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, stdpng.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "test-sha\n", out)
}

func TestEncodeOut(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, 20, 12)
	tests := []struct {
		name  string
		args  []string
		magic string
	}{
		{"png.png", nil, "\x89PNG"},
		{"jpg.jpg", []string{"-q", "70"}, "\xFF\xD8"},
		{"bmp.bmp", nil, "BM"},
		{"gray.pgm", []string{"--format", "gray8"}, "P5"},
		{"typed.out", []string{"--type", "ppm-txt"}, "P3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(dir, tt.name)
			out, err := run(t, append([]string{"encode", in, "--out", dest}, tt.args...)...)
			require.NoError(t, err)
			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(data), tt.magic))
			assert.Contains(t, out, util.ContentHashHex(data))
		})
	}
}

func TestEncodeTransforms(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, 20, 12)
	dest := filepath.Join(dir, "r.png")
	_, err := run(t, "encode", in, "--out", dest, "--resize", "10x0", "--rotate", "90")
	require.NoError(t, err)
	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := stdpng.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Width)
	assert.Equal(t, 10, cfg.Height)
}

func TestEncodeOutDir(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, 8, 8)
	outDir := filepath.Join(dir, "out")
	out, err := run(t, "encode", in, "--out-dir", outDir, "--type", "jpeg")
	require.NoError(t, err)
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, util.OutputName(data, ".jpg"), entries[0].Name())
	assert.Contains(t, out, entries[0].Name())
	_, err = stdjpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
}

func TestEncodeFlagErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, 4, 4)
	tests := [][]string{
		{"encode", in},
		{"encode", in, in, "--out", filepath.Join(dir, "x.png")},
		{"encode", in, "--out", "x.png", "--type", "gif"},
		{"encode", in, "--out", "x.png", "--format", "cmyk"},
		{"encode", in, "--out", "x.png", "--resize", "abc"},
		{"encode", in, "--out", "x.png", "--flip", "d"},
		{"encode", in, "--out", "x.png", "--rotate", "45"},
		{"encode", filepath.Join(dir, "missing.png"), "--out", "x.png"},
	}
	for _, args := range tests {
		_, err := run(t, args...)
		assert.Error(t, err, strings.Join(args[1:], " "))
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		w, h int
		ok   bool
	}{
		{"10x20", 10, 20, true},
		{"10X0", 10, 0, true},
		{"0x5", 0, 5, true},
		{"0x0", 0, 0, false},
		{"10", 0, 0, false},
		{"-1x4", 0, 0, false},
	}
	for _, tt := range tests {
		w, h, err := parseSize(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, [2]int{tt.w, tt.h}, [2]int{w, h})
	}
}

func TestPackImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	img.SetNRGBA(1, 0, color.NRGBA{R: 5, G: 6, B: 7, A: 8})
	tests := []struct {
		f    pixel.Format
		want []byte
	}{
		{pixel.Rgb24, []byte{1, 2, 3, 5, 6, 7}},
		{pixel.Bgr24, []byte{3, 2, 1, 7, 6, 5}},
		{pixel.Rgba32, []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{pixel.Bgra32, []byte{3, 2, 1, 4, 7, 6, 5, 8}},
	}
	for _, tt := range tests {
		buf, stride, f := packImage(img, tt.f)
		assert.Equal(t, tt.f, f)
		assert.Equal(t, len(tt.want), stride)
		assert.Equal(t, tt.want, buf, tt.f.String())
	}
	buf, _, f := packImage(img, pixel.None)
	assert.Equal(t, pixel.Rgba32, f)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf)
}

func writeYuv(t *testing.T, dir string, w, h, frames int) string {
	t.Helper()
	var raw []byte
	for n := 0; n < frames; n++ {
		for i := 0; i < w*h; i++ {
			raw = append(raw, byte(16+i%200+n))
		}
		for i := 0; i < w*h/2; i++ {
			raw = append(raw, byte(128+i%9))
		}
	}
	path := filepath.Join(dir, "in.yuv")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestYuv(t *testing.T) {
	dir := t.TempDir()
	in := writeYuv(t, dir, 16, 8, 2)
	for _, layout := range []string{"nv12", "i420"} {
		t.Run(layout, func(t *testing.T) {
			dest := filepath.Join(dir, layout+".jpg")
			_, err := run(t, "yuv", in, "--layout", layout, "-W", "16", "-H", "8", "--frame", "1", "-o", dest)
			require.NoError(t, err)
			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			img, err := stdjpeg.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())
		})
	}
}

func TestSplitFrame(t *testing.T) {
	raw := make([]byte, 2*frameSize(4, 2))
	for i := range raw {
		raw[i] = byte(i)
	}
	f, err := splitFrame(raw, "i420", 4, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{12, 13, 14, 15, 16, 17, 18, 19}, f.y)
	assert.Equal(t, []byte{20, 21}, f.u)
	assert.Equal(t, []byte{22, 23}, f.v)

	f, err = splitFrame(raw, "nv12", 4, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{8, 9, 10, 11}, f.uv)

	_, err = splitFrame(raw, "nv12", 4, 2, 2)
	assert.Error(t, err)
	_, err = splitFrame(raw, "yuyv", 4, 2, 0)
	assert.Error(t, err)
}

func TestYuvErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeYuv(t, dir, 4, 4, 1)
	out := filepath.Join(dir, "x.jpg")
	tests := [][]string{
		{"yuv", in, "-W", "4", "-H", "4"},
		{"yuv", in, "-o", out},
		{"yuv", in, "-W", "4", "-H", "4", "-o", out, "--yuv-type", "bt709x"},
		{"yuv", in, "-W", "4", "-H", "4", "-o", out, "--yuv-type", "bt709"},
		{"yuv", in, "-W", "8", "-H", "8", "-o", out},
	}
	for _, args := range tests {
		_, err := run(t, args...)
		assert.Error(t, err, strings.Join(args[1:], " "))
	}
}

func TestInfo(t *testing.T) {
	dir := t.TempDir()
	src := make([]byte, 24*16*3)
	for i := range src {
		src[i] = byte(i * 7)
	}
	tests := []struct {
		ft    imgsave.FileType
		kind  string
		names []string
	}{
		{imgsave.Jpeg, "jpeg", []string{"SOI", "APP0", "DQT", "SOF0", "DHT", "SOS", "scan", "EOI"}},
		{imgsave.Png, "png", []string{"IHDR", "IDAT", "IEND", "zlib"}},
		{imgsave.Bmp, "bmp", []string{"BM", "pixels"}},
		{imgsave.PpmBin, "netpbm", []string{"P6", "pixels"}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			data, err := imgsave.SaveToMemory(src, 24*3, 24, 16, pixel.Rgb24, tt.ft, 0)
			require.NoError(t, err)
			kind, segs, err := inspect(data, true)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			var names []string
			for _, s := range segs {
				names = append(names, s.Name)
				assert.False(t, s.Bad, "%s %s", s.Name, s.Note)
			}
			assert.Equal(t, tt.names, names)

			path := filepath.Join(dir, "f"+tt.ft.Ext())
			require.NoError(t, os.WriteFile(path, data, 0o644))
			out, err := run(t, "info", path, "--inflate")
			require.NoError(t, err)
			assert.Contains(t, out, tt.kind)
		})
	}
}

func TestInfoJpegDetails(t *testing.T) {
	data, err := imgsave.SaveToMemory(make([]byte, 40*24), 40, 40, 24, pixel.Gray8, imgsave.Jpeg, 95)
	require.NoError(t, err)
	segs, err := inspectJPEG(data)
	require.NoError(t, err)
	for _, s := range segs {
		if s.Name == "SOF0" {
			assert.Equal(t, "40x24 components=3 sampling=11", s.Note)
		}
	}
}

func TestInfoDetectsCorruptPng(t *testing.T) {
	src := bytes.Repeat([]byte{10, 20, 30}, 16)
	data, err := imgsave.SaveToMemory(src, 12, 4, 4, pixel.Rgb24, imgsave.Png, 0)
	require.NoError(t, err)
	data[20] ^= 0xFF // inside IHDR
	segs, err := inspectPNG(data, false)
	require.NoError(t, err)
	assert.True(t, segs[0].Bad)

	path := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	_, err = run(t, "info", path)
	assert.Error(t, err)

	_, _, err = inspect([]byte("GIF89a"), false)
	assert.Error(t, err)
}
