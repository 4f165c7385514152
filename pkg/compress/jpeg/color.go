package jpeg

// RgbToYuvFunc converts a size x size region of the r, g and b planes into
// level-shifted Y, U and V samples. Rows and columns past height and width
// repeat the last valid one.
type RgbToYuvFunc func(r, g, b []byte, stride, height, width int, y, u, v []float32, size int)

// GrayToYFunc converts a size x size region of a single plane into samples
// shifted by -128, with the same edge handling as RgbToYuvFunc.
type GrayToYFunc func(src []byte, stride, height, width int, y []float32, size int)

func rgbToYuv(r, g, b []byte, stride, height, width int, y, u, v []float32, size int) {
	for row, i := 0, 0; row < size; row++ {
		off := min(row, height-1) * stride
		for col := 0; col < size; col, i = col+1, i+1 {
			o := off + min(col, width-1)
			rv, gv, bv := float32(r[o]), float32(g[o]), float32(b[o])
			y[i] = 0.299*rv + 0.587*gv + 0.114*bv - 128
			u[i] = -0.16874*rv - 0.33126*gv + 0.5*bv
			v[i] = 0.5*rv - 0.41869*gv - 0.08131*bv
		}
	}
}

func grayToY(src []byte, stride, height, width int, y []float32, size int) {
	for row, i := 0, 0; row < size; row++ {
		off := min(row, height-1) * stride
		for col := 0; col < size; col, i = col+1, i+1 {
			y[i] = float32(src[off+min(col, width-1)]) - 128
		}
	}
}

// nv12ToUv splits an 8x8 region of an interleaved UV plane into U and V.
func nv12ToUv(uv []byte, stride, height, width int, u, v []float32) {
	for row, i := 0, 0; row < 8; row++ {
		off := min(row, height-1) * stride
		for col := 0; col < 8; col, i = col+1, i+1 {
			o := off + 2*min(col, width-1)
			u[i] = float32(uv[o]) - 128
			v[i] = float32(uv[o+1]) - 128
		}
	}
}

// uvSize is the chroma extent covering n luma samples.
func uvSize(n int) int { return (n + 1) / 2 }
