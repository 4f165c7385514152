package jpeg

func (e *encoder) luma(blk []float32, stride int) {
	e.k.DCT(blk, stride)
	e.dc[0] = e.k.ProcessDU(e.bw, blk, stride, &e.q.fY, e.dc[0], &e.t[lumaDC], &e.t[lumaAC])
}

// chroma codes an 8x8 block of component c (1 for U, 2 for V).
func (e *encoder) chroma(c int, blk []float32) {
	e.k.DCT(blk, 8)
	e.dc[c] = e.k.ProcessDU(e.bw, blk, 8, &e.q.fUv, e.dc[c], &e.t[chromaDC], &e.t[chromaAC])
}

// lumaMacroblock codes the four 8x8 quarters of e.y in raster order.
func (e *encoder) lumaMacroblock() {
	e.luma(e.y[0:], 16)
	e.luma(e.y[8:], 16)
	e.luma(e.y[128:], 16)
	e.luma(e.y[136:], 16)
}

func (e *encoder) grayUV() {
	processGrayUV(e.bw, &e.t[chromaDC], &e.t[chromaAC])
}

func (e *encoder) flushIfFull() {
	if e.bw.Full() {
		e.bw.Flush()
	}
}

// writeSubs codes one band of 16x16 macroblocks with 2x2 averaged chroma.
func (e *encoder) writeSubs(width, height int, r, g, b []byte, stride int, gray bool) {
	for y := 0; y < height; y += 16 {
		for x := 0; x < width; x += 16 {
			o := y*stride + x
			if gray {
				e.k.GrayToY(r[o:], stride, height-y, width-x, e.y[:], 16)
			} else {
				e.k.RgbToYuv(r[o:], g[o:], b[o:], stride, height-y, width-x, e.y[:], e.u[:], e.v[:], 16)
			}
			e.lumaMacroblock()
			if gray {
				e.grayUV()
			} else {
				for yy, pos := 0, 0; yy < 8; yy++ {
					for xx := 0; xx < 8; xx, pos = xx+1, pos+1 {
						j := yy*32 + xx*2
						e.su[pos] = (e.u[j] + e.u[j+1] + e.u[j+16] + e.u[j+17]) * 0.25
						e.sv[pos] = (e.v[j] + e.v[j+1] + e.v[j+16] + e.v[j+17]) * 0.25
					}
				}
				e.chroma(1, e.su[:])
				e.chroma(2, e.sv[:])
			}
			e.flushIfFull()
		}
	}
	e.bw.Flush()
}

// writeFull codes one band of 8x8 blocks without chroma subsampling.
func (e *encoder) writeFull(width, height int, r, g, b []byte, stride int, gray bool) {
	for y := 0; y < height; y += 8 {
		for x := 0; x < width; x += 8 {
			o := y*stride + x
			if gray {
				e.k.GrayToY(r[o:], stride, height-y, width-x, e.y[:], 8)
			} else {
				e.k.RgbToYuv(r[o:], g[o:], b[o:], stride, height-y, width-x, e.y[:], e.u[:], e.v[:], 8)
			}
			e.luma(e.y[:], 8)
			if gray {
				e.grayUV()
			} else {
				e.chroma(1, e.u[:])
				e.chroma(2, e.v[:])
			}
			e.flushIfFull()
		}
	}
	e.bw.Flush()
}

// writeNv12 codes one band of 16x16 macroblocks from a luma plane and an
// interleaved UV plane. A nil uv codes gray chroma.
func (e *encoder) writeNv12(width, height int, yp []byte, yStride int, uv []byte, uvStride int) {
	for y := 0; y < height; y += 16 {
		for x := 0; x < width; x += 16 {
			e.k.GrayToY(yp[y*yStride+x:], yStride, height-y, width-x, e.y[:], 16)
			e.lumaMacroblock()
			if uv == nil {
				e.grayUV()
			} else {
				nv12ToUv(uv[(y/2)*uvStride+x:], uvStride, uvSize(height-y), uvSize(width-x), e.su[:], e.sv[:])
				e.chroma(1, e.su[:])
				e.chroma(2, e.sv[:])
			}
			e.flushIfFull()
		}
	}
	e.bw.Flush()
}

// writeYuv420p codes one band of 16x16 macroblocks from three planes.
// A nil u or v codes gray chroma.
func (e *encoder) writeYuv420p(width, height int, yp []byte, yStride int, u []byte, uStride int, v []byte, vStride int) {
	for y := 0; y < height; y += 16 {
		for x := 0; x < width; x += 16 {
			e.k.GrayToY(yp[y*yStride+x:], yStride, height-y, width-x, e.y[:], 16)
			e.lumaMacroblock()
			if u == nil || v == nil {
				e.grayUV()
			} else {
				cx, ch, cw := uvSize(x), uvSize(height-y), uvSize(width-x)
				e.k.GrayToY(u[(y/2)*uStride+cx:], uStride, ch, cw, e.su[:], 8)
				e.k.GrayToY(v[(y/2)*vStride+cx:], vStride, ch, cw, e.sv[:], 8)
				e.chroma(1, e.su[:])
				e.chroma(2, e.sv[:])
			}
			e.flushIfFull()
		}
	}
	e.bw.Flush()
}
