package jpeg

// DCTFunc transforms the 8x8 block at blk[0] with the given row stride in place.
type DCTFunc func(blk []float32, stride int)

// fdct1D is the AAN forward DCT on eight samples spaced step apart.
// Outputs are scaled by the factors in aanScale.
func fdct1D(d []float32, step int) {
	d0, d1, d2, d3 := d[0], d[step], d[2*step], d[3*step]
	d4, d5, d6, d7 := d[4*step], d[5*step], d[6*step], d[7*step]

	tmp0 := d0 + d7
	tmp7 := d0 - d7
	tmp1 := d1 + d6
	tmp6 := d1 - d6
	tmp2 := d2 + d5
	tmp5 := d2 - d5
	tmp3 := d3 + d4
	tmp4 := d3 - d4

	// even part
	tmp10 := tmp0 + tmp3
	tmp13 := tmp0 - tmp3
	tmp11 := tmp1 + tmp2
	tmp12 := tmp1 - tmp2

	d[0] = tmp10 + tmp11
	d[4*step] = tmp10 - tmp11

	z1 := (tmp12 + tmp13) * 0.707106781
	d[2*step] = tmp13 + z1
	d[6*step] = tmp13 - z1

	// odd part
	tmp10 = tmp4 + tmp5
	tmp11 = tmp5 + tmp6
	tmp12 = tmp6 + tmp7

	z5 := (tmp10 - tmp12) * 0.382683433
	z2 := tmp10*0.541196100 + z5
	z4 := tmp12*1.306562965 + z5
	z3 := tmp11 * 0.707106781

	z11 := tmp7 + z3
	z13 := tmp7 - z3

	d[5*step] = z13 + z2
	d[3*step] = z13 - z2
	d[step] = z11 + z4
	d[7*step] = z11 - z4
}

// FDCT runs the column pass and then the row pass over an 8x8 block.
func FDCT(blk []float32, stride int) {
	for x := 0; x < 8; x++ {
		fdct1D(blk[x:], stride)
	}
	for y := 0; y < 8; y++ {
		fdct1D(blk[y*stride:], 1)
	}
}
