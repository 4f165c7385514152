package jpeg

// Marker codes
const (
	MarkerSOI  = 0xFFD8
	MarkerEOI  = 0xFFD9
	MarkerSOF0 = 0xFFC0
	MarkerDHT  = 0xFFC4
	MarkerDQT  = 0xFFDB
	MarkerSOS  = 0xFFDA
	MarkerAPP0 = 0xFFE0
)

func (e *encoder) writeMarker(marker uint16) {
	e.s.WriteBe16(marker)
}

func (e *encoder) writeAPP0() {
	e.writeMarker(MarkerAPP0)
	_, _ = e.s.Write([]byte{
		0x00, 0x10, // Length = 16
		'J', 'F', 'I', 'F', 0x00,
		0x01, 0x01, // Version 1.1
		0x00,       // Units: none
		0x00, 0x01, // X density
		0x00, 0x01, // Y density
		0x00, 0x00, // No thumbnail
	})
}

// writeDQT writes both tables in one segment, luma as table 0.
func (e *encoder) writeDQT() {
	e.writeMarker(MarkerDQT)
	e.s.WriteBe16(2 + 2*65)
	_ = e.s.WriteByte(0)
	_, _ = e.s.Write(e.q.uY[:])
	_ = e.s.WriteByte(1)
	_, _ = e.s.Write(e.q.uUv[:])
}

// writeSOF0 declares three components even for gray sources.
func (e *encoder) writeSOF0(width, height int) {
	sampling := byte(0x11)
	if e.q.subSample {
		sampling = 0x22
	}
	e.writeMarker(MarkerSOF0)
	_, _ = e.s.Write([]byte{
		0x00, 0x11, // Length = 17
		8, // Precision
		byte(height >> 8), byte(height),
		byte(width >> 8), byte(width),
		3,
		1, sampling, 0,
		2, 0x11, 1,
		3, 0x11, 1,
	})
}

// writeDHT writes the four standard tables in one segment.
func (e *encoder) writeDHT() {
	n := 2
	for _, s := range huffmanSpecs {
		n += 1 + 16 + len(s.value)
	}
	e.writeMarker(MarkerDHT)
	e.s.WriteBe16(uint16(n))
	for i, class := range []byte{0x00, 0x10, 0x01, 0x11} {
		_ = e.s.WriteByte(class)
		_, _ = e.s.Write(huffmanSpecs[i].count[:])
		_, _ = e.s.Write(huffmanSpecs[i].value)
	}
}

func (e *encoder) writeSOS() {
	e.writeMarker(MarkerSOS)
	_, _ = e.s.Write([]byte{
		0x00, 0x0C, // Length = 12
		3,
		1, 0x00,
		2, 0x11,
		3, 0x11,
		0x00, 0x3F, 0x00, // Ss, Se, Ah/Al
	})
}

func (e *encoder) writeHeader(width, height int) {
	e.writeMarker(MarkerSOI)
	e.writeAPP0()
	e.writeDQT()
	e.writeSOF0(width, height)
	e.writeDHT()
	e.writeSOS()
}
