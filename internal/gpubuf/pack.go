package gpubuf

import (
	"encoding/binary"
	"math"
)

// Packer accumulates little-endian GPU struct bytes field by field, the
// same manual layout style used throughout the buffer manager this package
// is grounded on (no struct-cast, no reflection).
type Packer struct {
	buf []byte
}

func NewPacker(capacityHint int) *Packer {
	return &Packer{buf: make([]byte, 0, capacityHint)}
}

func (p *Packer) PutFloat32(v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	p.buf = append(p.buf, b[:]...)
}

func (p *Packer) PutUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	p.buf = append(p.buf, b[:]...)
}

func (p *Packer) PutFloat32Slice(v []float32) {
	for _, f := range v {
		p.PutFloat32(f)
	}
}

// PutMat4 packs a column-major 4x4 matrix given as 16 float32 values.
func (p *Packer) PutMat4(v [16]float32) {
	p.PutFloat32Slice(v[:])
}

func (p *Packer) PutVec3(v [3]float32) {
	p.PutFloat32Slice(v[:])
}

func (p *Packer) PutVec4(v [4]float32) {
	p.PutFloat32Slice(v[:])
}

// PadTo appends zero bytes until the buffer is size bytes long, for
// std140-style struct alignment padding.
func (p *Packer) PadTo(size int) {
	for len(p.buf) < size {
		p.buf = append(p.buf, 0)
	}
}

func (p *Packer) Bytes() []byte { return p.buf }
