package gpubuf

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutFloat32LittleEndian(t *testing.T) {
	p := NewPacker(4)
	p.PutFloat32(1.5)
	got := binary.LittleEndian.Uint32(p.Bytes())
	assert.Equal(t, math.Float32bits(1.5), got)
}

func TestPutUint32(t *testing.T) {
	p := NewPacker(4)
	p.PutUint32(0xdeadbeef)
	assert.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde}, p.Bytes())
}

func TestPutVec3AndVec4Sizes(t *testing.T) {
	p := NewPacker(0)
	p.PutVec3([3]float32{1, 2, 3})
	assert.Len(t, p.Bytes(), 12)

	p2 := NewPacker(0)
	p2.PutVec4([4]float32{1, 2, 3, 4})
	assert.Len(t, p2.Bytes(), 16)
}

func TestPutMat4Size(t *testing.T) {
	p := NewPacker(0)
	var m [16]float32
	for i := range m {
		m[i] = float32(i)
	}
	p.PutMat4(m)
	assert.Len(t, p.Bytes(), 64)
}

func TestPadToGrowsAndIsIdempotentWhenAlreadyLargeEnough(t *testing.T) {
	p := NewPacker(0)
	p.PutUint32(1)
	p.PadTo(16)
	assert.Len(t, p.Bytes(), 16)

	p.PadTo(8) // already past 8, must not truncate
	assert.Len(t, p.Bytes(), 16)
}
