package frame

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestGroundGridScaleAtOrigin(t *testing.T) {
	// |position| = 0, so ratio clamps to 1, exp = 0, scale = 1.
	assert.InDelta(t, 1.0, GroundGridScale(mgl32.Vec3{0, 0, 0}), 1e-6)
}

func TestGroundGridScaleWithinFirstBand(t *testing.T) {
	// distance 50 -> ratio 1 -> scale 1, same as origin.
	assert.InDelta(t, 1.0, GroundGridScale(mgl32.Vec3{50, 0, 0}), 1e-6)
}

func TestGroundGridScaleHalvesAtEachDoubling(t *testing.T) {
	// distance 100 -> ratio 2 -> ceil(log2(2))=1 -> scale 0.5
	assert.InDelta(t, 0.5, GroundGridScale(mgl32.Vec3{100, 0, 0}), 1e-6)
	// distance 200 -> ratio 4 -> ceil(log2(4))=2 -> scale 0.25
	assert.InDelta(t, 0.25, GroundGridScale(mgl32.Vec3{200, 0, 0}), 1e-6)
}

func TestGroundGridScaleNeverExceedsOne(t *testing.T) {
	for _, d := range []float32{0, 10, 49, 50, 51, 1000} {
		assert.LessOrEqual(t, GroundGridScale(mgl32.Vec3{d, 0, 0}), float32(1.0))
	}
}
