package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinIndexKnownSizes(t *testing.T) {
	for i, s := range PatchSizes {
		assert.Equal(t, i, BinIndex(s))
	}
}

func TestBinIndexUnknownSize(t *testing.T) {
	assert.Equal(t, -1, BinIndex(3))
	assert.Equal(t, -1, BinIndex(0))
}

func TestDefaultTuningValidates(t *testing.T) {
	assert.NoError(t, DefaultTuning().Validate())
}

func TestTuningValidateRange(t *testing.T) {
	cases := []struct {
		name    string
		factor  float32
		wantErr bool
	}{
		{"below min", ThresholdFactorMin / 2, true},
		{"at min", ThresholdFactorMin, false},
		{"at max", ThresholdFactorMax, false},
		{"above max", ThresholdFactorMax * 2, true},
		{"default", ThresholdFactorDefault, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Tuning{ThresholdFactor: c.factor}.Validate()
			if c.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
