package kinematic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector_Normalize(t *testing.T) {
	tests := []struct {
		name string
		v    Vector
		want Vector
	}{
		{name: "zero", v: Vector{}, want: Vector{}},
		{name: "axis", v: Vector{X: 0, Y: -1}, want: Vector{X: 0, Y: -1}},
		{name: "diagonal", v: Vector{X: 1, Y: 1}, want: Vector{X: 1 / math.Sqrt2, Y: 1 / math.Sqrt2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Normalize()
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
		})
	}
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 5.0, Distance(Vector{X: 0, Y: 0}, Vector{X: 3, Y: 4}))
	assert.Equal(t, 0.0, Distance(Vector{X: 2, Y: 2}, Vector{X: 2, Y: 2}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-5, 0, 10))
	assert.Equal(t, 10.0, Clamp(15, 0, 10))
	assert.Equal(t, 7.5, Clamp(7.5, 0, 10))
}
