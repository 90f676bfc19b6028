// File: utils/vector_test.go
package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec2_BasicOps(t *testing.T) {
	a := Vec2{3, 4}
	b := Vec2{-1, 2}

	assert.Equal(t, Vec2{2, 6}, a.Add(b))
	assert.Equal(t, Vec2{4, 2}, a.Sub(b))
	assert.Equal(t, Vec2{6, 8}, a.Scale(2))
	assert.Equal(t, 5.0, a.Magnitude())
	assert.Equal(t, 25.0, a.SquaredMagnitude())
	assert.Equal(t, 5.0, a.Dot(b))
}

func TestVec2_Normalize(t *testing.T) {
	testCases := []struct {
		name string
		in   Vec2
		want Vec2
	}{
		{"unit x", Vec2{5, 0}, Vec2{1, 0}},
		{"diagonal", Vec2{3, 4}, Vec2{0.6, 0.8}},
		{"zero stays zero", Vec2{}, Vec2{}},
		{"below epsilon collapses", Vec2{1e-12, -1e-12}, Vec2{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			assert.InDelta(t, tc.want.X, got.X, 1e-12)
			assert.InDelta(t, tc.want.Y, got.Y, 1e-12)
		})
	}
}

func TestVec2_Reflect(t *testing.T) {
	v := Vec2{1, -1}
	// Reflect off a horizontal floor (normal pointing up).
	got := v.Reflect(Vec2{0, 1}, 0)
	assert.InDelta(t, 1.0, got.X, 1e-12)
	assert.InDelta(t, 1.0, got.Y, 1e-12)

	// 20% loss shrinks the whole vector.
	got = v.Reflect(Vec2{0, 1}, 0.2)
	assert.InDelta(t, 0.8, got.X, 1e-12)
	assert.InDelta(t, 0.8, got.Y, 1e-12)
}

func TestVec2_Lerp(t *testing.T) {
	v := Vec2{0, 0}
	target := Vec2{10, -10}

	assert.Equal(t, Vec2{5, -5}, v.Lerp(target, 0.5))
	assert.Equal(t, v, v.Lerp(target, 0))
	assert.Equal(t, target, v.Lerp(target, 1))
	// t beyond 1 clamps to the target instead of overshooting
	assert.Equal(t, target, v.Lerp(target, 2.5))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3, 0, 60))
	assert.Equal(t, 60.0, Clamp(99, 0, 60))
	assert.Equal(t, 33.0, Clamp(33, 0, 60))
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, math.Sqrt2, Distance(Vec2{0, 0}, Vec2{1, 1}), 1e-12)
}
