package vmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeInverse(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want float32
	}{
		{"zero", 0, 0},
		{"negative zero", float32(math.Copysign(0, -1)), 0},
		{"denormal", 1e-30, 0},
		{"one", 1, 1},
		{"two", 2, 0.5},
		{"negative", -4, -0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeInverse(tt.in))
		})
	}
}

func TestMatDecompose(t *testing.T) {
	m := Mat2{XX: 3, XY: 1, YX: -2, YY: 5}

	sph := m.Spherical()
	dev := m.Deviatoric()

	assert.InDelta(t, 4, sph.XX, 1e-6)
	assert.InDelta(t, 4, sph.YY, 1e-6)
	assert.InDelta(t, 0, dev.Trace(), 1e-6)
	assert.Equal(t, m, sph.Add(dev))

	sym := m.Symmetric()
	assert.Equal(t, sym.XY, sym.YX)
	assert.InDelta(t, -0.5, sym.XY, 1e-6)
}

func TestMatProducts(t *testing.T) {
	a := Mat2{XX: 1, XY: 2, YX: 3, YY: 4}
	b := Mat2{XX: 0, XY: 1, YX: 1, YY: 0}

	assert.Equal(t, Mat2{XX: 2, XY: 1, YX: 4, YY: 3}, a.Mul(b))
	assert.Equal(t, a, a.Mul(Identity()))
	assert.Equal(t, V2(5, 11), a.MulVec(V2(1, 2)))
	assert.Equal(t, Mat2{XX: 1, XY: 3, YX: 2, YY: 4}, a.Transpose())
	assert.InDelta(t, -2, a.Det(), 1e-6)
	assert.Equal(t, Mat2{XX: 3, XY: 4, YX: 6, YY: 8}, V2(1, 2).Outer(V2(3, 4)))
}

func TestConditionNumber(t *testing.T) {
	assert.InDelta(t, 2, Identity().ConditionNumber(), 1e-6)
	assert.True(t, math.IsInf(float64(Mat2{}.ConditionNumber()), 1))
	assert.True(t, math.IsInf(float64(Mat2{XY: 1}.ConditionNumber()), 1))
	assert.InDelta(t, 2.0/0.5, Diag(0.5).ConditionNumber(), 1e-4)
}

func TestFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	assert.True(t, V2(1, 2).IsFinite())
	assert.False(t, V2(nan, 0).IsFinite())
	assert.False(t, V2(0, inf).IsFinite())
	assert.True(t, Identity().IsFinite())
	assert.False(t, Mat2{YX: nan}.IsFinite())
}
