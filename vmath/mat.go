package vmath

import "math"

// Mat2 is a row-major 2x2 matrix.
type Mat2 struct {
	XX, XY float32
	YX, YY float32
}

// Identity returns the 2x2 identity matrix.
func Identity() Mat2 {
	return Mat2{XX: 1, YY: 1}
}

// Diag returns a matrix with s on the diagonal.
func Diag(s float32) Mat2 {
	return Mat2{XX: s, YY: s}
}

func (m Mat2) Add(n Mat2) Mat2 {
	return Mat2{m.XX + n.XX, m.XY + n.XY, m.YX + n.YX, m.YY + n.YY}
}

func (m Mat2) Sub(n Mat2) Mat2 {
	return Mat2{m.XX - n.XX, m.XY - n.XY, m.YX - n.YX, m.YY - n.YY}
}

func (m Mat2) Scale(s float32) Mat2 {
	return Mat2{m.XX * s, m.XY * s, m.YX * s, m.YY * s}
}

// Mul returns the matrix product m·n.
func (m Mat2) Mul(n Mat2) Mat2 {
	return Mat2{
		XX: m.XX*n.XX + m.XY*n.YX,
		XY: m.XX*n.XY + m.XY*n.YY,
		YX: m.YX*n.XX + m.YY*n.YX,
		YY: m.YX*n.XY + m.YY*n.YY,
	}
}

// MulVec returns m·v.
func (m Mat2) MulVec(v Vec2) Vec2 {
	return Vec2{m.XX*v.X + m.XY*v.Y, m.YX*v.X + m.YY*v.Y}
}

func (m Mat2) Transpose() Mat2 {
	return Mat2{XX: m.XX, XY: m.YX, YX: m.XY, YY: m.YY}
}

func (m Mat2) Trace() float32 {
	return m.XX + m.YY
}

func (m Mat2) Det() float32 {
	return m.XX*m.YY - m.XY*m.YX
}

// Symmetric returns (m + mᵀ)/2.
func (m Mat2) Symmetric() Mat2 {
	off := 0.5 * (m.XY + m.YX)
	return Mat2{XX: m.XX, XY: off, YX: off, YY: m.YY}
}

// Spherical returns the isotropic part tr(m)/2 · I.
func (m Mat2) Spherical() Mat2 {
	return Diag(0.5 * m.Trace())
}

// Deviatoric returns the trace-free part m - tr(m)/2 · I.
func (m Mat2) Deviatoric() Mat2 {
	return m.Sub(m.Spherical())
}

// Frobenius returns the Frobenius norm.
func (m Mat2) Frobenius() float32 {
	s := m.XX*m.XX + m.XY*m.XY + m.YX*m.YX + m.YY*m.YY
	return float32(math.Sqrt(float64(s)))
}

// IsFinite reports whether every entry is finite.
func (m Mat2) IsFinite() bool {
	return IsFinite(m.XX) && IsFinite(m.XY) && IsFinite(m.YX) && IsFinite(m.YY)
}

// ConditionNumber returns |tr m| / |det m|, or +Inf when |det m| <= 1e-12.
// This is the cheap blow-up indicator used by the particle health check,
// not the spectral condition number.
func (m Mat2) ConditionNumber() float32 {
	det := absf(m.Det())
	if det <= 1e-12 {
		return float32(math.Inf(1))
	}
	return absf(m.Trace()) / det
}
