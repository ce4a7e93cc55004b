// Package math3 provides the minimal 3D linear algebra used by the runtime:
// a column-major 4x4 matrix and a 3-component vector. Conventions follow
// OpenGL (column-major storage, column-vector multiplication).
package math3

import "math"

// Matrix is a 4x4 transform stored column-major:
//
//	+-          -+
//	| 0  4  8 12 |
//	| 1  5  9 13 |
//	| 2  6 10 14 |
//	| 3  7 11 15 |
//	+-          -+
//
// Translation lives in elements 12, 13, 14.
type Matrix [16]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns m * o. With column vectors this applies o first, then m:
// a parent's world matrix times a child's local matrix yields the child's
// world matrix.
func (m Matrix) Mul(o Matrix) Matrix {
	var r Matrix
	for c := 0; c < 4; c++ {
		for row := 0; row < 4; row++ {
			r[c*4+row] = m[row]*o[c*4] + m[4+row]*o[c*4+1] + m[8+row]*o[c*4+2] + m[12+row]*o[c*4+3]
		}
	}
	return r
}

// Compose builds a local transform from position, Euler rotation (radians),
// and scale. Rotation is applied about X, then Y, then Z, so the result is
// T * Rz * Ry * Rx * S.
func Compose(position, rotation, scale Vec3) Matrix {
	sx, cx := math.Sincos(rotation.X)
	sy, cy := math.Sincos(rotation.Y)
	sz, cz := math.Sincos(rotation.Z)

	// Rz * Ry * Rx, expanded.
	r00 := cz * cy
	r01 := cz*sy*sx - sz*cx
	r02 := cz*sy*cx + sz*sx
	r10 := sz * cy
	r11 := sz*sy*sx + cz*cx
	r12 := sz*sy*cx - cz*sx
	r20 := -sy
	r21 := cy * sx
	r22 := cy * cx

	return Matrix{
		r00 * scale.X, r10 * scale.X, r20 * scale.X, 0,
		r01 * scale.Y, r11 * scale.Y, r21 * scale.Y, 0,
		r02 * scale.Z, r12 * scale.Z, r22 * scale.Z, 0,
		position.X, position.Y, position.Z, 1,
	}
}

// Transform applies m to the point v (w = 1).
func (m Matrix) Transform(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12],
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13],
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14],
	}
}

// Position returns the translation column.
func (m Matrix) Position() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// Near reports whether every element of m is within eps of the corresponding
// element of o.
func (m Matrix) Near(o Matrix, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > eps {
			return false
		}
	}
	return true
}
