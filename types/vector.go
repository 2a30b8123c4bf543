package types

import (
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/math/f32"
)

// Vectors are stored as flat float32 arrays and are layout-compatible with
// the mgl32 vector types which provide most of the method implementations.
type Vec3 f32.Vec3
type Vec4 f32.Vec4

// Add two vectors.
func (v Vec3) Add(v2 Vec3) Vec3 {
	return Vec3(mgl32.Vec3(v).Add(mgl32.Vec3(v2)))
}

// Subtract v2 from v.
func (v Vec3) Sub(v2 Vec3) Vec3 {
	return Vec3(mgl32.Vec3(v).Sub(mgl32.Vec3(v2)))
}

// Scale the vector by s.
func (v Vec3) Mul(s float32) Vec3 {
	return Vec3(mgl32.Vec3(v).Mul(s))
}

// Component-wise vector product.
func (v Vec3) MulVec3(v2 Vec3) Vec3 {
	return Vec3{v[0] * v2[0], v[1] * v2[1], v[2] * v2[2]}
}

// Vector dot product.
func (v Vec3) Dot(v2 Vec3) float32 {
	return mgl32.Vec3(v).Dot(mgl32.Vec3(v2))
}

// Vector cross product.
func (v Vec3) Cross(v2 Vec3) Vec3 {
	return Vec3(mgl32.Vec3(v).Cross(mgl32.Vec3(v2)))
}

// Vector length.
func (v Vec3) Len() float32 {
	return mgl32.Vec3(v).Len()
}

// Scale the vector to unit length.
func (v Vec3) Normalize() Vec3 {
	return Vec3(mgl32.Vec3(v).Normalize())
}

// Expand to a Vec4 with the given w component.
func (v Vec3) Vec4(w float32) Vec4 {
	return Vec4(mgl32.Vec3(v).Vec4(w))
}

// Drop the w component.
func (v Vec4) Vec3() Vec3 {
	return Vec3(mgl32.Vec4(v).Vec3())
}

// Scale the vector by s.
func (v Vec4) Mul(s float32) Vec4 {
	return Vec4(mgl32.Vec4(v).Mul(s))
}

// Component-wise minimum of two vectors.
func MinVec3(v1, v2 Vec3) Vec3 {
	for axis, val := range v2 {
		if val < v1[axis] {
			v1[axis] = val
		}
	}
	return v1
}

// Component-wise maximum of two vectors.
func MaxVec3(v1, v2 Vec3) Vec3 {
	for axis, val := range v2 {
		if val > v1[axis] {
			v1[axis] = val
		}
	}
	return v1
}
