package types

import (
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/math/f32"
)

// Matrices are stored in column-major order and are layout-compatible with
// the mgl32 matrix types which provide the actual implementations.
type Mat4 f32.Mat4

// Create an identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Create a translation matrix.
func Translate4(v Vec3) Mat4 {
	return Mat4(mgl32.Translate3D(v[0], v[1], v[2]))
}

// Create a scale matrix.
func Scale4(v Vec3) Mat4 {
	return Mat4(mgl32.Scale3D(v[0], v[1], v[2]))
}

// Create a rotation matrix of angle radians about axis.
func Rotate4(angle float32, axis Vec3) Mat4 {
	return Mat4(mgl32.HomogRotate3D(angle, mgl32.Vec3(axis).Normalize()))
}

// Create a perspective projection matrix. The fov parameter specifies the
// vertical field of view in degrees.
func Perspective4(fov, aspect, near, far float32) Mat4 {
	return Mat4(mgl32.Perspective(mgl32.DegToRad(fov), aspect, near, far))
}

// Create an orthographic projection matrix.
func Ortho4(left, right, bottom, top, near, far float32) Mat4 {
	return Mat4(mgl32.Ortho(left, right, bottom, top, near, far))
}

// Create a view matrix for an eye at position looking at center.
func LookAtV(eye, center, up Vec3) Mat4 {
	return Mat4(mgl32.LookAtV(mgl32.Vec3(eye), mgl32.Vec3(center), mgl32.Vec3(up)))
}

// Multiply two matrices.
func (m Mat4) Mul4(rhs Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(rhs)))
}

// Multiply matrix with a column vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

// Invert the matrix. Returns the zero matrix if m is not invertible.
func (m Mat4) Inv() Mat4 {
	return Mat4(mgl32.Mat4(m).Inv())
}

// Transpose the matrix.
func (m Mat4) Transpose() Mat4 {
	return Mat4(mgl32.Mat4(m).Transpose())
}

// Transform a point by the matrix applying the perspective divide.
func (m Mat4) MulCoord(v Vec3) Vec3 {
	return Vec3(mgl32.TransformCoordinate(mgl32.Vec3(v), mgl32.Mat4(m)))
}

// Transform a direction by the upper 3x3 part of the matrix. To transform
// surface normals m should be the inverse-transpose of the object matrix.
func (m Mat4) MulDir(v Vec3) Vec3 {
	return Vec3(mgl32.TransformNormal(mgl32.Vec3(v), mgl32.Mat4(m)))
}
