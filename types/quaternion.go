package types

import "github.com/go-gl/mathgl/mgl32"

// Unit quaternions represent rotations. As with the matrix types, mgl32
// provides the implementations.
type Quat mgl32.Quat

// Create a rotation of angle radians about a unit axis vector.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	return Quat(mgl32.QuatRotate(angle, mgl32.Vec3(axis)))
}

// Compose two rotations. Quaternion multiplication is not commutative;
// q.Mul(q2) applies q2 first.
func (q Quat) Mul(q2 Quat) Quat {
	return Quat(mgl32.Quat(q).Mul(mgl32.Quat(q2)))
}

// Normalize the quaternion to a unit rotation.
func (q Quat) Normalize() Quat {
	return Quat(mgl32.Quat(q).Normalize())
}

// Rotate a vector by the rotation the quaternion represents.
func (q Quat) Rotate(v Vec3) Vec3 {
	return Vec3(mgl32.Quat(q).Rotate(mgl32.Vec3(v)))
}
