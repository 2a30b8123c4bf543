package scene

import (
	"fmt"
	"math"

	"github.com/mpoboas/cosig-raytracing/types"
)

// Stores the ray directions (perspective) or ray origins (orthographic) at
// the four corners of the camera frustum. It is used as a shortcut for
// generating per pixel rays via bilinear interpolation of the corner
// entries. While we don't care about the W coordinate we use Vec4 to keep
// the layout aligned for bulk copies.
type Frustrum [4]types.Vec4

func (fr Frustrum) String() string {
	return fmt.Sprintf(
		"Frustrum Rays:\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr[0][0], fr[0][1], fr[0][2],
		fr[1][0], fr[1][1], fr[1][2],
		fr[2][0], fr[2][1], fr[2][2],
		fr[3][0], fr[3][1], fr[3][2],
	)
}

// The camera type controls the scene camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	ViewMat  types.Mat4
	ProjMat  types.Mat4
	Frustrum Frustrum

	// Vertical field of view in degrees.
	FOV float32

	// Distance from the eye to the projection plane. It scales the
	// half-extent of orthographic projections; perspective ray
	// directions are independent of it.
	Distance float32

	// Project orthographically instead of perspectively.
	Orthographic bool
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		ViewMat:  types.Ident4(),
		ProjMat:  types.Ident4(),
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
		Distance: 1.0,
	}
}

// Setup camera projection matrix.
func (c *Camera) SetupProjection(aspect float32) {
	if c.Orthographic {
		halfH := c.Distance * float32(math.Tan(float64(radians(c.FOV))*0.5))
		halfW := halfH * aspect
		c.ProjMat = types.Ortho4(-halfW, halfW, -halfH, halfH, 1, 1000)
	} else {
		c.ProjMat = types.Perspective4(c.FOV, aspect, 1, 1000)
	}
	c.Update()
}

// Recompute the view matrix and frustum corners from the camera pose.
func (c *Camera) Update() {
	c.ViewMat = types.LookAtV(c.Position, c.LookAt, c.Up)
	c.updateFrustrum()
}

// Rotate the camera pose by the given per-axis Euler angles in degrees.
func (c *Camera) Rotate(angles types.Vec3) {
	qx := types.QuatFromAxisAngle(types.Vec3{1, 0, 0}, radians(angles[0]))
	qy := types.QuatFromAxisAngle(types.Vec3{0, 1, 0}, radians(angles[1]))
	qz := types.QuatFromAxisAngle(types.Vec3{0, 0, 1}, radians(angles[2]))
	q := qz.Mul(qy).Mul(qx).Normalize()

	dir := c.LookAt.Sub(c.Position)
	c.LookAt = c.Position.Add(q.Rotate(dir))
	c.Up = q.Rotate(c.Up).Normalize()
}

// The normalized view direction.
func (c *Camera) Forward() types.Vec3 {
	return c.LookAt.Sub(c.Position).Normalize()
}

func (c *Camera) InvViewProjMat() types.Mat4 {
	return c.ProjMat.Mul4(c.ViewMat).Inv()
}

// Generate the frustum corner entries by unprojecting the clip space
// corner vectors with the inverse view-projection matrix. For perspective
// projections each corner stores the ray direction from the eye; for
// orthographic projections it stores the ray origin on the near plane and
// all rays share the view forward direction.
func (c *Camera) updateFrustrum() {
	invProjViewMat := c.InvViewProjMat()

	corners := [4]types.Vec4{
		{-1, 1, -1, 1},
		{1, 1, -1, 1},
		{-1, -1, -1, 1},
		{1, -1, -1, 1},
	}

	for index, corner := range corners {
		v := invProjViewMat.Mul4x1(corner)
		pos := v.Mul(1.0 / v[3]).Vec3()
		if c.Orthographic {
			c.Frustrum[index] = pos.Vec4(0)
		} else {
			c.Frustrum[index] = pos.Sub(c.Position).Vec4(0)
		}
	}
}

func radians(deg float32) float32 {
	return deg * math.Pi / 180.0
}
