package cpu

import (
	"math/rand"

	"github.com/mpoboas/cosig-raytracing/scene"
	"github.com/mpoboas/cosig-raytracing/types"
)

// Generates primary rays for a frame by bilinearly interpolating the
// camera frustum corner entries. For perspective cameras the corners hold
// eye-relative ray directions; for orthographic cameras they hold ray
// origins on the projection plane and all rays share the view direction.
type sampler struct {
	corners [4]types.Vec3
	eye     types.Vec3
	forward types.Vec3
	ortho   bool

	frameW uint32
	frameH uint32

	// Stratified grid side; a side of 1 samples pixel centers without
	// jitter.
	gridSide uint32

	// Per-sample eye jitter amplitude for motion blur.
	shutterSpeed float32
}

func newSampler(camera *scene.Camera, frameW, frameH, gridSide uint32, shutterSpeed float32) *sampler {
	if gridSide == 0 {
		gridSide = 1
	}

	s := &sampler{
		eye:          camera.Position,
		forward:      camera.Forward(),
		ortho:        camera.Orthographic,
		frameW:       frameW,
		frameH:       frameH,
		gridSide:     gridSide,
		shutterSpeed: shutterSpeed,
	}
	for index, corner := range camera.Frustrum {
		s.corners[index] = corner.Vec3()
	}
	return s
}

// Generate the primary ray for stratum (sx, sy) of pixel (x, y). Each
// stratum is jittered independently within its grid cell; motion blur
// draws a separate jitter for the ray origin so the two effects stay
// uncorrelated.
func (s *sampler) primaryRay(x, y, sx, sy uint32, rng *rand.Rand) ray {
	jitterX, jitterY := float32(0.5), float32(0.5)
	if s.gridSide > 1 {
		cellSize := 1.0 / float32(s.gridSide)
		jitterX = (float32(sx) + rng.Float32()) * cellSize
		jitterY = (float32(sy) + rng.Float32()) * cellSize
	}

	u := (float32(x) + jitterX) / float32(s.frameW)
	v := (float32(y) + jitterY) / float32(s.frameH)

	// Scanline order matches the frustum corner order (tl, tr, bl, br).
	top := lerpVec3(s.corners[0], s.corners[1], u)
	bottom := lerpVec3(s.corners[2], s.corners[3], u)
	target := lerpVec3(top, bottom, v)

	var origin, dir types.Vec3
	if s.ortho {
		origin = target
		dir = s.forward
	} else {
		origin = s.eye
		dir = target.Normalize()
	}

	if s.shutterSpeed > 0 {
		jitter := types.Vec3{
			rng.Float32() - 0.5,
			rng.Float32() - 0.5,
			rng.Float32() - 0.5,
		}
		origin = origin.Add(jitter.Mul(s.shutterSpeed))
	}

	return newRay(origin, dir)
}

func lerpVec3(from, to types.Vec3, d float32) types.Vec3 {
	return from.Add(to.Sub(from).Mul(d))
}

// Uniform sample inside the unit sphere via rejection.
func randInSphere(rng *rand.Rand) types.Vec3 {
	for {
		v := types.Vec3{
			rng.Float32()*2.0 - 1.0,
			rng.Float32()*2.0 - 1.0,
			rng.Float32()*2.0 - 1.0,
		}
		if v.Dot(v) <= 1.0 {
			return v
		}
	}
}
