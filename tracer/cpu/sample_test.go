package cpu

import (
	"math/rand"
	"testing"

	"github.com/mpoboas/cosig-raytracing/scene"
	"github.com/mpoboas/cosig-raytracing/types"
)

func testCamera(ortho bool) *scene.Camera {
	camera := scene.NewCamera(60)
	camera.Position = types.Vec3{0, 0, 10}
	camera.LookAt = types.Vec3{0, 0, 9}
	camera.Up = types.Vec3{0, 1, 0}
	camera.Orthographic = ortho
	camera.SetupProjection(1.0)
	return camera
}

func TestSamplerPerspectiveRays(t *testing.T) {
	camera := testCamera(false)
	s := newSampler(camera, 64, 64, 1, 0)
	rng := rand.New(rand.NewSource(1))

	// All primary rays leave the eye position with unit directions
	center := s.primaryRay(32, 32, 0, 0, rng)
	if !v3Close(center.origin, camera.Position, 1e-5) {
		t.Fatalf("expected ray origin at the eye; got %v", center.origin)
	}
	if !f32Close(center.dir.Len(), 1.0, 1e-4) {
		t.Fatalf("expected unit ray direction; got length %f", center.dir.Len())
	}
	if center.dir.Dot(camera.Forward()) < 0.999 {
		t.Fatalf("expected center ray along the view direction; got %v", center.dir)
	}

	// Scanline order: pixel (0, 0) is the top-left corner
	topLeft := s.primaryRay(0, 0, 0, 0, rng)
	if topLeft.dir[0] >= 0 || topLeft.dir[1] <= 0 || topLeft.dir[2] >= 0 {
		t.Fatalf("expected top-left ray to point up-left into the scene; got %v", topLeft.dir)
	}

	bottomRight := s.primaryRay(63, 63, 0, 0, rng)
	if bottomRight.dir[0] <= 0 || bottomRight.dir[1] >= 0 {
		t.Fatalf("expected bottom-right ray to point down-right; got %v", bottomRight.dir)
	}

	// The top edge ray spread matches the configured vertical fov
	topCenter := s.primaryRay(32, 0, 0, 0, rng)
	if dot := topCenter.dir.Dot(camera.Forward()); dot < 0.85 || dot > 0.88 {
		t.Fatalf("expected the top edge ray roughly 30 degrees off axis; got cos=%f", dot)
	}
}

func TestSamplerOrthographicRays(t *testing.T) {
	camera := testCamera(true)
	s := newSampler(camera, 64, 64, 1, 0)
	rng := rand.New(rand.NewSource(1))

	forward := camera.Forward()
	topLeft := s.primaryRay(0, 0, 0, 0, rng)
	bottomRight := s.primaryRay(63, 63, 0, 0, rng)

	// Orthographic rays share the view direction and vary their origin
	// over the projection plane
	if !v3Close(topLeft.dir, forward, 1e-4) || !v3Close(bottomRight.dir, forward, 1e-4) {
		t.Fatalf("expected all ortho rays along %v; got %v and %v", forward, topLeft.dir, bottomRight.dir)
	}
	if topLeft.origin[0] >= 0 || topLeft.origin[1] <= 0 {
		t.Fatalf("expected top-left ortho origin up-left of the axis; got %v", topLeft.origin)
	}
	if bottomRight.origin[0] <= 0 || bottomRight.origin[1] >= 0 {
		t.Fatalf("expected bottom-right ortho origin down-right of the axis; got %v", bottomRight.origin)
	}
	if !f32Close(topLeft.origin[2], 9.0, 1e-3) {
		t.Fatalf("expected ortho origins on the near plane at z=9; got %v", topLeft.origin)
	}
}

func TestSamplerStratification(t *testing.T) {
	camera := testCamera(false)
	s := newSampler(camera, 8, 8, 2, 0)
	rng := rand.New(rand.NewSource(7))

	// Strata jitter stays inside its grid cell, so the relative ordering
	// of the per-stratum directions is deterministic: larger sx moves the
	// ray right, larger sy moves it down.
	r00 := s.primaryRay(4, 4, 0, 0, rng)
	r10 := s.primaryRay(4, 4, 1, 0, rng)
	r01 := s.primaryRay(4, 4, 0, 1, rng)

	if r00.dir[0] >= r10.dir[0] {
		t.Fatalf("expected stratum sx=1 to lie right of sx=0; got x %f vs %f", r00.dir[0], r10.dir[0])
	}
	if r00.dir[1] <= r01.dir[1] {
		t.Fatalf("expected stratum sy=1 to lie below sy=0; got y %f vs %f", r00.dir[1], r01.dir[1])
	}
}

func TestSamplerMotionBlur(t *testing.T) {
	camera := testCamera(false)

	// A zero shutter speed pins every origin to the eye
	static := newSampler(camera, 8, 8, 1, 0)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 8; i++ {
		r := static.primaryRay(4, 4, 0, 0, rng)
		if !v3Close(r.origin, camera.Position, 1e-6) {
			t.Fatalf("expected static origin at the eye; got %v", r.origin)
		}
	}

	// With motion blur the origin jitters inside a box scaled by the
	// shutter speed
	const shutterSpeed = 0.5
	blurred := newSampler(camera, 8, 8, 1, shutterSpeed)
	jittered := 0
	for i := 0; i < 16; i++ {
		r := blurred.primaryRay(4, 4, 0, 0, rng)
		offset := r.origin.Sub(camera.Position)
		if offset.Len() > shutterSpeed {
			t.Fatalf("expected origin jitter bounded by the shutter speed; got %v", offset)
		}
		if offset.Len() > 1e-5 {
			jittered++
		}
	}
	if jittered == 0 {
		t.Fatal("expected motion blur to displace ray origins")
	}
}
