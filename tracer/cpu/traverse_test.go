package cpu

import (
	"testing"

	"github.com/mpoboas/cosig-raytracing/scene"
	"github.com/mpoboas/cosig-raytracing/scene/compiler"
	"github.com/mpoboas/cosig-raytracing/scene/input"
	"github.com/mpoboas/cosig-raytracing/types"
)

func TestTraversalEmptyScene(t *testing.T) {
	sc := compileScene(t, func(rawScene *input.Scene) {})

	r := newRay(types.Vec3{0, 0, 5}, types.Vec3{0, 0, -1})
	var hit hitRecord
	if intersectScene(sc, &r, &hit) {
		t.Fatal("expected an empty scene to miss every ray")
	}
	if sceneOccluded(sc, &r) {
		t.Fatal("expected an empty scene to never occlude")
	}
}

func TestTraversalClosestHit(t *testing.T) {
	// Two spheres on the z axis; traversal must keep the globally closest
	// hit regardless of leaf visitation order.
	sc := compileScene(t, func(rawScene *input.Scene) {
		rawScene.Transforms = append(rawScene.Transforms,
			translation(types.Vec3{0, 0, -3}),
			translation(types.Vec3{0, 0, -8}),
		)
		rawScene.Materials = append(rawScene.Materials, testMaterial())
		rawScene.Primitives = append(rawScene.Primitives,
			input.NewSphere(0, 0),
			input.NewSphere(1, 0),
		)
	})

	r := newRay(types.Vec3{0, 0, 5}, types.Vec3{0, 0, -1})
	var hit hitRecord
	if !intersectScene(sc, &r, &hit) {
		t.Fatal("expected ray to hit the front sphere")
	}
	if !f32Close(hit.t, 7.0, 1e-2) {
		t.Fatalf("expected closest hit at t=7 (front sphere); got %f", hit.t)
	}

	// From the other side the rear sphere is closest
	rBack := newRay(types.Vec3{0, 0, -15}, types.Vec3{0, 0, 1})
	if !intersectScene(sc, &rBack, &hit) {
		t.Fatal("expected reversed ray to hit the rear sphere")
	}
	if !f32Close(hit.t, 6.0, 1e-2) {
		t.Fatalf("expected closest hit at t=6 (rear sphere); got %f", hit.t)
	}
}

func TestTraversalWatertightSharedEdge(t *testing.T) {
	// Two triangles forming a quad. A ray through the shared diagonal must
	// produce a single hit record with no gap.
	sc := compileScene(t, func(rawScene *input.Scene) {
		rawScene.Transforms = append(rawScene.Transforms, &input.Transform{})
		rawScene.Materials = append(rawScene.Materials, testMaterial())

		mesh := input.NewMesh(0, 0)
		mesh.AddTriangle(types.Vec3{0, 0, 0}, types.Vec3{1, 0, 0}, types.Vec3{1, 1, 0})
		mesh.AddTriangle(types.Vec3{0, 0, 0}, types.Vec3{1, 1, 0}, types.Vec3{0, 1, 0})
		rawScene.Primitives = append(rawScene.Primitives, mesh)
	})

	type spec struct {
		origin types.Vec3
	}
	specs := []spec{
		// Directly on the shared diagonal
		{types.Vec3{0.5, 0.5, 1}},
		// Nudged to either side of it
		{types.Vec3{0.5 + 1e-4, 0.5 - 1e-4, 1}},
		{types.Vec3{0.5 - 1e-4, 0.5 + 1e-4, 1}},
	}
	for index, s := range specs {
		r := newRay(s.origin, types.Vec3{0, 0, -1})
		var hit hitRecord
		if !intersectScene(sc, &r, &hit) {
			t.Fatalf("[spec %d] expected ray near the shared edge to hit the quad", index)
		}
		if !f32Close(hit.t, 1.0, 1e-4) {
			t.Fatalf("[spec %d] expected hit at t=1; got %f", index, hit.t)
		}
	}
}

func TestSceneOcclusion(t *testing.T) {
	// A unit box centered at (0, 0, 2) sits between the origin and a light
	// at (0, 0, 5).
	sc := compileScene(t, func(rawScene *input.Scene) {
		rawScene.Transforms = append(rawScene.Transforms, translation(types.Vec3{0, 0, 2}))
		rawScene.Materials = append(rawScene.Materials, testMaterial())
		rawScene.Primitives = append(rawScene.Primitives, input.NewBox(0, 0))
	})

	type spec struct {
		dir         types.Vec3
		maxDist     float32
		expOccluded bool
	}
	specs := []spec{
		// Shadow ray towards the light passes through the box
		{types.Vec3{0, 0, 1}, 5.0, true},
		// Interval ends before the box
		{types.Vec3{0, 0, 1}, 1.2, false},
		// Direction that clears the box
		{types.Vec3{0, 1, 0}, 5.0, false},
	}
	for index, s := range specs {
		r := newRay(types.Vec3{0, 0, 0}, s.dir)
		r.tMin = shadowBias
		r.tMax = s.maxDist
		if got := sceneOccluded(sc, &r); got != s.expOccluded {
			t.Fatalf("[spec %d] expected occlusion test to return %t; got %t", index, s.expOccluded, got)
		}
	}
}

// Compile an input scene assembled by the build callback.
func compileScene(t *testing.T, build func(*input.Scene)) *scene.Scene {
	t.Helper()

	rawScene := input.NewScene()
	build(rawScene)
	sc, err := compiler.Compile(rawScene, compiler.Options{})
	if err != nil {
		t.Fatalf("scene compilation failed: %v", err)
	}
	return sc
}

func translation(offset types.Vec3) *input.Transform {
	return &input.Transform{
		Ops: []input.TransformOp{{Type: input.Translate, Args: offset}},
	}
}

func testMaterial() *input.Material {
	return &input.Material{
		Color:   types.Vec3{1, 1, 1},
		Ambient: 0.1,
		Diffuse: 0.7,
		IOR:     1.0,
	}
}
