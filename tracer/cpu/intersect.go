package cpu

import (
	"math"

	"github.com/mpoboas/cosig-raytracing/scene"
	"github.com/mpoboas/cosig-raytracing/types"
)

const (
	// Reject triangle hits closer than this to keep secondary rays from
	// re-intersecting the surface that spawned them.
	minTriangleDist = 1e-4

	// Smallest accepted object-space root for the analytic sphere/box tests.
	minAnalyticDist = 1e-3

	// Near-parallel determinant cutoff for the triangle test.
	detEpsilon = 1e-7

	// Barycentric bounds are widened by this amount so that rays passing
	// through a shared edge always hit one of the adjacent triangles.
	baryEpsilon = 1e-5
)

// A ray with a precomputed inverse direction for slab tests. Hits are only
// accepted inside the (tMin, tMax] interval; tMax shrinks as closer hits
// are found.
type ray struct {
	origin types.Vec3
	dir    types.Vec3
	invDir types.Vec3
	tMin   float32
	tMax   float32
}

// Create a ray with an open-ended hit interval. Zero direction components
// yield infinite inverse components which the slab test handles via IEEE
// arithmetic.
func newRay(origin, dir types.Vec3) ray {
	return ray{
		origin: origin,
		dir:    dir,
		invDir: types.Vec3{1.0 / dir[0], 1.0 / dir[1], 1.0 / dir[2]},
		tMax:   math.MaxFloat32,
	}
}

// The closest hit found while traversing the scene.
type hitRecord struct {
	t        float32
	position types.Vec3
	normal   types.Vec3
	matIndex int32
}

// Test a ray against an axis aligned bounding box. The comparisons pick the
// near/far slab per axis from the inverse direction sign, so a box with
// inverted bounds (min > max) rejects every ray; the builder emits such a
// node for empty scenes.
func rayIntersectBox(r *ray, min, max types.Vec3) bool {
	tNear, tFar := r.tMin, r.tMax
	for axis := 0; axis < 3; axis++ {
		var t0, t1 float32
		if r.invDir[axis] >= 0 {
			t0 = (min[axis] - r.origin[axis]) * r.invDir[axis]
			t1 = (max[axis] - r.origin[axis]) * r.invDir[axis]
		} else {
			t0 = (max[axis] - r.origin[axis]) * r.invDir[axis]
			t1 = (min[axis] - r.origin[axis]) * r.invDir[axis]
		}

		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
		if tFar < tNear {
			return false
		}
	}
	return true
}

// Moeller-Trumbore ray/triangle test with interpolated shading normals.
// Back faces are not culled; refracted rays exit surfaces from behind.
// Degenerate (zero-area) triangles always fail the determinant check.
func intersectTriangle(surf *scene.Surface, r *ray, hit *hitRecord) bool {
	edge1 := surf.V[1].Sub(surf.V[0])
	edge2 := surf.V[2].Sub(surf.V[0])

	pVec := r.dir.Cross(edge2)
	det := edge1.Dot(pVec)
	if det > -detEpsilon && det < detEpsilon {
		return false
	}

	invDet := 1.0 / det
	tVec := r.origin.Sub(surf.V[0])
	beta := tVec.Dot(pVec) * invDet
	if beta < -baryEpsilon || beta > 1.0+baryEpsilon {
		return false
	}

	qVec := tVec.Cross(edge1)
	gamma := r.dir.Dot(qVec) * invDet
	if gamma < -baryEpsilon || gamma > 1.0-beta+baryEpsilon {
		return false
	}

	t := edge2.Dot(qVec) * invDet
	if t < minTriangleDist || t < r.tMin || t > r.tMax {
		return false
	}

	r.tMax = t
	hit.t = t
	hit.position = r.origin.Add(r.dir.Mul(t))
	hit.normal = surf.N[0].Mul(1.0 - beta - gamma).
		Add(surf.N[1].Mul(beta)).
		Add(surf.N[2].Mul(gamma)).
		Normalize()
	hit.matIndex = surf.MatIndex
	return true
}

// Test a ray against a unit sphere at the object space origin. The ray is
// mapped into object space where the quadratic |O + tD|^2 = 1 is solved;
// the hit distance is then recomputed in world space so that depth
// ordering stays correct under non-uniform scaling.
func intersectSphere(surf *scene.Surface, xf *scene.SurfaceTransform, r *ray, hit *hitRecord) bool {
	objOrigin := xf.ToObject.MulCoord(r.origin)
	objDir := xf.ToObject.MulDir(r.dir)

	a := objDir.Dot(objDir)
	b := 2.0 * objOrigin.Dot(objDir)
	c := objOrigin.Dot(objOrigin) - 1.0

	disc := b*b - 4.0*a*c
	if disc < 0 {
		return false
	}

	discSqrt := sqrt32(disc)
	t := (-b - discSqrt) / (2.0 * a)
	if t < minAnalyticDist {
		t = (-b + discSqrt) / (2.0 * a)
	}
	if t < minAnalyticDist {
		return false
	}

	objPos := objOrigin.Add(objDir.Mul(t))
	worldPos := xf.ToWorld.MulCoord(objPos)
	worldT := worldPos.Sub(r.origin).Len()
	if worldT < r.tMin || worldT > r.tMax {
		return false
	}

	r.tMax = worldT
	hit.t = worldT
	hit.position = worldPos
	hit.normal = xf.NormalMat.MulDir(objPos).Normalize()
	hit.matIndex = surf.MatIndex
	return true
}

// Test a ray against a unit cube spanning [-0.5, 0.5] on each object space
// axis. The slab scan tracks which axis clipped the near and far distance
// so the face normal can be recovered without a separate lookup; rays
// starting inside the cube report the exit face.
func intersectCube(surf *scene.Surface, xf *scene.SurfaceTransform, r *ray, hit *hitRecord) bool {
	objOrigin := xf.ToObject.MulCoord(r.origin)
	objDir := xf.ToObject.MulDir(r.dir)

	tNear := float32(math.Inf(-1))
	tFar := float32(math.Inf(1))
	nearAxis, farAxis := -1, -1
	for axis := 0; axis < 3; axis++ {
		invD := 1.0 / objDir[axis]
		t0 := (-0.5 - objOrigin[axis]) * invD
		t1 := (0.5 - objOrigin[axis]) * invD
		if invD < 0 {
			t0, t1 = t1, t0
		}

		if t0 > tNear {
			tNear = t0
			nearAxis = axis
		}
		if t1 < tFar {
			tFar = t1
			farAxis = axis
		}
		if tFar < tNear {
			return false
		}
	}

	t, faceAxis, exitFace := tNear, nearAxis, false
	if t < minAnalyticDist {
		t, faceAxis, exitFace = tFar, farAxis, true
	}
	if t < minAnalyticDist || faceAxis == -1 {
		return false
	}

	// The outward normal of the clipped face opposes the ray on entry
	// faces and follows it on exit faces.
	var objNormal types.Vec3
	if (objDir[faceAxis] > 0) == exitFace {
		objNormal[faceAxis] = 1.0
	} else {
		objNormal[faceAxis] = -1.0
	}

	objPos := objOrigin.Add(objDir.Mul(t))
	worldPos := xf.ToWorld.MulCoord(objPos)
	worldT := worldPos.Sub(r.origin).Len()
	if worldT < r.tMin || worldT > r.tMax {
		return false
	}

	r.tMax = worldT
	hit.t = worldT
	hit.position = worldPos
	hit.normal = xf.NormalMat.MulDir(objNormal).Normalize()
	hit.matIndex = surf.MatIndex
	return true
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
