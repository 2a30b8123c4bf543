package compiler

import (
	"math"
	"time"

	"github.com/mpoboas/cosig-raytracing/scene"
	"github.com/mpoboas/cosig-raytracing/scene/input"
	"github.com/mpoboas/cosig-raytracing/types"
)

// Unit sphere tessellation density.
const (
	sphereLonSegments = 24
	sphereLatSegments = 16
)

// Unit cube faces with corners wound counter-clockwise for outward fronts.
var unitCubeFaces = [6]struct {
	corners [4]types.Vec3
	normal  types.Vec3
}{
	{[4]types.Vec3{{0.5, -0.5, 0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}}, types.Vec3{1, 0, 0}},
	{[4]types.Vec3{{-0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}}, types.Vec3{-1, 0, 0}},
	{[4]types.Vec3{{-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5}}, types.Vec3{0, 1, 0}},
	{[4]types.Vec3{{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}, {-0.5, -0.5, 0.5}}, types.Vec3{0, -1, 0}},
	{[4]types.Vec3{{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}}, types.Vec3{0, 0, 1}},
	{[4]types.Vec3{{0.5, -0.5, -0.5}, {-0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}}, types.Vec3{0, 0, -1}},
}

// Lower parsed primitives into the staged surface list. Spheres and boxes
// are tessellated into triangles unless analytic surface compilation is
// requested; meshes always lower to their transformed triangles.
func (sc *sceneCompiler) generateSurfaces() error {
	start := time.Now()
	sc.logger.Noticef("generating surfaces for %d primitives", len(sc.parsedScene.Primitives))
	if sc.opts.AnalyticSurfaces {
		sc.logger.Infof("compiling spheres and boxes as analytic surfaces")
	}

	sc.surfaces = make([]scene.Surface, 0)
	for _, prim := range sc.parsedScene.Primitives {
		xform := sc.parsedScene.TransformMatrix(prim.TransformIndex)
		matIndex := int32(prim.MaterialIndex)

		switch prim.Type {
		case input.SpherePrimitive:
			if sc.opts.AnalyticSurfaces {
				sc.addAnalyticSurface(scene.SphereSurface, xform, matIndex)
			} else {
				sc.tessellateSphere(xform, matIndex)
			}
		case input.BoxPrimitive:
			if sc.opts.AnalyticSurfaces {
				sc.addAnalyticSurface(scene.BoxSurface, xform, matIndex)
			} else {
				sc.tessellateBox(xform, matIndex)
			}
		case input.MeshPrimitive:
			sc.addMeshTriangles(prim, xform, matIndex)
		}
	}

	sc.logger.Noticef("generated %d surfaces in %d ms", len(sc.surfaces), time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Tessellate the unit sphere with a longitude/latitude grid. Vertex
// normals coincide with the pre-transform position on the unit sphere and
// are mapped to world space by the inverse-transpose of the transform so
// non-uniform scales keep them perpendicular to the surface.
func (sc *sceneCompiler) tessellateSphere(xform types.Mat4, matIndex int32) {
	normalMat := xform.Inv().Transpose()

	emit := func(a, b, c types.Vec3) {
		var wv, wn [3]types.Vec3
		for idx, v := range [3]types.Vec3{a, b, c} {
			wv[idx] = xform.MulCoord(v)
			wn[idx] = normalMat.MulDir(v).Normalize()
		}
		sc.addTriangle(wv, wn, matIndex)
	}

	for lat := 0; lat < sphereLatSegments; lat++ {
		theta0 := math.Pi * float64(lat) / sphereLatSegments
		theta1 := math.Pi * float64(lat+1) / sphereLatSegments
		for lon := 0; lon < sphereLonSegments; lon++ {
			phi0 := 2 * math.Pi * float64(lon) / sphereLonSegments
			phi1 := 2 * math.Pi * float64(lon+1) / sphereLonSegments

			p00 := unitSpherePoint(theta0, phi0)
			p10 := unitSpherePoint(theta1, phi0)
			p11 := unitSpherePoint(theta1, phi1)
			p01 := unitSpherePoint(theta0, phi1)

			// Each pole collapses one triangle of its quad into a
			// degenerate sliver; emit the surviving fan triangle only.
			if lat > 0 {
				emit(p00, p01, p11)
			}
			if lat < sphereLatSegments-1 {
				emit(p00, p11, p10)
			}
		}
	}
}

// Map spherical coordinates to a point on the unit sphere. Theta is the
// polar angle measured from the +Y pole, phi the azimuth around Y.
func unitSpherePoint(theta, phi float64) types.Vec3 {
	sinTheta := math.Sin(theta)
	return types.Vec3{
		float32(sinTheta * math.Cos(phi)),
		float32(math.Cos(theta)),
		float32(sinTheta * math.Sin(phi)),
	}
}

// Tessellate the unit cube into two triangles per face with flat per-face
// normals.
func (sc *sceneCompiler) tessellateBox(xform types.Mat4, matIndex int32) {
	normalMat := xform.Inv().Transpose()

	for _, face := range unitCubeFaces {
		var wc [4]types.Vec3
		for idx, corner := range face.corners {
			wc[idx] = xform.MulCoord(corner)
		}

		wn := normalMat.MulDir(face.normal).Normalize()
		normals := [3]types.Vec3{wn, wn, wn}
		sc.addTriangle([3]types.Vec3{wc[0], wc[1], wc[2]}, normals, matIndex)
		sc.addTriangle([3]types.Vec3{wc[0], wc[2], wc[3]}, normals, matIndex)
	}
}

// Lower mesh triangles to world space. Triangles without explicit
// normals receive their flat face normal; a zero-length normal entry
// falls back to the face normal for that vertex.
func (sc *sceneCompiler) addMeshTriangles(prim *input.Primitive, xform types.Mat4, matIndex int32) {
	normalMat := xform.Inv().Transpose()

	for triIndex, tri := range prim.Vertices {
		var wv [3]types.Vec3
		for idx, v := range tri {
			wv[idx] = xform.MulCoord(v)
		}

		faceNormal := wv[1].Sub(wv[0]).Cross(wv[2].Sub(wv[0])).Normalize()
		wn := [3]types.Vec3{faceNormal, faceNormal, faceNormal}
		if triIndex < len(prim.Normals) {
			for idx, n := range prim.Normals[triIndex] {
				if n.Len() > 0 {
					wn[idx] = normalMat.MulDir(n).Normalize()
				}
			}
		}

		sc.addTriangle(wv, wn, matIndex)
	}
}

// Stage a world-space triangle surface.
func (sc *sceneCompiler) addTriangle(v [3]types.Vec3, n [3]types.Vec3, matIndex int32) {
	surf := scene.Surface{
		Kind:       scene.TriangleSurface,
		MatIndex:   matIndex,
		XformIndex: -1,
		V:          v,
		N:          n,
		Centroid:   v[0].Add(v[1]).Add(v[2]).Mul(1.0 / 3.0),
		Bounds: [2]types.Vec3{
			types.MinVec3(v[0], types.MinVec3(v[1], v[2])),
			types.MaxVec3(v[0], types.MaxVec3(v[1], v[2])),
		},
	}
	sc.surfaces = append(sc.surfaces, surf)
}

// Stage an analytic unit sphere or unit box surface along with its cached
// transform table entry. World bounds enclose the transformed corners of
// the object space bounding box.
func (sc *sceneCompiler) addAnalyticSurface(kind scene.SurfaceKind, xform types.Mat4, matIndex int32) {
	xformIndex := int32(len(sc.optimizedScene.XformList))
	sc.optimizedScene.XformList = append(sc.optimizedScene.XformList, scene.SurfaceTransform{
		ToWorld:   xform,
		ToObject:  xform.Inv(),
		NormalMat: xform.Inv().Transpose(),
	})

	half := float32(1.0)
	if kind == scene.BoxSurface {
		half = 0.5
	}

	min := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	max := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for corner := 0; corner < 8; corner++ {
		p := types.Vec3{
			half * (float32(corner&1)*2 - 1),
			half * (float32(corner>>1&1)*2 - 1),
			half * (float32(corner>>2&1)*2 - 1),
		}
		wp := xform.MulCoord(p)
		min = types.MinVec3(min, wp)
		max = types.MaxVec3(max, wp)
	}

	sc.surfaces = append(sc.surfaces, scene.Surface{
		Kind:       kind,
		MatIndex:   matIndex,
		XformIndex: xformIndex,
		Centroid:   xform.MulCoord(types.Vec3{0, 0, 0}),
		Bounds:     [2]types.Vec3{min, max},
	})
}
