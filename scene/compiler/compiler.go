package compiler

import (
	"time"

	"github.com/mpoboas/cosig-raytracing/log"
	"github.com/mpoboas/cosig-raytracing/scene"
	"github.com/mpoboas/cosig-raytracing/scene/compiler/bvh"
	"github.com/mpoboas/cosig-raytracing/scene/input"
	"github.com/mpoboas/cosig-raytracing/types"
)

const minSurfacesPerLeaf = bvh.DefaultMinLeafItems

// Options control how the compiler lowers parsed primitives.
type Options struct {
	// Compile spheres and boxes as analytic unit shapes intersected in
	// object space via their cached inverse transform instead of
	// tessellating them into triangles.
	AnalyticSurfaces bool
}

type sceneCompiler struct {
	parsedScene    *input.Scene
	optimizedScene *scene.Scene
	logger         log.Logger
	opts           Options

	// Surfaces staged for partitioning. The BVH leaf callback copies them
	// into the optimized scene in leaf order.
	surfaces []scene.Surface
}

// Compile a scene representation parsed by a scene reader into a flat,
// render-friendly optimized scene format.
func Compile(parsedScene *input.Scene, opts Options) (*scene.Scene, error) {
	compiler := &sceneCompiler{
		parsedScene:    parsedScene,
		optimizedScene: &scene.Scene{},
		logger:         log.New("scene compiler"),
		opts:           opts,
	}

	start := time.Now()
	compiler.logger.Noticef("compiling scene")

	compiler.optimizedScene.Settings = scene.RenderSettings{
		FrameW:     parsedScene.Settings.FrameW,
		FrameH:     parsedScene.Settings.FrameH,
		Background: parsedScene.Settings.Background,
	}

	var err error
	err = compiler.processMaterials()
	if err != nil {
		return nil, err
	}

	err = compiler.generateSurfaces()
	if err != nil {
		return nil, err
	}

	err = compiler.partitionGeometry()
	if err != nil {
		return nil, err
	}

	err = compiler.setupLights()
	if err != nil {
		return nil, err
	}

	err = compiler.setupCamera()
	if err != nil {
		return nil, err
	}

	compiler.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return compiler.optimizedScene, nil
}

// Copy parsed materials into the scene material table.
func (sc *sceneCompiler) processMaterials() error {
	sc.logger.Noticef("processing %d materials", len(sc.parsedScene.Materials))

	sc.optimizedScene.MaterialList = make([]scene.Material, len(sc.parsedScene.Materials))
	for index, mat := range sc.parsedScene.Materials {
		sc.optimizedScene.MaterialList[index] = scene.Material{
			Color:      mat.Color,
			Ambient:    mat.Ambient,
			Diffuse:    mat.Diffuse,
			Specular:   mat.Specular,
			Refraction: mat.Refraction,
			IOR:        mat.IOR,
		}
	}

	return nil
}

// Partition the staged surface list into a BVH. The leaf callback copies
// leaf surfaces into the optimized scene so that every leaf references a
// contiguous range of the final surface list.
func (sc *sceneCompiler) partitionGeometry() error {
	start := time.Now()
	sc.logger.Noticef("partitioning geometry (%d surfaces)", len(sc.surfaces))

	volList := make([]bvh.BoundedVolume, len(sc.surfaces))
	for index := range sc.surfaces {
		volList[index] = &sc.surfaces[index]
	}

	sc.optimizedScene.SurfaceList = make([]scene.Surface, 0, len(sc.surfaces))
	sc.optimizedScene.BvhNodeList = bvh.Build(volList, minSurfacesPerLeaf, func(leaf *scene.BvhNode, workList []bvh.BoundedVolume) {
		firstSurfIndex := uint32(len(sc.optimizedScene.SurfaceList))
		for _, workItem := range workList {
			sc.optimizedScene.SurfaceList = append(sc.optimizedScene.SurfaceList, *workItem.(*scene.Surface))
		}
		leaf.SetSurfaces(firstSurfIndex, uint32(len(workList)))
	})

	sc.logger.Noticef("partitioned geometry in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Resolve light transforms into world positions.
func (sc *sceneCompiler) setupLights() error {
	sc.optimizedScene.LightList = make([]scene.Light, len(sc.parsedScene.Lights))
	for index, light := range sc.parsedScene.Lights {
		xform := sc.parsedScene.TransformMatrix(light.TransformIndex)
		sc.optimizedScene.LightList[index] = scene.Light{
			Position: xform.MulCoord(types.Vec3{0, 0, 0}),
			Color:    light.Color,
			Radius:   light.Radius,
		}
	}

	if len(sc.optimizedScene.LightList) == 0 {
		sc.logger.Warning("the scene contains no lights; output will only receive ambient and background contributions")
	}

	return nil
}

// Initialize and position the camera for the scene. The camera transform
// maps the origin to the eye position and -Z to the view direction. The
// projection matrix is set up by the renderer once the final frame aspect
// ratio is known.
func (sc *sceneCompiler) setupCamera() error {
	camXform := sc.parsedScene.TransformMatrix(sc.parsedScene.Camera.TransformIndex)

	camera := scene.NewCamera(sc.parsedScene.Camera.FOV)
	camera.Distance = sc.parsedScene.Camera.Distance
	camera.Position = camXform.MulCoord(types.Vec3{0, 0, 0})
	camera.LookAt = camXform.MulCoord(types.Vec3{0, 0, -1})
	camera.Up = camXform.MulDir(types.Vec3{0, 1, 0}).Normalize()

	sc.optimizedScene.Camera = camera
	return nil
}
