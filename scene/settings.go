package scene

import "github.com/mpoboas/cosig-raytracing/types"

// Render defaults embedded in the scene file. The renderer options may
// override any of these per render.
type RenderSettings struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Color returned for rays that miss all geometry.
	Background types.Vec3
}
