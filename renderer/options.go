package renderer

import "github.com/mpoboas/cosig-raytracing/types"

// Frame rendering options. Zero values fall back to the attached scene's
// settings; pointer fields distinguish "not set" from an explicit zero.
type Options struct {
	// Frame dims. 0 selects the scene defaults.
	FrameW uint32
	FrameH uint32

	// Background color override.
	Background *types.Vec3

	// Maximum recursion depth for secondary rays. 0 disables reflection
	// and refraction entirely.
	MaxDepth uint32

	// Scaler for all light colors. 0 selects 1.0.
	LightScale float32

	// Shading component toggles.
	EnableAmbient    bool
	EnableDiffuse    bool
	EnableSpecular   bool
	EnableRefraction bool

	// Distributed effect knobs; 0 disables each effect.
	SoftShadowRadius float32
	GlossyRoughness  float32
	ShutterSpeed     float32

	// Stratified sampling grid side. Each pixel receives AASamples^2
	// jittered rays; 0 selects a single centered ray.
	AASamples uint32

	// Seed for the jitter streams. Renders with the same seed produce
	// bit-identical frames.
	Seed uint32

	// Camera overrides; nil fields keep the scene camera's pose.
	CameraPosition *types.Vec3
	CameraRotation *types.Vec3
	CameraFOV      *float32
	Orthographic   bool

	// Number of tracers to attach. 0 selects one per logical core.
	NumWorkers int

	// Invoked after each tracer completes its block with the cumulative
	// number of rendered frame rows.
	OnProgress func(completedRows, totalRows uint32)
}
