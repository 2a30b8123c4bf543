package tracer

import "time"

// Tracer capability flags.
type Flag uint8

const (
	// The tracer runs inside the local process.
	Local Flag = 1 << iota

	// The tracer executes on the host cpu.
	CPU
)

type UpdateType uint8

const (
	// Attach a compiled scene; the payload is a *scene.Scene. Geometry
	// changes always arrive as a full scene swap since they invalidate
	// the BVH.
	SceneData UpdateType = iota

	// Recompute cached camera state; the payload is a *scene.Camera.
	// Camera changes never trigger a scene rebuild.
	CameraData

	// Replace the shading parameters; the payload is a RenderParams.
	SettingsData
)

// Shading parameters shared by all tracer implementations.
type RenderParams struct {
	// Maximum recursion depth for reflection and refraction rays. A
	// value of 0 disables secondary rays entirely.
	MaxDepth uint32

	// Scaler applied to all light colors.
	LightScale float32

	// Per-term shading toggles.
	EnableAmbient    bool
	EnableDiffuse    bool
	EnableSpecular   bool
	EnableRefraction bool

	// Distributed tracing parameters; a zero value disables each effect.
	// SoftShadowRadius is the default light jitter radius for lights
	// that do not define their own, GlossyRoughness scales reflection
	// perturbation and ShutterSpeed the per-sample eye jitter.
	SoftShadowRadius float32
	GlossyRoughness  float32
	ShutterSpeed     float32
}

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// The stratified sampling grid side; each traced pixel receives
	// SamplesPerPixel^2 jittered rays.
	SamplesPerPixel uint32

	// A random seed value for the tracer's random number generator.
	Seed uint32

	// Cancel is closed to abort the render; the tracer stops scheduling
	// new rows once it observes the signal.
	Cancel <-chan struct{}

	// A channel to signal on block completion with the number of completed rows.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics.
type Stats struct {
	// The rendered block height.
	BlockH uint32

	// The time for rendering the last block.
	RenderTime time.Duration
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Get tracer capability flags.
	Flags() Flag

	// Get the tracer's computation speed estimate relative to a baseline
	// single-core implementation.
	Speed() uint32

	// Attach the tracer to a frame and its output buffers. Tracers only
	// ever write the rows assigned to them by a block request;
	// accumBuffer receives float rgba radiance values and frameBuffer
	// their 8-bit quantization.
	Init(frameW, frameH uint32, accumBuffer []float32, frameBuffer []uint8) error

	// Shutdown and cleanup tracer.
	Close()

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Queue a state change. Pending changes are applied before the next
	// enqueued block is traced.
	Update(UpdateType, interface{})

	// Retrieve last block statistics.
	Stats() *Stats
}
