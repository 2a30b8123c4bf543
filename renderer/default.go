package renderer

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"time"

	"github.com/mpoboas/cosig-raytracing/log"
	"github.com/mpoboas/cosig-raytracing/scene"
	"github.com/mpoboas/cosig-raytracing/tracer"
	"github.com/mpoboas/cosig-raytracing/tracer/cpu"
)

// A headless renderer that drives a pool of cpu tracers writing to shared
// frame buffers. Each frame is split into row blocks by the attached
// scheduler; tracers render disjoint rows so the buffers need no locking.
type defaultRenderer struct {
	logger log.Logger

	options Options

	sceneData *scene.Scene
	camera    *scene.Camera

	frameW uint32
	frameH uint32

	accumBuffer []float32
	frameBuffer []uint8

	scheduler tracer.BlockScheduler
	tracers   []tracer.Tracer

	// Row assignment per tracer for the last scheduled frame.
	blockAssignments []uint32

	stats FrameStats
}

// Create a new renderer using the specified block scheduler. The renderer
// attaches one cpu tracer per worker and queues the scene, camera and
// shading parameters on each of them.
func NewDefault(sc *scene.Scene, scheduler tracer.BlockScheduler, opts Options) (Renderer, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if sc.Camera == nil {
		return nil, ErrCameraNotDefined
	}

	r := &defaultRenderer{
		logger:    log.New("renderer"),
		sceneData: sc,
		camera:    sc.Camera,
		scheduler: scheduler,
	}
	r.options = r.resolveOptions(opts)
	r.frameW = r.options.FrameW
	r.frameH = r.options.FrameH

	// The projection matrix and frustum corners depend on the final
	// frame aspect ratio so they are generated here rather than by the
	// scene compiler.
	r.camera.SetupProjection(float32(r.frameW) / float32(r.frameH))

	bufferLen := r.frameW * r.frameH * 4
	r.accumBuffer = make([]float32, bufferLen)
	r.frameBuffer = make([]uint8, bufferLen)

	params := r.shadingParams()
	for i := 0; i < r.options.NumWorkers; i++ {
		tr := cpu.NewTracer(fmt.Sprintf("cpu-%d", i))
		if err := tr.Init(r.frameW, r.frameH, r.accumBuffer, r.frameBuffer); err != nil {
			r.Close()
			return nil, err
		}
		tr.Update(tracer.SceneData, sc)
		tr.Update(tracer.SettingsData, params)
		r.tracers = append(r.tracers, tr)
	}
	if len(r.tracers) == 0 {
		return nil, ErrNoTracers
	}
	r.blockAssignments = make([]uint32, len(r.tracers))

	r.logger.Noticef("attached %d tracers for a %dx%d frame", len(r.tracers), r.frameW, r.frameH)
	return r, nil
}

// Fill scene-derived fallbacks into a copy of opts and apply the camera
// and background overrides.
func (r *defaultRenderer) resolveOptions(opts Options) Options {
	if opts.FrameW == 0 {
		opts.FrameW = r.sceneData.Settings.FrameW
	}
	if opts.FrameH == 0 {
		opts.FrameH = r.sceneData.Settings.FrameH
	}
	if opts.LightScale == 0 {
		opts.LightScale = 1.0
	}
	if opts.AASamples == 0 {
		opts.AASamples = 1
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = runtime.NumCPU()
	}
	// The scheduler hands every tracer at least one row.
	if uint32(opts.NumWorkers) > opts.FrameH {
		opts.NumWorkers = int(opts.FrameH)
	}

	if opts.Background != nil {
		r.sceneData.Settings.Background = *opts.Background
	}
	if opts.CameraFOV != nil {
		r.camera.FOV = *opts.CameraFOV
	}
	if opts.CameraPosition != nil {
		r.camera.Position = *opts.CameraPosition
	}
	if opts.CameraRotation != nil {
		r.camera.Rotate(*opts.CameraRotation)
	}
	r.camera.Orthographic = opts.Orthographic

	return opts
}

// The tracer-side shading parameters derived from the resolved options.
func (r *defaultRenderer) shadingParams() tracer.RenderParams {
	return tracer.RenderParams{
		MaxDepth:         r.options.MaxDepth,
		LightScale:       r.options.LightScale,
		EnableAmbient:    r.options.EnableAmbient,
		EnableDiffuse:    r.options.EnableDiffuse,
		EnableSpecular:   r.options.EnableSpecular,
		EnableRefraction: r.options.EnableRefraction,
		SoftShadowRadius: r.options.SoftShadowRadius,
		GlossyRoughness:  r.options.GlossyRoughness,
		ShutterSpeed:     r.options.ShutterSpeed,
	}
}

// Render frame. The frame rows are split between the attached tracers by
// the block scheduler; the call blocks until every tracer reports its
// block as done or failed. Cancelling the context aborts the in-flight
// blocks at row granularity and returns ErrInterrupted; rows rendered
// before the abort stay in the frame buffer.
func (r *defaultRenderer) Render(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return ErrInterrupted
	}

	startTime := time.Now()
	r.blockAssignments = r.scheduler.Schedule(r.tracers, r.frameH)

	cancelChan := make(chan struct{})
	doneChan := make(chan uint32, len(r.tracers))
	errChan := make(chan error, len(r.tracers))

	var blockY uint32
	for idx, tr := range r.tracers {
		tr.Enqueue(tracer.BlockRequest{
			BlockY:          blockY,
			BlockH:          r.blockAssignments[idx],
			SamplesPerPixel: r.options.AASamples,
			Seed:            r.options.Seed,
			Cancel:          cancelChan,
			DoneChan:        doneChan,
			ErrChan:         errChan,
		})
		blockY += r.blockAssignments[idx]
	}

	var cancelled bool
	cancel := func() {
		if !cancelled {
			close(cancelChan)
			cancelled = true
		}
	}

	// Wait for every tracer to drain even after an error or an abort so
	// that no goroutine is left blocked on a reply channel.
	var renderErr error
	var completedRows uint32
	ctxDone := ctx.Done()
	for pending := len(r.tracers); pending > 0; {
		select {
		case blockRows := <-doneChan:
			pending--
			completedRows += blockRows
			if r.options.OnProgress != nil {
				r.options.OnProgress(completedRows, r.frameH)
			}
		case err := <-errChan:
			pending--
			if renderErr == nil {
				renderErr = err
			}
			cancel()
		case <-ctxDone:
			ctxDone = nil
			if renderErr == nil {
				renderErr = ErrInterrupted
			}
			cancel()
		}
	}

	r.collectStats(time.Since(startTime))
	return renderErr
}

// Snapshot per-tracer block statistics for the last frame.
func (r *defaultRenderer) collectStats(renderTime time.Duration) {
	r.stats.Tracers = r.stats.Tracers[:0]
	for _, tr := range r.tracers {
		blockStats := tr.Stats()
		r.stats.Tracers = append(r.stats.Tracers, TracerStat{
			Id:           tr.Id(),
			BlockH:       blockStats.BlockH,
			FramePercent: float32(blockStats.BlockH) * 100.0 / float32(r.frameH),
			RenderTime:   blockStats.RenderTime,
		})
	}
	r.stats.RenderTime = renderTime
}

// Get the last rendered frame.
func (r *defaultRenderer) Frame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(r.frameW), int(r.frameH)))
	copy(img.Pix, r.frameBuffer)
	return img
}

// Queue a camera pose update for the next frame. The camera view matrix
// and frustum are regenerated before the update is pushed to the tracers.
func (r *defaultRenderer) UpdateCamera(camera *scene.Camera) {
	camera.Update()
	for _, tr := range r.tracers {
		tr.Update(tracer.CameraData, camera)
	}
}

// Shutdown renderer and any attached tracers.
func (r *defaultRenderer) Close() {
	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil
}

// Get render statistics for the last frame.
func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}
