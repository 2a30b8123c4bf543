package cpu

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/mpoboas/cosig-raytracing/log"
	"github.com/mpoboas/cosig-raytracing/scene"
	"github.com/mpoboas/cosig-raytracing/tracer"
	"github.com/mpoboas/cosig-raytracing/types"
)

// A tracer implementation that renders row blocks on a single goroutine.
// Frame parallelism comes from attaching one tracer per core and letting
// the block scheduler split the frame between them; each instance only
// ever writes the disjoint buffer rows named by its block requests.
type cpuTracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	// A buffer for queuing updates. Updates are grouped by type and the
	// latest update always overwrites the previous one.
	updateBuffer map[tracer.UpdateType]interface{}

	// A channel for receiving block requests from the renderer.
	blockReqChan chan tracer.BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for the last rendered block.
	stats *tracer.Stats

	// The attached frame dimensions and output buffers.
	frameW      uint32
	frameH      uint32
	accumBuffer []float32
	frameBuffer []uint8

	// The attached scene, camera and shading parameters.
	sceneData *scene.Scene
	camera    *scene.Camera
	params    tracer.RenderParams
}

// Create a new cpu tracer.
func NewTracer(id string) tracer.Tracer {
	return &cpuTracer{
		logger:       log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:           id,
		blockReqChan: make(chan tracer.BlockRequest),
		updateBuffer: make(map[tracer.UpdateType]interface{}),
		stats:        &tracer.Stats{},
	}
}

// Get tracer id.
func (tr *cpuTracer) Id() string {
	return tr.id
}

// Get tracer flags.
func (tr *cpuTracer) Flags() tracer.Flag {
	return tracer.Local | tracer.CPU
}

// Get the computation speed estimate. All cpu tracers drive a single core
// and report the baseline speed.
func (tr *cpuTracer) Speed() uint32 {
	return 1
}

// Attach the tracer to a frame and its output buffers and start the block
// processing worker.
func (tr *cpuTracer) Init(frameW, frameH uint32, accumBuffer []float32, frameBuffer []uint8) error {
	tr.Lock()
	defer tr.Unlock()

	bufferLen := int(frameW * frameH * 4)
	if len(accumBuffer) < bufferLen || len(frameBuffer) < bufferLen {
		return ErrInvalidBufferSize
	}

	tr.frameW = frameW
	tr.frameH = frameH
	tr.accumBuffer = accumBuffer
	tr.frameBuffer = frameBuffer

	if tr.closeChan == nil {
		tr.startWorker()
	}
	return nil
}

// Shutdown and cleanup tracer.
func (tr *cpuTracer) Close() {
	tr.Lock()
	defer tr.Unlock()

	if tr.closeChan != nil {
		tr.closeChan <- struct{}{}

		// Wait for the worker to ack the close request before
		// shutting down the channel.
		<-tr.closeChan
		close(tr.closeChan)
		tr.closeChan = nil
	}
	tr.wg.Wait()

	tr.accumBuffer = nil
	tr.frameBuffer = nil
	tr.sceneData = nil
	tr.camera = nil
}

// Enqueue block request. Requests arriving while the worker is still busy
// with the previous block are dropped.
func (tr *cpuTracer) Enqueue(blockReq tracer.BlockRequest) {
	select {
	case tr.blockReqChan <- blockReq:
	default:
		tr.logger.Error("dropped block request; worker is busy")
	}
}

// Append a change to the tracer's update buffer.
func (tr *cpuTracer) Update(updateType tracer.UpdateType, data interface{}) {
	tr.Lock()
	defer tr.Unlock()

	tr.updateBuffer[updateType] = data
}

// Retrieve last block statistics.
func (tr *cpuTracer) Stats() *tracer.Stats {
	return tr.stats
}

// Commit queued changes. Scene swaps carry their own camera so they are
// applied first; a camera update queued alongside always wins.
func (tr *cpuTracer) commitUpdates() error {
	tr.Lock()
	defer tr.Unlock()

	if len(tr.updateBuffer) == 0 {
		return nil
	}

	if data, exists := tr.updateBuffer[tracer.SceneData]; exists {
		sc := data.(*scene.Scene)
		tr.sceneData = sc
		tr.camera = sc.Camera
		delete(tr.updateBuffer, tracer.SceneData)
	}

	for updateType, data := range tr.updateBuffer {
		switch updateType {
		case tracer.CameraData:
			tr.camera = data.(*scene.Camera)
		case tracer.SettingsData:
			tr.params = data.(tracer.RenderParams)
		default:
			return fmt.Errorf("cpu tracer: unsupported update type %d", updateType)
		}
	}

	tr.updateBuffer = make(map[tracer.UpdateType]interface{}, 0)
	return nil
}

// Spawn a go-routine to process block render requests.
func (tr *cpuTracer) startWorker() {
	tr.closeChan = make(chan struct{})

	readyChan := make(chan struct{})
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		var blockReq tracer.BlockRequest
		var startTime time.Time
		close(readyChan)
		for {
			select {
			case blockReq = <-tr.blockReqChan:
				// Queued scene/camera/settings changes apply before
				// the block is traced.
				if err := tr.commitUpdates(); err != nil {
					blockReq.ErrChan <- err
					continue
				}

				startTime = time.Now()
				completedRows, err := tr.renderBlock(&blockReq)
				if err != nil {
					blockReq.ErrChan <- err
					continue
				}

				tr.stats.BlockH = completedRows
				tr.stats.RenderTime = time.Since(startTime)

				blockReq.DoneChan <- completedRows
			case <-tr.closeChan:
				// Ack close
				tr.closeChan <- struct{}{}
				return
			}
		}
	}()

	// Block until the worker services the request channel.
	<-readyChan
}

// Render the rows assigned by a block request and report how many rows
// completed. Blocks that extend past the attached frame are rejected
// before any row is traced. The cancel channel is polled once per row;
// an aborted block keeps the rows rendered so far in the output buffers.
func (tr *cpuTracer) renderBlock(blockReq *tracer.BlockRequest) (uint32, error) {
	if tr.sceneData == nil {
		return 0, ErrNoSceneData
	}
	if tr.camera == nil {
		return 0, ErrNoCameraData
	}
	if blockReq.BlockY+blockReq.BlockH > tr.frameH {
		return 0, ErrBlockOutOfFrame
	}

	s := newSampler(tr.camera, tr.frameW, tr.frameH, blockReq.SamplesPerPixel, tr.params.ShutterSpeed)

	var completedRows uint32
	endY := blockReq.BlockY + blockReq.BlockH
	for y := blockReq.BlockY; y < endY; y++ {
		select {
		case <-blockReq.Cancel:
			return completedRows, nil
		default:
		}

		// Row-local rng streams keep the output independent of how
		// the frame rows were split between tracers.
		tr.renderRow(y, s, rand.New(rand.NewSource(int64(blockReq.Seed)+int64(y))))
		completedRows++
	}
	return completedRows, nil
}

// Trace every pixel of a frame row, averaging the stratified samples, and
// quantize the result into the 8-bit frame buffer.
func (tr *cpuTracer) renderRow(y uint32, s *sampler, rng *rand.Rand) {
	sampleScaler := 1.0 / float32(s.gridSide*s.gridSide)
	for x := uint32(0); x < tr.frameW; x++ {
		var sum types.Vec3
		for sy := uint32(0); sy < s.gridSide; sy++ {
			for sx := uint32(0); sx < s.gridSide; sx++ {
				r := s.primaryRay(x, y, sx, sy, rng)
				sum = sum.Add(tr.trace(&r, tr.params.MaxDepth, rng))
			}
		}
		color := sum.Mul(sampleScaler)

		pixOffset := (y*tr.frameW + x) * 4
		tr.accumBuffer[pixOffset] = color[0]
		tr.accumBuffer[pixOffset+1] = color[1]
		tr.accumBuffer[pixOffset+2] = color[2]
		tr.accumBuffer[pixOffset+3] = 1.0
		tr.frameBuffer[pixOffset] = quantize(color[0])
		tr.frameBuffer[pixOffset+1] = quantize(color[1])
		tr.frameBuffer[pixOffset+2] = quantize(color[2])
		tr.frameBuffer[pixOffset+3] = 255
	}
}

// Clamp a radiance channel to [0, 1] and round to 8 bits.
func quantize(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}
