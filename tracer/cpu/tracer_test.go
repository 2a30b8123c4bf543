package cpu

import (
	"testing"
	"time"

	"github.com/mpoboas/cosig-raytracing/scene"
	"github.com/mpoboas/cosig-raytracing/scene/input"
	"github.com/mpoboas/cosig-raytracing/tracer"
	"github.com/mpoboas/cosig-raytracing/types"
)

var testBackground = types.Vec3{0.1, 0.2, 0.3}

// A 64x64 scene with a unit sphere at the origin, a white light at
// (0, 0, 5) and the camera at (0, 0, 10) looking down the -z axis.
func sphereTestScene(t *testing.T) *scene.Scene {
	t.Helper()

	sc := compileScene(t, func(rawScene *input.Scene) {
		rawScene.Settings.FrameW = 64
		rawScene.Settings.FrameH = 64
		rawScene.Settings.Background = testBackground
		rawScene.Transforms = append(rawScene.Transforms,
			&input.Transform{},
			translation(types.Vec3{0, 0, 5}),
			translation(types.Vec3{0, 0, 10}),
		)
		rawScene.Materials = append(rawScene.Materials, testMaterial())
		rawScene.Lights = append(rawScene.Lights, &input.Light{TransformIndex: 1, Color: types.Vec3{1, 1, 1}})
		rawScene.Primitives = append(rawScene.Primitives, input.NewSphere(0, 0))
		rawScene.Camera.TransformIndex = 2
	})
	sc.Camera.SetupProjection(1.0)
	return sc
}

func TestTracerRenderBlock(t *testing.T) {
	sc := sphereTestScene(t)

	tr := NewTracer("cpu-0")
	accumBuffer := make([]float32, 64*64*4)
	frameBuffer := make([]uint8, 64*64*4)
	if err := tr.Init(64, 64, accumBuffer, frameBuffer); err != nil {
		t.Fatalf("tracer init failed: %v", err)
	}
	defer tr.Close()

	tr.Update(tracer.SceneData, sc)
	tr.Update(tracer.SettingsData, tracer.RenderParams{
		MaxDepth:       2,
		LightScale:     1,
		EnableAmbient:  true,
		EnableDiffuse:  true,
		EnableSpecular: true,
	})

	doneChan := make(chan uint32, 1)
	errChan := make(chan error, 1)
	tr.Enqueue(tracer.BlockRequest{
		BlockY:          0,
		BlockH:          64,
		SamplesPerPixel: 1,
		Seed:            99,
		DoneChan:        doneChan,
		ErrChan:         errChan,
	})

	select {
	case completedRows := <-doneChan:
		if completedRows != 64 {
			t.Fatalf("expected 64 completed rows; got %d", completedRows)
		}
	case err := <-errChan:
		t.Fatalf("tracer reported error: %v", err)
	case <-time.After(30 * time.Second):
		t.Fatal("timed out waiting for the block to complete")
	}

	// Corner pixels receive the exact background color
	for _, corner := range [][2]uint32{{0, 0}, {63, 0}, {0, 63}, {63, 63}} {
		pixOffset := (corner[1]*64 + corner[0]) * 4
		got := types.Vec3{accumBuffer[pixOffset], accumBuffer[pixOffset+1], accumBuffer[pixOffset+2]}
		if got != testBackground {
			t.Fatalf("expected corner pixel %v to hold the background color; got %v", corner, got)
		}
	}

	// The center pixel shows the illuminated sphere
	centerOffset := (32*64 + 32) * 4
	center := types.Vec3{accumBuffer[centerOffset], accumBuffer[centerOffset+1], accumBuffer[centerOffset+2]}
	if center == testBackground || center[0] < 0.5 {
		t.Fatalf("expected an illuminated sphere at the frame center; got %v", center)
	}
	if frameBuffer[centerOffset+3] != 255 {
		t.Fatal("expected opaque alpha in the frame buffer")
	}

	if stats := tr.Stats(); stats.BlockH != 64 || stats.RenderTime == 0 {
		t.Fatalf("expected block stats to be updated; got %+v", stats)
	}
}

func TestTracerInitErrors(t *testing.T) {
	tr := NewTracer("cpu-0")
	if err := tr.Init(64, 64, make([]float32, 16), make([]uint8, 16)); err != ErrInvalidBufferSize {
		t.Fatalf("expected ErrInvalidBufferSize; got %v", err)
	}
}

func TestTracerMissingSceneData(t *testing.T) {
	tr := NewTracer("cpu-0")
	if err := tr.Init(8, 8, make([]float32, 8*8*4), make([]uint8, 8*8*4)); err != nil {
		t.Fatalf("tracer init failed: %v", err)
	}
	defer tr.Close()

	doneChan := make(chan uint32, 1)
	errChan := make(chan error, 1)
	tr.Enqueue(tracer.BlockRequest{BlockY: 0, BlockH: 8, DoneChan: doneChan, ErrChan: errChan})

	select {
	case err := <-errChan:
		if err != ErrNoSceneData {
			t.Fatalf("expected ErrNoSceneData; got %v", err)
		}
	case <-doneChan:
		t.Fatal("expected the block to fail without scene data")
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for the tracer error")
	}
}

func TestTracerBlockOutOfFrame(t *testing.T) {
	sc := sphereTestScene(t)

	tr := NewTracer("cpu-0")
	if err := tr.Init(64, 64, make([]float32, 64*64*4), make([]uint8, 64*64*4)); err != nil {
		t.Fatalf("tracer init failed: %v", err)
	}
	defer tr.Close()

	tr.Update(tracer.SceneData, sc)
	tr.Update(tracer.SettingsData, tracer.RenderParams{MaxDepth: 1, LightScale: 1, EnableAmbient: true})

	// A two-row block starting at the last frame row reaches one row
	// past the attached buffers
	doneChan := make(chan uint32, 1)
	errChan := make(chan error, 1)
	tr.Enqueue(tracer.BlockRequest{
		BlockY:          63,
		BlockH:          2,
		SamplesPerPixel: 1,
		DoneChan:        doneChan,
		ErrChan:         errChan,
	})

	select {
	case err := <-errChan:
		if err != ErrBlockOutOfFrame {
			t.Fatalf("expected ErrBlockOutOfFrame; got %v", err)
		}
	case <-doneChan:
		t.Fatal("expected the out-of-frame block to be rejected")
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for the tracer error")
	}
}

func TestTracerCancellation(t *testing.T) {
	sc := sphereTestScene(t)

	tr := NewTracer("cpu-0")
	frameBuffer := make([]uint8, 64*64*4)
	if err := tr.Init(64, 64, make([]float32, 64*64*4), frameBuffer); err != nil {
		t.Fatalf("tracer init failed: %v", err)
	}
	defer tr.Close()

	tr.Update(tracer.SceneData, sc)
	tr.Update(tracer.SettingsData, tracer.RenderParams{MaxDepth: 1, LightScale: 1, EnableAmbient: true})

	// A cancel signal raised before the block starts aborts every row
	cancelChan := make(chan struct{})
	close(cancelChan)

	doneChan := make(chan uint32, 1)
	errChan := make(chan error, 1)
	tr.Enqueue(tracer.BlockRequest{
		BlockY:          0,
		BlockH:          64,
		SamplesPerPixel: 1,
		Cancel:          cancelChan,
		DoneChan:        doneChan,
		ErrChan:         errChan,
	})

	select {
	case completedRows := <-doneChan:
		if completedRows != 0 {
			t.Fatalf("expected no completed rows after cancellation; got %d", completedRows)
		}
	case err := <-errChan:
		t.Fatalf("tracer reported error: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for the cancelled block")
	}

	for index, v := range frameBuffer {
		if v != 0 {
			t.Fatalf("expected the frame buffer to stay untouched; byte %d is %d", index, v)
		}
	}
}

func TestRenderDeterminism(t *testing.T) {
	// With every stochastic effect enabled the output must still be a pure
	// function of the seed: per-row rng streams make it independent of
	// both repetition and how rows are split into blocks.
	sc := sphereTestScene(t)
	params := tracer.RenderParams{
		MaxDepth:         3,
		LightScale:       1,
		EnableAmbient:    true,
		EnableDiffuse:    true,
		EnableSpecular:   true,
		EnableRefraction: true,
		SoftShadowRadius: 0.5,
		GlossyRoughness:  0.2,
		ShutterSpeed:     0.1,
	}

	fullBlock := newTestTracer(sc, params, 64, 64)
	if _, err := fullBlock.renderBlock(&tracer.BlockRequest{BlockY: 0, BlockH: 64, SamplesPerPixel: 2, Seed: 1234}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	firstPass := make([]float32, len(fullBlock.accumBuffer))
	copy(firstPass, fullBlock.accumBuffer)

	// Same tracer, same seed: bit-identical repeat
	if _, err := fullBlock.renderBlock(&tracer.BlockRequest{BlockY: 0, BlockH: 64, SamplesPerPixel: 2, Seed: 1234}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	for index := range firstPass {
		if firstPass[index] != fullBlock.accumBuffer[index] {
			t.Fatalf("expected repeated render to be bit-identical; accum entry %d differs", index)
		}
	}

	// Two half-height blocks produce the same frame as one full block
	splitBlocks := newTestTracer(sc, params, 64, 64)
	if _, err := splitBlocks.renderBlock(&tracer.BlockRequest{BlockY: 0, BlockH: 32, SamplesPerPixel: 2, Seed: 1234}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if _, err := splitBlocks.renderBlock(&tracer.BlockRequest{BlockY: 32, BlockH: 32, SamplesPerPixel: 2, Seed: 1234}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	for index := range firstPass {
		if firstPass[index] != splitBlocks.accumBuffer[index] {
			t.Fatalf("expected split blocks to reproduce the frame; accum entry %d differs", index)
		}
	}
}
