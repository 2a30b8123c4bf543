package renderer

import (
	"context"
	"image"

	"github.com/mpoboas/cosig-raytracing/scene"
)

type Renderer interface {
	// Render frame. The context cancels an in-flight frame; completed
	// rows stay in the frame buffer.
	Render(ctx context.Context) error

	// Get the last rendered frame.
	Frame() *image.RGBA

	// Queue a camera pose update for the next frame.
	UpdateCamera(camera *scene.Camera)

	// Shutdown renderer and any attached tracers.
	Close()

	// Get render statistics.
	Stats() FrameStats
}
