package renderer

import "time"

// Per-tracer statistics for the last rendered frame. Block heights reflect
// the scheduler assignment the frame was rendered with, so comparing
// render times across tracers shows how well balanced the split was.
type TracerStat struct {
	// The tracer id.
	Id string

	// The assigned block height and the percentage of the frame it covers.
	BlockH       uint32
	FramePercent float32

	// Render time for the assigned block.
	RenderTime time.Duration
}

// Statistics for the last rendered frame.
type FrameStats struct {
	// Individual tracer stats in block assignment order.
	Tracers []TracerStat

	// Wall clock time for the entire frame.
	RenderTime time.Duration
}
