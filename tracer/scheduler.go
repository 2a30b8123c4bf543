package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split the frame into row blocks of variable height and assign
	// them to the pool of tracers. This function returns the block
	// height assigned to each tracer in the input list; the heights
	// always sum to frameH.
	Schedule(tracers []Tracer, frameH uint32) []uint32
}

// The naive scheduler distributes rows proportionally to the static
// speed estimate reported by each tracer.
type naiveScheduler struct {
	blockAssignment []uint32
}

// Create a new naive scheduler instance.
func NaiveScheduler() BlockScheduler {
	return &naiveScheduler{}
}

// Split the frame into row blocks proportional to each tracer's speed estimate.
func (sch *naiveScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	if len(sch.blockAssignment) != len(tracers) {
		sch.blockAssignment = make([]uint32, len(tracers))
	}

	scheduleByWeight(sch.blockAssignment, tracers, frameH, func(tr Tracer) float64 {
		return float64(tr.Speed())
	})
	return sch.blockAssignment
}

// The perfect scheduler assumes that the amount of tracing work stays
// approximately the same between two subsequent frames. It distributes
// rows using the per-tracer row throughput measured for the last frame.
type perfectScheduler struct {
	blockAssignment []uint32
}

// Create a new perfect scheduler instance.
func PerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

// Split the frame into row blocks weighted by measured tracer throughput.
//
// The first invocation (and any invocation following a change to the
// tracer pool) has no timing data to work with and falls back to the
// static speed estimates; subsequent invocations weigh each tracer by
// blockH / renderTime for its last rendered block.
func (sch *perfectScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	if len(sch.blockAssignment) != len(tracers) {
		sch.blockAssignment = make([]uint32, len(tracers))
		scheduleByWeight(sch.blockAssignment, tracers, frameH, func(tr Tracer) float64 {
			return float64(tr.Speed())
		})
		return sch.blockAssignment
	}

	scheduleByWeight(sch.blockAssignment, tracers, frameH, func(tr Tracer) float64 {
		stats := tr.Stats()
		return float64(stats.BlockH) / float64(stats.RenderTime)
	})
	return sch.blockAssignment
}

// Distribute frameH rows over the tracer pool proportionally to the
// weight assigned to each tracer; the assignment always sums to exactly
// frameH. Each tracer receives at least one row while unassigned rows
// remain, and no share may grow past the rows left after reserving one
// for each tracer behind it. Rows lost to the floor rounding go to the
// first tracer.
func scheduleByWeight(assignment []uint32, tracers []Tracer, frameH uint32, weightFn func(Tracer) float64) {
	var totalWeight float64
	for _, tr := range tracers {
		totalWeight += weightFn(tr)
	}

	remaining := frameH
	scaler := float64(frameH) / totalWeight
	for idx, tr := range tracers {
		share := uint32(math.Max(1.0, math.Floor(weightFn(tr)*scaler)))

		reserved := uint32(len(tracers) - idx - 1)
		if remaining <= reserved {
			share = 0
		} else if limit := remaining - reserved; share > limit {
			share = limit
		}

		assignment[idx] = share
		remaining -= share
	}

	if remaining > 0 {
		assignment[0] += remaining
	}
}
