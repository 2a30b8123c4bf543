package scene

import "github.com/mpoboas/cosig-raytracing/types"

// A point light source.
type Light struct {
	// World-space position.
	Position types.Vec3

	// RGB intensity.
	Color types.Vec3

	// Sampling radius for soft shadows. A zero radius defers to the
	// renderer's global soft shadow radius.
	Radius float32
}
