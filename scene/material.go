package scene

import "github.com/mpoboas/cosig-raytracing/types"

// Material surface parameters. The four coefficients weigh the ambient,
// diffuse, specular and refraction shading terms; IOR is the index of
// refraction used when the refraction coefficient is non-zero. A material
// with zero specular and refraction coefficients spawns no recursive rays.
type Material struct {
	// Base color.
	Color types.Vec3

	// Term coefficients in [0, 1].
	Ambient    float32
	Diffuse    float32
	Specular   float32
	Refraction float32

	// Index of refraction (>= 1).
	IOR float32
}

// The material substituted when a surface references an out-of-range
// material index. Rendering proceeds with a dim white surface instead of
// failing the frame.
func DefaultMaterial() Material {
	return Material{
		Color:   types.Vec3{1, 1, 1},
		Ambient: 0.1,
		Diffuse: 0.2,
		IOR:     1.0,
	}
}
