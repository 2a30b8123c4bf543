package cpu

import (
	"math"
	"math/rand"

	"github.com/mpoboas/cosig-raytracing/types"
)

// Blinn-Phong specular exponent shared by all materials.
const shininess = 64.0

// Offset applied to secondary ray origins to keep them clear of the
// surface that spawned them.
const surfaceBias = 1e-3

// Bias for shadow ray start distances (shadow acne guard).
const shadowBias = 1e-3

// Trace a ray through the scene and return the gathered radiance. Rays
// that miss all geometry return the scene background color at any depth.
func (tr *cpuTracer) trace(r *ray, depth uint32, rng *rand.Rand) types.Vec3 {
	var hit hitRecord
	if !intersectScene(tr.sceneData, r, &hit) {
		return tr.sceneData.Settings.Background
	}
	return tr.shade(r, &hit, depth, rng)
}

// Evaluate the local illumination at a hit point and recurse into
// reflection and refraction rays while depth remains. The ambient term is
// independent of light visibility; diffuse and specular terms only apply
// when the surface faces the light and the shadow ray reaches it.
func (tr *cpuTracer) shade(r *ray, hit *hitRecord, depth uint32, rng *rand.Rand) types.Vec3 {
	params := &tr.params
	mat := tr.sceneData.MaterialOrDefault(hit.matIndex)
	view := r.dir.Mul(-1.0)

	var color types.Vec3
	for lightIndex := range tr.sceneData.LightList {
		light := &tr.sceneData.LightList[lightIndex]
		lightColor := light.Color.Mul(params.LightScale)

		if params.EnableAmbient {
			color = color.Add(lightColor.MulVec3(mat.Color).Mul(mat.Ambient))
		}

		if !params.EnableDiffuse && !params.EnableSpecular {
			continue
		}

		toLight := light.Position.Sub(hit.position)
		lightDist := toLight.Len()
		lightDir := toLight.Mul(1.0 / lightDist)

		nDotL := hit.normal.Dot(lightDir)
		if nDotL <= 0 {
			continue
		}

		if tr.lightOccluded(hit.position, light.Position, light.Radius, rng) {
			continue
		}

		if params.EnableDiffuse {
			color = color.Add(lightColor.MulVec3(mat.Color).Mul(mat.Diffuse * nDotL))
		}
		if params.EnableSpecular && mat.Specular > 0 {
			half := lightDir.Add(view).Normalize()
			nDotH := hit.normal.Dot(half)
			if nDotH > 0 {
				color = color.Add(lightColor.Mul(mat.Specular * pow32(nDotH, shininess)))
			}
		}
	}

	if depth == 0 {
		return color
	}

	if params.EnableSpecular && mat.Specular > 0 {
		// The side of the surface the reflected ray travels on;
		// interior hits reflect inwards.
		facing := hit.normal
		if r.dir.Dot(hit.normal) > 0 {
			facing = facing.Mul(-1.0)
		}

		reflDir := reflect(r.dir, hit.normal)
		if params.GlossyRoughness > 0 {
			reflDir = perturbReflection(reflDir, facing, params.GlossyRoughness, rng)
		}

		reflRay := newRay(hit.position.Add(facing.Mul(surfaceBias)), reflDir)
		reflColor := tr.trace(&reflRay, depth-1, rng)
		color = color.Add(mat.Color.MulVec3(reflColor).Mul(mat.Specular))
	}

	if params.EnableRefraction && mat.Refraction > 0 {
		if refrDir, ok := refract(r.dir, hit.normal, mat.IOR); ok {
			refrRay := newRay(hit.position.Add(refrDir.Mul(surfaceBias)), refrDir)
			refrColor := tr.trace(&refrRay, depth-1, rng)
			color = color.Add(mat.Color.MulVec3(refrColor).Mul(mat.Refraction))
		}
	}

	return color
}

// Cast a binary shadow ray from a surface point towards a light. With soft
// shadows enabled the target is jittered inside a sphere around the light
// position; penumbrae emerge from averaging the binary results over the
// pixel's samples. A zero per-light radius falls back to the global soft
// shadow radius.
func (tr *cpuTracer) lightOccluded(from, lightPos types.Vec3, lightRadius float32, rng *rand.Rand) bool {
	radius := lightRadius
	if radius == 0 {
		radius = tr.params.SoftShadowRadius
	}
	target := lightPos
	if radius > 0 {
		target = target.Add(randInSphere(rng).Mul(radius))
	}

	toTarget := target.Sub(from)
	dist := toTarget.Len()

	shadowRay := newRay(from, toTarget.Mul(1.0/dist))
	shadowRay.tMin = shadowBias
	shadowRay.tMax = dist
	return sceneOccluded(tr.sceneData, &shadowRay)
}

// Mirror the incident direction about the normal.
func reflect(dir, normal types.Vec3) types.Vec3 {
	return dir.Sub(normal.Mul(2.0 * dir.Dot(normal)))
}

// Jitter a mirror reflection inside a sphere scaled by the roughness. A
// perturbed direction that dips below the surface plane is mirrored back
// into the hemisphere around the oriented normal.
func perturbReflection(dir, normal types.Vec3, roughness float32, rng *rand.Rand) types.Vec3 {
	perturbed := dir.Add(randInSphere(rng).Mul(roughness)).Normalize()
	if d := perturbed.Dot(normal); d < 0 {
		perturbed = perturbed.Sub(normal.Mul(2.0 * d))
	}
	return perturbed
}

// Refract the incident direction through a dielectric boundary with the
// given index of refraction. The sign of -dir.normal selects between
// entering and exiting the medium. Returns false on total internal
// reflection where no refracted ray exists.
func refract(dir, normal types.Vec3, ior float32) (types.Vec3, bool) {
	cosI := -dir.Dot(normal)
	eta := 1.0 / ior
	if cosI < 0 {
		cosI = -cosI
		eta = ior
		normal = normal.Mul(-1.0)
	}

	k := 1.0 - eta*eta*(1.0-cosI*cosI)
	if k < 0 {
		return types.Vec3{}, false
	}
	return dir.Mul(eta).Add(normal.Mul(eta*cosI - sqrt32(k))).Normalize(), true
}

func pow32(base, exp float32) float32 {
	return float32(math.Pow(float64(base), float64(exp)))
}
