package cpu

import "github.com/mpoboas/cosig-raytracing/scene"

// Traversal stack depth. The builder caps tree depth well below this so
// pushing both children of every internal node on the path cannot overflow.
const traversalStackSize = 64

// Walk the scene BVH and record the closest surface hit along the ray.
// Traversal is iterative with an explicit node stack; leaf surfaces shrink
// the ray's tMax so later subtrees are pruned against the best hit so far.
func intersectScene(sc *scene.Scene, r *ray, hit *hitRecord) bool {
	if len(sc.BvhNodeList) == 0 {
		return false
	}

	var stack [traversalStackSize]uint32
	stackTop := 1
	found := false
	for stackTop > 0 {
		stackTop--
		node := &sc.BvhNodeList[stack[stackTop]]
		if !rayIntersectBox(r, node.Min, node.Max) {
			continue
		}

		if node.Leaf() {
			firstSurf, surfCount := node.Surfaces()
			for surfIndex := firstSurf; surfIndex < firstSurf+surfCount; surfIndex++ {
				if intersectSurface(sc, &sc.SurfaceList[surfIndex], r, hit) {
					found = true
				}
			}
			continue
		}

		left, right := node.ChildNodes()
		stack[stackTop] = left
		stack[stackTop+1] = right
		stackTop += 2
	}
	return found
}

// Report whether any surface blocks the ray within its (tMin, tMax]
// interval. Occlusion queries bail out on the first hit instead of
// resolving the closest one.
func sceneOccluded(sc *scene.Scene, r *ray) bool {
	if len(sc.BvhNodeList) == 0 {
		return false
	}

	var hit hitRecord
	var stack [traversalStackSize]uint32
	stackTop := 1
	for stackTop > 0 {
		stackTop--
		node := &sc.BvhNodeList[stack[stackTop]]
		if !rayIntersectBox(r, node.Min, node.Max) {
			continue
		}

		if node.Leaf() {
			firstSurf, surfCount := node.Surfaces()
			for surfIndex := firstSurf; surfIndex < firstSurf+surfCount; surfIndex++ {
				if intersectSurface(sc, &sc.SurfaceList[surfIndex], r, &hit) {
					return true
				}
			}
			continue
		}

		left, right := node.ChildNodes()
		stack[stackTop] = left
		stack[stackTop+1] = right
		stackTop += 2
	}
	return false
}

// Dispatch a ray to the intersection test matching the surface kind.
// Analytic surfaces look up their placement in the scene transform table.
func intersectSurface(sc *scene.Scene, surf *scene.Surface, r *ray, hit *hitRecord) bool {
	switch surf.Kind {
	case scene.SphereSurface:
		return intersectSphere(surf, &sc.XformList[surf.XformIndex], r, hit)
	case scene.BoxSurface:
		return intersectCube(surf, &sc.XformList[surf.XformIndex], r, hit)
	default:
		return intersectTriangle(surf, r, hit)
	}
}
