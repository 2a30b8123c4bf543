package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/mpoboas/cosig-raytracing/types"
	"github.com/olekukonko/tablewriter"
)

// Bvh nodes are comprised of two Vec3 bounds and two multipurpose int32
// parameters whose value depends on the node type:
//
// - For internal nodes SurfCount is 0 and Data points to the left child
//   node; the right child always occupies the next slot (Data+1) due to
//   the breadth-first node layout.
// - For leaf nodes SurfCount is >0 and Data points to the first entry of
//   the leaf's contiguous range in the scene surface list.
type BvhNode struct {
	Min  types.Vec3
	Data int32

	Max       types.Vec3
	SurfCount int32
}

// Set bounding box.
func (n *BvhNode) SetBBox(bbox [2]types.Vec3) {
	n.Min = bbox[0]
	n.Max = bbox[1]
}

// Set left child node index. The right child is implied by the layout.
func (n *BvhNode) SetChildNodes(left uint32) {
	n.Data = int32(left)
	n.SurfCount = 0
}

// Get child node indices.
func (n *BvhNode) ChildNodes() (left, right uint32) {
	return uint32(n.Data), uint32(n.Data) + 1
}

// Set surface index and count.
func (n *BvhNode) SetSurfaces(firstSurfIndex, count uint32) {
	n.Data = int32(firstSurfIndex)
	n.SurfCount = int32(count)
}

// Get surface index and count.
func (n *BvhNode) Surfaces() (firstSurfIndex, count uint32) {
	return uint32(n.Data), uint32(n.SurfCount)
}

// True if this node is a leaf.
func (n *BvhNode) Leaf() bool {
	return n.SurfCount > 0
}

type SurfaceKind int32

const (
	TriangleSurface SurfaceKind = iota
	SphereSurface
	BoxSurface
)

func (k SurfaceKind) String() string {
	switch k {
	case TriangleSurface:
		return "triangle"
	case SphereSurface:
		return "sphere"
	case BoxSurface:
		return "box"
	}
	return "unknown"
}

// A surface is the unit of geometry partitioned by the BVH builder and
// intersected during ray traversal. Triangle surfaces carry their own
// world-space vertex data; sphere and box surfaces are unit shapes in
// object space positioned by an entry in the scene transform table.
// Surfaces are immutable once the scene is compiled.
type Surface struct {
	// Geometry kind discriminator.
	Kind SurfaceKind

	// Material table index.
	MatIndex int32

	// Transform table index for sphere/box surfaces; -1 for triangles.
	XformIndex int32

	// Triangle vertex positions and shading normals (CCW front faces).
	V [3]types.Vec3
	N [3]types.Vec3

	// Partitioning centroid and cached world-space bounds.
	Centroid types.Vec3
	Bounds   [2]types.Vec3
}

// Implements bvh.BoundedVolume.
func (s *Surface) BBox() [2]types.Vec3 {
	return s.Bounds
}

// Implements bvh.BoundedVolume.
func (s *Surface) Center() types.Vec3 {
	return s.Centroid
}

// Object space placement of an analytic surface. ToObject is the inverse
// of ToWorld and NormalMat the inverse-transpose, both cached so that the
// intersection code never inverts matrices per ray.
type SurfaceTransform struct {
	ToWorld   types.Mat4
	ToObject  types.Mat4
	NormalMat types.Mat4
}

// A compiled scene. All geometry lives in flat arrays indexed by the BVH
// nodes; the surface list is reordered so that every BVH leaf references a
// contiguous surface range.
type Scene struct {
	BvhNodeList  []BvhNode
	SurfaceList  []Surface
	XformList    []SurfaceTransform
	MaterialList []Material
	LightList    []Light

	// The scene camera.
	Camera *Camera

	// Render defaults from the scene file.
	Settings RenderSettings
}

// Look up a material falling back to the default material for out-of-range
// indices.
func (sc *Scene) MaterialOrDefault(index int32) Material {
	if index < 0 || int(index) >= len(sc.MaterialList) {
		return DefaultMaterial()
	}
	return sc.MaterialList[index]
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var triCount, sphereCount, boxCount int
	for _, surf := range sc.SurfaceList {
		switch surf.Kind {
		case TriangleSurface:
			triCount++
		case SphereSurface:
			sphereCount++
		case BoxSurface:
			boxCount++
		}
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"Geometry", "---", "", fmtSize(sc.SurfaceList, sc.XformList, sc.BvhNodeList)})
	table.Append([]string{"", "Triangles", fmt.Sprintf("%d", triCount), ""})
	table.Append([]string{"", "Spheres", fmt.Sprintf("%d", sphereCount), ""})
	table.Append([]string{"", "Boxes", fmt.Sprintf("%d", boxCount), ""})
	table.Append([]string{"", "Transforms", fmt.Sprintf("%d", len(sc.XformList)), fmtSize(sc.XformList)})
	table.Append([]string{"", "BVH nodes", fmt.Sprintf("%d", len(sc.BvhNodeList)), fmtSize(sc.BvhNodeList)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Materials", "---", fmt.Sprintf("%d", len(sc.MaterialList)), fmtSize(sc.MaterialList)})
	table.Append([]string{"Lights", "---", fmt.Sprintf("%d", len(sc.LightList)), fmtSize(sc.LightList)})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(sc.SurfaceList, sc.XformList, sc.BvhNodeList, sc.MaterialList, sc.LightList), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
