package input

import (
	"math"

	"github.com/mpoboas/cosig-raytracing/types"
)

type TransformOpType uint8

const (
	Translate TransformOpType = iota
	Scale
	RotateX
	RotateY
	RotateZ
)

// A single transform operation. Args holds the translation offsets or
// scale factors; for rotations only Args[0] is used and specifies the
// angle in degrees.
type TransformOp struct {
	Type TransformOpType
	Args types.Vec3
}

// Compose the op into a matrix.
func (op TransformOp) Matrix() types.Mat4 {
	switch op.Type {
	case Translate:
		return types.Translate4(op.Args)
	case Scale:
		return types.Scale4(op.Args)
	case RotateX:
		return types.Rotate4(op.Args[0]*math.Pi/180.0, types.Vec3{1, 0, 0})
	case RotateY:
		return types.Rotate4(op.Args[0]*math.Pi/180.0, types.Vec3{0, 1, 0})
	case RotateZ:
		return types.Rotate4(op.Args[0]*math.Pi/180.0, types.Vec3{0, 0, 1})
	}
	return types.Ident4()
}

// An ordered transform op list. Ops are composed left-to-right as matrix
// products so the last listed op is the first applied to a point.
type Transform struct {
	Ops []TransformOp
}

// Compose the op list into a single object matrix.
func (t *Transform) Matrix() types.Mat4 {
	m := types.Ident4()
	for _, op := range t.Ops {
		m = m.Mul4(op.Matrix())
	}
	return m
}

type PrimitiveType uint8

const (
	SpherePrimitive PrimitiveType = iota
	BoxPrimitive
	MeshPrimitive
)

// A parsed scene primitive. Spheres and boxes are unit shapes positioned
// by their transform; meshes carry explicit triangle data.
type Primitive struct {
	Type           PrimitiveType
	TransformIndex int
	MaterialIndex  int

	// Mesh triangle data. Normals may be left empty in which case flat
	// face normals are derived during compilation.
	Vertices [][3]types.Vec3
	Normals  [][3]types.Vec3
}

// Create a new sphere primitive.
func NewSphere(transformIndex, materialIndex int) *Primitive {
	return &Primitive{
		Type:           SpherePrimitive,
		TransformIndex: transformIndex,
		MaterialIndex:  materialIndex,
	}
}

// Create a new box primitive.
func NewBox(transformIndex, materialIndex int) *Primitive {
	return &Primitive{
		Type:           BoxPrimitive,
		TransformIndex: transformIndex,
		MaterialIndex:  materialIndex,
	}
}

// Create a new empty mesh primitive.
func NewMesh(transformIndex, materialIndex int) *Primitive {
	return &Primitive{
		Type:           MeshPrimitive,
		TransformIndex: transformIndex,
		MaterialIndex:  materialIndex,
		Vertices:       make([][3]types.Vec3, 0),
	}
}

// Append a triangle to a mesh primitive. Vertices should be specified in
// counter-clockwise order for front faces.
func (prim *Primitive) AddTriangle(v0, v1, v2 types.Vec3) {
	prim.Vertices = append(prim.Vertices, [3]types.Vec3{v0, v1, v2})
}

// Append a triangle with explicit per-vertex normals to a mesh primitive.
// Triangles previously appended without normals are padded with zero
// entries; the compiler resolves those to flat face normals.
func (prim *Primitive) AddTriangleWithNormals(v [3]types.Vec3, n [3]types.Vec3) {
	for len(prim.Normals) < len(prim.Vertices) {
		prim.Normals = append(prim.Normals, [3]types.Vec3{})
	}
	prim.Vertices = append(prim.Vertices, v)
	prim.Normals = append(prim.Normals, n)
}

// A parsed material definition.
type Material struct {
	Color      types.Vec3
	Ambient    float32
	Diffuse    float32
	Specular   float32
	Refraction float32
	IOR        float32
}

// A parsed point light. The world position is obtained by applying the
// light transform to the origin.
type Light struct {
	TransformIndex int
	Color          types.Vec3
	Radius         float32
}

// Parsed camera settings.
type Camera struct {
	TransformIndex int
	Distance       float32
	FOV            float32
}

// Parsed image settings.
type Settings struct {
	FrameW     uint32
	FrameH     uint32
	Background types.Vec3
}

// The scene contains all elements that are processed and optimized by the
// scene compiler.
type Scene struct {
	Settings   Settings
	Transforms []*Transform
	Materials  []*Material
	Lights     []*Light
	Primitives []*Primitive
	Camera     *Camera
}

// Create a new scene with sane defaults.
func NewScene() *Scene {
	return &Scene{
		Settings: Settings{
			FrameW: 512,
			FrameH: 512,
		},
		Transforms: make([]*Transform, 0),
		Materials:  make([]*Material, 0),
		Lights:     make([]*Light, 0),
		Primitives: make([]*Primitive, 0),
		Camera: &Camera{
			TransformIndex: -1,
			Distance:       1.0,
			FOV:            60.0,
		},
	}
}

// Resolve a transform table index to its composed matrix. Out-of-range
// indices resolve to the identity transform.
func (s *Scene) TransformMatrix(index int) types.Mat4 {
	if index < 0 || index >= len(s.Transforms) {
		return types.Ident4()
	}
	return s.Transforms[index].Matrix()
}
