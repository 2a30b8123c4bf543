package reader

import (
	"reflect"
	"strings"
	"testing"

	"github.com/mpoboas/cosig-raytracing/scene/compiler"
	"github.com/mpoboas/cosig-raytracing/scene/input"
	"github.com/mpoboas/cosig-raytracing/types"
)

func parseTestScene(t *testing.T, payload string) *input.Scene {
	r := newTextSceneReader(compiler.Options{})
	res := NewResourceFromStream("test.txt", strings.NewReader(payload))
	if err := r.parse(res); err != nil {
		t.Fatal(err)
	}
	r.resolveIndices(res.Path())
	return r.rawScene
}

func TestFloat32Parser(t *testing.T) {
	expError := `unsupported syntax for "fov"; expected 1 argument; got 0`
	_, err := parseFloat32([]string{"fov"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseFloat32([]string{"fov", "not-a-float"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseFloat32([]string{"fov", "45.5"})
	if err != nil {
		t.Fatal(err)
	}

	if v != 45.5 {
		t.Fatalf("expected parsed value to be 45.5; got %f", v)
	}
}

func TestVec3Parser(t *testing.T) {
	expError := `unsupported syntax for "background"; expected 3 arguments; got 0`
	_, err := parseVec3([]string{"background"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"background", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"background", "3.14", "0", "0.4"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, 0.4}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestIndexParser(t *testing.T) {
	expError := `unsupported syntax for "material"; expected 1 argument; got 2`
	_, err := parseIndex([]string{"material", "1", "2"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseIndex([]string{"material", "1.5"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseIndex([]string{"material", "-1"})
	if err != nil {
		t.Fatal(err)
	}

	if v != -1 {
		t.Fatalf("expected parsed value to be -1; got %d", v)
	}
}

func TestParseTransformation(t *testing.T) {
	payload := `
transformation {
	translate 0 1 -5
	rotate y 30
	scale 2 2 2
}
`
	sc := parseTestScene(t, payload)
	if len(sc.Transforms) != 1 {
		t.Fatalf("expected 1 parsed transform; got %d", len(sc.Transforms))
	}

	expOps := []input.TransformOp{
		{Type: input.Translate, Args: types.Vec3{0, 1, -5}},
		{Type: input.RotateY, Args: types.Vec3{30, 0, 0}},
		{Type: input.Scale, Args: types.Vec3{2, 2, 2}},
	}
	if !reflect.DeepEqual(sc.Transforms[0].Ops, expOps) {
		t.Fatalf("expected parsed ops to be %v; got %v", expOps, sc.Transforms[0].Ops)
	}
}

func TestParseFullScene(t *testing.T) {
	payload := `
# full smoke scene
image {
	resolution 640 480
	background 0.05 0.05 0.1
}

transformation {
	translate 0 0 10
}

transformation
{
	translate 0 4.9 0
	rotate y 45
	scale 2 2 2
}

camera {
	transformation 0
	distance 10
	fov 45
}

light {
	transformation 1
	color 1 0.9 0.8
	radius 0.5
}

material {
	color 0.8 0.2 0.2
	ambient 0.1
	diffuse 0.7
	specular 0.2
	refraction 0
	ior 1
}

sphere {
	transformation 1
	material 0
}

box {
	material 0
}

mesh {
	material 0
	triangle -1 0 0 1 0 0 0 1 0
	triangle -1 0 0 0 1 0 -1 1 0
}
`
	sc := parseTestScene(t, payload)

	if sc.Settings.FrameW != 640 || sc.Settings.FrameH != 480 {
		t.Fatalf("expected frame dims to be 640x480; got %dx%d", sc.Settings.FrameW, sc.Settings.FrameH)
	}
	expBackground := types.Vec3{0.05, 0.05, 0.1}
	if !reflect.DeepEqual(sc.Settings.Background, expBackground) {
		t.Fatalf("expected background to be %v; got %v", expBackground, sc.Settings.Background)
	}

	if len(sc.Transforms) != 2 {
		t.Fatalf("expected 2 parsed transforms; got %d", len(sc.Transforms))
	}
	if len(sc.Transforms[1].Ops) != 3 {
		t.Fatalf("expected second transform to contain 3 ops; got %d", len(sc.Transforms[1].Ops))
	}

	if sc.Camera.TransformIndex != 0 || sc.Camera.Distance != 10 || sc.Camera.FOV != 45 {
		t.Fatalf("unexpected camera settings: %+v", sc.Camera)
	}

	if len(sc.Lights) != 1 {
		t.Fatalf("expected 1 parsed light; got %d", len(sc.Lights))
	}
	expLightColor := types.Vec3{1, 0.9, 0.8}
	if sc.Lights[0].TransformIndex != 1 || !reflect.DeepEqual(sc.Lights[0].Color, expLightColor) || sc.Lights[0].Radius != 0.5 {
		t.Fatalf("unexpected light settings: %+v", sc.Lights[0])
	}

	if len(sc.Materials) != 1 {
		t.Fatalf("expected 1 parsed material; got %d", len(sc.Materials))
	}
	mat := sc.Materials[0]
	if mat.Ambient != 0.1 || mat.Diffuse != 0.7 || mat.Specular != 0.2 || mat.Refraction != 0 || mat.IOR != 1 {
		t.Fatalf("unexpected material settings: %+v", mat)
	}

	if len(sc.Primitives) != 3 {
		t.Fatalf("expected 3 parsed primitives; got %d", len(sc.Primitives))
	}
	if sc.Primitives[0].Type != input.SpherePrimitive || sc.Primitives[0].TransformIndex != 1 || sc.Primitives[0].MaterialIndex != 0 {
		t.Fatalf("unexpected sphere primitive: %+v", sc.Primitives[0])
	}
	if sc.Primitives[1].Type != input.BoxPrimitive || sc.Primitives[1].TransformIndex != -1 {
		t.Fatalf("unexpected box primitive: %+v", sc.Primitives[1])
	}
	if sc.Primitives[2].Type != input.MeshPrimitive || len(sc.Primitives[2].Vertices) != 2 {
		t.Fatalf("unexpected mesh primitive: %+v", sc.Primitives[2])
	}
}

func TestParseErrors(t *testing.T) {
	type spec struct {
		payload  string
		expError string
	}

	specs := []spec{
		{
			"blob {\n}",
			`[test.txt: 1] error: unknown section "blob"`,
		},
		{
			"sphere { material 1 }",
			`[test.txt: 1] error: unsupported syntax for "sphere"; expected section name followed by "{"`,
		},
		{
			"camera\nfov 45",
			`[test.txt: 2] error: expected "{" after "camera" section header; got "fov"`,
		},
		{
			"material {\ncolor 1 0 0",
			`[test.txt: 2] error: unterminated "material" section; expected closing "}"`,
		},
		{
			"transformation {\nrotate w 45\n}",
			`[test.txt: 2] error: unsupported rotation axis "w"; expected one of: x, y, z`,
		},
		{
			"image {\nresolution 640\n}",
			`[test.txt: 2] error: unsupported syntax for "resolution"; expected 2 arguments; got 1`,
		},
		{
			"image {\nresolution 640 0\n}",
			`[test.txt: 2] error: invalid "resolution" argument 2; expected a positive integer`,
		},
		{
			"mesh {\ntriangle 0 0 0 1 0 0\n}",
			`[test.txt: 2] error: unsupported syntax for "triangle"; expected 9 arguments: x0 y0 z0 x1 y1 z1 x2 y2 z2; got 6`,
		},
		{
			"light {\nbrightness 5\n}",
			`[test.txt: 2] error: unsupported directive "brightness" for "light" section`,
		},
		{
			"camera {\nfov abc\n}",
			`[test.txt: 2] error: strconv.ParseFloat: parsing "abc": invalid syntax`,
		},
	}

	for idx, s := range specs {
		r := newTextSceneReader(compiler.Options{})
		err := r.parse(NewResourceFromStream("test.txt", strings.NewReader(s.payload)))
		if err == nil || err.Error() != s.expError {
			t.Fatalf("[spec %d] expected error: %s; got %v", idx, s.expError, err)
		}
	}
}

func TestResolveIndexFallbacks(t *testing.T) {
	payload := `
transformation {
	translate 1 0 0
}

camera {
	transformation 9
}

light {
	transformation -4
}

sphere {
	transformation 7
	material 3
}
`
	sc := parseTestScene(t, payload)

	if sc.Camera.TransformIndex != -1 {
		t.Fatalf("expected out-of-range camera transform to fall back to -1; got %d", sc.Camera.TransformIndex)
	}
	if sc.Lights[0].TransformIndex != -1 {
		t.Fatalf("expected out-of-range light transform to fall back to -1; got %d", sc.Lights[0].TransformIndex)
	}
	if sc.Primitives[0].TransformIndex != -1 {
		t.Fatalf("expected out-of-range primitive transform to fall back to -1; got %d", sc.Primitives[0].TransformIndex)
	}

	// Identity fallback resolves to the identity matrix
	ident := types.Ident4()
	if !reflect.DeepEqual(sc.TransformMatrix(sc.Camera.TransformIndex), ident) {
		t.Fatal("expected fallback transform to resolve to the identity matrix")
	}
}

func TestEmptyMeshIsDropped(t *testing.T) {
	payload := `
mesh {
	material 0
}

sphere {
}
`
	sc := parseTestScene(t, payload)
	if len(sc.Primitives) != 1 || sc.Primitives[0].Type != input.SpherePrimitive {
		t.Fatalf("expected the empty mesh to be dropped; got %d primitives", len(sc.Primitives))
	}
}
