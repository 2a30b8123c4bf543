package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mpoboas/cosig-raytracing/log"
	"github.com/mpoboas/cosig-raytracing/scene"
	"github.com/mpoboas/cosig-raytracing/scene/compiler"
	"github.com/mpoboas/cosig-raytracing/scene/input"
	"github.com/mpoboas/cosig-raytracing/types"
)

// Scene definitions are plain text files built out of brace-delimited
// sections. Lines starting with "#" and blank lines are skipped. The
// opening brace may share the section header line or sit alone on a
// following line; the closing brace sits alone on its own line.
//
// Supported sections and their directives:
//
//	image          resolution width height | background r g b
//	transformation translate x y z | rotate axis degrees | scale x y z
//	camera         transformation index | distance d | fov degrees
//	light          transformation index | color r g b | radius r
//	material       color r g b | ambient a | diffuse d | specular s |
//	               refraction t | ior n
//	sphere         transformation index | material index
//	box            transformation index | material index
//	mesh           transformation index | material index |
//	               triangle x0 y0 z0 x1 y1 z1 x2 y2 z2
//
// Transformations and materials are referenced by their zero-based
// definition order; index -1 (or an omitted directive) selects the
// identity transform and the default material respectively.
type textSceneReader struct {
	logger log.Logger

	// The parsed scene.
	rawScene *input.Scene

	// Compiler options forwarded once parsing completes.
	compileOpts compiler.Options
}

// A single non-empty line inside a brace-delimited section.
type sectionLine struct {
	num    int
	tokens []string
}

// Create a new text scene reader.
func newTextSceneReader(compileOpts compiler.Options) *textSceneReader {
	return &textSceneReader{
		logger:      log.New("text scene reader"),
		rawScene:    input.NewScene(),
		compileOpts: compileOpts,
	}
}

// Read scene definition.
func (r *textSceneReader) Read(sceneRes *Resource) (*scene.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	// Parse scene
	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	// Out-of-range references never fail a render; remap them to their
	// fallbacks before handing the scene to the compiler.
	r.resolveIndices(sceneRes.Path())

	r.logger.Noticef("parsed scene in %d ms", time.Since(start).Nanoseconds()/1e6)

	// Compile scene into an optimized, render-friendly format
	return compiler.Compile(r.rawScene, r.compileOpts)
}

// Generate an error message prefixed with the offending file location.
func (r *textSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	return fmt.Errorf("[%s: %d] error: %s", file, line, fmt.Sprintf(msgFormat, args...))
}

// Parse the text scene format.
func (r *textSceneReader) parse(res *Resource) error {
	var lineNum int = 0

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		sectionName := lineTokens[0]
		switch sectionName {
		case "image", "transformation", "camera", "light", "material", "sphere", "box", "mesh":
		default:
			return r.emitError(res.Path(), lineNum, `unknown section "%s"`, sectionName)
		}

		if len(lineTokens) > 2 || (len(lineTokens) == 2 && lineTokens[1] != "{") {
			return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected section name followed by "{"`, sectionName)
		}

		body, err := r.readSectionBody(res, scanner, &lineNum, sectionName, len(lineTokens) == 2)
		if err != nil {
			return err
		}

		switch sectionName {
		case "image":
			err = r.parseImage(res, body)
		case "transformation":
			err = r.parseTransformation(res, body)
		case "camera":
			err = r.parseCamera(res, body)
		case "light":
			err = r.parseLight(res, body)
		case "material":
			err = r.parseMaterial(res, body)
		case "sphere":
			err = r.parsePrimitive(res, body, "sphere", input.NewSphere(-1, -1))
		case "box":
			err = r.parsePrimitive(res, body, "box", input.NewBox(-1, -1))
		case "mesh":
			err = r.parseMesh(res, body)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Collect the body lines of a section up to its closing brace. When the
// section header did not carry the opening brace it is expected on the
// next non-empty line.
func (r *textSceneReader) readSectionBody(res *Resource, scanner *bufio.Scanner, lineNum *int, sectionName string, gotBrace bool) ([]sectionLine, error) {
	body := make([]sectionLine, 0)
	for scanner.Scan() {
		*lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		if !gotBrace {
			if len(lineTokens) != 1 || lineTokens[0] != "{" {
				return nil, r.emitError(res.Path(), *lineNum, `expected "{" after "%s" section header; got "%s"`, sectionName, lineTokens[0])
			}
			gotBrace = true
			continue
		}

		if lineTokens[0] == "}" {
			return body, nil
		}
		body = append(body, sectionLine{num: *lineNum, tokens: lineTokens})
	}

	return nil, r.emitError(res.Path(), *lineNum, `unterminated "%s" section; expected closing "}"`, sectionName)
}

// Parse frame settings.
func (r *textSceneReader) parseImage(res *Resource, body []sectionLine) error {
	var err error
	for _, line := range body {
		switch line.tokens[0] {
		case "resolution":
			if len(line.tokens) != 3 {
				return r.emitError(res.Path(), line.num, `unsupported syntax for "resolution"; expected 2 arguments; got %d`, len(line.tokens)-1)
			}
			dims := [2]uint32{}
			for tokIdx := 1; tokIdx <= 2; tokIdx++ {
				dim, err := strconv.ParseUint(line.tokens[tokIdx], 10, 32)
				if err != nil || dim == 0 {
					return r.emitError(res.Path(), line.num, `invalid "resolution" argument %d; expected a positive integer`, tokIdx)
				}
				dims[tokIdx-1] = uint32(dim)
			}
			r.rawScene.Settings.FrameW = dims[0]
			r.rawScene.Settings.FrameH = dims[1]
		case "background":
			r.rawScene.Settings.Background, err = parseVec3(line.tokens)
			if err != nil {
				return r.emitError(res.Path(), line.num, err.Error())
			}
		default:
			return r.emitError(res.Path(), line.num, `unsupported directive "%s" for "image" section`, line.tokens[0])
		}
	}
	return nil
}

// Parse a transformation block into an entry of the scene transform table.
func (r *textSceneReader) parseTransformation(res *Resource, body []sectionLine) error {
	xform := &input.Transform{}
	for _, line := range body {
		switch line.tokens[0] {
		case "translate", "scale":
			args, err := parseVec3(line.tokens)
			if err != nil {
				return r.emitError(res.Path(), line.num, err.Error())
			}
			opType := input.Translate
			if line.tokens[0] == "scale" {
				opType = input.Scale
			}
			xform.Ops = append(xform.Ops, input.TransformOp{Type: opType, Args: args})
		case "rotate":
			if len(line.tokens) != 3 {
				return r.emitError(res.Path(), line.num, `unsupported syntax for "rotate"; expected 2 arguments: axis angle; got %d`, len(line.tokens)-1)
			}

			var opType input.TransformOpType
			switch line.tokens[1] {
			case "x":
				opType = input.RotateX
			case "y":
				opType = input.RotateY
			case "z":
				opType = input.RotateZ
			default:
				return r.emitError(res.Path(), line.num, `unsupported rotation axis "%s"; expected one of: x, y, z`, line.tokens[1])
			}

			angle, err := strconv.ParseFloat(line.tokens[2], 32)
			if err != nil {
				return r.emitError(res.Path(), line.num, err.Error())
			}
			xform.Ops = append(xform.Ops, input.TransformOp{Type: opType, Args: types.Vec3{float32(angle), 0, 0}})
		default:
			return r.emitError(res.Path(), line.num, `unsupported directive "%s" for "transformation" section`, line.tokens[0])
		}
	}

	r.rawScene.Transforms = append(r.rawScene.Transforms, xform)
	return nil
}

// Parse camera parameters.
func (r *textSceneReader) parseCamera(res *Resource, body []sectionLine) error {
	var err error
	for _, line := range body {
		switch line.tokens[0] {
		case "transformation":
			r.rawScene.Camera.TransformIndex, err = parseIndex(line.tokens)
		case "distance":
			r.rawScene.Camera.Distance, err = parseFloat32(line.tokens)
		case "fov":
			r.rawScene.Camera.FOV, err = parseFloat32(line.tokens)
		default:
			return r.emitError(res.Path(), line.num, `unsupported directive "%s" for "camera" section`, line.tokens[0])
		}
		if err != nil {
			return r.emitError(res.Path(), line.num, err.Error())
		}
	}
	return nil
}

// Parse a point light definition.
func (r *textSceneReader) parseLight(res *Resource, body []sectionLine) error {
	var err error
	light := &input.Light{
		TransformIndex: -1,
		Color:          types.Vec3{1, 1, 1},
	}
	for _, line := range body {
		switch line.tokens[0] {
		case "transformation":
			light.TransformIndex, err = parseIndex(line.tokens)
		case "color":
			light.Color, err = parseVec3(line.tokens)
		case "radius":
			light.Radius, err = parseFloat32(line.tokens)
		default:
			return r.emitError(res.Path(), line.num, `unsupported directive "%s" for "light" section`, line.tokens[0])
		}
		if err != nil {
			return r.emitError(res.Path(), line.num, err.Error())
		}
	}

	r.rawScene.Lights = append(r.rawScene.Lights, light)
	return nil
}

// Parse a material definition into an entry of the scene material table.
func (r *textSceneReader) parseMaterial(res *Resource, body []sectionLine) error {
	var err error
	mat := &input.Material{
		Color: types.Vec3{1, 1, 1},
		IOR:   1.0,
	}
	for _, line := range body {
		switch line.tokens[0] {
		case "color":
			mat.Color, err = parseVec3(line.tokens)
		case "ambient":
			mat.Ambient, err = parseFloat32(line.tokens)
		case "diffuse":
			mat.Diffuse, err = parseFloat32(line.tokens)
		case "specular":
			mat.Specular, err = parseFloat32(line.tokens)
		case "refraction":
			mat.Refraction, err = parseFloat32(line.tokens)
		case "ior":
			mat.IOR, err = parseFloat32(line.tokens)
		default:
			return r.emitError(res.Path(), line.num, `unsupported directive "%s" for "material" section`, line.tokens[0])
		}
		if err != nil {
			return r.emitError(res.Path(), line.num, err.Error())
		}
	}

	r.rawScene.Materials = append(r.rawScene.Materials, mat)
	return nil
}

// Parse a primitive section that only carries transform and material
// references.
func (r *textSceneReader) parsePrimitive(res *Resource, body []sectionLine, sectionName string, prim *input.Primitive) error {
	var err error
	for _, line := range body {
		switch line.tokens[0] {
		case "transformation":
			prim.TransformIndex, err = parseIndex(line.tokens)
		case "material":
			prim.MaterialIndex, err = parseIndex(line.tokens)
		default:
			return r.emitError(res.Path(), line.num, `unsupported directive "%s" for "%s" section`, line.tokens[0], sectionName)
		}
		if err != nil {
			return r.emitError(res.Path(), line.num, err.Error())
		}
	}

	r.rawScene.Primitives = append(r.rawScene.Primitives, prim)
	return nil
}

// Parse a triangle mesh definition.
func (r *textSceneReader) parseMesh(res *Resource, body []sectionLine) error {
	var err error
	prim := input.NewMesh(-1, -1)
	for _, line := range body {
		switch line.tokens[0] {
		case "transformation":
			prim.TransformIndex, err = parseIndex(line.tokens)
		case "material":
			prim.MaterialIndex, err = parseIndex(line.tokens)
		case "triangle":
			if len(line.tokens) != 10 {
				return r.emitError(res.Path(), line.num, `unsupported syntax for "triangle"; expected 9 arguments: x0 y0 z0 x1 y1 z1 x2 y2 z2; got %d`, len(line.tokens)-1)
			}

			var verts [3]types.Vec3
			for vertIdx := 0; vertIdx < 3; vertIdx++ {
				for coordIdx := 0; coordIdx < 3; coordIdx++ {
					coord, err := strconv.ParseFloat(line.tokens[1+vertIdx*3+coordIdx], 32)
					if err != nil {
						return r.emitError(res.Path(), line.num, err.Error())
					}
					verts[vertIdx][coordIdx] = float32(coord)
				}
			}
			prim.AddTriangle(verts[0], verts[1], verts[2])
		default:
			return r.emitError(res.Path(), line.num, `unsupported directive "%s" for "mesh" section`, line.tokens[0])
		}
		if err != nil {
			return r.emitError(res.Path(), line.num, err.Error())
		}
	}

	if len(prim.Vertices) == 0 {
		r.logger.Warningf("dropping mesh primitive %d as it contains no triangles", len(r.rawScene.Primitives))
		return nil
	}

	r.rawScene.Primitives = append(r.rawScene.Primitives, prim)
	return nil
}

// Remap out-of-range transform references to the identity transform and
// warn about out-of-range material references. The renderer substitutes
// the default material for the latter when shading.
func (r *textSceneReader) resolveIndices(path string) {
	numXforms := len(r.rawScene.Transforms)
	numMats := len(r.rawScene.Materials)

	checkXform := func(owner string, index int) int {
		if index >= -1 && index < numXforms {
			return index
		}
		r.logger.Warningf(`%s: %s references undefined transformation %d; using identity`, path, owner, index)
		return -1
	}

	r.rawScene.Camera.TransformIndex = checkXform("camera", r.rawScene.Camera.TransformIndex)
	for lightIndex, light := range r.rawScene.Lights {
		light.TransformIndex = checkXform(fmt.Sprintf("light %d", lightIndex), light.TransformIndex)
	}
	for primIndex, prim := range r.rawScene.Primitives {
		prim.TransformIndex = checkXform(fmt.Sprintf("primitive %d", primIndex), prim.TransformIndex)
		if prim.MaterialIndex < -1 || prim.MaterialIndex >= numMats {
			r.logger.Warningf(`%s: primitive %d references undefined material %d; using the default material`, path, primIndex, prim.MaterialIndex)
		}
	}
}

// Parse a single index reference argument.
func parseIndex(lineTokens []string) (int, error) {
	if len(lineTokens) != 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseInt(lineTokens[1], 10, 32)
	if err != nil {
		return 0, err
	}

	return int(val), nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) != 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) != 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
