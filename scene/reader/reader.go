package reader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mpoboas/cosig-raytracing/scene"
	"github.com/mpoboas/cosig-raytracing/scene/compiler"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*Resource) (*scene.Scene, error)
}

// Read a scene file and compile it into its optimized runtime format.
func ReadScene(filename string) (*scene.Scene, error) {
	return ReadSceneWithOptions(filename, compiler.Options{})
}

// Read a scene file forwarding compileOpts to the scene compiler. The
// reader is picked by file extension.
func ReadSceneWithOptions(filename string, compileOpts compiler.Options) (*scene.Scene, error) {
	res, err := NewResource(filename)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".txt":
		return newTextSceneReader(compileOpts).Read(res)
	default:
		return nil, fmt.Errorf("reader: no scene reader registered for %q files", ext)
	}
}
