package renderer

import "errors"

// Errors returned by renderer operations. ErrInterrupted signals an
// aborted render rather than a failed one; the frame buffer still holds
// every row completed before the abort.
var (
	ErrNoTracers        = errors.New("renderer: no render workers available")
	ErrSceneNotDefined  = errors.New("renderer: scene is nil")
	ErrCameraNotDefined = errors.New("renderer: scene defines no camera")
	ErrInterrupted      = errors.New("renderer: render interrupted")
)
