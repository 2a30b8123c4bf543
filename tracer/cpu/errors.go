package cpu

import "errors"

var (
	ErrNoSceneData       = errors.New("cpu tracer: no scene data attached")
	ErrNoCameraData      = errors.New("cpu tracer: no camera data attached")
	ErrInvalidBufferSize = errors.New("cpu tracer: output buffer smaller than the attached frame")
	ErrBlockOutOfFrame   = errors.New("cpu tracer: block request outside the attached frame")
)
