package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGeometry reports non-finite, non-positive or inverted geometry at a hard boundary
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInvalidCrop is the rasterizer's flavour of ErrInvalidGeometry
	ErrInvalidCrop = fmt.Errorf("invalid crop: %w", ErrInvalidGeometry)

	// ErrBufferLoad reports a source image that could not be decoded
	ErrBufferLoad = errors.New("image could not be loaded")

	// ErrNoOutput reports a collaborator that returned no usable image
	ErrNoOutput = errors.New("no output image produced")
)
