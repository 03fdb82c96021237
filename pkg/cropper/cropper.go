package cropper

import (
	"math"

	"github.com/menta2k/idphoto/pkg/types"
)

// Planner turns a face box (or its absence) into an ID-photo crop rectangle
type Planner struct {
	config Config
}

// Config holds the composition rules used by the planner
type Config struct {
	// FaceHeightRatio is the share of the crop height taken by the face box
	FaceHeightRatio float64
	// HeadroomRatio places the top of the face this far down the crop, as a share of crop height
	HeadroomRatio float64
	// MinFaceSize rejects face boxes whose normalized width or height does not exceed it
	MinFaceSize float64
	// FallbackFill is the share of the constraining source dimension used by the center-fit crop
	FallbackFill float64
}

// safeSize is the side of the centered rectangle returned when nothing else is usable
const safeSize = 0.5

// DefaultConfig returns the standard ID-photo composition
func DefaultConfig() Config {
	return Config{
		FaceHeightRatio: 0.58,
		HeadroomRatio:   0.12,
		MinFaceSize:     0.05,
		FallbackFill:    0.8,
	}
}

// New creates a Planner with the default composition
func New() *Planner {
	return &Planner{config: DefaultConfig()}
}

// NewWithConfig creates a Planner with custom composition rules.
// Non-positive or non-finite fields fall back to their defaults.
func NewWithConfig(config Config) *Planner {
	def := DefaultConfig()
	if !positive(config.FaceHeightRatio) {
		config.FaceHeightRatio = def.FaceHeightRatio
	}
	if !finite(config.HeadroomRatio) || config.HeadroomRatio < 0 {
		config.HeadroomRatio = def.HeadroomRatio
	}
	if !finite(config.MinFaceSize) || config.MinFaceSize < 0 {
		config.MinFaceSize = def.MinFaceSize
	}
	if !positive(config.FallbackFill) || config.FallbackFill > 1 {
		config.FallbackFill = def.FallbackFill
	}
	return &Planner{config: config}
}

// Config returns the planner's composition rules
func (p *Planner) Config() Config {
	return p.config
}

// Plan computes the crop for a source of srcW x srcH pixels and a target
// aspect ratio (width / height). face may be nil. It never fails: unusable
// inputs resolve to the center-fit crop or a small centered rectangle.
func (p *Planner) Plan(face *types.NormalizedBox, srcW, srcH int, targetAR float64) types.NormalizedRect {
	imgAspect := float64(srcW) / float64(srcH)
	if !positive(imgAspect) || !positive(targetAR) {
		return safeRect()
	}

	rect, ok := p.faceCrop(face, imgAspect, targetAR)
	if !ok {
		rect = p.centerCrop(imgAspect, targetAR)
	}

	rect = fitInside(rect)
	if !usable(rect) {
		return safeRect()
	}
	return rect
}

// UsesFace reports whether Plan would frame the given box rather than fall back
func (p *Planner) UsesFace(face *types.NormalizedBox, srcW, srcH int, targetAR float64) bool {
	imgAspect := float64(srcW) / float64(srcH)
	if !positive(imgAspect) || !positive(targetAR) {
		return false
	}
	_, ok := p.faceCrop(face, imgAspect, targetAR)
	return ok
}

func (p *Planner) faceCrop(face *types.NormalizedBox, imgAspect, targetAR float64) (types.NormalizedRect, bool) {
	if face == nil || !face.Valid() {
		return types.NormalizedRect{}, false
	}
	faceW, faceH := face.Width(), face.Height()
	if faceW <= p.config.MinFaceSize || faceH <= p.config.MinFaceSize {
		return types.NormalizedRect{}, false
	}

	h := faceH / p.config.FaceHeightRatio
	// normalized width is relative to source width, hence the source aspect correction
	w := h / imgAspect * targetAR

	rect := types.NormalizedRect{
		X:      face.CenterX() - w/2,
		Y:      face.YMin - h*p.config.HeadroomRatio,
		Width:  w,
		Height: h,
	}
	return rect, usable(rect)
}

func (p *Planner) centerCrop(imgAspect, targetAR float64) types.NormalizedRect {
	var w, h float64
	if imgAspect > targetAR {
		// source is wider than the target: fit height
		h = p.config.FallbackFill
		w = h / imgAspect * targetAR
	} else {
		w = p.config.FallbackFill
		h = w * imgAspect / targetAR
	}
	return centered(w, h)
}

// fitInside scales a rectangle that spans more than the source on either
// axis down uniformly and re-centers it.
func fitInside(r types.NormalizedRect) types.NormalizedRect {
	if r.Width > 1 {
		scale := 1 / r.Width
		r = centered(r.Width*scale, r.Height*scale)
	}
	if r.Height > 1 {
		scale := 1 / r.Height
		r = centered(r.Width*scale, r.Height*scale)
	}
	return r
}

func centered(w, h float64) types.NormalizedRect {
	return types.NormalizedRect{X: 0.5 - w/2, Y: 0.5 - h/2, Width: w, Height: h}
}

func safeRect() types.NormalizedRect {
	return centered(safeSize, safeSize)
}

func usable(r types.NormalizedRect) bool {
	return r.Valid() && positive(r.Width) && positive(r.Height)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(v float64) bool {
	return finite(v) && v > 0
}
