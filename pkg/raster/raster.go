package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/menta2k/idphoto/pkg/types"
)

// Config holds rasterization parameters
type Config struct {
	// Density converts the target millimeters to pixels
	Density types.Density
	// AspectTolerance is the largest accepted relative difference between the
	// horizontal and vertical scale factors. Zero disables the check.
	AspectTolerance float64
	// Kernel resamples the source; nil means Catmull-Rom
	Kernel draw.Interpolator
}

// DefaultConfig renders at ~300 DPI with Catmull-Rom resampling
func DefaultConfig() Config {
	return Config{
		Density: types.DefaultDensity,
		Kernel:  draw.CatmullRom,
	}
}

// Rasterizer renders a normalized crop of a source image at a physical size
type Rasterizer struct {
	config Config
}

// New creates a Rasterizer with the default configuration
func New() *Rasterizer {
	return &Rasterizer{config: DefaultConfig()}
}

// NewWithConfig creates a Rasterizer with custom parameters
func NewWithConfig(config Config) *Rasterizer {
	if !config.Density.Valid() {
		config.Density = types.DefaultDensity
	}
	if config.Kernel == nil {
		config.Kernel = draw.CatmullRom
	}
	if math.IsNaN(config.AspectTolerance) || config.AspectTolerance < 0 {
		config.AspectTolerance = 0
	}
	return &Rasterizer{config: config}
}

// Density returns the pixel density the rasterizer renders at
func (r *Rasterizer) Density() types.Density {
	return r.config.Density
}

// TargetSize returns the output pixel dimensions for a physical size
func (r *Rasterizer) TargetSize(target types.PhysicalSize) (int, int) {
	return r.config.Density.Px(target.WidthMm), r.config.Density.Px(target.HeightMm)
}

// Rasterize renders the crop region of src into a new buffer sized for target.
// The buffer starts filled with fill, so any part of the crop lying outside
// the source stays as solid padding. The whole source is placed by an affine
// transform mapping the crop origin to (0,0); everything outside the crop
// falls off the canvas.
func (r *Rasterizer) Rasterize(src image.Image, crop types.NormalizedRect, target types.PhysicalSize, fill color.Color) (*image.NRGBA, error) {
	if !crop.Valid() {
		return nil, fmt.Errorf("%w: %gx%g at (%g,%g)", types.ErrInvalidCrop, crop.Width, crop.Height, crop.X, crop.Y)
	}
	if !target.Valid() {
		return nil, fmt.Errorf("%w: target size %gx%g mm", types.ErrInvalidGeometry, target.WidthMm, target.HeightMm)
	}

	targetW, targetH := r.TargetSize(target)
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("%w: target size %gx%g mm is below one pixel", types.ErrInvalidGeometry, target.WidthMm, target.HeightMm)
	}

	bounds := src.Bounds()
	srcW, srcH := float64(bounds.Dx()), float64(bounds.Dy())

	sourceX := crop.X * srcW
	sourceY := crop.Y * srcH
	sourceW := crop.Width * srcW
	sourceH := crop.Height * srcH
	if !(sourceW > 0) || !(sourceH > 0) || math.IsInf(sourceW, 0) || math.IsInf(sourceH, 0) {
		return nil, fmt.Errorf("%w: source region %gx%g px", types.ErrInvalidCrop, sourceW, sourceH)
	}

	scaleX := float64(targetW) / sourceW
	scaleY := float64(targetH) / sourceH
	if tol := r.config.AspectTolerance; tol > 0 {
		if diff := math.Abs(scaleX-scaleY) / math.Max(scaleX, scaleY); diff > tol {
			return nil, fmt.Errorf("%w: crop aspect does not match target (scale %g vs %g)", types.ErrInvalidGeometry, scaleX, scaleY)
		}
	}

	if fill == nil {
		fill = color.White
	}
	dst := imaging.New(targetW, targetH, fill)

	// source pixel (bounds.Min + s) lands at ((s - sourceOrigin) * scale)
	s2d := f64.Aff3{
		scaleX, 0, -(float64(bounds.Min.X) + sourceX) * scaleX,
		0, scaleY, -(float64(bounds.Min.Y) + sourceY) * scaleY,
	}
	r.config.Kernel.Transform(dst, s2d, src, bounds, draw.Over, nil)

	return dst, nil
}
