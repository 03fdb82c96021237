package tilt

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/idphoto/pkg/types"
)

// Outcome tells the caller whether a new buffer was produced
type Outcome int

const (
	// Unchanged means the source is returned as is and needs no re-detection
	Unchanged Outcome = iota
	// Rotated means a new, counter-rotated buffer of the same size was produced
	Rotated
)

func (o Outcome) String() string {
	if o == Rotated {
		return "rotated"
	}
	return "unchanged"
}

// Result of a tilt correction. Image is the source itself when Outcome is Unchanged.
type Result struct {
	Outcome Outcome
	Image   image.Image
	// Angle is the measured tilt of the eye line in radians (positive when the right eye sits lower)
	Angle float64
}

// Config holds the tilt correction parameters
type Config struct {
	// MinAngle is the smallest tilt, in radians, worth correcting
	MinAngle float64
	// Fill paints the canvas where the rotated source does not reach
	Fill color.Color
}

// DefaultConfig corrects anything from one degree upwards on a white canvas
func DefaultConfig() Config {
	return Config{
		MinAngle: math.Pi / 180,
		Fill:     color.White,
	}
}

// Corrector levels portraits along the eye line
type Corrector struct {
	config Config
}

// New creates a Corrector with the default configuration
func New() *Corrector {
	return &Corrector{config: DefaultConfig()}
}

// NewWithConfig creates a Corrector with custom parameters
func NewWithConfig(config Config) *Corrector {
	if math.IsNaN(config.MinAngle) || config.MinAngle < 0 {
		config.MinAngle = DefaultConfig().MinAngle
	}
	if config.Fill == nil {
		config.Fill = color.White
	}
	return &Corrector{config: config}
}

// Angle measures the eye-line tilt in radians on a w x h image.
// Coincident eyes yield zero.
func Angle(eyes types.EyePair, w, h int) float64 {
	lx := eyes.LeftEye.X * float64(w)
	ly := eyes.LeftEye.Y * float64(h)
	rx := eyes.RightEye.X * float64(w)
	ry := eyes.RightEye.Y * float64(h)

	angle := math.Atan2(ry-ly, rx-lx)
	if math.IsNaN(angle) {
		return 0
	}
	return angle
}

// Correct counter-rotates src about its center so the eye line becomes
// horizontal. The canvas keeps the source dimensions; corners that rotate
// out are dropped and uncovered areas keep the fill color.
//
// Face boxes computed on src are stale after a rotation; detect again on
// Result.Image before planning a crop.
func (c *Corrector) Correct(src image.Image, eyes types.EyePair) Result {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if !eyes.Valid() || w == 0 || h == 0 {
		return Result{Outcome: Unchanged, Image: src}
	}

	angle := Angle(eyes, w, h)
	if math.Abs(angle) < c.config.MinAngle {
		return Result{Outcome: Unchanged, Image: src, Angle: angle}
	}

	// imaging rotates counter-clockwise on screen; a positive angle means
	// the eye line drops to the right, so rotating by it levels the line.
	rotated := imaging.Rotate(src, angle*180/math.Pi, color.Transparent)

	canvas := imaging.New(w, h, c.config.Fill)
	canvas = imaging.OverlayCenter(canvas, rotated, 1.0)

	return Result{Outcome: Rotated, Image: canvas, Angle: angle}
}
