package types

import (
	"math"
)

// NormalizedBox is an axis-aligned face box with edges in [0,1] relative to image width/height
type NormalizedBox struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// Width returns the normalized box width
func (b NormalizedBox) Width() float64 {
	return b.XMax - b.XMin
}

// Height returns the normalized box height
func (b NormalizedBox) Height() float64 {
	return b.YMax - b.YMin
}

// CenterX returns the horizontal center of the box
func (b NormalizedBox) CenterX() float64 {
	return (b.XMin + b.XMax) / 2
}

// Valid reports whether every edge is finite, inside [0,1] and properly ordered
func (b NormalizedBox) Valid() bool {
	for _, v := range []float64{b.XMin, b.YMin, b.XMax, b.YMax} {
		if !isUnit(v) {
			return false
		}
	}
	return b.XMax > b.XMin && b.YMax > b.YMin
}

// Point is a 2-D point in normalized coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether both coordinates are finite and inside [0,1]
func (p Point) Valid() bool {
	return isUnit(p.X) && isUnit(p.Y)
}

// EyePair holds the eye centers, left and right from the viewer's perspective
type EyePair struct {
	LeftEye  Point `json:"leftEye"`
	RightEye Point `json:"rightEye"`
}

// Valid reports whether both eye points are usable
func (e EyePair) Valid() bool {
	return e.LeftEye.Valid() && e.RightEye.Valid()
}

// FaceDetection is what a face detector hands back for a single portrait
type FaceDetection struct {
	Box       NormalizedBox `json:"box"`
	Landmarks *EyePair      `json:"landmarks,omitempty"`
}

// NormalizedRect is a crop region relative to the source dimensions.
// It may extend past [0,1]; the uncovered area is padded at rasterization.
type NormalizedRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether all fields are finite and the extent is positive
func (r NormalizedRect) Valid() bool {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width > 0 && r.Height > 0
}

// PhysicalSize is a print dimension in millimeters
type PhysicalSize struct {
	WidthMm  float64 `json:"width_mm" yaml:"width_mm"`
	HeightMm float64 `json:"height_mm" yaml:"height_mm"`
}

// AspectRatio returns width over height
func (s PhysicalSize) AspectRatio() float64 {
	return s.WidthMm / s.HeightMm
}

// Valid reports whether both dimensions are finite and positive
func (s PhysicalSize) Valid() bool {
	return isPositive(s.WidthMm) && isPositive(s.HeightMm)
}

// Rotated swaps width and height
func (s PhysicalSize) Rotated() PhysicalSize {
	return PhysicalSize{WidthMm: s.HeightMm, HeightMm: s.WidthMm}
}

// EditOptions is the structured request passed to the generative editor
type EditOptions struct {
	Background  string `json:"background" yaml:"background"`
	OutfitType  string `json:"outfit_type" yaml:"outfit_type"`
	OutfitColor string `json:"outfit_color" yaml:"outfit_color"`
	Hairstyle   string `json:"hairstyle" yaml:"hairstyle"`
	Beautify    bool   `json:"beautify" yaml:"beautify"`
	Lighting    bool   `json:"lighting" yaml:"lighting"`
}

// DefaultEditOptions keeps everything as photographed
func DefaultEditOptions() EditOptions {
	return EditOptions{
		Background: "original",
		OutfitType: "original",
		Hairstyle:  "original",
	}
}

func isUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func isPositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
