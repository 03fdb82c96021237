package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Density converts millimeters to pixels
type Density float64

// DefaultDensity is roughly 300 DPI
const DefaultDensity Density = 11.81

// Px converts a length in millimeters to whole pixels
func (d Density) Px(mm float64) int {
	return int(math.Round(mm * float64(d)))
}

// Valid reports whether the density can produce pixel sizes
func (d Density) Valid() bool {
	return isPositive(float64(d))
}

// SizePreset is a named entry of the physical size catalog
type SizePreset struct {
	Name string
	Size PhysicalSize
}

var catalog = []SizePreset{
	{"3x4 cm", PhysicalSize{30, 40}},
	{"4x6 cm", PhysicalSize{40, 60}},
	{"2x3 cm", PhysicalSize{20, 30}},
	{"3.5x4.5 cm (Passport)", PhysicalSize{35, 45}},
	{"5x5 cm", PhysicalSize{50, 50}},
}

// Common sheet defaults
var (
	DefaultSheetSize = PhysicalSize{WidthMm: 100, HeightMm: 150}
	DefaultSheetGap  = 2.0
)

// PhotoSizes returns a copy of the size catalog in display order
func PhotoSizes() []SizePreset {
	out := make([]SizePreset, len(catalog))
	copy(out, catalog)
	return out
}

// DefaultPhotoSize is the first catalog entry (3x4 cm)
func DefaultPhotoSize() PhysicalSize {
	return catalog[0].Size
}

// LookupSize finds a catalog entry by name, ignoring case.
// Short forms such as "3x4" or "3.5x4.5" also match.
func LookupSize(name string) (SizePreset, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, p := range catalog {
		full := strings.ToLower(p.Name)
		if full == needle || strings.Fields(full)[0] == needle {
			return p, true
		}
	}
	return SizePreset{}, false
}

// ParseSize accepts a catalog name or an explicit "WxH" in millimeters (e.g. "35x45")
func ParseSize(s string) (PhysicalSize, error) {
	if p, ok := LookupSize(s); ok {
		return p.Size, nil
	}

	parts := strings.Split(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "mm"), "x")
	if len(parts) != 2 {
		return PhysicalSize{}, fmt.Errorf("%w: cannot parse size %q", ErrInvalidGeometry, s)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return PhysicalSize{}, fmt.Errorf("%w: bad width in %q", ErrInvalidGeometry, s)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return PhysicalSize{}, fmt.Errorf("%w: bad height in %q", ErrInvalidGeometry, s)
	}

	size := PhysicalSize{WidthMm: w, HeightMm: h}
	if !size.Valid() {
		return PhysicalSize{}, fmt.Errorf("%w: size %q must be positive", ErrInvalidGeometry, s)
	}
	return size, nil
}
