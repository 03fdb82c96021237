package sheet

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/menta2k/idphoto/pkg/types"
)

// Layout describes how copies are tiled on a sheet, in pixels
type Layout struct {
	Cols   int
	Rows   int
	Photo  image.Point // size of one copy
	Gap    int
	Sheet  image.Point
	Origin image.Point // top-left of the first copy
}

// Count returns the number of copies on the sheet
func (l Layout) Count() int {
	return l.Cols * l.Rows
}

// Cell returns the bounds of the copy at column c, row r
func (l Layout) Cell(c, r int) image.Rectangle {
	x := l.Origin.X + c*(l.Photo.X+l.Gap)
	y := l.Origin.Y + r*(l.Photo.Y+l.Gap)
	return image.Rect(x, y, x+l.Photo.X, y+l.Photo.Y)
}

// Config holds sheet rendering parameters
type Config struct {
	Density    types.Density
	Background color.Color
	// Stroke outlines each copy as a cutting guide; nil disables it
	Stroke color.Color
}

// DefaultConfig renders a white sheet at ~300 DPI with light gray cut guides
func DefaultConfig() Config {
	return Config{
		Density:    types.DefaultDensity,
		Background: color.White,
		Stroke:     color.NRGBA{0xe2, 0xe8, 0xf0, 0xff},
	}
}

// Compositor tiles finished photos onto print sheets
type Compositor struct {
	config Config
}

// New creates a Compositor with the default configuration
func New() *Compositor {
	return &Compositor{config: DefaultConfig()}
}

// NewWithConfig creates a Compositor with custom parameters
func NewWithConfig(config Config) *Compositor {
	if !config.Density.Valid() {
		config.Density = types.DefaultDensity
	}
	if config.Background == nil {
		config.Background = color.White
	}
	return &Compositor{config: config}
}

// Plan computes the grid: as many whole copies as fit with gaps between
// neighbours (not around the edge), centered on both axes.
func (c *Compositor) Plan(photoSize, sheetSize types.PhysicalSize, gapMm float64) (Layout, error) {
	if !photoSize.Valid() {
		return Layout{}, fmt.Errorf("%w: photo size %gx%g mm", types.ErrInvalidGeometry, photoSize.WidthMm, photoSize.HeightMm)
	}
	if !sheetSize.Valid() {
		return Layout{}, fmt.Errorf("%w: sheet size %gx%g mm", types.ErrInvalidGeometry, sheetSize.WidthMm, sheetSize.HeightMm)
	}
	if math.IsNaN(gapMm) || math.IsInf(gapMm, 0) || gapMm < 0 {
		return Layout{}, fmt.Errorf("%w: gap %g mm", types.ErrInvalidGeometry, gapMm)
	}

	d := c.config.Density
	l := Layout{
		Photo: image.Pt(d.Px(photoSize.WidthMm), d.Px(photoSize.HeightMm)),
		Gap:   d.Px(gapMm),
		Sheet: image.Pt(d.Px(sheetSize.WidthMm), d.Px(sheetSize.HeightMm)),
	}
	if l.Photo.X <= 0 || l.Photo.Y <= 0 || l.Sheet.X <= 0 || l.Sheet.Y <= 0 {
		return Layout{}, fmt.Errorf("%w: sizes below one pixel", types.ErrInvalidGeometry)
	}

	l.Cols = (l.Sheet.X + l.Gap) / (l.Photo.X + l.Gap)
	l.Rows = (l.Sheet.Y + l.Gap) / (l.Photo.Y + l.Gap)
	if l.Count() == 0 {
		return l, nil
	}

	gridW := l.Cols*l.Photo.X + (l.Cols-1)*l.Gap
	gridH := l.Rows*l.Photo.Y + (l.Rows-1)*l.Gap
	l.Origin = image.Pt((l.Sheet.X-gridW)/2, (l.Sheet.Y-gridH)/2)
	return l, nil
}

// Compose draws every copy of photo onto a new sheet. The photo is scaled to
// the declared photoSize regardless of its own pixel dimensions. A photo
// larger than the sheet yields an empty sheet, not an error.
func (c *Compositor) Compose(photo image.Image, photoSize, sheetSize types.PhysicalSize, gapMm float64) (*image.NRGBA, Layout, error) {
	layout, err := c.Plan(photoSize, sheetSize, gapMm)
	if err != nil {
		return nil, Layout{}, err
	}

	canvas := imaging.New(layout.Sheet.X, layout.Sheet.Y, c.config.Background)
	if layout.Count() == 0 {
		return canvas, layout, nil
	}

	tile := photo
	if b := photo.Bounds(); b.Dx() != layout.Photo.X || b.Dy() != layout.Photo.Y {
		tile = imaging.Resize(photo, layout.Photo.X, layout.Photo.Y, imaging.Lanczos)
	}

	// with no gap an outline would cover the neighbouring copy
	strokes := c.config.Stroke != nil && layout.Gap > 0
	var stroke color.NRGBA
	if strokes {
		stroke = color.NRGBAModel.Convert(c.config.Stroke).(color.NRGBA)
	}

	for r := 0; r < layout.Rows; r++ {
		for col := 0; col < layout.Cols; col++ {
			cell := layout.Cell(col, r)
			draw.Draw(canvas, cell, tile, tile.Bounds().Min, draw.Over)
			if strokes {
				outline(canvas, cell, stroke)
			}
		}
	}

	return canvas, layout, nil
}

// BestOrientation returns the sheet orientation holding more copies.
// Ties keep the sheet as given.
func (c *Compositor) BestOrientation(photoSize, sheetSize types.PhysicalSize, gapMm float64) (types.PhysicalSize, error) {
	asIs, err := c.Plan(photoSize, sheetSize, gapMm)
	if err != nil {
		return sheetSize, err
	}
	turned, err := c.Plan(photoSize, sheetSize.Rotated(), gapMm)
	if err != nil {
		return sheetSize, err
	}
	if turned.Count() > asIs.Count() {
		return sheetSize.Rotated(), nil
	}
	return sheetSize, nil
}

// outline draws a one pixel rectangle just outside r
func outline(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	x0, y0, x1, y1 := r.Min.X-1, r.Min.Y-1, r.Max.X, r.Max.Y
	drawHLine(img, y0, x0, x1+1, c)
	drawHLine(img, y1, x0, x1+1, c)
	drawVLine(img, x0, y0, y1+1, c)
	drawVLine(img, x1, y0, y1+1, c)
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	x0, x1 = max(x0, b.Min.X), min(x1, b.Max.X)
	for x := x0; x < x1; x++ {
		img.SetNRGBA(x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	y0, y1 = max(y0, b.Min.Y), min(y1, b.Max.Y)
	for y := y0; y < y1; y++ {
		img.SetNRGBA(x, y, c)
	}
}
