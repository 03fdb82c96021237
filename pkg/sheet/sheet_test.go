package sheet

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/menta2k/idphoto/pkg/types"
)

var (
	photoColor = color.NRGBA{200, 40, 40, 255}
	white      = color.NRGBA{255, 255, 255, 255}
	guide      = color.NRGBA{0xe2, 0xe8, 0xf0, 0xff}
)

// createTestImage creates a solid photo
func createTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = photoColor.R, photoColor.G, photoColor.B, photoColor.A
	}
	return img
}

func colorAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

// nearPhoto tolerates resampling rounding
func nearPhoto(c color.NRGBA) bool {
	d := func(a, b uint8) bool { return math.Abs(float64(a)-float64(b)) <= 2 }
	return d(c.R, photoColor.R) && d(c.G, photoColor.G) && d(c.B, photoColor.B) && d(c.A, photoColor.A)
}

func TestPlanDefaultSheet(t *testing.T) {
	c := New()

	layout, err := c.Plan(types.PhysicalSize{WidthMm: 30, HeightMm: 40}, types.DefaultSheetSize, types.DefaultSheetGap)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if layout.Sheet != image.Pt(1181, 1772) {
		t.Errorf("Expected sheet 1181x1772, got %v", layout.Sheet)
	}
	if layout.Photo != image.Pt(354, 472) {
		t.Errorf("Expected photo 354x472, got %v", layout.Photo)
	}
	if layout.Gap != 24 {
		t.Errorf("Expected gap 24, got %d", layout.Gap)
	}
	if layout.Cols != 3 || layout.Rows != 3 {
		t.Errorf("Expected 3x3 grid, got %dx%d", layout.Cols, layout.Rows)
	}

	last := layout.Cell(layout.Cols-1, layout.Rows-1)
	left, right := layout.Origin.X, layout.Sheet.X-last.Max.X
	top, bottom := layout.Origin.Y, layout.Sheet.Y-last.Max.Y
	if math.Abs(float64(left-right)) > 1 {
		t.Errorf("Expected equal horizontal margins, got %d and %d", left, right)
	}
	if math.Abs(float64(top-bottom)) > 1 {
		t.Errorf("Expected equal vertical margins, got %d and %d", top, bottom)
	}
}

func TestPlanCounts(t *testing.T) {
	c := New()

	tests := []struct {
		photo      types.PhysicalSize
		cols, rows int
	}{
		{types.PhysicalSize{WidthMm: 35, HeightMm: 45}, 2, 3},
		{types.PhysicalSize{WidthMm: 20, HeightMm: 30}, 4, 4},
		{types.PhysicalSize{WidthMm: 50, HeightMm: 50}, 1, 2},
		{types.PhysicalSize{WidthMm: 40, HeightMm: 60}, 2, 2},
	}
	for _, test := range tests {
		layout, err := c.Plan(test.photo, types.DefaultSheetSize, types.DefaultSheetGap)
		if err != nil {
			t.Fatalf("Plan(%v) failed: %v", test.photo, err)
		}
		if layout.Cols != test.cols || layout.Rows != test.rows {
			t.Errorf("Photo %v: expected %dx%d, got %dx%d", test.photo, test.cols, test.rows, layout.Cols, layout.Rows)
		}
	}
}

func TestPlanInvalidGeometry(t *testing.T) {
	c := New()
	photo := types.PhysicalSize{WidthMm: 30, HeightMm: 40}

	cases := []struct {
		photo, sheet types.PhysicalSize
		gap          float64
	}{
		{types.PhysicalSize{}, types.DefaultSheetSize, 2},
		{photo, types.PhysicalSize{WidthMm: -1, HeightMm: 150}, 2},
		{photo, types.DefaultSheetSize, -2},
		{photo, types.DefaultSheetSize, math.NaN()},
		{types.PhysicalSize{WidthMm: 0.01, HeightMm: 0.01}, types.DefaultSheetSize, 2},
	}
	for _, tc := range cases {
		if _, err := c.Plan(tc.photo, tc.sheet, tc.gap); !errors.Is(err, types.ErrInvalidGeometry) {
			t.Errorf("Plan(%v, %v, %v): expected ErrInvalidGeometry, got %v", tc.photo, tc.sheet, tc.gap, err)
		}
	}
}

func TestCompose(t *testing.T) {
	c := New()
	size := types.PhysicalSize{WidthMm: 30, HeightMm: 40}

	out, layout, err := c.Compose(createTestImage(354, 472), size, types.DefaultSheetSize, types.DefaultSheetGap)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if out.Bounds().Dx() != layout.Sheet.X || out.Bounds().Dy() != layout.Sheet.Y {
		t.Errorf("Expected sheet %v, got %v", layout.Sheet, out.Bounds().Size())
	}

	for r := 0; r < layout.Rows; r++ {
		for col := 0; col < layout.Cols; col++ {
			cell := layout.Cell(col, r)
			center := image.Pt((cell.Min.X+cell.Max.X)/2, (cell.Min.Y+cell.Max.Y)/2)
			if got := colorAt(out, center.X, center.Y); got != photoColor {
				t.Errorf("Cell (%d,%d): expected photo at center, got %v", col, r, got)
			}
			if got := colorAt(out, cell.Min.X, cell.Min.Y); got != photoColor {
				t.Errorf("Cell (%d,%d): stroke overlaps the photo corner: %v", col, r, got)
			}
			if got := colorAt(out, cell.Min.X-1, center.Y); got != guide {
				t.Errorf("Cell (%d,%d): expected cut guide left of the photo, got %v", col, r, got)
			}
			if got := colorAt(out, cell.Max.X, center.Y); got != guide {
				t.Errorf("Cell (%d,%d): expected cut guide right of the photo, got %v", col, r, got)
			}
		}
	}

	first := layout.Cell(0, 0)
	gapX := first.Max.X + layout.Gap/2
	if got := colorAt(out, gapX, (first.Min.Y+first.Max.Y)/2); got != white {
		t.Errorf("Expected white between copies, got %v", got)
	}
	if got := colorAt(out, 2, 2); got != white {
		t.Errorf("Expected white margin, got %v", got)
	}
}

func TestComposeScalesToDeclaredSize(t *testing.T) {
	c := New()
	size := types.PhysicalSize{WidthMm: 35, HeightMm: 45}

	// editors may hand back any resolution
	out, layout, err := c.Compose(createTestImage(768, 1024), size, types.DefaultSheetSize, types.DefaultSheetGap)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if layout.Photo != image.Pt(413, 531) {
		t.Errorf("Expected copies of 413x531, got %v", layout.Photo)
	}

	cell := layout.Cell(1, 2)
	if got := colorAt(out, cell.Max.X-2, cell.Max.Y-2); !nearPhoto(got) {
		t.Errorf("Expected the copy to fill its cell, got %v", got)
	}
	if got := colorAt(out, cell.Max.X+2, cell.Max.Y+2); nearPhoto(got) {
		t.Error("Expected the copy not to spill past its cell")
	}
}

func TestComposePhotoLargerThanSheet(t *testing.T) {
	c := New()
	size := types.PhysicalSize{WidthMm: 120, HeightMm: 160}

	out, layout, err := c.Compose(createTestImage(100, 100), size, types.DefaultSheetSize, types.DefaultSheetGap)
	if err != nil {
		t.Fatalf("Expected no error for an oversized photo, got %v", err)
	}
	if layout.Count() != 0 {
		t.Errorf("Expected zero copies, got %d", layout.Count())
	}
	b := out.Bounds()
	for _, pt := range []image.Point{{0, 0}, {b.Dx() / 2, b.Dy() / 2}, {b.Dx() - 1, b.Dy() - 1}} {
		if got := colorAt(out, pt.X, pt.Y); got != white {
			t.Errorf("Expected blank sheet at %v, got %v", pt, got)
		}
	}
}

func TestComposeWithoutGapSkipsGuides(t *testing.T) {
	c := New()
	size := types.PhysicalSize{WidthMm: 25, HeightMm: 50}

	out, layout, err := c.Compose(createTestImage(10, 10), size, types.DefaultSheetSize, 0)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if layout.Cols != 4 || layout.Rows != 2 {
		t.Fatalf("Expected 4x2 grid, got %dx%d", layout.Cols, layout.Rows)
	}

	cell := layout.Cell(1, 1)
	if got := colorAt(out, cell.Min.X, cell.Min.Y+5); !nearPhoto(got) {
		t.Errorf("Expected adjacent copies to stay intact, got %v", got)
	}
}

func TestComposeWithoutStroke(t *testing.T) {
	c := NewWithConfig(Config{Density: types.DefaultDensity})
	size := types.PhysicalSize{WidthMm: 30, HeightMm: 40}

	out, layout, err := c.Compose(createTestImage(354, 472), size, types.DefaultSheetSize, types.DefaultSheetGap)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	cell := layout.Cell(0, 0)
	if got := colorAt(out, cell.Min.X-1, cell.Min.Y+10); got != white {
		t.Errorf("Expected no cut guide, got %v", got)
	}
}

func TestBestOrientation(t *testing.T) {
	c := New()

	got, err := c.BestOrientation(types.PhysicalSize{WidthMm: 35, HeightMm: 45}, types.DefaultSheetSize, types.DefaultSheetGap)
	if err != nil {
		t.Fatalf("BestOrientation failed: %v", err)
	}
	if got != (types.PhysicalSize{WidthMm: 150, HeightMm: 100}) {
		t.Errorf("Expected landscape sheet for passport photos, got %v", got)
	}

	got, err = c.BestOrientation(types.PhysicalSize{WidthMm: 30, HeightMm: 40}, types.DefaultSheetSize, types.DefaultSheetGap)
	if err != nil {
		t.Fatalf("BestOrientation failed: %v", err)
	}
	if got != types.DefaultSheetSize {
		t.Errorf("Expected portrait sheet for 3x4 photos, got %v", got)
	}
}

func BenchmarkCompose(b *testing.B) {
	c := New()
	photo := createTestImage(354, 472)
	size := types.PhysicalSize{WidthMm: 30, HeightMm: 40}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Compose(photo, size, types.DefaultSheetSize, types.DefaultSheetGap)
	}
}
