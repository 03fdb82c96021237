// Package idphoto composes identification photographs.
//
// A portrait goes through a fixed pipeline: an external face detector locates
// the face and eyes, a tilted head is levelled, a crop is planned around the
// face following ID-photo conventions, the crop is rendered at a physical
// print size, an optional generative editor finishes the photo, and copies
// are tiled onto a print sheet.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/menta2k/idphoto"
//		"github.com/menta2k/idphoto/pkg/processing"
//		"github.com/menta2k/idphoto/pkg/types"
//	)
//
//	func main() {
//		proc := processing.NewProcessor()
//		img, err := proc.LoadImage("portrait.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// no detector and no editor: center-fit crop only
//		composer := idphoto.New(idphoto.DefaultConfig(), nil, nil, nil)
//		result, err := composer.Compose(context.Background(), img, types.DefaultPhotoSize(), types.DefaultEditOptions())
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		if err := proc.SaveImage(result.Sheet, "sheet.jpg", "jpg", 95, false); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The geometry lives in four packages that never perform I/O:
//
// 1. Crop Planner (pkg/cropper): face box to normalized crop rectangle
// 2. Tilt Corrector (pkg/tilt): eye line levelling on a same-size canvas
// 3. Rasterizer (pkg/raster): crop rectangle to pixels at a physical size
// 4. Sheet Compositor (pkg/sheet): centered grid of copies with cut guides
//
// Face detection (pkg/detection with the ollama, llamacpp or gemini backends)
// and editing (pkg/editor with the gemini backend) are collaborators plugged
// into the Composer.
package idphoto

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"

	"go.uber.org/zap"

	"github.com/menta2k/idphoto/pkg/cropper"
	"github.com/menta2k/idphoto/pkg/raster"
	"github.com/menta2k/idphoto/pkg/sheet"
	"github.com/menta2k/idphoto/pkg/tilt"
	"github.com/menta2k/idphoto/pkg/types"
)

// Version of the idphoto library
const Version = "1.0.0"

// FaceDetector finds the main face of a portrait. It returns nil when there is none.
type FaceDetector interface {
	DetectFace(ctx context.Context, img image.Image) (*types.FaceDetection, error)
}

// PhotoEditor finishes a cropped photo (background, outfit, hair, retouching)
type PhotoEditor interface {
	Edit(ctx context.Context, img image.Image, opts types.EditOptions) (image.Image, error)
}

// Config wires the pipeline components together
type Config struct {
	// Density is shared by the rasterizer and the sheet compositor
	Density types.Density
	Cropper cropper.Config
	Tilt    tilt.Config
	// TiltTriggerDegrees is the eye line angle above which the portrait is levelled
	TiltTriggerDegrees float64
	Raster             raster.Config
	Sheet              sheet.Config
	// Fill pads crops that reach past the source
	Fill      color.Color
	SheetSize types.PhysicalSize
	SheetGap  float64
	// AutoOrient turns the sheet when landscape holds more copies
	AutoOrient bool
}

// DefaultConfig returns the standard pipeline: ~300 DPI, 1.5 degree tilt
// trigger, white padding and a 100x150 mm sheet with 2 mm gaps.
func DefaultConfig() Config {
	return Config{
		Density:            types.DefaultDensity,
		Cropper:            cropper.DefaultConfig(),
		Tilt:               tilt.DefaultConfig(),
		TiltTriggerDegrees: 1.5,
		Raster:             raster.DefaultConfig(),
		Sheet:              sheet.DefaultConfig(),
		Fill:               color.White,
		SheetSize:          types.DefaultSheetSize,
		SheetGap:           types.DefaultSheetGap,
	}
}

// Composer runs the ID photo pipeline
type Composer struct {
	config     Config
	planner    *cropper.Planner
	corrector  *tilt.Corrector
	rasterizer *raster.Rasterizer
	compositor *sheet.Compositor
	detector   FaceDetector
	editor     PhotoEditor
	logger     *zap.Logger
}

// New creates a Composer. detector and editor may be nil: without a detector
// every photo takes the center-fit crop, without an editor the crop itself is
// tiled. A nil logger discards output.
func New(config Config, detector FaceDetector, editor PhotoEditor, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !config.Density.Valid() {
		config.Density = types.DefaultDensity
	}
	if config.Fill == nil {
		config.Fill = color.White
	}
	if !config.SheetSize.Valid() {
		config.SheetSize = types.DefaultSheetSize
	}
	if math.IsNaN(config.SheetGap) || config.SheetGap < 0 {
		config.SheetGap = types.DefaultSheetGap
	}
	if math.IsNaN(config.TiltTriggerDegrees) || config.TiltTriggerDegrees < 0 {
		config.TiltTriggerDegrees = DefaultConfig().TiltTriggerDegrees
	}

	// one density for the whole chain
	config.Raster.Density = config.Density
	config.Sheet.Density = config.Density

	return &Composer{
		config:     config,
		planner:    cropper.NewWithConfig(config.Cropper),
		corrector:  tilt.NewWithConfig(config.Tilt),
		rasterizer: raster.NewWithConfig(config.Raster),
		compositor: sheet.NewWithConfig(config.Sheet),
		detector:   detector,
		editor:     editor,
		logger:     logger,
	}
}

// Prepared is a portrait ready for cropping
type Prepared struct {
	// Image is the levelled portrait, or the source when no rotation happened
	Image image.Image
	// Face was detected on Image; nil when none was found
	Face *types.FaceDetection
	// Angle is the measured eye line tilt in radians
	Angle   float64
	Outcome tilt.Outcome
}

// Result carries every stage of a full composition
type Result struct {
	Prepared Prepared
	Crop     types.NormalizedRect
	UsedFace bool
	// Cropped is the rasterized crop at the photo size
	Cropped *image.NRGBA
	// Final is the edited photo, or Cropped when no editor is configured
	Final  image.Image
	Sheet  *image.NRGBA
	Layout sheet.Layout
}

// Config returns the effective configuration
func (c *Composer) Config() Config {
	return c.config
}

// Prepare detects the face and levels the portrait when the eye line tilts
// more than the trigger angle. After a rotation the face is detected again;
// if that fails the old box is dropped rather than reused against rotated
// pixels. Detector failures degrade to "no face".
func (c *Composer) Prepare(ctx context.Context, img image.Image) (Prepared, error) {
	if img == nil || img.Bounds().Empty() {
		return Prepared{}, types.ErrBufferLoad
	}

	p := Prepared{Image: img, Outcome: tilt.Unchanged}
	p.Face = c.detect(ctx, img)
	if err := ctx.Err(); err != nil {
		return Prepared{}, err
	}
	if p.Face == nil || p.Face.Landmarks == nil {
		return p, nil
	}

	b := img.Bounds()
	p.Angle = tilt.Angle(*p.Face.Landmarks, b.Dx(), b.Dy())
	trigger := c.config.TiltTriggerDegrees * math.Pi / 180
	if math.Abs(p.Angle) <= trigger {
		c.logger.Debug("tilt within tolerance", zap.Float64("degrees", degrees(p.Angle)))
		return p, nil
	}

	res := c.corrector.Correct(img, *p.Face.Landmarks)
	p.Outcome = res.Outcome
	if res.Outcome != tilt.Rotated {
		return p, nil
	}

	c.logger.Info("levelled tilted portrait", zap.Float64("degrees", degrees(p.Angle)))
	p.Image = res.Image
	p.Face = c.detect(ctx, res.Image)
	if err := ctx.Err(); err != nil {
		return Prepared{}, err
	}
	if p.Face == nil {
		c.logger.Warn("no face after rotation, using center crop")
	}
	return p, nil
}

// Crop plans a crop for the target size around face (nil for none) and
// renders it with the configured fill.
func (c *Composer) Crop(img image.Image, face *types.FaceDetection, size types.PhysicalSize) (*image.NRGBA, types.NormalizedRect, error) {
	if !size.Valid() {
		return nil, types.NormalizedRect{}, types.ErrInvalidGeometry
	}

	var box *types.NormalizedBox
	if face != nil {
		box = &face.Box
	}
	b := img.Bounds()
	rect := c.planner.Plan(box, b.Dx(), b.Dy(), size.AspectRatio())

	c.logger.Debug("planned crop",
		zap.Bool("face", c.planner.UsesFace(box, b.Dx(), b.Dy(), size.AspectRatio())),
		zap.Float64("x", rect.X),
		zap.Float64("y", rect.Y),
		zap.Float64("width", rect.Width),
		zap.Float64("height", rect.Height),
	)

	out, err := c.rasterizer.Rasterize(img, rect, size, c.config.Fill)
	if err != nil {
		return nil, types.NormalizedRect{}, err
	}
	return out, rect, nil
}

// CropWithRect renders a caller-chosen crop, such as a manually adjusted box
func (c *Composer) CropWithRect(img image.Image, rect types.NormalizedRect, size types.PhysicalSize) (*image.NRGBA, error) {
	return c.rasterizer.Rasterize(img, rect, size, c.config.Fill)
}

// Sheet tiles photo at its declared size onto the configured sheet
func (c *Composer) Sheet(photo image.Image, size types.PhysicalSize) (*image.NRGBA, sheet.Layout, error) {
	sheetSize := c.config.SheetSize
	if c.config.AutoOrient {
		best, err := c.compositor.BestOrientation(size, sheetSize, c.config.SheetGap)
		if err != nil {
			return nil, sheet.Layout{}, err
		}
		sheetSize = best
	}

	out, layout, err := c.compositor.Compose(photo, size, sheetSize, c.config.SheetGap)
	if err != nil {
		return nil, sheet.Layout{}, err
	}

	c.logger.Debug("composed sheet",
		zap.Int("cols", layout.Cols),
		zap.Int("rows", layout.Rows),
		zap.Int("width", layout.Sheet.X),
		zap.Int("height", layout.Sheet.Y),
	)
	if layout.Count() == 0 {
		c.logger.Warn("photo does not fit on the sheet",
			zap.Float64("photo_width_mm", size.WidthMm),
			zap.Float64("photo_height_mm", size.HeightMm),
		)
	}
	return out, layout, nil
}

// Compose runs the whole pipeline. Any failure aborts the run and the partial
// result is discarded.
func (c *Composer) Compose(ctx context.Context, img image.Image, size types.PhysicalSize, opts types.EditOptions) (Result, error) {
	prepared, err := c.Prepare(ctx, img)
	if err != nil {
		return Result{}, err
	}

	var box *types.NormalizedBox
	if prepared.Face != nil {
		box = &prepared.Face.Box
	}
	b := prepared.Image.Bounds()
	usedFace := c.planner.UsesFace(box, b.Dx(), b.Dy(), size.AspectRatio())

	cropped, rect, err := c.Crop(prepared.Image, prepared.Face, size)
	if err != nil {
		return Result{}, err
	}

	var final image.Image = cropped
	if c.editor != nil {
		edited, err := c.editor.Edit(ctx, cropped, opts)
		if err != nil {
			c.logger.Error("photo editing failed", zap.Error(err))
			return Result{}, err
		}
		if edited == nil {
			return Result{}, types.ErrNoOutput
		}
		final = edited
	}

	sheetImg, layout, err := c.Sheet(final, size)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Prepared: prepared,
		Crop:     rect,
		UsedFace: usedFace,
		Cropped:  cropped,
		Final:    final,
		Sheet:    sheetImg,
		Layout:   layout,
	}, nil
}

// detect asks the detector for a face, treating errors as "no face"
func (c *Composer) detect(ctx context.Context, img image.Image) *types.FaceDetection {
	if c.detector == nil {
		return nil
	}

	face, err := c.detector.DetectFace(ctx, img)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("face detection failed", zap.Error(err))
		}
		return nil
	}
	if face == nil {
		c.logger.Info("no face detected")
		return nil
	}
	if !face.Box.Valid() {
		c.logger.Warn("ignoring malformed face box", zap.Any("box", face.Box))
		return nil
	}
	if face.Landmarks != nil && !face.Landmarks.Valid() {
		trimmed := *face
		trimmed.Landmarks = nil
		face = &trimmed
	}

	c.logger.Debug("face detected",
		zap.Float64("xmin", face.Box.XMin),
		zap.Float64("ymin", face.Box.YMin),
		zap.Float64("xmax", face.Box.XMax),
		zap.Float64("ymax", face.Box.YMax),
		zap.Bool("landmarks", face.Landmarks != nil),
	)
	return face
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
