package main

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/menta2k/idphoto"
	"github.com/menta2k/idphoto/pkg/processing"
	"github.com/menta2k/idphoto/pkg/types"
)

var cropCmd = &cobra.Command{
	Use:   "crop <image|url|dir>...",
	Short: "Crop portraits to a photo size without editing",
	Long: `Crop portraits to a physical photo size. The crop is framed around the
detected face unless --rect gives it explicitly as normalized x,y,width,height.
A rectangle reaching past the image is padded with the fill color; its aspect
in source pixels must match the photo size within raster.aspect_tolerance.

Examples:
  # Face-aware 3x4 crop
  idphoto crop portrait.jpg

  # Manual crop, no model needed
  idphoto crop --size 35x45 --rect 0.2,0.1,0.6,0.6 portrait.jpg

  # Crop and tile onto a sheet
  idphoto crop --sheet portrait.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrop,
}

func init() {
	rootCmd.AddCommand(cropCmd)

	addOutputFlags(cropCmd)
	addSheetFlags(cropCmd)
	addDetectorFlags(cropCmd)

	cropCmd.Flags().String("rect", "", "manual crop x,y,width,height in [0,1] units of the source")
	cropCmd.Flags().Bool("sheet", false, "also write the print sheet")
}

func runCrop(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	applyOutputFlags(cmd)
	applySheetFlags(cmd)
	applyDetectorFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	size, err := cfg.PhotoSize()
	if err != nil {
		return err
	}

	var manual *types.NormalizedRect
	if v := mustGetString(cmd, "rect"); v != "" {
		rect, err := parseRect(v)
		if err != nil {
			return err
		}
		manual = &rect
	}

	inputs, err := expandInputs(args)
	if err != nil {
		return err
	}

	var detector idphoto.FaceDetector
	if manual == nil && !mustGetBool(cmd, "no-detect") {
		if detector, err = newDetector(ctx); err != nil {
			return err
		}
	}
	composer, err := newComposer(detector, nil)
	if err != nil {
		return err
	}

	proc := processing.NewProcessor()
	withSheet := mustGetBool(cmd, "sheet")
	for _, input := range inputs {
		img, err := loadInput(ctx, proc, input)
		if err != nil {
			return err
		}

		var photo *image.NRGBA
		if manual != nil {
			photo, err = composer.CropWithRect(img, *manual, size)
		} else {
			var prepared idphoto.Prepared
			prepared, err = composer.Prepare(ctx, img)
			if err == nil {
				var rect types.NormalizedRect
				photo, rect, err = composer.Crop(prepared.Image, prepared.Face, size)
				logger.Debug("auto crop", zap.String("input", input), zap.Any("rect", rect))
			}
		}
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}

		if _, err := save(proc, photo, input, "", cfg.Output.Format); err != nil {
			return err
		}
		if withSheet {
			sheetImg, _, err := composer.Sheet(photo, size)
			if err != nil {
				return err
			}
			if _, err := save(proc, sheetImg, input, "sheet", cfg.Output.Format); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseRect reads "x,y,width,height"
func parseRect(s string) (types.NormalizedRect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return types.NormalizedRect{}, fmt.Errorf("--rect needs x,y,width,height, got %q", s)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return types.NormalizedRect{}, fmt.Errorf("--rect: bad number %q", p)
		}
		v[i] = f
	}

	rect := types.NormalizedRect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if !rect.Valid() {
		return types.NormalizedRect{}, fmt.Errorf("%w: --rect %q", types.ErrInvalidCrop, s)
	}
	return rect, nil
}
