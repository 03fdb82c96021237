package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/menta2k/idphoto"
	"github.com/menta2k/idphoto/pkg/processing"
	"github.com/menta2k/idphoto/pkg/types"
)

var composeCmd = &cobra.Command{
	Use:   "compose <image|url|dir>...",
	Short: "Run the full pipeline and write the photo and its print sheet",
	Long: `Detect the face, level the head, crop to the photo size, optionally restyle
with Gemini, and tile copies onto the print sheet.

Examples:
  # 3x4 cm photo and sheet using a local Ollama model
  idphoto compose portrait.jpg

  # Passport size on a blue background with a suit
  idphoto compose --size 3.5x4.5 --edit --background blue --outfit suit --outfit-color navy portrait.jpg

  # Every image of a folder, detected with llama.cpp, plus debug overlays
  idphoto compose --backend llamacpp --debug ./portraits`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompose,
}

func init() {
	rootCmd.AddCommand(composeCmd)

	addOutputFlags(composeCmd)
	addSheetFlags(composeCmd)
	addDetectorFlags(composeCmd)

	composeCmd.Flags().Bool("edit", false, "restyle the photo with Gemini (needs GEMINI_API_KEY)")
	composeCmd.Flags().String("background", "", "background: original, white, blue, gray, red, green, cyan")
	composeCmd.Flags().String("outfit", "", "outfit: original, suit, suit_no_tie, shirt, ao_dai, tshirt")
	composeCmd.Flags().String("outfit-color", "", "outfit color (first allowed color when empty)")
	composeCmd.Flags().String("hairstyle", "", "hairstyle: original, neat, short, long_straight, bun")
	composeCmd.Flags().Bool("beautify", false, "subtle skin retouching")
	composeCmd.Flags().Bool("lighting", false, "even out the face lighting")
	composeCmd.Flags().Bool("debug", false, "also write an overlay with the face, eyes and crop")
	composeCmd.Flags().Bool("no-sheet", false, "skip the print sheet")
}

func runCompose(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	applyOutputFlags(cmd)
	applySheetFlags(cmd)
	applyDetectorFlags(cmd)
	if mustGetBool(cmd, "edit") {
		cfg.Editor.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	size, err := cfg.PhotoSize()
	if err != nil {
		return err
	}
	opts := types.EditOptions{
		Background:  mustGetString(cmd, "background"),
		OutfitType:  mustGetString(cmd, "outfit"),
		OutfitColor: mustGetString(cmd, "outfit-color"),
		Hairstyle:   mustGetString(cmd, "hairstyle"),
		Beautify:    mustGetBool(cmd, "beautify"),
		Lighting:    mustGetBool(cmd, "lighting"),
	}
	debug := mustGetBool(cmd, "debug")
	withSheet := !mustGetBool(cmd, "no-sheet")

	inputs, err := expandInputs(args)
	if err != nil {
		return err
	}

	var detector idphoto.FaceDetector
	if !mustGetBool(cmd, "no-detect") {
		if detector, err = newDetector(ctx); err != nil {
			return err
		}
	}
	var ed idphoto.PhotoEditor
	if cfg.Editor.Enabled {
		if ed, err = newEditor(ctx); err != nil {
			return err
		}
	}
	composer, err := newComposer(detector, ed)
	if err != nil {
		return err
	}

	proc := processing.NewProcessor()
	failed := 0
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}

		log := logger.With(zap.String("input", input))
		img, err := loadInput(ctx, proc, input)
		if err != nil {
			log.Error("failed to load image", zap.Error(err))
			failed++
			continue
		}

		result, err := composer.Compose(ctx, img, size, opts)
		if err != nil {
			log.Error("composition failed", zap.Error(err))
			failed++
			continue
		}
		log.Info("composed photo",
			zap.Bool("face", result.UsedFace),
			zap.Stringer("tilt", result.Prepared.Outcome),
			zap.Int("copies", result.Layout.Count()),
		)

		if _, err := save(proc, result.Final, input, "", cfg.Output.Format); err != nil {
			return err
		}
		if withSheet {
			if _, err := save(proc, result.Sheet, input, "sheet", cfg.Output.Format); err != nil {
				return err
			}
		}
		if debug {
			overlay := proc.CreateDebugOverlay(result.Prepared.Image, result.Prepared.Face, &result.Crop)
			if _, err := save(proc, overlay, input, "debug", "png"); err != nil {
				return err
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(inputs))
	}
	return nil
}
