package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/menta2k/idphoto/pkg/processing"
)

var sheetCmd = &cobra.Command{
	Use:   "sheet <photo>...",
	Short: "Tile finished photos onto a print sheet",
	Long: `Tile a finished photo onto the print sheet. The photo is scaled to the
declared --size whatever its pixel dimensions, so pass the size it was made for.

Examples:
  # 3x4 cm copies on the default 10x15 cm sheet
  idphoto sheet photo_id.jpg

  # Passport copies, landscape if that fits more
  idphoto sheet --size 35x45 --auto-orient photo_id.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSheet,
}

func init() {
	rootCmd.AddCommand(sheetCmd)

	addOutputFlags(sheetCmd)
	addSheetFlags(sheetCmd)
	sheetCmd.Flags().Float64("gap", -1, "gap between copies in mm (default from config)")
}

func runSheet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	applyOutputFlags(cmd)
	applySheetFlags(cmd)
	gap, err := cmd.Flags().GetFloat64("gap")
	if err != nil {
		return err
	}
	if gap >= 0 {
		cfg.Sheet.GapMm = gap
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	size, err := cfg.PhotoSize()
	if err != nil {
		return err
	}
	composer, err := newComposer(nil, nil)
	if err != nil {
		return err
	}

	inputs, err := expandInputs(args)
	if err != nil {
		return err
	}

	proc := processing.NewProcessor()
	for _, input := range inputs {
		photo, err := loadInput(ctx, proc, input)
		if err != nil {
			return err
		}

		out, layout, err := composer.Sheet(photo, size)
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		if layout.Count() == 0 {
			logger.Warn("photo larger than the sheet, writing an empty sheet", zap.String("input", input))
		}

		if _, err := save(proc, out, input, "sheet", cfg.Output.Format); err != nil {
			return err
		}
	}
	return nil
}
