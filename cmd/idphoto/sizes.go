package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/menta2k/idphoto/pkg/editor"
	"github.com/menta2k/idphoto/pkg/sheet"
	"github.com/menta2k/idphoto/pkg/types"
)

var sizesCmd = &cobra.Command{
	Use:   "sizes",
	Short: "List photo sizes with pixel dimensions and copies per sheet",
	Args:  cobra.NoArgs,
	RunE:  runSizes,
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the editing choices for backgrounds, outfits and hairstyles",
	Args:  cobra.NoArgs,
	Run:   runOptions,
}

func init() {
	rootCmd.AddCommand(sizesCmd)
	rootCmd.AddCommand(optionsCmd)
}

func runSizes(cmd *cobra.Command, args []string) error {
	density := types.Density(cfg.Density)
	compositor := sheet.NewWithConfig(sheet.Config{Density: density})
	sheetSize := cfg.SheetSize()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SIZE\tMM\tPIXELS\tCOPIES (%gx%g mm)\n", sheetSize.WidthMm, sheetSize.HeightMm)
	for _, preset := range types.PhotoSizes() {
		s := preset.Size
		layout, err := compositor.Plan(s, sheetSize, cfg.Sheet.GapMm)
		if err != nil {
			return err
		}
		copies := fmt.Sprintf("%d (%dx%d)", layout.Count(), layout.Cols, layout.Rows)

		best, err := compositor.BestOrientation(s, sheetSize, cfg.Sheet.GapMm)
		if err != nil {
			return err
		}
		if best != sheetSize {
			turned, err := compositor.Plan(s, best, cfg.Sheet.GapMm)
			if err != nil {
				return err
			}
			copies += fmt.Sprintf(", %d turned", turned.Count())
		}

		fmt.Fprintf(w, "%s\t%gx%g\t%dx%d\t%s\n",
			preset.Name, s.WidthMm, s.HeightMm, density.Px(s.WidthMm), density.Px(s.HeightMm), copies)
	}
	return w.Flush()
}

func runOptions(cmd *cobra.Command, args []string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "BACKGROUND\tLABEL\tCOLOR")
	for _, b := range editor.Backgrounds() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, b.Label, b.Hex)
	}

	fmt.Fprintln(w, "\nOUTFIT\tLABEL\tCOLORS")
	for _, o := range editor.OutfitTypes() {
		fmt.Fprintf(w, "%s\t%s\t%v\n", o.ID, o.Label, o.AllowedColors)
	}

	fmt.Fprintln(w, "\nOUTFIT COLOR\tLABEL\tCOLOR")
	for _, c := range editor.OutfitColors() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Label, c.Hex)
	}

	fmt.Fprintln(w, "\nHAIRSTYLE\tLABEL\t")
	for _, h := range editor.Hairstyles() {
		fmt.Fprintf(w, "%s\t%s\t\n", h.ID, h.Label)
	}
}
