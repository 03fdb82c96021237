package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
// Flags are defined in init(), so a lookup error is a programming bug.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// addOutputFlags registers the flags shared by every command that writes images
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out", "o", "", "output directory (default from config)")
	cmd.Flags().String("format", "", "output format: jpg, png or webp (default from config)")
	cmd.Flags().Int("quality", 0, "JPEG/WebP quality 1-100 (default from config)")
	cmd.Flags().Bool("lossless", false, "lossless WebP output")
	cmd.Flags().StringP("size", "s", "", `photo size: catalog name ("3x4", "3.5x4.5") or WxH in mm (default from config)`)
}

// applyOutputFlags folds command line overrides into the loaded config
func applyOutputFlags(cmd *cobra.Command) {
	if v := mustGetString(cmd, "out"); v != "" {
		cfg.Output.OutputDir = v
	}
	if v := mustGetString(cmd, "format"); v != "" {
		cfg.Output.Format = v
	}
	if v := mustGetInt(cmd, "quality"); v > 0 {
		cfg.Output.Quality = v
	}
	if mustGetBool(cmd, "lossless") {
		cfg.Output.Lossless = true
	}
	if v := mustGetString(cmd, "size"); v != "" {
		cfg.Output.PhotoSize = v
	}
}

// addSheetFlags registers the print sheet flags
func addSheetFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("auto-orient", false, "turn the sheet landscape when that fits more copies")
}

func applySheetFlags(cmd *cobra.Command) {
	if mustGetBool(cmd, "auto-orient") {
		cfg.Sheet.AutoOrient = true
	}
}

// addDetectorFlags registers the face detector flags
func addDetectorFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", "", "face detector backend: ollama, llamacpp or gemini (default from config)")
	cmd.Flags().String("url", "", "detector server URL (default depends on backend)")
	cmd.Flags().String("model", "", "detector model name (default depends on backend)")
	cmd.Flags().Bool("no-detect", false, "skip face detection and use the center crop")
}

func applyDetectorFlags(cmd *cobra.Command) {
	if v := mustGetString(cmd, "backend"); v != "" {
		cfg.Detector.Backend = v
	}
	if v := mustGetString(cmd, "url"); v != "" {
		cfg.Detector.URL = v
	}
	if v := mustGetString(cmd, "model"); v != "" {
		cfg.Detector.Model = v
	}
}
