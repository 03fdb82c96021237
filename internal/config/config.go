package config

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/idphoto"
	"github.com/menta2k/idphoto/pkg/cropper"
	"github.com/menta2k/idphoto/pkg/detection"
	"github.com/menta2k/idphoto/pkg/editor"
	"github.com/menta2k/idphoto/pkg/gemini"
	"github.com/menta2k/idphoto/pkg/raster"
	"github.com/menta2k/idphoto/pkg/sheet"
	"github.com/menta2k/idphoto/pkg/tilt"
	"github.com/menta2k/idphoto/pkg/types"
)

// Detector backends
const (
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
	BackendGemini   = "gemini"
)

// Config holds the application configuration
type Config struct {
	// Density is the print resolution in pixels per millimeter
	Density  float64        `yaml:"density"`
	Cropper  CropperConfig  `yaml:"cropper"`
	Tilt     TiltConfig     `yaml:"tilt"`
	Raster   RasterConfig   `yaml:"raster"`
	Sheet    SheetConfig    `yaml:"sheet"`
	Detector DetectorConfig `yaml:"detector"`
	Editor   EditorConfig   `yaml:"editor"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
}

// CropperConfig holds the crop composition rules
type CropperConfig struct {
	FaceHeightRatio float64 `yaml:"face_height_ratio"`
	HeadroomRatio   float64 `yaml:"headroom_ratio"`
	MinFaceSize     float64 `yaml:"min_face_size"`
	FallbackFill    float64 `yaml:"fallback_fill"`
}

// TiltConfig holds tilt correction settings
type TiltConfig struct {
	MinDegrees     float64 `yaml:"min_degrees"`
	TriggerDegrees float64 `yaml:"trigger_degrees"`
	Fill           string  `yaml:"fill"`
}

// RasterConfig holds rasterization settings
type RasterConfig struct {
	AspectTolerance float64 `yaml:"aspect_tolerance"`
	Fill            string  `yaml:"fill"`
}

// SheetConfig holds print sheet settings
type SheetConfig struct {
	WidthMm    float64 `yaml:"width_mm"`
	HeightMm   float64 `yaml:"height_mm"`
	GapMm      float64 `yaml:"gap_mm"`
	AutoOrient bool    `yaml:"auto_orient"`
	Background string  `yaml:"background"`
	// Stroke colors the cut guides; empty disables them
	Stroke string `yaml:"stroke"`
}

// DetectorConfig selects and tunes the face detector backend.
// Empty URL and Model resolve to the backend's defaults.
type DetectorConfig struct {
	Backend      string `yaml:"backend"`
	URL          string `yaml:"url"`
	Model        string `yaml:"model"`
	MaxDimension int    `yaml:"max_dimension"`
	Quality      int    `yaml:"quality"`
}

// Endpoint returns the server URL, falling back to the backend's local default
func (d DetectorConfig) Endpoint() string {
	if d.URL != "" {
		return d.URL
	}
	switch d.Backend {
	case BackendOllama:
		return "http://localhost:11434"
	case BackendLlamaCpp:
		return "http://localhost:8080"
	}
	return ""
}

// ModelName returns the model, falling back to the backend's default
func (d DetectorConfig) ModelName() string {
	if d.Model != "" {
		return d.Model
	}
	switch d.Backend {
	case BackendLlamaCpp:
		return "openbmb/minicpm-v4.5"
	case BackendGemini:
		return gemini.DefaultVisionModel
	}
	return detection.DefaultConfig().Model
}

// EditorConfig holds generative editing settings
type EditorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	Quality int    `yaml:"quality"`
	BaseURL string `yaml:"base_url"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	PhotoSize string `yaml:"photo_size"`
	Format    string `yaml:"format"`
	Quality   int    `yaml:"quality"`
	Lossless  bool   `yaml:"lossless"`
	OutputDir string `yaml:"output_dir"`
	Suffix    string `yaml:"suffix"`
}

// LogConfig selects the logger flavour
type LogConfig struct {
	Mode string `yaml:"mode"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Density: float64(types.DefaultDensity),
		Cropper: CropperConfig{
			FaceHeightRatio: 0.58,
			HeadroomRatio:   0.12,
			MinFaceSize:     0.05,
			FallbackFill:    0.8,
		},
		Tilt: TiltConfig{
			MinDegrees:     1,
			TriggerDegrees: 1.5,
			Fill:           "#ffffff",
		},
		Raster: RasterConfig{
			AspectTolerance: 0.02,
			Fill:            "#ffffff",
		},
		Sheet: SheetConfig{
			WidthMm:    types.DefaultSheetSize.WidthMm,
			HeightMm:   types.DefaultSheetSize.HeightMm,
			GapMm:      types.DefaultSheetGap,
			Background: "#ffffff",
			Stroke:     "#e2e8f0",
		},
		Detector: DetectorConfig{
			Backend:      BackendOllama,
			MaxDimension: 1024,
			Quality:      90,
		},
		Editor: EditorConfig{
			Enabled: false,
			Model:   gemini.DefaultEditModel,
			Quality: 95,
		},
		Output: OutputConfig{
			PhotoSize: "3x4",
			Format:    "jpg",
			Quality:   95,
			OutputDir: "./output",
			Suffix:    "_id",
		},
		Log: LogConfig{
			Mode: "development",
		},
	}
}

// LoadFromFile loads configuration from a YAML file. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !types.Density(c.Density).Valid() {
		return fmt.Errorf("density must be positive")
	}

	if !inRange(c.Cropper.FaceHeightRatio, 0, 1) || c.Cropper.FaceHeightRatio == 0 {
		return fmt.Errorf("cropper.face_height_ratio must be in (0, 1]")
	}
	if !inRange(c.Cropper.HeadroomRatio, 0, 1) {
		return fmt.Errorf("cropper.headroom_ratio must be between 0 and 1")
	}
	if !inRange(c.Cropper.MinFaceSize, 0, 1) {
		return fmt.Errorf("cropper.min_face_size must be between 0 and 1")
	}
	if !inRange(c.Cropper.FallbackFill, 0, 1) || c.Cropper.FallbackFill == 0 {
		return fmt.Errorf("cropper.fallback_fill must be in (0, 1]")
	}

	if !inRange(c.Tilt.MinDegrees, 0, 45) {
		return fmt.Errorf("tilt.min_degrees must be between 0 and 45")
	}
	if !inRange(c.Tilt.TriggerDegrees, 0, 45) {
		return fmt.Errorf("tilt.trigger_degrees must be between 0 and 45")
	}
	if !inRange(c.Raster.AspectTolerance, 0, 1) {
		return fmt.Errorf("raster.aspect_tolerance must be between 0 and 1")
	}

	if !c.SheetSize().Valid() {
		return fmt.Errorf("sheet.width_mm and sheet.height_mm must be positive")
	}
	if !inRange(c.Sheet.GapMm, 0, math.MaxFloat64) {
		return fmt.Errorf("sheet.gap_mm cannot be negative")
	}

	for name, value := range map[string]string{
		"tilt.fill":        c.Tilt.Fill,
		"raster.fill":      c.Raster.Fill,
		"sheet.background": c.Sheet.Background,
	} {
		if _, err := ParseHexColor(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Sheet.Stroke != "" {
		if _, err := ParseHexColor(c.Sheet.Stroke); err != nil {
			return fmt.Errorf("sheet.stroke: %w", err)
		}
	}

	switch c.Detector.Backend {
	case BackendOllama, BackendLlamaCpp, BackendGemini:
	default:
		return fmt.Errorf("detector.backend must be one of %s, %s, %s", BackendOllama, BackendLlamaCpp, BackendGemini)
	}
	if c.Detector.Quality < 1 || c.Detector.Quality > 100 {
		return fmt.Errorf("detector.quality must be between 1 and 100")
	}

	if c.Editor.Quality < 1 || c.Editor.Quality > 100 {
		return fmt.Errorf("editor.quality must be between 1 and 100")
	}

	if _, err := types.ParseSize(c.Output.PhotoSize); err != nil {
		return fmt.Errorf("output.photo_size: %w", err)
	}
	switch c.Output.Format {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be jpg, png or webp")
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// SheetSize returns the configured sheet dimensions
func (c *Config) SheetSize() types.PhysicalSize {
	return types.PhysicalSize{WidthMm: c.Sheet.WidthMm, HeightMm: c.Sheet.HeightMm}
}

// PhotoSize resolves output.photo_size to a physical size
func (c *Config) PhotoSize() (types.PhysicalSize, error) {
	return types.ParseSize(c.Output.PhotoSize)
}

// ComposerConfig converts the file settings into the pipeline configuration
func (c *Config) ComposerConfig() (idphoto.Config, error) {
	tiltFill, err := ParseHexColor(c.Tilt.Fill)
	if err != nil {
		return idphoto.Config{}, fmt.Errorf("tilt.fill: %w", err)
	}
	rasterFill, err := ParseHexColor(c.Raster.Fill)
	if err != nil {
		return idphoto.Config{}, fmt.Errorf("raster.fill: %w", err)
	}
	background, err := ParseHexColor(c.Sheet.Background)
	if err != nil {
		return idphoto.Config{}, fmt.Errorf("sheet.background: %w", err)
	}
	var stroke color.Color
	if c.Sheet.Stroke != "" {
		s, err := ParseHexColor(c.Sheet.Stroke)
		if err != nil {
			return idphoto.Config{}, fmt.Errorf("sheet.stroke: %w", err)
		}
		stroke = s
	}

	density := types.Density(c.Density)
	rasterConfig := raster.DefaultConfig()
	rasterConfig.Density = density
	rasterConfig.AspectTolerance = c.Raster.AspectTolerance

	return idphoto.Config{
		Density: density,
		Cropper: cropper.Config{
			FaceHeightRatio: c.Cropper.FaceHeightRatio,
			HeadroomRatio:   c.Cropper.HeadroomRatio,
			MinFaceSize:     c.Cropper.MinFaceSize,
			FallbackFill:    c.Cropper.FallbackFill,
		},
		Tilt: tilt.Config{
			MinAngle: c.Tilt.MinDegrees * math.Pi / 180,
			Fill:     tiltFill,
		},
		TiltTriggerDegrees: c.Tilt.TriggerDegrees,
		Raster:             rasterConfig,
		Sheet: sheet.Config{
			Density:    density,
			Background: background,
			Stroke:     stroke,
		},
		Fill:       rasterFill,
		SheetSize:  c.SheetSize(),
		SheetGap:   c.Sheet.GapMm,
		AutoOrient: c.Sheet.AutoOrient,
	}, nil
}

// DetectionConfig converts the detector section
func (c *Config) DetectionConfig() detection.Config {
	config := detection.DefaultConfig()
	config.Model = c.Detector.ModelName()
	config.MaxDimension = c.Detector.MaxDimension
	config.Quality = c.Detector.Quality
	return config
}

// EditingConfig converts the editor section
func (c *Config) EditingConfig() editor.Config {
	return editor.Config{
		Model:   c.Editor.Model,
		Quality: c.Editor.Quality,
	}
}

// APIKey returns the Gemini API key from the environment
func APIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("API_KEY")
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "idphoto", "config.yaml")
}

// ParseHexColor parses "#rrggbb" or "#rgb" into an opaque color
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, errors.New("color must look like #rrggbb")
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
