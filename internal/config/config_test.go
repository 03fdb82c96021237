package config

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/idphoto/pkg/types"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero density", func(c *Config) { c.Density = 0 }},
		{"face ratio", func(c *Config) { c.Cropper.FaceHeightRatio = 1.5 }},
		{"fallback fill", func(c *Config) { c.Cropper.FallbackFill = 0 }},
		{"tilt trigger", func(c *Config) { c.Tilt.TriggerDegrees = math.NaN() }},
		{"aspect tolerance", func(c *Config) { c.Raster.AspectTolerance = -0.1 }},
		{"sheet size", func(c *Config) { c.Sheet.WidthMm = 0 }},
		{"sheet gap", func(c *Config) { c.Sheet.GapMm = -2 }},
		{"fill color", func(c *Config) { c.Raster.Fill = "white" }},
		{"stroke color", func(c *Config) { c.Sheet.Stroke = "#12345" }},
		{"backend", func(c *Config) { c.Detector.Backend = "openai" }},
		{"detector quality", func(c *Config) { c.Detector.Quality = 0 }},
		{"editor quality", func(c *Config) { c.Editor.Quality = 101 }},
		{"photo size", func(c *Config) { c.Output.PhotoSize = "huge" }},
		{"format", func(c *Config) { c.Output.Format = "gif" }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := Default()
			test.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}

func TestEmptyStrokeIsValid(t *testing.T) {
	c := Default()
	c.Sheet.Stroke = ""
	if err := c.Validate(); err != nil {
		t.Errorf("Expected empty stroke to be accepted, got %v", err)
	}
	composer, err := c.ComposerConfig()
	if err != nil {
		t.Fatalf("ComposerConfig failed: %v", err)
	}
	if composer.Sheet.Stroke != nil {
		t.Error("Expected cut guides to be disabled")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	c := Default()
	c.Output.PhotoSize = "35x45"
	c.Sheet.AutoOrient = true
	c.Detector.Backend = BackendGemini
	if err := c.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Output.PhotoSize != "35x45" || !loaded.Sheet.AutoOrient || loaded.Detector.Backend != BackendGemini {
		t.Errorf("Expected saved values back, got %+v", loaded)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "sheet:\n  gap_mm: 3\ndetector:\n  backend: llamacpp\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if c.Sheet.GapMm != 3 {
		t.Errorf("Expected gap 3, got %v", c.Sheet.GapMm)
	}
	if c.Sheet.WidthMm != 100 || c.Sheet.HeightMm != 150 {
		t.Errorf("Expected default sheet to survive, got %vx%v", c.Sheet.WidthMm, c.Sheet.HeightMm)
	}
	if c.Detector.Backend != BackendLlamaCpp {
		t.Errorf("Expected llamacpp backend, got %s", c.Detector.Backend)
	}
	if c.Detector.Quality != 90 {
		t.Errorf("Expected default detector quality, got %d", c.Detector.Quality)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("sheet: [unclosed"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("Expected an error for invalid YAML")
	}
}

func TestComposerConfig(t *testing.T) {
	c := Default()
	c.Tilt.MinDegrees = 2
	c.Sheet.Background = "#fafafa"

	composer, err := c.ComposerConfig()
	if err != nil {
		t.Fatalf("ComposerConfig failed: %v", err)
	}
	if composer.Density != types.DefaultDensity {
		t.Errorf("Expected default density, got %v", composer.Density)
	}
	if math.Abs(composer.Tilt.MinAngle-2*math.Pi/180) > 1e-12 {
		t.Errorf("Expected 2 degrees in radians, got %v", composer.Tilt.MinAngle)
	}
	if composer.TiltTriggerDegrees != 1.5 {
		t.Errorf("Expected 1.5 degree trigger, got %v", composer.TiltTriggerDegrees)
	}
	if composer.Raster.AspectTolerance != 0.02 {
		t.Errorf("Expected aspect tolerance 0.02, got %v", composer.Raster.AspectTolerance)
	}
	if composer.Sheet.Background != (color.NRGBA{0xfa, 0xfa, 0xfa, 0xff}) {
		t.Errorf("Expected #fafafa background, got %v", composer.Sheet.Background)
	}
	if composer.Sheet.Stroke != (color.NRGBA{0xe2, 0xe8, 0xf0, 0xff}) {
		t.Errorf("Expected #e2e8f0 stroke, got %v", composer.Sheet.Stroke)
	}
	if composer.SheetSize != types.DefaultSheetSize || composer.SheetGap != 2 {
		t.Errorf("Expected default sheet, got %+v gap %v", composer.SheetSize, composer.SheetGap)
	}

	c.Raster.Fill = "nope"
	if _, err := c.ComposerConfig(); err == nil {
		t.Error("Expected an error for a bad fill")
	}
}

func TestDetectionAndEditingConfig(t *testing.T) {
	c := Default()
	c.Detector.Model = "minicpm-v:8b"
	c.Detector.MaxDimension = 768

	d := c.DetectionConfig()
	if d.Model != "minicpm-v:8b" || d.MaxDimension != 768 || d.Quality != 90 {
		t.Errorf("Unexpected detection config %+v", d)
	}
	if d.Prompt == "" {
		t.Error("Expected the default prompt")
	}

	e := c.EditingConfig()
	if e.Model != "gemini-2.5-flash-image" || e.Quality != 95 {
		t.Errorf("Unexpected editor config %+v", e)
	}
}

func TestDetectorDefaults(t *testing.T) {
	tests := []struct {
		backend, endpoint, model string
	}{
		{BackendOllama, "http://localhost:11434", "qwen2.5vl:7b"},
		{BackendLlamaCpp, "http://localhost:8080", "openbmb/minicpm-v4.5"},
		{BackendGemini, "", "gemini-2.5-flash"},
	}
	for _, test := range tests {
		d := DetectorConfig{Backend: test.backend}
		if got := d.Endpoint(); got != test.endpoint {
			t.Errorf("%s: expected endpoint %q, got %q", test.backend, test.endpoint, got)
		}
		if got := d.ModelName(); got != test.model {
			t.Errorf("%s: expected model %q, got %q", test.backend, test.model, got)
		}
	}

	d := DetectorConfig{Backend: BackendOllama, URL: "http://gpu:11434", Model: "llava"}
	if d.Endpoint() != "http://gpu:11434" || d.ModelName() != "llava" {
		t.Error("Expected explicit values to win")
	}
}

func TestPhotoSize(t *testing.T) {
	c := Default()
	size, err := c.PhotoSize()
	if err != nil {
		t.Fatalf("PhotoSize failed: %v", err)
	}
	if size != (types.PhysicalSize{WidthMm: 30, HeightMm: 40}) {
		t.Errorf("Expected 30x40, got %+v", size)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#ffffff", color.NRGBA{255, 255, 255, 255}, true},
		{"4287f5", color.NRGBA{0x42, 0x87, 0xf5, 0xff}, true},
		{" #E2E8F0 ", color.NRGBA{0xe2, 0xe8, 0xf0, 0xff}, true},
		{"#abc", color.NRGBA{0xaa, 0xbb, 0xcc, 0xff}, true},
		{"", color.NRGBA{}, false},
		{"#12345", color.NRGBA{}, false},
		{"#gggggg", color.NRGBA{}, false},
	}

	for _, test := range tests {
		got, err := ParseHexColor(test.in)
		if (err == nil) != test.ok {
			t.Errorf("ParseHexColor(%q): unexpected error state %v", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseHexColor(%q): expected %v, got %v", test.in, test.want, got)
		}
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "fallback")
	if got := APIKey(); got != "fallback" {
		t.Errorf("Expected fallback key, got %q", got)
	}

	t.Setenv("GEMINI_API_KEY", "primary")
	if got := APIKey(); got != "primary" {
		t.Errorf("Expected primary key, got %q", got)
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected config.yaml, got %s", path)
	}
}
