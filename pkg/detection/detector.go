package detection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"regexp"
	"strings"

	"github.com/menta2k/idphoto/pkg/client"
	"github.com/menta2k/idphoto/pkg/processing"
	"github.com/menta2k/idphoto/pkg/types"
)

// FacePrompt asks for the main face box and both eye centers
const FacePrompt = `You are a face locator for ID photos.

Identify the bounding box for the main human face. Also identify the center
coordinates for the left eye (viewer's left) and right eye (viewer's right).

Return JSON only:
{
  "box": {"xmin": 0.0, "ymin": 0.0, "xmax": 0.0, "ymax": 0.0},
  "landmarks": {
    "leftEye": {"x": 0.0, "y": 0.0},
    "rightEye": {"x": 0.0, "y": 0.0}
  }
}

HARD RULES
- All values are normalized coordinates between 0.0 and 1.0 (NOT pixels).
- The box covers the face from hairline to chin, not the whole head or shoulders.
- If no face is visible, return {"box": null}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// ErrMalformedResponse reports a model answer with no usable JSON object
var ErrMalformedResponse = errors.New("malformed detector response")

// Config holds detector parameters
type Config struct {
	Model string
	// MaxDimension bounds the longest edge sent to the model
	MaxDimension int
	Quality      int
	Prompt       string
}

// DefaultConfig returns sensible defaults for a local vision model
func DefaultConfig() Config {
	return Config{
		Model:        "qwen2.5vl:7b",
		MaxDimension: 1024,
		Quality:      90,
		Prompt:       FacePrompt,
	}
}

// Detector locates the main face of a portrait using a vision model
type Detector struct {
	client    client.VisionClient
	processor *processing.Processor
	config    Config
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient, config Config) *Detector {
	defaults := DefaultConfig()
	if config.MaxDimension <= 0 {
		config.MaxDimension = defaults.MaxDimension
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = defaults.Quality
	}
	if config.Prompt == "" {
		config.Prompt = defaults.Prompt
	}
	return &Detector{
		client:    client,
		processor: processing.NewProcessor(),
		config:    config,
	}
}

// DetectFace returns the detected face, or nil when the model reports none or
// answers with geometry that cannot be trusted. Landmarks that fail validation
// are dropped while a valid box is kept.
func (d *Detector) DetectFace(ctx context.Context, img image.Image) (*types.FaceDetection, error) {
	imgB64, err := d.processor.PrepareImageForModel(img, "jpg", d.config.MaxDimension, d.config.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	raw, err := d.client.AnalyzeImage(ctx, d.config.Model, d.config.Prompt, imgB64)
	if err != nil {
		return nil, err
	}

	return ParseFaceDetection(raw)
}

type rawPoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type rawFace struct {
	Box *struct {
		XMin *float64 `json:"xmin"`
		YMin *float64 `json:"ymin"`
		XMax *float64 `json:"xmax"`
		YMax *float64 `json:"ymax"`
	} `json:"box"`
	Landmarks *struct {
		LeftEye  *rawPoint `json:"leftEye"`
		RightEye *rawPoint `json:"rightEye"`
	} `json:"landmarks"`
}

// ParseFaceDetection extracts a face detection from a model answer. A missing
// or invalid box yields (nil, nil); text without any JSON object is an error.
func ParseFaceDetection(raw string) (*types.FaceDetection, error) {
	cleaned := SanitizeModelJSON(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var parsed rawFace
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	b := parsed.Box
	if b == nil || b.XMin == nil || b.YMin == nil || b.XMax == nil || b.YMax == nil {
		return nil, nil
	}
	face := &types.FaceDetection{
		Box: types.NormalizedBox{XMin: *b.XMin, YMin: *b.YMin, XMax: *b.XMax, YMax: *b.YMax},
	}
	if !face.Box.Valid() {
		return nil, nil
	}

	if lm := parsed.Landmarks; lm != nil {
		left, okL := toPoint(lm.LeftEye)
		right, okR := toPoint(lm.RightEye)
		eyes := types.EyePair{LeftEye: left, RightEye: right}
		if okL && okR && eyes.Valid() {
			face.Landmarks = &eyes
		}
	}

	return face, nil
}

func toPoint(p *rawPoint) (types.Point, bool) {
	if p == nil || p.X == nil || p.Y == nil {
		return types.Point{}, false
	}
	return types.Point{X: *p.X, Y: *p.Y}, true
}

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInline   = regexp.MustCompile(`(?m)//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
	reFenced   = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
)

// SanitizeModelJSON removes code fences, comments, and trailing commas from a
// model answer and keeps only the outermost {...}.
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// fenced block anywhere in a chatty answer
	if m := reFenced.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reLine.ReplaceAllString(raw, "")
	raw = reInline.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
