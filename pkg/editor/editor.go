package editor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"slices"
	"strings"

	"github.com/menta2k/idphoto/pkg/client"
	"github.com/menta2k/idphoto/pkg/processing"
	"github.com/menta2k/idphoto/pkg/types"
)

// Config holds editor parameters
type Config struct {
	Model string
	// Quality of the jpeg sent to the model
	Quality int
}

// DefaultConfig targets the Gemini image model
func DefaultConfig() Config {
	return Config{
		Model:   "gemini-2.5-flash-image",
		Quality: 95,
	}
}

// Editor finalizes a cropped ID photo with a generative image model
type Editor struct {
	client    client.ImageEditClient
	processor *processing.Processor
	config    Config
}

// New creates an Editor on top of an image editing backend
func New(client client.ImageEditClient, config Config) *Editor {
	defaults := DefaultConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = defaults.Quality
	}
	return &Editor{
		client:    client,
		processor: processing.NewProcessor(),
		config:    config,
	}
}

// Normalize validates option ids and applies the outfit color rule: the
// original outfit carries no color, other outfits fall back to their first
// allowed color when the requested one is empty or not offered.
func Normalize(opts types.EditOptions) (types.EditOptions, error) {
	if opts.Background == "" {
		opts.Background = Original
	}
	if opts.OutfitType == "" {
		opts.OutfitType = Original
	}
	if opts.Hairstyle == "" {
		opts.Hairstyle = Original
	}

	if _, ok := FindBackground(opts.Background); !ok {
		return opts, fmt.Errorf("unknown background %q", opts.Background)
	}
	if _, ok := FindHairstyle(opts.Hairstyle); !ok {
		return opts, fmt.Errorf("unknown hairstyle %q", opts.Hairstyle)
	}
	outfit, ok := FindOutfitType(opts.OutfitType)
	if !ok {
		return opts, fmt.Errorf("unknown outfit type %q", opts.OutfitType)
	}

	switch {
	case len(outfit.AllowedColors) == 0:
		opts.OutfitColor = ""
	case !slices.Contains(outfit.AllowedColors, opts.OutfitColor):
		opts.OutfitColor = outfit.AllowedColors[0]
	}
	return opts, nil
}

// BuildPrompt turns normalized options into editing instructions. The input
// photo is assumed to be cropped to its final aspect already.
func BuildPrompt(opts types.EditOptions) string {
	parts := []string{
		"Task: Finalize this ID Photo.",
		"INPUT ANALYSIS: The input image is already cropped to the target aspect ratio. It may contain solid color margins (padding) or the person's body might be cut off at the bottom/sides.",
		"PRIMARY GOAL: FILL THE FRAME.",
		"1. GENERATE missing body parts (shoulders, chest, arms) to extend the person to the edges of the frame.",
		"2. DO NOT change the aspect ratio or crop the image further.",
		"3. If there is empty/solid colored space around the person, fill it with the requested background and body parts.",
	}

	if opts.Lighting {
		parts = append(parts, "CRITICAL: Preserve the person's identity and facial features intact. However, YOU MUST correct the lighting on the face to be even and balanced, removing dark shadows or uneven brightness.")
	} else {
		parts = append(parts, "CRITICAL: Preserve the face, eyes, nose, and mouth EXACTLY as they are. Only modify the surrounding elements (body, hair, background) to blend seamlessly.")
	}

	if bg, ok := FindBackground(opts.Background); ok && bg.ID != Original {
		parts = append(parts, fmt.Sprintf("ACTION: Change the background to a %s.", bg.Prompt))
	} else {
		parts = append(parts, "ACTION: Extend the existing background naturally to fill any empty space.")
	}

	if outfit, ok := FindOutfitType(opts.OutfitType); ok && outfit.ID != Original {
		desc := outfit.Template
		if strings.Contains(desc, "{color}") {
			colorPrompt := "white"
			if c, ok := FindOutfitColor(opts.OutfitColor); ok {
				colorPrompt = c.Prompt
			}
			desc = strings.ReplaceAll(desc, "{color}", colorPrompt)
		}
		parts = append(parts, fmt.Sprintf("ACTION: Change the person's clothing to %s. The clothes must fit the generated body shape and fill the bottom of the frame.", desc))
	} else {
		parts = append(parts, "ACTION: Extend the person's current clothing naturally to fill the generated body parts.")
	}

	if hair, ok := FindHairstyle(opts.Hairstyle); ok && hair.ID != Original {
		parts = append(parts, fmt.Sprintf("ACTION: Change the hairstyle to %s.", hair.Prompt))
	}

	if opts.Beautify {
		parts = append(parts, "ACTION: Apply subtle professional skin retouching.")
	}
	if opts.Lighting {
		parts = append(parts, "ACTION: Fix uneven lighting (e.g., side shadows). Normalize the illumination to create a flat, professional studio lighting effect where the skin tone is even across the entire face.")
	}

	parts = append(parts, "OUTPUT: High-quality, photorealistic ID portrait.")
	return strings.Join(parts, " ")
}

// Edit sends the photo to the model and decodes the returned image. Backend
// failures are returned unchanged; an empty answer is types.ErrNoOutput.
func (e *Editor) Edit(ctx context.Context, img image.Image, opts types.EditOptions) (image.Image, error) {
	opts, err := Normalize(opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := e.processor.Encode(&buf, img, "jpg", e.config.Quality, false); err != nil {
		return nil, fmt.Errorf("failed to encode photo: %w", err)
	}

	out, err := e.client.EditImage(ctx, e.config.Model, BuildPrompt(opts), buf.Bytes(), "image/jpeg")
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, types.ErrNoOutput
	}

	return e.processor.DecodeImage(out)
}
