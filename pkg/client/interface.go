package client

import (
	"context"
)

// VisionClient sends a prompt and a base64 image to a multimodal model and
// returns the raw text answer.
type VisionClient interface {
	AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (string, error)
}

// ImageEditClient asks a generative model to edit an image. The returned bytes
// are an encoded image (typically jpeg or png).
type ImageEditClient interface {
	EditImage(ctx context.Context, model, prompt string, image []byte, mimeType string) ([]byte, error)
}
