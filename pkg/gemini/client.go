package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/menta2k/idphoto/pkg/types"
)

const (
	// DefaultVisionModel answers face localization prompts
	DefaultVisionModel = "gemini-2.5-flash"
	// DefaultEditModel returns edited images
	DefaultEditModel = "gemini-2.5-flash-image"
)

// Config holds the Gemini connection settings
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint; empty uses the public one
	BaseURL string
	// ResponseSchema constrains JSON answers of AnalyzeImage; nil leaves them free-form
	ResponseSchema *genai.Schema
}

// Client talks to the Gemini API for face detection and image editing
type Client struct {
	client *genai.Client
	schema *genai.Schema
}

// NewClient creates a Gemini client
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("gemini: API key not set")
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{client: client, schema: config.ResponseSchema}, nil
}

// FaceSchema describes the face detection answer: a box plus both eye centers
func FaceSchema() *genai.Schema {
	number := &genai.Schema{Type: genai.TypeNumber}
	point := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{"x": number, "y": number},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"box": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"ymin": number,
					"xmin": number,
					"ymax": number,
					"xmax": number,
				},
			},
			"landmarks": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"leftEye":  point,
					"rightEye": point,
				},
			},
		},
	}
}

// AnalyzeImage sends a jpeg image and a prompt and returns the JSON answer text
func (c *Client) AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{Data: imgBytes, MIMEType: "image/jpeg"}},
				{Text: prompt},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   c.schema,
	}

	result, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	content := result.Text()
	if content == "" {
		return "", errors.New("no response from Gemini")
	}
	return content, nil
}

// EditImage sends an image with editing instructions and returns the first
// image part of the answer. An answer without image data is types.ErrNoOutput.
func (c *Client) EditImage(ctx context.Context, model, prompt string, image []byte, mimeType string) ([]byte, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{Data: image, MIMEType: mimeType}},
				{Text: prompt},
			},
		},
	}

	result, err := c.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	if len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		for _, part := range result.Candidates[0].Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}

	return nil, fmt.Errorf("gemini: %w", types.ErrNoOutput)
}
