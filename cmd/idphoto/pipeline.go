package main

import (
	"context"
	"fmt"
	"image"
	"os"

	"go.uber.org/zap"

	"github.com/menta2k/idphoto"
	"github.com/menta2k/idphoto/internal/config"
	"github.com/menta2k/idphoto/internal/utils"
	"github.com/menta2k/idphoto/pkg/client"
	"github.com/menta2k/idphoto/pkg/detection"
	"github.com/menta2k/idphoto/pkg/editor"
	"github.com/menta2k/idphoto/pkg/gemini"
	"github.com/menta2k/idphoto/pkg/llamacpp"
	"github.com/menta2k/idphoto/pkg/ollama"
	"github.com/menta2k/idphoto/pkg/processing"
)

// newDetector builds the face detector for the configured backend
func newDetector(ctx context.Context) (idphoto.FaceDetector, error) {
	var visionClient client.VisionClient
	var err error

	d := cfg.Detector
	switch d.Backend {
	case config.BackendOllama:
		visionClient, err = ollama.NewClient(d.Endpoint())
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
	case config.BackendLlamaCpp:
		visionClient, err = llamacpp.NewClient(d.Endpoint())
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
	case config.BackendGemini:
		visionClient, err = gemini.NewClient(ctx, gemini.Config{
			APIKey:         config.APIKey(),
			BaseURL:        d.URL,
			ResponseSchema: gemini.FaceSchema(),
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown backend: %s (use ollama, llamacpp or gemini)", d.Backend)
	}

	logger.Debug("face detector ready",
		zap.String("backend", d.Backend),
		zap.String("model", d.ModelName()),
	)
	return detection.NewDetector(visionClient, cfg.DetectionConfig()), nil
}

// newEditor builds the Gemini photo editor
func newEditor(ctx context.Context) (idphoto.PhotoEditor, error) {
	c, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:  config.APIKey(),
		BaseURL: cfg.Editor.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return editor.New(c, cfg.EditingConfig()), nil
}

// newComposer wires the pipeline from the loaded config
func newComposer(detector idphoto.FaceDetector, ed idphoto.PhotoEditor) (*idphoto.Composer, error) {
	composerConfig, err := cfg.ComposerConfig()
	if err != nil {
		return nil, err
	}
	return idphoto.New(composerConfig, detector, ed, logger), nil
}

// loadInput reads a file or URL and rejects images too small to crop
func loadInput(ctx context.Context, proc *processing.Processor, source string) (image.Image, error) {
	img, err := proc.LoadImageSmart(ctx, source)
	if err != nil {
		return nil, err
	}
	if err := proc.ValidateImage(img, processing.MinSourceDimension); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return img, nil
}

// expandInputs turns directories into the image files they contain
func expandInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		if !utils.IsRemote(arg) && utils.DirExists(arg) {
			files, err := utils.ListImageFiles(arg)
			if err != nil {
				return nil, fmt.Errorf("failed to list %s: %w", arg, err)
			}
			inputs = append(inputs, files...)
			continue
		}
		inputs = append(inputs, arg)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no images found")
	}
	return inputs, nil
}

// save writes img next to the other outputs of input and reports the file
func save(proc *processing.Processor, img image.Image, input, stage, format string) (string, error) {
	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := utils.OutputPath(input, cfg.Output.OutputDir, cfg.Output.Suffix, stage, format)
	if err := proc.SaveImage(img, path, format, cfg.Output.Quality, cfg.Output.Lossless); err != nil {
		return "", err
	}

	fields := []zap.Field{zap.String("path", path)}
	if info, err := os.Stat(path); err == nil {
		fields = append(fields, zap.String("size", utils.FormatFileSize(info.Size())))
	}
	logger.Info("wrote image", fields...)
	return path, nil
}
