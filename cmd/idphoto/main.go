package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/menta2k/idphoto"
	"github.com/menta2k/idphoto/internal/config"
	"github.com/menta2k/idphoto/internal/logging"
	"github.com/menta2k/idphoto/internal/utils"
)

var (
	configPath string
	logMode    string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "idphoto",
	Short: "Compose print-ready ID photos from portraits",
	Long: `idphoto turns a portrait into an ID photo: it locates the face with a
vision model (Ollama, llama.cpp or Gemini), levels a tilted head, crops to a
physical print size such as 3x4 cm or 35x45 mm, optionally restyles the photo
with Gemini, and tiles copies onto a 10x15 cm print sheet.`,
	Version:           idphoto.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.GetConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "log mode: development or release (overrides config)")
}

// setup loads .env, the config file and the logger before any subcommand runs
func setup(cmd *cobra.Command, args []string) error {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	var err error
	switch {
	case configPath != "":
		cfg, err = config.LoadFromFile(configPath)
	case utils.FileExists(config.GetConfigPath()):
		cfg, err = config.LoadFromFile(config.GetConfigPath())
	default:
		cfg = config.Default()
	}
	if err != nil {
		return err
	}

	if logMode != "" {
		cfg.Log.Mode = logMode
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err = logging.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
