package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/idphoto/internal/config"
	"github.com/menta2k/idphoto/internal/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	// the file may not exist yet, skip loading it
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	if utils.FileExists(path) && !mustGetBool(cmd, "force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.Default().SaveToFile(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
