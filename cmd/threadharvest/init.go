package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/threadharvest/internal/config"
)

//go:embed templates/threadharvest.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new threadharvest configuration file",
		Long: `Initialize creates a new .threadharvest configuration file in the current directory.

The generated file includes:
- The default categories, page count and theme keywords
- Fetch pacing and retry settings
- Commented examples for subreddits and custom selectors

Examples:
  # Create .threadharvest in current directory
  threadharvest init

  # Create config file at a specific path
  threadharvest init -o myconfig.yaml

  # Force overwrite existing file
  threadharvest init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/threadharvest.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - Categories and subreddits to harvest")
	fmt.Fprintln(out, "  - Fetch pacing, retries and timeouts")
	fmt.Fprintln(out, "  - Theme keywords and markup selectors")
	fmt.Fprintf(out, "\nReddit credentials belong in the environment (%s, %s).\n",
		config.EnvRedditClientID, config.EnvRedditClientSecret)

	return nil
}
