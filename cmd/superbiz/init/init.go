// Package initcmder provides the init command for initializing a local
// .superbiz directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/superbiz/pkg/config"
)

const (
	dirName = ".superbiz"
)

const initLongDesc string = `Initialize a new .superbiz/ directory in the current working directory.

Creates a local .superbiz/ directory that takes precedence over the
default ~/.superbiz/ directory for configuration, the active session and
chat history. This keeps per-project backends and histories apart.

Use --preset to write a config.toml for a known backend layout:
  local   the backend on its own port (http://localhost:9900/api)
  dev     the backend behind a development server (http://localhost:8000/api)

Examples:
  superbiz init
  superbiz init --preset dev`

const initShortDesc string = "Initialize a local .superbiz/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout(), preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "",
		"Write a config.toml for a backend preset ("+strings.Join(config.ValidPresetNames(), ", ")+")")

	return cmd
}

func runInit(out io.Writer, preset string) error {
	var cfg *config.Config
	if preset != "" {
		var err error
		cfg, err = config.PresetConfig(preset)
		if err != nil {
			return err
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		fmt.Fprintf(out, "Already initialized: %s\n", dir)

	default:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .superbiz directory: %w", err)
		}
		fmt.Fprintf(out, "Initialized .superbiz directory: %s\n", dir)
	}

	if cfg == nil {
		return nil
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %s preset to %s\n", preset, cfger.GetTarget())
	return nil
}
