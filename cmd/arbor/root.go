package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeusync/arbor/internal/config"
	"github.com/zeusync/arbor/internal/core/generator"
	"github.com/zeusync/arbor/internal/core/observability/log"
	"github.com/zeusync/arbor/internal/core/preset"
)

// app carries state shared by all subcommands.
type app struct {
	verbose   bool
	presetDir string
	file      string

	cfg    config.Config
	logger log.Log
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "arbor",
		Short: "Grow tree meshes from L-system presets",
		Long: `arbor expands an L-system grammar and interprets the resulting tokens
with a 3D turtle to build a tree mesh (trunk and leaf submeshes).

Presets come from the built-in set, a directory (--preset-dir or
ARBOR_PRESET_DIR) or a single YAML/JSON file (--file).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("preset-dir") {
				cfg.PresetDir = a.presetDir
			}
			a.cfg = cfg

			level := log.LevelWarn
			if a.verbose {
				level = log.LevelDebug
			}
			a.logger = log.New(level)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.presetDir, "preset-dir", "", "directory of additional presets")
	root.PersistentFlags().StringVarP(&a.file, "file", "f", "", "load the preset from a YAML or JSON file")

	root.AddCommand(
		newExpandCmd(a),
		newGenerateCmd(a),
		newForestCmd(a),
		newPresetsCmd(a),
	)
	return root
}

func (a *app) registry() (*preset.Registry, error) {
	reg, err := preset.Builtin()
	if err != nil {
		return nil, err
	}
	if a.cfg.PresetDir != "" {
		n, err := reg.LoadDir(a.cfg.PresetDir)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("loaded presets", log.String("dir", a.cfg.PresetDir), log.Int("count", n))
	}
	return reg, nil
}

// resolve picks the preset from --file or from the single name argument.
func (a *app) resolve(args []string) (*preset.Preset, error) {
	switch {
	case a.file != "" && len(args) > 0:
		return nil, fmt.Errorf("give either a preset name or --file, not both")
	case a.file != "":
		return preset.LoadFile(a.file)
	case len(args) == 1:
		reg, err := a.registry()
		if err != nil {
			return nil, err
		}
		return reg.Get(args[0])
	default:
		return nil, fmt.Errorf("a preset name or --file is required")
	}
}

func (a *app) generator(workers int) *generator.Generator {
	return generator.New(a.logger,
		generator.WithLimits(a.cfg.Limits()),
		generator.WithWorkers(workers))
}

// output opens path for writing; "-" means the command's stdout.
func output(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
