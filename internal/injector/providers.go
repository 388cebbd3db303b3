package injector

import (
	"fmt"

	"github.com/google/wire"
	"github.com/zeusync/arbor/internal/config"
	"github.com/zeusync/arbor/internal/core/generator"
	"github.com/zeusync/arbor/internal/core/observability/log"
	"github.com/zeusync/arbor/internal/core/preset"
	"github.com/zeusync/arbor/internal/server"
)

// ProviderSet builds a Server from a Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvidePresets,
	ProvideGenerator,
	server.NewServer,
)

func ProvideLogger(cfg config.Config) log.Log {
	return log.New(cfg.Level())
}

// ProvidePresets returns the built-in presets overlaid with the presets
// found in cfg.PresetDir, if set.
func ProvidePresets(cfg config.Config, logger log.Log) (*preset.Registry, error) {
	reg, err := preset.Builtin()
	if err != nil {
		return nil, err
	}
	if cfg.PresetDir == "" {
		return reg, nil
	}
	n, err := reg.LoadDir(cfg.PresetDir)
	if err != nil {
		return nil, fmt.Errorf("load presets from %s: %w", cfg.PresetDir, err)
	}
	logger.Info("Loaded presets", log.String("dir", cfg.PresetDir), log.Int("count", n))
	return reg, nil
}

func ProvideGenerator(cfg config.Config, logger log.Log) *generator.Generator {
	return generator.New(logger,
		generator.WithLimits(cfg.Limits()),
		generator.WithWorkers(cfg.ForestWorkers))
}
