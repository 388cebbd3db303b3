package injector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/arbor/internal/config"
)

func TestInitializeServer(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	s, err := InitializeServer(cfg)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestProvidePresetsOverlaysDirectory(t *testing.T) {
	dir := t.TempDir()
	doc := "axiom: Continue Leaf\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stick.yaml"), []byte(doc), 0o600))

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.PresetDir = dir

	reg, err := ProvidePresets(cfg, ProvideLogger(cfg))
	require.NoError(t, err)
	p, err := reg.Get("stick")
	require.NoError(t, err)
	assert.Equal(t, "Continue Leaf", p.Axiom)
	assert.Equal(t, 4, reg.Len())
}

func TestProvidePresetsMissingDirectory(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.PresetDir = filepath.Join(t.TempDir(), "nope")

	_, err = ProvidePresets(cfg, ProvideLogger(cfg))
	assert.Error(t, err)
}
