package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/arbor/internal/core/generator"
	"github.com/zeusync/arbor/internal/core/mesh"
	"github.com/zeusync/arbor/internal/core/preset"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPresetsCommand(t *testing.T) {
	out, err := run(t, "presets")
	require.NoError(t, err)
	for _, name := range []string{"conifer", "sapling", "shrub"} {
		assert.Contains(t, out, name)
	}
}

func TestPresetsCommandWithDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "twig.yaml"), []byte("axiom: Continue\n"), 0o600))

	out, err := run(t, "presets", "--preset-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "twig")
}

func TestExpandCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stick.yaml")
	doc := "axiom: A\niterations: 1\nrules:\n  - key: A\n    value: Continue Leaf\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	out, err := run(t, "expand", "--file", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "# stick: 1 iterations"))
	assert.Equal(t, "Continue Leaf", lines[1])

	out, err = run(t, "expand", "--file", path, "-n", "0")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "\nA"))
}

func TestGenerateCommandIsReproducible(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")

	_, err := run(t, "generate", "sapling", "--seed", "3", "--format", "bin", "-o", a)
	require.NoError(t, err)
	_, err = run(t, "generate", "sapling", "--seed", "3", "--format", "bin", "-o", b)
	require.NoError(t, err)

	var ma, mb mesh.Mesh
	data, err := os.ReadFile(a)
	require.NoError(t, err)
	require.NoError(t, ma.Deserialize(data))
	data, err = os.ReadFile(b)
	require.NoError(t, err)
	require.NoError(t, mb.Deserialize(data))
	assert.Equal(t, ma.Hash(), mb.Hash())
}

func TestGenerateCommandJSON(t *testing.T) {
	out, err := run(t, "generate", "shrub", "--seed", "8", "--format", "json")
	require.NoError(t, err)

	var res generator.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "shrub", res.Preset)
	assert.Equal(t, uint64(8), res.Seed)
	require.NotNil(t, res.Mesh)
	assert.Equal(t, res.Hash, res.Mesh.Hash())
}

func TestGenerateCommandOBJ(t *testing.T) {
	out, err := run(t, "generate", "conifer", "-s", "2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "o conifer_2\n"))
	assert.Contains(t, out, "g trunk\n")
}

func TestForestCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "forest", "shrub", "--count", "3", "--seed", "10", "--out-dir", dir)
	require.NoError(t, err)

	for _, seed := range []string{"10", "11", "12"} {
		assert.FileExists(t, filepath.Join(dir, "shrub_"+seed+".obj"))
		assert.Contains(t, out, seed)
	}
}

func TestCommandErrors(t *testing.T) {
	_, err := run(t, "generate", "baobab")
	assert.ErrorIs(t, err, preset.ErrPresetNotFound)

	_, err = run(t, "generate", "sapling", "--format", "fbx")
	assert.Error(t, err)

	_, err = run(t, "generate", "sapling", "--file", "tree.yaml")
	assert.Error(t, err)

	_, err = run(t, "expand")
	assert.Error(t, err)

	_, err = run(t, "forest", "shrub", "--count", "0")
	assert.Error(t, err)
}
