package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeusync/arbor/internal/core/grammar"
	"github.com/zeusync/arbor/internal/core/turtle"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidPreset   = errors.New("invalid preset")
	ErrPresetNotFound  = errors.New("preset not found")
	ErrDuplicatePreset = errors.New("preset already registered")
	ErrUnknownFormat   = errors.New("unknown preset file format")
)

// Preset is a complete tree recipe: grammar plus interpreter tunables.
// It can be described in JSON or YAML.
type Preset struct {
	Name            string         `json:"name" yaml:"name"`
	Description     string         `json:"description,omitempty" yaml:"description,omitempty"`
	Axiom           string         `json:"axiom" yaml:"axiom"`
	Iterations      int            `json:"iterations" yaml:"iterations"`
	Rules           []grammar.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
	Interpretations []grammar.Rule `json:"interpretations,omitempty" yaml:"interpretations,omitempty"`
	Interpreter     turtle.Config  `json:"interpreter" yaml:"interpreter"`
}

// Default returns an empty preset whose interpreter section holds the
// default tunables, so partially specified documents inherit them.
func Default() *Preset {
	return &Preset{Interpreter: turtle.DefaultConfig()}
}

// LoadYAML loads a preset from a YAML reader.
func LoadYAML(r io.Reader) (*Preset, error) {
	p := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("decode yaml preset: %w", err)
	}
	return p, nil
}

// LoadJSON loads a preset from a JSON reader.
func LoadJSON(r io.Reader) (*Preset, error) {
	p := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("decode json preset: %w", err)
	}
	return p, nil
}

// LoadFile picks the decoder from the file extension. A preset without a
// name is named after the file.
func LoadFile(path string) (*Preset, error) {
	var load func(io.Reader) (*Preset, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		load = LoadYAML
	case ".json":
		load = LoadJSON
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Validate checks the preset without expanding it.
func (p *Preset) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPreset)
	}
	if len(grammar.Lex(p.Axiom)) == 0 {
		return fmt.Errorf("%w: %s: axiom is empty", ErrInvalidPreset, p.Name)
	}
	if err := p.Interpreter.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidPreset, p.Name, err)
	}
	if p.Iterations < 0 {
		return fmt.Errorf("%w: %s: negative iterations", ErrInvalidPreset, p.Name)
	}
	// Iteration and size limits are enforced by whoever expands the preset.
	if _, err := grammar.Compile(p.Rules); err != nil {
		return fmt.Errorf("%w: %s: rules: %w", ErrInvalidPreset, p.Name, err)
	}
	if _, err := grammar.Compile(p.Interpretations); err != nil {
		return fmt.Errorf("%w: %s: interpretations: %w", ErrInvalidPreset, p.Name, err)
	}
	return nil
}

// Grammar compiles the preset's rewriting part.
func (p *Preset) Grammar(opts ...grammar.Option) (*grammar.Grammar, error) {
	return grammar.New(p.Axiom, p.Rules, p.Interpretations, p.Iterations, opts...)
}

// Clone returns a deep copy, safe to modify.
func (p *Preset) Clone() *Preset {
	c := *p
	c.Rules = append([]grammar.Rule(nil), p.Rules...)
	c.Interpretations = append([]grammar.Rule(nil), p.Interpretations...)
	return &c
}
