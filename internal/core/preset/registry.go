package preset

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

//go:embed presets/*.yaml
var builtin embed.FS

// Registry holds presets by name. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]*Preset
}

func NewRegistry() *Registry {
	return &Registry{presets: make(map[string]*Preset)}
}

// Builtin returns a registry holding the presets shipped with the binary.
func Builtin() (*Registry, error) {
	r := NewRegistry()
	entries, err := fs.ReadDir(builtin, "presets")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		f, err := builtin.Open("presets/" + e.Name())
		if err != nil {
			return nil, err
		}
		p, err := LoadYAML(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", e.Name(), err)
		}
		if err = r.Register(p); err != nil {
			return nil, fmt.Errorf("builtin %s: %w", e.Name(), err)
		}
	}
	return r, nil
}

// Register validates and adds p. Names must be unique.
func (r *Registry) Register(p *Preset) error {
	return r.add(p, false)
}

// Replace validates and adds p, overwriting a preset of the same name.
func (r *Registry) Replace(p *Preset) error {
	return r.add(p, true)
}

func (r *Registry) add(p *Preset, overwrite bool) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.presets[p.Name]; exists && !overwrite {
		return fmt.Errorf("%w: %s", ErrDuplicatePreset, p.Name)
	}
	r.presets[p.Name] = p.Clone()
	return nil
}

// LoadDir adds every YAML or JSON preset in dir, replacing presets of the
// same name. It returns the number of presets loaded.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		p, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return n, err
		}
		if err = r.Replace(p); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Get returns a copy of the named preset.
func (r *Registry) Get(name string) (*Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	return p.Clone(), nil
}

// List returns copies of all presets sorted by name.
func (r *Registry) List() []*Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Preset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.presets)
}
