// Package generator runs the full pipeline: preset → grammar expansion →
// turtle interpretation → mesh.
package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/arbor/internal/core/grammar"
	"github.com/zeusync/arbor/internal/core/mesh"
	"github.com/zeusync/arbor/internal/core/observability/log"
	"github.com/zeusync/arbor/internal/core/preset"
	"github.com/zeusync/arbor/internal/core/turtle"
	"github.com/zeusync/arbor/pkg/concurrent"
	"github.com/zeusync/arbor/pkg/sequence"
)

// Result is one generated tree.
type Result struct {
	ID       string          `json:"id"`
	Preset   string          `json:"preset"`
	Seed     uint64          `json:"seed"`
	Tokens   []grammar.Token `json:"-"`
	Steps    []int           `json:"steps"`
	Mesh     *mesh.Mesh      `json:"mesh,omitempty"`
	Hash     uint64          `json:"hash"`
	Stats    turtle.Stats    `json:"stats"`
	Duration time.Duration   `json:"duration"`
}

// Generator is safe for concurrent use; every call runs an independent
// pass with its own interpreter and buffers.
type Generator struct {
	logger    log.Log
	limits    grammar.Limits
	workers   int
	newSource func(seed uint64) turtle.Source
}

type Option func(*Generator)

// WithLimits bounds grammar expansion.
func WithLimits(limits grammar.Limits) Option {
	return func(g *Generator) { g.limits = limits }
}

// WithWorkers caps the goroutines used by Forest. Zero means unlimited.
func WithWorkers(n int) Option {
	return func(g *Generator) { g.workers = n }
}

// WithSourceFactory replaces the seeded PCG source.
func WithSourceFactory(fn func(seed uint64) turtle.Source) Option {
	return func(g *Generator) { g.newSource = fn }
}

func New(logger log.Log, opts ...Option) *Generator {
	if logger == nil {
		logger = log.NewNop()
	}
	g := &Generator{
		logger:  logger.Named("generator"),
		limits:  grammar.DefaultLimits(),
		workers: 4,
		newSource: func(seed uint64) turtle.Source {
			return turtle.NewSource(seed)
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RandomSeed returns a seed for callers that do not care about
// reproducibility.
func RandomSeed() uint64 {
	return rand.Uint64()
}

// Expand validates p and runs only the rewriting stage.
func (g *Generator) Expand(ctx context.Context, p *preset.Preset) (grammar.Expansion, error) {
	if err := p.Validate(); err != nil {
		return grammar.Expansion{}, err
	}
	gr, err := p.Grammar(grammar.WithLimits(g.limits))
	if err != nil {
		return grammar.Expansion{}, fmt.Errorf("%w: %s: %w", preset.ErrInvalidPreset, p.Name, err)
	}
	return gr.Expand(ctx)
}

// Generate expands p and interprets the result with a source seeded by
// seed. Errors abort the whole pass.
func (g *Generator) Generate(ctx context.Context, p *preset.Preset, seed uint64) (*Result, error) {
	start := time.Now()
	logger := g.logger.WithContext(ctx).With(log.String("preset", p.Name), log.Uint64("seed", seed))

	exp, err := g.Expand(ctx, p)
	if err != nil {
		logger.Warn("expansion failed", log.Error(err))
		return nil, fmt.Errorf("generate %s: %w", p.Name, err)
	}
	logger.Debug("expanded", log.Ints("steps", exp.Steps))

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	m, stats, err := turtle.Interpret(exp.Tokens, p.Interpreter, g.newSource(seed))
	if err != nil {
		logger.Warn("interpretation failed", log.Error(err))
		return nil, fmt.Errorf("generate %s: %w", p.Name, err)
	}

	res := &Result{
		ID:       uuid.NewString(),
		Preset:   p.Name,
		Seed:     seed,
		Tokens:   exp.Tokens,
		Steps:    exp.Steps,
		Mesh:     m,
		Hash:     m.Hash(),
		Stats:    stats,
		Duration: time.Since(start),
	}

	if stats.Unclosed > 0 {
		logger.Warn("tokens ended with open branches", log.Int("unclosed", stats.Unclosed))
	}
	logger.Info("tree generated",
		log.String("id", res.ID),
		log.Int("tokens", len(exp.Tokens)),
		log.Int("vertices", m.VertexCount()),
		log.Int("triangles", m.TriangleCount()),
		log.Int("leaves", stats.Leaves),
		log.Uint64("hash", res.Hash),
		log.Duration("took", res.Duration),
	)
	return res, nil
}

// Forest generates one tree per seed in parallel. Results keep the order
// of seeds; the first failure cancels the rest.
func (g *Generator) Forest(ctx context.Context, p *preset.Preset, seeds []uint64) ([]*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	results, err := concurrent.MapErr(ctx, sequence.From(seeds), g.workers,
		func(ctx context.Context, seed uint64) (*Result, error) {
			return g.Generate(ctx, p, seed)
		})
	if err != nil {
		return nil, fmt.Errorf("forest %s: %w", p.Name, err)
	}
	return results, nil
}

// Seeds returns n consecutive seeds starting at base.
func Seeds(base uint64, n int) []uint64 {
	return sequence.Count(base, n).Collect()
}
