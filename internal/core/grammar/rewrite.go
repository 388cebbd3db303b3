package grammar

import (
	"context"
	"fmt"
)

const (
	DefaultMaxTokens     = 1 << 20
	DefaultMaxIterations = 32
)

// Limits bound the work a single expansion may do.
type Limits struct {
	MaxTokens     int
	MaxIterations int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxTokens:     DefaultMaxTokens,
		MaxIterations: DefaultMaxIterations,
	}
}

// Apply performs one rewrite pass. Tokens that are keys of set are
// replaced by their mapped sequence, all others are kept in place.
func Apply(tokens []Token, set RuleSet) []Token {
	out, _ := apply(tokens, set, 0)
	return out
}

// ApplyN performs n sequential rewrite passes.
func ApplyN(tokens []Token, set RuleSet, n int) []Token {
	for i := 0; i < n; i++ {
		tokens = Apply(tokens, set)
	}
	return tokens
}

// apply sizes the output before allocating so that a runaway rule set is
// rejected without materializing it. maxTokens <= 0 disables the check.
func apply(tokens []Token, set RuleSet, maxTokens int) ([]Token, error) {
	size := 0
	for _, t := range tokens {
		if repl, ok := set[t]; ok {
			size += len(repl)
		} else {
			size++
		}
		if maxTokens > 0 && size > maxTokens {
			return nil, fmt.Errorf("%w: more than %d tokens", ErrExpansionLimit, maxTokens)
		}
	}

	out := make([]Token, 0, size)
	for _, t := range tokens {
		if repl, ok := set[t]; ok {
			out = append(out, repl...)
		} else {
			out = append(out, t)
		}
	}
	return out, nil
}

// Grammar is an axiom with its production and interpretation rules.
type Grammar struct {
	axiom           []Token
	rules           RuleSet
	interpretations RuleSet
	iterations      int
	limits          Limits
}

// Option configures a Grammar.
type Option func(*Grammar)

// WithLimits overrides the default expansion limits. Zero fields keep
// their defaults.
func WithLimits(limits Limits) Option {
	return func(g *Grammar) {
		if limits.MaxTokens > 0 {
			g.limits.MaxTokens = limits.MaxTokens
		}
		if limits.MaxIterations > 0 {
			g.limits.MaxIterations = limits.MaxIterations
		}
	}
}

// New compiles a grammar from its textual parts.
func New(axiom string, rules, interpretations []Rule, iterations int, opts ...Option) (*Grammar, error) {
	g := &Grammar{
		axiom:      Lex(axiom),
		iterations: iterations,
		limits:     DefaultLimits(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if iterations < 0 || iterations > g.limits.MaxIterations {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidIterations, iterations, g.limits.MaxIterations)
	}
	if len(g.axiom) > g.limits.MaxTokens {
		return nil, fmt.Errorf("%w: axiom has %d tokens", ErrExpansionLimit, len(g.axiom))
	}

	var err error
	if g.rules, err = Compile(rules); err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	if g.interpretations, err = Compile(interpretations); err != nil {
		return nil, fmt.Errorf("interpretations: %w", err)
	}
	return g, nil
}

func (g *Grammar) Axiom() []Token { return append([]Token(nil), g.axiom...) }

func (g *Grammar) Iterations() int { return g.iterations }

func (g *Grammar) Limits() Limits { return g.limits }

// Expansion is the outcome of Grammar.Expand.
type Expansion struct {
	Tokens []Token
	// Steps holds the token count of the axiom followed by the count after
	// every production pass and finally after interpretation.
	Steps []int
}

// Expand rewrites the axiom Iterations times with the production rules and
// then once with the interpretation rules. The context is checked between
// passes.
func (g *Grammar) Expand(ctx context.Context) (Expansion, error) {
	tokens := g.Axiom()
	steps := make([]int, 0, g.iterations+2)
	steps = append(steps, len(tokens))

	var err error
	for i := 0; i < g.iterations; i++ {
		if err = ctx.Err(); err != nil {
			return Expansion{}, err
		}
		if tokens, err = apply(tokens, g.rules, g.limits.MaxTokens); err != nil {
			return Expansion{}, fmt.Errorf("iteration %d: %w", i+1, err)
		}
		steps = append(steps, len(tokens))
	}

	if tokens, err = apply(tokens, g.interpretations, g.limits.MaxTokens); err != nil {
		return Expansion{}, fmt.Errorf("interpretation: %w", err)
	}
	steps = append(steps, len(tokens))

	return Expansion{Tokens: tokens, Steps: steps}, nil
}
