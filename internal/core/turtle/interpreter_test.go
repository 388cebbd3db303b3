package turtle

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/arbor/internal/core/geometry"
	"github.com/zeusync/arbor/internal/core/grammar"
)

// constSource always returns the same value.
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

func newInterpreter(t *testing.T, src Source) *Interpreter {
	t.Helper()
	interp, err := New(DefaultConfig(), src)
	require.NoError(t, err)
	return interp
}

func TestParseCommand(t *testing.T) {
	cases := map[grammar.Token]Command{
		"-":        CommandShrink,
		"+":        CommandGrow,
		"Continue": CommandContinue,
		"(":        CommandPush,
		"Branch(":  CommandBranch,
		"Oppose(":  CommandOppose,
		"R120(":    CommandRotate120,
		"RG(":      CommandGolden,
		"Leaf":     CommandLeaf,
		")":        CommandClose,
		"A":        CommandNone,
		"continue": CommandNone,
	}
	for tok, want := range cases {
		got := ParseCommand(tok)
		assert.Equalf(t, want, got, "token %q", tok)
		if want != CommandNone {
			assert.Equal(t, tok, got.Token())
		}
	}
	assert.True(t, CommandGolden.Opens())
	assert.False(t, CommandClose.Opens())
}

func TestNewRejectsInvalidInput(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNilSource)

	cfg := DefaultConfig()
	cfg.BranchMinAngle = 100
	cfg.BranchMaxAngle = 40
	_, err = New(cfg, constSource(0.5))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	mutations := map[string]func(*Config){
		"leaf scale":       func(c *Config) { c.LeafScale = 3 },
		"max leaf size":    func(c *Config) { c.MaxLeafSize = 0.1 },
		"zero min factor":  func(c *Config) { c.MinContinueScaleFactor = 0 },
		"min above max":    func(c *Config) { c.MinContinueScaleFactor, c.MaxContinueScaleFactor = 1, 0.5 },
		"bias angle":       func(c *Config) { c.BiasAngle = 45 },
		"zero bias":        func(c *Config) { c.BiasDirection = mgl64.Vec3{} },
		"negative jitter":  func(c *Config) { c.PhyllotaxisJitter = -1 },
		"continue angle":   func(c *Config) { c.ContinueMaxAngle = 91 },
		"branch max angle": func(c *Config) { c.BranchMaxAngle = 121 },
		"nan leaf scale":   func(c *Config) { c.LeafScale = math.NaN() },
		"nan min factor":   func(c *Config) { c.MinContinueScaleFactor = math.NaN() },
		"nan bias angle":   func(c *Config) { c.BiasAngle = math.NaN() },
		"nan bias":         func(c *Config) { c.BiasDirection = mgl64.Vec3{math.NaN(), 1, 0} },
		"infinite bias":    func(c *Config) { c.BiasDirection = mgl64.Vec3{0, math.Inf(1), 0} },
	}
	for name, mutate := range mutations {
		cfg := DefaultConfig()
		mutate(&cfg)
		assert.ErrorIsf(t, cfg.Validate(), ErrInvalidConfig, name)
	}
}

func TestRootState(t *testing.T) {
	interp := newInterpreter(t, constSource(0.5))
	assert.Equal(t, 1, interp.Depth())

	root := interp.Top()
	assert.Equal(t, mgl64.Vec3{}, root.Position)
	assert.Equal(t, geometry.Up, root.Direction)
	assert.Equal(t, 1.0, root.Scale)
	assert.Equal(t, 0, root.Index)
}

func TestContinueLeafEmitsRingPairAndBillboard(t *testing.T) {
	m, stats, err := Interpret(grammar.Lex("Continue Leaf"), DefaultConfig(), NewSource(7))
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	// Root ring, one segment ring, one billboard.
	assert.Len(t, m.Vertices, 12)
	assert.Len(t, m.UVs, 12)
	assert.Len(t, m.MainIndices, 4*6)
	assert.Equal(t, []uint32{8, 10, 9, 10, 11, 9}, m.LeafIndices)

	assert.Equal(t, 1, stats.Segments)
	assert.Equal(t, 1, stats.Leaves)
	assert.Equal(t, 0, stats.Unclosed)
}

func TestBalancedPushesKeepDepthAndEmitNoLeaves(t *testing.T) {
	interp := newInterpreter(t, constSource(0.5))
	m, stats, err := interp.Run(grammar.Lex("( ( ( ) ) )"))
	require.NoError(t, err)

	assert.Equal(t, 1, interp.Depth())
	assert.Empty(t, m.LeafIndices)
	assert.Equal(t, 0, stats.Leaves)
	assert.Equal(t, 4, stats.MaxDepth)
	require.NoError(t, m.Validate())
}

func TestUnmatchedCloseFails(t *testing.T) {
	interp := newInterpreter(t, constSource(0.5))
	m, _, err := interp.Run(grammar.Lex("Continue ( ) )"))
	assert.ErrorIs(t, err, ErrUnbalancedClose)
	assert.Nil(t, m)
}

func TestUnclosedBranchesAreReported(t *testing.T) {
	_, stats, err := Interpret(grammar.Lex("Branch( Continue ( Leaf"), DefaultConfig(), NewSource(1))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Unclosed)
}

func TestUnknownTokensAreIgnored(t *testing.T) {
	m, stats, err := Interpret(grammar.Lex("A B C"), DefaultConfig(), constSource(0.5))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Ignored)
	assert.Len(t, m.Vertices, 4)
	assert.Empty(t, m.MainIndices)
}

func TestShrinkGrow(t *testing.T) {
	interp := newInterpreter(t, constSource(0.5))
	require.NoError(t, interp.Step("-"))
	assert.InDelta(t, 0.9, interp.Top().Scale, 1e-12)
	require.NoError(t, interp.Step("+"))
	assert.InDelta(t, 1.0, interp.Top().Scale, 1e-12)
}

func TestContinueAdvancesAndBiases(t *testing.T) {
	interp := newInterpreter(t, constSource(0.5))
	require.NoError(t, interp.Step("Continue"))

	s := interp.Top()
	// lerp(0.9, 1, 0.5)
	assert.InDelta(t, 0.95, s.Scale, 1e-12)
	assert.True(t, s.Position.ApproxEqualThreshold(mgl64.Vec3{0, 0.95, 0}, 1e-9))
	assert.Equal(t, 4, s.Index)
	assert.Equal(t, 1, s.UVOffset)
	// 7.5 degrees of wobble, 5 degrees pulled back toward up.
	assert.InDelta(t, 2.5, geometry.AngleBetween(geometry.Up, s.Direction), 1e-6)
	assert.InDelta(t, 1, s.Direction.Len(), 1e-9)
}

func TestBranchRotatesWithinRange(t *testing.T) {
	for _, r := range []float64{0, 0.25, 0.5, 0.99} {
		interp := newInterpreter(t, constSource(r))
		require.NoError(t, interp.Step("Branch("))
		require.Equal(t, 2, interp.Depth())

		child := interp.Top()
		angle := geometry.AngleBetween(geometry.Up, child.Direction)
		assert.GreaterOrEqual(t, angle, 30-1e-6)
		assert.LessOrEqual(t, angle, 90+1e-6)
		assert.InDelta(t, 0.7, child.Scale, 1e-12)

		require.NoError(t, interp.Step(")"))
		parent := interp.Top()
		assert.True(t, parent.BranchDirection.ApproxEqualThreshold(child.Direction, 1e-9))
		assert.Equal(t, geometry.Up, parent.Direction)
	}
}

func TestFixedAngleBranches(t *testing.T) {
	cases := map[grammar.Token]float64{
		"Oppose(": 180,
		"R120(":   120,
		"RG(":     360 - GoldenAngle,
	}
	for tok, want := range cases {
		interp := newInterpreter(t, constSource(0.5))
		before := interp.Top().BranchDirection
		require.NoError(t, interp.Step(tok))

		child := interp.Top()
		assert.InDeltaf(t, want, geometry.AngleBetween(before, child.Direction), 1e-6, "token %q", tok)
		// Rotation is around the heading, so the branch stays orthogonal to it.
		assert.InDelta(t, 90, geometry.AngleBetween(geometry.Up, child.Direction), 1e-6)
	}
}

func TestSuccessiveGoldenBranchesSpiral(t *testing.T) {
	interp := newInterpreter(t, constSource(0.5))
	var dirs []mgl64.Vec3
	for i := 0; i < 3; i++ {
		require.NoError(t, interp.Step("RG("))
		dirs = append(dirs, interp.Top().Direction)
		require.NoError(t, interp.Step(")"))
	}
	assert.InDelta(t, 360-GoldenAngle, geometry.AngleBetween(dirs[0], dirs[1]), 1e-6)
	assert.InDelta(t, 360-GoldenAngle, geometry.AngleBetween(dirs[1], dirs[2]), 1e-6)
}

func TestPhyllotaxisJitter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PhyllotaxisJitter = 20
	interp, err := New(cfg, constSource(0.5))
	require.NoError(t, err)

	before := interp.Top().BranchDirection
	require.NoError(t, interp.Step("Oppose("))
	got := geometry.AngleBetween(before, interp.Top().Direction)
	assert.Less(t, got, 180.0)
	assert.GreaterOrEqual(t, got, 160-1e-6)
}

func TestSameSeedSameMesh(t *testing.T) {
	tokens := grammar.Lex("Continue Branch( Continue Leaf ) RG( Continue - Continue Leaf ) Continue Oppose( Continue Leaf ) Leaf")

	a, _, err := Interpret(tokens, DefaultConfig(), NewSource(42))
	require.NoError(t, err)
	b, _, err := Interpret(tokens, DefaultConfig(), NewSource(42))
	require.NoError(t, err)
	c, _, err := Interpret(tokens, DefaultConfig(), NewSource(43))
	require.NoError(t, err)

	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
	require.NoError(t, a.Validate())
}

func TestRunResetsBetweenPasses(t *testing.T) {
	interp := newInterpreter(t, NewSource(3))
	first, _, err := interp.Run(grammar.Lex("Continue Continue Leaf"))
	require.NoError(t, err)
	second, _, err := interp.Run(grammar.Lex("Continue"))
	require.NoError(t, err)

	assert.Len(t, first.Vertices, 16)
	assert.Len(t, second.Vertices, 8)
}
