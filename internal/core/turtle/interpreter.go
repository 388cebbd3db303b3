// Package turtle interprets expanded L-system tokens as a stack based
// turtle program and emits tree geometry into a mesh builder.
package turtle

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/arbor/internal/core/geometry"
	"github.com/zeusync/arbor/internal/core/grammar"
	"github.com/zeusync/arbor/internal/core/mesh"
)

const (
	ringSize       = 4
	ringThickness  = 0.2
	leafSizeFactor = 10
)

// State is the turtle cursor. It is a value type: pushing copies it.
type State struct {
	Position        mgl64.Vec3
	Direction       mgl64.Vec3
	BranchDirection mgl64.Vec3
	// Index is the first vertex of the last ring emitted by this state.
	Index    int
	Scale    float64
	UVOffset int
}

// Stats summarizes one interpretation pass.
type Stats struct {
	Tokens   int `json:"tokens"`
	Ignored  int `json:"ignored"`
	Segments int `json:"segments"`
	Leaves   int `json:"leaves"`
	Branches int `json:"branches"`
	MaxDepth int `json:"max_depth"`
	// Unclosed counts branches still open when the tokens ran out.
	Unclosed int `json:"unclosed"`
}

// Interpreter is a single-threaded turtle. It is not safe for concurrent
// use; run one per generation pass.
type Interpreter struct {
	cfg     Config
	rand    Source
	stack   []State
	builder *mesh.Builder
	stats   Stats
}

func New(cfg Config, src Source) (*Interpreter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, ErrNilSource
	}
	t := &Interpreter{
		cfg:  cfg,
		rand: src,
	}
	t.Reset()
	return t, nil
}

// Interpret is a convenience wrapper running tokens through a fresh
// interpreter.
func Interpret(tokens []grammar.Token, cfg Config, src Source) (*mesh.Mesh, Stats, error) {
	t, err := New(cfg, src)
	if err != nil {
		return nil, Stats{}, err
	}
	return t.Run(tokens)
}

// Reset discards any geometry and pushes the root state with its base
// ring at the origin.
func (t *Interpreter) Reset() {
	t.builder = mesh.NewBuilder()
	t.stats = Stats{MaxDepth: 1}
	t.stack = t.stack[:0]
	t.stack = append(t.stack, State{
		Direction:       geometry.Up,
		BranchDirection: geometry.OrthogonalPlaneBasis(geometry.Up).X,
		Scale:           1,
	})

	count := t.addRing(mgl64.Vec3{}, geometry.Up, 1)
	t.addLineUVs(0, count)
}

// Run resets the interpreter, executes every token and hands off the
// mesh. Any error aborts the pass and no mesh is returned.
func (t *Interpreter) Run(tokens []grammar.Token) (*mesh.Mesh, Stats, error) {
	t.Reset()
	for i, tok := range tokens {
		if err := t.Step(tok); err != nil {
			return nil, t.stats, fmt.Errorf("token %d %q: %w", i, tok, err)
		}
	}
	t.stats.Unclosed = len(t.stack) - 1
	return t.builder.Build(), t.stats, nil
}

// Step executes a single token. Unknown tokens are ignored.
func (t *Interpreter) Step(tok grammar.Token) error {
	t.stats.Tokens++
	cmd := ParseCommand(tok)
	if cmd == CommandNone {
		t.stats.Ignored++
		return nil
	}
	return t.execute(cmd)
}

// Depth returns the current stack depth; 1 means only the root is open.
func (t *Interpreter) Depth() int {
	return len(t.stack)
}

// Top returns a copy of the current drawing state.
func (t *Interpreter) Top() State {
	return *t.top()
}

func (t *Interpreter) execute(cmd Command) error {
	switch cmd {
	case CommandShrink:
		t.top().Scale *= t.cfg.MinContinueScaleFactor
	case CommandGrow:
		t.top().Scale /= t.cfg.MinContinueScaleFactor
	case CommandContinue:
		t.advance()
	case CommandPush:
		t.push(*t.top())
	case CommandBranch:
		t.branch()
	case CommandOppose, CommandRotate120, CommandGolden:
		t.rotatedBranch(cmd.fixedAngle())
	case CommandLeaf:
		t.drawLeaf(t.top().Direction)
	case CommandClose:
		return t.close()
	}
	return nil
}

func (t *Interpreter) top() *State {
	return &t.stack[len(t.stack)-1]
}

func (t *Interpreter) push(s State) {
	t.stack = append(t.stack, s)
	t.stats.MaxDepth = max(t.stats.MaxDepth, len(t.stack))
}

// advance draws a segment, wobbles the heading randomly and then bends it
// toward the bias direction by at most BiasAngle.
func (t *Interpreter) advance() {
	s := t.top()
	s.Scale *= geometry.Lerp(t.cfg.MinContinueScaleFactor, t.cfg.MaxContinueScaleFactor, t.rand.Float64())
	t.drawLine(s.Direction)

	rot := randomRotation(t.rand, 0, t.cfg.ContinueMaxAngle, s.Direction)
	s.BranchDirection = rot.Rotate(s.BranchDirection)
	s.Direction = rot.Rotate(s.Direction)

	rot = geometry.RotateTowards(s.Direction, t.cfg.BiasDirection, t.cfg.BiasAngle)
	s.BranchDirection = rot.Rotate(s.BranchDirection)
	s.Direction = rot.Rotate(s.Direction)
}

func (t *Interpreter) branch() {
	parent := t.top()
	child := *parent

	rot := randomRotation(t.rand, t.cfg.BranchMinAngle, t.cfg.BranchMaxAngle, child.Direction)
	dir := rot.Rotate(child.Direction)

	parent.BranchDirection = dir
	child.Direction = dir
	child.Scale *= t.cfg.BranchScaleFactor
	t.stats.Branches++
	t.push(child)
}

// rotatedBranch spins the parent's last branch direction around the
// current heading by angle and starts a child along it.
func (t *Interpreter) rotatedBranch(angle float64) {
	parent := t.top()
	child := *parent

	dir := geometry.AngleAxis(angle, child.Direction).Rotate(child.BranchDirection)
	if t.cfg.PhyllotaxisJitter > 0 {
		dir = randomRotation(t.rand, 0, t.cfg.PhyllotaxisJitter, dir).Rotate(dir)
	}

	parent.BranchDirection = dir
	child.Direction = dir
	child.Scale *= t.cfg.BranchScaleFactor
	t.stats.Branches++
	t.push(child)
}

func (t *Interpreter) close() error {
	if len(t.stack) <= 1 {
		return ErrUnbalancedClose
	}
	cur := t.top()
	t.addRingQuads(cur.Index, cur.Index+2, 2)
	t.stack = t.stack[:len(t.stack)-1]
	return nil
}

func (t *Interpreter) drawLine(dir mgl64.Vec3) {
	cur := t.top()
	cur.UVOffset++

	next := cur.Position.Add(dir.Mul(cur.Scale * t.cfg.ContinueStep))
	nextIndex := t.builder.VertexCount()
	count := t.addRing(next, dir, cur.Scale)
	t.addLineUVs(cur.UVOffset, count)
	t.addRingQuads(cur.Index, nextIndex, count)

	cur.Position = next
	cur.Index = nextIndex
	cur.Direction = dir
	t.stats.Segments++
}

func (t *Interpreter) drawLeaf(dir mgl64.Vec3) {
	cur := t.top()

	next := cur.Position.Add(dir.Mul(t.leafSize(cur.Scale)))
	start := t.builder.VertexCount()
	offsets := t.billboardOffsets(cur.Scale, dir)
	for _, off := range offsets {
		t.builder.AddVertex(cur.Position.Add(off))
	}
	for _, off := range offsets {
		t.builder.AddVertex(next.Add(off))
	}

	t.builder.AddTriangle(mesh.SubmeshLeaf, start, start+2, start+1)
	t.builder.AddTriangle(mesh.SubmeshLeaf, start+2, start+3, start+1)

	for _, uv := range []mgl64.Vec2{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		t.builder.AddUV(uv)
	}
	t.stats.Leaves++
}

func (t *Interpreter) leafSize(scale float64) float64 {
	return math.Min(scale*leafSizeFactor, t.cfg.MaxLeafSize) * t.cfg.LeafScale
}

// ringOffsets returns the four corner offsets of a branch cross-section.
func ringOffsets(scale float64, dir mgl64.Vec3) [ringSize]mgl64.Vec3 {
	b := geometry.OrthogonalPlaneBasis(dir)
	k := scale * ringThickness
	return [ringSize]mgl64.Vec3{
		b.X.Sub(b.Y).Mul(k),
		b.X.Add(b.Y).Mul(k),
		b.Y.Sub(b.X).Mul(k),
		b.X.Add(b.Y).Mul(-k),
	}
}

func (t *Interpreter) addRing(pos, dir mgl64.Vec3, scale float64) int {
	offsets := ringOffsets(scale, dir)
	for _, off := range offsets {
		t.builder.AddVertex(pos.Add(off))
	}
	return len(offsets)
}

// billboardOffsets keeps leaves upright: the quad spreads along the
// in-plane perpendicular of the projected bias direction.
func (t *Interpreter) billboardOffsets(scale float64, dir mgl64.Vec3) [2]mgl64.Vec3 {
	b := geometry.OrthogonalPlaneBasis(dir)
	up := geometry.SafeNormalize2(geometry.ProjectOntoBasis(t.cfg.BiasDirection, b))
	flat := geometry.ProjectFromBasis(mgl64.Vec2{up[1], -up[0]}, b)
	size := t.leafSize(scale)
	return [2]mgl64.Vec3{flat.Mul(size), flat.Mul(-size)}
}

// addRingQuads stitches two rings of n vertices with two triangles per
// side, wrapping at the ring boundary.
func (t *Interpreter) addRingQuads(oldStart, newStart, n int) {
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		t.builder.AddTriangle(mesh.SubmeshMain, oldStart+i, newStart+i, oldStart+j)
		t.builder.AddTriangle(mesh.SubmeshMain, newStart+i, newStart+j, oldStart+j)
	}
}

func (t *Interpreter) addLineUVs(v, count int) {
	for i := 0; i < count; i++ {
		t.builder.AddUV(mgl64.Vec2{float64(i) / float64(count-1), float64(v)})
	}
}
