package mesh

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/arbor/internal/core/geometry"
)

// Submesh selects which index list a triangle belongs to.
type Submesh uint8

const (
	// SubmeshMain holds trunk and branch triangles.
	SubmeshMain Submesh = iota
	// SubmeshLeaf holds foliage billboards.
	SubmeshLeaf
)

func (s Submesh) String() string {
	switch s {
	case SubmeshMain:
		return "trunk"
	case SubmeshLeaf:
		return "leaves"
	default:
		return fmt.Sprintf("submesh(%d)", uint8(s))
	}
}

// Mesh is the payload produced by one generation pass.
type Mesh struct {
	Vertices    []mgl64.Vec3 `json:"vertices"`
	UVs         []mgl64.Vec2 `json:"uvs"`
	MainIndices []uint32     `json:"main_indices"`
	LeafIndices []uint32     `json:"leaf_indices"`
}

// Indices returns the index list of the given submesh.
func (m *Mesh) Indices(s Submesh) []uint32 {
	if s == SubmeshLeaf {
		return m.LeafIndices
	}
	return m.MainIndices
}

func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// TriangleCount returns the number of triangles in both submeshes.
func (m *Mesh) TriangleCount() int {
	return (len(m.MainIndices) + len(m.LeafIndices)) / 3
}

// Validate checks that index lists are whole triangles referencing
// existing vertices and that UVs, when present, cover every vertex.
func (m *Mesh) Validate() error {
	if len(m.UVs) != 0 && len(m.UVs) != len(m.Vertices) {
		return fmt.Errorf("%w: %d uvs for %d vertices", ErrInvalidMesh, len(m.UVs), len(m.Vertices))
	}
	for _, s := range []Submesh{SubmeshMain, SubmeshLeaf} {
		indices := m.Indices(s)
		if len(indices)%3 != 0 {
			return fmt.Errorf("%w: %s index count %d is not a multiple of 3", ErrInvalidMesh, s, len(indices))
		}
		for i, idx := range indices {
			if int(idx) >= len(m.Vertices) {
				return fmt.Errorf("%w: %s index %d references vertex %d of %d", ErrInvalidMesh, s, i, idx, len(m.Vertices))
			}
		}
	}
	return nil
}

// Bounds returns the axis aligned bounding box of all vertices. An empty
// mesh has zero bounds.
func (m *Mesh) Bounds() (lo, hi mgl64.Vec3) {
	if len(m.Vertices) == 0 {
		return lo, hi
	}
	lo = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range m.Vertices {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], v[i])
			hi[i] = math.Max(hi[i], v[i])
		}
	}
	return lo, hi
}

// Normals computes area weighted vertex normals over both submeshes.
// Vertices not referenced by any triangle get a zero normal.
func (m *Mesh) Normals() []mgl64.Vec3 {
	normals := make([]mgl64.Vec3, len(m.Vertices))
	accumulate := func(indices []uint32) {
		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := indices[i], indices[i+1], indices[i+2]
			face := m.Vertices[b].Sub(m.Vertices[a]).Cross(m.Vertices[c].Sub(m.Vertices[a]))
			normals[a] = normals[a].Add(face)
			normals[b] = normals[b].Add(face)
			normals[c] = normals[c].Add(face)
		}
	}
	accumulate(m.MainIndices)
	accumulate(m.LeafIndices)
	for i := range normals {
		normals[i] = geometry.SafeNormalize(normals[i])
	}
	return normals
}

// Builder is the append-only sink the turtle writes into.
type Builder struct {
	mesh Mesh
}

func NewBuilder() *Builder {
	return &Builder{}
}

// VertexCount is the index the next added vertex will receive.
func (b *Builder) VertexCount() int {
	return len(b.mesh.Vertices)
}

func (b *Builder) AddVertex(v mgl64.Vec3) int {
	b.mesh.Vertices = append(b.mesh.Vertices, v)
	return len(b.mesh.Vertices) - 1
}

func (b *Builder) AddUV(uv mgl64.Vec2) {
	b.mesh.UVs = append(b.mesh.UVs, uv)
}

func (b *Builder) AddTriangle(s Submesh, i0, i1, i2 int) {
	tri := []uint32{uint32(i0), uint32(i1), uint32(i2)}
	if s == SubmeshLeaf {
		b.mesh.LeafIndices = append(b.mesh.LeafIndices, tri...)
		return
	}
	b.mesh.MainIndices = append(b.mesh.MainIndices, tri...)
}

// Build hands the accumulated buffers off and resets the builder.
func (b *Builder) Build() *Mesh {
	m := b.mesh
	b.mesh = Mesh{}
	return &m
}
