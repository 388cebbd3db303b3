package mesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/arbor/pkg/encoding"
)

var _ encoding.Serializable[Mesh] = (*Mesh)(nil)

const (
	payloadMagic   = "ARBM"
	payloadVersion = uint16(1)
	headerSize     = len(payloadMagic) + 2 + 4*4
)

// Serialize encodes the mesh as a little-endian binary payload:
// magic, version, four counts, then vertices, uvs, main and leaf indices.
func (m *Mesh) Serialize() ([]byte, error) {
	size := headerSize + len(m.Vertices)*24 + len(m.UVs)*16 + (len(m.MainIndices)+len(m.LeafIndices))*4
	buf := make([]byte, 0, size)

	buf = append(buf, payloadMagic...)
	buf = binary.LittleEndian.AppendUint16(buf, payloadVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Vertices)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.UVs)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.MainIndices)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.LeafIndices)))

	for _, v := range m.Vertices {
		for _, c := range v {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(c))
		}
	}
	for _, uv := range m.UVs {
		for _, c := range uv {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(c))
		}
	}
	for _, idx := range m.MainIndices {
		buf = binary.LittleEndian.AppendUint32(buf, idx)
	}
	for _, idx := range m.LeafIndices {
		buf = binary.LittleEndian.AppendUint32(buf, idx)
	}
	return buf, nil
}

// Deserialize replaces the mesh contents with the decoded payload.
func (m *Mesh) Deserialize(data []byte) error {
	if len(data) < headerSize || string(data[:4]) != payloadMagic {
		return fmt.Errorf("%w: bad header", ErrCorruptPayload)
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != payloadVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptPayload, v)
	}
	nv := int(binary.LittleEndian.Uint32(data[6:]))
	nuv := int(binary.LittleEndian.Uint32(data[10:]))
	nmain := int(binary.LittleEndian.Uint32(data[14:]))
	nleaf := int(binary.LittleEndian.Uint32(data[18:]))

	want := headerSize + nv*24 + nuv*16 + (nmain+nleaf)*4
	if len(data) != want {
		return fmt.Errorf("%w: payload is %d bytes, header describes %d", ErrCorruptPayload, len(data), want)
	}

	off := headerSize
	float := func() float64 {
		f := math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
		off += 8
		return f
	}
	index := func() uint32 {
		i := binary.LittleEndian.Uint32(data[off:])
		off += 4
		return i
	}

	out := Mesh{
		Vertices:    make([]mgl64.Vec3, nv),
		UVs:         make([]mgl64.Vec2, nuv),
		MainIndices: make([]uint32, nmain),
		LeafIndices: make([]uint32, nleaf),
	}
	for i := range out.Vertices {
		out.Vertices[i] = mgl64.Vec3{float(), float(), float()}
	}
	for i := range out.UVs {
		out.UVs[i] = mgl64.Vec2{float(), float()}
	}
	for i := range out.MainIndices {
		out.MainIndices[i] = index()
	}
	for i := range out.LeafIndices {
		out.LeafIndices[i] = index()
	}

	if err := out.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	*m = out
	return nil
}

// Hash is the xxhash64 digest of the binary payload. Identical meshes hash
// identically, which makes it usable as a cache key and for seed
// reproducibility checks.
func (m *Mesh) Hash() uint64 {
	data, _ := m.Serialize()
	return xxhash.Sum64(data)
}

// WriteOBJ writes the mesh in Wavefront OBJ form with one group per
// submesh. Normals are computed from the triangles.
func (m *Mesh) WriteOBJ(w io.Writer, name string) error {
	bw := bufio.NewWriter(w)

	if name != "" {
		fmt.Fprintf(bw, "o %s\n", name)
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v[0], v[1], v[2])
	}
	for _, uv := range m.UVs {
		fmt.Fprintf(bw, "vt %g %g\n", uv[0], uv[1])
	}
	for _, n := range m.Normals() {
		fmt.Fprintf(bw, "vn %g %g %g\n", n[0], n[1], n[2])
	}

	hasUV := len(m.UVs) == len(m.Vertices) && len(m.UVs) > 0
	for _, s := range []Submesh{SubmeshMain, SubmeshLeaf} {
		indices := m.Indices(s)
		if len(indices) == 0 {
			continue
		}
		fmt.Fprintf(bw, "g %s\n", s)
		for i := 0; i+2 < len(indices); i += 3 {
			bw.WriteString("f")
			for _, idx := range indices[i : i+3] {
				// OBJ indices are 1-based.
				if hasUV {
					fmt.Fprintf(bw, " %d/%d/%d", idx+1, idx+1, idx+1)
				} else {
					fmt.Fprintf(bw, " %d//%d", idx+1, idx+1)
				}
			}
			bw.WriteByte('\n')
		}
	}

	return bw.Flush()
}
