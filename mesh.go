package scenegraph

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SubMesh is one indexed primitive batch of a Mesh. Vertices is always
// populated; Normals and TexCoords are optional but must match the
// vertex count when present. MaterialIndex points into Mesh.Materials.
type SubMesh struct {
	Vertices      []mgl32.Vec3
	Normals       []mgl32.Vec3
	TexCoords     []mgl32.Vec2
	Indices       []uint32
	MaterialIndex int
}

// Mesh is the parsed mesh description handed over by the loading
// collaborator. Content parsing happens elsewhere; this package only
// consumes and uploads it.
type Mesh struct {
	Name      string
	SubMeshes []SubMesh
	// Materials holds catalog names referenced by SubMesh.MaterialIndex.
	Materials []string
	// Precomputed model-space corners.
	Min, Max mgl32.Vec3
}

// Validate checks the per-submesh invariants: parallel attribute arrays
// of identical length and indices within [0, vertexCount).
func (sm *SubMesh) Validate() error {
	n := len(sm.Vertices)
	if len(sm.Normals) != 0 && len(sm.Normals) != n {
		return fmt.Errorf("normal count %d does not match vertex count %d", len(sm.Normals), n)
	}
	if len(sm.TexCoords) != 0 && len(sm.TexCoords) != n {
		return fmt.Errorf("texcoord count %d does not match vertex count %d", len(sm.TexCoords), n)
	}
	for _, idx := range sm.Indices {
		if int(idx) >= n {
			return fmt.Errorf("index %d out of range [0,%d)", idx, n)
		}
	}
	return nil
}

// RecomputeBounds refreshes Min/Max from the vertex data.
func (m *Mesh) RecomputeBounds() {
	var box Box
	for i := range m.SubMeshes {
		for _, v := range m.SubMeshes[i].Vertices {
			box.ExtendPoint(v)
		}
	}
	m.Min, m.Max = box.Min, box.Max
}

// TiledBoxName is the registry name of a generated unit box with the
// given UV tiling, e.g. "unit_box_U1V1".
func TiledBoxName(uvTile mgl32.Vec2) string {
	return fmt.Sprintf("unit_box_U%gV%g", uvTile.X(), uvTile.Y())
}

// GeneratePlane builds a planar mesh facing normal, centered on the
// origin, with the given world size and texture tiling. The grid is
// tessellated 2x2 so per-vertex lighting stays usable on large planes.
func GeneratePlane(name string, normal mgl32.Vec3, size mgl32.Vec2, uvTile mgl32.Vec2) *Mesh {
	const segments = 2

	n := normal.Normalize()
	tangent := n.Cross(mgl32.Vec3{0, 0, 1})
	if tangent.Len() < 1e-6 {
		tangent = n.Cross(mgl32.Vec3{0, 1, 0})
	}
	tangent = tangent.Normalize()
	bitangent := n.Cross(tangent).Normalize()

	var sm SubMesh
	for y := 0; y <= segments; y++ {
		for x := 0; x <= segments; x++ {
			fx := float32(x)/segments - 0.5
			fy := float32(y)/segments - 0.5
			pos := tangent.Mul(fx * size.X()).Add(bitangent.Mul(fy * size.Y()))
			sm.Vertices = append(sm.Vertices, pos)
			sm.Normals = append(sm.Normals, n)
			sm.TexCoords = append(sm.TexCoords, mgl32.Vec2{
				float32(x) / segments * uvTile.X(),
				float32(y) / segments * uvTile.Y(),
			})
		}
	}
	stride := uint32(segments + 1)
	for y := uint32(0); y < segments; y++ {
		for x := uint32(0); x < segments; x++ {
			i := y*stride + x
			sm.Indices = append(sm.Indices,
				i, i+1, i+stride,
				i+1, i+stride+1, i+stride)
		}
	}

	m := &Mesh{Name: name, SubMeshes: []SubMesh{sm}, Materials: []string{"White"}}
	m.RecomputeBounds()
	return m
}

// GenerateBox builds an axis-aligned box mesh centered on the origin.
func GenerateBox(name string, sides mgl32.Vec3, uvTile mgl32.Vec2) *Mesh {
	hx, hy, hz := sides.X()/2, sides.Y()/2, sides.Z()/2

	type face struct {
		normal  mgl32.Vec3
		corners [4]mgl32.Vec3
	}
	faces := []face{
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{hx, -hy, -hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{hx, -hy, hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}, {-hx, -hy, hz}}},
	}
	uv := [4]mgl32.Vec2{
		{0, 0},
		{uvTile.X(), 0},
		{uvTile.X(), uvTile.Y()},
		{0, uvTile.Y()},
	}

	var sm SubMesh
	for _, f := range faces {
		base := uint32(len(sm.Vertices))
		for i := 0; i < 4; i++ {
			sm.Vertices = append(sm.Vertices, f.corners[i])
			sm.Normals = append(sm.Normals, f.normal)
			sm.TexCoords = append(sm.TexCoords, uv[i])
		}
		sm.Indices = append(sm.Indices, base, base+1, base+2, base, base+2, base+3)
	}

	m := &Mesh{Name: name, SubMeshes: []SubMesh{sm}, Materials: []string{"White"}}
	m.RecomputeBounds()
	return m
}

// GenerateCylinder builds a cylinder along +Z, centered on the origin.
// Used for the axis gizmo geometry.
func GenerateCylinder(name string, radius, length float32, segments int) *Mesh {
	var sm SubMesh
	half := length / 2

	for i := 0; i <= segments; i++ {
		theta := float64(i) / float64(segments) * 2 * math.Pi
		x := radius * float32(math.Cos(theta))
		y := radius * float32(math.Sin(theta))
		n := mgl32.Vec3{x, y, 0}.Normalize()
		u := float32(i) / float32(segments)

		sm.Vertices = append(sm.Vertices, mgl32.Vec3{x, y, -half}, mgl32.Vec3{x, y, half})
		sm.Normals = append(sm.Normals, n, n)
		sm.TexCoords = append(sm.TexCoords, mgl32.Vec2{u, 0}, mgl32.Vec2{u, 1})
	}
	for i := uint32(0); i < uint32(segments); i++ {
		b := i * 2
		sm.Indices = append(sm.Indices,
			b, b+2, b+1,
			b+1, b+2, b+3)
	}

	m := &Mesh{Name: name, SubMeshes: []SubMesh{sm}, Materials: []string{"White"}}
	m.RecomputeBounds()
	return m
}
