package scenegraph

import (
	"fmt"
	"math"
)

// VertexLayout records which optional attributes the uploaded vertex
// data carries. The layout is fixed per mesh, never per submesh, and
// attributes are interleaved in strict order: position, normal,
// texcoord. Readers must match this byte layout exactly.
type VertexLayout struct {
	HasNormals   bool
	HasTexCoords bool
}

// Stride returns the number of float32 values per vertex.
func (l VertexLayout) Stride() int {
	stride := 3
	if l.HasNormals {
		stride += 3
	}
	if l.HasTexCoords {
		stride += 2
	}
	return stride
}

// SubMeshResource is one GPU-ready primitive batch: interleaved vertex
// data plus 16-bit indices.
type SubMeshResource struct {
	VertexData  []float32
	Indices     []uint16
	VertexCount int
	Material    string
}

// MeshResource is the uploaded form of a Mesh, registered under the
// mesh's name in the backend's process-wide registry.
type MeshResource struct {
	Name      string
	Layout    VertexLayout
	SubMeshes []SubMeshResource
	Bounds    Box
}

// UploadOptions configures layout resolution when submeshes of one mesh
// disagree on optional attributes.
type UploadOptions struct {
	// OmitMissingAttributes drops an optional attribute from the mesh
	// layout entirely unless every submesh provides it. When false, a
	// submesh missing an attribute that another submesh has writes
	// zeroes for that slot.
	OmitMissingAttributes bool
}

// GeometryUploader converts mesh descriptions into backend-resident
// buffers. Upload is idempotent per mesh name.
type GeometryUploader struct {
	backend Backend
	opts    UploadOptions
	log     Logger
}

func NewGeometryUploader(backend Backend, opts UploadOptions, log Logger) *GeometryUploader {
	if log == nil {
		log = NewNopLogger()
	}
	return &GeometryUploader{backend: backend, opts: opts, log: log}
}

// Upload registers mesh with the backend. If a resource with the same
// name already exists the call is a no-op and no buffers are allocated.
// ErrIndexOverflow and ErrNonFiniteBounds are surfaced to the caller;
// silently truncated geometry could mask real simulation errors.
func (u *GeometryUploader) Upload(mesh *Mesh) error {
	if len(mesh.SubMeshes) == 0 {
		return fmt.Errorf("upload %q: %w: mesh has no submeshes", mesh.Name, ErrResourceUpload)
	}
	if u.backend.HasMesh(mesh.Name) {
		u.log.Debugf("mesh %q already uploaded, reusing", mesh.Name)
		return nil
	}

	bounds := NewBox(mesh.Min, mesh.Max)
	if !bounds.IsFinite() {
		return fmt.Errorf("upload %q: %w: min %v max %v", mesh.Name, ErrNonFiniteBounds, mesh.Min, mesh.Max)
	}

	res := &MeshResource{
		Name:   mesh.Name,
		Layout: u.resolveLayout(mesh),
		Bounds: bounds,
	}

	for i := range mesh.SubMeshes {
		sm := &mesh.SubMeshes[i]
		if err := sm.Validate(); err != nil {
			return fmt.Errorf("upload %q submesh %d: %w: %v", mesh.Name, i, ErrResourceUpload, err)
		}
		if len(sm.Vertices) > math.MaxUint16 {
			return fmt.Errorf("upload %q submesh %d: %w: %d vertices", mesh.Name, i, ErrIndexOverflow, len(sm.Vertices))
		}
		res.SubMeshes = append(res.SubMeshes, u.buildSubMesh(mesh, sm))
	}

	if err := u.backend.RegisterMesh(res); err != nil {
		return fmt.Errorf("upload %q: %w: %v", mesh.Name, ErrResourceUpload, err)
	}
	u.log.Debugf("uploaded mesh %q: %d submeshes, stride %d floats",
		mesh.Name, len(res.SubMeshes), res.Layout.Stride())
	return nil
}

func (u *GeometryUploader) resolveLayout(mesh *Mesh) VertexLayout {
	anyNormals, anyTexCoords := false, false
	allNormals, allTexCoords := true, true
	for i := range mesh.SubMeshes {
		sm := &mesh.SubMeshes[i]
		if len(sm.Normals) > 0 {
			anyNormals = true
		} else {
			allNormals = false
		}
		if len(sm.TexCoords) > 0 {
			anyTexCoords = true
		} else {
			allTexCoords = false
		}
	}
	if u.opts.OmitMissingAttributes {
		return VertexLayout{HasNormals: allNormals, HasTexCoords: allTexCoords}
	}
	return VertexLayout{HasNormals: anyNormals, HasTexCoords: anyTexCoords}
}

func (u *GeometryUploader) buildSubMesh(mesh *Mesh, sm *SubMesh) SubMeshResource {
	layout := u.resolveLayout(mesh)
	data := make([]float32, 0, len(sm.Vertices)*layout.Stride())

	for j := range sm.Vertices {
		v := sm.Vertices[j]
		data = append(data, v.X(), v.Y(), v.Z())
		if layout.HasNormals {
			if len(sm.Normals) > 0 {
				n := sm.Normals[j]
				data = append(data, n.X(), n.Y(), n.Z())
			} else {
				data = append(data, 0, 0, 0)
			}
		}
		if layout.HasTexCoords {
			if len(sm.TexCoords) > 0 {
				t := sm.TexCoords[j]
				data = append(data, t.X(), t.Y())
			} else {
				data = append(data, 0, 0)
			}
		}
	}

	indices := make([]uint16, len(sm.Indices))
	for j, idx := range sm.Indices {
		indices[j] = uint16(idx)
	}

	material := ""
	if sm.MaterialIndex >= 0 && sm.MaterialIndex < len(mesh.Materials) {
		material = mesh.Materials[sm.MaterialIndex]
	}

	return SubMeshResource{
		VertexData:  data,
		Indices:     indices,
		VertexCount: len(sm.Vertices),
		Material:    material,
	}
}
