package scenegraph

import (
	"github.com/go-gl/mathgl/mgl32"
)

// DrawableRole classifies an attached drawable. Only RoleContent
// contributes to bounds aggregation; the other roles mark helper
// geometry (axis gizmos, selection boxes, debug lines).
type DrawableRole int

const (
	RoleContent DrawableRole = iota
	RoleGizmo
	RoleSelection
	RoleDebugLine
)

func (r DrawableRole) String() string {
	switch r {
	case RoleContent:
		return "content"
	case RoleGizmo:
		return "gizmo"
	case RoleSelection:
		return "selection"
	case RoleDebugLine:
		return "debugLine"
	}
	return "unknown"
}

// LineType selects the primitive topology of a dynamic line set.
type LineType int

const (
	LineList LineType = iota
	LineStrip
	PointList
)

// NativeNode is a transform node owned by the rendering backend. One
// exists per VisualNode; the scene graph never reimplements it, only
// drives it through the Backend capability set.
type NativeNode interface {
	Name() string
}

// NativeDrawable is a renderable resource instance (mesh entity or
// dynamic line set) owned by the backend and attached to one node.
type NativeDrawable interface {
	Name() string
	Role() DrawableRole
}

// Backend is the capability set the scene graph requires from a
// rendering engine. Implementations are expected to be driven from a
// single render thread; no call blocks.
type Backend interface {
	// CreateNode allocates a child transform node. A nil parent attaches
	// the node under the backend's scene root. Duplicate names are
	// rejected so stale helpers cannot leak between runs.
	CreateNode(name string, parent NativeNode) (NativeNode, error)
	// DestroyNode detaches n from its parent and releases it along with
	// any drawables still attached. Children must already be gone.
	DestroyNode(n NativeNode)
	ReparentNode(n NativeNode, parent NativeNode)
	SetTransform(n NativeNode, pos mgl32.Vec3, rot mgl32.Quat)
	SetScale(n NativeNode, scale mgl32.Vec3)
	SetNodeVisible(n NativeNode, visible, cascade bool)

	// The mesh registry is process-wide state with process lifetime.
	HasMesh(name string) bool
	RegisterMesh(res *MeshResource) error
	CreateMeshInstance(name, meshName string, role DrawableRole) (NativeDrawable, error)

	CreateLineSet(name string, typ LineType, role DrawableRole) (NativeDrawable, error)
	UpdateLineSet(d NativeDrawable, points []mgl32.Vec3) error

	Attach(n NativeNode, d NativeDrawable)
	Detach(n NativeNode, d NativeDrawable)
	ReleaseDrawable(d NativeDrawable)

	SetDrawableMaterial(d NativeDrawable, material string)
	SetDrawableCastShadows(d NativeDrawable, cast bool)
	SetDrawableVisible(d NativeDrawable, visible bool)
	// DrawableVisible reports effective visibility, including visibility
	// inherited from the owning node chain.
	DrawableVisible(d NativeDrawable) bool
	// WorldBounds returns the drawable's bounding box in world space, or
	// the empty box if it has no extent yet.
	WorldBounds(d NativeDrawable) Box
}
