package scenegraph

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// VisualKind tags what a node visualizes. It replaces a subclass
// hierarchy: behavior differences stay in the callers, the tag only
// classifies.
type VisualKind int

const (
	KindGeneric VisualKind = iota
	KindLink
	KindModel
	KindJoint
	KindGizmo
	KindSelection
)

// VisualNode is one node of the scene-graph tree: a spatial transform
// with at most one primary mesh drawable, an owned list of dynamic
// lines, an optional material instance and exclusively owned children.
//
// Lifecycle: created Loaded, mutated by the setters, terminal after
// Destroy. All methods must run on the render thread or strictly
// serialized with it.
type VisualNode struct {
	scene *Scene
	name  string
	kind  VisualKind

	parent   *VisualNode
	children []*VisualNode

	native       NativeNode
	meshDrawable NativeDrawable
	meshName     string
	lines        []*DynamicLines
	lineCounter  int

	material     *MaterialInstance
	baseMaterial string

	pos          mgl32.Vec3
	rot          mgl32.Quat
	scale        mgl32.Vec3
	visible      bool
	castShadows  bool
	isStatic     bool
	transparency float32

	axesNode *VisualNode
	bboxNode *VisualNode

	destroyed bool
}

func newVisualNode(s *Scene, name string, parent *VisualNode, kind VisualKind) (*VisualNode, error) {
	if name == "" {
		name = s.nextName()
	}
	if parent != nil && parent.destroyed {
		return nil, fmt.Errorf("create %q: %w: parent %q is destroyed", name, ErrInvalidParent, parent.name)
	}

	var parentNative NativeNode
	if parent != nil {
		parentNative = parent.native
	} else if s.root != nil {
		parent = s.root
		parentNative = s.root.native
	}

	native, err := s.backend.CreateNode(name, parentNative)
	if err != nil {
		return nil, fmt.Errorf("create %q: %w: %v", name, ErrInvalidParent, err)
	}

	n := &VisualNode{
		scene:       s,
		name:        name,
		kind:        kind,
		parent:      parent,
		native:      native,
		rot:         mgl32.QuatIdent(),
		scale:       mgl32.Vec3{1, 1, 1},
		visible:     true,
		castShadows: true,
	}
	if parent != nil {
		parent.children = append(parent.children, n)
	}
	s.remember(n)
	return n, nil
}

func (n *VisualNode) Name() string         { return n.name }
func (n *VisualNode) Kind() VisualKind     { return n.kind }
func (n *VisualNode) Parent() *VisualNode  { return n.parent }
func (n *VisualNode) MeshName() string     { return n.meshName }
func (n *VisualNode) Destroyed() bool      { return n.destroyed }
func (n *VisualNode) Native() NativeNode   { return n.native }
func (n *VisualNode) LineCount() int       { return len(n.lines) }
func (n *VisualNode) Visible() bool        { return n.visible }
func (n *VisualNode) CastShadows() bool    { return n.castShadows }
func (n *VisualNode) IsStatic() bool       { return n.isStatic }
func (n *VisualNode) Transparency() float32 { return n.transparency }
func (n *VisualNode) Position() mgl32.Vec3 { return n.pos }
func (n *VisualNode) Rotation() mgl32.Quat { return n.rot }
func (n *VisualNode) Scale() mgl32.Vec3    { return n.scale }

// Material returns the node's material instance, nil when the node
// inherits its base appearance.
func (n *VisualNode) Material() *MaterialInstance { return n.material }

func (n *VisualNode) Children() []*VisualNode {
	out := make([]*VisualNode, len(n.children))
	copy(out, n.children)
	return out
}

// AttachMesh uploads mesh if needed and attaches an instance of it as
// the primary drawable, replacing any previous one. Index overflow and
// non-finite bounds are surfaced; other upload failures are logged and
// the node keeps its previous drawable.
func (n *VisualNode) AttachMesh(mesh *Mesh) error {
	if n.destroyed {
		return fmt.Errorf("attach mesh on destroyed node %q", n.name)
	}
	if err := n.scene.uploader.Upload(mesh); err != nil {
		if errors.Is(err, ErrIndexOverflow) || errors.Is(err, ErrNonFiniteBounds) {
			return err
		}
		n.scene.log.Warnf("node %q keeps previous drawable: %v", n.name, err)
		return nil
	}
	return n.AttachMeshByName(mesh.Name)
}

// AttachMeshByName attaches an instance of an already-registered mesh
// resource. The node's current state (material, shadows, visibility) is
// applied to the new drawable.
func (n *VisualNode) AttachMeshByName(meshName string) error {
	if n.destroyed {
		return fmt.Errorf("attach mesh on destroyed node %q", n.name)
	}
	backend := n.scene.backend
	entityName := n.name + "_ENTITY_" + meshName
	d, err := backend.CreateMeshInstance(entityName, meshName, RoleContent)
	if err != nil {
		n.scene.log.Warnf("node %q keeps previous drawable: %v", n.name, err)
		return fmt.Errorf("attach mesh %q: %w: %v", meshName, ErrResourceUpload, err)
	}

	n.detachPrimary()
	n.meshDrawable = d
	n.meshName = meshName
	backend.Attach(n.native, d)
	backend.SetDrawableCastShadows(d, n.castShadows)
	backend.SetDrawableVisible(d, n.visible)
	if n.material != nil {
		backend.SetDrawableMaterial(d, n.material.Name())
	}
	return nil
}

func (n *VisualNode) detachPrimary() {
	if n.meshDrawable == nil {
		return
	}
	n.scene.backend.Detach(n.native, n.meshDrawable)
	n.scene.backend.ReleaseDrawable(n.meshDrawable)
	n.meshDrawable = nil
	n.meshName = ""
}

// SetMaterial clones the named base material for this node and assigns
// it to every attached drawable. Empty or "none" means inherit: nothing
// happens. A missing base is logged and the node keeps its previous
// material.
func (n *VisualNode) SetMaterial(name string) {
	if n.destroyed || name == "" || name == "none" {
		return
	}
	mi, err := n.scene.catalog.Instance(n.name, name)
	if err != nil {
		n.scene.log.Warnf("unable to get material %q for %q, object keeps its appearance: %v",
			name, n.name, err)
		return
	}
	n.material = mi
	n.baseMaterial = name
	mi.SetTransparency(n.transparency)

	backend := n.scene.backend
	if n.meshDrawable != nil {
		backend.SetDrawableMaterial(n.meshDrawable, mi.Name())
	}
	for _, l := range n.lines {
		backend.SetDrawableMaterial(l.drawable, mi.Name())
	}
}

func (n *VisualNode) SetPose(pos mgl32.Vec3, rot mgl32.Quat) {
	if n.destroyed {
		return
	}
	n.pos = pos
	n.rot = rot
	n.scene.backend.SetTransform(n.native, pos, rot)
}

func (n *VisualNode) SetScale(scale mgl32.Vec3) {
	if n.destroyed {
		return
	}
	n.scale = scale
	n.scene.backend.SetScale(n.native, scale)
}

// SetVisible updates node visibility. With cascade the flag is pushed
// through the whole subtree.
func (n *VisualNode) SetVisible(visible, cascade bool) {
	if n.destroyed {
		return
	}
	n.visible = visible
	n.scene.backend.SetNodeVisible(n.native, visible, cascade)
	if n.meshDrawable != nil {
		n.scene.backend.SetDrawableVisible(n.meshDrawable, visible)
	}
	if cascade {
		for _, c := range n.children {
			c.setVisibleLocal(visible)
		}
	}
}

func (n *VisualNode) setVisibleLocal(visible bool) {
	n.visible = visible
	if n.meshDrawable != nil {
		n.scene.backend.SetDrawableVisible(n.meshDrawable, visible)
	}
	for _, c := range n.children {
		c.setVisibleLocal(visible)
	}
}

func (n *VisualNode) ToggleVisible() {
	n.SetVisible(!n.visible, false)
}

func (n *VisualNode) SetCastShadows(cast bool) {
	if n.destroyed {
		return
	}
	n.castShadows = cast
	if n.meshDrawable != nil {
		n.scene.backend.SetDrawableCastShadows(n.meshDrawable, cast)
	}
	for _, l := range n.lines {
		n.scene.backend.SetDrawableCastShadows(l.drawable, cast)
	}
}

func (n *VisualNode) SetStatic(static bool) {
	n.isStatic = static
}

// SetTransparency clamps t to [0,1] and applies it to the node's
// material instance. Two nodes sharing a base material never see each
// other's transparency changes.
func (n *VisualNode) SetTransparency(t float32) {
	if n.destroyed {
		return
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	n.transparency = t
	if n.material != nil {
		n.material.SetTransparency(t)
	}
}

// AttachChild reparents child under n. The child is fully detached from
// its previous parent before attaching; attaching a node to its own
// descendant (or to itself) is rejected.
func (n *VisualNode) AttachChild(child *VisualNode) error {
	if child == nil || child.destroyed || n.destroyed {
		return fmt.Errorf("attach child: %w", ErrInvalidParent)
	}
	if child == n {
		return fmt.Errorf("attach %q to itself: %w", child.name, ErrInvalidParent)
	}
	for a := n.parent; a != nil; a = a.parent {
		if a == child {
			return fmt.Errorf("attach %q would create a cycle: %w", child.name, ErrInvalidParent)
		}
	}

	if child.parent != nil {
		child.parent.removeChild(child)
		child.parent = nil
	}
	child.parent = n
	n.children = append(n.children, child)
	n.scene.backend.ReparentNode(child.native, n.native)
	return nil
}

// DetachChild removes child from n; the child becomes a root attached
// directly under the scene root.
func (n *VisualNode) DetachChild(child *VisualNode) error {
	if child == nil || child.parent != n {
		return fmt.Errorf("detach: %q is not a child of %q", childName(child), n.name)
	}
	n.removeChild(child)
	child.parent = n.scene.root
	if n.scene.root != nil {
		n.scene.root.children = append(n.scene.root.children, child)
		n.scene.backend.ReparentNode(child.native, n.scene.root.native)
	} else {
		child.parent = nil
		n.scene.backend.ReparentNode(child.native, nil)
	}
	return nil
}

func childName(n *VisualNode) string {
	if n == nil {
		return "<nil>"
	}
	return n.name
}

func (n *VisualNode) removeChild(child *VisualNode) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// AddLine creates an auxiliary dynamic line drawable and attaches it.
// The first line registers the node for the scene's per-frame
// pre-render update; that registration is the node's only recurring
// scheduled activity.
func (n *VisualNode) AddLine(typ LineType) (*DynamicLines, error) {
	if n.destroyed {
		return nil, fmt.Errorf("add line on destroyed node %q", n.name)
	}
	name := fmt.Sprintf("%s_LINE_%d", n.name, n.lineCounter)
	n.lineCounter++

	d, err := n.scene.backend.CreateLineSet(name, typ, RoleDebugLine)
	if err != nil {
		return nil, fmt.Errorf("add line on %q: %w: %v", n.name, ErrResourceUpload, err)
	}
	l := &DynamicLines{typ: typ, node: n, drawable: d}
	n.lines = append(n.lines, l)
	n.scene.backend.Attach(n.native, d)

	if len(n.lines) == 1 {
		n.scene.ConnectPreRender(n.name, n.update)
	}
	return l, nil
}

// RemoveLine detaches and releases l. Removing the last line
// unregisters the pre-render callback again.
func (n *VisualNode) RemoveLine(l *DynamicLines) {
	for i, cur := range n.lines {
		if cur == l {
			n.lines = append(n.lines[:i], n.lines[i+1:]...)
			n.scene.backend.Detach(n.native, l.drawable)
			n.scene.backend.ReleaseDrawable(l.drawable)
			l.drawable = nil
			break
		}
	}
	if len(n.lines) == 0 {
		n.scene.DisconnectPreRender(n.name)
	}
}

// update is the per-frame pre-render callback; it flushes dirty lines.
func (n *VisualNode) update() {
	if !n.visible {
		return
	}
	for _, l := range n.lines {
		l.Update()
	}
}

// WorldPose composes the poses of all ancestors.
func (n *VisualNode) WorldPose() (mgl32.Vec3, mgl32.Quat) {
	if n.parent == nil {
		return n.pos, n.rot
	}
	pp, pr := n.parent.WorldPose()
	ps := n.parent.WorldScale()
	scaled := mgl32.Vec3{n.pos.X() * ps.X(), n.pos.Y() * ps.Y(), n.pos.Z() * ps.Z()}
	return pp.Add(pr.Rotate(scaled)), pr.Mul(n.rot).Normalize()
}

func (n *VisualNode) WorldScale() mgl32.Vec3 {
	if n.parent == nil {
		return n.scale
	}
	ps := n.parent.WorldScale()
	return mgl32.Vec3{ps.X() * n.scale.X(), ps.Y() * n.scale.Y(), ps.Z() * n.scale.Z()}
}

// Destroy detaches the node from its parent, recursively destroys the
// subtree and releases every backend resource. Safe on roots; calling
// it twice is a contract violation (fatal with DebugChecks, logged
// no-op otherwise). Partial failures never leave dangling parent or
// child links: detach always completes before release.
func (n *VisualNode) Destroy() error {
	if n.destroyed {
		return contractViolation(n.scene.log, ErrDoubleDestroy, "destroy %q", n.name)
	}
	n.destroy()
	return nil
}

func (n *VisualNode) destroy() {
	n.destroyed = true

	// Detach from the parent before releasing anything below.
	if n.parent != nil {
		n.parent.removeChild(n)
		n.parent = nil
	}

	kids := n.children
	n.children = nil
	for _, c := range kids {
		c.parent = nil
		if !c.destroyed {
			c.destroy()
		}
	}
	n.axesNode = nil
	n.bboxNode = nil

	backend := n.scene.backend
	for _, l := range n.lines {
		backend.Detach(n.native, l.drawable)
		backend.ReleaseDrawable(l.drawable)
		l.drawable = nil
	}
	n.lines = nil
	n.scene.DisconnectPreRender(n.name)

	n.detachPrimary()
	backend.DestroyNode(n.native)
	n.scene.forget(n.name)
}
