package scenegraph

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// MemBackend is the reference Backend: it keeps the native node tree
// and drawable bookkeeping in process memory, with no GPU behind it.
// It backs headless simulation runs and every test in this package;
// WgpuBackend layers device buffers on top of it.
type MemBackend struct {
	root      *memNode
	nodes     map[string]*memNode
	meshes    map[string]*MeshResource
	drawables map[string]*memDrawable
	released  int
}

type memNode struct {
	name     string
	parent   *memNode
	children []*memNode

	pos     mgl32.Vec3
	rot     mgl32.Quat
	scale   mgl32.Vec3
	visible bool

	drawables []*memDrawable
}

func (n *memNode) Name() string { return n.name }

type drawableKind int

const (
	meshInstance drawableKind = iota
	lineSet
)

type memDrawable struct {
	id   string
	name string
	role DrawableRole
	kind drawableKind

	meshName string
	lineType LineType
	points   []mgl32.Vec3

	visible     bool
	castShadows bool
	material    string

	owner       *memNode
	localBounds Box
}

func (d *memDrawable) Name() string       { return d.name }
func (d *memDrawable) Role() DrawableRole { return d.role }

func NewMemBackend() *MemBackend {
	root := &memNode{
		name:    "__scene_root__",
		rot:     mgl32.QuatIdent(),
		scale:   mgl32.Vec3{1, 1, 1},
		visible: true,
	}
	return &MemBackend{
		root:      root,
		nodes:     map[string]*memNode{root.name: root},
		meshes:    make(map[string]*MeshResource),
		drawables: make(map[string]*memDrawable),
	}
}

// Counters used by tests and debug overlays.

func (b *MemBackend) NodeCount() int     { return len(b.nodes) - 1 } // excluding the root
func (b *MemBackend) MeshCount() int     { return len(b.meshes) }
func (b *MemBackend) DrawableCount() int { return len(b.drawables) }
func (b *MemBackend) ReleasedCount() int { return b.released }

// Mesh returns a registered mesh resource for inspection.
func (b *MemBackend) Mesh(name string) (*MeshResource, bool) {
	res, ok := b.meshes[name]
	return res, ok
}

func (b *MemBackend) CreateNode(name string, parent NativeNode) (NativeNode, error) {
	if _, ok := b.nodes[name]; ok {
		return nil, fmt.Errorf("node %q already exists", name)
	}
	p := b.root
	if parent != nil {
		var ok bool
		p, ok = parent.(*memNode)
		if !ok {
			return nil, fmt.Errorf("foreign parent node %q", parent.Name())
		}
	}
	n := &memNode{
		name:    name,
		parent:  p,
		rot:     mgl32.QuatIdent(),
		scale:   mgl32.Vec3{1, 1, 1},
		visible: true,
	}
	p.children = append(p.children, n)
	b.nodes[name] = n
	return n, nil
}

func (b *MemBackend) DestroyNode(node NativeNode) {
	n, ok := node.(*memNode)
	if !ok || n == b.root {
		return
	}
	if n.parent != nil {
		n.parent.children = removeNode(n.parent.children, n)
		n.parent = nil
	}
	// Anything still attached goes with the node.
	for _, d := range n.drawables {
		d.owner = nil
		delete(b.drawables, d.id)
		b.released++
	}
	n.drawables = nil
	// Orphaned children fall back to the root rather than dangling.
	for _, c := range n.children {
		c.parent = b.root
		b.root.children = append(b.root.children, c)
	}
	n.children = nil
	delete(b.nodes, n.name)
}

func (b *MemBackend) ReparentNode(node NativeNode, parent NativeNode) {
	n, ok := node.(*memNode)
	if !ok {
		return
	}
	p := b.root
	if parent != nil {
		if pn, ok := parent.(*memNode); ok {
			p = pn
		}
	}
	if n.parent != nil {
		n.parent.children = removeNode(n.parent.children, n)
	}
	n.parent = p
	p.children = append(p.children, n)
}

func (b *MemBackend) SetTransform(node NativeNode, pos mgl32.Vec3, rot mgl32.Quat) {
	if n, ok := node.(*memNode); ok {
		n.pos = pos
		n.rot = rot
	}
}

func (b *MemBackend) SetScale(node NativeNode, scale mgl32.Vec3) {
	if n, ok := node.(*memNode); ok {
		n.scale = scale
	}
}

func (b *MemBackend) SetNodeVisible(node NativeNode, visible, cascade bool) {
	n, ok := node.(*memNode)
	if !ok {
		return
	}
	n.visible = visible
	if cascade {
		for _, c := range n.children {
			b.SetNodeVisible(c, visible, true)
		}
	}
}

func (b *MemBackend) HasMesh(name string) bool {
	_, ok := b.meshes[name]
	return ok
}

func (b *MemBackend) RegisterMesh(res *MeshResource) error {
	if _, ok := b.meshes[res.Name]; ok {
		return fmt.Errorf("mesh %q already registered", res.Name)
	}
	b.meshes[res.Name] = res
	return nil
}

func (b *MemBackend) CreateMeshInstance(name, meshName string, role DrawableRole) (NativeDrawable, error) {
	res, ok := b.meshes[meshName]
	if !ok {
		return nil, fmt.Errorf("mesh %q not registered", meshName)
	}
	d := &memDrawable{
		id:          uuid.NewString(),
		name:        name,
		role:        role,
		kind:        meshInstance,
		meshName:    meshName,
		visible:     true,
		castShadows: true,
		localBounds: res.Bounds,
	}
	b.drawables[d.id] = d
	return d, nil
}

func (b *MemBackend) CreateLineSet(name string, typ LineType, role DrawableRole) (NativeDrawable, error) {
	d := &memDrawable{
		id:       uuid.NewString(),
		name:     name,
		role:     role,
		kind:     lineSet,
		lineType: typ,
		visible:  true,
	}
	b.drawables[d.id] = d
	return d, nil
}

func (b *MemBackend) UpdateLineSet(drawable NativeDrawable, points []mgl32.Vec3) error {
	d, ok := drawable.(*memDrawable)
	if !ok || d.kind != lineSet {
		return fmt.Errorf("not a line set: %v", drawable)
	}
	d.points = append(d.points[:0], points...)
	var box Box
	for _, p := range points {
		box.ExtendPoint(p)
	}
	d.localBounds = box
	return nil
}

func (b *MemBackend) Attach(node NativeNode, drawable NativeDrawable) {
	n, ok1 := node.(*memNode)
	d, ok2 := drawable.(*memDrawable)
	if !ok1 || !ok2 {
		return
	}
	if d.owner != nil {
		d.owner.drawables = removeDrawable(d.owner.drawables, d)
	}
	d.owner = n
	n.drawables = append(n.drawables, d)
}

func (b *MemBackend) Detach(node NativeNode, drawable NativeDrawable) {
	n, ok1 := node.(*memNode)
	d, ok2 := drawable.(*memDrawable)
	if !ok1 || !ok2 || d.owner != n {
		return
	}
	n.drawables = removeDrawable(n.drawables, d)
	d.owner = nil
}

func (b *MemBackend) ReleaseDrawable(drawable NativeDrawable) {
	d, ok := drawable.(*memDrawable)
	if !ok {
		return
	}
	if d.owner != nil {
		d.owner.drawables = removeDrawable(d.owner.drawables, d)
		d.owner = nil
	}
	if _, live := b.drawables[d.id]; live {
		delete(b.drawables, d.id)
		b.released++
	}
}

func (b *MemBackend) SetDrawableMaterial(drawable NativeDrawable, material string) {
	if d, ok := drawable.(*memDrawable); ok {
		d.material = material
	}
}

func (b *MemBackend) SetDrawableCastShadows(drawable NativeDrawable, cast bool) {
	if d, ok := drawable.(*memDrawable); ok {
		d.castShadows = cast
	}
}

func (b *MemBackend) SetDrawableVisible(drawable NativeDrawable, visible bool) {
	if d, ok := drawable.(*memDrawable); ok {
		d.visible = visible
	}
}

func (b *MemBackend) DrawableVisible(drawable NativeDrawable) bool {
	d, ok := drawable.(*memDrawable)
	if !ok || !d.visible {
		return false
	}
	for n := d.owner; n != nil; n = n.parent {
		if !n.visible {
			return false
		}
	}
	return d.owner != nil
}

func (b *MemBackend) WorldBounds(drawable NativeDrawable) Box {
	d, ok := drawable.(*memDrawable)
	if !ok || d.owner == nil || d.localBounds.Empty() {
		return Box{}
	}
	pos, rot, scale := b.worldTransform(d.owner)
	return d.localBounds.Transformed(pos, rot, scale)
}

// worldTransform composes ancestor transforms. Scale is applied before
// rotation at every level so reflections survive the composition.
func (b *MemBackend) worldTransform(n *memNode) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	if n.parent == nil {
		return n.pos, n.rot, n.scale
	}
	pp, pr, ps := b.worldTransform(n.parent)
	scaled := mgl32.Vec3{n.pos.X() * ps.X(), n.pos.Y() * ps.Y(), n.pos.Z() * ps.Z()}
	pos := pp.Add(pr.Rotate(scaled))
	rot := pr.Mul(n.rot).Normalize()
	scale := mgl32.Vec3{ps.X() * n.scale.X(), ps.Y() * n.scale.Y(), ps.Z() * n.scale.Z()}
	return pos, rot, scale
}

func removeNode(s []*memNode, n *memNode) []*memNode {
	for i, c := range s {
		if c == n {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func removeDrawable(s []*memDrawable, d *memDrawable) []*memDrawable {
	for i, c := range s {
		if c == d {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
