package scenegraph

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Helper geometry attached as child nodes: axis gizmos and the
// selection bounding box. Helpers never contribute to bounds
// aggregation; their drawables carry non-content roles.

const (
	axisCylinderMesh = "axis_cylinder"
	unitBoxMesh      = "unit_box_U1V1"
)

// AttachAxes adds an RGB axis gizmo as a child node: three cylinders
// along X (red), Y (green) and Z (blue). Idempotent; a second call
// replaces the previous gizmo.
func (n *VisualNode) AttachAxes() error {
	if n.axesNode != nil {
		if err := n.axesNode.Destroy(); err != nil {
			return err
		}
		n.axesNode = nil
	}

	if !n.scene.backend.HasMesh(axisCylinderMesh) {
		mesh := GenerateCylinder(axisCylinderMesh, 0.015, 0.5, 16)
		if err := n.scene.uploader.Upload(mesh); err != nil {
			return err
		}
	}

	axes, err := newVisualNode(n.scene, n.name+"_AXES_NODE", n, KindGizmo)
	if err != nil {
		return err
	}

	type axis struct {
		suffix   string
		material string
		offset   mgl32.Vec3
		rot      mgl32.Quat
	}
	halfPi := float32(math.Pi / 2)
	for _, a := range []axis{
		{"_axisX", "Red", mgl32.Vec3{0.25, 0, 0}, mgl32.QuatRotate(halfPi, mgl32.Vec3{0, 1, 0})},
		{"_axisY", "Green", mgl32.Vec3{0, 0.25, 0}, mgl32.QuatRotate(halfPi, mgl32.Vec3{1, 0, 0})},
		{"_axisZ", "Blue", mgl32.Vec3{0, 0, 0.25}, mgl32.QuatIdent()},
	} {
		child, err := newVisualNode(n.scene, axes.name+a.suffix, axes, KindGizmo)
		if err != nil {
			return err
		}
		d, err := n.scene.backend.CreateMeshInstance(child.name+"_OBJ", axisCylinderMesh, RoleGizmo)
		if err != nil {
			return err
		}
		child.meshDrawable = d
		child.meshName = axisCylinderMesh
		n.scene.backend.Attach(child.native, d)
		n.scene.backend.SetDrawableCastShadows(d, false)
		n.scene.backend.SetDrawableMaterial(d, a.material)
		child.SetPose(a.offset, a.rot)
	}

	n.axesNode = axes
	return nil
}

// AttachBoundingBox adds a hidden unit-box helper child scaled to
// [min,max], used to indicate selection. Re-attaching replaces the
// previous helper instead of leaking a stale same-named node.
func (n *VisualNode) AttachBoundingBox(min, max mgl32.Vec3) error {
	if n.bboxNode != nil {
		if err := n.bboxNode.Destroy(); err != nil {
			return err
		}
		n.bboxNode = nil
	}

	if !n.scene.backend.HasMesh(unitBoxMesh) {
		mesh := GenerateBox(unitBoxMesh, mgl32.Vec3{1, 1, 1}, mgl32.Vec2{1, 1})
		if err := n.scene.uploader.Upload(mesh); err != nil {
			return err
		}
	}

	box, err := newVisualNode(n.scene, n.name+"_AABB_NODE", n, KindSelection)
	if err != nil {
		return err
	}
	d, err := n.scene.backend.CreateMeshInstance(box.name+"_OBJ", unitBoxMesh, RoleSelection)
	if err != nil {
		return err
	}
	box.meshDrawable = d
	box.meshName = unitBoxMesh
	n.scene.backend.Attach(box.native, d)
	n.scene.backend.SetDrawableMaterial(d, "GreenTransparent")

	diff := max.Sub(min)
	box.SetPose(min.Add(max).Mul(0.5), mgl32.QuatIdent())
	box.SetScale(diff)
	box.SetVisible(false, false)

	n.bboxNode = box
	return nil
}

// SetBoundingBoxMaterial changes the helper box material. A missing
// material is logged and the helper keeps its appearance.
func (n *VisualNode) SetBoundingBoxMaterial(name string) {
	if n.bboxNode == nil || name == "" {
		return
	}
	n.bboxNode.SetMaterial(name)
}

// ShowSelectionBox toggles the selection helper, attaching it on first
// use from the node's current content bounds.
func (n *VisualNode) ShowSelectionBox(show bool) error {
	if n.bboxNode == nil {
		if !show {
			return nil
		}
		bounds := ComputeBounds(n)
		if bounds.Empty() {
			bounds = NewBox(mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5})
		}
		if err := n.AttachBoundingBox(bounds.Min, bounds.Max); err != nil {
			return err
		}
	}
	n.bboxNode.SetVisible(show, true)
	return nil
}
