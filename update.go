package scenegraph

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Pose is a position plus a unit orientation quaternion.
type Pose struct {
	Pos mgl32.Vec3
	Rot mgl32.Quat
}

func IdentityPose() Pose {
	return Pose{Rot: mgl32.QuatIdent()}
}

// VisualUpdate is the inbound update message for one visual. Every
// field is applied unconditionally: the message replaces the full node
// state, it is not a sparse patch. A field left at its default resets
// the corresponding attribute to default.
type VisualUpdate struct {
	// ID targets an existing visual, or names a new one to create.
	ID       string
	MeshName string

	Pose         Pose
	Transparency float32
	// Scale's message default is the unit scale; a zero vector is
	// treated as (1,1,1), never as a degenerate collapse.
	Scale       mgl32.Vec3
	Visible     bool
	CastShadows bool
	Material    string

	// Points, when non-empty, creates a fresh line-list drawable each
	// time: one-shot debug or trajectory visualization, not a streaming
	// update of an existing polyline.
	Points []mgl32.Vec3

	// A non-zero PlaneNormal generates a plane mesh named after ID and
	// attaches it in place of MeshName.
	PlaneNormal mgl32.Vec3
	UVTile      mgl32.Vec2
}

// UpdateApplier applies inbound update messages to visual nodes. Apply
// must run on the render thread; asynchronous producers enqueue through
// Scene.Enqueue instead of calling in place.
type UpdateApplier struct {
	scene *Scene
	log   Logger
}

func NewUpdateApplier(scene *Scene) *UpdateApplier {
	return &UpdateApplier{scene: scene, log: scene.log}
}

// Apply replaces node state from msg. Geometry failures that callers
// must see (index overflow, non-finite bounds) abort and propagate;
// appearance failures are logged and the remaining fields still apply.
func (a *UpdateApplier) Apply(n *VisualNode, msg *VisualUpdate) error {
	if n == nil || n.destroyed {
		return fmt.Errorf("apply update %q: target node is gone", msg.ID)
	}

	if msg.PlaneNormal != (mgl32.Vec3{}) {
		uvTile := msg.UVTile
		if uvTile == (mgl32.Vec2{}) {
			uvTile = mgl32.Vec2{1, 1}
		}
		plane := GeneratePlane(msg.ID, msg.PlaneNormal, mgl32.Vec2{1, 1}, uvTile)
		if err := n.AttachMesh(plane); err != nil {
			return err
		}
	} else if msg.MeshName != "" {
		if err := a.attachNamedMesh(n, msg); err != nil {
			return err
		}
	}

	rot := msg.Pose.Rot
	if rot == (mgl32.Quat{}) {
		rot = mgl32.QuatIdent()
	}
	n.SetPose(msg.Pose.Pos, rot)
	n.SetTransparency(msg.Transparency)

	scale := msg.Scale
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	n.SetScale(scale)

	n.SetVisible(msg.Visible, false)
	n.SetCastShadows(msg.CastShadows)
	n.SetMaterial(msg.Material)

	if len(msg.Points) > 0 {
		line, err := n.AddLine(LineList)
		if err != nil {
			a.log.Warnf("apply update %q: %v", msg.ID, err)
		} else {
			for _, p := range msg.Points {
				line.AddPoint(p)
			}
		}
	}
	return nil
}

func (a *UpdateApplier) attachNamedMesh(n *VisualNode, msg *VisualUpdate) error {
	meshName := msg.MeshName

	// "unit_box" is resolved to a generated box tiled per the message.
	if meshName == "unit_box" {
		uvTile := msg.UVTile
		if uvTile == (mgl32.Vec2{}) {
			uvTile = mgl32.Vec2{1, 1}
		}
		meshName = TiledBoxName(uvTile)
		if !a.scene.backend.HasMesh(meshName) {
			box := GenerateBox(meshName, mgl32.Vec3{1, 1, 1}, uvTile)
			if err := a.scene.uploader.Upload(box); err != nil {
				return err
			}
		}
	}

	if err := n.AttachMeshByName(meshName); err != nil {
		// Mesh content loading is external; an unknown name only costs
		// this node its drawable, never the simulation.
		if errors.Is(err, ErrResourceUpload) {
			a.log.Warnf("apply update %q: %v", msg.ID, err)
			return nil
		}
		return err
	}
	return nil
}
