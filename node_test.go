package scenegraph

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func newTestScene(t *testing.T) (*Scene, *MemBackend) {
	t.Helper()
	backend := NewMemBackend()
	s, err := NewScene(backend, nil, UploadOptions{}, nil)
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	return s, backend
}

func TestGeneratedNames(t *testing.T) {
	s, _ := newTestScene(t)

	a, err := s.NewVisual("", nil)
	if err != nil {
		t.Fatalf("NewVisual: %v", err)
	}
	b, _ := s.NewVisual("", nil)

	if a.Name() != "VISUAL_1" || b.Name() != "VISUAL_2" {
		t.Errorf("generated names = %q, %q", a.Name(), b.Name())
	}
	if s.Visual("VISUAL_1") != a {
		t.Error("scene lookup by generated name failed")
	}
}

func TestDuplicateNameRejected(t *testing.T) {
	s, _ := newTestScene(t)
	if _, err := s.NewVisual("box", nil); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := s.NewVisual("box", nil); err == nil {
		t.Fatal("duplicate name should be rejected")
	}
}

func TestAttachMeshReplacesPrevious(t *testing.T) {
	s, backend := newTestScene(t)
	n, _ := s.NewVisual("box", nil)

	if err := n.AttachMesh(GenerateBox("meshA", mgl32.Vec3{1, 1, 1}, mgl32.Vec2{1, 1})); err != nil {
		t.Fatalf("attach meshA: %v", err)
	}
	if err := n.AttachMesh(GenerateBox("meshB", mgl32.Vec3{2, 2, 2}, mgl32.Vec2{1, 1})); err != nil {
		t.Fatalf("attach meshB: %v", err)
	}

	if n.MeshName() != "meshB" {
		t.Errorf("mesh name = %q, want meshB", n.MeshName())
	}
	if got := backend.DrawableCount(); got != 1 {
		t.Errorf("drawable count = %d, want 1 (old instance released)", got)
	}
	if got := backend.ReleasedCount(); got != 1 {
		t.Errorf("released count = %d, want 1", got)
	}
}

func TestAttachUnknownMeshKeepsPrevious(t *testing.T) {
	s, _ := newTestScene(t)
	n, _ := s.NewVisual("box", nil)

	if err := n.AttachMesh(GenerateBox("meshA", mgl32.Vec3{1, 1, 1}, mgl32.Vec2{1, 1})); err != nil {
		t.Fatalf("attach meshA: %v", err)
	}
	err := n.AttachMeshByName("never_loaded")
	if !errors.Is(err, ErrResourceUpload) {
		t.Fatalf("err = %v, want ErrResourceUpload", err)
	}
	if n.MeshName() != "meshA" {
		t.Errorf("node lost its drawable: mesh name = %q", n.MeshName())
	}
}

func TestSetMaterialMissingKeepsAppearance(t *testing.T) {
	s, _ := newTestScene(t)
	n, _ := s.NewVisual("box", nil)

	n.SetMaterial("Red")
	if n.Material() == nil {
		t.Fatal("material instance not assigned")
	}
	prev := n.Material()

	n.SetMaterial("NoSuchMaterial")
	if n.Material() != prev {
		t.Error("missing material must keep the previous instance")
	}

	// Empty and "none" mean inherit: no change either.
	n.SetMaterial("")
	n.SetMaterial("none")
	if n.Material() != prev {
		t.Error("inherit markers must not clear the material")
	}
}

func TestNodeTransparencyIsolation(t *testing.T) {
	s, _ := newTestScene(t)
	a, _ := s.NewVisual("a", nil)
	b, _ := s.NewVisual("b", nil)
	a.SetMaterial("Red")
	b.SetMaterial("Red")

	a.SetTransparency(0.5)

	alphaA := a.Material().Definition().Techniques[0].Passes[0].Diffuse[3]
	alphaB := b.Material().Definition().Techniques[0].Passes[0].Diffuse[3]
	if alphaA != 0.5 {
		t.Errorf("node a alpha = %v, want 0.5", alphaA)
	}
	if alphaB != 1 {
		t.Errorf("node b alpha = %v, want 1 (unaffected)", alphaB)
	}
}

func TestTransparencyClamped(t *testing.T) {
	s, _ := newTestScene(t)
	n, _ := s.NewVisual("box", nil)

	n.SetTransparency(3)
	if n.Transparency() != 1 {
		t.Errorf("transparency = %v, want clamped to 1", n.Transparency())
	}
	n.SetTransparency(-2)
	if n.Transparency() != 0 {
		t.Errorf("transparency = %v, want clamped to 0", n.Transparency())
	}
}

func TestAttachChildMovesSubtree(t *testing.T) {
	s, _ := newTestScene(t)
	p1, _ := s.NewVisual("p1", nil)
	p2, _ := s.NewVisual("p2", nil)
	c, _ := s.NewVisual("c", p1)

	if err := p2.AttachChild(c); err != nil {
		t.Fatalf("AttachChild: %v", err)
	}
	if c.Parent() != p2 {
		t.Errorf("child parent = %v, want p2", c.Parent().Name())
	}
	for _, old := range p1.Children() {
		if old == c {
			t.Error("child still listed under the old parent")
		}
	}
}

func TestAttachChildRejectsCycles(t *testing.T) {
	s, _ := newTestScene(t)
	a, _ := s.NewVisual("a", nil)
	b, _ := s.NewVisual("b", a)
	c, _ := s.NewVisual("c", b)

	if err := a.AttachChild(a); !errors.Is(err, ErrInvalidParent) {
		t.Errorf("self attach err = %v, want ErrInvalidParent", err)
	}
	if err := c.AttachChild(a); !errors.Is(err, ErrInvalidParent) {
		t.Errorf("descendant attach err = %v, want ErrInvalidParent", err)
	}
}

func TestDetachChildBecomesRoot(t *testing.T) {
	s, _ := newTestScene(t)
	p, _ := s.NewVisual("p", nil)
	c, _ := s.NewVisual("c", p)

	if err := p.DetachChild(c); err != nil {
		t.Fatalf("DetachChild: %v", err)
	}
	if c.Parent() != s.Root() {
		t.Error("detached child should hang off the scene root")
	}
	if err := p.DetachChild(c); err == nil {
		t.Error("detaching a non-child should fail")
	}
}

func TestWorldPoseComposition(t *testing.T) {
	s, _ := newTestScene(t)
	p, _ := s.NewVisual("p", nil)
	c, _ := s.NewVisual("c", p)

	p.SetPose(mgl32.Vec3{1, 0, 0}, mgl32.QuatIdent())
	p.SetScale(mgl32.Vec3{2, 2, 2})
	c.SetPose(mgl32.Vec3{1, 0, 0}, mgl32.QuatIdent())

	pos, _ := c.WorldPose()
	if pos != (mgl32.Vec3{3, 0, 0}) {
		t.Errorf("world pos = %v, want (3, 0, 0): parent scale applies to child offset", pos)
	}
	if c.WorldScale() != (mgl32.Vec3{2, 2, 2}) {
		t.Errorf("world scale = %v, want (2, 2, 2)", c.WorldScale())
	}
}

func TestDestroyReleasesEverything(t *testing.T) {
	s, backend := newTestScene(t)
	baseNodes := backend.NodeCount()

	n, _ := s.NewVisual("model", nil)
	c1, _ := s.NewVisual("link1", n)
	c2, _ := s.NewVisual("link2", n)
	c1.AttachMesh(GenerateBox("linkmesh", mgl32.Vec3{1, 1, 1}, mgl32.Vec2{1, 1}))
	if _, err := n.AddLine(LineStrip); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	if err := n.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	if !n.Destroyed() || !c1.Destroyed() || !c2.Destroyed() {
		t.Error("subtree not fully destroyed")
	}
	if got := backend.NodeCount(); got != baseNodes {
		t.Errorf("node count = %d, want %d", got, baseNodes)
	}
	if got := backend.DrawableCount(); got != 0 {
		t.Errorf("drawable count = %d, want 0", got)
	}
	if s.Visual("model") != nil || s.Visual("link1") != nil {
		t.Error("destroyed visuals still registered with the scene")
	}
}

func TestDoubleDestroy(t *testing.T) {
	s, _ := newTestScene(t)
	n, _ := s.NewVisual("box", nil)

	if err := n.Destroy(); err != nil {
		t.Fatalf("first Destroy: %v", err)
	}
	err := n.Destroy()
	if !errors.Is(err, ErrDoubleDestroy) {
		t.Errorf("second Destroy err = %v, want ErrDoubleDestroy", err)
	}
}

func TestDoubleDestroyPanicsWithDebugChecks(t *testing.T) {
	s, _ := newTestScene(t)
	n, _ := s.NewVisual("box", nil)
	n.Destroy()

	DebugChecks = true
	defer func() {
		DebugChecks = false
		if recover() == nil {
			t.Error("expected panic with DebugChecks enabled")
		}
	}()
	n.Destroy()
}

func TestLinesDrivePreRenderRegistration(t *testing.T) {
	s, backend := newTestScene(t)
	n, _ := s.NewVisual("box", nil)

	l1, err := n.AddLine(LineList)
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	l2, _ := n.AddLine(LineStrip)

	if len(s.preRender) != 1 {
		t.Fatalf("pre-render registrations = %d, want 1", len(s.preRender))
	}

	l1.AddPoint(mgl32.Vec3{0, 0, 0})
	l1.AddPoint(mgl32.Vec3{1, 0, 0})
	s.PreRender()
	if l1.dirty {
		t.Error("line not flushed by PreRender")
	}

	n.RemoveLine(l1)
	if len(s.preRender) != 1 {
		t.Error("callback dropped while a line remains")
	}
	n.RemoveLine(l2)
	if len(s.preRender) != 0 {
		t.Error("callback should be dropped with the last line")
	}
	if got := backend.ReleasedCount(); got != 2 {
		t.Errorf("released count = %d, want 2", got)
	}
}

func TestSetVisibleCascade(t *testing.T) {
	s, _ := newTestScene(t)
	p, _ := s.NewVisual("p", nil)
	c, _ := s.NewVisual("c", p)

	p.SetVisible(false, true)
	if p.Visible() || c.Visible() {
		t.Error("cascade should hide the whole subtree")
	}

	p.SetVisible(true, false)
	if !p.Visible() {
		t.Error("parent should be visible again")
	}
	if c.Visible() {
		t.Error("non-cascading toggle must not touch children")
	}

	p.ToggleVisible()
	if p.Visible() {
		t.Error("toggle should flip visibility")
	}
}
