package scenegraph

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyReplacesFullState(t *testing.T) {
	s, _ := newTestScene(t)
	n, _ := s.NewVisual("box", nil)
	a := NewUpdateApplier(s)

	require.NoError(t, a.Apply(n, &VisualUpdate{
		ID:           "box",
		MeshName:     "unit_box",
		Pose:         Pose{Pos: mgl32.Vec3{1, 2, 3}, Rot: mgl32.QuatIdent()},
		Transparency: 0.5,
		Scale:        mgl32.Vec3{2, 2, 2},
		Visible:      true,
		CastShadows:  true,
		Material:     "Red",
	}))
	assert.InDelta(t, 0.5, n.Transparency(), 1e-6)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, n.Position())
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, n.Scale())
	require.NotNil(t, n.Material())
	assert.InDelta(t, 0.5, n.Material().Definition().Techniques[0].Passes[0].Diffuse[3], 1e-6)

	// A later message with defaults resets what it does not mention:
	// messages replace state, they do not patch it.
	require.NoError(t, a.Apply(n, &VisualUpdate{ID: "box"}))
	assert.Zero(t, n.Transparency())
	assert.False(t, n.Visible())
	assert.False(t, n.CastShadows())
	assert.Equal(t, mgl32.Vec3{}, n.Position())
}

func TestApplyZeroScaleMeansUnit(t *testing.T) {
	s, _ := newTestScene(t)
	n, _ := s.NewVisual("box", nil)
	a := NewUpdateApplier(s)

	require.NoError(t, a.Apply(n, &VisualUpdate{ID: "box", Visible: true}))
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, n.Scale(), "zero scale in a message is the unit scale")
}

func TestApplyUnitBoxTiling(t *testing.T) {
	s, backend := newTestScene(t)
	n, _ := s.NewVisual("ground", nil)
	a := NewUpdateApplier(s)

	require.NoError(t, a.Apply(n, &VisualUpdate{
		ID:       "ground",
		MeshName: "unit_box",
		UVTile:   mgl32.Vec2{3, 2},
		Visible:  true,
	}))
	assert.Equal(t, "unit_box_U3V2", n.MeshName())
	assert.True(t, backend.HasMesh("unit_box_U3V2"))

	// Same tiling again reuses the registered resource.
	m, _ := s.NewVisual("ground2", nil)
	require.NoError(t, a.Apply(m, &VisualUpdate{ID: "ground2", MeshName: "unit_box", UVTile: mgl32.Vec2{3, 2}, Visible: true}))
	assert.Equal(t, 1, backend.MeshCount())
}

func TestApplyPlaneGeneration(t *testing.T) {
	s, backend := newTestScene(t)
	n, _ := s.NewVisual("floor", nil)
	a := NewUpdateApplier(s)

	require.NoError(t, a.Apply(n, &VisualUpdate{
		ID:          "floor",
		PlaneNormal: mgl32.Vec3{0, 0, 1},
		Visible:     true,
	}))
	assert.Equal(t, "floor", n.MeshName(), "plane mesh is named after the visual id")
	assert.True(t, backend.HasMesh("floor"))
}

func TestApplyUnknownMeshIsNotFatal(t *testing.T) {
	s, _ := newTestScene(t)
	n, _ := s.NewVisual("box", nil)
	a := NewUpdateApplier(s)

	err := a.Apply(n, &VisualUpdate{ID: "box", MeshName: "missing_asset", Visible: true})
	assert.NoError(t, err, "an unloadable mesh costs the drawable, not the update")
	assert.Empty(t, n.MeshName())
}

func TestApplyPointsCreateFreshLines(t *testing.T) {
	s, _ := newTestScene(t)
	n, _ := s.NewVisual("trace", nil)
	a := NewUpdateApplier(s)

	pts := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}}
	require.NoError(t, a.Apply(n, &VisualUpdate{ID: "trace", Visible: true, Points: pts}))
	require.NoError(t, a.Apply(n, &VisualUpdate{ID: "trace", Visible: true, Points: pts}))

	assert.Equal(t, 2, n.LineCount(), "each message with points creates a new line set")
}

func TestApplyToDestroyedNodeFails(t *testing.T) {
	s, _ := newTestScene(t)
	n, _ := s.NewVisual("box", nil)
	a := NewUpdateApplier(s)

	require.NoError(t, n.Destroy())
	assert.Error(t, a.Apply(n, &VisualUpdate{ID: "box"}))
}
