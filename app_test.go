package scenegraph

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterResource struct {
	updates    int
	preRenders int
}

func TestAppResourceInjection(t *testing.T) {
	app := NewApp()
	app.AddResources(&counterResource{})

	app.UseSystem(System(func(c *counterResource) { c.updates++ }))
	app.UseSystem(System(func(c *counterResource) { c.preRenders++ }).InStage(PreRender))

	app.RunFrame()
	app.RunFrame()

	var got *counterResource
	for _, r := range app.resources {
		if c, ok := r.(*counterResource); ok {
			got = c
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, 2, got.updates)
	assert.Equal(t, 2, got.preRenders)
}

func TestAppStageOrder(t *testing.T) {
	app := NewApp()
	app.AddResources(&counterResource{})

	var order []string
	app.UseSystem(System(func(*counterResource) { order = append(order, "render") }).InStage(Render))
	app.UseSystem(System(func(*counterResource) { order = append(order, "update") }).InStage(Update))
	app.UseSystem(System(func(*counterResource) { order = append(order, "pre") }).InStage(PreUpdate))

	app.RunFrame()
	assert.Equal(t, []string{"pre", "update", "render"}, order)
}

func TestAppDuplicateResourcePanics(t *testing.T) {
	app := NewApp()
	app.AddResources(&counterResource{})
	assert.Panics(t, func() {
		app.AddResources(&counterResource{})
	})
	assert.Panics(t, func() {
		app.AddResources(counterResource{})
	}, "resources must be pointers")
}

func TestAppCustomStage(t *testing.T) {
	app := NewApp()
	app.AddResources(&counterResource{})

	physics := Stage{Name: "Physics"}
	app.UseStage(physics, BeforeStage(Update))

	var order []string
	app.UseSystem(System(func(*counterResource) { order = append(order, "physics") }).InStage(physics))
	app.UseSystem(System(func(*counterResource) { order = append(order, "update") }).InStage(Update))

	app.RunFrame()
	assert.Equal(t, []string{"physics", "update"}, order)
}

func TestAppLoggerFallback(t *testing.T) {
	app := NewApp()
	require.NotNil(t, app.Logger(), "Logger never returns nil")

	app.UseModules(LoggingModule{Prefix: "test"})
	_, ok := app.Logger().(*DefaultLogger)
	assert.True(t, ok, "installed logger should be returned")
}

func TestSceneModuleFrameLoop(t *testing.T) {
	backend := NewMemBackend()
	app := NewApp().UseModules(
		LoggingModule{Prefix: "test"},
		SceneModule{Backend: backend},
	)

	var scene *Scene
	for _, r := range app.resources {
		if s, ok := r.(*Scene); ok {
			scene = s
		}
	}
	require.NotNil(t, scene, "SceneModule must install a Scene resource")

	scene.Enqueue(&VisualUpdate{ID: "box", MeshName: "unit_box", Visible: true})
	app.RunFrame()

	n := scene.Visual("box")
	require.NotNil(t, n, "frame loop drains the update queue")
	assert.Equal(t, "unit_box_U1V1", n.MeshName())

	// Line flushing rides the PreRender stage of the same frame loop.
	l, err := n.AddLine(LineStrip)
	require.NoError(t, err)
	l.AddPoint(mgl32.Vec3{0, 0, 1})
	app.RunFrame()
	assert.False(t, l.dirty)
}
