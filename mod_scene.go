package scenegraph

// SceneModule installs a Scene and its update applier as resources and
// schedules the two systems the scene needs each frame: draining the
// cross-thread update queue and flushing dirty line sets before render.
type SceneModule struct {
	Backend Backend
	Catalog *MaterialCatalog
	Upload  UploadOptions
}

func (m SceneModule) Install(app *App) {
	scene, err := NewScene(m.Backend, m.Catalog, m.Upload, app.Logger())
	if err != nil {
		panic(err)
	}
	app.AddResources(scene, NewUpdateApplier(scene))
	app.UseSystem(System(sceneApplyUpdatesSystem).InStage(Update))
	app.UseSystem(System(scenePreRenderSystem).InStage(PreRender))
}

func sceneApplyUpdatesSystem(scene *Scene, applier *UpdateApplier) {
	scene.ApplyPending(applier)
}

func scenePreRenderSystem(scene *Scene) {
	scene.PreRender()
}
