package scenegraph

import (
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

// Module bundles related resources and systems.
type Module interface {
	Install(app *App)
}

// App wires resources and per-frame systems together. Unlike a game
// loop it does not own the loop: the host render thread calls RunFrame
// once per frame, which keeps the whole scene graph single-owner.
type App struct {
	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any
}

func NewApp() *App {
	app := &App{
		systems:   make(map[string][]systemFn),
		resources: make(map[reflect.Type]any),
	}
	for _, stage := range defaultStages {
		app.stages = append(app.stages, stage)
		app.systems[stage.Name] = nil
	}
	return app
}

func (app *App) UseModules(modules ...Module) *App {
	for _, m := range modules {
		m.Install(app)
	}
	return app
}

// AddResources registers singletons for injection into systems. Each
// resource must be a pointer and unique per type.
func (app *App) AddResources(resources ...any) *App {
	for _, resource := range resources {
		t := reflect.TypeOf(resource)
		if t.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", t))
		}
		if _, ok := app.resources[t.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", t))
		}
		app.resources[t.Elem()] = resource
	}
	return app
}

func (app *App) UseSystem(sched systemScheduleBuilder) *App {
	if _, ok := app.systems[sched.inStage.Name]; !ok {
		panic(fmt.Sprintf("stage %v doesn't exist", sched.inStage.Name))
	}
	app.systems[sched.inStage.Name] = append(app.systems[sched.inStage.Name], sched.system)
	return app
}

// RunFrame executes every system once, stage by stage.
func (app *App) RunFrame() {
	for _, stage := range app.stages {
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
	}
}

// callSystem invokes a system function, resolving each pointer
// parameter from the resource registry.
func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())
	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		resource, ok := app.resources[argType.Elem()]
		if !ok {
			panic(fmt.Sprintf("unable to resolve system dependency\nsystem: %s\ndependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				argType))
		}
		args[i] = reflect.ValueOf(resource)
	}
	systemValue.Call(args)
}
