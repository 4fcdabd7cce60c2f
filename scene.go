package scenegraph

import (
	"fmt"
	"sync"
)

// Scene owns the visual node tree and the services the nodes share:
// the rendering backend, the material catalog and the geometry
// uploader. One render thread owns the scene; the only cross-thread
// entry point is Enqueue.
type Scene struct {
	backend  Backend
	catalog  *MaterialCatalog
	uploader *GeometryUploader
	log      Logger

	root    *VisualNode
	visuals map[string]*VisualNode
	counter uint64

	// Per-frame pre-render callbacks, keyed by node name. Dispatch
	// snapshots the set so a callback may remove itself (a node
	// dropping its last line) while dispatch is running.
	preRender map[string]func()

	mu      sync.Mutex
	pending []*VisualUpdate
}

func NewScene(backend Backend, catalog *MaterialCatalog, opts UploadOptions, log Logger) (*Scene, error) {
	if log == nil {
		log = NewNopLogger()
	}
	if catalog == nil {
		catalog = NewMaterialCatalog(log)
	}
	s := &Scene{
		backend:   backend,
		catalog:   catalog,
		log:       log,
		visuals:   make(map[string]*VisualNode),
		preRender: make(map[string]func()),
	}
	s.uploader = NewGeometryUploader(backend, opts, log)

	root, err := newVisualNode(s, "VISUAL_ROOT", nil, KindGeneric)
	if err != nil {
		return nil, fmt.Errorf("scene root: %w", err)
	}
	s.root = root
	return s, nil
}

func (s *Scene) Root() *VisualNode           { return s.root }
func (s *Scene) Backend() Backend            { return s.backend }
func (s *Scene) Materials() *MaterialCatalog { return s.catalog }
func (s *Scene) Uploader() *GeometryUploader { return s.uploader }

// Visual returns the node with the given name, or nil.
func (s *Scene) Visual(name string) *VisualNode {
	return s.visuals[name]
}

// NewVisual creates a node under parent; a nil parent attaches it
// directly under the scene root. An empty name draws one from the
// scene's counter.
func (s *Scene) NewVisual(name string, parent *VisualNode) (*VisualNode, error) {
	return newVisualNode(s, name, parent, KindGeneric)
}

// NewVisualKind is NewVisual with an explicit classification tag.
func (s *Scene) NewVisualKind(name string, parent *VisualNode, kind VisualKind) (*VisualNode, error) {
	return newVisualNode(s, name, parent, kind)
}

func (s *Scene) nextName() string {
	s.counter++
	return fmt.Sprintf("VISUAL_%d", s.counter)
}

func (s *Scene) remember(n *VisualNode) {
	s.visuals[n.name] = n
}

func (s *Scene) forget(name string) {
	delete(s.visuals, name)
}

// ConnectPreRender registers fn to run every frame before rendering.
// Re-registering an id replaces the previous callback.
func (s *Scene) ConnectPreRender(id string, fn func()) {
	s.preRender[id] = fn
}

func (s *Scene) DisconnectPreRender(id string) {
	delete(s.preRender, id)
}

// PreRender dispatches the per-frame callbacks. The list is snapshotted
// first: a callback removing its own registration (or its node) during
// dispatch is safe.
func (s *Scene) PreRender() {
	snapshot := make([]func(), 0, len(s.preRender))
	for _, fn := range s.preRender {
		snapshot = append(snapshot, fn)
	}
	for _, fn := range snapshot {
		fn()
	}
}

// Enqueue hands an update message to the render thread. Safe to call
// from any thread; this is the marshaling point demanded by the
// single-owner concurrency contract.
func (s *Scene) Enqueue(u *VisualUpdate) {
	s.mu.Lock()
	s.pending = append(s.pending, u)
	s.mu.Unlock()
}

// ApplyPending drains the queue on the render thread, creating visuals
// for not-yet-seen ids.
func (s *Scene) ApplyPending(applier *UpdateApplier) {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, u := range batch {
		n := s.Visual(u.ID)
		if n == nil {
			var err error
			n, err = s.NewVisual(u.ID, nil)
			if err != nil {
				s.log.Errorf("create visual for update %q: %v", u.ID, err)
				continue
			}
		}
		if err := applier.Apply(n, u); err != nil {
			s.log.Errorf("apply update %q: %v", u.ID, err)
		}
	}
}

// DestroyAll tears the tree down, releasing every node except the
// scene root itself.
func (s *Scene) DestroyAll() {
	for _, c := range s.root.Children() {
		if !c.destroyed {
			c.destroy()
		}
	}
}
