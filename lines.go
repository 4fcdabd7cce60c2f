package scenegraph

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// DynamicLines is an auxiliary drawable holding a mutable point list.
// Point edits are cheap; the backend upload happens once per frame in
// Update, and only when something changed.
type DynamicLines struct {
	typ      LineType
	node     *VisualNode
	drawable NativeDrawable
	points   []mgl32.Vec3
	dirty    bool
}

func (l *DynamicLines) Type() LineType { return l.typ }

func (l *DynamicLines) AddPoint(p mgl32.Vec3) {
	l.points = append(l.points, p)
	l.dirty = true
}

func (l *DynamicLines) SetPoint(i int, p mgl32.Vec3) error {
	if i < 0 || i >= len(l.points) {
		return fmt.Errorf("line point %d out of range [0,%d)", i, len(l.points))
	}
	l.points[i] = p
	l.dirty = true
	return nil
}

func (l *DynamicLines) Point(i int) (mgl32.Vec3, error) {
	if i < 0 || i >= len(l.points) {
		return mgl32.Vec3{}, fmt.Errorf("line point %d out of range [0,%d)", i, len(l.points))
	}
	return l.points[i], nil
}

func (l *DynamicLines) PointCount() int { return len(l.points) }

func (l *DynamicLines) Clear() {
	if len(l.points) == 0 {
		return
	}
	l.points = l.points[:0]
	l.dirty = true
}

// Update flushes pending point edits to the backend. Called from the
// owning node's pre-render callback.
func (l *DynamicLines) Update() {
	if !l.dirty || l.drawable == nil {
		return
	}
	if err := l.node.scene.backend.UpdateLineSet(l.drawable, l.points); err != nil {
		l.node.scene.log.Warnf("line update on %q: %v", l.node.Name(), err)
		return
	}
	l.dirty = false
}
