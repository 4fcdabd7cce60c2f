package scenegraph

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Box is an axis-aligned bounding box. The zero value is the empty box,
// which is distinct from a degenerate point box at the origin: merging
// with it is the identity and callers can test for it with Empty.
type Box struct {
	Min, Max mgl32.Vec3

	set bool
}

func NewBox(min, max mgl32.Vec3) Box {
	return Box{Min: min, Max: max, set: true}
}

func (b Box) Empty() bool {
	return !b.set
}

// Merge grows b to enclose o. Merging is associative and commutative.
func (b *Box) Merge(o Box) {
	if o.Empty() {
		return
	}
	b.ExtendPoint(o.Min)
	b.ExtendPoint(o.Max)
}

// ExtendPoint grows b to enclose p.
func (b *Box) ExtendPoint(p mgl32.Vec3) {
	if !b.set {
		b.Min, b.Max = p, p
		b.set = true
		return
	}
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

func (b Box) Size() mgl32.Vec3 {
	if !b.set {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

func (b Box) Center() mgl32.Vec3 {
	if !b.set {
		return mgl32.Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// IsFinite reports whether both corners contain only finite coordinates.
func (b Box) IsFinite() bool {
	for i := 0; i < 3; i++ {
		if !isFinite(b.Min[i]) || !isFinite(b.Max[i]) {
			return false
		}
	}
	return true
}

// Transformed returns the axis-aligned box enclosing b after applying
// scale, rotation and translation, in that order. All eight corners are
// transformed since rotation breaks axis alignment.
func (b Box) Transformed(pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) Box {
	if !b.set {
		return Box{}
	}
	var out Box
	for i := 0; i < 8; i++ {
		corner := b.Min
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		corner = mgl32.Vec3{corner[0] * scale[0], corner[1] * scale[1], corner[2] * scale[2]}
		out.ExtendPoint(pos.Add(rot.Rotate(corner)))
	}
	return out
}

func isFinite(f float32) bool {
	f64 := float64(f)
	return !math.IsNaN(f64) && !math.IsInf(f64, 0)
}
