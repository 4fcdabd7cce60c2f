package scenegraph

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
)

// Pass is one rendering pass of a technique. Diffuse alpha and the
// depth-write flag are what transparency manipulates.
type Pass struct {
	Diffuse    mgl32.Vec4
	DepthWrite bool
}

type Technique struct {
	Passes []*Pass
}

// Material is a base definition living in the shared catalog. Bases are
// never mutated in place; per-node appearance changes go through a
// MaterialInstance clone.
type Material struct {
	Name       string
	Techniques []*Technique
	Texture    *Texture
}

// NewMaterial returns a material with a single technique and pass.
func NewMaterial(name string, diffuse mgl32.Vec4) *Material {
	return &Material{
		Name: name,
		Techniques: []*Technique{
			{Passes: []*Pass{{Diffuse: diffuse, DepthWrite: true}}},
		},
	}
}

func (m *Material) clone(name string) *Material {
	c := &Material{Name: name, Texture: m.Texture}
	for _, t := range m.Techniques {
		ct := &Technique{}
		for _, p := range t.Passes {
			cp := *p
			ct.Passes = append(ct.Passes, &cp)
		}
		c.Techniques = append(c.Techniques, ct)
	}
	return c
}

// Texture is decoded, backend-friendly RGBA pixel data.
type Texture struct {
	Name          string
	Width, Height int
	Pixels        []uint8
}

// MaterialInstance is a per-node clone of a base material. Changing it
// never affects the base or any other node's clone.
type MaterialInstance struct {
	name string
	base string
	mat  *Material
}

func (mi *MaterialInstance) Name() string { return mi.name }
func (mi *MaterialInstance) Base() string { return mi.base }

// Definition exposes the cloned material for the backend to bind.
func (mi *MaterialInstance) Definition() *Material { return mi.mat }

// SetTransparency sets diffuse alpha to 1-t on every pass of every
// technique and disables depth-write while t > 0. Idempotent.
func (mi *MaterialInstance) SetTransparency(t float32) {
	for _, tech := range mi.mat.Techniques {
		for _, pass := range tech.Passes {
			pass.Diffuse[3] = 1 - t
			pass.DepthWrite = t <= 0
		}
	}
}

// InstanceName derives the deterministic clone name for a node/base
// material pair, used for idempotent instance lookup.
func InstanceName(nodeName, baseName string) string {
	return nodeName + "_MATERIAL_" + baseName
}

// MaterialCatalog is the shared registry of base material definitions
// plus the instances cloned from them.
type MaterialCatalog struct {
	bases     map[string]*Material
	instances map[string]*MaterialInstance
	log       Logger
}

// NewMaterialCatalog returns a catalog preloaded with the stock solid
// colors the helper geometry uses.
func NewMaterialCatalog(log Logger) *MaterialCatalog {
	if log == nil {
		log = NewNopLogger()
	}
	c := &MaterialCatalog{
		bases:     make(map[string]*Material),
		instances: make(map[string]*MaterialInstance),
		log:       log,
	}
	c.bases["White"] = NewMaterial("White", mgl32.Vec4{1, 1, 1, 1})
	c.bases["Red"] = NewMaterial("Red", mgl32.Vec4{1, 0, 0, 1})
	c.bases["Green"] = NewMaterial("Green", mgl32.Vec4{0, 1, 0, 1})
	c.bases["Blue"] = NewMaterial("Blue", mgl32.Vec4{0, 0, 1, 1})

	green := NewMaterial("GreenTransparent", mgl32.Vec4{0, 1, 0, 0.4})
	green.Techniques[0].Passes[0].DepthWrite = false
	c.bases["GreenTransparent"] = green
	return c
}

// Register adds a base material. The catalog is immutable per name;
// re-registering an existing base is an error.
func (c *MaterialCatalog) Register(m *Material) error {
	if _, ok := c.bases[m.Name]; ok {
		return fmt.Errorf("material %q already registered", m.Name)
	}
	c.bases[m.Name] = m
	return nil
}

func (c *MaterialCatalog) Lookup(name string) (*Material, bool) {
	m, ok := c.bases[name]
	return m, ok
}

// Instance clones baseName for the named node. Requesting the same pair
// again returns the existing clone so repeated update messages do not
// leak instances.
func (c *MaterialCatalog) Instance(nodeName, baseName string) (*MaterialInstance, error) {
	name := InstanceName(nodeName, baseName)
	if mi, ok := c.instances[name]; ok {
		return mi, nil
	}
	base, ok := c.bases[baseName]
	if !ok {
		return nil, fmt.Errorf("instance %q: %w: %q", name, ErrMaterialNotFound, baseName)
	}
	mi := &MaterialInstance{name: name, base: baseName, mat: base.clone(name)}
	c.instances[name] = mi
	return mi, nil
}

// LoadTexture decodes a PNG from disk and assigns it to a registered
// base material, scaling it down to maxExtent per side with a bilinear
// kernel when the source is larger.
func (c *MaterialCatalog) LoadTexture(materialName, path string, maxExtent int) error {
	mat, ok := c.bases[materialName]
	if !ok {
		return fmt.Errorf("texture for %q: %w", materialName, ErrMaterialNotFound)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("texture %q: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return fmt.Errorf("texture %q: decode: %w", path, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxExtent > 0 && (w > maxExtent || h > maxExtent) {
		if w >= h {
			h = h * maxExtent / w
			w = maxExtent
		} else {
			w = w * maxExtent / h
			h = maxExtent
		}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(rgba, rgba.Bounds(), img, bounds, draw.Src, nil)

	mat.Texture = &Texture{Name: path, Width: w, Height: h, Pixels: rgba.Pix}
	c.log.Debugf("texture %q loaded for material %q (%dx%d)", path, materialName, w, h)
	return nil
}
