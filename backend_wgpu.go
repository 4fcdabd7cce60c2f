package scenegraph

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// WgpuBackend extends MemBackend with GPU residency: registered mesh
// resources and dynamic line sets are mirrored into wgpu vertex/index
// buffers. Graph bookkeeping stays in the embedded memory backend.
type WgpuBackend struct {
	*MemBackend

	device *wgpu.Device
	queue  *wgpu.Queue

	surface       *wgpu.Surface
	surfaceConfig *wgpu.SurfaceConfiguration

	meshBuffers map[string][]GpuSubMesh
	lineBuffers map[string]*wgpu.Buffer
}

type GpuSubMesh struct {
	VertexBuf  *wgpu.Buffer
	IndexBuf   *wgpu.Buffer
	IndexCount uint32
}

// NewWgpuBackend wraps an existing device/queue pair, typically shared
// with the host renderer.
func NewWgpuBackend(device *wgpu.Device, queue *wgpu.Queue) *WgpuBackend {
	return &WgpuBackend{
		MemBackend:  NewMemBackend(),
		device:      device,
		queue:       queue,
		meshBuffers: make(map[string][]GpuSubMesh),
		lineBuffers: make(map[string]*wgpu.Buffer),
	}
}

// NewWindowedWgpuBackend creates a glfw window plus a wgpu surface,
// adapter and device, and returns a backend bound to them. Must run on
// the main OS thread.
func NewWindowedWgpuBackend(width, height int, title string) (*WgpuBackend, *glfw.Window, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create window: %w", err)
	}

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Scene Graph Device",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("request device: %w", err)
	}

	caps := surface.GetCapabilities(adapter)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, &surfaceConfig)

	b := NewWgpuBackend(device, device.GetQueue())
	b.surface = surface
	b.surfaceConfig = &surfaceConfig
	return b, win, nil
}

// RegisterMesh registers the resource and uploads one vertex/index
// buffer pair per submesh.
func (b *WgpuBackend) RegisterMesh(res *MeshResource) error {
	if err := b.MemBackend.RegisterMesh(res); err != nil {
		return err
	}

	buffers := make([]GpuSubMesh, 0, len(res.SubMeshes))
	for i := range res.SubMeshes {
		sm := &res.SubMeshes[i]
		vertexBuf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    res.Name + " Vertex Buffer",
			Contents: wgpu.ToBytes(sm.VertexData),
			Usage:    wgpu.BufferUsageVertex,
		})
		if err != nil {
			return fmt.Errorf("mesh %q submesh %d vertex buffer: %w", res.Name, i, err)
		}
		indexBuf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    res.Name + " Index Buffer",
			Contents: wgpu.ToBytes(sm.Indices),
			Usage:    wgpu.BufferUsageIndex,
		})
		if err != nil {
			vertexBuf.Release()
			return fmt.Errorf("mesh %q submesh %d index buffer: %w", res.Name, i, err)
		}
		buffers = append(buffers, GpuSubMesh{
			VertexBuf:  vertexBuf,
			IndexBuf:   indexBuf,
			IndexCount: uint32(len(sm.Indices)),
		})
	}
	b.meshBuffers[res.Name] = buffers
	return nil
}

// UpdateLineSet rewrites the point buffer of a dynamic line drawable.
// The buffer is recreated per update; line sets are small.
func (b *WgpuBackend) UpdateLineSet(drawable NativeDrawable, points []mgl32.Vec3) error {
	if err := b.MemBackend.UpdateLineSet(drawable, points); err != nil {
		return err
	}
	d, ok := drawable.(*memDrawable)
	if !ok {
		return fmt.Errorf("not a line set: %v", drawable)
	}

	if old, ok := b.lineBuffers[d.id]; ok {
		old.Release()
		delete(b.lineBuffers, d.id)
	}
	if len(points) == 0 {
		return nil
	}

	data := make([]float32, 0, len(points)*3)
	for _, p := range points {
		data = append(data, p.X(), p.Y(), p.Z())
	}
	buf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    d.name + " Line Buffer",
		Contents: wgpu.ToBytes(data),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return fmt.Errorf("line set %q buffer: %w", d.name, err)
	}
	b.lineBuffers[d.id] = buf
	return nil
}

// ReleaseDrawable frees any GPU buffer owned by the drawable before
// dropping the bookkeeping entry. Mesh buffers stay: the registry has
// process lifetime and other instances may still reference them.
func (b *WgpuBackend) ReleaseDrawable(drawable NativeDrawable) {
	if d, ok := drawable.(*memDrawable); ok {
		if buf, live := b.lineBuffers[d.id]; live {
			buf.Release()
			delete(b.lineBuffers, d.id)
		}
	}
	b.MemBackend.ReleaseDrawable(drawable)
}

// MeshBuffers exposes the uploaded buffers of a registered mesh so the
// host render pass can bind them.
func (b *WgpuBackend) MeshBuffers(meshName string) ([]GpuSubMesh, bool) {
	buffers, ok := b.meshBuffers[meshName]
	return buffers, ok
}

// Shutdown releases every GPU resource. Only call at process exit; the
// mesh registry is cleared with it.
func (b *WgpuBackend) Shutdown() {
	for _, buffers := range b.meshBuffers {
		for _, sm := range buffers {
			sm.VertexBuf.Release()
			sm.IndexBuf.Release()
		}
	}
	b.meshBuffers = make(map[string][]GpuSubMesh)
	for _, buf := range b.lineBuffers {
		buf.Release()
	}
	b.lineBuffers = make(map[string]*wgpu.Buffer)
	if b.surface != nil {
		b.surface.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
}
