// Package scene holds the per-frame scene uniforms (camera, lights, mouse,
// screen, time) that are written once per frame and shared by every model's
// subdivision and render passes through a single bind group.
package scene

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/parasurf/internal/gpubuf"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxPointLights bounds the fixed-size lights array the uniform buffer
// carries; a point light count above this is truncated.
const MaxPointLights = 16

// PointLight is the GPU representation of a single point light.
type PointLight struct {
	Position  mgl32.Vec3
	Intensity float32
	Color     mgl32.Vec3
	_pad      float32
}

// Uniforms is the host-side mirror of the scene uniform buffer's layout.
type Uniforms struct {
	View        mgl32.Mat4
	Projection  mgl32.Mat4
	CameraWorld mgl32.Vec3
	Time        float32

	AmbientColor mgl32.Vec3
	NumLights    uint32
	Lights       [MaxPointLights]PointLight

	MouseNDC    mgl32.Vec2
	MouseHeld   uint32
	ScreenSize  [2]float32
}

// MarshalGPU packs Uniforms into the buffer's std140-ish layout using the
// manual little-endian packing style used throughout this codebase.
func (u Uniforms) MarshalGPU() []byte {
	p := gpubuf.NewPacker(512)
	p.PutMat4(mat4Cols(u.View))
	p.PutMat4(mat4Cols(u.Projection))
	p.PutVec3([3]float32{u.CameraWorld.X(), u.CameraWorld.Y(), u.CameraWorld.Z()})
	p.PutFloat32(u.Time)
	p.PutVec3([3]float32{u.AmbientColor.X(), u.AmbientColor.Y(), u.AmbientColor.Z()})
	p.PutUint32(u.NumLights)
	for i := 0; i < MaxPointLights; i++ {
		l := u.Lights[i]
		p.PutVec3([3]float32{l.Position.X(), l.Position.Y(), l.Position.Z()})
		p.PutFloat32(l.Intensity)
		p.PutVec3([3]float32{l.Color.X(), l.Color.Y(), l.Color.Z()})
		p.PutFloat32(0)
	}
	p.PutFloat32(u.MouseNDC.X())
	p.PutFloat32(u.MouseNDC.Y())
	p.PutUint32(u.MouseHeld)
	p.PutFloat32(0) // align
	p.PutFloat32(u.ScreenSize[0])
	p.PutFloat32(u.ScreenSize[1])
	n := len(p.Bytes())
	if n%16 != 0 {
		n += 16 - n%16
	}
	p.PadTo(n)
	return p.Bytes()
}

func mat4Cols(m mgl32.Mat4) [16]float32 {
	var out [16]float32
	copy(out[:], m[:])
	return out
}

// Buffer owns the GPU-side uniform buffer and a bind group built against
// it. The bind group is rebuilt only when the buffer handle itself changes
// (it never does, post-construction), following the dirty-flag-per-derived
// -resource pattern: here the buffer handle is the only input, so the bind
// group is built once in New and never again.
type Buffer struct {
	buf       *gpubuf.TypedBuffer
	bindGroup *wgpu.BindGroup
	layout    *wgpu.BindGroupLayout
}

func New(device *wgpu.Device) (*Buffer, error) {
	tb, err := gpubuf.NewUniform(device, "SceneUniforms", Uniforms{})
	if err != nil {
		return nil, err
	}

	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "SceneUniformsBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute | wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	bg, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "SceneUniformsBG",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: tb.Buffer, Size: tb.Size},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Buffer{buf: tb, bindGroup: bg, layout: layout}, nil
}

// Write uploads u for the current frame. Called exactly once per frame,
// before any model's LOD or render stage runs.
func (b *Buffer) Write(queue *wgpu.Queue, u Uniforms) error {
	return b.buf.Write(queue, u)
}

func (b *Buffer) BindGroup() *wgpu.BindGroup       { return b.bindGroup }
func (b *Buffer) Layout() *wgpu.BindGroupLayout    { return b.layout }

func (b *Buffer) Release() {
	b.buf.Release()
}
