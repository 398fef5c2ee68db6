package model

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/parasurf/internal/config"
	"github.com/gekko3d/parasurf/internal/gpubuf"
	"github.com/go-gl/mathgl/mgl32"
)

// ID identifies a model across frames; equality is structural per
// ModelInfo, identity is by ID.
type ID string

// MaterialInfo carries the shading parameters a model's fragment stage
// reads, independent of the parametric shape itself.
type MaterialInfo struct {
	BaseColor [4]float32
	Roughness float32
	Metalness float32
}

// ModelInfo is the inbound per-model description the host supplies each
// frame via GameResources.
type ModelInfo struct {
	ID            ID
	ShaderID      string
	Transform     mgl32.Mat4
	InstanceCount uint32
	Material      MaterialInfo
	Tuning        config.Tuning
}

// inputUniform is {MVP, threshold_factor}, written once per model per frame
// before its LOD stage runs.
type inputUniform struct {
	MVP             mgl32.Mat4
	ThresholdFactor float32
}

func (u inputUniform) MarshalGPU() []byte {
	p := gpubuf.NewPacker(80)
	var cols [16]float32
	copy(cols[:], u.MVP[:])
	p.PutMat4(cols)
	p.PutFloat32(u.ThresholdFactor)
	p.PutFloat32(0)
	p.PutFloat32(0)
	p.PutFloat32(0)
	return p.Bytes()
}

// materialUniform mirrors MaterialInfo's GPU layout, read by the raster
// fragment stage.
type materialUniform struct {
	BaseColor [4]float32
	Roughness float32
	Metalness float32
}

func (m materialUniform) MarshalGPU() []byte {
	p := gpubuf.NewPacker(32)
	p.PutVec4(m.BaseColor)
	p.PutFloat32(m.Roughness)
	p.PutFloat32(m.Metalness)
	p.PutFloat32(0)
	p.PutFloat32(0)
	return p.Bytes()
}

type forceRenderFlag struct{ v uint32 }

func (f forceRenderFlag) MarshalGPU() []byte {
	p := gpubuf.NewPacker(16)
	p.PutUint32(f.v)
	p.PutUint32(0)
	p.PutUint32(0)
	p.PutUint32(0)
	return p.Bytes()
}

// VirtualModel is the complete per-model GPU state of spec.md §3: two
// ping-pong work queues with their dispatch-arg buffers, five render bins
// with their consolidated draw-args buffer, an input uniform, and a
// force-render flag uniform.
type VirtualModel struct {
	Info ID

	Queues       [2]*WorkQueue
	DispatchArgs [2]*DispatchArgs
	Bins         *RenderBins
	Input        *gpubuf.TypedBuffer
	ForceRender  *gpubuf.TypedBuffer
	Material     *gpubuf.TypedBuffer

	// zero templates, allocated per model in New and reused every pass and
	// frame as the copy-source for the per-pass reset barrier described in
	// gpubuf.TypedBuffer.CopyAllFrom.
	zeroQueue *WorkQueue
	zeroArgs  *DispatchArgs
	zeroBin   *RenderBin

	// forceTrue/forceFalse are the force-render flag's own reset templates:
	// ForceRender must flip between passes on the same hazard-barrier
	// schedule as the ping-pong queues, so it is reset with
	// CopyAllFrom(encoder, ...) rather than queue.WriteBuffer, which would
	// race ahead of the pass it's meant to gate.
	forceTrue  *gpubuf.TypedBuffer
	forceFalse *gpubuf.TypedBuffer
}

// New allocates every buffer a VirtualModel needs. meshIndexCounts are the
// five tessellated quad meshes' index counts, in PatchSizes order, used to
// pre-fill the constant index_count field of each bin's draw-args record.
func New(device *wgpu.Device, id ID, meshIndexCounts [5]uint32) (*VirtualModel, error) {
	vm := &VirtualModel{Info: id}

	for i := 0; i < 2; i++ {
		q, err := NewWorkQueue(device, "LodQueue", config.MaxPatchCount)
		if err != nil {
			return nil, err
		}
		vm.Queues[i] = q

		d, err := NewDispatchArgs(device, "LodDispatchArgs", 0, 1, 1)
		if err != nil {
			return nil, err
		}
		vm.DispatchArgs[i] = d
	}

	bins, err := NewRenderBins(device, "Model", meshIndexCounts)
	if err != nil {
		return nil, err
	}
	vm.Bins = bins

	input, err := gpubuf.NewUniform(device, "ModelInput", inputUniform{})
	if err != nil {
		return nil, err
	}
	vm.Input = input

	force, err := gpubuf.NewUniform(device, "ForceRenderFlag", forceRenderFlag{})
	if err != nil {
		return nil, err
	}
	vm.ForceRender = force

	material, err := gpubuf.NewUniform(device, "ModelMaterial", materialUniform{})
	if err != nil {
		return nil, err
	}
	vm.Material = material

	zq, err := NewWorkQueue(device, "ZeroQueueTemplate", config.MaxPatchCount)
	if err != nil {
		return nil, err
	}
	vm.zeroQueue = zq

	za, err := NewDispatchArgs(device, "ZeroArgsTemplate", 0, 1, 1)
	if err != nil {
		return nil, err
	}
	vm.zeroArgs = za

	zb, err := NewRenderBin(device, "ZeroBinTemplate", 0, config.MaxPatchCount)
	if err != nil {
		return nil, err
	}
	vm.zeroBin = zb

	ft, err := gpubuf.NewUniform(device, "ForceRenderTrueTemplate", forceRenderFlag{v: 1})
	if err != nil {
		return nil, err
	}
	vm.forceTrue = ft

	ff, err := gpubuf.NewUniform(device, "ForceRenderFalseTemplate", forceRenderFlag{v: 0})
	if err != nil {
		return nil, err
	}
	vm.forceFalse = ff

	return vm, nil
}

// WriteInput uploads this frame's MVP and threshold factor.
func (vm *VirtualModel) WriteInput(queue *wgpu.Queue, mvp mgl32.Mat4, threshold float32) error {
	return vm.Input.Write(queue, inputUniform{MVP: mvp, ThresholdFactor: threshold})
}

// WriteMaterial uploads this frame's shading parameters.
func (vm *VirtualModel) WriteMaterial(queue *wgpu.Queue, mat MaterialInfo) error {
	return vm.Material.Write(queue, materialUniform{BaseColor: mat.BaseColor, Roughness: mat.Roughness, Metalness: mat.Metalness})
}

// SeedAndResetForFrame performs spec.md §4.5's per-frame seeding step: Q0 is
// seeded with instanceCount root patches, D0 = {instanceCount,1,1}, and all
// five bins are reset to empty. force_render is not reset here — every pass
// sets it explicitly via ResetForceRender, including pass 0. Returns the
// clamped instance count actually seeded.
func (vm *VirtualModel) SeedAndResetForFrame(queue *wgpu.Queue, encoder *wgpu.CommandEncoder, instanceCount uint32) uint32 {
	n := vm.Queues[0].SeedRoots(queue, instanceCount)
	vm.DispatchArgs[0].Set(queue, n, 1, 1)
	for _, b := range vm.Bins.Bins {
		b.ResetFrom(encoder, vm.zeroBin)
	}
	return n
}

// ResetPassTarget resets Q(to) and D(to) before pass i begins, the hazard
// barrier spec.md §4.5 and §5 describe.
func (vm *VirtualModel) ResetPassTarget(encoder *wgpu.CommandEncoder, to int) {
	vm.Queues[to].ResetFrom(encoder, vm.zeroQueue)
	vm.DispatchArgs[to].ResetFrom(encoder, vm.zeroArgs)
}

// ResetForceRender flips the force_render flag ahead of a pass by copying it
// on encoder from the true/false template, the same GPU-side hazard-barrier
// technique ResetPassTarget uses for the ping-pong queues. A queue.WriteBuffer
// here would race ahead of every pass submitted in the same encoder, since
// all such host writes complete before any dispatch in the command buffer
// begins — this buffer must instead be reset exactly where it's read,
// interleaved with the dispatches on the encoder itself.
func (vm *VirtualModel) ResetForceRender(encoder *wgpu.CommandEncoder, on bool) {
	if on {
		vm.ForceRender.CopyAllFrom(encoder, vm.forceTrue)
	} else {
		vm.ForceRender.CopyAllFrom(encoder, vm.forceFalse)
	}
}

func (vm *VirtualModel) Release() {
	for _, q := range vm.Queues {
		q.Release()
	}
	for _, d := range vm.DispatchArgs {
		d.Release()
	}
	vm.Bins.Release()
	vm.Input.Release()
	vm.ForceRender.Release()
	vm.Material.Release()
	vm.zeroQueue.Release()
	vm.zeroArgs.Release()
	vm.zeroBin.Release()
	vm.forceTrue.Release()
	vm.forceFalse.Release()
}
