// Package render implements the render stage: for each model, five
// instanced indirect-indexed draws, one per bin, each consuming that bin's
// tessellated quad mesh.
package render

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/parasurf/internal/config"
	"github.com/gekko3d/parasurf/internal/mesh"
	"github.com/gekko3d/parasurf/internal/model"
	"github.com/gekko3d/parasurf/internal/shaderreg"
)

// ModelDraw is everything the render stage needs to draw one model's five
// bins within the shared render pass.
type ModelDraw struct {
	VirtualModel *model.VirtualModel
	Pipelines    *shaderreg.PipelinePair
}

// modelBinKey identifies one bin's group-1 bind group: the patches storage
// buffer it exposes to the vertex shader differs per bin, so the model input
// and material uniforms alone can't be shared across all five draws the way
// they could if the vertex shader needed nothing instance-specific.
type modelBinKey struct {
	vm  *model.VirtualModel
	bin int
}

// Stage draws every model's five bins, in fixed size order, into pass.
// sceneBind is group 0, shared by all models and bins.
type Stage struct {
	device      *wgpu.Device
	quads       *mesh.Set
	modelLayout *wgpu.BindGroupLayout
	// modelBind caches each (VirtualModel, bin) pair's group-1 bind group
	// (model input + material + that bin's patches buffer). It depends only
	// on buffer handles fixed at VirtualModel creation, so every pipeline
	// pair shares the same layout and an entry is built once regardless of
	// which shader draws it.
	modelBind map[modelBinKey]*wgpu.BindGroup
}

// New builds a render stage. modelLayout is the explicit group-1 layout
// every raster pipeline in the registry was built against (model input
// uniform, material uniform, patches storage buffer).
func New(device *wgpu.Device, quads *mesh.Set, modelLayout *wgpu.BindGroupLayout) *Stage {
	return &Stage{device: device, quads: quads, modelLayout: modelLayout, modelBind: make(map[modelBinKey]*wgpu.BindGroup)}
}

// bindGroupFor returns vm's group-1 bind group for bin, rebuilding it around
// that bin's patches buffer so the vertex shader can decode
// patches[instance_index] into a parameter-space rectangle (spec.md §4.6).
func (s *Stage) bindGroupFor(vm *model.VirtualModel, bin int) (*wgpu.BindGroup, error) {
	key := modelBinKey{vm: vm, bin: bin}
	if bg, ok := s.modelBind[key]; ok {
		return bg, nil
	}
	patches := vm.Bins.Bins[bin].Buffer()
	bg, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ModelRasterBindGroup",
		Layout: s.modelLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: vm.Input.Buffer, Size: vm.Input.Size},
			{Binding: 1, Buffer: vm.Material.Buffer, Size: vm.Material.Size},
			{Binding: 2, Buffer: patches.Buffer, Size: patches.Size},
		},
	})
	if err != nil {
		return nil, err
	}
	s.modelBind[key] = bg
	return bg, nil
}

func (s *Stage) Draw(pass *wgpu.RenderPassEncoder, sceneBind *wgpu.BindGroup, draws []ModelDraw) error {
	for _, d := range draws {
		pass.SetPipeline(d.Pipelines.Raster)
		pass.SetBindGroup(0, sceneBind, nil)

		for i := range config.PatchSizes {
			modelBind, err := s.bindGroupFor(d.VirtualModel, i)
			if err != nil {
				return err
			}
			pass.SetBindGroup(1, modelBind, nil)

			quad := s.quads.Quads[i]
			pass.SetVertexBuffer(0, quad.VertexBuffer, 0, wgpu.WholeSize)
			pass.SetIndexBuffer(quad.IndexBuffer, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
			pass.DrawIndexedIndirect(d.VirtualModel.Bins.DrawArgs.Buffer, model.DrawArgsOffset(i))
		}
	}
	return nil
}

// Forget drops vm's cached raster bind groups, called when a VirtualModel is
// released.
func (s *Stage) Forget(vm *model.VirtualModel) {
	for i := range config.PatchSizes {
		delete(s.modelBind, modelBinKey{vm: vm, bin: i})
	}
}
