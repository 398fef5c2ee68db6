// Package lod implements the adaptive subdivision driver: per model, per
// frame, a fixed schedule of ping-pong compute passes that refines a work
// list of root patches into five render bins sized by screen-space
// footprint, finishing with a forced-emit pass and a consolidation pass.
package lod

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/parasurf/internal/config"
	"github.com/gekko3d/parasurf/internal/model"
	"github.com/gekko3d/parasurf/internal/shaderreg"
	"github.com/go-gl/mathgl/mgl32"
)

// Driver owns the consolidation pipeline (shared by every model — it has no
// user-shader dependency) and runs the per-model subdivision schedule.
type Driver struct {
	device              *wgpu.Device
	consolidation       *wgpu.ComputePipeline
	cache               map[*model.VirtualModel]*modelBindGroups
	modelLayout         *wgpu.BindGroupLayout
	consolidationLayout *wgpu.BindGroupLayout
}

// New builds the driver's shared consolidation pipeline. modelLayout is the
// group-1 layout every subdivision pass bind group uses (model input, force
// flag, from/to queue, to dispatch args, five bins); consolidationLayout is
// the single-group layout the consolidation pass uses (five bins' lengths
// plus the draw-args buffer).
func New(device *wgpu.Device, consolidationModule *wgpu.ShaderModule, modelLayout, consolidationLayout *wgpu.BindGroupLayout) (*Driver, error) {
	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{consolidationLayout},
	})
	if err != nil {
		return nil, err
	}
	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "ConsolidationPipeline",
		Layout:  pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{Module: consolidationModule, EntryPoint: "main"},
	})
	if err != nil {
		return nil, err
	}
	return &Driver{
		device:              device,
		consolidation:       pipeline,
		cache:               make(map[*model.VirtualModel]*modelBindGroups),
		modelLayout:         modelLayout,
		consolidationLayout: consolidationLayout,
	}, nil
}

// Run executes the fixed 2K-pass schedule for one model and its resolved
// shader pipeline pair, then the consolidation pass, all recorded onto
// encoder. instanceCount is this frame's ModelInfo.InstanceCount. sceneBind
// is the frame-wide scene uniforms bind group (group 0 of the subdivision
// pipeline).
func (d *Driver) Run(encoder *wgpu.CommandEncoder, queue *wgpu.Queue, vm *model.VirtualModel, pair *shaderreg.PipelinePair, sceneBind *wgpu.BindGroup, instanceCount uint32, mvp mgl32.Mat4, threshold float32) error {
	bindGroups, err := d.BindGroups(vm)
	if err != nil {
		return err
	}

	vm.WriteInput(queue, mvp, threshold)
	vm.SeedAndResetForFrame(queue, encoder, instanceCount)

	for i := 0; i < config.SubdivisionPasses; i++ {
		from := i % 2
		to := 1 - from

		vm.ResetPassTarget(encoder, to)
		vm.ResetForceRender(encoder, i == config.SubdivisionPasses-1)

		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(pair.Subdivision)
		pass.SetBindGroup(0, sceneBind, nil)
		pass.SetBindGroup(1, bindGroups.fromTo[from], nil)
		pass.DispatchWorkgroupsIndirect(vm.DispatchArgs[from].Buffer().Buffer, 0)
		pass.End()
	}

	consolidationPass := encoder.BeginComputePass(nil)
	consolidationPass.SetPipeline(d.consolidation)
	consolidationPass.SetBindGroup(0, bindGroups.consolidation, nil)
	consolidationPass.DispatchWorkgroups(1, 1, 1)
	consolidationPass.End()
	return nil
}
