package frame

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/parasurf/internal/applog"
	"github.com/gekko3d/parasurf/internal/diag"
	"github.com/gekko3d/parasurf/internal/lod"
	"github.com/gekko3d/parasurf/internal/mesh"
	"github.com/gekko3d/parasurf/internal/model"
	"github.com/gekko3d/parasurf/internal/profiler"
	"github.com/gekko3d/parasurf/internal/render"
	"github.com/gekko3d/parasurf/internal/scene"
	"github.com/gekko3d/parasurf/internal/shaderreg"
	"github.com/gekko3d/parasurf/shaders"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Options configures Orchestrator construction.
type Options struct {
	Log              applog.Logger
	Sink             diag.Sink
	ProfilerSettings profiler.Settings
}

// New performs the full device/adapter/surface/pipeline init sequence and
// returns a ready Orchestrator.
func New(window *glfw.Window, opts Options) (*Orchestrator, error) {
	log := opts.Log
	if log == nil {
		log = applog.Nop()
	}
	sink := opts.Sink
	if sink == nil {
		sink = diag.LogSink{Logger: log}
	}

	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", diag.ErrAdapterUnavailable, err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", diag.ErrDeviceCreation, err)
	}

	width, height := window.GetFramebufferSize()
	caps := surface.GetCapabilities(adapter)
	format := caps.Formats[0]
	cfg := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, cfg)

	sceneBuf, err := scene.New(device)
	if err != nil {
		return nil, fmt.Errorf("create scene uniforms: %w", err)
	}

	modelComputeLayout, err := buildModelComputeLayout(device)
	if err != nil {
		return nil, fmt.Errorf("create model compute layout: %w", err)
	}
	modelRasterLayout, err := buildModelRasterLayout(device)
	if err != nil {
		return nil, fmt.Errorf("create model raster layout: %w", err)
	}
	consolidationLayout, err := buildConsolidationLayout(device)
	if err != nil {
		return nil, fmt.Errorf("create consolidation layout: %w", err)
	}

	registry, err := shaderreg.NewRegistry(device, format, sink, sceneBuf.Layout(), modelComputeLayout, modelRasterLayout)
	if err != nil {
		return nil, fmt.Errorf("create shader registry: %w", err)
	}

	consolidationModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "ConsolidationShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.CopyPatchesWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("compile consolidation shader: %w", err)
	}

	lodDriver, err := lod.New(device, consolidationModule, modelComputeLayout, consolidationLayout)
	if err != nil {
		return nil, fmt.Errorf("create lod driver: %w", err)
	}

	quads, err := mesh.New(device)
	if err != nil {
		return nil, fmt.Errorf("build tessellated quads: %w", err)
	}

	var meshIndexCounts [5]uint32
	for i, q := range quads.Quads {
		meshIndexCounts[i] = q.IndexCount
	}
	modelSet := model.NewSet(device, meshIndexCounts)

	renderStage := render.New(device, quads, modelRasterLayout)
	modelSet.OnRelease = func(vm *model.VirtualModel) {
		lodDriver.Forget(vm)
		renderStage.Forget(vm)
	}

	groundPlane, err := buildGroundPlanePipeline(device, format, sceneBuf.Layout())
	if err != nil {
		return nil, fmt.Errorf("build ground plane pipeline: %w", err)
	}

	o := &Orchestrator{
		Device:      device,
		Surface:     surface,
		Adapter:     adapter,
		Config:      cfg,
		Scene:       sceneBuf,
		Models:      modelSet,
		Shaders:     registry,
		LOD:         lodDriver,
		Render:      renderStage,
		Quads:       quads,
		Profiler:    profiler.New(opts.ProfilerSettings),
		GroundPlane: groundPlane,
		Log:         log,
		Sink:        sink,
	}
	o.ConfigureSurface(uint32(width), uint32(height))
	return o, nil
}

// buildModelComputeLayout is the subdivision pipeline's group 1: model
// input, force-render flag, the from and to work queues, the to-queue's
// dispatch args, and the five render bins — every buffer the kernel touches
// besides the shared scene uniforms.
func buildModelComputeLayout(device *wgpu.Device) (*wgpu.BindGroupLayout, error) {
	entries := []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		{Binding: 1, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		{Binding: 2, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
		{Binding: 3, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
		{Binding: 4, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
	}
	for i := 0; i < 5; i++ {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding: uint32(5 + i), Visibility: wgpu.ShaderStageCompute,
			Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage},
		})
	}
	return device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Label: "ModelComputeBGL", Entries: entries})
}

// buildModelRasterLayout is the raster pipeline's group 1: model input
// uniform, material uniform, and the patches storage buffer of whichever
// bin is currently being drawn — vs_main reads patches[instance_index] from
// it to place each instance's quad inside its decoded parameter rectangle.
func buildModelRasterLayout(device *wgpu.Device) (*wgpu.BindGroupLayout, error) {
	return device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ModelRasterBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: wgpu.ShaderStageFragment, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
			{Binding: 2, Visibility: wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}},
		},
	})
}

// buildConsolidationLayout is the consolidation pass's single group: the
// five bins' atomic lengths (read) and the draw-args buffer (written).
func buildConsolidationLayout(device *wgpu.Device) (*wgpu.BindGroupLayout, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, 6)
	for i := 0; i < 5; i++ {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding: uint32(i), Visibility: wgpu.ShaderStageCompute,
			Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage},
		})
	}
	entries = append(entries, wgpu.BindGroupLayoutEntry{
		Binding: 5, Visibility: wgpu.ShaderStageCompute,
		Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage},
	})
	return device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Label: "ConsolidationBGL", Entries: entries})
}

func buildGroundPlanePipeline(device *wgpu.Device, colorFormat wgpu.TextureFormat, sceneLayout *wgpu.BindGroupLayout) (*wgpu.RenderPipeline, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "GroundPlaneShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.GroundPlaneWGSL},
	})
	if err != nil {
		return nil, err
	}
	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{sceneLayout},
	})
	if err != nil {
		return nil, err
	}
	return device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "GroundPlanePipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    colorFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorSrcAlpha, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
						Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionGreater,
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
}
