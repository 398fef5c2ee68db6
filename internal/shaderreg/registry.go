// Package shaderreg compiles and caches per-model subdivision + shading
// pipeline pairs keyed by a user-supplied ShaderId, falling back to a
// well-defined magenta pair (the regular subdivision kernel over a fixed
// unit-square surface) when a ShaderId is unresolved or its compile is
// still in flight or failed.
package shaderreg

import (
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/parasurf/internal/diag"
	"github.com/gekko3d/parasurf/shaders"
	"github.com/google/uuid"
)

// ID identifies a user-authored shader source.
type ID string

// NewID mints a fresh ShaderId, the way the rest of this codebase mints
// asset ids.
func NewID() ID { return ID(uuid.NewString()) }

// PipelinePair is the compiled subdivision compute pipeline and
// rasterization render pipeline for one ShaderId.
type PipelinePair struct {
	Subdivision *wgpu.ComputePipeline
	Raster      *wgpu.RenderPipeline
}

type entry struct {
	pair atomic.Pointer[PipelinePair]
	// completionSeq orders publishes by completion, not submission, so a
	// later-started but earlier-finishing compile can still lose to an
	// even-later one, matching "last-writer-wins by completion order".
	completionSeq atomic.Uint64
}

// Registry is safe for concurrent use: SetShader launches a compile
// goroutine and Lookup never blocks on it.
type Registry struct {
	device        *wgpu.Device
	format        wgpu.TextureFormat
	sink          diag.Sink
	computeLayout *wgpu.PipelineLayout
	rasterLayout  *wgpu.PipelineLayout
	mu            sync.RWMutex
	entries       map[ID]*entry
	fallback      *PipelinePair
	seq           atomic.Uint64
}

// NewRegistry builds the process-wide fallback pipeline pair once (spec's
// "fallback shader as process-wide singleton" design note) and returns an
// empty registry. sceneLayout, modelComputeLayout and modelRasterLayout are
// shared, explicitly-created bind group layouts (owned by the caller) so
// every compiled pipeline — fallback or user — accepts the same bind groups
// without relying on per-pipeline auto-layout inference.
func NewRegistry(device *wgpu.Device, colorFormat wgpu.TextureFormat, sink diag.Sink, sceneLayout, modelComputeLayout, modelRasterLayout *wgpu.BindGroupLayout) (*Registry, error) {
	computeLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{sceneLayout, modelComputeLayout},
	})
	if err != nil {
		return nil, err
	}
	rasterLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{sceneLayout, modelRasterLayout},
	})
	if err != nil {
		return nil, err
	}

	r := &Registry{
		device:        device,
		format:        colorFormat,
		sink:          sink,
		computeLayout: computeLayout,
		rasterLayout:  rasterLayout,
		entries:       make(map[ID]*entry),
	}
	fallback, err := r.compileFallback()
	if err != nil {
		return nil, err
	}
	r.fallback = fallback
	return r, nil
}

// SetShader launches compilation of source on a goroutine (the "cooperative
// task" of spec.md §4.4). On success, the resulting pair is published
// atomically; on failure, diagnostics are reported to the sink and the
// existing (or fallback) pair is left in place.
func (r *Registry) SetShader(id ID, source string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		e = &entry{}
		r.entries[id] = e
	}
	r.mu.Unlock()

	go func() {
		pair, compileErr := r.compileUserShader(source)
		mySeq := r.seq.Add(1)
		if compileErr != nil {
			if r.sink != nil {
				r.sink.ReportShaderCompileError(&diag.ShaderCompileError{
					ShaderID:    string(id),
					Diagnostics: compileErr.Error(),
				})
			}
			return
		}
		// Only publish if no later-completing compile for this id has
		// already landed.
		for {
			prev := e.completionSeq.Load()
			if prev >= mySeq {
				return
			}
			if e.completionSeq.CompareAndSwap(prev, mySeq) {
				e.pair.Store(pair)
				return
			}
		}
	}()
}

// RemoveShader deletes id's entry; any in-flight compile for it becomes
// fire-and-forget and its result is discarded on arrival since the entry
// pointer it closed over is simply dropped.
func (r *Registry) RemoveShader(id ID) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Lookup returns id's compiled pair, or the fallback pair if id is unknown,
// still compiling, or every compile attempt for it has failed.
func (r *Registry) Lookup(id ID) *PipelinePair {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return r.fallback
	}
	if p := e.pair.Load(); p != nil {
		return p
	}
	return r.fallback
}

// Fallback returns the process-wide fallback pair directly.
func (r *Registry) Fallback() *PipelinePair { return r.fallback }

func (r *Registry) compileFallback() (*PipelinePair, error) {
	return r.buildPipelinePair(shaders.FallbackWGSL, shaders.SubdivideWGSL+"\n"+shaders.FallbackWGSL)
}

// compileUserShader combines the fixed subdivision kernel template with the
// model's own source, which supplies evaluate_surface; the same user
// source also serves as the raster module (it's expected to additionally
// define vs_main/fs_main).
func (r *Registry) compileUserShader(userSource string) (*PipelinePair, error) {
	return r.buildPipelinePair(userSource, shaders.SubdivideWGSL+"\n"+userSource)
}

func (r *Registry) buildPipelinePair(rasterSource, subdivideSource string) (*PipelinePair, error) {
	device := r.device
	colorFormat := r.format
	rasterModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "RasterShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: rasterSource},
	})
	if err != nil {
		return nil, err
	}

	computeModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "SubdivideShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: subdivideSource},
	})
	if err != nil {
		return nil, err
	}

	computePipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "SubdividePipeline",
		Layout:  r.computeLayout,
		Compute: wgpu.ProgrammableStageDescriptor{Module: computeModule, EntryPoint: "main"},
	})
	if err != nil {
		return nil, err
	}

	renderPipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "RasterPipeline",
		Layout: r.rasterLayout,
		Vertex: wgpu.VertexState{
			Module:     rasterModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 8,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     rasterModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: colorFormat, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionGreater,
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, err
	}

	return &PipelinePair{Subdivision: computePipeline, Raster: renderPipeline}, nil
}
