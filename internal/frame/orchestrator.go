// Package frame sequences one render frame: acquire the surface texture,
// update scene uniforms, run every model's LOD stage, run the shared render
// pass (every model's render stage plus the ground-plane overlay), submit,
// present. Profiling is wall-clock scopes only: no GPU timestamp queries are
// recorded or resolved.
package frame

import (
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/parasurf/internal/applog"
	"github.com/gekko3d/parasurf/internal/config"
	"github.com/gekko3d/parasurf/internal/diag"
	"github.com/gekko3d/parasurf/internal/lod"
	"github.com/gekko3d/parasurf/internal/mesh"
	"github.com/gekko3d/parasurf/internal/model"
	"github.com/gekko3d/parasurf/internal/profiler"
	"github.com/gekko3d/parasurf/internal/render"
	"github.com/gekko3d/parasurf/internal/scene"
	"github.com/gekko3d/parasurf/internal/shaderreg"
	"github.com/go-gl/mathgl/mgl32"
)

// Orchestrator owns the device/surface/pipeline state shared across frames.
type Orchestrator struct {
	Device  *wgpu.Device
	Surface *wgpu.Surface
	Adapter *wgpu.Adapter
	Config  *wgpu.SurfaceConfiguration

	Scene       *scene.Buffer
	Models      *model.Set
	Shaders     *shaderreg.Registry
	LOD         *lod.Driver
	Render      *render.Stage
	Quads       *mesh.Set
	Profiler    *profiler.Profiler
	GroundPlane *wgpu.RenderPipeline

	DepthView *wgpu.TextureView
	depthTex  *wgpu.Texture

	Log  applog.Logger
	Sink diag.Sink

	frameCounter uint64
}

// ConfigureSurface (re)configures the swapchain to the given size, with the
// off-screen fallback sizing rule of spec.md §6: UVec2::max(actual,(1,1)).
func (o *Orchestrator) ConfigureSurface(width, height uint32) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	o.Config.Width = width
	o.Config.Height = height
	o.Surface.Configure(o.Adapter, o.Device, o.Config)
	o.rebuildDepthTexture(width, height)
}

func (o *Orchestrator) rebuildDepthTexture(width, height uint32) {
	if o.depthTex != nil {
		o.depthTex.Release()
	}
	tex, err := o.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "DepthTexture",
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
	})
	if err != nil {
		o.Log.Errorf("depth texture recreate failed: %v", err)
		return
	}
	o.depthTex = tex
	view, err := tex.CreateView(nil)
	if err != nil {
		o.Log.Errorf("depth view create failed: %v", err)
		return
	}
	o.DepthView = view
}

// RenderFrame runs one frame. On SurfaceLost/SurfaceOutdated it recreates
// the swapchain and returns a successful, skipped FrameResult with
// DeltaTime 0, per spec.md §4.7 and §7.
func (o *Orchestrator) RenderFrame(res GameResources, deltaTime float32) (FrameResult, error) {
	nextTexture, err := o.Surface.GetCurrentTexture()
	if err != nil {
		switch nextTexture.Status {
		case wgpu.SurfaceTextureStatusLost, wgpu.SurfaceTextureStatusOutdated:
			o.ConfigureSurface(o.Config.Width, o.Config.Height)
			return FrameResult{DeltaTime: 0, Skipped: true}, nil
		case wgpu.SurfaceTextureStatusTimeout:
			return FrameResult{Skipped: true}, fmt.Errorf("%w: %v", diag.ErrSurfaceTimeout, err)
		default:
			return FrameResult{Skipped: true}, fmt.Errorf("%w: %v", diag.ErrOtherSurface, err)
		}
	}
	defer nextTexture.Release()

	o.Profiler.SetSettings(res.ProfilerSettings)

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		return FrameResult{Skipped: true}, fmt.Errorf("create surface view: %w", err)
	}
	defer view.Release()

	queue := o.Device.GetQueue()

	if err := o.writeSceneUniforms(queue, res, deltaTime); err != nil {
		return FrameResult{Skipped: true}, err
	}

	ids := make([]model.ID, len(res.Models))
	for i, m := range res.Models {
		ids[i] = m.ID
	}
	vms, err := o.Models.Sync(ids)
	if err != nil {
		return FrameResult{Skipped: true}, fmt.Errorf("sync models: %w", err)
	}

	encoder, err := o.Device.CreateCommandEncoder(nil)
	if err != nil {
		return FrameResult{Skipped: true}, fmt.Errorf("create encoder: %w", err)
	}

	o.Profiler.BeginScope("Render")

	o.Profiler.BeginScope("LOD")
	for i, info := range res.Models {
		vm := vms[i]
		pair := o.Shaders.Lookup(shaderreg.ID(info.ShaderID))
		threshold := info.Tuning.ThresholdFactor
		if res.LODStageOverride != nil {
			if t, ok := res.LODStageOverride.Tuning[info.ID]; ok {
				threshold = t
			}
		}
		if err := vm.WriteMaterial(queue, info.Material); err != nil {
			return FrameResult{Skipped: true}, fmt.Errorf("write material for %s: %w", info.ID, err)
		}
		if err := o.LOD.Run(encoder, queue, vm, pair, o.Scene.BindGroup(), info.InstanceCount, info.Transform, threshold); err != nil {
			return FrameResult{Skipped: true}, fmt.Errorf("lod run for %s: %w", info.ID, err)
		}
	}
	o.Profiler.EndScope("LOD")

	o.Profiler.BeginScope("RenderPass")
	if err := o.recordRenderPass(encoder, view, res, vms); err != nil {
		return FrameResult{Skipped: true}, fmt.Errorf("record render pass: %w", err)
	}
	o.Profiler.EndScope("RenderPass")

	o.Profiler.EndScope("Render")

	cmdBuf, err := encoder.Finish(nil)
	if err != nil {
		return FrameResult{Skipped: true}, fmt.Errorf("encoder finish: %w", err)
	}
	queue.Submit(cmdBuf)
	o.Surface.Present()

	o.frameCounter++
	return FrameResult{DeltaTime: deltaTime}, nil
}

func (o *Orchestrator) writeSceneUniforms(queue *wgpu.Queue, res GameResources, deltaTime float32) error {
	u := scene.Uniforms{
		View:        res.Camera.View,
		Projection:  res.Camera.Projection,
		CameraWorld: res.Camera.WorldPos,
		Time:        float32(o.frameCounter) * deltaTime,
		MouseNDC:    res.MousePos,
		ScreenSize:  [2]float32{float32(o.Config.Width), float32(o.Config.Height)},
	}
	if res.MouseHeld {
		u.MouseHeld = 1
	}
	return o.Scene.Write(queue, u)
}

// GroundGridScale implements spec.md §6's formula:
// grid_scale = 1 / 2^ceil(log2(max(1, |camera.position| / 50))).
func GroundGridScale(cameraWorld mgl32.Vec3) float32 {
	dist := cameraWorld.Len()
	ratio := dist / 50.0
	if ratio < 1 {
		ratio = 1
	}
	exp := math.Ceil(math.Log2(float64(ratio)))
	return float32(1.0 / math.Pow(2, exp))
}

func (o *Orchestrator) recordRenderPass(encoder *wgpu.CommandEncoder, colorView *wgpu.TextureView, res GameResources, vms []*model.VirtualModel) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    colorView,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: config.ClearColor[0], G: config.ClearColor[1],
					B: config.ClearColor[2], A: config.ClearColor[3],
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            o.DepthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: config.DepthClear,
		},
	})

	draws := make([]render.ModelDraw, len(vms))
	for i, vm := range vms {
		info := res.Models[i]
		draws[i] = render.ModelDraw{
			VirtualModel: vm,
			Pipelines:    o.Shaders.Lookup(shaderreg.ID(info.ShaderID)),
		}
	}
	if err := o.Render.Draw(pass, o.Scene.BindGroup(), draws); err != nil {
		return err
	}

	pass.SetPipeline(o.GroundPlane)
	pass.SetBindGroup(0, o.Scene.BindGroup(), nil)
	pass.Draw(6, 1, 0, 0)

	pass.End()
	return nil
}

func (o *Orchestrator) Release() {
	if o.DepthView != nil {
		o.DepthView.Release()
	}
	if o.depthTex != nil {
		o.depthTex.Release()
	}
	o.Models.Release()
	o.Scene.Release()
}
