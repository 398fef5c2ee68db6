package main

import (
	"flag"
	"math"
	"runtime"

	"github.com/gekko3d/parasurf/internal/applog"
	"github.com/gekko3d/parasurf/internal/config"
	"github.com/gekko3d/parasurf/internal/frame"
	"github.com/gekko3d/parasurf/internal/model"
	"github.com/gekko3d/parasurf/internal/profiler"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	debug := flag.Bool("debug", false, "enable verbose logging")
	gpuProfile := flag.Bool("gpu-profile", false, "enable the profiler's GPU timing section (no GPU timestamp queries are issued)")
	flag.Parse()

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "parasurf", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	log := applog.New("parasurf", *debug)

	orch, err := frame.New(window, frame.Options{
		Log:              log,
		ProfilerSettings: profiler.Settings{GPUEnabled: *gpuProfile},
	})
	if err != nil {
		panic(err)
	}
	defer orch.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		orch.ConfigureSurface(uint32(width), uint32(height))
	})

	cam := &orbitCamera{distance: 6, yaw: 0.6, pitch: 0.5}

	mouseCaptured := false
	var lastMouseX, lastMouseY float64
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if mouseCaptured {
			dx := float32(xpos - lastMouseX)
			dy := float32(ypos - lastMouseY)
			cam.yaw += dx * 0.004
			cam.pitch -= dy * 0.004
			if cam.pitch > 1.5 {
				cam.pitch = 1.5
			}
			if cam.pitch < -1.5 {
				cam.pitch = -1.5
			}
		}
		lastMouseX, lastMouseY = xpos, ypos
	})

	capture := frame.CursorCapture{}
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyTab && action == glfw.Press {
			mouseCaptured = !mouseCaptured
			capture = applyCursorCapture(w, capture, mouseCaptured)
		}
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	mouseHeld := false
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button == glfw.MouseButtonLeft {
			mouseHeld = action == glfw.Press
		}
	})

	demoModel := model.ID("demo-surface")
	lastTime := glfw.GetTime()

	for !window.ShouldClose() {
		glfw.PollEvents()

		now := glfw.GetTime()
		deltaTime := float32(now - lastTime)
		lastTime = now

		width, height := window.GetFramebufferSize()
		aspect := float32(width) / float32(height)
		view, projection, worldPos := cam.matrices(aspect)

		mx, my := window.GetCursorPos()
		res := frame.GameResources{
			Camera: frame.CameraState{
				View:       view,
				Projection: projection,
				WorldPos:   worldPos,
			},
			MousePos:         mgl32.Vec2{float32(mx / float64(width)), float32(my / float64(height))},
			MouseHeld:        mouseHeld,
			CursorCapture:    capture,
			ProfilerSettings: profiler.Settings{GPUEnabled: *gpuProfile},
			Models: []model.ModelInfo{
				{
					ID:            demoModel,
					ShaderID:      "", // unresolved id always falls back to the built-in magenta surface
					Transform:     mgl32.Ident4(),
					InstanceCount: 1,
					Material: model.MaterialInfo{
						BaseColor: config.FallbackMaterialColor,
						Roughness: 0.8,
						Metalness: 0.0,
					},
					Tuning: config.DefaultTuning(),
				},
			},
		}

		if _, err := orch.RenderFrame(res, deltaTime); err != nil {
			log.Errorf("render frame: %v", err)
		}
	}
}

// orbitCamera is a minimal fly-around camera sufficient to exercise the
// renderer; it is not part of the rendering pipeline itself.
type orbitCamera struct {
	distance, yaw, pitch float32
}

func (c *orbitCamera) matrices(aspect float32) (view, projection mgl32.Mat4, worldPos mgl32.Vec3) {
	eye := mgl32.Vec3{
		c.distance * cosf(c.pitch) * sinf(c.yaw),
		c.distance * sinf(c.pitch),
		c.distance * cosf(c.pitch) * cosf(c.yaw),
	}
	view = mgl32.LookAtV(eye, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	projection = mgl32.Perspective(mgl32.DegToRad(60), aspect, 0.1, 1000)
	return view, projection, eye
}

func cosf(x float32) float32 { return float32(math.Cos(float64(x))) }
func sinf(x float32) float32 { return float32(math.Sin(float64(x))) }

// applyCursorCapture drives the window's OS cursor state to match the
// requested capture state, restoring the cursor to its pre-capture position
// on release, per the two-state CursorCapture machine.
func applyCursorCapture(w *glfw.Window, prev frame.CursorCapture, wantLocked bool) frame.CursorCapture {
	if wantLocked && !prev.Locked {
		x, y := w.GetCursorPos()
		w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		return frame.CursorCapture{Locked: true, Position: mgl32.Vec2{float32(x), float32(y)}}
	}
	if !wantLocked && prev.Locked {
		w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		w.SetCursorPos(float64(prev.Position[0]), float64(prev.Position[1]))
		return frame.CursorCapture{Locked: false}
	}
	return prev
}
