package frame

import (
	"github.com/gekko3d/parasurf/internal/model"
	"github.com/gekko3d/parasurf/internal/profiler"
	"github.com/go-gl/mathgl/mgl32"
)

// CursorCapture is the two-state cursor machine: Free, or LockedAndHidden
// at the position the cursor was at when it was captured.
type CursorCapture struct {
	Locked   bool
	Position mgl32.Vec2
}

// CameraState is the minimal camera contract the orchestrator needs: view
// and projection matrices plus world position, with the rest (controller
// logic, input handling) left to the host per spec.md §1's scope.
type CameraState struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	WorldPos   mgl32.Vec3
}

// FrameData is the inbound per-frame contract from the scene/game layer.
type FrameData struct {
	Camera           CameraState
	MousePos         mgl32.Vec2
	MouseHeld        bool
	LODStageOverride *LODOverride
}

// LODOverride lets the host override the threshold factor of individual
// models, by id, for this frame.
type LODOverride struct {
	Tuning map[model.ID]float32 // ThresholdFactor override per model id
}

// GameResources is the complete inbound state the orchestrator reads once
// per frame.
type GameResources struct {
	Camera           CameraState
	MousePos         mgl32.Vec2
	MouseHeld        bool
	CursorCapture    CursorCapture
	ProfilerSettings profiler.Settings
	Models           []model.ModelInfo
	LODStageOverride *LODOverride
}

// FrameResult reports what happened this frame.
type FrameResult struct {
	DeltaTime float32
	Skipped   bool
}
