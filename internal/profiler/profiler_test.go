package profiler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBeginEndScopeRecordsDuration(t *testing.T) {
	p := New(Settings{})
	p.BeginScope("Render")
	time.Sleep(time.Millisecond)
	p.EndScope("Render")

	assert.Greater(t, p.Scopes["Render"], time.Duration(0))
	assert.Equal(t, []string{"Render"}, p.Order)
}

func TestBeginScopeOrderIsInsertionOrderWithoutDuplicates(t *testing.T) {
	p := New(Settings{})
	p.BeginScope("LOD")
	p.EndScope("LOD")
	p.BeginScope("RenderPass")
	p.EndScope("RenderPass")
	p.BeginScope("LOD")
	p.EndScope("LOD")

	assert.Equal(t, []string{"LOD", "RenderPass"}, p.Order)
}

func TestResolveGPUQueriesNoopWhenDisabled(t *testing.T) {
	p := New(Settings{GPUEnabled: false})
	p.ResolveGPUQueries("Render", 5*time.Millisecond)
	assert.Empty(t, p.gpuScopes)
}

func TestResolveGPUQueriesRecordsWhenEnabled(t *testing.T) {
	p := New(Settings{GPUEnabled: true})
	p.ResolveGPUQueries("Render", 5*time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, p.gpuScopes["Render"])
}

func TestSetSettingsTogglesGPUSectionInStats(t *testing.T) {
	p := New(Settings{GPUEnabled: false})
	p.BeginScope("Render")
	p.EndScope("Render")
	assert.NotContains(t, p.GetStatsString(), "Timings (GPU):")

	p.SetSettings(Settings{GPUEnabled: true})
	p.ResolveGPUQueries("Render", time.Millisecond)
	assert.Contains(t, p.GetStatsString(), "Timings (GPU):")
}

func TestResetClearsDurationsNotOrder(t *testing.T) {
	p := New(Settings{GPUEnabled: true})
	p.BeginScope("Render")
	p.EndScope("Render")
	p.ResolveGPUQueries("Render", time.Millisecond)

	p.Reset()

	assert.Equal(t, time.Duration(0), p.Scopes["Render"])
	assert.Equal(t, time.Duration(0), p.gpuScopes["Render"])
	assert.Equal(t, []string{"Render"}, p.Order)
}

func TestGetStatsStringIncludesCounts(t *testing.T) {
	p := New(Settings{})
	p.SetCount("patches", 42)
	out := p.GetStatsString()
	assert.True(t, strings.Contains(out, "patches") && strings.Contains(out, "42"))
}
