// Package profiler provides wall-clock scope timing for the per-frame
// render path, with an optional section for caller-supplied GPU durations.
package profiler

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Settings controls whether GPU durations passed to ResolveGPUQueries are
// recorded and listed by GetStatsString. Scopes always measure wall-clock
// time only; this package issues no GPU timestamp queries itself.
type Settings struct {
	GPUEnabled bool
}

type Profiler struct {
	settings   Settings
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string

	// gpuScopes holds GPU timings keyed by scope name, populated by
	// ResolveGPUQueries. Empty when GPUEnabled is false.
	gpuScopes map[string]time.Duration
}

func New(settings Settings) *Profiler {
	return &Profiler{
		settings:   settings,
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		Order:      make([]string, 0),
		gpuScopes:  make(map[string]time.Duration),
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = time.Now()
	found := false
	for _, n := range p.Order {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		p.Order = append(p.Order, name)
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] = time.Since(start)
	}
}

// SetSettings updates the profiler's GPU-query mode for subsequent frames.
func (p *Profiler) SetSettings(settings Settings) {
	p.settings = settings
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

// ResolveGPUQueries records a caller-supplied GPU-side duration for name.
// The frame orchestrator does not call it. A no-op when GPU profiling is
// disabled.
func (p *Profiler) ResolveGPUQueries(name string, d time.Duration) {
	if !p.settings.GPUEnabled {
		return
	}
	p.gpuScopes[name] = d
}

func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
	for k := range p.gpuScopes {
		p.gpuScopes[k] = 0
	}
}

func (p *Profiler) GetStatsString() string {
	var sb strings.Builder

	sb.WriteString("Timings (CPU):\n")
	for _, name := range p.Order {
		dur := p.Scopes[name]
		ms := float64(dur.Microseconds()) / 1000.0
		sb.WriteString(fmt.Sprintf("  %-15s: %.2f ms\n", name, ms))
	}

	if p.settings.GPUEnabled {
		sb.WriteString("\nTimings (GPU):\n")
		for _, name := range p.Order {
			dur, ok := p.gpuScopes[name]
			if !ok {
				continue
			}
			ms := float64(dur.Microseconds()) / 1000.0
			sb.WriteString(fmt.Sprintf("  %-15s: %.2f ms\n", name, ms))
		}
	}

	sb.WriteString("\nStats:\n")
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %-15s: %d\n", k, p.Counts[k]))
	}

	return sb.String()
}
