package lod

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/parasurf/internal/model"
)

// modelBindGroups caches the two FromTo bind group variants and the
// consolidation bind group for one VirtualModel — all of it depends only on
// buffer handles fixed at VirtualModel creation, so it's built once and
// reused every frame (the dirty-flag-per-derived-resource pattern of
// spec.md §9 collapsed to "build once" since nothing here ever changes).
type modelBindGroups struct {
	fromTo        [2]*wgpu.BindGroup
	consolidation *wgpu.BindGroup
}

// BindGroups returns (building and caching on first use) the bind groups
// needed to run vm's subdivision and consolidation passes.
func (d *Driver) BindGroups(vm *model.VirtualModel) (*modelBindGroups, error) {
	if cached, ok := d.cache[vm]; ok {
		return cached, nil
	}

	built := &modelBindGroups{}
	for from := 0; from < 2; from++ {
		to := 1 - from
		entries := []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: vm.Input.Buffer, Size: vm.Input.Size},
			{Binding: 1, Buffer: vm.ForceRender.Buffer, Size: vm.ForceRender.Size},
			{Binding: 2, Buffer: vm.Queues[from].Buffer().Buffer, Size: vm.Queues[from].Buffer().Size},
			{Binding: 3, Buffer: vm.Queues[to].Buffer().Buffer, Size: vm.Queues[to].Buffer().Size},
			{Binding: 4, Buffer: vm.DispatchArgs[to].Buffer().Buffer, Size: vm.DispatchArgs[to].Buffer().Size},
		}
		for i, bin := range vm.Bins.Bins {
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: uint32(5 + i), Buffer: bin.Buffer().Buffer, Size: bin.Buffer().Size,
			})
		}
		bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   "LodModelBindGroup",
			Layout:  d.modelLayout,
			Entries: entries,
		})
		if err != nil {
			return nil, err
		}
		built.fromTo[from] = bg
	}

	consolidationEntries := make([]wgpu.BindGroupEntry, 0, 6)
	for i, bin := range vm.Bins.Bins {
		consolidationEntries = append(consolidationEntries, wgpu.BindGroupEntry{
			Binding: uint32(i), Buffer: bin.Buffer().Buffer, Size: bin.Buffer().Size,
		})
	}
	consolidationEntries = append(consolidationEntries, wgpu.BindGroupEntry{
		Binding: 5, Buffer: vm.Bins.DrawArgs.Buffer, Size: vm.Bins.DrawArgs.Size,
	})
	cbg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "ConsolidationBindGroup",
		Layout:  d.consolidationLayout,
		Entries: consolidationEntries,
	})
	if err != nil {
		return nil, err
	}
	built.consolidation = cbg

	d.cache[vm] = built
	return built, nil
}

// Forget drops vm's cached bind groups, called when a VirtualModel is
// released so its buffers aren't referenced by a stale bind group.
func (d *Driver) Forget(vm *model.VirtualModel) {
	delete(d.cache, vm)
}
