package model

import "github.com/cogentcore/webgpu/wgpu"

// Set tracks the live VirtualModel for each ModelInfo.ID across frames,
// creating one the first time an ID appears and releasing it once its
// ModelInfo is no longer present in GameResources.Models.
type Set struct {
	device     *wgpu.Device
	models     map[ID]*VirtualModel
	meshCounts [5]uint32

	// OnRelease, if set, is called just before a VirtualModel absent from
	// the current frame's ids is released, so dependent caches (lod bind
	// groups, raster bind groups) can drop their entries first.
	OnRelease func(*VirtualModel)
}

func NewSet(device *wgpu.Device, meshIndexCounts [5]uint32) *Set {
	return &Set{
		device:     device,
		models:     make(map[ID]*VirtualModel),
		meshCounts: meshIndexCounts,
	}
}

// Sync reconciles the live set against the current frame's model ids,
// creating VirtualModels for newly-seen ids and releasing ones absent from
// ids. Returns the VirtualModel for every id in ids, in order.
func (s *Set) Sync(ids []ID) ([]*VirtualModel, error) {
	want := make(map[ID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for id, vm := range s.models {
		if !want[id] {
			if s.OnRelease != nil {
				s.OnRelease(vm)
			}
			vm.Release()
			delete(s.models, id)
		}
	}

	out := make([]*VirtualModel, 0, len(ids))
	for _, id := range ids {
		vm, ok := s.models[id]
		if !ok {
			created, err := New(s.device, id, s.meshCounts)
			if err != nil {
				return nil, err
			}
			s.models[id] = created
			vm = created
		}
		out = append(out, vm)
	}
	return out, nil
}

func (s *Set) Get(id ID) (*VirtualModel, bool) {
	vm, ok := s.models[id]
	return vm, ok
}

func (s *Set) Release() {
	for _, vm := range s.models {
		vm.Release()
	}
	s.models = make(map[ID]*VirtualModel)
}
