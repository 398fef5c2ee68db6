package model

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/parasurf/internal/config"
	"github.com/gekko3d/parasurf/internal/gpubuf"
)

// RenderBin is shaped identically to WorkQueue: a render-ready patch queue
// for one target size S.
type RenderBin struct {
	Size uint32
	buf  *gpubuf.TypedBuffer
}

func NewRenderBin(device *wgpu.Device, label string, size uint32, capacity uint32) (*RenderBin, error) {
	head := make([]byte, 8)
	putU32(head, 4, capacity)
	tb, err := gpubuf.NewStorageRuntimeArray(device, label, head, capacity, patchStride, 0)
	if err != nil {
		return nil, err
	}
	return &RenderBin{Size: size, buf: tb}, nil
}

func (b *RenderBin) ResetFrom(encoder *wgpu.CommandEncoder, template *RenderBin) {
	b.buf.CopyAllFrom(encoder, template.buf)
}

func (b *RenderBin) Buffer() *gpubuf.TypedBuffer { return b.buf }
func (b *RenderBin) Release()                    { b.buf.Release() }

// RenderBins is the fixed-order set of five bins (2,4,8,16,32) for one
// model, plus the five-entry indirect draw-args buffer the consolidation
// pass writes into.
type RenderBins struct {
	Bins       [5]*RenderBin
	DrawArgs   *gpubuf.TypedBuffer
	meshCounts [5]uint32 // index_count per bin, constant once meshes exist
}

func NewRenderBins(device *wgpu.Device, labelPrefix string, meshIndexCounts [5]uint32) (*RenderBins, error) {
	rb := &RenderBins{meshCounts: meshIndexCounts}
	for i, s := range config.PatchSizes {
		b, err := NewRenderBin(device, labelPrefix+"Bin", s, config.MaxPatchCount)
		if err != nil {
			return nil, err
		}
		rb.Bins[i] = b
	}

	data := make([]byte, 5*drawArgsStride)
	for i := range config.PatchSizes {
		off := i * drawArgsStride
		putU32(data, off, meshIndexCounts[i]) // index_count
		putU32(data, off+4, 0)                // instance_count, consolidation fills this in
		putU32(data, off+8, 0)                // first_index
		putU32(data, off+12, 0)               // base_vertex
		putU32(data, off+16, 0)               // first_instance
	}
	tb, err := gpubuf.NewStorageRuntimeArray(device, labelPrefix+"DrawArgs", data, 0, 0, wgpu.BufferUsageIndirect)
	if err != nil {
		return nil, err
	}
	rb.DrawArgs = tb
	return rb, nil
}

// DrawArgsOffset returns the byte offset of bin index i's
// DrawIndexedIndirectArgs record within DrawArgs.
func DrawArgsOffset(binIndex int) uint64 {
	return uint64(binIndex) * drawArgsStride
}

func (rb *RenderBins) Release() {
	for _, b := range rb.Bins {
		b.Release()
	}
	rb.DrawArgs.Release()
}
