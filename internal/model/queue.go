package model

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/parasurf/internal/config"
	"github.com/gekko3d/parasurf/internal/gpubuf"
)

// patchStride is the byte size of one encoded Patch record (u, v, instance,
// each a uint32).
const patchStride = 12

// dispatchArgsStride is the byte size of {x, y, z: uint32} indirect dispatch
// arguments.
const dispatchArgsStride = 12

// drawArgsStride is the byte size of
// {index_count, instance_count, first_index, base_vertex, first_instance}.
// base_vertex is a signed i32 in the wgpu indirect layout; the other four
// fields are u32.
const drawArgsStride = 20

// WorkQueue is a GPU-resident {length, capacity, patches[capacity]}
// structure. length is the atomic producer index maintained entirely by
// GPU work; the host only ever writes a cleared or seeded state.
type WorkQueue struct {
	buf *gpubuf.TypedBuffer
}

// NewWorkQueue allocates a queue of the given capacity. head is
// {length: u32, capacity: u32} followed by capacity Patch records.
func NewWorkQueue(device *wgpu.Device, label string, capacity uint32) (*WorkQueue, error) {
	head := make([]byte, 8)
	putU32(head, 0, 0)
	putU32(head, 4, capacity)
	tb, err := gpubuf.NewStorageRuntimeArray(device, label, head, capacity, patchStride, 0)
	if err != nil {
		return nil, err
	}
	return &WorkQueue{buf: tb}, nil
}

// SeedRoots writes the initial instance_count root patches and sets
// length = instance_count (clamped to capacity), as the spec's seeding step
// requires before pass 0.
func (q *WorkQueue) SeedRoots(queue *wgpu.Queue, instanceCount uint32) uint32 {
	n := instanceCount
	if n > config.MaxPatchCount {
		n = config.MaxPatchCount
	}
	data := make([]byte, 8+int(n)*patchStride)
	putU32(data, 0, n)
	putU32(data, 4, config.MaxPatchCount)
	for i := uint32(0); i < n; i++ {
		off := 8 + int(i)*patchStride
		putU32(data, off, 1)   // u
		putU32(data, off+4, 1) // v
		putU32(data, off+8, i) // instance
	}
	q.buf.WriteAt(queue, 0, data)
	return n
}

// ResetFrom (via the caller's encoder) copies the whole template buffer
// (length 0, capacity, patch array) over this queue, the GPU-side hazard
// barrier between passes.
func (q *WorkQueue) ResetFrom(encoder *wgpu.CommandEncoder, template *WorkQueue) {
	q.buf.CopyAllFrom(encoder, template.buf)
}

func (q *WorkQueue) Buffer() *gpubuf.TypedBuffer { return q.buf }
func (q *WorkQueue) Release()                    { q.buf.Release() }

// DispatchArgs is a GPU-resident {x, y, z: u32} indirect compute dispatch
// argument buffer.
type DispatchArgs struct {
	buf *gpubuf.TypedBuffer
}

func NewDispatchArgs(device *wgpu.Device, label string, x, y, z uint32) (*DispatchArgs, error) {
	data := make([]byte, dispatchArgsStride)
	putU32(data, 0, x)
	putU32(data, 4, y)
	putU32(data, 8, z)
	tb, err := gpubuf.NewStorageRuntimeArray(device, label, data, 0, 0, wgpu.BufferUsageIndirect)
	if err != nil {
		return nil, err
	}
	return &DispatchArgs{buf: tb}, nil
}

func (d *DispatchArgs) Set(queue *wgpu.Queue, x, y, z uint32) {
	data := make([]byte, dispatchArgsStride)
	putU32(data, 0, x)
	putU32(data, 4, y)
	putU32(data, 8, z)
	d.buf.WriteAt(queue, 0, data)
}

func (d *DispatchArgs) ResetFrom(encoder *wgpu.CommandEncoder, template *DispatchArgs) {
	d.buf.CopyAllFrom(encoder, template.buf)
}

func (d *DispatchArgs) Buffer() *gpubuf.TypedBuffer { return d.buf }
func (d *DispatchArgs) Release()                    { d.buf.Release() }

func putU32(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}
