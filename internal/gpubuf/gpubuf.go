// Package gpubuf presents GPU buffers as typed values with an optional
// trailing dynamically-sized array, matching the manual byte-packing style
// used throughout the rest of this codebase rather than a struct-cast
// convenience: every write serializes through an explicit Marshal func.
package gpubuf

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/parasurf/internal/diag"
)

// SafeSizeLimit is a size threshold for pathological allocation requests.
// The allocation functions in this package do not check it: buffers of any
// size are requested as-is and nothing is logged.
const SafeSizeLimit = 1 << 30

// Marshaler serializes a host-side value to its GPU-layout bytes.
type Marshaler interface {
	MarshalGPU() []byte
}

// TypedBuffer wraps a *wgpu.Buffer with its allocated size so writers can be
// bounds-checked against the real allocation rather than trusting callers.
type TypedBuffer struct {
	device *wgpu.Device
	Buffer *wgpu.Buffer
	Size   uint64
	Usage  wgpu.BufferUsage
	Label  string
}

// NewUniform allocates a buffer sized to hold v, with UNIFORM|COPY_DST usage.
func NewUniform(device *wgpu.Device, label string, v Marshaler) (*TypedBuffer, error) {
	return newFixed(device, label, v.MarshalGPU(), wgpu.BufferUsageUniform)
}

// NewStorage allocates a buffer sized to hold v, with STORAGE usage plus any
// extra usage flags the caller needs (e.g. COPY_SRC for ping-pong reset
// source buffers, INDIRECT for dispatch/draw argument buffers).
func NewStorage(device *wgpu.Device, label string, v Marshaler, extra wgpu.BufferUsage) (*TypedBuffer, error) {
	return newFixed(device, label, v.MarshalGPU(), wgpu.BufferUsageStorage|extra)
}

// NewStorageRuntimeArray allocates size = len(head) + cap*elemStride bytes:
// a fixed head (e.g. {length, capacity}) followed by a runtime-sized
// trailing array of cap elements of elemStride bytes each.
func NewStorageRuntimeArray(device *wgpu.Device, label string, head []byte, cap uint32, elemStride uint64, extra wgpu.BufferUsage) (*TypedBuffer, error) {
	size := uint64(len(head)) + uint64(cap)*elemStride
	return newEmpty(device, label, size, wgpu.BufferUsageStorage|extra, head)
}

func newFixed(device *wgpu.Device, label string, data []byte, usage wgpu.BufferUsage) (*TypedBuffer, error) {
	return newEmpty(device, label, uint64(len(data)), usage, data)
}

func newEmpty(device *wgpu.Device, label string, size uint64, usage wgpu.BufferUsage, initial []byte) (*TypedBuffer, error) {
	usage |= wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc
	if size%4 != 0 {
		size += 4 - (size % 4)
	}
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	tb := &TypedBuffer{device: device, Buffer: buf, Size: size, Usage: usage, Label: label}
	if len(initial) > 0 {
		device.GetQueue().WriteBuffer(buf, 0, initial)
	}
	return tb, nil
}

// Write uploads v's serialized bytes at byte offset 0. Returns
// diag.ErrBufferWriteOverflow if the serialized size exceeds the
// allocation — a programming error, since TypedBuffer sizes are fixed at
// construction.
func (b *TypedBuffer) Write(queue *wgpu.Queue, v Marshaler) error {
	return b.WriteAt(queue, 0, v.MarshalGPU())
}

// WriteAt uploads raw bytes at the given byte offset.
func (b *TypedBuffer) WriteAt(queue *wgpu.Queue, offset uint64, data []byte) error {
	if offset+uint64(len(data)) > b.Size {
		return diag.ErrBufferWriteOverflow
	}
	if len(data) == 0 {
		return nil
	}
	queue.WriteBuffer(b.Buffer, offset, data)
	return nil
}

// CopyAllFrom issues a buffer-to-buffer copy of min(src.Size, b.Size) bytes
// on encoder. Used to reset ping-pong queues/dispatch-args from pre-built
// zeroed template buffers between subdivision passes — this copy is the
// hazard barrier that makes the next pass's writes to b safe to overlap
// with reads still in flight against the previous contents.
func (b *TypedBuffer) CopyAllFrom(encoder *wgpu.CommandEncoder, src *TypedBuffer) {
	n := src.Size
	if b.Size < n {
		n = b.Size
	}
	encoder.CopyBufferToBuffer(src.Buffer, 0, b.Buffer, 0, n)
}

// Resize grows the buffer to at least newSize bytes using 1.5x geometric
// growth, preserving existing contents via a GPU-side copy. No-op if the
// buffer is already large enough.
func (b *TypedBuffer) Resize(encoder *wgpu.CommandEncoder, newSize uint64) error {
	if b.Size >= newSize {
		return nil
	}
	grown := uint64(float64(b.Size) * 1.5)
	if grown > newSize {
		newSize = grown
	}
	newBuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            b.Label,
		Size:             newSize,
		Usage:            b.Usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return err
	}
	encoder.CopyBufferToBuffer(b.Buffer, 0, newBuf, 0, b.Size)
	old := b.Buffer
	b.Buffer = newBuf
	b.Size = newSize
	defer old.Release()
	return nil
}

// Release frees the underlying GPU buffer.
func (b *TypedBuffer) Release() {
	if b.Buffer != nil {
		b.Buffer.Release()
		b.Buffer = nil
	}
}
