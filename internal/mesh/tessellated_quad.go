// Package mesh builds the five static tessellated quad meshes the render
// stage draws, one per target patch size. original_source/mesh.rs shows
// the plain (non-tessellated) quad's vertex/index buffer construction but
// not new_tesselated_quad's body, so the tessellation grid generator below
// is original work grounded on that file's buffer-creation shape and on
// this codebase's u16-index convention.
package mesh

import (
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/parasurf/internal/config"
)

// Vertex is the per-vertex attribute the subdivision/raster pipelines
// consume: the (u,v) offset within a patch's parameter rectangle.
type Vertex struct {
	U, V float32
}

// TessellatedQuad is one size-S mesh: a (splits+2) square grid of vertices
// over [0,1]^2 with a standard two-triangles-per-cell index grid.
type TessellatedQuad struct {
	Size         uint32
	VertexBuffer *wgpu.Buffer
	IndexBuffer  *wgpu.Buffer
	IndexCount   uint32
}

// Set holds all five meshes in config.PatchSizes order.
type Set struct {
	Quads [5]*TessellatedQuad
}

// New builds the five meshes for the given device, once.
func New(device *wgpu.Device) (*Set, error) {
	s := &Set{}
	for i, size := range config.PatchSizes {
		q, err := build(device, size)
		if err != nil {
			return nil, err
		}
		s.Quads[i] = q
	}
	return s, nil
}

// build constructs the grid for target size S: splits = S/2 - 1 interior
// subdivisions per axis, giving a (splits+2) x (splits+2) vertex grid and
// (splits+1)^2 quads (2 triangles each).
func build(device *wgpu.Device, size uint32) (*TessellatedQuad, error) {
	splits := int(size)/2 - 1
	if splits < 0 {
		splits = 0
	}
	side := splits + 2 // vertices per edge

	vertices := make([]Vertex, 0, side*side)
	for row := 0; row < side; row++ {
		v := float32(row) / float32(side-1)
		for col := 0; col < side; col++ {
			u := float32(col) / float32(side-1)
			vertices = append(vertices, Vertex{U: u, V: v})
		}
	}

	indices := make([]uint16, 0, (side-1)*(side-1)*6)
	idx := func(row, col int) uint16 { return uint16(row*side + col) }
	for row := 0; row < side-1; row++ {
		for col := 0; col < side-1; col++ {
			a := idx(row, col)
			b := idx(row, col+1)
			c := idx(row+1, col+1)
			d := idx(row+1, col)
			indices = append(indices, a, b, c, c, d, a)
		}
	}

	vertexBytes := vertexBytesOf(vertices)
	vertexBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "TessellatedQuadVertices",
		Size:             uint64(len(vertexBytes)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	device.GetQueue().WriteBuffer(vertexBuf, 0, vertexBytes)

	indexBytes := indexBytesOf(indices)
	indexBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "TessellatedQuadIndices",
		Size:             uint64(len(indexBytes)),
		Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	device.GetQueue().WriteBuffer(indexBuf, 0, indexBytes)

	return &TessellatedQuad{
		Size:         size,
		VertexBuffer: vertexBuf,
		IndexBuffer:  indexBuf,
		IndexCount:   uint32(len(indices)),
	}, nil
}

func vertexBytesOf(vs []Vertex) []byte {
	out := make([]byte, 0, len(vs)*8)
	for _, v := range vs {
		out = append(out, f32bytes(v.U)...)
		out = append(out, f32bytes(v.V)...)
	}
	return out
}

func indexBytesOf(is []uint16) []byte {
	out := make([]byte, len(is)*2)
	for i, v := range is {
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

func f32bytes(f float32) []byte {
	bits := math.Float32bits(f)
	return []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
}
