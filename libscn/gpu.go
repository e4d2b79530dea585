package libscn

import (
	"advanced-ibl/libgl"
	"unsafe"

	"github.com/go-gl/gl/v4.5-core/gl"
)

// GpuMesh holds the buffers of an uploaded Mesh.
type GpuMesh struct {
	VertexArray   libgl.UnboundVertexArray
	VertexBuffer  libgl.UnboundBuffer
	ElementBuffer libgl.UnboundBuffer
	Count         int
	Mode          uint32
}

// Upload copies the mesh into immutable buffers.
// Attributes: 0 position, 1 uv, 2 normal.
func Upload(mesh *Mesh) *GpuMesh {
	vbo := libgl.NewBuffer()
	vbo.SetDebugLabel(mesh.Name + " vertices")
	vbo.Allocate(mesh.Vertices, 0)

	ebo := libgl.NewBuffer()
	ebo.SetDebugLabel(mesh.Name + " indices")
	ebo.Allocate(mesh.Indices, 0)

	vao := libgl.NewVertexArray()
	vao.SetDebugLabel(mesh.Name)
	vao.Layout(0, 0, 3, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.Position)))
	vao.Layout(0, 1, 2, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.Uv)))
	vao.Layout(0, 2, 3, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.Normal)))
	vao.BindBuffer(0, vbo, 0, VertexSize)
	vao.BindElementBuffer(ebo)

	return &GpuMesh{
		VertexArray:   vao,
		VertexBuffer:  vbo,
		ElementBuffer: ebo,
		Count:         len(mesh.Indices),
		Mode:          mesh.Mode,
	}
}

func (m *GpuMesh) Draw() {
	m.VertexArray.Bind()
	gl.DrawElements(m.Mode, int32(m.Count), gl.UNSIGNED_INT, nil)
}

func (m *GpuMesh) Delete() {
	m.VertexArray.Delete()
	m.VertexBuffer.Delete()
	m.ElementBuffer.Delete()
}
