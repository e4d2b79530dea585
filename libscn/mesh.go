package libscn

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	// GL_TRIANGLES or GL_TRIANGLE_STRIP
	Mode uint32
}

type Vertex struct {
	Position mgl32.Vec3
	Uv       mgl32.Vec2
	Normal   mgl32.Vec3
}

const ElementIndexSize = int(unsafe.Sizeof(uint32(0)))
const VertexSize = int(unsafe.Sizeof(Vertex{}))

const (
	SphereSegmentsX = 64
	SphereSegmentsY = 64
)

// NewUVSphere creates a unit sphere as a single triangle strip.
// Rows alternate direction so consecutive rows connect without restart indices.
// Front faces are counter clockwise seen from outside.
// v runs from the +Y pole (0) to the -Y pole (1).
func NewUVSphere(segmentsX, segmentsY int) *Mesh {
	vertices := make([]Vertex, 0, (segmentsX+1)*(segmentsY+1))
	for y := 0; y <= segmentsY; y++ {
		for x := 0; x <= segmentsX; x++ {
			u := float32(x) / float32(segmentsX)
			v := float32(y) / float32(segmentsY)
			sinTheta, cosTheta := math32.Sincos(v * math32.Pi)
			sinPhi, cosPhi := math32.Sincos(u * 2 * math32.Pi)
			pos := mgl32.Vec3{cosPhi * sinTheta, cosTheta, sinPhi * sinTheta}
			vertices = append(vertices, Vertex{
				Position: pos,
				Uv:       mgl32.Vec2{u, v},
				Normal:   pos,
			})
		}
	}

	stride := uint32(segmentsX + 1)
	indices := make([]uint32, 0, segmentsY*int(stride)*2)
	oddRow := false
	for y := uint32(0); y < uint32(segmentsY); y++ {
		if !oddRow {
			for x := uint32(0); x < stride; x++ {
				indices = append(indices, (y+1)*stride+x, y*stride+x)
			}
		} else {
			for x := int(stride) - 1; x >= 0; x-- {
				indices = append(indices, y*stride+uint32(x), (y+1)*stride+uint32(x))
			}
		}
		oddRow = !oddRow
	}

	return &Mesh{
		Name:     "sphere",
		Vertices: vertices,
		Indices:  indices,
		Mode:     gl.TRIANGLE_STRIP,
	}
}
