package libutil

import (
	"advanced-ibl/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
)

// CubeVertices are the 36 positions of the unit cube [-1, 1]³, counter clockwise from the outside.
var CubeVertices = []float32{
	// back
	-1, -1, -1, 1, 1, -1, 1, -1, -1,
	1, 1, -1, -1, -1, -1, -1, 1, -1,
	// front
	-1, -1, 1, 1, -1, 1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, -1, 1,
	// left
	-1, 1, 1, -1, 1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, 1, -1, 1, 1,
	// right
	1, 1, 1, 1, -1, -1, 1, 1, -1,
	1, -1, -1, 1, 1, 1, 1, -1, 1,
	// bottom
	-1, -1, -1, 1, -1, -1, 1, -1, 1,
	1, -1, 1, -1, -1, 1, -1, -1, -1,
	// top
	-1, 1, -1, 1, 1, 1, 1, 1, -1,
	1, 1, 1, -1, 1, -1, -1, 1, 1,
}

var (
	sharedCube    libgl.UnboundVertexArray
	sharedCubeVbo libgl.UnboundBuffer
)

// DrawCube draws the unit cube with the position at attribute 0.
// Seen from the inside every face is clockwise, so culling has to be off.
func DrawCube() {
	if sharedCube == nil {
		sharedCubeVbo = libgl.NewBuffer()
		sharedCubeVbo.Allocate(CubeVertices, 0)

		sharedCube = libgl.NewVertexArray()
		sharedCube.SetDebugLabel("cube")
		sharedCube.Layout(0, 0, 3, gl.FLOAT, false, 0)
		sharedCube.BindBuffer(0, sharedCubeVbo, 0, 3*4)
	}

	sharedCube.Bind()
	gl.DrawArrays(gl.TRIANGLES, 0, 36)
}

// ReleaseShared deletes the shared quad and cube. They are recreated on the next draw.
func ReleaseShared() {
	if sharedQuad != nil {
		sharedQuad.Delete()
		sharedQuadVbo.Delete()
		sharedQuad = nil
	}
	if sharedCube != nil {
		sharedCube.Delete()
		sharedCubeVbo.Delete()
		sharedCube = nil
	}
}
