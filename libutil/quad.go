package libutil

import (
	"advanced-ibl/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
)

var (
	sharedQuad    libgl.UnboundVertexArray
	sharedQuadVbo libgl.UnboundBuffer
)

// DrawQuad draws a fullscreen triangle strip with the clip space position at attribute 0.
func DrawQuad() {
	if sharedQuad == nil {
		sharedQuadVbo = libgl.NewBuffer()
		sharedQuadVbo.Allocate([]float32{-1, -1, 1, -1, -1, 1, 1, 1}, 0)

		sharedQuad = libgl.NewVertexArray()
		sharedQuad.SetDebugLabel("quad")
		sharedQuad.Layout(0, 0, 2, gl.FLOAT, false, 0)
		sharedQuad.BindBuffer(0, sharedQuadVbo, 0, 2*4)
	}

	sharedQuad.Bind()
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
}
