package ibl

import (
	"embed"
	"fmt"
	"io/fs"

	"advanced-ibl/libgl"
	"advanced-ibl/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
)

//go:embed shaders/*
var embeddedShaders embed.FS

// Shaders holds the programs of the precompute passes
var Shaders = libutil.MustSub(embeddedShaders, "shaders")

// CubemapPass renders a fragment program into all six faces of a cube map level.
// The capture vertex program places the unit cube so each face sees its 90° frustum.
type CubemapPass struct {
	Name   string
	shader libgl.UnboundShaderPipeline
	vert   libgl.ShaderProgram
	frag   libgl.ShaderProgram
	fbo    libgl.UnboundFramebuffer
	depth  libgl.UnboundRenderbuffer
}

// NewCubemapPass compiles capture.vert with the fragment program of the given name from fsys.
// A nil fsys uses the embedded shaders.
func NewCubemapPass(name string, fsys fs.FS, fragment string, defs map[string]string) (pass *CubemapPass, err error) {
	if fsys == nil {
		fsys = Shaders
	}

	cleanup := []libutil.Deleter{}
	defer func() {
		if err != nil {
			libutil.DeleteAll(cleanup)
		}
	}()

	vert, err := libgl.LoadShader(fsys, "capture.vert", nil)
	if err != nil {
		return nil, fmt.Errorf("could not create %s pass: %w", name, err)
	}
	cleanup = append(cleanup, vert)

	frag, err := libgl.LoadShader(fsys, fragment, defs)
	if err != nil {
		return nil, fmt.Errorf("could not create %s pass: %w", name, err)
	}
	cleanup = append(cleanup, frag)

	shader := libgl.NewPipeline()
	shader.Attach(vert, gl.VERTEX_SHADER_BIT)
	shader.Attach(frag, gl.FRAGMENT_SHADER_BIT)
	shader.SetDebugLabel(name)
	cleanup = append(cleanup, shader)

	depth := libgl.NewRenderbuffer()
	depth.SetDebugLabel(name + " depth")
	cleanup = append(cleanup, depth)

	fbo := libgl.NewFramebuffer()
	fbo.SetDebugLabel(name)
	fbo.BindTargets(0)
	cleanup = append(cleanup, fbo)

	return &CubemapPass{
		Name:   name,
		shader: shader,
		vert:   vert,
		frag:   frag,
		fbo:    fbo,
		depth:  depth,
	}, nil
}

func (pass *CubemapPass) Fragment() libgl.ShaderProgram {
	return pass.frag
}

// DepthSize returns the current size of the depth renderbuffer
func (pass *CubemapPass) DepthSize() (width, height int) {
	return pass.depth.Size()
}

// Render draws all faces of target at level.
// setup is called after the depth buffer and viewport match the level and before the first face is drawn.
func (pass *CubemapPass) Render(target libgl.UnboundTexture, level int, setup func(frag libgl.ShaderProgram)) error {
	size, _ := target.Size(level)

	libgl.PushDebugGroup(fmt.Sprintf("%s level %d", pass.Name, level))
	defer libgl.PopDebugGroup()

	pass.depth.Allocate(gl.DEPTH_COMPONENT24, size, size)
	pass.fbo.AttachRenderbuffer(gl.DEPTH_ATTACHMENT, pass.depth)
	libgl.State.Viewport(0, 0, size, size)

	cullFace := libgl.State.IsEnabled(libgl.CullFace)
	depthFunc := libgl.State.DepthFuncFn
	libgl.State.Disable(libgl.CullFace)
	libgl.State.Disable(libgl.Blend)
	libgl.State.Disable(libgl.ScissorTest)
	libgl.State.Enable(libgl.DepthTest)
	libgl.State.DepthFunc(libgl.DepthFuncLess)
	libgl.State.DepthMask(true)
	defer func() {
		libgl.State.DepthFunc(depthFunc)
		if cullFace {
			libgl.State.Enable(libgl.CullFace)
		}
	}()

	pass.fbo.Bind(gl.DRAW_FRAMEBUFFER)
	pass.shader.Bind()
	pass.vert.SetUniform("u_projection_mat", CaptureProjection)
	if setup != nil {
		setup(pass.frag)
	}

	for face := CubeMapPositiveX; face <= CubeMapNegativeZ; face++ {
		pass.fbo.AttachTextureLayerLevel(0, target, int(face), level)
		if err := pass.fbo.Check(gl.DRAW_FRAMEBUFFER); err != nil {
			return fmt.Errorf("%s pass, face %v level %d: %w", pass.Name, face, level, err)
		}
		pass.vert.SetUniform("u_view_mat", CaptureViews[face])
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		libutil.DrawCube()
	}
	return nil
}

func (pass *CubemapPass) Delete() {
	pass.fbo.Delete()
	pass.depth.Delete()
	pass.shader.Delete()
}
