package effects

import (
	"embed"
	"fmt"

	"advanced-ibl/libgl"
	"advanced-ibl/libutil"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed shaders/*
var embeddedShaders embed.FS

// Shaders holds the tonemapping program
var Shaders = libutil.MustSub(embeddedShaders, "shaders")

// TonemapEffect owns the HDR render target of the scene and resolves it
// with Reinhard tonemapping and gamma correction.
type TonemapEffect struct {
	Exposure      float32
	Gamma         float32
	ClearColor    mgl32.Vec3
	width, height int
	library       *libgl.ShaderLibrary
	shader        libgl.UnboundShaderPipeline
	color         libgl.UnboundTexture
	depth         libgl.UnboundRenderbuffer
	sampler       libgl.UnboundSampler
	framebuffer   libgl.UnboundFramebuffer
}

// NewTonemapEffect compiles the resolve pass through library, nil loads the embedded shaders
func NewTonemapEffect(library *libgl.ShaderLibrary) (*TonemapEffect, error) {
	if library == nil {
		library = libgl.NewShaderLibrary(Shaders)
	}
	shader, err := library.Pipeline(nil, "quad.vert", "tonemap.frag")
	if err != nil {
		return nil, fmt.Errorf("could not create tonemap shader: %w", err)
	}

	sampler := libgl.NewSampler()
	sampler.SetDebugLabel("hdr color")
	sampler.FilterMode(gl.NEAREST, gl.NEAREST)
	sampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, 0)

	fbo := libgl.NewFramebuffer()
	fbo.SetDebugLabel("hdr")
	fbo.BindTargets(0)

	return &TonemapEffect{
		Exposure:    1.0,
		Gamma:       2.2,
		library:     library,
		shader:      shader,
		sampler:     sampler,
		framebuffer: fbo,
	}, nil
}

func (effect *TonemapEffect) Release() {
	effect.library.Forget(effect.shader)
	effect.shader.Delete()
	effect.framebuffer.Delete()
	effect.sampler.Delete()
	if effect.color != nil {
		effect.color.Delete()
		effect.depth.Delete()
	}
}

// Resize reallocates the HDR target, it does nothing when the size is unchanged
func (effect *TonemapEffect) Resize(width, height int) error {
	if width == effect.width && height == effect.height {
		return nil
	}
	effect.width = width
	effect.height = height

	if effect.color != nil {
		effect.color.Delete()
		effect.depth.Delete()
	}

	effect.color = libgl.CreateTexture(libgl.TextureOptions{
		InternalFormat: gl.RGBA16F,
		Width:          width,
		Height:         height,
		Levels:         1,
		Label:          "hdr color",
	})
	effect.depth = libgl.NewRenderbuffer()
	effect.depth.SetDebugLabel("hdr depth")
	effect.depth.Allocate(gl.DEPTH_COMPONENT24, width, height)

	effect.framebuffer.AttachTexture(0, effect.color)
	effect.framebuffer.AttachRenderbuffer(gl.DEPTH_ATTACHMENT, effect.depth)
	return effect.framebuffer.Check(gl.DRAW_FRAMEBUFFER)
}

// Target returns the HDR color texture
func (effect *TonemapEffect) Target() libgl.UnboundTexture {
	return effect.color
}

// Bind selects and clears the HDR target for scene drawing
func (effect *TonemapEffect) Bind() {
	effect.framebuffer.Bind(gl.DRAW_FRAMEBUFFER)
	libgl.State.Viewport(0, 0, effect.width, effect.height)
	libgl.State.DepthMask(true)
	libgl.State.ClearColor(effect.ClearColor[0], effect.ClearColor[1], effect.ClearColor[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Render resolves the HDR target into dst, nil is the default framebuffer
func (effect *TonemapEffect) Render(dst libgl.UnboundFramebuffer) {
	libgl.PushDebugGroup("tonemap")
	defer libgl.PopDebugGroup()

	if dst == nil {
		libgl.State.BindDrawFramebuffer(0)
	} else {
		dst.Bind(gl.DRAW_FRAMEBUFFER)
	}
	libgl.State.SetEnabled()
	libgl.State.Viewport(0, 0, effect.width, effect.height)

	effect.shader.Bind()
	effect.shader.FragmentStage().SetUniform("u_exposure", effect.Exposure)
	effect.shader.FragmentStage().SetUniform("u_gamma", effect.Gamma)
	effect.color.Bind(0)
	effect.sampler.Bind(0)
	libutil.DrawQuad()
}

// Reinhard maps one linear HDR color like the resolve pass does
func Reinhard(color mgl32.Vec3, exposure, gamma float32) mgl32.Vec3 {
	var result mgl32.Vec3
	for i, c := range color {
		c *= exposure
		result[i] = math32.Pow(c/(c+1.0), 1.0/gamma)
	}
	return result
}
