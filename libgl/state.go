package libgl

import (
	"github.com/go-gl/gl/v4.5-core/gl"
)

type GlCapability uint32

const (
	DepthTest              GlCapability = gl.DEPTH_TEST
	Blend                  GlCapability = gl.BLEND
	ScissorTest            GlCapability = gl.SCISSOR_TEST
	CullFace               GlCapability = gl.CULL_FACE
	TextureCubeMapSeamless GlCapability = gl.TEXTURE_CUBE_MAP_SEAMLESS
	FramebufferSrgb        GlCapability = gl.FRAMEBUFFER_SRGB
	DebugOutput            GlCapability = gl.DEBUG_OUTPUT
	DebugOutputSynchronous GlCapability = gl.DEBUG_OUTPUT_SYNCHRONOUS
)

type GlBlendFactor uint32

const (
	BlendZero             GlBlendFactor = gl.ZERO
	BlendOne              GlBlendFactor = gl.ONE
	BlendSrcAlpha         GlBlendFactor = gl.SRC_ALPHA
	BlendOneMinusSrcAlpha GlBlendFactor = gl.ONE_MINUS_SRC_ALPHA
)

type GlBlendEquation uint32

const (
	BlendFuncAdd GlBlendEquation = gl.FUNC_ADD
)

type GlDepthFunc uint32

const (
	DepthFuncNever    GlDepthFunc = gl.NEVER
	DepthFuncLess     GlDepthFunc = gl.LESS
	DepthFuncLEqual   GlDepthFunc = gl.LEQUAL
	DepthFuncGreater  GlDepthFunc = gl.GREATER
	DepthFuncGEqual   GlDepthFunc = gl.GEQUAL
	DepthFuncNotEqual GlDepthFunc = gl.NOTEQUAL
	DepthFuncEqual    GlDepthFunc = gl.EQUAL
	DepthFuncAlways   GlDepthFunc = gl.ALWAYS
)

// GlStateManager mirrors the parts of the context state this module touches
// so redundant driver calls can be skipped.
// It must only be used from the thread owning the context.
type GlStateManager struct {
	Caps                              map[GlCapability]bool
	TextureUnits, SamplerUnits        []uint32
	DrawFramebuffer, ReadFramebuffer  uint32
	Renderbuffer                      uint32
	ArrayBuffer, ElementArrayBuffer   uint32
	ProgramPipeline, VertexArray      uint32
	ActiveTextureUnit                 int
	ViewportRect, ScissorRect         [4]int
	BlendFactorSrc, BlendFactorDst    GlBlendFactor
	BlendEquationMode                 GlBlendEquation
	DepthFuncFn                       GlDepthFunc
	DepthWriteMask                    bool
	CullFaceMask                      uint32
	ClearColorRGBA                    [4]float32
	PolygonModeFront, PolygonModeBack uint32
}

var State *GlStateManager

func NewGlStateManager() *GlStateManager {
	return &GlStateManager{
		Caps:              map[GlCapability]bool{},
		TextureUnits:      make([]uint32, 32),
		SamplerUnits:      make([]uint32, 32),
		DepthFuncFn:       DepthFuncLess,
		DepthWriteMask:    true,
		CullFaceMask:      gl.BACK,
		PolygonModeFront:  gl.FILL,
		PolygonModeBack:   gl.FILL,
		BlendFactorSrc:    BlendOne,
		BlendFactorDst:    BlendZero,
		BlendEquationMode: BlendFuncAdd,
	}
}

func (s *GlStateManager) Enable(cap GlCapability) {
	if s.Caps[cap] {
		return
	}
	gl.Enable(uint32(cap))
	s.Caps[cap] = true
}

func (s *GlStateManager) Disable(cap GlCapability) {
	if v, ok := s.Caps[cap]; ok && !v {
		return
	}
	gl.Disable(uint32(cap))
	s.Caps[cap] = false
}

// SetEnabled enables exactly the given capabilities out of those that have
// been touched through the manager; everything else that is enabled gets disabled.
func (s *GlStateManager) SetEnabled(caps ...GlCapability) {
	want := map[GlCapability]bool{}
	for c, v := range s.Caps {
		if v {
			want[c] = false
		}
	}
	for _, c := range caps {
		want[c] = true
	}
	// debug output is not render state
	delete(want, DebugOutput)
	delete(want, DebugOutputSynchronous)
	delete(want, TextureCubeMapSeamless)
	for c, v := range want {
		if v {
			s.Enable(c)
		} else {
			s.Disable(c)
		}
	}
}

func (s *GlStateManager) IsEnabled(cap GlCapability) bool {
	return s.Caps[cap]
}

func (s *GlStateManager) CullFront() {
	if s.CullFaceMask == gl.FRONT {
		return
	}
	gl.CullFace(gl.FRONT)
	s.CullFaceMask = gl.FRONT
}

func (s *GlStateManager) CullBack() {
	if s.CullFaceMask == gl.BACK {
		return
	}
	gl.CullFace(gl.BACK)
	s.CullFaceMask = gl.BACK
}

func (s *GlStateManager) BlendFunc(sfactor, dfactor GlBlendFactor) {
	if s.BlendFactorSrc == sfactor && s.BlendFactorDst == dfactor {
		return
	}
	gl.BlendFunc(uint32(sfactor), uint32(dfactor))
	s.BlendFactorSrc = sfactor
	s.BlendFactorDst = dfactor
}

func (s *GlStateManager) BlendEquation(mode GlBlendEquation) {
	if s.BlendEquationMode == mode {
		return
	}
	gl.BlendEquation(uint32(mode))
	s.BlendEquationMode = mode
}

func (s *GlStateManager) DepthFunc(fn GlDepthFunc) {
	if s.DepthFuncFn == fn {
		return
	}
	gl.DepthFunc(uint32(fn))
	s.DepthFuncFn = fn
}

func (s *GlStateManager) DepthMask(flag bool) {
	if s.DepthWriteMask == flag {
		return
	}
	gl.DepthMask(flag)
	s.DepthWriteMask = flag
}

func (s *GlStateManager) PolygonMode(face, mode uint32) {
	if face == gl.FRONT_AND_BACK && (s.PolygonModeFront != mode || s.PolygonModeBack != mode) {
		gl.PolygonMode(face, mode)
		s.PolygonModeBack = mode
		s.PolygonModeFront = mode
	} else if face == gl.FRONT && s.PolygonModeFront != mode {
		gl.PolygonMode(face, mode)
		s.PolygonModeFront = mode
	} else if face == gl.BACK && s.PolygonModeBack != mode {
		gl.PolygonMode(face, mode)
		s.PolygonModeBack = mode
	}
}

func (s *GlStateManager) BindTextureUnit(unit int, texture uint32) {
	if s.TextureUnits[unit] == texture {
		return
	}
	if Env.UseIntelTextureBindingFix {
		s.ActiveTexture(unit)
		if texture == 0 {
			s.TextureUnits[unit] = texture
			return
		}
		gl.BindTexture(Env.IntelTextureBindingTargets[texture], texture)
		s.TextureUnits[unit] = texture
		return
	}
	gl.BindTextureUnit(uint32(unit), texture)
	s.TextureUnits[unit] = texture
}

func (s *GlStateManager) BindTexture(target uint32, texture uint32) {
	if s.TextureUnits[s.ActiveTextureUnit] == texture {
		return
	}
	gl.BindTexture(target, texture)
	s.TextureUnits[s.ActiveTextureUnit] = texture
}

func (s *GlStateManager) ActiveTexture(unit int) {
	if s.ActiveTextureUnit == unit {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	s.ActiveTextureUnit = unit
}

func (s *GlStateManager) BindSampler(unit int, sampler uint32) {
	if s.SamplerUnits[unit] == sampler {
		return
	}
	gl.BindSampler(uint32(unit), sampler)
	s.SamplerUnits[unit] = sampler
}

func (s *GlStateManager) BindBuffer(target uint32, buffer uint32) {
	switch target {
	case gl.ARRAY_BUFFER:
		if s.ArrayBuffer == buffer {
			return
		}
		s.ArrayBuffer = buffer
	case gl.ELEMENT_ARRAY_BUFFER:
		if s.ElementArrayBuffer == buffer {
			return
		}
		s.ElementArrayBuffer = buffer
	}
	gl.BindBuffer(target, buffer)
}

func (s *GlStateManager) BindFramebuffer(target, framebuffer uint32) {
	if target == gl.DRAW_FRAMEBUFFER {
		s.BindDrawFramebuffer(framebuffer)
	} else if target == gl.READ_FRAMEBUFFER {
		s.BindReadFramebuffer(framebuffer)
	} else {
		if framebuffer == s.DrawFramebuffer && framebuffer == s.ReadFramebuffer {
			return
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, framebuffer)
		s.DrawFramebuffer = framebuffer
		s.ReadFramebuffer = framebuffer
	}
}

func (s *GlStateManager) BindDrawFramebuffer(framebuffer uint32) {
	if s.DrawFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, framebuffer)
	s.DrawFramebuffer = framebuffer
}

func (s *GlStateManager) BindReadFramebuffer(framebuffer uint32) {
	if s.ReadFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, framebuffer)
	s.ReadFramebuffer = framebuffer
}

func (s *GlStateManager) BindRenderbuffer(renderbuffer uint32) {
	if s.Renderbuffer == renderbuffer {
		return
	}
	gl.BindRenderbuffer(gl.RENDERBUFFER, renderbuffer)
	s.Renderbuffer = renderbuffer
}

func (s *GlStateManager) BindProgramPipeline(pipeline uint32) {
	if s.ProgramPipeline == pipeline {
		return
	}
	gl.BindProgramPipeline(pipeline)
	s.ProgramPipeline = pipeline
}

func (s *GlStateManager) BindVertexArray(array uint32) {
	if s.VertexArray == array {
		return
	}
	gl.BindVertexArray(array)
	s.VertexArray = array
}

func (s *GlStateManager) Viewport(x, y, w, h int) {
	if s.ViewportRect[0] == x && s.ViewportRect[1] == y && s.ViewportRect[2] == w && s.ViewportRect[3] == h {
		return
	}
	gl.Viewport(int32(x), int32(y), int32(w), int32(h))
	s.ViewportRect = [4]int{x, y, w, h}
}

func (s *GlStateManager) Scissor(x, y, w, h int) {
	if s.ScissorRect[0] == x && s.ScissorRect[1] == y && s.ScissorRect[2] == w && s.ScissorRect[3] == h {
		return
	}
	gl.Scissor(int32(x), int32(y), int32(w), int32(h))
	s.ScissorRect = [4]int{x, y, w, h}
}

func (s *GlStateManager) ClearColor(r, g, b, a float32) {
	if s.ClearColorRGBA[0] == r && s.ClearColorRGBA[1] == g && s.ClearColorRGBA[2] == b && s.ClearColorRGBA[3] == a {
		return
	}
	gl.ClearColor(r, g, b, a)
	s.ClearColorRGBA = [4]float32{r, g, b, a}
}

// Forget drops the cached bindings of an object that is about to be deleted.
// Deleting a bound object reverts its binding points to zero, so the cache does the same.
// namespace is one of the object label identifiers, e.g. GL_TEXTURE or GL_FRAMEBUFFER.
func (s *GlStateManager) Forget(namespace, id uint32) {
	switch namespace {
	case gl.TEXTURE:
		for i, v := range s.TextureUnits {
			if v == id {
				s.TextureUnits[i] = 0
			}
		}
	case gl.SAMPLER:
		for i, v := range s.SamplerUnits {
			if v == id {
				s.SamplerUnits[i] = 0
			}
		}
	case gl.FRAMEBUFFER:
		if s.DrawFramebuffer == id {
			s.DrawFramebuffer = 0
		}
		if s.ReadFramebuffer == id {
			s.ReadFramebuffer = 0
		}
	case gl.RENDERBUFFER:
		if s.Renderbuffer == id {
			s.Renderbuffer = 0
		}
	case gl.PROGRAM_PIPELINE:
		if s.ProgramPipeline == id {
			s.ProgramPipeline = 0
		}
	case gl.VERTEX_ARRAY:
		if s.VertexArray == id {
			s.VertexArray = 0
		}
	case gl.BUFFER:
		if s.ArrayBuffer == id {
			s.ArrayBuffer = 0
		}
		if s.ElementArrayBuffer == id {
			s.ElementArrayBuffer = 0
		}
	}
}
