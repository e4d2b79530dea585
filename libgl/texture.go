package libgl

import (
	"fmt"
	"log"
	"math/bits"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

type texture struct {
	glId          uint32
	target        uint32
	levels        int
	width, height int
	depth         int
}

type UnboundTexture interface {
	LabeledGlObject
	Id() uint32
	Type() uint32
	Levels() int
	// Size returns the dimensions of the given mip level
	Size(level int) (width, height int)
	Bind(unit int) BoundTexture
	Allocate(levels int, internalFormat uint32, width, height, depth int)
	Load(level int, width, height, depth int, format uint32, data any)
	FilterMode(min, mag int32)
	WrapMode(s, t, r int32)
	MipmapLevels(base, max int)
	GenerateMipmap()
	ReadPixels(level int, format uint32, data any)
	ReadLayer(level, layer int, format uint32, data any)
	Delete()
}

type BoundTexture interface {
	UnboundTexture
}

func NewTexture(target uint32) UnboundTexture {
	var id uint32
	gl.CreateTextures(target, 1, &id)
	if Env.UseIntelTextureBindingFix {
		Env.IntelTextureBindingTargets[id] = target
	}
	return &texture{
		glId:   id,
		target: target,
	}
}

// TextureOptions describes a texture for CreateTexture.
// Zero values pick the defaults noted on each field.
type TextureOptions struct {
	// GL_TEXTURE_2D if zero
	Target         uint32
	InternalFormat uint32
	Width, Height  int
	// a full mip chain if zero
	Levels int
	// GL_LINEAR if zero
	MinFilter, MagFilter int32
	// GL_CLAMP_TO_EDGE if zero
	Wrap int32
	// Format and Data describe the optional initial contents of level 0.
	// Cube maps expect all six faces in order.
	Format         uint32
	Data           any
	GenerateMipmap bool
	Label          string
}

// CreateTexture allocates and configures a texture in one step.
func CreateTexture(opts TextureOptions) UnboundTexture {
	if opts.Target == 0 {
		opts.Target = gl.TEXTURE_2D
	}
	if opts.MinFilter == 0 {
		opts.MinFilter = gl.LINEAR
	}
	if opts.MagFilter == 0 {
		opts.MagFilter = gl.LINEAR
	}
	if opts.Wrap == 0 {
		opts.Wrap = gl.CLAMP_TO_EDGE
	}

	tex := NewTexture(opts.Target)
	if opts.Label != "" {
		tex.SetDebugLabel(opts.Label)
	}
	depth := 0
	if opts.Target == gl.TEXTURE_CUBE_MAP {
		depth = 6
	}
	tex.Allocate(opts.Levels, opts.InternalFormat, opts.Width, opts.Height, depth)
	tex.FilterMode(opts.MinFilter, opts.MagFilter)
	if opts.Target == gl.TEXTURE_CUBE_MAP {
		tex.WrapMode(opts.Wrap, opts.Wrap, opts.Wrap)
	} else {
		tex.WrapMode(opts.Wrap, opts.Wrap, 0)
	}
	if opts.Data != nil {
		tex.Load(0, opts.Width, opts.Height, depth, opts.Format, opts.Data)
	}
	if opts.GenerateMipmap {
		tex.GenerateMipmap()
	}
	return tex
}

// returns the number of dimensions used for uploading pixels
func (tex *texture) dimensions() int {
	switch tex.target {
	case gl.TEXTURE_1D, gl.TEXTURE_BUFFER:
		return 1
	case gl.TEXTURE_3D, gl.TEXTURE_2D_ARRAY, gl.TEXTURE_2D_MULTISAMPLE_ARRAY, gl.TEXTURE_CUBE_MAP, gl.TEXTURE_CUBE_MAP_ARRAY:
		return 3
	case gl.TEXTURE_2D, gl.TEXTURE_2D_MULTISAMPLE, gl.TEXTURE_1D_ARRAY, gl.TEXTURE_RECTANGLE:
		return 2
	default:
		gl.DebugMessageInsert(gl.DEBUG_SOURCE_APPLICATION, gl.DEBUG_TYPE_ERROR, 1, gl.DEBUG_SEVERITY_MEDIUM, -1, gl.Str(fmt.Sprintf("invalid texture target for texture %d: %04x\x00", tex.glId, tex.target)))
		return 0
	}
}

func (tex *texture) Id() uint32 {
	return tex.glId
}

func (tex *texture) Type() uint32 {
	return tex.target
}

func (tex *texture) Levels() int {
	return tex.levels
}

func (tex *texture) Size(level int) (width, height int) {
	width, height = tex.width>>level, tex.height>>level
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return
}

func (tex *texture) SetDebugLabel(label string) {
	setObjectLabel(gl.TEXTURE, tex.glId, label)
}

func (tex *texture) Bind(unit int) BoundTexture {
	State.BindTextureUnit(unit, tex.glId)
	return BoundTexture(tex)
}

func (tex *texture) Delete() {
	State.Forget(gl.TEXTURE, tex.glId)
	delete(Env.IntelTextureBindingTargets, tex.glId)
	gl.DeleteTextures(1, &tex.glId)
	tex.glId = 0
}

func (tex *texture) Allocate(levels int, internalFormat uint32, width, height, depth int) {
	if levels == 0 {
		max := width
		if height > max {
			max = height
		}
		if tex.target == gl.TEXTURE_3D && depth > max {
			max = depth
		}
		levels = bits.Len(uint(max))
		if levels == 0 {
			levels = 1
		}
	}
	tex.levels = levels
	tex.width = width
	tex.height = height
	tex.depth = depth
	switch tex.target {
	case gl.TEXTURE_1D:
		gl.TextureStorage1D(tex.glId, int32(levels), internalFormat, int32(width))
	// cube maps use two dimensional storage, six faces are implied
	case gl.TEXTURE_2D, gl.TEXTURE_1D_ARRAY, gl.TEXTURE_RECTANGLE, gl.TEXTURE_CUBE_MAP:
		gl.TextureStorage2D(tex.glId, int32(levels), internalFormat, int32(width), int32(height))
	default:
		gl.TextureStorage3D(tex.glId, int32(levels), internalFormat, int32(width), int32(height), int32(depth))
	}
}

func (tex *texture) Load(level int, width, height, depth int, format uint32, data any) {
	dataType, _ := getGlType(data)
	switch tex.dimensions() {
	case 1:
		gl.TextureSubImage1D(tex.glId, int32(level), 0, int32(width), format, dataType, Pointer(data))
	case 2:
		gl.TextureSubImage2D(tex.glId, int32(level), 0, 0, int32(width), int32(height), format, dataType, Pointer(data))
	case 3:
		gl.TextureSubImage3D(tex.glId, int32(level), 0, 0, 0, int32(width), int32(height), int32(depth), format, dataType, Pointer(data))
	}
}

func (tex *texture) FilterMode(min, mag int32) {
	if min != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_MIN_FILTER, min)
	}
	if mag != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_MAG_FILTER, mag)
	}
}

func (tex *texture) WrapMode(s, t, r int32) {
	if s != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_WRAP_S, s)
	}
	if t != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_WRAP_T, t)
	}
	if r != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_WRAP_R, r)
	}
}

func (tex *texture) GenerateMipmap() {
	gl.GenerateTextureMipmap(tex.glId)
}

func (tex *texture) MipmapLevels(base, max int) {
	gl.TextureParameteri(tex.glId, gl.TEXTURE_BASE_LEVEL, int32(base))
	gl.TextureParameteri(tex.glId, gl.TEXTURE_MAX_LEVEL, int32(max))
}

// ReadPixels reads back a whole mip level, all layers included.
func (tex *texture) ReadPixels(level int, format uint32, data any) {
	if tex.target == gl.TEXTURE_CUBE_MAP && Env.UseIntelCubemapDsaFix {
		w, h := tex.Size(level)
		size := w * h * formatComponents(format)
		for face := 0; face < 6; face++ {
			tex.readFaceCompat(level, face, format, data, face*size)
		}
		return
	}
	dataType, _ := getGlType(data)
	gl.GetTextureImage(tex.glId, int32(level), format, dataType, int32(byteSize(data)), Pointer(data))
}

// ReadLayer reads back a single layer (or cube map face) of a mip level.
func (tex *texture) ReadLayer(level, layer int, format uint32, data any) {
	if tex.target == gl.TEXTURE_CUBE_MAP && Env.UseIntelCubemapDsaFix {
		tex.readFaceCompat(level, layer, format, data, 0)
		return
	}
	dataType, _ := getGlType(data)
	w, h := tex.Size(level)
	gl.GetTextureSubImage(tex.glId, int32(level), 0, 0, int32(layer), int32(w), int32(h), 1, format, dataType, int32(byteSize(data)), Pointer(data))
}

// https://community.intel.com/t5/Graphics/glNamedFramebufferTextureLayer-rejects-cubemaps-of-any-kind/td-p/1167643
func (tex *texture) readFaceCompat(level, face int, format uint32, data any, offset int) {
	dataType, _ := getGlType(data)
	State.ActiveTexture(0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, tex.glId)
	State.TextureUnits[0] = tex.glId
	gl.GetTexImage(uint32(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face), int32(level), format, dataType, PointerOffset(data, offset))
}

func formatComponents(format uint32) int {
	switch format {
	case gl.RED, gl.GREEN, gl.BLUE, gl.DEPTH_COMPONENT:
		return 1
	case gl.RG:
		return 2
	case gl.RGB, gl.BGR:
		return 3
	default:
		return 4
	}
}

func getGlType(data any) (glType uint32, float bool) {
	switch data.(type) {
	case byte, []byte, *byte:
		return gl.UNSIGNED_BYTE, false
	case int8, []int8, *int8:
		return gl.BYTE, false
	case int16, []int16, *int16:
		return gl.SHORT, false
	case uint16, []uint16, *uint16:
		return gl.UNSIGNED_SHORT, false
	case int32, []int32, *int32:
		return gl.INT, false
	case uint32, []uint32, *uint32:
		return gl.UNSIGNED_INT, false
	case float32, []float32, *float32, mgl32.Vec2, []mgl32.Vec2, mgl32.Vec3, []mgl32.Vec3, mgl32.Vec4, []mgl32.Vec4:
		return gl.FLOAT, true
	case float64, []float64, *float64:
		return gl.DOUBLE, true
	}
	log.Panicf("invalid type: %T", data)
	return 0, false
}

type sampler struct {
	glId uint32
}

type UnboundSampler interface {
	LabeledGlObject
	Id() uint32
	Bind(unit int) BoundSampler
	FilterMode(min, mag int32)
	WrapMode(s, t, r int32)
	AnisotropicFilter(quality float32)
	LodBias(bias float32)
	Delete()
}

type BoundSampler interface {
	UnboundSampler
}

func NewSampler() UnboundSampler {
	var id uint32
	gl.CreateSamplers(1, &id)
	return &sampler{
		glId: id,
	}
}

func (s *sampler) Id() uint32 {
	return s.glId
}

func (s *sampler) SetDebugLabel(label string) {
	setObjectLabel(gl.SAMPLER, s.glId, label)
}

func (s *sampler) Bind(unit int) BoundSampler {
	State.BindSampler(unit, s.glId)
	return BoundSampler(s)
}

func (s *sampler) FilterMode(min, mag int32) {
	if min != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MIN_FILTER, min)
	}
	if mag != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MAG_FILTER, mag)
	}
}

func (sampler *sampler) WrapMode(s, t, r int32) {
	if s != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_S, s)
	}
	if t != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_T, t)
	}
	if r != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_R, r)
	}
}

// AnisotropicFilter is clamped to the maximum the device supports
func (sampler *sampler) AnisotropicFilter(quality float32) {
	if max := Env.Features.MaxTextureMaxAnisotropy; quality > max {
		quality = max
	}
	if quality < 1 {
		quality = 1
	}
	gl.SamplerParameterf(sampler.glId, gl.TEXTURE_MAX_ANISOTROPY, quality)
}

func (sampler *sampler) LodBias(bias float32) {
	gl.SamplerParameterf(sampler.glId, gl.TEXTURE_LOD_BIAS, bias)
}

func (sampler *sampler) Delete() {
	State.Forget(gl.SAMPLER, sampler.glId)
	gl.DeleteSamplers(1, &sampler.glId)
	sampler.glId = 0
}
