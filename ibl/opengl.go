package ibl

import (
	"fmt"
	"io/fs"

	"advanced-ibl/libgl"
	"advanced-ibl/libio"
	"advanced-ibl/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
)

// pixelFormat returns the client pixel format for a channel count
func pixelFormat(channels int) uint32 {
	switch channels {
	case 1:
		return gl.RED
	case 2:
		return gl.RG
	case 3:
		return gl.RGB
	default:
		return gl.RGBA
	}
}

// UploadIblEnv creates an RGB16F cube map holding every level of env
func UploadIblEnv(env *IblEnv, label string) libgl.UnboundTexture {
	minFilter := int32(gl.LINEAR)
	if env.Levels > 1 {
		minFilter = gl.LINEAR_MIPMAP_LINEAR
	}
	tex := libgl.CreateTexture(libgl.TextureOptions{
		Target:         gl.TEXTURE_CUBE_MAP,
		InternalFormat: gl.RGB16F,
		Width:          env.BaseSize,
		Height:         env.BaseSize,
		Levels:         env.Levels,
		MinFilter:      minFilter,
		Format:         gl.RGB,
		Data:           env.Level(0),
		Label:          label,
	})
	for l := 1; l < env.Levels; l++ {
		size := env.Size(l)
		tex.Load(l, size, size, 6, gl.RGB, env.Level(l))
	}
	return tex
}

// DownloadIblEnv reads the first levels mip levels of a cube map
func DownloadIblEnv(tex libgl.UnboundTexture, levels int) *IblEnv {
	size, _ := tex.Size(0)
	env := NewIblEnv(nil, size, levels)
	for l := 0; l < levels; l++ {
		tex.ReadPixels(l, gl.RGB, env.Level(l))
	}
	return env
}

type GlConverter struct {
	pass *CubemapPass
}

// NewGlConverter compiles the projection pass from fsys, nil selects the embedded shaders
func NewGlConverter(fsys fs.FS) (*GlConverter, error) {
	pass, err := NewCubemapPass("equirect projection", fsys, "equirect.frag", nil)
	if err != nil {
		return nil, err
	}
	return &GlConverter{pass: pass}, nil
}

// ConvertTexture projects image onto a new cube map with a full mip chain.
// Only level 0 is rendered, the rest is generated.
func (conv *GlConverter) ConvertTexture(image *libio.FloatImage, size int) (libgl.UnboundTexture, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}

	hdrTexture := libgl.CreateTexture(libgl.TextureOptions{
		InternalFormat: gl.RGB16F,
		Width:          image.Width,
		Height:         image.Height,
		Levels:         1,
		Format:         pixelFormat(image.Channels),
		Data:           image.Pix,
		Label:          "equirectangular",
	})
	defer hdrTexture.Delete()

	cubemap := libgl.CreateTexture(libgl.TextureOptions{
		Target:         gl.TEXTURE_CUBE_MAP,
		InternalFormat: gl.RGB16F,
		Width:          size,
		Height:         size,
		MinFilter:      gl.LINEAR_MIPMAP_LINEAR,
		Label:          "environment",
	})

	err := conv.pass.Render(cubemap, 0, func(frag libgl.ShaderProgram) {
		hdrTexture.Bind(0)
		libgl.State.BindSampler(0, 0)
	})
	if err != nil {
		cubemap.Delete()
		return nil, err
	}
	cubemap.GenerateMipmap()
	return cubemap, nil
}

// Convert projects on the GPU and reads level 0 back
func (conv *GlConverter) Convert(image *libio.FloatImage, size int) (*IblEnv, error) {
	cubemap, err := conv.ConvertTexture(image, size)
	if err != nil {
		return nil, err
	}
	defer cubemap.Delete()

	env := DownloadIblEnv(cubemap, 1)
	return env, libgl.CheckError("equirect projection")
}

func (conv *GlConverter) Release() {
	conv.pass.Delete()
}

type GlIrradianceConvolver struct {
	pass *CubemapPass
	step float32
}

func NewGlIrradianceConvolver(fsys fs.FS, step float32) (*GlIrradianceConvolver, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, step)
	}
	pass, err := NewCubemapPass("irradiance convolution", fsys, "irradiance.frag", nil)
	if err != nil {
		return nil, err
	}
	return &GlIrradianceConvolver{pass: pass, step: step}, nil
}

// ConvolveTexture integrates level 0 of the environment cube map src
func (conv *GlIrradianceConvolver) ConvolveTexture(src libgl.UnboundTexture, size int) (libgl.UnboundTexture, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}

	irradiance := libgl.CreateTexture(libgl.TextureOptions{
		Target:         gl.TEXTURE_CUBE_MAP,
		InternalFormat: gl.RGB16F,
		Width:          size,
		Height:         size,
		Levels:         1,
		Label:          "irradiance",
	})

	err := conv.pass.Render(irradiance, 0, func(frag libgl.ShaderProgram) {
		src.Bind(0)
		libgl.State.BindSampler(0, 0)
		frag.SetUniform("u_step", conv.step)
	})
	if err != nil {
		irradiance.Delete()
		return nil, err
	}
	return irradiance, nil
}

func (conv *GlIrradianceConvolver) Convolve(env *IblEnv, size int) (*IblEnv, error) {
	src := UploadIblEnv(env.Truncate(1), "irradiance source")
	defer src.Delete()

	irradiance, err := conv.ConvolveTexture(src, size)
	if err != nil {
		return nil, err
	}
	defer irradiance.Delete()

	result := DownloadIblEnv(irradiance, 1)
	return result, libgl.CheckError("irradiance convolution")
}

func (conv *GlIrradianceConvolver) Release() {
	conv.pass.Delete()
}

type GlSpecularConvolver struct {
	pass    *CubemapPass
	samples int
	levels  int
}

func NewGlSpecularConvolver(fsys fs.FS, samples, levels int) (*GlSpecularConvolver, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, samples)
	}
	if levels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevels, levels)
	}
	pass, err := NewCubemapPass("specular prefilter", fsys, "prefilter.frag", nil)
	if err != nil {
		return nil, err
	}
	return &GlSpecularConvolver{pass: pass, samples: samples, levels: levels}, nil
}

// Pass exposes the underlying cube map pass
func (conv *GlSpecularConvolver) Pass() *CubemapPass {
	return conv.pass
}

// ConvolveTexture renders every mip level of a new cube map with roughness level/(levels-1).
// The depth buffer and viewport are resized for each level.
func (conv *GlSpecularConvolver) ConvolveTexture(src libgl.UnboundTexture, size int) (libgl.UnboundTexture, error) {
	if err := validateLevels(size, conv.levels); err != nil {
		return nil, err
	}

	prefiltered := libgl.CreateTexture(libgl.TextureOptions{
		Target:         gl.TEXTURE_CUBE_MAP,
		InternalFormat: gl.RGB16F,
		Width:          size,
		Height:         size,
		Levels:         conv.levels,
		MinFilter:      gl.LINEAR_MIPMAP_LINEAR,
		Label:          "prefiltered",
	})

	for lvl := 0; lvl < conv.levels; lvl++ {
		var roughness float32
		if conv.levels > 1 {
			roughness = float32(lvl) / float32(conv.levels-1)
		}
		err := conv.pass.Render(prefiltered, lvl, func(frag libgl.ShaderProgram) {
			src.Bind(0)
			libgl.State.BindSampler(0, 0)
			frag.SetUniform("u_roughness", roughness)
			frag.SetUniform("u_samples", conv.samples)
		})
		if err != nil {
			prefiltered.Delete()
			return nil, err
		}
	}
	return prefiltered, nil
}

func (conv *GlSpecularConvolver) Convolve(env *IblEnv, size int) (*IblEnv, error) {
	src := UploadIblEnv(env.Truncate(1), "prefilter source")
	defer src.Delete()

	prefiltered, err := conv.ConvolveTexture(src, size)
	if err != nil {
		return nil, err
	}
	defer prefiltered.Delete()

	result := DownloadIblEnv(prefiltered, conv.levels)
	return result, libgl.CheckError("specular prefilter")
}

func (conv *GlSpecularConvolver) Release() {
	conv.pass.Delete()
}

type GlBrdfIntegrator struct {
	shader  libgl.UnboundShaderPipeline
	fbo     libgl.UnboundFramebuffer
	samples int
}

func NewGlBrdfIntegrator(fsys fs.FS, samples int) (integrator *GlBrdfIntegrator, err error) {
	if samples <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, samples)
	}
	if fsys == nil {
		fsys = Shaders
	}

	cleanup := []libutil.Deleter{}
	defer func() {
		if err != nil {
			libutil.DeleteAll(cleanup)
		}
	}()

	shader, err := libgl.LoadPipeline(fsys, nil, "brdf.vert", "brdf.frag")
	if err != nil {
		return nil, fmt.Errorf("could not create brdf integration pass: %w", err)
	}
	cleanup = append(cleanup, shader)

	fbo := libgl.NewFramebuffer()
	fbo.SetDebugLabel("brdf integration")
	fbo.BindTargets(0)
	cleanup = append(cleanup, fbo)

	return &GlBrdfIntegrator{
		shader:  shader,
		fbo:     fbo,
		samples: samples,
	}, nil
}

// IntegrateTexture renders the lookup table into a new RG16F texture
func (integrator *GlBrdfIntegrator) IntegrateTexture(size int) (libgl.UnboundTexture, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}

	libgl.PushDebugGroup("brdf integration")
	defer libgl.PopDebugGroup()

	lut := libgl.CreateTexture(libgl.TextureOptions{
		InternalFormat: gl.RG16F,
		Width:          size,
		Height:         size,
		Levels:         1,
		Label:          "brdf lut",
	})

	integrator.fbo.AttachTexture(0, lut)
	if err := integrator.fbo.Check(gl.DRAW_FRAMEBUFFER); err != nil {
		lut.Delete()
		return nil, fmt.Errorf("brdf integration: %w", err)
	}

	libgl.State.Viewport(0, 0, size, size)
	libgl.State.Disable(libgl.DepthTest)
	libgl.State.Disable(libgl.Blend)
	libgl.State.Disable(libgl.ScissorTest)
	integrator.fbo.Bind(gl.DRAW_FRAMEBUFFER)
	integrator.shader.Bind()
	integrator.shader.FragmentStage().SetUniform("u_samples", integrator.samples)
	libutil.DrawQuad()
	libgl.State.Enable(libgl.DepthTest)

	return lut, nil
}

func (integrator *GlBrdfIntegrator) Integrate(size int) (*libio.FloatImage, error) {
	lut, err := integrator.IntegrateTexture(size)
	if err != nil {
		return nil, err
	}
	defer lut.Delete()

	img := libio.NewFloatImage(nil, 2, size, size)
	lut.ReadPixels(0, gl.RG, img.Pix)
	return img, libgl.CheckError("brdf integration")
}

func (integrator *GlBrdfIntegrator) Release() {
	integrator.fbo.Delete()
	integrator.shader.Delete()
}
