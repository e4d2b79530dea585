package ibl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"advanced-ibl/libgl"
	"advanced-ibl/libio"
	"advanced-ibl/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
)

type PipelineConfig struct {
	EnvironmentSize int
	IrradianceSize  int
	// angular step of the irradiance integration in radians
	IrradianceStep  float32
	PrefilterSize   int
	PrefilterLevels int
	// samples per texel of the prefilter and the brdf integration
	Samples  int
	BrdfSize int
	// shader overrides, nil selects the embedded shaders
	Shaders fs.FS
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		EnvironmentSize: DefaultEnvironmentSize,
		IrradianceSize:  DefaultIrradianceSize,
		IrradianceStep:  DefaultIrradianceStep,
		PrefilterSize:   DefaultPrefilterSize,
		PrefilterLevels: DefaultPrefilterLevels,
		Samples:         DefaultSampleCount,
		BrdfSize:        DefaultBrdfSize,
	}
}

func (cfg PipelineConfig) Validate() error {
	for _, size := range []int{cfg.EnvironmentSize, cfg.IrradianceSize, cfg.BrdfSize} {
		if err := validateSize(size); err != nil {
			return err
		}
	}
	if err := validateLevels(cfg.PrefilterSize, cfg.PrefilterLevels); err != nil {
		return err
	}
	if cfg.IrradianceStep <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidStep, cfg.IrradianceStep)
	}
	if cfg.Samples <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, cfg.Samples)
	}
	return nil
}

// Environment holds the GPU resources for image based lighting
type Environment struct {
	// the unconvolved environment with a generated mip chain
	Skybox      libgl.UnboundTexture
	Irradiance  libgl.UnboundTexture
	Prefiltered libgl.UnboundTexture
	BrdfLut     libgl.UnboundTexture
}

// PrefilterLevels returns the number of roughness levels in Prefiltered
func (env *Environment) PrefilterLevels() int {
	return env.Prefiltered.Levels()
}

func (env *Environment) Delete() {
	libutil.DeleteAll([]libutil.Deleter{env.Skybox, env.Irradiance, env.Prefiltered, env.BrdfLut})
}

// Pipeline runs the four precompute passes on the GPU
type Pipeline struct {
	cfg        PipelineConfig
	converter  *GlConverter
	irradiance *GlIrradianceConvolver
	specular   *GlSpecularConvolver
	brdf       *GlBrdfIntegrator
}

func NewPipeline(cfg PipelineConfig) (pipeline *Pipeline, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pipeline = &Pipeline{cfg: cfg}
	defer func() {
		if err != nil {
			pipeline.Release()
		}
	}()

	if pipeline.converter, err = NewGlConverter(cfg.Shaders); err != nil {
		return nil, err
	}
	if pipeline.irradiance, err = NewGlIrradianceConvolver(cfg.Shaders, cfg.IrradianceStep); err != nil {
		return nil, err
	}
	if pipeline.specular, err = NewGlSpecularConvolver(cfg.Shaders, cfg.Samples, cfg.PrefilterLevels); err != nil {
		return nil, err
	}
	if pipeline.brdf, err = NewGlBrdfIntegrator(cfg.Shaders, cfg.Samples); err != nil {
		return nil, err
	}
	return pipeline, nil
}

// Run executes projection, irradiance, prefilter and brdf integration in that order.
// Each stage completes before the next one starts and is checked for GL errors.
func (pipeline *Pipeline) Run(hdr *libio.FloatImage) (env *Environment, err error) {
	env = &Environment{}
	defer func() {
		if err != nil {
			env.Delete()
			env = nil
		}
	}()

	stages := []struct {
		name string
		run  func() error
	}{
		{"equirect projection", func() (err error) {
			env.Skybox, err = pipeline.converter.ConvertTexture(hdr, pipeline.cfg.EnvironmentSize)
			return
		}},
		{"irradiance convolution", func() (err error) {
			env.Irradiance, err = pipeline.irradiance.ConvolveTexture(env.Skybox, pipeline.cfg.IrradianceSize)
			return
		}},
		{"specular prefilter", func() (err error) {
			env.Prefiltered, err = pipeline.specular.ConvolveTexture(env.Skybox, pipeline.cfg.PrefilterSize)
			return
		}},
		{"brdf integration", func() (err error) {
			env.BrdfLut, err = pipeline.brdf.IntegrateTexture(pipeline.cfg.BrdfSize)
			return
		}},
	}

	for _, stage := range stages {
		if err := stage.run(); err != nil {
			return nil, fmt.Errorf("%s failed: %w", stage.name, err)
		}
		if err := libgl.CheckError(stage.name); err != nil {
			return nil, err
		}
	}
	return env, nil
}

func (pipeline *Pipeline) Release() {
	if pipeline.converter != nil {
		pipeline.converter.Release()
	}
	if pipeline.irradiance != nil {
		pipeline.irradiance.Release()
	}
	if pipeline.specular != nil {
		pipeline.specular.Release()
	}
	if pipeline.brdf != nil {
		pipeline.brdf.Release()
	}
}

// Precomputed holds the stage results in main memory
type Precomputed struct {
	Skybox      *IblEnv
	Irradiance  *IblEnv
	Prefiltered *IblEnv
	BrdfLut     *libio.FloatImage
}

// Backends selects an implementation per stage
type Backends struct {
	Converter  Converter
	Irradiance Convolver
	Specular   Convolver
	Brdf       BrdfIntegrator
}

func NewSwBackends(cfg PipelineConfig) (*Backends, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	irradiance, err := NewSwIrradianceConvolver(cfg.IrradianceStep)
	if err != nil {
		return nil, err
	}
	specular, err := NewSwSpecularConvolver(cfg.Samples, cfg.PrefilterLevels)
	if err != nil {
		return nil, err
	}
	brdf, err := NewSwBrdfIntegrator(cfg.Samples)
	if err != nil {
		return nil, err
	}
	return &Backends{
		Converter:  NewSwConverter(),
		Irradiance: irradiance,
		Specular:   specular,
		Brdf:       brdf,
	}, nil
}

func (b *Backends) Release() {
	for _, r := range []interface{ Release() }{b.Converter, b.Irradiance, b.Specular, b.Brdf} {
		if r != nil {
			r.Release()
		}
	}
}

// Precompute runs all stages with the given backends, in the same order as Pipeline.Run
func Precompute(hdr *libio.FloatImage, cfg PipelineConfig, backends *Backends) (*Precomputed, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var result Precomputed
	var err error
	if result.Skybox, err = backends.Converter.Convert(hdr, cfg.EnvironmentSize); err != nil {
		return nil, fmt.Errorf("equirect projection failed: %w", err)
	}
	if result.Irradiance, err = backends.Irradiance.Convolve(result.Skybox, cfg.IrradianceSize); err != nil {
		return nil, fmt.Errorf("irradiance convolution failed: %w", err)
	}
	if result.Prefiltered, err = backends.Specular.Convolve(result.Skybox, cfg.PrefilterSize); err != nil {
		return nil, fmt.Errorf("specular prefilter failed: %w", err)
	}
	if result.BrdfLut, err = backends.Brdf.Integrate(cfg.BrdfSize); err != nil {
		return nil, fmt.Errorf("brdf integration failed: %w", err)
	}
	return &result, nil
}

// Upload creates the GPU resources for precomputed results
func (pre *Precomputed) Upload() (*Environment, error) {
	var skybox libgl.UnboundTexture
	if pre.Skybox.Levels == 1 {
		skybox = libgl.CreateTexture(libgl.TextureOptions{
			Target:         gl.TEXTURE_CUBE_MAP,
			InternalFormat: gl.RGB16F,
			Width:          pre.Skybox.BaseSize,
			Height:         pre.Skybox.BaseSize,
			MinFilter:      gl.LINEAR_MIPMAP_LINEAR,
			Format:         gl.RGB,
			Data:           pre.Skybox.Level(0),
			GenerateMipmap: true,
			Label:          "environment",
		})
	} else {
		skybox = UploadIblEnv(pre.Skybox, "environment")
	}

	env := &Environment{
		Skybox:      skybox,
		Irradiance:  UploadIblEnv(pre.Irradiance, "irradiance"),
		Prefiltered: UploadIblEnv(pre.Prefiltered, "prefiltered"),
		BrdfLut: libgl.CreateTexture(libgl.TextureOptions{
			InternalFormat: gl.RG16F,
			Width:          pre.BrdfLut.Width,
			Height:         pre.BrdfLut.Height,
			Levels:         1,
			Format:         gl.RG,
			Data:           pre.BrdfLut.Pix,
			Label:          "brdf lut",
		}),
	}
	if err := libgl.CheckError("upload environment"); err != nil {
		env.Delete()
		return nil, err
	}
	return env, nil
}

// Cache file names inside a cache directory, as written by iblconv
const (
	CacheSkybox      = "skybox.iblenv"
	CacheIrradiance  = "irradiance.iblenv"
	CachePrefiltered = "prefiltered.iblenv"
	CacheBrdfLut     = "brdf.f32"
)

// LoadCache reads all stage results from dir.
// It returns an error wrapping fs.ErrNotExist when any file is missing.
func LoadCache(dir string) (*Precomputed, error) {
	var result Precomputed
	envs := []struct {
		name string
		dst  **IblEnv
	}{
		{CacheSkybox, &result.Skybox},
		{CacheIrradiance, &result.Irradiance},
		{CachePrefiltered, &result.Prefiltered},
	}
	for _, e := range envs {
		env, err := readFile(filepath.Join(dir, e.name), DecodeIblEnv)
		if err != nil {
			return nil, err
		}
		*e.dst = env
	}

	lut, err := readFile(filepath.Join(dir, CacheBrdfLut), libio.DecodeFloatImage)
	if err != nil {
		return nil, err
	}
	if lut.Channels != 2 {
		return nil, fmt.Errorf("brdf lut in %q has %d channels, expected 2", dir, lut.Channels)
	}
	result.BrdfLut = lut
	return &result, nil
}

// StoreCache writes all stage results into dir so LoadCache can read them
func StoreCache(dir string, pre *Precomputed, options ...EncodeOption) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	envs := map[string]*IblEnv{
		CacheSkybox:      pre.Skybox,
		CacheIrradiance:  pre.Irradiance,
		CachePrefiltered: pre.Prefiltered,
	}
	for name, env := range envs {
		err := writeFile(filepath.Join(dir, name), func(f *os.File) error {
			return EncodeIblEnv(f, env, options...)
		})
		if err != nil {
			return err
		}
	}
	return writeFile(filepath.Join(dir, CacheBrdfLut), func(f *os.File) error {
		return libio.EncodeFloatImage(f, pre.BrdfLut, libio.FloatImageCompressionFixedPoint16Lz4)
	})
}

func readFile[T any](name string, decode func(r io.Reader) (T, error)) (result T, err error) {
	f, err := os.Open(name)
	if err != nil {
		return result, err
	}
	defer f.Close()
	result, err = decode(bufio.NewReader(f))
	if err != nil {
		return result, fmt.Errorf("could not read %q: %w", name, err)
	}
	return result, nil
}

func writeFile(name string, encode func(f *os.File) error) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err = encode(f); err != nil {
		return fmt.Errorf("could not write %q: %w", name, err)
	}
	return nil
}

// IsCacheMiss reports whether err means the cache is incomplete rather than broken
func IsCacheMiss(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
