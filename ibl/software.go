package ibl

import (
	"fmt"
	"runtime"

	"advanced-ibl/libio"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

// forEachFace runs cb for all six faces concurrently.
// Each call must only write to its own face.
func forEachFace(cb func(face CubeMapFace) error) error {
	var g errgroup.Group
	for f := CubeMapPositiveX; f <= CubeMapNegativeZ; f++ {
		g.Go(func() error {
			return cb(f)
		})
	}
	return g.Wait()
}

type swConverter struct{}

func NewSwConverter() Converter {
	return &swConverter{}
}

func (*swConverter) Convert(image *libio.FloatImage, size int) (*IblEnv, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}
	if image.Channels < 3 {
		return nil, fmt.Errorf("equirectangular image needs at least 3 channels, has %d", image.Channels)
	}

	env := NewIblEnv(nil, size, 1)
	err := forEachFace(func(face CubeMapFace) error {
		dst := env.Face(0, face)
		forEachTexel(face, size, func(x, y int, dir mgl32.Vec3, i int) {
			c := sampleEquirect(image, dir)
			copy(dst[i*3:i*3+3], c[:])
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

func (*swConverter) Release() {
}

type swIrradianceConvolver struct {
	samples []sample
}

// NewSwIrradianceConvolver integrates the hemisphere on a grid with the angular step in radians
func NewSwIrradianceConvolver(step float32) (Convolver, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, step)
	}
	return &swIrradianceConvolver{
		samples: generateIrradianceSamples(step),
	}, nil
}

func (conv *swIrradianceConvolver) Convolve(env *IblEnv, size int) (*IblEnv, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}

	result := NewIblEnv(nil, size, 1)
	err := forEachFace(func(face CubeMapFace) error {
		dst := result.Face(0, face)
		forEachTexel(face, size, func(x, y int, n mgl32.Vec3, i int) {
			c := irradiance(env, n, conv.samples)
			copy(dst[i*3:i*3+3], c[:])
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (conv *swIrradianceConvolver) Release() {
}

type swSpecularConvolver struct {
	samples [][]sample
	levels  int
}

// NewSwSpecularConvolver prefilters levels mip levels with roughness level/(levels-1), using count samples per texel
func NewSwSpecularConvolver(count, levels int) (Convolver, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if levels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevels, levels)
	}
	return &swSpecularConvolver{
		samples: generateSpecularSamples(count, levels),
		levels:  levels,
	}, nil
}

func (conv *swSpecularConvolver) Convolve(env *IblEnv, size int) (*IblEnv, error) {
	if err := validateLevels(size, conv.levels); err != nil {
		return nil, err
	}

	result := NewIblEnv(nil, size, conv.levels)
	for lvl := 0; lvl < conv.levels; lvl++ {
		lvlSize := result.Size(lvl)
		samples := conv.samples[lvl]
		err := forEachFace(func(face CubeMapFace) error {
			dst := result.Face(lvl, face)
			forEachTexel(face, lvlSize, func(x, y int, n mgl32.Vec3, i int) {
				c := prefilter(env, n, samples)
				copy(dst[i*3:i*3+3], c[:])
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (conv *swSpecularConvolver) Release() {
}

type swBrdfIntegrator struct {
	seq [][2]float32
}

func NewSwBrdfIntegrator(count int) (BrdfIntegrator, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	return &swBrdfIntegrator{
		seq: generateHammersleySequence(count),
	}, nil
}

func (integrator *swBrdfIntegrator) Integrate(size int) (*libio.FloatImage, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}

	lut := libio.NewFloatImage(nil, 2, size, size)
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for y := 0; y < size; y++ {
		g.Go(func() error {
			roughness := (float32(y) + 0.5) / float32(size)
			for x := 0; x < size; x++ {
				ndotv := (float32(x) + 0.5) / float32(size)
				px := lut.At(x, y)
				px[0], px[1] = integrateBrdf(ndotv, roughness, integrator.seq)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lut, nil
}

func (integrator *swBrdfIntegrator) Release() {
}
