package ibl

import "advanced-ibl/libio"

// Converter projects an equirectangular RGB image onto a cube map
type Converter interface {
	Convert(image *libio.FloatImage, size int) (*IblEnv, error)
	Release()
}

// Convolver integrates level 0 of env into a new cube map with a base size of size
type Convolver interface {
	Convolve(env *IblEnv, size int) (*IblEnv, error)
	Release()
}

// BrdfIntegrator computes the split sum lookup table.
// x is NdotV, y is roughness, red is the F0 scale and green the bias.
type BrdfIntegrator interface {
	Integrate(size int) (*libio.FloatImage, error)
	Release()
}

const (
	DefaultEnvironmentSize = 512
	DefaultIrradianceSize  = 32
	DefaultIrradianceStep  = 0.025
	DefaultPrefilterSize   = 128
	DefaultPrefilterLevels = 5
	DefaultSampleCount     = 1024
	DefaultBrdfSize        = 512
)
