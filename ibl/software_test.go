package ibl_test

import (
	"testing"

	"advanced-ibl/ibl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertSwConstant(t *testing.T) {
	conv := ibl.NewSwConverter()
	defer conv.Release()

	env, err := conv.Convert(constantEquirect(64, 32, 0.75), 16)
	require.NoError(t, err)
	assert.Equal(t, 16, env.BaseSize)
	assert.Equal(t, 1, env.Levels)
	for _, v := range env.Data() {
		assert.InDelta(t, 0.75, v, 1e-6)
	}
}

func TestConvertSwRejectsGrayscale(t *testing.T) {
	conv := ibl.NewSwConverter()
	_, err := conv.Convert(constantEquirect(4, 2, 1).ToChannels(1), 4)
	assert.Error(t, err)
}

func TestConvertSwOrientation(t *testing.T) {
	// top half bright, bottom half dark
	img := constantEquirect(64, 32, 0)
	for y := 16; y < 32; y++ {
		for x := 0; x < 64; x++ {
			copy(img.At(x, y), []float32{1, 1, 1})
		}
	}

	env, err := ibl.NewSwConverter().Convert(img, 8)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, env.Texel(0, ibl.CubeMapPositiveY, 4, 4)[0], 1e-6)
	assert.InDelta(t, 0.0, env.Texel(0, ibl.CubeMapNegativeY, 4, 4)[0], 1e-6)
}

func TestIrradianceGridTilesHemisphere(t *testing.T) {
	nTheta, nPhi := ibl.IrradianceGrid(0.025)
	assert.Equal(t, 63, nTheta)
	assert.Equal(t, 252, nPhi)
}

func TestConvolveSwIrradianceConstant(t *testing.T) {
	conv, err := ibl.NewSwIrradianceConvolver(0.05)
	require.NoError(t, err)
	defer conv.Release()

	result, err := conv.Convolve(constantEnv(8, 1, 0.5), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, result.BaseSize)
	for _, v := range result.Data() {
		assert.InEpsilon(t, 0.5, v, 1e-3)
	}
}

func TestConvolveSwIrradianceHemisphere(t *testing.T) {
	// only the +Y face emits
	env := ibl.NewIblEnv(nil, 8, 1)
	for i := range env.Face(0, ibl.CubeMapPositiveY) {
		env.Face(0, ibl.CubeMapPositiveY)[i] = 1
	}

	conv, err := ibl.NewSwIrradianceConvolver(0.1)
	require.NoError(t, err)
	result, err := conv.Convolve(env, 4)
	require.NoError(t, err)

	up := result.Texel(0, ibl.CubeMapPositiveY, 2, 2)[0]
	down := result.Texel(0, ibl.CubeMapNegativeY, 2, 2)[0]
	side := result.Texel(0, ibl.CubeMapPositiveX, 2, 2)[0]
	assert.Greater(t, up, side)
	assert.Greater(t, side, down)
	assert.Equal(t, float32(0), down)
}

func TestNewSwIrradianceConvolverInvalidStep(t *testing.T) {
	_, err := ibl.NewSwIrradianceConvolver(0)
	assert.ErrorIs(t, err, ibl.ErrInvalidStep)
	_, err = ibl.NewSwIrradianceConvolver(-1)
	assert.ErrorIs(t, err, ibl.ErrInvalidStep)
}

func TestConvolveSwSpecularMirror(t *testing.T) {
	env := gradientEnv(16)
	conv, err := ibl.NewSwSpecularConvolver(16, 5)
	require.NoError(t, err)
	defer conv.Release()

	result, err := conv.Convolve(env, 16)
	require.NoError(t, err)
	require.Equal(t, 5, result.Levels)
	assert.InDeltaSlice(t, env.Level(0), result.Level(0), 1e-4)
}

func TestConvolveSwSpecularLevels(t *testing.T) {
	conv, err := ibl.NewSwSpecularConvolver(64, 4)
	require.NoError(t, err)

	result, err := conv.Convolve(constantEnv(16, 1, 2), 8)
	require.NoError(t, err)
	require.Equal(t, 4, result.Levels)
	for l := 0; l < result.Levels; l++ {
		assert.Equal(t, 8>>l, result.Size(l))
		for _, v := range result.Level(l) {
			assert.InEpsilon(t, 2.0, v, 1e-4, "level %d", l)
		}
	}
}

func TestConvolveSwSpecularBlursWithRoughness(t *testing.T) {
	env := gradientEnv(16)
	conv, err := ibl.NewSwSpecularConvolver(128, 4)
	require.NoError(t, err)
	result, err := conv.Convolve(env, 8)
	require.NoError(t, err)

	// the red channel encodes the face, rougher levels mix more faces into a face center
	center := func(l int) float32 {
		s := result.Size(l)
		return result.Texel(l, ibl.CubeMapPositiveX, s/2, s/2)[0]
	}
	own := env.Texel(0, ibl.CubeMapPositiveX, 8, 8)[0]
	assert.InDelta(t, own, center(0), 1e-4)
	assert.Greater(t, abs32(center(3)-own), abs32(center(1)-own))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestConvolveSwSpecularInvalidLevels(t *testing.T) {
	conv, err := ibl.NewSwSpecularConvolver(16, 5)
	require.NoError(t, err)
	_, err = conv.Convolve(constantEnv(8, 1, 1), 8)
	assert.ErrorIs(t, err, ibl.ErrInvalidLevels)

	_, err = ibl.NewSwSpecularConvolver(16, 0)
	assert.ErrorIs(t, err, ibl.ErrInvalidLevels)
	_, err = ibl.NewSwSpecularConvolver(0, 5)
	assert.ErrorIs(t, err, ibl.ErrInvalidCount)
}

func TestIntegrateBrdfSwScaleNonDecreasing(t *testing.T) {
	integrator, err := ibl.NewSwBrdfIntegrator(256)
	require.NoError(t, err)
	defer integrator.Release()

	const size = 8
	lut, err := integrator.Integrate(size)
	require.NoError(t, err)
	require.Equal(t, 2, lut.Channels)

	// rows above roughness 0.5 lose scale at normal incidence through the geometry term
	for y := 0; y < size/2; y++ {
		for x := 1; x < size; x++ {
			assert.GreaterOrEqual(t, lut.At(x, y)[0], lut.At(x-1, y)[0], "row %d column %d", y, x)
		}
	}
}

func TestIntegrateBrdfSmoothNormalIncidence(t *testing.T) {
	seq := ibl.GenerateHammersleySequence(512)
	scale, bias := ibl.IntegrateBrdf(0.999, 0.01, seq)
	assert.InDelta(t, 1.0, scale, 0.01)
	assert.InDelta(t, 0.0, bias, 0.01)
}

func TestIntegrateBrdfInvalidSize(t *testing.T) {
	integrator, err := ibl.NewSwBrdfIntegrator(16)
	require.NoError(t, err)
	_, err = integrator.Integrate(0)
	assert.ErrorIs(t, err, ibl.ErrInvalidSize)

	_, err = ibl.NewSwBrdfIntegrator(0)
	assert.ErrorIs(t, err, ibl.ErrInvalidCount)
}

func TestSampleBilinearClampsToEdge(t *testing.T) {
	pix := []float32{
		0, 0, 0, 1, 1, 1,
		2, 2, 2, 3, 3, 3,
	}
	assert.Equal(t, float32(0), ibl.SampleBilinear(2, 2, 3, pix, 0, 0)[0])
	assert.Equal(t, float32(3), ibl.SampleBilinear(2, 2, 3, pix, 1, 1)[0])
	assert.InDelta(t, 1.5, ibl.SampleBilinear(2, 2, 3, pix, 0.5, 0.5)[0], 1e-6)
	assert.InDelta(t, 0.5, ibl.SampleBilinear(2, 2, 3, pix, 0.5, 0)[0], 1e-6)
}
