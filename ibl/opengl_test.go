package ibl_test

import (
	"testing"

	"advanced-ibl/ibl"
	"advanced-ibl/libgl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertGlConstant(t *testing.T) {
	var env *ibl.IblEnv
	var err error
	runOnMain(t, func() {
		var conv *ibl.GlConverter
		conv, err = ibl.NewGlConverter(nil)
		if err != nil {
			return
		}
		defer conv.Release()
		env, err = conv.Convert(constantEquirect(64, 32, 0.75), 16)
	})
	require.NoError(t, err)
	for _, v := range env.Data() {
		assert.InDelta(t, 0.75, v, 1e-3)
	}
}

func TestConvolveGlIrradianceConstant(t *testing.T) {
	var result *ibl.IblEnv
	var err error
	runOnMain(t, func() {
		var conv *ibl.GlIrradianceConvolver
		conv, err = ibl.NewGlIrradianceConvolver(nil, 0.05)
		if err != nil {
			return
		}
		defer conv.Release()
		result, err = conv.Convolve(constantEnv(8, 1, 0.5), 4)
	})
	require.NoError(t, err)
	for _, v := range result.Data() {
		// RGB16F keeps 11 bits of mantissa
		assert.InEpsilon(t, 0.5, v, 2e-3)
	}
}

func TestConvolveGlSpecularMirror(t *testing.T) {
	env := gradientEnv(16)
	var result *ibl.IblEnv
	var err error
	runOnMain(t, func() {
		var conv *ibl.GlSpecularConvolver
		conv, err = ibl.NewGlSpecularConvolver(nil, 16, 5)
		if err != nil {
			return
		}
		defer conv.Release()
		result, err = conv.Convolve(env, 16)
	})
	require.NoError(t, err)
	assert.InDeltaSlice(t, env.Level(0), result.Level(0), 2e-3)
}

// An unrelated viewport must not leak into any mip of the prefiltered map
func TestConvolveGlSpecularMipIndependence(t *testing.T) {
	const base, levels = 32, 5
	var viewports, depthSizes [][2]int
	var texSizes [][2]int
	var err error

	runOnMain(t, func() {
		var conv *ibl.GlSpecularConvolver
		conv, err = ibl.NewGlSpecularConvolver(nil, 8, levels)
		if err != nil {
			return
		}
		defer conv.Release()

		src := ibl.UploadIblEnv(constantEnv(16, 1, 1), "source")
		defer src.Delete()

		libgl.State.Viewport(0, 0, 640, 480)
		var tex libgl.UnboundTexture
		tex, err = conv.ConvolveTexture(src, base)
		if err != nil {
			return
		}
		defer tex.Delete()

		for lvl := 0; lvl < levels; lvl++ {
			w, h := tex.Size(lvl)
			texSizes = append(texSizes, [2]int{w, h})
		}

		// render each level again and record the state the pass sets up
		for lvl := 0; lvl < levels; lvl++ {
			libgl.State.Viewport(0, 0, 640, 480)
			err = conv.Pass().Render(tex, lvl, func(frag libgl.ShaderProgram) {
				src.Bind(0)
				vp := libgl.State.ViewportRect
				viewports = append(viewports, [2]int{vp[2], vp[3]})
				w, h := conv.Pass().DepthSize()
				depthSizes = append(depthSizes, [2]int{w, h})
			})
			if err != nil {
				return
			}
		}
		err = libgl.CheckError("mip independence")
	})
	require.NoError(t, err)

	for lvl := 0; lvl < levels; lvl++ {
		size := base >> lvl
		expected := [2]int{size, size}
		assert.Equal(t, expected, texSizes[lvl], "texture level %d", lvl)
		assert.Equal(t, expected, viewports[lvl], "viewport level %d", lvl)
		assert.Equal(t, expected, depthSizes[lvl], "depth level %d", lvl)
	}
}

// Rendering one level after a viewport change must leave every other level as it was
func TestConvolveGlSpecularKeepsOtherLevels(t *testing.T) {
	const base, levels, redrawn = 32, 5, 2
	target := ibl.NewIblEnv(nil, base, levels)
	for lvl := 0; lvl < levels; lvl++ {
		for i := range target.Level(lvl) {
			target.Level(lvl)[i] = float32(lvl + 1)
		}
	}

	var result *ibl.IblEnv
	var err error
	runOnMain(t, func() {
		var conv *ibl.GlSpecularConvolver
		conv, err = ibl.NewGlSpecularConvolver(nil, 8, levels)
		if err != nil {
			return
		}
		defer conv.Release()

		src := ibl.UploadIblEnv(constantEnv(16, 1, 7), "source")
		defer src.Delete()
		tex := ibl.UploadIblEnv(target, "target")
		defer tex.Delete()

		libgl.State.Viewport(0, 0, 640, 480)
		err = conv.Pass().Render(tex, redrawn, func(frag libgl.ShaderProgram) {
			src.Bind(0)
			libgl.State.BindSampler(0, 0)
			frag.SetUniform("u_roughness", float32(0.5))
			frag.SetUniform("u_samples", 8)
		})
		if err != nil {
			return
		}
		result = ibl.DownloadIblEnv(tex, levels)
		err = libgl.CheckError("level isolation")
	})
	require.NoError(t, err)

	for lvl := 0; lvl < levels; lvl++ {
		expected := float32(lvl + 1)
		if lvl == redrawn {
			expected = 7
		}
		for _, v := range result.Level(lvl) {
			if !assert.InDelta(t, expected, v, 1e-2, "level %d", lvl) {
				break
			}
		}
	}
}

func TestIntegrateBrdfGlMatchesSw(t *testing.T) {
	const size, samples = 16, 256
	sw, err := ibl.NewSwBrdfIntegrator(samples)
	require.NoError(t, err)
	expected, err := sw.Integrate(size)
	require.NoError(t, err)

	var actual []float32
	runOnMain(t, func() {
		var integrator *ibl.GlBrdfIntegrator
		integrator, err = ibl.NewGlBrdfIntegrator(nil, samples)
		if err != nil {
			return
		}
		defer integrator.Release()
		lut, ierr := integrator.Integrate(size)
		if ierr != nil {
			err = ierr
			return
		}
		actual = lut.Pix
	})
	require.NoError(t, err)
	assert.InDeltaSlice(t, expected.Pix, actual, 5e-3)
}

func TestPipelineGl(t *testing.T) {
	var err error
	var levels int
	runOnMain(t, func() {
		var pipeline *ibl.Pipeline
		pipeline, err = ibl.NewPipeline(smallPipelineConfig())
		if err != nil {
			return
		}
		defer pipeline.Release()

		var env *ibl.Environment
		env, err = pipeline.Run(constantEquirect(32, 16, 1))
		if err != nil {
			return
		}
		defer env.Delete()
		levels = env.PrefilterLevels()
	})
	require.NoError(t, err)
	assert.Equal(t, 4, levels)
}
