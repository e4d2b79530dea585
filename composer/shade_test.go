package composer_test

import (
	"testing"

	"advanced-ibl/composer"
	"advanced-ibl/ibl"
	"advanced-ibl/libio"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whiteEquirect() *libio.FloatImage {
	img := libio.NewFloatImage(nil, 3, 64, 32)
	for i := range img.Pix {
		img.Pix[i] = 1
	}
	return img
}

func precomputeWhite(t *testing.T) *ibl.Precomputed {
	t.Helper()
	cfg := ibl.PipelineConfig{
		EnvironmentSize: 16,
		IrradianceSize:  4,
		IrradianceStep:  0.05,
		PrefilterSize:   8,
		PrefilterLevels: 4,
		Samples:         64,
		BrdfSize:        16,
	}
	backends, err := ibl.NewSwBackends(cfg)
	require.NoError(t, err)
	defer backends.Release()

	pre, err := ibl.Precompute(whiteEquirect(), cfg, backends)
	require.NoError(t, err)
	return pre
}

// roughSphere is a white dielectric seen head on
var roughSphere = composer.Surface{
	Albedo:    mgl32.Vec3{1, 1, 1},
	Metallic:  0,
	Roughness: 1,
	Ao:        1,
}

func TestShadeWhiteEnvironment(t *testing.T) {
	pre := precomputeWhite(t)
	ambient := composer.NewSoftwareAmbient(pre)

	position := mgl32.Vec3{0, 0, 1}
	normal := mgl32.Vec3{0, 0, 1}
	camera := mgl32.Vec3{0, 0, 5}
	color := composer.Shade(roughSphere, position, normal, camera, nil, ambient)

	// kD * irradiance with kD = 1 - 0.04
	for c := 0; c < 3; c++ {
		assert.InEpsilon(t, 0.96, color[c], 0.02)
	}

	// the specular part is F0 * A + B of the white prefiltered map
	scale, bias := ambient.Brdf(1, 1)
	assert.Greater(t, scale, float32(0.25))
	assert.Less(t, bias, float32(0.01))
	assert.InDelta(t, 0.96+0.04*scale+bias, color[0], 2e-3)
}

func TestShadeInverseSquareFalloff(t *testing.T) {
	surface := composer.Surface{Albedo: mgl32.Vec3{1, 1, 1}, Roughness: 0.5, Ao: 1}
	normal := mgl32.Vec3{0, 1, 0}
	camera := mgl32.Vec3{0, 5, 0}

	at := func(distance float32) mgl32.Vec3 {
		lights := []composer.PointLight{{Position: mgl32.Vec3{0, distance, 0}, Color: mgl32.Vec3{10, 10, 10}}}
		return composer.Shade(surface, mgl32.Vec3{}, normal, camera, lights, nil)
	}

	near, far := at(2), at(4)
	require.Greater(t, far[0], float32(0))
	for c := 0; c < 3; c++ {
		assert.InDelta(t, 4, near[c]/far[c], 1e-4)
	}
}

func TestShadeLightBehindSurface(t *testing.T) {
	lights := []composer.PointLight{{Position: mgl32.Vec3{2, -2, 0}, Color: mgl32.Vec3{10, 10, 10}}}
	color := composer.Shade(roughSphere, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 5, 0}, lights, nil)
	assert.Equal(t, mgl32.Vec3{}, color)
}

func TestShadeUsesAtMostMaxLights(t *testing.T) {
	lights := make([]composer.PointLight, composer.MaxLights+1)
	for i := range lights {
		lights[i] = composer.PointLight{Position: mgl32.Vec3{float32(i), 3, 0}, Color: mgl32.Vec3{5, 5, 5}}
	}
	normal := mgl32.Vec3{0, 1, 0}
	camera := mgl32.Vec3{0, 5, 0}
	all := composer.Shade(roughSphere, mgl32.Vec3{}, normal, camera, lights, nil)
	limited := composer.Shade(roughSphere, mgl32.Vec3{}, normal, camera, lights[:composer.MaxLights], nil)
	assert.Equal(t, limited, all)
}

func TestShadeWithoutInputsIsBlack(t *testing.T) {
	color := composer.Shade(roughSphere, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 5, 0}, nil, nil)
	assert.Equal(t, mgl32.Vec3{}, color)
}

type constantAmbient struct {
	irradiance, prefiltered mgl32.Vec3
	scale, bias             float32
	levels                  int
	lod                     float32
}

func (a *constantAmbient) Irradiance(n mgl32.Vec3) mgl32.Vec3 { return a.irradiance }

func (a *constantAmbient) Prefiltered(r mgl32.Vec3, lod float32) mgl32.Vec3 {
	a.lod = lod
	return a.prefiltered
}

func (a *constantAmbient) Brdf(ndotv, roughness float32) (float32, float32) {
	return a.scale, a.bias
}

func (a *constantAmbient) PrefilterLevels() int { return a.levels }

func TestShadeMetalHasNoDiffuse(t *testing.T) {
	ambient := &constantAmbient{
		irradiance:  mgl32.Vec3{100, 100, 100},
		prefiltered: mgl32.Vec3{2, 2, 2},
		scale:       0.8,
		bias:        0.1,
		levels:      5,
	}
	metal := composer.Surface{Albedo: mgl32.Vec3{1, 0.5, 0.25}, Metallic: 1, Roughness: 0.5, Ao: 0.5}
	color := composer.Shade(metal, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, 3}, nil, ambient)

	// prefiltered * (albedo * A + B) * ao
	assert.InDeltaSlice(t, []float32{0.9, 0.5, 0.3}, color[:], 1e-5)
	assert.InDelta(t, 2, ambient.lod, 1e-6)
}

func TestShadeAmbientOcclusion(t *testing.T) {
	ambient := &constantAmbient{
		irradiance:  mgl32.Vec3{1, 1, 1},
		prefiltered: mgl32.Vec3{1, 1, 1},
		scale:       0.5,
		bias:        0.05,
		levels:      5,
	}
	open := roughSphere
	occluded := roughSphere
	occluded.Ao = 0.25
	position, normal, camera := mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, 3}

	a := composer.Shade(open, position, normal, camera, nil, ambient)
	b := composer.Shade(occluded, position, normal, camera, nil, ambient)
	assert.InDelta(t, a[0]*0.25, b[0], 1e-6)
}

func TestSphereModelCentersRow(t *testing.T) {
	c := &composer.Composer{Materials: make([]*composer.Material, 5)}
	assert.Equal(t, mgl32.Vec3{-5, 0, 0}, c.SphereModel(0).Col(3).Vec3())
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, c.SphereModel(2).Col(3).Vec3())
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, c.SphereModel(4).Col(3).Vec3())
}

func TestDefaultLights(t *testing.T) {
	lights := composer.DefaultLights()
	assert.Len(t, lights, composer.MaxLights)
	for _, l := range lights {
		assert.Equal(t, float32(3), l.Position[1])
		assert.Equal(t, float32(20), mgl32.Abs(l.Position[0]))
	}
}

func TestSkyboxSourceString(t *testing.T) {
	names := []string{}
	for _, src := range composer.SkyboxSources {
		names = append(names, src.String())
	}
	assert.Equal(t, []string{"environment", "irradiance", "prefiltered"}, names)
	assert.Equal(t, "SkyboxSource(7)", composer.SkyboxSource(7).String())
}
