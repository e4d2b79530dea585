package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"advanced-ibl/composer"
	"advanced-ibl/ibl"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ibl.DefaultPipelineConfig(), cfg.PipelineConfig())
	assert.Equal(t, DefaultMaterials, cfg.MaterialDirs())
	assert.Equal(t, composer.DefaultLights(), cfg.PointLights())
}

func TestDecodeKeepsDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
environment = "sky.hdr"
materials = ["a", "b"]

[pipeline]
samples = 256

[scene]
exposure = 2.5

[[lights]]
position = [1, 2, 3]
color = [10, 20, 30]
`))
	require.NoError(t, err)

	assert.Equal(t, "sky.hdr", cfg.Environment)
	assert.Equal(t, []string{"a", "b"}, cfg.MaterialDirs())
	assert.Equal(t, 256, cfg.Pipeline.Samples)
	assert.Equal(t, ibl.DefaultPrefilterSize, cfg.Pipeline.PrefilterSize)
	assert.Equal(t, float32(2.5), cfg.Scene.Exposure)
	assert.Equal(t, float32(2.2), cfg.Scene.Gamma)
	assert.Equal(t, 1600, cfg.Window.Width)

	assert.Equal(t, []composer.PointLight{{Position: mgl32.Vec3{1, 2, 3}, Color: mgl32.Vec3{10, 20, 30}}}, cfg.PointLights())
	assert.NoError(t, cfg.Validate())
}

func TestDecodeUnknownKey(t *testing.T) {
	_, err := Decode(strings.NewReader("[pipeline]\nsample_count = 3\n"))
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "sample_count")
}

func TestDecodeSyntaxError(t *testing.T) {
	_, err := Decode(strings.NewReader("environment = \n"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *Config)
		target error
	}{
		{"zero size", func(cfg *Config) { cfg.Pipeline.IrradianceSize = 0 }, ibl.ErrInvalidSize},
		{"not a power of two", func(cfg *Config) { cfg.Pipeline.BrdfSize = 500 }, ErrInvalid},
		{"too many levels", func(cfg *Config) { cfg.Pipeline.PrefilterLevels = 9 }, ibl.ErrInvalidLevels},
		{"step", func(cfg *Config) { cfg.Pipeline.IrradianceStep = 0 }, ibl.ErrInvalidStep},
		{"samples", func(cfg *Config) { cfg.Pipeline.Samples = -1 }, ibl.ErrInvalidCount},
		{"lights", func(cfg *Config) { cfg.Lights = make([]Light, composer.MaxLights+1) }, ErrInvalid},
		{"exposure", func(cfg *Config) { cfg.Scene.Exposure = 0 }, ErrInvalid},
		{"fov", func(cfg *Config) { cfg.Scene.Camera.Fov = 180 }, ErrInvalid},
		{"clipping", func(cfg *Config) { cfg.Scene.Camera.Far = cfg.Scene.Camera.Near }, ErrInvalid},
		{"window", func(cfg *Config) { cfg.Window.Height = 0 }, ErrInvalid},
		{"environment", func(cfg *Config) { cfg.Environment = "" }, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalid)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Scene.Gamma = 0
	cfg.Scene.Exposure = 0
	err := cfg.Validate()
	assert.ErrorContains(t, err, "gamma")
	assert.ErrorContains(t, err, "exposure")
}

func TestLoadResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "scene.toml")
	require.NoError(t, os.WriteFile(name, []byte("environment = \"hdri/sky.hdr\"\ncache = \"/tmp/ibl\"\nmaterials = [\"gold\"]\n"), 0o644))

	cfg, err := Load(name)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hdri", "sky.hdr"), cfg.Environment)
	assert.Equal(t, "/tmp/ibl", cfg.Cache)
	assert.Equal(t, []string{filepath.Join(dir, "gold")}, cfg.Materials)
}

func TestLoadResolvesDefaultMaterials(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "scene.toml")
	require.NoError(t, os.WriteFile(name, []byte("environment = \"sky.hdr\"\n"), 0o644))

	cfg, err := Load(name)
	require.NoError(t, err)
	dirs := cfg.MaterialDirs()
	require.Len(t, dirs, len(DefaultMaterials))
	for i, m := range DefaultMaterials {
		assert.Equal(t, filepath.Join(dir, m), dirs[i])
	}
}

func TestLightsCanBeDisabled(t *testing.T) {
	cfg, err := Decode(strings.NewReader("default_lights = false\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.PointLights())
	assert.NoError(t, cfg.Validate())

	// listed lights win over the flag
	cfg, err = Decode(strings.NewReader("default_lights = false\n[[lights]]\nposition = [0, 1, 0]\ncolor = [1, 1, 1]\n"))
	require.NoError(t, err)
	assert.Len(t, cfg.PointLights(), 1)
}

func TestLoadInvalid(t *testing.T) {
	name := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(name, []byte("[pipeline]\nsamples = 0\n"), 0o644))

	_, err := Load(name)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "scene.toml")
}

func TestEncodeDecode(t *testing.T) {
	cfg := Default()
	cfg.Materials = []string{"gold", "wall"}
	cfg.Cache = "cache"
	cfg.Lights = []Light{{Position: [3]float32{1, 1, 1}, Color: [3]float32{5, 5, 5}}}

	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))
	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg, decoded)
}
