// Package config reads the scene and precompute settings of the viewer from TOML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"advanced-ibl/composer"
	"advanced-ibl/ibl"
	"advanced-ibl/libutil"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	// equirectangular .hdr file
	Environment string `toml:"environment"`
	// material directories, empty selects DefaultMaterials
	Materials []string `toml:"materials"`
	// directory of precomputed results, empty disables the cache
	Cache    string   `toml:"cache"`
	Window   Window   `toml:"window"`
	Pipeline Pipeline `toml:"pipeline"`
	Scene    Scene    `toml:"scene"`
	Lights   []Light  `toml:"lights"`
	// with no lights listed, selects composer.DefaultLights instead of an unlit scene
	DefaultLights bool `toml:"default_lights"`

	// directory relative paths are resolved against
	dir string
}

type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
}

type Pipeline struct {
	EnvironmentSize int     `toml:"environment_size"`
	IrradianceSize  int     `toml:"irradiance_size"`
	IrradianceStep  float32 `toml:"irradiance_step"`
	PrefilterSize   int     `toml:"prefilter_size"`
	PrefilterLevels int     `toml:"prefilter_levels"`
	Samples         int     `toml:"samples"`
	BrdfSize        int     `toml:"brdf_size"`
}

type Scene struct {
	Exposure   float32    `toml:"exposure"`
	Gamma      float32    `toml:"gamma"`
	ClearColor [3]float32 `toml:"clear_color"`
	ShowLights bool       `toml:"show_lights"`
	Camera     Camera     `toml:"camera"`
}

type Camera struct {
	Position [3]float32 `toml:"position"`
	// pitch, yaw and roll in degrees
	Orientation [3]float32 `toml:"orientation"`
	Fov         float32    `toml:"fov"`
	Near        float32    `toml:"near"`
	Far         float32    `toml:"far"`
}

type Light struct {
	Position [3]float32 `toml:"position"`
	Color    [3]float32 `toml:"color"`
}

var DefaultMaterials = []string{
	"assets/materials/rusted_iron",
	"assets/materials/gold",
	"assets/materials/grass",
	"assets/materials/plastic",
	"assets/materials/wall",
}

func Default() *Config {
	pipeline := ibl.DefaultPipelineConfig()
	return &Config{
		Environment: "assets/hdri/newport_loft.hdr",
		Window: Window{
			Width:  1600,
			Height: 900,
			Title:  "PBR",
			VSync:  true,
		},
		Pipeline: Pipeline{
			EnvironmentSize: pipeline.EnvironmentSize,
			IrradianceSize:  pipeline.IrradianceSize,
			IrradianceStep:  pipeline.IrradianceStep,
			PrefilterSize:   pipeline.PrefilterSize,
			PrefilterLevels: pipeline.PrefilterLevels,
			Samples:         pipeline.Samples,
			BrdfSize:        pipeline.BrdfSize,
		},
		Scene: Scene{
			Exposure:   1.0,
			Gamma:      2.2,
			ClearColor: [3]float32{0.2, 0.5, 1.0},
			ShowLights: true,
			Camera: Camera{
				Position:    [3]float32{0, 0, 10},
				Orientation: [3]float32{0, 0, 0},
				Fov:         70,
				Near:        0.1,
				Far:         100,
			},
		},
		DefaultLights: true,
	}
}

// Decode reads TOML over the defaults. Unknown keys are an error.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", ErrInvalid, strict.String())
		}
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	return cfg, nil
}

// Load decodes and validates a file. Relative paths in it are resolved against its directory.
func Load(name string) (*Config, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	cfg.resolve(filepath.Dir(name))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	return cfg, nil
}

func (cfg *Config) resolve(dir string) {
	cfg.dir = dir
	cfg.Environment = cfg.abs(cfg.Environment)
	cfg.Cache = cfg.abs(cfg.Cache)
	for i, m := range cfg.Materials {
		cfg.Materials[i] = cfg.abs(m)
	}
}

func (cfg *Config) abs(p string) string {
	if p == "" || cfg.dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.dir, p)
}

// Encode writes cfg as TOML
func (cfg *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate reports every problem, each wrapping ErrInvalid
func (cfg *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if cfg.Environment == "" {
		invalid("environment is required")
	}
	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		invalid("window size %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if err := cfg.PipelineConfig().Validate(); err != nil {
		invalid("pipeline: %w", err)
	}
	sizes := []struct {
		name string
		size int
	}{
		{"environment_size", cfg.Pipeline.EnvironmentSize},
		{"irradiance_size", cfg.Pipeline.IrradianceSize},
		{"prefilter_size", cfg.Pipeline.PrefilterSize},
		{"brdf_size", cfg.Pipeline.BrdfSize},
	}
	for _, s := range sizes {
		if s.size > 0 && !libutil.IsPowerOfTwo(s.size) {
			invalid("%s %d is not a power of two", s.name, s.size)
		}
	}
	if cfg.Scene.Exposure <= 0 {
		invalid("exposure %v", cfg.Scene.Exposure)
	}
	if cfg.Scene.Gamma <= 0 {
		invalid("gamma %v", cfg.Scene.Gamma)
	}
	if cam := cfg.Scene.Camera; cam.Fov <= 0 || cam.Fov >= 180 {
		invalid("camera fov %v", cam.Fov)
	}
	if cam := cfg.Scene.Camera; cam.Near <= 0 || cam.Far <= cam.Near {
		invalid("camera clipping planes %v, %v", cam.Near, cam.Far)
	}
	if len(cfg.Lights) > composer.MaxLights {
		invalid("%d lights, at most %d are supported", len(cfg.Lights), composer.MaxLights)
	}
	return errors.Join(errs...)
}

func (cfg *Config) PipelineConfig() ibl.PipelineConfig {
	return ibl.PipelineConfig{
		EnvironmentSize: cfg.Pipeline.EnvironmentSize,
		IrradianceSize:  cfg.Pipeline.IrradianceSize,
		IrradianceStep:  cfg.Pipeline.IrradianceStep,
		PrefilterSize:   cfg.Pipeline.PrefilterSize,
		PrefilterLevels: cfg.Pipeline.PrefilterLevels,
		Samples:         cfg.Pipeline.Samples,
		BrdfSize:        cfg.Pipeline.BrdfSize,
	}
}

// MaterialDirs returns the configured materials, or DefaultMaterials relative to the config file
func (cfg *Config) MaterialDirs() []string {
	if len(cfg.Materials) > 0 {
		return cfg.Materials
	}
	dirs := make([]string, len(DefaultMaterials))
	for i, m := range DefaultMaterials {
		dirs[i] = cfg.abs(m)
	}
	return dirs
}

func (cfg *Config) PointLights() []composer.PointLight {
	if len(cfg.Lights) == 0 {
		if cfg.DefaultLights {
			return composer.DefaultLights()
		}
		return nil
	}
	lights := make([]composer.PointLight, len(cfg.Lights))
	for i, l := range cfg.Lights {
		lights[i] = composer.PointLight{
			Position: mgl32.Vec3(l.Position),
			Color:    mgl32.Vec3(l.Color),
		}
	}
	return lights
}
