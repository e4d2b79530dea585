package composer

import (
	"embed"
	"fmt"

	"advanced-ibl/ibl"
	"advanced-ibl/libgl"
	"advanced-ibl/libscn"
	"advanced-ibl/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed shaders/*
var embeddedShaders embed.FS

// Shaders holds the scene, light marker and skybox programs
var Shaders = libutil.MustSub(embeddedShaders, "shaders")

// Texture units of the image based lighting inputs
const (
	IrradianceUnit  = 5
	PrefilteredUnit = 6
	BrdfLutUnit     = 7
)

// SphereSpacing is the distance between the centers of two material spheres
const SphereSpacing = 2.5

type SkyboxSource int

const (
	SkyboxEnvironment SkyboxSource = iota
	SkyboxIrradiance
	SkyboxPrefiltered
)

var SkyboxSources = []SkyboxSource{SkyboxEnvironment, SkyboxIrradiance, SkyboxPrefiltered}

func (src SkyboxSource) String() string {
	switch src {
	case SkyboxEnvironment:
		return "environment"
	case SkyboxIrradiance:
		return "irradiance"
	case SkyboxPrefiltered:
		return "prefiltered"
	}
	return fmt.Sprintf("SkyboxSource(%d)", int(src))
}

// Frame holds the per frame camera inputs of Draw
type Frame struct {
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	CameraPosition mgl32.Vec3
}

// Composer draws a row of material spheres lit by point lights and an
// image based lighting environment, followed by the skybox.
type Composer struct {
	Materials   []*Material
	Lights      []PointLight
	Environment *ibl.Environment
	Skybox      SkyboxSource
	// mip level shown by the skybox
	SkyboxLod   float32
	ShowLights  bool
	LightRadius float32

	library         *libgl.ShaderLibrary
	pbrShader       libgl.UnboundShaderPipeline
	lightShader     libgl.UnboundShaderPipeline
	skyboxShader    libgl.UnboundShaderPipeline
	sphere          *libscn.GpuMesh
	materialSampler libgl.UnboundSampler
}

// NewComposer compiles the scene programs through library, nil loads the embedded shaders.
// The composer does not own env or the materials.
func NewComposer(library *libgl.ShaderLibrary, env *ibl.Environment, materials []*Material, lights []PointLight) (composer *Composer, err error) {
	if library == nil {
		library = libgl.NewShaderLibrary(Shaders)
	}
	if len(lights) > MaxLights {
		return nil, fmt.Errorf("at most %d lights are supported, got %d", MaxLights, len(lights))
	}

	composer = &Composer{
		Materials:   materials,
		Lights:      lights,
		Environment: env,
		ShowLights:  true,
		LightRadius: 0.5,
		library:     library,
	}
	defer func() {
		if err != nil {
			composer.Delete()
		}
	}()

	if composer.pbrShader, err = library.Pipeline(nil, "pbr.vert", "pbr.frag"); err != nil {
		return nil, fmt.Errorf("could not create scene shader: %w", err)
	}
	if composer.lightShader, err = library.Pipeline(nil, "pbr.vert", "light.frag"); err != nil {
		return nil, fmt.Errorf("could not create light shader: %w", err)
	}
	if composer.skyboxShader, err = library.Pipeline(nil, "skybox.vert", "skybox.frag"); err != nil {
		return nil, fmt.Errorf("could not create skybox shader: %w", err)
	}

	composer.sphere = libscn.Upload(libscn.NewUVSphere(libscn.SphereSegmentsX, libscn.SphereSegmentsY))

	composer.materialSampler = libgl.NewSampler()
	composer.materialSampler.SetDebugLabel("material")
	composer.materialSampler.FilterMode(gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR)
	composer.materialSampler.WrapMode(gl.REPEAT, gl.REPEAT, 0)
	composer.materialSampler.AnisotropicFilter(4)

	return composer, nil
}

// SphereModel returns the model matrix of sphere i, the row is centered on the origin
func (composer *Composer) SphereModel(i int) mgl32.Mat4 {
	offset := float32(i) - float32(len(composer.Materials)-1)/2
	return mgl32.Translate3D(SphereSpacing*offset, 0, 0)
}

func (composer *Composer) skyboxTexture() libgl.UnboundTexture {
	switch composer.Skybox {
	case SkyboxIrradiance:
		return composer.Environment.Irradiance
	case SkyboxPrefiltered:
		return composer.Environment.Prefiltered
	default:
		return composer.Environment.Skybox
	}
}

// SkyboxLevels is the number of mip levels the current skybox source can show
func (composer *Composer) SkyboxLevels() int {
	return composer.skyboxTexture().Levels()
}

// Draw renders into the bound framebuffer, which is expected to be cleared
func (composer *Composer) Draw(frame Frame) {
	libgl.PushDebugGroup("composer")
	defer libgl.PopDebugGroup()

	libgl.State.SetEnabled(libgl.DepthTest, libgl.CullFace)
	libgl.State.CullBack()
	libgl.State.DepthFunc(libgl.DepthFuncLess)
	libgl.State.DepthMask(true)

	composer.drawSpheres(frame)
	if composer.ShowLights {
		composer.drawLights(frame)
	}
	composer.drawSkybox(frame)
}

func (composer *Composer) drawSpheres(frame Frame) {
	env := composer.Environment
	env.Irradiance.Bind(IrradianceUnit)
	env.Prefiltered.Bind(PrefilteredUnit)
	env.BrdfLut.Bind(BrdfLutUnit)
	for _, unit := range []int{IrradianceUnit, PrefilteredUnit, BrdfLutUnit} {
		libgl.State.BindSampler(unit, 0)
	}

	composer.pbrShader.Bind()
	vert := composer.pbrShader.VertexStage()
	frag := composer.pbrShader.FragmentStage()
	vert.SetUniform("u_view_mat", frame.View)
	vert.SetUniform("u_projection_mat", frame.Projection)
	frag.SetUniform("u_camera_position", frame.CameraPosition)
	frag.SetUniform("u_prefilter_levels", float32(env.PrefilterLevels()))

	for i := 0; i < MaxLights; i++ {
		light := PointLight{}
		if i < len(composer.Lights) {
			light = composer.Lights[i]
		}
		frag.SetUniformIndexed("u_light_positions", i, light.Position)
		frag.SetUniformIndexed("u_light_colors", i, light.Color)
	}

	for i, mat := range composer.Materials {
		model := composer.SphereModel(i)
		vert.SetUniform("u_model_mat", model)
		vert.SetUniform("u_normal_mat", model.Inv().Transpose().Mat3())
		mat.Bind()
		for unit := range mat.textures() {
			composer.materialSampler.Bind(unit)
		}
		composer.sphere.Draw()
	}
}

func (composer *Composer) drawLights(frame Frame) {
	composer.lightShader.Bind()
	vert := composer.lightShader.VertexStage()
	frag := composer.lightShader.FragmentStage()
	vert.SetUniform("u_view_mat", frame.View)
	vert.SetUniform("u_projection_mat", frame.Projection)

	for _, light := range composer.Lights {
		model := mgl32.Translate3D(light.Position[0], light.Position[1], light.Position[2]).
			Mul4(mgl32.Scale3D(composer.LightRadius, composer.LightRadius, composer.LightRadius))
		vert.SetUniform("u_model_mat", model)
		vert.SetUniform("u_normal_mat", mgl32.Ident3())
		frag.SetUniform("u_light_color", light.Color)
		composer.sphere.Draw()
	}
}

// drawSkybox draws last at depth 1 so only uncovered pixels pass
func (composer *Composer) drawSkybox(frame Frame) {
	tex := composer.skyboxTexture()
	lod := mgl32.Clamp(composer.SkyboxLod, 0, float32(composer.SkyboxLevels()-1))

	libgl.State.DepthFunc(libgl.DepthFuncLEqual)
	libgl.State.Disable(libgl.CullFace)

	composer.skyboxShader.Bind()
	composer.skyboxShader.VertexStage().SetUniform("u_view_mat", frame.View)
	composer.skyboxShader.VertexStage().SetUniform("u_projection_mat", frame.Projection)
	composer.skyboxShader.FragmentStage().SetUniform("u_lod", lod)
	tex.Bind(0)
	libgl.State.BindSampler(0, 0)
	libutil.DrawCube()

	libgl.State.Enable(libgl.CullFace)
	libgl.State.DepthFunc(libgl.DepthFuncLess)
}

func (composer *Composer) Delete() {
	for _, shader := range []libgl.UnboundShaderPipeline{composer.pbrShader, composer.lightShader, composer.skyboxShader} {
		if shader != nil {
			composer.library.Forget(shader)
			shader.Delete()
		}
	}
	if composer.sphere != nil {
		composer.sphere.Delete()
	}
	if composer.materialSampler != nil {
		composer.materialSampler.Delete()
	}
}
