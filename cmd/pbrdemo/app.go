package main

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"unsafe"

	"advanced-ibl/composer"
	"advanced-ibl/config"
	"advanced-ibl/effects"
	"advanced-ibl/ibl"
	"advanced-ibl/libgl"
	"advanced-ibl/libio"
	"advanced-ibl/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// units per second
const flySpeed = 4.0

// degrees per pixel
const lookSpeed = 0.35

// App holds everything the viewer loop touches
type App struct {
	cfg       *config.Config
	window    *glfw.Window
	controls  *controls
	camera    *Camera
	gui       *ImGui
	composer  *composer.Composer
	tonemap   *effects.TonemapEffect
	env       *ibl.Environment
	materials []*composer.Material
	libraries []*libgl.ShaderLibrary
	watcher   *shaderWatcher
	wireframe bool
	showPanel bool
}

func createWindow(cfg config.Window, compatibility bool) (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, err
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	if compatibility {
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCompatProfile)
	} else {
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	}
	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	win.MakeContextCurrent()
	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		return glfw.GetProcAddress(name)
	})
	if err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, err
	}
	libgl.Init()
	libgl.EnableDebugOutput()
	return win, nil
}

func NewApp(cfg *config.Config, args arguments) (app *App, err error) {
	app = &App{cfg: cfg, showPanel: true}

	app.window, err = createWindow(cfg.Window, args.EnableCompatibilityProfile)
	if err != nil {
		return nil, fmt.Errorf("could not create window: %w", err)
	}
	defer func() {
		if err != nil {
			app.Release()
			app = nil
		}
	}()

	var override fs.FS
	if args.Shaders != "" {
		override = os.DirFS(args.Shaders)
		if app.watcher, err = watchShaders(args.Shaders); err != nil {
			return nil, fmt.Errorf("could not watch %q: %w", args.Shaders, err)
		}
	}
	composerLib := libgl.NewShaderLibrary(libutil.LayeredFS{Override: override, Base: composer.Shaders})
	effectsLib := libgl.NewShaderLibrary(libutil.LayeredFS{Override: override, Base: effects.Shaders})
	guiLib := libgl.NewShaderLibrary(libutil.LayeredFS{Override: override, Base: guiShaders})
	app.libraries = []*libgl.ShaderLibrary{composerLib, effectsLib, guiLib}

	pipelineShaders := fs.FS(libutil.LayeredFS{Override: override, Base: ibl.Shaders})
	if app.env, err = loadEnvironment(cfg, pipelineShaders); err != nil {
		return nil, err
	}

	app.materials = composer.LoadMaterials(cfg.MaterialDirs())
	app.composer, err = composer.NewComposer(composerLib, app.env, app.materials, cfg.PointLights())
	if err != nil {
		return nil, err
	}
	app.composer.ShowLights = cfg.Scene.ShowLights

	if app.tonemap, err = effects.NewTonemapEffect(effectsLib); err != nil {
		return nil, err
	}
	app.tonemap.Exposure = cfg.Scene.Exposure
	app.tonemap.Gamma = cfg.Scene.Gamma
	app.tonemap.ClearColor = cfg.Scene.ClearColor

	if app.gui, err = NewImGui(app.window, guiLib); err != nil {
		return nil, err
	}

	app.camera = NewCamera(cfg.Scene.Camera)
	app.controls = newControls(app.window, glfw.GetTime)

	if err = libgl.CheckError("create viewer"); err != nil {
		return nil, err
	}
	return app, nil
}

// loadEnvironment reads the cache when one is configured and complete, otherwise it runs the pipeline
func loadEnvironment(cfg *config.Config, shaders fs.FS) (*ibl.Environment, error) {
	if cfg.Cache != "" {
		pre, err := ibl.LoadCache(cfg.Cache)
		if err == nil {
			log.Printf("Using precomputed environment from %q", cfg.Cache)
			return pre.Upload()
		}
		if !ibl.IsCacheMiss(err) {
			return nil, err
		}
		log.Printf("Cache %q is incomplete, precomputing", cfg.Cache)
	}

	hdr, err := loadHdr(cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("could not load environment %q: %w", cfg.Environment, err)
	}

	pipelineCfg := cfg.PipelineConfig()
	pipelineCfg.Shaders = shaders
	pipeline, err := ibl.NewPipeline(pipelineCfg)
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()

	return pipeline.Run(hdr)
}

func loadHdr(name string) (*libio.FloatImage, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return libio.DecodeHdr(f)
}

func (app *App) Run() {
	for !app.window.ShouldClose() {
		glfw.PollEvents()
		app.controls.poll(app.window)
		app.reloadShaders()
		app.update()
		app.draw()
		app.window.SwapBuffers()
	}
}

// reloadShaders recompiles every program whose file changed since the last frame
func (app *App) reloadShaders() {
	if app.watcher == nil {
		return
	}
	for _, name := range app.watcher.Changed() {
		for _, lib := range app.libraries {
			if !lib.Has(name) {
				continue
			}
			if err := lib.Reload(name); err != nil {
				log.Printf("Could not reload %q: %v", name, err)
				continue
			}
			log.Printf("Reloaded %q", name)
		}
	}
}

func (app *App) update() {
	ctl := app.controls
	cam := app.camera

	if ctl.Pressed(actionQuit) {
		app.window.SetShouldClose(true)
	}
	if ctl.Pressed(actionTogglePanel) {
		app.showPanel = !app.showPanel
	}
	if ctl.Pressed(actionToggleWireframe) {
		app.wireframe = !app.wireframe
	}

	if !app.gui.WantsInput() {
		movement := ctl.Movement()
		if movement.LenSqr() != 0 {
			cam.Fly(movement.Normalize().Mul(ctl.Delta() * flySpeed))
		}
		rotation := ctl.Look()
		cam.Orientation[0] += rotation[1] * lookSpeed
		cam.Orientation[1] += rotation[0] * lookSpeed
		cam.Orientation[0] = mgl32.Clamp(cam.Orientation[0], -89, 89)
	}
	cam.UpdateViewMatrix()
}

func (app *App) draw() {
	width, height := app.window.GetFramebufferSize()
	if width == 0 || height == 0 {
		// minimized
		return
	}
	app.camera.Resize(width, height)
	check(app.tonemap.Resize(width, height))

	app.tonemap.Bind()
	if app.wireframe {
		libgl.State.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}
	app.composer.Draw(composer.Frame{
		View:           app.camera.ViewMatrix,
		Projection:     app.camera.ProjectionMatrix,
		CameraPosition: app.camera.Position,
	})
	if app.wireframe {
		libgl.State.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	app.tonemap.Render(nil)

	app.gui.NewFrame()
	if app.showPanel {
		app.drawPanel()
	}
	app.gui.Draw()
}

func (app *App) Release() {
	if app.watcher != nil {
		app.watcher.Close()
	}
	if app.gui != nil {
		app.gui.Release()
	}
	if app.tonemap != nil {
		app.tonemap.Release()
	}
	if app.composer != nil {
		app.composer.Delete()
	}
	composer.DeleteMaterials(app.materials)
	if app.env != nil {
		app.env.Delete()
	}
	libutil.ReleaseShared()
	if app.window != nil {
		app.window.Destroy()
		glfw.Terminate()
	}
}
