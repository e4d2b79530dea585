package main

import (
	"fmt"

	"advanced-ibl/composer"

	"github.com/go-gl/mathgl/mgl32"
	im "github.com/inkyblackness/imgui-go/v4"
)

func (app *App) drawPanel() {
	im.Begin("Scene")
	defer im.End()

	im.Text(fmt.Sprintf("%.1f fps", 1/app.controls.Delta()))
	im.Checkbox("Wireframe", &app.wireframe)

	im.PushID("camera")
	if im.CollapsingHeader("Camera") {
		cam := app.camera
		im.DragFloat3("Pos", (*[3]float32)(&cam.Position))
		im.DragFloat3("Dir", (*[3]float32)(&cam.Orientation))
		if im.SliderFloat("Fov", &cam.VerticalFov, 10, 120) {
			cam.UpdateProjectionMatrix()
		}
	}
	im.PopID()

	im.PushID("tonemap")
	if im.CollapsingHeader("Tonemapping") {
		im.SliderFloat("Exposure", &app.tonemap.Exposure, 0.05, 8)
		im.SliderFloat("Gamma", &app.tonemap.Gamma, 1, 3)
		im.ColorEdit3("Clear", (*[3]float32)(&app.tonemap.ClearColor))
	}
	im.PopID()

	im.PushID("skybox")
	if im.CollapsingHeader("Skybox") {
		for _, src := range composer.SkyboxSources {
			if im.RadioButton(src.String(), app.composer.Skybox == src) {
				app.composer.Skybox = src
			}
		}
		maxLod := float32(app.composer.SkyboxLevels() - 1)
		app.composer.SkyboxLod = mgl32.Clamp(app.composer.SkyboxLod, 0, maxLod)
		im.SliderFloat("Level", &app.composer.SkyboxLod, 0, maxLod)
	}
	im.PopID()

	im.PushID("point_lights")
	if im.CollapsingHeader("Lights") {
		im.Checkbox("Show", &app.composer.ShowLights)
		im.SliderFloat("Radius", &app.composer.LightRadius, 0.05, 2)
		for i := range app.composer.Lights {
			light := &app.composer.Lights[i]
			if im.TreeNodef("Light %d", i+1) {
				im.SliderFloat3("Pos", (*[3]float32)(&light.Position), -30, 30)
				im.ColorEdit3V("Col", (*[3]float32)(&light.Color), im.ColorEditFlagsFloat|im.ColorEditFlagsHSV|im.ColorEditFlagsHDR)
				im.TreePop()
			}
		}
	}
	im.PopID()

	im.PushID("materials")
	if im.CollapsingHeader("Materials") {
		for _, mat := range app.composer.Materials {
			im.Text(mat.Name)
		}
	}
	im.PopID()
}
