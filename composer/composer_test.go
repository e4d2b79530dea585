package composer_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"advanced-ibl/composer"
	"advanced-ibl/ibl"
	"advanced-ibl/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePng(t *testing.T, name string, size int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(name)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadMaterial(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rusted_iron")
	require.NoError(t, os.Mkdir(dir, 0o755))
	for _, name := range []string{composer.AlbedoFile, composer.MetallicFile, composer.NormalFile, composer.RoughnessFile, composer.AoFile} {
		writePng(t, filepath.Join(dir, name), 8, color.RGBA{200, 100, 50, 255})
	}

	runOnMain(t, func() {
		mat, err := composer.LoadMaterial(dir)
		if !assert.NoError(t, err) {
			return
		}
		defer mat.Delete()

		assert.Equal(t, "rusted_iron", mat.Name)
		w, h := mat.Albedo.Size(0)
		assert.Equal(t, 8, w)
		assert.Equal(t, 8, h)
		assert.Equal(t, 4, mat.Roughness.Levels())
		assert.NoError(t, libgl.CheckError("load material"))
	})
}

func TestLoadMaterialMissingFile(t *testing.T) {
	dir := t.TempDir()
	writePng(t, filepath.Join(dir, composer.AlbedoFile), 4, color.RGBA{255, 255, 255, 255})

	// decoding fails before any texture is created
	_, err := composer.LoadMaterial(dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMaterialOrFallback(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	runOnMain(t, func() {
		mat := composer.LoadMaterialOrFallback(dir)
		defer mat.Delete()

		assert.Equal(t, "missing", mat.Name)
		w, h := mat.Albedo.Size(0)
		assert.Equal(t, 1, w)
		assert.Equal(t, 1, h)

		pix := make([]float32, 4)
		mat.Roughness.ReadPixels(0, gl.RGBA, pix)
		assert.InDelta(t, composer.FallbackSurface.Roughness, pix[0], 1.0/255)
	})
}

// TestComposerDrawWhiteEnvironment renders one rough white sphere head on and reads the center pixel
func TestComposerDrawWhiteEnvironment(t *testing.T) {
	pre := precomputeWhite(t)
	const size = 64

	var center, corner []float32
	var err error
	runOnMain(t, func() {
		center, corner, err = drawWhiteSphere(pre, size)
	})
	require.NoError(t, err)
	for ch := 0; ch < 3; ch++ {
		assert.InEpsilon(t, 0.96, center[ch], 0.03)
	}
	// the skybox fills the corners with the white environment
	assert.InDelta(t, 1, corner[0], 1e-2)
}

func drawWhiteSphere(pre *ibl.Precomputed, size int) (center, corner []float32, err error) {
	env, err := pre.Upload()
	if err != nil {
		return nil, nil, err
	}
	defer env.Delete()

	mat := composer.NewSolidMaterial("white", roughSphere)
	defer mat.Delete()

	c, err := composer.NewComposer(nil, env, []*composer.Material{mat}, nil)
	if err != nil {
		return nil, nil, err
	}
	defer c.Delete()

	target := libgl.CreateTexture(libgl.TextureOptions{
		InternalFormat: gl.RGBA16F,
		Width:          size,
		Height:         size,
		Levels:         1,
	})
	defer target.Delete()
	depth := libgl.NewRenderbuffer()
	defer depth.Delete()
	depth.Allocate(gl.DEPTH_COMPONENT24, size, size)

	fbo := libgl.NewFramebuffer()
	defer fbo.Delete()
	fbo.AttachTexture(0, target)
	fbo.AttachRenderbuffer(gl.DEPTH_ATTACHMENT, depth)
	fbo.BindTargets(0)
	if err := fbo.Check(gl.DRAW_FRAMEBUFFER); err != nil {
		return nil, nil, err
	}

	fbo.Bind(gl.DRAW_FRAMEBUFFER)
	libgl.State.Viewport(0, 0, size, size)
	libgl.State.DepthMask(true)
	libgl.State.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	eye := mgl32.Vec3{0, 0, 5}
	c.Draw(composer.Frame{
		View:           mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		Projection:     mgl32.Perspective(mgl32.DegToRad(30), 1, 0.1, 100),
		CameraPosition: eye,
	})
	libgl.State.BindDrawFramebuffer(0)
	if err := libgl.CheckError("composer draw"); err != nil {
		return nil, nil, err
	}

	pix := make([]float32, size*size*4)
	target.ReadPixels(0, gl.RGBA, pix)
	i := (size/2*size + size/2) * 4
	return pix[i : i+4], pix[:4], nil
}
