package composer

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"advanced-ibl/libgl"
	"advanced-ibl/libio"
	"advanced-ibl/libutil"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Material texture files inside a material directory
const (
	AlbedoFile    = "basecolor.png"
	MetallicFile  = "metallic.png"
	NormalFile    = "normal.png"
	RoughnessFile = "roughness.png"
	AoFile        = "ao.png"
)

// Material is a set of PBR textures. Albedo is stored as sRGB, the rest linear.
type Material struct {
	Name      string
	Albedo    libgl.UnboundTexture
	Metallic  libgl.UnboundTexture
	Normal    libgl.UnboundTexture
	Roughness libgl.UnboundTexture
	Ao        libgl.UnboundTexture
}

// Bind binds the textures to units 0 to 4
func (mat *Material) Bind() {
	for i, tex := range mat.textures() {
		tex.Bind(i)
	}
}

func (mat *Material) textures() []libgl.UnboundTexture {
	return []libgl.UnboundTexture{mat.Albedo, mat.Metallic, mat.Normal, mat.Roughness, mat.Ao}
}

func (mat *Material) Delete() {
	for _, tex := range mat.textures() {
		if tex != nil {
			tex.Delete()
		}
	}
}

func uploadTexture(img *libio.IntImage, internalFormat uint32, label string) libgl.UnboundTexture {
	return libgl.CreateTexture(libgl.TextureOptions{
		InternalFormat: internalFormat,
		Width:          img.Width,
		Height:         img.Height,
		MinFilter:      gl.LINEAR_MIPMAP_LINEAR,
		Wrap:           gl.REPEAT,
		Format:         gl.RGBA,
		Data:           img.Pix,
		GenerateMipmap: true,
		Label:          label,
	})
}

func loadImage(name string) (*libio.IntImage, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := libio.DecodeTexture(f)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	return img, nil
}

// LoadMaterial reads all five textures from dir. The material is named after the directory.
func LoadMaterial(dir string) (*Material, error) {
	name := filepath.Base(dir)
	mat := &Material{Name: name}
	files := []struct {
		file   string
		format uint32
		dst    *libgl.UnboundTexture
	}{
		{AlbedoFile, gl.SRGB8_ALPHA8, &mat.Albedo},
		{MetallicFile, gl.RGBA8, &mat.Metallic},
		{NormalFile, gl.RGBA8, &mat.Normal},
		{RoughnessFile, gl.RGBA8, &mat.Roughness},
		{AoFile, gl.RGBA8, &mat.Ao},
	}

	// decode everything before creating any texture
	images := make([]*libio.IntImage, len(files))
	for i, f := range files {
		img, err := loadImage(filepath.Join(dir, f.file))
		if err != nil {
			return nil, fmt.Errorf("could not load material %q: %w", name, err)
		}
		images[i] = img
	}

	for i, f := range files {
		*f.dst = uploadTexture(images[i], f.format, name+" "+f.file)
	}
	return mat, nil
}

// Surface holds constant material parameters
type Surface struct {
	Albedo    mgl32.Vec3
	Metallic  float32
	Roughness float32
	Ao        float32
}

// FallbackSurface is used when a material can not be loaded
var FallbackSurface = Surface{
	Albedo:    mgl32.Vec3{0.5, 0.5, 0.5},
	Metallic:  0.0,
	Roughness: 0.5,
	Ao:        1.0,
}

func solidTexture(r, g, b float32, internalFormat uint32, label string) libgl.UnboundTexture {
	return libgl.CreateTexture(libgl.TextureOptions{
		InternalFormat: internalFormat,
		Width:          1,
		Height:         1,
		Levels:         1,
		Wrap:           gl.REPEAT,
		Format:         gl.RGBA,
		Data:           []float32{r, g, b, 1},
		Label:          label,
	})
}

// NewSolidMaterial creates 1x1 textures for constant parameters. Albedo is given in linear space.
func NewSolidMaterial(name string, surface Surface) *Material {
	srgb := func(v float32) float32 {
		return math32.Pow(mgl32.Clamp(v, 0, 1), 1/2.2)
	}
	return &Material{
		Name:      name,
		Albedo:    solidTexture(srgb(surface.Albedo[0]), srgb(surface.Albedo[1]), srgb(surface.Albedo[2]), gl.SRGB8_ALPHA8, name+" albedo"),
		Metallic:  solidTexture(surface.Metallic, surface.Metallic, surface.Metallic, gl.RGBA8, name+" metallic"),
		Normal:    solidTexture(0.5, 0.5, 1.0, gl.RGBA8, name+" normal"),
		Roughness: solidTexture(surface.Roughness, surface.Roughness, surface.Roughness, gl.RGBA8, name+" roughness"),
		Ao:        solidTexture(surface.Ao, surface.Ao, surface.Ao, gl.RGBA8, name+" ao"),
	}
}

// LoadMaterialOrFallback logs a failing material and replaces it with FallbackSurface
func LoadMaterialOrFallback(dir string) *Material {
	mat, err := LoadMaterial(dir)
	if err != nil {
		log.Printf("using fallback material: %v", err)
		return NewSolidMaterial(filepath.Base(dir), FallbackSurface)
	}
	return mat
}

// LoadMaterials loads every directory, see LoadMaterialOrFallback
func LoadMaterials(dirs []string) []*Material {
	materials := make([]*Material, 0, len(dirs))
	for _, dir := range dirs {
		materials = append(materials, LoadMaterialOrFallback(dir))
	}
	return materials
}

// DeleteMaterials releases all materials
func DeleteMaterials(materials []*Material) {
	deleters := make([]libutil.Deleter, len(materials))
	for i, mat := range materials {
		deleters[i] = mat
	}
	libutil.DeleteAll(deleters)
}
