package libgl

import (
	"strings"

	"github.com/go-gl/gl/v4.5-core/gl"
)

var Env *GlEnvironment

type GlEnvironment struct {
	Vendor                     string
	Renderer                   string
	Version                    string
	UseIntelTextureBindingFix  bool
	UseIntelCubemapDsaFix      bool
	IntelTextureBindingTargets map[uint32]uint32
	Features                   GlFeatures
}

type GlFeatures struct {
	MaxTextureMaxAnisotropy float32
	MaxTextureSize          int32
	MaxCubeMapTextureSize   int32
}

const (
	VendorIntel   = "intel"
	VendorNvidia  = "nvidia"
	VendorAmd     = "ati"
	VendorUnknown = "unknown"
)

func GetGlEnv() *GlEnvironment {
	vendor := strings.ToLower(gl.GoStr(gl.GetString(gl.VENDOR)))
	if strings.Contains(vendor, "intel") {
		vendor = VendorIntel
	} else if strings.Contains(vendor, "nvidia") {
		vendor = VendorNvidia
	} else if strings.Contains(vendor, "ati ") || strings.Contains(vendor, "amd") {
		vendor = VendorAmd
	} else {
		vendor = VendorUnknown
	}

	features := GlFeatures{}
	gl.GetFloatv(gl.MAX_TEXTURE_MAX_ANISOTROPY, &features.MaxTextureMaxAnisotropy)
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &features.MaxTextureSize)
	gl.GetIntegerv(gl.MAX_CUBE_MAP_TEXTURE_SIZE, &features.MaxCubeMapTextureSize)

	return &GlEnvironment{
		Vendor:                     vendor,
		Renderer:                   gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:                    gl.GoStr(gl.GetString(gl.VERSION)),
		UseIntelTextureBindingFix:  vendor == VendorIntel,
		UseIntelCubemapDsaFix:      vendor == VendorIntel,
		IntelTextureBindingTargets: map[uint32]uint32{},
		Features:                   features,
	}
}

// Init sets up the package state for the current context.
// The context must be current and the function pointers loaded.
func Init() {
	Env = GetGlEnv()
	State = NewGlStateManager()
	State.Enable(TextureCubeMapSeamless)
}
