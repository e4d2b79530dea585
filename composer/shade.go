package composer

import (
	"advanced-ibl/ibl"
	"advanced-ibl/libio"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Ambient provides the image based lighting inputs of Shade
type Ambient interface {
	Irradiance(n mgl32.Vec3) mgl32.Vec3
	Prefiltered(r mgl32.Vec3, lod float32) mgl32.Vec3
	Brdf(ndotv, roughness float32) (scale, bias float32)
	PrefilterLevels() int
}

// SoftwareAmbient samples precomputed maps in main memory
type SoftwareAmbient struct {
	IrradianceMap  *ibl.IblEnv
	PrefilteredMap *ibl.IblEnv
	BrdfLut        *libio.FloatImage
}

func NewSoftwareAmbient(pre *ibl.Precomputed) *SoftwareAmbient {
	return &SoftwareAmbient{
		IrradianceMap:  pre.Irradiance,
		PrefilteredMap: pre.Prefiltered,
		BrdfLut:        pre.BrdfLut,
	}
}

func (a *SoftwareAmbient) Irradiance(n mgl32.Vec3) mgl32.Vec3 {
	return a.IrradianceMap.Sample(0, n)
}

func (a *SoftwareAmbient) Prefiltered(r mgl32.Vec3, lod float32) mgl32.Vec3 {
	return a.PrefilteredMap.SampleLod(lod, r)
}

func (a *SoftwareAmbient) Brdf(ndotv, roughness float32) (scale, bias float32) {
	return ibl.SampleBrdfLut(a.BrdfLut, ndotv, roughness)
}

func (a *SoftwareAmbient) PrefilterLevels() int {
	return a.PrefilteredMap.Levels
}

func distributionGGX(ndoth, roughness float32) float32 {
	a := roughness * roughness
	a2 := a * a
	denom := ndoth*ndoth*(a2-1.0) + 1.0
	return a2 / (math32.Pi * denom * denom)
}

func geometrySchlickGGX(ndotv, roughness float32) float32 {
	// k for direct lighting
	r := roughness + 1.0
	k := (r * r) / 8.0
	return ndotv / (ndotv*(1.0-k) + k)
}

func geometrySmith(ndotv, ndotl, roughness float32) float32 {
	return geometrySchlickGGX(ndotv, roughness) * geometrySchlickGGX(ndotl, roughness)
}

func fresnelSchlick(cosTheta float32, f0 mgl32.Vec3) mgl32.Vec3 {
	f := math32.Pow(mgl32.Clamp(1.0-cosTheta, 0.0, 1.0), 5.0)
	return f0.Add(mgl32.Vec3{1, 1, 1}.Sub(f0).Mul(f))
}

func fresnelSchlickRoughness(cosTheta float32, f0 mgl32.Vec3, roughness float32) mgl32.Vec3 {
	f := math32.Pow(mgl32.Clamp(1.0-cosTheta, 0.0, 1.0), 5.0)
	g := 1.0 - roughness
	upper := mgl32.Vec3{math32.Max(g, f0[0]), math32.Max(g, f0[1]), math32.Max(g, f0[2])}
	return f0.Add(upper.Sub(f0).Mul(f))
}

func mulVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Shade evaluates the scene fragment shader for one surface point.
// The result is linear HDR radiance. A nil ambient disables image based lighting.
func Shade(surface Surface, position, normal, cameraPosition mgl32.Vec3, lights []PointLight, ambient Ambient) mgl32.Vec3 {
	n := normal.Normalize()
	v := cameraPosition.Sub(position).Normalize()
	ndotv := math32.Max(n.Dot(v), 0.0)

	one := mgl32.Vec3{1, 1, 1}
	f0 := mgl32.Vec3{0.04, 0.04, 0.04}
	f0 = f0.Mul(1.0 - surface.Metallic).Add(surface.Albedo.Mul(surface.Metallic))

	var lo mgl32.Vec3
	for i, light := range lights {
		if i >= MaxLights {
			break
		}
		toLight := light.Position.Sub(position)
		distance := toLight.Len()
		l := toLight.Mul(1.0 / distance)
		h := v.Add(l).Normalize()
		attenuation := 1.0 / (distance * distance)
		radiance := light.Color.Mul(attenuation)

		ndotl := n.Dot(l)
		if ndotl <= 0 {
			continue
		}
		ndf := distributionGGX(math32.Max(n.Dot(h), 0.0), surface.Roughness)
		g := geometrySmith(ndotv, ndotl, surface.Roughness)
		f := fresnelSchlick(math32.Max(h.Dot(v), 0.0), f0)

		specular := f.Mul(ndf * g / (4.0*ndotv*ndotl + 0.0001))
		kD := one.Sub(f).Mul(1.0 - surface.Metallic)
		diffuse := mulVec3(kD, surface.Albedo).Mul(1.0 / math32.Pi)

		lo = lo.Add(mulVec3(diffuse.Add(specular), radiance).Mul(ndotl))
	}

	if ambient == nil {
		return lo
	}

	kS := fresnelSchlickRoughness(ndotv, f0, surface.Roughness)
	kD := one.Sub(kS).Mul(1.0 - surface.Metallic)
	diffuse := mulVec3(ambient.Irradiance(n), surface.Albedo)

	r := n.Mul(2.0 * n.Dot(v)).Sub(v)
	lod := surface.Roughness * float32(ambient.PrefilterLevels()-1)
	prefiltered := ambient.Prefiltered(r, lod)
	scale, bias := ambient.Brdf(ndotv, surface.Roughness)
	specular := mulVec3(prefiltered, kS.Mul(scale).Add(mgl32.Vec3{bias, bias, bias}))

	amb := mulVec3(kD, diffuse).Add(specular).Mul(surface.Ao)
	return amb.Add(lo)
}
