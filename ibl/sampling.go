package ibl

import (
	"advanced-ibl/libio"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// sample is a direction in tangent space with z along the normal.
// The layout matches a float4 in the OpenCL kernels.
type sample struct {
	x, y, z float32
	weight  float32
}

// 1/(2pi), 1/pi
var invAtan = [2]float32{0.15915494309, 0.31830988618}

// equirectUV maps a normalized direction to equirectangular coordinates with v = 0 at the bottom
func equirectUV(dir mgl32.Vec3) (u, v float32) {
	u, v = math32.Atan2(dir[2], dir[0]), math32.Asin(mgl32.Clamp(dir[1], -1.0, 1.0))
	u = u*invAtan[0] + 0.5
	v = v*invAtan[1] + 0.5
	return u, v
}

func sampleEquirect(img *libio.FloatImage, dir mgl32.Vec3) mgl32.Vec3 {
	u, v := equirectUV(dir)
	return sampleBilinear(img.Width, img.Height, img.Channels, img.Pix, u, v)
}

func sampleCube(env *IblEnv, level int, dir mgl32.Vec3) mgl32.Vec3 {
	face, s, t := DirectionFace(dir)
	size := env.Size(level)
	return sampleBilinear(size, size, 3, env.Face(level, face), s, t)
}

// sampleBilinear filters the first three channels of pix at u, v in [0, 1], clamped to the edge texels
func sampleBilinear(w, h int, channels int, pix []float32, u, v float32) mgl32.Vec3 {
	// -0.5 to adjust for the pixel center offset
	u = u*float32(w) - 0.5
	v = v*float32(h) - 0.5
	ufloor, vfloor := math32.Floor(u), math32.Floor(v)
	ufrac, vfrac := u-ufloor, v-vfloor
	u0, v0 := int(ufloor), int(vfloor)
	u1, v1 := u0+1, v0+1

	if u0 < 0 {
		u0, u1, ufrac = 0, 0, 0
	} else if u1 >= w {
		u0, u1, ufrac = w-1, w-1, 0
	}
	if v0 < 0 {
		v0, v1, vfrac = 0, 0, 0
	} else if v1 >= h {
		v0, v1, vfrac = h-1, h-1, 0
	}

	colstride := channels
	rowstride := channels * w

	o00 := v0*rowstride + u0*colstride
	o10 := v0*rowstride + u1*colstride
	o01 := v1*rowstride + u0*colstride
	o11 := v1*rowstride + u1*colstride

	var result mgl32.Vec3
	for c := 0; c < 3 && c < channels; c++ {
		h0 := pix[o00+c]*(1.0-ufrac) + pix[o10+c]*ufrac
		h1 := pix[o01+c]*(1.0-ufrac) + pix[o11+c]*ufrac
		result[c] = h0*(1.0-vfrac) + h1*vfrac
	}
	return result
}

func radicalInverseVdC(bits uint32) float32 {
	bits = (bits << 16) | (bits >> 16)
	bits = ((bits & 0x55555555) << 1) | ((bits & 0xAAAAAAAA) >> 1)
	bits = ((bits & 0x33333333) << 2) | ((bits & 0xCCCCCCCC) >> 2)
	bits = ((bits & 0x0F0F0F0F) << 4) | ((bits & 0xF0F0F0F0) >> 4)
	bits = ((bits & 0x00FF00FF) << 8) | ((bits & 0xFF00FF00) >> 8)
	return float32(bits) * 2.3283064365386963e-10 // / 0x100000000
}

func hammersley(i, n uint32) (x, y float32) {
	return float32(i) / float32(n), radicalInverseVdC(i)
}

func generateHammersleySequence(count int) [][2]float32 {
	samples := make([][2]float32, count)
	for i := 0; i < count; i++ {
		samples[i][0], samples[i][1] = hammersley(uint32(i), uint32(count))
	}
	return samples
}

// importanceSampleGGX returns a half vector in tangent space distributed by the GGX NDF
func importanceSampleGGX(su, sv float32, roughness float32) mgl32.Vec3 {
	a := roughness * roughness

	phi := 2.0 * math32.Pi * su
	cosTheta := math32.Sqrt((1.0 - sv) / (1.0 + (a*a-1.0)*sv))
	sinTheta := math32.Sqrt(math32.Max(0.0, 1.0-cosTheta*cosTheta))

	return mgl32.Vec3{math32.Cos(phi) * sinTheta, math32.Sin(phi) * sinTheta, cosTheta}
}

// tangentFrame builds an orthonormal basis around n.
// up is used as reference unless n is almost parallel to it, then alt is used.
func tangentFrame(n, up, alt mgl32.Vec3) (tangent, bitangent mgl32.Vec3) {
	if math32.Abs(n.Dot(up)) >= 0.999 {
		up = alt
	}
	tangent = up.Cross(n).Normalize()
	bitangent = n.Cross(tangent)
	return
}

func irradianceFrame(n mgl32.Vec3) (right, up mgl32.Vec3) {
	return tangentFrame(n, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1})
}

func specularFrame(n mgl32.Vec3) (tangent, bitangent mgl32.Vec3) {
	return tangentFrame(n, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0})
}

func (s sample) toWorld(tangent, bitangent, n mgl32.Vec3) mgl32.Vec3 {
	return tangent.Mul(s.x).Add(bitangent.Mul(s.y)).Add(n.Mul(s.z))
}

// irradianceGrid returns the hemisphere subdivision for an angular step.
// The step is shrunk so the grid tiles the hemisphere exactly.
func irradianceGrid(step float32) (nTheta, nPhi int) {
	nTheta = int(math32.Ceil((math32.Pi / 2.0) / step))
	nPhi = int(math32.Ceil((2.0 * math32.Pi) / step))
	return
}

// generateIrradianceSamples places one sample in the middle of every grid cell, weighted by cos(theta) * sin(theta)
func generateIrradianceSamples(step float32) []sample {
	nTheta, nPhi := irradianceGrid(step)
	dTheta := (math32.Pi / 2.0) / float32(nTheta)
	dPhi := (2.0 * math32.Pi) / float32(nPhi)

	samples := make([]sample, 0, nTheta*nPhi)
	for p := 0; p < nPhi; p++ {
		phi := (float32(p) + 0.5) * dPhi
		for r := 0; r < nTheta; r++ {
			theta := (float32(r) + 0.5) * dTheta
			sinTheta, cosTheta := math32.Sincos(theta)
			samples = append(samples, sample{
				x:      sinTheta * math32.Cos(phi),
				y:      sinTheta * math32.Sin(phi),
				z:      cosTheta,
				weight: cosTheta * sinTheta,
			})
		}
	}
	return samples
}

// generateSpecularSamples returns the GGX half vectors per level.
// Roughness 0 only requires a single sample along the normal.
func generateSpecularSamples(count int, levels int) [][]sample {
	// store all samples in contiguous memory
	samples := make([]sample, count*(levels-1)+1)
	sliced := make([][]sample, levels)
	samples[0] = sample{x: 0, y: 0, z: 1, weight: 1}
	sliced[0] = samples[0:1:1]
	i := 1

	seq := generateHammersleySequence(count)
	for l := 1; l < levels; l++ {
		start := i
		roughness := float32(l) / float32(levels-1)
		for _, xi := range seq {
			h := importanceSampleGGX(xi[0], xi[1], roughness)
			samples[i] = sample{x: h[0], y: h[1], z: h[2], weight: 1}
			i++
		}
		sliced[l] = samples[start:i:i]
	}
	return sliced
}

// prefilter integrates the environment around n with the given half vectors, assuming n = v
func prefilter(env *IblEnv, n mgl32.Vec3, samples []sample) mgl32.Vec3 {
	if len(samples) == 1 {
		return sampleCube(env, 0, n)
	}
	tangent, bitangent := specularFrame(n)

	var color mgl32.Vec3
	var totalWeight float32
	for _, s := range samples {
		h := s.toWorld(tangent, bitangent, n).Normalize()
		l := h.Mul(2.0 * n.Dot(h)).Sub(n).Normalize()
		ndotl := n.Dot(l)
		if ndotl > 0 {
			color = color.Add(sampleCube(env, 0, l).Mul(ndotl))
			totalWeight += ndotl
		}
	}
	if totalWeight == 0 {
		return color
	}
	return color.Mul(1.0 / totalWeight)
}

func irradiance(env *IblEnv, n mgl32.Vec3, samples []sample) mgl32.Vec3 {
	right, up := irradianceFrame(n)
	var color mgl32.Vec3
	for _, s := range samples {
		dir := s.toWorld(right, up, n)
		color = color.Add(sampleCube(env, 0, dir).Mul(s.weight))
	}
	return color.Mul(math32.Pi / float32(len(samples)))
}

func geometrySchlickGGX(ndotv, roughness float32) float32 {
	// k for image based lighting
	k := (roughness * roughness) / 2.0
	return ndotv / (ndotv*(1.0-k) + k)
}

func geometrySmith(ndotv, ndotl, roughness float32) float32 {
	return geometrySchlickGGX(ndotv, roughness) * geometrySchlickGGX(ndotl, roughness)
}

// integrateBrdf returns the split sum scale and bias for F0
func integrateBrdf(ndotv, roughness float32, seq [][2]float32) (scale, bias float32) {
	v := mgl32.Vec3{math32.Sqrt(1.0 - ndotv*ndotv), 0.0, ndotv}
	n := mgl32.Vec3{0.0, 0.0, 1.0}
	tangent, bitangent := specularFrame(n)

	for _, xi := range seq {
		hs := importanceSampleGGX(xi[0], xi[1], roughness)
		h := tangent.Mul(hs[0]).Add(bitangent.Mul(hs[1])).Add(n.Mul(hs[2])).Normalize()
		l := h.Mul(2.0 * v.Dot(h)).Sub(v).Normalize()

		ndotl := math32.Max(l[2], 0.0)
		ndoth := math32.Max(h[2], 0.0)
		vdoth := math32.Max(v.Dot(h), 0.0)

		if ndotl > 0.0 {
			g := geometrySmith(ndotv, ndotl, roughness)
			gVis := (g * vdoth) / (ndoth * ndotv)
			fc := math32.Pow(1.0-vdoth, 5.0)

			scale += (1.0 - fc) * gVis
			bias += fc * gVis
		}
	}
	count := float32(len(seq))
	return scale / count, bias / count
}

// Sample filters level bilinearly at dir
func (env *IblEnv) Sample(level int, dir mgl32.Vec3) mgl32.Vec3 {
	return sampleCube(env, level, dir)
}

// SampleLod filters between the two levels around lod, like textureLod on a cube map
func (env *IblEnv) SampleLod(lod float32, dir mgl32.Vec3) mgl32.Vec3 {
	lod = mgl32.Clamp(lod, 0, float32(env.Levels-1))
	l0 := int(lod)
	if l0 >= env.Levels-1 {
		return sampleCube(env, env.Levels-1, dir)
	}
	f := lod - float32(l0)
	c0 := sampleCube(env, l0, dir)
	if f == 0 {
		return c0
	}
	c1 := sampleCube(env, l0+1, dir)
	return c0.Mul(1 - f).Add(c1.Mul(f))
}

// SampleBrdfLut filters the split sum lookup table at NdotV, roughness
func SampleBrdfLut(lut *libio.FloatImage, ndotv, roughness float32) (scale, bias float32) {
	c := sampleBilinear(lut.Width, lut.Height, lut.Channels, lut.Pix, ndotv, roughness)
	return c[0], c[1]
}
