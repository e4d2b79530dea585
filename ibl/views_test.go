package ibl_test

import (
	"math/rand"
	"testing"

	"advanced-ibl/ibl"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var faceAxes = [6]mgl32.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

func TestFaceCentersPointAlongAxes(t *testing.T) {
	for f := ibl.CubeMapPositiveX; f <= ibl.CubeMapNegativeZ; f++ {
		dir := ibl.FaceDirection(f, 0.5, 0.5)
		assert.InDelta(t, 1.0, dir.Dot(faceAxes[f]), 1e-6, "face %v", f)
	}
}

func TestFaceCornersAreCubeCorners(t *testing.T) {
	for f := ibl.CubeMapPositiveX; f <= ibl.CubeMapNegativeZ; f++ {
		for _, st := range [][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
			dir := ibl.FaceDirection(f, st[0], st[1])
			for i := 0; i < 3; i++ {
				assert.InDelta(t, 1/math32.Sqrt(3), math32.Abs(dir[i]), 1e-6, "face %v corner %v", f, st)
			}
		}
	}
}

func TestFaceDirectionRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for f := ibl.CubeMapPositiveX; f <= ibl.CubeMapNegativeZ; f++ {
		for i := 0; i < 100; i++ {
			s := 0.01 + rng.Float32()*0.98
			t_ := 0.01 + rng.Float32()*0.98
			face, rs, rt := ibl.DirectionFace(ibl.FaceDirection(f, s, t_))
			require.Equal(t, f, face)
			assert.InDelta(t, s, rs, 1e-5)
			assert.InDelta(t, t_, rt, 1e-5)
		}
	}
}

func TestTexelDirectionHitsOwnTexel(t *testing.T) {
	const size = 8
	for f := ibl.CubeMapPositiveX; f <= ibl.CubeMapNegativeZ; f++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				face, s, t_ := ibl.DirectionFace(ibl.TexelDirection(f, x, y, size))
				assert.Equal(t, f, face)
				assert.Equal(t, x, int(s*size))
				assert.Equal(t, y, int(t_*size))
			}
		}
	}
}

func TestCaptureViewsProjectToFaceCoordinates(t *testing.T) {
	for f := ibl.CubeMapPositiveX; f <= ibl.CubeMapNegativeZ; f++ {
		mvp := ibl.CaptureProjection.Mul4(ibl.CaptureViews[f])
		for _, st := range [][2]float32{{0.1, 0.2}, {0.5, 0.5}, {0.8, 0.3}, {0.25, 0.9}} {
			clip := mvp.Mul4x1(ibl.FaceDirection(f, st[0], st[1]).Vec4(1))
			require.Greater(t, clip[3], float32(0))
			assert.InDelta(t, 2*st[0]-1, clip[0]/clip[3], 1e-5, "face %v", f)
			assert.InDelta(t, 2*st[1]-1, clip[1]/clip[3], 1e-5, "face %v", f)
		}
	}
}

func insideFrustum(mvp mgl32.Mat4, dir mgl32.Vec3) bool {
	clip := mvp.Mul4x1(dir.Vec4(1))
	if clip[3] <= 0 {
		return false
	}
	x, y := clip[0]/clip[3], clip[1]/clip[3]
	return x > -1 && x < 1 && y > -1 && y < 1
}

func TestCaptureViewsCoverSphereOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 2000; i++ {
		dir := mgl32.Vec3{
			float32(rng.NormFloat64()),
			float32(rng.NormFloat64()),
			float32(rng.NormFloat64()),
		}.Normalize()

		hits := 0
		for f := ibl.CubeMapPositiveX; f <= ibl.CubeMapNegativeZ; f++ {
			if insideFrustum(ibl.CaptureProjection.Mul4(ibl.CaptureViews[f]), dir) {
				hits++
				face, _, _ := ibl.DirectionFace(dir)
				assert.Equal(t, f, face, "direction %v", dir)
			}
		}
		assert.Equal(t, 1, hits, "direction %v", dir)
	}
}

func TestEquirectUV(t *testing.T) {
	u, v := ibl.EquirectUV(mgl32.Vec3{1, 0, 0})
	assert.InDelta(t, 0.5, u, 1e-6)
	assert.InDelta(t, 0.5, v, 1e-6)

	_, v = ibl.EquirectUV(mgl32.Vec3{0, 1, 0})
	assert.InDelta(t, 1.0, v, 1e-6)
	_, v = ibl.EquirectUV(mgl32.Vec3{0, -1, 0})
	assert.InDelta(t, 0.0, v, 1e-6)

	u, _ = ibl.EquirectUV(mgl32.Vec3{0, 0, 1})
	assert.InDelta(t, 0.75, u, 1e-6)
}

func TestCubeMapFaceString(t *testing.T) {
	assert.Equal(t, "+X", ibl.CubeMapPositiveX.String())
	assert.Equal(t, "-Z", ibl.CubeMapNegativeZ.String())
	assert.Equal(t, "invalid", ibl.CubeMapFace(6).String())
}
