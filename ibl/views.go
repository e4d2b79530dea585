package ibl

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// CaptureProjection covers exactly one cube map face
var CaptureProjection = mgl32.Perspective(mgl32.DegToRad(90.0), 1.0, 0.1, 10.0)

// CaptureViews look from the origin at each face in GL face order.
// Combined with CaptureProjection, NDC x and y map to the face coordinates s and t.
var CaptureViews = [6]mgl32.Mat4{
	mgl32.LookAtV(mgl32.Vec3{0.0, 0.0, 0.0}, mgl32.Vec3{1.0, 0.0, 0.0}, mgl32.Vec3{0.0, -1.0, 0.0}),
	mgl32.LookAtV(mgl32.Vec3{0.0, 0.0, 0.0}, mgl32.Vec3{-1.0, 0.0, 0.0}, mgl32.Vec3{0.0, -1.0, 0.0}),
	mgl32.LookAtV(mgl32.Vec3{0.0, 0.0, 0.0}, mgl32.Vec3{0.0, 1.0, 0.0}, mgl32.Vec3{0.0, 0.0, 1.0}),
	mgl32.LookAtV(mgl32.Vec3{0.0, 0.0, 0.0}, mgl32.Vec3{0.0, -1.0, 0.0}, mgl32.Vec3{0.0, 0.0, -1.0}),
	mgl32.LookAtV(mgl32.Vec3{0.0, 0.0, 0.0}, mgl32.Vec3{0.0, 0.0, 1.0}, mgl32.Vec3{0.0, -1.0, 0.0}),
	mgl32.LookAtV(mgl32.Vec3{0.0, 0.0, 0.0}, mgl32.Vec3{0.0, 0.0, -1.0}, mgl32.Vec3{0.0, -1.0, 0.0}),
}

// FaceDirection returns the normalized direction through s, t in [0, 1] of a face.
//
// Cube map face reference: https://www.khronos.org/opengl/wiki_opengl/images/CubeMapAxes.png
func FaceDirection(face CubeMapFace, s, t float32) mgl32.Vec3 {
	sc := 2.0*s - 1.0
	tc := 2.0*t - 1.0
	var dir mgl32.Vec3
	switch face {
	case CubeMapPositiveX:
		dir = mgl32.Vec3{1.0, -tc, -sc}
	case CubeMapNegativeX:
		dir = mgl32.Vec3{-1.0, -tc, sc}
	case CubeMapPositiveY:
		dir = mgl32.Vec3{sc, 1.0, tc}
	case CubeMapNegativeY:
		dir = mgl32.Vec3{sc, -1.0, -tc}
	case CubeMapPositiveZ:
		dir = mgl32.Vec3{sc, -tc, 1.0}
	case CubeMapNegativeZ:
		dir = mgl32.Vec3{-sc, -tc, -1.0}
	}
	return dir.Normalize()
}

// DirectionFace selects the face dir points at and the s, t coordinates of the hit, like a GL cube map lookup.
// dir does not need to be normalized.
//
// Based on: https://www.gamedev.net/forums/topic/687535-implementing-a-cube-map-lookup-function/5337472/
func DirectionFace(dir mgl32.Vec3) (face CubeMapFace, s, t float32) {
	rx, ry, rz := dir[0], dir[1], dir[2]
	ax := math32.Abs(rx)
	ay := math32.Abs(ry)
	az := math32.Abs(rz)

	var ma float32
	if ax >= ay && ax >= az {
		if rx >= 0 {
			face = CubeMapPositiveX
			s = -rz
		} else {
			face = CubeMapNegativeX
			s = rz
		}
		ma = ax
		t = -ry
	} else if ay >= az {
		if ry >= 0 {
			face = CubeMapPositiveY
			t = rz
		} else {
			face = CubeMapNegativeY
			t = -rz
		}
		ma = ay
		s = rx
	} else {
		if rz >= 0 {
			face = CubeMapPositiveZ
			s = rx
		} else {
			face = CubeMapNegativeZ
			s = -rx
		}
		ma = az
		t = -ry
	}

	s = s*0.5/ma + 0.5
	t = t*0.5/ma + 0.5
	return
}

// TexelDirection returns the direction through the center of texel x, y
func TexelDirection(face CubeMapFace, x, y, size int) mgl32.Vec3 {
	// (2x+1)/2r is the pixel center
	s := (float32(x) + 0.5) / float32(size)
	t := (float32(y) + 0.5) / float32(size)
	return FaceDirection(face, s, t)
}

// forEachTexel visits the texels of one face in storage order
func forEachTexel(face CubeMapFace, size int, cb func(x, y int, dir mgl32.Vec3, i int)) {
	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			cb(x, y, TexelDirection(face, x, y, size), i)
			i++
		}
	}
}
