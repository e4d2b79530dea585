package main

import (
	"testing"

	"advanced-ibl/config"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertVec3(t *testing.T, expected, actual mgl32.Vec3) {
	t.Helper()
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], 1e-4, "component %d of %v", i, actual)
	}
}

func TestCameraViewMatrix(t *testing.T) {
	cam := NewCamera(config.Default().Scene.Camera)
	origin := cam.ViewMatrix.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assertVec3(t, mgl32.Vec3{0, 0, -10}, origin.Vec3())
}

func TestCameraFlyFollowsYaw(t *testing.T) {
	cam := &Camera{}
	cam.Fly(mgl32.Vec3{0, 0, -1})
	assertVec3(t, mgl32.Vec3{0, 0, -1}, cam.Position)

	cam = &Camera{Orientation: mgl32.Vec3{0, 90, 0}}
	cam.Fly(mgl32.Vec3{0, 0, -1})
	assertVec3(t, mgl32.Vec3{1, 0, 0}, cam.Position)

	// the view matrix maps the flight direction back to forward
	cam.Position = mgl32.Vec3{}
	cam.UpdateViewMatrix()
	ahead := cam.ViewMatrix.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assertVec3(t, mgl32.Vec3{0, 0, -1}, ahead.Vec3())
}

func TestCameraProjectionUsesFov(t *testing.T) {
	cam := NewCamera(config.Camera{Fov: 90, Near: 0.1, Far: 100})
	cam.Resize(200, 100)
	// with a 90 degree vertical fov, y = -z lands on the top edge
	clip := cam.ProjectionMatrix.Mul4x1(mgl32.Vec4{0, 1, -1, 1})
	assert.InDelta(t, 1, clip.Y()/clip.W(), 1e-4)
	clip = cam.ProjectionMatrix.Mul4x1(mgl32.Vec4{2, 0, -1, 1})
	assert.InDelta(t, 1, clip.X()/clip.W(), 1e-4)
}

func TestCameraResizeIgnoresZero(t *testing.T) {
	cam := NewCamera(config.Default().Scene.Camera)
	cam.Resize(1600, 900)
	proj := cam.ProjectionMatrix
	cam.Resize(0, 0)
	assert.Equal(t, proj, cam.ProjectionMatrix)
	assert.Equal(t, mgl32.Vec2{1600, 900}, cam.ViewportDimension)
}
