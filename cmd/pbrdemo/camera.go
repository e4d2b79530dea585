package main

import (
	"advanced-ibl/config"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const Deg2Rad = math32.Pi / 180

type Camera struct {
	Position mgl32.Vec3
	// pitch, yaw, roll in degrees
	Orientation mgl32.Vec3
	// in degrees
	VerticalFov       float32
	ViewportDimension mgl32.Vec2
	ClippingPlanes    mgl32.Vec2
	ViewMatrix        mgl32.Mat4
	ProjectionMatrix  mgl32.Mat4
}

func NewCamera(cfg config.Camera) *Camera {
	cam := &Camera{
		Position:          cfg.Position,
		Orientation:       cfg.Orientation,
		VerticalFov:       cfg.Fov,
		ViewportDimension: mgl32.Vec2{1, 1},
		ClippingPlanes:    mgl32.Vec2{cfg.Near, cfg.Far},
	}
	cam.UpdateViewMatrix()
	cam.UpdateProjectionMatrix()
	return cam
}

func (cam *Camera) UpdateViewMatrix() {
	r := cam.Quaternion()
	t := mgl32.Translate3D(-cam.Position[0], -cam.Position[1], -cam.Position[2])
	cam.ViewMatrix = r.Mat4().Mul4(t)
}

func (cam *Camera) UpdateProjectionMatrix() {
	w, h := cam.ViewportDimension[0], cam.ViewportDimension[1]
	n, f := cam.ClippingPlanes[0], cam.ClippingPlanes[1]
	cam.ProjectionMatrix = mgl32.Perspective(cam.VerticalFov*Deg2Rad, w/h, n, f)
}

// Resize updates the aspect ratio, zero sizes are ignored
func (cam *Camera) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	dim := mgl32.Vec2{float32(width), float32(height)}
	if dim == cam.ViewportDimension {
		return
	}
	cam.ViewportDimension = dim
	cam.UpdateProjectionMatrix()
}

func (cam *Camera) Quaternion() mgl32.Quat {
	return mgl32.AnglesToQuat(cam.Orientation[0]*Deg2Rad, cam.Orientation[1]*Deg2Rad, cam.Orientation[2]*Deg2Rad, mgl32.XYZ)
}

// Fly moves the camera by vec given in view space
func (cam *Camera) Fly(vec mgl32.Vec3) {
	r := cam.Quaternion()
	cam.Position = cam.Position.Add(r.Conjugate().Rotate(vec))
}
