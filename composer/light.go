package composer

import "github.com/go-gl/mathgl/mgl32"

// MaxLights is the size of the light arrays in the scene shader
const MaxLights = 4

// PointLight radiates Color, which already includes the intensity, falling off with 1/d²
type PointLight struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

func DefaultLights() []PointLight {
	return []PointLight{
		{Position: mgl32.Vec3{20, 3, 20}, Color: mgl32.Vec3{300, 300, 300}},
		{Position: mgl32.Vec3{-20, 3, 20}, Color: mgl32.Vec3{300, 300, 300}},
		{Position: mgl32.Vec3{20, 3, -20}, Color: mgl32.Vec3{300, 300, 300}},
		{Position: mgl32.Vec3{-20, 3, -20}, Color: mgl32.Vec3{300, 300, 300}},
	}
}
