// Package lighting holds the scene's directional and point lights and packs
// them for the forward shader.
package lighting

import (
	"github.com/Faultbox/daedalus/internal/engine/shadertypes"
	"github.com/Faultbox/daedalus/pkg/math"
)

// MaxPointLights is the maximum number of point lights supported in shaders.
const MaxPointLights = shadertypes.MaxPointLights

// DirectionalLight is a light at infinity shining from Position towards the
// origin.
type DirectionalLight struct {
	Position math.Vec3
	Color    math.Vec3
}

// Attenuation holds the falloff coefficients 1 / (c + l*d + q*d^2), applied
// per fragment by the forward shader.
type Attenuation struct {
	Constant  float32
	Linear    float32
	Quadratic float32
}

// PointLight is an omnidirectional light with distance falloff.
type PointLight struct {
	Position    math.Vec3
	Color       math.Vec3
	Attenuation Attenuation
}

// Set is the lights of a scene: one sun and an ordered list of point lights.
type Set struct {
	Sun    DirectionalLight
	points []PointLight
}

// NewSet creates a set lit by sun.
func NewSet(sun DirectionalLight) *Set {
	return &Set{Sun: sun}
}

// Default returns a white sun above and behind the origin and one red point
// light at the default camera position.
func Default() *Set {
	s := NewSet(DirectionalLight{
		Position: math.Vec3{X: 0, Y: 30, Z: 30},
		Color:    math.Vec3{X: 1, Y: 1, Z: 1},
	})
	s.AddPoint(PointLight{
		Position:    math.Vec3{X: 0, Y: 0, Z: 3},
		Color:       math.Vec3{X: 1, Y: 0, Z: 0},
		Attenuation: Attenuation{Constant: 0.5, Linear: 2, Quadratic: 1},
	})
	return s
}

// AddPoint appends a point light.
func (s *Set) AddPoint(l PointLight) {
	s.points = append(s.points, l)
}

// Points returns the point lights in insertion order.
func (s *Set) Points() []PointLight {
	return s.points
}

// Dropped returns how many point lights exceed the shader limit and are
// not uploaded.
func (s *Set) Dropped() int {
	return max(0, len(s.points)-MaxPointLights)
}

// SunBytes packs the directional light block.
func (s *Set) SunBytes() []byte {
	gpu := shadertypes.DirectionalLight{Position: s.Sun.Position, Color: s.Sun.Color}
	return gpu.Bytes()
}

// PointBytes packs the point light array block and returns how many lights
// it holds.
func (s *Set) PointBytes() ([]byte, uint32) {
	gpu := make([]shadertypes.PointLight, len(s.points))
	for i, l := range s.points {
		gpu[i] = shadertypes.PointLight{
			Position: l.Position,
			Color:    l.Color,
			Attenuation: math.Vec3{
				X: l.Attenuation.Constant,
				Y: l.Attenuation.Linear,
				Z: l.Attenuation.Quadratic,
			},
		}
	}
	return shadertypes.PointLightsBytes(gpu)
}
