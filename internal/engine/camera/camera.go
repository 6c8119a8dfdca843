// Package camera provides the first-person camera and its input controller.
package camera

import (
	"github.com/Faultbox/daedalus/pkg/math"
)

// MaxPitch is the pitch limit in radians (89 degrees) in either direction.
var MaxPitch = math.Radians(89)

// FirstPerson is a yaw/pitch camera with a perspective projection.
// Angles are in radians.
type FirstPerson struct {
	Position math.Vec3
	Yaw      float32
	Pitch    float32
	FOV      float32
	Aspect   float32
	Near     float32
	Far      float32
}

// NewFirstPerson creates a camera. Angles are given in degrees.
func NewFirstPerson(position math.Vec3, yawDeg, pitchDeg, fovDeg, aspect, near, far float32) *FirstPerson {
	c := &FirstPerson{
		Position: position,
		Yaw:      math.Radians(yawDeg),
		Pitch:    math.Radians(pitchDeg),
		FOV:      math.Radians(fovDeg),
		Aspect:   aspect,
		Near:     near,
		Far:      far,
	}
	c.clampPitch()
	return c
}

// Direction returns the unit view direction.
func (c *FirstPerson) Direction() math.Vec3 {
	sinPitch, cosPitch := math.SinCos(c.Pitch)
	sinYaw, cosYaw := math.SinCos(c.Yaw)
	return math.Vec3{X: cosPitch * cosYaw, Y: sinPitch, Z: cosPitch * sinYaw}.Normalize()
}

// ViewMatrix returns the view matrix for this camera.
func (c *FirstPerson) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	return math.LookAt(c.Position, c.Position.Add(c.Direction()), up)
}

// ProjectionMatrix returns the perspective projection matrix.
func (c *FirstPerson) ProjectionMatrix() math.Mat4 {
	return math.Perspective(c.FOV, c.Aspect, c.Near, c.Far)
}

// SetAspect updates the aspect ratio from a surface size. Zero sizes are
// ignored.
func (c *FirstPerson) SetAspect(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

func (c *FirstPerson) clampPitch() {
	c.Pitch = math.Clamp(c.Pitch, -MaxPitch, MaxPitch)
}
