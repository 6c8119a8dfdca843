package scene

import (
	"github.com/google/uuid"

	"github.com/Faultbox/daedalus/pkg/math"
)

// Transform places a model in the world. Rotation holds Euler angles in
// radians.
type Transform struct {
	Position math.Vec3
	Rotation math.Vec3
	Scale    math.Vec3
}

// NewTransform returns a transform at the origin with unit scale.
func NewTransform() Transform {
	return Transform{Scale: math.Vec3{X: 1, Y: 1, Z: 1}}
}

// Matrix returns Translation * RotX * RotY * RotZ * Scale.
func (t Transform) Matrix() math.Mat4 {
	return math.TranslateV(t.Position).
		Mul(math.RotateX(t.Rotation.X)).
		Mul(math.RotateY(t.Rotation.Y)).
		Mul(math.RotateZ(t.Rotation.Z)).
		Mul(math.ScaleV(t.Scale))
}

// Renderable is one model instance to draw this frame.
type Renderable struct {
	ModelID   uuid.UUID
	Transform Transform
}
