package camera

import (
	"github.com/Faultbox/daedalus/pkg/math"
)

// Key is a movement key.
type Key int

// Movement keys.
const (
	KeyForward Key = iota
	KeyBackward
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
)

// ScrollUnit tells how a scroll delta is measured.
type ScrollUnit int

// Scroll units.
const (
	ScrollLines ScrollUnit = iota
	ScrollPixels
)

// ScrollDelta is a raw wheel or touchpad scroll.
type ScrollDelta struct {
	Unit ScrollUnit
	Y    float32
}

// Controller turns accumulated input into camera motion.
type Controller struct {
	Speed       float32
	Sensitivity float32

	forward, backward float32
	left, right       float32
	up, down          float32

	rotateHorizontal float32
	rotateVertical   float32
	scroll           float32
}

// NewController creates a controller.
func NewController(speed, sensitivity float32) *Controller {
	return &Controller{Speed: speed, Sensitivity: sensitivity}
}

// HandleKeyboard sets the movement amount for key to 1 while pressed and 0
// once released.
func (c *Controller) HandleKeyboard(key Key, pressed bool) {
	var amount float32
	if pressed {
		amount = 1
	}
	switch key {
	case KeyForward:
		c.forward = amount
	case KeyBackward:
		c.backward = amount
	case KeyLeft:
		c.left = amount
	case KeyRight:
		c.right = amount
	case KeyUp:
		c.up = amount
	case KeyDown:
		c.down = amount
	}
}

// HandleMouse adds raw mouse motion. Deltas add up until the next Update.
func (c *Controller) HandleMouse(dx, dy float32) {
	c.rotateHorizontal += dx
	c.rotateVertical += dy
}

// HandleScroll adds a scroll delta; positive wheel motion moves the camera
// backwards. Line deltas count half a unit per line.
func (c *Controller) HandleScroll(d ScrollDelta) {
	switch d.Unit {
	case ScrollLines:
		c.scroll += -(d.Y * 0.5)
	case ScrollPixels:
		c.scroll += -d.Y
	}
}

// Update applies the accumulated input to cam over dt seconds. In order:
// planar translation, zoom along the view direction, vertical translation,
// rotation, then the pitch clamp. Scroll and rotation are consumed; key
// states persist until released.
func (c *Controller) Update(cam *FirstPerson, dt float32) {
	sinYaw, cosYaw := math.SinCos(cam.Yaw)
	forward := math.Vec3{X: cosYaw, Y: 0, Z: sinYaw}.Normalize()
	right := math.Vec3{X: -sinYaw, Y: 0, Z: cosYaw}.Normalize()
	cam.Position = cam.Position.
		Add(forward.Scale((c.forward - c.backward) * c.Speed * dt)).
		Add(right.Scale((c.right - c.left) * c.Speed * dt))

	sinPitch, cosPitch := math.SinCos(cam.Pitch)
	scrollward := math.Vec3{X: cosPitch * cosYaw, Y: sinPitch, Z: cosPitch * sinYaw}.Normalize()
	cam.Position = cam.Position.Add(scrollward.Scale(c.scroll * c.Speed * c.Sensitivity * dt))
	c.scroll = 0

	cam.Position.Y += (c.up - c.down) * c.Speed * dt

	cam.Yaw += math.Radians(c.rotateHorizontal) * c.Sensitivity * dt
	cam.Pitch -= math.Radians(c.rotateVertical) * c.Sensitivity * dt
	c.rotateHorizontal = 0
	c.rotateVertical = 0

	cam.clampPitch()
}
