package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/daedalus/internal/engine/camera"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name  string
		event sdl.Event
		want  Event
		ok    bool
	}{
		{"quit", &sdl.QuitEvent{Type: sdl.QUIT}, Event{Type: EventQuit}, true},
		{
			"key down",
			&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_W}},
			Event{Type: EventKeyDown, Key: sdl.SCANCODE_W},
			true,
		},
		{
			"key up",
			&sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_A}},
			Event{Type: EventKeyUp, Key: sdl.SCANCODE_A},
			true,
		},
		{
			"key repeat",
			&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Repeat: 1, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_W}},
			Event{},
			false,
		},
		{
			"motion",
			&sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, X: 10, Y: 20, XRel: 3, YRel: -4},
			Event{Type: EventMouseMove, MouseX: 10, MouseY: 20, DeltaX: 3, DeltaY: -4},
			true,
		},
		{
			"right button",
			&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_RIGHT, X: 1, Y: 2},
			Event{Type: EventMouseDown, Button: sdl.BUTTON_RIGHT, MouseX: 1, MouseY: 2},
			true,
		},
		{
			"wheel",
			&sdl.MouseWheelEvent{Type: sdl.MOUSEWHEEL, Y: 2, Direction: sdl.MOUSEWHEEL_NORMAL},
			Event{Type: EventMouseWheel, WheelY: 2},
			true,
		},
		{
			"flipped wheel",
			&sdl.MouseWheelEvent{Type: sdl.MOUSEWHEEL, Y: 2, Direction: sdl.MOUSEWHEEL_FLIPPED},
			Event{Type: EventMouseWheel, WheelY: -2},
			true,
		},
		{
			"resize",
			&sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_SIZE_CHANGED, Data1: 800, Data2: 600},
			Event{Type: EventWindowResize, Width: 800, Height: 600},
			true,
		},
		{
			"focus",
			&sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_FOCUS_GAINED},
			Event{},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Translate(tt.event)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMovementKey(t *testing.T) {
	tests := []struct {
		sc   sdl.Scancode
		want camera.Key
	}{
		{sdl.SCANCODE_W, camera.KeyForward},
		{sdl.SCANCODE_UP, camera.KeyForward},
		{sdl.SCANCODE_S, camera.KeyBackward},
		{sdl.SCANCODE_DOWN, camera.KeyBackward},
		{sdl.SCANCODE_A, camera.KeyLeft},
		{sdl.SCANCODE_LEFT, camera.KeyLeft},
		{sdl.SCANCODE_D, camera.KeyRight},
		{sdl.SCANCODE_RIGHT, camera.KeyRight},
		{sdl.SCANCODE_SPACE, camera.KeyUp},
		{sdl.SCANCODE_LSHIFT, camera.KeyDown},
	}
	for _, tt := range tests {
		got, ok := MovementKey(tt.sc)
		assert.True(t, ok, "scancode %d", tt.sc)
		assert.Equal(t, tt.want, got, "scancode %d", tt.sc)
	}

	_, ok := MovementKey(sdl.SCANCODE_Q)
	assert.False(t, ok)
}

func TestScroll(t *testing.T) {
	e := Event{Type: EventMouseWheel, WheelY: 3}
	assert.Equal(t, camera.ScrollDelta{Unit: camera.ScrollLines, Y: 3}, e.Scroll())
}
