package opengl

import "github.com/Faultbox/daedalus/internal/engine/gpu"

// Window is the part of the platform window the surface needs.
type Window interface {
	SwapBuffers()
	DrawableSize() (int, int)
	Minimized() bool
}

// Surface presents to the default framebuffer of a window.
type Surface struct {
	win           Window
	width, height int
}

// NewSurface creates a surface sized to the window's drawable.
func NewSurface(win Window) *Surface {
	w, h := win.DrawableSize()
	return &Surface{win: win, width: w, height: h}
}

// NextDrawable returns the window's back buffer, or gpu.ErrNoDrawable while
// the window is minimized or has no area.
func (s *Surface) NextDrawable() (gpu.Drawable, error) {
	if s.win.Minimized() || s.width <= 0 || s.height <= 0 {
		return nil, gpu.ErrNoDrawable
	}
	return &drawable{surface: s, width: s.width, height: s.height}, nil
}

// Resize sets the drawable size in pixels.
func (s *Surface) Resize(width, height int) {
	s.width, s.height = width, height
}

type drawable struct {
	surface       *Surface
	width, height int
}

func (d *drawable) Size() (int, int) { return d.width, d.height }
