// Package app wires the engine together: it owns the device handles, the
// scenes with an explicit active scene, the entity world and the renderer,
// and runs the frame loop.
package app

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/daedalus/internal/config"
	"github.com/Faultbox/daedalus/internal/engine/camera"
	"github.com/Faultbox/daedalus/internal/engine/gpu"
	"github.com/Faultbox/daedalus/internal/engine/input"
	"github.com/Faultbox/daedalus/internal/engine/lighting"
	"github.com/Faultbox/daedalus/internal/engine/model"
	"github.com/Faultbox/daedalus/internal/engine/renderer"
	"github.com/Faultbox/daedalus/internal/engine/scene"
	"github.com/Faultbox/daedalus/internal/engine/shape"
	"github.com/Faultbox/daedalus/internal/engine/world"
	"github.com/Faultbox/daedalus/pkg/math"
)

// MouseGrabber switches relative mouse mode on the window.
type MouseGrabber interface {
	SetRelativeMouse(enabled bool)
}

// Context owns everything a frame touches. It replaces global lookups:
// callers pass it to update and render entry points explicitly. Each scene
// has its own world, so entities only reference that scene's models.
type Context struct {
	Queue    gpu.CommandQueue
	Uploader *model.Uploader
	Renderer *renderer.Renderer

	cfg     *config.Config
	scenes  []*scene.Scene
	worlds  []*world.World
	active  int
	looking bool
	width   int
	height  int
	log     *zap.Logger
}

// NewContext creates a context with one scene built from cfg, drawing to
// surface at the given drawable size.
func NewContext(dev gpu.Device, surface gpu.Surface, cfg *config.Config, width, height int, log *zap.Logger) (*Context, error) {
	if log == nil {
		log = zap.NewNop()
	}
	queue := dev.NewCommandQueue()

	r, err := renderer.New(dev, queue, surface, renderer.Config{
		ColorFormat: gpu.FormatBGRA8,
		ClearColor:  cfg.Graphics.ClearColor,
	}, log.Named("renderer"))
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	c := &Context{
		Queue:    queue,
		Uploader: model.NewUploader(dev, queue, log.Named("model")),
		Renderer: r,
		cfg:      cfg,
		width:    width,
		height:   height,
		log:      log,
	}
	c.AddScene()
	return c, nil
}

// AddScene appends an empty scene with an empty world, configured from the context's camera and
// lighting settings and returns its index. The active scene is unchanged.
func (c *Context) AddScene() int {
	cc := c.cfg.Camera
	aspect := float32(1)
	if c.width > 0 && c.height > 0 {
		aspect = float32(c.width) / float32(c.height)
	}
	cam := camera.NewFirstPerson(math.V3(cc.Position), cc.Yaw, cc.Pitch, cc.FOV, aspect, cc.Near, cc.Far)

	lights := lighting.NewSet(lighting.DirectionalLight{
		Position: math.V3(c.cfg.Lighting.Sun.Position),
		Color:    math.V3(c.cfg.Lighting.Sun.Color),
	})
	for _, p := range c.cfg.Lighting.PointLights {
		lights.AddPoint(lighting.PointLight{
			Position: math.V3(p.Position),
			Color:    math.V3(p.Color),
			Attenuation: lighting.Attenuation{
				Constant:  p.Attenuation[0],
				Linear:    p.Attenuation[1],
				Quadratic: p.Attenuation[2],
			},
		})
	}
	if n := lights.Dropped(); n > 0 {
		c.log.Warn("point lights beyond the shader limit are not drawn", zap.Int("dropped", n))
	}

	sc := scene.New(c.Uploader, cam, camera.NewController(cc.Speed, cc.Sensitivity), lights, c.log.Named("scene"))
	c.scenes = append(c.scenes, sc)
	c.worlds = append(c.worlds, world.New())
	return len(c.scenes) - 1
}

// Scene returns the active scene.
func (c *Context) Scene() *scene.Scene {
	return c.scenes[c.active]
}

// World returns the entities of the active scene.
func (c *Context) World() *world.World {
	return c.worlds[c.active]
}

// Active returns the index of the active scene.
func (c *Context) Active() int {
	return c.active
}

// SetActive selects the scene that receives input, updates and draws.
func (c *Context) SetActive(i int) error {
	if i < 0 || i >= len(c.scenes) {
		return fmt.Errorf("scene %d out of range (%d scenes)", i, len(c.scenes))
	}
	c.active = i
	return nil
}

// Populate loads the configured meshes and shapes into the active scene
// and spawns one entity per item. Any import failure aborts.
func (c *Context) Populate(sc config.SceneConfig) error {
	for _, m := range sc.Meshes {
		id, err := c.Scene().Load(m.Path)
		if err != nil {
			return fmt.Errorf("loading %s: %w", m.Path, err)
		}
		c.World().SpawnRenderable(id, transformFrom(m.Transform))
	}
	for _, s := range sc.Shapes {
		if s.Kind != "cube" {
			return fmt.Errorf("%w: unknown kind %q", scene.ErrInvalidShape, s.Kind)
		}
		g := shape.Cube()
		id, err := c.Scene().RegisterShape(s.Kind, g.Positions, g.Normals, g.Indices)
		if err != nil {
			return err
		}
		c.World().SpawnRenderable(id, transformFrom(s.Transform))
	}
	return nil
}

// Tick updates the active scene and renders its entities.
func (c *Context) Tick(dt time.Duration) error {
	sc := c.Scene()
	sc.Update(dt)
	return c.Renderer.Tick(sc, c.World().Renderables())
}

// Resize propagates a new drawable size to the surface and every scene.
func (c *Context) Resize(width, height int) {
	c.width, c.height = width, height
	c.Renderer.Resize(width, height)
	for _, sc := range c.scenes {
		sc.Resize(width, height)
	}
}

// HandleEvent forwards an input event to the active scene. Mouse motion
// only turns the camera while the right button is held.
func (c *Context) HandleEvent(e input.Event, mouse MouseGrabber) {
	sc := c.Scene()
	switch e.Type {
	case input.EventKeyDown, input.EventKeyUp:
		if key, ok := input.MovementKey(e.Key); ok {
			sc.HandleKeyboard(key, e.Type == input.EventKeyDown)
		}
	case input.EventMouseDown, input.EventMouseUp:
		if e.Button == sdl.BUTTON_RIGHT {
			c.looking = e.Type == input.EventMouseDown
			mouse.SetRelativeMouse(c.looking)
		}
	case input.EventMouseMove:
		if c.looking {
			sc.HandleMouse(e.DeltaX, e.DeltaY)
		}
	case input.EventMouseWheel:
		sc.HandleScroll(e.Scroll())
	}
}

// transformFrom converts a configured transform. A zero scale means unit
// scale; rotation is given in degrees.
func transformFrom(tc config.TransformConfig) scene.Transform {
	t := scene.NewTransform()
	t.Position = math.V3(tc.Position)
	t.Rotation = math.Vec3{
		X: math.Radians(tc.Rotation[0]),
		Y: math.Radians(tc.Rotation[1]),
		Z: math.Radians(tc.Rotation[2]),
	}
	if tc.Scale != [3]float32{} {
		t.Scale = math.V3(tc.Scale)
	}
	return t
}
