package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/daedalus/internal/config"
	"github.com/Faultbox/daedalus/internal/engine/gpu/gputest"
	"github.com/Faultbox/daedalus/internal/engine/input"
	"github.com/Faultbox/daedalus/internal/engine/renderer"
	"github.com/Faultbox/daedalus/internal/engine/scene"
	"github.com/Faultbox/daedalus/internal/engine/world"
	"github.com/Faultbox/daedalus/pkg/math"
)

type grabber struct {
	calls []bool
}

func (g *grabber) SetRelativeMouse(enabled bool) { g.calls = append(g.calls, enabled) }

func cubeOnly() *config.Config {
	cfg := config.Default()
	cfg.Scene.Meshes = nil
	return cfg
}

func newContext(t *testing.T, cfg *config.Config) (*Context, *gputest.Device, *gputest.Surface) {
	t.Helper()
	dev := gputest.NewDevice()
	surface := gputest.NewSurface(1600, 900)
	c, err := NewContext(dev, surface, cfg, 1600, 900, nil)
	require.NoError(t, err)
	return c, dev, surface
}

func TestPopulateAndTick(t *testing.T) {
	c, dev, surface := newContext(t, cubeOnly())
	require.NoError(t, c.Populate(c.cfg.Scene))

	r := c.World().Renderables()
	require.Len(t, r, 1)
	assert.Equal(t, math.Vec3{X: 10, Y: 0.5, Z: 10}, r[0].Transform.Scale)

	require.NoError(t, c.Tick(16*time.Millisecond))
	assert.Equal(t, 1, surface.Presented)
	assert.Len(t, dev.Ops("DrawIndexed"), 1)
}

func TestPopulateErrors(t *testing.T) {
	t.Run("missing mesh", func(t *testing.T) {
		cfg := cubeOnly()
		cfg.Scene.Meshes = []config.MeshConfig{{Path: filepath.Join(t.TempDir(), "none.gltf")}}
		c, _, _ := newContext(t, cfg)
		require.Error(t, c.Populate(cfg.Scene))
		assert.Empty(t, c.World().Renderables())
	})

	t.Run("unknown shape", func(t *testing.T) {
		cfg := cubeOnly()
		cfg.Scene.Shapes = []config.ShapeConfig{{Kind: "sphere"}}
		c, _, _ := newContext(t, cfg)
		require.ErrorIs(t, c.Populate(cfg.Scene), scene.ErrInvalidShape)
	})
}

func TestNewContextUsesConfig(t *testing.T) {
	cfg := cubeOnly()
	cfg.Camera.Position = [3]float32{1, 2, 3}
	cfg.Lighting.PointLights = append(cfg.Lighting.PointLights, cfg.Lighting.PointLights[0])
	c, _, _ := newContext(t, cfg)

	sc := c.Scene()
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 3}, sc.Camera.Position)
	assert.InDelta(t, 1600.0/900.0, sc.Camera.Aspect, 1e-6)
	assert.InDelta(t, math.Radians(45), sc.Camera.FOV, 1e-6)
	assert.Len(t, sc.Lights.Points(), 2)
	assert.Equal(t, uint32(2), sc.Frame().PointLightCount)
}

func TestActiveScene(t *testing.T) {
	c, _, _ := newContext(t, cubeOnly())
	first := c.Scene()

	i := c.AddScene()
	assert.Equal(t, 1, i)
	assert.Same(t, first, c.Scene(), "adding a scene keeps the active one")

	require.NoError(t, c.SetActive(i))
	assert.NotSame(t, first, c.Scene())
	assert.Equal(t, 1, c.Active())

	assert.Error(t, c.SetActive(2))
	assert.Error(t, c.SetActive(-1))
	assert.Equal(t, 1, c.Active())
}

func TestSwitchingScenesSwitchesEntities(t *testing.T) {
	c, dev, _ := newContext(t, cubeOnly())
	require.NoError(t, c.Populate(c.cfg.Scene))
	first := c.World()

	second := c.AddScene()
	require.NoError(t, c.SetActive(second))
	assert.NotSame(t, first, c.World())
	assert.Empty(t, c.World().Renderables())

	require.NoError(t, c.Tick(time.Millisecond))
	stats := c.Renderer.Stats()
	assert.Zero(t, stats.MissingModels, "entities of another scene are not drawn")
	assert.Zero(t, stats.Draws)

	require.NoError(t, c.SetActive(0))
	require.NoError(t, c.Tick(time.Millisecond))
	assert.Equal(t, 1, c.Renderer.Stats().Draws)
	assert.Len(t, dev.Ops("DrawIndexed"), 1)

	d := c.Diagnostics()
	assert.Equal(t, 2, d.Scenes)
	assert.Equal(t, 1, d.Components.Entities)
}

func TestTickKeepsRunningAfterFailedFrame(t *testing.T) {
	c, dev, surface := newContext(t, cubeOnly())
	require.NoError(t, c.Populate(c.cfg.Scene))

	dev.CommitErr = errors.New("device lost")
	require.Error(t, c.Tick(time.Millisecond))
	dev.CommitErr = nil
	require.NoError(t, c.Tick(time.Millisecond))

	assert.Equal(t, 1, surface.Presented)
	assert.Equal(t, 1, c.Renderer.Stats().FramesFailed)
}

func TestHandleEvent(t *testing.T) {
	c, _, _ := newContext(t, cubeOnly())
	g := &grabber{}
	cam := c.Scene().Camera
	yaw := cam.Yaw

	// Motion without the right button held is ignored.
	c.HandleEvent(input.Event{Type: input.EventMouseMove, DeltaX: 50}, g)
	require.NoError(t, c.Tick(100*time.Millisecond))
	assert.Equal(t, yaw, cam.Yaw)

	c.HandleEvent(input.Event{Type: input.EventMouseDown, Button: sdl.BUTTON_RIGHT}, g)
	c.HandleEvent(input.Event{Type: input.EventMouseMove, DeltaX: 50}, g)
	require.NoError(t, c.Tick(100*time.Millisecond))
	assert.Greater(t, cam.Yaw, yaw)

	c.HandleEvent(input.Event{Type: input.EventMouseUp, Button: sdl.BUTTON_RIGHT}, g)
	assert.Equal(t, []bool{true, false}, g.calls)

	// Left button does not grab.
	c.HandleEvent(input.Event{Type: input.EventMouseDown, Button: sdl.BUTTON_LEFT}, g)
	assert.Len(t, g.calls, 2)

	y := cam.Position.Y
	c.HandleEvent(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_SPACE}, g)
	require.NoError(t, c.Tick(time.Second))
	assert.InDelta(t, y+4, cam.Position.Y, 1e-4)
	c.HandleEvent(input.Event{Type: input.EventKeyUp, Key: sdl.SCANCODE_SPACE}, g)
	require.NoError(t, c.Tick(time.Second))
	assert.InDelta(t, y+4, cam.Position.Y, 1e-4)
}

func TestResize(t *testing.T) {
	c, _, surface := newContext(t, cubeOnly())
	c.Resize(800, 800)
	assert.Equal(t, 800, surface.Width)
	assert.InDelta(t, 1, c.Scene().Camera.Aspect, 1e-6)

	c.Resize(0, 0)
	require.NoError(t, c.Tick(time.Millisecond))
	assert.Equal(t, 1, c.Renderer.Stats().FramesSkipped)
	assert.InDelta(t, 1, c.Scene().Camera.Aspect, 1e-6)
}

func TestTransformFrom(t *testing.T) {
	tr := transformFrom(config.TransformConfig{
		Position: [3]float32{0, 2.5, 0},
		Rotation: [3]float32{0, 90, 0},
	})
	assert.Equal(t, math.Vec3{Y: 2.5}, tr.Position)
	assert.InDelta(t, math.Radians(90), tr.Rotation.Y, 1e-6)
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 1}, tr.Scale)
}

func TestDiagnostics(t *testing.T) {
	c, _, _ := newContext(t, cubeOnly())
	require.NoError(t, c.Populate(c.cfg.Scene))
	require.NoError(t, c.Tick(time.Millisecond))
	require.NoError(t, c.Tick(time.Millisecond))

	want := Diagnostics{
		Scenes:     1,
		Models:     1,
		Components: world.Stats{Entities: 1, Meshes: 1, Transforms: 1},
		Frames:     renderer.Stats{FramesPresented: 2, Draws: 2},
	}
	assert.Equal(t, want, c.Diagnostics())

	path := filepath.Join(t.TempDir(), "out", "stats.yaml")
	require.NoError(t, WriteDiagnostics(path, c.Diagnostics()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Diagnostics
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, want, got)
	assert.Contains(t, string(data), "frames_presented: 2")
}

func TestTimer(t *testing.T) {
	now := time.Unix(100, 0)
	timer := newTimer(func() time.Time { return now })

	now = now.Add(16 * time.Millisecond)
	assert.Equal(t, 16*time.Millisecond, timer.Delta())
	assert.Zero(t, timer.Delta())
}
