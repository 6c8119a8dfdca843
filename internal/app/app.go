package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/daedalus/internal/config"
	"github.com/Faultbox/daedalus/internal/engine/gpu/opengl"
	"github.com/Faultbox/daedalus/internal/engine/input"
	"github.com/Faultbox/daedalus/internal/engine/window"
	"github.com/Faultbox/daedalus/internal/logger"
)

// App is the windowed viewer.
type App struct {
	cfg     *config.Config
	window  *window.Window
	device  *opengl.Device
	input   *input.Input
	ctx     *Context
	running bool
	log     *zap.Logger
}

// New opens the window, creates the GL device and loads the configured
// scene.
func New(cfg *config.Config) (*App, error) {
	log := logger.Named("app")
	log.Info("initializing",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	a := &App{cfg: cfg, input: input.New(), log: log}

	var err error
	a.window, err = window.New(window.Config{
		Title:      "Daedalus",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	}, logger.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The device needs the GL context the window just created.
	a.device, err = opengl.NewDevice(logger.Named("gl"))
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	w, h := a.window.DrawableSize()
	a.ctx, err = NewContext(a.device, opengl.NewSurface(a.window), cfg, w, h, logger.Named("engine"))
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := a.ctx.Populate(cfg.Scene); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to populate scene: %w", err)
	}

	log.Info("initialized", zap.Int("entities", a.ctx.World().Stats().Entities))
	return a, nil
}

// Context returns the engine context.
func (a *App) Context() *Context {
	return a.ctx
}

// Run drives the frame loop until the window closes or Escape is pressed.
func (a *App) Run() error {
	a.running = true
	timer := NewTimer()
	frames := 0
	fpsTimer := time.Now()

	a.log.Info("starting frame loop")

	for a.running {
		if a.input.Update() {
			a.running = false
			break
		}
		for _, e := range a.input.Events() {
			if e.Type == input.EventWindowResize {
				// Events carry window coordinates; the surface wants pixels.
				a.ctx.Resize(a.window.DrawableSize())
				continue
			}
			a.ctx.HandleEvent(e, a.window)
		}

		dt := timer.Delta()
		if err := a.ctx.Tick(dt); err != nil {
			// The frame is lost; the loop carries on with the next one.
			a.log.Error("frame failed", zap.Error(err))
		}

		frames++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frames), zap.Duration("dt", dt))
			frames = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// Close writes the diagnostics dump, if configured, and releases the
// device and window.
func (a *App) Close() {
	a.log.Info("closing")

	if a.ctx != nil && a.cfg.Diagnostics.StatsFile != "" {
		if err := WriteDiagnostics(a.cfg.Diagnostics.StatsFile, a.ctx.Diagnostics()); err != nil {
			a.log.Error("failed to write diagnostics", zap.Error(err))
		} else {
			a.log.Info("diagnostics written", zap.String("path", a.cfg.Diagnostics.StatsFile))
		}
	}
	if a.device != nil {
		a.device.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
