// Package renderer records and submits the per-frame render pass.
package renderer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/daedalus/internal/engine/gpu"
	"github.com/Faultbox/daedalus/internal/engine/scene"
)

// Config holds renderer configuration.
type Config struct {
	ColorFormat gpu.PixelFormat
	ClearColor  [4]float32
}

// DefaultConfig returns a BGRA8 target cleared to a dark slate.
func DefaultConfig() Config {
	return Config{
		ColorFormat: gpu.FormatBGRA8,
		ClearColor:  [4]float32{0.2, 0.2, 0.25, 1},
	}
}

// Stats counts frame outcomes since the renderer was created.
type Stats struct {
	FramesPresented int `yaml:"frames_presented"`
	FramesSkipped   int `yaml:"frames_skipped"`
	FramesFailed    int `yaml:"frames_failed"`
	Draws           int `yaml:"draws_issued"`
	MissingModels   int `yaml:"missing_models"`
}

// Renderer drives one forward pass per frame on a surface.
type Renderer struct {
	config  Config
	queue   gpu.CommandQueue
	surface gpu.Surface
	forward *ForwardPass
	stats   Stats
	log     *zap.Logger
}

// New creates a renderer drawing to surface. queue must be the queue
// models were uploaded with so mip generation precedes every draw.
func New(dev gpu.Device, queue gpu.CommandQueue, surface gpu.Surface, cfg Config, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	forward, err := NewForwardPass(dev, cfg.ColorFormat, log)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		config:  cfg,
		queue:   queue,
		surface: surface,
		forward: forward,
		log:     log,
	}, nil
}

// Tick records, presents and commits one frame. When the device is out of
// a resource (no drawable, exhausted memory) the frame is skipped without
// error and the next tick retries. Any other failure loses this frame only;
// it is counted and returned.
func (r *Renderer) Tick(sc *scene.Scene, renderables []scene.Renderable) error {
	drawable, err := r.surface.NextDrawable()
	if errors.Is(err, gpu.ErrResourceExhausted) {
		r.stats.FramesSkipped++
		r.log.Debug("frame skipped", zap.Error(err))
		return nil
	}
	if err != nil {
		r.stats.FramesFailed++
		return fmt.Errorf("acquiring drawable: %w", err)
	}

	cb := r.queue.CommandBuffer("frame")
	enc := cb.RenderEncoder(gpu.RenderPassDesc{
		Drawable:   drawable,
		ClearColor: r.config.ClearColor,
		ClearDepth: 1,
	})
	stats := r.forward.Encode(enc, sc, renderables)
	enc.End()
	cb.Present(drawable)

	if err := cb.Commit(); err != nil {
		if errors.Is(err, gpu.ErrResourceExhausted) {
			r.stats.FramesSkipped++
			r.log.Debug("frame skipped", zap.Error(err))
			return nil
		}
		r.stats.FramesFailed++
		return fmt.Errorf("committing frame: %w", err)
	}

	r.stats.FramesPresented++
	r.stats.Draws += stats.Draws
	r.stats.MissingModels += stats.Missing
	return nil
}

// Resize resizes the surface. Zero sizes (minimised windows) are passed
// through; the surface then reports no drawable.
func (r *Renderer) Resize(width, height int) {
	r.surface.Resize(width, height)
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Stats returns the frame counters.
func (r *Renderer) Stats() Stats {
	return r.stats
}
