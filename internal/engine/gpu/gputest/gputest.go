// Package gputest provides a recording gpu.Device for headless tests.
// Every command is kept in order, and each committed command buffer is
// appended to the device's commit log.
package gputest

import (
	"fmt"

	"github.com/Faultbox/daedalus/internal/engine/gpu"
)

// Op is one recorded command.
type Op struct {
	Name    string
	Slot    int
	Count   int
	Label   string
	Data    []byte
	Buffer  *Buffer
	Texture *Texture
}

// Commit is a committed command buffer.
type Commit struct {
	Label string
	Ops   []Op
}

// Find returns the ops with the given name, in order.
func (c Commit) Find(name string) []Op {
	var ops []Op
	for _, op := range c.Ops {
		if op.Name == name {
			ops = append(ops, op)
		}
	}
	return ops
}

// Buffer is a recorded buffer.
type Buffer struct {
	Usage    gpu.BufferUsage
	Data     []byte
	Released bool
	label    string
}

func (b *Buffer) Len() int      { return len(b.Data) }
func (b *Buffer) Label() string { return b.label }
func (b *Buffer) Release()      { b.Released = true }

// Texture is a recorded texture.
type Texture struct {
	desc     gpu.TextureDesc
	Pixels   []byte
	Released bool
}

func (t *Texture) Desc() gpu.TextureDesc { return t.desc }
func (t *Texture) Release()              { t.Released = true }

// Pipeline is a recorded pipeline.
type Pipeline struct {
	Desc gpu.PipelineDesc
}

func (p *Pipeline) Label() string { return p.Desc.Label }

// DepthStencilState is a recorded depth state.
type DepthStencilState struct {
	desc gpu.DepthStencilDesc
}

func (s *DepthStencilState) Desc() gpu.DepthStencilDesc { return s.desc }

// Device records resource creation and committed work.
type Device struct {
	Buffers   []*Buffer
	Textures  []*Texture
	Pipelines []*Pipeline
	Commits   []Commit

	// Set to make the next creation calls or commits fail.
	BufferErr   error
	TextureErr  error
	PipelineErr error
	CommitErr   error
}

// NewDevice creates an empty recording device.
func NewDevice() *Device {
	return &Device{}
}

func (d *Device) NewBuffer(usage gpu.BufferUsage, data []byte, label string) (gpu.Buffer, error) {
	if d.BufferErr != nil {
		return nil, d.BufferErr
	}
	b := &Buffer{Usage: usage, Data: append([]byte(nil), data...), label: label}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) NewTexture(desc gpu.TextureDesc, pixels []byte) (gpu.Texture, error) {
	if d.TextureErr != nil {
		return nil, d.TextureErr
	}
	if want := desc.Width * desc.Height * 4; len(pixels) != want {
		return nil, fmt.Errorf("texture %q: got %d bytes, want %d", desc.Label, len(pixels), want)
	}
	t := &Texture{desc: desc, Pixels: append([]byte(nil), pixels...)}
	d.Textures = append(d.Textures, t)
	return t, nil
}

func (d *Device) NewRenderPipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	if d.PipelineErr != nil {
		return nil, d.PipelineErr
	}
	p := &Pipeline{Desc: desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

func (d *Device) NewDepthStencilState(desc gpu.DepthStencilDesc) (gpu.DepthStencilState, error) {
	return &DepthStencilState{desc: desc}, nil
}

func (d *Device) NewCommandQueue() gpu.CommandQueue {
	return &queue{dev: d}
}

// Live returns the number of buffers and textures not yet released.
func (d *Device) Live() (buffers, textures int) {
	for _, b := range d.Buffers {
		if !b.Released {
			buffers++
		}
	}
	for _, t := range d.Textures {
		if !t.Released {
			textures++
		}
	}
	return buffers, textures
}

// Ops returns every committed op with the given name, in commit order.
func (d *Device) Ops(name string) []Op {
	var ops []Op
	for _, c := range d.Commits {
		ops = append(ops, c.Find(name)...)
	}
	return ops
}

type queue struct {
	dev *Device
}

func (q *queue) CommandBuffer(label string) gpu.CommandBuffer {
	return &commandBuffer{dev: q.dev, label: label}
}

type commandBuffer struct {
	dev       *Device
	label     string
	ops       []Op
	open      int
	committed bool
	presents  []*Surface
	err       error
}

func (cb *commandBuffer) record(op Op) {
	cb.ops = append(cb.ops, op)
}

func (cb *commandBuffer) fail(format string, args ...any) {
	if cb.err == nil {
		cb.err = fmt.Errorf("command buffer %q: "+format, append([]any{cb.label}, args...)...)
	}
}

func (cb *commandBuffer) BlitEncoder() gpu.BlitEncoder {
	cb.open++
	cb.record(Op{Name: "BeginBlit"})
	return &blitEncoder{cb: cb}
}

func (cb *commandBuffer) RenderEncoder(pass gpu.RenderPassDesc) gpu.RenderEncoder {
	cb.open++
	data := make([]byte, 0, 4)
	for _, c := range pass.ClearColor {
		data = append(data, uint8(c*255+0.5))
	}
	cb.record(Op{Name: "BeginRender", Data: data})
	return &renderEncoder{cb: cb}
}

func (cb *commandBuffer) Present(d gpu.Drawable) {
	if s, ok := d.(*drawable); ok {
		cb.presents = append(cb.presents, s.surface)
	}
	cb.record(Op{Name: "Present"})
}

func (cb *commandBuffer) Commit() error {
	if cb.committed {
		return fmt.Errorf("command buffer %q committed twice", cb.label)
	}
	cb.committed = true
	if cb.open != 0 {
		cb.fail("%d encoders not ended", cb.open)
	}
	if cb.err != nil {
		return cb.err
	}
	if cb.dev.CommitErr != nil {
		return cb.dev.CommitErr
	}
	cb.dev.Commits = append(cb.dev.Commits, Commit{Label: cb.label, Ops: cb.ops})
	for _, s := range cb.presents {
		s.Presented++
	}
	return nil
}

type blitEncoder struct {
	cb *commandBuffer
}

func (e *blitEncoder) GenerateMipmaps(t gpu.Texture) {
	e.cb.record(Op{Name: "GenerateMipmaps", Texture: t.(*Texture)})
}

func (e *blitEncoder) End() {
	e.cb.open--
	e.cb.record(Op{Name: "EndBlit"})
}

type renderEncoder struct {
	cb       *commandBuffer
	pipeline bool
	groups   int
}

func (e *renderEncoder) SetPipeline(p gpu.Pipeline) {
	e.pipeline = true
	e.cb.record(Op{Name: "SetPipeline", Label: p.Label()})
}

func (e *renderEncoder) SetDepthStencilState(s gpu.DepthStencilState) {
	e.cb.record(Op{Name: "SetDepthStencilState"})
}

func (e *renderEncoder) SetCullMode(mode gpu.CullMode, front gpu.Winding) {
	e.cb.record(Op{Name: "SetCullMode", Slot: int(mode), Count: int(front)})
}

func (e *renderEncoder) SetVertexBytes(slot int, data []byte) {
	e.cb.record(Op{Name: "SetVertexBytes", Slot: slot, Data: append([]byte(nil), data...)})
}

func (e *renderEncoder) SetFragmentBytes(slot int, data []byte) {
	e.cb.record(Op{Name: "SetFragmentBytes", Slot: slot, Data: append([]byte(nil), data...)})
}

func (e *renderEncoder) SetVertexBuffer(b gpu.Buffer, slot int) {
	e.cb.record(Op{Name: "SetVertexBuffer", Slot: slot, Buffer: b.(*Buffer)})
}

func (e *renderEncoder) SetFragmentTexture(t gpu.Texture, slot int) {
	e.cb.record(Op{Name: "SetFragmentTexture", Slot: slot, Texture: t.(*Texture)})
}

func (e *renderEncoder) DrawIndexed(indexCount int, indices gpu.Buffer) {
	if !e.pipeline {
		e.cb.fail("draw without pipeline")
	}
	e.cb.record(Op{Name: "DrawIndexed", Count: indexCount, Buffer: indices.(*Buffer)})
}

func (e *renderEncoder) PushDebugGroup(label string) {
	e.groups++
	e.cb.record(Op{Name: "PushDebugGroup", Label: label})
}

func (e *renderEncoder) PopDebugGroup() {
	if e.groups == 0 {
		e.cb.fail("debug group underflow")
	}
	e.groups--
	e.cb.record(Op{Name: "PopDebugGroup"})
}

func (e *renderEncoder) End() {
	if e.groups != 0 {
		e.cb.fail("%d debug groups left open", e.groups)
	}
	e.cb.open--
	e.cb.record(Op{Name: "EndRender"})
}

// Surface is a fake window surface. Err, when set, is returned by
// NextDrawable in place of a drawable.
type Surface struct {
	Width, Height int
	Unavailable   bool
	Err           error
	Presented     int
}

// NewSurface creates a surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{Width: width, Height: height}
}

func (s *Surface) NextDrawable() (gpu.Drawable, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Unavailable || s.Width == 0 || s.Height == 0 {
		return nil, gpu.ErrNoDrawable
	}
	return &drawable{surface: s, w: s.Width, h: s.Height}, nil
}

func (s *Surface) Resize(width, height int) {
	s.Width, s.Height = width, height
}

type drawable struct {
	surface *Surface
	w, h    int
}

func (d *drawable) Size() (int, int) { return d.w, d.h }
