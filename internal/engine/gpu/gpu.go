// Package gpu defines the graphics-device interface the engine renders
// through. Backends record commands into command buffers; buffers committed
// to one queue execute in commit order.
package gpu

import (
	"errors"
	"fmt"
)

// ErrResourceExhausted reports that the device could not provide a resource
// this frame (no drawable, out of memory). Callers may retry next frame.
var ErrResourceExhausted = errors.New("device resource exhausted")

// ErrNoDrawable is returned by Surface.NextDrawable when no frame buffer is
// available, e.g. while the window is minimized.
var ErrNoDrawable = fmt.Errorf("%w: no drawable available", ErrResourceExhausted)

// PixelFormat is a texture or attachment format.
type PixelFormat int

// Pixel formats.
const (
	FormatRGBA8 PixelFormat = iota
	FormatBGRA8
	FormatDepth32Float
)

// BufferUsage tells the backend how a buffer will be bound.
type BufferUsage int

// Buffer usages.
const (
	BufferVertex BufferUsage = iota
	BufferIndex
	BufferUniform
)

// CompareFunc is a depth comparison function.
type CompareFunc int

// Compare functions.
const (
	CompareLess CompareFunc = iota
	CompareLessEqual
	CompareAlways
)

// CullMode selects which faces are culled.
type CullMode int

// Cull modes.
const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// Winding is the vertex order of front faces.
type Winding int

// Windings.
const (
	WindingCounterClockwise Winding = iota
	WindingClockwise
)

// Buffer is an immutable GPU buffer.
type Buffer interface {
	Len() int
	Label() string
	// Release frees the device memory. Releasing twice is a no-op.
	Release()
}

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Label     string
	Width     int
	Height    int
	MipLevels int
	Format    PixelFormat
}

// Texture is a 2D texture with an allocated mip chain.
type Texture interface {
	Desc() TextureDesc
	Release()
}

// VertexAttribute is a float vector attribute inside an interleaved vertex.
type VertexAttribute struct {
	Location   int
	Components int
	Offset     int
}

// VertexLayout describes one interleaved vertex buffer.
type VertexLayout struct {
	BufferSlot int
	Stride     int
	Attributes []VertexAttribute
}

// PipelineDesc selects a shader program pair and the fixed state that goes
// with it. UniformSlots maps uniform block names to buffer slots and
// TextureSlots maps sampler names to texture slots.
type PipelineDesc struct {
	Label          string
	VertexSource   string
	FragmentSource string
	Layout         VertexLayout
	ColorFormat    PixelFormat
	DepthFormat    PixelFormat
	UniformSlots   map[string]int
	TextureSlots   map[string]int
}

// Pipeline is a compiled render pipeline.
type Pipeline interface {
	Label() string
}

// DepthStencilDesc describes depth testing.
type DepthStencilDesc struct {
	Compare      CompareFunc
	WriteEnabled bool
}

// DepthStencilState is a compiled depth/stencil state.
type DepthStencilState interface {
	Desc() DepthStencilDesc
}

// Device creates GPU resources and command queues.
type Device interface {
	NewBuffer(usage BufferUsage, data []byte, label string) (Buffer, error)
	NewTexture(desc TextureDesc, pixels []byte) (Texture, error)
	NewRenderPipeline(desc PipelineDesc) (Pipeline, error)
	NewDepthStencilState(desc DepthStencilDesc) (DepthStencilState, error)
	NewCommandQueue() CommandQueue
}

// CommandQueue hands out command buffers.
type CommandQueue interface {
	CommandBuffer(label string) CommandBuffer
}

// CommandBuffer records encoders. Nothing reaches the device before Commit.
type CommandBuffer interface {
	BlitEncoder() BlitEncoder
	RenderEncoder(pass RenderPassDesc) RenderEncoder
	Present(d Drawable)
	Commit() error
}

// BlitEncoder records resource operations.
type BlitEncoder interface {
	GenerateMipmaps(t Texture)
	End()
}

// RenderPassDesc describes the attachments of a render pass.
type RenderPassDesc struct {
	Drawable   Drawable
	ClearColor [4]float32
	ClearDepth float32
}

// RenderEncoder records draw state and draw calls for one render pass.
type RenderEncoder interface {
	SetPipeline(p Pipeline)
	SetDepthStencilState(s DepthStencilState)
	SetCullMode(mode CullMode, front Winding)
	SetVertexBytes(slot int, data []byte)
	SetFragmentBytes(slot int, data []byte)
	SetVertexBuffer(b Buffer, slot int)
	SetFragmentTexture(t Texture, slot int)
	DrawIndexed(indexCount int, indices Buffer)
	PushDebugGroup(label string)
	PopDebugGroup()
	End()
}

// Drawable is a presentable frame buffer.
type Drawable interface {
	Size() (width, height int)
}

// Surface provides drawables for a window.
type Surface interface {
	NextDrawable() (Drawable, error)
	Resize(width, height int)
}
