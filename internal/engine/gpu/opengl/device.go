// Package opengl implements gpu.Device on OpenGL 4.1 core.
//
// Command buffers record closures and run them on Commit, so everything
// committed to the queue reaches the driver in commit order. All calls must
// be made from the thread that owns the GL context.
package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/daedalus/internal/engine/gpu"
	"github.com/Faultbox/daedalus/internal/engine/shader"
)

// fallbackUnits is how many texture units get the white fallback texture
// at the start of a render pass.
const fallbackUnits = 8

// Device is an OpenGL gpu.Device.
type Device struct {
	log   *zap.Logger
	vao   uint32
	white uint32
	ubos  map[int]uint32
}

// NewDevice initializes OpenGL. Must be called after the GL context is
// created and made current.
func NewDevice(log *zap.Logger) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	d := &Device{log: log, ubos: make(map[int]uint32)}

	// Core profile needs a bound VAO for attribute and element state.
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	white := []byte{255, 255, 255, 255}
	gl.GenTextures(1, &d.white)
	gl.BindTexture(gl.TEXTURE_2D, d.white)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(white))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return nil, fmt.Errorf("device setup: gl error 0x%x", code)
	}
	return d, nil
}

// Close releases device-owned objects.
func (d *Device) Close() {
	for _, id := range d.ubos {
		gl.DeleteBuffers(1, &id)
	}
	gl.DeleteTextures(1, &d.white)
	gl.DeleteVertexArrays(1, &d.vao)
}

type buffer struct {
	id     uint32
	target uint32
	size   int
	label  string
}

func (b *buffer) Len() int      { return b.size }
func (b *buffer) Label() string { return b.label }

func (b *buffer) Release() {
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}

// NewBuffer creates an immutable buffer holding data.
func (d *Device) NewBuffer(usage gpu.BufferUsage, data []byte, label string) (gpu.Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("buffer %q: no data", label)
	}
	target := bufferTarget(usage)

	b := &buffer{target: target, size: len(data), label: label}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(target, b.id)
	gl.BufferData(target, len(data), gl.Ptr(data), gl.STATIC_DRAW)
	if target != gl.ELEMENT_ARRAY_BUFFER {
		gl.BindBuffer(target, 0)
	}

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteBuffers(1, &b.id)
		return nil, glError(code, "create buffer "+label)
	}
	return b, nil
}

type texture struct {
	id   uint32
	desc gpu.TextureDesc
}

func (t *texture) Desc() gpu.TextureDesc { return t.desc }

func (t *texture) Release() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

// NewTexture creates a texture with level 0 filled from pixels. The
// remaining mip levels are allocated by GenerateMipmaps.
func (d *Device) NewTexture(desc gpu.TextureDesc, pixels []byte) (gpu.Texture, error) {
	if want := desc.Width * desc.Height * 4; len(pixels) != want || want == 0 {
		return nil, fmt.Errorf("texture %q: got %d bytes, want %d", desc.Label, len(pixels), want)
	}
	if desc.MipLevels < 1 {
		desc.MipLevels = 1
	}
	srcFormat := uint32(gl.RGBA)
	if desc.Format == gpu.FormatBGRA8 {
		srcFormat = gl.BGRA
	}

	t := &texture{desc: desc}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(desc.Width), int32(desc.Height), 0,
		srcFormat, gl.UNSIGNED_BYTE, gl.Ptr(pixels))

	minFilter := int32(gl.LINEAR)
	if desc.MipLevels > 1 {
		minFilter = gl.LINEAR_MIPMAP_LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, int32(desc.MipLevels-1))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &t.id)
		return nil, glError(code, "create texture "+desc.Label)
	}
	return t, nil
}

type pipeline struct {
	program    uint32
	desc       gpu.PipelineDesc
	blockSizes map[int]int
}

func (p *pipeline) Label() string { return p.desc.Label }

// NewRenderPipeline compiles the shader pair and binds its uniform blocks
// and samplers to the slots named in desc.
func (d *Device) NewRenderPipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	program, err := shader.CompileProgram(desc.VertexSource, desc.FragmentSource)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", desc.Label, err)
	}

	p := &pipeline{program: program, desc: desc, blockSizes: make(map[int]int)}
	for name, slot := range desc.UniformSlots {
		idx := gl.GetUniformBlockIndex(program, gl.Str(name+"\x00"))
		if idx == gl.INVALID_INDEX {
			d.log.Debug("uniform block not active", zap.String("pipeline", desc.Label), zap.String("block", name))
			continue
		}
		gl.UniformBlockBinding(program, idx, uint32(slot))
		var size int32
		gl.GetActiveUniformBlockiv(program, idx, gl.UNIFORM_BLOCK_DATA_SIZE, &size)
		p.blockSizes[slot] = int(size)
	}

	gl.UseProgram(program)
	for name, slot := range desc.TextureSlots {
		if loc := shader.GetUniform(program, name); loc >= 0 {
			gl.Uniform1i(loc, int32(slot))
		}
	}
	gl.UseProgram(0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteProgram(program)
		return nil, glError(code, "create pipeline "+desc.Label)
	}

	d.log.Debug("pipeline created",
		zap.String("label", desc.Label),
		zap.Uint32("program", program),
		zap.Int("uniform_blocks", len(p.blockSizes)),
	)
	return p, nil
}

type depthState struct {
	desc gpu.DepthStencilDesc
}

func (s *depthState) Desc() gpu.DepthStencilDesc { return s.desc }

// NewDepthStencilState returns a depth state applied when set on an encoder.
func (d *Device) NewDepthStencilState(desc gpu.DepthStencilDesc) (gpu.DepthStencilState, error) {
	return &depthState{desc: desc}, nil
}

// NewCommandQueue returns the device's queue.
func (d *Device) NewCommandQueue() gpu.CommandQueue {
	return &queue{dev: d}
}

// ubo returns the streaming uniform buffer bound to slot.
func (d *Device) ubo(slot int) uint32 {
	id, ok := d.ubos[slot]
	if !ok {
		gl.GenBuffers(1, &id)
		d.ubos[slot] = id
	}
	return id
}

func bufferTarget(usage gpu.BufferUsage) uint32 {
	switch usage {
	case gpu.BufferIndex:
		return gl.ELEMENT_ARRAY_BUFFER
	case gpu.BufferUniform:
		return gl.UNIFORM_BUFFER
	default:
		return gl.ARRAY_BUFFER
	}
}

func compareFunc(c gpu.CompareFunc) uint32 {
	switch c {
	case gpu.CompareLessEqual:
		return gl.LEQUAL
	case gpu.CompareAlways:
		return gl.ALWAYS
	default:
		return gl.LESS
	}
}

// padTo returns data extended with zeros to at least n bytes.
func padTo(data []byte, n int) []byte {
	if len(data) >= n {
		return data
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}

func glError(code uint32, op string) error {
	return fmt.Errorf("%s: gl error 0x%x", op, code)
}
