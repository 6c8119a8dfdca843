package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/daedalus/internal/engine/gpu"
)

type queue struct {
	dev *Device
}

func (q *queue) CommandBuffer(label string) gpu.CommandBuffer {
	return &commandBuffer{dev: q.dev, label: label}
}

// execState is the GL state tracked while a command buffer runs.
type execState struct {
	pipeline *pipeline
	groups   []string
	dirty    []int // texture units bound since the last draw
}

type command func(st *execState)

type commandBuffer struct {
	dev       *Device
	label     string
	cmds      []command
	names     []string
	committed bool
}

func (cb *commandBuffer) record(name string, c command) {
	cb.cmds = append(cb.cmds, c)
	cb.names = append(cb.names, name)
}

func (cb *commandBuffer) BlitEncoder() gpu.BlitEncoder {
	return &blitEncoder{cb: cb}
}

func (cb *commandBuffer) RenderEncoder(pass gpu.RenderPassDesc) gpu.RenderEncoder {
	w, h := pass.Drawable.Size()
	white := cb.dev.white
	cb.record("begin render pass", func(st *execState) {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, int32(w), int32(h))
		gl.ClearColor(pass.ClearColor[0], pass.ClearColor[1], pass.ClearColor[2], pass.ClearColor[3])
		gl.ClearDepth(float64(pass.ClearDepth))
		gl.DepthMask(true)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		for unit := 0; unit < fallbackUnits; unit++ {
			gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
			gl.BindTexture(gl.TEXTURE_2D, white)
		}
	})
	return &renderEncoder{cb: cb}
}

func (cb *commandBuffer) Present(d gpu.Drawable) {
	dr, ok := d.(*drawable)
	if !ok {
		return
	}
	cb.record("present", func(*execState) {
		dr.surface.win.SwapBuffers()
	})
}

// Commit runs the recorded commands. Every command runs; the first GL error
// is returned, labelled with the debug groups active when it occurred.
func (cb *commandBuffer) Commit() error {
	if cb.committed {
		return fmt.Errorf("command buffer %q committed twice", cb.label)
	}
	cb.committed = true

	var first error
	st := &execState{}
	for i, c := range cb.cmds {
		c(st)
		if code := gl.GetError(); code != gl.NO_ERROR && first == nil {
			op := cb.label + ": " + cb.names[i]
			if len(st.groups) > 0 {
				op += " [" + strings.Join(st.groups, "/") + "]"
			}
			first = glError(code, op)
		}
	}
	return first
}

type blitEncoder struct {
	cb *commandBuffer
}

func (e *blitEncoder) GenerateMipmaps(t gpu.Texture) {
	tex := t.(*texture)
	e.cb.record("generate mipmaps "+tex.desc.Label, func(*execState) {
		gl.BindTexture(gl.TEXTURE_2D, tex.id)
		gl.GenerateMipmap(gl.TEXTURE_2D)
		gl.BindTexture(gl.TEXTURE_2D, 0)
	})
}

func (e *blitEncoder) End() {}

type renderEncoder struct {
	cb *commandBuffer
}

func (e *renderEncoder) SetPipeline(p gpu.Pipeline) {
	pl := p.(*pipeline)
	e.cb.record("set pipeline "+pl.desc.Label, func(st *execState) {
		st.pipeline = pl
		gl.UseProgram(pl.program)
	})
}

func (e *renderEncoder) SetDepthStencilState(s gpu.DepthStencilState) {
	desc := s.Desc()
	e.cb.record("set depth state", func(*execState) {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(compareFunc(desc.Compare))
		gl.DepthMask(desc.WriteEnabled)
	})
}

func (e *renderEncoder) SetCullMode(mode gpu.CullMode, front gpu.Winding) {
	e.cb.record("set cull mode", func(*execState) {
		if front == gpu.WindingClockwise {
			gl.FrontFace(gl.CW)
		} else {
			gl.FrontFace(gl.CCW)
		}
		switch mode {
		case gpu.CullBack:
			gl.Enable(gl.CULL_FACE)
			gl.CullFace(gl.BACK)
		case gpu.CullFront:
			gl.Enable(gl.CULL_FACE)
			gl.CullFace(gl.FRONT)
		default:
			gl.Disable(gl.CULL_FACE)
		}
	})
}

// SetVertexBytes and SetFragmentBytes share the uniform buffer binding
// points; a slot is visible to both stages.
func (e *renderEncoder) SetVertexBytes(slot int, data []byte) {
	e.setBytes(slot, data)
}

func (e *renderEncoder) SetFragmentBytes(slot int, data []byte) {
	e.setBytes(slot, data)
}

func (e *renderEncoder) setBytes(slot int, data []byte) {
	data = append([]byte(nil), data...)
	ubo := e.cb.dev.ubo(slot)
	e.cb.record(fmt.Sprintf("set bytes slot %d", slot), func(st *execState) {
		if st.pipeline != nil {
			data = padTo(data, st.pipeline.blockSizes[slot])
		}
		gl.BindBuffer(gl.UNIFORM_BUFFER, ubo)
		gl.BufferData(gl.UNIFORM_BUFFER, len(data), gl.Ptr(data), gl.STREAM_DRAW)
		gl.BindBufferBase(gl.UNIFORM_BUFFER, uint32(slot), ubo)
	})
}

func (e *renderEncoder) SetVertexBuffer(b gpu.Buffer, slot int) {
	buf := b.(*buffer)
	e.cb.record("set vertex buffer "+buf.label, func(st *execState) {
		gl.BindBuffer(gl.ARRAY_BUFFER, buf.id)
		if st.pipeline == nil {
			return
		}
		layout := st.pipeline.desc.Layout
		for _, a := range layout.Attributes {
			loc := uint32(a.Location)
			gl.VertexAttribPointerWithOffset(loc, int32(a.Components), gl.FLOAT, false,
				int32(layout.Stride), uintptr(a.Offset))
			gl.EnableVertexAttribArray(loc)
		}
	})
}

func (e *renderEncoder) SetFragmentTexture(t gpu.Texture, slot int) {
	tex := t.(*texture)
	e.cb.record("set texture "+tex.desc.Label, func(st *execState) {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
		gl.BindTexture(gl.TEXTURE_2D, tex.id)
		st.dirty = append(st.dirty, slot)
	})
}

// DrawIndexed draws indexCount uint32 indices as triangles. Units bound
// since the previous draw fall back to white afterwards.
func (e *renderEncoder) DrawIndexed(indexCount int, indices gpu.Buffer) {
	buf := indices.(*buffer)
	white := e.cb.dev.white
	e.cb.record("draw "+buf.label, func(st *execState) {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf.id)
		gl.DrawElements(gl.TRIANGLES, int32(indexCount), gl.UNSIGNED_INT, nil)
		for _, unit := range st.dirty {
			gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
			gl.BindTexture(gl.TEXTURE_2D, white)
		}
		st.dirty = st.dirty[:0]
	})
}

func (e *renderEncoder) PushDebugGroup(label string) {
	e.cb.record("push group", func(st *execState) {
		st.groups = append(st.groups, label)
	})
}

func (e *renderEncoder) PopDebugGroup() {
	e.cb.record("pop group", func(st *execState) {
		if n := len(st.groups); n > 0 {
			st.groups = st.groups[:n-1]
		}
	})
}

func (e *renderEncoder) End() {
	e.cb.record("end render pass", func(*execState) {
		gl.UseProgram(0)
	})
}
