package renderer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/daedalus/internal/engine/gpu"
	"github.com/Faultbox/daedalus/internal/engine/model"
	"github.com/Faultbox/daedalus/internal/engine/scene"
	"github.com/Faultbox/daedalus/internal/engine/shadertypes"
	"github.com/Faultbox/daedalus/pkg/math"
)

// ForwardPass draws every renderable with the forward shading pipeline.
type ForwardPass struct {
	pipeline gpu.Pipeline
	depth    gpu.DepthStencilState
	log      *zap.Logger
}

// NewForwardPass builds the pipeline and depth state for the pass.
func NewForwardPass(dev gpu.Device, colorFormat gpu.PixelFormat, log *zap.Logger) (*ForwardPass, error) {
	pipeline, err := BuildPipeline(dev, PassForward, colorFormat)
	if err != nil {
		return nil, err
	}
	depth, err := dev.NewDepthStencilState(gpu.DepthStencilDesc{
		Compare:      gpu.CompareLess,
		WriteEnabled: true,
	})
	if err != nil {
		return nil, fmt.Errorf("forward pass depth state: %w", err)
	}
	return &ForwardPass{pipeline: pipeline, depth: depth, log: log}, nil
}

// PassStats counts what one Encode call did.
type PassStats struct {
	Draws   int
	Missing int
}

// Encode binds the pass state, uploads the lights and draws renderables.
// Renderables whose model is not registered are logged and skipped.
func (p *ForwardPass) Encode(enc gpu.RenderEncoder, sc *scene.Scene, renderables []scene.Renderable) PassStats {
	var stats PassStats

	enc.SetDepthStencilState(p.depth)
	enc.SetPipeline(p.pipeline)
	enc.SetCullMode(gpu.CullBack, gpu.WindingCounterClockwise)

	frame := sc.Frame()
	enc.SetFragmentBytes(shadertypes.SlotDirectionalLight, sc.Lights.SunBytes())
	points, count := sc.Lights.PointBytes()
	enc.SetFragmentBytes(shadertypes.SlotPointLights, points)
	params := shadertypes.Params{CameraPosition: frame.CameraPosition, PointLightCount: count}
	enc.SetFragmentBytes(shadertypes.SlotParams, params.Bytes())

	for _, r := range renderables {
		m, err := sc.Model(r.ModelID)
		if err != nil {
			p.log.Warn("skipping renderable", zap.Error(err))
			stats.Missing++
			continue
		}
		stats.Draws += p.drawModel(enc, m, r.Transform, frame)
	}
	return stats
}

func (p *ForwardPass) drawModel(enc gpu.RenderEncoder, m *model.Model, t scene.Transform, frame scene.Frame) int {
	enc.PushDebugGroup(m.Name)
	defer enc.PopDebugGroup()

	modelMatrix := t.Matrix()
	u := shadertypes.Uniforms{
		Model:        modelMatrix,
		View:         frame.View,
		Projection:   frame.Projection,
		NormalMatrix: math.NormalMatrix(modelMatrix),
	}
	enc.SetVertexBytes(shadertypes.SlotUniforms, u.Bytes())

	draws := 0
	for mi := range m.Meshes {
		for si := range m.Meshes[mi].Submeshes {
			sub := &m.Meshes[mi].Submeshes[si]
			enc.SetVertexBuffer(sub.VertexBuffer, shadertypes.SlotVertexBuffer)

			bound := sub.Material.Bound()
			for _, slot := range bound {
				enc.SetFragmentTexture(sub.Material.Textures[slot], int(slot))
			}
			mat := shadertypes.MaterialFor(bound)
			enc.SetFragmentBytes(shadertypes.SlotMaterial, mat.Bytes())

			enc.DrawIndexed(sub.IndexCount, sub.IndexBuffer)
			draws++
		}
	}
	return draws
}
