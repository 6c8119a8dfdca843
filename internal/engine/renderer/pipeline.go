package renderer

import (
	"errors"
	"fmt"

	"github.com/Faultbox/daedalus/internal/asset"
	"github.com/Faultbox/daedalus/internal/engine/gpu"
	"github.com/Faultbox/daedalus/internal/engine/shader/shaders"
	"github.com/Faultbox/daedalus/internal/engine/shadertypes"
)

// ErrPassUnimplemented is returned for pass kinds that are declared but
// have no pipeline yet.
var ErrPassUnimplemented = errors.New("render pass not implemented")

// PassKind selects a render pass and its pipeline.
type PassKind int

// Pass kinds.
const (
	PassForward PassKind = iota
	PassObjectID
)

func (k PassKind) String() string {
	switch k {
	case PassForward:
		return "Forward Render Pass"
	case PassObjectID:
		return "Object ID Render Pass"
	default:
		return fmt.Sprintf("PassKind(%d)", int(k))
	}
}

// DepthFormat is the depth attachment format of every pass.
const DepthFormat = gpu.FormatDepth32Float

var uniformSlots = map[string]int{
	"Uniforms":         shadertypes.SlotUniforms,
	"Material":         shadertypes.SlotMaterial,
	"Params":           shadertypes.SlotParams,
	"DirectionalLight": shadertypes.SlotDirectionalLight,
	"PointLights":      shadertypes.SlotPointLights,
}

var textureSlots = map[string]int{
	"baseColorMap":         int(asset.SlotBaseColor),
	"normalMap":            int(asset.SlotNormal),
	"metallicRoughnessMap": int(asset.SlotMetallicRoughness),
	"occlusionMap":         int(asset.SlotOcclusion),
	"emissiveMap":          int(asset.SlotEmissive),
}

// PipelineDesc returns the pipeline description for kind.
func PipelineDesc(kind PassKind, colorFormat gpu.PixelFormat) (gpu.PipelineDesc, error) {
	switch kind {
	case PassForward:
		return gpu.PipelineDesc{
			Label:          kind.String(),
			VertexSource:   shaders.ForwardVertexShader,
			FragmentSource: shaders.ForwardFragmentShader,
			Layout:         shadertypes.VertexLayout,
			ColorFormat:    colorFormat,
			DepthFormat:    DepthFormat,
			UniformSlots:   uniformSlots,
			TextureSlots:   textureSlots,
		}, nil
	case PassObjectID:
		return gpu.PipelineDesc{}, fmt.Errorf("%v: %w", kind, ErrPassUnimplemented)
	default:
		return gpu.PipelineDesc{}, fmt.Errorf("unknown pass kind %d", int(kind))
	}
}

// BuildPipeline compiles the pipeline for kind on dev.
func BuildPipeline(dev gpu.Device, kind PassKind, colorFormat gpu.PixelFormat) (gpu.Pipeline, error) {
	desc, err := PipelineDesc(kind, colorFormat)
	if err != nil {
		return nil, err
	}
	p, err := dev.NewRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("building %v pipeline: %w", kind, err)
	}
	return p, nil
}
