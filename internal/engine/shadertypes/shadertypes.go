// Package shadertypes serializes the values the forward shaders read into
// byte layouts matching their std140 uniform blocks and vertex inputs.
//
// Every struct here is copied field by field into a little-endian buffer at
// fixed offsets. The offsets are part of the shader contract; change them
// together with shader/shaders/forward.*.
package shadertypes

import (
	"encoding/binary"
	stdmath "math"

	"github.com/Faultbox/daedalus/internal/asset"
	"github.com/Faultbox/daedalus/internal/engine/gpu"
	"github.com/Faultbox/daedalus/pkg/math"
)

// Buffer slots shared by the pipeline and the render pass.
const (
	SlotVertexBuffer     = 0
	SlotUniforms         = 1
	SlotMaterial         = 2
	SlotParams           = 12
	SlotDirectionalLight = 13
	SlotPointLights      = 14
)

// Vertex attribute locations.
const (
	AttribPosition = iota
	AttribNormal
	AttribUV
	AttribTangent
	AttribBitangent
)

// MaxPointLights is the length of the point light array in the shader.
const MaxPointLights = 32

// Block sizes in bytes.
const (
	UniformsSize         = 240
	ParamsSize           = 16
	MaterialSize         = 16
	DirectionalLightSize = 32
	PointLightSize       = 48
	PointLightsSize      = MaxPointLights * PointLightSize
)

// VertexStride is the size of one interleaved vertex:
// position(3f) normal(3f) uv(2f) tangent(3f) bitangent(3f).
const VertexStride = (3 + 3 + 2 + 3 + 3) * 4

// VertexLayout is the interleaved layout of VertexStride-sized vertices.
var VertexLayout = gpu.VertexLayout{
	BufferSlot: SlotVertexBuffer,
	Stride:     VertexStride,
	Attributes: []gpu.VertexAttribute{
		{Location: AttribPosition, Components: 3, Offset: 0},
		{Location: AttribNormal, Components: 3, Offset: 12},
		{Location: AttribUV, Components: 2, Offset: 24},
		{Location: AttribTangent, Components: 3, Offset: 32},
		{Location: AttribBitangent, Components: 3, Offset: 44},
	},
}

// Uniforms is the per-draw block at SlotUniforms.
type Uniforms struct {
	Model        math.Mat4
	View         math.Mat4
	Projection   math.Mat4
	NormalMatrix math.Mat3
}

// Bytes encodes u. The mat3 occupies three vec4 columns.
func (u *Uniforms) Bytes() []byte {
	b := make([]byte, UniformsSize)
	putMat4(b[0:], u.Model)
	putMat4(b[64:], u.View)
	putMat4(b[128:], u.Projection)
	putMat3(b[192:], u.NormalMatrix)
	return b
}

// Params is the per-frame fragment block at SlotParams.
type Params struct {
	CameraPosition  math.Vec3
	PointLightCount uint32
}

// Bytes encodes p. The count packs into the vec3's trailing word.
func (p *Params) Bytes() []byte {
	b := make([]byte, ParamsSize)
	putVec3(b[0:], p.CameraPosition)
	binary.LittleEndian.PutUint32(b[12:], p.PointLightCount)
	return b
}

// Material is the per-submesh fragment block at SlotMaterial. TextureMask
// has bit i set when texture slot i is bound.
type Material struct {
	TextureMask uint32
}

// MaterialFor returns the block for a submesh with the given bound slots.
func MaterialFor(slots []asset.TextureSlot) Material {
	var m Material
	for _, s := range slots {
		m.TextureMask |= 1 << uint(s)
	}
	return m
}

// Bytes encodes m.
func (m *Material) Bytes() []byte {
	b := make([]byte, MaterialSize)
	binary.LittleEndian.PutUint32(b, m.TextureMask)
	return b
}

// DirectionalLight is the block at SlotDirectionalLight.
type DirectionalLight struct {
	Position math.Vec3
	Color    math.Vec3
}

// Bytes encodes l.
func (l *DirectionalLight) Bytes() []byte {
	b := make([]byte, DirectionalLightSize)
	putVec3(b[0:], l.Position)
	putVec3(b[16:], l.Color)
	return b
}

// PointLight is one element of the array at SlotPointLights.
// Attenuation is (constant, linear, quadratic).
type PointLight struct {
	Position    math.Vec3
	Color       math.Vec3
	Attenuation math.Vec3
}

// PointLightsBytes encodes up to MaxPointLights lights into the full array
// block and returns the number encoded.
func PointLightsBytes(lights []PointLight) ([]byte, uint32) {
	n := min(len(lights), MaxPointLights)
	b := make([]byte, PointLightsSize)
	for i, l := range lights[:n] {
		o := i * PointLightSize
		putVec3(b[o:], l.Position)
		putVec3(b[o+16:], l.Color)
		putVec3(b[o+32:], l.Attenuation)
	}
	return b, uint32(n)
}

// VerticesBytes interleaves vertices per VertexLayout.
func VerticesBytes(vertices []asset.Vertex) []byte {
	b := make([]byte, len(vertices)*VertexStride)
	for i := range vertices {
		v := &vertices[i]
		o := i * VertexStride
		putVec3(b[o:], v.Position)
		putVec3(b[o+12:], v.Normal)
		putFloat(b[o+24:], v.UV.X)
		putFloat(b[o+28:], v.UV.Y)
		putVec3(b[o+32:], v.Tangent)
		putVec3(b[o+44:], v.Bitangent)
	}
	return b
}

// IndicesBytes encodes uint32 indices.
func IndicesBytes(indices []uint32) []byte {
	b := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(b[i*4:], idx)
	}
	return b
}

func putFloat(b []byte, f float32) {
	binary.LittleEndian.PutUint32(b, stdmath.Float32bits(f))
}

func putVec3(b []byte, v math.Vec3) {
	putFloat(b[0:], v.X)
	putFloat(b[4:], v.Y)
	putFloat(b[8:], v.Z)
}

func putMat4(b []byte, m math.Mat4) {
	for i, f := range m {
		putFloat(b[i*4:], f)
	}
}

// putMat3 writes each column padded to a vec4.
func putMat3(b []byte, m math.Mat3) {
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			putFloat(b[col*16+row*4:], m[col*3+row])
		}
	}
}
