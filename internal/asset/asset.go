// Package asset imports scene-graph asset files into CPU-side mesh and
// material data.
package asset

import (
	"errors"

	"github.com/Faultbox/daedalus/internal/engine/texture"
	"github.com/Faultbox/daedalus/pkg/math"
)

// Import errors. An import either returns complete data or one of these.
var (
	ErrUnsupportedFormat        = errors.New("unsupported asset format")
	ErrMalformedAsset           = errors.New("malformed asset")
	ErrMissingAttribute         = errors.New("missing vertex attribute")
	ErrTextureSourceUnsupported = errors.New("unsupported texture source")
	ErrTextureLoad              = errors.New("texture load failed")
)

// Vertex is one interleaved vertex.
type Vertex struct {
	Position  math.Vec3
	Normal    math.Vec3
	UV        math.Vec2
	Tangent   math.Vec3
	Bitangent math.Vec3
}

// TextureSlot identifies one of the material texture slots.
type TextureSlot int

// Material texture slots. The values double as fragment texture units.
const (
	SlotBaseColor TextureSlot = iota
	SlotNormal
	SlotMetallicRoughness
	SlotOcclusion
	SlotEmissive

	NumTextureSlots
)

var slotNames = [NumTextureSlots]string{
	"base_color", "normal", "metallic_roughness", "occlusion", "emissive",
}

func (s TextureSlot) String() string {
	if s < 0 || s >= NumTextureSlots {
		return "unknown"
	}
	return slotNames[s]
}

// Material holds the decoded textures of a submesh. Absent slots are nil.
type Material struct {
	Name     string
	Textures [NumTextureSlots]*texture.Image
}

// Present reports the slots that hold a texture, in slot order.
func (m *Material) Present() []TextureSlot {
	var slots []TextureSlot
	for s, img := range m.Textures {
		if img != nil {
			slots = append(slots, TextureSlot(s))
		}
	}
	return slots
}

// SubMeshData is one indexed triangle list with its material.
type SubMeshData struct {
	Vertices []Vertex
	Indices  []uint32
	Material Material
}

// MeshData is the geometry of one scene-graph node.
type MeshData struct {
	Name      string
	Submeshes []SubMeshData
}

// Counts returns the total vertex and index counts over all submeshes.
func (m *MeshData) Counts() (vertices, indices int) {
	for i := range m.Submeshes {
		vertices += len(m.Submeshes[i].Vertices)
		indices += len(m.Submeshes[i].Indices)
	}
	return vertices, indices
}
