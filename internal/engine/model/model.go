// Package model holds GPU-resident models and uploads imported mesh data to
// the device.
package model

import (
	"github.com/google/uuid"

	"github.com/Faultbox/daedalus/internal/asset"
	"github.com/Faultbox/daedalus/internal/engine/gpu"
	"github.com/Faultbox/daedalus/pkg/math"
)

// Material holds the uploaded textures of a submesh. Absent slots are nil.
type Material struct {
	Textures [asset.NumTextureSlots]gpu.Texture
}

// Bound returns the slots that hold a texture, in slot order.
func (m *Material) Bound() []asset.TextureSlot {
	var slots []asset.TextureSlot
	for s, t := range m.Textures {
		if t != nil {
			slots = append(slots, asset.TextureSlot(s))
		}
	}
	return slots
}

// Submesh is one indexed draw.
type Submesh struct {
	VertexBuffer gpu.Buffer
	IndexBuffer  gpu.Buffer
	IndexCount   int
	Material     Material
}

// Mesh is the uploaded geometry of one asset node.
type Mesh struct {
	Name      string
	Submeshes []Submesh
}

// Model is an uploaded asset. Its buffers and textures are never modified
// after upload.
type Model struct {
	ID     uuid.UUID
	Name   string
	Meshes []Mesh
	Bounds Bounds
}

// SubmeshCount returns the number of draws the model issues.
func (m *Model) SubmeshCount() int {
	n := 0
	for i := range m.Meshes {
		n += len(m.Meshes[i].Submeshes)
	}
	return n
}

// Bounds holds the axis-aligned bounding box of the model in model space.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Empty reports whether no point has been added.
func (b Bounds) Empty() bool {
	return b.Min.X > b.Max.X
}

// emptyBounds returns bounds that any point extends.
func emptyBounds() Bounds {
	const inf = float32(3.4e38)
	return Bounds{
		Min: math.Vec3{X: inf, Y: inf, Z: inf},
		Max: math.Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

// Extend grows b to contain p.
func (b Bounds) Extend(p math.Vec3) Bounds {
	b.Min = math.Vec3{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y), Z: min(b.Min.Z, p.Z)}
	b.Max = math.Vec3{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y), Z: max(b.Max.Z, p.Z)}
	return b
}

// Size returns the box extents.
func (b Bounds) Size() math.Vec3 {
	if b.Empty() {
		return math.Vec3{}
	}
	return b.Max.Sub(b.Min)
}
