package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/daedalus/internal/asset"
	"github.com/Faultbox/daedalus/internal/engine/gpu"
	"github.com/Faultbox/daedalus/internal/engine/shadertypes"
	"github.com/Faultbox/daedalus/internal/engine/texture"
	"github.com/Faultbox/daedalus/pkg/math"
)

// ErrInvalidShape is returned by UploadShape for inconsistent arrays.
var ErrInvalidShape = errors.New("invalid shape geometry")

// Uploader turns CPU mesh data into Models on a device.
type Uploader struct {
	dev   gpu.Device
	queue gpu.CommandQueue
	log   *zap.Logger
}

// NewUploader creates an uploader submitting mip generation to queue.
// queue must be the queue the renderer draws with.
func NewUploader(dev gpu.Device, queue gpu.CommandQueue, log *zap.Logger) *Uploader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{dev: dev, queue: queue, log: log}
}

// Upload creates buffers and textures for every submesh of meshes and
// returns a Model with a fresh id. An image shared by several submeshes is
// uploaded once. Mip generation for all textures is committed to the queue
// before Upload returns. On failure everything created so far is released.
func (u *Uploader) Upload(name string, meshes []asset.MeshData) (*Model, error) {
	m := &Model{ID: uuid.New(), Name: name, Bounds: emptyBounds()}
	res := &resources{textures: make(map[*texture.Image]gpu.Texture)}

	for mi := range meshes {
		src := &meshes[mi]
		mesh := Mesh{Name: src.Name, Submeshes: make([]Submesh, 0, len(src.Submeshes))}

		for si := range src.Submeshes {
			label := fmt.Sprintf("%s/%s/%d", name, src.Name, si)
			sub, err := u.uploadGeometry(label, src.Submeshes[si].Vertices, src.Submeshes[si].Indices)
			if err != nil {
				res.release()
				return nil, err
			}
			res.buffers = append(res.buffers, sub.VertexBuffer, sub.IndexBuffer)
			for _, v := range src.Submeshes[si].Vertices {
				m.Bounds = m.Bounds.Extend(v.Position)
			}

			for slot, img := range src.Submeshes[si].Material.Textures {
				if img == nil {
					continue
				}
				tex, ok := res.textures[img]
				if !ok {
					tex, err = u.uploadTexture(label+"/"+asset.TextureSlot(slot).String(), img)
					if err != nil {
						res.release()
						return nil, err
					}
					res.textures[img] = tex
					res.order = append(res.order, tex)
				}
				sub.Material.Textures[slot] = tex
			}

			mesh.Submeshes = append(mesh.Submeshes, sub)
		}
		m.Meshes = append(m.Meshes, mesh)
	}

	cb := u.queue.CommandBuffer("upload " + name)
	blit := cb.BlitEncoder()
	mips := 0
	for _, tex := range res.order {
		if tex.Desc().MipLevels > 1 {
			blit.GenerateMipmaps(tex)
			mips++
		}
	}
	blit.End()
	if err := cb.Commit(); err != nil {
		res.release()
		return nil, fmt.Errorf("upload %s: commit mip generation: %w", name, err)
	}

	u.log.Debug("model uploaded",
		zap.String("name", name),
		zap.Stringer("id", m.ID),
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("submeshes", m.SubmeshCount()),
		zap.Int("textures", len(res.order)),
		zap.Int("mipmapped_textures", mips),
	)
	return m, nil
}

// resources tracks what one upload created.
type resources struct {
	buffers  []gpu.Buffer
	textures map[*texture.Image]gpu.Texture
	order    []gpu.Texture
}

func (r *resources) release() {
	for _, b := range r.buffers {
		b.Release()
	}
	for _, t := range r.order {
		t.Release()
	}
}

// UploadShape builds a single-submesh model without textures from flat
// position and normal arrays (xyz per vertex) and triangle indices.
func (u *Uploader) UploadShape(name string, positions, normals []float32, indices []uint32) (*Model, error) {
	if len(positions) == 0 || len(positions)%3 != 0 {
		return nil, fmt.Errorf("%w: %d position floats", ErrInvalidShape, len(positions))
	}
	if len(normals) != len(positions) {
		return nil, fmt.Errorf("%w: %d normal floats for %d position floats", ErrInvalidShape, len(normals), len(positions))
	}
	if len(indices) == 0 || len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices", ErrInvalidShape, len(indices))
	}
	n := len(positions) / 3
	for _, idx := range indices {
		if int(idx) >= n {
			return nil, fmt.Errorf("%w: index %d out of range (%d vertices)", ErrInvalidShape, idx, n)
		}
	}

	vertices := make([]asset.Vertex, n)
	m := &Model{ID: uuid.New(), Name: name, Bounds: emptyBounds()}
	for i := range vertices {
		vertices[i].Position = math.Vec3{X: positions[i*3], Y: positions[i*3+1], Z: positions[i*3+2]}
		vertices[i].Normal = math.Vec3{X: normals[i*3], Y: normals[i*3+1], Z: normals[i*3+2]}
		m.Bounds = m.Bounds.Extend(vertices[i].Position)
	}

	sub, err := u.uploadGeometry(name, vertices, indices)
	if err != nil {
		return nil, err
	}
	m.Meshes = []Mesh{{Name: name, Submeshes: []Submesh{sub}}}

	u.log.Debug("shape uploaded", zap.String("name", name), zap.Stringer("id", m.ID), zap.Int("vertices", n))
	return m, nil
}

func (u *Uploader) uploadGeometry(label string, vertices []asset.Vertex, indices []uint32) (Submesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return Submesh{}, fmt.Errorf("submesh %s is empty", label)
	}
	vb, err := u.dev.NewBuffer(gpu.BufferVertex, shadertypes.VerticesBytes(vertices), label+"/vertices")
	if err != nil {
		return Submesh{}, fmt.Errorf("submesh %s: %w", label, err)
	}
	ib, err := u.dev.NewBuffer(gpu.BufferIndex, shadertypes.IndicesBytes(indices), label+"/indices")
	if err != nil {
		vb.Release()
		return Submesh{}, fmt.Errorf("submesh %s: %w", label, err)
	}
	return Submesh{VertexBuffer: vb, IndexBuffer: ib, IndexCount: len(indices)}, nil
}

func (u *Uploader) uploadTexture(label string, img *texture.Image) (gpu.Texture, error) {
	desc := gpu.TextureDesc{
		Label:     label,
		Width:     img.Width,
		Height:    img.Height,
		MipLevels: texture.MipLevelCount(img.Width, img.Height),
		Format:    gpu.FormatRGBA8,
	}
	tex, err := u.dev.NewTexture(desc, img.Pix)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", label, err)
	}
	u.log.Debug("texture uploaded",
		zap.String("label", label),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Int("mip_levels", desc.MipLevels),
	)
	return tex, nil
}
