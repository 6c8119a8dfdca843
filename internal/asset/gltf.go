package asset

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/daedalus/internal/engine/texture"
	"github.com/Faultbox/daedalus/internal/logger"
	"github.com/Faultbox/daedalus/pkg/math"
)

// Importer loads glTF 2.0 assets, either .gltf with external resources or
// self-contained .glb files.
type Importer struct {
	log *zap.Logger
}

// NewImporter creates an importer. A nil logger disables logging.
func NewImporter(log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{log: log}
}

// Import loads the asset at path with the package logger.
func Import(path string) ([]MeshData, error) {
	return NewImporter(logger.Named("asset")).Import(path)
}

// Import parses the asset at path and returns one MeshData per node that
// carries a mesh, in node order. Texture files are resolved relative to the
// asset's directory. Any failure aborts the whole import.
func (im *Importer) Import(path string) ([]MeshData, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".gltf" && ext != ".glb" {
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, ext, path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}

	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedAsset, path, err)
	}

	ld := &loader{
		doc:       doc,
		dir:       filepath.Dir(path),
		images:    make(map[string]*texture.Image),
		materials: make(map[uint32]Material),
		log:       im.log,
	}

	var meshes []MeshData
	for i, node := range doc.Nodes {
		if node.Mesh == nil {
			continue
		}
		md, err := ld.node(i, node)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		meshes = append(meshes, md)
	}

	im.log.Debug("asset imported",
		zap.String("path", path),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("meshes", len(meshes)),
		zap.Int("materials", len(ld.materials)),
		zap.Int("images", len(ld.images)),
	)
	return meshes, nil
}

// loader holds per-import state. Decoded images and materials are shared
// between primitives that reference them.
type loader struct {
	doc       *gltf.Document
	dir       string
	images    map[string]*texture.Image
	materials map[uint32]Material
	log       *zap.Logger
}

func (ld *loader) node(index int, node *gltf.Node) (MeshData, error) {
	mi := *node.Mesh
	if int(mi) >= len(ld.doc.Meshes) {
		return MeshData{}, fmt.Errorf("%w: node %d references mesh %d of %d", ErrMalformedAsset, index, mi, len(ld.doc.Meshes))
	}
	mesh := ld.doc.Meshes[mi]

	name := node.Name
	if name == "" {
		name = mesh.Name
	}
	if name == "" {
		name = fmt.Sprintf("node%d", index)
	}

	md := MeshData{Name: name, Submeshes: make([]SubMeshData, 0, len(mesh.Primitives))}
	for pi, prim := range mesh.Primitives {
		sm, err := ld.primitive(prim)
		if err != nil {
			return MeshData{}, fmt.Errorf("mesh %q primitive %d: %w", name, pi, err)
		}
		md.Submeshes = append(md.Submeshes, sm)
	}

	ld.log.Debug("node loaded",
		zap.String("name", name),
		zap.Int("submeshes", len(md.Submeshes)),
	)
	return md, nil
}

func (ld *loader) primitive(prim *gltf.Primitive) (SubMeshData, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		return SubMeshData{}, fmt.Errorf("%w: primitive mode %v", ErrUnsupportedFormat, prim.Mode)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return SubMeshData{}, fmt.Errorf("%w: %s", ErrMissingAttribute, gltf.POSITION)
	}
	acr, err := ld.accessor(posIdx)
	if err != nil {
		return SubMeshData{}, err
	}
	positions, err := modeler.ReadPosition(ld.doc, acr, nil)
	if err != nil {
		return SubMeshData{}, fmt.Errorf("%w: read positions: %v", ErrMalformedAsset, err)
	}

	vertices := make([]Vertex, len(positions))
	for i, p := range positions {
		vertices[i].Position = math.V3(p)
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := readAttribute(ld, idx, gltf.NORMAL, len(vertices), modeler.ReadNormal)
		if err != nil {
			return SubMeshData{}, err
		}
		for i, n := range normals {
			vertices[i].Normal = math.V3(n)
		}
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := readAttribute(ld, idx, gltf.TEXCOORD_0, len(vertices), modeler.ReadTextureCoord)
		if err != nil {
			return SubMeshData{}, err
		}
		for i, uv := range uvs {
			vertices[i].UV = math.V2(uv)
		}
	}

	indices, err := ld.indices(prim, len(vertices))
	if err != nil {
		return SubMeshData{}, err
	}

	if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
		tangents, err := readAttribute(ld, idx, gltf.TANGENT, len(vertices), modeler.ReadTangent)
		if err != nil {
			return SubMeshData{}, err
		}
		applySourceTangents(vertices, tangents)
	} else {
		GenerateTangents(vertices, indices)
	}

	var mat Material
	if prim.Material != nil {
		if mat, err = ld.material(*prim.Material); err != nil {
			return SubMeshData{}, err
		}
	}

	return SubMeshData{Vertices: vertices, Indices: indices, Material: mat}, nil
}

// readAttribute reads a per-vertex attribute and checks it matches the vertex count.
func readAttribute[T any](ld *loader, index uint32, name string, count int,
	read func(*gltf.Document, *gltf.Accessor, []T) ([]T, error)) ([]T, error) {
	acr, err := ld.accessor(index)
	if err != nil {
		return nil, err
	}
	data, err := read(ld.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrMalformedAsset, name, err)
	}
	if len(data) != count {
		return nil, fmt.Errorf("%w: %s has %d elements, positions have %d", ErrMalformedAsset, name, len(data), count)
	}
	return data, nil
}

func (ld *loader) indices(prim *gltf.Primitive, vertexCount int) ([]uint32, error) {
	if prim.Indices == nil {
		return nil, fmt.Errorf("%w: primitive is not indexed", ErrMalformedAsset)
	}
	acr, err := ld.accessor(*prim.Indices)
	if err != nil {
		return nil, err
	}
	indices, err := modeler.ReadIndices(ld.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: read indices: %v", ErrMalformedAsset, err)
	}
	if len(indices) == 0 || len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices is not a triangle list", ErrMalformedAsset, len(indices))
	}
	for i, v := range indices {
		if int(v) >= vertexCount {
			return nil, fmt.Errorf("%w: index %d at %d out of range (%d vertices)", ErrMalformedAsset, v, i, vertexCount)
		}
	}
	return indices, nil
}

// accessor returns the accessor at index after checking that the data it
// describes lies inside its buffer view and buffer.
func (ld *loader) accessor(index uint32) (*gltf.Accessor, error) {
	doc := ld.doc
	if int(index) >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d of %d", ErrMalformedAsset, index, len(doc.Accessors))
	}
	acr := doc.Accessors[index]
	if acr.BufferView == nil {
		// No view: the accessor reads as zeros.
		return acr, nil
	}

	vi := *acr.BufferView
	if int(vi) >= len(doc.BufferViews) {
		return nil, fmt.Errorf("%w: accessor %d references buffer view %d of %d", ErrMalformedAsset, index, vi, len(doc.BufferViews))
	}
	view := doc.BufferViews[vi]
	if int(view.Buffer) >= len(doc.Buffers) {
		return nil, fmt.Errorf("%w: buffer view %d references buffer %d of %d", ErrMalformedAsset, vi, view.Buffer, len(doc.Buffers))
	}
	buf := doc.Buffers[view.Buffer]
	if int(view.ByteOffset)+int(view.ByteLength) > len(buf.Data) {
		return nil, fmt.Errorf("%w: buffer view %d [%d, +%d) exceeds buffer %d (%d bytes)",
			ErrMalformedAsset, vi, view.ByteOffset, view.ByteLength, view.Buffer, len(buf.Data))
	}

	elem := componentSize(acr.ComponentType) * componentCount(acr.Type)
	if elem == 0 {
		return nil, fmt.Errorf("%w: accessor %d has unknown element type", ErrMalformedAsset, index)
	}
	if acr.Count == 0 {
		return nil, fmt.Errorf("%w: accessor %d is empty", ErrMalformedAsset, index)
	}
	stride := int(view.ByteStride)
	if stride == 0 {
		stride = elem
	}
	end := int(acr.ByteOffset) + stride*(int(acr.Count)-1) + elem
	if end > int(view.ByteLength) {
		return nil, fmt.Errorf("%w: accessor %d needs %d bytes, buffer view %d has %d",
			ErrMalformedAsset, index, end, vi, view.ByteLength)
	}
	return acr, nil
}

func componentSize(c gltf.ComponentType) int {
	switch c {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4
	}
	return 0
}

func componentCount(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4, gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	}
	return 0
}

func (ld *loader) material(index uint32) (Material, error) {
	if m, ok := ld.materials[index]; ok {
		return m, nil
	}
	if int(index) >= len(ld.doc.Materials) {
		return Material{}, fmt.Errorf("%w: material %d of %d", ErrMalformedAsset, index, len(ld.doc.Materials))
	}
	src := ld.doc.Materials[index]

	var refs [NumTextureSlots]*uint32
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			refs[SlotBaseColor] = &pbr.BaseColorTexture.Index
		}
		if pbr.MetallicRoughnessTexture != nil {
			refs[SlotMetallicRoughness] = &pbr.MetallicRoughnessTexture.Index
		}
	}
	if src.NormalTexture != nil {
		refs[SlotNormal] = src.NormalTexture.Index
	}
	if src.OcclusionTexture != nil {
		refs[SlotOcclusion] = src.OcclusionTexture.Index
	}
	if src.EmissiveTexture != nil {
		refs[SlotEmissive] = &src.EmissiveTexture.Index
	}

	mat := Material{Name: src.Name}
	for slot, ref := range refs {
		if ref == nil {
			continue
		}
		img, err := ld.texture(*ref)
		if err != nil {
			return Material{}, fmt.Errorf("material %q %s texture: %w", src.Name, TextureSlot(slot), err)
		}
		mat.Textures[slot] = img
	}

	ld.log.Debug("material loaded",
		zap.String("name", src.Name),
		zap.Int("textures", len(mat.Present())),
	)
	ld.materials[index] = mat
	return mat, nil
}

func (ld *loader) texture(index uint32) (*texture.Image, error) {
	doc := ld.doc
	if int(index) >= len(doc.Textures) {
		return nil, fmt.Errorf("%w: texture %d of %d", ErrMalformedAsset, index, len(doc.Textures))
	}
	tex := doc.Textures[index]
	if tex.Source == nil {
		return nil, fmt.Errorf("%w: texture %d has no image source", ErrTextureSourceUnsupported, index)
	}
	si := *tex.Source
	if int(si) >= len(doc.Images) {
		return nil, fmt.Errorf("%w: texture %d references image %d of %d", ErrMalformedAsset, index, si, len(doc.Images))
	}
	img := doc.Images[si]

	switch {
	case img.BufferView != nil:
		return nil, fmt.Errorf("%w: image %d is stored in a buffer view", ErrTextureSourceUnsupported, si)
	case img.URI == "":
		return nil, fmt.Errorf("%w: image %d has no uri", ErrTextureSourceUnsupported, si)
	case strings.HasPrefix(img.URI, "data:"):
		return nil, fmt.Errorf("%w: image %d is an embedded data uri", ErrTextureSourceUnsupported, si)
	case strings.Contains(img.URI, "://"):
		return nil, fmt.Errorf("%w: image %d uri %q is not a relative file", ErrTextureSourceUnsupported, si, img.URI)
	}

	uri := img.URI
	if unescaped, err := url.PathUnescape(uri); err == nil {
		uri = unescaped
	}
	path := filepath.Join(ld.dir, filepath.FromSlash(uri))
	if decoded, ok := ld.images[path]; ok {
		return decoded, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTextureLoad, err)
	}
	decoded, err := texture.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTextureLoad, path, err)
	}

	ld.images[path] = decoded
	return decoded, nil
}
