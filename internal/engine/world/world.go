// Package world stores entities and their mesh and transform components.
package world

import (
	"slices"

	"github.com/google/uuid"

	"github.com/Faultbox/daedalus/internal/engine/scene"
)

// Entity identifies an entity. The zero value is never issued.
type Entity uint32

// MeshComponent attaches a registered model to an entity.
type MeshComponent struct {
	ModelID uuid.UUID
}

// Stats counts entities and component instances.
type Stats struct {
	Entities   int `yaml:"entities"`
	Meshes     int `yaml:"mesh_components"`
	Transforms int `yaml:"transform_components"`
}

// World manages entities. It is not safe for concurrent use.
type World struct {
	next       Entity
	alive      []Entity
	meshes     map[Entity]MeshComponent
	transforms map[Entity]scene.Transform
}

// New creates an empty world.
func New() *World {
	return &World{
		meshes:     make(map[Entity]MeshComponent),
		transforms: make(map[Entity]scene.Transform),
	}
}

// Spawn creates an entity with no components.
func (w *World) Spawn() Entity {
	w.next++
	w.alive = append(w.alive, w.next)
	return w.next
}

// SpawnRenderable creates an entity carrying both a mesh and a transform.
func (w *World) SpawnRenderable(modelID uuid.UUID, t scene.Transform) Entity {
	e := w.Spawn()
	w.SetMesh(e, MeshComponent{ModelID: modelID})
	w.SetTransform(e, t)
	return e
}

// Despawn removes an entity and its components.
func (w *World) Despawn(e Entity) {
	i := slices.Index(w.alive, e)
	if i < 0 {
		return
	}
	w.alive = slices.Delete(w.alive, i, i+1)
	delete(w.meshes, e)
	delete(w.transforms, e)
}

// Alive reports whether e exists.
func (w *World) Alive(e Entity) bool {
	return slices.Contains(w.alive, e)
}

// SetMesh attaches or replaces the mesh component of e.
func (w *World) SetMesh(e Entity, c MeshComponent) {
	if w.Alive(e) {
		w.meshes[e] = c
	}
}

// SetTransform attaches or replaces the transform component of e.
func (w *World) SetTransform(e Entity, t scene.Transform) {
	if w.Alive(e) {
		w.transforms[e] = t
	}
}

// Mesh returns the mesh component of e.
func (w *World) Mesh(e Entity) (MeshComponent, bool) {
	c, ok := w.meshes[e]
	return c, ok
}

// Transform returns the transform component of e.
func (w *World) Transform(e Entity) (scene.Transform, bool) {
	t, ok := w.transforms[e]
	return t, ok
}

// Renderables returns a (model, transform) pair for every entity carrying
// both components, in spawn order.
func (w *World) Renderables() []scene.Renderable {
	out := make([]scene.Renderable, 0, len(w.meshes))
	for _, e := range w.alive {
		m, ok := w.meshes[e]
		if !ok {
			continue
		}
		t, ok := w.transforms[e]
		if !ok {
			continue
		}
		out = append(out, scene.Renderable{ModelID: m.ModelID, Transform: t})
	}
	return out
}

// Stats returns entity and component counts.
func (w *World) Stats() Stats {
	return Stats{
		Entities:   len(w.alive),
		Meshes:     len(w.meshes),
		Transforms: len(w.transforms),
	}
}
