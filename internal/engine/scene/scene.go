// Package scene owns the uploaded models, the editor camera and the lights,
// and computes the per-frame view state.
package scene

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/daedalus/internal/asset"
	"github.com/Faultbox/daedalus/internal/engine/camera"
	"github.com/Faultbox/daedalus/internal/engine/lighting"
	"github.com/Faultbox/daedalus/internal/engine/model"
	"github.com/Faultbox/daedalus/pkg/math"
)

var (
	// ErrUnknownModel is returned when an id is not in the registry.
	ErrUnknownModel = errors.New("unknown model")

	// ErrInvalidShape is returned by RegisterShape for inconsistent arrays.
	ErrInvalidShape = model.ErrInvalidShape
)

// Uploader creates GPU models. *model.Uploader implements it.
type Uploader interface {
	Upload(name string, meshes []asset.MeshData) (*model.Model, error)
	UploadShape(name string, positions, normals []float32, indices []uint32) (*model.Model, error)
}

// Frame is the view state shared by every draw of a frame.
type Frame struct {
	View            math.Mat4
	Projection      math.Mat4
	CameraPosition  math.Vec3
	PointLightCount uint32
}

// Scene is the model registry plus the camera and lights. It is not safe
// for concurrent use.
type Scene struct {
	Camera *camera.FirstPerson
	Lights *lighting.Set

	controller *camera.Controller
	uploader   Uploader
	models     map[uuid.UUID]*model.Model
	frame      Frame
	log        *zap.Logger
}

// New creates an empty scene. The frame state is computed immediately so a
// scene can be drawn before its first Update.
func New(up Uploader, cam *camera.FirstPerson, ctrl *camera.Controller, lights *lighting.Set, log *zap.Logger) *Scene {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scene{
		Camera:     cam,
		Lights:     lights,
		controller: ctrl,
		uploader:   up,
		models:     make(map[uuid.UUID]*model.Model),
		log:        log,
	}
	s.refreshFrame()
	return s
}

// Register uploads meshes as one model and returns its id.
func (s *Scene) Register(name string, meshes []asset.MeshData) (uuid.UUID, error) {
	m, err := s.uploader.Upload(name, meshes)
	if err != nil {
		return uuid.Nil, fmt.Errorf("register %s: %w", name, err)
	}
	return s.add(m)
}

// RegisterShape uploads procedural geometry as a textureless model.
func (s *Scene) RegisterShape(name string, positions, normals []float32, indices []uint32) (uuid.UUID, error) {
	m, err := s.uploader.UploadShape(name, positions, normals, indices)
	if err != nil {
		return uuid.Nil, fmt.Errorf("register shape %s: %w", name, err)
	}
	return s.add(m)
}

// Load imports the asset at path and registers it under its file name.
func (s *Scene) Load(path string) (uuid.UUID, error) {
	meshes, err := asset.NewImporter(s.log.Named("asset")).Import(path)
	if err != nil {
		return uuid.Nil, err
	}
	return s.Register(filepath.Base(path), meshes)
}

func (s *Scene) add(m *model.Model) (uuid.UUID, error) {
	if _, dup := s.models[m.ID]; dup || m.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("model %s: id %s already issued", m.Name, m.ID)
	}
	s.models[m.ID] = m
	s.log.Info("model registered",
		zap.String("name", m.Name),
		zap.Stringer("id", m.ID),
		zap.Int("submeshes", m.SubmeshCount()),
	)
	return m.ID, nil
}

// Model returns the registered model with the given id.
func (s *Scene) Model(id uuid.UUID) (*model.Model, error) {
	m, ok := s.models[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	return m, nil
}

// ModelCount returns the number of registered models.
func (s *Scene) ModelCount() int {
	return len(s.models)
}

// Update applies accumulated input to the camera and recomputes the frame
// state.
func (s *Scene) Update(dt time.Duration) {
	s.controller.Update(s.Camera, float32(dt.Seconds()))
	s.refreshFrame()
}

// Frame returns the view state computed by the last Update.
func (s *Scene) Frame() Frame {
	return s.frame
}

// Resize updates the camera aspect ratio.
func (s *Scene) Resize(width, height int) {
	s.Camera.SetAspect(width, height)
}

// HandleKeyboard forwards a key transition to the controller.
func (s *Scene) HandleKeyboard(key camera.Key, pressed bool) {
	s.controller.HandleKeyboard(key, pressed)
}

// HandleMouse forwards raw mouse motion to the controller.
func (s *Scene) HandleMouse(dx, dy float32) {
	s.controller.HandleMouse(dx, dy)
}

// HandleScroll forwards a scroll delta to the controller.
func (s *Scene) HandleScroll(d camera.ScrollDelta) {
	s.controller.HandleScroll(d)
}

func (s *Scene) refreshFrame() {
	s.frame = Frame{
		View:            s.Camera.ViewMatrix(),
		Projection:      s.Camera.ProjectionMatrix(),
		CameraPosition:  s.Camera.Position,
		PointLightCount: uint32(min(len(s.Lights.Points()), lighting.MaxPointLights)),
	}
}
