package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/daedalus/internal/asset"
	"github.com/Faultbox/daedalus/internal/engine/camera"
	"github.com/Faultbox/daedalus/internal/engine/gpu"
	"github.com/Faultbox/daedalus/internal/engine/gpu/gputest"
	"github.com/Faultbox/daedalus/internal/engine/lighting"
	"github.com/Faultbox/daedalus/internal/engine/model"
	"github.com/Faultbox/daedalus/internal/engine/scene"
	"github.com/Faultbox/daedalus/internal/engine/shadertypes"
	"github.com/Faultbox/daedalus/internal/engine/shape"
	"github.com/Faultbox/daedalus/internal/engine/texture"
	"github.com/Faultbox/daedalus/pkg/math"
)

type fixture struct {
	dev     *gputest.Device
	surface *gputest.Surface
	scene   *scene.Scene
	r       *Renderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev := gputest.NewDevice()
	queue := dev.NewCommandQueue()
	surface := gputest.NewSurface(1600, 900)

	cam := camera.NewFirstPerson(math.Vec3{Z: 3}, -90, 0, 45, 1600.0/900.0, 0.1, 1000)
	sc := scene.New(model.NewUploader(dev, queue, nil), cam, camera.NewController(4, 15), lighting.Default(), nil)

	r, err := New(dev, queue, surface, DefaultConfig(), nil)
	require.NoError(t, err)
	return &fixture{dev: dev, surface: surface, scene: sc, r: r}
}

func (f *fixture) cube(t *testing.T) uuid.UUID {
	t.Helper()
	g := shape.Cube()
	id, err := f.scene.RegisterShape("cube", g.Positions, g.Normals, g.Indices)
	require.NoError(t, err)
	return id
}

func (f *fixture) texturedQuad(t *testing.T) uuid.UUID {
	t.Helper()
	img := &texture.Image{Width: 8, Height: 8, Pix: make([]uint8, 8*8*4)}
	var mat asset.Material
	mat.Textures[asset.SlotBaseColor] = img
	mat.Textures[asset.SlotEmissive] = img

	verts := make([]asset.Vertex, 4)
	verts[1].Position = math.Vec3{X: 1}
	verts[2].Position = math.Vec3{X: 1, Y: 1}
	verts[3].Position = math.Vec3{Y: 1}
	id, err := f.scene.Register("quad", []asset.MeshData{{
		Name: "quad",
		Submeshes: []asset.SubMeshData{
			{Vertices: verts, Indices: []uint32{0, 1, 2, 0, 2, 3}, Material: mat},
			{Vertices: verts, Indices: []uint32{0, 2, 3}},
		},
	}})
	require.NoError(t, err)
	return id
}

func names(ops []gputest.Op) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.Name
	}
	return out
}

func TestTickZeroRenderables(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.r.Tick(f.scene, nil))

	require.Len(t, f.dev.Commits, 1)
	c := f.dev.Commits[0]
	assert.Equal(t, []string{
		"BeginRender",
		"SetDepthStencilState",
		"SetPipeline",
		"SetCullMode",
		"SetFragmentBytes",
		"SetFragmentBytes",
		"SetFragmentBytes",
		"EndRender",
		"Present",
	}, names(c.Ops))

	// Cleared to (0.2, 0.2, 0.25, 1).
	assert.Equal(t, []byte{51, 51, 64, 255}, c.Ops[0].Data)
	cull := c.Find("SetCullMode")[0]
	assert.Equal(t, int(gpu.CullBack), cull.Slot)
	assert.Equal(t, int(gpu.WindingCounterClockwise), cull.Count)

	slots := []int{}
	for _, op := range c.Find("SetFragmentBytes") {
		slots = append(slots, op.Slot)
	}
	assert.Equal(t, []int{shadertypes.SlotDirectionalLight, shadertypes.SlotPointLights, shadertypes.SlotParams}, slots)

	assert.Equal(t, 1, f.surface.Presented)
	assert.Equal(t, Stats{FramesPresented: 1}, f.r.Stats())
}

func TestTickSkipsWithoutDrawable(t *testing.T) {
	f := newFixture(t)
	id := f.cube(t)
	f.surface.Unavailable = true

	require.NoError(t, f.r.Tick(f.scene, []scene.Renderable{{ModelID: id, Transform: scene.NewTransform()}}))

	assert.Empty(t, f.dev.Commits)
	assert.Zero(t, f.surface.Presented)
	assert.Equal(t, Stats{FramesSkipped: 1}, f.r.Stats())

	// Minimised windows report a zero size and are skipped the same way.
	f.surface.Unavailable = false
	f.r.Resize(0, 0)
	require.NoError(t, f.r.Tick(f.scene, nil))
	assert.Equal(t, 2, f.r.Stats().FramesSkipped)
}

func TestTickSkipsWhenResourcesExhausted(t *testing.T) {
	f := newFixture(t)
	f.surface.Err = fmt.Errorf("%w: drawable pool out of memory", gpu.ErrResourceExhausted)

	require.NoError(t, f.r.Tick(f.scene, nil))
	assert.Equal(t, Stats{FramesSkipped: 1}, f.r.Stats())

	f.dev.CommitErr = fmt.Errorf("%w: command buffer allocation", gpu.ErrResourceExhausted)
	f.surface.Err = nil
	require.NoError(t, f.r.Tick(f.scene, nil))
	assert.Equal(t, Stats{FramesSkipped: 2}, f.r.Stats())

	// The next tick retries and presents.
	f.dev.CommitErr = nil
	require.NoError(t, f.r.Tick(f.scene, nil))
	assert.Equal(t, Stats{FramesPresented: 1, FramesSkipped: 2}, f.r.Stats())
	assert.Equal(t, 1, f.surface.Presented)
}

func TestTickFailureLosesOnlyThatFrame(t *testing.T) {
	f := newFixture(t)
	lost := errors.New("device lost")

	f.dev.CommitErr = lost
	err := f.r.Tick(f.scene, nil)
	require.ErrorIs(t, err, lost)

	f.dev.CommitErr = nil
	f.surface.Err = errors.New("surface gone")
	require.Error(t, f.r.Tick(f.scene, nil))

	f.surface.Err = nil
	require.NoError(t, f.r.Tick(f.scene, nil))
	assert.Equal(t, Stats{FramesPresented: 1, FramesFailed: 2}, f.r.Stats())
	assert.Equal(t, 1, f.surface.Presented)
}

func TestTickDrawsSubmeshesInOrder(t *testing.T) {
	f := newFixture(t)
	quad := f.texturedQuad(t)
	m, err := f.scene.Model(quad)
	require.NoError(t, err)

	require.NoError(t, f.r.Tick(f.scene, []scene.Renderable{{ModelID: quad, Transform: scene.NewTransform()}}))

	frame := f.dev.Commits[len(f.dev.Commits)-1]
	draws := frame.Find("DrawIndexed")
	require.Len(t, draws, 2)
	subs := m.Meshes[0].Submeshes
	assert.Equal(t, 6, draws[0].Count)
	assert.Same(t, subs[0].IndexBuffer, gpu.Buffer(draws[0].Buffer))
	assert.Equal(t, 3, draws[1].Count)
	assert.Same(t, subs[1].IndexBuffer, gpu.Buffer(draws[1].Buffer))

	// Only present slots are bound.
	textures := frame.Find("SetFragmentTexture")
	require.Len(t, textures, 2)
	assert.Equal(t, int(asset.SlotBaseColor), textures[0].Slot)
	assert.Equal(t, int(asset.SlotEmissive), textures[1].Slot)

	var masks []uint32
	for _, op := range frame.Find("SetFragmentBytes") {
		if op.Slot == shadertypes.SlotMaterial {
			masks = append(masks, binary.LittleEndian.Uint32(op.Data))
		}
	}
	assert.Equal(t, []uint32{1<<asset.SlotBaseColor | 1<<asset.SlotEmissive, 0}, masks)

	groups := frame.Find("PushDebugGroup")
	require.Len(t, groups, 1)
	assert.Equal(t, "quad", groups[0].Label)
	assert.Len(t, frame.Find("PopDebugGroup"), 1)
	assert.Equal(t, 2, f.r.Stats().Draws)
}

func TestMipGenerationCommittedBeforeDraw(t *testing.T) {
	f := newFixture(t)
	quad := f.texturedQuad(t)
	require.NoError(t, f.r.Tick(f.scene, []scene.Renderable{{ModelID: quad, Transform: scene.NewTransform()}}))

	require.Len(t, f.dev.Commits, 2)
	mips := f.dev.Commits[0].Find("GenerateMipmaps")
	require.NotEmpty(t, mips)
	assert.Empty(t, f.dev.Commits[0].Find("DrawIndexed"))

	sampled := f.dev.Commits[1].Find("SetFragmentTexture")
	require.NotEmpty(t, sampled)
	for _, s := range sampled {
		found := false
		for _, m := range mips {
			found = found || m.Texture == s.Texture
		}
		assert.True(t, found, "texture sampled before its mips were generated")
	}
}

func TestTickUniforms(t *testing.T) {
	f := newFixture(t)
	id := f.cube(t)
	tr := scene.NewTransform()
	tr.Position = math.Vec3{X: 2}

	require.NoError(t, f.r.Tick(f.scene, []scene.Renderable{{ModelID: id, Transform: tr}}))

	ops := f.dev.Ops("SetVertexBytes")
	require.Len(t, ops, 1)
	assert.Equal(t, shadertypes.SlotUniforms, ops[0].Slot)
	frame := f.scene.Frame()
	want := shadertypes.Uniforms{
		Model:        math.Translate(2, 0, 0),
		View:         frame.View,
		Projection:   frame.Projection,
		NormalMatrix: math.NormalMatrix(math.Translate(2, 0, 0)),
	}
	assert.Equal(t, want.Bytes(), ops[0].Data)

	vb := f.dev.Ops("SetVertexBuffer")
	require.Len(t, vb, 1)
	assert.Equal(t, shadertypes.SlotVertexBuffer, vb[0].Slot)
	assert.Empty(t, f.dev.Ops("SetFragmentTexture"))
}

func TestTickSkipsUnknownModels(t *testing.T) {
	f := newFixture(t)
	id := f.cube(t)

	err := f.r.Tick(f.scene, []scene.Renderable{
		{ModelID: uuid.New(), Transform: scene.NewTransform()},
		{ModelID: id, Transform: scene.NewTransform()},
	})
	require.NoError(t, err)
	assert.Len(t, f.dev.Ops("DrawIndexed"), 1)
	assert.Equal(t, Stats{FramesPresented: 1, Draws: 1, MissingModels: 1}, f.r.Stats())
}

func TestPipelineDesc(t *testing.T) {
	desc, err := PipelineDesc(PassForward, gpu.FormatBGRA8)
	require.NoError(t, err)
	assert.Equal(t, "Forward Render Pass", desc.Label)
	assert.Equal(t, shadertypes.VertexStride, desc.Layout.Stride)
	assert.Equal(t, shadertypes.SlotVertexBuffer, desc.Layout.BufferSlot)
	assert.Len(t, desc.Layout.Attributes, 5)
	assert.Equal(t, gpu.FormatDepth32Float, desc.DepthFormat)
	assert.Equal(t, gpu.FormatBGRA8, desc.ColorFormat)
	assert.Equal(t, shadertypes.SlotPointLights, desc.UniformSlots["PointLights"])
	assert.Equal(t, int(asset.SlotNormal), desc.TextureSlots["normalMap"])
	assert.NotEmpty(t, desc.VertexSource)
	assert.NotEmpty(t, desc.FragmentSource)

	_, err = PipelineDesc(PassObjectID, gpu.FormatBGRA8)
	require.ErrorIs(t, err, ErrPassUnimplemented)
}

func TestNewFailsOnPipelineError(t *testing.T) {
	dev := gputest.NewDevice()
	boom := errors.New("compile failed")
	dev.PipelineErr = boom
	_, err := New(dev, dev.NewCommandQueue(), gputest.NewSurface(1, 1), DefaultConfig(), nil)
	require.ErrorIs(t, err, boom)
}

func TestDepthState(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, gpu.DepthStencilDesc{Compare: gpu.CompareLess, WriteEnabled: true}, f.r.forward.depth.Desc())
	require.Len(t, f.dev.Pipelines, 1)
}
