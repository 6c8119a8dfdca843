package math

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

const eps = 1e-5

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())
	if result != m {
		t.Errorf("M * I should equal M, got %v", result)
	}
}

func TestTranslate(t *testing.T) {
	m := TranslateV(Vec3{5, 10, 15})

	// Translation lives in column 4 (indices 12, 13, 14)
	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
}

func TestTransformPointScale(t *testing.T) {
	m := ScaleV(Vec3{2, 2, 2})
	result := m.TransformPoint([3]float32{1, 2, 3})

	expected := [3]float32{2, 4, 6}
	if result != expected {
		t.Errorf("TransformPoint with scale: got %v, want %v", result, expected)
	}
}

func TestRotateY90(t *testing.T) {
	m := RotateY(float32(math.Pi / 2))
	result := m.TransformPoint([3]float32{1, 0, 0})

	// (1,0,0) turns to (0,0,-1) under a right-handed 90 degree Y rotation
	assert.InDeltaSlice(t, []float32{0, 0, -1}, result[:], eps)
}

func TestRotationsMatchMathGL(t *testing.T) {
	for _, angle := range []float32{0, 0.3, -1.2, math.Pi} {
		x, wantX := RotateX(angle), mgl32.HomogRotate3DX(angle)
		y, wantY := RotateY(angle), mgl32.HomogRotate3DY(angle)
		z, wantZ := RotateZ(angle), mgl32.HomogRotate3DZ(angle)
		assert.InDeltaSlice(t, wantX[:], x[:], eps, "x %v", angle)
		assert.InDeltaSlice(t, wantY[:], y[:], eps, "y %v", angle)
		assert.InDeltaSlice(t, wantZ[:], z[:], eps, "z %v", angle)
	}
}

func TestMulMatchesMathGL(t *testing.T) {
	a := Translate(1, -2, 3).Mul(RotateX(0.4)).Mul(Scale(2, 3, 4))
	want := mgl32.Translate3D(1, -2, 3).Mul4(mgl32.HomogRotate3DX(0.4)).Mul4(mgl32.Scale3D(2, 3, 4))
	assert.InDeltaSlice(t, want[:], a[:], eps)
}

func TestPerspectiveMatchesMathGL(t *testing.T) {
	fov := Radians(45)
	m := Perspective(fov, 16.0/9.0, 0.1, 1000)
	want := mgl32.Perspective(fov, 16.0/9.0, 0.1, 1000)
	assert.InDeltaSlice(t, want[:], m[:], 1e-4)

	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
}

func TestLookAtMatchesMathGL(t *testing.T) {
	eye := Vec3{1, 2, 5}
	center := Vec3{0, 0.5, -1}
	up := Vec3{0, 1, 0}

	m := LookAt(eye, center, up)
	want := mgl32.LookAtV(mgl32.Vec3{1, 2, 5}, mgl32.Vec3{0, 0.5, -1}, mgl32.Vec3{0, 1, 0})
	assert.InDeltaSlice(t, want[:], m[:], eps)

	// The eye maps to the view-space origin
	p := m.TransformPoint(eye.Array())
	assert.InDeltaSlice(t, []float32{0, 0, 0}, p[:], eps)
}

func TestTranspose(t *testing.T) {
	m := Translate(7, 8, 9)
	tr := m.Transpose()
	if tr[3] != 7 || tr[7] != 8 || tr[11] != 9 {
		t.Errorf("Transpose moved translation to %v", tr)
	}
	if tr.Transpose() != m {
		t.Error("double transpose should be the original matrix")
	}
}

func TestNormalMatrix(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"identity", Identity()},
		{"translation only", Translate(2, 0, 0)},
		{"rotation", RotateX(0.7).Mul(RotateY(-0.2)).Mul(RotateZ(1.1))},
		{"non-uniform scale", Translate(1, 2, 3).Mul(RotateY(0.5)).Mul(Scale(1, 4, 0.5))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalMatrix(tt.m)
			want := mgl32.Mat4(tt.m).Mat3().Inv().Transpose()
			assert.InDeltaSlice(t, want[:], got[:], 1e-4)
		})
	}
}

func TestNormalMatrixSingular(t *testing.T) {
	m := Scale(0, 1, 1)
	if got := NormalMatrix(m); got != m.Upper3() {
		t.Errorf("singular matrix should fall back to its upper 3x3, got %v", got)
	}
}

func TestMat3Inverse(t *testing.T) {
	m := RotateZ(0.3).Mul(Scale(2, 3, 4)).Upper3()
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("expected invertible matrix")
	}
	v := Vec3{1, -2, 0.5}
	back := inv.MulVec3(m.MulVec3(v))
	assert.InDelta(t, v.X, back.X, eps)
	assert.InDelta(t, v.Y, back.Y, eps)
	assert.InDelta(t, v.Z, back.Z, eps)
}
