package asset

import (
	stdmath "math"

	"github.com/Faultbox/daedalus/pkg/math"
)

// minUVArea is the smallest |det| of a triangle's UV deltas that still
// yields a usable tangent frame.
const minUVArea = 1e-12

// GenerateTangents reconstructs per-vertex tangents and bitangents by
// averaging each triangle's UV gradient over the triangles that share the
// vertex. Indices must be in range and a multiple of three.
// Vertices touched only by UV-degenerate triangles keep zero vectors.
func GenerateTangents(vertices []Vertex, indices []uint32) {
	tangents := make([]math.Vec3, len(vertices))
	bitangents := make([]math.Vec3, len(vertices))
	counts := make([]int, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		v0, v1, v2 := &vertices[i0], &vertices[i1], &vertices[i2]

		dp1 := v1.Position.Sub(v0.Position)
		dp2 := v2.Position.Sub(v0.Position)
		du1 := v1.UV.Sub(v0.UV)
		du2 := v2.UV.Sub(v0.UV)

		det := du1.Cross(du2)
		if stdmath.Abs(float64(det)) < minUVArea {
			continue
		}
		r := 1 / det

		t := dp1.Scale(du2.Y).Sub(dp2.Scale(du1.Y)).Scale(r)
		b := dp2.Scale(du1.X).Sub(dp1.Scale(du2.X)).Scale(r)

		for _, idx := range [3]uint32{i0, i1, i2} {
			tangents[idx] = tangents[idx].Add(t)
			bitangents[idx] = bitangents[idx].Add(b)
			counts[idx]++
		}
	}

	for i := range vertices {
		if counts[i] == 0 {
			vertices[i].Tangent = math.Vec3{}
			vertices[i].Bitangent = math.Vec3{}
			continue
		}
		n := 1 / float32(counts[i])
		vertices[i].Tangent = tangents[i].Scale(n).Normalize()
		vertices[i].Bitangent = bitangents[i].Scale(n).Normalize()
	}
}

// applySourceTangents fills tangents from source vec4 tangents, deriving the
// bitangent as cross(normal, tangent.xyz) scaled by the handedness in w.
func applySourceTangents(vertices []Vertex, tangents [][4]float32) {
	for i := range vertices {
		t := math.Vec3{X: tangents[i][0], Y: tangents[i][1], Z: tangents[i][2]}
		vertices[i].Tangent = t
		vertices[i].Bitangent = vertices[i].Normal.Cross(t).Scale(tangents[i][3])
	}
}
