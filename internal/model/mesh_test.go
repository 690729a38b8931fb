package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCube() *Mesh {
	return &Mesh{
		Vertices: []Vec3{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
		},
		Faces: [][3]int{
			{0, 2, 1}, {0, 3, 2},
			{4, 5, 6}, {4, 6, 7},
			{0, 1, 5}, {0, 5, 4},
			{2, 3, 7}, {2, 7, 6},
			{0, 4, 7}, {0, 7, 3},
			{1, 2, 6}, {1, 6, 5},
		},
	}
}

func TestVec3Ops(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 5, Z: 6}

	assert.Equal(t, Vec3{X: 5, Y: 7, Z: 9}, a.Add(b))
	assert.Equal(t, Vec3{X: -3, Y: -3, Z: -3}, a.Sub(b))
	assert.Equal(t, Vec3{X: 2, Y: 4, Z: 6}, a.Scale(2))
	assert.Equal(t, 32.0, a.Dot(b))
	assert.Equal(t, Vec3{X: -3, Y: 6, Z: -3}, a.Cross(b))
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{X: 3, Y: 0, Z: 4}

	require.InDelta(t, 1.0, v.Normalize().Length(), 1e-12)
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
}

func TestMeshClone(t *testing.T) {
	original := testCube()
	clone := original.Clone()

	clone.Vertices[0].X = 99
	clone.Faces[0][0] = 7

	assert.Equal(t, 0.0, original.Vertices[0].X)
	assert.Equal(t, 0, original.Faces[0][0])
}

func TestMeshSignedVolume(t *testing.T) {
	require.InDelta(t, 1.0, testCube().SignedVolume(), 1e-12)
}

func TestMeshFaceNormal(t *testing.T) {
	mesh := testCube()

	// Bottom faces point down, top faces up.
	assert.Negative(t, mesh.FaceNormal(0).Z)
	assert.Positive(t, mesh.FaceNormal(2).Z)
	assert.InDelta(t, 0.5, mesh.FaceArea(0), 1e-12)
}

func TestMeshIsEmpty(t *testing.T) {
	assert.True(t, (&Mesh{}).IsEmpty())
	assert.True(t, (&Mesh{Vertices: []Vec3{{}}}).IsEmpty())
	assert.False(t, testCube().IsEmpty())
}
