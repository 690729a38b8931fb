package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

func TestBoundaryLoops_ClosedMesh(t *testing.T) {
	require.Empty(t, BoundaryLoops(cube()))
}

func TestBoundaryLoops_SingleHole(t *testing.T) {
	loops := BoundaryLoops(cubeWithHole())

	require.Len(t, loops, 1)
	require.Len(t, loops[0], 3)
	require.ElementsMatch(t, []int{0, 1, 2}, loops[0])
}

func TestBoundaryLoops_FillingRestoresWinding(t *testing.T) {
	mesh := cubeWithHole()
	loops := BoundaryLoops(mesh)
	require.Len(t, loops, 1)

	mesh.Faces = append(mesh.Faces, TriangulateLoop(mesh.Vertices, loops[0])...)

	require.True(t, IsWatertight(mesh))
}

func TestBoundaryLoops_TwoHoles(t *testing.T) {
	mesh := cube()
	// Drop one bottom and one top triangle; their boundaries do not touch.
	mesh.Faces = append(mesh.Faces[:2:2], mesh.Faces[3:]...)
	mesh.Faces = mesh.Faces[1:]

	loops := BoundaryLoops(mesh)

	require.Len(t, loops, 2)
	for _, loop := range loops {
		require.Len(t, loop, 3)
	}
}

func TestBoundaryLoops_TwoHolesSharingAVertex(t *testing.T) {
	// Drop two faces that touch only at vertex 0: the pinch must not
	// swallow one of the loops.
	mesh := cube()
	faces := mesh.Faces[:0]
	for _, f := range mesh.Faces {
		if f == [3]int{0, 3, 2} || f == [3]int{0, 5, 4} {
			continue
		}
		faces = append(faces, f)
	}
	mesh.Faces = faces

	loops := BoundaryLoops(mesh)

	require.Len(t, loops, 2)
	require.ElementsMatch(t, []int{0, 2, 3}, loops[0])
	require.ElementsMatch(t, []int{0, 4, 5}, loops[1])

	for _, loop := range loops {
		mesh.Faces = append(mesh.Faces, TriangulateLoop(mesh.Vertices, loop)...)
	}
	require.True(t, IsWatertight(mesh))
}

func TestLocalEngine_RepairsPinchedHoles(t *testing.T) {
	mesh := cube()
	faces := mesh.Faces[:0]
	for _, f := range mesh.Faces {
		if f == [3]int{0, 3, 2} || f == [3]int{0, 5, 4} {
			continue
		}
		faces = append(faces, f)
	}
	mesh.Faces = faces
	require.False(t, IsWatertight(mesh))

	repaired, watertight, err := NewLocalEngine(0).Repair(context.Background(), mesh)

	require.NoError(t, err)
	require.True(t, watertight)
	require.Equal(t, 12, repaired.FaceCount())
}

func TestTriangulateLoop_Triangle(t *testing.T) {
	vertices := []m.Vec3{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}

	tris := TriangulateLoop(vertices, []int{0, 1, 2})

	require.Equal(t, [][3]int{{0, 1, 2}}, tris)
}

func TestTriangulateLoop_Square(t *testing.T) {
	vertices := []m.Vec3{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}

	tris := TriangulateLoop(vertices, []int{0, 1, 2, 3})

	require.Len(t, tris, 2)

	var total float64
	for _, f := range tris {
		a, b, c := vertices[f[0]], vertices[f[1]], vertices[f[2]]
		total += b.Sub(a).Cross(c.Sub(a)).Length() * 0.5
	}
	require.InDelta(t, 1.0, total, 1e-12)
}

func TestTriangulateLoop_TooShort(t *testing.T) {
	vertices := []m.Vec3{{X: 0}, {X: 1}}

	require.Nil(t, TriangulateLoop(vertices, []int{0, 1}))
}
