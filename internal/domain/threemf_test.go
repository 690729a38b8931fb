package domain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

func TestThreeMF_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.3mf")

	require.NoError(t, WriteThreeMF(cube(), path))

	mesh, err := ReadThreeMF(path)
	require.NoError(t, err)

	require.Equal(t, 8, mesh.VertexCount())
	require.Equal(t, 12, mesh.FaceCount())
	require.True(t, IsWatertight(mesh))
}

func TestReadThreeMF_MergesTriangleSoup(t *testing.T) {
	// Per-triangle vertices, the shape platform services tend to emit.
	soup := &m.Mesh{}
	source := cube()
	for _, f := range source.Faces {
		base := len(soup.Vertices)
		soup.Vertices = append(soup.Vertices,
			source.Vertices[f[0]], source.Vertices[f[1]], source.Vertices[f[2]])
		soup.Faces = append(soup.Faces, [3]int{base, base + 1, base + 2})
	}

	path := filepath.Join(t.TempDir(), "soup.3mf")
	require.NoError(t, WriteThreeMF(soup, path))

	mesh, err := ReadThreeMF(path)
	require.NoError(t, err)

	require.Equal(t, 8, mesh.VertexCount())
	require.True(t, IsWatertight(mesh))
}

func TestReadThreeMF_MissingFile(t *testing.T) {
	_, err := ReadThreeMF(filepath.Join(t.TempDir(), "nope.3mf"))

	require.Error(t, err)
}
