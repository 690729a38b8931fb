package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TGiles/STLRepairTool/internal/adapter"
	m "github.com/TGiles/STLRepairTool/internal/model"
)

// executeCommand runs the root command with args, capturing its output. A
// per-test log file keeps test runs from writing logs into the package dir.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append(args, "--log", filepath.Join(t.TempDir(), "test.log")))

	err := rootCmd.Execute()

	return buf.String(), err
}

// chdir mirrors testing.T.Chdir, which needs Go 1.24: change into dir for the
// duration of the test, restoring the original working directory afterwards.
func chdir(t *testing.T, dir string) {
	t.Helper()

	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(old))
	})
}

func testCube() *m.Mesh {
	return &m.Mesh{
		Vertices: []m.Vec3{
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

func testCubeWithHole() *m.Mesh {
	mesh := testCube()
	mesh.Faces = mesh.Faces[1:]
	return mesh
}

func writeSTLFile(t *testing.T, path string, mesh *m.Mesh) {
	t.Helper()

	require.NoError(t, adapter.WriteMeshAtomic(adapter.NewSTLAdapter(), mesh, m.Path(path)))
}

func TestRootCommand_ShowsHelp(t *testing.T) {
	output, err := executeCommand(t)

	require.NoError(t, err)
	require.Contains(t, output, "stlrepair")
	require.Contains(t, output, "check-watertight")
}
