package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckWatertight_True(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.stl")
	writeSTLFile(t, path, testCube())

	output, err := executeCommand(t, "check-watertight", path)

	require.NoError(t, err)
	require.Equal(t, "True", strings.TrimSpace(output))
}

func TestCheckWatertight_False(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hole.stl")
	writeSTLFile(t, path, testCubeWithHole())

	output, err := executeCommand(t, "check-watertight", path)

	require.NoError(t, err)
	require.Equal(t, "False", strings.TrimSpace(output))
}

func TestCheckWatertight_MissingFile(t *testing.T) {
	_, err := executeCommand(t, "check-watertight", filepath.Join(t.TempDir(), "nope.stl"))

	require.Error(t, err)
}

func TestCheckWatertight_Tree(t *testing.T) {
	root := t.TempDir()
	writeSTLFile(t, filepath.Join(root, "cube.stl"), testCube())
	writeSTLFile(t, filepath.Join(root, "hole.stl"), testCubeWithHole())
	chdir(t, root)

	output, err := executeCommand(t, "check-watertight")

	require.NoError(t, err)
	require.Contains(t, output, "cube.stl: True")
	require.Contains(t, output, "hole.stl: False")
}
