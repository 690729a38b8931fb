package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitCommand_WritesConfig(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := executeCommand(t, "init")
	require.NoError(t, err)

	data, err := os.ReadFile(configFileName)
	require.NoError(t, err)
	require.Contains(t, string(data), "run:")
}

func TestInitCommand_RefusesOverwrite(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := executeCommand(t, "init")
	require.NoError(t, err)

	_, err = executeCommand(t, "init")
	require.Error(t, err)
}
