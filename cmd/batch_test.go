package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TGiles/STLRepairTool/internal/adapter"
	"github.com/TGiles/STLRepairTool/internal/domain"
	m "github.com/TGiles/STLRepairTool/internal/model"
)

func TestBatch_RepairsTreeAndWritesReport(t *testing.T) {
	root := t.TempDir()
	writeSTLFile(t, filepath.Join(root, "cube.stl"), testCube())
	writeSTLFile(t, filepath.Join(root, "hole.stl"), testCubeWithHole())

	reportPath := filepath.Join(t.TempDir(), "report.yaml")

	output, err := executeCommand(t, "batch", root, "--workers", "1", "--report", reportPath)

	require.NoError(t, err)
	require.Contains(t, output, "REPAIRED")

	// The broken file is fixed and backed up.
	mesh, err := adapter.NewSTLAdapter().Load(m.Path(filepath.Join(root, "hole.stl")))
	require.NoError(t, err)
	require.True(t, domain.IsWatertight(mesh))

	_, err = os.Stat(filepath.Join(root, "stl_backup", "hole.stl"))
	require.NoError(t, err)

	report, err := adapter.NewYAMLReportStore().LoadReport(m.Path(reportPath))
	require.NoError(t, err)
	require.Equal(t, 2, report.Summary.Discovered)
	require.Equal(t, 1, report.Summary.Skipped)
	require.Equal(t, 1, report.Summary.Repaired)
	require.Len(t, report.Outcomes, 2)
}

func TestBatch_BackupsDefaultOn(t *testing.T) {
	// Flag defaults are evaluated during package init, before the viper
	// defaults exist; the no-backup flag must not inherit a stale value.
	flag := batchCmd.Flags().Lookup(noBackupFlagName)
	require.NotNil(t, flag)
	require.Equal(t, "false", flag.DefValue)

	root := t.TempDir()
	writeSTLFile(t, filepath.Join(root, "hole.stl"), testCubeWithHole())

	_, err := executeCommand(t, "batch", root, "--report", "")
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(root, "stl_backup", "hole.stl"))
	require.NoError(t, statErr)
}

func TestBatch_NoBackup(t *testing.T) {
	root := t.TempDir()
	writeSTLFile(t, filepath.Join(root, "hole.stl"), testCubeWithHole())

	_, err := executeCommand(t, "batch", root, "--workers", "1", "--no-backup", "--report", "")

	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(root, "stl_backup"))
	require.True(t, os.IsNotExist(statErr))
}

func TestBatch_UnknownEngine(t *testing.T) {
	_, err := executeCommand(t, "batch", t.TempDir(), "--engine", "netfabb")

	require.Error(t, err)
}

func TestBatch_EmptyTree(t *testing.T) {
	_, err := executeCommand(t, "batch", t.TempDir(), "--engine", "local", "--report", "")

	require.NoError(t, err)
}
