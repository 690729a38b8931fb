package controller

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

func newCapturedSimpleUI() (*SimpleUI, *bytes.Buffer) {
	var buf bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	return NewSimpleUI(cmd), &buf
}

func TestSimpleUI_FileCompleted(t *testing.T) {
	ui, buf := newCapturedSimpleUI()
	ctx := context.Background()

	require.NoError(t, ui.Start(ctx, 3))

	ui.FileCompleted(ctx, m.RepairOutcome{
		Path: "a.stl", Status: m.StatusSkipped, StatusLabel: "SKIPPED",
	})
	ui.FileCompleted(ctx, m.RepairOutcome{
		Path: "b.stl", Status: m.StatusRepaired, StatusLabel: "REPAIRED",
		EngineUsed: m.EngineLocal, Elapsed: 120 * time.Millisecond,
	})
	ui.FileCompleted(ctx, m.RepairOutcome{
		Path: "c.stl", Status: m.StatusFailed, StatusLabel: "FAILED",
		ErrMessage: "mesh is hopeless",
	})

	out := buf.String()
	require.Contains(t, out, "Checking 3 file(s)")
	require.Contains(t, out, "a.stl -> SKIPPED (already watertight)")
	require.Contains(t, out, "b.stl -> REPAIRED (engine: local, 120ms)")
	require.Contains(t, out, "c.stl -> FAILED: mesh is hopeless")
}

func TestSimpleUI_Summary(t *testing.T) {
	ui, buf := newCapturedSimpleUI()

	ui.Summary(context.Background(), m.BatchRunState{
		Discovered: 5,
		Completed:  5,
		Skipped:    2,
		Repaired:   2,
		Failed:     1,
		Elapsed:    3 * time.Second,
	})

	out := buf.String()
	require.Contains(t, out, "Skipped")
	require.Contains(t, out, "Repaired")
	require.Contains(t, out, "Failed")
	// tablewriter uppercases footer cells.
	require.Contains(t, out, "TOTAL 5")
}

func TestSimpleUI_SummaryAfterCancellation(t *testing.T) {
	ui, buf := newCapturedSimpleUI()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ui.Summary(ctx, m.BatchRunState{
		Discovered: 4,
		Completed:  2,
		Repaired:   2,
		Cancelled:  true,
	})

	out := buf.String()
	require.Contains(t, out, "Cancelled after 2 of 4 file(s)")
	require.Contains(t, out, "Repaired")
}

func TestSimpleUI_CancelledContextSilences(t *testing.T) {
	ui, buf := newCapturedSimpleUI()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ui.FileStarted(ctx, "a.stl")
	ui.FileCompleted(ctx, m.RepairOutcome{Path: "a.stl", StatusLabel: "REPAIRED"})

	require.Empty(t, buf.String())
}

func TestIsTTY_RegularFileIsNot(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "tty-probe")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.False(t, IsTTY(f))
}
