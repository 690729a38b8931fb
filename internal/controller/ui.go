// Package controller provides output adapters for displaying batch repair progress.
package controller

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

// timeResolution rounds durations for display.
const timeResolution = 10 * time.Millisecond

// UI defines the interface for reporting batch progress and results.
// Implementations can use different output methods (simple text, TUI, etc).
//
// FileStarted may be called from multiple worker goroutines; FileCompleted
// and Summary are always called from a single goroutine.
type UI interface {
	Start(ctx context.Context, total int) error
	FileStarted(ctx context.Context, path m.Path)
	FileCompleted(ctx context.Context, outcome m.RepairOutcome)
	Summary(ctx context.Context, state m.BatchRunState)
	Close(ctx context.Context)
}

// NewUI selects the live TUI for interactive terminals and plain line
// output otherwise (pipes, CI).
func NewUI(cmd *cobra.Command, interactive bool) UI {
	if interactive {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}
