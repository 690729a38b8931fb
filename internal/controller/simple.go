package controller

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

// SimpleUI implements UI using cobra Command's output stream.
type SimpleUI struct {
	cmd *cobra.Command

	mu sync.Mutex
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start announces the batch.
func (s *SimpleUI) Start(ctx context.Context, total int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Checking %d file(s)\n", total)

	return nil
}

// FileStarted announces that a file entered the pipeline.
func (s *SimpleUI) FileStarted(ctx context.Context, path m.Path) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Processing %s\n", path)
}

// FileCompleted prints the outcome line for one file.
func (s *SimpleUI) FileCompleted(ctx context.Context, outcome m.RepairOutcome) {
	if err := ctx.Err(); err != nil {
		return
	}

	switch outcome.Status {
	case m.StatusSkipped:
		s.printf("%s -> %s (already watertight)\n", outcome.Path, outcome.StatusLabel)
	case m.StatusRepaired:
		s.printf("%s -> %s (engine: %s, %s)\n",
			outcome.Path, outcome.StatusLabel, outcome.EngineUsed, outcome.Elapsed.Round(timeResolution))
	case m.StatusFailed:
		s.printf("%s -> %s: %s\n", outcome.Path, outcome.StatusLabel, outcome.ErrMessage)
	}
}

// Summary renders the final counts table. It ignores ctx: the summary
// still prints on cancellation so partial work stays visible.
func (s *SimpleUI) Summary(_ context.Context, state m.BatchRunState) {
	if state.Cancelled {
		s.printf("Cancelled after %d of %d file(s)\n", state.Completed, state.Discovered)
	}

	s.printf("\n%s", renderSummaryTable(state))
}

// Close finalizes the UI (no-op for SimpleUI).
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

func renderSummaryTable(state m.BatchRunState) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Result", "Files"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	table.Append([]string{"Skipped", fmt.Sprintf("%d", state.Skipped)})
	table.Append([]string{"Repaired", fmt.Sprintf("%d", state.Repaired)})
	table.Append([]string{"Failed", fmt.Sprintf("%d", state.Failed)})

	table.SetFooter([]string{
		fmt.Sprintf("Total %d in %s", state.Discovered, state.Elapsed.Round(timeResolution)),
		fmt.Sprintf("%d", state.Completed),
	})

	table.Render()

	return tableBuffer.String()
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
