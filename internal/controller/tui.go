package controller

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

const recentOutcomes = 8

var (
	skippedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	repairedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
)

// TUI implements UI with a live Bubble Tea progress display. The tea program
// runs on its own goroutine; progress events reach it through Send, which is
// safe to call concurrently.
type TUI struct {
	output  io.Writer
	program *tea.Program
	done    sync.WaitGroup
}

// NewTUI creates a new TUI writing to output.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

type outcomeMsg struct {
	outcome m.RepairOutcome
}

type summaryMsg struct {
	state m.BatchRunState
}

// Start launches the display program.
func (t *TUI) Start(ctx context.Context, total int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	model := newBatchModel(total)
	t.program = tea.NewProgram(model, tea.WithOutput(t.output))

	t.done.Add(1)
	go func() {
		defer t.done.Done()
		_, _ = t.program.Run()
	}()

	return nil
}

// FileStarted is a no-op; the bar advances on completion only.
func (t *TUI) FileStarted(context.Context, m.Path) {}

// FileCompleted forwards the outcome to the display program.
func (t *TUI) FileCompleted(_ context.Context, outcome m.RepairOutcome) {
	t.program.Send(outcomeMsg{outcome: outcome})
}

// Summary forwards the final state and stops the program.
func (t *TUI) Summary(_ context.Context, state m.BatchRunState) {
	t.program.Send(summaryMsg{state: state})
	t.program.Send(tea.Quit())
}

// Close blocks until the display program has exited.
func (t *TUI) Close(context.Context) {
	if t.program == nil {
		return
	}

	t.done.Wait()
}

// batchModel is the Bubble Tea model for a running batch.
type batchModel struct {
	total     int
	completed int
	skipped   int
	repaired  int
	failed    int
	recent    []string
	bar       progress.Model
	summary   *m.BatchRunState
	width     int
}

func newBatchModel(total int) batchModel {
	bar := progress.New(progress.WithDefaultGradient())

	return batchModel{
		total: total,
		bar:   bar,
	}
}

func (bm batchModel) Init() tea.Cmd {
	return nil
}

func (bm batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		bm.width = msg.Width

		barWidth := msg.Width - 8
		if barWidth > 0 {
			bm.bar.Width = barWidth
		}

		return bm, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			// ctrl-c reaches the batch through signal handling; the
			// display just keeps running until Summary arrives.
			return bm, nil
		}

		return bm, nil

	case outcomeMsg:
		return bm.recordOutcome(msg.outcome), nil

	case summaryMsg:
		bm.summary = &msg.state
		return bm, nil

	case progress.FrameMsg:
		barModel, cmd := bm.bar.Update(msg)
		if b, ok := barModel.(progress.Model); ok {
			bm.bar = b
		}

		return bm, cmd
	}

	return bm, nil
}

func (bm batchModel) recordOutcome(outcome m.RepairOutcome) batchModel {
	bm.completed++

	var line string

	switch outcome.Status {
	case m.StatusSkipped:
		bm.skipped++
		line = skippedStyle.Render(fmt.Sprintf("  %s skipped", outcome.Path))
	case m.StatusRepaired:
		bm.repaired++
		line = repairedStyle.Render(fmt.Sprintf("  %s repaired (%s, %s)",
			outcome.Path, outcome.EngineUsed, outcome.Elapsed.Round(timeResolution)))
	case m.StatusFailed:
		bm.failed++
		line = failedStyle.Render(fmt.Sprintf("  %s failed: %s", outcome.Path, outcome.ErrMessage))
	}

	bm.recent = append(bm.recent, line)
	if len(bm.recent) > recentOutcomes {
		bm.recent = bm.recent[len(bm.recent)-recentOutcomes:]
	}

	return bm
}

func (bm batchModel) View() string {
	var b strings.Builder

	if bm.summary != nil {
		return bm.renderSummary()
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("Repairing %d/%d file(s)", bm.completed, bm.total)))
	b.WriteString("\n\n")

	ratio := 0.0
	if bm.total > 0 {
		ratio = float64(bm.completed) / float64(bm.total)
	}

	b.WriteString(bm.bar.ViewAs(ratio))
	b.WriteString("\n\n")

	for _, line := range bm.recent {
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

func (bm batchModel) renderSummary() string {
	var b strings.Builder

	state := *bm.summary

	b.WriteString(headerStyle.Render("Batch complete"))
	if state.Cancelled {
		b.WriteString(headerStyle.Render(" (cancelled)"))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s\n", skippedStyle.Render(fmt.Sprintf("skipped:  %d", state.Skipped)))
	fmt.Fprintf(&b, "  %s\n", repairedStyle.Render(fmt.Sprintf("repaired: %d", state.Repaired)))
	fmt.Fprintf(&b, "  %s\n", failedStyle.Render(fmt.Sprintf("failed:   %d", state.Failed)))
	fmt.Fprintf(&b, "  total:    %d in %s\n", state.Discovered, state.Elapsed.Round(timeResolution))

	return b.String()
}
