package controller

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

func TestBatchModel_RecordOutcome(t *testing.T) {
	model := newBatchModel(3)

	model = model.recordOutcome(m.RepairOutcome{Path: "a.stl", Status: m.StatusSkipped})
	model = model.recordOutcome(m.RepairOutcome{Path: "b.stl", Status: m.StatusRepaired, EngineUsed: m.EngineLocal})
	model = model.recordOutcome(m.RepairOutcome{Path: "c.stl", Status: m.StatusFailed, ErrMessage: "leaky"})

	require.Equal(t, 3, model.completed)
	require.Equal(t, 1, model.skipped)
	require.Equal(t, 1, model.repaired)
	require.Equal(t, 1, model.failed)
	require.Len(t, model.recent, 3)
}

func TestBatchModel_RecentLinesCapped(t *testing.T) {
	model := newBatchModel(100)

	for i := 0; i < recentOutcomes+5; i++ {
		model = model.recordOutcome(m.RepairOutcome{Path: "x.stl", Status: m.StatusSkipped})
	}

	require.Len(t, model.recent, recentOutcomes)
}

func TestBatchModel_View(t *testing.T) {
	model := newBatchModel(2)
	model = model.recordOutcome(m.RepairOutcome{Path: "a.stl", Status: m.StatusRepaired, EngineUsed: m.EngineLocal})

	view := model.View()

	require.Contains(t, view, "1/2")
	require.True(t, strings.Contains(view, "a.stl"))
}

func TestBatchModel_SummaryView(t *testing.T) {
	model := newBatchModel(2)
	model.summary = &m.BatchRunState{
		Discovered: 2,
		Repaired:   1,
		Skipped:    1,
		Elapsed:    time.Second,
	}

	view := model.View()

	require.Contains(t, view, "Batch complete")
	require.Contains(t, view, "repaired: 1")
}
