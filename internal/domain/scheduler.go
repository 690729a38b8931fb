package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TGiles/STLRepairTool/internal/adapter"
	"github.com/TGiles/STLRepairTool/internal/controller"
	m "github.com/TGiles/STLRepairTool/internal/model"
)

// MaxDefaultWorkers caps the default pool size on large machines.
const MaxDefaultWorkers = 8

// DefaultWorkers returns the default worker-pool size:
// min(available parallelism, MaxDefaultWorkers).
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n > MaxDefaultWorkers {
		return MaxDefaultWorkers
	}
	if n < 1 {
		return 1
	}
	return n
}

// BatchArgs configures one batch run.
type BatchArgs struct {
	Root      m.Path
	Engine    string
	Workers   int
	Backup    bool
	BackupDir string // directory name under Root, e.g. "stl_backup"
	Config    EngineConfig
}

// Scheduler coordinates the batch: discovery, the worker pool, outcome
// aggregation and progress reporting. Workers own their file's mesh
// exclusively; the only shared state is the results channel, consumed by a
// single aggregator goroutine.
type Scheduler struct {
	meshIO adapter.MeshIOAdapter
	fs     adapter.MeshFSAdapter
	ui     controller.UI
}

// NewScheduler constructs a Scheduler backed by the provided adapters.
func NewScheduler(meshIO adapter.MeshIOAdapter, fs adapter.MeshFSAdapter, ui controller.UI) *Scheduler {
	return &Scheduler{meshIO: meshIO, fs: fs, ui: ui}
}

// Run executes the full batch over args.Root. Per-file failures are
// isolated into their outcomes; the returned error covers only run-level
// problems (inaccessible root, unknown or unavailable engine). When ctx is
// cancelled mid-run, dispatching stops, in-flight files finish under the
// atomic-write guarantee, and the partial state (Cancelled=true) covers
// exactly the files that reached a terminal state.
func (s *Scheduler) Run(ctx context.Context, args BatchArgs) (m.BatchRunState, []m.RepairOutcome, error) {
	start := time.Now()

	var state m.BatchRunState

	// Fail fast on an engine that can never work, before touching files.
	// Matches the original tool: batch refuses an absent platform engine
	// while single-file repair silently downgrades.
	if _, err := SelectEngine(args.Engine, args.Config); err != nil {
		return state, nil, err
	}

	files, err := s.fs.Discover(args.Root, args.BackupDir)
	if err != nil {
		return state, nil, fmt.Errorf("discover meshes: %w", err)
	}

	state.Discovered = len(files)
	if err := s.ui.Start(ctx, len(files)); err != nil {
		return state, nil, err
	}
	defer s.ui.Close(ctx)

	workers := args.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	results := make(chan m.RepairOutcome)
	outcomes := make([]m.RepairOutcome, 0, len(files))

	// Single aggregator: the only goroutine that mutates state or talks
	// to the UI after Start.
	var aggregated sync.WaitGroup
	aggregated.Add(1)
	go func() {
		defer aggregated.Done()
		for outcome := range results {
			state.Record(outcome)
			outcomes = append(outcomes, outcome)
			s.ui.FileCompleted(ctx, outcome)
		}
	}()

	var group errgroup.Group
	group.SetLimit(workers)

	for _, file := range files {
		if ctx.Err() != nil {
			break // stop dispatching, let in-flight workers drain
		}

		req := m.RepairRequest{
			Source: file,
			Dest:   file,
			Engine: args.Engine,
			Backup: args.Backup,
		}

		group.Go(func() error {
			// Re-check after waiting for a pool slot: cancellation may
			// have landed while this dispatch was blocked.
			if ctx.Err() != nil {
				return nil
			}

			s.ui.FileStarted(ctx, req.Source)
			outcome := s.processFile(ctx, req, args)
			results <- outcome
			return nil
		})
	}

	_ = group.Wait()
	close(results)
	aggregated.Wait()

	state.Elapsed = time.Since(start)
	state.Cancelled = ctx.Err() != nil
	s.ui.Summary(ctx, state)

	return state, outcomes, nil
}

// processFile drives one file through the per-file state machine:
// load, classify, then either skip or backup+repair+write.
func (s *Scheduler) processFile(ctx context.Context, req m.RepairRequest, args BatchArgs) m.RepairOutcome {
	start := time.Now()
	outcome := m.RepairOutcome{Path: req.Source}

	finish := func() m.RepairOutcome {
		outcome.Elapsed = time.Since(start)
		outcome.Finalize()
		return outcome
	}
	fail := func(err error) m.RepairOutcome {
		outcome.Status = m.StatusFailed
		outcome.Err = err
		slog.Error("file failed", "path", req.Source, "error", err)
		return finish()
	}

	if size, err := s.fs.FileSize(req.Source); err == nil {
		outcome.BytesBefore = size
	}

	mesh, err := s.meshIO.Load(req.Source)
	if err != nil {
		return fail(err)
	}

	outcome.WatertightBefore = IsWatertight(mesh)
	if outcome.WatertightBefore {
		outcome.WatertightAfter = true
		outcome.Status = m.StatusSkipped
		return finish()
	}

	if req.Backup {
		backupRoot := m.Path(filepath.Join(string(args.Root), args.BackupDir))
		if _, err := s.fs.Backup(req.Source, args.Root, backupRoot); err != nil {
			return fail(err)
		}
	}

	eng, err := SelectEngine(req.Engine, args.Config)
	if err != nil {
		if !errors.Is(err, ErrEngineUnavailable) {
			return fail(err)
		}
		// The service disappeared between validation and this worker:
		// downgrade silently, as the contract requires.
		eng, _ = SelectEngine(m.EngineLocal, args.Config)
	}

	repaired, watertight, err := eng.Repair(ctx, mesh)
	if err != nil {
		return fail(err)
	}
	outcome.EngineUsed = EngineUsedName(eng)
	outcome.WatertightAfter = watertight

	// Best-effort overwrite: a mesh that improved but is still leaky is
	// written anyway, and the outcome records the residual failure.
	if err := adapter.WriteMeshAtomic(s.meshIO, repaired, req.Dest); err != nil {
		return fail(err)
	}

	if size, err := s.fs.FileSize(req.Dest); err == nil {
		outcome.BytesAfter = size
	}

	if watertight {
		outcome.Status = m.StatusRepaired
	} else {
		outcome.Status = m.StatusFailed
		outcome.Err = ErrNotWatertight
	}
	return finish()
}

// RepairOne repairs a single file outside the batch flow, for the repair
// command. An unavailable platform engine downgrades silently to local.
func (s *Scheduler) RepairOne(ctx context.Context, req m.RepairRequest, cfg EngineConfig) m.RepairOutcome {
	start := time.Now()
	outcome := m.RepairOutcome{Path: req.Source}

	finish := func() m.RepairOutcome {
		outcome.Elapsed = time.Since(start)
		outcome.Finalize()
		return outcome
	}

	if size, err := s.fs.FileSize(req.Source); err == nil {
		outcome.BytesBefore = size
	}

	mesh, err := s.meshIO.Load(req.Source)
	if err != nil {
		outcome.Status = m.StatusFailed
		outcome.Err = err
		return finish()
	}

	outcome.WatertightBefore = IsWatertight(mesh)

	eng, err := SelectEngine(req.Engine, cfg)
	if err != nil {
		if !errors.Is(err, ErrEngineUnavailable) {
			outcome.Status = m.StatusFailed
			outcome.Err = err
			return finish()
		}
		slog.Info("platform engine unavailable, using local", "requested", req.Engine)
		eng, _ = SelectEngine(m.EngineLocal, cfg)
	}

	repaired, watertight, err := eng.Repair(ctx, mesh)
	if err != nil {
		outcome.Status = m.StatusFailed
		outcome.Err = err
		return finish()
	}
	outcome.EngineUsed = EngineUsedName(eng)
	outcome.WatertightAfter = watertight

	if err := adapter.WriteMeshAtomic(s.meshIO, repaired, req.Dest); err != nil {
		outcome.Status = m.StatusFailed
		outcome.Err = err
		return finish()
	}

	if size, err := s.fs.FileSize(req.Dest); err == nil {
		outcome.BytesAfter = size
	}

	if watertight {
		outcome.Status = m.StatusRepaired
	} else {
		outcome.Status = m.StatusFailed
		outcome.Err = ErrNotWatertight
	}
	return finish()
}

// CheckFile loads one mesh and classifies it.
func (s *Scheduler) CheckFile(path m.Path) (bool, error) {
	mesh, err := s.meshIO.Load(path)
	if err != nil {
		return false, err
	}
	return IsWatertight(mesh), nil
}

// CheckTree classifies every mesh under root, skipping the backup dir.
// Results are keyed in discovery (sorted) order.
func (s *Scheduler) CheckTree(root m.Path, backupDir string) ([]m.Path, map[m.Path]bool, error) {
	files, err := s.fs.Discover(root, backupDir)
	if err != nil {
		return nil, nil, err
	}

	status := make(map[m.Path]bool, len(files))
	for _, f := range files {
		ok, err := s.CheckFile(f)
		if err != nil {
			slog.Warn("skipping unreadable mesh", "path", f, "error", err)
			continue
		}
		status[f] = ok
	}
	return files, status, nil
}
