package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

// Sentinel errors for the repair taxonomy.
var (
	// ErrEngineUnavailable means the requested engine cannot run on this
	// host. Callers downgrade to the local engine instead of surfacing it.
	ErrEngineUnavailable = errors.New("repair engine unavailable")

	// ErrNotWatertight means a repair pipeline completed but the result
	// still fails classification.
	ErrNotWatertight = errors.New("mesh is not watertight after repair")

	// ErrEmptyMesh means the input has no faces, so there is nothing to
	// repair.
	ErrEmptyMesh = errors.New("mesh is empty")
)

// RepairEngine is the strategy contract shared by the local and platform
// engines: mesh in, best-effort mesh out, plus whether the output passed the
// watertightness classifier. Implementations never mutate the input mesh.
type RepairEngine interface {
	Name() string
	Repair(ctx context.Context, mesh *m.Mesh) (*m.Mesh, bool, error)
}

// EngineConfig carries the knobs engine construction needs.
type EngineConfig struct {
	MergeEpsilon   float64
	ServiceTimeout int // seconds; 0 means no internal timeout
}

// SelectEngine resolves an engine identifier to a ready-to-run engine. The
// platform engine is always wrapped in the local fallback so a failed or
// leaky platform repair degrades instead of erroring. Unknown names are
// rejected; a requested platform engine that is absent on this host returns
// ErrEngineUnavailable so the caller can decide between downgrade (repair)
// and refusal (batch).
func SelectEngine(name string, cfg EngineConfig) (RepairEngine, error) {
	local := NewLocalEngine(cfg.MergeEpsilon)

	switch name {
	case "", m.EngineLocal:
		return local, nil
	case m.EngineWindows:
		svc := newPlatformService(cfg.ServiceTimeout)
		if !svc.Available() {
			return nil, fmt.Errorf("engine %q: %w", name, ErrEngineUnavailable)
		}
		return WithFallback(NewPlatformEngine(svc), local), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (valid: %s, %s)", name, m.EngineLocal, m.EngineWindows)
	}
}

// fallbackEngine applies the mandatory fallback rule: run the primary, then
// re-classify its output; if the primary failed or produced a leaky mesh,
// run the secondary on the original input and use that result instead.
type fallbackEngine struct {
	primary   RepairEngine
	secondary RepairEngine

	// used records which engine produced the last returned mesh.
	used string
}

// WithFallback decorates primary so that a failed or non-watertight result
// is retried with secondary on the original mesh.
func WithFallback(primary, secondary RepairEngine) *fallbackEngine {
	return &fallbackEngine{primary: primary, secondary: secondary}
}

// Name returns the primary engine's identifier; EngineUsed reports what
// actually produced the result.
func (e *fallbackEngine) Name() string {
	return e.primary.Name()
}

// EngineUsed returns the name of the engine whose output the last Repair
// call returned. Valid after Repair.
func (e *fallbackEngine) EngineUsed() string {
	return e.used
}

// Repair implements RepairEngine.
func (e *fallbackEngine) Repair(ctx context.Context, mesh *m.Mesh) (*m.Mesh, bool, error) {
	repaired, ok, err := e.primary.Repair(ctx, mesh)
	if err == nil && ok && IsWatertight(repaired) {
		e.used = e.primary.Name()
		return repaired, true, nil
	}

	if err != nil {
		slog.Warn("primary engine failed, falling back",
			"primary", e.primary.Name(), "fallback", e.secondary.Name(), "error", err)
	} else {
		slog.Warn("primary engine output not watertight, falling back",
			"primary", e.primary.Name(), "fallback", e.secondary.Name())
	}

	e.used = e.secondary.Name()
	return e.secondary.Repair(ctx, mesh)
}

// EngineUsedName extracts the actually-used engine from eng after a Repair
// call, unwrapping the fallback decorator when present.
func EngineUsedName(eng RepairEngine) string {
	if fb, ok := eng.(*fallbackEngine); ok && fb.used != "" {
		return fb.used
	}
	return eng.Name()
}
