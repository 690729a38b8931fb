package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

// RepairService is the OS-provided mesh repair capability the platform
// engine delegates to. Repair consumes and produces 3MF packages on disk.
type RepairService interface {
	// Available reports whether the service can run on this host.
	Available() bool

	// Repair reads inputPath (3MF), repairs the model, and writes the
	// repaired package to outputPath. Honors ctx cancellation.
	Repair(ctx context.Context, inputPath, outputPath string) error
}

// PlatformEngine delegates repair to the host's 3D repair service through a
// 3MF round-trip. Every service-side failure (unavailable, conversion
// error, timeout) is returned as an ordinary error so the fallback
// decorator can take over; nothing here panics or aborts the batch.
type PlatformEngine struct {
	service RepairService
}

// NewPlatformEngine constructs a PlatformEngine over the given service.
func NewPlatformEngine(service RepairService) *PlatformEngine {
	return &PlatformEngine{service: service}
}

// Name returns the engine identifier.
func (e *PlatformEngine) Name() string {
	return m.EngineWindows
}

// Repair implements RepairEngine via the exchange-format round-trip:
// encode to 3MF, invoke the service, decode the result, classify.
func (e *PlatformEngine) Repair(ctx context.Context, mesh *m.Mesh) (*m.Mesh, bool, error) {
	if !e.service.Available() {
		return mesh, false, ErrEngineUnavailable
	}

	tmpDir, err := os.MkdirTemp("", "stlrepair-3mf-")
	if err != nil {
		return mesh, false, fmt.Errorf("create exchange dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			slog.Warn("failed to remove exchange dir", "dir", tmpDir, "error", err)
		}
	}()

	inPath := filepath.Join(tmpDir, "input.3mf")
	outPath := filepath.Join(tmpDir, "output.3mf")

	if err := WriteThreeMF(mesh, inPath); err != nil {
		return mesh, false, fmt.Errorf("convert to 3mf: %w", err)
	}

	if err := e.service.Repair(ctx, inPath, outPath); err != nil {
		return mesh, false, fmt.Errorf("platform repair service: %w", err)
	}

	repaired, err := ReadThreeMF(outPath)
	if err != nil {
		return mesh, false, fmt.Errorf("convert from 3mf: %w", err)
	}

	return repaired, IsWatertight(repaired), nil
}
