package model

import "time"

// Engine identifiers accepted by the --engine flag and config.
const (
	EngineLocal   = "local"
	EngineWindows = "windows"
)

// FileStatus is the terminal state of processing a single file.
type FileStatus int

const (
	// StatusSkipped indicates the file was already watertight.
	StatusSkipped FileStatus = iota
	// StatusRepaired indicates a repair was written and verified watertight.
	StatusRepaired
	// StatusFailed indicates the file could not be loaded, repaired or written.
	StatusFailed
)

// String returns the status label used in console output and reports.
func (s FileStatus) String() string {
	switch s {
	case StatusSkipped:
		return "SKIPPED"
	case StatusRepaired:
		return "REPAIRED"
	case StatusFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// RepairRequest describes one unit of work. Immutable once constructed;
// exactly one instance exists per file per run.
type RepairRequest struct {
	Source Path
	Dest   Path // may equal Source for in-place repair
	Engine string
	Backup bool
}

// RepairOutcome is produced exactly once per RepairRequest.
type RepairOutcome struct {
	Path             Path          `yaml:"path"`
	Status           FileStatus    `yaml:"-"`
	StatusLabel      string        `yaml:"status"`
	WatertightBefore bool          `yaml:"watertight_before"`
	WatertightAfter  bool          `yaml:"watertight_after"`
	// EngineUsed records the engine that produced the written mesh, which
	// may differ from the requested one after fallback.
	EngineUsed  string        `yaml:"engine_used,omitempty"`
	Elapsed     time.Duration `yaml:"elapsed"`
	BytesBefore int64         `yaml:"bytes_before"`
	BytesAfter  int64         `yaml:"bytes_after"`
	Err         error         `yaml:"-"`
	ErrMessage  string        `yaml:"error,omitempty"`
}

// Finalize fills the serialization-only fields from their runtime
// counterparts before the outcome is reported or persisted.
func (o *RepairOutcome) Finalize() {
	o.StatusLabel = o.Status.String()
	if o.Err != nil {
		o.ErrMessage = o.Err.Error()
	}
}

// BatchRunState aggregates outcomes for one invocation. It is mutated only
// by the scheduler's aggregator goroutine; workers never touch it.
type BatchRunState struct {
	Discovered int           `yaml:"discovered"`
	Completed  int           `yaml:"completed"`
	Skipped    int           `yaml:"skipped"`
	Repaired   int           `yaml:"repaired"`
	Failed     int           `yaml:"failed"`
	Elapsed    time.Duration `yaml:"elapsed"`
	Cancelled  bool          `yaml:"cancelled"`
}

// Record merges a single outcome into the run state.
func (s *BatchRunState) Record(o RepairOutcome) {
	s.Completed++
	switch o.Status {
	case StatusSkipped:
		s.Skipped++
	case StatusRepaired:
		s.Repaired++
	case StatusFailed:
		s.Failed++
	}
}
