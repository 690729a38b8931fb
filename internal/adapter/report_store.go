package adapter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

// ReportStore persists the outcome of a batch run.
type ReportStore interface {
	SaveReport(path m.Path, report BatchReport) error
	LoadReport(path m.Path) (BatchReport, error)
}

// BatchReport is the on-disk shape of one batch invocation.
type BatchReport struct {
	Engine   string            `yaml:"engine"`
	Workers  int               `yaml:"workers"`
	Summary  m.BatchRunState   `yaml:"summary"`
	Outcomes []m.RepairOutcome `yaml:"outcomes"`
}

// YAMLReportStore stores batch reports as YAML documents.
type YAMLReportStore struct{}

// NewYAMLReportStore constructs a YAMLReportStore.
func NewYAMLReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveReport writes the report to path, replacing any previous report.
func (s *YAMLReportStore) SaveReport(path m.Path, report BatchReport) error {
	for i := range report.Outcomes {
		report.Outcomes[i].Finalize()
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal batch report: %w", err)
	}

	if err := os.WriteFile(string(path), data, 0o644); err != nil {
		return fmt.Errorf("write batch report: %w", err)
	}

	return nil
}

// LoadReport reads a previously saved report.
func (s *YAMLReportStore) LoadReport(path m.Path) (BatchReport, error) {
	var report BatchReport

	data, err := os.ReadFile(string(path))
	if err != nil {
		return report, fmt.Errorf("read batch report: %w", err)
	}

	if err := yaml.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("unmarshal batch report: %w", err)
	}

	return report, nil
}
