// Package report aggregates verification run output into a single document:
// test results, per-device validation reports, snapshot diffs, health
// reports, and triage defects. Renders to JSON for pipelines and HTML for
// humans.
package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/driftwatch-network/driftwatch/pkg/driver"
	"github.com/driftwatch-network/driftwatch/pkg/snapshot"
	"github.com/driftwatch-network/driftwatch/pkg/topology"
	"github.com/driftwatch-network/driftwatch/pkg/triage"
	"github.com/driftwatch-network/driftwatch/pkg/validator"
)

//go:embed templates
var templatesFS embed.FS

// Test statuses.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// TestResult is one test outcome included in the run report.
type TestResult struct {
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	DurationSeconds float64 `json:"duration_seconds"`
	Device          string  `json:"device,omitempty"`
	Message         string  `json:"message,omitempty"`
	Details         string  `json:"details,omitempty"`
}

// RunReport is the aggregated output of one verification run.
type RunReport struct {
	Title             string                         `json:"title"`
	Timestamp         time.Time                      `json:"timestamp"`
	Environment       map[string]string              `json:"environment,omitempty"`
	TestResults       []TestResult                   `json:"test_results,omitempty"`
	ValidationReports []*validator.ValidationReport  `json:"validation_reports,omitempty"`
	SnapshotDiffs     []*snapshot.SnapshotDiff       `json:"snapshot_diffs,omitempty"`
	HealthReports     []*driver.HealthReport         `json:"health_reports,omitempty"`
	TopologyIssues    []topology.Issue               `json:"topology_issues,omitempty"`
	TriageReports     []*triage.DefectReport         `json:"triage_reports,omitempty"`
}

// Generator collects run artifacts and renders the final report.
type Generator struct {
	data RunReport
	log  *logrus.Entry
}

// NewGenerator returns a generator with the default title.
func NewGenerator(log *logrus.Entry) *Generator {
	return &Generator{
		data: RunReport{
			Title:     "Network State Verification Report",
			Timestamp: time.Now().UTC(),
		},
		log: log,
	}
}

// SetTitle overrides the report title.
func (g *Generator) SetTitle(title string) {
	g.data.Title = title
}

// SetEnvironment attaches environment metadata such as testbed name and
// software versions.
func (g *Generator) SetEnvironment(env map[string]string) {
	g.data.Environment = env
}

// AddTestResult appends one test outcome.
func (g *Generator) AddTestResult(result TestResult) {
	g.data.TestResults = append(g.data.TestResults, result)
}

// AddValidationReport appends a per-device validation report.
func (g *Generator) AddValidationReport(report *validator.ValidationReport) {
	g.data.ValidationReports = append(g.data.ValidationReports, report)
}

// AddSnapshotDiff appends a pre/post change diff.
func (g *Generator) AddSnapshotDiff(diff *snapshot.SnapshotDiff) {
	g.data.SnapshotDiffs = append(g.data.SnapshotDiffs, diff)
}

// AddHealthReport appends a device health report.
func (g *Generator) AddHealthReport(report *driver.HealthReport) {
	g.data.HealthReports = append(g.data.HealthReports, report)
}

// AddTopologyIssues appends detected topology issues.
func (g *Generator) AddTopologyIssues(issues []topology.Issue) {
	g.data.TopologyIssues = append(g.data.TopologyIssues, issues...)
}

// AddTriageReport appends a defect report.
func (g *Generator) AddTriageReport(report *triage.DefectReport) {
	g.data.TriageReports = append(g.data.TriageReports, report)
}

// Report returns the collected data.
func (g *Generator) Report() RunReport {
	return g.data
}

// TotalTests returns the number of collected test results.
func (g *Generator) TotalTests() int {
	return len(g.data.TestResults)
}

// PassedTests returns the number of passing test results.
func (g *Generator) PassedTests() int {
	n := 0
	for _, t := range g.data.TestResults {
		if t.Status == StatusPassed {
			n++
		}
	}
	return n
}

// FailedTests returns the number of failing test results.
func (g *Generator) FailedTests() int {
	n := 0
	for _, t := range g.data.TestResults {
		if t.Status == StatusFailed {
			n++
		}
	}
	return n
}

// PassRate returns the pass percentage over all collected tests, 0 when no
// tests were collected.
func (g *Generator) PassRate() float64 {
	if len(g.data.TestResults) == 0 {
		return 0
	}
	return float64(g.PassedTests()) / float64(len(g.data.TestResults)) * 100
}

// WriteJSON writes the report as indented JSON.
func (g *Generator) WriteJSON(path string) error {
	data, err := json.MarshalIndent(g.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	if g.log != nil {
		g.log.Infof("JSON report written to %s", path)
	}
	return nil
}

// WriteHTML renders the embedded HTML template and writes it.
func (g *Generator) WriteHTML(path string) error {
	tmpl, err := template.ParseFS(templatesFS, "templates/report.html.tmpl")
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer f.Close()

	view := struct {
		RunReport
		TotalTests  int
		PassedTests int
		FailedTests int
		PassRate    float64
	}{
		RunReport:   g.data,
		TotalTests:  g.TotalTests(),
		PassedTests: g.PassedTests(),
		FailedTests: g.FailedTests(),
		PassRate:    g.PassRate(),
	}
	if err := tmpl.Execute(f, view); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if g.log != nil {
		g.log.Infof("HTML report written to %s", path)
	}
	return nil
}
