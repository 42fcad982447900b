// Package triage turns test failures and device logs into structured defect
// reports, optionally enriched by an LLM analysis service. Triage failures
// are never fatal to a verification run.
package triage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Defect severities, highest first.
const (
	SeverityBlocker  = "blocker"
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// Maximum characters of raw output carried into rendered reports.
const (
	maxOutputChars = 2000
)

// DefectReport is one structured defect produced from failure analysis.
// Exports to JSON for machine consumption and Markdown for ticketing
// systems.
type DefectReport struct {
	Title              string            `json:"title"`
	Summary            string            `json:"summary"`
	ProbableRootCause  string            `json:"probable_root_cause"`
	AffectedComponents []string          `json:"affected_components"`
	Severity           string            `json:"severity"`
	RecommendedActions []string          `json:"recommended_actions"`
	TestName           string            `json:"test_name,omitempty"`
	Device             string            `json:"device,omitempty"`
	ErrorOutput        string            `json:"error_output,omitempty"`
	DeviceLogs         string            `json:"device_logs,omitempty"`
	Timestamp          time.Time         `json:"timestamp"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// ToJSON serializes the report to indented JSON.
func (r *DefectReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON deserializes a report. Reports without a severity default to
// medium.
func FromJSON(data []byte) (*DefectReport, error) {
	var r DefectReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.Severity == "" {
		r.Severity = SeverityMedium
	}
	return &r, nil
}

// ToMarkdown renders the report for Jira or GitHub. Raw output sections are
// truncated.
func (r *DefectReport) ToMarkdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "**Severity:** %s\n", strings.ToUpper(r.Severity))
	fmt.Fprintf(&b, "**Device:** %s\n", orNA(r.Device))
	fmt.Fprintf(&b, "**Test:** %s\n", orNA(r.TestName))
	fmt.Fprintf(&b, "**Timestamp:** %s\n\n", r.Timestamp.Format(time.RFC3339))

	fmt.Fprintf(&b, "## Summary\n\n%s\n\n", r.Summary)
	fmt.Fprintf(&b, "## Probable Root Cause\n\n%s\n\n", r.ProbableRootCause)

	components := "N/A"
	if len(r.AffectedComponents) > 0 {
		components = strings.Join(r.AffectedComponents, ", ")
	}
	fmt.Fprintf(&b, "## Affected Components\n\n%s\n\n", components)

	b.WriteString("## Recommended Actions\n\n")
	if len(r.RecommendedActions) == 0 {
		b.WriteString("No specific actions recommended.\n\n")
	} else {
		for i, action := range r.RecommendedActions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, action)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Error Output\n\n```\n%s\n```\n\n",
		orDefault(truncate(r.ErrorOutput, maxOutputChars), "No error output captured."))
	fmt.Fprintf(&b, "## Device Logs\n\n```\n%s\n```\n",
		orDefault(truncate(r.DeviceLogs, maxOutputChars), "No device logs captured."))
	return b.String()
}

func orNA(s string) string {
	return orDefault(s, "N/A")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
