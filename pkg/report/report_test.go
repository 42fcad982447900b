package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/driftwatch-network/driftwatch/pkg/topology"
	"github.com/driftwatch-network/driftwatch/pkg/validator"
)

func sampleGenerator() *Generator {
	g := NewGenerator(nil)
	g.SetTitle("Pod 1 change window")
	g.SetEnvironment(map[string]string{"fabric": "pod1", "eos": "4.32.1F"})
	g.AddTestResult(TestResult{Name: "bgp_convergence", Status: StatusPassed, Device: "leaf1", DurationSeconds: 1.2})
	g.AddTestResult(TestResult{Name: "interface_errors", Status: StatusFailed, Device: "leaf1", Message: "7 errors on Ethernet1"})
	g.AddTestResult(TestResult{Name: "evpn_type5", Status: StatusSkipped, Device: "leaf2"})
	g.AddTopologyIssues([]topology.Issue{{
		Type:            topology.IssueUnidirectional,
		Description:     "Unidirectional LLDP between leaf1 and spine1",
		AffectedDevices: []string{"leaf1", "spine1"},
		Severity:        "high",
	}})
	vr := &validator.ValidationReport{Device: "leaf1"}
	vr.Add(validator.ValidationResult{Name: "bgp_established", Device: "leaf1", Passed: true, Severity: "info"})
	g.AddValidationReport(vr)
	return g
}

func TestCounters(t *testing.T) {
	g := sampleGenerator()
	if g.TotalTests() != 3 {
		t.Errorf("TotalTests = %d, want 3", g.TotalTests())
	}
	if g.PassedTests() != 1 || g.FailedTests() != 1 {
		t.Errorf("passed/failed = %d/%d, want 1/1", g.PassedTests(), g.FailedTests())
	}
	if rate := g.PassRate(); rate < 33.2 || rate > 33.4 {
		t.Errorf("PassRate = %f", rate)
	}
}

func TestPassRateEmptyRun(t *testing.T) {
	if rate := NewGenerator(nil).PassRate(); rate != 0 {
		t.Errorf("PassRate = %f, want 0 for empty run", rate)
	}
}

func TestWriteJSON(t *testing.T) {
	g := sampleGenerator()
	path := filepath.Join(t.TempDir(), "report.json")
	if err := g.WriteJSON(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded RunReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Title != "Pod 1 change window" {
		t.Errorf("title = %q", decoded.Title)
	}
	if len(decoded.TestResults) != 3 || len(decoded.TopologyIssues) != 1 {
		t.Errorf("decoded report = %+v", decoded)
	}
	if decoded.Environment["fabric"] != "pod1" {
		t.Errorf("environment = %v", decoded.Environment)
	}
}

func TestWriteHTML(t *testing.T) {
	g := sampleGenerator()
	path := filepath.Join(t.TempDir(), "report.html")
	if err := g.WriteHTML(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	for _, want := range []string{
		"Pod 1 change window",
		"bgp_convergence",
		"interface_errors",
		"Unidirectional LLDP between leaf1 and spine1",
		"leaf1",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}
