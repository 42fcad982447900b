package cli

import (
	"fmt"
	"strconv"

	"github.com/driftwatch-network/driftwatch/pkg/driver"
	"github.com/driftwatch-network/driftwatch/pkg/snapshot"
	"github.com/driftwatch-network/driftwatch/pkg/topology"
	"github.com/driftwatch-network/driftwatch/pkg/validator"
)

// PassFail renders a boolean as a colored PASS or FAIL.
func PassFail(ok bool) string {
	if ok {
		return Green("PASS")
	}
	return Red("FAIL")
}

// PrintValidationReport writes a per-assertion table followed by the report
// summary line.
func PrintValidationReport(report *validator.ValidationReport) {
	t := NewTable("ASSERTION", "RESULT", "SEVERITY", "MESSAGE")
	for _, res := range report.Results {
		t.Row(res.Name, PassFail(res.Passed), Severity(res.Severity), res.Message)
	}
	t.Flush()
	summary := report.Summary()
	if report.Passed() {
		fmt.Println(Green(summary))
	} else {
		fmt.Println(Red(summary))
	}
}

// PrintDiff writes one row per difference. A diff with no changes prints a
// single confirmation line.
func PrintDiff(diff *snapshot.SnapshotDiff) {
	if !diff.HasChanges {
		fmt.Printf("%s: no changes between %s and %s\n",
			diff.Device, diff.BeforeID, diff.AfterID)
		return
	}
	fmt.Printf("%s: %s -> %s (%d changes)\n",
		Bold(diff.Device), diff.BeforeID, diff.AfterID, len(diff.Entries))
	t := NewTable("CATEGORY", "KEY", "ACTION")
	for _, e := range diff.Entries {
		action := e.Action
		switch e.Action {
		case snapshot.ActionAdded:
			action = Green(action)
		case snapshot.ActionRemoved:
			action = Red(action)
		case snapshot.ActionChanged:
			action = Yellow(action)
		}
		t.Row(e.Category, e.Key, action)
	}
	t.Flush()
}

// PrintHealthReport writes the three sub-judgments and the overall verdict.
func PrintHealthReport(report *driver.HealthReport) {
	t := NewTable("DEVICE", "BGP", "INTERFACES", "LLDP", "OVERALL")
	t.Row(report.Device,
		PassFail(report.BGP.Healthy),
		PassFail(report.Interfaces.Healthy),
		PassFail(report.LLDP.Healthy),
		PassFail(report.OverallHealthy))
	t.Flush()
}

// PrintTopologyIssues writes detected issues, or a confirmation line when
// there are none.
func PrintTopologyIssues(issues []topology.Issue) {
	if len(issues) == 0 {
		fmt.Println(Green("No topology issues detected"))
		return
	}
	t := NewTable("TYPE", "SEVERITY", "DESCRIPTION")
	for _, issue := range issues {
		t.Row(issue.Type, Severity(issue.Severity), issue.Description)
	}
	t.Flush()
	fmt.Println(Red(strconv.Itoa(len(issues)) + " topology issue(s) detected"))
}
