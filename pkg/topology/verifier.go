// Package topology builds a logical network graph from per-device LLDP data
// and verifies its structure: expected adjacencies, link symmetry, and
// overall connectivity.
package topology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/driftwatch-network/driftwatch/pkg/metrics"
	"github.com/driftwatch-network/driftwatch/pkg/state"
	"github.com/driftwatch-network/driftwatch/pkg/util"
)

// Issue categories.
const (
	IssueMissingLink    = "missing_link"
	IssueUnidirectional = "unidirectional"
	IssueDisconnected   = "disconnected"
)

// Link is one directed adjacency observed via LLDP: the local device sees
// the remote device on a local interface.
type Link struct {
	LocalDevice     string `json:"local_device"`
	LocalInterface  string `json:"local_interface"`
	RemoteDevice    string `json:"remote_device"`
	RemoteInterface string `json:"remote_interface"`
}

// Issue is one detected topology inconsistency.
type Issue struct {
	Type            string   `json:"issue_type"`
	Description     string   `json:"description"`
	AffectedDevices []string `json:"affected_devices"`
	Severity        string   `json:"severity"`
}

// ExpectedLink names a device pair that must be directly adjacent.
type ExpectedLink struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Verifier holds the adjacency graph assembled by BuildFromLLDP. In strict
// mode every verification that finds issues also returns a topology-kind
// error; otherwise issues are only collected.
type Verifier struct {
	strict    bool
	adjacency map[string]map[string]string // device -> local interface -> remote device
	links     []Link
	devices   map[string]struct{}
	log       *logrus.Entry
}

// NewVerifier returns an empty verifier.
func NewVerifier(strict bool, log *logrus.Entry) *Verifier {
	return &Verifier{
		strict:    strict,
		adjacency: make(map[string]map[string]string),
		devices:   make(map[string]struct{}),
		log:       log,
	}
}

// BuildFromLLDP rebuilds the graph wholesale from per-device LLDP tables.
// Prior graph state is discarded. Entries with an empty remote system are
// skipped. Devices and interfaces are walked in sorted order so the link
// list is deterministic.
func (v *Verifier) BuildFromLLDP(lldpByDevice map[string]map[string]state.LLDPNeighbor) {
	v.adjacency = make(map[string]map[string]string)
	v.links = v.links[:0]
	v.devices = make(map[string]struct{})

	deviceNames := make([]string, 0, len(lldpByDevice))
	for d := range lldpByDevice {
		deviceNames = append(deviceNames, d)
	}
	sort.Strings(deviceNames)

	for _, device := range deviceNames {
		v.devices[device] = struct{}{}
		neighbors := lldpByDevice[device]
		localIfs := make([]string, 0, len(neighbors))
		for localIf := range neighbors {
			localIfs = append(localIfs, localIf)
		}
		sort.Strings(localIfs)

		for _, localIf := range localIfs {
			n := neighbors[localIf]
			if n.RemoteSystem == "" {
				continue
			}
			v.devices[n.RemoteSystem] = struct{}{}
			if v.adjacency[device] == nil {
				v.adjacency[device] = make(map[string]string)
			}
			v.adjacency[device][localIf] = n.RemoteSystem
			v.links = append(v.links, Link{
				LocalDevice:     device,
				LocalInterface:  localIf,
				RemoteDevice:    n.RemoteSystem,
				RemoteInterface: n.RemotePort,
			})
		}
	}

	if v.log != nil {
		v.log.Infof("Topology graph built: %d devices, %d links", len(v.devices), len(v.links))
	}
}

// sees reports whether device a has any LLDP entry pointing at device b.
func (v *Verifier) sees(a, b string) bool {
	for _, remote := range v.adjacency[a] {
		if remote == b {
			return true
		}
	}
	return false
}

// VerifyExpectedLinks checks each expected pair for adjacency in either
// direction. A pair visible from neither side is a critical missing link; a
// pair visible from exactly one side is a high-severity unidirectional link.
// In strict mode a non-empty issue list also returns an error.
func (v *Verifier) VerifyExpectedLinks(expected []ExpectedLink) ([]Issue, error) {
	var issues []Issue
	for _, link := range expected {
		aToB := v.sees(link.A, link.B)
		bToA := v.sees(link.B, link.A)

		switch {
		case !aToB && !bToA:
			issue := Issue{
				Type:            IssueMissingLink,
				Description:     fmt.Sprintf("Expected link between %s and %s not found in LLDP data", link.A, link.B),
				AffectedDevices: []string{link.A, link.B},
				Severity:        "critical",
			}
			issues = append(issues, issue)
			v.warn(issue)
		case aToB != bToA:
			issue := Issue{
				Type:            IssueUnidirectional,
				Description:     fmt.Sprintf("Unidirectional link between %s and %s: only visible from one side", link.A, link.B),
				AffectedDevices: []string{link.A, link.B},
				Severity:        "high",
			}
			issues = append(issues, issue)
			v.warn(issue)
		}
	}
	return issues, v.strictErr(issues)
}

// DetectUnidirectionalLinks scans every observed link for asymmetry. Each
// device pair is judged once regardless of how many links join it, so
// repeated calls over an unchanged graph return identical results.
func (v *Verifier) DetectUnidirectionalLinks() []Issue {
	var issues []Issue
	checked := make(map[[2]string]struct{})

	for _, link := range v.links {
		a, b := link.LocalDevice, link.RemoteDevice
		if a > b {
			a, b = b, a
		}
		pair := [2]string{a, b}
		if _, done := checked[pair]; done {
			continue
		}
		checked[pair] = struct{}{}

		forward := v.sees(link.LocalDevice, link.RemoteDevice)
		reverse := v.sees(link.RemoteDevice, link.LocalDevice)
		if forward != reverse {
			issue := Issue{
				Type:            IssueUnidirectional,
				Description:     fmt.Sprintf("Unidirectional LLDP between %s and %s", link.LocalDevice, link.RemoteDevice),
				AffectedDevices: []string{link.LocalDevice, link.RemoteDevice},
				Severity:        "high",
			}
			issues = append(issues, issue)
			v.warn(issue)
		}
	}
	return issues
}

// AssertFullyConnected verifies every device is reachable from every other
// when links are treated as undirected. An empty graph passes. On a
// partitioned graph the returned issue names the unreachable devices in
// sorted order; strict mode also returns an error.
func (v *Verifier) AssertFullyConnected() (*Issue, error) {
	if len(v.devices) == 0 {
		return nil, nil
	}

	undirected := make(map[string]map[string]struct{})
	addEdge := func(a, b string) {
		if undirected[a] == nil {
			undirected[a] = make(map[string]struct{})
		}
		undirected[a][b] = struct{}{}
	}
	for _, link := range v.links {
		addEdge(link.LocalDevice, link.RemoteDevice)
		addEdge(link.RemoteDevice, link.LocalDevice)
	}

	// BFS from the lexicographically first device for determinism.
	all := v.Devices()
	start := all[0]
	visited := map[string]struct{}{}
	queue := []string{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if _, seen := visited[node]; seen {
			continue
		}
		visited[node] = struct{}{}
		for neighbor := range undirected[node] {
			if _, seen := visited[neighbor]; !seen {
				queue = append(queue, neighbor)
			}
		}
	}

	var unreachable []string
	for _, d := range all {
		if _, seen := visited[d]; !seen {
			unreachable = append(unreachable, d)
		}
	}
	if len(unreachable) == 0 {
		if v.log != nil {
			v.log.Infof("Topology is fully connected (%d devices)", len(visited))
		}
		return nil, nil
	}

	issue := Issue{
		Type:            IssueDisconnected,
		Description:     fmt.Sprintf("Topology graph is disconnected. Unreachable devices: %s", strings.Join(unreachable, ", ")),
		AffectedDevices: unreachable,
		Severity:        "critical",
	}
	v.warn(issue)
	return &issue, v.strictErr([]Issue{issue})
}

// Devices returns the sorted set of known devices, including devices seen
// only as LLDP remotes.
func (v *Verifier) Devices() []string {
	out := make([]string, 0, len(v.devices))
	for d := range v.devices {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Links returns the observed directed links in build order.
func (v *Verifier) Links() []Link {
	return append([]Link(nil), v.links...)
}

// LinkCount returns the number of observed directed links.
func (v *Verifier) LinkCount() int {
	return len(v.links)
}

func (v *Verifier) warn(issue Issue) {
	metrics.TopologyIssuesTotal.WithLabelValues(issue.Type).Inc()
	if v.log != nil {
		v.log.Warn(issue.Description)
	}
}

func (v *Verifier) strictErr(issues []Issue) error {
	if !v.strict || len(issues) == 0 {
		return nil
	}
	descriptions := make([]string, len(issues))
	for i, issue := range issues {
		descriptions[i] = issue.Description
	}
	return util.NewTopologyError("", fmt.Sprintf("topology verification found %d issue(s)", len(issues))).
		WithDetail("issues", strings.Join(descriptions, "; "))
}
