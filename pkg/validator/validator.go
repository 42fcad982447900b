// Package validator provides assertion-style checks over collected device
// state. Assertions report outcomes instead of failing fast, so a full run
// accumulates every result into one report suitable for CI gating and
// operator review.
package validator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/driftwatch-network/driftwatch/pkg/metrics"
	"github.com/driftwatch-network/driftwatch/pkg/state"
)

// Severity levels for failed assertions, highest first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// ValidationResult is the outcome of a single assertion. Passing results
// carry SeverityInfo; failing results carry the assertion's failure
// severity. Expected and Actual are rendered as strings so results encode
// uniformly.
type ValidationResult struct {
	Name     string            `json:"name"`
	Passed   bool              `json:"passed"`
	Message  string            `json:"message"`
	Severity string            `json:"severity"`
	Expected string            `json:"expected,omitempty"`
	Actual   string            `json:"actual,omitempty"`
	Device   string            `json:"device,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

// ValidationReport aggregates assertion results for one device in the order
// they were produced.
type ValidationReport struct {
	Device  string             `json:"device"`
	Results []ValidationResult `json:"results"`
}

// Add appends a result and records its outcome metric.
func (r *ValidationReport) Add(res ValidationResult) {
	r.Results = append(r.Results, res)
	if res.Passed {
		metrics.ValidationResultsTotal.WithLabelValues("pass").Inc()
	} else {
		metrics.ValidationResultsTotal.WithLabelValues("fail").Inc()
	}
}

// AddAll appends a batch of results.
func (r *ValidationReport) AddAll(results []ValidationResult) {
	for _, res := range results {
		r.Add(res)
	}
}

// Passed reports whether every result passed. An empty report passes.
func (r *ValidationReport) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// PassCount returns the number of passing assertions.
func (r *ValidationReport) PassCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

// FailCount returns the number of failing assertions.
func (r *ValidationReport) FailCount() int {
	return len(r.Results) - r.PassCount()
}

// Summary returns a one-line pass/fail summary.
func (r *ValidationReport) Summary() string {
	total := len(r.Results)
	return fmt.Sprintf("[%s] %d/%d passed, %d/%d failed",
		r.Device, r.PassCount(), total, r.FailCount(), total)
}

// Encode serializes the report to indented JSON.
func (r *ValidationReport) Encode() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// StateValidator runs assertions against collected state. Stateless apart
// from the device name stamped onto results.
type StateValidator struct {
	device string
	log    *logrus.Entry
}

// New returns a validator stamping results with the given device name.
func New(device string, log *logrus.Entry) *StateValidator {
	return &StateValidator{device: device, log: log}
}

// AssertBGPNeighborEstablished checks one BGP peer is established. A peer
// missing from the table fails critical with actual "not_found".
func (v *StateValidator) AssertBGPNeighborEstablished(bgp map[string]state.BGPNeighbor, peer string) ValidationResult {
	neighbor, ok := bgp[peer]
	if !ok {
		return ValidationResult{
			Name:     "bgp_neighbor_established",
			Passed:   false,
			Message:  fmt.Sprintf("BGP peer %s not found in neighbor table", peer),
			Severity: SeverityCritical,
			Expected: state.BGPEstablished,
			Actual:   "not_found",
			Device:   v.device,
		}
	}

	got := strings.ToLower(neighbor.State)
	passed := got == state.BGPEstablished
	res := ValidationResult{
		Name:     "bgp_neighbor_established",
		Passed:   passed,
		Severity: severityFor(passed, SeverityCritical),
		Expected: state.BGPEstablished,
		Actual:   got,
		Device:   v.device,
		Details: map[string]string{
			"peer_as": fmt.Sprintf("%d", neighbor.PeerAS),
			"vrf":     neighbor.VRF,
		},
	}
	if passed {
		res.Message = fmt.Sprintf("BGP peer %s is %s", peer, got)
	} else {
		res.Message = fmt.Sprintf("BGP peer %s expected ESTABLISHED, got %s", peer, got)
	}
	return res
}

// AssertAllBGPEstablished checks every peer in sorted address order.
func (v *StateValidator) AssertAllBGPEstablished(bgp map[string]state.BGPNeighbor) []ValidationResult {
	results := make([]ValidationResult, 0, len(bgp))
	for _, peer := range sortedKeys(bgp) {
		results = append(results, v.AssertBGPNeighborEstablished(bgp, peer))
	}
	return results
}

// AssertInterfaceUp checks one interface is operationally up. A missing
// interface fails high with actual "not_found".
func (v *StateValidator) AssertInterfaceUp(ifaces map[string]state.Interface, name string) ValidationResult {
	iface, ok := ifaces[name]
	if !ok {
		return ValidationResult{
			Name:     "interface_up",
			Passed:   false,
			Message:  fmt.Sprintf("Interface %s not found", name),
			Severity: SeverityHigh,
			Expected: state.OperUp,
			Actual:   "not_found",
			Device:   v.device,
		}
	}

	got := strings.ToLower(iface.OperStatus)
	passed := got == state.OperUp
	res := ValidationResult{
		Name:     "interface_up",
		Passed:   passed,
		Severity: severityFor(passed, SeverityHigh),
		Expected: state.OperUp,
		Actual:   got,
		Device:   v.device,
	}
	if passed {
		res.Message = fmt.Sprintf("Interface %s is %s", name, got)
	} else {
		res.Message = fmt.Sprintf("Interface %s expected UP, got %s", name, got)
	}
	return res
}

// AssertNoInterfaceErrors checks combined input+output error counters do not
// exceed threshold.
func (v *StateValidator) AssertNoInterfaceErrors(ifaces map[string]state.Interface, name string, threshold int64) ValidationResult {
	iface, ok := ifaces[name]
	if !ok {
		return ValidationResult{
			Name:     "no_interface_errors",
			Passed:   false,
			Message:  fmt.Sprintf("Interface %s not found", name),
			Severity: SeverityHigh,
			Expected: fmt.Sprintf("errors <= %d", threshold),
			Actual:   "not_found",
			Device:   v.device,
		}
	}

	total := iface.InputErrors + iface.OutputErrors
	passed := total <= threshold
	return ValidationResult{
		Name:     "no_interface_errors",
		Passed:   passed,
		Message:  fmt.Sprintf("Interface %s has %d errors (threshold: %d)", name, total, threshold),
		Severity: severityFor(passed, SeverityMedium),
		Expected: fmt.Sprintf("errors <= %d", threshold),
		Actual:   fmt.Sprintf("%d", total),
		Device:   v.device,
		Details: map[string]string{
			"input_errors":  fmt.Sprintf("%d", iface.InputErrors),
			"output_errors": fmt.Sprintf("%d", iface.OutputErrors),
		},
	}
}

// AssertRouteExists checks a prefix is present in the RIB, with optional
// next-hop and protocol matching. Empty expectations are not checked.
func (v *StateValidator) AssertRouteExists(routes map[string]state.Route, prefix, expectedNextHop, expectedProtocol string) ValidationResult {
	route, ok := routes[prefix]
	if !ok {
		return ValidationResult{
			Name:     "route_exists",
			Passed:   false,
			Message:  fmt.Sprintf("Route %s not found in routing table", prefix),
			Severity: SeverityCritical,
			Expected: prefix,
			Actual:   "not_found",
			Device:   v.device,
		}
	}

	var issues []string
	if expectedNextHop != "" && route.NextHop != expectedNextHop {
		issues = append(issues, fmt.Sprintf("next-hop expected %s, got %s", expectedNextHop, route.NextHop))
	}
	if expectedProtocol != "" && route.Protocol != expectedProtocol {
		issues = append(issues, fmt.Sprintf("protocol expected %s, got %s", expectedProtocol, route.Protocol))
	}

	passed := len(issues) == 0
	res := ValidationResult{
		Name:     "route_exists",
		Passed:   passed,
		Severity: severityFor(passed, SeverityCritical),
		Expected: prefix,
		Actual:   fmt.Sprintf("%s via %s (%s)", route.Prefix, route.NextHop, route.Protocol),
		Device:   v.device,
	}
	if passed {
		res.Message = fmt.Sprintf("Route %s present and valid", prefix)
	} else {
		res.Message = fmt.Sprintf("Route %s: %s", prefix, strings.Join(issues, "; "))
	}
	return res
}

// AssertEVPNRouteType checks EVPN routes of a given type exist. With
// expectedCount >= 0 the count must match exactly; pass -1 to require at
// least one.
func (v *StateValidator) AssertEVPNRouteType(evpn map[string]state.EVPNRoute, routeType, expectedCount int) ValidationResult {
	count := 0
	matching := make(map[string]string)
	for rd, entry := range evpn {
		if entry.RouteType == routeType {
			count++
			matching[rd] = entry.State
		}
	}

	var (
		passed   bool
		message  string
		expected string
	)
	if expectedCount >= 0 {
		passed = count == expectedCount
		message = fmt.Sprintf("EVPN type-%d: found %d routes (expected %d)", routeType, count, expectedCount)
		expected = fmt.Sprintf("%d", expectedCount)
	} else {
		passed = count > 0
		expected = ">0"
		if passed {
			message = fmt.Sprintf("EVPN type-%d: found %d routes", routeType, count)
		} else {
			message = fmt.Sprintf("No EVPN type-%d routes found", routeType)
		}
	}

	return ValidationResult{
		Name:     "evpn_route_type",
		Passed:   passed,
		Message:  message,
		Severity: severityFor(passed, SeverityHigh),
		Expected: expected,
		Actual:   fmt.Sprintf("%d", count),
		Device:   v.device,
		Details:  matching,
	}
}

// AssertLLDPNeighbor checks an LLDP adjacency exists on a local interface,
// optionally matching the remote system name. Empty expectedNeighbor accepts
// any neighbor.
func (v *StateValidator) AssertLLDPNeighbor(lldp map[string]state.LLDPNeighbor, localInterface, expectedNeighbor string) ValidationResult {
	expected := expectedNeighbor
	if expected == "" {
		expected = "any"
	}

	neighbor, ok := lldp[localInterface]
	if !ok {
		return ValidationResult{
			Name:     "lldp_neighbor",
			Passed:   false,
			Message:  fmt.Sprintf("No LLDP neighbor on %s", localInterface),
			Severity: SeverityHigh,
			Expected: expected,
			Actual:   "not_found",
			Device:   v.device,
		}
	}

	if expectedNeighbor != "" && neighbor.RemoteSystem != expectedNeighbor {
		return ValidationResult{
			Name:     "lldp_neighbor",
			Passed:   false,
			Message:  fmt.Sprintf("LLDP on %s: expected %s, got %s", localInterface, expectedNeighbor, neighbor.RemoteSystem),
			Severity: SeverityHigh,
			Expected: expectedNeighbor,
			Actual:   neighbor.RemoteSystem,
			Device:   v.device,
		}
	}

	return ValidationResult{
		Name:     "lldp_neighbor",
		Passed:   true,
		Message:  fmt.Sprintf("LLDP neighbor %s present on %s", neighbor.RemoteSystem, localInterface),
		Severity: SeverityInfo,
		Expected: expected,
		Actual:   neighbor.RemoteSystem,
		Device:   v.device,
	}
}

// RunFullValidation runs the comprehensive suite over a full state capture:
// every BGP peer established, every interface up and error-free, every
// route present, every LLDP adjacency populated, and, when any EVPN routes
// exist, at least one route of type 2 and type 5. Each category walks its
// keys in sorted order so reports are deterministic.
func (v *StateValidator) RunFullValidation(snap StateSet) *ValidationReport {
	report := &ValidationReport{Device: v.device}

	for _, peer := range sortedKeys(snap.BGPNeighbors) {
		report.Add(v.AssertBGPNeighborEstablished(snap.BGPNeighbors, peer))
	}
	for _, name := range sortedKeys(snap.Interfaces) {
		report.Add(v.AssertInterfaceUp(snap.Interfaces, name))
		report.Add(v.AssertNoInterfaceErrors(snap.Interfaces, name, 0))
	}
	for _, prefix := range sortedKeys(snap.RoutingTable) {
		report.Add(v.AssertRouteExists(snap.RoutingTable, prefix, "", ""))
	}
	for _, localIf := range sortedKeys(snap.LLDPNeighbors) {
		report.Add(v.AssertLLDPNeighbor(snap.LLDPNeighbors, localIf, ""))
	}
	if len(snap.EVPNRoutes) > 0 {
		report.Add(v.AssertEVPNRouteType(snap.EVPNRoutes, 2, -1))
		report.Add(v.AssertEVPNRouteType(snap.EVPNRoutes, 5, -1))
	}

	if v.log != nil {
		v.log.Infof("Validation report: %s", report.Summary())
	}
	return report
}

// StateSet bundles the five category tables consumed by RunFullValidation.
type StateSet struct {
	BGPNeighbors  map[string]state.BGPNeighbor
	Interfaces    map[string]state.Interface
	RoutingTable  map[string]state.Route
	LLDPNeighbors map[string]state.LLDPNeighbor
	EVPNRoutes    map[string]state.EVPNRoute
}

func severityFor(passed bool, failSeverity string) string {
	if passed {
		return SeverityInfo
	}
	return failSeverity
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
