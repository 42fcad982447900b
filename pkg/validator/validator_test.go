package validator

import (
	"strings"
	"testing"

	"github.com/driftwatch-network/driftwatch/pkg/state"
)

func TestAssertBGPNeighborEstablished(t *testing.T) {
	tests := []struct {
		name         string
		bgp          map[string]state.BGPNeighbor
		peer         string
		wantPassed   bool
		wantSeverity string
		wantActual   string
	}{
		{
			name: "established peer passes",
			bgp: map[string]state.BGPNeighbor{
				"10.0.0.1": {PeerAddress: "10.0.0.1", State: "established"},
			},
			peer:         "10.0.0.1",
			wantPassed:   true,
			wantSeverity: SeverityInfo,
			wantActual:   "established",
		},
		{
			name: "case-insensitive state",
			bgp: map[string]state.BGPNeighbor{
				"10.0.0.1": {PeerAddress: "10.0.0.1", State: "Established"},
			},
			peer:         "10.0.0.1",
			wantPassed:   true,
			wantSeverity: SeverityInfo,
			wantActual:   "established",
		},
		{
			name: "active peer fails critical",
			bgp: map[string]state.BGPNeighbor{
				"10.0.0.3": {PeerAddress: "10.0.0.3", State: "active"},
			},
			peer:         "10.0.0.3",
			wantPassed:   false,
			wantSeverity: SeverityCritical,
			wantActual:   "active",
		},
		{
			name:         "missing peer fails critical",
			bgp:          map[string]state.BGPNeighbor{},
			peer:         "10.0.0.9",
			wantPassed:   false,
			wantSeverity: SeverityCritical,
			wantActual:   "not_found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New("leaf1", nil)
			res := v.AssertBGPNeighborEstablished(tt.bgp, tt.peer)
			if res.Passed != tt.wantPassed {
				t.Errorf("passed = %t, want %t", res.Passed, tt.wantPassed)
			}
			if res.Severity != tt.wantSeverity {
				t.Errorf("severity = %q, want %q", res.Severity, tt.wantSeverity)
			}
			if res.Actual != tt.wantActual {
				t.Errorf("actual = %q, want %q", res.Actual, tt.wantActual)
			}
			if res.Expected != state.BGPEstablished {
				t.Errorf("expected = %q", res.Expected)
			}
			if res.Device != "leaf1" {
				t.Errorf("device = %q", res.Device)
			}
		})
	}
}

func TestAssertAllBGPEstablishedSortedOrder(t *testing.T) {
	v := New("leaf1", nil)
	bgp := map[string]state.BGPNeighbor{
		"10.0.0.3": {State: "active"},
		"10.0.0.1": {State: "established"},
		"10.0.0.2": {State: "established"},
	}
	results := v.AssertAllBGPEstablished(bgp)
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	var peers []string
	for _, r := range results {
		peers = append(peers, strings.Fields(r.Message)[2])
	}
	for i, want := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if peers[i] != want {
			t.Errorf("result %d peer = %q, want %q", i, peers[i], want)
		}
	}
	if results[2].Passed {
		t.Error("active peer should fail")
	}
}

func TestAssertInterfaceUp(t *testing.T) {
	v := New("leaf1", nil)
	ifaces := map[string]state.Interface{
		"Ethernet1": {Name: "Ethernet1", OperStatus: "up"},
		"Ethernet2": {Name: "Ethernet2", OperStatus: "down"},
	}

	if res := v.AssertInterfaceUp(ifaces, "Ethernet1"); !res.Passed || res.Severity != SeverityInfo {
		t.Errorf("up interface: %+v", res)
	}
	if res := v.AssertInterfaceUp(ifaces, "Ethernet2"); res.Passed || res.Severity != SeverityHigh {
		t.Errorf("down interface: %+v", res)
	}
	if res := v.AssertInterfaceUp(ifaces, "Ethernet9"); res.Passed || res.Actual != "not_found" {
		t.Errorf("missing interface: %+v", res)
	}
}

func TestAssertNoInterfaceErrors(t *testing.T) {
	v := New("leaf1", nil)
	ifaces := map[string]state.Interface{
		"Ethernet1": {Name: "Ethernet1", InputErrors: 3, OutputErrors: 4},
	}

	tests := []struct {
		name       string
		threshold  int64
		wantPassed bool
	}{
		{"under threshold", 10, true},
		{"at threshold", 7, true},
		{"over threshold", 6, false},
		{"zero threshold", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.AssertNoInterfaceErrors(ifaces, "Ethernet1", tt.threshold)
			if res.Passed != tt.wantPassed {
				t.Errorf("passed = %t, want %t", res.Passed, tt.wantPassed)
			}
			if res.Actual != "7" {
				t.Errorf("actual = %q, want combined count 7", res.Actual)
			}
		})
	}
}

func TestAssertRouteExists(t *testing.T) {
	v := New("leaf1", nil)
	routes := map[string]state.Route{
		"10.1.0.0/24": {Prefix: "10.1.0.0/24", NextHop: "10.0.0.1", Protocol: "bgp"},
	}

	tests := []struct {
		name       string
		prefix     string
		nextHop    string
		protocol   string
		wantPassed bool
	}{
		{"present", "10.1.0.0/24", "", "", true},
		{"matching attributes", "10.1.0.0/24", "10.0.0.1", "bgp", true},
		{"wrong next hop", "10.1.0.0/24", "10.0.0.9", "", false},
		{"wrong protocol", "10.1.0.0/24", "", "ospf", false},
		{"missing prefix", "10.9.0.0/24", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.AssertRouteExists(routes, tt.prefix, tt.nextHop, tt.protocol)
			if res.Passed != tt.wantPassed {
				t.Errorf("passed = %t, want %t (%s)", res.Passed, tt.wantPassed, res.Message)
			}
			if !res.Passed && res.Severity != SeverityCritical {
				t.Errorf("severity = %q, want critical", res.Severity)
			}
		})
	}
}

func TestAssertEVPNRouteType(t *testing.T) {
	v := New("leaf1", nil)
	evpn := map[string]state.EVPNRoute{
		"rd1": {RouteDistinguisher: "rd1", RouteType: 2},
		"rd2": {RouteDistinguisher: "rd2", RouteType: 2},
		"rd3": {RouteDistinguisher: "rd3", RouteType: 5},
	}

	tests := []struct {
		name          string
		routeType     int
		expectedCount int
		wantPassed    bool
		wantActual    string
	}{
		{"at least one type-2", 2, -1, true, "2"},
		{"exact count matches", 2, 2, true, "2"},
		{"exact count mismatch", 2, 3, false, "2"},
		{"zero of type-3", 3, -1, false, "0"},
		{"expect exactly zero", 3, 0, true, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.AssertEVPNRouteType(evpn, tt.routeType, tt.expectedCount)
			if res.Passed != tt.wantPassed {
				t.Errorf("passed = %t, want %t (%s)", res.Passed, tt.wantPassed, res.Message)
			}
			if res.Actual != tt.wantActual {
				t.Errorf("actual = %q, want %q", res.Actual, tt.wantActual)
			}
		})
	}
}

func TestAssertLLDPNeighbor(t *testing.T) {
	v := New("leaf1", nil)
	lldp := map[string]state.LLDPNeighbor{
		"Ethernet1": {LocalInterface: "Ethernet1", RemoteSystem: "spine1"},
	}

	if res := v.AssertLLDPNeighbor(lldp, "Ethernet1", ""); !res.Passed {
		t.Errorf("any neighbor: %+v", res)
	}
	if res := v.AssertLLDPNeighbor(lldp, "Ethernet1", "spine1"); !res.Passed {
		t.Errorf("matching neighbor: %+v", res)
	}
	if res := v.AssertLLDPNeighbor(lldp, "Ethernet1", "spine2"); res.Passed || res.Actual != "spine1" {
		t.Errorf("wrong neighbor: %+v", res)
	}
	if res := v.AssertLLDPNeighbor(lldp, "Ethernet2", ""); res.Passed || res.Actual != "not_found" {
		t.Errorf("missing adjacency: %+v", res)
	}
}

func TestRunFullValidation(t *testing.T) {
	set := StateSet{
		BGPNeighbors: map[string]state.BGPNeighbor{
			"10.0.0.1": {State: "established"},
			"10.0.0.3": {State: "active"},
		},
		Interfaces: map[string]state.Interface{
			"Ethernet1": {Name: "Ethernet1", OperStatus: "up"},
		},
		RoutingTable: map[string]state.Route{
			"10.1.0.0/24": {Prefix: "10.1.0.0/24", NextHop: "10.0.0.1", Protocol: "bgp"},
		},
		LLDPNeighbors: map[string]state.LLDPNeighbor{
			"Ethernet1": {LocalInterface: "Ethernet1", RemoteSystem: "spine1"},
		},
		EVPNRoutes: map[string]state.EVPNRoute{
			"rd1": {RouteDistinguisher: "rd1", RouteType: 2},
		},
	}

	report := New("leaf1", nil).RunFullValidation(set)

	// 2 bgp + 2 per interface + 1 route + 1 lldp + 2 evpn.
	if len(report.Results) != 8 {
		t.Fatalf("results = %d, want 8", len(report.Results))
	}
	if report.Passed() {
		t.Error("report passed despite an active BGP peer and no type-5 routes")
	}
	// Failures: the active peer and the missing type-5 EVPN routes.
	if report.FailCount() != 2 {
		t.Errorf("fail count = %d, want 2", report.FailCount())
	}
	if report.PassCount() != 6 {
		t.Errorf("pass count = %d, want 6", report.PassCount())
	}
	want := "[leaf1] 6/8 passed, 2/8 failed"
	if got := report.Summary(); got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestRunFullValidationSkipsEVPNWhenEmpty(t *testing.T) {
	set := StateSet{
		Interfaces: map[string]state.Interface{
			"Ethernet1": {Name: "Ethernet1", OperStatus: "up"},
		},
	}
	report := New("leaf1", nil).RunFullValidation(set)
	for _, res := range report.Results {
		if res.Name == "evpn_route_type" {
			t.Error("EVPN assertions present despite empty EVPN table")
		}
	}
	if !report.Passed() {
		t.Errorf("report failed: %s", report.Summary())
	}
}

func TestEmptyReportPasses(t *testing.T) {
	r := &ValidationReport{Device: "leaf1"}
	if !r.Passed() {
		t.Error("empty report should pass")
	}
	if r.Summary() != "[leaf1] 0/0 passed, 0/0 failed" {
		t.Errorf("summary = %q", r.Summary())
	}
}
