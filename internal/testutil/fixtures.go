package testutil

import "github.com/driftwatch-network/driftwatch/pkg/state"

// HealthyLeaf returns a stub driver populated with a healthy two-uplink
// leaf: both BGP sessions established, fabric interfaces up, LLDP visible
// on both uplinks.
func HealthyLeaf(device string) *StubDriver {
	s := NewStubDriver(device)
	s.BGPNeighbors = map[string]state.BGPNeighbor{
		"10.0.0.1": {PeerAddress: "10.0.0.1", State: state.BGPEstablished, PeerAS: 65000, PrefixesReceived: 12, UptimeSeconds: 3600, VRF: "default"},
		"10.0.0.2": {PeerAddress: "10.0.0.2", State: state.BGPEstablished, PeerAS: 65000, PrefixesReceived: 12, UptimeSeconds: 3500, VRF: "default"},
	}
	s.Interfaces = map[string]state.Interface{
		"Ethernet1":   {Name: "Ethernet1", AdminStatus: state.OperUp, OperStatus: state.OperUp, SpeedBps: 10e9, MTU: 9100},
		"Ethernet2":   {Name: "Ethernet2", AdminStatus: state.OperUp, OperStatus: state.OperUp, SpeedBps: 10e9, MTU: 9100},
		"Loopback0":   {Name: "Loopback0", AdminStatus: state.OperUp, OperStatus: state.OperUp},
		"Management1": {Name: "Management1", AdminStatus: state.OperUp, OperStatus: state.OperDown},
	}
	s.RoutingTable = map[string]state.Route{
		"10.1.0.0/24": {Prefix: "10.1.0.0/24", NextHop: "10.0.0.1", Protocol: "bgp", Preference: 200, Metric: 0},
		"10.2.0.0/24": {Prefix: "10.2.0.0/24", NextHop: "10.0.0.2", Protocol: "bgp", Preference: 200, Metric: 0},
	}
	s.LLDPNeighbors = map[string]state.LLDPNeighbor{
		"Ethernet1": {LocalInterface: "Ethernet1", RemoteSystem: "spine1", RemotePort: "Ethernet1"},
		"Ethernet2": {LocalInterface: "Ethernet2", RemoteSystem: "spine2", RemotePort: "Ethernet1"},
	}
	s.EVPNRoutes = map[string]state.EVPNRoute{
		"10.0.0.1": {RouteDistinguisher: "10.0.0.1", RouteType: 2, State: "established", PrefixCount: 40},
		"10.0.0.2": {RouteDistinguisher: "10.0.0.2", RouteType: 5, State: "established", PrefixCount: 8},
	}
	return s
}

// LLDPTables returns per-device LLDP data for a three-node chain
// a - b - c, visible symmetrically from both ends of each link.
func LLDPTables(a, b, c string) map[string]map[string]state.LLDPNeighbor {
	return map[string]map[string]state.LLDPNeighbor{
		a: {
			"Ethernet1": {LocalInterface: "Ethernet1", RemoteSystem: b, RemotePort: "Ethernet1"},
		},
		b: {
			"Ethernet1": {LocalInterface: "Ethernet1", RemoteSystem: a, RemotePort: "Ethernet1"},
			"Ethernet2": {LocalInterface: "Ethernet2", RemoteSystem: c, RemotePort: "Ethernet1"},
		},
		c: {
			"Ethernet1": {LocalInterface: "Ethernet1", RemoteSystem: b, RemotePort: "Ethernet2"},
		},
	}
}
