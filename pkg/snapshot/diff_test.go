package snapshot

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/driftwatch-network/driftwatch/pkg/state"
)

func testSnapshot(id string) *Snapshot {
	s := New("leaf1", id)
	s.BGPNeighbors["10.0.0.1"] = state.BGPNeighbor{PeerAddress: "10.0.0.1", State: state.BGPEstablished, PeerAS: 65000}
	s.BGPNeighbors["10.0.0.2"] = state.BGPNeighbor{PeerAddress: "10.0.0.2", State: state.BGPEstablished, PeerAS: 65000}
	s.Interfaces["Ethernet1"] = state.Interface{Name: "Ethernet1", AdminStatus: "up", OperStatus: state.OperUp, MTU: 9100}
	s.RoutingTable["10.1.0.0/24"] = state.Route{Prefix: "10.1.0.0/24", NextHop: "10.0.0.1", Protocol: "bgp"}
	s.LLDPNeighbors["Ethernet1"] = state.LLDPNeighbor{LocalInterface: "Ethernet1", RemoteSystem: "spine1", RemotePort: "Ethernet1"}
	s.EVPNRoutes["10.0.0.1"] = state.EVPNRoute{RouteDistinguisher: "10.0.0.1", RouteType: 2, PrefixCount: 10}
	return s
}

func TestDiffIdenticalSnapshotsIsEmpty(t *testing.T) {
	before := testSnapshot("pre")
	after := testSnapshot("post")

	diff := Diff(before, after)
	if diff.HasChanges {
		t.Error("HasChanges = true for identical state")
	}
	if len(diff.Entries) != 0 {
		t.Errorf("entries = %v, want none", diff.Entries)
	}
	if diff.Device != "leaf1" || diff.BeforeID != "pre" || diff.AfterID != "post" {
		t.Errorf("identifiers not carried: %+v", diff)
	}
}

func TestDiffSelf(t *testing.T) {
	s := testSnapshot("only")
	if diff := Diff(s, s); diff.HasChanges {
		t.Error("diffing a snapshot against itself reported changes")
	}
}

func TestDiffClassifiesAllActions(t *testing.T) {
	before := testSnapshot("pre")
	after := testSnapshot("post")

	// Changed: BGP peer drops out of established.
	n := after.BGPNeighbors["10.0.0.2"]
	n.State = "active"
	after.BGPNeighbors["10.0.0.2"] = n
	// Removed: a route withdrawn.
	delete(after.RoutingTable, "10.1.0.0/24")
	// Added: a new interface.
	after.Interfaces["Ethernet2"] = state.Interface{Name: "Ethernet2", OperStatus: state.OperUp}

	diff := Diff(before, after)
	if !diff.HasChanges {
		t.Fatal("HasChanges = false")
	}
	if len(diff.Entries) != 3 {
		t.Fatalf("entries = %d, want 3: %+v", len(diff.Entries), diff.Entries)
	}

	byKey := make(map[string]DiffEntry)
	for _, e := range diff.Entries {
		byKey[e.Category+"/"+e.Key] = e
	}

	if e := byKey["bgp_neighbors/10.0.0.2"]; e.Action != ActionChanged {
		t.Errorf("bgp 10.0.0.2 action = %q, want changed", e.Action)
	} else {
		if e.Before == nil || e.After == nil {
			t.Error("changed entry must carry both before and after")
		}
	}
	if e := byKey["interfaces/Ethernet2"]; e.Action != ActionAdded {
		t.Errorf("Ethernet2 action = %q, want added", e.Action)
	} else if e.Before != nil {
		t.Error("added entry must not carry a before value")
	}
	if e := byKey["routing_table/10.1.0.0/24"]; e.Action != ActionRemoved {
		t.Errorf("route action = %q, want removed", e.Action)
	} else if e.After != nil {
		t.Error("removed entry must not carry an after value")
	}
}

func TestDiffCategoryOrderIsFixed(t *testing.T) {
	before := testSnapshot("pre")
	after := testSnapshot("post")

	// One change in every category, keys chosen to tempt re-ordering.
	after.BGPNeighbors["9.9.9.9"] = state.BGPNeighbor{PeerAddress: "9.9.9.9"}
	after.Interfaces["Ethernet0"] = state.Interface{Name: "Ethernet0"}
	after.RoutingTable["0.0.0.0/0"] = state.Route{Prefix: "0.0.0.0/0"}
	after.LLDPNeighbors["Ethernet0"] = state.LLDPNeighbor{LocalInterface: "Ethernet0", RemoteSystem: "x"}
	after.EVPNRoutes["1.1.1.1"] = state.EVPNRoute{RouteDistinguisher: "1.1.1.1", RouteType: 5}

	diff := Diff(before, after)
	var categories []string
	for _, e := range diff.Entries {
		categories = append(categories, e.Category)
	}
	want := []string{"bgp_neighbors", "interfaces", "routing_table", "lldp_neighbors", "evpn_routes"}
	if !reflect.DeepEqual(categories, want) {
		t.Errorf("category order = %v, want %v", categories, want)
	}
}

func TestDiffDeterministicEncoding(t *testing.T) {
	before := testSnapshot("pre")
	after := testSnapshot("post")
	after.Interfaces["Ethernet9"] = state.Interface{Name: "Ethernet9"}
	after.Interfaces["Ethernet2"] = state.Interface{Name: "Ethernet2"}
	delete(after.BGPNeighbors, "10.0.0.1")

	first, err := Diff(before, after).Encode()
	if err != nil {
		t.Fatal(err)
	}
	second, err := Diff(before, after).Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("two diffs of the same snapshots encoded differently")
	}
}

func TestDiffKeysSortedWithinCategory(t *testing.T) {
	before := New("leaf1", "pre")
	after := New("leaf1", "post")
	for _, name := range []string{"Ethernet9", "Ethernet1", "Ethernet10"} {
		after.Interfaces[name] = state.Interface{Name: name}
	}

	diff := Diff(before, after)
	var keys []string
	for _, e := range diff.Entries {
		keys = append(keys, e.Key)
	}
	want := []string{"Ethernet1", "Ethernet10", "Ethernet9"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want lexicographic %v", keys, want)
	}
}

func TestSnapshotEncodeDecodeRoundTrip(t *testing.T) {
	s := testSnapshot("round")
	data, err := s.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Device != s.Device || got.SnapshotID != s.SnapshotID {
		t.Errorf("identifiers lost: %+v", got)
	}
	if !reflect.DeepEqual(got.BGPNeighbors, s.BGPNeighbors) {
		t.Error("bgp neighbors did not round-trip")
	}
	if !reflect.DeepEqual(got.EVPNRoutes, s.EVPNRoutes) {
		t.Error("evpn routes did not round-trip")
	}
	if diff := Diff(s, got); diff.HasChanges {
		t.Errorf("decoded snapshot differs: %+v", diff.Entries)
	}
}
