package snapshot

import (
	"errors"
	"reflect"
	"testing"

	"github.com/driftwatch-network/driftwatch/internal/testutil"
	"github.com/driftwatch-network/driftwatch/pkg/driver"
	"github.com/driftwatch-network/driftwatch/pkg/util"
)

func fastPolicy() driver.RetryPolicy {
	return driver.RetryPolicy{MaxAttempts: 3, BackoffBase: 0.0001}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	engine, err := NewEngine(store, fastPolicy(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return engine
}

func TestTakeCollectsAllCategories(t *testing.T) {
	drv := testutil.HealthyLeaf("leaf1")
	snap, err := Take(drv, "pre", fastPolicy(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Device != "leaf1" || snap.SnapshotID != "pre" {
		t.Errorf("identifiers = %q/%q", snap.Device, snap.SnapshotID)
	}
	if len(snap.BGPNeighbors) != 2 || len(snap.Interfaces) != 4 ||
		len(snap.RoutingTable) != 2 || len(snap.LLDPNeighbors) != 2 || len(snap.EVPNRoutes) != 2 {
		t.Errorf("unexpected category sizes: %d/%d/%d/%d/%d",
			len(snap.BGPNeighbors), len(snap.Interfaces), len(snap.RoutingTable),
			len(snap.LLDPNeighbors), len(snap.EVPNRoutes))
	}
	if snap.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestTakeRetriesTransientFailures(t *testing.T) {
	drv := testutil.HealthyLeaf("leaf1")
	drv.FailFirst["routing_table"] = 2

	if _, err := Take(drv, "pre", fastPolicy(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := drv.Calls("routing_table"); got != 3 {
		t.Errorf("routing_table calls = %d, want 3", got)
	}
}

func TestTakeFailureWrapsSnapshotError(t *testing.T) {
	drv := testutil.HealthyLeaf("leaf1")
	drv.FailAlways["evpn_routes"] = true

	_, err := Take(drv, "pre", fastPolicy(), nil)
	if !errors.Is(err, util.ErrSnapshot) {
		t.Errorf("err = %v, want snapshot kind", err)
	}
	if !errors.Is(err, util.ErrConnection) {
		t.Errorf("err = %v, want underlying cause kind preserved", err)
	}
}

func TestEngineCapturePersistsAndLoads(t *testing.T) {
	engine := newTestEngine(t)
	drv := testutil.HealthyLeaf("leaf1")

	snap, err := engine.Capture(drv, "pre")
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := engine.Load("leaf1", "pre")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.BGPNeighbors, snap.BGPNeighbors) {
		t.Error("loaded snapshot differs from captured")
	}
}

func TestEngineCaptureFailureLeavesNoPartialSnapshot(t *testing.T) {
	engine := newTestEngine(t)
	drv := testutil.HealthyLeaf("leaf1")
	drv.FailAlways["interfaces"] = true

	if _, err := engine.Capture(drv, "pre"); err == nil {
		t.Fatal("expected capture error")
	}
	if _, err := engine.Load("leaf1", "pre"); err == nil {
		t.Error("failed capture left a stored snapshot")
	}
}

func TestEngineCaptureMultiple(t *testing.T) {
	engine := newTestEngine(t)
	good1 := testutil.HealthyLeaf("leaf1")
	good2 := testutil.HealthyLeaf("leaf2")
	bad := testutil.HealthyLeaf("leaf3")
	bad.FailAlways["bgp_neighbors"] = true

	snaps, err := engine.CaptureMultiple([]driver.Driver{good1, good2, bad}, "pre")
	if err == nil {
		t.Fatal("expected joined error for failing device")
	}
	if len(snaps) != 2 {
		t.Fatalf("snaps = %d, want the 2 successful devices", len(snaps))
	}
	for _, device := range []string{"leaf1", "leaf2"} {
		if _, ok := snaps[device]; !ok {
			t.Errorf("missing snapshot for %s", device)
		}
	}
}

func TestEngineDiffEndToEnd(t *testing.T) {
	engine := newTestEngine(t)
	drv := testutil.HealthyLeaf("leaf1")

	if _, err := engine.Capture(drv, "pre"); err != nil {
		t.Fatal(err)
	}

	// BGP session to spine2 falls over between captures.
	n := drv.BGPNeighbors["10.0.0.2"]
	n.State = "active"
	drv.BGPNeighbors["10.0.0.2"] = n

	if _, err := engine.Capture(drv, "post"); err != nil {
		t.Fatal(err)
	}

	diff, err := engine.Diff("leaf1", "pre", "post")
	if err != nil {
		t.Fatal(err)
	}
	if !diff.HasChanges {
		t.Fatal("expected drift between captures")
	}
	if len(diff.Entries) != 1 {
		t.Fatalf("entries = %+v, want exactly the BGP change", diff.Entries)
	}
	e := diff.Entries[0]
	if e.Category != "bgp_neighbors" || e.Key != "10.0.0.2" || e.Action != ActionChanged {
		t.Errorf("entry = %+v", e)
	}
}

func TestEngineDiffMissingSnapshot(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.Diff("leaf1", "no-such", "other")
	if !errors.Is(err, util.ErrSnapshot) {
		t.Errorf("err = %v, want snapshot kind", err)
	}
}

func TestEngineDiffMultipleIntersectionOnly(t *testing.T) {
	engine := newTestEngine(t)
	leaf1 := testutil.HealthyLeaf("leaf1")
	leaf2 := testutil.HealthyLeaf("leaf2")
	if _, err := engine.Capture(leaf1, "pre"); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Capture(leaf1, "post"); err != nil {
		t.Fatal(err)
	}
	// leaf2 has only the post capture, leaf3 has neither.
	if _, err := engine.Capture(leaf2, "post"); err != nil {
		t.Fatal(err)
	}

	diffs := engine.DiffMultiple([]string{"leaf1", "leaf2", "leaf3"}, "pre", "post")
	if len(diffs) != 1 {
		t.Fatalf("diffs = %d, want only the device with both snapshots", len(diffs))
	}
	diff, ok := diffs["leaf1"]
	if !ok {
		t.Fatal("leaf1 missing from diff set")
	}
	if diff.HasChanges {
		t.Error("identical captures reported drift")
	}
}

func TestEngineLoadUsesCache(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	engine, err := NewEngine(store, fastPolicy(), nil)
	if err != nil {
		t.Fatal(err)
	}
	drv := testutil.HealthyLeaf("leaf1")
	if _, err := engine.Capture(drv, "pre"); err != nil {
		t.Fatal(err)
	}

	// Remove the backing file; the cache must still serve the snapshot.
	if err := store.Delete("leaf1", "pre"); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Load("leaf1", "pre"); err != nil {
		t.Errorf("cached load failed: %v", err)
	}
}

func TestEngineList(t *testing.T) {
	engine := newTestEngine(t)
	drv := testutil.HealthyLeaf("leaf1")
	for _, id := range []string{"pre", "post", "baseline"} {
		if _, err := engine.Capture(drv, id); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := engine.List("leaf1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"baseline", "post", "pre"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("List = %v, want %v", ids, want)
	}
}
