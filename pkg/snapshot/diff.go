package snapshot

import (
	"encoding/json"
	"sort"
)

// Diff actions. Every differing key carries exactly one.
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
	ActionChanged = "changed"
)

// Category names in the fixed order diffs and validations walk them.
var Categories = []string{
	"bgp_neighbors",
	"interfaces",
	"routing_table",
	"lldp_neighbors",
	"evpn_routes",
}

// DiffEntry records one key-level difference within a category. Before is nil
// for added keys, After is nil for removed keys, both are set for changed
// keys.
type DiffEntry struct {
	Category string      `json:"category"`
	Key      string      `json:"key"`
	Action   string      `json:"action"`
	Before   interface{} `json:"before,omitempty"`
	After    interface{} `json:"after,omitempty"`
}

// SnapshotDiff is the structural difference between two snapshots of the
// same device. Entries are ordered by category (in Categories order) and by
// key lexicographically within each category, so two diffs of the same pair
// of snapshots are byte-identical when encoded.
type SnapshotDiff struct {
	Device     string      `json:"device"`
	BeforeID   string      `json:"before_id"`
	AfterID    string      `json:"after_id"`
	Entries    []DiffEntry `json:"entries"`
	HasChanges bool        `json:"has_changes"`
}

// Encode serializes the diff to indented JSON.
func (d *SnapshotDiff) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ByCategory groups the entries by category, preserving order.
func (d *SnapshotDiff) ByCategory() map[string][]DiffEntry {
	out := make(map[string][]DiffEntry)
	for _, e := range d.Entries {
		out[e.Category] = append(out[e.Category], e)
	}
	return out
}

// Diff computes the structural difference from before to after. Records are
// compared by value; a key present in both snapshots with an equal record
// produces no entry. Diffing a snapshot against itself yields no entries.
func Diff(before, after *Snapshot) *SnapshotDiff {
	d := &SnapshotDiff{
		Device:   before.Device,
		BeforeID: before.SnapshotID,
		AfterID:  after.SnapshotID,
	}
	d.Entries = append(d.Entries, diffCategory("bgp_neighbors", before.BGPNeighbors, after.BGPNeighbors)...)
	d.Entries = append(d.Entries, diffCategory("interfaces", before.Interfaces, after.Interfaces)...)
	d.Entries = append(d.Entries, diffCategory("routing_table", before.RoutingTable, after.RoutingTable)...)
	d.Entries = append(d.Entries, diffCategory("lldp_neighbors", before.LLDPNeighbors, after.LLDPNeighbors)...)
	d.Entries = append(d.Entries, diffCategory("evpn_routes", before.EVPNRoutes, after.EVPNRoutes)...)
	d.HasChanges = len(d.Entries) > 0
	return d
}

// diffCategory walks the union of keys in sorted order and classifies each
// as added, removed, changed, or (silently) unchanged. Record types are
// comparable structs, so == is deep equality.
func diffCategory[T comparable](category string, before, after map[string]T) []DiffEntry {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var entries []DiffEntry
	for _, k := range sorted {
		b, inBefore := before[k]
		a, inAfter := after[k]
		switch {
		case inBefore && !inAfter:
			entries = append(entries, DiffEntry{Category: category, Key: k, Action: ActionRemoved, Before: b})
		case !inBefore && inAfter:
			entries = append(entries, DiffEntry{Category: category, Key: k, Action: ActionAdded, After: a})
		case b != a:
			entries = append(entries, DiffEntry{Category: category, Key: k, Action: ActionChanged, Before: b, After: a})
		}
	}
	return entries
}
