// Package snapshot implements point-in-time capture of device operational
// state, lossless persistence, and deterministic structural diffing between
// captures. Snapshots and diffs are value objects with no shared mutable
// state; the engine owns the backing store.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/driftwatch-network/driftwatch/pkg/driver"
	"github.com/driftwatch-network/driftwatch/pkg/state"
	"github.com/driftwatch-network/driftwatch/pkg/util"
)

// Snapshot is one point-in-time capture of a device's state across the five
// data categories, identified by (Device, SnapshotID). Immutable after
// capture; keys are unique within each category map.
type Snapshot struct {
	SnapshotID    string                        `json:"snapshot_id"`
	Device        string                        `json:"device"`
	Timestamp     time.Time                     `json:"timestamp"`
	BGPNeighbors  map[string]state.BGPNeighbor  `json:"bgp_neighbors"`
	Interfaces    map[string]state.Interface    `json:"interfaces"`
	RoutingTable  map[string]state.Route        `json:"routing_table"`
	LLDPNeighbors map[string]state.LLDPNeighbor `json:"lldp_neighbors"`
	EVPNRoutes    map[string]state.EVPNRoute    `json:"evpn_routes"`
	Raw           map[string]string             `json:"raw_data,omitempty"`
}

// New returns an empty snapshot shell, mainly for programmatic construction
// in tests. Capture paths go through Take.
func New(device, snapshotID string) *Snapshot {
	return &Snapshot{
		SnapshotID:    snapshotID,
		Device:        device,
		Timestamp:     time.Now().UTC(),
		BGPNeighbors:  make(map[string]state.BGPNeighbor),
		Interfaces:    make(map[string]state.Interface),
		RoutingTable:  make(map[string]state.Route),
		LLDPNeighbors: make(map[string]state.LLDPNeighbor),
		EVPNRoutes:    make(map[string]state.EVPNRoute),
	}
}

// Encode serializes the snapshot to indented JSON. The encoding round-trips
// exactly: Decode(Encode(s)) compares equal in identifiers and all five
// category maps.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Decode deserializes a snapshot produced by Encode.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Take captures a full-state snapshot from the device: all five getters are
// invoked through the retry policy and assembled into one Snapshot. If any
// getter exhausts its retries the whole capture fails with a snapshot-kind
// error embedding the original failure; no partial snapshot is returned.
func Take(drv driver.Driver, snapshotID string, policy driver.RetryPolicy, log *logrus.Entry) (*Snapshot, error) {
	device := drv.Hostname()
	if log != nil {
		log.Infof("Taking snapshot %q on %s", snapshotID, device)
	}

	snapErr := func(cause error) error {
		return util.NewSnapshotError(device, fmt.Sprintf("failed to capture snapshot %q", snapshotID)).
			WithDetail("original_error", cause.Error()).
			WithCause(cause)
	}

	bgp, err := driver.Collect(policy, "bgp_neighbors", drv.GetBGPNeighbors)
	if err != nil {
		return nil, snapErr(err)
	}
	ifaces, err := driver.Collect(policy, "interfaces", drv.GetInterfaces)
	if err != nil {
		return nil, snapErr(err)
	}
	routes, err := driver.Collect(policy, "routing_table", drv.GetRoutingTable)
	if err != nil {
		return nil, snapErr(err)
	}
	lldp, err := driver.Collect(policy, "lldp_neighbors", drv.GetLLDPNeighbors)
	if err != nil {
		return nil, snapErr(err)
	}
	evpn, err := driver.Collect(policy, "evpn_routes", drv.GetEVPNRoutes)
	if err != nil {
		return nil, snapErr(err)
	}

	snap := &Snapshot{
		SnapshotID:    snapshotID,
		Device:        device,
		Timestamp:     time.Now().UTC(),
		BGPNeighbors:  bgp,
		Interfaces:    ifaces,
		RoutingTable:  routes,
		LLDPNeighbors: lldp,
		EVPNRoutes:    evpn,
	}
	if log != nil {
		log.Infof("Snapshot %q captured on %s", snapshotID, device)
	}
	return snap, nil
}
