package snapshot

import (
	"errors"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/driftwatch-network/driftwatch/pkg/driver"
	"github.com/driftwatch-network/driftwatch/pkg/metrics"
)

// defaultCacheSize bounds the in-memory snapshot cache.
const defaultCacheSize = 128

// Engine coordinates capture, persistence, and comparison of snapshots.
// Safe for concurrent use: the store handles its own synchronization and the
// cache is internally locked.
type Engine struct {
	store  Store
	cache  *lru.Cache[string, *Snapshot]
	policy driver.RetryPolicy
	log    *logrus.Entry
}

// NewEngine builds an engine over the given store. Captures run each state
// getter through policy.
func NewEngine(store Store, policy driver.RetryPolicy, log *logrus.Entry) (*Engine, error) {
	cache, err := lru.New[string, *Snapshot](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{store: store, cache: cache, policy: policy, log: log}, nil
}

// Capture takes a snapshot from the device, persists it, and caches it.
// Capture failures never leave a partial snapshot in the store.
func (e *Engine) Capture(drv driver.Driver, snapshotID string) (*Snapshot, error) {
	snap, err := Take(drv, snapshotID, e.policy, e.log)
	if err != nil {
		metrics.SnapshotsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	if err := e.store.Save(snap); err != nil {
		metrics.SnapshotsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	e.cache.Add(storageKey(snap.Device, snapshotID), snap)
	metrics.SnapshotsTotal.WithLabelValues("success").Inc()
	return snap, nil
}

// CaptureMultiple snapshots every driver concurrently under the same ID and
// returns the successful snapshots keyed by device. Per-device failures are
// joined into the returned error; devices that succeeded are still present
// in the map.
func (e *Engine) CaptureMultiple(drivers []driver.Driver, snapshotID string) (map[string]*Snapshot, error) {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		snaps = make(map[string]*Snapshot)
		errs  []error
	)
	for _, drv := range drivers {
		wg.Add(1)
		go func(drv driver.Driver) {
			defer wg.Done()
			snap, err := e.Capture(drv, snapshotID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			snaps[snap.Device] = snap
		}(drv)
	}
	wg.Wait()
	return snaps, errors.Join(errs...)
}

// Load fetches a snapshot, serving from cache when possible.
func (e *Engine) Load(device, snapshotID string) (*Snapshot, error) {
	key := storageKey(device, snapshotID)
	if snap, ok := e.cache.Get(key); ok {
		return snap, nil
	}
	snap, err := e.store.Load(device, snapshotID)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, snap)
	return snap, nil
}

// Diff loads both snapshots of a device and computes their difference.
func (e *Engine) Diff(device, beforeID, afterID string) (*SnapshotDiff, error) {
	before, err := e.Load(device, beforeID)
	if err != nil {
		return nil, err
	}
	after, err := e.Load(device, afterID)
	if err != nil {
		return nil, err
	}
	diff := Diff(before, after)
	if e.log != nil {
		if diff.HasChanges {
			e.log.Infof("Diff %s: %s -> %s has %d change(s)", device, beforeID, afterID, len(diff.Entries))
		} else {
			e.log.Infof("Diff %s: %s -> %s has no changes", device, beforeID, afterID)
		}
	}
	return diff, nil
}

// DiffMultiple diffs beforeID against afterID over the intersection of
// devices that have both snapshots, walking devices in sorted order. Devices
// missing either snapshot are skipped, not errors.
func (e *Engine) DiffMultiple(devices []string, beforeID, afterID string) map[string]*SnapshotDiff {
	sorted := append([]string(nil), devices...)
	sort.Strings(sorted)

	diffs := make(map[string]*SnapshotDiff)
	for _, device := range sorted {
		diff, err := e.Diff(device, beforeID, afterID)
		if err != nil {
			if e.log != nil {
				e.log.Debugf("Skipping diff for %s: %v", device, err)
			}
			continue
		}
		diffs[device] = diff
	}
	return diffs
}

// List returns the sorted snapshot IDs stored for a device, or every stored
// snapshot name when device is empty.
func (e *Engine) List(device string) ([]string, error) {
	return e.store.List(device)
}
