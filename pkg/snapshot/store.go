package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/driftwatch-network/driftwatch/pkg/util"
)

// Store persists encoded snapshots under (device, snapshotID) keys. Saving
// to an existing key overwrites it; Load of a missing or unreadable key
// reports a snapshot-kind error. List with an empty device returns the
// stored names across all devices.
type Store interface {
	Save(snap *Snapshot) error
	Load(device, snapshotID string) (*Snapshot, error)
	List(device string) ([]string, error)
	Delete(device, snapshotID string) error
}

// storageKey derives the flat file/key name for a snapshot. Path separators
// in either component are mapped to underscores so hostnames like "pod1/leaf2"
// cannot escape the store directory.
func storageKey(device, snapshotID string) string {
	r := strings.NewReplacer("/", "_", "\\", "_")
	return r.Replace(device) + "_" + r.Replace(snapshotID) + ".json"
}

// FileStore keeps one JSON file per snapshot in a single directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) path(device, snapshotID string) string {
	return filepath.Join(fs.dir, storageKey(device, snapshotID))
}

// Save writes the snapshot, replacing any previous snapshot with the same
// device and ID.
func (fs *FileStore) Save(snap *Snapshot) error {
	data, err := snap.Encode()
	if err != nil {
		return util.NewSnapshotError(snap.Device, "failed to encode snapshot").WithCause(err)
	}
	if err := os.WriteFile(fs.path(snap.Device, snap.SnapshotID), data, 0o644); err != nil {
		return util.NewSnapshotError(snap.Device, "failed to write snapshot file").WithCause(err)
	}
	return nil
}

// Load reads a snapshot back. Missing and corrupt files are both reported as
// snapshot errors naming the device and ID.
func (fs *FileStore) Load(device, snapshotID string) (*Snapshot, error) {
	data, err := os.ReadFile(fs.path(device, snapshotID))
	if err != nil {
		return nil, util.NewSnapshotError(device,
			fmt.Sprintf("snapshot %q not found", snapshotID)).WithCause(err)
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, util.NewSnapshotError(device,
			fmt.Sprintf("snapshot %q is corrupt", snapshotID)).WithCause(err)
	}
	return snap, nil
}

// List returns the sorted snapshot IDs stored for a device. With an empty
// device it returns every stored snapshot name (device_id stems) instead.
func (fs *FileStore) List(device string) ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, util.NewSnapshotError(device, "failed to read snapshot directory").WithCause(err)
	}
	var prefix string
	if device != "" {
		r := strings.NewReplacer("/", "_", "\\", "_")
		prefix = r.Replace(device) + "_"
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes a stored snapshot. Deleting a missing snapshot is not an
// error.
func (fs *FileStore) Delete(device, snapshotID string) error {
	err := os.Remove(fs.path(device, snapshotID))
	if err != nil && !os.IsNotExist(err) {
		return util.NewSnapshotError(device,
			fmt.Sprintf("failed to delete snapshot %q", snapshotID)).WithCause(err)
	}
	return nil
}
