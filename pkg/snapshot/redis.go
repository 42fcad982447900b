package snapshot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/driftwatch-network/driftwatch/pkg/util"
)

const redisKeyPrefix = "driftwatch:snapshot:"

// RedisStore persists snapshots as JSON values in Redis, one key per
// (device, snapshotID). Useful when several verification hosts share one
// snapshot history.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisStore connects to the given address and verifies the server is
// reachable before returning.
func NewRedisStore(ctx context.Context, addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client, ctx: ctx}, nil
}

func redisKey(device, snapshotID string) string {
	return redisKeyPrefix + storageKey(device, snapshotID)
}

// Save stores the snapshot, replacing any previous value under the same key.
func (rs *RedisStore) Save(snap *Snapshot) error {
	data, err := snap.Encode()
	if err != nil {
		return util.NewSnapshotError(snap.Device, "failed to encode snapshot").WithCause(err)
	}
	if err := rs.client.Set(rs.ctx, redisKey(snap.Device, snap.SnapshotID), data, 0).Err(); err != nil {
		return util.NewSnapshotError(snap.Device, "failed to write snapshot to redis").WithCause(err)
	}
	return nil
}

// Load fetches a snapshot. A missing key and a corrupt value are both
// snapshot errors naming the device and ID.
func (rs *RedisStore) Load(device, snapshotID string) (*Snapshot, error) {
	data, err := rs.client.Get(rs.ctx, redisKey(device, snapshotID)).Bytes()
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
func (rs *RedisStore) List(device string) ([]string, error) {
	prefix := redisKeyPrefix
	if device != "" {
		r := strings.NewReplacer("/", "_", "\\", "_")
		prefix = redisKeyPrefix + r.Replace(device) + "_"
	}
	var (
		ids    []string
		cursor uint64
	)
	for {
		keys, next, err := rs.client.Scan(rs.ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, util.NewSnapshotError(device, "failed to scan redis keys").WithCause(err)
		}
		for _, k := range keys {
			ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(k, prefix), ".json"))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes a stored snapshot. Missing keys are ignored.
func (rs *RedisStore) Delete(device, snapshotID string) error {
	if err := rs.client.Del(rs.ctx, redisKey(device, snapshotID)).Err(); err != nil {
		return util.NewSnapshotError(device,
			fmt.Sprintf("failed to delete snapshot %q", snapshotID)).WithCause(err)
	}
	return nil
}

// Close releases the client connection pool.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
