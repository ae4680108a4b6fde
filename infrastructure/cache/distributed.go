package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DistributedCache keeps JSON-encoded values in a local sharded cache and, when a redis client is
// present, in redis as snappy-compressed blobs shared across instances.
type DistributedCache struct {
	local     *ShardedCache
	redis     *redis.Client
	keyPrefix string
	localTTL  time.Duration
}

// NewDistributedCache builds a cache. client may be nil, in which case only the local layer is used.
func NewDistributedCache(client *redis.Client, keyPrefix string, localOptions Options, localTTL time.Duration) *DistributedCache {
	return &DistributedCache{
		local:     NewShardedCache(localOptions, DefaultShards),
		redis:     client,
		keyPrefix: keyPrefix,
		localTTL:  localTTL,
	}
}

func (dc *DistributedCache) localExpiry(ttl time.Duration) time.Duration {
	if dc.localTTL > 0 && (ttl <= 0 || ttl > dc.localTTL) {
		return dc.localTTL
	}
	return ttl
}

func (dc *DistributedCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "encode cache value")
	}
	dc.local.Set(key, data, dc.localExpiry(ttl))

	if dc.redis == nil {
		return nil
	}
	return dc.redis.Set(ctx, dc.keyPrefix+key, snappy.Encode(nil, data), ttl).Err()
}

// Get decodes the cached value into valuePtr. It reports false on a miss.
func (dc *DistributedCache) Get(ctx context.Context, key string, valuePtr any) (bool, error) {
	if val, found := dc.local.Get(key); found {
		return true, json.Unmarshal(val.([]byte), valuePtr)
	}

	if dc.redis == nil {
		return false, nil
	}

	compressed, err := dc.redis.Get(ctx, dc.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return false, errors.Wrap(err, "decompress cache value")
	}
	if err := json.Unmarshal(data, valuePtr); err != nil {
		return false, errors.Wrap(err, "decode cache value")
	}

	dc.local.Set(key, data, dc.localTTL)
	return true, nil
}

func (dc *DistributedCache) Delete(ctx context.Context, key string) error {
	dc.local.Delete(key)
	if dc.redis == nil {
		return nil
	}
	return dc.redis.Del(ctx, dc.keyPrefix+key).Err()
}

// Flush clears the local layer and every redis key under the prefix.
func (dc *DistributedCache) Flush(ctx context.Context) error {
	dc.local.Flush()
	if dc.redis == nil {
		return nil
	}

	iter := dc.redis.Scan(ctx, 0, dc.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := dc.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (dc *DistributedCache) Stats() Stats {
	return dc.local.GetStats()
}

// Close stops the local layer. The redis client is shared and closed by its owner.
func (dc *DistributedCache) Close() {
	dc.local.Close()
}
