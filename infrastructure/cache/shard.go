package cache

import (
	"time"

	"github.com/spaolacci/murmur3"
)

const DefaultShards = 16

// ShardedCache spreads keys over several Cache instances to reduce lock contention.
type ShardedCache struct {
	shards []*Cache
}

func NewShardedCache(options Options, shardCount int) *ShardedCache {
	if shardCount <= 0 {
		shardCount = DefaultShards
	}

	perShard := options
	if options.MaxItems > 0 {
		perShard.MaxItems = (options.MaxItems + shardCount - 1) / shardCount
	}

	sc := &ShardedCache{shards: make([]*Cache, shardCount)}
	for i := range sc.shards {
		sc.shards[i] = NewCache(perShard)
	}
	return sc
}

func (sc *ShardedCache) getShard(key string) *Cache {
	return sc.shards[murmur3.Sum32([]byte(key))%uint32(len(sc.shards))]
}

func (sc *ShardedCache) Set(key string, value any, expiration time.Duration) {
	sc.getShard(key).Set(key, value, expiration)
}

func (sc *ShardedCache) Get(key string) (any, bool) {
	return sc.getShard(key).Get(key)
}

func (sc *ShardedCache) Delete(key string) {
	sc.getShard(key).Delete(key)
}

func (sc *ShardedCache) Flush() {
	for _, shard := range sc.shards {
		shard.Flush()
	}
}

func (sc *ShardedCache) Count() int {
	count := 0
	for _, shard := range sc.shards {
		count += shard.Count()
	}
	return count
}

func (sc *ShardedCache) GetStats() Stats {
	var stats Stats
	for _, shard := range sc.shards {
		s := shard.GetStats()
		stats.Hits += s.Hits
		stats.Misses += s.Misses
		stats.Evictions += s.Evictions
		stats.Items += s.Items
	}
	return stats
}

func (sc *ShardedCache) Close() {
	for _, shard := range sc.shards {
		shard.Close()
	}
}
