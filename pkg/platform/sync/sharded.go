package sync

import (
	"hash/fnv"
	"sync"
)

const shardCount = 32

// ShardedMutex serializes work per key without one global lock. Keys that
// hash to the same shard share a mutex, so holders must never lock two keys
// at once.
type ShardedMutex struct {
	shards [shardCount]sync.Mutex
}

func NewShardedMutex() *ShardedMutex {
	return &ShardedMutex{}
}

func (m *ShardedMutex) Lock(key string) {
	m.shards[shardFor(key)].Lock()
}

func (m *ShardedMutex) Unlock(key string) {
	m.shards[shardFor(key)].Unlock()
}

// WithLock runs fn while holding key's shard.
func (m *ShardedMutex) WithLock(key string, fn func()) {
	m.Lock(key)
	defer m.Unlock(key)
	fn()
}

func shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key)) //nolint:errcheck // hash writes never fail
	return int(h.Sum32() % shardCount)
}
