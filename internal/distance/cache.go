package distance

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

const numShards = 16

type entry struct {
	km        float64
	minutes   float64
	source    string
	expiresAt time.Time
}

// cache is a sharded, TTL-expiring distance cache. Reads are lock-free in
// the sense that each shard is locked independently (16 shards by
// coordinate hash), so concurrent lookups for different coordinate pairs
// rarely contend.
type cache struct {
	ttl    time.Duration
	shards [numShards]struct {
		mu sync.RWMutex
		m  map[string]entry
	}
}

func newCache(ttl time.Duration) *cache {
	c := &cache{ttl: ttl}
	for i := range c.shards {
		c.shards[i].m = make(map[string]entry)
	}
	return c
}

func cacheKey(o, d Coordinate) string {
	return fmt.Sprintf("%.6f,%.6f|%.6f,%.6f", o.Lat, o.Lng, d.Lat, d.Lng)
}

func shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % numShards)
}

func (c *cache) get(key string) (entry, bool) {
	s := &c.shards[shardFor(key)]
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return entry{}, false
	}
	if time.Now().After(e.expiresAt) {
		// Lazy delete: expired entries are removed on the read path that
		// discovers them, not swept proactively per-key.
		s.mu.Lock()
		delete(s.m, key)
		s.mu.Unlock()
		return entry{}, false
	}
	return e, true
}

func (c *cache) put(key string, km, minutes float64, source string) {
	s := &c.shards[shardFor(key)]
	s.mu.Lock()
	s.m[key] = entry{km: km, minutes: minutes, source: source, expiresAt: time.Now().Add(c.ttl)}
	s.mu.Unlock()
}

// sweep drops all expired entries across every shard; it is invoked
// periodically by Provider's background cleanup loop so memory doesn't
// grow unbounded from keys that are never read again.
func (c *cache) sweep() int {
	removed := 0
	now := time.Now()
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for k, e := range s.m {
			if now.After(e.expiresAt) {
				delete(s.m, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}
