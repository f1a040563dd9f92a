package solver

import (
	"container/list"
	"hash/fnv"
	"sync"

	"github.com/cdstlab/optimizer/internal/objectives"
)

const defaultCacheCapacity = 100_000

// cachedFitness is the memoized evaluation result for one allocation
// content hash.
type cachedFitness struct {
	f         objectives.Vector
	penalty   float64
	composite float64
}

// evalCache memoizes fitness evaluations by a 64-bit content hash of the
// allocation tensor, bounded by an LRU eviction policy and scoped to a
// single Solver run.
type evalCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[uint64]*list.Element
	order    *list.List // front = most recently used
}

type cacheNode struct {
	key   uint64
	value cachedFitness
}

func newEvalCache(capacity int) *evalCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &evalCache{
		capacity: capacity,
		entries:  make(map[uint64]*list.Element, capacity),
		order:    list.New(),
	}
}

func (c *evalCache) get(key uint64) (cachedFitness, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return cachedFitness{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheNode).value, true
}

func (c *evalCache) put(key uint64, value cachedFitness) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheNode).value = value
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheNode{key: key, value: value})
	c.entries[key] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheNode).key)
		}
	}
}

// contentHash computes a 64-bit FNV-1a hash over the allocation's raw
// int32 buffer.
func contentHash(x []int32) uint64 {
	h := fnv.New64a()
	var buf [4]byte
	for _, v := range x {
		buf[0] = byte(v)
		buf[1] = byte(v >> 8)
		buf[2] = byte(v >> 16)
		buf[3] = byte(v >> 24)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
