// Package mask builds and caches the non-routable overlay: a bitmap marking
// every grid cell that the address mapper could place a non-routable
// address on.
package mask

import (
	"sync"

	"github.com/fenwick-labs/threatscope/internal/address"
)

// Mask is a dimension x dimension bitmap, one bit per cell.
type Mask struct {
	dimension uint32
	bits      []byte // len = ceil(dimension*dimension / 8)
}

// Bit reports whether the bit at the given flat index (y*dimension+x) is set.
func (m *Mask) Bit(index uint32) bool {
	byteIdx := index / 8
	if int(byteIdx) >= len(m.bits) {
		return false
	}
	return m.bits[byteIdx]&(1<<(index%8)) != 0
}

func (m *Mask) set(index uint32) {
	byteIdx := index / 8
	if int(byteIdx) >= len(m.bits) {
		return
	}
	m.bits[byteIdx] |= 1 << (index % 8)
}

// mapFunc is the minimal surface mask.Build needs from an address mapper,
// kept narrow so this package doesn't import the mapper package directly
// and create a cycle-prone dependency for what is otherwise a pure function
// of (order, dimension).
type mapFunc func(addr address.Addr) (x, y uint32)

// cacheKey identifies a built mask by the curve parameters it was built for.
type cacheKey struct {
	order     uint
	dimension uint32
}

// Cache lazily builds and remembers one Mask per (order, dimension) pair,
// for the lifetime of the cache (intended to be owned by the frame
// renderer, one cache per process).
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*Mask
}

// NewCache returns an empty mask cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*Mask)}
}

// Get returns the cached mask for (order, dimension), building it on first
// use via mapAddr. Sampling step is 64 for order <= 10, else 256: chosen so
// every contiguous non-routable block of that size or larger is hit by at
// least one sample, which holds for all 15 ranges at step <= 256.
func (c *Cache) Get(order uint, dimension uint32, mapAddr mapFunc) *Mask {
	key := cacheKey{order: order, dimension: dimension}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.entries[key]; ok {
		return m
	}

	m := build(dimension, mapAddr)
	c.entries[key] = m
	return m
}

func build(dimension uint32, mapAddr mapFunc) *Mask {
	numBits := uint64(dimension) * uint64(dimension)
	m := &Mask{
		dimension: dimension,
		bits:      make([]byte, (numBits+7)/8),
	}

	step := uint64(256)
	if dimension <= (1 << 10) {
		step = 64
	}

	var addr uint64
	for addr = 0; addr < 1<<32; addr += step {
		a := address.Addr(uint32(addr))
		if address.IsNonRoutable(a) {
			markAddr(m, dimension, mapAddr, a)
		}
	}
	markAddr(m, dimension, mapAddr, address.Addr(0xFFFFFFFF))

	return m
}

func markAddr(m *Mask, dimension uint32, mapAddr mapFunc, a address.Addr) {
	x, y := mapAddr(a)
	m.set(y*dimension + x)
}
