// Package decay implements the bounded, linearly-decaying cache of
// recently-active coordinates that the bin manager blends into each
// finalized bin so short-lived activity doesn't vanish the instant a bin
// boundary passes.
package decay

import "github.com/fenwick-labs/threatscope/internal/binraster"

// Capacity is the maximum number of live entries the cache holds.
const Capacity = 65536

// entry is one coordinate's last-seen time and accumulated intensity.
type entry struct {
	coordKey  uint32
	lastSeen  int64
	intensity uint32
}

// Cache holds up to Capacity entries, one per distinct coordinate.
type Cache struct {
	entries []entry
}

// New returns an empty decay cache.
func New() *Cache {
	return &Cache{entries: make([]entry, 0, 1024)}
}

// Size reports the number of live entries.
func (c *Cache) Size() int {
	return len(c.entries)
}

func coordKey(x, y uint32) uint32 {
	return (x << 16) | y
}

// Touch records an event at (x, y) at time ts with the given intensity
// (always 1 from the bin manager's call site). If the coordinate is already
// present, its last-seen time and intensity accumulate; otherwise a new
// entry is appended, unless the cache is at Capacity, in which case the new
// coordinate is silently dropped until the next Compact frees space — the
// current bin's own heatmap already recorded the event via the bin raster,
// so this drop only affects future decay visibility, not current accuracy.
func (c *Cache) Touch(x, y uint32, ts int64, intensity uint32) {
	key := coordKey(x, y)
	for i := range c.entries {
		if c.entries[i].coordKey == key {
			c.entries[i].lastSeen = ts
			c.entries[i].intensity += intensity
			return
		}
	}
	if len(c.entries) >= Capacity {
		return
	}
	c.entries = append(c.entries, entry{coordKey: key, lastSeen: ts, intensity: intensity})
}

// Apply adds each live entry's decayed contribution into bin's heatmap.
// An entry whose age (bin.BinStart - lastSeen) is negative or exceeds
// decaySeconds contributes nothing. Otherwise the contribution is
// floor(intensity * (1 - age/decaySeconds)), raised to 1 whenever the decay
// factor is still positive but would otherwise floor to zero (minimum
// visibility rule).
func (c *Cache) Apply(bin *binraster.Raster, decaySeconds int64) {
	if decaySeconds <= 0 {
		return
	}
	for _, e := range c.entries {
		age := bin.BinStart - e.lastSeen
		if age < 0 || age > decaySeconds {
			continue
		}
		factor := 1.0 - float64(age)/float64(decaySeconds)
		contribution := uint32(factor * float64(e.intensity))
		if factor > 0 && contribution == 0 {
			contribution = 1
		}
		if contribution == 0 {
			continue
		}
		x := e.coordKey >> 16
		y := e.coordKey & 0xFFFF
		if x >= bin.Dimension || y >= bin.Dimension {
			continue
		}
		idx := y*bin.Dimension + x
		bin.Heatmap[idx] += contribution
		if bin.Heatmap[idx] > bin.MaxIntensity {
			bin.MaxIntensity = bin.Heatmap[idx]
		}
	}
}

// Compact removes entries whose age relative to now exceeds decaySeconds
// (or is negative), preserving the relative order of survivors. The bin
// manager calls this periodically (every 10 emitted bins) rather than on
// every Touch, trading a temporarily over-full cache for cheaper steady
// -state operation.
func (c *Cache) Compact(now int64, decaySeconds int64) {
	write := 0
	for read := 0; read < len(c.entries); read++ {
		age := now - c.entries[read].lastSeen
		if age < 0 || age > decaySeconds {
			continue
		}
		c.entries[write] = c.entries[read]
		write++
	}
	c.entries = c.entries[:write]
}
