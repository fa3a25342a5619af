// Package binraster implements one time bin's intensity raster: a flat
// per-cell event count plus the running statistics the frame renderer and
// bin manager need.
package binraster

// Raster accumulates events for a single time bin. The zero value is not
// usable; construct with New.
type Raster struct {
	BinStart  int64
	BinEnd    int64
	Dimension uint32

	Heatmap []uint32

	EventCount   uint32
	UniqueCells  uint32
	MaxIntensity uint32
	finalized    bool
}

// New allocates a raster covering [binStart, binStart+binSeconds) at the
// given grid dimension.
func New(binStart int64, binSeconds int64, dimension uint32) *Raster {
	return &Raster{
		BinStart:  binStart,
		BinEnd:    binStart + binSeconds,
		Dimension: dimension,
		Heatmap:   make([]uint32, uint64(dimension)*uint64(dimension)),
	}
}

// Add increments the cell at (x, y) by one, updating EventCount and
// MaxIntensity. Returns false if (x, y) is outside the grid; the caller
// (the bin manager) never constructs out-of-range coordinates under normal
// operation since the address mapper clamps, but the check is defensive.
func (r *Raster) Add(x, y uint32) bool {
	if x >= r.Dimension || y >= r.Dimension {
		return false
	}
	idx := y*r.Dimension + x
	r.Heatmap[idx]++
	r.EventCount++
	if r.Heatmap[idx] > r.MaxIntensity {
		r.MaxIntensity = r.Heatmap[idx]
	}
	return true
}

// Finalize computes UniqueCells by scanning the heatmap. MaxIntensity is
// already maintained incrementally by Add (and possibly raised further by
// the decay cache's Apply before Finalize runs). Idempotent.
func (r *Raster) Finalize() {
	if r.finalized {
		return
	}
	var unique uint32
	var max uint32
	for _, v := range r.Heatmap {
		if v > 0 {
			unique++
		}
		if v > max {
			max = v
		}
	}
	r.UniqueCells = unique
	if max > r.MaxIntensity {
		r.MaxIntensity = max
	}
	r.finalized = true
}

// Reset zeroes the heatmap and statistics in place, preserving the
// allocation, and rebinds the raster to a new bin start. Provided for
// recyclers; the reference bin manager destroys and recreates rasters
// instead of resetting them.
func (r *Raster) Reset(binStart int64, binSeconds int64) {
	for i := range r.Heatmap {
		r.Heatmap[i] = 0
	}
	r.BinStart = binStart
	r.BinEnd = binStart + binSeconds
	r.EventCount = 0
	r.UniqueCells = 0
	r.MaxIntensity = 0
	r.finalized = false
}
