// Package binmanager drives the bin lifecycle on an ordered event stream: it
// decides when the current bin raster finalizes, applies the decay cache,
// updates the residue map, and hands finalized bins off to an emit callback.
package binmanager

import (
	"fmt"

	"github.com/fenwick-labs/threatscope/internal/binraster"
	"github.com/fenwick-labs/threatscope/internal/decay"
	"github.com/fenwick-labs/threatscope/internal/residue"
)

// compactEvery controls how often (in emitted bins) the decay cache is
// compacted, rather than on every finalize.
const compactEvery = 10

// EmitFunc receives a finalized bin raster and the residue map it can be
// rendered against. The bin manager does not know how to render or write
// frames; that's the frame renderer's job, wired in by the pipeline driver.
type EmitFunc func(bin *binraster.Raster, res *residue.Map) error

// Manager owns the current bin raster, the decay cache, and the residue map.
type Manager struct {
	binSeconds   int64
	decaySeconds int64
	dimension    uint32
	emit         EmitFunc

	current     *binraster.Raster
	decayCache  *decay.Cache
	residueMap  *residue.Map
	totalBins   int
	binsEmitted int
}

// New constructs a Manager. emit must not be nil.
func New(binSeconds, decaySeconds int64, dimension uint32, emit EmitFunc) *Manager {
	return &Manager{
		binSeconds:   binSeconds,
		decaySeconds: decaySeconds,
		dimension:    dimension,
		emit:         emit,
		decayCache:   decay.New(),
		residueMap:   residue.New(dimension),
	}
}

// SetDecaySeconds updates the decay horizon used by future Apply calls (the
// pipeline driver's auto-scale step calls this once, after observing the
// full event timestamp span).
func (m *Manager) SetDecaySeconds(decaySeconds int64) {
	m.decaySeconds = decaySeconds
}

// Residue exposes the residue map for the frame renderer / run report.
func (m *Manager) Residue() *residue.Map {
	return m.residueMap
}

// SeedResidue replaces the manager's residue map with one carried over from
// a prior run, e.g. loaded from the residue store. Ignored if seed is nil or
// its dimension doesn't match the manager's grid.
func (m *Manager) SeedResidue(seed *residue.Map) {
	if seed == nil || seed.Dimension != m.dimension {
		return
	}
	m.residueMap = seed
}

// TotalBins reports how many bins have been opened so far (including the
// currently open one, if any).
func (m *Manager) TotalBins() int {
	return m.totalBins
}

// TargetBinStart floors ts to the start of its bin: epoch-aligned,
// bin_seconds wide. Exported so the pipeline driver and tests can reason
// about bin alignment without duplicating the arithmetic.
func TargetBinStart(ts, binSeconds int64) int64 {
	return (ts / binSeconds) * binSeconds
}

// Process routes one event into the bin lifecycle: if it belongs to a new
// bin, the current bin (if any) is decay-applied, finalized and emitted
// before a fresh bin opens. ts must be non-decreasing across calls; the
// manager does not reorder and out-of-order input produces wrong bin
// assignment rather than an error.
func (m *Manager) Process(ts int64, x, y uint32) error {
	targetStart := TargetBinStart(ts, m.binSeconds)

	if m.current == nil || targetStart != m.current.BinStart {
		if m.current != nil {
			if err := m.finalizeAndEmit(); err != nil {
				return err
			}
		}
		m.current = binraster.New(targetStart, m.binSeconds, m.dimension)
		m.totalBins++
	}

	m.decayCache.Touch(x, y, ts, 1)
	m.residueMap.Mark(x, y)
	m.current.Add(x, y)
	return nil
}

// Flush finalizes and emits the open bin, if any. Call once at end of
// stream.
func (m *Manager) Flush() error {
	if m.current == nil {
		return nil
	}
	return m.finalizeAndEmit()
}

func (m *Manager) finalizeAndEmit() error {
	m.decayCache.Apply(m.current, m.decaySeconds)
	m.current.Finalize()

	if err := m.emit(m.current, m.residueMap); err != nil {
		return fmt.Errorf("binmanager: emit bin starting at %d: %w", m.current.BinStart, err)
	}

	m.binsEmitted++
	if m.binsEmitted%compactEvery == 0 {
		m.decayCache.Compact(m.current.BinStart, m.decaySeconds)
	}
	m.current = nil
	return nil
}
