// Package residue implements the unbounded, never-decaying per-cell
// activity counter: once a cell has ever seen an event, later frames can
// still show it even when the current bin is idle there.
package residue

// Map holds a monotonically non-decreasing count per grid cell.
type Map struct {
	Dimension     uint32
	Counts        []uint32
	DistinctCells uint32
	MaxCount      uint32
}

// New allocates a residue map for a dimension x dimension grid.
func New(dimension uint32) *Map {
	return &Map{
		Dimension: dimension,
		Counts:    make([]uint32, uint64(dimension)*uint64(dimension)),
	}
}

// Mark bounds-checks (x, y) and increments its count, tracking DistinctCells
// and MaxCount. Out-of-range coordinates are silently ignored.
func (m *Map) Mark(x, y uint32) {
	if x >= m.Dimension || y >= m.Dimension {
		return
	}
	idx := y*m.Dimension + x
	if m.Counts[idx] == 0 {
		m.DistinctCells++
	}
	m.Counts[idx]++
	if m.Counts[idx] > m.MaxCount {
		m.MaxCount = m.Counts[idx]
	}
}

// Get returns the cell's lifetime count, or 0 if (x, y) is out of range.
func (m *Map) Get(x, y uint32) uint32 {
	if x >= m.Dimension || y >= m.Dimension {
		return 0
	}
	return m.Counts[y*m.Dimension+x]
}
