// Package mapper projects a 32-bit address onto the curve's 2D grid, either
// through a CIDR band (when a table is loaded and matches) or by scaling the
// address directly into a Hilbert index.
package mapper

import (
	"github.com/fenwick-labs/threatscope/internal/address"
	"github.com/fenwick-labs/threatscope/internal/cidrband"
	"github.com/fenwick-labs/threatscope/internal/curve"
)

// Mapper wires the curve codec and an optional CIDR band table together.
// A nil Table is equivalent to an empty one: every lookup misses and Map
// always takes the direct path.
type Mapper struct {
	cfg   curve.Config
	table *cidrband.Table
}

// New builds a Mapper for the given curve configuration. table may be nil.
func New(cfg curve.Config, table *cidrband.Table) *Mapper {
	return &Mapper{cfg: cfg, table: table}
}

// Config returns the curve configuration this mapper was built with.
func (m *Mapper) Config() curve.Config {
	return m.cfg
}

// Map returns the (x, y) grid coordinate for addr. When a CIDR table is
// loaded and addr falls in one of its bands, the banded path places x inside
// that band's horizontal stripe and y from the address's low 16 bits.
// Otherwise the address is scaled directly across the whole curve and
// decoded back to (x, y), which preserves CIDR locality because adjacent
// addresses produce adjacent indices.
func (m *Mapper) Map(addr address.Addr) (x, y uint32) {
	if m.table != nil && m.table.Len() > 0 {
		if band := m.table.Find(addr); band != nil {
			return m.mapBanded(addr, band)
		}
	}
	return m.mapDirect(addr)
}

func (m *Mapper) mapBanded(addr address.Addr, band *cidrband.Band) (x, y uint32) {
	tzWidth := band.BandEnd - band.BandStart
	if tzWidth < 1 {
		tzWidth = 1
	}
	hi16 := (uint32(addr) >> 16) & 0xFFFF
	x = band.BandStart + (hi16*tzWidth)/65536
	if band.BandEnd > 0 {
		if x < band.BandStart {
			x = band.BandStart
		}
		if x > band.BandEnd-1 {
			x = band.BandEnd - 1
		}
	}

	lo16 := uint32(addr) & 0xFFFF
	y = (lo16 * m.cfg.Dimension) / 65536
	return x, y
}

func (m *Mapper) mapDirect(addr address.Addr) (x, y uint32) {
	index := (uint64(addr) * m.cfg.TotalPoints) >> 32
	if index >= m.cfg.TotalPoints {
		index = m.cfg.TotalPoints - 1
	}
	return curve.Decode(index, m.cfg.Order)
}
