// Package cidrband loads a precomputed CIDR-to-curve-band table and answers
// longest-prefix-match lookups through a small direct-mapped cache. The
// table itself is produced offline by a separate tool (outside this
// module's scope); this package only consumes it.
package cidrband

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fenwick-labs/threatscope/internal/address"
	"github.com/fenwick-labs/threatscope/internal/monitoring"
)

// Band describes a horizontal stripe of the curve assigned to one CIDR block.
type Band struct {
	Network    address.Addr
	Mask       address.Addr
	PrefixLen  int
	BandStart  uint32
	BandEnd    uint32
}

// cacheSlots is the fixed size of the direct-mapped lookup cache.
const cacheSlots = 256

type cacheEntry struct {
	addr    address.Addr
	present bool
	band    *Band
	hits    uint32
}

// Table is a sorted, immutable (after Load) set of CIDR bands plus a
// direct-mapped lookup cache. The cache is the only mutable state and is
// exclusive to Table.
type Table struct {
	bands []Band
	cache [cacheSlots]cacheEntry
}

// New returns an empty table; Find on an empty table always misses, which is
// how the Address Mapper detects "no table loaded" and falls back to direct
// scaling.
func New() *Table {
	return &Table{}
}

// Len reports the number of loaded bands.
func (t *Table) Len() int {
	return len(t.bands)
}

// Load reads a CIDR band table from path. Lines are of the form
// "A.B.C.D/P T X_START X_END"; T is a signed integer, currently unused.
// Blank lines and lines starting with '#' are skipped. Malformed lines are
// warned and skipped. A file-open failure returns an error; the caller
// (the Address Mapper's owner) is expected to treat that as "no table",
// continuing in direct-mapping mode rather than aborting the run.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cidrband: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadFrom(f)
}

// LoadFrom parses a CIDR band table from an already-open reader.
func LoadFrom(r io.Reader) (*Table, error) {
	t := New()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		band, ok := parseLine(line)
		if !ok {
			monitoring.Logf("cidrband: skipping malformed line %d: %q", lineNo, line)
			continue
		}
		t.bands = append(t.bands, band)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cidrband: read: %w", err)
	}

	sort.SliceStable(t.bands, func(i, j int) bool {
		if t.bands[i].PrefixLen != t.bands[j].PrefixLen {
			return t.bands[i].PrefixLen > t.bands[j].PrefixLen // longest prefix first
		}
		return t.bands[i].Network < t.bands[j].Network
	})
	return t, nil
}

// parseLine parses one "A.B.C.D/P T X_START X_END" data line. The eight
// numeric fields (four octets, prefix length, the unused T, and the two
// band bounds) must all be present and in range; any other shape rejects
// the line.
func parseLine(line string) (Band, bool) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Band{}, false
	}
	cidr, tStr, xStartStr, xEndStr := fields[0], fields[1], fields[2], fields[3]
	if _, err := strconv.ParseInt(tStr, 10, 64); err != nil {
		return Band{}, false
	}

	slashIdx := strings.IndexByte(cidr, '/')
	if slashIdx < 0 {
		return Band{}, false
	}
	octets := strings.Split(cidr[:slashIdx], ".")
	if len(octets) != 4 {
		return Band{}, false
	}
	var parts [4]byte
	for i, o := range octets {
		v, err := strconv.Atoi(o)
		if err != nil || v < 0 || v > 255 {
			return Band{}, false
		}
		parts[i] = byte(v)
	}
	prefixLen, err := strconv.Atoi(cidr[slashIdx+1:])
	if err != nil || prefixLen < 0 || prefixLen > 32 {
		return Band{}, false
	}
	xStart, err := strconv.ParseUint(xStartStr, 10, 32)
	if err != nil {
		return Band{}, false
	}
	xEnd, err := strconv.ParseUint(xEndStr, 10, 32)
	if err != nil {
		return Band{}, false
	}
	if xStart > xEnd {
		return Band{}, false
	}

	network := address.NewAddr(parts[0], parts[1], parts[2], parts[3])
	mask := maskFromPrefix(prefixLen)
	if address.Addr(uint32(network)&uint32(mask)) != network {
		return Band{}, false
	}

	return Band{
		Network:   network,
		Mask:      mask,
		PrefixLen: prefixLen,
		BandStart: uint32(xStart),
		BandEnd:   uint32(xEnd),
	}, true
}

// maskFromPrefix materialises a network mask from a prefix length: a prefix
// of 0 yields a mask of all zero bits (matches everything).
func maskFromPrefix(prefixLen int) address.Addr {
	if prefixLen == 0 {
		return 0
	}
	return address.Addr(^uint32(0) << (32 - prefixLen))
}

// Find returns the longest-prefix-matching band for addr, or nil if none
// matches (including when the table is empty). Results are memoised in a
// 256-slot direct-mapped cache keyed by addr&0xFF; a miss or a match both
// overwrite the slot's prior occupant, which suppresses repeated scan work
// for hot-idle addresses at the cost of occasional false cache misses when
// two addresses collide on the same slot.
func (t *Table) Find(addr address.Addr) *Band {
	slot := uint32(addr) & 0xFF
	entry := &t.cache[slot]
	if entry.present && entry.addr == addr {
		entry.hits++
		return entry.band
	}

	var found *Band
	for i := range t.bands {
		b := &t.bands[i]
		if address.Addr(uint32(addr)&uint32(b.Mask)) == b.Network {
			found = b
			break
		}
	}

	t.cache[slot] = cacheEntry{addr: addr, present: true, band: found}
	return found
}
