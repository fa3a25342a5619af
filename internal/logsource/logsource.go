// Package logsource adapts compressed honeypot connection logs into the
// ordered {timestamp, source address} event stream the pipeline driver
// consumes. This is the external log source collaborator: the mapping and
// binning core never imports this package directly.
package logsource

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fenwick-labs/threatscope/internal/address"
	"github.com/fenwick-labs/threatscope/internal/monitoring"
	"github.com/klauspost/compress/zstd"
)

// Event is one parsed connection record: a unix-second timestamp and the
// source address that connected.
type Event struct {
	Timestamp int64
	SourceAddr address.Addr
}

// EventStream yields parsed events in file order. Callers call Next until
// it returns io.EOF.
type EventStream struct {
	scanner *bufio.Scanner
	closer  io.Closer
	path    string
	line    int
}

// Open opens path, detecting .gz and .zst compression by extension, and
// returns an EventStream over its decoded lines. The caller must call
// Close when done.
func Open(path string) (*EventStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("logsource: open %s: %w", path, err)
	}

	var r io.Reader = f
	closer := io.Closer(f)

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("logsource: gzip reader for %s: %w", path, err)
		}
		r = gz
		closer = multiCloser{gz, f}
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("logsource: zstd reader for %s: %w", path, err)
		}
		r = zr
		closer = zstdCloser{zr, f}
	}

	return &EventStream{scanner: bufio.NewScanner(r), closer: closer, path: path}, nil
}

// Next parses the next well-formed line, skipping (and warning on)
// malformed lines, and returns io.EOF once the stream is exhausted.
func (s *EventStream) Next() (Event, error) {
	for s.scanner.Scan() {
		s.line++
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		ev, ok := parseLine(line)
		if !ok {
			monitoring.Logf("logsource: %s:%d: malformed line, skipping: %q", s.path, s.line, line)
			continue
		}
		return ev, nil
	}
	if err := s.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("logsource: read %s: %w", s.path, err)
	}
	return Event{}, io.EOF
}

// PeekEarliestTimestamp returns the timestamp of the first parseable line in
// path, which is the file's earliest since records within a file are in time
// order. It reads through its own stream, so a subsequent Open starts from
// the beginning; the pipeline driver uses it to sort multiple input files
// before processing. Lines after the first parseable one are not read.
func PeekEarliestTimestamp(path string) (int64, error) {
	s, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	for {
		ev, err := s.Next()
		if err == io.EOF {
			return 0, fmt.Errorf("logsource: %s: no parseable lines", path)
		}
		if err != nil {
			return 0, err
		}
		return ev.Timestamp, nil
	}
}

// Close releases the underlying file (and decompressor, if any).
func (s *EventStream) Close() error {
	return s.closer.Close()
}

// parseLine parses "<unix_seconds> <dotted-quad>".
func parseLine(line string) (Event, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Event{}, false
	}

	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || ts < 0 {
		return Event{}, false
	}

	octets := strings.Split(fields[1], ".")
	if len(octets) != 4 {
		return Event{}, false
	}
	var parts [4]byte
	for i, o := range octets {
		v, err := strconv.Atoi(o)
		if err != nil || v < 0 || v > 255 {
			return Event{}, false
		}
		parts[i] = byte(v)
	}

	return Event{
		Timestamp:  ts,
		SourceAddr: address.NewAddr(parts[0], parts[1], parts[2], parts[3]),
	}, true
}

type multiCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (m multiCloser) Close() error {
	gzErr := m.gz.Close()
	fErr := m.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}

type zstdCloser struct {
	zr *zstd.Decoder
	f  *os.File
}

func (z zstdCloser) Close() error {
	z.zr.Close()
	return z.f.Close()
}
