// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertPPMHeader reads the P6 header from a rendered frame and fails the
// test if its dimensions don't match width and height.
func AssertPPMHeader(t *testing.T, path string, width, height int) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	var magic string
	var w, h, maxVal int
	if _, err := fmt.Fscan(reader, &magic, &w, &h, &maxVal); err != nil {
		t.Fatalf("reading PPM header from %s: %v", path, err)
	}
	if magic != "P6" {
		t.Errorf("%s: magic = %q, want P6", path, magic)
	}
	if w != width || h != height {
		t.Errorf("%s: dimensions = %dx%d, want %dx%d", path, w, h, width, height)
	}
}

// AssertFrameCount globs pattern inside dir and fails the test if the
// number of matches doesn't equal want.
func AssertFrameCount(t *testing.T, dir, pattern string, want int) {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		t.Fatalf("globbing %s in %s: %v", pattern, dir, err)
	}
	if len(matches) != want {
		t.Errorf("frame count = %d, want %d", len(matches), want)
	}
}
