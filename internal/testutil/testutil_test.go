package testutil

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestAssertNoError_FailurePath(t *testing.T) {
	t.Parallel()

	if os.Getenv("TESTUTIL_ASSERT_NO_ERROR_FAIL") == "1" {
		AssertNoError(t, errors.New("boom"))
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestAssertNoError_FailurePath$")
	cmd.Env = append(os.Environ(), "TESTUTIL_ASSERT_NO_ERROR_FAIL=1")
	if err := cmd.Run(); err == nil {
		t.Fatal("expected subprocess to fail when error is non-nil")
	}
}

func TestAssertError(t *testing.T) {
	t.Parallel()
	AssertError(t, errors.New("test error"))
}

func TestAssertError_FailurePath(t *testing.T) {
	t.Parallel()

	if os.Getenv("TESTUTIL_ASSERT_ERROR_FAIL") == "1" {
		AssertError(t, nil)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestAssertError_FailurePath$")
	cmd.Env = append(os.Environ(), "TESTUTIL_ASSERT_ERROR_FAIL=1")
	if err := cmd.Run(); err == nil {
		t.Fatal("expected subprocess to fail when error is nil")
	}
}

func TestAssertPPMHeader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "frame.ppm")
	content := "P6\n2 3\n255\n" + string(make([]byte, 2*3*3))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	AssertPPMHeader(t, path, 2, 3)
}

func TestAssertPPMHeader_FailurePath(t *testing.T) {
	t.Parallel()

	if os.Getenv("TESTUTIL_ASSERT_PPM_FAIL") == "1" {
		dir := os.Getenv("TESTUTIL_ASSERT_PPM_DIR")
		AssertPPMHeader(t, filepath.Join(dir, "frame.ppm"), 999, 999)
		return
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "frame.ppm")
	content := "P6\n2 3\n255\n" + string(make([]byte, 2*3*3))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestAssertPPMHeader_FailurePath$")
	cmd.Env = append(os.Environ(), "TESTUTIL_ASSERT_PPM_FAIL=1", "TESTUTIL_ASSERT_PPM_DIR="+dir)
	if err := cmd.Run(); err == nil {
		t.Fatal("expected subprocess to fail on mismatched dimensions")
	}
}

func TestAssertFrameCount(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"frame_0001.ppm", "frame_0002.ppm"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	AssertFrameCount(t, dir, "frame_*.ppm", 2)
}

func TestAssertFrameCount_FailurePath(t *testing.T) {
	t.Parallel()

	if os.Getenv("TESTUTIL_ASSERT_COUNT_FAIL") == "1" {
		dir := os.Getenv("TESTUTIL_ASSERT_COUNT_DIR")
		AssertFrameCount(t, dir, "frame_*.ppm", 5)
		return
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "frame_0001.ppm"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestAssertFrameCount_FailurePath$")
	cmd.Env = append(os.Environ(), "TESTUTIL_ASSERT_COUNT_FAIL=1", "TESTUTIL_ASSERT_COUNT_DIR="+dir)
	if err := cmd.Run(); err == nil {
		t.Fatal("expected subprocess to fail on mismatched frame count")
	}
}
