package pipeline

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/fenwick-labs/threatscope/internal/config"
)

// Runner executes the external video encoder. Real runs use
// CommandRunner; tests inject a fake to avoid depending on ffmpeg being
// installed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// CommandRunner runs the encoder as a real subprocess with no shell
// involved: argv is passed directly to exec.Command.
type CommandRunner struct{}

// Run invokes name with args and waits for it to exit.
func (CommandRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("encoder: %s exited with error: %w\n%s", name, err, out)
	}
	return nil
}

// EncodeFrames invokes ffmpeg to composite the PPM frames in dir into an
// mp4 at the given fps and codec. codec must be in config.CodecWhitelist.
func EncodeFrames(ctx context.Context, runner Runner, dir string, fps int, codec string) (string, error) {
	if !config.CodecWhitelist[codec] {
		return "", fmt.Errorf("encoder: codec %q is not in the supported whitelist", codec)
	}
	if fps < 1 {
		return "", fmt.Errorf("encoder: fps must be >= 1, got %d", fps)
	}

	outputPath := filepath.Join(dir, "output.mp4")
	args := []string{
		"-y",
		"-framerate", fmt.Sprintf("%d", fps),
		"-pattern_type", "glob",
		"-i", filepath.Join(dir, "frame_*.ppm"),
		"-c:v", codec,
		"-preset", "medium",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		outputPath,
	}

	if err := runner.Run(ctx, "ffmpeg", args...); err != nil {
		return "", err
	}
	return outputPath, nil
}
