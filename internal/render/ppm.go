package render

import (
	"bufio"
	"fmt"
	"io"

	"github.com/fenwick-labs/threatscope/internal/security"
)

// writePPM writes a binary PPM (P6) image: header "P6\n<W> <H>\n255\n"
// followed by 3*W*H bytes of RGB triples, rows top-to-bottom.
func writePPM(outputPath string, width, height int, pixels []RGB) error {
	if len(pixels) != width*height {
		return fmt.Errorf("render: pixel buffer has %d entries, want %d for %dx%d", len(pixels), width*height, width, height)
	}

	f, err := security.OpenFileNoSymlink(outputPath)
	if err != nil {
		return fmt.Errorf("render: open %s: %w", outputPath, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", width, height); err != nil {
		return fmt.Errorf("render: write header: %w", err)
	}
	if err := writeScanlines(w, pixels); err != nil {
		return fmt.Errorf("render: write pixels: %w", err)
	}
	return w.Flush()
}

func writeScanlines(w io.Writer, pixels []RGB) error {
	buf := make([]byte, 0, 3*len(pixels))
	for _, p := range pixels {
		buf = append(buf, p.R, p.G, p.B)
	}
	_, err := w.Write(buf)
	return err
}
