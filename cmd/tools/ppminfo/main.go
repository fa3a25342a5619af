// Command ppminfo prints the header and basic pixel statistics for a
// rendered P6 PPM frame, for sanity-checking pipeline output by hand.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: ppminfo <frame.ppm>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		log.Fatalf("ppminfo: %v", err)
	}
}

func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	var magic string
	var width, height, maxVal int
	if _, err := fmt.Fscan(reader, &magic, &width, &height, &maxVal); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if magic != "P6" {
		return fmt.Errorf("not a P6 PPM file (magic = %q)", magic)
	}
	// Fscan leaves the single whitespace byte after maxVal unconsumed.
	if _, err := reader.Discard(1); err != nil {
		return err
	}

	var nonBlack, totalR, totalG, totalB uint64
	pixel := make([]byte, 3)
	for {
		if _, err := io.ReadFull(reader, pixel); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return fmt.Errorf("reading pixel data: %w", err)
		}
		if pixel[0] != 0 || pixel[1] != 0 || pixel[2] != 0 {
			nonBlack++
		}
		totalR += uint64(pixel[0])
		totalG += uint64(pixel[1])
		totalB += uint64(pixel[2])
	}

	total := uint64(width * height)
	fmt.Printf("format:     P6\n")
	fmt.Printf("dimensions: %dx%d (%d pixels)\n", width, height, total)
	fmt.Printf("max value:  %d\n", maxVal)
	fmt.Printf("non-black:  %d (%.2f%%)\n", nonBlack, percent(nonBlack, total))
	if total > 0 {
		fmt.Printf("mean RGB:   (%.1f, %.1f, %.1f)\n",
			float64(totalR)/float64(total), float64(totalG)/float64(total), float64(totalB)/float64(total))
	}
	return nil
}

func percent(n, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
