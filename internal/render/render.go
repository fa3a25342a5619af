// Package render composes a finalized bin raster, the residue map, and the
// non-routable mask into an RGB image and writes it to disk as PPM.
package render

import (
	"fmt"

	"github.com/fenwick-labs/threatscope/internal/binraster"
	"github.com/fenwick-labs/threatscope/internal/mask"
	"github.com/fenwick-labs/threatscope/internal/residue"
)

// Options configures one render call. ImageWidth and ImageHeight describe
// the output canvas before any timestamp strip is appended.
type Options struct {
	ImageWidth    int
	ImageHeight   int
	ShowTimestamp bool
}

// Render composes bin, res and m into an RGB raster per Options and writes
// it to outputPath as a binary PPM (P6) file.
func Render(bin *binraster.Raster, res *residue.Map, m *mask.Mask, opts Options, outputPath string) error {
	if opts.ImageWidth <= 0 || opts.ImageHeight <= 0 {
		return fmt.Errorf("render: invalid image dimensions %dx%d", opts.ImageWidth, opts.ImageHeight)
	}

	dimension := bin.Dimension
	scale := float64(opts.ImageWidth) / float64(dimension)
	if opts.ImageHeight < opts.ImageWidth {
		scale = float64(opts.ImageHeight) / float64(dimension)
	}
	squareSize := scale * float64(dimension)
	ox := (float64(opts.ImageWidth) - squareSize) / 2
	oy := (float64(opts.ImageHeight) - squareSize) / 2

	totalHeight := opts.ImageHeight
	if opts.ShowTimestamp {
		totalHeight += StripHeight
	}

	pixels := make([]RGB, opts.ImageWidth*totalHeight)
	for py := 0; py < opts.ImageHeight; py++ {
		for px := 0; px < opts.ImageWidth; px++ {
			pixels[py*opts.ImageWidth+px] = framePixel(bin, res, m, dimension, scale, ox, oy, px, py)
		}
	}

	if opts.ShowTimestamp {
		strip := make([]RGB, opts.ImageWidth*StripHeight)
		drawTimestamp(strip, opts.ImageWidth, timestampText(bin.BinStart), RGB{255, 255, 255})
		copy(pixels[opts.ImageWidth*opts.ImageHeight:], strip)
	}

	return writePPM(outputPath, opts.ImageWidth, totalHeight, pixels)
}

// framePixel derives the color of one output pixel, per the frame renderer's
// pixel-derivation rules: pixels outside the centered dimension*scale square
// are black; pixels inside map back to a source cell and go through
// pixelColor.
func framePixel(bin *binraster.Raster, res *residue.Map, m *mask.Mask, dimension uint32, scale, ox, oy float64, px, py int) RGB {
	fx := float64(px) - ox
	fy := float64(py) - oy
	if fx < 0 || fy < 0 {
		return RGB{}
	}
	sx := uint32(fx / scale)
	sy := uint32(fy / scale)
	if sx >= dimension || sy >= dimension {
		return RGB{}
	}

	index := sy*dimension + sx
	v := bin.Heatmap[index]
	r := res.Get(sx, sy)
	nr := m != nil && m.Bit(index)

	return pixelColor(v, bin.MaxIntensity, r, nr)
}
