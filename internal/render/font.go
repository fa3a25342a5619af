package render

import "time"

// glyphWidth and glyphHeight describe the base 5x7 bitmap font; drawTimestamp
// scales every glyph 2x.
const (
	glyphWidth  = 5
	glyphHeight = 7
	glyphScale  = 2

	// StripHeight is the height in pixels of the optional timestamp strip
	// appended below the rendered frame.
	StripHeight = glyphHeight*glyphScale + 8
	// StripMargin is the left padding, in pixels, before the first glyph.
	StripMargin = 8
)

// glyphs holds a 5x7 bitmap per supported rune, one byte per row with the
// low 5 bits used (MSB-first within the row).
var glyphs = map[rune][glyphHeight]byte{
	'0': {0x0E, 0x11, 0x13, 0x15, 0x19, 0x11, 0x0E},
	'1': {0x04, 0x0C, 0x04, 0x04, 0x04, 0x04, 0x0E},
	'2': {0x0E, 0x11, 0x01, 0x02, 0x04, 0x08, 0x1F},
	'3': {0x1F, 0x02, 0x04, 0x02, 0x01, 0x11, 0x0E},
	'4': {0x02, 0x06, 0x0A, 0x12, 0x1F, 0x02, 0x02},
	'5': {0x1F, 0x10, 0x1E, 0x01, 0x01, 0x11, 0x0E},
	'6': {0x06, 0x08, 0x10, 0x1E, 0x11, 0x11, 0x0E},
	'7': {0x1F, 0x01, 0x02, 0x04, 0x08, 0x08, 0x08},
	'8': {0x0E, 0x11, 0x11, 0x0E, 0x11, 0x11, 0x0E},
	'9': {0x0E, 0x11, 0x11, 0x0F, 0x01, 0x02, 0x0C},
	'-': {0x00, 0x00, 0x00, 0x1F, 0x00, 0x00, 0x00},
	':': {0x00, 0x0C, 0x0C, 0x00, 0x0C, 0x0C, 0x00},
	' ': {0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
}

// timestampText formats binStart (unix seconds) as "YYYY-MM-DD HH:MM:SS" in
// local time.
func timestampText(binStart int64) string {
	return time.Unix(binStart, 0).Local().Format("2006-01-02 15:04:05")
}

// drawTimestamp renders text into strip, a StripHeight-tall, width-wide pixel
// buffer initialized to black, starting StripMargin pixels from the left,
// using glyphColor for set bits.
func drawTimestamp(strip []RGB, width int, text string, glyphColor RGB) {
	cellW := glyphWidth * glyphScale
	cellH := glyphHeight * glyphScale
	yOff := (StripHeight - cellH) / 2

	x := StripMargin
	for _, r := range text {
		bitmap, ok := glyphs[r]
		if !ok {
			x += cellW + glyphScale
			continue
		}
		for row := 0; row < glyphHeight; row++ {
			bits := bitmap[row]
			for col := 0; col < glyphWidth; col++ {
				if bits&(1<<(glyphWidth-1-col)) == 0 {
					continue
				}
				for sy := 0; sy < glyphScale; sy++ {
					py := yOff + row*glyphScale + sy
					for sx := 0; sx < glyphScale; sx++ {
						px := x + col*glyphScale + sx
						if px < 0 || px >= width || py < 0 || py >= StripHeight {
							continue
						}
						strip[py*width+px] = glyphColor
					}
				}
			}
		}
		x += cellW + glyphScale
	}
}
