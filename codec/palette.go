package codec

// PaletteEntry is one quantization target: an xterm-256 index and its RGB value.
type PaletteEntry struct {
	Index   uint8
	R, G, B uint8
}

var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

// Palette is the quantization table: the 6x6x6 color cube (16..231) followed
// by the 24-step gray ramp (232..255). The 16 system colors are left out since
// terminals remap them per theme.
var Palette = buildPalette()

func buildPalette() []PaletteEntry {
	p := make([]PaletteEntry, 0, 240)
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p = append(p, PaletteEntry{
					Index: uint8(16 + r*36 + g*6 + b),
					R:     cubeLevels[r],
					G:     cubeLevels[g],
					B:     cubeLevels[b],
				})
			}
		}
	}
	for i := 0; i < 24; i++ {
		v := uint8(8 + 10*i)
		p = append(p, PaletteEntry{Index: uint8(232 + i), R: v, G: v, B: v})
	}
	return p
}

// Quantize returns the palette entry with the smallest squared Euclidean
// distance to (r, g, b). Ties go to the entry that comes first in palette.
func Quantize(palette []PaletteEntry, r, g, b uint8) PaletteEntry {
	best := 0
	bestDist := -1
	for i, e := range palette {
		d := colorDistance(e, r, g, b)
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
			if d == 0 {
				break
			}
		}
	}
	return palette[best]
}

func colorDistance(e PaletteEntry, r, g, b uint8) int {
	dr := int(e.R) - int(r)
	dg := int(e.G) - int(g)
	db := int(e.B) - int(b)
	return dr*dr + dg*dg + db*db
}

// paletteCache memoizes quantization within a single conversion.
type paletteCache map[uint32]uint8

func (c paletteCache) lookup(r, g, b uint8) uint8 {
	key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	if idx, ok := c[key]; ok {
		return idx
	}
	idx := Quantize(Palette, r, g, b).Index
	c[key] = idx
	return idx
}
