package codec

import (
	"fmt"
	"strings"
)

// Mode selects how a frame is mapped to terminal cells.
type Mode int32

const (
	TrueColorBlocks Mode = iota
	PaletteColorBlocks
	GrayscaleAscii
	ColorAscii
	Invert
	HalfBlocks
	Mosaic

	modeCount
)

var modeNames = [modeCount]string{
	TrueColorBlocks:    "truecolor",
	PaletteColorBlocks: "palette",
	GrayscaleAscii:     "ascii",
	ColorAscii:         "color-ascii",
	Invert:             "invert",
	HalfBlocks:         "halfblocks",
	Mosaic:             "mosaic",
}

// Modes returns every render mode in key-binding order.
func Modes() []Mode {
	out := make([]Mode, 0, modeCount)
	for m := Mode(0); m < modeCount; m++ {
		out = append(out, m)
	}
	return out
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m >= 0 && m < modeCount
}

// Next returns the mode after m, wrapping around.
func (m Mode) Next() Mode {
	if !m.Valid() {
		return TrueColorBlocks
	}
	return (m + 1) % modeCount
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", int32(m))
	}
	return modeNames[m]
}

// ParseMode resolves a mode by name. Matching is case-insensitive and
// ignores '-' and '_'.
func ParseMode(s string) (Mode, error) {
	key := normalizeModeName(s)
	for m := Mode(0); m < modeCount; m++ {
		if normalizeModeName(modeNames[m]) == key {
			return m, nil
		}
	}
	switch key {
	case "truecolorblocks", "blocks":
		return TrueColorBlocks, nil
	case "palettecolorblocks", "256":
		return PaletteColorBlocks, nil
	case "grayscaleascii", "gray":
		return GrayscaleAscii, nil
	case "half":
		return HalfBlocks, nil
	}
	return 0, fmt.Errorf("unknown render mode %q", s)
}

func normalizeModeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "").Replace(s)
}

// subsamples returns how many source samples a single cell of mode m consumes.
func (m Mode) subsamples() (w, h int) {
	switch m {
	case HalfBlocks:
		return 1, 2
	case Mosaic:
		return mosaicW, mosaicH
	default:
		return 1, 1
	}
}
