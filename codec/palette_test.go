package codec

import "testing"

func TestPaletteLayout(t *testing.T) {
	if len(Palette) != 240 {
		t.Fatalf("palette has %d entries", len(Palette))
	}
	if Palette[0].Index != 16 || Palette[len(Palette)-1].Index != 255 {
		t.Fatalf("unexpected index range %d..%d", Palette[0].Index, Palette[len(Palette)-1].Index)
	}
}

func TestQuantizeExactEntries(t *testing.T) {
	for _, e := range Palette {
		got := Quantize(Palette, e.R, e.G, e.B)
		if got.R != e.R || got.G != e.G || got.B != e.B {
			t.Fatalf("entry %d quantized to %+v", e.Index, got)
		}
	}
	if got := Quantize(Palette, 255, 0, 0); got.Index != 196 {
		t.Fatalf("pure red -> %d", got.Index)
	}
}

func TestQuantizeMinimumDistance(t *testing.T) {
	for r := 0; r < 256; r += 17 {
		for g := 0; g < 256; g += 23 {
			for b := 0; b < 256; b += 29 {
				got := Quantize(Palette, uint8(r), uint8(g), uint8(b))
				gotDist := colorDistance(got, uint8(r), uint8(g), uint8(b))
				for _, e := range Palette {
					if d := colorDistance(e, uint8(r), uint8(g), uint8(b)); d < gotDist {
						t.Fatalf("(%d,%d,%d): %d is closer than chosen %d", r, g, b, e.Index, got.Index)
					}
				}
			}
		}
	}
}

func TestQuantizeTiesPickFirstEntry(t *testing.T) {
	// (4,4,4) is equally far from cube black (16) and gray 232 (8,8,8).
	if got := Quantize(Palette, 4, 4, 4); got.Index != 16 {
		t.Fatalf("tie resolved to %d", got.Index)
	}

	a := PaletteEntry{Index: 7, R: 0}
	b := PaletteEntry{Index: 9, R: 10}
	if got := Quantize([]PaletteEntry{a, b}, 5, 0, 0); got.Index != 7 {
		t.Fatalf("got %d, want 7", got.Index)
	}
	if got := Quantize([]PaletteEntry{b, a}, 5, 0, 0); got.Index != 9 {
		t.Fatalf("got %d, want 9", got.Index)
	}
}

func TestConvertPaletteMode(t *testing.T) {
	grid, err := Convert(solidFrame(16, 16, 250, 5, 5), Geometry{4, 2}, PaletteColorBlocks)
	if err != nil {
		t.Fatal(err)
	}
	for _, cell := range grid.Cells {
		if cell.Bg != PaletteColor(196) {
			t.Fatalf("got %+v", cell.Bg)
		}
	}
}
