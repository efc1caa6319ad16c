package codec

import (
	"strings"
	"testing"
)

func TestAppendANSIPositionsRows(t *testing.T) {
	grid := NewCellGrid(3, 2)
	red := RGB(255, 0, 0)
	for i := range grid.Cells {
		grid.Cells[i] = Cell{Rune: fullBlock, Fg: red, Bg: red}
	}
	grid.At(2, 1).Bg = PaletteColor(21)

	var sb strings.Builder
	grid.AppendANSI(&sb)
	out := sb.String()

	for _, want := range []string{"\x1b[1;1H", "\x1b[2;1H", "\x1b[48;5;21m", "\x1b[38;2;255;0;0m"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q lacks %q", out, want)
		}
	}
	// foreground never changes inside a row, so it is emitted once per row
	if n := strings.Count(out, "\x1b[38;2;255;0;0m"); n != 2 {
		t.Fatalf("foreground emitted %d times", n)
	}
	if n := strings.Count(out, string(fullBlock)); n != 6 {
		t.Fatalf("wrote %d glyphs", n)
	}
}

func TestAppendANSIDefaultColors(t *testing.T) {
	grid := NewCellGrid(2, 1)
	var sb strings.Builder
	grid.AppendANSIAt(&sb, 5, 3)
	out := sb.String()
	if !strings.HasPrefix(out, "\x1b[5;3H\x1b[39m\x1b[49m  ") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestAppendANSIEmptyGrid(t *testing.T) {
	var sb strings.Builder
	(&CellGrid{}).AppendANSI(&sb)
	if sb.Len() != 0 {
		t.Fatalf("empty grid wrote %q", sb.String())
	}
}
