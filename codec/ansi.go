package codec

import (
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

// AppendANSI writes the grid starting at the top-left corner of the screen.
// Every row is positioned explicitly and SGR codes are only emitted when a
// color changes.
func (g *CellGrid) AppendANSI(sb *strings.Builder) {
	g.AppendANSIAt(sb, 1, 1)
}

// AppendANSIAt writes the grid with its top-left cell at (startRow, startCol), 1-based.
func (g *CellGrid) AppendANSIAt(sb *strings.Builder, startRow, startCol int) {
	if g.Empty() || len(g.Cells) < g.Cols*g.Rows {
		return
	}
	sb.Grow(g.Cols * g.Rows * 4)
	for r := 0; r < g.Rows; r++ {
		writeCursor(sb, startRow+r, startCol)
		var lastFg, lastBg Color
		first := true
		for _, cell := range g.Row(r) {
			if first || cell.Fg != lastFg {
				writeSGR(sb, cell.Fg, false)
				lastFg = cell.Fg
			}
			if first || cell.Bg != lastBg {
				writeSGR(sb, cell.Bg, true)
				lastBg = cell.Bg
			}
			first = false
			rn := cell.Rune
			if rn == 0 {
				rn = ' '
			}
			sb.WriteRune(rn)
		}
		sb.WriteString("\x1b[0m")
	}
}

func writeCursor(sb *strings.Builder, row, col int) {
	sb.WriteString("\x1b[")
	sb.WriteString(strconv.Itoa(row))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(col))
	sb.WriteByte('H')
}

func writeSGR(sb *strings.Builder, c Color, bg bool) {
	sb.WriteString("\x1b[")
	switch c.Kind {
	case ColorRGB:
		if bg {
			sb.WriteString("48;2;")
		} else {
			sb.WriteString("38;2;")
		}
		sb.WriteString(strconv.Itoa(int(c.R)))
		sb.WriteByte(';')
		sb.WriteString(strconv.Itoa(int(c.G)))
		sb.WriteByte(';')
		sb.WriteString(strconv.Itoa(int(c.B)))
	case ColorPalette:
		sb.WriteString(termenv.ANSI256Color(c.Index).Sequence(bg))
	default:
		if bg {
			sb.WriteString("49")
		} else {
			sb.WriteString("39")
		}
	}
	sb.WriteByte('m')
}
