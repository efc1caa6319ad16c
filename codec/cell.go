package codec

// ColorKind tells how a Color should be emitted.
type ColorKind uint8

const (
	ColorNone ColorKind = iota
	ColorPalette
	ColorRGB
)

// Color is either unset, an xterm-256 palette index, or a 24-bit triple.
type Color struct {
	Kind    ColorKind
	Index   uint8
	R, G, B uint8
}

// RGB returns a truecolor Color.
func RGB(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, R: r, G: g, B: b}
}

// PaletteColor returns a palette Color for the xterm-256 index idx.
func PaletteColor(idx uint8) Color {
	return Color{Kind: ColorPalette, Index: idx}
}

// Cell is a single terminal character cell.
type Cell struct {
	Rune rune
	Fg   Color
	Bg   Color
}

// CellGrid holds Rows*Cols cells in row-major order.
type CellGrid struct {
	Cols  int
	Rows  int
	Cells []Cell
}

// NewCellGrid allocates a grid of blank cells.
func NewCellGrid(cols, rows int) *CellGrid {
	if cols <= 0 || rows <= 0 {
		return &CellGrid{}
	}
	g := &CellGrid{Cols: cols, Rows: rows, Cells: make([]Cell, cols*rows)}
	for i := range g.Cells {
		g.Cells[i].Rune = ' '
	}
	return g
}

// Empty reports whether the grid holds no cells.
func (g *CellGrid) Empty() bool {
	return g == nil || g.Cols <= 0 || g.Rows <= 0
}

// Geometry returns the grid dimensions.
func (g *CellGrid) Geometry() Geometry {
	if g == nil {
		return Geometry{}
	}
	return Geometry{Cols: g.Cols, Rows: g.Rows}
}

// At returns a pointer to the cell at column c, row r.
func (g *CellGrid) At(c, r int) *Cell {
	return &g.Cells[r*g.Cols+c]
}

// Row returns the cells of row r.
func (g *CellGrid) Row(r int) []Cell {
	return g.Cells[r*g.Cols : (r+1)*g.Cols]
}

// PutText writes s into row r starting at column c, clipping at the right
// edge. Colors are applied to every written cell.
func (g *CellGrid) PutText(c, r int, s string, fg, bg Color) {
	if g.Empty() || r < 0 || r >= g.Rows {
		return
	}
	for _, rn := range s {
		if c >= g.Cols {
			return
		}
		if c >= 0 {
			cell := g.At(c, r)
			cell.Rune = rn
			cell.Fg = fg
			cell.Bg = bg
		}
		c++
	}
}
