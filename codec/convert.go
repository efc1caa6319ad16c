package codec

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// DefaultCellAspect is the assumed height/width ratio of a terminal cell.
const DefaultCellAspect = 2.0

const (
	fullBlock  = '█'
	upperBlock = '▀'
)

// AsciiRamp orders glyphs from sparsest to densest.
var AsciiRamp = []rune(" .,:-=+*#%@")

// Fit controls how the frame is placed inside the viewport.
type Fit int

const (
	// FitFill center-crops the frame so it covers every cell.
	FitFill Fit = iota
	// FitLetterbox shows the whole frame and leaves blank bars.
	FitLetterbox
)

// ConverterOptions tunes a Converter. Zero values select the defaults.
type ConverterOptions struct {
	CellAspect float64
	Smooth     bool
	Mirror     bool
	Fit        Fit
	// Tint, when set, colors GrayscaleAscii glyphs with a fixed foreground.
	Tint Color
}

// Converter turns raw frames into cell grids. It holds no per-frame state,
// so one Converter can be shared between goroutines.
type Converter struct {
	opts ConverterOptions
}

// NewConverter returns a Converter with opts, filling in defaults.
func NewConverter(opts ConverterOptions) *Converter {
	if opts.CellAspect <= 0 || math.IsNaN(opts.CellAspect) || math.IsInf(opts.CellAspect, 0) {
		opts.CellAspect = DefaultCellAspect
	}
	return &Converter{opts: opts}
}

// Options returns the effective options.
func (c *Converter) Options() ConverterOptions {
	return c.opts
}

// DefaultConverter uses nearest-neighbor sampling, fill placement and a 2:1 cell.
var DefaultConverter = NewConverter(ConverterOptions{})

// Convert renders frame with DefaultConverter.
func Convert(frame Frame, geo Geometry, mode Mode) (*CellGrid, error) {
	return DefaultConverter.Convert(frame, geo, mode)
}

// Convert maps frame onto a grid of exactly geo.Cols x geo.Rows cells using
// mode. A zero-area geometry yields an empty grid. A degenerate frame fails
// with ErrConversion.
func (c *Converter) Convert(frame Frame, geo Geometry, mode Mode) (*CellGrid, error) {
	if geo.Empty() {
		return &CellGrid{}, nil
	}
	if !frame.Valid() {
		return nil, fmt.Errorf("%w: degenerate frame %dx%d (%d bytes)", ErrConversion, frame.Width, frame.Height, len(frame.Data))
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrConversion, mode)
	}

	grid := NewCellGrid(geo.Cols, geo.Rows)
	src, area := c.layout(frame, geo)
	sw, sh := mode.subsamples()
	outW, outH := area.Dx()*sw, area.Dy()*sh
	samples := c.sample(frame, src, outW, outH)

	var cache paletteCache
	if mode == PaletteColorBlocks {
		cache = make(paletteCache)
	}
	var block [mosaicW * mosaicH]uint32

	for row := 0; row < area.Dy(); row++ {
		for col := 0; col < area.Dx(); col++ {
			cell := grid.At(area.Min.X+col, area.Min.Y+row)
			switch mode {
			case HalfBlocks:
				top := samples[(row*2)*outW+col]
				bottom := samples[(row*2+1)*outW+col]
				*cell = Cell{Rune: upperBlock, Fg: packedColor(top), Bg: packedColor(bottom)}
			case Mosaic:
				i := 0
				for y := 0; y < mosaicH; y++ {
					base := (row*mosaicH+y)*outW + col*mosaicW
					for x := 0; x < mosaicW; x++ {
						block[i] = samples[base+x]
						i++
					}
				}
				*cell = mosaicCell(&block)
			default:
				*cell = c.mapPixel(mode, samples[row*outW+col], cache)
			}
		}
	}
	return grid, nil
}

// mapPixel applies the single-sample rule of mode.
func (c *Converter) mapPixel(mode Mode, rgb uint32, cache paletteCache) Cell {
	r, g, b := uint8(rgb>>16), uint8(rgb>>8), uint8(rgb)
	switch mode {
	case TrueColorBlocks:
		col := RGB(r, g, b)
		return Cell{Rune: fullBlock, Fg: col, Bg: col}
	case PaletteColorBlocks:
		col := PaletteColor(cache.lookup(r, g, b))
		return Cell{Rune: fullBlock, Fg: col, Bg: col}
	case GrayscaleAscii:
		return Cell{Rune: RampGlyph(Luminance(r, g, b)), Fg: c.opts.Tint}
	case ColorAscii:
		return Cell{Rune: RampGlyph(Luminance(r, g, b)), Fg: RGB(r, g, b)}
	case Invert:
		r, g, b = 255-r, 255-g, 255-b
		return Cell{Rune: RampGlyph(Luminance(r, g, b)), Fg: RGB(r, g, b)}
	}
	return Cell{Rune: ' '}
}

// Luminance returns the Rec. 601 luma of an RGB triple, rounded.
func Luminance(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b) + 500) / 1000)
}

// RampGlyph maps a luminance to AsciiRamp, brighter values to denser glyphs.
func RampGlyph(lum uint8) rune {
	return AsciiRamp[RampIndex(lum, len(AsciiRamp))]
}

// RampIndex returns the bucket of lum in a ramp of n glyphs.
func RampIndex(lum uint8, n int) int {
	if n <= 1 {
		return 0
	}
	return (int(lum)*(n-1) + 127) / 255
}

// layout returns the source rectangle to sample and the cell area to fill.
func (c *Converter) layout(frame Frame, geo Geometry) (src, area image.Rectangle) {
	src = image.Rect(0, 0, frame.Width, frame.Height)
	area = image.Rect(0, 0, geo.Cols, geo.Rows)

	// viewport aspect in square-pixel units: a cell is CellAspect times taller than wide
	viewAspect := float64(geo.Cols) / (float64(geo.Rows) * c.opts.CellAspect)
	frameAspect := float64(frame.Width) / float64(frame.Height)

	switch c.opts.Fit {
	case FitLetterbox:
		cols, rows := geo.Cols, geo.Rows
		if frameAspect > viewAspect {
			rows = clampInt(int(math.Round(float64(geo.Cols)/(frameAspect*c.opts.CellAspect))), 1, geo.Rows)
		} else {
			cols = clampInt(int(math.Round(float64(geo.Rows)*c.opts.CellAspect*frameAspect)), 1, geo.Cols)
		}
		x0 := (geo.Cols - cols) / 2
		y0 := (geo.Rows - rows) / 2
		area = image.Rect(x0, y0, x0+cols, y0+rows)
	default:
		cropW, cropH := frame.Width, frame.Height
		if frameAspect > viewAspect {
			cropW = clampInt(int(math.Round(float64(frame.Height)*viewAspect)), 1, frame.Width)
		} else if frameAspect < viewAspect {
			cropH = clampInt(int(math.Round(float64(frame.Width)/viewAspect)), 1, frame.Height)
		}
		x0 := (frame.Width - cropW) / 2
		y0 := (frame.Height - cropH) / 2
		src = image.Rect(x0, y0, x0+cropW, y0+cropH)
	}
	return src, area
}

// sample resamples the src region of frame to outW x outH packed RGB values.
func (c *Converter) sample(frame Frame, src image.Rectangle, outW, outH int) []uint32 {
	out := make([]uint32, outW*outH)
	if outW <= 0 || outH <= 0 {
		return out
	}
	if c.opts.Smooth {
		dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame.Image(), src, draw.Src, nil)
		for y := 0; y < outH; y++ {
			for x := 0; x < outW; x++ {
				sx := x
				if c.opts.Mirror {
					sx = outW - 1 - x
				}
				p := dst.Pix[y*dst.Stride+sx*4:]
				out[y*outW+x] = packRGB(p[0], p[1], p[2])
			}
		}
		return out
	}

	srcW, srcH := src.Dx(), src.Dy()
	xs := make([]int, outW)
	for x := 0; x < outW; x++ {
		// sample at the center of each target column
		off := (2*x + 1) * srcW / (2 * outW)
		if c.opts.Mirror {
			off = srcW - 1 - off
		}
		xs[x] = clampInt(src.Min.X+off, 0, frame.Width-1)
	}
	for y := 0; y < outH; y++ {
		sy := clampInt(src.Min.Y+(2*y+1)*srcH/(2*outH), 0, frame.Height-1)
		row := frame.Data[sy*frame.Width*3:]
		for x := 0; x < outW; x++ {
			i := xs[x] * 3
			out[y*outW+x] = packRGB(row[i], row[i+1], row[i+2])
		}
	}
	return out
}
