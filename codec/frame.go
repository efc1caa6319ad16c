package codec

import (
	"errors"
	"image"
	"image/color"
)

// ErrConversion is returned when a frame cannot be turned into a cell grid.
var ErrConversion = errors.New("conversion failed")

// Frame represents a raw RGB24 image (packed as [R G B], row-major).
type Frame struct {
	Data          []byte
	Width, Height int
}

// Valid reports whether the frame has a non-zero size and enough pixel data.
func (f Frame) Valid() bool {
	if f.Width <= 0 || f.Height <= 0 {
		return false
	}
	return len(f.Data) >= f.Width*f.Height*3
}

// RGB returns the pixel at (x, y) with coordinates clamped to the frame.
func (f Frame) RGB(x, y int) (r, g, b uint8) {
	x = clampInt(x, 0, f.Width-1)
	y = clampInt(y, 0, f.Height-1)
	i := (y*f.Width + x) * 3
	return f.Data[i], f.Data[i+1], f.Data[i+2]
}

// Image wraps the frame as an image.Image without copying the pixels.
func (f Frame) Image() image.Image {
	return frameImage{f}
}

// ImageRGBA copies the frame into a new *image.RGBA.
func (f Frame) ImageRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		src := f.Data[y*f.Width*3 : (y+1)*f.Width*3]
		dst := img.Pix[y*img.Stride : y*img.Stride+f.Width*4]
		for x := 0; x < f.Width; x++ {
			dst[x*4] = src[x*3]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 0xff
		}
	}
	return img
}

// FrameFromImage converts any image into an RGB24 frame.
func FrameFromImage(img image.Image) Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := Frame{Width: w, Height: h, Data: make([]byte, w*h*3)}
	idx := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			out.Data[idx] = c.R
			out.Data[idx+1] = c.G
			out.Data[idx+2] = c.B
			idx += 3
		}
	}
	return out
}

type frameImage struct {
	f Frame
}

func (fi frameImage) ColorModel() color.Model { return color.RGBAModel }

func (fi frameImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, fi.f.Width, fi.f.Height)
}

func (fi frameImage) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= fi.f.Width || y >= fi.f.Height {
		return color.RGBA{}
	}
	r, g, b := fi.f.RGB(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Geometry is the size of the terminal viewport in character cells.
type Geometry struct {
	Cols int
	Rows int
}

// Empty reports whether the geometry has no drawable area.
func (g Geometry) Empty() bool {
	return g.Cols <= 0 || g.Rows <= 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
