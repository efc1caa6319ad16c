package device

import (
	"fmt"

	"github.com/svanichkin/camterm/codec"
)

// yuyvToFrame converts a packed YUYV 4:2:2 buffer (Y0 U Y1 V per pixel pair)
// into an RGB24 frame.
func yuyvToFrame(buf []byte, width, height int) (codec.Frame, error) {
	if width <= 0 || height <= 0 || width%2 != 0 {
		return codec.Frame{}, fmt.Errorf("bad yuyv size %dx%d", width, height)
	}
	if len(buf) < width*height*2 {
		return codec.Frame{}, fmt.Errorf("short yuyv frame: %d bytes for %dx%d", len(buf), width, height)
	}
	out := codec.Frame{Width: width, Height: height, Data: make([]byte, width*height*3)}
	dst := 0
	for i := 0; i+3 < width*height*2; i += 4 {
		y0, u, y1, v := buf[i], buf[i+1], buf[i+2], buf[i+3]
		r, g, b := ycbcrToRGB(y0, u, v)
		out.Data[dst], out.Data[dst+1], out.Data[dst+2] = r, g, b
		r, g, b = ycbcrToRGB(y1, u, v)
		out.Data[dst+3], out.Data[dst+4], out.Data[dst+5] = r, g, b
		dst += 6
	}
	return out, nil
}

func ycbcrToRGB(y, cb, cr byte) (byte, byte, byte) {
	Y := float64(y)
	Cb := float64(cb) - 128.0
	Cr := float64(cr) - 128.0
	r := clampColor(Y + 1.402*Cr)
	g := clampColor(Y - 0.344136*Cb - 0.714136*Cr)
	b := clampColor(Y + 1.772*Cb)
	return r, g, b
}

func clampColor(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}
