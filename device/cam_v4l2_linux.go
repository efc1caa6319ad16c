//go:build linux

package device

import (
	"context"
	"fmt"
	"strings"

	"github.com/blackjack/webcam"

	"github.com/svanichkin/camterm/codec"
	"github.com/svanichkin/camterm/logs"
)

const v4l2Buffers = 2

type v4l2Source struct {
	cam           *webcam.Webcam
	width, height int
	timeout       uint32
}

// openV4L2 opens /dev/video<index>, negotiates YUYV at the requested size
// and starts streaming.
func openV4L2(opts CameraOptions) (*v4l2Source, error) {
	path := fmt.Sprintf("/dev/video%d", opts.Index)
	cam, err := webcam.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDevice, path, err)
	}

	var (
		format webcam.PixelFormat
		found  bool
	)
	for f, desc := range cam.GetSupportedFormats() {
		if strings.Contains(desc, "YUYV") {
			format, found = f, true
			break
		}
	}
	if !found {
		cam.Close()
		return nil, fmt.Errorf("%w: %s offers no YUYV format", ErrDevice, path)
	}

	_, w, h, err := cam.SetImageFormat(format, uint32(opts.Width), uint32(opts.Height))
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("%w: set format on %s: %v", ErrDevice, path, err)
	}
	// a short ring keeps the driver from holding a backlog of stale frames
	if err := cam.SetBufferCount(v4l2Buffers); err != nil {
		logs.LogV("[cam] %s: buffer count: %v", path, err)
	}
	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("%w: start streaming on %s: %v", ErrDevice, path, err)
	}
	logs.LogV("[cam] %s streaming YUYV %dx%d", path, w, h)

	timeout := uint32(opts.FrameTimeout.Seconds())
	if timeout == 0 {
		timeout = 1
	}
	return &v4l2Source{cam: cam, width: int(w), height: int(h), timeout: timeout}, nil
}

func (s *v4l2Source) NextFrame(ctx context.Context) (codec.Frame, error) {
	if err := ctx.Err(); err != nil {
		return codec.Frame{}, err
	}
	buf, err := readLatest(s.cam, s.timeout)
	switch err.(type) {
	case nil:
	case *webcam.Timeout:
		return codec.Frame{}, fmt.Errorf("%w: %v", ErrCapture, err)
	default:
		return codec.Frame{}, fmt.Errorf("%w: read frame: %v", ErrCapture, err)
	}
	if len(buf) == 0 {
		return codec.Frame{}, fmt.Errorf("%w: empty frame", ErrCapture)
	}
	frame, err := yuyvToFrame(buf, s.width, s.height)
	if err != nil {
		return codec.Frame{}, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return frame, nil
}

func (s *v4l2Source) Close() error {
	_ = s.cam.StopStreaming()
	return s.cam.Close()
}
