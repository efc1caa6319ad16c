package device

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	gocam "github.com/svanichkin/gocam"

	"github.com/svanichkin/camterm/codec"
	"github.com/svanichkin/camterm/logs"
)

// FrameSource is a pull-based producer of raw frames. NextFrame is not
// reentrant: a source has exactly one consumer.
type FrameSource interface {
	// NextFrame blocks until the next frame is available. Acquisition
	// failures wrap ErrCapture; a canceled ctx returns ctx.Err().
	NextFrame(ctx context.Context) (codec.Frame, error)
	// Close releases the device.
	Close() error
}

// Backend names a capture implementation.
type Backend string

const (
	BackendAuto  Backend = "auto"
	BackendGocam Backend = "gocam"
	BackendV4L2  Backend = "v4l2"
)

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendGocam, BackendV4L2:
		return b, nil
	default:
		return "", fmt.Errorf("unknown capture backend %q", s)
	}
}

// CameraOptions selects and configures the capture device.
type CameraOptions struct {
	Backend Backend
	Index   int
	// Width and Height are the requested capture size (v4l2 only).
	Width  int
	Height int
	// FrameTimeout bounds a single NextFrame call.
	FrameTimeout time.Duration
}

const (
	defaultCaptureWidth  = 640
	defaultCaptureHeight = 480
	defaultFrameTimeout  = 2 * time.Second
)

func (o CameraOptions) withDefaults() CameraOptions {
	if o.Backend == "" {
		o.Backend = BackendAuto
	}
	if o.Width <= 0 {
		o.Width = defaultCaptureWidth
	}
	if o.Height <= 0 {
		o.Height = defaultCaptureHeight
	}
	if o.FrameTimeout <= 0 {
		o.FrameTimeout = defaultFrameTimeout
	}
	return o
}

// OpenCamera opens the capture device described by opts. Failures wrap ErrDevice.
func OpenCamera(opts CameraOptions) (FrameSource, error) {
	opts = opts.withDefaults()
	if opts.Index < 0 {
		return nil, fmt.Errorf("%w: invalid device index %d", ErrDevice, opts.Index)
	}
	backend := opts.Backend
	if backend == BackendAuto {
		backend = BackendGocam
		if runtime.GOOS == "linux" {
			backend = BackendV4L2
		}
	}
	logs.LogV("[cam] opening device %d via %s", opts.Index, backend)
	switch backend {
	case BackendV4L2:
		src, err := openV4L2(opts)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		src, err := openGocam(opts)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

type gocamSource struct {
	cancel  context.CancelFunc
	frames  <-chan gocam.Frame
	timeout time.Duration
}

// openGocam starts the platform camera stream. gocam only addresses the
// system default camera.
func openGocam(opts CameraOptions) (*gocamSource, error) {
	if opts.Index != 0 {
		return nil, fmt.Errorf("%w: gocam backend only supports device 0, got %d", ErrDevice, opts.Index)
	}
	ctx, cancel := context.WithCancel(context.Background())
	frames, err := gocam.StartStream(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: camera start: %v", ErrDevice, err)
	}
	return &gocamSource{cancel: cancel, frames: frames, timeout: opts.FrameTimeout}, nil
}

func (s *gocamSource) NextFrame(ctx context.Context) (codec.Frame, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return codec.Frame{}, ctx.Err()
	case <-timer.C:
		return codec.Frame{}, fmt.Errorf("%w: no frame within %s", ErrCapture, s.timeout)
	case f, ok := <-s.frames:
		if !ok {
			return codec.Frame{}, fmt.Errorf("%w: camera stream closed", ErrCapture)
		}
		f = latestFrame(s.frames, f)
		// gocam may reuse its buffer for the next frame
		frame := codec.Frame{Data: append([]byte(nil), f.Data...), Width: f.Width, Height: f.Height}
		if !frame.Valid() {
			return codec.Frame{}, fmt.Errorf("%w: empty frame %dx%d", ErrCapture, f.Width, f.Height)
		}
		return frame, nil
	}
}

func (s *gocamSource) Close() error {
	s.cancel()
	return nil
}

// latestFrame drains frames queued behind f so a slow consumer always gets
// the newest one instead of working through a backlog.
func latestFrame[T any](ch <-chan T, f T) T {
	for {
		select {
		case next, ok := <-ch:
			if !ok {
				return f
			}
			f = next
		default:
			return f
		}
	}
}
