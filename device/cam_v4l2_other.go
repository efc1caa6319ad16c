//go:build !linux

package device

import (
	"context"
	"fmt"

	"github.com/svanichkin/camterm/codec"
)

type v4l2Source struct{}

func openV4L2(CameraOptions) (*v4l2Source, error) {
	return nil, fmt.Errorf("%w: v4l2 backend is only available on linux", ErrDevice)
}

func (*v4l2Source) NextFrame(context.Context) (codec.Frame, error) {
	return codec.Frame{}, ErrCapture
}

func (*v4l2Source) Close() error { return nil }
