package device

import (
	"context"
	"errors"
	"testing"
	"time"

	gocam "github.com/svanichkin/gocam"
)

func TestYUYVToFrame(t *testing.T) {
	// two pixel pairs: black/white with neutral chroma, then mid gray
	buf := []byte{
		0, 128, 255, 128,
		128, 128, 128, 128,
	}
	frame, err := yuyvToFrame(buf, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 0, 0, 255, 255, 255, 128, 128, 128, 128, 128, 128}
	for i := range want {
		if frame.Data[i] != want[i] {
			t.Fatalf("byte %d: got %d, want %d", i, frame.Data[i], want[i])
		}
	}
}

func TestYUYVRejectsShortBuffer(t *testing.T) {
	if _, err := yuyvToFrame(make([]byte, 7), 2, 2); err == nil {
		t.Fatal("expected error for short buffer")
	}
	if _, err := yuyvToFrame(make([]byte, 12), 3, 2); err == nil {
		t.Fatal("expected error for odd width")
	}
}

func TestLatestFrameDrainsBacklog(t *testing.T) {
	ch := make(chan int, 4)
	ch <- 2
	ch <- 3
	if got := latestFrame(ch, 1); got != 3 {
		t.Fatalf("got %d", got)
	}
	close(ch)
	if got := latestFrame(ch, 7); got != 7 {
		t.Fatalf("closed channel: got %d", got)
	}
}

func TestGocamSourceErrors(t *testing.T) {
	frames := make(chan gocam.Frame, 2)
	src := &gocamSource{cancel: func() {}, frames: frames, timeout: 20 * time.Millisecond}

	if _, err := src.NextFrame(context.Background()); !errors.Is(err, ErrCapture) {
		t.Fatalf("timeout: got %v", err)
	}

	frames <- gocam.Frame{}
	if _, err := src.NextFrame(context.Background()); !errors.Is(err, ErrCapture) {
		t.Fatalf("empty frame: got %v", err)
	}

	frames <- gocam.Frame{Width: 1, Height: 1, Data: []byte{1, 2, 3}}
	frames <- gocam.Frame{Width: 1, Height: 1, Data: []byte{4, 5, 6}}
	frame, err := src.NextFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if frame.Data[0] != 4 {
		t.Fatalf("expected newest frame, got %v", frame.Data)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.NextFrame(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled: got %v", err)
	}

	close(frames)
	if _, err := src.NextFrame(context.Background()); !errors.Is(err, ErrCapture) {
		t.Fatalf("closed: got %v", err)
	}
}

func TestOpenCameraRejectsBadIndex(t *testing.T) {
	if _, err := OpenCamera(CameraOptions{Index: -1}); !errors.Is(err, ErrDevice) {
		t.Fatalf("got %v", err)
	}
	if _, err := OpenCamera(CameraOptions{Backend: BackendGocam, Index: 2}); !errors.Is(err, ErrDevice) {
		t.Fatalf("got %v", err)
	}
}

func TestParseBackend(t *testing.T) {
	for in, want := range map[string]Backend{"": BackendAuto, "V4L2": BackendV4L2, "gocam": BackendGocam} {
		got, err := ParseBackend(in)
		if err != nil || got != want {
			t.Fatalf("ParseBackend(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseBackend("dshow"); err == nil {
		t.Fatal("expected error")
	}
}
