package snapshot

import (
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/svanichkin/camterm/codec"
)

// ErrIO reports a snapshot that could not be written.
var ErrIO = errors.New("snapshot i/o error")

// Format is an output encoding, named by its file extension.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
	FormatRaw  Format = "rgbz"
)

// ParseFormat normalizes a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "rgbz", "raw":
		return FormatRaw, nil
	default:
		return "", fmt.Errorf("unsupported snapshot format %q", s)
	}
}

func formatForPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no file extension", ErrIO, path)
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIO, err)
	}
	return f, nil
}

const jpegQuality = 90

// Writer names and encodes snapshot files inside Dir.
type Writer struct {
	Dir    string
	Format Format

	mu  sync.Mutex
	seq int
}

// NewWriter returns a Writer for dir using format.
func NewWriter(dir string, format Format) *Writer {
	if format == "" {
		format = FormatPNG
	}
	return &Writer{Dir: dir, Format: format}
}

// NextPath returns a fresh file name stamped with now and a sequence number.
func (w *Writer) NextPath(now time.Time) string {
	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.mu.Unlock()
	name := fmt.Sprintf("snapshot-%s-%04d.%s", now.Format("20060102-150405.000"), seq, w.Format)
	return filepath.Join(w.Dir, name)
}

// SaveNext writes frame under a new name in Dir and returns the path.
func (w *Writer) SaveNext(frame codec.Frame) (string, error) {
	path := w.NextPath(time.Now())
	return path, Save(frame, path)
}

// Save encodes frame in the format implied by the extension of path. The file
// is written to a temporary name first and renamed on success.
func Save(frame codec.Frame, path string) error {
	if !frame.Valid() {
		return fmt.Errorf("%w: degenerate frame %dx%d", ErrIO, frame.Width, frame.Height)
	}
	format, err := formatForPath(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := encode(tmp, frame, format); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: encode %s: %v", ErrIO, format, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func encode(w io.Writer, frame codec.Frame, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, frame.ImageRGBA())
	case FormatJPEG:
		return jpeg.Encode(w, frame.ImageRGBA(), &jpeg.Options{Quality: jpegQuality})
	case FormatRaw:
		return WriteRaw(w, frame)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
