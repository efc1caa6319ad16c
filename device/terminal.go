package device

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/svanichkin/camterm/codec"
)

// Terminal drives the controlling terminal: raw mode, alternate screen,
// geometry queries and full-frame output.
type Terminal struct {
	in  *os.File
	out io.Writer
	fd  int

	mu      sync.Mutex
	state   *term.State
	entered bool
	last    codec.Geometry
	sb      strings.Builder
}

// NewTerminal returns a Terminal bound to stdin and stdout.
func NewTerminal() *Terminal {
	return &Terminal{in: os.Stdin, out: os.Stdout, fd: int(os.Stdout.Fd())}
}

// ColorProfile detects the color capability of the environment once.
func ColorProfile() termenv.Profile {
	return termenv.EnvColorProfile()
}

// Enter switches stdin to raw mode and shows the alternate screen.
func (t *Terminal) Enter() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entered {
		return nil
	}
	inFD := int(t.in.Fd())
	if !term.IsTerminal(inFD) || !term.IsTerminal(t.fd) {
		return fmt.Errorf("%w: stdio is not a TTY", ErrTerminal)
	}
	state, err := term.MakeRaw(inFD)
	if err != nil {
		return fmt.Errorf("%w: raw mode: %v", ErrTerminal, err)
	}
	t.state = state
	t.entered = true
	t.last = codec.Geometry{}
	io.WriteString(t.out, enterAltScreen())
	return nil
}

// Leave restores the terminal. It is safe to call more than once and on
// every exit path.
func (t *Terminal) Leave() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.entered {
		return nil
	}
	t.entered = false
	io.WriteString(t.out, exitAltScreen())
	if err := term.Restore(int(t.in.Fd()), t.state); err != nil {
		return fmt.Errorf("%w: restore: %v", ErrTerminal, err)
	}
	return nil
}

// Geometry queries the current terminal size in character cells.
func (t *Terminal) Geometry() (codec.Geometry, error) {
	cols, rows, err := term.GetSize(t.fd)
	if err != nil {
		return codec.Geometry{}, fmt.Errorf("%w: get size: %v", ErrTerminal, err)
	}
	return codec.Geometry{Cols: cols, Rows: rows}, nil
}

// WriteGrid paints grid over the whole screen. The screen is cleared first
// whenever the grid size differs from the previous one.
func (t *Terminal) WriteGrid(grid *codec.CellGrid) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sb.Reset()
	t.sb.WriteString(BeginSyncOutput())
	if geo := grid.Geometry(); geo != t.last {
		t.sb.WriteString("\x1b[0m\x1b[2J")
		t.last = geo
	}
	grid.AppendANSI(&t.sb)
	t.sb.WriteString(EndSyncOutput())
	if _, err := io.WriteString(t.out, t.sb.String()); err != nil {
		return fmt.Errorf("%w: write: %v", ErrTerminal, err)
	}
	return nil
}

// Keys returns the raw input stream.
func (t *Terminal) Keys() io.Reader {
	return t.in
}

// BeginSyncOutput returns the synchronized output start sequence (mode 2026)
// on terminals that support it.
func BeginSyncOutput() string {
	if supportsSyncOutput {
		return "\x1b[?2026h"
	}
	return ""
}

// EndSyncOutput returns the synchronized output end sequence.
func EndSyncOutput() string {
	if supportsSyncOutput {
		return "\x1b[?2026l"
	}
	return ""
}

func enterAltScreen() string {
	return "\x1b[?1049h\x1b[?25l\x1b[?7l\x1b[3J\x1b[H"
}

func exitAltScreen() string {
	seq := ""
	if supportsSyncOutput {
		seq += "\x1b[?2026l"
	}
	seq += "\x1b[0m\x1b[?7h\x1b[?25h\x1b[?1049l"
	return seq
}
