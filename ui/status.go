package ui

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/svanichkin/camterm/codec"
	"github.com/svanichkin/camterm/mediactrl"
)

const (
	statusMessageTTL = 3 * time.Second
	keyHint          = "1-7 mode  m next  s snap  space freeze  q quit"
)

var (
	overlayBg = codec.RGB(20, 20, 24)
	overlayFg = codec.RGB(245, 245, 245)
)

type fpsCounter struct {
	lastTick time.Time
	frames   int
	display  string
}

func (fc *fpsCounter) recordFrame(now time.Time) {
	if fc == nil {
		return
	}
	if fc.display == "" {
		fc.display = "0"
	}
	if fc.lastTick.IsZero() {
		fc.lastTick = now
	}
	fc.frames++
	elapsed := now.Sub(fc.lastTick)
	if elapsed >= time.Second {
		fps := int(float64(fc.frames) / elapsed.Seconds())
		if fps < 0 {
			fps = 0
		}
		fc.display = strconv.Itoa(fps)
		fc.frames = 0
		fc.lastTick = now
	}
}

func (fc *fpsCounter) label() string {
	if fc.display == "" {
		return "0 FPS"
	}
	return fc.display + " FPS"
}

// statusLine holds a transient message shown in the overlay until it expires.
type statusLine struct {
	mu      sync.RWMutex
	message string
	expires time.Time
}

func (s *statusLine) set(msg string, now time.Time) {
	s.mu.Lock()
	s.message = strings.TrimSpace(msg)
	s.expires = now.Add(statusMessageTTL)
	s.mu.Unlock()
}

func (s *statusLine) current(now time.Time) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.message == "" || now.After(s.expires) {
		return ""
	}
	return s.message
}

func composeStatusLabel(state mediactrl.State, fps string, geo codec.Geometry, message string) string {
	parts := []string{
		strings.ToUpper(state.Mode.String()),
		fps,
		fmt.Sprintf("%d×%d", geo.Cols, geo.Rows),
	}
	if state.Frozen {
		parts = append(parts, "FROZEN")
	}
	if message != "" {
		parts = append(parts, message)
	} else {
		parts = append(parts, keyHint)
	}
	return strings.Join(parts, " │ ")
}

// writeStatusOverlay paints label centered on the bottom row. Grids with a
// single row are left untouched so the image is never fully covered.
func writeStatusOverlay(grid *codec.CellGrid, label string) {
	if grid.Empty() || grid.Rows < 2 || label == "" {
		return
	}
	label = truncateRunes(label, grid.Cols)
	width := runeCount(label)
	leftPad := (grid.Cols - width) / 2
	row := grid.Rows - 1
	line := strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", grid.Cols-width-leftPad)
	grid.PutText(0, row, line, overlayFg, overlayBg)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit == 1 {
		return string(runes[:1])
	}
	return string(runes[:limit-1]) + "…"
}

func runeCount(s string) int {
	return len([]rune(s))
}
