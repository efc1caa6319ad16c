package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/svanichkin/camterm/codec"
	"github.com/svanichkin/camterm/mediactrl"
)

func TestStatusOverlayOnBottomRow(t *testing.T) {
	grid := codec.NewCellGrid(20, 3)
	writeStatusOverlay(grid, "HELLO")
	for c := 0; c < grid.Cols; c++ {
		if grid.At(c, 2).Bg != overlayBg {
			t.Fatalf("col %d not painted", c)
		}
		if grid.At(c, 1).Bg.Kind != codec.ColorNone {
			t.Fatalf("row above overlay touched at col %d", c)
		}
	}
	var row strings.Builder
	for _, cell := range grid.Row(2) {
		row.WriteRune(cell.Rune)
	}
	if strings.TrimSpace(row.String()) != "HELLO" {
		t.Fatalf("row reads %q", row.String())
	}
}

func TestStatusOverlaySkipsSingleRow(t *testing.T) {
	grid := codec.NewCellGrid(10, 1)
	writeStatusOverlay(grid, "HELLO")
	if grid.At(0, 0).Bg.Kind != codec.ColorNone {
		t.Fatal("single-row grid should be left alone")
	}
}

func TestComposeStatusLabel(t *testing.T) {
	label := composeStatusLabel(mediactrl.State{Mode: codec.Mosaic, Frozen: true}, "12 FPS", codec.Geometry{Cols: 80, Rows: 24}, "saved x.png")
	for _, part := range []string{"MOSAIC", "12 FPS", "80×24", "FROZEN", "saved x.png"} {
		if !strings.Contains(label, part) {
			t.Fatalf("label %q missing %q", label, part)
		}
	}
	if !strings.Contains(composeStatusLabel(mediactrl.State{}, "0 FPS", codec.Geometry{}, ""), keyHint) {
		t.Fatal("empty message should show the key hint")
	}
}

func TestStatusMessageExpires(t *testing.T) {
	var s statusLine
	now := time.Now()
	s.set("  hi  ", now)
	if got := s.current(now.Add(time.Second)); got != "hi" {
		t.Fatalf("got %q", got)
	}
	if got := s.current(now.Add(statusMessageTTL + time.Millisecond)); got != "" {
		t.Fatalf("expired message still shown: %q", got)
	}
}

func TestFPSCounter(t *testing.T) {
	var fc fpsCounter
	start := time.Now()
	for i := 0; i <= 30; i++ {
		fc.recordFrame(start.Add(time.Duration(i) * time.Second / 30))
	}
	if fc.label() != "31 FPS" && fc.label() != "30 FPS" {
		t.Fatalf("got %q", fc.label())
	}
	if truncateRunes("abcdef", 4) != "abc…" {
		t.Fatal("truncateRunes")
	}
}

func TestFPSCounterStartsAtZero(t *testing.T) {
	var fc fpsCounter
	if got := fc.label(); got != "0 FPS" {
		t.Fatalf("fresh counter: got %q", got)
	}
	fc.recordFrame(time.Now())
	if got := fc.label(); got != "0 FPS" {
		t.Fatalf("before the first second: got %q", got)
	}
}
