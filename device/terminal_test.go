package device

import (
	"strings"
	"testing"
)

func TestSyncOutputUsesPrivateMode2026(t *testing.T) {
	begin, end := BeginSyncOutput(), EndSyncOutput()
	if !supportsSyncOutput {
		if begin != "" || end != "" {
			t.Fatalf("got %q %q on a terminal without synchronized output", begin, end)
		}
		return
	}
	if begin != "\x1b[?2026h" || end != "\x1b[?2026l" {
		t.Fatalf("got %q %q", begin, end)
	}
}

func TestExitAltScreenEndsSyncOutput(t *testing.T) {
	seq := exitAltScreen()
	if supportsSyncOutput && !strings.HasPrefix(seq, "\x1b[?2026l") {
		t.Fatalf("exit sequence %q does not end synchronized output first", seq)
	}
	if !strings.HasSuffix(seq, "\x1b[?1049l") {
		t.Fatalf("exit sequence %q does not leave the alternate screen", seq)
	}
}
