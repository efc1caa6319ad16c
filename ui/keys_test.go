package ui

import (
	"context"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/svanichkin/camterm/codec"
)

func TestParseKeys(t *testing.T) {
	keys := DefaultKeymap()
	cases := []struct {
		in   string
		want []Command
	}{
		{"1", []Command{SelectMode(codec.TrueColorBlocks)}},
		{"2m\t", []Command{SelectMode(codec.PaletteColorBlocks), {Kind: CmdNextMode}, {Kind: CmdNextMode}}},
		{"s ", []Command{{Kind: CmdSnapshot}, {Kind: CmdToggleFreeze}}},
		{"\x1b[A\x1b[1;5Cq", []Command{{Kind: CmdQuit}}},
		{"\x1bOPx", nil},
		{"\x1bx3", []Command{SelectMode(codec.GrayscaleAscii)}},
		{"\x03", []Command{{Kind: CmdQuit}}},
		{"zz", nil},
	}
	for _, tc := range cases {
		got, rest := parseKeys([]byte(tc.in), keys)
		if !reflect.DeepEqual(got, tc.want) || rest != nil {
			t.Fatalf("%q: got %v rest %q, want %v", tc.in, got, rest, tc.want)
		}
	}
}

func TestParseKeysHoldsIncompleteEscape(t *testing.T) {
	keys := DefaultKeymap()
	cases := []struct {
		in   string
		want []Command
		rest string
	}{
		{"\x1b", nil, "\x1b"},
		{"s\x1b", []Command{{Kind: CmdSnapshot}}, "\x1b"},
		{"m\x1b[1;", []Command{{Kind: CmdNextMode}}, "\x1b[1;"},
		{"\x1bO", nil, "\x1bO"},
	}
	for _, tc := range cases {
		got, rest := parseKeys([]byte(tc.in), keys)
		if !reflect.DeepEqual(got, tc.want) || string(rest) != tc.rest {
			t.Fatalf("%q: got %v rest %q, want %v rest %q", tc.in, got, rest, tc.want, tc.rest)
		}
	}
}

func TestFlushEscape(t *testing.T) {
	if got := flushEscape([]byte{keyEsc}); !reflect.DeepEqual(got, []Command{{Kind: CmdQuit}}) {
		t.Fatalf("lone esc: got %v", got)
	}
	if got := flushEscape([]byte("\x1b[1")); got != nil {
		t.Fatalf("truncated sequence: got %v", got)
	}
}

func TestDefaultKeymapCoversModes(t *testing.T) {
	keys := DefaultKeymap()
	for i, m := range codec.Modes() {
		cmd, ok := keys[byte('1'+i)]
		if !ok || cmd != SelectMode(m) {
			t.Fatalf("key %c: got %v", '1'+i, cmd)
		}
	}
}

func collect(t *testing.T, ch <-chan Command) []Command {
	t.Helper()
	var got []Command
	timeout := time.After(5 * time.Second)
	for {
		select {
		case cmd, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, cmd)
		case <-timeout:
			t.Fatal("listener did not close its channel")
			return nil
		}
	}
}

func TestListenStopsAfterQuit(t *testing.T) {
	got := collect(t, Listen(context.Background(), strings.NewReader("1sq2"), nil))
	want := []Command{SelectMode(codec.TrueColorBlocks), {Kind: CmdSnapshot}, {Kind: CmdQuit}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestListenClosesOnEOF(t *testing.T) {
	got := collect(t, Listen(context.Background(), strings.NewReader("m"), nil))
	if len(got) != 1 || got[0].Kind != CmdNextMode {
		t.Fatalf("got %v", got)
	}
}

func TestListenDeliversSnapshotsUnderLoad(t *testing.T) {
	input := strings.Repeat("s", commandBuffer*3)
	got := collect(t, Listen(context.Background(), strings.NewReader(input), nil))
	if len(got) != commandBuffer*3 {
		t.Fatalf("got %d snapshot commands, want %d", len(got), commandBuffer*3)
	}
}

func withEscapeTimeout(t *testing.T, d time.Duration) {
	t.Helper()
	prev := escapeTimeout
	escapeTimeout = d
	t.Cleanup(func() { escapeTimeout = prev })
}

func TestListenJoinsEscapeSplitAcrossReads(t *testing.T) {
	withEscapeTimeout(t, 5*time.Second)
	r, w := io.Pipe()
	ch := Listen(context.Background(), r, nil)
	go func() {
		for _, chunk := range []string{"\x1b", "[A", "m"} {
			if _, err := w.Write([]byte(chunk)); err != nil {
				return
			}
		}
		w.Close()
	}()
	got := collect(t, ch)
	want := []Command{{Kind: CmdNextMode}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestListenLoneEscapeQuitsAfterTimeout(t *testing.T) {
	withEscapeTimeout(t, 10*time.Millisecond)
	r, w := io.Pipe()
	defer w.Close()
	ch := Listen(context.Background(), r, nil)
	if _, err := w.Write([]byte{keyEsc}); err != nil {
		t.Fatal(err)
	}
	got := collect(t, ch)
	want := []Command{{Kind: CmdQuit}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestListenLoneEscapeQuitsOnEOF(t *testing.T) {
	withEscapeTimeout(t, 5*time.Second)
	got := collect(t, Listen(context.Background(), strings.NewReader("1\x1b"), nil))
	want := []Command{SelectMode(codec.TrueColorBlocks), {Kind: CmdQuit}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
