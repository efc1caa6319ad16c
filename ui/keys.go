package ui

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/svanichkin/camterm/codec"
	"github.com/svanichkin/camterm/logs"
)

const (
	keyEsc   = 0x1b
	keyCtrlC = 0x03
	keyCtrlD = 0x04
	keyTab   = '\t'

	commandBuffer = 16
)

// Keymap binds single input bytes to commands. A lone Esc always quits once
// escapeTimeout passes without the rest of an escape sequence.
type Keymap map[byte]Command

// DefaultKeymap binds 1..N to the render modes in order, m/Tab to the next
// mode, s to snapshot, space to freeze and q/Ctrl-C/Ctrl-D to quit.
func DefaultKeymap() Keymap {
	keys := Keymap{
		'm':      {Kind: CmdNextMode},
		keyTab:   {Kind: CmdNextMode},
		's':      {Kind: CmdSnapshot},
		'S':      {Kind: CmdSnapshot},
		' ':      {Kind: CmdToggleFreeze},
		'q':      {Kind: CmdQuit},
		'Q':      {Kind: CmdQuit},
		keyCtrlC: {Kind: CmdQuit},
		keyCtrlD: {Kind: CmdQuit},
	}
	for i, m := range codec.Modes() {
		if i >= 9 {
			break
		}
		keys[byte('1'+i)] = SelectMode(m)
	}
	return keys
}

// escapeTimeout is how long a trailing Esc waits for the rest of an escape
// sequence before it counts as a key press.
var escapeTimeout = 50 * time.Millisecond

type readChunk struct {
	data []byte
	err  error
}

// Listen reads raw key bytes from r and emits commands in input order. It
// stops after a quit command, on a read error, or when ctx is done, and then
// closes the returned channel. Listen never waits on the consumer for mode
// selections; quit and snapshot requests are always delivered.
func Listen(ctx context.Context, r io.Reader, keys Keymap) <-chan Command {
	if keys == nil {
		keys = DefaultKeymap()
	}
	out := make(chan Command, commandBuffer)
	reads := make(chan readChunk)
	stop := make(chan struct{})
	go func() {
		for {
			buf := make([]byte, 256)
			n, err := r.Read(buf)
			select {
			case reads <- readChunk{data: buf[:n], err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	go func() {
		defer close(out)
		defer close(stop)
		var (
			pending []byte
			escWait <-chan time.Time
		)
		emit := func(cmds []Command) bool {
			for _, cmd := range cmds {
				if !deliver(ctx, out, cmd) || cmd.Kind == CmdQuit {
					return false
				}
			}
			return true
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-escWait:
				escWait = nil
				emit(flushEscape(pending))
				return
			case chunk := <-reads:
				escWait = nil
				cmds, rest := parseKeys(append(pending, chunk.data...), keys)
				pending = rest
				if chunk.err != nil {
					cmds = append(cmds, flushEscape(pending)...)
				}
				if !emit(cmds) {
					return
				}
				if chunk.err != nil {
					if !errors.Is(chunk.err, io.EOF) {
						logs.LogV("[keys] input closed: %v", chunk.err)
					}
					return
				}
				if len(pending) > 0 {
					escWait = time.After(escapeTimeout)
				}
			}
		}
	}()
	return out
}

// flushEscape resolves an escape prefix that will not be completed: a lone
// Esc quits, a truncated sequence is dropped.
func flushEscape(pending []byte) []Command {
	if len(pending) == 1 && pending[0] == keyEsc {
		return []Command{{Kind: CmdQuit}}
	}
	return nil
}

func deliver(ctx context.Context, out chan<- Command, cmd Command) bool {
	if cmd.droppable() {
		select {
		case out <- cmd:
		default:
			logs.LogV("[keys] dropped %v, command queue full", cmd)
		}
		return ctx.Err() == nil
	}
	select {
	case out <- cmd:
		return true
	case <-ctx.Done():
		return false
	}
}

// parseKeys maps buffered input to commands. Escape sequences (arrows,
// function keys, Alt+key) are skipped. An escape prefix at the end of data
// that may still be completed by the next read is returned as rest.
func parseKeys(data []byte, keys Keymap) (cmds []Command, rest []byte) {
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b == keyEsc {
			end, complete := escapeEnd(data, i)
			if !complete {
				return cmds, append([]byte(nil), data[i:]...)
			}
			i = end
			continue
		}
		if cmd, ok := keys[b]; ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds, nil
}

// escapeEnd returns the index of the last byte of the escape sequence that
// starts at data[start], and whether the sequence is complete.
func escapeEnd(data []byte, start int) (int, bool) {
	i := start + 1
	if i >= len(data) {
		return start, false
	}
	switch data[i] {
	case '[', 'O':
		// CSI/SS3: parameters and intermediates up to a final byte 0x40..0x7e
		for i++; i < len(data); i++ {
			if data[i] >= 0x40 && data[i] <= 0x7e {
				return i, true
			}
		}
		return len(data) - 1, false
	default:
		return i, true
	}
}
