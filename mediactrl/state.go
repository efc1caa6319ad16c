package mediactrl

import (
	"sync"
	"sync/atomic"

	"github.com/muesli/termenv"

	"github.com/svanichkin/camterm/codec"
)

// State describes the current render mode and freeze switch.
type State struct {
	Mode   codec.Mode
	Frozen bool
}

// Controller holds the active render mode. Writes come from the command
// dispatcher, reads from the render loop; both are single atomic operations
// so a render cycle always sees one consistent mode.
type Controller struct {
	mode   atomic.Int32
	frozen atomic.Bool

	listenerMu sync.Mutex
	listeners  map[int]func(State)
	nextID     int
}

// New returns a Controller starting in initial. Invalid modes fall back to
// TrueColorBlocks.
func New(initial codec.Mode) *Controller {
	if !initial.Valid() {
		initial = codec.TrueColorBlocks
	}
	c := &Controller{listeners: make(map[int]func(State))}
	c.mode.Store(int32(initial))
	return c
}

// DefaultMode picks the startup mode for a terminal color profile.
func DefaultMode(profile termenv.Profile) codec.Mode {
	switch profile {
	case termenv.TrueColor:
		return codec.TrueColorBlocks
	case termenv.ANSI256, termenv.ANSI:
		return codec.PaletteColorBlocks
	default:
		return codec.GrayscaleAscii
	}
}

// CurrentMode returns the active mode.
func (c *Controller) CurrentMode() codec.Mode {
	return codec.Mode(c.mode.Load())
}

// SetMode makes m the active mode. Every mode is reachable from every other,
// so the call always succeeds; invalid values are ignored.
func (c *Controller) SetMode(m codec.Mode) {
	if !m.Valid() {
		return
	}
	if codec.Mode(c.mode.Swap(int32(m))) == m {
		return
	}
	c.notifyListeners()
}

// NextMode advances to the following mode and returns it.
func (c *Controller) NextMode() codec.Mode {
	for {
		current := c.mode.Load()
		next := codec.Mode(current).Next()
		if c.mode.CompareAndSwap(current, int32(next)) {
			c.notifyListeners()
			return next
		}
	}
}

// Frozen reports whether rendering is paused on the last frame.
func (c *Controller) Frozen() bool {
	return c.frozen.Load()
}

// ToggleFreeze flips the freeze switch and returns the new value.
func (c *Controller) ToggleFreeze() bool {
	for {
		current := c.frozen.Load()
		next := !current
		if c.frozen.CompareAndSwap(current, next) {
			c.notifyListeners()
			return next
		}
	}
}

// StateSnapshot returns a copy of the current switches.
func (c *Controller) StateSnapshot() State {
	return State{
		Mode:   c.CurrentMode(),
		Frozen: c.frozen.Load(),
	}
}

// Subscribe registers a callback invoked whenever the mode or freeze switch
// changes. It returns a function that removes the listener.
func (c *Controller) Subscribe(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}
	c.listenerMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.listenerMu.Unlock()
	return func() {
		c.listenerMu.Lock()
		delete(c.listeners, id)
		c.listenerMu.Unlock()
	}
}

func (c *Controller) notifyListeners() {
	state := c.StateSnapshot()
	c.listenerMu.Lock()
	snapshot := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		snapshot = append(snapshot, fn)
	}
	c.listenerMu.Unlock()
	for _, fn := range snapshot {
		func(cb func(State)) {
			defer func() { recover() }()
			cb(state)
		}(fn)
	}
}
