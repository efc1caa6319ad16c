package ui

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/svanichkin/camterm/codec"
	"github.com/svanichkin/camterm/device"
	"github.com/svanichkin/camterm/mediactrl"
)

type stepLog struct {
	mu    sync.Mutex
	steps []string
}

func (l *stepLog) add(s string) {
	l.mu.Lock()
	l.steps = append(l.steps, s)
	l.mu.Unlock()
}

func (l *stepLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.steps...)
}

type fakeScreen struct {
	log      *stepLog
	enterErr error
	session  *Session
}

func (s *fakeScreen) Enter() error {
	s.log.add("enter")
	return s.enterErr
}

// Leave records whether capture had already been stopped.
func (s *fakeScreen) Leave() error {
	if s.session.Context().Err() != nil {
		s.log.add("stopped")
	}
	s.log.add("leave")
	return nil
}

// closingSource records Close on the shared log.
type closingSource struct {
	device.FrameSource
	log *stepLog
}

func (c closingSource) Close() error {
	c.log.add("close")
	return nil
}

var teardownSteps = []string{"enter", "stopped", "leave", "close"}

func newSessionFixture(src device.FrameSource, enterErr error) (*Session, *stepLog, closingSource) {
	steps := &stepLog{}
	screen := &fakeScreen{log: steps, enterErr: enterErr}
	wrapped := closingSource{FrameSource: src, log: steps}
	session := NewSession(context.Background(), screen, wrapped)
	screen.session = session
	return session, steps, wrapped
}

func TestSessionTearsDownAfterFatalError(t *testing.T) {
	src := &scriptedSource{steps: []step{{err: captureErr(1)}, {err: captureErr(2)}, {err: captureErr(3)}}}
	session, steps, wrapped := newSessionFixture(src, nil)
	p := newTestPipeline(t, wrapped, &recordingSink{geo: codec.Geometry{Cols: 4, Rows: 2}}, nil)

	err := session.Run(func(ctx context.Context) error { return p.Run(ctx, nil) })
	if !errors.Is(err, device.ErrCapture) {
		t.Fatalf("expected fatal capture error, got %v", err)
	}
	session.Teardown()
	if got := steps.list(); !reflect.DeepEqual(got, teardownSteps) {
		t.Fatalf("steps %v, want %v", got, teardownSteps)
	}
}

func TestSessionTearsDownAfterQuit(t *testing.T) {
	session, steps, wrapped := newSessionFixture(endlessSource{frame: solid(2, 2, 2)}, nil)
	sink := &recordingSink{geo: codec.Geometry{Cols: 4, Rows: 2}}
	p, err := NewPipeline(PipelineConfig{Source: wrapped, Sink: sink, Controller: mediactrl.New(codec.TrueColorBlocks)})
	if err != nil {
		t.Fatal(err)
	}
	cmds := make(chan Command, 1)
	cmds <- Command{Kind: CmdQuit}

	if err := session.Run(func(ctx context.Context) error { return p.Run(ctx, cmds) }); err != nil {
		t.Fatalf("quit should end cleanly, got %v", err)
	}
	if got := steps.list(); !reflect.DeepEqual(got, teardownSteps) {
		t.Fatalf("steps %v, want %v", got, teardownSteps)
	}
}

func TestSessionTearsDownWhenEnterFails(t *testing.T) {
	enterErr := errors.New("not a tty")
	session, steps, _ := newSessionFixture(endlessSource{}, enterErr)
	called := false

	err := session.Run(func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, enterErr) {
		t.Fatalf("got %v", err)
	}
	if called {
		t.Fatal("run function should not be called after a failed enter")
	}
	if got := steps.list(); !reflect.DeepEqual(got, teardownSteps) {
		t.Fatalf("steps %v, want %v", got, teardownSteps)
	}
}

func TestSessionTearsDownOnPanic(t *testing.T) {
	session, steps, _ := newSessionFixture(endlessSource{}, nil)
	func() {
		defer func() { recover() }()
		session.Run(func(context.Context) error { panic("render bug") })
	}()
	if got := steps.list(); !reflect.DeepEqual(got, teardownSteps) {
		t.Fatalf("steps %v, want %v", got, teardownSteps)
	}
}
