package ui

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/svanichkin/camterm/codec"
	"github.com/svanichkin/camterm/device"
	"github.com/svanichkin/camterm/logs"
	"github.com/svanichkin/camterm/mediactrl"
	"github.com/svanichkin/camterm/snapshot"
)

// Sink receives rendered grids. device.Terminal is the production sink.
type Sink interface {
	Geometry() (codec.Geometry, error)
	WriteGrid(grid *codec.CellGrid) error
}

// Snapshotter persists raw frames on request.
type Snapshotter interface {
	Submit(frame codec.Frame)
}

// DefaultFailureThreshold is the number of consecutive capture failures that
// end the session.
const DefaultFailureThreshold = 3

// PipelineConfig wires the render loop to its collaborators. Source, Sink and
// Controller are required.
type PipelineConfig struct {
	Source     device.FrameSource
	Sink       Sink
	Controller *mediactrl.Controller
	Converter  *codec.Converter
	Snapshots  Snapshotter
	// MaxFPS caps the render rate; zero renders as fast as frames arrive.
	MaxFPS           int
	FailureThreshold int
	ShowStatus       bool
}

// Pipeline is the capture, convert and display loop.
type Pipeline struct {
	cfg PipelineConfig

	quit   atomic.Bool
	latest frameStore
	status statusLine
	fps    fpsCounter
}

// NewPipeline validates cfg and fills in defaults.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Source == nil || cfg.Sink == nil || cfg.Controller == nil {
		return nil, errors.New("pipeline needs a frame source, a sink and a mode controller")
	}
	if cfg.Converter == nil {
		cfg.Converter = codec.DefaultConverter
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.MaxFPS < 0 {
		cfg.MaxFPS = 0
	}
	return &Pipeline{cfg: cfg}, nil
}

// SetStatus shows msg in the status overlay for a few seconds.
func (p *Pipeline) SetStatus(msg string) {
	p.status.set(msg, time.Now())
}

// ReportSnapshot surfaces the outcome of a snapshot save.
func (p *Pipeline) ReportSnapshot(res snapshot.Result) {
	if res.Err != nil {
		p.SetStatus("snapshot failed: " + res.Err.Error())
		return
	}
	p.SetStatus("saved " + res.Path)
}

// Quit asks the loop to stop at the top of its next cycle.
func (p *Pipeline) Quit() {
	p.quit.Store(true)
}

// Run renders until quit, ctx cancellation or a fatal error. Commands from
// cmds are applied on a separate goroutine so the loop never waits on input.
// A nil return means a normal shutdown.
func (p *Pipeline) Run(ctx context.Context, cmds <-chan Command) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := p.cfg.Controller.Subscribe(func(s mediactrl.State) {
		logs.LogV("[render] mode %s frozen=%v", s.Mode, s.Frozen)
	})
	defer unsubscribe()

	if cmds != nil {
		go p.dispatch(ctx, cmds, cancel)
	}

	var interval time.Duration
	if p.cfg.MaxFPS > 0 {
		interval = time.Second / time.Duration(p.cfg.MaxFPS)
	}
	failures := 0
	for {
		if p.quit.Load() || ctx.Err() != nil {
			return nil
		}
		start := time.Now()
		err := p.cycle(ctx)
		switch {
		case err == nil:
			failures = 0
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, device.ErrCapture):
			failures++
			logs.LogV("[render] capture failure %d/%d: %v", failures, p.cfg.FailureThreshold, err)
			p.SetStatus(fmt.Sprintf("capture failed (%d/%d)", failures, p.cfg.FailureThreshold))
			if failures >= p.cfg.FailureThreshold {
				return fmt.Errorf("%d consecutive capture failures: %w", failures, err)
			}
		case errors.Is(err, codec.ErrConversion):
			failures = 0
			logs.LogV("[render] skipped frame: %v", err)
		default:
			return err
		}
		if interval > 0 {
			if wait := interval - time.Since(start); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil
				case <-timer.C:
				}
			}
		}
	}
}

// cycle runs one pull, convert and push step. Capture failures wrap
// device.ErrCapture, bad frames codec.ErrConversion; anything else is fatal.
func (p *Pipeline) cycle(ctx context.Context) error {
	frame, err := p.cfg.Source.NextFrame(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, device.ErrCapture) {
			err = fmt.Errorf("%w: %v", device.ErrCapture, err)
		}
		return err
	}

	state := p.cfg.Controller.StateSnapshot()
	if state.Frozen {
		if held, version, _ := p.latest.snapshot(); version > 0 {
			frame = held
		}
	}

	geo, err := p.cfg.Sink.Geometry()
	if err != nil {
		return terminalError(err)
	}
	grid, err := p.cfg.Converter.Convert(frame, geo, state.Mode)
	if err != nil {
		return err
	}
	// snapshots still see the camera while the window has no room to draw
	if !state.Frozen && frame.Valid() {
		p.latest.store(frame)
	}
	if grid.Empty() {
		return nil
	}

	now := time.Now()
	p.fps.recordFrame(now)
	if p.cfg.ShowStatus {
		writeStatusOverlay(grid, composeStatusLabel(state, p.fps.label(), geo, p.status.current(now)))
	}
	if err := p.cfg.Sink.WriteGrid(grid); err != nil {
		return terminalError(err)
	}
	return nil
}

func (p *Pipeline) dispatch(ctx context.Context, cmds <-chan Command, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-cmds:
			if !ok {
				logs.LogV("[render] input closed, quitting")
				p.Quit()
				cancel()
				return
			}
			if p.apply(cmd) {
				cancel()
				return
			}
		}
	}
}

// apply executes one command and reports whether it was quit.
func (p *Pipeline) apply(cmd Command) bool {
	ctrl := p.cfg.Controller
	switch cmd.Kind {
	case CmdSelectMode:
		ctrl.SetMode(cmd.Mode)
	case CmdNextMode:
		ctrl.NextMode()
	case CmdToggleFreeze:
		if ctrl.ToggleFreeze() {
			p.SetStatus("frozen")
		} else {
			p.SetStatus("live")
		}
	case CmdSnapshot:
		p.snapshot()
	case CmdQuit:
		p.Quit()
		return true
	}
	return false
}

func (p *Pipeline) snapshot() {
	if p.cfg.Snapshots == nil {
		p.SetStatus("snapshots disabled")
		return
	}
	frame, version, _ := p.latest.snapshot()
	if version == 0 {
		p.SetStatus("no frame to save yet")
		return
	}
	p.cfg.Snapshots.Submit(frame)
}

func terminalError(err error) error {
	if errors.Is(err, device.ErrTerminal) {
		return err
	}
	return fmt.Errorf("%w: %v", device.ErrTerminal, err)
}
