package ui

import (
	"context"
	"io"
	"log"
	"sync"
)

// Screen is a terminal that can be switched into and out of raw mode.
type Screen interface {
	Enter() error
	Leave() error
}

// Session owns the terminal and capture device for one run and tears them
// down exactly once: stop capture, restore the terminal, release the device.
type Session struct {
	screen Screen
	device io.Closer

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewSession returns a Session whose context is derived from parent.
func NewSession(parent context.Context, screen Screen, device io.Closer) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{screen: screen, device: device, ctx: ctx, cancel: cancel}
}

// Context is canceled when capture stops.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Run enters the screen, calls fn with the session context and tears down
// on every exit path, including a failed Enter or a panic in fn.
func (s *Session) Run(fn func(ctx context.Context) error) error {
	defer s.Teardown()
	if err := s.screen.Enter(); err != nil {
		return err
	}
	err := fn(s.ctx)
	s.Teardown()
	return err
}

// Teardown is safe to call more than once.
func (s *Session) Teardown() {
	s.once.Do(func() {
		s.cancel()
		if err := s.screen.Leave(); err != nil {
			log.Printf("[term] %v", err)
		}
		if err := s.device.Close(); err != nil {
			log.Printf("[cam] close: %v", err)
		}
	})
}
