package ui

import (
	"sync"
	"time"

	"github.com/svanichkin/camterm/codec"
)

// frameStore keeps the most recently displayed raw frame for snapshots.
type frameStore struct {
	mu        sync.RWMutex
	frame     codec.Frame
	version   uint64
	updatedAt time.Time
}

func (s *frameStore) store(frame codec.Frame) {
	s.mu.Lock()
	s.frame = frame
	s.version++
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// snapshot returns the latest frame, its version and when it was stored. A
// zero version means nothing has been displayed yet.
func (s *frameStore) snapshot() (codec.Frame, uint64, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.version, s.updatedAt
}
