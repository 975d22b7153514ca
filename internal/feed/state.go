package feed

import (
	"sync"

	"github.com/rickgao/interaction-feed/internal/model"
)

// State is the append-only, arrival-ordered log of decoded events.
// Entries are never reordered or removed.
type State struct {
	mu     sync.RWMutex
	events []model.InteractionEvent
}

// NewState creates an empty feed log.
func NewState() *State {
	return &State{}
}

// Append adds evt at the end and returns its index.
func (s *State) Append(evt model.InteractionEvent) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, evt)
	return len(s.events) - 1
}

// Snapshot returns a copy of the log that callers may keep or modify.
func (s *State) Snapshot() []model.InteractionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.InteractionEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of entries.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
