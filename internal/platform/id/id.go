package id

import "github.com/google/uuid"

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

// Sequence hands out ids from a fixed list; tests use it for deterministic output.
type Sequence struct {
	IDs  []string
	next int
}

func (s *Sequence) New() string {
	if s.next >= len(s.IDs) {
		return ""
	}
	out := s.IDs[s.next]
	s.next++
	return out
}
