package bracket

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MemorySource serves a board from matches held in memory, in the order they
// were given. Boards built on it modify the given matches in place.
type MemorySource struct {
	list  []*Match
	byPos map[Position]*Match
}

func NewMemorySource(matches []*Match) *MemorySource {
	s := &MemorySource{list: matches, byPos: make(map[Position]*Match, len(matches))}
	for _, m := range matches {
		s.byPos[m.Position()] = m
	}
	return s
}

func (s *MemorySource) MatchAt(_ context.Context, _ uuid.UUID, pos Position) (*Match, error) {
	m, ok := s.byPos[pos]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, pos)
	}
	return m, nil
}

func (s *MemorySource) Round(_ context.Context, _ uuid.UUID, side Side, group, round int) ([]*Match, error) {
	var out []*Match
	for _, m := range s.list {
		if m.Side == side && m.GroupNumber == group && m.RoundNumber == round {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemorySource) Stage(_ context.Context, _ uuid.UUID, side Side, group int) ([]*Match, error) {
	var out []*Match
	for _, m := range s.list {
		if m.Side == side && m.GroupNumber == group {
			out = append(out, m)
		}
	}
	return out, nil
}
