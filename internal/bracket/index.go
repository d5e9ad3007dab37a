package bracket

import (
	"errors"
	"fmt"
	"slices"
)

type feed struct {
	from  Position
	slot  int
	loser bool
}

// Index is a read only view of the dependency graph between matches: which
// match feeds which slot of which other match. It is derived from match rows
// and never stored on its own.
type Index struct {
	byPos   map[Position]*Match
	feeders map[Position][]feed
}

func NewIndex(matches []*Match) *Index {
	ix := &Index{
		byPos:   make(map[Position]*Match, len(matches)),
		feeders: map[Position][]feed{},
	}
	for _, m := range matches {
		pos := m.Position()
		ix.byPos[pos] = m
		if m.FeedsInto != nil {
			ix.feeders[*m.FeedsInto] = append(ix.feeders[*m.FeedsInto], feed{from: pos, slot: m.WinnerSlotInNext()})
		}
		if m.LoserFeedsInto != nil {
			ix.feeders[*m.LoserFeedsInto] = append(ix.feeders[*m.LoserFeedsInto], feed{from: pos, slot: m.LoserSlotInNext(), loser: true})
		}
	}
	return ix
}

// Feeders returns the positions whose winner or loser lands in pos.
func (ix *Index) Feeders(pos Position) []Position {
	fs := ix.feeders[pos]
	out := make([]Position, len(fs))
	for i, f := range fs {
		out[i] = f.from
	}
	return out
}

// Validate checks the graph in both directions: every feed target exists and
// lists its feeder in depends_on, every depends_on entry really feeds the
// match, and no slot is fed twice.
func (ix *Index) Validate() error {
	var errs []error

	for pos, fs := range ix.feeders {
		target, ok := ix.byPos[pos]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDependentMatchNotFound, pos))
			continue
		}
		seen := map[int]Position{}
		for _, f := range fs {
			if !target.DependsOn.Contains(f.from) {
				errs = append(errs, fmt.Errorf("%s feeds %s but is missing from its depends_on", f.from, pos))
			}
			if f.slot != 1 && f.slot != 2 {
				errs = append(errs, fmt.Errorf("%s feeds invalid slot %d of %s", f.from, f.slot, pos))
				continue
			}
			if other, dup := seen[f.slot]; dup {
				errs = append(errs, fmt.Errorf("%s and %s both feed slot %d of %s", other, f.from, f.slot, pos))
			}
			seen[f.slot] = f.from
		}
	}

	for pos, m := range ix.byPos {
		for _, dep := range m.DependsOn {
			if !slices.ContainsFunc(ix.feeders[pos], func(f feed) bool { return f.from == dep }) {
				errs = append(errs, fmt.Errorf("%s depends on %s which does not feed it", pos, dep))
			}
		}
	}

	return errors.Join(errs...)
}
