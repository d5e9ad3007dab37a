package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
)

// Rule picks the concrete format of a custom tournament.
type Rule interface {
	Choose(participants, groups, slotsPerGroup int) bracket.Format
}

// ThresholdRule plays a group stage once the field reaches GroupStageMin and
// the group settings fit the field, single elimination otherwise. A zero
// GroupStageMin always picks single elimination.
type ThresholdRule struct {
	GroupStageMin int
}

func (r ThresholdRule) Choose(participants, groups, slotsPerGroup int) bracket.Format {
	if r.GroupStageMin > 0 && participants >= r.GroupStageMin &&
		checkGroups(participants, groups, slotsPerGroup) == nil {
		return bracket.GroupStage
	}
	return bracket.SingleElimination
}

// Resolve returns the concrete format t is played in with n participants.
func Resolve(t *bracket.Tournament, n int) (bracket.Format, error) {
	switch t.Format {
	case bracket.Custom:
		rule := ThresholdRule{GroupStageMin: t.GroupStageThreshold}
		return rule.Choose(n, t.GroupCount, t.KnockoutSlotsPerGroup), nil
	case bracket.SingleElimination, bracket.DoubleElimination, bracket.RoundRobin, bracket.GroupStage:
		return t.Format, nil
	}
	return "", fmt.Errorf("%w: %q", bracket.ErrUnsupportedFormat, t.Format)
}

// Generate builds every match of t for the seeded participants. Byes are
// settled right away, first round matches come back active with a deadline
// and later rounds wait as pending or ready placeholders.
func Generate(ctx context.Context, t *bracket.Tournament, ordered []bracket.Participant, now time.Time) ([]*bracket.Match, error) {
	if err := checkCount(len(ordered)); err != nil {
		return nil, err
	}
	format, err := Resolve(t, len(ordered))
	if err != nil {
		return nil, err
	}

	b := &builder{tournamentID: t.ID, now: now.UTC()}
	switch format {
	case bracket.SingleElimination:
		b.singleElimination(ordered)
	case bracket.DoubleElimination:
		b.doubleElimination(ordered)
	case bracket.RoundRobin:
		b.roundRobin(bracket.RoundRobinSide, 0, ordered)
	case bracket.GroupStage:
		if err := b.groupStage(ordered, t.GroupCount, t.KnockoutSlotsPerGroup); err != nil {
			return nil, err
		}
	}

	if err := bracket.NewIndex(b.matches).Validate(); err != nil {
		return nil, fmt.Errorf("generated bracket is inconsistent: %w", err)
	}

	board := bracket.NewBoard(t, bracket.NewMemorySource(b.matches), b.now)
	for i, p := range ordered {
		board.Seeds[p.ID] = i + 1
	}
	for _, m := range b.matches {
		if err := board.Evaluate(ctx, m.Position()); err != nil {
			return nil, fmt.Errorf("failed to settle %s: %w", m.Token(), err)
		}
	}
	return b.matches, nil
}

type builder struct {
	tournamentID uuid.UUID
	now          time.Time
	matches      []*bracket.Match
}

func (b *builder) add(side bracket.Side, group, round, order int) *bracket.Match {
	m := &bracket.Match{
		ID:           uuid.New(),
		TournamentID: b.tournamentID,
		Side:         side,
		GroupNumber:  group,
		RoundNumber:  round,
		MatchOrder:   order,
		Status:       bracket.MatchPending,
		CreatedAt:    b.now,
	}
	b.matches = append(b.matches, m)
	return m
}

func link(from, to *bracket.Match, slot int) {
	pos := to.Position()
	from.FeedsInto = &pos
	from.FeedsIntoSlot = &slot
	to.DependsOn = append(to.DependsOn, from.Position())
}

func linkLoser(from, to *bracket.Match, slot int) {
	pos := to.Position()
	from.LoserFeedsInto = &pos
	from.LoserFeedsIntoSlot = &slot
	to.DependsOn = append(to.DependsOn, from.Position())
}

// slotFor is the slot taken in the next round by the match at the given
// zero based index: odd match numbers go to slot 1, even to slot 2.
func slotFor(index int) int {
	if index%2 == 0 {
		return 1
	}
	return 2
}
