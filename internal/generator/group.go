package generator

import (
	"fmt"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
)

// checkGroups validates a group stage setup for n participants: at least two
// qualifiers overall and every group big enough to play and to fill its
// knockout slots.
func checkGroups(n, groups, slotsPerGroup int) error {
	if groups < 1 || slotsPerGroup < 1 {
		return fmt.Errorf("%w: %d groups with %d qualifiers each", bracket.ErrInvalidGroupConfig, groups, slotsPerGroup)
	}
	if groups*slotsPerGroup < 2 {
		return fmt.Errorf("%w: knockout needs at least 2 qualifiers", bracket.ErrInvalidGroupConfig)
	}
	smallest := n / groups
	if smallest < 2 || smallest < slotsPerGroup {
		return fmt.Errorf("%w: %d participants cannot fill %d groups sending %d each",
			bracket.ErrInvalidGroupConfig, n, groups, slotsPerGroup)
	}
	return nil
}

// SplitGroups slices seeded participants into contiguous groups. The first
// n%groups groups get one extra participant.
func SplitGroups(ordered []bracket.Participant, groups int) [][]bracket.Participant {
	out := make([][]bracket.Participant, groups)
	base, extra := len(ordered)/groups, len(ordered)%groups
	start := 0
	for g := range groups {
		size := base
		if g < extra {
			size++
		}
		out[g] = ordered[start : start+size]
		start += size
	}
	return out
}

func (b *builder) groupStage(ordered []bracket.Participant, groups, slotsPerGroup int) error {
	if err := checkGroups(len(ordered), groups, slotsPerGroup); err != nil {
		return err
	}

	for g, players := range SplitGroups(ordered, groups) {
		b.roundRobin(bracket.GroupSide, g+1, players)
	}

	// Knockout slots stay empty until the groups finish; seeds past the
	// number of qualifiers are byes.
	qualifiers := groups * slotsPerGroup
	size := bracket.BracketSize(qualifiers)
	grid := b.elimination(size)
	for i, pair := range bracket.SeedPairs(size) {
		m := grid[0][i]
		m.Slot1Vacant = pair[0] >= qualifiers
		m.Slot2Vacant = pair[1] >= qualifiers
	}
	return nil
}
