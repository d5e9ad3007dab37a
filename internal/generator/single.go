package generator

import (
	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
)

// elimination builds an empty winners bracket for size slots, linked round
// to round, and returns it indexed as grid[round-1][order-1].
func (b *builder) elimination(size int) [][]*bracket.Match {
	rounds := bracket.Rounds(size)
	grid := make([][]*bracket.Match, rounds)
	for r := 1; r <= rounds; r++ {
		count := size >> r
		grid[r-1] = make([]*bracket.Match, count)
		for i := range count {
			grid[r-1][i] = b.add(bracket.WinnersSide, 0, r, i+1)
		}
	}

	for r := 0; r < rounds-1; r++ {
		for i, m := range grid[r] {
			link(m, grid[r+1][i/2], slotFor(i))
		}
	}
	return grid
}

// seat places seeded participants into first round slots in standard seed
// order. Seeds past the field are byes and their slots are marked vacant.
func seat(round1 []*bracket.Match, ordered []bracket.Participant, size int) {
	for i, pair := range bracket.SeedPairs(size) {
		m := round1[i]
		if pair[0] < len(ordered) {
			id := ordered[pair[0]].ID
			m.Player1ID = &id
		} else {
			m.Slot1Vacant = true
		}
		if pair[1] < len(ordered) {
			id := ordered[pair[1]].ID
			m.Player2ID = &id
		} else {
			m.Slot2Vacant = true
		}
	}
}

func (b *builder) singleElimination(ordered []bracket.Participant) [][]*bracket.Match {
	size := bracket.BracketSize(len(ordered))
	grid := b.elimination(size)
	seat(grid[0], ordered, size)
	return grid
}
