package generator

import (
	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
)

// Schedule pairs n players into rounds with the circle method: every pair
// meets exactly once and nobody plays twice in a round. With an odd n one
// player sits out each round. Indices refer to the input order.
func Schedule(n int) [][][2]int {
	if n < 2 {
		return nil
	}

	size := n
	if size%2 != 0 {
		size++
	}
	ring := make([]int, size)
	for i := range ring {
		ring[i] = i
	}

	rounds := make([][][2]int, 0, size-1)
	for r := 0; r < size-1; r++ {
		var pairs [][2]int
		for i := 0; i < size/2; i++ {
			a, c := ring[i], ring[size-1-i]
			if a >= n || c >= n {
				continue
			}
			// The fixed player alternates sides between rounds.
			if i == 0 && r%2 == 1 {
				a, c = c, a
			}
			pairs = append(pairs, [2]int{a, c})
		}
		rounds = append(rounds, pairs)

		// Keep ring[0] in place and rotate the rest by one.
		last := ring[size-1]
		copy(ring[2:], ring[1:size-1])
		ring[1] = last
	}
	return rounds
}

func (b *builder) roundRobin(side bracket.Side, group int, players []bracket.Participant) {
	for r, pairs := range Schedule(len(players)) {
		for i, pair := range pairs {
			m := b.add(side, group, r+1, i+1)
			p1, p2 := players[pair[0]].ID, players[pair[1]].ID
			m.Player1ID, m.Player2ID = &p1, &p2
		}
	}
}
