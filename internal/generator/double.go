package generator

import (
	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
)

// LosersRoundSizes returns the match count of every losers bracket round for
// a winners bracket of winnersRounds rounds. Rounds come in pairs of equal
// size: an odd round pairs up survivors, the even round after it takes the
// same number of players dropping from the winners bracket. Each pair is half
// the previous one, starting at 2^(winnersRounds-2): 3 rounds give 2,2,1,1.
func LosersRoundSizes(winnersRounds int) []int {
	if winnersRounds < 2 {
		return nil
	}
	rounds := 2 * (winnersRounds - 1)
	sizes := make([]int, rounds)
	for r := 1; r <= rounds; r++ {
		sizes[r-1] = 1 << (winnersRounds - 2 - (r-1)/2)
	}
	return sizes
}

func (b *builder) doubleElimination(ordered []bracket.Participant) {
	wb := b.singleElimination(ordered)
	winnersRounds := len(wb)
	wbFinal := wb[winnersRounds-1][0]

	sizes := LosersRoundSizes(winnersRounds)
	lb := make([][]*bracket.Match, len(sizes))
	for r, size := range sizes {
		lb[r] = make([]*bracket.Match, size)
		for i := range size {
			lb[r][i] = b.add(bracket.LosersSide, 0, r+1, i+1)
		}
	}

	gf := b.add(bracket.GrandFinalSide, 0, 1, 1)
	link(wbFinal, gf, 1)

	if len(lb) == 0 {
		linkLoser(wbFinal, gf, 2)
		return
	}

	// First round losers pair up in order.
	for i, m := range wb[0] {
		linkLoser(m, lb[0][i/2], slotFor(i))
	}

	for r := 1; r < len(lb); r++ {
		round := r + 1
		if round%2 == 0 {
			// Survivors keep their line and meet the players dropping from
			// winners round round/2+1, who come in reverse order.
			drop := wb[round/2]
			n := len(lb[r])
			for i, m := range lb[r-1] {
				link(m, lb[r][i], 1)
			}
			for i, m := range drop {
				linkLoser(m, lb[r][n-1-i], 2)
			}
			continue
		}
		for i, m := range lb[r-1] {
			link(m, lb[r][i/2], slotFor(i))
		}
	}

	link(lb[len(lb)-1][0], gf, 2)
}
