package generator

import (
	"fmt"
	"testing"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleElimination_EightParticipants(t *testing.T) {
	tournament := &bracket.Tournament{ID: uuid.New(), Format: bracket.SingleElimination}
	matches, participants := generate(t, tournament, 8)

	require.Len(t, matches, 7)
	assert.Equal(t, 4, countBy(matches, func(m *bracket.Match) bool { return m.RoundNumber == 1 }))
	assert.Equal(t, 1, countBy(matches, func(m *bracket.Match) bool { return m.RoundNumber == 3 }))
	assert.Zero(t, countBy(matches, func(m *bracket.Match) bool { return m.Status == bracket.MatchBye }))

	r1m1 := find(matches, "R1M1")
	require.NotNil(t, r1m1)
	assert.Equal(t, participants[0].ID, *r1m1.Player1ID)
	assert.Equal(t, participants[7].ID, *r1m1.Player2ID)
	assert.Equal(t, bracket.MatchActive, r1m1.Status)
	require.NotNil(t, r1m1.Deadline)
	assert.Equal(t, testNow.Add(bracket.DefaultRoundDuration), *r1m1.Deadline)

	r1m2 := find(matches, "R1M2")
	assert.Equal(t, "R2M1", r1m2.FeedsInto.Token())
	assert.Equal(t, 2, *r1m2.FeedsIntoSlot)

	r2m1 := find(matches, "R2M1")
	assert.Equal(t, bracket.MatchPending, r2m1.Status)
	assert.Nil(t, r2m1.Player1ID)
	assert.Equal(t, []string{"R1M1", "R1M2"}, r2m1.DependsOn.Tokens())

	final := find(matches, "R3M1")
	assert.Nil(t, final.FeedsInto)
}

func TestSingleElimination_FiveParticipants(t *testing.T) {
	tournament := &bracket.Tournament{ID: uuid.New(), Format: bracket.SingleElimination}
	matches, participants := generate(t, tournament, 5)

	round1 := []*bracket.Match{}
	for _, m := range matches {
		if m.RoundNumber == 1 {
			round1 = append(round1, m)
		}
	}
	require.Len(t, round1, 4)

	byes := countBy(round1, func(m *bracket.Match) bool { return m.Status == bracket.MatchBye })
	assert.Equal(t, 3, byes)

	// Seeds 1, 2 and 3 get the byes, seeds 4 and 5 play.
	r1m1 := find(matches, "R1M1")
	assert.Equal(t, bracket.MatchBye, r1m1.Status)
	assert.Equal(t, participants[0].ID, *r1m1.WinnerID)
	assert.Equal(t, bracket.Bye{Winner: participants[0].ID, At: testNow}, r1m1.State())

	r1m2 := find(matches, "R1M2")
	assert.Equal(t, bracket.MatchActive, r1m2.Status)
	assert.Equal(t, participants[3].ID, *r1m2.Player1ID)
	assert.Equal(t, participants[4].ID, *r1m2.Player2ID)

	// Byes advanced at generation: R2M2 is seed 2 against seed 3 and waits
	// for the first round to finish.
	r2m1 := find(matches, "R2M1")
	assert.Equal(t, participants[0].ID, *r2m1.Player1ID)
	assert.Nil(t, r2m1.Player2ID)
	assert.Equal(t, bracket.MatchPending, r2m1.Status)

	r2m2 := find(matches, "R2M2")
	assert.Equal(t, participants[1].ID, *r2m2.Player1ID)
	assert.Equal(t, participants[2].ID, *r2m2.Player2ID)
	assert.Equal(t, bracket.MatchReady, r2m2.Status)
	assert.Nil(t, r2m2.Deadline)
}

func TestSingleElimination_Shape(t *testing.T) {
	for n := 2; n <= 128; n++ {
		t.Run(fmt.Sprintf("%d participants", n), func(t *testing.T) {
			tournament := &bracket.Tournament{ID: uuid.New(), Format: bracket.SingleElimination}
			matches, _ := generate(t, tournament, n)

			rounds := 0
			for _, m := range matches {
				rounds = max(rounds, m.RoundNumber)
			}
			assert.Equal(t, bracket.Rounds(n), rounds)

			played := countBy(matches, func(m *bracket.Match) bool { return m.Status != bracket.MatchBye })
			assert.Equal(t, n-1, played)
		})
	}
}
