package generator

import (
	"fmt"
	"testing"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule(t *testing.T) {
	for n := 2; n <= 17; n++ {
		t.Run(fmt.Sprintf("%d players", n), func(t *testing.T) {
			rounds := Schedule(n)

			expectedRounds := n - 1
			if n%2 != 0 {
				expectedRounds = n
			}
			assert.Len(t, rounds, expectedRounds)

			met := map[[2]int]bool{}
			for r, pairs := range rounds {
				busy := map[int]bool{}
				for _, p := range pairs {
					assert.False(t, busy[p[0]], "player %d plays twice in round %d", p[0], r+1)
					assert.False(t, busy[p[1]], "player %d plays twice in round %d", p[1], r+1)
					busy[p[0]], busy[p[1]] = true, true

					key := [2]int{min(p[0], p[1]), max(p[0], p[1])}
					assert.False(t, met[key], "%v meet twice", key)
					met[key] = true
				}
			}
			assert.Len(t, met, n*(n-1)/2)
		})
	}
}

func TestRoundRobin_Statuses(t *testing.T) {
	tournament := &bracket.Tournament{ID: uuid.New(), Format: bracket.RoundRobin, RoundDurationHours: 24}
	matches, _ := generate(t, tournament, 6)

	require.Len(t, matches, 15)
	for _, m := range matches {
		assert.Equal(t, bracket.RoundRobinSide, m.Side)
		assert.Nil(t, m.FeedsInto)
		if m.RoundNumber == 1 {
			assert.Equal(t, bracket.MatchActive, m.Status, m.Token())
			assert.Equal(t, testNow.Add(24*time.Hour), *m.Deadline)
		} else {
			assert.Equal(t, bracket.MatchReady, m.Status, m.Token())
		}
	}
	assert.Equal(t, "RR5M3", matches[len(matches)-1].Token())
}
