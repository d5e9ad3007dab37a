package bracket_test

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/generator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	genTime     = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	resolveTime = genTime.Add(3 * time.Hour)
)

type fixture struct {
	tournament   *bracket.Tournament
	participants []bracket.Participant
	matches      []*bracket.Match
}

func newFixture(t *testing.T, tournament bracket.Tournament, n int) *fixture {
	t.Helper()
	tournament.ID = uuid.New()
	participants := make([]bracket.Participant, n)
	for i := range participants {
		participants[i] = bracket.Participant{
			ID:           uuid.New(),
			TournamentID: tournament.ID,
			Seed:         i + 1,
			JoinedAt:     genTime.Add(time.Duration(i) * time.Second),
		}
	}
	matches, err := generator.Generate(context.Background(), &tournament, participants, genTime)
	require.NoError(t, err)
	return &fixture{tournament: &tournament, participants: participants, matches: matches}
}

func (f *fixture) board() *bracket.Board {
	b := bracket.NewBoard(f.tournament, bracket.NewMemorySource(f.matches), resolveTime)
	for _, p := range f.participants {
		b.Seeds[p.ID] = p.Seed
	}
	return b
}

func (f *fixture) match(t *testing.T, token string) *bracket.Match {
	t.Helper()
	for _, m := range f.matches {
		if m.Token() == token {
			return m
		}
	}
	require.FailNow(t, "match not found", token)
	return nil
}

func (f *fixture) seed(n int) uuid.UUID {
	return f.participants[n-1].ID
}

func (f *fixture) resolve(t *testing.T, token string, winner uuid.UUID) *bracket.Board {
	t.Helper()
	b := f.board()
	_, err := b.Resolve(context.Background(), f.match(t, token).Position(), winner, bracket.Result{})
	require.NoError(t, err)
	return b
}

func eventTypes(b *bracket.Board) []bracket.EventType {
	var out []bracket.EventType
	for _, e := range b.Events() {
		out = append(out, e.Type)
	}
	return out
}

func TestResolve_WinnerLandsInDependentSlot(t *testing.T) {
	f := newFixture(t, bracket.Tournament{Format: bracket.SingleElimination}, 4)

	b := f.resolve(t, "R1M1", f.seed(1))

	final := f.match(t, "R2M1")
	require.NotNil(t, final.Player1ID)
	assert.Equal(t, f.seed(1), *final.Player1ID)
	assert.Nil(t, final.Player2ID)
	assert.Equal(t, bracket.MatchPending, final.Status)
	assert.Len(t, b.Changes(), 2)
	assert.Empty(t, b.Events())

	// The sibling finishing completes round 1 and opens the final.
	b = f.resolve(t, "R1M2", f.seed(3))

	assert.Equal(t, f.seed(3), *final.Player2ID)
	assert.Equal(t, bracket.MatchActive, final.Status)
	assert.Equal(t, resolveTime.Add(bracket.DefaultRoundDuration), *final.Deadline)
	assert.Equal(t, []bracket.EventType{bracket.EventMatchReady, bracket.EventRoundComplete}, eventTypes(b))

	b = f.resolve(t, "R2M1", f.seed(3))
	done, winner := b.Completed()
	assert.True(t, done)
	assert.Equal(t, f.seed(3), *winner)
	assert.Contains(t, eventTypes(b), bracket.EventTournamentComplete)
}

func TestResolve_Rejections(t *testing.T) {
	f := newFixture(t, bracket.Tournament{Format: bracket.SingleElimination}, 4)
	ctx := context.Background()

	b := f.board()
	_, err := b.Resolve(ctx, f.match(t, "R1M1").Position(), f.seed(2), bracket.Result{})
	require.ErrorIs(t, err, bracket.ErrInvalidWinner)
	var matchErr *bracket.MatchError
	require.ErrorAs(t, err, &matchErr)
	assert.Equal(t, f.match(t, "R1M1").ID, matchErr.MatchID)
	assert.Equal(t, bracket.MatchActive, f.match(t, "R1M1").Status)
	assert.Empty(t, b.Changes())

	_, err = f.board().Resolve(ctx, f.match(t, "R2M1").Position(), f.seed(1), bracket.Result{})
	assert.ErrorIs(t, err, bracket.ErrMatchNotReady)

	f.resolve(t, "R1M1", f.seed(1))
	_, err = f.board().Resolve(ctx, f.match(t, "R1M1").Position(), f.seed(4), bracket.Result{})
	assert.ErrorIs(t, err, bracket.ErrAlreadyResolved)
	assert.Equal(t, f.seed(1), *f.match(t, "R1M1").WinnerID)
}

func TestResolve_MissingDependentMatch(t *testing.T) {
	f := newFixture(t, bracket.Tournament{Format: bracket.SingleElimination}, 4)
	m := f.match(t, "R1M1")
	broken := bracket.Position{Side: bracket.WinnersSide, Round: 9, Order: 1}
	m.FeedsInto = &broken

	_, err := f.board().Resolve(context.Background(), m.Position(), f.seed(1), bracket.Result{})
	assert.ErrorIs(t, err, bracket.ErrDependentMatchNotFound)
}

func TestDoubleForfeit_OverrideWithoutWinnerGivesBye(t *testing.T) {
	f := newFixture(t, bracket.Tournament{Format: bracket.SingleElimination}, 4)
	ctx := context.Background()

	b := f.board()
	m, err := b.DoubleForfeit(ctx, f.match(t, "R1M1").Position(), "no submissions")
	require.NoError(t, err)
	assert.Equal(t, bracket.DoubleForfeit{
		Player1: f.seed(1), Player2: f.seed(4), Notes: "no submissions", At: resolveTime,
	}, m.State())

	final := f.match(t, "R2M1")
	assert.Nil(t, final.Player1ID)
	assert.False(t, final.Slot1Vacant)

	f.resolve(t, "R1M2", f.seed(2))
	assert.Equal(t, bracket.MatchPending, final.Status)

	b = f.board()
	_, err = b.Override(ctx, m.Position(), nil, "nobody advances")
	require.NoError(t, err)

	assert.True(t, final.Slot1Vacant)
	assert.Equal(t, bracket.MatchBye, final.Status)
	assert.Equal(t, f.seed(2), *final.WinnerID)
	done, winner := b.Completed()
	assert.True(t, done)
	assert.Equal(t, f.seed(2), *winner)
	assert.Contains(t, *m.AdminNotes, "nobody advances")
}

func TestDoubleForfeit_OverrideAdvancesChosenPlayer(t *testing.T) {
	f := newFixture(t, bracket.Tournament{Format: bracket.SingleElimination}, 4)
	ctx := context.Background()

	pos := f.match(t, "R1M1").Position()
	_, err := f.board().DoubleForfeit(ctx, pos, "")
	require.NoError(t, err)

	_, err = f.board().Override(ctx, pos, &f.participants[1].ID, "")
	assert.ErrorIs(t, err, bracket.ErrInvalidWinner)

	m, err := f.board().Override(ctx, pos, &f.participants[3].ID, "")
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchCompleted, m.Status)
	assert.True(t, m.Forfeit)
	assert.Equal(t, f.seed(4), *f.match(t, "R2M1").Player1ID)

	_, err = f.board().Override(ctx, pos, nil, "")
	assert.ErrorIs(t, err, bracket.ErrNotDoubleForfeit)
}

func TestDoubleElimination_LoserDropsAndGrandFinalCompletes(t *testing.T) {
	f := newFixture(t, bracket.Tournament{Format: bracket.DoubleElimination}, 4)

	f.resolve(t, "R1M1", f.seed(1))
	lb := f.match(t, "L1M1")
	assert.Equal(t, f.seed(4), *lb.Player1ID)

	f.resolve(t, "R1M2", f.seed(2))
	assert.Equal(t, f.seed(3), *lb.Player2ID)
	assert.Equal(t, bracket.MatchActive, lb.Status)
	assert.Equal(t, bracket.MatchActive, f.match(t, "R2M1").Status)

	f.resolve(t, "R2M1", f.seed(1))
	l2 := f.match(t, "L2M1")
	assert.Equal(t, f.seed(2), *l2.Player2ID)
	assert.Equal(t, bracket.MatchPending, l2.Status)

	f.resolve(t, "L1M1", f.seed(3))
	assert.Equal(t, bracket.MatchActive, l2.Status)

	f.resolve(t, "L2M1", f.seed(3))
	gf := f.match(t, "GF")
	assert.Equal(t, f.seed(1), *gf.Player1ID)
	assert.Equal(t, f.seed(3), *gf.Player2ID)
	assert.Equal(t, bracket.MatchActive, gf.Status)

	b := f.resolve(t, "GF", f.seed(3))
	done, winner := b.Completed()
	assert.True(t, done)
	assert.Equal(t, f.seed(3), *winner)
}

func TestRoundRobin_CompletesWithStandingsLeader(t *testing.T) {
	f := newFixture(t, bracket.Tournament{Format: bracket.RoundRobin}, 3)

	var last *bracket.Board
	for _, m := range f.matches {
		// The lowest seed in each pairing wins, so seed 1 wins the table.
		winner := *m.Player1ID
		if f.seedOf(*m.Player2ID) < f.seedOf(winner) {
			winner = *m.Player2ID
		}
		last = f.resolve(t, m.Token(), winner)
	}

	done, winner := last.Completed()
	require.True(t, done)
	assert.Equal(t, f.seed(1), *winner)
}

func (f *fixture) seedOf(id uuid.UUID) int {
	for _, p := range f.participants {
		if p.ID == id {
			return p.Seed
		}
	}
	return 0
}

func TestGroupStage_QualifiersEnterKnockout(t *testing.T) {
	f := newFixture(t, bracket.Tournament{
		Format:                bracket.GroupStage,
		GroupCount:            2,
		KnockoutSlotsPerGroup: 1,
	}, 4)

	final := f.match(t, "R1M1")
	assert.Equal(t, bracket.MatchPending, final.Status)

	b := f.resolve(t, "G1R1M1", f.seed(2))
	assert.Contains(t, eventTypes(b), bracket.EventGroupComplete)
	assert.Equal(t, f.seed(2), *final.Player1ID)

	f.resolve(t, "G2R1M1", f.seed(3))
	assert.Equal(t, f.seed(3), *final.Player2ID)
	assert.Equal(t, bracket.MatchActive, final.Status)

	b = f.resolve(t, "R1M1", f.seed(3))
	done, winner := b.Completed()
	assert.True(t, done)
	assert.Equal(t, f.seed(3), *winner)
}

func TestQualifierSlot(t *testing.T) {
	testCases := []struct {
		groups, slots, group, rank int
		order, slot                int
	}{
		{2, 1, 1, 1, 1, 1},
		{2, 1, 2, 1, 1, 2},
		// 4 groups, 2 each: winners are seeds 1-4, runners up 5-8
		{4, 2, 1, 1, 1, 1},
		{4, 2, 1, 2, 2, 2},
		{4, 2, 4, 1, 2, 1},
		{4, 2, 4, 2, 1, 2},
	}

	for _, tc := range testCases {
		pos, slot := bracket.QualifierSlot(tc.groups, tc.slots, tc.group, tc.rank)
		assert.Equal(t, bracket.WinnersSide, pos.Side)
		assert.Equal(t, 1, pos.Round)
		assert.Equal(t, tc.order, pos.Order, "group %d rank %d", tc.group, tc.rank)
		assert.Equal(t, tc.slot, slot, "group %d rank %d", tc.group, tc.rank)
	}
}
