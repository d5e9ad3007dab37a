package generator

import (
	"testing"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitGroups(t *testing.T) {
	participants := newParticipants(10)
	groups := SplitGroups(participants, 3)

	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 4)
	assert.Len(t, groups[1], 3)
	assert.Len(t, groups[2], 3)
	assert.Equal(t, participants[4].ID, groups[1][0].ID)
}

func TestGroupStage_Layout(t *testing.T) {
	tournament := &bracket.Tournament{
		ID:                    uuid.New(),
		Format:                bracket.GroupStage,
		GroupCount:            3,
		KnockoutSlotsPerGroup: 2,
	}
	matches, _ := generate(t, tournament, 12)

	// 3 groups of 4 play 6 matches each, 6 qualifiers fill an 8 slot knockout.
	assert.Equal(t, 18, countBy(matches, func(m *bracket.Match) bool { return m.Side == bracket.GroupSide }))
	assert.Equal(t, 7, countBy(matches, func(m *bracket.Match) bool { return m.Side == bracket.WinnersSide }))

	g2 := find(matches, "G2R1M1")
	require.NotNil(t, g2)
	assert.Equal(t, bracket.MatchActive, g2.Status)
	assert.Equal(t, bracket.MatchReady, find(matches, "G2R2M1").Status)

	// Seeds 7 and 8 do not exist, so the top two seeds face a vacant slot.
	r1m1 := find(matches, "R1M1")
	assert.Nil(t, r1m1.Player1ID)
	assert.False(t, r1m1.Slot1Vacant)
	assert.True(t, r1m1.Slot2Vacant)
	assert.Equal(t, bracket.MatchPending, r1m1.Status)

	r1m2 := find(matches, "R1M2")
	assert.False(t, r1m2.Slot1Vacant)
	assert.False(t, r1m2.Slot2Vacant)
}

func TestGroupStage_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		n      int
		groups int
		slots  int
	}{
		{"no groups", 8, 0, 2},
		{"single qualifier", 8, 1, 1},
		{"groups too small", 5, 3, 1},
		{"more qualifiers than players", 8, 2, 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tournament := &bracket.Tournament{
				ID:                    uuid.New(),
				Format:                bracket.GroupStage,
				GroupCount:            tc.groups,
				KnockoutSlotsPerGroup: tc.slots,
			}
			_, err := Generate(t.Context(), tournament, newParticipants(tc.n), testNow)
			assert.ErrorIs(t, err, bracket.ErrInvalidGroupConfig)
		})
	}
}
