package generator

import (
	"math/rand/v2"
	"testing"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(ps []bracket.Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID.String()
	}
	return out
}

func TestSeed_StandardByJoinTime(t *testing.T) {
	participants := newParticipants(4)
	shuffled := []bracket.Participant{participants[2], participants[0], participants[3], participants[1]}

	seeded, err := Seed(shuffled, bracket.SeedStandard, nil)
	require.NoError(t, err)

	assert.Equal(t, ids(participants), ids(seeded))
	for i, p := range seeded {
		assert.Equal(t, i+1, p.Seed)
	}
	// the input keeps its order
	assert.Equal(t, participants[2].ID, shuffled[0].ID)
}

func TestSeed_StandardBySkill(t *testing.T) {
	participants := newParticipants(4)
	participants[0].Skill = utils.Ptr(1200)
	participants[1].Skill = nil
	participants[2].Skill = utils.Ptr(1800)
	participants[3].Skill = utils.Ptr(1200)

	seeded, err := Seed(participants, bracket.SeedStandard, nil)
	require.NoError(t, err)

	// Highest skill first, equal skill by join time, unrated last.
	expected := []bracket.Participant{participants[2], participants[0], participants[3], participants[1]}
	assert.Equal(t, ids(expected), ids(seeded))
}

func TestSeed_RandomIsDeterministicWithSeededRNG(t *testing.T) {
	participants := newParticipants(16)

	a, err := Seed(participants, bracket.SeedRandom, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	b, err := Seed(participants, bracket.SeedRandom, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	assert.Equal(t, ids(a), ids(b))
	assert.ElementsMatch(t, ids(participants), ids(a))
}

func TestSeed_Errors(t *testing.T) {
	_, err := Seed(newParticipants(1), bracket.SeedStandard, nil)
	assert.ErrorIs(t, err, bracket.ErrInvalidParticipantCount)

	_, err = Seed(newParticipants(129), bracket.SeedStandard, nil)
	assert.ErrorIs(t, err, bracket.ErrInvalidParticipantCount)

	_, err = Seed(newParticipants(4), "elo", nil)
	assert.ErrorIs(t, err, bracket.ErrUnsupportedSeedingPolicy)
}
