package generator

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
)

// Seed orders participants for bracket construction and numbers them 1..n.
// The input slice is left untouched. rng is only used by the random policy;
// nil means a time seeded generator.
func Seed(participants []bracket.Participant, policy bracket.SeedingPolicy, rng *rand.Rand) ([]bracket.Participant, error) {
	if err := checkCount(len(participants)); err != nil {
		return nil, err
	}

	out := slices.Clone(participants)
	switch policy {
	case bracket.SeedStandard, "":
		rated := slices.ContainsFunc(out, func(p bracket.Participant) bool { return p.Skill != nil })
		slices.SortStableFunc(out, func(a, b bracket.Participant) int {
			if rated {
				if c := compareSkill(a.Skill, b.Skill); c != 0 {
					return c
				}
			}
			return cmp.Or(
				a.JoinedAt.Compare(b.JoinedAt),
				cmp.Compare(a.ID.String(), b.ID.String()),
			)
		})
	case bracket.SeedRandom:
		if rng == nil {
			now := uint64(time.Now().UnixNano())
			rng = rand.New(rand.NewPCG(now, now>>32))
		}
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	default:
		return nil, fmt.Errorf("%w: %q", bracket.ErrUnsupportedSeedingPolicy, policy)
	}

	for i := range out {
		out[i].Seed = i + 1
	}
	return out, nil
}

// compareSkill sorts higher skill first and unrated participants last.
func compareSkill(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*b, *a)
}

func checkCount(n int) error {
	if n < bracket.MinParticipants || n > bracket.MaxParticipants {
		return fmt.Errorf("%w: got %d, want between %d and %d",
			bracket.ErrInvalidParticipantCount, n, bracket.MinParticipants, bracket.MaxParticipants)
	}
	return nil
}
