package bracket

import (
	"cmp"
	"math"
	"slices"

	"github.com/google/uuid"
)

type Standing struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	Played        int       `json:"played"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	ScoreFor      int       `json:"score_for"`
	ScoreAgainst  int       `json:"score_against"`
}

func (s Standing) ScoreDiff() int {
	return s.ScoreFor - s.ScoreAgainst
}

// Standings ranks everyone who appears in matches by wins, then score
// difference, then seed. A double forfeit counts as a loss for both sides.
func Standings(matches []*Match, seeds map[uuid.UUID]int) []Standing {
	table := map[uuid.UUID]*Standing{}
	entry := func(id *uuid.UUID) *Standing {
		if id == nil {
			return nil
		}
		s, ok := table[*id]
		if !ok {
			s = &Standing{ParticipantID: *id}
			table[*id] = s
		}
		return s
	}

	for _, m := range matches {
		s1, s2 := entry(m.Player1ID), entry(m.Player2ID)
		if m.Status != MatchCompleted || s1 == nil || s2 == nil {
			continue
		}
		s1.Played++
		s2.Played++
		if m.Score1 != nil && m.Score2 != nil {
			s1.ScoreFor += *m.Score1
			s1.ScoreAgainst += *m.Score2
			s2.ScoreFor += *m.Score2
			s2.ScoreAgainst += *m.Score1
		}
		switch {
		case m.WinnerID == nil:
			s1.Losses++
			s2.Losses++
		case *m.WinnerID == s1.ParticipantID:
			s1.Wins++
			s2.Losses++
		default:
			s2.Wins++
			s1.Losses++
		}
	}

	seedOf := func(id uuid.UUID) int {
		if seed, ok := seeds[id]; ok {
			return seed
		}
		return math.MaxInt
	}

	out := make([]Standing, 0, len(table))
	for _, s := range table {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b Standing) int {
		return cmp.Or(
			cmp.Compare(b.Wins, a.Wins),
			cmp.Compare(b.ScoreDiff(), a.ScoreDiff()),
			cmp.Compare(seedOf(a.ParticipantID), seedOf(b.ParticipantID)),
			cmp.Compare(a.ParticipantID.String(), b.ParticipantID.String()),
		)
	})
	return out
}
