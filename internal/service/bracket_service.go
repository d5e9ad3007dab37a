package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/generator"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type BracketService struct {
	engine
	rng *rand.Rand
}

func NewBracketService(db *sqlx.DB, st *store.TournamentStore, sink notify.Sink, opts ...Option) *BracketService {
	return &BracketService{engine: newEngine(db, st, sink, opts)}
}

// SetRand fixes the generator used by the random seeding policy.
func (s *BracketService) SetRand(rng *rand.Rand) {
	s.rng = rng
}

type GenerateOptions struct {
	// Regenerate discards an existing match set instead of failing.
	Regenerate bool
}

// Generate seeds the tournament's participants, builds its full match set and
// persists it in one transaction. The tournament becomes ongoing.
func (s *BracketService) Generate(ctx context.Context, tournamentID uuid.UUID, opts GenerateOptions) ([]*bracket.Match, error) {
	t, participants, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status == bracket.TournamentCompleted {
		return nil, fmt.Errorf("%w: %s", bracket.ErrTournamentCompleted, t.ID)
	}

	ordered, err := generator.Seed(participants, t.SeedingPolicy, s.rng)
	if err != nil {
		return nil, err
	}
	matches, err := generator.Generate(ctx, t, ordered, s.clock.Now())
	if err != nil {
		return nil, err
	}

	err = s.retry.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.store.LockTournament(ctx, tx, t.ID); err != nil {
			return err
		}
		existing, err := s.store.CountMatches(ctx, tx, t.ID)
		if err != nil {
			return err
		}
		if existing > 0 {
			if !opts.Regenerate {
				return fmt.Errorf("%w: %s has %d matches", bracket.ErrBracketExists, t.ID, existing)
			}
			if err := s.store.DeleteMatches(ctx, tx, t.ID); err != nil {
				return fmt.Errorf("failed to discard matches: %w", err)
			}
		}
		if err := s.store.UpdateSeeds(ctx, tx, ordered); err != nil {
			return err
		}
		if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
			return err
		}
		return s.store.MarkOngoing(ctx, tx, t.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "bracket generated",
		"tournament_id", t.ID,
		"format", t.Format,
		"participants", len(ordered),
		"matches", len(matches),
		"regenerated", opts.Regenerate,
	)

	r := make(roster, len(ordered))
	for _, p := range ordered {
		r[p.ID] = p
	}
	n := newNotifier(t, r)
	for _, m := range matches {
		switch m.Status {
		case bracket.MatchActive:
			n.matchReady(m)
		case bracket.MatchBye:
			n.bye(m)
		}
	}
	s.deliver(ctx, n.out)

	return matches, nil
}

func (s *BracketService) load(ctx context.Context, tournamentID uuid.UUID) (*bracket.Tournament, []bracket.Participant, error) {
	var (
		t            *bracket.Tournament
		participants []bracket.Participant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = s.store.GetTournament(gctx, s.db, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		participants, err = s.store.GetParticipants(gctx, s.db, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to get participants: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return t, participants, nil
}

type Round struct {
	Number  int              `json:"number"`
	Matches []*bracket.Match `json:"matches"`
}

// Section is one part of a bracket drawn on its own: the winners side, the
// losers side, the grand final, the round robin table or one group.
type Section struct {
	Side      bracket.Side       `json:"side"`
	Group     int                `json:"group,omitempty"`
	Rounds    []Round            `json:"rounds"`
	Standings []bracket.Standing `json:"standings,omitempty"`
}

type BracketView struct {
	Tournament   *bracket.Tournament   `json:"tournament"`
	Participants []bracket.Participant `json:"participants"`
	Sections     []Section             `json:"sections"`
}

var sideOrder = []bracket.Side{
	bracket.GroupSide,
	bracket.RoundRobinSide,
	bracket.WinnersSide,
	bracket.LosersSide,
	bracket.GrandFinalSide,
}

func (s *BracketService) GetBracket(ctx context.Context, tournamentID uuid.UUID) (*BracketView, error) {
	t, participants, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	matches, err := s.store.GetMatches(ctx, s.db, tournamentID)
	if err != nil {
		return nil, err
	}

	seeds := make(map[uuid.UUID]int, len(participants))
	for _, p := range participants {
		if p.Seed > 0 {
			seeds[p.ID] = p.Seed
		}
	}

	return &BracketView{
		Tournament:   t,
		Participants: participants,
		Sections:     PrepareSections(matches, seeds),
	}, nil
}

// PrepareSections groups matches by side and group, then by round, with
// matches ordered inside each round. Round robin and group sections carry
// their current standings.
func PrepareSections(matches []*bracket.Match, seeds map[uuid.UUID]int) []Section {
	type key struct {
		side  bracket.Side
		group int
	}
	bySection := map[key][]*bracket.Match{}
	var keys []key
	for _, m := range matches {
		k := key{side: m.Side, group: m.GroupNumber}
		if _, ok := bySection[k]; !ok {
			keys = append(keys, k)
		}
		bySection[k] = append(bySection[k], m)
	}

	slices.SortFunc(keys, func(a, b key) int {
		if a.side != b.side {
			return slices.Index(sideOrder, a.side) - slices.Index(sideOrder, b.side)
		}
		return a.group - b.group
	})

	sections := make([]Section, 0, len(keys))
	for _, k := range keys {
		ms := bySection[k]
		sec := Section{Side: k.side, Group: k.group, Rounds: sortRounds(ms)}
		if k.side == bracket.RoundRobinSide || k.side == bracket.GroupSide {
			sec.Standings = bracket.Standings(ms, seeds)
		}
		sections = append(sections, sec)
	}
	return sections
}

func sortRounds(matches []*bracket.Match) []Round {
	byRound := map[int][]*bracket.Match{}
	var roundNums []int
	for _, m := range matches {
		if _, exists := byRound[m.RoundNumber]; !exists {
			roundNums = append(roundNums, m.RoundNumber)
		}
		byRound[m.RoundNumber] = append(byRound[m.RoundNumber], m)
	}
	slices.Sort(roundNums)

	rounds := make([]Round, 0, len(roundNums))
	for _, r := range roundNums {
		ms := byRound[r]
		slices.SortFunc(ms, func(a, b *bracket.Match) int {
			return a.MatchOrder - b.MatchOrder
		})
		rounds = append(rounds, Round{Number: r, Matches: ms})
	}
	return rounds
}

func (s *BracketService) ListMatches(ctx context.Context, tournamentID uuid.UUID, activeOnly bool) ([]*bracket.Match, error) {
	if _, err := s.store.GetTournament(ctx, s.db, tournamentID); err != nil {
		return nil, err
	}
	if activeOnly {
		return s.store.ListActive(ctx, s.db, tournamentID)
	}
	return s.store.GetMatches(ctx, s.db, tournamentID)
}
