package service

import (
	"context"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ProgressionService struct {
	engine
}

func NewProgressionService(db *sqlx.DB, st *store.TournamentStore, sink notify.Sink, opts ...Option) *ProgressionService {
	return &ProgressionService{engine: newEngine(db, st, sink, opts)}
}

// ProgressionResult describes everything a single resolution changed.
type ProgressionResult struct {
	Match *bracket.Match `json:"match"`
	// AlreadyResolved is set when the same result had been recorded before;
	// nothing else in the result is filled in then.
	AlreadyResolved     bool             `json:"already_resolved"`
	AdvancedToNextRound bool             `json:"advanced_to_next_round"`
	NextMatch           *bracket.Match   `json:"next_match,omitempty"`
	RoundComplete       bool             `json:"round_complete"`
	Activated           []*bracket.Match `json:"activated,omitempty"`
	TournamentComplete  bool             `json:"tournament_complete"`
	Winner              *uuid.UUID       `json:"winner,omitempty"`
}

// ResolveMatch records winnerID as the winner of the match and advances the
// bracket: the winner and loser move into the matches they feed, byes that
// opens up are settled, completed rounds activate the next one and the
// tournament closes once its final is decided.
func (s *ProgressionService) ResolveMatch(ctx context.Context, matchID, winnerID uuid.UUID, res bracket.Result) (*ProgressionResult, error) {
	var (
		out   *ProgressionResult
		notes []notify.Notification
	)
	err := s.retry.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		m, err := s.store.GetMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if m.Terminal() && m.WinnerID != nil && *m.WinnerID == winnerID {
			out, notes = &ProgressionResult{Match: m, AlreadyResolved: true}, nil
			return nil
		}
		if err := resolvable(m); err != nil {
			return err
		}

		out, notes, err = s.resolve(ctx, tx, m, winnerID, res, s.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	if !out.AlreadyResolved {
		s.logger.InfoContext(ctx, "match resolved",
			"match_id", out.Match.ID,
			"position", out.Match.Token(),
			"winner_id", winnerID,
			"forfeit", res.Forfeit,
			"activated", len(out.Activated),
			"tournament_complete", out.TournamentComplete,
		)
	}
	s.deliver(ctx, notes)
	return out, nil
}

// resolve runs a resolution inside tx. The caller owns the transaction.
func (e *engine) resolve(ctx context.Context, tx *sqlx.Tx, m *bracket.Match, winnerID uuid.UUID, res bracket.Result, now time.Time) (*ProgressionResult, []notify.Notification, error) {
	sess, err := e.open(ctx, tx, m.TournamentID, now)
	if err != nil {
		return nil, nil, err
	}
	sess.board.Add(m)

	resolved, err := sess.board.Resolve(ctx, m.Position(), winnerID, res)
	if err != nil {
		return nil, nil, err
	}
	if err := e.flush(ctx, tx, sess); err != nil {
		return nil, nil, err
	}

	out, err := e.result(ctx, sess, resolved)
	if err != nil {
		return nil, nil, err
	}

	n := newNotifier(sess.tournament, sess.roster)
	if res.Forfeit {
		n.forfeit(resolved)
	}
	n.events(sess.board.Events())
	return out, n.out, nil
}

func (e *engine) result(ctx context.Context, sess *session, m *bracket.Match) (*ProgressionResult, error) {
	out := &ProgressionResult{Match: m}

	if m.FeedsInto != nil && m.WinnerID != nil {
		next, err := sess.board.Match(ctx, *m.FeedsInto)
		if err != nil {
			return nil, err
		}
		out.AdvancedToNextRound = true
		out.NextMatch = next
	}

	for _, ev := range sess.board.Events() {
		switch ev.Type {
		case bracket.EventRoundComplete:
			if ev.Side == m.Side && ev.Group == m.GroupNumber && ev.Round == m.RoundNumber {
				out.RoundComplete = true
			}
		case bracket.EventMatchReady:
			out.Activated = append(out.Activated, ev.Match)
		}
	}

	out.TournamentComplete, out.Winner = sess.board.Completed()
	return out, nil
}

// resolvable rejects matches that cannot take a result, before the tournament
// is opened: a decided match stays ErrAlreadyResolved after the tournament
// completes.
func resolvable(m *bracket.Match) error {
	switch m.Status {
	case bracket.MatchReady, bracket.MatchActive:
		return nil
	case bracket.MatchPending:
		return &bracket.MatchError{Err: bracket.ErrMatchNotReady, MatchID: m.ID, Position: m.Position(), Expected: "active", Actual: string(m.Status)}
	default:
		return &bracket.MatchError{Err: bracket.ErrAlreadyResolved, MatchID: m.ID, Position: m.Position(), Expected: "active", Actual: string(m.Status)}
	}
}

type ReportResult struct {
	Match    *bracket.Match `json:"match"`
	Disputed bool           `json:"disputed"`
	// Resolution is set when this report agreed with the opponent's and
	// decided the match.
	Resolution *ProgressionResult `json:"resolution,omitempty"`
}

// SubmitReport records one side's claim about who won. Two matching claims
// resolve the match; conflicting claims leave it for an organizer.
func (s *ProgressionService) SubmitReport(ctx context.Context, matchID, reporterID, claimedWinner uuid.UUID, res bracket.Result) (*ReportResult, error) {
	var (
		out   *ReportResult
		notes []notify.Notification
	)
	err := s.retry.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		out, notes = nil, nil
		m, err := s.store.GetMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}

		if err := resolvable(m); err != nil {
			return err
		}

		slot := m.SlotOf(reporterID)
		if slot == 0 {
			return fmt.Errorf("%w: %s did not play %s", bracket.ErrNotInMatch, reporterID, m.Token())
		}
		if m.SlotOf(claimedWinner) == 0 {
			return &bracket.MatchError{Err: bracket.ErrInvalidWinner, MatchID: m.ID, Position: m.Position(),
				Expected: m.Player1ID.String() + " or " + m.Player2ID.String(), Actual: claimedWinner.String()}
		}

		now := s.clock.Now().UTC()
		claim := claimedWinner
		other := m.Player2Claim
		if slot == 1 {
			m.Player1ReportedAt, m.Player1Claim = &now, &claim
		} else {
			m.Player2ReportedAt, m.Player2Claim = &now, &claim
			other = m.Player1Claim
		}

		if other == nil {
			out = &ReportResult{Match: m}
			return s.store.UpdateMatch(ctx, tx, m, m.Version)
		}
		if *other != claimedWinner {
			out = &ReportResult{Match: m, Disputed: true}
			return s.store.UpdateMatch(ctx, tx, m, m.Version)
		}

		resolution, ns, err := s.resolve(ctx, tx, m, claimedWinner, res, now)
		if err != nil {
			return err
		}
		out, notes = &ReportResult{Match: resolution.Match, Resolution: resolution}, ns
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Disputed {
		s.logger.WarnContext(ctx, "conflicting match reports", "match_id", matchID, "position", out.Match.Token())
	}
	s.deliver(ctx, notes)
	return out, nil
}

// OverrideDoubleForfeit lets an organizer decide how the bracket continues
// after a double forfeit: advancing names the player to move on, nil sends
// nobody and gives the waiting opponent a bye.
func (s *ProgressionService) OverrideDoubleForfeit(ctx context.Context, matchID uuid.UUID, advancing *uuid.UUID, notes string) (*ProgressionResult, error) {
	var (
		out     *ProgressionResult
		pending []notify.Notification
	)
	err := s.retry.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		m, err := s.store.GetMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		sess, err := s.open(ctx, tx, m.TournamentID, s.clock.Now())
		if err != nil {
			return err
		}
		sess.board.Add(m)

		overridden, err := sess.board.Override(ctx, m.Position(), advancing, notes)
		if err != nil {
			return err
		}
		if err := s.flush(ctx, tx, sess); err != nil {
			return err
		}
		if out, err = s.result(ctx, sess, overridden); err != nil {
			return err
		}

		n := newNotifier(sess.tournament, sess.roster)
		if advancing != nil {
			n.forfeit(overridden)
		}
		n.events(sess.board.Events())
		pending = n.out
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "double forfeit overridden",
		"match_id", matchID,
		"advancing", advancing,
		"tournament_complete", out.TournamentComplete,
	)
	s.deliver(ctx, pending)
	return out, nil
}
