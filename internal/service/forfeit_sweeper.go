package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Outcome string

const (
	OutcomeForfeitWin    Outcome = "forfeit_win"
	OutcomeDoubleForfeit Outcome = "double_forfeit"
	OutcomeDisputed      Outcome = "disputed"
)

type ForfeitResult struct {
	MatchID  uuid.UUID          `json:"match_id"`
	Position string             `json:"position"`
	Outcome  Outcome            `json:"outcome"`
	Winner   *uuid.UUID         `json:"winner,omitempty"`
	Result   *ProgressionResult `json:"result,omitempty"`
}

type SweeperConfig struct {
	ReminderLead time.Duration
	WarningLead  time.Duration
}

// ForfeitSweeper enforces match deadlines: it closes matches whose deadline
// passed and reminds players of deadlines coming up.
type ForfeitSweeper struct {
	engine
	cfg SweeperConfig
}

func NewForfeitSweeper(db *sqlx.DB, st *store.TournamentStore, sink notify.Sink, cfg SweeperConfig, opts ...Option) *ForfeitSweeper {
	return &ForfeitSweeper{engine: newEngine(db, st, sink, opts), cfg: cfg}
}

// SweepExpired handles every active match of the tournament whose deadline
// is before now. A side that reported in time wins by forfeit, a match
// nobody reported becomes a double forfeit and a match both sides reported
// is left alone as disputed. Each match is settled in its own transaction;
// matches that fail are skipped and their errors joined into the returned
// error.
func (s *ForfeitSweeper) SweepExpired(ctx context.Context, tournamentID uuid.UUID, now time.Time) ([]ForfeitResult, error) {
	now = now.UTC()
	active, err := s.store.ListActive(ctx, s.db, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active matches: %w", err)
	}

	var (
		results []ForfeitResult
		errs    []error
	)
	for _, m := range active {
		if !expired(m, now) {
			continue
		}
		res, err := s.sweepMatch(ctx, m.ID, now)
		switch {
		case errors.Is(err, bracket.ErrAlreadyResolved), errors.Is(err, bracket.ErrTournamentCompleted):
			s.logger.DebugContext(ctx, "match settled before sweep", "match_id", m.ID)
		case err != nil:
			s.logger.ErrorContext(ctx, "failed to sweep match", "match_id", m.ID, "position", m.Token(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", m.Token(), err))
		case res != nil:
			results = append(results, *res)
		}
	}

	if len(results) > 0 {
		s.logger.InfoContext(ctx, "forfeit sweep finished", "tournament_id", tournamentID, "settled", len(results))
	}
	return results, errors.Join(errs...)
}

func expired(m *bracket.Match, now time.Time) bool {
	return m.Status == bracket.MatchActive && m.Deadline != nil && now.After(*m.Deadline)
}

func (s *ForfeitSweeper) sweepMatch(ctx context.Context, matchID uuid.UUID, now time.Time) (*ForfeitResult, error) {
	var (
		out   *ForfeitResult
		notes []notify.Notification
	)
	err := s.retry.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		out, notes = nil, nil
		m, err := s.store.GetMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if m.Terminal() {
			return &bracket.MatchError{Err: bracket.ErrAlreadyResolved, MatchID: m.ID, Position: m.Position(), Expected: "active", Actual: string(m.Status)}
		}
		if !expired(m, now) {
			return nil
		}

		p1, p2 := m.Submitted(1), m.Submitted(2)
		out = &ForfeitResult{MatchID: m.ID, Position: m.Token()}
		switch {
		case p1 && p2:
			out.Outcome = OutcomeDisputed
			return nil
		case p1 || p2:
			winner := *m.Player1ID
			if p2 {
				winner = *m.Player2ID
			}
			res, ns, err := s.resolve(ctx, tx, m, winner, bracket.Result{Forfeit: true}, now)
			if err != nil {
				return err
			}
			out.Outcome, out.Winner, out.Result = OutcomeForfeitWin, &winner, res
			notes = ns
			return nil
		}

		sess, err := s.open(ctx, tx, m.TournamentID, now)
		if err != nil {
			return err
		}
		sess.board.Add(m)
		note := fmt.Sprintf("double forfeit: no result reported by %s", m.Deadline.Format(time.RFC3339))
		forfeited, err := sess.board.DoubleForfeit(ctx, m.Position(), note)
		if err != nil {
			return err
		}
		if err := s.flush(ctx, tx, sess); err != nil {
			return err
		}
		out.Outcome = OutcomeDoubleForfeit

		n := newNotifier(sess.tournament, sess.roster)
		n.doubleForfeit(forfeited)
		n.events(sess.board.Events())
		notes = n.out
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out != nil && out.Outcome == OutcomeDisputed {
		s.logger.WarnContext(ctx, "deadline passed on disputed match", "match_id", out.MatchID, "position", out.Position)
	}
	s.deliver(ctx, notes)
	return out, nil
}

// SendReminders notifies both players of active matches whose deadline is
// within the reminder lead, and once more within the warning lead. Each is
// sent at most once per match. It returns how many matches were notified.
func (s *ForfeitSweeper) SendReminders(ctx context.Context, tournamentID uuid.UUID, now time.Time) (int, error) {
	var (
		sent  int
		notes []notify.Notification
	)
	err := s.retry.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		sent, notes = 0, nil
		t, err := s.store.GetTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		active, err := s.store.ListActive(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		participants, err := s.store.GetParticipants(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		r := make(roster, len(participants))
		for _, p := range participants {
			r[p.ID] = p
		}
		n := newNotifier(t, r)

		for _, m := range active {
			typ, ok := s.reminderDue(m, now)
			if !ok {
				continue
			}
			m.ReminderSent = true
			if typ == notify.DeadlineWarning {
				m.WarningSent = true
			}
			if err := s.store.UpdateMatch(ctx, tx, m, m.Version); err != nil {
				return err
			}
			n.deadline(m, typ)
			sent++
		}
		notes = n.out
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.deliver(ctx, notes)
	return sent, nil
}

func (s *ForfeitSweeper) reminderDue(m *bracket.Match, now time.Time) (notify.Type, bool) {
	if m.Deadline == nil || !now.Before(*m.Deadline) {
		return "", false
	}
	left := m.Deadline.Sub(now)
	switch {
	case left <= s.cfg.WarningLead && !m.WarningSent:
		return notify.DeadlineWarning, true
	case left <= s.cfg.ReminderLead && !m.ReminderSent:
		return notify.DeadlineReminder, true
	}
	return "", false
}
