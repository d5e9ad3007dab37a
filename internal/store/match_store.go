package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// insertBatch keeps a batch of matches under SQLite's bound parameter limit.
const insertBatch = 25

const insertMatchQuery = `INSERT INTO matches (id, tournament_id, side, group_number, round_number, match_order,
	player1_id, player2_id, slot1_vacant, slot2_vacant, winner_id, score1, score2, forfeit, status, completed_at,
	depends_on, feeds_into, feeds_into_slot, loser_feeds_into, loser_feeds_into_slot,
	deadline, reminder_sent, warning_sent, admin_notes, version, created_at)
	VALUES (:id, :tournament_id, :side, :group_number, :round_number, :match_order,
	:player1_id, :player2_id, :slot1_vacant, :slot2_vacant, :winner_id, :score1, :score2, :forfeit, :status, :completed_at,
	:depends_on, :feeds_into, :feeds_into_slot, :loser_feeds_into, :loser_feeds_into_slot,
	:deadline, :reminder_sent, :warning_sent, :admin_notes, :version, :created_at)`

const matchOrder = " ORDER BY side ASC, group_number ASC, round_number ASC, match_order ASC"

// CreateMatches inserts a generated match set in batches.
func (s *TournamentStore) CreateMatches(ctx context.Context, q sqlx.ExtContext, matches []*bracket.Match) error {
	for start := 0; start < len(matches); start += insertBatch {
		end := min(start+insertBatch, len(matches))
		if _, err := sqlx.NamedExecContext(ctx, q, insertMatchQuery, matches[start:end]); err != nil {
			return fmt.Errorf("failed to insert matches: %w", err)
		}
	}
	return nil
}

// DeleteMatches drops every match of a tournament. Only bracket regeneration
// does this.
func (s *TournamentStore) DeleteMatches(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) error {
	_, err := q.ExecContext(ctx, q.Rebind("DELETE FROM matches WHERE tournament_id = ?"), tournamentID)
	return err
}

func (s *TournamentStore) CountMatches(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n, q.Rebind("SELECT COUNT(*) FROM matches WHERE tournament_id = ?"), tournamentID)
	return n, err
}

func (s *TournamentStore) GetMatch(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*bracket.Match, error) {
	var m bracket.Match
	err := sqlx.GetContext(ctx, q, &m, q.Rebind("SELECT * FROM matches WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", bracket.ErrMatchNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *TournamentStore) GetMatches(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) ([]*bracket.Match, error) {
	var matches []*bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches, q.Rebind("SELECT * FROM matches WHERE tournament_id = ?"+matchOrder), tournamentID)
	return matches, err
}

// MatchAt looks a match up by its bracket position.
func (s *TournamentStore) MatchAt(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID, pos bracket.Position) (*bracket.Match, error) {
	var m bracket.Match
	err := sqlx.GetContext(ctx, q, &m, q.Rebind(`SELECT * FROM matches
		WHERE tournament_id = ? AND side = ? AND group_number = ? AND round_number = ? AND match_order = ?`),
		tournamentID, pos.Side, pos.Group, pos.Round, pos.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", bracket.ErrMatchNotFound, pos)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetRound returns all matches of one round, used by round completion checks.
func (s *TournamentStore) GetRound(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID, side bracket.Side, group, round int) ([]*bracket.Match, error) {
	var matches []*bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches, q.Rebind(`SELECT * FROM matches
		WHERE tournament_id = ? AND side = ? AND group_number = ? AND round_number = ? ORDER BY match_order ASC`),
		tournamentID, side, group, round)
	return matches, err
}

func (s *TournamentStore) GetStage(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID, side bracket.Side, group int) ([]*bracket.Match, error) {
	var matches []*bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches, q.Rebind(`SELECT * FROM matches
		WHERE tournament_id = ? AND side = ? AND group_number = ? ORDER BY round_number ASC, match_order ASC`),
		tournamentID, side, group)
	return matches, err
}

// ListActive returns the tournament's matches that are being played.
func (s *TournamentStore) ListActive(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) ([]*bracket.Match, error) {
	var matches []*bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches, q.Rebind("SELECT * FROM matches WHERE tournament_id = ? AND status = ?"+matchOrder),
		tournamentID, bracket.MatchActive)
	return matches, err
}

// UpdateMatch writes every mutable column of m if the row is still at
// prevVersion, and bumps the version. A lost race returns ErrConflict.
func (s *TournamentStore) UpdateMatch(ctx context.Context, q sqlx.ExtContext, m *bracket.Match, prevVersion int) error {
	next := *m
	next.Version = prevVersion + 1

	query, args, err := sqlx.Named(`UPDATE matches SET
		player1_id = :player1_id, player2_id = :player2_id,
		slot1_vacant = :slot1_vacant, slot2_vacant = :slot2_vacant,
		winner_id = :winner_id, score1 = :score1, score2 = :score2, forfeit = :forfeit,
		status = :status, completed_at = :completed_at, deadline = :deadline,
		reminder_sent = :reminder_sent, warning_sent = :warning_sent,
		player1_reported_at = :player1_reported_at, player1_claim = :player1_claim,
		player2_reported_at = :player2_reported_at, player2_claim = :player2_claim,
		admin_notes = :admin_notes, version = :version
		WHERE id = :id AND version = `+fmt.Sprint(prevVersion), &next)
	if err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return err
	}
	if err := checkAffectedRows(res, fmt.Errorf("%w: match %s", ErrConflict, m.ID)); err != nil {
		return err
	}
	m.Version = next.Version
	return nil
}

// Source serves a bracket board from the store through q, usually an open
// transaction.
func (s *TournamentStore) Source(q sqlx.ExtContext) bracket.Source {
	return &source{store: s, q: q}
}

type source struct {
	store *TournamentStore
	q     sqlx.ExtContext
}

func (src *source) MatchAt(ctx context.Context, tournamentID uuid.UUID, pos bracket.Position) (*bracket.Match, error) {
	return src.store.MatchAt(ctx, src.q, tournamentID, pos)
}

func (src *source) Round(ctx context.Context, tournamentID uuid.UUID, side bracket.Side, group, round int) ([]*bracket.Match, error) {
	return src.store.GetRound(ctx, src.q, tournamentID, side, group, round)
}

func (src *source) Stage(ctx context.Context, tournamentID uuid.UUID, side bracket.Side, group int) ([]*bracket.Match, error) {
	return src.store.GetStage(ctx, src.q, tournamentID, side, group)
}
