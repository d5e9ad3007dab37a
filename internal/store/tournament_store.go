package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrConflict means a compare-and-swap update found the row changed since it
// was read. The retry policy treats it as transient.
var ErrConflict = errors.New("concurrent modification")

// TournamentStore reads and writes tournaments, participants and matches.
// Methods take the executor to run on so callers can use the pool or an open
// transaction.
type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, q sqlx.ExtContext, t *bracket.Tournament) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO tournaments (id, name, format, seeding_policy, capacity, status,
		round_duration_hours, group_count, knockout_slots_per_group, group_stage_threshold, winner_id, created_at, completed_at)
		VALUES (:id, :name, :format, :seeding_policy, :capacity, :status,
		:round_duration_hours, :group_count, :knockout_slots_per_group, :group_stage_threshold, :winner_id, :created_at, :completed_at)`, t)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*bracket.Tournament, error) {
	var t bracket.Tournament
	err := sqlx.GetContext(ctx, q, &t, q.Rebind("SELECT * FROM tournaments WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", bracket.ErrTournamentNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// LockTournament bumps the tournament's version, holding the row lock until q
// commits. Bracket transactions take it before reading any round, so
// transactions on one tournament run one after another and each sees the
// matches the previous one resolved.
func (s *TournamentStore) LockTournament(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, q.Rebind("UPDATE tournaments SET version = version + 1 WHERE id = ?"), id)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, fmt.Errorf("%w: %s", bracket.ErrTournamentNotFound, id))
}

func (s *TournamentStore) ListOngoing(ctx context.Context) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, s.db.Rebind("SELECT * FROM tournaments WHERE status = ? ORDER BY created_at ASC"),
		bracket.TournamentOngoing)
	return tournaments, err
}

// MarkOngoing flips an upcoming or ongoing tournament to ongoing. A completed
// tournament is left alone and reported as ErrTournamentCompleted.
func (s *TournamentStore) MarkOngoing(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, q.Rebind("UPDATE tournaments SET status = ? WHERE id = ? AND status <> ?"),
		bracket.TournamentOngoing, id, bracket.TournamentCompleted)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, fmt.Errorf("%w: %s", bracket.ErrTournamentCompleted, id))
}

// Complete flips an ongoing tournament to completed. The status guard makes
// the transition happen exactly once.
func (s *TournamentStore) Complete(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, winner *uuid.UUID, at time.Time) error {
	res, err := q.ExecContext(ctx, q.Rebind("UPDATE tournaments SET status = ?, winner_id = ?, completed_at = ? WHERE id = ? AND status = ?"),
		bracket.TournamentCompleted, winner, at.UTC(), id, bracket.TournamentOngoing)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, fmt.Errorf("%w: %s", bracket.ErrTournamentCompleted, id))
}

func (s *TournamentStore) CreateParticipants(ctx context.Context, q sqlx.ExtContext, participants []bracket.Participant) error {
	if len(participants) == 0 {
		return nil
	}
	for i := range participants {
		if participants[i].JoinedAt.IsZero() {
			participants[i].JoinedAt = time.Now().UTC()
		}
	}
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO participants (id, tournament_id, user_id, skill, seed, joined_at)
		VALUES (:id, :tournament_id, :user_id, :skill, :seed, :joined_at)`, participants)
	return err
}

func (s *TournamentStore) GetParticipants(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) ([]bracket.Participant, error) {
	var participants []bracket.Participant
	err := sqlx.SelectContext(ctx, q, &participants,
		q.Rebind("SELECT * FROM participants WHERE tournament_id = ? ORDER BY joined_at ASC, id ASC"), tournamentID)
	return participants, err
}

// UpdateSeeds records the seed generation assigned to each participant.
func (s *TournamentStore) UpdateSeeds(ctx context.Context, q sqlx.ExtContext, participants []bracket.Participant) error {
	query := q.Rebind("UPDATE participants SET seed = ? WHERE id = ?")
	for _, p := range participants {
		if _, err := q.ExecContext(ctx, query, p.Seed, p.ID); err != nil {
			return fmt.Errorf("failed to update seed of %s: %w", p.ID, err)
		}
	}
	return nil
}

func checkAffectedRows(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
