package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
)

const defaultNotifyTimeout = 5 * time.Second

type Option func(*engine)

func WithClock(clock clockwork.Clock) Option {
	return func(e *engine) { e.clock = clock }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *engine) { e.logger = logger }
}

func WithRetryPolicy(policy store.RetryPolicy) Option {
	return func(e *engine) { e.retry = policy }
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(e *engine) { e.notifyTimeout = d }
}

// engine holds what every service needs to run bracket operations against
// the store and tell people about the outcome.
type engine struct {
	db            *sqlx.DB
	store         *store.TournamentStore
	sink          notify.Sink
	clock         clockwork.Clock
	logger        *slog.Logger
	retry         store.RetryPolicy
	notifyTimeout time.Duration
}

func newEngine(db *sqlx.DB, st *store.TournamentStore, sink notify.Sink, opts []Option) engine {
	e := engine{
		db:            db,
		store:         st,
		sink:          sink,
		clock:         clockwork.NewRealClock(),
		logger:        slog.Default(),
		retry:         store.DefaultRetryPolicy(),
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(&e)
	}
	if e.sink == nil {
		e.sink = notify.LogSink{Logger: e.logger}
	}
	return e
}

// roster maps participants to the users behind them.
type roster map[uuid.UUID]bracket.Participant

func (r roster) user(participantID *uuid.UUID) (uuid.UUID, bool) {
	if participantID == nil {
		return uuid.Nil, false
	}
	p, ok := r[*participantID]
	return p.UserID, ok
}

// session is one bracket operation inside a transaction.
type session struct {
	tournament *bracket.Tournament
	board      *bracket.Board
	roster     roster
}

// open locks the tournament for the rest of tx and loads what the board
// needs. Reads made after the lock see every bracket change committed before it.
func (e *engine) open(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, now time.Time) (*session, error) {
	if err := e.store.LockTournament(ctx, tx, tournamentID); err != nil {
		return nil, err
	}
	t, err := e.store.GetTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status == bracket.TournamentCompleted {
		return nil, fmt.Errorf("%w: %s", bracket.ErrTournamentCompleted, t.ID)
	}

	participants, err := e.store.GetParticipants(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}

	board := bracket.NewBoard(t, e.store.Source(tx), now)
	r := make(roster, len(participants))
	for _, p := range participants {
		r[p.ID] = p
		if p.Seed > 0 {
			board.Seeds[p.ID] = p.Seed
		}
	}
	return &session{tournament: t, board: board, roster: r}, nil
}

// flush writes every match the board changed and closes the tournament if
// the board finished it.
func (e *engine) flush(ctx context.Context, tx *sqlx.Tx, s *session) error {
	for _, c := range s.board.Changes() {
		if err := e.store.UpdateMatch(ctx, tx, c.Match, c.PrevVersion); err != nil {
			return fmt.Errorf("failed to update %s: %w", c.Match.Token(), err)
		}
	}
	if done, winner := s.board.Completed(); done {
		if err := e.store.Complete(ctx, tx, s.tournament.ID, winner, s.board.Now); err != nil {
			return fmt.Errorf("failed to complete tournament: %w", err)
		}
	}
	return nil
}

// deliver hands notifications to the sink after the transaction committed.
// Delivery problems never fail the operation that produced them.
func (e *engine) deliver(ctx context.Context, notifications []notify.Notification) {
	if len(notifications) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.notifyTimeout)
	defer cancel()

	if err := e.sink.Enqueue(ctx, notifications); err != nil {
		e.logger.WarnContext(ctx, "failed to enqueue notifications", "count", len(notifications), "error", err)
	}
}
