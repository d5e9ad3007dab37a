package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var startTime = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

type harness struct {
	db          *sqlx.DB
	store       *store.TournamentStore
	outbox      *store.NotificationStore
	clock       *clockwork.FakeClock
	brackets    *BracketService
	progression *ProgressionService
	sweeper     *ForfeitSweeper
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	st := store.NewTournamentStore(db)
	outbox := store.NewNotificationStore(db)
	clock := clockwork.NewFakeClockAt(startTime)
	opts := []Option{
		WithClock(clock),
		WithRetryPolicy(store.RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}),
	}

	return &harness{
		db:          db,
		store:       st,
		outbox:      outbox,
		clock:       clock,
		brackets:    NewBracketService(db, st, outbox, opts...),
		progression: NewProgressionService(db, st, outbox, opts...),
		sweeper: NewForfeitSweeper(db, st, outbox, SweeperConfig{
			ReminderLead: 24 * time.Hour,
			WarningLead:  2 * time.Hour,
		}, opts...),
	}
}

// tournament creates a tournament with n participants who joined in seed
// order, so standard seeding numbers them 1..n as returned.
func (h *harness) tournament(t *testing.T, tmpl bracket.Tournament, n int) (*bracket.Tournament, []bracket.Participant) {
	t.Helper()
	ctx := context.Background()

	tournament := tmpl
	tournament.ID = uuid.New()
	if tournament.Name == "" {
		tournament.Name = "Weekly Cup"
	}
	if tournament.SeedingPolicy == "" {
		tournament.SeedingPolicy = bracket.SeedStandard
	}
	tournament.Capacity = n
	tournament.Status = bracket.TournamentUpcoming
	require.NoError(t, h.store.CreateTournament(ctx, h.db, &tournament))

	participants := make([]bracket.Participant, n)
	for i := range participants {
		participants[i] = bracket.Participant{
			ID:           uuid.New(),
			TournamentID: tournament.ID,
			UserID:       uuid.New(),
			JoinedAt:     startTime.Add(-time.Hour + time.Duration(i)*time.Minute),
		}
	}
	require.NoError(t, h.store.CreateParticipants(ctx, h.db, participants))
	return &tournament, participants
}

func (h *harness) generate(t *testing.T, tmpl bracket.Tournament, n int) (*bracket.Tournament, []bracket.Participant) {
	t.Helper()
	tournament, participants := h.tournament(t, tmpl, n)
	_, err := h.brackets.Generate(context.Background(), tournament.ID, GenerateOptions{})
	require.NoError(t, err)
	return tournament, participants
}

func (h *harness) match(t *testing.T, tournamentID uuid.UUID, token string) *bracket.Match {
	t.Helper()
	pos, err := bracket.ParsePosition(token)
	require.NoError(t, err)
	m, err := h.store.MatchAt(context.Background(), h.db, tournamentID, pos)
	require.NoError(t, err)
	return m
}

func (h *harness) notifications(t *testing.T, tournamentID uuid.UUID, typ notify.Type) []notify.Notification {
	t.Helper()
	all, err := h.outbox.ListByTournament(context.Background(), tournamentID)
	require.NoError(t, err)
	var out []notify.Notification
	for _, n := range all {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}
