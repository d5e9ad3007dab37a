package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	MatchReady       Type = "match_ready"
	ByeAdvanced      Type = "bye_advanced"
	DeadlineReminder Type = "deadline_reminder"
	DeadlineWarning  Type = "deadline_warning"
	ForfeitWin       Type = "forfeit_win"
	ForfeitLoss      Type = "forfeit_loss"
	DoubleForfeit    Type = "double_forfeit"
	TournamentWinner Type = "tournament_winner"
)

// Notification is a request for the delivery service to tell a user
// something. Delivery and read state are not tracked here.
type Notification struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	RecipientID  uuid.UUID  `db:"recipient_id" json:"recipient_id"`
	TournamentID uuid.UUID  `db:"tournament_id" json:"tournament_id"`
	MatchID      *uuid.UUID `db:"match_id" json:"match_id,omitempty"`
	Type         Type       `db:"type" json:"type"`
	Title        string     `db:"title" json:"title"`
	Message      string     `db:"message" json:"message"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Sink accepts notification requests. Implementations must not block past
// the context deadline.
type Sink interface {
	Enqueue(ctx context.Context, notifications []Notification) error
}

// LogSink writes notifications to a logger instead of delivering them.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Enqueue(ctx context.Context, notifications []Notification) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, n := range notifications {
		logger.InfoContext(ctx, "notification",
			"type", n.Type,
			"recipient_id", n.RecipientID,
			"tournament_id", n.TournamentID,
			"title", n.Title,
		)
	}
	return nil
}

// Fanout enqueues into every sink and returns the first error after trying
// them all.
type Fanout []Sink

func (f Fanout) Enqueue(ctx context.Context, notifications []Notification) error {
	var first error
	for _, s := range f {
		if err := s.Enqueue(ctx, notifications); err != nil && first == nil {
			first = err
		}
	}
	return first
}
