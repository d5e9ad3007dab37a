package store

import (
	"context"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// NotificationStore is an outbox: it implements notify.Sink by writing the
// requests to a table a delivery worker drains.
type NotificationStore struct {
	db *sqlx.DB
}

func NewNotificationStore(db *sqlx.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Enqueue(ctx context.Context, notifications []notify.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range notifications {
		if notifications[i].ID == uuid.Nil {
			notifications[i].ID = uuid.New()
		}
		if notifications[i].CreatedAt.IsZero() {
			notifications[i].CreatedAt = now
		}
	}

	_, err := s.db.NamedExecContext(ctx, `INSERT INTO notifications (id, recipient_id, tournament_id, match_id, type, title, message, created_at)
		VALUES (:id, :recipient_id, :tournament_id, :match_id, :type, :title, :message, :created_at)`, notifications)
	return err
}

func (s *NotificationStore) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]notify.Notification, error) {
	var notifications []notify.Notification
	err := s.db.SelectContext(ctx, &notifications,
		s.db.Rebind("SELECT * FROM notifications WHERE tournament_id = ? ORDER BY created_at ASC, type ASC"), tournamentID)
	return notifications, err
}
