package bracket

import (
	"time"

	"github.com/google/uuid"
)

type Participant struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	Skill        *int      `db:"skill" json:"skill"`
	Seed         int       `db:"seed" json:"seed"`
	JoinedAt     time.Time `db:"joined_at" json:"joined_at"`
}

const (
	MinParticipants = 2
	MaxParticipants = 128
)
