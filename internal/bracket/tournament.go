package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentOngoing   TournamentStatus = "ongoing"
	TournamentCompleted TournamentStatus = "completed"
)

type Format string

const (
	SingleElimination Format = "single_elimination"
	DoubleElimination Format = "double_elimination"
	RoundRobin        Format = "round_robin"
	GroupStage        Format = "group_stage"
	Custom            Format = "custom"
)

func (f Format) Valid() bool {
	switch f {
	case SingleElimination, DoubleElimination, RoundRobin, GroupStage, Custom:
		return true
	}
	return false
}

type SeedingPolicy string

const (
	SeedStandard SeedingPolicy = "standard"
	SeedRandom   SeedingPolicy = "random"
)

// DefaultRoundDuration applies when a tournament does not configure its own.
const DefaultRoundDuration = 48 * time.Hour

type Tournament struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	Name          string           `db:"name" json:"name"`
	Format        Format           `db:"format" json:"format"`
	SeedingPolicy SeedingPolicy    `db:"seeding_policy" json:"seeding_policy"`
	Capacity      int              `db:"capacity" json:"capacity"`
	Status        TournamentStatus `db:"status" json:"status"`

	RoundDurationHours    int `db:"round_duration_hours" json:"round_duration_hours"`
	GroupCount            int `db:"group_count" json:"group_count"`
	KnockoutSlotsPerGroup int `db:"knockout_slots_per_group" json:"knockout_slots_per_group"`
	GroupStageThreshold   int `db:"group_stage_threshold" json:"group_stage_threshold"`

	WinnerID    *uuid.UUID `db:"winner_id" json:"winner_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at"`
	// Version counts bracket transactions; see store.LockTournament.
	Version int `db:"version" json:"version"`
}

func (t *Tournament) RoundDuration() time.Duration {
	if t.RoundDurationHours <= 0 {
		return DefaultRoundDuration
	}
	return time.Duration(t.RoundDurationHours) * time.Hour
}
