package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchReady     MatchStatus = "ready"
	MatchActive    MatchStatus = "active"
	MatchCompleted MatchStatus = "completed"
	MatchBye       MatchStatus = "bye"
)

// Match is the persisted shape of a bracket match. Code outside this package
// reads it through State and never flips Status by hand.
type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`

	// Position in the tournament
	Side        Side `db:"side" json:"side"`
	GroupNumber int  `db:"group_number" json:"group_number"`
	RoundNumber int  `db:"round_number" json:"round_number"`
	MatchOrder  int  `db:"match_order" json:"match_order"`

	Player1ID   *uuid.UUID `db:"player1_id" json:"player1_id"`
	Player2ID   *uuid.UUID `db:"player2_id" json:"player2_id"`
	Slot1Vacant bool       `db:"slot1_vacant" json:"slot1_vacant"`
	Slot2Vacant bool       `db:"slot2_vacant" json:"slot2_vacant"`

	WinnerID    *uuid.UUID  `db:"winner_id" json:"winner_id"`
	Score1      *int        `db:"score1" json:"score1"`
	Score2      *int        `db:"score2" json:"score2"`
	Forfeit     bool        `db:"forfeit" json:"forfeit"`
	Status      MatchStatus `db:"status" json:"status"`
	CompletedAt *time.Time  `db:"completed_at" json:"completed_at"`

	DependsOn          Positions `db:"depends_on" json:"depends_on"`
	FeedsInto          *Position `db:"feeds_into" json:"feeds_into"`
	FeedsIntoSlot      *int      `db:"feeds_into_slot" json:"feeds_into_slot"`
	LoserFeedsInto     *Position `db:"loser_feeds_into" json:"loser_feeds_into"`
	LoserFeedsIntoSlot *int      `db:"loser_feeds_into_slot" json:"loser_feeds_into_slot"`

	Deadline     *time.Time `db:"deadline" json:"deadline"`
	ReminderSent bool       `db:"reminder_sent" json:"reminder_sent"`
	WarningSent  bool       `db:"warning_sent" json:"warning_sent"`

	Player1ReportedAt *time.Time `db:"player1_reported_at" json:"player1_reported_at"`
	Player1Claim      *uuid.UUID `db:"player1_claim" json:"player1_claim"`
	Player2ReportedAt *time.Time `db:"player2_reported_at" json:"player2_reported_at"`
	Player2Claim      *uuid.UUID `db:"player2_claim" json:"player2_claim"`
	AdminNotes        *string    `db:"admin_notes" json:"admin_notes"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (m *Match) Position() Position {
	return Position{Side: m.Side, Group: m.GroupNumber, Round: m.RoundNumber, Order: m.MatchOrder}
}

func (m *Match) Token() string {
	return m.Position().Token()
}

func (m *Match) Player(slot int) *uuid.UUID {
	if slot == 1 {
		return m.Player1ID
	}
	return m.Player2ID
}

func (m *Match) SlotVacant(slot int) bool {
	if slot == 1 {
		return m.Slot1Vacant
	}
	return m.Slot2Vacant
}

// SlotOf reports which slot holds the participant, or 0.
func (m *Match) SlotOf(id uuid.UUID) int {
	if m.Player1ID != nil && *m.Player1ID == id {
		return 1
	}
	if m.Player2ID != nil && *m.Player2ID == id {
		return 2
	}
	return 0
}

// Loser is only defined for a completed match with a winner.
func (m *Match) Loser() *uuid.UUID {
	if m.Status != MatchCompleted || m.WinnerID == nil {
		return nil
	}
	switch m.SlotOf(*m.WinnerID) {
	case 1:
		return m.Player2ID
	case 2:
		return m.Player1ID
	}
	return nil
}

// Terminal matches no longer take part in round progress.
func (m *Match) Terminal() bool {
	return m.Status == MatchCompleted || m.Status == MatchBye
}

// WinnerSlotInNext returns the slot this match's winner takes in FeedsInto.
// The slot recorded at generation wins; parity is only a fallback for rows
// written before slots were recorded.
func (m *Match) WinnerSlotInNext() int {
	if m.FeedsIntoSlot != nil {
		return *m.FeedsIntoSlot
	}
	return paritySlot(m.MatchOrder)
}

func (m *Match) LoserSlotInNext() int {
	if m.LoserFeedsIntoSlot != nil {
		return *m.LoserFeedsIntoSlot
	}
	return paritySlot(m.MatchOrder)
}

func paritySlot(order int) int {
	if order%2 != 0 {
		return 1
	}
	return 2
}

// Submitted reports whether the side in slot reported a result no later
// than the deadline.
func (m *Match) Submitted(slot int) bool {
	at := m.Player1ReportedAt
	if slot == 2 {
		at = m.Player2ReportedAt
	}
	if at == nil {
		return false
	}
	return m.Deadline == nil || !at.After(*m.Deadline)
}
