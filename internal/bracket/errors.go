package bracket

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidParticipantCount  = errors.New("invalid participant count")
	ErrUnsupportedFormat        = errors.New("unsupported tournament format")
	ErrUnsupportedSeedingPolicy = errors.New("unsupported seeding policy")
	ErrInvalidGroupConfig       = errors.New("invalid group stage configuration")

	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrMatchNotFound          = errors.New("match not found")
	ErrDependentMatchNotFound = errors.New("dependent match not found")

	ErrAlreadyResolved     = errors.New("match already resolved")
	ErrInvalidWinner       = errors.New("winner is not part of this match")
	ErrNotInMatch          = errors.New("reporter is not part of this match")
	ErrMatchNotReady       = errors.New("match is not ready to be resolved")
	ErrSlotConflict        = errors.New("match slot already taken")
	ErrNotDoubleForfeit    = errors.New("match is not a double forfeit")
	ErrBracketExists       = errors.New("bracket already generated")
	ErrTournamentCompleted = errors.New("tournament already completed")
)

// MatchError carries the offending match and the state mismatch that caused
// a rejection. It unwraps to one of the sentinel errors above.
type MatchError struct {
	Err      error
	MatchID  uuid.UUID
	Position Position
	Expected string
	Actual   string
}

func (e *MatchError) Error() string {
	msg := fmt.Sprintf("%v: match %s", e.Err, e.MatchID)
	if !e.Position.IsZero() {
		msg += " (" + e.Position.Token() + ")"
	}
	if e.Expected != "" || e.Actual != "" {
		msg += fmt.Sprintf(": expected %s, got %s", e.Expected, e.Actual)
	}
	return msg
}

func (e *MatchError) Unwrap() error {
	return e.Err
}

func matchErr(err error, m *Match, expected, actual string) error {
	return &MatchError{
		Err:      err,
		MatchID:  m.ID,
		Position: m.Position(),
		Expected: expected,
		Actual:   actual,
	}
}
