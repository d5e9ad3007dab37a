package bracket

import (
	"time"

	"github.com/google/uuid"
)

// State is the decoded lifecycle of a match. Exactly one variant applies to a
// match at any time; a completed match always has a winner except in the
// DoubleForfeit variant.
type State interface {
	Status() MatchStatus
	isState()
}

type Pending struct {
	Player1 *uuid.UUID
	Player2 *uuid.UUID
}

type Ready struct {
	Player1 uuid.UUID
	Player2 uuid.UUID
}

type Active struct {
	Player1  uuid.UUID
	Player2  uuid.UUID
	Deadline time.Time
}

type Completed struct {
	Player1 uuid.UUID
	Player2 uuid.UUID
	Winner  uuid.UUID
	Forfeit bool
	At      time.Time
}

// DoubleForfeit is a completed match where neither side showed up. Nobody
// advances until an organizer overrides it.
type DoubleForfeit struct {
	Player1 uuid.UUID
	Player2 uuid.UUID
	Notes   string
	At      time.Time
}

type Bye struct {
	Winner uuid.UUID
	At     time.Time
}

// Vacant is a match that will never be played because neither slot can be filled.
type Vacant struct {
	At time.Time
}

func (Pending) Status() MatchStatus       { return MatchPending }
func (Ready) Status() MatchStatus         { return MatchReady }
func (Active) Status() MatchStatus        { return MatchActive }
func (Completed) Status() MatchStatus     { return MatchCompleted }
func (DoubleForfeit) Status() MatchStatus { return MatchCompleted }
func (Bye) Status() MatchStatus           { return MatchBye }
func (Vacant) Status() MatchStatus        { return MatchBye }

func (Pending) isState()       {}
func (Ready) isState()         {}
func (Active) isState()        {}
func (Completed) isState()     {}
func (DoubleForfeit) isState() {}
func (Bye) isState()           {}
func (Vacant) isState()        {}

func (m *Match) State() State {
	at := time.Time{}
	if m.CompletedAt != nil {
		at = *m.CompletedAt
	}

	switch m.Status {
	case MatchReady:
		if m.Player1ID != nil && m.Player2ID != nil {
			return Ready{Player1: *m.Player1ID, Player2: *m.Player2ID}
		}
	case MatchActive:
		if m.Player1ID != nil && m.Player2ID != nil {
			s := Active{Player1: *m.Player1ID, Player2: *m.Player2ID}
			if m.Deadline != nil {
				s.Deadline = *m.Deadline
			}
			return s
		}
	case MatchCompleted:
		var p1, p2 uuid.UUID
		if m.Player1ID != nil {
			p1 = *m.Player1ID
		}
		if m.Player2ID != nil {
			p2 = *m.Player2ID
		}
		if m.WinnerID == nil {
			notes := ""
			if m.AdminNotes != nil {
				notes = *m.AdminNotes
			}
			return DoubleForfeit{Player1: p1, Player2: p2, Notes: notes, At: at}
		}
		return Completed{Player1: p1, Player2: p2, Winner: *m.WinnerID, Forfeit: m.Forfeit, At: at}
	case MatchBye:
		if m.WinnerID == nil {
			return Vacant{At: at}
		}
		return Bye{Winner: *m.WinnerID, At: at}
	}
	return Pending{Player1: m.Player1ID, Player2: m.Player2ID}
}

func (m *Match) setState(s State) {
	m.Status = s.Status()

	switch st := s.(type) {
	case Pending:
		m.Player1ID, m.Player2ID = st.Player1, st.Player2
		m.Deadline = nil
	case Ready:
		m.Player1ID, m.Player2ID = idPtr(st.Player1), idPtr(st.Player2)
		m.Deadline = nil
	case Active:
		m.Player1ID, m.Player2ID = idPtr(st.Player1), idPtr(st.Player2)
		m.Deadline = timePtr(st.Deadline)
	case Completed:
		m.WinnerID = idPtr(st.Winner)
		m.Forfeit = st.Forfeit
		m.CompletedAt = timePtr(st.At)
	case DoubleForfeit:
		m.WinnerID = nil
		m.Forfeit = true
		m.CompletedAt = timePtr(st.At)
		if st.Notes != "" {
			m.AdminNotes = &st.Notes
		}
	case Bye:
		m.WinnerID = idPtr(st.Winner)
		m.Deadline = nil
		m.CompletedAt = timePtr(st.At)
	case Vacant:
		m.WinnerID = nil
		m.Deadline = nil
		m.CompletedAt = timePtr(st.At)
	}
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}
