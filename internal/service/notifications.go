package service

import (
	"fmt"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/google/uuid"
)

type notifier struct {
	tournament *bracket.Tournament
	roster     roster
	out        []notify.Notification
}

func newNotifier(t *bracket.Tournament, r roster) *notifier {
	return &notifier{tournament: t, roster: r}
}

func (n *notifier) send(participantID *uuid.UUID, m *bracket.Match, typ notify.Type, title, message string) {
	userID, ok := n.roster.user(participantID)
	if !ok {
		return
	}
	var matchID *uuid.UUID
	if m != nil {
		id := m.ID
		matchID = &id
	}
	n.out = append(n.out, notify.Notification{
		RecipientID:  userID,
		TournamentID: n.tournament.ID,
		MatchID:      matchID,
		Type:         typ,
		Title:        title,
		Message:      message,
	})
}

func (n *notifier) events(events []bracket.Event) {
	for _, ev := range events {
		switch ev.Type {
		case bracket.EventMatchReady:
			n.matchReady(ev.Match)
		case bracket.EventBye:
			n.bye(ev.Match)
		case bracket.EventTournamentComplete:
			n.send(ev.Winner, nil, notify.TournamentWinner, "You won "+n.tournament.Name,
				fmt.Sprintf("Congratulations, you won %s.", n.tournament.Name))
		}
	}
}

func (n *notifier) matchReady(m *bracket.Match) {
	msg := fmt.Sprintf("Your match %s in %s is ready.", m.Token(), n.tournament.Name)
	if m.Deadline != nil {
		msg += " Report the result by " + m.Deadline.Format("2006-01-02 15:04 MST") + "."
	}
	n.send(m.Player1ID, m, notify.MatchReady, "Match ready", msg)
	n.send(m.Player2ID, m, notify.MatchReady, "Match ready", msg)
}

func (n *notifier) bye(m *bracket.Match) {
	n.send(m.WinnerID, m, notify.ByeAdvanced, "Advanced by bye",
		fmt.Sprintf("You had no opponent in %s of %s and advance automatically.", m.Token(), n.tournament.Name))
}

func (n *notifier) forfeit(m *bracket.Match) {
	n.send(m.WinnerID, m, notify.ForfeitWin, "Won by forfeit",
		fmt.Sprintf("Your opponent in %s did not report in time. You advance.", m.Token()))
	n.send(m.Loser(), m, notify.ForfeitLoss, "Lost by forfeit",
		fmt.Sprintf("You did not report the result of %s in time.", m.Token()))
}

func (n *notifier) doubleForfeit(m *bracket.Match) {
	msg := fmt.Sprintf("Neither side reported the result of %s in time. An organizer will decide how the bracket continues.", m.Token())
	n.send(m.Player1ID, m, notify.DoubleForfeit, "Double forfeit", msg)
	n.send(m.Player2ID, m, notify.DoubleForfeit, "Double forfeit", msg)
}

func (n *notifier) deadline(m *bracket.Match, typ notify.Type) {
	title := "Result due soon"
	if typ == notify.DeadlineWarning {
		title = "Last call to report"
	}
	msg := fmt.Sprintf("Report the result of %s in %s by %s or forfeit.", m.Token(), n.tournament.Name,
		m.Deadline.Format("2006-01-02 15:04 MST"))
	n.send(m.Player1ID, m, typ, title, msg)
	n.send(m.Player2ID, m, typ, title, msg)
}
