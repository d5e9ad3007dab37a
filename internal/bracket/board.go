package bracket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/utils"
	"github.com/google/uuid"
)

// Source loads the matches a Board works on. Every call is scoped to one
// tournament; MatchAt returns an error wrapping ErrMatchNotFound when the
// position does not exist.
type Source interface {
	MatchAt(ctx context.Context, tournamentID uuid.UUID, pos Position) (*Match, error)
	Round(ctx context.Context, tournamentID uuid.UUID, side Side, group, round int) ([]*Match, error)
	Stage(ctx context.Context, tournamentID uuid.UUID, side Side, group int) ([]*Match, error)
}

type EventType string

const (
	EventMatchReady         EventType = "match_ready"
	EventBye                EventType = "bye"
	EventRoundComplete      EventType = "round_complete"
	EventGroupComplete      EventType = "group_complete"
	EventTournamentComplete EventType = "tournament_complete"
)

// Event is something the board did that callers may want to tell people
// about. Match is set for match level events only.
type Event struct {
	Type   EventType
	Match  *Match
	Side   Side
	Group  int
	Round  int
	Winner *uuid.UUID
}

// Change is a match the board modified, with the version it was loaded at.
type Change struct {
	Match       *Match
	PrevStatus  MatchStatus
	PrevVersion int
}

type Result struct {
	Score1  *int
	Score2  *int
	Forfeit bool
}

type roundKey struct {
	Side  Side
	Group int
	Round int
}

func (k roundKey) next() roundKey {
	return roundKey{Side: k.Side, Group: k.Group, Round: k.Round + 1}
}

type stageKey struct {
	Side  Side
	Group int
}

type loaded struct {
	status  MatchStatus
	version int
}

// Board applies results to a tournament's matches. It loads matches lazily
// from its Source, keeps every loaded match in memory and records which ones
// it changed so the caller can write them back in one transaction.
//
// A Board is not safe for concurrent use and is meant to live for a single
// operation.
type Board struct {
	Tournament *Tournament
	Now        time.Time
	// Seeds breaks ties in standings. Participants without a seed sort last.
	Seeds map[uuid.UUID]int

	src     Source
	matches map[Position]*Match
	orig    map[Position]loaded
	rounds  map[roundKey][]Position
	stages  map[stageKey][]Position
	dirty   []Position
	touched []roundKey
	settled map[roundKey]bool
	events  []Event

	completed bool
	winner    *uuid.UUID
}

func NewBoard(t *Tournament, src Source, now time.Time) *Board {
	return &Board{
		Tournament: t,
		Now:        now.UTC(),
		Seeds:      map[uuid.UUID]int{},
		src:        src,
		matches:    map[Position]*Match{},
		orig:       map[Position]loaded{},
		rounds:     map[roundKey][]Position{},
		stages:     map[stageKey][]Position{},
		settled:    map[roundKey]bool{},
	}
}

// Add puts an already loaded match on the board. A match that is already
// present wins over m.
func (b *Board) Add(m *Match) *Match {
	pos := m.Position()
	if cur, ok := b.matches[pos]; ok {
		return cur
	}
	b.matches[pos] = m
	b.orig[pos] = loaded{status: m.Status, version: m.Version}
	return m
}

func (b *Board) Match(ctx context.Context, pos Position) (*Match, error) {
	if m, ok := b.matches[pos]; ok {
		return m, nil
	}
	m, err := b.src.MatchAt(ctx, b.Tournament.ID, pos)
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDependentMatchNotFound, pos)
		}
		return nil, err
	}
	return b.Add(m), nil
}

func (b *Board) round(ctx context.Context, key roundKey) ([]*Match, error) {
	positions, ok := b.rounds[key]
	if !ok {
		ms, err := b.src.Round(ctx, b.Tournament.ID, key.Side, key.Group, key.Round)
		if err != nil {
			return nil, err
		}
		positions = make([]Position, len(ms))
		for i, m := range ms {
			positions[i] = b.Add(m).Position()
		}
		b.rounds[key] = positions
	}
	return b.lookup(positions), nil
}

func (b *Board) stage(ctx context.Context, side Side, group int) ([]*Match, error) {
	key := stageKey{Side: side, Group: group}
	positions, ok := b.stages[key]
	if !ok {
		ms, err := b.src.Stage(ctx, b.Tournament.ID, side, group)
		if err != nil {
			return nil, err
		}
		positions = make([]Position, len(ms))
		for i, m := range ms {
			positions[i] = b.Add(m).Position()
		}
		b.stages[key] = positions
	}
	return b.lookup(positions), nil
}

func (b *Board) lookup(positions []Position) []*Match {
	out := make([]*Match, len(positions))
	for i, p := range positions {
		out[i] = b.matches[p]
	}
	return out
}

// Changes lists modified matches in the order they were first modified.
func (b *Board) Changes() []Change {
	out := make([]Change, 0, len(b.dirty))
	for _, pos := range b.dirty {
		o := b.orig[pos]
		out = append(out, Change{Match: b.matches[pos], PrevStatus: o.status, PrevVersion: o.version})
	}
	return out
}

func (b *Board) Events() []Event {
	return b.events
}

// Completed reports whether the tournament finished during this board's
// lifetime and who won it. A nil winner means the final produced nobody.
func (b *Board) Completed() (bool, *uuid.UUID) {
	return b.completed, b.winner
}

func (b *Board) markDirty(m *Match) {
	pos := m.Position()
	for _, p := range b.dirty {
		if p == pos {
			return
		}
	}
	b.dirty = append(b.dirty, pos)
}

func (b *Board) emit(e Event) {
	b.events = append(b.events, e)
}

func (b *Board) set(m *Match, s State) {
	wasTerminal := m.Terminal()
	m.setState(s)
	b.markDirty(m)
	if !wasTerminal && m.Terminal() {
		b.touched = append(b.touched, roundKey{Side: m.Side, Group: m.GroupNumber, Round: m.RoundNumber})
	}
}

func (b *Board) activate(m *Match) {
	b.set(m, Active{
		Player1:  *m.Player1ID,
		Player2:  *m.Player2ID,
		Deadline: b.Now.Add(b.Tournament.RoundDuration()),
	})
	b.emit(Event{Type: EventMatchReady, Match: m, Side: m.Side, Group: m.GroupNumber, Round: m.RoundNumber})
}

// Evaluate moves a pending match forward based on what its slots hold: two
// players make it ready (or active when its round is open), one player facing
// a vacant slot makes it a bye, two vacant slots make it vacant. Generation
// calls it for every freshly built match.
func (b *Board) Evaluate(ctx context.Context, pos Position) error {
	m, err := b.Match(ctx, pos)
	if err != nil {
		return err
	}
	if err := b.evaluate(ctx, m); err != nil {
		return err
	}
	return b.settle(ctx)
}

func (b *Board) evaluate(ctx context.Context, m *Match) error {
	if m.Status != MatchPending {
		return nil
	}

	p1, p2 := m.Player1ID, m.Player2ID
	switch {
	case p1 != nil && p2 != nil:
		open, err := b.roundOpen(ctx, m)
		if err != nil {
			return err
		}
		if open {
			b.activate(m)
		} else {
			b.set(m, Ready{Player1: *p1, Player2: *p2})
		}
		return nil
	case p1 != nil && m.Slot2Vacant:
		return b.bye(ctx, m, *p1)
	case p2 != nil && m.Slot1Vacant:
		return b.bye(ctx, m, *p2)
	case m.Slot1Vacant && m.Slot2Vacant:
		b.set(m, Vacant{At: b.Now})
		return b.advance(ctx, m)
	}
	return nil
}

func (b *Board) bye(ctx context.Context, m *Match, winner uuid.UUID) error {
	b.set(m, Bye{Winner: winner, At: b.Now})
	b.emit(Event{Type: EventBye, Match: m, Side: m.Side, Group: m.GroupNumber, Round: m.RoundNumber, Winner: m.WinnerID})
	return b.advance(ctx, m)
}

// roundOpen reports whether a match with both players may start now: first
// rounds and the grand final always may, later rounds wait until every match
// of the previous round on the same side is decided.
func (b *Board) roundOpen(ctx context.Context, m *Match) (bool, error) {
	if m.RoundNumber <= 1 || m.Side == GrandFinalSide {
		return true, nil
	}
	prev, err := b.round(ctx, roundKey{Side: m.Side, Group: m.GroupNumber, Round: m.RoundNumber - 1})
	if err != nil {
		return false, err
	}
	return allTerminal(prev), nil
}

func allTerminal(ms []*Match) bool {
	for _, m := range ms {
		if !m.Terminal() {
			return false
		}
	}
	return true
}

// Resolve records winner as the result of the match at pos and carries the
// consequences through the bracket.
func (b *Board) Resolve(ctx context.Context, pos Position, winner uuid.UUID, res Result) (*Match, error) {
	m, err := b.Match(ctx, pos)
	if err != nil {
		return nil, err
	}

	var p1, p2 uuid.UUID
	switch st := m.State().(type) {
	case Ready:
		p1, p2 = st.Player1, st.Player2
	case Active:
		p1, p2 = st.Player1, st.Player2
	case Pending:
		return nil, matchErr(ErrMatchNotReady, m, "active", string(m.Status))
	default:
		return nil, matchErr(ErrAlreadyResolved, m, "active", string(m.Status))
	}
	if winner != p1 && winner != p2 {
		return nil, matchErr(ErrInvalidWinner, m, p1.String()+" or "+p2.String(), winner.String())
	}

	m.Score1, m.Score2 = res.Score1, res.Score2
	b.set(m, Completed{Player1: p1, Player2: p2, Winner: winner, Forfeit: res.Forfeit, At: b.Now})
	if err := b.advance(ctx, m); err != nil {
		return nil, err
	}
	return m, b.settle(ctx)
}

// DoubleForfeit closes a match nobody showed up for. Nobody advances; the
// downstream slots stay open until Override decides what happens to them.
func (b *Board) DoubleForfeit(ctx context.Context, pos Position, notes string) (*Match, error) {
	m, err := b.Match(ctx, pos)
	if err != nil {
		return nil, err
	}

	var p1, p2 uuid.UUID
	switch st := m.State().(type) {
	case Ready:
		p1, p2 = st.Player1, st.Player2
	case Active:
		p1, p2 = st.Player1, st.Player2
	case Pending:
		return nil, matchErr(ErrMatchNotReady, m, "active", string(m.Status))
	default:
		return nil, matchErr(ErrAlreadyResolved, m, "active", string(m.Status))
	}

	b.set(m, DoubleForfeit{Player1: p1, Player2: p2, Notes: notes, At: b.Now})
	return m, b.settle(ctx)
}

// Override settles a double forfeit. With an advancing player the match
// becomes a forfeit win for them and advances normally. With nil both
// downstream slots are closed, so whoever waits there gets a bye.
func (b *Board) Override(ctx context.Context, pos Position, advancing *uuid.UUID, notes string) (*Match, error) {
	m, err := b.Match(ctx, pos)
	if err != nil {
		return nil, err
	}

	st, ok := m.State().(DoubleForfeit)
	if !ok {
		return nil, matchErr(ErrNotDoubleForfeit, m, "double forfeit", string(m.Status))
	}
	if note := utils.StringOrNil(notes); note != nil {
		if cur := utils.OrZero(m.AdminNotes); cur != "" {
			*note = cur + "\n" + *note
		}
		m.AdminNotes = note
		b.markDirty(m)
	}

	if advancing != nil {
		if *advancing != st.Player1 && *advancing != st.Player2 {
			return nil, matchErr(ErrInvalidWinner, m, st.Player1.String()+" or "+st.Player2.String(), advancing.String())
		}
		b.set(m, Completed{Player1: st.Player1, Player2: st.Player2, Winner: *advancing, Forfeit: true, At: b.Now})
	}
	if err := b.advance(ctx, m); err != nil {
		return nil, err
	}
	return m, b.settle(ctx)
}

// advance routes a decided match's winner and loser into the matches it
// feeds. Without a winner the target slots are closed instead.
func (b *Board) advance(ctx context.Context, m *Match) error {
	if m.FeedsInto == nil {
		if m.Side == WinnersSide || m.Side == GrandFinalSide {
			b.complete(m.WinnerID)
		}
		return nil
	}

	if m.WinnerID != nil {
		if err := b.place(ctx, *m.FeedsInto, m.WinnerSlotInNext(), *m.WinnerID); err != nil {
			return err
		}
	} else if err := b.vacate(ctx, *m.FeedsInto, m.WinnerSlotInNext()); err != nil {
		return err
	}

	if m.LoserFeedsInto == nil {
		return nil
	}
	if loser := m.Loser(); loser != nil {
		return b.place(ctx, *m.LoserFeedsInto, m.LoserSlotInNext(), *loser)
	}
	return b.vacate(ctx, *m.LoserFeedsInto, m.LoserSlotInNext())
}

func (b *Board) place(ctx context.Context, pos Position, slot int, player uuid.UUID) error {
	t, err := b.Match(ctx, pos)
	if err != nil {
		return err
	}

	if cur := t.Player(slot); cur != nil {
		if *cur == player {
			return nil
		}
		return matchErr(ErrSlotConflict, t, "empty slot", cur.String())
	}
	if t.SlotVacant(slot) || t.Status != MatchPending {
		return matchErr(ErrSlotConflict, t, "open slot", string(t.Status))
	}

	if slot == 1 {
		t.Player1ID = idPtr(player)
	} else {
		t.Player2ID = idPtr(player)
	}
	b.markDirty(t)
	return b.evaluate(ctx, t)
}

func (b *Board) vacate(ctx context.Context, pos Position, slot int) error {
	t, err := b.Match(ctx, pos)
	if err != nil {
		return err
	}

	if t.SlotVacant(slot) {
		return nil
	}
	if cur := t.Player(slot); cur != nil || t.Status != MatchPending {
		return matchErr(ErrSlotConflict, t, "open slot", string(t.Status))
	}

	if slot == 1 {
		t.Slot1Vacant = true
	} else {
		t.Slot2Vacant = true
	}
	b.markDirty(t)
	return b.evaluate(ctx, t)
}

func (b *Board) complete(winner *uuid.UUID) {
	if b.completed {
		return
	}
	b.completed = true
	b.winner = winner
	b.emit(Event{Type: EventTournamentComplete, Winner: winner})
}

// settle runs the round checks for every round that had a match decided,
// including rounds decided as a consequence of an earlier check.
func (b *Board) settle(ctx context.Context) error {
	for len(b.touched) > 0 {
		key := b.touched[0]
		b.touched = b.touched[1:]
		if b.settled[key] {
			continue
		}

		ms, err := b.round(ctx, key)
		if err != nil {
			return err
		}
		if !allTerminal(ms) {
			continue
		}
		b.settled[key] = true
		b.emit(Event{Type: EventRoundComplete, Side: key.Side, Group: key.Group, Round: key.Round})

		next, err := b.round(ctx, key.next())
		if err != nil {
			return err
		}
		for _, n := range next {
			if n.Status == MatchReady {
				b.activate(n)
			}
		}

		switch key.Side {
		case RoundRobinSide:
			if err := b.finishRoundRobin(ctx); err != nil {
				return err
			}
		case GroupSide:
			if err := b.qualify(ctx, key.Group); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Board) finishRoundRobin(ctx context.Context) error {
	ms, err := b.stage(ctx, RoundRobinSide, 0)
	if err != nil {
		return err
	}
	if !allTerminal(ms) {
		return nil
	}
	standings := Standings(ms, b.Seeds)
	if len(standings) == 0 {
		b.complete(nil)
		return nil
	}
	b.complete(idPtr(standings[0].ParticipantID))
	return nil
}

// qualify moves the top finishers of a finished group into the knockout.
func (b *Board) qualify(ctx context.Context, group int) error {
	ms, err := b.stage(ctx, GroupSide, group)
	if err != nil {
		return err
	}
	if !allTerminal(ms) {
		return nil
	}

	standings := Standings(ms, b.Seeds)
	groups, slots := b.Tournament.GroupCount, b.Tournament.KnockoutSlotsPerGroup
	for rank := 1; rank <= slots; rank++ {
		pos, slot := QualifierSlot(groups, slots, group, rank)
		if rank <= len(standings) {
			err = b.place(ctx, pos, slot, standings[rank-1].ParticipantID)
		} else {
			err = b.vacate(ctx, pos, slot)
		}
		if err != nil {
			return err
		}
	}
	b.emit(Event{Type: EventGroupComplete, Side: GroupSide, Group: group})
	return nil
}

// QualifierSlot returns the knockout first round match and slot taken by the
// participant finishing at rank in group. Group winners take the top seeds in
// group order, then the runners up, and so on.
func QualifierSlot(groups, slotsPerGroup, group, rank int) (Position, int) {
	size := BracketSize(groups * slotsPerGroup)
	seed := (rank-1)*groups + (group - 1)
	order, slot := SeedSlot(size, seed)
	return Position{Side: WinnersSide, Round: 1, Order: order}, slot
}
