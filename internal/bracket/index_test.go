package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func linked(pos Position, feeds *Position, slot int, deps ...Position) *Match {
	m := &Match{Side: pos.Side, GroupNumber: pos.Group, RoundNumber: pos.Round, MatchOrder: pos.Order, DependsOn: deps}
	if feeds != nil {
		m.FeedsInto = feeds
		m.FeedsIntoSlot = &slot
	}
	return m
}

func TestIndexValidate(t *testing.T) {
	r1m1 := Position{Side: WinnersSide, Round: 1, Order: 1}
	r1m2 := Position{Side: WinnersSide, Round: 1, Order: 2}
	r2m1 := Position{Side: WinnersSide, Round: 2, Order: 1}

	valid := []*Match{
		linked(r1m1, &r2m1, 1),
		linked(r1m2, &r2m1, 2),
		linked(r2m1, nil, 0, r1m1, r1m2),
	}
	ix := NewIndex(valid)
	assert.NoError(t, ix.Validate())
	assert.Equal(t, []Position{r1m1, r1m2}, ix.Feeders(r2m1))

	missingDep := []*Match{
		linked(r1m1, &r2m1, 1),
		linked(r1m2, &r2m1, 2),
		linked(r2m1, nil, 0, r1m1),
	}
	assert.Error(t, NewIndex(missingDep).Validate())

	sameSlot := []*Match{
		linked(r1m1, &r2m1, 1),
		linked(r1m2, &r2m1, 1),
		linked(r2m1, nil, 0, r1m1, r1m2),
	}
	assert.Error(t, NewIndex(sameSlot).Validate())

	danglingTarget := []*Match{
		linked(r1m1, &r2m1, 1),
	}
	assert.ErrorIs(t, NewIndex(danglingTarget).Validate(), ErrDependentMatchNotFound)
}
