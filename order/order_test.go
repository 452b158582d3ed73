package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvarsen/uksat/formula"
)

func TestNextReturnsStaticDescendingOrder(t *testing.T) {
	// var 1: total 1, var 2: total 3, var 3: total 2
	f, err := formula.New(3, 3, []formula.Clause{{1, 2, 3}, {2, -3}, {2}})
	require.NoError(t, err)

	q := New(f)
	assigned := map[int]bool{}
	isAssigned := func(v int) bool { return assigned[v] }

	lit, ok := q.Next(isAssigned)
	require.True(t, ok)
	assert.Equal(t, 2, lit.Var())
	assigned[2] = true

	lit, ok = q.Next(isAssigned)
	require.True(t, ok)
	assert.Equal(t, 3, lit.Var())
	assigned[3] = true

	lit, ok = q.Next(isAssigned)
	require.True(t, ok)
	assert.Equal(t, 1, lit.Var())
}

func TestNextExhausted(t *testing.T) {
	f, err := formula.New(1, 1, []formula.Clause{{1}})
	require.NoError(t, err)

	q := New(f)
	assigned := map[int]bool{}
	_, ok := q.Next(func(v int) bool { return assigned[v] })
	require.True(t, ok)

	assigned[1] = true
	_, ok = q.Next(func(v int) bool { return assigned[v] })
	assert.False(t, ok)
}

func TestReinsertMakesVariableEligibleAgain(t *testing.T) {
	f, err := formula.New(1, 1, []formula.Clause{{1}})
	require.NoError(t, err)

	q := New(f)
	assigned := map[int]bool{}
	_, ok := q.Next(func(v int) bool { return assigned[v] })
	require.True(t, ok)

	assigned[1] = true
	_, ok = q.Next(func(v int) bool { return assigned[v] })
	require.False(t, ok)

	q.Reinsert(1)
	assigned[1] = false
	lit, ok := q.Next(func(v int) bool { return assigned[v] })
	require.True(t, ok)
	assert.Equal(t, 1, lit.Var())
}
