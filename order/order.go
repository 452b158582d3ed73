// Package order tracks which variables remain free to be decided, in the
// formula's fixed order (descending total occurrence frequency, ties
// broken by smaller variable index).
//
// It wraps github.com/rhartert/yagh's indexed heap using the same
// lazy-deletion pattern github.com/rhartert/yass's internal/sat.VarOrder
// uses for its (adaptive) VSIDS order: variables assigned by propagation
// are left in the heap and simply discarded the next time they would be
// popped, rather than removed eagerly. Here the per-variable priority
// never changes after construction, since the spec's order is static.
package order

import (
	"github.com/rhartert/yagh"

	"github.com/halvarsen/uksat/formula"
)

// Queue is the free-variable pool the decision rule draws from.
type Queue struct {
	heap *yagh.IntMap[int]
	f    *formula.Formula
}

// New builds a queue seeded with every variable in f, ordered by
// descending total(v) with ties broken by smaller variable index (yagh's
// heap breaks priority ties using insertion index, so variables are put in
// ascending-index order to match).
func New(f *formula.Formula) *Queue {
	h := yagh.New[int](f.NumVars)
	h.GrowBy(f.NumVars)
	for v := 1; v <= f.NumVars; v++ {
		h.Put(v-1, -f.Total(v))
	}
	return &Queue{heap: h, f: f}
}

// Next pops variables (highest total(v) first) until it finds one that
// isAssigned reports as still free, and returns its preferred decision
// literal. It returns ok=false once the pool is exhausted.
func (q *Queue) Next(isAssigned func(v int) bool) (lit formula.Literal, ok bool) {
	for {
		e, found := q.heap.Pop()
		if !found {
			return 0, false
		}
		v := e.Elem + 1
		if isAssigned(v) {
			continue
		}
		return q.f.PreferredLiteral(v), true
	}
}

// Reinsert makes variable v eligible for decision again, for use when a
// backtrack unassigns it.
func (q *Queue) Reinsert(v int) {
	q.heap.Put(v-1, -q.f.Total(v))
}
