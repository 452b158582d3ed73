// Package assign implements the Assignment Map: per-variable truth and
// time-stamp storage, plus the per-literal watch lists the watched
// propagator indexes clauses through.
package assign

import (
	"sort"

	"github.com/halvarsen/uksat/formula"
)

// Truth is a variable's current value. Zero means unassigned.
type Truth int8

const (
	Unassigned Truth = 0
	True       Truth = 1
	False      Truth = -1
)

// Entry is the per-variable state described in spec §3.
type Entry struct {
	Truth Truth
	// Time is the decision level at which the assignment was made, signed
	// to carry the flip-state of the frame that established it (negative
	// when that frame was a flip). Zero means "made before any decision".
	Time int

	trueClauses  map[int]struct{}
	falseClauses map[int]struct{}
}

// Map is the Assignment Map: a sequence indexed by variable (1-based,
// stored 0-based), plus a running count of assigned variables.
type Map struct {
	entries []Entry
	size    int
}

// New allocates an assignment map sized for numVars variables, all
// initially unassigned.
func New(numVars int) *Map {
	entries := make([]Entry, numVars)
	for i := range entries {
		entries[i].trueClauses = make(map[int]struct{})
		entries[i].falseClauses = make(map[int]struct{})
	}
	return &Map{entries: entries}
}

// Size returns the number of currently assigned variables.
func (m *Map) Size() int { return m.size }

// Truth returns the current truth value of variable v.
func (m *Map) Truth(v int) Truth { return m.entries[v-1].Truth }

// Time returns the signed decision-level time-stamp of variable v's
// current assignment (meaningless if v is unassigned).
func (m *Map) Time(v int) int { return m.entries[v-1].Time }

// IsAssigned reports whether variable v currently has a truth value.
func (m *Map) IsAssigned(v int) bool { return m.entries[v-1].Truth != Unassigned }

// Sat evaluates literal l under the current assignment: +1 if true, -1 if
// false, 0 if its variable is unassigned.
func (m *Map) Sat(l formula.Literal) int {
	v := l.Var()
	t := m.entries[v-1].Truth
	if t == Unassigned {
		return 0
	}
	if (l > 0) == (t == True) {
		return 1
	}
	return -1
}

// Assign sets variable v's truth value and time-stamp.
func (m *Map) Assign(v int, truth Truth, time int) {
	e := &m.entries[v-1]
	if e.Truth == Unassigned && truth != Unassigned {
		m.size++
	} else if e.Truth != Unassigned && truth == Unassigned {
		m.size--
	}
	e.Truth = truth
	e.Time = time
}

// Unassign clears variable v's truth value.
func (m *Map) Unassign(v int) {
	m.Assign(v, Unassigned, 0)
}

// WatchSet returns the set of clause indices currently watching literal l
// (the true_clauses set for a positive literal, false_clauses for a
// negative one).
func (m *Map) WatchSet(l formula.Literal) map[int]struct{} {
	v := l.Var()
	if l > 0 {
		return m.entries[v-1].trueClauses
	}
	return m.entries[v-1].falseClauses
}

// WatchSetSorted returns a stable, ascending-by-clause-index snapshot of
// WatchSet(l), safe to iterate while the underlying set is mutated.
func (m *Map) WatchSetSorted(l formula.Literal) []int {
	set := m.WatchSet(l)
	out := make([]int, 0, len(set))
	for ci := range set {
		out = append(out, ci)
	}
	sort.Ints(out)
	return out
}

// AddWatch records that clause ci watches literal l.
func (m *Map) AddWatch(l formula.Literal, ci int) {
	if l == 0 {
		return
	}
	m.WatchSet(l)[ci] = struct{}{}
}

// RemoveWatch removes clause ci from literal l's watch set.
func (m *Map) RemoveWatch(l formula.Literal, ci int) {
	if l == 0 {
		return
	}
	delete(m.WatchSet(l), ci)
}
