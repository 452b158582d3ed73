package solver

import (
	"github.com/halvarsen/uksat/formula"
)

// clauseState is the per-clause bookkeeping of spec §3's "Clause State
// (watched variant)".
type clauseState struct {
	satisfied bool
	satTime   int
	w1, w2    formula.Literal // watch slots; 0 means empty
}

// WatchedPropagator is the two-literal watch scheme: it avoids rescanning
// the whole formula by only revisiting clauses whose watched literal was
// just assigned (spec §4.4).
type WatchedPropagator struct {
	s         *Solver
	states    []clauseState
	nSat      int
	firstCall bool
}

// NewWatchedPropagator binds a WatchedPropagator to s. Pass this as the
// newPropagator argument to solver.New.
func NewWatchedPropagator(s *Solver) Propagator {
	return &WatchedPropagator{s: s}
}

func (p *WatchedPropagator) Start() {
	p.states = make([]clauseState, len(p.s.f.Clauses))
	p.nSat = 0
	p.firstCall = true
}

func (p *WatchedPropagator) Reset() {
	p.states = nil
	p.nSat = 0
	p.firstCall = true
}

// Propagate implements spec §4.4.3 (first call: register watches via a
// full sweep) and §4.4.8 (later calls: decide purely from cached
// counters; all real work already happened incrementally in Trigger).
func (p *WatchedPropagator) Propagate() {
	s := p.s

	if p.firstCall {
		p.firstCall = false
		p.registerWatches()
		return
	}

	switch {
	case p.nSat == len(s.f.Clauses):
		s.markSatisfied()
	case s.conflicting:
		// Already flagged by Trigger; nothing further to do.
	case !s.intime():
		// The query loop's own intime() check will catch this.
	default:
		// Leave open; the caller will decide.
	}
}

// registerWatches performs the initial full sweep described in spec
// §4.4.3: equivalent to the simple propagator's pass structure, plus
// installing up to two watches per clause that doesn't have both set yet.
func (p *WatchedPropagator) registerWatches() {
	s := p.s
	for {
		if !s.intime() {
			return
		}

		progressed := false
		allTrue := true

		for ci := range s.f.Clauses {
			r := p.scanClause(ci)
			if s.err != nil {
				return
			}
			switch r {
			case 1:
				if !p.isValidSatTime(ci) {
					p.setSatisfied(ci, s.signedLevel())
				}
			case -1:
				s.markConflict()
				return
			case 2:
				progressed = true
				allTrue = false
			case 0:
				allTrue = false
			}

			st := &p.states[ci]
			if st.w1 == 0 || st.w2 == 0 {
				v1, v2 := p.findWatchVars(ci, 0)
				if v1 != 0 && (st.w1 == 0 || st.w2 == 0) {
					p.watch(ci, v1, 0)
				}
				if v2 != 0 && (st.w1 == 0 || st.w2 == 0) {
					p.watch(ci, v2, 0)
				}
			}
		}

		if !progressed {
			if allTrue {
				s.markSatisfied()
			}
			return
		}
	}
}

// scanClause is the same literal scan as the simple propagator's
// propagateClause, used only during the initial registration sweep.
func (p *WatchedPropagator) scanClause(ci int) int {
	s := p.s
	cl := s.f.Clauses[ci]
	var unassignedLit formula.Literal
	numUnassigned := 0

	for _, l := range cl {
		switch s.assignment.Sat(l) {
		case 1:
			return 1
		case 0:
			numUnassigned++
			unassignedLit = l
		}
	}

	if numUnassigned == 0 {
		return -1
	}
	if numUnassigned == 1 {
		s.push(unassignedLit, false, false)
		return 2
	}
	return 0
}

// findWatchVars scans clause ci's literals other than known, collecting at
// most two undefined literals and at most two true literals, preferring
// undefined over true (spec §4.4.4).
func (p *WatchedPropagator) findWatchVars(ci int, known formula.Literal) (formula.Literal, formula.Literal) {
	s := p.s
	var trueVars, undefVars [2]formula.Literal

	for _, l := range s.f.Clauses[ci] {
		if l == known {
			continue
		}
		switch s.assignment.Sat(l) {
		case 1:
			trueVars[1] = trueVars[0]
			trueVars[0] = l
		case 0:
			undefVars[1] = undefVars[0]
			undefVars[0] = l
		}
		if undefVars[1] != 0 || trueVars[1] != 0 {
			break
		}
	}

	first, second := undefVars[0], undefVars[1]
	if first == 0 {
		first, second = trueVars[0], trueVars[1]
	} else if second == 0 {
		second = trueVars[0]
	}
	return first, second
}

// watch installs newLit as one of clause ci's two watches, per spec
// §4.4.5. If substLit matches a current watch, newLit replaces it in
// place; otherwise an empty slot is filled, or (if both are full) the
// pair shifts and the second-slot literal is evicted. newLit == 0 erases
// a watch without replacement.
func (p *WatchedPropagator) watch(ci int, newLit, substLit formula.Literal) {
	s := p.s
	st := &p.states[ci]

	switch {
	case substLit != 0 && st.w1 == substLit:
		s.assignment.RemoveWatch(st.w1, ci)
		st.w1 = newLit
		if newLit != 0 {
			s.assignment.AddWatch(newLit, ci)
		}
	case substLit != 0 && st.w2 == substLit:
		s.assignment.RemoveWatch(st.w2, ci)
		st.w2 = newLit
		if newLit != 0 {
			s.assignment.AddWatch(newLit, ci)
		}
	case newLit != 0 && st.w1 == 0:
		st.w1 = newLit
		s.assignment.AddWatch(newLit, ci)
	case newLit != 0 && st.w2 == 0:
		st.w2 = newLit
		s.assignment.AddWatch(newLit, ci)
	default:
		if st.w2 != 0 {
			s.assignment.RemoveWatch(st.w2, ci)
		}
		st.w2 = st.w1
		st.w1 = newLit
		if newLit != 0 {
			s.assignment.AddWatch(newLit, ci)
		}
	}
}

// isValidSatTime reports whether clause ci's cached satisfaction is still
// valid at the current level (spec §4.4.2). A sat_time of zero ("satisfied
// before any decision was made") is always valid — it is only ever
// cleared by Clear (SPEC_FULL.md open question 3).
func (p *WatchedPropagator) isValidSatTime(ci int) bool {
	st := &p.states[ci]
	if !st.satisfied {
		return false
	}
	if st.satTime == 0 {
		return true
	}
	return isValidTime(st.satTime, p.s.signedLevel())
}

func isValidTime(t, cur int) bool {
	if (t < 0) != (cur < 0) {
		return false
	}
	tAbs, curAbs := t, cur
	if tAbs < 0 {
		tAbs = -tAbs
	}
	if curAbs < 0 {
		curAbs = -curAbs
	}
	return curAbs >= tAbs
}

func (p *WatchedPropagator) setSatisfied(ci, t int) {
	st := &p.states[ci]
	if !st.satisfied {
		p.nSat++
	}
	st.satisfied = true
	st.satTime = t
}

func (p *WatchedPropagator) clearSatisfied(ci int) {
	st := &p.states[ci]
	if st.satisfied {
		p.nSat--
	}
	st.satisfied = false
	st.satTime = 0
}

// Trigger is called after push(lit, ...); it updates the clauses watching
// lit (the "true side") and re-examines the clauses watching -lit (the
// "false side"), per spec §4.4.6.
func (p *WatchedPropagator) Trigger(lit formula.Literal) {
	s := p.s
	inv := lit.Negate()

	for _, ci := range s.assignment.WatchSetSorted(lit) {
		if !p.isValidSatTime(ci) {
			p.setSatisfied(ci, s.signedLevel())
		}
	}

	clauses := s.assignment.WatchSetSorted(inv)
	i := 0
	for i < len(clauses) {
		if s.err != nil {
			return
		}
		ci := clauses[i]
		st := &p.states[ci]

		var other formula.Literal
		switch inv {
		case st.w1:
			other = st.w2
		case st.w2:
			other = st.w1
		default:
			s.fail(ci, "triggered literal is not one of the clause's current watches")
			return
		}

		v1, v2 := p.findWatchVars(ci, other)
		if v1 != 0 && v1 != inv {
			p.watch(ci, v1, inv)

			switch s.assignment.Sat(v1) {
			case 1:
				if !p.isValidSatTime(ci) {
					p.setSatisfied(ci, s.assignment.Time(other.Var()))
				}
			case -1:
				s.fail(ci, "replacement watch literal is false")
				return
			default:
				if v2 == 0 && s.assignment.Sat(other) == -1 {
					p.clearSatisfied(ci)
					s.push(v1, false, false)
				}
			}

			clauses = s.assignment.WatchSetSorted(inv)
			i = 0
			continue
		}

		switch s.assignment.Sat(other) {
		case -1:
			p.clearSatisfied(ci)
			s.markConflict()
			i++
		case 1:
			if !p.isValidSatTime(ci) {
				p.setSatisfied(ci, s.signedLevel())
			}
			i++
		default:
			p.clearSatisfied(ci)
			s.push(other, false, false)
			clauses = s.assignment.WatchSetSorted(inv)
			i = 0
		}
	}
}

// UndoTrigger is called after pop, once per popped literal: every clause
// watching literal or its negation whose cached satisfaction time is no
// longer valid loses that cache entry. Watch slots themselves are never
// revised here (spec §4.4.7).
func (p *WatchedPropagator) UndoTrigger(lit formula.Literal) {
	s := p.s
	inv := lit.Negate()

	for _, ci := range s.assignment.WatchSetSorted(lit) {
		if !p.isValidSatTime(ci) {
			p.clearSatisfied(ci)
		}
	}
	for _, ci := range s.assignment.WatchSetSorted(inv) {
		if !p.isValidSatTime(ci) {
			p.clearSatisfied(ci)
		}
	}
}
