package solver

import "github.com/halvarsen/uksat/formula"

// SimplePropagator is the reference-correctness propagation strategy: it
// rescans every clause on each pass instead of maintaining watched-literal
// bookkeeping (spec §4.3).
type SimplePropagator struct {
	s *Solver
}

// NewSimplePropagator binds a SimplePropagator to s. Pass this as the
// newPropagator argument to solver.New.
func NewSimplePropagator(s *Solver) Propagator {
	return &SimplePropagator{s: s}
}

func (p *SimplePropagator) Start()                     {}
func (p *SimplePropagator) Reset()                     {}
func (p *SimplePropagator) Trigger(formula.Literal)     {}
func (p *SimplePropagator) UndoTrigger(formula.Literal) {}

// Propagate performs repeated passes over all clauses until a full pass
// produces no new unit, per spec §4.3.
func (p *SimplePropagator) Propagate() {
	s := p.s
	for {
		if !s.intime() {
			return
		}

		progressed := false
		allTrue := true

		for _, cl := range s.f.Clauses {
			switch p.propagateClause(cl) {
			case -1:
				s.markConflict()
				return
			case 2:
				progressed = true
				allTrue = false
			case 0:
				allTrue = false
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

// propagateClause scans cl's literals and reports +1 (satisfied), -1
// (falsified), +2 (unit — the deduced literal was pushed as a
// propagation), or 0 (open). It uses the stricter "exactly one unassigned"
// unit rule (SPEC_FULL.md open question 2).
func (p *SimplePropagator) propagateClause(cl formula.Clause) int {
	s := p.s
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
