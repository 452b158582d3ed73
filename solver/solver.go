// Package solver implements the Solver Core shared by both propagation
// variants: the decision stack, propagation stack, timing, and the
// query/decide/backtrack state machine from spec §4.2. The actual
// unit-propagation work is delegated to a Propagator strategy
// (SimplePropagator or WatchedPropagator), composed rather than
// subclassed, per spec §9's guidance.
package solver

import (
	"fmt"
	"time"

	"github.com/halvarsen/uksat/assign"
	"github.com/halvarsen/uksat/formula"
	"github.com/halvarsen/uksat/internal/trace"
	"github.com/halvarsen/uksat/order"
)

// Verdict is the final answer a query produces.
type Verdict int

const (
	Unknown Verdict = iota
	Satisfiable
	Unsatisfiable
	Undefined
)

func (v Verdict) String() string {
	switch v {
	case Satisfiable:
		return "SATISFIABLE"
	case Unsatisfiable:
		return "UNSATISFIABLE"
	case Undefined:
		return "UNDEFINED"
	default:
		return "UNKNOWN"
	}
}

// InternalError reports a violated watched-literals invariant: a bug in
// the propagator, never conflated with UNSAT or a timeout.
type InternalError struct {
	Clause int
	Reason string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("uksat: internal invariant violation in clause %d: %s", e.Clause, e.Reason)
}

// Decision is one frame of the decision stack.
type Decision struct {
	Lit    formula.Literal
	IsFlip bool
}

// Propagation is one frame of the propagation stack.
type Propagation struct {
	Lit   formula.Literal
	Level int
}

// Propagator is the strategy the Solver Core delegates unit propagation
// to. Trigger/UndoTrigger are no-ops for the simple propagator; the
// watched propagator uses them to keep its incremental clause-satisfaction
// cache current.
type Propagator interface {
	Start()
	Reset()
	Propagate()
	Trigger(l formula.Literal)
	UndoTrigger(l formula.Literal)
}

// Stats are purely informational counters, following the teacher's
// stats map[string]interface{} convention from Solve.
type Stats struct {
	Decisions    int64
	Propagations int64
	Conflicts    int64
	Backtracks   int64
	Elapsed      time.Duration
}

// Solver is the shared search loop. Construct one with New, select a
// propagation strategy, then drive it with Query.
type Solver struct {
	f *formula.Formula

	assignment *assign.Map
	order      *order.Queue
	propagator Propagator
	tracer     trace.Tracer

	decisions    []Decision
	propagations []Propagation

	started     bool
	verdict     Verdict
	conflicting bool
	timedOut    bool

	maxTime   time.Duration
	startedAt time.Time

	stats Stats
	err   error

	debug bool
}

// New constructs a Solver Core over f. newPropagator is called once, after
// the internal state (assignment map, order queue) is allocated, to build
// the propagation strategy; it is typically NewSimplePropagator or
// NewWatchedPropagator bound to this Solver.
func New(f *formula.Formula, tracer trace.Tracer, newPropagator func(*Solver) Propagator) *Solver {
	s := &Solver{f: f, tracer: tracer}
	s.propagator = newPropagator(s)
	return s
}

// Formula returns the formula this solver is searching over.
func (s *Solver) Formula() *formula.Formula { return s.f }

// Assignment returns the current (possibly partial) assignment map. It is
// nil until Start has run.
func (s *Solver) Assignment() *assign.Map { return s.assignment }

// Stats returns a snapshot of the search counters, including elapsed
// wall-clock time since Start.
func (s *Solver) Stats() Stats {
	stats := s.stats
	stats.Elapsed = s.Elapsed()
	return stats
}

// Err returns the internal invariant violation that aborted the search,
// if any.
func (s *Solver) Err() error { return s.err }

// SetMaxTime fixes a wall-clock deadline, in seconds, before Start. Zero
// (the default) means no deadline.
func (s *Solver) SetMaxTime(secs float64) {
	if secs <= 0 {
		s.maxTime = 0
		return
	}
	s.maxTime = time.Duration(secs * float64(time.Second))
}

// SetDebug enables the guarded state dump after every propagation pass,
// replacing the teacher's always-on debug print (spec's ambient-stack
// fix: opt-in, tied to the tracer's debug level, instead of unconditional).
func (s *Solver) SetDebug(enabled bool) { s.debug = enabled }

// IsStarted reports whether Start has run.
func (s *Solver) IsStarted() bool { return s.started }

// IsSatisfied reports whether the search has concluded SAT.
func (s *Solver) IsSatisfied() bool { return s.verdict == Satisfiable }

// IsConflicting reports whether the search is currently in a transient
// conflict (about to backtrack).
func (s *Solver) IsConflicting() bool { return s.conflicting }

// IsFinished reports whether a final verdict (SAT, UNSAT, or UNDEFINED)
// has been reached.
func (s *Solver) IsFinished() bool { return s.verdict != Unknown }

// HasTimeout reports whether the wall-clock deadline has been hit.
func (s *Solver) HasTimeout() bool { return s.timedOut }

// Verdict returns the final answer, or Unknown if the search has not
// concluded.
func (s *Solver) Verdict() Verdict { return s.verdict }

// Elapsed returns the wall-clock time spent since Start.
func (s *Solver) Elapsed() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}

// Clear resets the solver to its pre-Start state.
func (s *Solver) Clear() {
	s.started = false
	s.verdict = Unknown
	s.conflicting = false
	s.timedOut = false
	s.decisions = nil
	s.propagations = nil
	s.assignment = nil
	s.order = nil
	s.stats = Stats{}
	s.err = nil
	s.propagator.Reset()
}

// Start allocates per-run state. Idempotent.
func (s *Solver) Start() {
	if s.started {
		return
	}
	s.started = true
	s.assignment = assign.New(s.f.NumVars)
	s.order = order.New(s.f)
	s.startedAt = time.Now()
	s.propagator.Start()
}

// Query runs the search loop until the formula is satisfied, proven
// unsatisfiable, or the time budget is exhausted. It is idempotent: a
// second call on an already-finished solver returns the same verdict
// without further work.
func (s *Solver) Query() bool {
	if !s.f.IsValid() {
		s.verdict = Undefined
		return false
	}
	s.Start()
	if s.IsFinished() {
		return s.verdict == Satisfiable
	}

	for {
		if !s.intime() {
			s.verdict = Undefined
			return false
		}

		s.propagator.Propagate()
		s.dumpState(s.debug)
		if s.err != nil {
			s.verdict = Undefined
			return false
		}
		if s.timedOut {
			s.verdict = Undefined
			return false
		}

		switch {
		case s.verdict == Satisfiable:
			return true
		case s.conflicting:
			s.stats.Conflicts++
			if !s.backtrack() {
				s.verdict = Unsatisfiable
				return false
			}
			if s.err != nil {
				s.verdict = Undefined
				return false
			}
			s.stats.Backtracks++
			s.conflicting = false
		default:
			if !s.decide() {
				s.verdict = Unsatisfiable
				return false
			}
			if s.err != nil {
				s.verdict = Undefined
				return false
			}
		}
	}
}

// Apply evaluates the current (possibly partial) assignment against the
// formula without propagating: +1 if every clause is already satisfied,
// -1 on the first clause proven unsatisfied, 0 otherwise.
func (s *Solver) Apply() int {
	if !s.f.IsValid() || s.assignment == nil {
		return 0
	}
	allTrue := true
	for _, cl := range s.f.Clauses {
		anyTrue := false
		anyOpen := false
		for _, l := range cl {
			switch s.assignment.Sat(l) {
			case 1:
				anyTrue = true
			case 0:
				anyOpen = true
			}
		}
		if anyTrue {
			continue
		}
		if !anyOpen {
			return -1
		}
		allTrue = false
	}
	if allTrue {
		return 1
	}
	return 0
}

// intime consults the deadline, latching the timeout flag the first time
// it is exceeded. Once latched it never reconsults the clock.
func (s *Solver) intime() bool {
	if s.timedOut {
		return false
	}
	if s.maxTime > 0 && time.Since(s.startedAt) >= s.maxTime {
		s.timedOut = true
		s.tracer.Debugf("solver", "timeout after %s", s.maxTime)
	}
	return !s.timedOut
}

// signedLevel returns the current decision level, negative when the
// topmost decision is a flip, zero if no decision has been pushed yet.
func (s *Solver) signedLevel() int {
	n := len(s.decisions)
	if n == 0 {
		return 0
	}
	if s.decisions[n-1].IsFlip {
		return -n
	}
	return n
}

// fail records a fatal internal invariant violation (spec §7's "Internal
// invariant violation" error kind). It is distinct from UNSAT/UNDEFINED.
func (s *Solver) fail(clause int, reason string) {
	if s.err == nil {
		s.err = &InternalError{Clause: clause, Reason: reason}
		s.tracer.Errorf("solver", "clause %d: %s", clause, reason)
	}
}

// markSatisfied records that the whole formula was found satisfied.
func (s *Solver) markSatisfied() {
	s.verdict = Satisfiable
}

// markConflict flags the current state as a transient conflict awaiting
// backtrack.
func (s *Solver) markConflict() {
	s.conflicting = true
}

// reopen clears the transient conflict flag. Called by backtrack (spec
// §4.2's "call finish(0)... before the push") so the flip push below runs
// as if the search were still open.
func (s *Solver) reopen() {
	s.conflicting = false
}

// push appends a decision or propagation frame, updates the assignment
// map, removes the variable from the free pool (implicitly, via lazy
// deletion in order.Queue), and notifies the propagator.
func (s *Solver) push(lit formula.Literal, isDecision, isFlip bool) {
	if isDecision {
		s.decisions = append(s.decisions, Decision{Lit: lit, IsFlip: isFlip})
		s.stats.Decisions++
	} else {
		s.propagations = append(s.propagations, Propagation{Lit: lit, Level: len(s.decisions)})
		s.stats.Propagations++
	}

	truth := assign.True
	if lit < 0 {
		truth = assign.False
	}
	s.assignment.Assign(lit.Var(), truth, s.signedLevel())

	if s.intime() {
		s.propagator.Trigger(lit)
	}
}

// decide chooses the first literal in the formula's order whose variable
// is unassigned and pushes it as a fresh decision. If no free variable
// remains it attempts backtrack and returns that result (spec §4.2's
// decide rule, disambiguated per SPEC_FULL.md open question 1: an
// exhausted backtrack here means UNSAT).
func (s *Solver) decide() bool {
	lit, ok := s.order.Next(s.assignment.IsAssigned)
	if !ok {
		return s.backtrack()
	}
	s.push(lit, true, false)
	return true
}

// backtrack pops to the most recent unflipped decision and re-pushes its
// negation as a flip. It returns false once no unflipped decision remains,
// meaning the search space is exhausted.
func (s *Solver) backtrack() bool {
	inv := s.pop()
	if inv == 0 {
		return false
	}
	s.reopen()
	s.push(inv, true, true)
	return true
}

// pop unwinds the decision stack down to (and including) the topmost
// unflipped decision, unassigning every popped variable and notifying the
// propagator's UndoTrigger in pop order, then returns that decision's
// negated literal (spec §4.2's Popping rule).
func (s *Solver) pop() formula.Literal {
	idx := -1
	for i := len(s.decisions) - 1; i >= 0; i-- {
		if !s.decisions[i].IsFlip {
			idx = i
			break
		}
	}
	if idx == -1 {
		return 0
	}
	frame := s.decisions[idx]
	level := idx + 1

	for len(s.decisions) > idx {
		top := s.decisions[len(s.decisions)-1]
		s.decisions = s.decisions[:len(s.decisions)-1]
		s.unassign(top.Lit)
	}
	for len(s.propagations) > 0 && s.propagations[len(s.propagations)-1].Level >= level {
		top := s.propagations[len(s.propagations)-1]
		s.propagations = s.propagations[:len(s.propagations)-1]
		s.unassign(top.Lit)
	}

	return frame.Lit.Negate()
}

func (s *Solver) unassign(lit formula.Literal) {
	v := lit.Var()
	s.assignment.Unassign(v)
	s.order.Reinsert(v)
	s.propagator.UndoTrigger(lit)
}
