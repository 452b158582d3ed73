package solver

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvarsen/uksat/assign"
	"github.com/halvarsen/uksat/formula"
	"github.com/halvarsen/uksat/internal/trace"
)

func mustFormula(t *testing.T, numVars, numClauses int, clauses []formula.Clause) *formula.Formula {
	t.Helper()
	f, err := formula.New(numVars, numClauses, clauses)
	require.NoError(t, err)
	return f
}

func newSimple(f *formula.Formula) *Solver {
	return New(f, trace.Nop(), NewSimplePropagator)
}

func newWatched(f *formula.Formula) *Solver {
	return New(f, trace.Nop(), NewWatchedPropagator)
}

// End-to-end scenarios A-F.

func TestScenarioA_UnitClauseSAT(t *testing.T) {
	f := mustFormula(t, 1, 1, []formula.Clause{{1}})
	for _, s := range []*Solver{newSimple(f), newWatched(f)} {
		require.True(t, s.Query())
		assert.Equal(t, Satisfiable, s.Verdict())
		assert.Equal(t, assign.True, s.Assignment().Truth(1))
		assert.Equal(t, 1, s.Apply())
	}
}

func TestScenarioB_ConflictingUnitsUNSAT(t *testing.T) {
	f := mustFormula(t, 1, 2, []formula.Clause{{1}, {-1}})
	for _, s := range []*Solver{newSimple(f), newWatched(f)} {
		require.False(t, s.Query())
		assert.Equal(t, Unsatisfiable, s.Verdict())
	}
}

func TestScenarioC_ThreeVarSAT(t *testing.T) {
	f := mustFormula(t, 3, 3, []formula.Clause{{1, 2}, {-1, 3}, {-2, -3}})
	for _, s := range []*Solver{newSimple(f), newWatched(f)} {
		require.True(t, s.Query())
		assert.Equal(t, 1, s.Apply())
	}
}

func TestScenarioD_FourClauseUNSAT(t *testing.T) {
	f := mustFormula(t, 2, 4, []formula.Clause{{1, 2}, {-1, 2}, {1, -2}, {-1, -2}})
	for _, s := range []*Solver{newSimple(f), newWatched(f)} {
		require.False(t, s.Query())
		assert.Equal(t, Unsatisfiable, s.Verdict())
	}
}

func TestScenarioE_FourVarSAT(t *testing.T) {
	f := mustFormula(t, 4, 4, []formula.Clause{{1, 2}, {3, 4}, {-1, -3}, {-2, -4}})
	for _, s := range []*Solver{newSimple(f), newWatched(f)} {
		require.True(t, s.Query())
		assert.Equal(t, 1, s.Apply())
	}
}

func TestScenarioF_PigeonholeUNSAT(t *testing.T) {
	// 3 pigeons (1,2,3) into 2 holes (A,B). Variable numbering: pigeon p in
	// hole h is var (p-1)*2+h, h in {1,2}.
	v := func(p, h int) formula.Literal { return formula.Literal((p-1)*2 + h) }
	var clauses []formula.Clause
	for p := 1; p <= 3; p++ {
		clauses = append(clauses, formula.Clause{v(p, 1), v(p, 2)}) // each pigeon in some hole
	}
	for h := 1; h <= 2; h++ {
		for p1 := 1; p1 <= 3; p1++ {
			for p2 := p1 + 1; p2 <= 3; p2++ {
				clauses = append(clauses, formula.Clause{-v(p1, h), -v(p2, h)}) // no two pigeons share a hole
			}
		}
	}
	f := mustFormula(t, 6, len(clauses), clauses)
	for _, s := range []*Solver{newSimple(f), newWatched(f)} {
		require.False(t, s.Query())
		assert.Equal(t, Unsatisfiable, s.Verdict())
	}
}

// Property 1: soundness.
func TestSoundness(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		f := makeSatisfiableFormula(seed, 6, 15)
		for _, s := range []*Solver{newSimple(f), newWatched(f)} {
			if s.Query() {
				require.Equal(t, 1, s.Apply(), "seed=%d", seed)
			}
		}
	}
}

// Property 3: variant equivalence (satisfied-vs-unsatisfied must agree).
func TestVariantEquivalence(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		fSimple := makeRandomFormula(seed, 5, 18)
		fWatched := makeRandomFormula(seed, 5, 18)

		simple := newSimple(fSimple)
		watched := newWatched(fWatched)

		okSimple := simple.Query()
		okWatched := watched.Query()

		require.Equal(t, okSimple, okWatched, "seed=%d: simple=%v watched=%v", seed, okSimple, okWatched)
	}
}

// Property 2: unsatisfiability agreement — when Query reports UNSAT, no
// assignment to all variables satisfies the formula (checked by brute
// force, small N).
func TestUnsatisfiabilityAgreement(t *testing.T) {
	for seed := int64(0); seed < 100; seed++ {
		f := makeRandomFormula(seed, 5, 10)
		for _, s := range []*Solver{newSimple(f), newWatched(f)} {
			if s.Query() {
				continue
			}
			if s.Verdict() != Unsatisfiable {
				continue // timeout, not a verdict to check
			}
			require.False(t, bruteForceSatisfiable(f), "seed=%d: solver said UNSAT but a satisfying assignment exists", seed)
		}
	}
}

// bruteForceSatisfiable exhaustively tries every assignment to f's
// variables, for use as a correctness oracle on small formulas.
func bruteForceSatisfiable(f *formula.Formula) bool {
	n := f.NumVars
	for assignment := 0; assignment < (1 << uint(n)); assignment++ {
		allTrue := true
		for _, cl := range f.Clauses {
			clauseTrue := false
			for _, l := range cl {
				v := l.Var()
				bit := (assignment >> uint(v-1)) & 1
				isTrue := bit == 1
				if (l > 0) == isTrue {
					clauseTrue = true
					break
				}
			}
			if !clauseTrue {
				allTrue = false
				break
			}
		}
		if allTrue {
			return true
		}
	}
	return false
}

// Property 4: literal invariants — assigned-variable count matches
// Assignment Map size. Watch-set membership is checked by
// TestWatchMembershipConsistency below.
func TestLiteralInvariants(t *testing.T) {
	f := makeSatisfiableFormula(42, 6, 16)
	s := newWatched(f)
	s.Query()

	a := s.Assignment()
	count := 0
	for v := 1; v <= f.NumVars; v++ {
		if a.IsAssigned(v) {
			count++
		}
	}
	assert.Equal(t, count, a.Size())
}

// Property 4 continued — watch-list membership matches each clause's
// current watch pair, in both directions.
func TestWatchMembershipConsistency(t *testing.T) {
	f := makeSatisfiableFormula(17, 6, 16)
	s := newWatched(f)
	s.Query()

	wp := s.propagator.(*WatchedPropagator)
	for ci, st := range wp.states {
		for _, w := range []formula.Literal{st.w1, st.w2} {
			if w == 0 {
				continue
			}
			set := s.assignment.WatchSet(w)
			_, present := set[ci]
			assert.True(t, present, "clause %d's watch %d not present in its own watch set", ci, w)
		}
	}

	for v := 1; v <= f.NumVars; v++ {
		for _, w := range []formula.Literal{formula.Literal(v), formula.Literal(-v)} {
			for ci := range s.assignment.WatchSet(w) {
				st := wp.states[ci]
				assert.True(t, st.w1 == w || st.w2 == w, "clause %d's watch set for %d doesn't match its recorded watches", ci, w)
			}
		}
	}
}

// Property 5: backtrack completeness.
func TestBacktrackCompleteness(t *testing.T) {
	f := mustFormula(t, 1, 1, []formula.Clause{{1}}) // one clause, one free variable: forces a decision
	s := newSimple(f)
	s.Start()

	lit, ok := s.order.Next(s.assignment.IsAssigned)
	require.True(t, ok)
	s.push(lit, true, false)
	before := s.Apply()

	inv := s.pop()
	require.NotZero(t, inv)
	s.reopen()
	s.push(inv, true, true)
	after := s.Apply()

	assert.NotEqual(t, before, after)
	assert.NotEqual(t, lit.Sign(), inv.Sign())
}

// Property 6: time sign invariant.
func TestTimeSignInvariant(t *testing.T) {
	f := makeSatisfiableFormula(7, 4, 10)
	s := newSimple(f)
	s.Start()

	for i := 0; i < 3; i++ {
		lit, ok := s.order.Next(s.assignment.IsAssigned)
		if !ok {
			break
		}
		s.push(lit, true, false)
	}
	if len(s.decisions) == 0 {
		return
	}
	top := s.decisions[len(s.decisions)-1]
	level := s.signedLevel()
	assert.Equal(t, top.IsFlip, level < 0)
}

func TestUndefinedOnTimeout(t *testing.T) {
	f := makeSatisfiableFormula(99, 20, 60)
	s := newSimple(f)
	s.SetMaxTime(0.0000001)
	s.Query()
	if s.HasTimeout() {
		assert.Equal(t, Undefined, s.Verdict())
	}
}

// makeSatisfiableFormula builds a random CNF guaranteed satisfiable by a
// planted assignment, adapted from the teacher's makeRandomSat.
func makeSatisfiableFormula(seed int64, numVars, numClauses int) *formula.Formula {
	rng := rand.New(rand.NewSource(seed))
	assignment := make([]bool, numVars)
	for v := range assignment {
		assignment[v] = rng.Intn(2) == 1
	}

	clauses := make([]formula.Clause, numClauses)
	for i := range clauses {
		n := rng.Intn(numVars) + 1
		vars := rng.Perm(numVars)[:n]
		fixed := rng.Intn(n)
		cl := make(formula.Clause, n)
		for j, v0 := range vars {
			v := v0 + 1
			lit := formula.Literal(v)
			if j == fixed {
				if !assignment[v-1] {
					lit = -lit
				}
			} else if rng.Intn(2) == 1 {
				lit = -lit
			}
			cl[j] = lit
		}
		clauses[i] = cl
	}
	f, err := formula.New(numVars, numClauses, clauses)
	if err != nil {
		panic(fmt.Sprintf("makeSatisfiableFormula: %s", err))
	}
	return f
}

// makeRandomFormula builds an arbitrary (not-necessarily-satisfiable) CNF.
func makeRandomFormula(seed int64, numVars, numClauses int) *formula.Formula {
	rng := rand.New(rand.NewSource(seed))
	clauses := make([]formula.Clause, numClauses)
	for i := range clauses {
		n := rng.Intn(numVars) + 1
		vars := rng.Perm(numVars)[:n]
		cl := make(formula.Clause, n)
		for j, v0 := range vars {
			v := v0 + 1
			lit := formula.Literal(v)
			if rng.Intn(2) == 1 {
				lit = -lit
			}
			cl[j] = lit
		}
		clauses[i] = cl
	}
	f, err := formula.New(numVars, numClauses, clauses)
	if err != nil {
		panic(fmt.Sprintf("makeRandomFormula: %s", err))
	}
	return f
}
