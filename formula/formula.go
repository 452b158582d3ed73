// Package formula holds the immutable problem description a query runs
// against: the clause set, per-literal occurrence statistics, and the
// decision order they imply.
package formula

import (
	"fmt"
	"sort"
)

// Literal is a signed, nonzero variable reference. Positive v means
// variable v is true; negative -v means false. Zero is reserved as the
// "no literal" sentinel and must never appear inside a Clause.
type Literal int32

// Var returns the 1-based variable index the literal refers to.
func (l Literal) Var() int {
	if l < 0 {
		return int(-l)
	}
	return int(l)
}

// Negate returns the complementary literal.
func (l Literal) Negate() Literal { return -l }

// Sign returns +1 for a positive literal, -1 for a negative one. The zero
// literal has sign 0.
func (l Literal) Sign() int {
	switch {
	case l > 0:
		return 1
	case l < 0:
		return -1
	default:
		return 0
	}
}

// Clause is a disjunction of literals, in input order. Duplicates and
// tautologies are accepted; callers that care must filter them.
type Clause []Literal

// Formula is an immutable CNF problem together with its derived decision
// order. It is created once per run (via New or a loader in package
// dimacs) and never mutated during search.
type Formula struct {
	NumVars    int
	NumClauses int
	Clauses    []Clause

	// Order lists one entry per variable in strictly decreasing total(v),
	// ties broken by smaller variable index. Each entry's sign is the
	// polarity with the larger frequency (positive on a tie).
	Order []Literal

	freqPos []int32
	freqNeg []int32
}

// New validates clauses against numVars and builds the derived frequency
// and order statistics described in spec §3. It fails if any literal's
// variable falls outside [1, numVars] or a clause is empty.
func New(numVars, numClauses int, clauses []Clause) (*Formula, error) {
	if numVars < 0 {
		return nil, fmt.Errorf("formula: negative variable count %d", numVars)
	}
	if numClauses < 0 {
		return nil, fmt.Errorf("formula: negative clause count %d", numClauses)
	}

	f := &Formula{
		NumVars:    numVars,
		NumClauses: numClauses,
		Clauses:    clauses,
		freqPos:    make([]int32, numVars),
		freqNeg:    make([]int32, numVars),
	}

	for ci, cl := range clauses {
		if len(cl) == 0 {
			return nil, fmt.Errorf("formula: clause %d is empty", ci)
		}
		for _, l := range cl {
			v := l.Var()
			if v == 0 {
				return nil, fmt.Errorf("formula: clause %d contains the zero literal", ci)
			}
			if v > numVars {
				return nil, fmt.Errorf("formula: clause %d references variable %d, but only %d are declared", ci, v, numVars)
			}
			if l > 0 {
				f.freqPos[v-1]++
			} else {
				f.freqNeg[v-1]++
			}
		}
	}

	f.buildOrder()
	return f, nil
}

// Freq returns the number of occurrences of the signed literal l across
// all clauses.
func (f *Formula) Freq(l Literal) int {
	v := l.Var()
	if v == 0 || v > f.NumVars {
		return 0
	}
	if l > 0 {
		return int(f.freqPos[v-1])
	}
	return int(f.freqNeg[v-1])
}

// Total returns freq(v) + freq(-v) for variable v.
func (f *Formula) Total(v int) int {
	if v <= 0 || v > f.NumVars {
		return 0
	}
	return int(f.freqPos[v-1]) + int(f.freqNeg[v-1])
}

// PreferredLiteral returns variable v's entry polarity: the sign with the
// larger frequency, positive on a tie.
func (f *Formula) PreferredLiteral(v int) Literal {
	if f.freqNeg[v-1] > f.freqPos[v-1] {
		return Literal(-v)
	}
	return Literal(v)
}

func (f *Formula) buildOrder() {
	vars := make([]int, f.NumVars)
	for i := range vars {
		vars[i] = i + 1
	}
	sort.Slice(vars, func(i, j int) bool {
		ti, tj := f.Total(vars[i]), f.Total(vars[j])
		if ti != tj {
			return ti > tj
		}
		return vars[i] < vars[j]
	})
	f.Order = make([]Literal, len(vars))
	for i, v := range vars {
		f.Order[i] = f.PreferredLiteral(v)
	}
}

// IsValid reports whether the formula is eligible for a solver run: a
// nonzero variable count, a nonzero clause count, and a clause slice whose
// length agrees with NumClauses.
func (f *Formula) IsValid() bool {
	return f != nil && f.NumVars > 0 && f.NumClauses > 0 && len(f.Clauses) == f.NumClauses
}
