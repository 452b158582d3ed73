// Package dimacs reads and writes the DIMACS CNF text format: the
// "p cnf N M" problem line, one clause per line terminated by a trailing
// 0, and "c" comment lines anywhere. It also writes the solution report
// format spec §6 describes.
package dimacs

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/rhartert/dimacs"

	"github.com/halvarsen/uksat/formula"
	"github.com/halvarsen/uksat/solver"
)

// Load reads a DIMACS CNF document from r and builds a formula.Formula.
// r is read as plain text; use LoadGzip for .cnf.gz input.
func Load(r io.Reader) (*formula.Formula, error) {
	b := &builder{}
	if err := dimacs.ReadBuilder(r, b); err != nil {
		return nil, errors.Wrap(err, "dimacs: parse failed")
	}
	if !b.sawProblem {
		return nil, errors.New("dimacs: missing problem line")
	}
	f, err := formula.New(b.numVars, b.numClauses, b.clauses)
	if err != nil {
		return nil, errors.Wrap(err, "dimacs: invalid formula")
	}
	return f, nil
}

// LoadGzip wraps r in a gzip reader before parsing, for .cnf.gz input.
func LoadGzip(r io.Reader) (*formula.Formula, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "dimacs: not a gzip stream")
	}
	defer gz.Close()
	return Load(gz)
}

// builder implements github.com/rhartert/dimacs's Builder interface,
// accumulating the parsed problem into plain formula.Clause slices.
type builder struct {
	sawProblem bool
	numVars    int
	numClauses int
	clauses    []formula.Clause
}

func (b *builder) Problem(problem string, nVars, nClauses int) error {
	if problem != "cnf" {
		return fmt.Errorf("dimacs: unsupported problem type %q, want \"cnf\"", problem)
	}
	b.sawProblem = true
	b.numVars = nVars
	b.numClauses = nClauses
	b.clauses = make([]formula.Clause, 0, nClauses)
	return nil
}

func (b *builder) Clause(lits []int) error {
	cl := make(formula.Clause, len(lits))
	for i, l := range lits {
		cl[i] = formula.Literal(l)
	}
	b.clauses = append(b.clauses, cl)
	return nil
}

func (b *builder) Comment(_ string) error {
	return nil
}

// WriteCNF round-trips a formula back to DIMACS text, for use by tests
// that need to feed a generated formula back through Load.
func WriteCNF(w io.Writer, f *formula.Formula) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "p cnf %d %d\n", f.NumVars, f.NumClauses); err != nil {
		return err
	}
	for _, cl := range f.Clauses {
		parts := make([]string, 0, len(cl)+1)
		for _, l := range cl {
			parts = append(parts, fmt.Sprintf("%d", l))
		}
		parts = append(parts, "0")
		if _, err := fmt.Fprintln(bw, strings.Join(parts, " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteSolution renders a finished solver's verdict and its (possibly
// partial) variable assignments in the report format of spec §6:
//
//	c SATISFIABLE
//	s cnf 1 N M
//	v 1
//	v -2
//	v 3
func WriteSolution(w io.Writer, s *solver.Solver) error {
	bw := bufio.NewWriter(w)

	var status int
	switch s.Verdict() {
	case solver.Satisfiable:
		status = 1
	case solver.Unsatisfiable:
		status = -1
	default:
		status = 0
	}

	if _, err := fmt.Fprintf(bw, "c %s\n", s.Verdict()); err != nil {
		return err
	}
	f := s.Formula()
	if _, err := fmt.Fprintf(bw, "s cnf %d %d %d\n", status, f.NumVars, f.NumClauses); err != nil {
		return err
	}

	// One v line per assigned variable, regardless of verdict: an UNSAT
	// run still has level-0 propagations assigned, and an UNDEFINED
	// (timeout) run may have a partial assignment worth reporting. Mirrors
	// original_source/src/cnf.cpp's savesolution(), which iterates the
	// partial assignment map unconditionally.
	if a := s.Assignment(); a != nil {
		for v := 1; v <= f.NumVars; v++ {
			switch a.Truth(v) {
			case 1:
				if _, err := fmt.Fprintf(bw, "v %d\n", v); err != nil {
					return err
				}
			case -1:
				if _, err := fmt.Fprintf(bw, "v %d\n", -v); err != nil {
					return err
				}
			}
		}
	}

	return bw.Flush()
}
