package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/halvarsen/uksat/dimacs"
	"github.com/halvarsen/uksat/formula"
	"github.com/halvarsen/uksat/internal/trace"
	"github.com/halvarsen/uksat/internal/version"
	"github.com/halvarsen/uksat/solver"
)

const (
	exitOK        = 0
	exitError     = 1
	exitArgError  = 2
	exitSAT       = 10
	exitUNSAT     = 20
	exitUndefined = 30
	exitTimeout   = 40
)

type options struct {
	verbosity    int
	maxTime      float64
	noWatched    bool
	printFormula bool
	printMap     bool
	noSolve      bool
}

type rootCmd struct {
	cmd  *cobra.Command
	opts options

	// ranE records whether runE itself began executing, so run can tell
	// cobra's own pre-RunE failures (bad arg count, unknown flag, a
	// malformed --max-time value) apart from failures inside runE: the
	// former are always argument errors, the latter already set their own
	// exit code.
	ranE bool
}

func newRootCmd() *rootCmd {
	r := &rootCmd{}
	r.cmd = &cobra.Command{
		Use:          "uksat [flags] <input> [output]",
		Short:        "A DPLL watched-literals SAT engine",
		Version:      version.String(),
		Args:         cobra.RangeArgs(1, 2),
		RunE:         r.runE,
		SilenceUsage: true,
	}
	f := r.cmd.Flags()
	f.CountVarP(&r.opts.verbosity, "verbose", "v", "increase logging verbosity (-v, -vv)")
	f.Float64Var(&r.opts.maxTime, "max-time", 0, "wall-clock budget in seconds (0 means unlimited)")
	f.BoolVarP(&r.opts.noWatched, "disable-watched-literals", "d", false, "use the simple (full-rescan) propagator instead of watched literals")
	f.BoolVar(&r.opts.printFormula, "print-formula", false, "print a one-line summary of the parsed formula (variable and clause counts) before solving; the clauses are not printed")
	f.BoolVar(&r.opts.printMap, "print-map", false, "print the final assignment map")
	f.BoolVar(&r.opts.noSolve, "no-solve", false, "parse and validate only; do not invoke the solver")
	return r
}

// lastExitCode is set by runE so run can translate its error (argument
// parsing, I/O, malformed input) into the right process exit status
// without cobra's own error path obscuring which kind of failure
// occurred.
var lastExitCode int

func (r *rootCmd) run(args []string) (int, error) {
	r.cmd.SetArgs(args)
	lastExitCode = exitOK
	r.ranE = false
	err := r.cmd.Execute()
	if err != nil {
		switch {
		case !r.ranE:
			// Execute failed before runE ran at all: cobra's own Args
			// validation or flag parsing rejected the invocation.
			lastExitCode = exitArgError
		case lastExitCode == exitOK:
			lastExitCode = exitError
		}
	}
	return lastExitCode, err
}

func (r *rootCmd) runE(cmd *cobra.Command, args []string) error {
	r.ranE = true
	log := logrus.New()
	switch {
	case r.opts.verbosity >= 2:
		log.SetLevel(logrus.DebugLevel)
	case r.opts.verbosity == 1:
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}
	tracer := trace.New(log)

	in, closeIn, err := openInput(args[0])
	if err != nil {
		lastExitCode = exitArgError
		return err
	}
	defer closeIn()

	var out io.Writer = os.Stdout
	if len(args) == 2 && args[1] != "-" {
		f, err := os.Create(args[1])
		if err != nil {
			lastExitCode = exitArgError
			return err
		}
		defer f.Close()
		out = f
	}

	var f *formula.Formula
	var loadErr error
	if strings.HasSuffix(args[0], ".gz") {
		f, loadErr = dimacs.LoadGzip(in)
	} else {
		f, loadErr = dimacs.Load(in)
	}
	if loadErr != nil {
		lastExitCode = exitError
		return loadErr
	}

	if r.opts.printFormula {
		fmt.Fprintf(out, "c formula: %d vars, %d clauses\n", f.NumVars, f.NumClauses)
	}

	if r.opts.noSolve {
		lastExitCode = exitUndefined
		fmt.Fprintln(out, "c UNDEFINED")
		return nil
	}

	newProp := solver.NewWatchedPropagator
	if r.opts.noWatched {
		newProp = solver.NewSimplePropagator
	}
	s := solver.New(f, tracer, newProp)
	if r.opts.maxTime > 0 {
		s.SetMaxTime(r.opts.maxTime)
	}
	s.SetDebug(r.opts.verbosity >= 2)

	s.Query()

	if r.opts.verbosity >= 2 {
		fmt.Fprintf(os.Stderr, "%# v\n", pretty.Formatter(s.Stats()))
	}

	if err := dimacs.WriteSolution(out, s); err != nil {
		lastExitCode = exitError
		return err
	}

	if r.opts.printMap && s.Verdict() == solver.Satisfiable {
		a := s.Assignment()
		for v := 1; v <= f.NumVars; v++ {
			fmt.Fprintf(os.Stderr, "c map %d = %d\n", v, a.Truth(v))
		}
	}

	switch {
	case s.HasTimeout():
		lastExitCode = exitTimeout
	case s.Verdict() == solver.Satisfiable:
		lastExitCode = exitSAT
	case s.Verdict() == solver.Unsatisfiable:
		lastExitCode = exitUNSAT
	default:
		lastExitCode = exitUndefined
	}
	return nil
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return f, f.Close, nil
}
