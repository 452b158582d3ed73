package solver

import (
	"github.com/kr/pretty"
)

// dumpState is the guarded replacement for the teacher's unconditional
// debug print on every unit propagation: callers opt in explicitly
// (wired to logrus's debug level in the CLI) instead of always paying
// for pretty-printing the decision and propagation stacks.
func (s *Solver) dumpState(enabled bool) {
	if !enabled {
		return
	}
	s.tracer.Debugf("solver", "decisions=%s propagations=%s",
		pretty.Sprint(s.decisions), pretty.Sprint(s.propagations))
}
