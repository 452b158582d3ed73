// Command uksat runs the DPLL watched-literals SAT engine against a
// DIMACS CNF input, reporting SATISFIABLE, UNSATISFIABLE, or UNDEFINED.
package main

import (
	"fmt"
	"os"
)

func main() {
	code, err := newRootCmd().run(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "uksat:", err)
	}
	os.Exit(code)
}
