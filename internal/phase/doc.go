// Package phase runs configured sequences of interface operations.
//
// A phase is a named list of steps, each naming a dispatch operation and
// its positional arguments. The daemon runs the phases listed in
// run_phases at start-up; the control socket can run any phase on demand.
package phase
