// Package dispatch maps operation names to the network manager.
//
// Every operation has a fixed, typed parameter list. [Dispatcher.Call]
// checks the argument count and types before the backend is reached, so a
// malformed call never opens a kernel socket. The same table serves the
// phase runner, the control socket and the command-line client.
package dispatch
