// Package routing holds the shared model of the autorouter: board
// coordinates, copper primitives (segments and vias), nets with their
// terminals, and the per-net RouteResult produced by the search.
//
// The routing core is split into subpackages built bottom-up:
//
//	rules      design rules and the .rules file format
//	grid       the spatial occupancy / congestion grid
//	astar      the single-connection A* pathfinder
//	engine     reference and accelerated implementations behind one interface
//	negotiate  the rip-up-and-reroute loop that drives the others
//
// All lengths are millimetres. Layer numbers are zero-based copper layer
// indices (0 = front copper) and net numbers are the board's net ids.
//
// # Logging
//
// The core never writes to stdout. Three optional log streams can be wired
// with SetLogWriters:
//
//	Ops    round summaries, convergence, failures worth acting on
//	Diag   per-net failures and tuning context
//	Trace  per-search statistics
//
// All streams are disabled until a writer is set.
package routing
