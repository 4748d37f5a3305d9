// Package dynamo provides the numeric primitives shared by the solver stack.
//
// The package defines the small set of containers every other package
// speaks in:
//
//   - [State]: a flat vector of float64 (a node's state, a parameter set)
//   - [Matrix]: a dense row-major matrix
//   - [Tensor3]: a dense 3-axis array indexed by [row, col, node]
//   - [System]: interface for ODE right-hand sides (dX/dt = f(t, X))
//
// # Orientation
//
// Trajectories store one row per mesh node. The collocation engine works
// with the transpose: one row per variable, one column per node. Helpers
// such as [Matrix.T], [Matrix.HStack] and [Matrix.Col] exist so that each
// package can keep its own orientation without ad-hoc index math.
//
// # Thread Safety
//
// None of the containers synchronize access. Values are meant to be owned by
// a single solve call; use Clone before sharing.
package dynamo
