// Package collocation solves two-point boundary value problems
//
//	dy/dx = f(x, y, p),  a <= x <= b
//	bc(y(a), y(b), p) = 0
//
// with a 4th order collocation scheme (Lobatto IIIA, equivalently a cubic
// Hermite spline whose midpoint satisfies Simpson's rule) and residual-driven
// mesh refinement.
//
// # Layout
//
// Everything the engine exchanges with its callers uses variables-by-nodes
// orientation: y is n x m for n variables on m mesh nodes. Parameter vectors
// have length k, and the boundary function must return n+k residuals.
//
// # Algorithm
//
// Each outer iteration runs a damped Newton solve of the collocation system on
// the current mesh, estimates the RMS residual of the interpolating spline on
// every interval, and inserts one node into intervals whose residual exceeds
// the tolerance (two nodes when it exceeds 100 times the tolerance). The solve
// ends when no node is needed and the boundary residuals are within BCTol,
// when the mesh would grow past MaxNodes, when the Newton system is singular,
// or after ten outer iterations.
//
// Jacobians are estimated by forward differences unless the caller supplies
// analytic ones. The global Newton matrix is assembled densely and factorized
// with LAPACK's getrf.
package collocation
