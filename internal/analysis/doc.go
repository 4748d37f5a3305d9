// Package analysis checks solved trajectories after the fact.
//
//   - [Defect]: re-integrates every mesh interval from its left node and
//     measures the mismatch at the right node
//   - [Spectrum] and [DominantFrequency]: magnitude spectrum of one solution
//     component resampled on a uniform grid
//
// # Verification
//
// A converged collocation solution should reproduce itself under an
// independent integrator:
//
//	rep, err := analysis.Defect(problem, res.Solution, 1e-8)
//	if err == nil && rep.Max > 1e-3 {
//	    // the mesh is too coarse for the dynamics
//	}
package analysis
