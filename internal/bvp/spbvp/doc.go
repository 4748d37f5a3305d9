// Package spbvp adapts indirect optimal-control boundary value problems to
// the collocation engine.
//
// The engine knows one stacked state vector and one stacked parameter
// vector. This package keeps the bookkeeping between those and the four
// variable classes of a guess:
//
//	engine state     = [ y (nstates) | q (nquads) ]
//	engine parameter = [ p (ndyn)    | nu (nnondyn) ]
//
// Any class may be empty. Non-dynamic parameters never reach the derivative
// function, and the quadrature function is never called when the guess has
// no quadratures.
//
// # Example
//
//	solver, _ := spbvp.New(problem, bvp.WithMaxNodes(500))
//	defer solver.Close()
//	res, err := solver.Solve(guess)
//	if err != nil {
//		return err
//	}
//	if !res.Success {
//		log.Println(res.Message)
//	}
package spbvp
