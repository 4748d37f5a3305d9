package spbvp

import (
	"time"

	"github.com/san-kum/bvpsim/internal/bvp"
	"github.com/san-kum/bvpsim/internal/collocation"
	"github.com/san-kum/bvpsim/internal/dynamo"
	"github.com/san-kum/bvpsim/internal/trajectory"
)

// compose writes the engine output back into sol, the caller's private copy
// of the guess, and wraps it in a Result.
func (s *Solver) compose(sol *trajectory.Trajectory, out *collocation.Output, d dims, elapsed time.Duration) *bvp.Result {
	if sol.Lam != nil && hasNonZero(sol.Lam) {
		s.log.Debug("discarding costates from guess", "rows", sol.Lam.Rows(), "cols", sol.Lam.Cols())
	}

	ys := out.Y.T()
	sol.T = append([]float64(nil), out.X...)
	sol.Y = ys.Columns(0, d.nstates)
	sol.Q = ys.Columns(d.nstates, d.width())
	sol.Lam = dynamo.ZerosLike(sol.Y)

	if out.P != nil {
		v := dynamo.State(out.P)
		sol.P = v.Segment(0, d.ndyn)
		sol.Nu = v.Segment(d.ndyn, d.nparams())
	} else {
		sol.P = dynamo.State{}
		sol.Nu = dynamo.State{}
	}

	sol.Converged = out.Success
	if sol.Aux == nil {
		sol.Aux = make(map[string]any)
	}
	sol.Aux[trajectory.AuxCompTime] = elapsed.Seconds()
	sol.Aux[trajectory.AuxNIter] = out.NIter

	return &bvp.Result{
		Solution:     sol,
		Success:      out.Success,
		Message:      out.Message,
		RMSResiduals: append([]float64(nil), out.RMSResiduals...),
		NIter:        out.NIter,
		Status:       out.Status,
		CompTime:     elapsed,
	}
}

func hasNonZero(m *dynamo.Matrix) bool {
	for _, v := range m.Data() {
		if v != 0 {
			return true
		}
	}
	return false
}
