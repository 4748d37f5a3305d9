package spbvp

import "github.com/san-kum/bvpsim/internal/trajectory"

// dims are the sizes of the four variable classes of one solve.
type dims struct {
	nstates int
	nquads  int
	ndyn    int
	nnondyn int
}

// splitDimensions reads the class sizes off a guess. Missing classes count
// as zero.
func splitDimensions(guess *trajectory.Trajectory) dims {
	return dims{
		nstates: guess.NumStates(),
		nquads:  guess.NumQuads(),
		ndyn:    len(guess.P),
		nnondyn: len(guess.Nu),
	}
}

// width is the engine state width.
func (d dims) width() int { return d.nstates + d.nquads }

// nparams is the engine parameter width.
func (d dims) nparams() int { return d.ndyn + d.nnondyn }
