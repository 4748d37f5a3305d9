package integrators

import "github.com/san-kum/bvpsim/internal/dynamo"

type harmonicOscillator struct{}

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

type stiffDecay struct{ rate float64 }

func (s *stiffDecay) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{-s.rate * x[0]}
}
