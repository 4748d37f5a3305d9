package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/bvpsim/internal/dynamo"
)

func TestRK4Accuracy(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewRK4()

	x0 := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	x := x0
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestRK4Integrate(t *testing.T) {
	x0 := dynamo.State{1.0, 0.0}
	x := NewRK4().Integrate(&harmonicOscillator{}, x0, 0, math.Pi, 200)

	if math.Abs(x[0]+1) > 1e-6 {
		t.Errorf("expected x(pi) = -1, got %.8f", x[0])
	}
	if x0[0] != 1 {
		t.Error("Integrate modified its input")
	}
}

func TestRK4IntegrateClampsSteps(t *testing.T) {
	x := NewRK4().Integrate(&stiffDecay{rate: 1}, dynamo.State{1}, 0, 0.1, 0)
	if math.Abs(x[0]-math.Exp(-0.1)) > 1e-6 {
		t.Errorf("expected one step to be taken, got %.8f", x[0])
	}
}
