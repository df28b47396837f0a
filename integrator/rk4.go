package integrator

import (
	"errors"
	"fmt"
	"math"
)

// RK4 defines a fixed step fourth order Runge Kutta integrator.
type RK4 struct {
	X0         float64    // The initial x0.
	StepSize   float64    // The step size.
	Integrator Integrable // What is to be integrated.
}

// NewRK4 returns a new RK4 integrator instance.
func NewRK4(x0 float64, stepSize float64, inte Integrable) *RK4 {
	if stepSize <= 0 {
		panic("config StepSize must be positive")
	}
	if inte == nil {
		panic("config Integrator may not be nil")
	}
	return &RK4{X0: x0, StepSize: stepSize, Integrator: inte}
}

// Step returns the state after one step of size h from (t, state).
func Step(f func(float64, []float64) []float64, t, h float64, state []float64) []float64 {
	const (
		half     = 1 / 2.0
		oneSixth = 1 / 6.0
		oneThird = 1 / 3.0
	)
	halfStep := h * half
	k1 := make([]float64, len(state))
	// k2, k3 and k4 are used as buffers AND result variables.
	k2 := make([]float64, len(state))
	k3 := make([]float64, len(state))
	k4 := make([]float64, len(state))
	tState := make([]float64, len(state))
	newState := make([]float64, len(state))

	for i, y := range f(t, state) {
		k1[i] = y * h
		tState[i] = state[i] + k1[i]*half
	}
	for i, y := range f(t+halfStep, tState) {
		k2[i] = y * h
		tState[i] = state[i] + k2[i]*half
	}
	for i, y := range f(t+halfStep, tState) {
		k3[i] = y * h
		tState[i] = state[i] + k3[i]
	}
	for i, y := range f(t+h, tState) {
		k4[i] = y * h
		newState[i] = state[i] + oneSixth*(k1[i]+k4[i]) + oneThird*(k2[i]+k3[i])
	}
	return newState
}

// Solve solves the configured RK4.
// Returns the number of iterations performed and the last X_i, or an error if the
// state diverged.
func (r *RK4) Solve() (uint64, float64, error) {
	iterNum := uint64(0)
	xi := r.X0
	for !r.Integrator.Stop(xi) {
		state := r.Integrator.GetState()
		if len(state) == 0 {
			return iterNum, xi, errors.New("empty state")
		}
		newState := Step(r.Integrator.Func, xi, r.StepSize, state)
		for i, v := range newState {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return iterNum, xi, fmt.Errorf("state[%d] diverged at x=%f", i, xi)
			}
		}
		xi += r.StepSize
		iterNum++
		r.Integrator.SetState(xi, newState)
	}
	return iterNum, xi, nil
}
