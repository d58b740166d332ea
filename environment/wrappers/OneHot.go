// Package wrappers implements environment wrappers which modify the
// observations of the environments they wrap
package wrappers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/rainbow/environment"
	ts "github.com/samuelfneumann/rainbow/timestep"
)

// OneHot wraps an environment with a single discrete observation and
// encodes each observation as a one-hot vector. All other data of the
// TimeSteps, including legal actions, is passed through unchanged.
// Legal actions are only available through the TimeSteps, OneHot is
// never a Board.
type OneHot struct {
	environment.Environment
	low, size int
}

// NewOneHot returns a new OneHot wrapping env
func NewOneHot(env environment.Environment) (*OneHot, error) {
	spec := env.ObservationSpec()
	if spec.Cardinality != environment.Discrete {
		return nil, fmt.Errorf("newOneHot: observations must be discrete")
	}
	if spec.Shape.Len() != 1 {
		return nil, fmt.Errorf("newOneHot: observations must be "+
			"1-dimensional\n\twant(1)\n\thave(%v)", spec.Shape.Len())
	}

	low := int(spec.LowerBound.AtVec(0))
	high := int(spec.UpperBound.AtVec(0))
	if high < low {
		return nil, fmt.Errorf("newOneHot: upper bound must not be below "+
			"lower bound\n\twant(>=%v)\n\thave(%v)", low, high)
	}

	return &OneHot{Environment: env, low: low, size: high - low + 1}, nil
}

// Reset resets the wrapped environment, encoding its first observation
func (o *OneHot) Reset() (ts.TimeStep, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return step, err
	}
	return o.encode(step)
}

// Step steps the wrapped environment, encoding the next observation
func (o *OneHot) Step(action int) (ts.TimeStep, bool, error) {
	step, done, err := o.Environment.Step(action)
	if err != nil {
		return step, done, err
	}

	step, err = o.encode(step)
	return step, done, err
}

func (o *OneHot) encode(step ts.TimeStep) (ts.TimeStep, error) {
	index := int(step.Observation.AtVec(0)) - o.low
	if index < 0 || index >= o.size {
		return step, fmt.Errorf("encode: observation out of bounds"+
			"\n\twant([0, %v))\n\thave(%v)", o.size, index)
	}

	obs := mat.NewVecDense(o.size, nil)
	obs.SetVec(index, 1)
	step.Observation = obs
	return step, nil
}

// ObservationSpec returns the specification of the one-hot vectors
func (o *OneHot) ObservationSpec() environment.Spec {
	high := make([]float64, o.size)
	for i := range high {
		high[i] = 1
	}

	return environment.NewSpec(mat.NewVecDense(o.size, nil),
		environment.Observation, mat.NewVecDense(o.size, nil),
		mat.NewVecDense(o.size, high), environment.Discrete)
}
