//go:build gym
// +build gym

// Package gym provides access to OpenAI Gym environments with discrete
// actions, such as FrozenLake-v0, through the GoGym bindings found at
// https://github.com/samuelfneumann/GoGym.
//
// Environments only work with their default tasks and episode cutoffs.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/rainbow/environment"
	ts "github.com/samuelfneumann/rainbow/timestep"
)

// GymEnv implements access to an OpenAI Gym environment using GoGym
type GymEnv struct {
	gogym.Environment

	currentStep ts.TimeStep
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite with a discrete action space.
func New(name string, seed uint64) (*GymEnv, ts.TimeStep, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not create "+
			"environment: %v", err)
	}

	if _, ok := goGymEnv.ActionSpace().(*gogym.DiscreteSpace); !ok {
		goGymEnv.Close()
		return nil, ts.TimeStep{}, fmt.Errorf("new: environment %v does "+
			"not have discrete actions", name)
	}

	goGymEnv.Seed(int(seed))
	gymEnv := &GymEnv{Environment: goGymEnv}

	t, err := gymEnv.Reset()
	if err != nil {
		goGymEnv.Close()
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}

	return gymEnv, t, nil
}

// Step takes a single environmental step
func (g *GymEnv) Step(action int) (ts.TimeStep, bool, error) {
	a := mat.NewVecDense(1, []float64{float64(action)})
	obs, reward, done, err := g.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %v", err)
	}

	t := ts.New(ts.Mid, reward, obs, g.currentStep.Number+1)
	if done {
		t.SetEnd(ts.TerminalStateReached)
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	t := ts.New(ts.First, 0, obs, 0)
	g.currentStep = t

	return t, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	return spec(g.ObservationSpace(), env.Observation)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	return spec(g.ActionSpace(), env.Action)
}

// bounded is a GoGym space
type bounded interface {
	Low() []*mat.VecDense
	High() []*mat.VecDense
}

// spec converts a GoGym space into a Spec
func spec(space bounded, t env.SpecType) env.Spec {
	cardinality := env.Continuous
	switch space.(type) {
	case *gogym.BoxSpace:
	case *gogym.DiscreteSpace:
		cardinality = env.Discrete
	default:
		panic("spec: invalid space type, package gym supports " +
			"only GoGym's BoxSpace or DiscreteSpace")
	}

	low := space.Low()[0]
	high := space.High()[0]
	shape := mat.NewVecDense(low.Len(), nil)

	return env.NewSpec(shape, t, low, high, cardinality)
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}
