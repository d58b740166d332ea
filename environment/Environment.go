// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/rainbow/timestep"
)

// Environment implements a simulated environment with discrete actions.
// Actions are enumerated from 0 to ActionSpec().Actions()-1.
type Environment interface {
	// Reset starts a new episode and returns its first TimeStep
	Reset() (timestep.TimeStep, error)

	// Step takes action in the environment, returning the next TimeStep
	// and whether the episode has ended
	Step(action int) (timestep.TimeStep, bool, error)

	ObservationSpec() Spec
	ActionSpec() Spec

	// Close releases any resources held by the environment
	Close() error
}

// Board is an Environment in which only some actions are legal in each
// state. Boards also fill in the Legal field of the TimeSteps they
// return.
type Board interface {
	Environment

	// LegalActions returns the actions legal in the current state
	LegalActions() []int
}

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when an episode should end
type Ender interface {
	// End returns whether the episode should be ended at t. If so, End
	// marks t as the last TimeStep of the episode.
	End(t *timestep.TimeStep) bool
}

// Enders combines multiple Enders, ending an episode as soon as one of
// them does. Earlier Enders take precedence.
type Enders []Ender

// End implements the Ender interface
func (e Enders) End(t *timestep.TimeStep) bool {
	for _, ender := range e {
		if ender.End(t) {
			return true
		}
	}
	return false
}
