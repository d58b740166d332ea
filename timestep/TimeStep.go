// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType denotes why an episode ended
type EndType int

const (
	// Nil denotes the episode has not ended
	Nil EndType = iota

	// TerminalStateReached denotes the episode ended in a terminal
	// state of the environment, there is no bootstrapping past it
	TerminalStateReached

	// StepLimitReached denotes the episode was cut off at a step limit
	StepLimitReached
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case StepLimitReached:
		return "StepLimitReached"
	default:
		return "Nil"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Observation mat.Vector
	Number      int

	// Legal holds the actions that may be taken from Observation. A nil
	// Legal means every action in the action space is legal.
	Legal []int

	endType EndType
}

// New returns a new TimeStep
func New(t StepType, r float64, o mat.Vector, n int) TimeStep {
	return TimeStep{StepType: t, Reward: r, Observation: o, Number: n}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd marks the TimeStep as the last in its episode, recording why
// the episode ended
func (t *TimeStep) SetEnd(e EndType) {
	t.StepType = Last
	t.endType = e
}

// EndType returns why the episode ended at this TimeStep
func (t *TimeStep) EndType() EndType {
	return t.endType
}

// Terminal returns whether the TimeStep is a true terminal state. An
// episode cut off by a step limit is Last but not Terminal.
func (t *TimeStep) Terminal() bool {
	return t.Last() && t.endType != StepLimitReached
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Step Number:  %v" +
		"  |  End: %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Number, t.endType)
}
