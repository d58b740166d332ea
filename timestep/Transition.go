package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single (s, a, s', r, done) tuple of experience.
// Legal and NextLegal list the actions legal in State and NextState,
// nil meaning all actions are legal.
type Transition struct {
	State     *mat.VecDense
	Action    int
	NextState *mat.VecDense
	Reward    float64
	Done      bool
	Legal     []int
	NextLegal []int
}

// NewTransition creates a Transition between two consecutive
// TimeSteps. The observations and legal actions are copied so that
// the Transition does not alias environment state.
func NewTransition(step TimeStep, action int, nextStep TimeStep) Transition {
	return Transition{
		State:     mat.VecDenseCopyOf(step.Observation),
		Action:    action,
		NextState: mat.VecDenseCopyOf(nextStep.Observation),
		Reward:    nextStep.Reward,
		Done:      nextStep.Terminal(),
		Legal:     CopyLegal(step.Legal),
		NextLegal: CopyLegal(nextStep.Legal),
	}
}

// CopyLegal returns a copy of a list of legal actions, preserving nil
func CopyLegal(legal []int) []int {
	if legal == nil {
		return nil
	}
	c := make([]int, len(legal))
	copy(c, legal)
	return c
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | A: %v  |  R: %.2f  |  Done: %v",
		t.Action, t.Reward, t.Done)
}
