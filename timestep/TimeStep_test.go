package timestep

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestTerminal(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{0, 1})

	step := New(Mid, 1.0, obs, 3)
	if step.Terminal() {
		t.Errorf("terminal: mid step reported terminal")
	}

	step.SetEnd(StepLimitReached)
	if !step.Last() || step.Terminal() {
		t.Errorf("terminal: step limit should be last but not terminal")
	}

	step.SetEnd(TerminalStateReached)
	if !step.Terminal() {
		t.Errorf("terminal: terminal state not reported terminal")
	}
}

func TestNewTransitionCopies(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{1, 0})
	nextObs := mat.NewVecDense(2, []float64{0, 1})

	step := New(First, 0, obs, 0)
	next := New(Mid, 0.5, nextObs, 1)
	next.Legal = []int{0, 2}

	trans := NewTransition(step, 1, next)

	obs.SetVec(0, 5)
	next.Legal[0] = 3
	if trans.State.AtVec(0) != 1 {
		t.Errorf("newTransition: state aliases observation")
	}
	if trans.NextLegal[0] != 0 {
		t.Errorf("newTransition: next legal aliases timestep")
	}
	if trans.Reward != 0.5 || trans.Action != 1 || trans.Done {
		t.Errorf("newTransition: unexpected transition %v", trans)
	}
}
