package experiment

import (
	"fmt"
	"io"

	"github.com/aunum/log"
	"github.com/samuelfneumann/rainbow/agent"
	env "github.com/samuelfneumann/rainbow/environment"
	"golang.org/x/exp/rand"
)

const (
	Victory string = "Victory"
	Lost    string = "Lost"
)

// Evaluate loads the checkpoint at filename into a and runs a single
// greedy episode of a on e. Evaluate writes Victory to out if the
// episode's total reward is positive and Lost otherwise, and returns
// whether the episode was won. The agent is returned to its previous
// mode afterwards.
func Evaluate(e env.Environment, a agent.Saver, filename string,
	out io.Writer) (bool, error) {
	if err := a.Load(filename); err != nil {
		return false, fmt.Errorf("evaluate: %v", err)
	}

	if !a.IsEval() {
		a.Eval()
		defer a.Train()
	}

	step, err := e.Reset()
	if err != nil {
		return false, fmt.Errorf("evaluate: could not reset environment: %v",
			err)
	}
	if err := a.ObserveFirst(step); err != nil {
		return false, fmt.Errorf("evaluate: %v", err)
	}

	var ret float64
	for !step.Last() {
		action := a.SelectAction(step)
		step, _, err = e.Step(action)
		if err != nil {
			return false, fmt.Errorf("evaluate: %v", err)
		}
		ret += step.Reward

		if err := a.Observe(action, step); err != nil {
			return false, fmt.Errorf("evaluate: %v", err)
		}
	}

	won := ret > 0
	result := Lost
	if won {
		result = Victory
	}
	if out != nil {
		fmt.Fprintln(out, result)
	}
	log.Successf("evaluation finished with return %.4f", ret)

	return won, nil
}

// RandomPlay plays episodes on e choosing uniformly random legal
// actions and returns the return of each episode. If out is not nil
// and the environment implements fmt.Stringer, the environment is
// written to out after each step.
func RandomPlay(e env.Environment, episodes int, seed uint64,
	out io.Writer) ([]float64, error) {
	actions, err := e.ActionSpec().Actions()
	if err != nil {
		return nil, fmt.Errorf("randomPlay: %v", err)
	}
	rng := rand.New(rand.NewSource(seed))
	stringer, render := e.(fmt.Stringer)
	render = render && out != nil

	returns := make([]float64, episodes)
	for i := range returns {
		step, err := e.Reset()
		if err != nil {
			return nil, fmt.Errorf("randomPlay: %v", err)
		}

		for !step.Last() {
			var action int
			if step.Legal == nil {
				action = rng.Intn(actions)
			} else if len(step.Legal) > 0 {
				action = step.Legal[rng.Intn(len(step.Legal))]
			} else {
				return nil, fmt.Errorf("randomPlay: no legal actions at "+
					"timestep %v", step.Number)
			}

			step, _, err = e.Step(action)
			if err != nil {
				return nil, fmt.Errorf("randomPlay: %v", err)
			}
			returns[i] += step.Reward

			if render {
				fmt.Fprintln(out, stringer.String())
			}
		}
	}

	return returns, nil
}
