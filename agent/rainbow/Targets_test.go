package rainbow

import (
	"testing"

	"github.com/samuelfneumann/rainbow/network"
	ts "github.com/samuelfneumann/rainbow/timestep"
	"github.com/samuelfneumann/rainbow/utils/floatutils"
	"gonum.org/v1/gonum/mat"
)

// oneHot returns a one-hot vector of length n with a 1 at index i
func oneHot(n, i int) *mat.VecDense {
	v := mat.NewVecDense(n, nil)
	v.SetVec(i, 1)
	return v
}

// fixedBatch returns a batch of batchSize transitions between one-hot
// states. The second row restricts its next legal actions, and the
// last row is terminal.
func fixedBatch(r *Rainbow) []ts.Transition {
	batch := make([]ts.Transition, r.batchSize)
	for i := range batch {
		batch[i] = ts.Transition{
			State:     oneHot(r.features, i%r.features),
			Action:    (i + 1) % r.actions,
			NextState: oneHot(r.features, (i+1)%r.features),
			Reward:    float64(i) - 0.5,
		}
	}
	batch[1].NextLegal = []int{1, r.actions - 1}
	batch[len(batch)-1].Done = true
	return batch
}

// disagreeingAgent returns a double Q-learning agent whose target
// network has weights taken from another agent, chosen so that for at
// least one non-terminal row of batch the greedy action of the target
// network differs from that of the online network
func disagreeingAgent(t *testing.T, typ network.Type) (*Rainbow,
	[]ts.Transition) {
	t.Helper()

	e := newCorridor(t, 9)
	t.Cleanup(func() { e.Close() })

	c := testConfig(typ)
	c.Double = true
	r := newAgent(t, e, c, 9)
	batch := fixedBatch(r)
	_, nextStates, _, nextLegal := r.flatten(batch)

	for seed := uint64(10); seed < 60; seed++ {
		other := newAgent(t, e, c, seed)
		if err := r.targetNet.Set(other.trainNet); err != nil {
			t.Fatal(err)
		}

		online, _ := evaluate(r.nextNet, r.nextVM, nextStates, nextLegal)
		target, _ := evaluate(r.targetNet, r.targetVM, nextStates, nextLegal)
		for i := range batch[:len(batch)-1] {
			a := floatutils.ArgMax(online[i], nextLegal[i], nil)
			b := floatutils.ArgMax(target[i], nextLegal[i], nil)
			if a != b {
				return r, batch
			}
		}
	}

	t.Fatal("could not find a target network disagreeing with the online " +
		"network")
	return nil, nil
}

func TestScalarTargets(t *testing.T) {
	r, batch := disagreeingAgent(t, network.DQN)
	_, nextStates, _, nextLegal := r.flatten(batch)

	if nextLegal[len(batch)-1] != nil {
		t.Errorf("flatten: terminal row has legal actions %v",
			nextLegal[len(batch)-1])
	}

	online, _ := evaluate(r.nextNet, r.nextVM, nextStates, nextLegal)
	target, _ := evaluate(r.targetNet, r.targetVM, nextStates, nextLegal)

	nextActions, evalValues, _ := r.greedyNext(nextStates, nextLegal)
	if err := r.setScalarTargets(batch, nextActions, evalValues); err != nil {
		t.Fatal(err)
	}

	targets := r.targets.Value().Data().([]float64)
	selected := r.selected.Value().Data().([]float64)
	for i, tr := range batch {
		want := tr.Reward
		if !tr.Done {
			a := floatutils.ArgMax(online[i], nextLegal[i], nil)
			if nextActions[i] != a {
				t.Errorf("row %v: next action\n\twant(%v)\n\thave(%v)", i, a,
					nextActions[i])
			}
			want += r.gamma * target[i][a]
		}
		if targets[i] != want {
			t.Errorf("row %v: target\n\twant(%v)\n\thave(%v)", i, want,
				targets[i])
		}

		for a := 0; a < r.actions; a++ {
			want := 0.0
			if a == tr.Action {
				want = 1
			}
			if have := selected[i*r.actions+a]; have != want {
				t.Errorf("row %v: selected action %v\n\twant(%v)\n\thave(%v)",
					i, a, want, have)
			}
		}
	}

	if nextActions[1] != 1 && nextActions[1] != r.actions-1 {
		t.Errorf("greedyNext: illegal next action %v", nextActions[1])
	}
	if last := len(batch) - 1; targets[last] != batch[last].Reward {
		t.Errorf("terminal target\n\twant(%v)\n\thave(%v)",
			batch[last].Reward, targets[last])
	}
}

func TestDistributionalTargets(t *testing.T) {
	r, batch := disagreeingAgent(t, network.Distributional)
	_, nextStates, _, nextLegal := r.flatten(batch)

	online, _ := evaluate(r.nextNet, r.nextVM, nextStates, nextLegal)
	_, target := evaluate(r.targetNet, r.targetVM, nextStates, nextLegal)

	nextActions, _, evalDists := r.greedyNext(nextStates, nextLegal)
	if err := r.setDistributionalTargets(batch, nextActions,
		evalDists); err != nil {
		t.Fatal(err)
	}

	support := r.trainNet.Config().Support
	atoms := support.Atoms
	projected := r.projected.Value().Data().([]float64)
	if len(projected) != r.batchSize*r.actions*atoms {
		t.Fatalf("projected: want(%v) entries have(%v)",
			r.batchSize*r.actions*atoms, len(projected))
	}

	for i, tr := range batch {
		a := floatutils.ArgMax(online[i], nextLegal[i], nil)
		want := support.Project(target[i][a], tr.Reward, r.gamma, tr.Done)

		for action := 0; action < r.actions; action++ {
			row := projected[(i*r.actions+action)*atoms:][:atoms]
			for j, have := range row {
				w := 0.0
				if action == tr.Action {
					w = want[j]
				}
				if have != w {
					t.Fatalf("row %v action %v atom %v\n\twant(%v)\n\thave(%v)",
						i, action, j, w, have)
				}
			}
		}
	}
}
