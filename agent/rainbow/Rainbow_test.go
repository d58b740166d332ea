package rainbow

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/rainbow/distribution"
	env "github.com/samuelfneumann/rainbow/environment"
	"github.com/samuelfneumann/rainbow/environment/envconfig"
	"github.com/samuelfneumann/rainbow/expreplay"
	"github.com/samuelfneumann/rainbow/network"
	"gorgonia.org/tensor"
)

// testConfig returns a Config with small networks and batches
func testConfig(typ network.Type) Config {
	c := DefaultConfig(typ)
	c.Network.Hidden, c.Network.Streams = []int{8}, []int{8}
	if typ.IsDistributional() {
		c.Network.Support = distribution.Support{Atoms: 11, VMin: -1, VMax: 1}
	}
	c.BatchSize = 4
	c.Replay = expreplay.Config{Capacity: 50}
	return c
}

func newCorridor(t *testing.T, seed uint64) env.Environment {
	t.Helper()

	c := envconfig.Config{
		Environment:   envconfig.Corridor,
		Length:        4,
		EpisodeCutoff: 20,
	}
	e, err := c.Create(seed)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func newAgent(t *testing.T, e env.Environment, c Config, seed uint64) *Rainbow {
	t.Helper()

	r, err := New(e, c, seed)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return r
}

// runEpisode runs a single training episode, returning its return
func runEpisode(t *testing.T, e env.Environment, r *Rainbow,
	episode int) float64 {
	t.Helper()

	step, err := e.Reset()
	if err != nil {
		t.Fatal(err)
	}
	if err := r.ObserveFirst(step); err != nil {
		t.Fatal(err)
	}

	var ret float64
	for !step.Last() {
		action := r.SelectAction(step)
		step, _, err = e.Step(action)
		if err != nil {
			t.Fatal(err)
		}
		ret += step.Reward

		if err := r.Observe(action, step); err != nil {
			t.Fatal(err)
		}
		if err := r.Step(); err != nil {
			t.Fatal(err)
		}
	}

	if err := r.EndEpisode(episode); err != nil {
		t.Fatal(err)
	}
	return ret
}

func equalWeights(a, b []*tensor.Dense) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i].Data().([]float64), b[i].Data().([]float64)
		if len(x) != len(y) {
			return false
		}
		for j := range x {
			if x[j] != y[j] {
				return false
			}
		}
	}
	return true
}

func TestStepBeforeMinSize(t *testing.T) {
	e := newCorridor(t, 1)
	defer e.Close()

	c := testConfig(network.DQN)
	c.Replay.MinSize = 10
	r := newAgent(t, e, c, 1)

	before := r.trainNet.Weights()

	step, _ := e.Reset()
	r.ObserveFirst(step)
	for i := 0; i < c.minSize()-1; i++ {
		next, _, err := e.Step(0)
		if err != nil {
			t.Fatal(err)
		}
		if err := r.Observe(0, next); err != nil {
			t.Fatal(err)
		}
		if err := r.Step(); err != nil {
			t.Fatal(err)
		}
	}

	if r.replay.Len() != c.minSize()-1 {
		t.Fatalf("replay: want(%v) transitions have(%v)", c.minSize()-1,
			r.replay.Len())
	}
	if !equalWeights(before, r.trainNet.Weights()) {
		t.Error("step: weights changed before replay held enough transitions")
	}
	if r.LastLoss() != 0 {
		t.Errorf("step: unexpected loss %v before any update", r.LastLoss())
	}
}

func TestObserveBeforeObserveFirst(t *testing.T) {
	e := newCorridor(t, 1)
	defer e.Close()
	r := newAgent(t, e, testConfig(network.DQN), 1)

	step, _ := e.Reset()
	if err := r.Observe(0, step); err == nil {
		t.Error("observe: expected error before ObserveFirst")
	}
}

func TestAllTypesUpdate(t *testing.T) {
	types := []network.Type{
		network.DQN,
		network.Dueling,
		network.Noisy,
		network.NoisyDueling,
		network.Distributional,
		network.Rainbow,
	}

	for _, typ := range types {
		e := newCorridor(t, 2)
		c := testConfig(typ)
		c.Double = true
		r := newAgent(t, e, c, 2)

		before := r.trainNet.Weights()
		for i := 0; i < 3; i++ {
			runEpisode(t, e, r, i)
		}

		loss := r.LastLoss()
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			t.Errorf("%v: invalid loss %v", typ, loss)
		}
		if equalWeights(before, r.trainNet.Weights()) {
			t.Errorf("%v: weights not updated", typ)
		}
		if !equalWeights(r.actNet.Weights(), r.trainNet.Weights()) {
			t.Errorf("%v: action network not synced after update", typ)
		}
		e.Close()
	}
}

func TestTargetSync(t *testing.T) {
	e := newCorridor(t, 3)
	defer e.Close()

	// Every episode takes at least two steps, so with a batch of two
	// every episode updates the online network
	c := testConfig(network.DQN)
	c.BatchSize = 2
	c.Double = true
	c.TargetUpdateInterval = 2
	r := newAgent(t, e, c, 3)

	runEpisode(t, e, r, 0)
	if equalWeights(r.targetNet.Weights(), r.trainNet.Weights()) {
		t.Error("endEpisode: target synced before the update interval")
	}

	runEpisode(t, e, r, 1)
	if !equalWeights(r.targetNet.Weights(), r.trainNet.Weights()) {
		t.Fatal("endEpisode: target not identical to online network after " +
			"sync")
	}
	synced := r.targetNet.Weights()

	// Episode 2 does not end on a sync boundary
	runEpisode(t, e, r, 2)
	if !equalWeights(synced, r.targetNet.Weights()) {
		t.Error("step: target network changed between syncs")
	}
	if equalWeights(synced, r.trainNet.Weights()) {
		t.Error("step: online network not updated after sync")
	}
}

func TestEpsilonDecaysPerStep(t *testing.T) {
	e := newCorridor(t, 4)
	defer e.Close()
	c := testConfig(network.DQN)
	r := newAgent(t, e, c, 4)

	runEpisode(t, e, r, 0)
	if r.Epsilon() != c.Eps {
		t.Errorf("epsilon decayed in the first episode\n\twant(%v)\n\thave(%v)",
			c.Eps, r.Epsilon())
	}

	last := r.Epsilon()
	for i := 1; i < 4; i++ {
		runEpisode(t, e, r, i)
		if r.Epsilon() >= last {
			t.Errorf("episode %v: epsilon not decayed\n\twant(<%v)\n\thave(%v)",
				i, last, r.Epsilon())
		}
		if r.Epsilon() < c.MinEps {
			t.Errorf("episode %v: epsilon %v below minimum", i, r.Epsilon())
		}
		last = r.Epsilon()
	}
}

func TestSaveLoad(t *testing.T) {
	for _, typ := range []network.Type{network.Dueling, network.Rainbow} {
		e := newCorridor(t, 5)
		c := testConfig(typ)
		c.Double = true
		r := newAgent(t, e, c, 5)
		for i := 0; i < 2; i++ {
			runEpisode(t, e, r, i)
		}

		filename := filepath.Join(t.TempDir(), "models", "agent.gob")
		if err := r.Save(filename); err != nil {
			t.Fatal(err)
		}

		loaded := newAgent(t, e, c, 6)
		if err := loaded.Load(filename); err != nil {
			t.Fatal(err)
		}

		if loaded.Epsilon() != r.Epsilon() {
			t.Errorf("%v: epsilon\n\twant(%v)\n\thave(%v)", typ, r.Epsilon(),
				loaded.Epsilon())
		}
		if !equalWeights(r.trainNet.Weights(), loaded.targetNet.Weights()) {
			t.Errorf("%v: loaded weights not applied to target network", typ)
		}

		// Noise differs between agents, so only compare noiseless nets
		if !typ.IsNoisy() {
			step, _ := e.Reset()
			want := r.ActionValues(step)
			have := loaded.ActionValues(step)
			for a := range want {
				if want[a] != have[a] {
					t.Errorf("%v: action values\n\twant(%v)\n\thave(%v)", typ,
						want, have)
					break
				}
			}
		}

		other := newAgent(t, e, testConfig(network.DQN), 5)
		if err := other.Load(filename); err == nil {
			t.Errorf("%v: expected error loading into a different network", typ)
		}
		e.Close()
	}
}

func TestSelectActionLegal(t *testing.T) {
	e, err := envconfig.Config{Environment: envconfig.TicTacToe}.Create(7)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	for _, eps := range []float64{0, 1} {
		c := testConfig(network.Dueling)
		c.Eps, c.MinEps = eps, 0
		r := newAgent(t, e, c, 7)

		for game := 0; game < 20; game++ {
			step, _ := e.Reset()
			r.ObserveFirst(step)

			for !step.Last() {
				action := r.SelectAction(step)
				legal := false
				for _, a := range step.Legal {
					legal = legal || a == action
				}
				if !legal {
					t.Fatalf("eps %v: illegal action %v selected, legal %v",
						eps, action, step.Legal)
				}

				step, _, err = e.Step(action)
				if err != nil {
					t.Fatal(err)
				}
				if err := r.Observe(action, step); err != nil {
					t.Fatal(err)
				}
				if err := r.Step(); err != nil {
					t.Fatal(err)
				}
			}
			r.EndEpisode(game)
		}
	}
}

func TestEvalMode(t *testing.T) {
	e := newCorridor(t, 8)
	defer e.Close()
	r := newAgent(t, e, testConfig(network.DQN), 8)

	r.Eval()
	if !r.IsEval() {
		t.Fatal("eval: agent not in evaluation mode")
	}

	step, _ := e.Reset()
	r.ObserveFirst(step)
	want := r.SelectAction(step)
	for i := 0; i < 10; i++ {
		if a := r.SelectAction(step); a != want {
			t.Fatalf("eval: greedy action changed\n\twant(%v)\n\thave(%v)",
				want, a)
		}
	}

	next, _, _ := e.Step(want)
	r.Observe(want, next)
	if r.replay.Len() != 0 {
		t.Error("observe: transitions stored in evaluation mode")
	}

	r.Train()
	if r.IsEval() {
		t.Error("train: agent still in evaluation mode")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"batch", func(c *Config) { c.BatchSize = 0 }},
		{"capacity", func(c *Config) { c.Replay.Capacity = c.BatchSize - 1 }},
		{"gamma", func(c *Config) { c.Gamma = 1.5 }},
		{"epsilon", func(c *Config) { c.MinEps = 2 }},
		{"interval", func(c *Config) { c.Double, c.TargetUpdateInterval = true, 0 }},
		{"solver", func(c *Config) { c.Solver = nil }},
	}

	if err := testConfig(network.DQN).Validate(); err != nil {
		t.Fatalf("validate: unexpected error %v", err)
	}
	for _, test := range tests {
		c := testConfig(network.DQN)
		test.modify(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%v: expected validation error", test.name)
		}
	}
}
