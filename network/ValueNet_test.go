package network

import (
	"math"
	"testing"

	"github.com/samuelfneumann/rainbow/distribution"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// run runs the graph of net once and returns its action values
func run(t *testing.T, net ValueNet) [][]float64 {
	t.Helper()

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("run: %v", err)
	}

	values, err := net.ActionValues()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return values
}

func newNet(t *testing.T, typ Type, features, actions, batch int) ValueNet {
	t.Helper()

	c := DefaultConfig(typ)
	if typ.IsDistributional() {
		c.Support = distribution.Support{Atoms: 11, VMin: -1, VMax: 1}
	}
	net, err := New(c, features, actions, batch)
	if err != nil {
		t.Fatalf("new %v: %v", typ, err)
	}
	return net
}

func TestNewAllTypes(t *testing.T) {
	types := []Type{DQN, Dueling, Noisy, NoisyDueling, Distributional, Rainbow}

	for _, typ := range types {
		net := newNet(t, typ, 4, 3, 2)
		if err := net.SetInput([]float64{1, 0, 0, 1, 0, 1, 1, 0}); err != nil {
			t.Fatalf("%v: %v", typ, err)
		}

		values := run(t, net)
		if len(values) != 2 || len(values[0]) != 3 {
			t.Errorf("%v: invalid action value shape (%v, %v)", typ,
				len(values), len(values[0]))
		}

		if typ.IsNoisy() && len(net.Noisy()) == 0 {
			t.Errorf("%v: expected noisy layers", typ)
		}
		if !typ.IsNoisy() && len(net.Noisy()) != 0 {
			t.Errorf("%v: expected no noisy layers, have %v", typ,
				len(net.Noisy()))
		}
	}
}

func TestNewInvalid(t *testing.T) {
	c := DefaultConfig(DQN)
	if _, err := New(c, 0, 2, 1); err == nil {
		t.Error("new: expected error for zero features")
	}

	c.Type = "Unknown"
	if _, err := New(c, 2, 2, 1); err == nil {
		t.Error("new: expected error for unknown type")
	}

	c = DefaultConfig(Distributional)
	c.Support.Atoms = 1
	if _, err := New(c, 2, 2, 1); err == nil {
		t.Error("new: expected error for single atom support")
	}
}

func TestMaskedAdvantageNegligible(t *testing.T) {
	const actions = 4
	net := newNet(t, Dueling, 3, actions, 1)
	if err := net.SetInput([]float64{0.5, -1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := net.SetMask([][]int{{0, 2, 3}}); err != nil {
		t.Fatal(err)
	}

	q := run(t, net)[0]

	// Normalized advantages average to 1/actions, so the mean of the
	// action values is the state value
	var v float64
	for _, value := range q {
		v += value / actions
	}

	var total float64
	for a, value := range q {
		p := value - v + 1.0/actions
		total += p
		if a == 1 && p > 1e-10 {
			t.Errorf("illegal action has probability %v", p)
		}
	}
	if math.Abs(total-1) > 1e-9 {
		t.Errorf("probabilities sum to %v", total)
	}
}

func TestDistributionalSetMaskValidates(t *testing.T) {
	for _, typ := range []Type{Distributional, Rainbow} {
		net := newNet(t, typ, 3, 4, 2)
		if net.(*valueNet).mask != nil {
			t.Errorf("%v: distributional network has mask nodes", typ)
		}

		if err := net.SetMask([][]int{{0, 1}, nil}); err != nil {
			t.Errorf("%v: setMask: %v", typ, err)
		}
		if err := net.SetMask([][]int{{0}}); err == nil {
			t.Errorf("%v: setMask: expected error for wrong number of rows",
				typ)
		}
		if err := net.SetMask([][]int{{4}, nil}); err == nil {
			t.Errorf("%v: setMask: expected error for out of range action",
				typ)
		}
	}
}

func TestDuelPreservesArgMax(t *testing.T) {
	const batch, actions = 2, 3
	value := []float64{0.5, -2}
	advantage := []float64{1, 3, 2, -1, -4, 0}

	g := G.NewGraph()
	v := fixedMatrix(g, batch, 1, value, "v")
	a := fixedMatrix(g, batch, actions, advantage, "a")

	q, err := duel(g, v, a, actions)
	if err != nil {
		t.Fatal(err)
	}
	var out G.Value
	G.Read(q, &out)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	data := out.Data().([]float64)

	for i := 0; i < batch; i++ {
		row := advantage[i*actions : (i+1)*actions]
		var mean float64
		for _, x := range row {
			mean += x / actions
		}

		best, bestQ := 0, math.Inf(-1)
		for j := 0; j < actions; j++ {
			want := value[i] + row[j] - mean
			have := data[i*actions+j]
			if math.Abs(want-have) > 1e-12 {
				t.Errorf("q[%v][%v]\n\twant(%v)\n\thave(%v)", i, j, want, have)
			}
			if have > bestQ {
				best, bestQ = j, have
			}
		}

		wantBest := 0
		for j := range row {
			if value[i]+row[j] > value[i]+row[wantBest] {
				wantBest = j
			}
		}
		if best != wantBest {
			t.Errorf("row %v: argmax changed\n\twant(%v)\n\thave(%v)", i,
				wantBest, best)
		}
	}
}

func TestDuelAtoms(t *testing.T) {
	const batch, actions, atoms = 1, 2, 3
	value := []float64{1, 2, 3}
	advantage := []float64{0, 1, 2, 4, 5, 6}

	g := G.NewGraph()
	v := fixedMatrix(g, batch, atoms, value, "v")
	a := fixedMatrix(g, batch, actions*atoms, advantage, "a")

	q, err := duelAtoms(g, v, a, actions, atoms)
	if err != nil {
		t.Fatal(err)
	}
	var out G.Value
	G.Read(q, &out)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	data := out.Data().([]float64)

	for a := 0; a < actions; a++ {
		for j := 0; j < atoms; j++ {
			mean := (advantage[j] + advantage[atoms+j]) / actions
			want := value[j] + advantage[a*atoms+j] - mean
			if have := data[a*atoms+j]; math.Abs(want-have) > 1e-12 {
				t.Errorf("q[%v][%v]\n\twant(%v)\n\thave(%v)", a, j, want, have)
			}
		}
	}
}

func TestDistributionsNormalized(t *testing.T) {
	for _, typ := range []Type{Distributional, Rainbow} {
		net := newNet(t, typ, 2, 3, 2)
		if err := net.SetInput([]float64{1, -1, 0.5, 2}); err != nil {
			t.Fatal(err)
		}
		run(t, net)

		dists, err := net.Distributions()
		if err != nil {
			t.Fatal(err)
		}
		for i, row := range dists {
			for a, p := range row {
				var total float64
				for _, mass := range p {
					if mass < distribution.MinMass {
						t.Errorf("%v: mass below minimum: %v", typ, mass)
					}
					total += mass
				}
				if math.Abs(total-1) > 1e-4 {
					t.Errorf("%v: distribution (%v, %v) sums to %v", typ, i, a,
						total)
				}
			}
		}
	}

	if _, err := newNet(t, DQN, 2, 2, 1).Distributions(); err == nil {
		t.Error("distributions: expected error for scalar network")
	}
}

func TestSetCopies(t *testing.T) {
	source := newNet(t, DQN, 3, 2, 1)
	dest := newNet(t, DQN, 3, 2, 1)

	if err := dest.Set(source); err != nil {
		t.Fatal(err)
	}

	obs := []float64{0.1, 0.2, 0.3}
	source.SetInput(obs)
	dest.SetInput(obs)
	want := run(t, source)
	have := run(t, dest)
	for j := range want[0] {
		if want[0][j] != have[0][j] {
			t.Errorf("set: outputs differ\n\twant(%v)\n\thave(%v)", want, have)
		}
	}

	// Changing the source afterwards must not change the destination
	weights := source.Weights()
	for _, w := range weights {
		data := w.Data().([]float64)
		for i := range data {
			data[i] += 1
		}
	}
	if err := source.SetWeights(weights); err != nil {
		t.Fatal(err)
	}
	after := run(t, dest)
	for j := range have[0] {
		if have[0][j] != after[0][j] {
			t.Errorf("set: destination aliases source weights")
		}
	}

	other := newNet(t, Dueling, 3, 2, 1)
	if err := dest.Set(other); err == nil {
		t.Error("set: expected error for different architectures")
	}
}

func TestCloneWithBatch(t *testing.T) {
	net := newNet(t, NoisyDueling, 2, 3, 1)
	noise, err := NewNoise(0.5, 7)
	if err != nil {
		t.Fatal(err)
	}
	if err := noise.Reset(net); err != nil {
		t.Fatal(err)
	}

	clone, err := net.CloneWithBatch(2)
	if err != nil {
		t.Fatal(err)
	}
	if clone.BatchSize() != 2 {
		t.Errorf("cloneWithBatch: invalid batch size\n\twant(2)\n\thave(%v)",
			clone.BatchSize())
	}

	obs := []float64{0.3, -0.7}
	net.SetInput(obs)
	clone.SetInput(append(append([]float64{}, obs...), obs...))

	want := run(t, net)[0]
	have := run(t, clone)
	for i := range have {
		for j := range want {
			if math.Abs(want[j]-have[i][j]) > 1e-12 {
				t.Errorf("cloneWithBatch: row %v differs\n\twant(%v)"+
					"\n\thave(%v)", i, want, have[i])
			}
		}
	}
}

func TestSetWeightsShape(t *testing.T) {
	net := newNet(t, DQN, 2, 2, 1)
	weights := net.Weights()
	weights[0] = tensor.New(tensor.WithShape(1, 1),
		tensor.WithBacking([]float64{0}))

	if err := net.SetWeights(weights); err == nil {
		t.Error("setWeights: expected error for invalid shape")
	}
	if err := net.SetWeights(weights[1:]); err == nil {
		t.Error("setWeights: expected error for missing weights")
	}
}

func TestSetInputPanics(t *testing.T) {
	net := newNet(t, DQN, 2, 2, 1)

	defer func() {
		if recover() == nil {
			t.Error("setInput: expected panic on invalid input size")
		}
	}()
	net.SetInput([]float64{1, 2, 3})
}
