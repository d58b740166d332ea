package op

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// vector adds a vector with the given value to g
func vector(g *G.ExprGraph, data []float64, name string) *G.Node {
	value := tensor.New(tensor.WithShape(len(data)),
		tensor.WithBacking(append([]float64{}, data...)))
	return G.NewVector(g, tensor.Float64, G.WithShape(len(data)),
		G.WithName(name), G.WithValue(value))
}

// run runs g and returns the value of n
func run(t *testing.T, g *G.ExprGraph, n *G.Node) G.Value {
	t.Helper()

	var out G.Value
	G.Read(n, &out)
	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestSmoothL1(t *testing.T) {
	diffs := []float64{-3, -1, -0.5, 0, 0.25, 1, 2.5}

	g := G.NewGraph()
	loss, err := SmoothL1(vector(g, diffs, "diff"))
	if err != nil {
		t.Fatal(err)
	}
	have := run(t, g, loss).Data().([]float64)

	for i, d := range diffs {
		want := 0.5 * d * d
		if math.Abs(d) > 1 {
			want = math.Abs(d) - 0.5
		}
		if math.Abs(have[i]-want) > 1e-12 {
			t.Errorf("smoothL1(%v)\n\twant(%v)\n\thave(%v)", d, want, have[i])
		}
	}
}

func TestClampMin(t *testing.T) {
	values := []float64{-1, 1e-9, 0.5}

	g := G.NewGraph()
	clamped, err := ClampMin(vector(g, values, "values"), 1e-6)
	if err != nil {
		t.Fatal(err)
	}
	have := run(t, g, clamped).Data().([]float64)

	for i, v := range values {
		want := math.Max(v, 1e-6)
		if math.Abs(have[i]-want) > 1e-15 {
			t.Errorf("clampMin(%v)\n\twant(%v)\n\thave(%v)", v, want, have[i])
		}
	}
}

func TestCrossEntropy(t *testing.T) {
	target := []float64{0, 1, 0.5, 0.5}
	probs := []float64{0.5, 0.5, 0.25, 0.75}

	g := G.NewGraph()
	loss, err := CrossEntropy(vector(g, target, "target"),
		vector(g, probs, "probs"), 2)
	if err != nil {
		t.Fatal(err)
	}
	have := run(t, g, loss).Data().(float64)

	var want float64
	for i := range target {
		want -= target[i] * math.Log(probs[i]) / 2
	}
	if math.Abs(have-want) > 1e-12 {
		t.Errorf("crossEntropy\n\twant(%v)\n\thave(%v)", want, have)
	}

	if _, err := CrossEntropy(vector(g, target, "t2"),
		vector(g, probs[:2], "p2"), 2); err == nil {
		t.Error("crossEntropy: expected error for incompatible shapes")
	}
}
