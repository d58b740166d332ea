package network

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// layer is a single affine layer followed by an activation
type layer interface {
	fwd(x *G.Node) (*G.Node, error)
	learnables() G.Nodes
}

// denseLayer implements a fully connected layer of a feed forward
// neural network
type denseLayer struct {
	weights *G.Node // (in, out)
	bias    *G.Node // (1, out)
	act     Activation
}

// newDense adds a new denseLayer to the graph g
func newDense(g *G.ExprGraph, in, out int, act Activation, init G.InitWFn,
	name string) *denseLayer {
	weights := G.NewMatrix(g, tensor.Float64, G.WithShape(in, out),
		G.WithName(name+"W"), G.WithInit(init))
	bias := G.NewMatrix(g, tensor.Float64, G.WithShape(1, out),
		G.WithName(name+"B"), G.WithInit(G.Zeroes()))

	return &denseLayer{weights: weights, bias: bias, act: act}
}

// fwd adds the forward pass of the denseLayer to the computational graph
func (d *denseLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, d.weights)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not multiply weights: %v", err)
	}

	// Broadcast the bias weights to all samples along the batch
	// dimension
	x, err = G.BroadcastAdd(x, d.bias, nil, []byte{0})
	if err != nil {
		return nil, fmt.Errorf("fwd: could not add bias: %v", err)
	}

	return d.act.fwd(x)
}

func (d *denseLayer) learnables() G.Nodes {
	return G.Nodes{d.weights, d.bias}
}

// NoisyLayer is a fully connected layer whose weights and biases are
// perturbed by factorized Gaussian noise:
//
//	W = μ_W + σ_W ⊙ ε_W
//	b = μ_b + σ_b ⊙ ε_b
//
// The means and scales are learned. The noise ε is an input to the
// graph which keeps its value until it is replaced with SetNoise.
type NoisyLayer struct {
	muW, sigmaW, epsW *G.Node // (in, out)
	muB, sigmaB, epsB *G.Node // (1, out)

	in, out int
	act     Activation
}

// newNoisy adds a new NoisyLayer to the graph g. The means are drawn
// from U(-1/√in, 1/√in) and the scales are set to sigmaInit/√out.
func newNoisy(g *G.ExprGraph, in, out int, act Activation,
	sigmaInit float64, name string) *NoisyLayer {
	bound := 1 / math.Sqrt(float64(in))
	sigma := sigmaInit / math.Sqrt(float64(out))

	newParam := func(rows int, suffix string, init G.InitWFn) *G.Node {
		return G.NewMatrix(g, tensor.Float64, G.WithShape(rows, out),
			G.WithName(name+suffix), G.WithInit(init))
	}

	return &NoisyLayer{
		muW:    newParam(in, "MuW", G.Uniform(-bound, bound)),
		sigmaW: newParam(in, "SigmaW", G.ValuesOf(sigma)),
		epsW:   newParam(in, "EpsW", G.Zeroes()),
		muB:    newParam(1, "MuB", G.Uniform(-bound, bound)),
		sigmaB: newParam(1, "SigmaB", G.ValuesOf(sigma)),
		epsB:   newParam(1, "EpsB", G.Zeroes()),
		in:     in,
		out:    out,
		act:    act,
	}
}

// fwd adds the forward pass of the NoisyLayer to the computational graph
func (n *NoisyLayer) fwd(x *G.Node) (*G.Node, error) {
	weights, err := G.Add(n.muW, G.Must(G.HadamardProd(n.sigmaW, n.epsW)))
	if err != nil {
		return nil, fmt.Errorf("fwd: could not perturb weights: %v", err)
	}
	bias, err := G.Add(n.muB, G.Must(G.HadamardProd(n.sigmaB, n.epsB)))
	if err != nil {
		return nil, fmt.Errorf("fwd: could not perturb bias: %v", err)
	}

	x, err = G.Mul(x, weights)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not multiply weights: %v", err)
	}
	x, err = G.BroadcastAdd(x, bias, nil, []byte{0})
	if err != nil {
		return nil, fmt.Errorf("fwd: could not add bias: %v", err)
	}

	return n.act.fwd(x)
}

// learnables returns the means and scales of the layer. The noise is
// not learned.
func (n *NoisyLayer) learnables() G.Nodes {
	return G.Nodes{n.muW, n.sigmaW, n.muB, n.sigmaB}
}

// In returns the number of inputs to the layer
func (n *NoisyLayer) In() int {
	return n.in
}

// Out returns the number of outputs of the layer
func (n *NoisyLayer) Out() int {
	return n.out
}

// SetNoise replaces the current noise of the layer. The weight noise is
// given in row-major order with shape (in, out).
func (n *NoisyLayer) SetNoise(weightNoise, biasNoise []float64) error {
	if len(weightNoise) != n.in*n.out {
		return fmt.Errorf("setNoise: invalid weight noise size\n\twant(%v)"+
			"\n\thave(%v)", n.in*n.out, len(weightNoise))
	}
	if len(biasNoise) != n.out {
		return fmt.Errorf("setNoise: invalid bias noise size\n\twant(%v)"+
			"\n\thave(%v)", n.out, len(biasNoise))
	}

	w := make([]float64, len(weightNoise))
	copy(w, weightNoise)
	b := make([]float64, len(biasNoise))
	copy(b, biasNoise)

	err := G.Let(n.epsW, tensor.New(tensor.WithShape(n.in, n.out),
		tensor.WithBacking(w)))
	if err != nil {
		return fmt.Errorf("setNoise: could not set weight noise: %v", err)
	}

	err = G.Let(n.epsB, tensor.New(tensor.WithShape(1, n.out),
		tensor.WithBacking(b)))
	if err != nil {
		return fmt.Errorf("setNoise: could not set bias noise: %v", err)
	}

	return nil
}

// Noise returns copies of the current weight and bias noise
func (n *NoisyLayer) Noise() (weightNoise, biasNoise []float64) {
	w := n.epsW.Value().Data().([]float64)
	b := n.epsB.Value().Data().([]float64)

	weightNoise = make([]float64, len(w))
	copy(weightNoise, w)
	biasNoise = make([]float64, len(b))
	copy(biasNoise, b)

	return weightNoise, biasNoise
}
