package network

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Noise generates factorized Gaussian noise for NoisyLayers. Rather
// than drawing in×out independent samples for a layer's weights, Noise
// draws in+out samples, transforms each with f(x) = sign(x)·√|x|, and
// uses the outer product of the two transformed vectors as the weight
// noise. The output-sized vector is the bias noise.
type Noise struct {
	normal distuv.Normal
}

// NewNoise returns a new Noise drawing from N(0, std²)
func NewNoise(std float64, seed uint64) (*Noise, error) {
	if std < 0 {
		return nil, fmt.Errorf("newNoise: standard deviation must be "+
			"non-negative\n\twant(>=0)\n\thave(%v)", std)
	}

	normal := distuv.Normal{
		Mu:    0,
		Sigma: std,
		Src:   rand.NewSource(seed),
	}
	return &Noise{normal: normal}, nil
}

// factor returns size samples transformed by sign(x)·√|x|
func (n *Noise) factor(size int) []float64 {
	f := make([]float64, size)
	for i := range f {
		x := n.normal.Rand()
		f[i] = math.Copysign(math.Sqrt(math.Abs(x)), x)
	}
	return f
}

// Sample returns new weight noise of shape (in, out) in row-major order
// and bias noise of length out
func (n *Noise) Sample(in, out int) (weightNoise, biasNoise []float64) {
	fIn := n.factor(in)
	fOut := n.factor(out)

	weightNoise = make([]float64, in*out)
	for i := 0; i < in; i++ {
		for j := 0; j < out; j++ {
			weightNoise[i*out+j] = fIn[i] * fOut[j]
		}
	}

	return weightNoise, fOut
}

// Reset draws fresh noise for every noisy layer of the first net and
// applies the same noise to the matching layers of the remaining nets.
// All nets must share an architecture.
func (n *Noise) Reset(nets ...ValueNet) error {
	if len(nets) == 0 {
		return nil
	}

	layers := nets[0].Noisy()
	for _, net := range nets[1:] {
		if len(net.Noisy()) != len(layers) {
			return fmt.Errorf("reset: nets have different noisy layers"+
				"\n\twant(%v)\n\thave(%v)", len(layers), len(net.Noisy()))
		}
	}

	for i, l := range layers {
		w, b := n.Sample(l.In(), l.Out())
		for _, net := range nets {
			if err := net.Noisy()[i].SetNoise(w, b); err != nil {
				return fmt.Errorf("reset: layer %v: %v", i, err)
			}
		}
	}

	return nil
}
