package environment

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
)

// UniformStarter returns starting states as vectors sampled uniformly
// at random, feature i in the interval bounds[i]
type UniformStarter struct {
	rand []distuv.Uniform
}

// NewUniformStarter returns a new UniformStarter sampling from bounds
func NewUniformStarter(bounds []r1.Interval, seed uint64) UniformStarter {
	source := rand.NewSource(seed)

	dists := make([]distuv.Uniform, len(bounds))
	for i, b := range bounds {
		dists[i] = distuv.Uniform{Min: b.Min, Max: b.Max, Src: source}
	}
	return UniformStarter{dists}
}

// Start returns a starting state vector
func (u UniformStarter) Start() *mat.VecDense {
	start := make([]float64, len(u.rand))
	for i := range start {
		start[i] = u.rand[i].Rand()
	}
	return mat.NewVecDense(len(start), start)
}
