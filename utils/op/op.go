// Package op provides extended Gorgonia graph operations used by the
// value networks and their losses.
package op

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// ClampMin clamps every element of value below at min:
//
//	max(x, min) = x + relu(min - x)
func ClampMin(value *G.Node, min float64) (retVal *G.Node, err error) {
	minNode := G.NewConstant(min, G.WithName("clamp_min"))

	deficit, err := G.Sub(minNode, value)
	if err != nil {
		return nil, fmt.Errorf("clampMin: %v", err)
	}
	deficit, err = G.Rectify(deficit)
	if err != nil {
		return nil, fmt.Errorf("clampMin: %v", err)
	}
	return G.Add(value, deficit)
}

// SmoothL1 calculates the elementwise smooth L1 (Huber) loss of
// differences diff:
//
//	0.5 * d²    if |d| <= 1
//	|d| - 0.5   otherwise
//
// which equals 0.5 q² + e for e = relu(|d| - 1) and q = |d| - e.
func SmoothL1(diff *G.Node) (retVal *G.Node, err error) {
	abs, err := G.Abs(diff)
	if err != nil {
		return nil, fmt.Errorf("smoothL1: %v", err)
	}

	excess, err := G.Sub(abs, G.NewConstant(1.0))
	if err != nil {
		return nil, fmt.Errorf("smoothL1: %v", err)
	}
	excess, err = G.Rectify(excess)
	if err != nil {
		return nil, fmt.Errorf("smoothL1: %v", err)
	}

	quad := G.Must(G.Sub(abs, excess))
	quad = G.Must(G.Square(quad))
	quad = G.Must(G.Mul(quad, G.NewConstant(0.5)))

	return G.Add(quad, excess)
}

// CrossEntropy calculates the cross-entropy between a batch of target
// distributions and predicted distributions probs of the same shape,
// summed over all rows and divided by batch:
//
//	-(1/batch) Σ_i Σ_j target[i, j] * log(probs[i, j])
//
// Rows of target which are all zero do not contribute.
func CrossEntropy(target, probs *G.Node, batch int) (retVal *G.Node,
	err error) {
	if !target.Shape().Eq(probs.Shape()) {
		return nil, fmt.Errorf("crossEntropy: incompatible shapes"+
			"\n\twant(%v)\n\thave(%v)", probs.Shape(), target.Shape())
	}
	if batch < 1 {
		return nil, fmt.Errorf("crossEntropy: batch size must be positive"+
			"\n\twant(>0)\n\thave(%v)", batch)
	}

	logProbs, err := G.Log(probs)
	if err != nil {
		return nil, fmt.Errorf("crossEntropy: %v", err)
	}
	total := G.Must(G.HadamardProd(target, logProbs))
	total = G.Must(G.Sum(total))

	return G.Mul(total, G.NewConstant(-1.0/float64(batch)))
}
