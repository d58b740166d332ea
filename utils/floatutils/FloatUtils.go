// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"github.com/samuelfneumann/rainbow/utils/intutils"
	"golang.org/x/exp/rand"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// MaxSlice gets the maximum value and indices of the maximum values in
// a slice of float64. Only the indices in legal are considered, a nil
// legal considers every index.
func MaxSlice(values []float64, legal []int) (max float64, indices []int) {
	if legal == nil {
		legal = intutils.Range(len(values))
	}
	if len(legal) == 0 {
		return math.Inf(-1), nil
	}

	max, indices = values[legal[0]], []int{legal[0]}
	for _, i := range legal[1:] {
		if value := values[i]; value > max {
			max = value
			indices = []int{i}
		} else if value == max {
			indices = append(indices, i)
		}
	}
	return
}

// ArgMax returns the index of the maximum value among the legal
// indices of values. Ties are broken uniformly at random using rng, or
// by taking the first maximal index if rng is nil. ArgMax panics if
// legal is empty but not nil.
func ArgMax(values []float64, legal []int, rng *rand.Rand) int {
	_, indices := MaxSlice(values, legal)
	if len(indices) == 0 {
		panic("argMax: no legal indices")
	}

	if rng == nil || len(indices) == 1 {
		return indices[0]
	}
	return indices[rng.Intn(len(indices))]
}
