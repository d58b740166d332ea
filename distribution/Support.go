// Package distribution implements the fixed categorical support used by
// distributional value functions, along with the projection of a
// shifted and scaled distribution back onto that support.
package distribution

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// MinMass is the smallest probability mass an atom is allowed to hold
// so that the log of the distribution is always defined
const MinMass float64 = 1e-5

// Support is a set of equally spaced atoms spanning [VMin, VMax]
type Support struct {
	Atoms int
	VMin  float64
	VMax  float64
}

// NewSupport returns a new Support with the given number of atoms
func NewSupport(atoms int, vMin, vMax float64) (Support, error) {
	s := Support{Atoms: atoms, VMin: vMin, VMax: vMax}
	if err := s.Validate(); err != nil {
		return Support{}, fmt.Errorf("newSupport: %v", err)
	}
	return s, nil
}

// Validate returns an error if the Support cannot be used
func (s Support) Validate() error {
	if s.Atoms < 2 {
		return fmt.Errorf("validate: need at least two atoms\n\twant(>=2)"+
			"\n\thave(%v)", s.Atoms)
	}
	if s.VMax <= s.VMin {
		return fmt.Errorf("validate: vMax must exceed vMin\n\twant(>%v)"+
			"\n\thave(%v)", s.VMin, s.VMax)
	}
	return nil
}

// Delta returns the distance between two consecutive atoms
func (s Support) Delta() float64 {
	return (s.VMax - s.VMin) / float64(s.Atoms-1)
}

// Values returns the atoms of the support in increasing order
func (s Support) Values() []float64 {
	return floats.Span(make([]float64, s.Atoms), s.VMin, s.VMax)
}

// Expectation returns the expected value of the distribution with
// probability masses p over the support
func (s Support) Expectation(p []float64) float64 {
	if len(p) != s.Atoms {
		panic(fmt.Sprintf("expectation: invalid number of masses \n\t"+
			"want(%v)\n\thave(%v)", s.Atoms, len(p)))
	}
	return floats.Dot(p, s.Values())
}

// Project computes the distribution of reward + gamma * Z, where Z has
// masses next over the support, and projects it back onto the support.
// If done is true the distribution collapses onto reward. Every shifted
// atom is clamped into [VMin, VMax] and its mass is split between
// its two nearest atoms in proportion to its distance from each. An
// atom landing exactly on the grid gives all of its mass to that atom.
func (s Support) Project(next []float64, reward, gamma float64,
	done bool) []float64 {
	if len(next) != s.Atoms {
		panic(fmt.Sprintf("project: invalid number of masses \n\t"+
			"want(%v)\n\thave(%v)", s.Atoms, len(next)))
	}

	projected := make([]float64, s.Atoms)
	values := s.Values()
	delta := s.Delta()
	last := float64(s.Atoms - 1)

	for j, mass := range next {
		target := reward
		if !done {
			target += gamma * values[j]
		}
		target = math.Max(s.VMin, math.Min(s.VMax, target))

		// Position of the target in index space, clamped against
		// floating point drift past either end
		b := math.Max(0, math.Min(last, (target-s.VMin)/delta))
		lower, upper := math.Floor(b), math.Ceil(b)

		if lower == upper {
			projected[int(lower)] += mass
			continue
		}
		projected[int(lower)] += mass * (upper - b)
		projected[int(upper)] += mass * (b - lower)
	}

	return projected
}

// ProjectBatch projects each row of a batch of distributions, see
// Project. All arguments must have the same batch length.
func (s Support) ProjectBatch(next [][]float64, rewards []float64,
	dones []bool, gamma float64) [][]float64 {
	if len(next) != len(rewards) || len(next) != len(dones) {
		panic(fmt.Sprintf("projectBatch: batch sizes differ: %v, %v, %v",
			len(next), len(rewards), len(dones)))
	}

	projected := make([][]float64, len(next))
	for i := range next {
		projected[i] = s.Project(next[i], rewards[i], gamma, dones[i])
	}
	return projected
}
