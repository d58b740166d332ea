package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fixedMatrix adds a non-learnable matrix with the given value to g
func fixedMatrix(g *G.ExprGraph, rows, cols int, data []float64,
	name string) *G.Node {
	value := tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(data))
	return G.NewMatrix(g, tensor.Float64, G.WithShape(rows, cols),
		G.WithName(name), G.WithValue(value))
}

// duel combines a state value of shape (batch, 1) with advantages of
// shape (batch, actions) into action values:
//
//	Q(s, a) = A(s, a) + V(s) - mean_a' A(s, a')
//
// The mean and the broadcast over actions are both matrix products
// with fixed matrices.
func duel(g *G.ExprGraph, value, advantage *G.Node,
	actions int) (*G.Node, error) {
	average := make([]float64, actions)
	ones := make([]float64, actions)
	for i := range average {
		average[i] = 1 / float64(actions)
		ones[i] = 1
	}
	averager := fixedMatrix(g, actions, 1, average, "duelAverage")
	spreader := fixedMatrix(g, 1, actions, ones, "duelSpread")

	mean, err := G.Mul(advantage, averager)
	if err != nil {
		return nil, fmt.Errorf("duel: could not average advantages: %v", err)
	}

	base, err := G.Sub(value, mean)
	if err != nil {
		return nil, fmt.Errorf("duel: could not centre value: %v", err)
	}

	spread, err := G.Mul(base, spreader)
	if err != nil {
		return nil, fmt.Errorf("duel: could not broadcast value: %v", err)
	}

	return G.Add(advantage, spread)
}

// duelAtoms is duel applied to each atom of a distributional network.
// The value has shape (batch, atoms) and the advantage has shape
// (batch, actions*atoms), with the atoms of each action contiguous.
func duelAtoms(g *G.ExprGraph, value, advantage *G.Node, actions,
	atoms int) (*G.Node, error) {
	width := actions * atoms

	// averager[a*atoms+j, j] = 1/actions
	average := make([]float64, width*atoms)
	// spreader[j, a*atoms+j] = 1
	spread := make([]float64, atoms*width)
	for a := 0; a < actions; a++ {
		for j := 0; j < atoms; j++ {
			average[(a*atoms+j)*atoms+j] = 1 / float64(actions)
			spread[j*width+a*atoms+j] = 1
		}
	}
	averager := fixedMatrix(g, width, atoms, average, "duelAtomAverage")
	spreader := fixedMatrix(g, atoms, width, spread, "duelAtomSpread")

	mean, err := G.Mul(advantage, averager)
	if err != nil {
		return nil, fmt.Errorf("duelAtoms: could not average advantages: %v",
			err)
	}

	base, err := G.Sub(value, mean)
	if err != nil {
		return nil, fmt.Errorf("duelAtoms: could not centre value: %v", err)
	}

	spreadBase, err := G.Mul(base, spreader)
	if err != nil {
		return nil, fmt.Errorf("duelAtoms: could not broadcast value: %v", err)
	}

	return G.Add(advantage, spreadBase)
}
