package rainbow

import (
	"fmt"
	"math"
)

// EGreedy is an exponentially decaying exploration rate. Each call to
// Decay moves epsilon towards its minimum:
//
//	ε ← min + (ε - min) * exp(-decay * episode)
//
// so that epsilon is non-increasing and never falls below its minimum.
type EGreedy struct {
	epsilon float64
	min     float64
	decay   float64
}

// NewEGreedy returns a new EGreedy starting at epsilon
func NewEGreedy(epsilon, min, decay float64) (*EGreedy, error) {
	if min < 0 || epsilon > 1 || epsilon < min {
		return nil, fmt.Errorf("newEGreedy: epsilon must satisfy "+
			"0 <= min <= epsilon <= 1\n\twant(0 <= %v <= %v <= 1)",
			min, epsilon)
	}
	if decay < 0 {
		return nil, fmt.Errorf("newEGreedy: decay must be non-negative"+
			"\n\twant(>=0)\n\thave(%v)", decay)
	}

	return &EGreedy{epsilon: epsilon, min: min, decay: decay}, nil
}

// Epsilon returns the current exploration rate
func (e *EGreedy) Epsilon() float64 {
	return e.epsilon
}

// Set sets the current exploration rate, clipped to at least the
// minimum
func (e *EGreedy) Set(epsilon float64) {
	e.epsilon = math.Max(e.min, epsilon)
}

// Decay decays epsilon once during the given episode, counting from 0
func (e *EGreedy) Decay(episode int) float64 {
	e.epsilon = e.min + (e.epsilon-e.min)*math.Exp(-e.decay*float64(episode))
	return e.epsilon
}
