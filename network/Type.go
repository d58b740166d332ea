package network

import "fmt"

// Type tags the architecture of a value network
type Type string

const (
	// DQN predicts one action value per action with a feed forward
	// network
	DQN Type = "DQN"

	// Dueling predicts action values as the sum of a state value and
	// a mean-centred, legal-move-masked advantage
	Dueling Type = "Dueling"

	// Noisy is a DQN whose layers after the first are noisy layers
	Noisy Type = "Noisy"

	// NoisyDueling is a Dueling network with noisy value and advantage
	// streams
	NoisyDueling Type = "NoisyDueling"

	// Distributional predicts a categorical distribution over a fixed
	// support for each action
	Distributional Type = "Distributional"

	// Rainbow is a distributional network with noisy dueling streams
	Rainbow Type = "Rainbow"
)

// Validate returns an error if t is not a known Type
func (t Type) Validate() error {
	switch t {
	case DQN, Dueling, Noisy, NoisyDueling, Distributional, Rainbow:
		return nil
	}
	return fmt.Errorf("validate: unknown network type %q", string(t))
}

// IsNoisy returns whether networks of the Type contain noisy layers
func (t Type) IsNoisy() bool {
	return t == Noisy || t == NoisyDueling || t == Rainbow
}

// IsDueling returns whether networks of the Type use the dueling
// decomposition
func (t Type) IsDueling() bool {
	return t == Dueling || t == NoisyDueling || t == Rainbow
}

// IsDistributional returns whether networks of the Type predict value
// distributions rather than scalar action values
func (t Type) IsDistributional() bool {
	return t == Distributional || t == Rainbow
}
