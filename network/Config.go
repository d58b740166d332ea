package network

import (
	"fmt"

	"github.com/samuelfneumann/rainbow/distribution"
	"github.com/samuelfneumann/rainbow/initwfn"
)

const (
	// DefaultSigmaInit is the initial noise scale of the noisy layers
	// constructed by this package's networks
	DefaultSigmaInit float64 = 0.4

	// LayerSigmaInit is the initial noise scale of a standalone noisy
	// layer
	LayerSigmaInit float64 = 0.5

	// DefaultNoiseStd is the standard deviation of the Gaussian noise
	// that is factorized into noisy layer perturbations
	DefaultNoiseStd float64 = 0.001

	// IllegalPenalty replaces the scores of illegal actions before
	// normalization
	IllegalPenalty float64 = -1000
)

// Config describes a value network
type Config struct {
	Type Type

	// Hidden lists the sizes of the dense layers shared by all outputs
	Hidden []int

	// Streams lists the hidden sizes of the output head. Dueling
	// networks use two such heads, one for the state value and one for
	// the advantages. In noisy networks these layers, and the output
	// layers, are noisy.
	Streams []int

	Activation Activation
	InitWFn    *initwfn.InitWFn

	// SigmaInit and NoiseStd configure noisy layers
	SigmaInit float64
	NoiseStd  float64

	// Support is used by distributional networks only
	Support distribution.Support

	Device Device
}

// DefaultConfig returns the default Config of a network Type. The layer
// sizes differ between architectures.
func DefaultConfig(t Type) Config {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(fmt.Sprintf("defaultConfig: could not create initializer: %v",
			err))
	}

	c := Config{
		Type:       t,
		Activation: ReLU,
		InitWFn:    init,
		SigmaInit:  DefaultSigmaInit,
		NoiseStd:   DefaultNoiseStd,
		Device:     CPU,
	}

	switch t {
	case DQN:
		c.Hidden, c.Streams = []int{256}, []int{256}
	case Dueling, Noisy:
		c.Hidden, c.Streams = []int{24}, []int{24}
	case NoisyDueling:
		c.Hidden, c.Streams = []int{256}, []int{256}
	case Distributional:
		c.Hidden, c.Streams = []int{24}, []int{24}
	case Rainbow:
		c.Hidden, c.Streams = []int{64}, []int{64}
	}

	if t.IsDistributional() {
		c.Support = distribution.Support{Atoms: 51, VMin: 0, VMax: 1}
	}

	return c
}

// Validate returns an error if the Config cannot describe a network
func (c Config) Validate() error {
	if err := c.Type.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := c.Activation.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := c.Device.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}

	// Noisy networks have a dense first layer, so they need at least
	// one shared hidden layer
	if c.Type.IsNoisy() && len(c.Hidden) == 0 {
		return fmt.Errorf("validate: noisy networks need a hidden layer" +
			"\n\twant(>=1)\n\thave(0)")
	}

	for _, size := range append(append([]int{}, c.Hidden...), c.Streams...) {
		if size < 1 {
			return fmt.Errorf("validate: invalid layer size \n\twant(>=1)"+
				"\n\thave(%v)", size)
		}
	}

	if c.Type.IsNoisy() && c.NoiseStd < 0 {
		return fmt.Errorf("validate: noise standard deviation must be "+
			"non-negative\n\twant(>=0)\n\thave(%v)", c.NoiseStd)
	}

	if c.Type.IsDistributional() {
		if err := c.Support.Validate(); err != nil {
			return fmt.Errorf("validate: %v", err)
		}
	}

	return nil
}

// atoms returns the number of outputs per action
func (c Config) atoms() int {
	if c.Type.IsDistributional() {
		return c.Support.Atoms
	}
	return 1
}
