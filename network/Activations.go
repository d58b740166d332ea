package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Activation names an activation function applied after a layer. The
// name is what is stored in JSON configurations and checkpoints.
type Activation string

const (
	ReLU     Activation = "ReLU"
	TanH     Activation = "TanH"
	Identity Activation = "Identity"
)

// fwd applies the Activation to x
func (a Activation) fwd(x *G.Node) (*G.Node, error) {
	switch a {
	case ReLU, "":
		return G.Rectify(x)
	case TanH:
		return G.Tanh(x)
	case Identity:
		return x, nil
	}
	return nil, fmt.Errorf("fwd: unknown activation %q", string(a))
}

// Validate returns an error if the Activation is unknown
func (a Activation) Validate() error {
	switch a {
	case ReLU, TanH, Identity, "":
		return nil
	}
	return fmt.Errorf("validate: unknown activation %q", string(a))
}
