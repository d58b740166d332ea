package rainbow

import (
	"fmt"

	"github.com/samuelfneumann/rainbow/agent"
	env "github.com/samuelfneumann/rainbow/environment"
	"github.com/samuelfneumann/rainbow/expreplay"
	"github.com/samuelfneumann/rainbow/network"
	"github.com/samuelfneumann/rainbow/solver"
	"github.com/samuelfneumann/rainbow/utils/intutils"
)

// AgentType is the agent.Type of Rainbow Configs
const AgentType agent.Type = "Rainbow"

func init() {
	// Register Config type so that it can be typed using
	// agent.TypedConfig to help with serialization/deserialization.
	agent.Register(AgentType, Config{})
}

// Config implements a configuration for a Rainbow agent. The network
// Type selects which Rainbow components are used. Double Q-learning is
// enabled separately with Double.
type Config struct {
	Network network.Config

	// Solver for learning weights. Losses are already averaged over
	// the batch, so the solver batch size should be 1.
	Solver *solver.Solver

	Replay    expreplay.Config
	BatchSize int
	Gamma     float64 // Discount factor

	// Epsilon greedy exploration, decaying from Eps to MinEps at rate
	// EpsDecay
	Eps      float64
	MinEps   float64
	EpsDecay float64

	// Double enables a target network for computing update targets.
	// The target network is synced with the online network at the end
	// of every TargetUpdateInterval episodes.
	Double               bool
	TargetUpdateInterval int
}

// DefaultConfig returns the default Config of an agent using a network
// of Type t
func DefaultConfig(t network.Type) Config {
	s, err := solver.NewDefaultAdam(1e-3, 1)
	if err != nil {
		panic(fmt.Sprintf("defaultConfig: could not create solver: %v", err))
	}

	return Config{
		Network:              network.DefaultConfig(t),
		Solver:               s,
		Replay:               expreplay.Config{Capacity: 1000},
		BatchSize:            32,
		Gamma:                0.9,
		Eps:                  1.0,
		MinEps:               0.01,
		EpsDecay:             0.005,
		Double:               false,
		TargetUpdateInterval: 20,
	}
}

// Type returns the type of the configuration
func (c Config) Type() agent.Type {
	return AgentType
}

// minSize returns the number of transitions needed before updating
func (c Config) minSize() int {
	return intutils.Max(c.BatchSize, c.Replay.MinSize)
}

// Validate checks a Config to ensure it is a valid configuration of a
// Rainbow agent.
func (c Config) Validate() error {
	if err := c.Network.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}

	if c.Solver == nil {
		return fmt.Errorf("validate: no solver")
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be positive"+
			"\n\twant(>0)\n\thave(%v)", c.BatchSize)
	}

	if c.Replay.Capacity < c.minSize() {
		return fmt.Errorf("validate: replay capacity must hold a batch"+
			"\n\twant(>=%v)\n\thave(%v)", c.minSize(), c.Replay.Capacity)
	}

	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1]"+
			"\n\twant([0, 1])\n\thave(%v)", c.Gamma)
	}

	if _, err := NewEGreedy(c.Eps, c.MinEps, c.EpsDecay); err != nil {
		return fmt.Errorf("validate: %v", err)
	}

	if c.Double && c.TargetUpdateInterval < 1 {
		return fmt.Errorf("validate: target networks must be updated at "+
			"positive episode intervals \n\twant(>0) \n\thave(%v)",
			c.TargetUpdateInterval)
	}

	return nil
}

// CreateAgent creates a new Rainbow agent based on the configuration
func (c Config) CreateAgent(e env.Environment, seed uint64) (agent.Agent,
	error) {
	return New(e, c, seed)
}
