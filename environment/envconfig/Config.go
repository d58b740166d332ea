// Package envconfig provides configuration structs for configuring
// environments with default parameters and tasks. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/rainbow/environment"
	"github.com/samuelfneumann/rainbow/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/rainbow/environment/gridworld"
	"github.com/samuelfneumann/rainbow/environment/tictactoe"
	"github.com/samuelfneumann/rainbow/environment/wrappers"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	FrozenLake4x4 EnvName = "FrozenLake4x4"
	FrozenLake8x8 EnvName = "FrozenLake8x8"
	Corridor      EnvName = "Corridor"
	TicTacToe     EnvName = "TicTacToe"
	CartPole      EnvName = "CartPole"

	// Gym environments need the gym build tag
	Gym EnvName = "Gym"
)

// Config implements a specific configuration of a specific environment.
// Gridworld observations are one-hot encoded.
type Config struct {
	Environment EnvName

	// EpisodeCutoff is the maximum number of steps in an episode of a
	// gridworld or CartPole, 0 means no cutoff
	EpisodeCutoff int

	// Slippery configures the FrozenLake environments
	Slippery bool

	// Length is the number of cells of a Corridor
	Length int

	// Task overrides the default rewards of the gridworlds. The default
	// Corridor task penalizes each step.
	Task *gridworld.Task `json:",omitempty"`

	// GymName is the Gym ID of a Gym environment, e.g. FrozenLake-v0
	GymName string `json:",omitempty"`
}

// DefaultCorridorTask is the default reward scheme of the Corridor
var DefaultCorridorTask = gridworld.Task{StepReward: -0.1, GoalReward: 1}

// Create returns the environment described by the Config
func (c Config) Create(seed uint64) (env.Environment, error) {
	switch c.Environment {
	case FrozenLake4x4, FrozenLake8x8:
		layout := gridworld.FrozenLake4x4
		if c.Environment == FrozenLake8x8 {
			layout = gridworld.FrozenLake8x8
		}
		return c.gridworld(layout, gridworld.FrozenLakeTask, seed)

	case Corridor:
		layout, err := gridworld.Corridor(c.Length)
		if err != nil {
			return nil, fmt.Errorf("create: %v", err)
		}
		return c.gridworld(layout, DefaultCorridorTask, seed)

	case TicTacToe:
		game, _ := tictactoe.New(seed)
		return game, nil

	case CartPole:
		pole, _ := cartpole.New(c.EpisodeCutoff, seed)
		return pole, nil

	case Gym:
		e, err := createGym(c.GymName, seed)
		if err != nil {
			return nil, fmt.Errorf("create: %v", err)
		}
		return oneHotIfDiscrete(e)
	}

	return nil, fmt.Errorf("create: cannot create environment %v, no such "+
		"environment", c.Environment)
}

// gridworld creates a one-hot encoded GridWorld
func (c Config) gridworld(layout []string, task gridworld.Task,
	seed uint64) (env.Environment, error) {
	if c.Task != nil {
		task = *c.Task
	}

	g, _, err := gridworld.New(layout, task, c.Slippery, c.EpisodeCutoff, seed)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	e, err := wrappers.NewOneHot(g)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return e, nil
}

// oneHotIfDiscrete one-hot encodes the observations of environments
// with a single discrete observation
func oneHotIfDiscrete(e env.Environment) (env.Environment, error) {
	spec := e.ObservationSpec()
	if spec.Cardinality != env.Discrete || spec.Shape.Len() != 1 {
		return e, nil
	}

	wrapped, err := wrappers.NewOneHot(e)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("create: %v", err)
	}
	return wrapped, nil
}
