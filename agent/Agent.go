// Package agent defines an agent interface
package agent

import (
	"github.com/samuelfneumann/rainbow/timestep"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Step performs a single update to the learner. Step does nothing
	// if the learner does not have enough data to update.
	Step() error

	// Observe records that an action lead to some timestep
	Observe(action int, nextObs timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs any work needed at the end of the episode
	// with the given index, counting from 0
	EndEpisode(episode int) error
}

// Policy represents a policy that an agent can have. Policies determine
// how agents select actions.
type Policy interface {
	// SelectAction selects an action among the legal actions of t
	SelectAction(t timestep.TimeStep) int

	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// Saver is an Agent whose learned state can be saved to and restored
// from a file
type Saver interface {
	Agent
	Save(filename string) error
	Load(filename string) error
}

// Reporter is an Agent that reports on its learning progress
type Reporter interface {
	Agent

	// LastLoss returns the loss of the most recent update
	LastLoss() float64
}
