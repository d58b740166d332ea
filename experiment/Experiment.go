// Package experiment implements functionality for running an experiment
package experiment

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/rainbow/agent"
	"github.com/samuelfneumann/rainbow/agent/rainbow"
	env "github.com/samuelfneumann/rainbow/environment"
	"github.com/samuelfneumann/rainbow/environment/envconfig"
	"github.com/samuelfneumann/rainbow/experiment/tracker"
	"github.com/samuelfneumann/rainbow/network"
)

// Interface Experiment outlines structs that can run experiments.
// The Run() method will run all episodes of the experiment, and the
// RunEpisode() method will run a single episode. Experiments send each
// TimeStep to Trackers, and the Save() method saves all tracked data
// to disk after the experiment has been run.
type Experiment interface {
	Run() error

	// RunEpisode runs the episode with the given index and returns its
	// return
	RunEpisode(episode int) (float64, error)

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment
	Register(t tracker.Tracker)
}

type Type string

const (
	EpisodicExp Type = "EpisodicExperiment"
)

const (
	// DefaultReportInterval is the number of episodes between progress
	// reports
	DefaultReportInterval int = 10

	// DefaultModelDir is the directory checkpoints are saved in
	DefaultModelDir string = "models"

	// CheckpointExtension is the file extension of checkpoints
	CheckpointExtension string = ".gob"
)

// Config represents a configuration of an experiment.
type Config struct {
	Type
	Episodes       int
	ReportInterval int

	// The agent is checkpointed to ModelDir/ModelName.gob
	ModelName string
	ModelDir  string

	// CheckpointInterval > 0 additionally saves numbered checkpoints
	// ModelDir/ModelName-i.gob at the end of every CheckpointInterval
	// episodes
	CheckpointInterval int `json:",omitempty"`

	EnvConf   envconfig.Config
	AgentConf agent.TypedConfig
}

// DefaultConfig returns the default experiment: a plain DQN agent on
// the 4x4 FrozenLake
func DefaultConfig() Config {
	return Config{
		Type:           EpisodicExp,
		Episodes:       4000,
		ReportInterval: DefaultReportInterval,
		ModelName:      "frozen_lake",
		ModelDir:       DefaultModelDir,
		EnvConf: envconfig.Config{
			Environment:   envconfig.FrozenLake4x4,
			EpisodeCutoff: 100,
		},
		AgentConf: agent.NewTypedConfig(rainbow.DefaultConfig(network.DQN)),
	}
}

// LoadConfig reads a Config from a JSON file
func LoadConfig(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("loadConfig: %v", err)
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("loadConfig: %v", err)
	}
	return c, nil
}

// ModelPath returns the path of the checkpoint of the experiment
func (c Config) ModelPath() string {
	dir := c.ModelDir
	if dir == "" {
		dir = DefaultModelDir
	}
	return filepath.Join(dir, c.ModelName+CheckpointExtension)
}

// Validate returns an error if the Config cannot describe an
// experiment
func (c Config) Validate() error {
	if c.Type != EpisodicExp {
		return fmt.Errorf("validate: no such experiment type %v", c.Type)
	}
	if c.Episodes < 1 {
		return fmt.Errorf("validate: number of episodes must be positive"+
			"\n\twant(>0)\n\thave(%v)", c.Episodes)
	}
	if c.ReportInterval < 1 {
		return fmt.Errorf("validate: report interval must be positive"+
			"\n\twant(>0)\n\thave(%v)", c.ReportInterval)
	}
	if c.ModelName == "" {
		return fmt.Errorf("validate: no model name")
	}
	if c.AgentConf.Config == nil {
		return fmt.Errorf("validate: no agent configuration")
	}
	return c.AgentConf.Validate()
}

// CreateExp creates the environment and agent described by the Config
// and returns an experiment running the agent on the environment. The
// caller is responsible for closing the returned environment.
func (c Config) CreateExp(seed uint64, out io.Writer,
	t ...tracker.Tracker) (Experiment, env.Environment, agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("createExp: %v", err)
	}

	e, err := c.EnvConf.Create(seed)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("createExp: could not create "+
			"environment: %v", err)
	}

	a, err := c.AgentConf.CreateAgent(e, seed)
	if err != nil {
		e.Close()
		return nil, nil, nil, fmt.Errorf("createExp: could not create "+
			"agent: %v", err)
	}

	exp, err := NewEpisodic(e, a, c, out, t...)
	if err != nil {
		e.Close()
		return nil, nil, nil, fmt.Errorf("createExp: %v", err)
	}
	return exp, e, a, nil
}
