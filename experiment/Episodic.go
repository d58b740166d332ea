package experiment

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/aunum/log"
	"github.com/samuelfneumann/rainbow/agent"
	env "github.com/samuelfneumann/rainbow/environment"
	"github.com/samuelfneumann/rainbow/experiment/checkpointer"
	"github.com/samuelfneumann/rainbow/experiment/tracker"
	ts "github.com/samuelfneumann/rainbow/timestep"
)

// Episodic is an Experiment that trains an agent online for a fixed
// number of episodes. Progress is reported at regular episode
// intervals, and the agent is checkpointed whenever its average return
// improves as well as at the end of the experiment.
type Episodic struct {
	env.Environment
	agent.Agent
	saver agent.Saver

	episodes       int
	reportInterval int
	out            io.Writer

	best         *checkpointer.BestAverage
	checkpointer []checkpointer.Checkpointer
	trackers     []tracker.Tracker

	returns []float64
}

// NewEpisodic creates and returns a new episodic experiment of a given
// agent on a given environment. Progress reports are written to out,
// and the t parameter is a slice of tracker.Tracker which determine
// what data is saved.
func NewEpisodic(e env.Environment, a agent.Agent, c Config, out io.Writer,
	t ...tracker.Tracker) (*Episodic, error) {
	if c.Episodes < 1 {
		return nil, fmt.Errorf("newEpisodic: number of episodes must be "+
			"positive\n\twant(>0)\n\thave(%v)", c.Episodes)
	}
	if c.ReportInterval < 1 {
		c.ReportInterval = DefaultReportInterval
	}

	saver, ok := a.(agent.Saver)
	if !ok {
		return nil, fmt.Errorf("newEpisodic: agent of type %T cannot be "+
			"checkpointed", a)
	}

	var periodic []checkpointer.Checkpointer
	if c.CheckpointInterval > 0 {
		dir := filepath.Dir(c.ModelPath())
		filenames := checkpointer.FilenameEnumerator(0,
			filepath.Join(dir, c.ModelName), CheckpointExtension)

		n, err := checkpointer.NewNStep(c.CheckpointInterval, saver,
			filenames)
		if err != nil {
			return nil, fmt.Errorf("newEpisodic: %v", err)
		}
		periodic = append(periodic, n)
	}

	if out == nil {
		out = io.Discard
	}

	return &Episodic{
		Environment:    e,
		Agent:          a,
		saver:          saver,
		episodes:       c.Episodes,
		reportInterval: c.ReportInterval,
		out:            out,
		best:           checkpointer.NewBestAverage(saver, c.ModelPath()),
		checkpointer:   periodic,
		trackers:       t,
	}, nil
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (e *Episodic) Register(t tracker.Tracker) {
	e.trackers = append(e.trackers, t)
}

// RunEpisode runs a single episode of the experiment, returning the
// total reward
func (e *Episodic) RunEpisode(episode int) (float64, error) {
	step, err := e.Environment.Reset()
	if err != nil {
		return 0, fmt.Errorf("runEpisode: could not reset environment: %v",
			err)
	}
	if err := e.Agent.ObserveFirst(step); err != nil {
		return 0, fmt.Errorf("runEpisode: %v", err)
	}
	e.track(step)

	var ret float64
	for !step.Last() {
		// Select action, step in environment
		action := e.Agent.SelectAction(step)
		step, _, err = e.Environment.Step(action)
		if err != nil {
			return ret, fmt.Errorf("runEpisode: %v", err)
		}
		ret += step.Reward
		e.track(step)

		// Observe the timestep and step the agent
		if err := e.Agent.Observe(action, step); err != nil {
			return ret, fmt.Errorf("runEpisode: %v", err)
		}
		if err := e.Agent.Step(); err != nil {
			return ret, fmt.Errorf("runEpisode: %v", err)
		}
	}

	if err := e.Agent.EndEpisode(episode); err != nil {
		return ret, fmt.Errorf("runEpisode: %v", err)
	}
	return ret, nil
}

// Run runs the entire experiment for all episodes
func (e *Episodic) Run() error {
	var total float64
	for i := 0; i < e.episodes; i++ {
		ret, err := e.RunEpisode(i)
		if err != nil {
			return fmt.Errorf("run: episode %v: %v", i, err)
		}
		e.returns = append(e.returns, ret)
		total += ret
		rate := total / float64(i+1)

		if i != 0 && i%e.reportInterval == 0 {
			fmt.Fprintf(e.out, "Episode %d Loss: %.4f Reward Rate %.4f\n", i,
				e.loss(), rate)

			if err := e.best.Checkpoint(i, rate); err != nil {
				return fmt.Errorf("run: %v", err)
			}
		}

		for _, c := range e.checkpointer {
			if err := c.Checkpoint(i, rate); err != nil {
				return fmt.Errorf("run: %v", err)
			}
		}
	}

	if err := e.saver.Save(e.best.Filename()); err != nil {
		return fmt.Errorf("run: %v", err)
	}
	log.Infof("finished %v episodes, best reward rate %.4f", e.episodes,
		e.best.Best())
	return nil
}

// loss returns the last loss of the agent, if it reports one
func (e *Episodic) loss() float64 {
	if r, ok := e.Agent.(agent.Reporter); ok {
		return r.LastLoss()
	}
	return 0
}

// Returns returns the returns of all episodes run so far
func (e *Episodic) Returns() []float64 {
	return e.returns
}

// Save saves all the data cached by the Trackers to disk
func (e *Episodic) Save() error {
	for _, t := range e.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each tracker
func (e *Episodic) track(t ts.TimeStep) {
	for _, trk := range e.trackers {
		trk.Track(t)
	}
}
