// Package checkpointer implements policies deciding when the learned
// state of an agent is saved during an experiment
package checkpointer

// Saver is an object that can save itself to a file
type Saver interface {
	Save(filename string) error
}

// Checkpointer checkpoints/saves objects based on the progress of an
// experiment. The episode counts from 0 and rate is the average
// episodic return up to and including that episode.
type Checkpointer interface {
	Checkpoint(episode int, rate float64) error
}
