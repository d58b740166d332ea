package checkpointer

import "math"

// BestAverage checkpoints an object whenever the average return of an
// experiment improves on the best average seen so far. Each checkpoint
// overwrites the previous one.
type BestAverage struct {
	object   Saver
	filename string
	best     float64
}

// NewBestAverage returns a new BestAverage which saves object to
// filename
func NewBestAverage(object Saver, filename string) *BestAverage {
	return &BestAverage{
		object:   object,
		filename: filename,
		best:     math.Inf(-1),
	}
}

// Checkpoint saves the tracked object if rate is larger than the best
// rate seen so far
func (b *BestAverage) Checkpoint(_ int, rate float64) error {
	if rate <= b.best {
		return nil
	}

	b.best = rate
	return b.object.Save(b.filename)
}

// Best returns the best average return seen so far
func (b *BestAverage) Best() float64 {
	return b.best
}

// Filename returns the name of the file checkpoints are saved to
func (b *BestAverage) Filename() string {
	return b.filename
}
