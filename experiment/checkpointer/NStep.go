package checkpointer

import "fmt"

// nStep implements checkpointing every N episodes
type nStep struct {
	interval int
	object   Saver // Object to save

	// filename returns the string filename of the file to save the object
	// in.
	//
	// If each serialized object should be saved in a separate file with
	// each file having an incremented number as a suffix (e.g.
	// file1.gob, file2.gob, ..., fileK.gob), then simply use the
	// static function FilenameEnumerator, which will return a function
	// that will enumerate filenames.
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints at the end of every
// n episodes.
func NewNStep(n int, object Saver,
	filename func() string) (Checkpointer, error) {
	if n < 1 {
		return nil, fmt.Errorf("newNStep: interval must be positive"+
			"\n\twant(>0)\n\thave(%v)", n)
	}

	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint checkpoints the Checkpointer's tracked object by calling
// its Save() method
func (n *nStep) Checkpoint(episode int, _ float64) error {
	if (episode+1)%n.interval == 0 {
		return n.object.Save(n.filename())
	}
	return nil
}
