package gridworld

import "fmt"

// FrozenLake maps
var (
	FrozenLake4x4 = []string{
		"SFFF",
		"FHFH",
		"FFFH",
		"HFFG",
	}

	FrozenLake8x8 = []string{
		"SFFFFFFF",
		"FFFFFFFF",
		"FFFHFFFF",
		"FFFFFHFF",
		"FFFHFFFF",
		"FHHFFFHF",
		"FHFFHFHF",
		"FFFHFFFG",
	}
)

// Corridor returns the layout of a single row of length cells, starting
// at the left end with the goal at the right end
func Corridor(length int) ([]string, error) {
	if length < 2 {
		return nil, fmt.Errorf("corridor: invalid length\n\twant(>=2)"+
			"\n\thave(%v)", length)
	}

	row := make([]byte, length)
	row[0] = byte(Start)
	for i := 1; i < length-1; i++ {
		row[i] = byte(Frozen)
	}
	row[length-1] = byte(Goal)

	return []string{string(row)}, nil
}

// NewFrozenLake returns a FrozenLake environment on one of the
// FrozenLake maps
func NewFrozenLake(layout []string, slippery bool, cutoff int,
	seed uint64) (*GridWorld, error) {
	g, _, err := New(layout, FrozenLakeTask, slippery, cutoff, seed)
	if err != nil {
		return nil, fmt.Errorf("newFrozenLake: %v", err)
	}
	return g, nil
}
