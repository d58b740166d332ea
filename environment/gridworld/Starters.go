package gridworld

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CellStarter samples the starting position of a GridWorld from a set
// of cells. The position is returned as a single-element vector.
type CellStarter struct {
	cells []int
	dist  distuv.Categorical
}

// NewCellStarter returns a CellStarter choosing between cells
// uniformly at random
func NewCellStarter(cells []int, seed uint64) *CellStarter {
	weights := make([]float64, len(cells))
	for i := range weights {
		weights[i] = 1
	}
	return NewWeightedCellStarter(cells, weights, seed)
}

// NewWeightedCellStarter returns a CellStarter choosing cells[i] with
// probability proportional to weights[i]
func NewWeightedCellStarter(cells []int, weights []float64,
	seed uint64) *CellStarter {
	if len(cells) == 0 || len(cells) != len(weights) {
		panic("newWeightedCellStarter: need one weight for each of at " +
			"least one cell")
	}

	c := make([]int, len(cells))
	copy(c, cells)
	return &CellStarter{
		cells: c,
		dist:  distuv.NewCategorical(weights, rand.NewSource(seed)),
	}
}

// Start returns the starting position
func (c *CellStarter) Start() *mat.VecDense {
	cell := c.cells[int(c.dist.Rand())]
	return mat.NewVecDense(1, []float64{float64(cell)})
}
