// Package gridworld implements 2D gridworld environments, including
// the FrozenLake maps
package gridworld

import (
	"fmt"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/rainbow/environment"
	"github.com/samuelfneumann/rainbow/timestep"
)

// Cell is a single position of a GridWorld layout
type Cell byte

const (
	Start  Cell = 'S'
	Frozen Cell = 'F'
	Hole   Cell = 'H'
	Goal   Cell = 'G'
)

// Actions in a GridWorld, ordered as in FrozenLake
const (
	Left int = iota
	Down
	Right
	Up
)

// GridWorld represents a gridworld environment
//
// A gridworld is represented as a flattened layout of cells. Positions
// are indexed row-major, and the observation is the index of the
// current position as a single discrete value. Episodes end in a Hole
// or a Goal cell, or when the step limit is reached.
//
// If slippery, the agent moves in the intended direction with
// probability 1/3, and in each of the two perpendicular directions
// with probability 1/3.
type GridWorld struct {
	rows, cols int
	cells      []Cell

	task     Task
	starter  environment.Starter
	ender    environment.Ender
	slippery bool
	rng      *rand.Rand

	position    int
	currentStep timestep.TimeStep
}

// New creates a new GridWorld with the given layout. Each string of
// layout is one row of cells. Agents start uniformly at random in one
// of the Start cells. A cutoff < 1 means episodes are not cut off.
func New(layout []string, task Task, slippery bool, cutoff int,
	seed uint64) (*GridWorld, timestep.TimeStep, error) {
	if len(layout) == 0 || len(layout[0]) == 0 {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: empty layout")
	}

	rows, cols := len(layout), len(layout[0])
	cells := make([]Cell, 0, rows*cols)
	var starts []int

	for r, row := range layout {
		if len(row) != cols {
			return nil, timestep.TimeStep{}, fmt.Errorf("new: ragged layout "+
				"row %v\n\twant(%v)\n\thave(%v)", r, cols, len(row))
		}

		for c := 0; c < cols; c++ {
			cell := Cell(row[c])
			switch cell {
			case Start:
				starts = append(starts, r*cols+c)
			case Frozen, Hole, Goal:
			default:
				return nil, timestep.TimeStep{}, fmt.Errorf("new: unknown "+
					"cell %q at (%v, %v)", row[c], r, c)
			}
			cells = append(cells, cell)
		}
	}

	if len(starts) == 0 {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: layout has no " +
			"start cell")
	}

	g := &GridWorld{
		rows:     rows,
		cols:     cols,
		cells:    cells,
		task:     task,
		starter:  NewCellStarter(starts, seed),
		slippery: slippery,
		rng:      rand.New(rand.NewSource(seed + 1)),
	}

	atEnd := environment.NewFunctionEnder(func(obs mat.Vector) bool {
		cell := g.cells[int(obs.AtVec(0))]
		return cell == Hole || cell == Goal
	}, timestep.TerminalStateReached)
	g.ender = environment.Enders{atEnd, environment.NewStepLimit(cutoff)}

	step, err := g.Reset()
	return g, step, err
}

// Reset resets the environment to a starting state
func (g *GridWorld) Reset() (timestep.TimeStep, error) {
	g.position = int(g.starter.Start().AtVec(0))

	g.currentStep = timestep.New(timestep.First, 0, g.observation(), 0)
	return g.currentStep, nil
}

// Step takes a single environmental step
func (g *GridWorld) Step(action int) (timestep.TimeStep, bool, error) {
	if action < Left || action > Up {
		return timestep.TimeStep{}, true, fmt.Errorf("step: illegal action"+
			"\n\twant([0, 3])\n\thave(%v)", action)
	}
	if g.currentStep.Last() {
		return timestep.TimeStep{}, true, fmt.Errorf("step: episode has " +
			"ended, call Reset")
	}

	direction := action
	if g.slippery {
		// Intended, or one of the two perpendicular directions
		direction = (action + g.rng.Intn(3) + 3) % 4
	}
	g.position = g.move(g.position, direction)

	reward := g.task.Reward(g.cells[g.position])
	step := timestep.New(timestep.Mid, reward, g.observation(),
		g.currentStep.Number+1)
	done := g.ender.End(&step)

	g.currentStep = step
	return step, done, nil
}

// move returns the position reached by moving from position in a
// direction. Moving off the grid leaves the position unchanged.
func (g *GridWorld) move(position, direction int) int {
	r, c := position/g.cols, position%g.cols

	switch direction {
	case Left:
		if c > 0 {
			c--
		}
	case Down:
		if r < g.rows-1 {
			r++
		}
	case Right:
		if c < g.cols-1 {
			c++
		}
	case Up:
		if r > 0 {
			r--
		}
	}
	return r*g.cols + c
}

func (g *GridWorld) observation() *mat.VecDense {
	return mat.NewVecDense(1, []float64{float64(g.position)})
}

// ObservationSpec returns the observation specification of the
// environment, the index of the current cell
func (g *GridWorld) ObservationSpec() environment.Spec {
	return environment.NewDiscreteSpec(environment.Observation,
		g.rows*g.cols)
}

// ActionSpec returns the action specification of the environment
func (g *GridWorld) ActionSpec() environment.Spec {
	return environment.NewDiscreteSpec(environment.Action, 4)
}

// Close implements the environment.Environment interface
func (g *GridWorld) Close() error {
	return nil
}

// Dims gets the rows and columns of the GridWorld
func (g *GridWorld) Dims() (r, c int) {
	return g.rows, g.cols
}

// Position returns the row and column of the agent
func (g *GridWorld) Position() (r, c int) {
	return g.position / g.cols, g.position % g.cols
}

// CurrentTimeStep returns the last TimeStep returned by the environment
func (g *GridWorld) CurrentTimeStep() timestep.TimeStep {
	return g.currentStep
}

func (g *GridWorld) String() string {
	var b strings.Builder
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if r*g.cols+c == g.position {
				b.WriteByte('A')
			} else {
				b.WriteByte(byte(g.cells[r*g.cols+c]))
			}
		}
		if r < g.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
