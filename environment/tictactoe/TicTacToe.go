// Package tictactoe implements a tile placement board game on a 3x3
// board, played against a seeded opponent that places tiles uniformly
// at random on the free cells.
package tictactoe

import (
	"fmt"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/rainbow/environment"
	ts "github.com/samuelfneumann/rainbow/timestep"
)

const (
	// Size is the number of cells on the board, and so the number of
	// actions
	Size int = 9

	// Tile values on the board
	Empty    float64 = 0
	Agent    float64 = 1
	Opponent float64 = -1
)

// Rewards at the end of a game
const (
	WinReward  float64 = 1
	LossReward float64 = -1
	DrawReward float64 = 0
)

// lines are the rows, columns, and diagonals of the board
var lines = [][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// TicTacToe is a two player placement game. The agent always moves
// first. An action is the index of the cell to place a tile on, and
// only empty cells are legal. After each agent move that does not end
// the game, the opponent places a tile.
//
// The observation is the board, with Agent tiles as 1, Opponent tiles
// as -1, and empty cells as 0.
type TicTacToe struct {
	board       []float64
	rng         *rand.Rand
	currentStep ts.TimeStep
}

// New returns a new TicTacToe game and its first TimeStep
func New(seed uint64) (*TicTacToe, ts.TimeStep) {
	t := &TicTacToe{
		board: make([]float64, Size),
		rng:   rand.New(rand.NewSource(seed)),
	}

	step, _ := t.Reset()
	return t, step
}

// Reset clears the board
func (t *TicTacToe) Reset() (ts.TimeStep, error) {
	for i := range t.board {
		t.board[i] = Empty
	}

	step := ts.New(ts.First, 0, t.observation(), 0)
	step.Legal = t.LegalActions()
	t.currentStep = step
	return step, nil
}

// Step places the agent's tile on cell action, then lets the opponent
// move
func (t *TicTacToe) Step(action int) (ts.TimeStep, bool, error) {
	if t.currentStep.Last() {
		return ts.TimeStep{}, true, fmt.Errorf("step: game has ended, " +
			"call Reset")
	}
	if action < 0 || action >= Size || t.board[action] != Empty {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal move"+
			"\n\twant(%v)\n\thave(%v)", t.LegalActions(), action)
	}

	t.board[action] = Agent
	reward, over := t.score(Agent, WinReward)

	if !over {
		free := t.LegalActions()
		t.board[free[t.rng.Intn(len(free))]] = Opponent
		reward, over = t.score(Opponent, LossReward)
	}

	step := ts.New(ts.Mid, reward, t.observation(), t.currentStep.Number+1)
	if over {
		step.SetEnd(ts.TerminalStateReached)
		step.Legal = []int{}
	} else {
		step.Legal = t.LegalActions()
	}

	t.currentStep = step
	return step, over, nil
}

// score returns the reward and whether the game is over after player
// placed a tile
func (t *TicTacToe) score(player, winReward float64) (float64, bool) {
	if t.Winner() == player {
		return winReward, true
	}
	if len(t.LegalActions()) == 0 {
		return DrawReward, true
	}
	return 0, false
}

// Winner returns the tile value of the player with three in a line, or
// Empty if there is none
func (t *TicTacToe) Winner() float64 {
	for _, line := range lines {
		first := t.board[line[0]]
		if first != Empty && first == t.board[line[1]] &&
			first == t.board[line[2]] {
			return first
		}
	}
	return Empty
}

// LegalActions returns the empty cells of the board
func (t *TicTacToe) LegalActions() []int {
	legal := make([]int, 0, Size)
	for i, v := range t.board {
		if v == Empty {
			legal = append(legal, i)
		}
	}
	return legal
}

// Board returns a copy of the board
func (t *TicTacToe) Board() []float64 {
	board := make([]float64, Size)
	copy(board, t.board)
	return board
}

func (t *TicTacToe) observation() *mat.VecDense {
	return mat.NewVecDense(Size, t.Board())
}

// ObservationSpec returns the observation specification of the board
func (t *TicTacToe) ObservationSpec() environment.Spec {
	low := make([]float64, Size)
	high := make([]float64, Size)
	for i := range low {
		low[i], high[i] = Opponent, Agent
	}

	return environment.NewSpec(mat.NewVecDense(Size, nil),
		environment.Observation, mat.NewVecDense(Size, low),
		mat.NewVecDense(Size, high), environment.Discrete)
}

// ActionSpec returns the action specification of the board
func (t *TicTacToe) ActionSpec() environment.Spec {
	return environment.NewDiscreteSpec(environment.Action, Size)
}

// Close implements the environment.Environment interface
func (t *TicTacToe) Close() error {
	return nil
}

func (t *TicTacToe) String() string {
	var b strings.Builder
	for i, v := range t.board {
		switch v {
		case Agent:
			b.WriteByte('X')
		case Opponent:
			b.WriteByte('O')
		default:
			b.WriteByte('.')
		}
		if i%3 == 2 && i < Size-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
