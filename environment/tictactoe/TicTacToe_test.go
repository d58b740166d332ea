package tictactoe

import (
	"testing"

	"github.com/samuelfneumann/rainbow/environment"
)

var _ environment.Board = &TicTacToe{}

func TestLegalMovesShrink(t *testing.T) {
	game, step := New(1)
	if len(step.Legal) != Size {
		t.Fatalf("reset: all cells should be legal, have %v", step.Legal)
	}

	for done := false; !done; {
		legal := step.Legal
		prev := len(legal)

		var err error
		step, done, err = game.Step(legal[0])
		if err != nil {
			t.Fatal(err)
		}

		if !done && len(step.Legal) != prev-2 {
			t.Errorf("step: agent and opponent should each fill a cell"+
				"\n\twant(%v)\n\thave(%v)", prev-2, len(step.Legal))
		}
		for _, a := range step.Legal {
			if game.Board()[a] != Empty {
				t.Errorf("step: occupied cell %v listed as legal", a)
			}
		}
	}

	if !step.Terminal() {
		t.Error("step: finished game should be terminal")
	}
	switch step.Reward {
	case WinReward, LossReward, DrawReward:
	default:
		t.Errorf("step: invalid final reward %v", step.Reward)
	}
}

func TestIllegalMove(t *testing.T) {
	game, _ := New(2)
	if _, _, err := game.Step(4); err != nil {
		t.Fatal(err)
	}
	if _, _, err := game.Step(4); err == nil {
		t.Error("step: expected error placing on an occupied cell")
	}
	if _, _, err := game.Step(Size); err == nil {
		t.Error("step: expected error for out of range cell")
	}
}

func TestWinner(t *testing.T) {
	game, _ := New(3)
	copy(game.board, []float64{
		Agent, Agent, Agent,
		Opponent, Opponent, Empty,
		Empty, Empty, Empty,
	})
	if w := game.Winner(); w != Agent {
		t.Errorf("winner: want(%v) have(%v)", Agent, w)
	}

	copy(game.board, []float64{
		Opponent, Agent, Agent,
		Agent, Opponent, Empty,
		Empty, Agent, Opponent,
	})
	if w := game.Winner(); w != Opponent {
		t.Errorf("winner: want(%v) have(%v)", Opponent, w)
	}
}

func TestAgentWinEndsGame(t *testing.T) {
	game, _ := New(4)
	copy(game.board, []float64{
		Agent, Agent, Empty,
		Opponent, Opponent, Empty,
		Empty, Empty, Empty,
	})

	step, done, err := game.Step(2)
	if err != nil {
		t.Fatal(err)
	}
	if !done || step.Reward != WinReward {
		t.Errorf("step: completing a line should win, have %v", step)
	}
	if game.Board()[5] != Empty {
		t.Error("step: opponent moved after the game was won")
	}
}
