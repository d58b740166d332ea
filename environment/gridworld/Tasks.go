package gridworld

import "gonum.org/v1/gonum/floats"

// Task is the reward scheme of a GridWorld. The reward of a step is
// determined by the cell it lands in.
type Task struct {
	StepReward float64
	HoleReward float64
	GoalReward float64
}

// FrozenLakeTask is the reward scheme of FrozenLake, only reaching the
// goal is rewarded
var FrozenLakeTask = Task{StepReward: 0, HoleReward: 0, GoalReward: 1}

// Reward returns the reward for landing in a cell
func (t Task) Reward(c Cell) float64 {
	switch c {
	case Goal:
		return t.GoalReward
	case Hole:
		return t.HoleReward
	}
	return t.StepReward
}

// Min returns the minimum reward attainable in the Task
func (t Task) Min() float64 {
	return floats.Min([]float64{t.StepReward, t.HoleReward, t.GoalReward})
}

// Max returns the maximum reward attainable in the Task
func (t Task) Max() float64 {
	return floats.Max([]float64{t.StepReward, t.HoleReward, t.GoalReward})
}
