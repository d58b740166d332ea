// Package cartpole implements the Cartpole classic control environment
package cartpole

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/rainbow/environment"
	ts "github.com/samuelfneumann/rainbow/timestep"
	"github.com/samuelfneumann/rainbow/utils/floatutils"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnification of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Bounds (+/-) on the cart position and the pole angle
	PositionBounds float64 = 2.4
	AngleBounds    float64 = math.Pi

	// FailAngle is the angle from upright at which the pole has fallen
	FailAngle float64 = 12 * 2 * math.Pi / 360

	// StartBounds (+/-) bounds every feature of the starting states
	StartBounds float64 = 0.05

	Features int = 4
	Actions  int = 3
)

// Cartpole implements the classic control environment Cartpole with
// the balance task. In this environment, a pole is attached to a cart,
// which can move horizontally. The agent must keep the pole upright
// for as long as possible.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity. The position is clipped to
// the track and the angle is normalized to (-π, π].
//
// Actions are discrete and consist of the force applied to the cart:
//
//	Action	Meaning
//	  0		Accelerate left
//	  1		Do nothing
//	  2		Accelerate right
//
// The reward is +1 for every step the pole stays above FailAngle.
// Episodes end when the pole falls or at the step limit.
type Cartpole struct {
	starter env.Starter
	ender   env.Ender

	lastStep ts.TimeStep
}

// New constructs a new Cartpole environment. A cutoff < 1 means
// episodes are only ended by the pole falling.
func New(cutoff int, seed uint64) (*Cartpole, ts.TimeStep) {
	bounds := make([]r1.Interval, Features)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -StartBounds, Max: StartBounds}
	}

	fallen := env.NewFunctionEnder(func(obs mat.Vector) bool {
		return math.Abs(obs.AtVec(2)) > FailAngle
	}, ts.TerminalStateReached)

	c := &Cartpole{
		starter: env.NewUniformStarter(bounds, seed),
		ender:   env.Enders{fallen, env.NewStepLimit(cutoff)},
	}

	step, _ := c.Reset()
	return c, step
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *Cartpole) Reset() (ts.TimeStep, error) {
	c.lastStep = ts.New(ts.First, 0, c.starter.Start(), 0)
	return c.lastStep, nil
}

// ActionSpec returns the action specification of the environment
func (c *Cartpole) ActionSpec() env.Spec {
	return env.NewDiscreteSpec(env.Action, Actions)
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Cartpole) ObservationSpec() env.Spec {
	upper := []float64{PositionBounds, math.MaxFloat64, AngleBounds,
		math.MaxFloat64}
	lower := make([]float64, Features)
	for i := range lower {
		lower[i] = -upper[i]
	}

	return env.NewSpec(mat.NewVecDense(Features, nil), env.Observation,
		mat.NewVecDense(Features, lower), mat.NewVecDense(Features, upper),
		env.Continuous)
}

// Step takes one environmental step given action and returns the next
// timestep and whether or not the episode has ended
func (c *Cartpole) Step(action int) (ts.TimeStep, bool, error) {
	if c.lastStep.Last() {
		return ts.TimeStep{}, true, fmt.Errorf("step: episode has ended, " +
			"call Reset")
	}
	if action < 0 || action >= Actions {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action"+
			"\n\twant([0, %v))\n\thave(%v)", Actions, action)
	}

	// Get state variables
	state := c.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	// Actions (0, 1, 2) push in direction (-1, 0, 1)
	force := ForceMag * float64(action-1)

	// Calculate physical variables to determine next state
	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	totalMass := PoleMass + CartMass
	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / totalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/totalMass

	// Update state variables using Euler kinematic integration
	x += Dt * xDot
	xDot += Dt * xAcc
	if clipped := floatutils.Clip(x, -PositionBounds, PositionBounds); clipped != x {
		// The cart stops at the end of the track
		x, xDot = clipped, 0
	}

	th = normalizeAngle(th + Dt*thDot)
	thDot += Dt * thAcc

	next := mat.NewVecDense(Features, []float64{x, xDot, th, thDot})
	nextStep := ts.New(ts.Mid, 0, next, c.lastStep.Number+1)
	if math.Abs(th) <= FailAngle {
		nextStep.Reward = 1
	}
	c.ender.End(&nextStep)

	c.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// Close implements the environment.Environment interface
func (c *Cartpole) Close() error {
	return nil
}

func (c *Cartpole) String() string {
	msg := "Cartpole  |  Position: %.3f  | Speed: %.3f  |  Angle: %.3f" +
		"  |  Angular Velocity: %.3f"

	state := c.lastStep.Observation
	return fmt.Sprintf(msg, state.AtVec(0), state.AtVec(1), state.AtVec(2),
		state.AtVec(3))
}

// normalizeAngle normalizes the pole angle to (-π, π]
func normalizeAngle(th float64) float64 {
	th = math.Mod(th+AngleBounds, 2*AngleBounds)
	if th <= 0 {
		th += 2 * AngleBounds
	}
	return th - AngleBounds
}
