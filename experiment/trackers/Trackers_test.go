package trackers

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/rainbow/experiment/tracker"
	ts "github.com/samuelfneumann/rainbow/timestep"
	"gonum.org/v1/gonum/mat"
)

// episode returns the timesteps of an episode with the given rewards
func episode(rewards ...float64) []ts.TimeStep {
	obs := mat.NewVecDense(1, nil)
	steps := []ts.TimeStep{ts.New(ts.First, 0, obs, 0)}
	for i, r := range rewards {
		step := ts.New(ts.Mid, r, obs, i+1)
		if i == len(rewards)-1 {
			step.SetEnd(ts.TerminalStateReached)
		}
		steps = append(steps, step)
	}
	return steps
}

func TestReturn(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "return.gob")
	r := NewReturn(filename)

	for _, step := range append(episode(1, 2, -0.5), episode(0, 1)...) {
		r.Track(step)
	}

	want := []float64{2.5, 1}
	if err := r.Save(); err != nil {
		t.Fatal(err)
	}
	data, err := tracker.LoadData(filename)
	if err != nil {
		t.Fatal(err)
	}

	if len(data) != len(want) {
		t.Fatalf("loadData: want(%v) have(%v)", want, data)
	}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("return %v: want(%v) have(%v)", i, want[i], data[i])
		}
	}
}

func TestReturnNonSequentialPanics(t *testing.T) {
	r := NewReturn("")
	steps := episode(1, 2)

	defer func() {
		if recover() == nil {
			t.Error("track: expected panic for non-sequential timesteps")
		}
	}()
	r.Track(steps[0])
	r.Track(steps[2])
}

func TestEpisodeLength(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "length.gob")
	e := NewEpisodeLength(filename)

	for _, step := range append(episode(0, 0, 0), episode(1)...) {
		e.Track(step)
	}
	if err := e.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := tracker.LoadData(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 2 || data[0] != 3 || data[1] != 1 {
		t.Errorf("loadData: want([3 1]) have(%v)", data)
	}
}
