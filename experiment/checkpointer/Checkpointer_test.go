package checkpointer

import "testing"

// recorder records the filenames it is saved to
type recorder struct {
	saved []string
}

func (r *recorder) Save(filename string) error {
	r.saved = append(r.saved, filename)
	return nil
}

func TestBestAverage(t *testing.T) {
	r := &recorder{}
	b := NewBestAverage(r, "models/agent.gob")

	rates := []float64{-0.5, -0.7, 0.1, 0.1, 0.3, 0.2}
	for i, rate := range rates {
		if err := b.Checkpoint(i, rate); err != nil {
			t.Fatal(err)
		}
	}

	// Only strict improvements are saved
	if len(r.saved) != 3 {
		t.Errorf("checkpoint: invalid number of saves\n\twant(3)\n\thave(%v)",
			len(r.saved))
	}
	if b.Best() != 0.3 {
		t.Errorf("best: want(0.3) have(%v)", b.Best())
	}
	for _, filename := range r.saved {
		if filename != b.Filename() {
			t.Errorf("checkpoint: saved to %v, want %v", filename, b.Filename())
		}
	}
}

func TestNStep(t *testing.T) {
	r := &recorder{}
	n, err := NewNStep(3, r, FilenameEnumerator(0, "models/agent", ".gob"))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 7; i++ {
		if err := n.Checkpoint(i, 0); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"models/agent-1.gob", "models/agent-2.gob"}
	if len(r.saved) != len(want) {
		t.Fatalf("checkpoint: want(%v) have(%v)", want, r.saved)
	}
	for i := range want {
		if r.saved[i] != want[i] {
			t.Errorf("checkpoint: want(%v) have(%v)", want[i], r.saved[i])
		}
	}

	if _, err := NewNStep(0, r, nil); err == nil {
		t.Error("newNStep: expected error for zero interval")
	}
}
