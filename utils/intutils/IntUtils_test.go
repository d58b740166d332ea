package intutils

import "testing"

func TestMax(t *testing.T) {
	if m := Max(3); m != 3 {
		t.Errorf("max: want(3) have(%v)", m)
	}
	if m := Max(-2, 7, 4); m != 7 {
		t.Errorf("max: want(7) have(%v)", m)
	}
}

func TestRange(t *testing.T) {
	r := Range(4)
	if len(r) != 4 {
		t.Fatalf("range: want(4) ints have(%v)", len(r))
	}
	for i, v := range r {
		if v != i {
			t.Errorf("range: want(%v) have(%v)", i, v)
		}
	}
	if len(Range(0)) != 0 {
		t.Error("range: expected empty range")
	}
}
