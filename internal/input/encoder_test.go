package input

import "testing"

func TestEncoder_DeltaCarriesRemainder(t *testing.T) {
	e := NewEncoder(2)

	e.Add(1)
	if d := e.Delta(); d != 0 {
		t.Fatalf("half detent: got %d", d)
	}
	e.Add(1)
	if d := e.Delta(); d != 1 {
		t.Fatalf("full detent: got %d", d)
	}
	e.Add(-5)
	if d := e.Delta(); d != -2 {
		t.Fatalf("got %d, want -2", d)
	}
	e.Add(-1)
	if d := e.Delta(); d != -1 {
		t.Fatalf("carried remainder: got %d, want -1", d)
	}
	if d := e.Delta(); d != 0 {
		t.Fatalf("nothing new: got %d", d)
	}
}

func TestEncoder_DefaultSteps(t *testing.T) {
	e := NewEncoder(0)
	e.Add(4)
	if d := e.Delta(); d != 2 {
		t.Errorf("got %d, want 2", d)
	}
}

func TestQuadrature_Directions(t *testing.T) {
	// A/B levels for one full cycle in each direction.
	forward := [][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	backward := [][2]int{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}

	sum := func(seq [][2]int) int {
		var q Quadrature
		total := 0
		for _, s := range seq {
			total += q.Update(s[0], s[1])
		}
		return total
	}

	if got := sum(forward); got != 4 {
		t.Errorf("forward = %d, want 4", got)
	}
	if got := sum(backward); got != -4 {
		t.Errorf("backward = %d, want -4", got)
	}
}

func TestQuadrature_InvalidTransitionIgnored(t *testing.T) {
	var q Quadrature
	q.Update(0, 0)
	if s := q.Update(1, 1); s != 0 {
		t.Errorf("double transition = %d, want 0", s)
	}
	if s := q.Update(1, 1); s != 0 {
		t.Errorf("no transition = %d, want 0", s)
	}
}
