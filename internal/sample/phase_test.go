package sample

import "testing"

func TestClassifyPhase(t *testing.T) {
	cases := []struct {
		name     string
		ply      int
		material int
		want     Phase
	}{
		{"early ply is opening", 4, 78, PhaseOpening},
		{"last opening ply", 15, 78, PhaseOpening},
		{"developed game is middlegame", 16, 60, PhaseMiddlegame},
		{"thin material is endgame", 40, 26, PhaseEndgame},
		{"early ply wins over thin material", 10, 12, PhaseOpening},
	}
	for _, tc := range cases {
		if got := classifyPhase(tc.ply, tc.material); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestFirstPlyTaggedOpening(t *testing.T) {
	sel := SelectFirstN(quietPGN, 1)
	if len(sel.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(sel.Candidates))
	}
	if sel.Candidates[0].Phase != PhaseOpening {
		t.Fatalf("expected opening phase at ply 0, got %s", sel.Candidates[0].Phase)
	}
}
