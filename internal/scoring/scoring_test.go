package scoring

import "testing"

func TestIsCorrect(t *testing.T) {
	cases := []struct {
		name     string
		selected []string
		correct  []string
		want     bool
	}{
		{"single match", []string{"B"}, []string{"B"}, true},
		{"single miss", []string{"A"}, []string{"B"}, false},
		{"multi exact", []string{"A", "C"}, []string{"A", "C"}, true},
		{"multi permuted", []string{"C", "A"}, []string{"A", "C"}, true},
		{"multi omission", []string{"A"}, []string{"A", "C"}, false},
		{"multi extra", []string{"A", "B", "C"}, []string{"A", "C"}, false},
		{"empty selection", nil, []string{"A"}, false},
		{"both empty", nil, nil, true},
		{"selection against no answer", []string{"A"}, nil, false},
		{"duplicate selection keys", []string{"A", "A"}, []string{"A"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCorrect(tc.selected, tc.correct); got != tc.want {
				t.Fatalf("IsCorrect(%v, %v) = %v, want %v", tc.selected, tc.correct, got, tc.want)
			}
		})
	}
}

func TestIsCorrectReflexive(t *testing.T) {
	for _, correct := range [][]string{{"A"}, {"B", "D"}, {"A", "B", "C", "D"}} {
		if !IsCorrect(correct, correct) {
			t.Fatalf("expected %v to score itself as correct", correct)
		}
		if IsCorrect(nil, correct) {
			t.Fatalf("expected empty selection to be wrong for %v", correct)
		}
	}
}
