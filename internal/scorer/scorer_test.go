package scorer

import (
	"testing"

	"github.com/synocheck/synocheck/internal/source"
	"github.com/synocheck/synocheck/internal/synonyms"
)

func buildIndex(t *testing.T, lines string) *synonyms.Index {
	t.Helper()
	idx, err := synonyms.Build(source.LinesOf(lines))
	if err != nil {
		t.Fatalf("building index: %v", err)
	}
	return idx
}

func scoreDocs(t *testing.T, synonymLines, reference, candidate string, k int) Score {
	t.Helper()
	idx := buildIndex(t, synonymLines)
	ref, err := BuildReference(source.WordsOf(reference), idx, k)
	if err != nil {
		t.Fatalf("BuildReference: %v", err)
	}
	sc, err := ScoreAgainst(source.WordsOf(candidate), idx, k, ref)
	if err != nil {
		t.Fatalf("ScoreAgainst: %v", err)
	}
	return sc
}

func TestScorePolicies(t *testing.T) {
	tests := []struct {
		name        string
		synonyms    string
		reference   string
		candidate   string
		k           int
		wantPercent string
	}{
		{
			name:        "both documents empty",
			reference:   "",
			candidate:   "",
			k:           3,
			wantPercent: "100.00%",
		},
		{
			name:        "reference empty",
			reference:   "",
			candidate:   "one two three four",
			k:           3,
			wantPercent: "0.00%",
		},
		{
			name:        "candidate empty",
			reference:   "one two three four",
			candidate:   "",
			k:           3,
			wantPercent: "0.00%",
		},
		{
			name:        "identical documents",
			reference:   "the quick brown fox jumps",
			candidate:   "the quick brown fox jumps",
			k:           3,
			wantPercent: "100.00%",
		},
		{
			name:        "disjoint documents",
			reference:   "alpha beta gamma delta",
			candidate:   "one two three four",
			k:           3,
			wantPercent: "0.00%",
		},
		{
			name:        "synonym substitution matches fully",
			synonyms:    "run jog sprint",
			reference:   "go run now",
			candidate:   "go jog now",
			k:           3,
			wantPercent: "100.00%",
		},
		{
			name:        "candidate shorter than tuple size",
			reference:   "one two three four",
			candidate:   "one two",
			k:           3,
			wantPercent: "0.00%",
		},
		{
			name:        "reference shorter than tuple size",
			reference:   "one two",
			candidate:   "one two three four",
			k:           3,
			wantPercent: "0.00%",
		},
		{
			name:        "partial overlap",
			reference:   "a b c d",
			candidate:   "a b c x",
			k:           3,
			wantPercent: "50.00%",
		},
		{
			name:        "two thirds overlap",
			reference:   "a b c d e",
			candidate:   "a b c d x",
			k:           3,
			wantPercent: "66.67%",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := scoreDocs(t, tt.synonyms, tt.reference, tt.candidate, tt.k)
			if got := sc.Percent(); got != tt.wantPercent {
				t.Errorf("Percent() = %q, want %q (matched=%d total=%d)",
					got, tt.wantPercent, sc.Matched, sc.Total)
			}
		})
	}
}

func TestDuplicateCandidateTuplesCountIndependently(t *testing.T) {
	// "a b a b a b" with k=2 yields five windows, three "a b" and two
	// "b a". Only "a b" is in the reference, so 3 of 5 match.
	sc := scoreDocs(t, "", "a b", "a b a b a b", 2)
	if sc.Total != 5 {
		t.Fatalf("Total = %d, want 5", sc.Total)
	}
	if sc.Matched != 3 {
		t.Errorf("Matched = %d, want 3", sc.Matched)
	}
	if got := sc.Percent(); got != "60.00%" {
		t.Errorf("Percent() = %q, want %q", got, "60.00%")
	}
}

func TestReferenceSetCollapsesDuplicates(t *testing.T) {
	idx := buildIndex(t, "")
	ref, err := BuildReference(source.WordsOf("a b a b a b"), idx, 2)
	if err != nil {
		t.Fatalf("BuildReference: %v", err)
	}
	// Windows: "a b", "b a", "a b", "b a", "a b" collapse to two entries.
	if got, want := ref.Size(), 2; got != want {
		t.Errorf("Size() = %d, want %d", got, want)
	}
	if got, want := ref.Words(), 6; got != want {
		t.Errorf("Words() = %d, want %d", got, want)
	}
}

func TestScoringIsIdempotent(t *testing.T) {
	idx := buildIndex(t, "run jog")
	ref, err := BuildReference(source.WordsOf("go run now fast"), idx, 3)
	if err != nil {
		t.Fatalf("BuildReference: %v", err)
	}
	first, err := ScoreAgainst(source.WordsOf("go jog now slow"), idx, 3, ref)
	if err != nil {
		t.Fatalf("ScoreAgainst: %v", err)
	}
	second, err := ScoreAgainst(source.WordsOf("go jog now slow"), idx, 3, ref)
	if err != nil {
		t.Fatalf("ScoreAgainst: %v", err)
	}
	if first != second {
		t.Errorf("scores differ across runs: %+v vs %+v", first, second)
	}
}

func TestNilReferenceSet(t *testing.T) {
	var ref *ReferenceSet
	if ref.Contains(42) {
		t.Error("nil ReferenceSet Contains returned true")
	}
	if ref.Size() != 0 || ref.Words() != 0 {
		t.Error("nil ReferenceSet reports non-zero sizes")
	}
}
