package compare

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/synocheck/synocheck/internal/source"
)

func runRequest(t *testing.T, req Request) *Report {
	t.Helper()
	return NewRunner().Run(context.Background(), req.Inputs())
}

func TestRunScenarios(t *testing.T) {
	tests := []struct {
		name           string
		req            Request
		wantPercent    string
		wantDegenerate bool
	}{
		{
			name:           "both documents empty",
			req:            Request{TupleSize: 3},
			wantPercent:    "100.00%",
			wantDegenerate: true,
		},
		{
			name:           "candidate empty",
			req:            Request{Reference: "one two three four", TupleSize: 3},
			wantPercent:    "0.00%",
			wantDegenerate: true,
		},
		{
			name:           "reference empty",
			req:            Request{Candidate: "one two three four", TupleSize: 3},
			wantPercent:    "0.00%",
			wantDegenerate: true,
		},
		{
			name: "identical documents",
			req: Request{
				Reference: "the quick brown fox",
				Candidate: "the quick brown fox",
				TupleSize: 3,
			},
			wantPercent: "100.00%",
		},
		{
			name: "synonym substitution",
			req: Request{
				Synonyms:  "run jog sprint",
				Reference: "go run now",
				Candidate: "go jog now",
				TupleSize: 3,
			},
			wantPercent: "100.00%",
		},
		{
			name: "candidate shorter than tuple size",
			req: Request{
				Reference: "one two three four",
				Candidate: "one two",
				TupleSize: 3,
			},
			wantPercent:    "0.00%",
			wantDegenerate: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := runRequest(t, tt.req)
			if report.Percent != tt.wantPercent {
				t.Errorf("Percent = %q, want %q", report.Percent, tt.wantPercent)
			}
			if report.Degenerate != tt.wantDegenerate {
				t.Errorf("Degenerate = %v, want %v", report.Degenerate, tt.wantDegenerate)
			}
			if len(report.Problems) != 0 {
				t.Errorf("Problems = %v, want none", report.Problems)
			}
		})
	}
}

func TestRunDefaultsInvalidTupleSize(t *testing.T) {
	report := NewRunner().Run(context.Background(), Inputs{
		Synonyms:  source.NoLines(),
		Reference: source.WordsOf("a b c d"),
		Candidate: source.WordsOf("a b c d"),
		TupleSize: 0,
	})
	if report.TupleSize != DefaultTupleSize {
		t.Errorf("TupleSize = %d, want default %d", report.TupleSize, DefaultTupleSize)
	}
	if report.Percent != "100.00%" {
		t.Errorf("Percent = %q, want %q", report.Percent, "100.00%")
	}
}

func TestRunNilSources(t *testing.T) {
	report := NewRunner().Run(context.Background(), Inputs{TupleSize: 3})
	if report.Percent != "100.00%" {
		t.Errorf("Percent = %q, want %q", report.Percent, "100.00%")
	}
	if !report.Degenerate {
		t.Error("Degenerate = false for two missing documents")
	}
}

func TestRunReportCounts(t *testing.T) {
	report := runRequest(t, Request{
		Synonyms:  "run jog\nbig large",
		Reference: "a b c d e",
		Candidate: "a b c d x",
		TupleSize: 3,
	})
	if report.SynonymGroups != 2 {
		t.Errorf("SynonymGroups = %d, want 2", report.SynonymGroups)
	}
	if report.IndexedWords != 4 {
		t.Errorf("IndexedWords = %d, want 4", report.IndexedWords)
	}
	if report.ReferenceWords != 5 {
		t.Errorf("ReferenceWords = %d, want 5", report.ReferenceWords)
	}
	if report.CandidateWords != 5 {
		t.Errorf("CandidateWords = %d, want 5", report.CandidateWords)
	}
	if report.ReferenceTuples != 3 {
		t.Errorf("ReferenceTuples = %d, want 3", report.ReferenceTuples)
	}
	if report.Total != 3 || report.Matched != 2 {
		t.Errorf("Matched/Total = %d/%d, want 2/3", report.Matched, report.Total)
	}
	if report.Percent != "66.67%" {
		t.Errorf("Percent = %q, want %q", report.Percent, "66.67%")
	}
}

// failingWords yields a few words then fails, like a document whose backing
// file disappears mid-read.
type failingWords struct {
	words []string
	pos   int
	err   error
}

func (f *failingWords) Scan() bool {
	if f.pos < len(f.words) {
		f.pos++
		return true
	}
	return false
}
func (f *failingWords) Word() string { return f.words[f.pos-1] }
func (f *failingWords) Err() error   { return f.err }

func TestRunRecordsSourceProblems(t *testing.T) {
	report := NewRunner().Run(context.Background(), Inputs{
		Synonyms:  source.NoLines(),
		Reference: source.WordsOf("a b c d"),
		Candidate: &failingWords{words: []string{"a", "b", "c"}, err: errors.New("disk gone")},
		TupleSize: 3,
	})
	if len(report.Problems) != 1 {
		t.Fatalf("Problems = %v, want exactly one", report.Problems)
	}
	if !strings.Contains(report.Problems[0], "disk gone") {
		t.Errorf("problem %q does not mention the source error", report.Problems[0])
	}
	// The words read before the failure still score.
	if report.Total != 1 || report.Matched != 1 {
		t.Errorf("Matched/Total = %d/%d, want 1/1", report.Matched, report.Total)
	}
}

func TestOutcome(t *testing.T) {
	if got := (&Report{Degenerate: true}).Outcome(); got != "degenerate" {
		t.Errorf("Outcome() = %q, want degenerate", got)
	}
	if got := (&Report{}).Outcome(); got != "scored" {
		t.Errorf("Outcome() = %q, want scored", got)
	}
}
