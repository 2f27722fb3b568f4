// Package compare is the comparison entry point. It wires the synonym
// index, the reference set, and the scorer into a single run, applies the
// best-effort policy for unreadable sources, and produces the Report shared
// by the CLI, the HTTP API, and the job worker.
package compare

import (
	"context"
	"time"

	"github.com/synocheck/synocheck/internal/scorer"
	"github.com/synocheck/synocheck/internal/source"
	"github.com/synocheck/synocheck/internal/synonyms"
	"github.com/synocheck/synocheck/pkg/logger"
)

// DefaultTupleSize is used when a requested tuple size is missing or not a
// positive integer.
const DefaultTupleSize = 3

// Inputs are the three sources of one comparison run. Nil sources are
// treated as empty; a caller substituting NoWords/NoLines for an unreadable
// file gets the same behavior plus its own diagnostic.
type Inputs struct {
	Synonyms  source.LineSource
	Reference source.WordSource
	Candidate source.WordSource
	TupleSize int
}

// Report is the complete outcome of one comparison run.
type Report struct {
	Percent         string   `json:"percent"`
	Ratio           float64  `json:"ratio"`
	Matched         int      `json:"matched"`
	Total           int      `json:"total"`
	ReferenceTuples int      `json:"reference_tuples"`
	ReferenceWords  int      `json:"reference_words"`
	CandidateWords  int      `json:"candidate_words"`
	SynonymGroups   int      `json:"synonym_groups"`
	IndexedWords    int      `json:"indexed_words"`
	TupleSize       int      `json:"tuple_size"`
	Degenerate      bool     `json:"degenerate"`
	Problems        []string `json:"problems,omitempty"`
	ElapsedMs       int64    `json:"elapsed_ms"`
}

// Outcome classifies a report for metrics labelling.
func (r *Report) Outcome() string {
	if r.Degenerate {
		return "degenerate"
	}
	return "scored"
}

// Runner executes comparison runs. It holds no per-run state; one Runner is
// shared across requests.
type Runner struct{}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run builds the synonym index from Inputs.Synonyms, materializes the
// reference set from Inputs.Reference, and scores Inputs.Candidate against
// it. Run never fails: source errors are downgraded to Report.Problems and
// the affected stream contributes whatever was read before the error, so a
// partial run still produces a best-effort answer.
func (ru *Runner) Run(ctx context.Context, in Inputs) *Report {
	start := time.Now()
	log := logger.FromContext(ctx).With("component", "compare-runner")

	k := in.TupleSize
	if k < 1 {
		log.Warn("invalid tuple size, using default",
			"requested", in.TupleSize,
			"default", DefaultTupleSize,
		)
		k = DefaultTupleSize
	}
	report := &Report{TupleSize: k}

	index, err := synonyms.Build(in.Synonyms)
	if err != nil {
		report.addProblem("reading synonyms: " + err.Error())
		log.Warn("synonym source failed, continuing with partial index", "error", err)
	}
	report.SynonymGroups = index.Groups()
	report.IndexedWords = index.Len()

	reference := in.Reference
	if reference == nil {
		reference = source.NoWords()
	}
	ref, err := scorer.BuildReference(reference, index, k)
	if err != nil {
		report.addProblem("reading reference document: " + err.Error())
		log.Warn("reference source failed, continuing with partial set", "error", err)
	}
	report.ReferenceTuples = ref.Size()
	report.ReferenceWords = ref.Words()

	candidate := in.Candidate
	if candidate == nil {
		candidate = source.NoWords()
	}
	sc, err := scorer.ScoreAgainst(candidate, index, k, ref)
	if err != nil {
		report.addProblem("reading candidate document: " + err.Error())
		log.Warn("candidate source failed, scoring what was read", "error", err)
	}
	report.Matched = sc.Matched
	report.Total = sc.Total
	report.CandidateWords = sc.Words
	report.Ratio = sc.Ratio
	report.Percent = sc.Percent()
	report.Degenerate = ref.Words() == 0 || sc.Words == 0 || sc.Total == 0 || ref.Size() == 0
	report.ElapsedMs = time.Since(start).Milliseconds()

	log.Info("comparison completed",
		"percent", report.Percent,
		"matched", report.Matched,
		"total", report.Total,
		"reference_tuples", report.ReferenceTuples,
		"tuple_size", k,
		"degenerate", report.Degenerate,
		"elapsed_ms", report.ElapsedMs,
	)
	return report
}

func (r *Report) addProblem(msg string) {
	r.Problems = append(r.Problems, msg)
}
