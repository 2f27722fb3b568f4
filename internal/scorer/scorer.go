// Package scorer materializes the reference document's tuple fingerprints
// into a set and scores a candidate document against it. The score is the
// fraction of the candidate's tuples found in the reference set; degenerate
// inputs resolve through explicit policy branches rather than arithmetic.
package scorer

import (
	"fmt"

	"github.com/synocheck/synocheck/internal/source"
	"github.com/synocheck/synocheck/internal/synonyms"
	"github.com/synocheck/synocheck/internal/tuple"
)

// ReferenceSet is the set of tuple fingerprints collected from the
// reference document. It is built once per comparison and only read while
// the candidate is scored. Repeated tuples in the reference collapse to one
// entry; each occurrence in the candidate still counts as an independent
// match opportunity.
type ReferenceSet struct {
	fingerprints map[tuple.Fingerprint]struct{}
	words        int
}

// BuildReference exhausts the canonicalized tuple stream of the reference
// document and collects every fingerprint. The reference word count is kept
// for the empty-document policy. A mid-read source error is returned along
// with the partial set.
func BuildReference(src source.WordSource, index *synonyms.Index, k int) (*ReferenceSet, error) {
	stream, err := tuple.NewStream(src, index, k)
	if err != nil {
		return nil, err
	}
	ref := &ReferenceSet{fingerprints: make(map[tuple.Fingerprint]struct{})}
	for stream.Next() {
		ref.fingerprints[stream.Fingerprint()] = struct{}{}
	}
	ref.words = stream.Words()
	return ref, stream.Err()
}

// Contains reports whether fp was seen in the reference document.
func (r *ReferenceSet) Contains(fp tuple.Fingerprint) bool {
	if r == nil {
		return false
	}
	_, ok := r.fingerprints[fp]
	return ok
}

// Size returns the number of distinct tuple fingerprints.
func (r *ReferenceSet) Size() int {
	if r == nil {
		return 0
	}
	return len(r.fingerprints)
}

// Words returns the number of words the reference document contained.
func (r *ReferenceSet) Words() int {
	if r == nil {
		return 0
	}
	return r.words
}

// Score is the outcome of scoring one candidate document.
type Score struct {
	Matched int     `json:"matched"`
	Total   int     `json:"total"`
	Words   int     `json:"words"`
	Ratio   float64 `json:"ratio"`
}

// Percent renders the ratio as a two-decimal percentage, e.g. "66.67%".
func (s Score) Percent() string {
	return fmt.Sprintf("%.2f%%", s.Ratio*100)
}

// ScoreAgainst streams the candidate document, counting total tuples and
// tuples present in ref, and resolves the ratio. Re-running with the same
// reference set and a fresh candidate stream yields the same result.
func ScoreAgainst(src source.WordSource, index *synonyms.Index, k int, ref *ReferenceSet) (Score, error) {
	stream, err := tuple.NewStream(src, index, k)
	if err != nil {
		return Score{}, err
	}
	var sc Score
	for stream.Next() {
		sc.Total++
		if ref.Contains(stream.Fingerprint()) {
			sc.Matched++
		}
	}
	sc.Words = stream.Words()
	sc.Ratio = resolveRatio(sc, ref)
	return sc, stream.Err()
}

// resolveRatio applies the degenerate-input policy before dividing:
//
//	both documents empty          -> 1 (full match by convention)
//	exactly one document empty    -> 0
//	candidate yields zero tuples  -> 0 (shorter than k)
//	reference set empty           -> 0
//
// The branches guarantee a division by zero can never be reached.
func resolveRatio(sc Score, ref *ReferenceSet) float64 {
	switch {
	case ref.Words() == 0 && sc.Words == 0:
		return 1
	case ref.Words() == 0 || sc.Words == 0:
		return 0
	case sc.Total == 0 || ref.Size() == 0:
		return 0
	default:
		return float64(sc.Matched) / float64(sc.Total)
	}
}
