package benchmark

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/synocheck/synocheck/internal/compare"
	"github.com/synocheck/synocheck/internal/scorer"
	"github.com/synocheck/synocheck/internal/source"
	"github.com/synocheck/synocheck/internal/synonyms"
	"github.com/synocheck/synocheck/internal/tuple"
	"github.com/synocheck/synocheck/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Setup("error", "text")
	os.Exit(m.Run())
}

var sampleDocs = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Plagiarism detection systems compare documents at the level of
        overlapping word sequences rather than whole sentences. Replacing a
        word with a synonym leaves the surrounding sequence intact, so a
        detector that canonicalizes words before comparison catches
        substitution-based rewording. The candidate document is scored by
        the fraction of its word tuples that also appear in the reference
        document, yielding a percentage robust to simple paraphrase.`,
	"long": strings.Repeat(`Tuple based comparison slides a fixed size window
        across the candidate document one word at a time. Every window is
        canonicalized against the synonym index and reduced to a fingerprint,
        and the fingerprint is looked up in the set collected from the
        reference document. Degenerate inputs such as empty documents or
        documents shorter than the window resolve through explicit policy
        rather than arithmetic. `, 20),
}

const sampleSynonyms = `quick fast rapid speedy
jumps leaps bounds hops
lazy idle sluggish
document text file manuscript
word term token
compare match contrast`

func buildBenchIndex(b *testing.B) *synonyms.Index {
	b.Helper()
	idx, err := synonyms.Build(source.LinesOf(sampleSynonyms))
	if err != nil {
		b.Fatalf("building index: %v", err)
	}
	return idx
}

func BenchmarkCanonicalizeStream(b *testing.B) {
	idx := buildBenchIndex(b)
	for name, text := range sampleDocs {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				stream, err := tuple.NewStream(source.WordsOf(text), idx, 3)
				if err != nil {
					b.Fatal(err)
				}
				for stream.Next() {
					_ = stream.Fingerprint()
				}
			}
		})
	}
}

func BenchmarkBuildReference(b *testing.B) {
	idx := buildBenchIndex(b)
	text := sampleDocs["long"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		if _, err := scorer.BuildReference(source.WordsOf(text), idx, 3); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFullComparison(b *testing.B) {
	runner := compare.NewRunner()
	for name, text := range sampleDocs {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				report := runner.Run(context.Background(), compare.Inputs{
					Synonyms:  source.LinesOf(sampleSynonyms),
					Reference: source.WordsOf(text),
					Candidate: source.WordsOf(text),
					TupleSize: 3,
				})
				_ = report
			}
		})
	}
}

func BenchmarkComparisonParallel(b *testing.B) {
	runner := compare.NewRunner()
	text := sampleDocs["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			report := runner.Run(context.Background(), compare.Inputs{
				Synonyms:  source.LinesOf(sampleSynonyms),
				Reference: source.WordsOf(text),
				Candidate: source.WordsOf(text),
				TupleSize: 3,
			})
			_ = report
		}
	})
}

func BenchmarkVaryingTupleSize(b *testing.B) {
	idx := buildBenchIndex(b)
	text := sampleDocs["long"]
	for _, k := range []int{2, 3, 5, 8} {
		b.Run(fmt.Sprintf("k_%d", k), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				stream, err := tuple.NewStream(source.WordsOf(text), idx, k)
				if err != nil {
					b.Fatal(err)
				}
				for stream.Next() {
					_ = stream.Fingerprint()
				}
			}
		})
	}
}
