// Command synocheck compares two documents for tuple-level similarity and
// prints the match percentage.
//
// Usage:
//
//	synocheck -synonyms groups.txt [-k 3] reference.txt candidate.txt
//
// A file that cannot be opened is reported on stderr and treated as empty,
// so the comparison always completes and always prints a percentage.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/synocheck/synocheck/internal/compare"
	"github.com/synocheck/synocheck/internal/source"
	"github.com/synocheck/synocheck/pkg/logger"
)

func main() {
	synonymsPath := flag.String("synonyms", "", "path to the synonym groups file (one group per line)")
	tupleSize := flag.Int("k", compare.DefaultTupleSize, "tuple size in words")
	verbose := flag.Bool("v", false, "print the full comparison report to stderr")
	logLevel := flag.String("log-level", "error", "log level (debug, info, warn, error)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
		os.Exit(2)
	}

	logger.Setup(*logLevel, "text")

	var synonyms source.LineSource
	if *synonymsPath != "" {
		lines, err := source.OpenLines(*synonymsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "synocheck: %v (continuing without synonyms)\n", err)
		} else {
			defer lines.Close()
			synonyms = lines
		}
	}

	reference := openWordsOrEmpty(flag.Arg(0))
	defer reference.Close()
	candidate := openWordsOrEmpty(flag.Arg(1))
	defer candidate.Close()

	runner := compare.NewRunner()
	report := runner.Run(context.Background(), compare.Inputs{
		Synonyms:  synonyms,
		Reference: reference,
		Candidate: candidate,
		TupleSize: *tupleSize,
	})

	if *verbose {
		fmt.Fprintf(os.Stderr, "tuple_size=%d matched=%d total=%d reference_tuples=%d synonym_groups=%d degenerate=%v elapsed_ms=%d\n",
			report.TupleSize, report.Matched, report.Total,
			report.ReferenceTuples, report.SynonymGroups,
			report.Degenerate, report.ElapsedMs,
		)
	}
	for _, problem := range report.Problems {
		fmt.Fprintf(os.Stderr, "synocheck: %s\n", problem)
	}

	fmt.Println(report.Percent)
}

// openWordsOrEmpty opens path as a word source, substituting an empty
// source when the file cannot be read.
func openWordsOrEmpty(path string) *source.Words {
	words, err := source.OpenWords(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "synocheck: %v (treating as empty)\n", err)
		return source.NoWords()
	}
	return words
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: synocheck -synonyms <groups file> [-k <tuple size>] <reference doc> <candidate doc>

Compares the candidate document against the reference document using
synonym-aware word tuples and prints the match percentage.

Flags:
`)
	flag.PrintDefaults()
}
