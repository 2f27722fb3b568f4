// Package synonyms builds the word→group index that makes tuple comparison
// tolerant of synonym substitution. Each line of the synonym source defines
// one group of interchangeable words; the group is identified only by a
// 64-bit fingerprint of its defining line.
package synonyms

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/synocheck/synocheck/internal/source"
)

// GroupID is the fingerprint of a synonym group's defining line.
type GroupID uint64

// Index maps each word to the group it belongs to. It is built once by
// Build and never mutated afterwards, so it is safe to share between the
// reference and scoring passes of a comparison.
type Index struct {
	byWord map[string]GroupID
	groups int
}

// Build reads every line from src and indexes each whitespace-delimited
// word under the line's group fingerprint. A word that appears in more than
// one group keeps the last-seen assignment; the synonym list is trusted to
// not repeat words, so no validation is done. Empty lines contribute no
// entries.
//
// Build is best-effort: if the source fails mid-read, the partial index is
// returned together with the source error.
func Build(src source.LineSource) (*Index, error) {
	idx := &Index{byWord: make(map[string]GroupID)}
	if src == nil {
		return idx, nil
	}
	for src.Scan() {
		words := strings.Fields(src.Line())
		if len(words) == 0 {
			continue
		}
		group := GroupID(xxhash.Sum64String(src.Line()))
		for _, word := range words {
			idx.byWord[word] = group
		}
		idx.groups++
	}
	return idx, src.Err()
}

// Lookup returns the group for word, if word belongs to any synonym group.
func (i *Index) Lookup(word string) (GroupID, bool) {
	if i == nil {
		return 0, false
	}
	g, ok := i.byWord[word]
	return g, ok
}

// Len returns the number of indexed words.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byWord)
}

// Groups returns the number of non-empty synonym lines indexed.
func (i *Index) Groups() int {
	if i == nil {
		return 0
	}
	return i.groups
}
