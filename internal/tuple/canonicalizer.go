// Package tuple streams a document into overlapping k-word windows and
// fingerprints each window for set comparison. Each word is first
// canonicalized: replaced by its synonym-group fingerprint when the word is
// indexed, kept verbatim otherwise. Two windows then compare equal when
// corresponding slots carry the same canonical token.
//
// Every slot is hashed with a discriminant tag and raw words are
// length-prefixed, so a raw word that happens to render like a group
// fingerprint can never collide with an actual group match. Fingerprint
// collisions across distinct canonical tuples are assumed impossible; that
// is an inherited, documented approximation of the detector, not a
// correctness bug.
package tuple

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/synocheck/synocheck/internal/source"
	"github.com/synocheck/synocheck/internal/synonyms"
	apperrors "github.com/synocheck/synocheck/pkg/errors"
)

// Fingerprint identifies one canonicalized k-tuple.
type Fingerprint uint64

// Slot discriminants mixed into the window hash.
const (
	tagWord  byte = 0x01
	tagGroup byte = 0x02
)

// canonicalToken is one window slot: a raw word or the group it maps to.
type canonicalToken struct {
	tag   byte
	word  string
	group synonyms.GroupID
}

// Stream yields the fingerprint of every k-word window of a document, in
// document order, advancing one word per step. Windows start at the first k
// words with no padding: an input shorter than k yields nothing. The stream
// is single-pass and not restartable; consuming it exhausts the underlying
// word source.
//
// Usage follows the bufio.Scanner idiom:
//
//	stream, err := tuple.NewStream(words, index, 3)
//	for stream.Next() {
//	    use(stream.Fingerprint())
//	}
//	if err := stream.Err(); err != nil { ... }
type Stream struct {
	src   source.WordSource
	index *synonyms.Index
	k     int

	window []canonicalToken // ring buffer, oldest at head
	head   int
	filled int
	words  int
	fp     Fingerprint
}

// NewStream creates a Stream over src with window size k. A non-positive k
// corrupts the window logic, so it is rejected with ErrInvalidTupleSize
// rather than defaulted here; defaulting is the entry point's decision.
func NewStream(src source.WordSource, index *synonyms.Index, k int) (*Stream, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", apperrors.ErrInvalidTupleSize, k)
	}
	return &Stream{
		src:    src,
		index:  index,
		k:      k,
		window: make([]canonicalToken, k),
	}, nil
}

// Next consumes words until the window holds the next complete k-tuple and
// reports whether one is available. After the first full window, each call
// slides the window by exactly one word.
func (s *Stream) Next() bool {
	if s.src == nil {
		return false
	}
	for s.src.Scan() {
		s.push(s.canonicalize(s.src.Word()))
		s.words++
		if s.filled == s.k {
			s.fp = s.hashWindow()
			return true
		}
	}
	return false
}

// Fingerprint returns the fingerprint of the current window. Only valid
// after a call to Next that returned true.
func (s *Stream) Fingerprint() Fingerprint { return s.fp }

// Words returns the number of words consumed so far.
func (s *Stream) Words() int { return s.words }

// Err returns the first error of the underlying word source.
func (s *Stream) Err() error {
	if s.src == nil {
		return nil
	}
	return s.src.Err()
}

// canonicalize maps a word to its comparison form.
func (s *Stream) canonicalize(word string) canonicalToken {
	if group, ok := s.index.Lookup(word); ok {
		return canonicalToken{tag: tagGroup, group: group}
	}
	return canonicalToken{tag: tagWord, word: word}
}

// push appends a token, evicting the oldest once the window is full.
func (s *Stream) push(t canonicalToken) {
	if s.filled < s.k {
		s.window[(s.head+s.filled)%s.k] = t
		s.filled++
		return
	}
	s.window[s.head] = t
	s.head = (s.head + 1) % s.k
}

// hashWindow fingerprints the ordered window contents. Each slot writes its
// discriminant tag followed by either the fixed-width group id or the
// length-prefixed raw word, so slot boundaries are unambiguous.
func (s *Stream) hashWindow() Fingerprint {
	d := xxhash.New()
	var buf [binary.MaxVarintLen64]byte
	for i := 0; i < s.filled; i++ {
		t := s.window[(s.head+i)%s.k]
		buf[0] = t.tag
		d.Write(buf[:1])
		if t.tag == tagGroup {
			binary.BigEndian.PutUint64(buf[:8], uint64(t.group))
			d.Write(buf[:8])
			continue
		}
		n := binary.PutUvarint(buf[:], uint64(len(t.word)))
		d.Write(buf[:n])
		d.WriteString(t.word)
	}
	return Fingerprint(d.Sum64())
}
