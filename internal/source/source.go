// Package source provides the word and line sources consumed by the
// comparison engine. A WordSource yields whitespace-delimited tokens from a
// document; a LineSource yields raw synonym-group lines. Both follow the
// bufio.Scanner idiom: Scan advances, the accessor returns the current
// token, and Err reports the first read failure. Every source is finite and
// single-pass; a caller needing a second iteration must acquire a fresh
// source.
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxTokenBytes bounds a single word or line; synonym lines and inline
// documents are capped well below this by request validation.
const maxTokenBytes = 1 << 20

// WordSource produces an ordered sequence of word tokens.
type WordSource interface {
	Scan() bool
	Word() string
	Err() error
}

// LineSource produces an ordered sequence of raw text lines.
type LineSource interface {
	Scan() bool
	Line() string
	Err() error
}

// Words is a WordSource backed by an io.Reader.
type Words struct {
	scanner *bufio.Scanner
	close   func() error
}

// NewWords returns a WordSource that splits r on whitespace.
func NewWords(r io.Reader) *Words {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxTokenBytes)
	s.Split(bufio.ScanWords)
	return &Words{scanner: s}
}

// WordsOf returns a WordSource over an in-memory document.
func WordsOf(text string) *Words {
	return NewWords(strings.NewReader(text))
}

// NoWords returns an empty WordSource. It stands in for a document that
// could not be opened, so a comparison can still complete best-effort.
func NoWords() *Words {
	return NewWords(strings.NewReader(""))
}

// OpenWords opens the file at path as a WordSource. The caller owns the
// returned source and must Close it.
func OpenWords(path string) (*Words, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document %s: %w", path, err)
	}
	w := NewWords(f)
	w.close = f.Close
	return w, nil
}

func (w *Words) Scan() bool   { return w.scanner.Scan() }
func (w *Words) Word() string { return w.scanner.Text() }
func (w *Words) Err() error   { return w.scanner.Err() }

// Close releases the underlying file, if any.
func (w *Words) Close() error {
	if w.close == nil {
		return nil
	}
	return w.close()
}

// Lines is a LineSource backed by an io.Reader.
type Lines struct {
	scanner *bufio.Scanner
	close   func() error
}

// NewLines returns a LineSource over r.
func NewLines(r io.Reader) *Lines {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxTokenBytes)
	return &Lines{scanner: s}
}

// LinesOf returns a LineSource over an in-memory block of text.
func LinesOf(text string) *Lines {
	return NewLines(strings.NewReader(text))
}

// NoLines returns an empty LineSource.
func NoLines() *Lines {
	return NewLines(strings.NewReader(""))
}

// OpenLines opens the file at path as a LineSource. The caller owns the
// returned source and must Close it.
func OpenLines(path string) (*Lines, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening synonyms %s: %w", path, err)
	}
	l := NewLines(f)
	l.close = f.Close
	return l, nil
}

func (l *Lines) Scan() bool   { return l.scanner.Scan() }
func (l *Lines) Line() string { return l.scanner.Text() }
func (l *Lines) Err() error   { return l.scanner.Err() }

// Close releases the underlying file, if any.
func (l *Lines) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}
