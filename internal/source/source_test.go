package source

import (
	"os"
	"path/filepath"
	"testing"
)

func drainWords(t *testing.T, src WordSource) []string {
	t.Helper()
	var words []string
	for src.Scan() {
		words = append(words, src.Word())
	}
	if err := src.Err(); err != nil {
		t.Fatalf("source error: %v", err)
	}
	return words
}

func TestWordsSplitsOnAnyWhitespace(t *testing.T) {
	words := drainWords(t, WordsOf("one two\tthree\nfour\r\n  five "))
	want := []string{"one", "two", "three", "four", "five"}
	if len(words) != len(want) {
		t.Fatalf("got %d words %v, want %d", len(words), words, len(want))
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d = %q, want %q", i, words[i], want[i])
		}
	}
}

func TestNoWordsIsEmpty(t *testing.T) {
	if words := drainWords(t, NoWords()); len(words) != 0 {
		t.Errorf("NoWords yielded %v", words)
	}
}

func TestLinesPreservesRawLines(t *testing.T) {
	src := LinesOf("run jog sprint\n\nbig large\n")
	var lines []string
	for src.Scan() {
		lines = append(lines, src.Line())
	}
	if err := src.Err(); err != nil {
		t.Fatalf("source error: %v", err)
	}
	want := []string{"run jog sprint", "", "big large"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines %v, want %d", len(lines), lines, len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestOpenWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("alpha beta gamma"), 0o644); err != nil {
		t.Fatal(err)
	}
	words, err := OpenWords(path)
	if err != nil {
		t.Fatalf("OpenWords: %v", err)
	}
	defer words.Close()
	got := drainWords(t, words)
	if len(got) != 3 || got[0] != "alpha" {
		t.Errorf("got %v, want [alpha beta gamma]", got)
	}
}

func TestOpenWordsMissingFile(t *testing.T) {
	if _, err := OpenWords(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("OpenWords on a missing file returned no error")
	}
}

func TestOpenLinesMissingFile(t *testing.T) {
	if _, err := OpenLines(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("OpenLines on a missing file returned no error")
	}
}

func TestCloseWithoutFileIsNoop(t *testing.T) {
	if err := WordsOf("a").Close(); err != nil {
		t.Errorf("Close on in-memory source: %v", err)
	}
	if err := LinesOf("a").Close(); err != nil {
		t.Errorf("Close on in-memory source: %v", err)
	}
}
