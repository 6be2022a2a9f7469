// Package tokenizer counts the subtokens each source line produces.
// Only the counts leave this package; what the subtokens are is not tracked.

package tokenizer

import (
	"bytes"
	"context"
	"sort"

	"github.com/ChamsBouzaiene/codeprep/internal/codestructure"
)

// Tokenizer reports, for every line of a file, how many subtokens it produces.
// Implementations must return exactly one count per line, where the number of
// lines is the number of '\n' bytes plus one.
type Tokenizer interface {
	// Name identifies the tokenization scheme, so cached counts from one scheme
	// are never served for another.
	Name() string
	CountLines(ctx context.Context, content []byte) ([]int, error)
}

// NumLines returns how many lines content has.
func NumLines(content []byte) int {
	return bytes.Count(content, []byte("\n")) + 1
}

// ForLanguage picks the tokenizer for a language name as reported by the
// indexer's language detector.
func ForLanguage(lang string) Tokenizer {
	if lang == "go" {
		return NewGoSource()
	}
	return NewWords()
}

// LineCountsOf builds the structure of a file from its per-line counts by
// merging one structure per line with an EmptyLine for every newline.
func LineCountsOf(counts []int) codestructure.LineCounts {
	acc := codestructure.Empty()
	for i, n := range counts {
		if i > 0 {
			acc = acc.Merge(codestructure.EmptyLine())
		}
		acc = acc.Merge(codestructure.Of(n))
	}
	return acc
}

// lineIndex maps byte offsets to zero-based line numbers.
type lineIndex struct {
	// starts[i] is the offset of the first byte of line i.
	starts []int
}

func newLineIndex(content []byte) lineIndex {
	starts := make([]int, 1, NumLines(content))
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{starts: starts}
}

func (l lineIndex) count() int {
	return len(l.starts)
}

func (l lineIndex) lineOf(offset int) int {
	return sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset }) - 1
}
