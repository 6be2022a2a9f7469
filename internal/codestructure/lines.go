// Package codestructure tracks where every subtoken of a prepared corpus came from.
//
// The preprocessing layer reports, for each source line, how many subtokens the
// line produced. LineCounts holds those numbers, a Snippet ties them to a place in
// a file, and a Corpus strings snippets from many files into one token stream.
// Every structure can be split at an arbitrary token offset and the halves merged
// back, so fixed-length training windows cut from the corpus still map each token
// to its (path, line, column) of origin.
//
// Values are immutable: split and merge return new values and never share
// writable state with their inputs. The only mutating type is CorpusBuilder.
package codestructure

import (
	"fmt"
	"slices"
	"sort"
)

// LineCounts is the number of subtokens produced by each of a run of lines.
//
// Zero-count lines are significant (blank lines, stripped comments) and are kept.
// The zero value behaves like Empty(): one line holding no tokens.
type LineCounts struct {
	counts []int
	// prefix[i] is the sum of counts[0..i].
	prefix []int
}

// Of builds a LineCounts from per-line token counts. Calling it with no counts
// returns Empty(). It panics if a count is negative.
func Of(counts ...int) LineCounts {
	if len(counts) == 0 {
		return Empty()
	}
	return newLineCounts(slices.Clone(counts))
}

// Empty is a single line with no tokens on it.
func Empty() LineCounts {
	return newLineCounts([]int{0})
}

// EmptyLine is what a newline contributes: the current line ends without tokens
// and the next line starts without tokens.
func EmptyLine() LineCounts {
	return newLineCounts([]int{0, 0})
}

// newLineCounts takes ownership of counts.
func newLineCounts(counts []int) LineCounts {
	prefix := make([]int, len(counts))
	total := 0
	for i, n := range counts {
		if n < 0 {
			panic(fmt.Sprintf("codestructure: negative token count %d at line %d", n, i))
		}
		total += n
		prefix[i] = total
	}
	return LineCounts{counts: counts, prefix: prefix}
}

func (c LineCounts) norm() LineCounts {
	if len(c.counts) == 0 {
		return Empty()
	}
	return c
}

// Len returns the total number of tokens.
func (c LineCounts) Len() int {
	if len(c.prefix) == 0 {
		return 0
	}
	return c.prefix[len(c.prefix)-1]
}

// NumLines returns how many lines the structure spans. It is never less than one.
func (c LineCounts) NumLines() int {
	return len(c.norm().counts)
}

// Counts returns a copy of the per-line counts.
func (c LineCounts) Counts() []int {
	return slices.Clone(c.norm().counts)
}

// Merge appends other to c. The last line of c and the first line of other are
// the same physical line, so their counts are added together.
func (c LineCounts) Merge(other LineCounts) LineCounts {
	counts, prefix := c.mergeLines(other)
	return LineCounts{counts: counts, prefix: prefix}
}

func (c LineCounts) mergeLines(other LineCounts) ([]int, []int) {
	c, other = c.norm(), other.norm()
	last := len(c.counts) - 1
	size := last + len(other.counts)

	counts := make([]int, 0, size)
	counts = append(counts, c.counts[:last]...)
	counts = append(counts, c.counts[last]+other.counts[0])
	counts = append(counts, other.counts[1:]...)

	base := c.Len()
	prefix := make([]int, 0, size)
	prefix = append(prefix, c.prefix[:last]...)
	for _, p := range other.prefix {
		prefix = append(prefix, p+base)
	}
	return counts, prefix
}

// Split cuts the structure so that the first part holds exactly offset tokens.
// The line the cut falls on appears in both parts: its left remainder ends the
// first part and its right remainder starts the second.
func (c LineCounts) Split(offset int) (LineCounts, LineCounts, error) {
	first, second, err := c.splitLines(offset)
	if err != nil {
		return LineCounts{}, LineCounts{}, err
	}
	return newLineCounts(first), newLineCounts(second), nil
}

func (c LineCounts) splitLines(offset int) ([]int, []int, error) {
	c = c.norm()
	if offset < 0 || offset > c.Len() {
		return nil, nil, fmt.Errorf("%w: split offset %d not in [0, %d]", ErrOutOfRange, offset, c.Len())
	}

	line := bisectRight(c.prefix, offset)
	if line == len(c.counts) {
		return slices.Clone(c.counts), []int{0}, nil
	}

	inLine := offset
	if line > 0 {
		inLine -= c.prefix[line-1]
	}
	first := make([]int, 0, line+1)
	first = append(first, c.counts[:line]...)
	first = append(first, inLine)

	second := make([]int, 0, len(c.counts)-line)
	second = append(second, c.counts[line]-inLine)
	second = append(second, c.counts[line+1:]...)
	return first, second, nil
}

// Tie anchors the counts in a file: the first token sits at column
// firstTokenInLine of line firstLine.
func (c LineCounts) Tie(path string, firstLine, firstTokenInLine int) Snippet {
	return Snippet{lines: c.norm(), path: path, firstLine: firstLine, firstTokenInLine: firstTokenInLine}
}

// Equal reports whether both structures have the same per-line counts.
func (c LineCounts) Equal(other LineCounts) bool {
	return slices.Equal(c.norm().counts, other.norm().counts)
}

func (c LineCounts) String() string {
	return fmt.Sprint(c.norm().counts)
}

// bisectRight returns the first index whose cumulative total is strictly greater
// than x, or len(prefix) if there is none. A token offset equal to the running
// total of a line belongs to the next line with tokens, which keeps trailing
// zero-count lines on the left side of a split.
func bisectRight(prefix []int, x int) int {
	return sort.Search(len(prefix), func(i int) bool { return prefix[i] > x })
}
