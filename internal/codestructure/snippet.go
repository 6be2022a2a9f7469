package codestructure

import (
	"fmt"
	"iter"
	"slices"
)

// Snippet is a contiguous run of tokens from one file.
//
// The first line's tokens occupy columns [FirstTokenInLine, FirstTokenInLine+n)
// of FirstLine; the tokens of every later line start at column 0.
type Snippet struct {
	lines            LineCounts
	path             string
	firstLine        int
	firstTokenInLine int
}

// NewSnippet ties counts to path, starting at column firstTokenInLine of line
// firstLine.
func NewSnippet(path string, counts []int, firstLine, firstTokenInLine int) Snippet {
	return Of(counts...).Tie(path, firstLine, firstTokenInLine)
}

func (s Snippet) Path() string          { return s.path }
func (s Snippet) FirstLine() int        { return s.firstLine }
func (s Snippet) FirstTokenInLine() int { return s.firstTokenInLine }
func (s Snippet) Len() int              { return s.lines.Len() }
func (s Snippet) NumLines() int         { return s.lines.NumLines() }
func (s Snippet) Counts() []int         { return s.lines.Counts() }

// Untie drops the file location.
func (s Snippet) Untie() LineCounts {
	return s.lines.norm()
}

// LastLine is the line the snippet ends on.
func (s Snippet) LastLine() int {
	return s.firstLine + s.lines.NumLines() - 1
}

// Start is the location of the snippet's first token.
func (s Snippet) Start() Position {
	return Position{Path: s.path, Line: s.firstLine, Column: s.firstTokenInLine}
}

// End is the location right after the snippet's last token. A snippet that
// starts at End is adjacent to this one.
func (s Snippet) End() Position {
	last := s.LastLine()
	col, _ := s.LastTokenPositionAtLine(last)
	return Position{Path: s.path, Line: last, Column: col}
}

// LastTokenPositionAtLine returns the column right after the last token the
// snippet places on line.
func (s Snippet) LastTokenPositionAtLine(line int) (int, error) {
	counts := s.lines.norm().counts
	rel := line - s.firstLine
	if rel < 0 || rel >= len(counts) {
		return 0, fmt.Errorf("%w: line %d not in [%d, %d] of %s", ErrOutOfRange, line, s.firstLine, s.LastLine(), s.path)
	}
	pos := counts[rel]
	if rel == 0 {
		pos += s.firstTokenInLine
	}
	return pos, nil
}

// Merge appends other, which has to start exactly where s ends in the same file.
func (s Snippet) Merge(other Snippet) (Snippet, error) {
	if s.path != other.path {
		return Snippet{}, fmt.Errorf("%w: cannot merge %s into %s", ErrNotAdjacent, other.path, s.path)
	}
	if end, start := s.End(), other.Start(); end != start {
		return Snippet{}, fmt.Errorf("%w: %s ends at (%d:%d), next starts at (%d:%d)",
			ErrNotAdjacent, s.path, end.Line, end.Column, start.Line, start.Column)
	}
	counts, prefix := s.lines.mergeLines(other.lines)
	return Snippet{
		lines:            LineCounts{counts: counts, prefix: prefix},
		path:             s.path,
		firstLine:        s.firstLine,
		firstTokenInLine: s.firstTokenInLine,
	}, nil
}

// Split cuts the snippet so that the first part holds offset tokens. The second
// part starts where the first one ends.
func (s Snippet) Split(offset int) (Snippet, Snippet, error) {
	first, second, err := s.lines.splitLines(offset)
	if err != nil {
		return Snippet{}, Snippet{}, fmt.Errorf("%s: %w", s.path, err)
	}
	left := newLineCounts(first).Tie(s.path, s.firstLine, s.firstTokenInLine)
	right := newLineCounts(second).Tie(s.path, left.End().Line, left.End().Column)
	return left, right, nil
}

// Locate returns the position of the token at index i.
func (s Snippet) Locate(i int) (Position, error) {
	lines := s.lines.norm()
	if i < 0 || i >= lines.Len() {
		return Position{}, fmt.Errorf("%w: token %d not in [0, %d) of %s", ErrOutOfRange, i, lines.Len(), s.path)
	}
	line := bisectRight(lines.prefix, i)
	col := i
	if line > 0 {
		col -= lines.prefix[line-1]
	} else {
		col += s.firstTokenInLine
	}
	return Position{Path: s.path, Line: s.firstLine + line, Column: col}, nil
}

// All yields the position of every token in order. Lines without tokens are
// skipped.
func (s Snippet) All() iter.Seq[Position] {
	return func(yield func(Position) bool) {
		for rel, n := range s.lines.norm().counts {
			start := 0
			if rel == 0 {
				start = s.firstTokenInLine
			}
			for col := start; col < start+n; col++ {
				if !yield(Position{Path: s.path, Line: s.firstLine + rel, Column: col}) {
					return
				}
			}
		}
	}
}

// Positions collects All.
func (s Snippet) Positions() []Position {
	return slices.Collect(s.All())
}

func (s Snippet) Equal(other Snippet) bool {
	return s.path == other.path &&
		s.firstLine == other.firstLine &&
		s.firstTokenInLine == other.firstTokenInLine &&
		s.lines.Equal(other.lines)
}

func (s Snippet) String() string {
	return fmt.Sprintf("%s: %v, start: (%d:%d)", s.path, s.lines, s.firstLine, s.firstTokenInLine)
}
