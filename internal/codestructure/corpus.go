package codestructure

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Corpus is an ordered token stream over many files. Consecutive snippets never
// share a path: runs from the same file are coalesced when they are added.
type Corpus struct {
	snippets []Snippet
	// prefix[i] is the total length of snippets[0..i].
	prefix []int
}

// EmptyCorpus has no snippets and no tokens.
func EmptyCorpus() Corpus {
	return Corpus{}
}

// NewCorpus appends snippets in order, merging runs of the same file.
func NewCorpus(snippets ...Snippet) (Corpus, error) {
	var b CorpusBuilder
	for _, s := range snippets {
		if err := b.Append(s); err != nil {
			return Corpus{}, err
		}
	}
	return b.Corpus(), nil
}

// corpusOf trusts snippets to already respect the no-repeated-path invariant.
func corpusOf(snippets []Snippet) Corpus {
	prefix := make([]int, len(snippets))
	total := 0
	for i, s := range snippets {
		total += s.Len()
		prefix[i] = total
	}
	return Corpus{snippets: snippets, prefix: prefix}
}

func (c Corpus) Len() int {
	if len(c.prefix) == 0 {
		return 0
	}
	return c.prefix[len(c.prefix)-1]
}

func (c Corpus) NumSnippets() int {
	return len(c.snippets)
}

// Snippets returns a copy of the snippet runs.
func (c Corpus) Snippets() []Snippet {
	return slices.Clone(c.snippets)
}

// Merge appends other to c and returns the result; c is left unchanged.
func (c Corpus) Merge(other Corpus) (Corpus, error) {
	b := NewCorpusBuilder(c)
	if err := b.Merge(other); err != nil {
		return Corpus{}, err
	}
	return b.Corpus(), nil
}

// Split cuts the stream so that the first part holds offset tokens. An offset at
// or past the end returns c and an empty corpus.
func (c Corpus) Split(offset int) (Corpus, Corpus, error) {
	if offset < 0 {
		return Corpus{}, Corpus{}, fmt.Errorf("%w: negative split offset %d", ErrOutOfRange, offset)
	}
	if offset >= c.Len() {
		return c, EmptyCorpus(), nil
	}

	owner := bisectRight(c.prefix, offset)
	before := 0
	if owner > 0 {
		before = c.prefix[owner-1]
	}
	left, right, err := c.snippets[owner].Split(offset - before)
	if err != nil {
		return Corpus{}, Corpus{}, err
	}

	first := make([]Snippet, 0, owner+1)
	first = append(first, c.snippets[:owner]...)
	// The bare one-line empty half carries nothing; a left half that spans
	// zero-count lines is kept so that merging the parts restores those lines.
	if left.Len() > 0 || left.NumLines() > 1 {
		first = append(first, left)
	}
	second := make([]Snippet, 0, len(c.snippets)-owner)
	second = append(second, right)
	second = append(second, c.snippets[owner+1:]...)
	return corpusOf(first), corpusOf(second), nil
}

// Slice returns the tokens in [from, to).
func (c Corpus) Slice(from, to int) (Corpus, error) {
	if from < 0 || from > to || to > c.Len() {
		return Corpus{}, fmt.Errorf("%w: slice [%d, %d) of corpus with %d tokens", ErrOutOfRange, from, to, c.Len())
	}
	_, rest, err := c.Split(from)
	if err != nil {
		return Corpus{}, err
	}
	mid, _, err := rest.Split(to - from)
	if err != nil {
		return Corpus{}, err
	}
	return mid, nil
}

// Locate returns the position of the token at global index i.
func (c Corpus) Locate(i int) (Position, error) {
	if i < 0 || i >= c.Len() {
		return Position{}, fmt.Errorf("%w: token %d not in [0, %d)", ErrOutOfRange, i, c.Len())
	}
	owner := bisectRight(c.prefix, i)
	if owner > 0 {
		i -= c.prefix[owner-1]
	}
	return c.snippets[owner].Locate(i)
}

// All yields the position of every token across all snippets in order.
func (c Corpus) All() iter.Seq[Position] {
	return func(yield func(Position) bool) {
		for _, s := range c.snippets {
			for p := range s.All() {
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Positions collects All.
func (c Corpus) Positions() []Position {
	return slices.Collect(c.All())
}

func (c Corpus) Equal(other Corpus) bool {
	return slices.EqualFunc(c.snippets, other.snippets, Snippet.Equal)
}

func (c Corpus) String() string {
	parts := make([]string, len(c.snippets))
	for i, s := range c.snippets {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// CorpusBuilder accumulates snippets into a Corpus. It is not safe for
// concurrent use; give each worker its own builder and merge the results.
type CorpusBuilder struct {
	snippets []Snippet
	prefix   []int
}

// NewCorpusBuilder starts from the contents of seed. The zero CorpusBuilder is
// empty and ready to use.
func NewCorpusBuilder(seed Corpus) *CorpusBuilder {
	return &CorpusBuilder{
		snippets: slices.Clone(seed.snippets),
		prefix:   slices.Clone(seed.prefix),
	}
}

func (b *CorpusBuilder) Len() int {
	if len(b.prefix) == 0 {
		return 0
	}
	return b.prefix[len(b.prefix)-1]
}

// Append adds s at the end of the stream. If the last run comes from the same
// file, s has to be adjacent to it and is merged in; on error nothing changes.
func (b *CorpusBuilder) Append(s Snippet) error {
	last := len(b.snippets) - 1
	if last < 0 || b.snippets[last].Path() != s.Path() {
		b.snippets = append(b.snippets, s)
		b.prefix = append(b.prefix, b.Len()+s.Len())
		return nil
	}
	merged, err := b.snippets[last].Merge(s)
	if err != nil {
		return err
	}
	b.snippets[last] = merged
	b.prefix[last] += s.Len()
	return nil
}

// Merge appends every snippet of c. Only the first snippet can be merged into an
// existing run, so a failure leaves the builder unchanged.
func (b *CorpusBuilder) Merge(c Corpus) error {
	for _, s := range c.snippets {
		if err := b.Append(s); err != nil {
			return err
		}
	}
	return nil
}

// Corpus returns a snapshot; later appends do not affect it.
func (b *CorpusBuilder) Corpus() Corpus {
	return Corpus{snippets: slices.Clone(b.snippets), prefix: slices.Clone(b.prefix)}
}
