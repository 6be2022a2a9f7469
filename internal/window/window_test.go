package window

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/codeprep/internal/codestructure"
)

func sampleCorpus(t *testing.T) codestructure.Corpus {
	t.Helper()
	c, err := codestructure.NewCorpus(
		codestructure.NewSnippet("a.go", []int{2, 1}, 1, 0),
		codestructure.NewSnippet("b.go", []int{3}, 1, 0),
	)
	require.NoError(t, err)
	return c
}

func TestCutDisjoint(t *testing.T) {
	c := sampleCorpus(t)
	windows, err := Cut(c, 4, 0)
	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, 0, windows[0].Offset)
	assert.Equal(t, 4, windows[0].Len())
	assert.Equal(t, 4, windows[1].Offset)
	assert.Equal(t, 2, windows[1].Len())

	first, ok := windows[1].First()
	require.True(t, ok)
	assert.Equal(t, codestructure.Position{Path: "b.go", Line: 1, Column: 1}, first)

	var all []codestructure.Position
	acc := codestructure.EmptyCorpus()
	for _, w := range windows {
		all = append(all, w.Tokens.Positions()...)
		acc, err = acc.Merge(w.Tokens)
		require.NoError(t, err)
	}
	if diff := cmp.Diff(c.Positions(), all); diff != "" {
		t.Errorf("windows do not cover the corpus (-want +got):\n%s", diff)
	}
	assert.True(t, acc.Equal(c), "merged windows %v", acc)
}

func TestCutOverlapping(t *testing.T) {
	c := sampleCorpus(t)
	windows, err := Cut(c, 4, 2)
	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, 2, windows[1].Offset)
	assert.Equal(t, c.Positions()[2:6], windows[1].Tokens.Positions())
	last, ok := windows[1].Last()
	require.True(t, ok)
	assert.Equal(t, codestructure.Position{Path: "b.go", Line: 1, Column: 2}, last)
}

func TestCutSparse(t *testing.T) {
	c := sampleCorpus(t)
	windows, err := Cut(c, 2, 5)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, 5, windows[1].Offset)
	assert.Equal(t, 1, windows[1].Len())
}

func TestCutWindowLargerThanCorpus(t *testing.T) {
	c := sampleCorpus(t)
	windows, err := Cut(c, 100, 0)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.True(t, windows[0].Tokens.Equal(c))
}

func TestCutEmptyCorpus(t *testing.T) {
	windows, err := Cut(codestructure.EmptyCorpus(), 8, 0)
	require.NoError(t, err)
	assert.Empty(t, windows)

	_, ok := Window{}.First()
	assert.False(t, ok)
}

func TestCutRejectsInvalidSizes(t *testing.T) {
	c := sampleCorpus(t)
	for _, tc := range []struct{ size, stride int }{{0, 0}, {-1, 1}, {4, -1}} {
		_, err := Cut(c, tc.size, tc.stride)
		assert.ErrorIs(t, err, ErrInvalidSize, "size %d stride %d", tc.size, tc.stride)
	}
}
