package codestructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineCountsLen(t *testing.T) {
	tests := []struct {
		name   string
		counts LineCounts
		want   int
		lines  int
	}{
		{"empty", Empty(), 0, 1},
		{"zero value", LineCounts{}, 0, 1},
		{"no args", Of(), 0, 1},
		{"empty line", EmptyLine(), 0, 2},
		{"single line", Of(3), 3, 1},
		{"blank lines kept", Of(3, 0, 0, 4), 7, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.counts.Len())
			assert.Equal(t, tt.lines, tt.counts.NumLines())
		})
	}
}

func TestOfCopiesInput(t *testing.T) {
	in := []int{1, 2}
	c := Of(in...)
	in[0] = 100
	assert.Equal(t, []int{1, 2}, c.Counts())

	out := c.Counts()
	out[1] = 100
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []int{1, 2}, c.Counts())
}

func TestOfRejectsNegativeCounts(t *testing.T) {
	assert.Panics(t, func() { Of(1, -1) })
}

func TestLineCountsMerge(t *testing.T) {
	tests := []struct {
		name  string
		a, b  LineCounts
		want  []int
		total int
	}{
		{"same line", Of(3), Of(2), []int{5}, 5},
		{"newline then tokens", Of(3).Merge(EmptyLine()), Of(2), []int{3, 2}, 5},
		{"multi line", Of(1, 2), Of(3, 4), []int{1, 5, 4}, 10},
		{"empty left", Empty(), Of(3, 4), []int{3, 4}, 7},
		{"empty right", Of(3, 4), Empty(), []int{3, 4}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Merge(tt.b)
			assert.Equal(t, tt.want, got.Counts())
			assert.Equal(t, tt.total, got.Len())
		})
	}
}

func TestLineCountsAccumulateTokens(t *testing.T) {
	// "a b\n\nc" as one structure per token plus EmptyLine per newline.
	acc := Empty()
	for _, part := range []LineCounts{Of(1), Of(1), EmptyLine(), EmptyLine(), Of(1)} {
		acc = acc.Merge(part)
	}
	assert.Equal(t, []int{2, 0, 1}, acc.Counts())
	assert.Equal(t, 3, acc.Len())
}

func TestLineCountsSplit(t *testing.T) {
	c := Of(3, 0, 0, 4)

	tests := []struct {
		offset      int
		first, rest []int
	}{
		{0, []int{0}, []int{3, 0, 0, 4}},
		{2, []int{2}, []int{1, 0, 0, 4}},
		{3, []int{3, 0, 0, 0}, []int{4}},
		{4, []int{3, 0, 0, 1}, []int{3}},
		{7, []int{3, 0, 0, 4}, []int{0}},
	}

	for _, tt := range tests {
		first, rest, err := c.Split(tt.offset)
		require.NoError(t, err)
		assert.Equal(t, tt.first, first.Counts(), "first part at offset %d", tt.offset)
		assert.Equal(t, tt.rest, rest.Counts(), "second part at offset %d", tt.offset)
	}
}

func TestLineCountsSplitOutOfRange(t *testing.T) {
	c := Of(3, 4)
	for _, offset := range []int{-1, 8} {
		_, _, err := c.Split(offset)
		assert.ErrorIs(t, err, ErrOutOfRange)
	}
}

func TestLineCountsSplitMergeRoundTrip(t *testing.T) {
	inputs := []LineCounts{
		Empty(),
		EmptyLine(),
		Of(3),
		Of(3, 0, 0, 4),
		Of(0, 0, 5, 0),
		Of(1, 1, 1, 1, 1),
	}

	for _, c := range inputs {
		for i := 0; i <= c.Len(); i++ {
			first, second, err := c.Split(i)
			require.NoError(t, err)
			assert.Equal(t, i, first.Len())
			assert.Equal(t, c.Len()-i, second.Len())
			assert.True(t, first.Merge(second).Equal(c), "%v split at %d: %v + %v", c, i, first, second)
		}
	}
}

func TestLineCountsSplitDoesNotShareMemory(t *testing.T) {
	c := Of(3, 4)
	first, _, err := c.Split(7)
	require.NoError(t, err)
	merged := first.Merge(Of(1))
	assert.Equal(t, []int{3, 5}, merged.Counts())
	assert.Equal(t, []int{3, 4}, c.Counts())
}
