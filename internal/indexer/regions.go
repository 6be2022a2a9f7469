package indexer

import (
	"fmt"

	"github.com/ChamsBouzaiene/codeprep/internal/codestructure"
)

// Region is a paragraph of a file: a run of lines with tokens followed by the
// blank lines after it.
type Region struct {
	StartLine int // 1-based
	EndLine   int // inclusive
	Snippet   codestructure.Snippet
}

// Regions cuts a file's line counts into paragraph regions. A region starts at
// the first line with tokens after a blank line; leading blank lines belong to
// the first region. Every region except the last ends with a zero-count line
// standing for the start of the next one, so consecutive regions are adjacent.
func Regions(path string, counts []int) []Region {
	if len(counts) == 0 {
		counts = []int{0}
	}

	var starts []int
	starts = append(starts, 0)
	for i := 1; i < len(counts); i++ {
		if counts[i] > 0 && counts[i-1] == 0 {
			starts = append(starts, i)
		}
	}
	if len(starts) > 1 && !hasTokens(counts[:starts[1]]) {
		// A file opening with blank lines: fold them into the first paragraph.
		starts = append(starts[:1], starts[2:]...)
	}

	regions := make([]Region, 0, len(starts))
	for r, start := range starts {
		end := len(counts)
		if r+1 < len(starts) {
			end = starts[r+1]
		}
		lines := append([]int(nil), counts[start:end]...)
		if end < len(counts) {
			lines = append(lines, 0)
		}
		regions = append(regions, Region{
			StartLine: start + 1,
			EndLine:   end,
			Snippet:   codestructure.NewSnippet(path, lines, start+1, 0),
		})
	}
	return regions
}

func hasTokens(counts []int) bool {
	for _, n := range counts {
		if n > 0 {
			return true
		}
	}
	return false
}

// FileCorpus appends the regions of one file to a fresh builder. The regions
// coalesce into a single snippet covering the whole file.
func FileCorpus(path string, counts []int) (codestructure.Corpus, error) {
	var b codestructure.CorpusBuilder
	for _, region := range Regions(path, counts) {
		if err := b.Append(region.Snippet); err != nil {
			return codestructure.Corpus{}, fmt.Errorf("failed to append region %d-%d of %s: %w",
				region.StartLine, region.EndLine, path, err)
		}
	}
	return b.Corpus(), nil
}
