package tokenizer

import (
	"context"

	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// Words splits text on Unicode word boundaries using bleve's unicode
// tokenizer. Punctuation and whitespace produce no tokens.
type Words struct {
	tokenizer *bleveunicode.UnicodeTokenizer
}

// NewWords creates a word tokenizer.
func NewWords() *Words {
	return &Words{tokenizer: bleveunicode.NewUnicodeTokenizer()}
}

func (w *Words) Name() string {
	return "words"
}

// CountLines attributes each word to the line it starts on.
func (w *Words) CountLines(ctx context.Context, content []byte) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines := newLineIndex(content)
	counts := make([]int, lines.count())
	for _, tok := range w.tokenizer.Tokenize(content) {
		counts[lines.lineOf(tok.Start)]++
	}
	return counts, nil
}
