// Package window cuts a corpus into fixed-length token windows for training.
package window

import (
	"errors"
	"fmt"

	"github.com/ChamsBouzaiene/codeprep/internal/codestructure"
)

// ErrInvalidSize is returned for a non-positive size or a negative stride.
var ErrInvalidSize = errors.New("invalid window size")

// Window is a contiguous run of corpus tokens.
type Window struct {
	Index  int
	Offset int // global index of the first token
	Tokens codestructure.Corpus
}

// Len returns the number of tokens in the window.
func (w Window) Len() int {
	return w.Tokens.Len()
}

// First returns the position of the first token.
func (w Window) First() (codestructure.Position, bool) {
	if w.Len() == 0 {
		return codestructure.Position{}, false
	}
	p, err := w.Tokens.Locate(0)
	return p, err == nil
}

// Last returns the position of the last token.
func (w Window) Last() (codestructure.Position, bool) {
	if w.Len() == 0 {
		return codestructure.Position{}, false
	}
	p, err := w.Tokens.Locate(w.Len() - 1)
	return p, err == nil
}

func (w Window) String() string {
	first, _ := w.First()
	last, _ := w.Last()
	return fmt.Sprintf("#%d [%d, %d) %v .. %v", w.Index, w.Offset, w.Offset+w.Len(), first, last)
}

// Cut returns windows of size tokens starting every stride tokens. A stride of
// 0 means size, giving non-overlapping windows. The last window may be short,
// and cutting stops at the first window that reaches the end of the corpus.
func Cut(c codestructure.Corpus, size, stride int) ([]Window, error) {
	if size <= 0 || stride < 0 {
		return nil, fmt.Errorf("%w: size %d, stride %d", ErrInvalidSize, size, stride)
	}
	if stride == 0 {
		stride = size
	}
	if stride == size {
		return cutDisjoint(c, size)
	}

	var windows []Window
	for offset := 0; offset < c.Len(); offset += stride {
		end := min(offset+size, c.Len())
		tokens, err := c.Slice(offset, end)
		if err != nil {
			return nil, err
		}
		windows = append(windows, Window{Index: len(windows), Offset: offset, Tokens: tokens})
		if end == c.Len() {
			break
		}
	}
	return windows, nil
}

// cutDisjoint peels windows off the front of the corpus with repeated splits.
func cutDisjoint(c codestructure.Corpus, size int) ([]Window, error) {
	var windows []Window
	offset := 0
	for rest := c; rest.Len() > 0; {
		head, tail, err := rest.Split(size)
		if err != nil {
			return nil, err
		}
		windows = append(windows, Window{Index: len(windows), Offset: offset, Tokens: head})
		offset += head.Len()
		rest = tail
	}
	return windows, nil
}
