package codestructure

import "fmt"

// Position is where a single token came from. Column counts tokens, not bytes:
// it is the index of the token among the tokens of its line.
type Position struct {
	Path   string
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%s: (%d:%d)", p.Path, p.Line, p.Column)
}
