package codestructure

import "errors"

var (
	// ErrNotAdjacent is returned when merging structures that are not contiguous
	// in the token stream of a single file.
	ErrNotAdjacent = errors.New("snippets are not adjacent")
	// ErrOutOfRange is returned for a line or token offset outside a structure.
	ErrOutOfRange = errors.New("out of range")
)
