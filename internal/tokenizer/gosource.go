package tokenizer

import (
	"context"
	"fmt"
	"go/scanner"
	"go/token"
	"strings"

	"github.com/fatih/camelcase"
)

// GoSource tokenizes Go code with go/scanner. Identifiers are split on case
// changes and underscores into subtokens; every other token counts once.
// Comments and the semicolons the scanner inserts at line ends are dropped.
type GoSource struct {
	// fallback handles files the scanner rejects.
	fallback Tokenizer
}

// NewGoSource creates a Go tokenizer that falls back to word splitting for
// content that does not scan as Go.
func NewGoSource() *GoSource {
	return &GoSource{fallback: NewWords()}
}

func (g *GoSource) Name() string {
	return "go"
}

func (g *GoSource) CountLines(ctx context.Context, content []byte) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(content))

	var scanErr error
	var s scanner.Scanner
	s.Init(file, content, func(pos token.Position, msg string) {
		if scanErr == nil {
			scanErr = fmt.Errorf("%d:%d: %s", pos.Line, pos.Column, msg)
		}
	}, 0)

	counts := make([]int, NumLines(content))
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		line := file.Position(pos).Line - 1
		if tok == token.IDENT {
			counts[line] += identifierParts(lit)
		} else {
			counts[line]++
		}
	}

	if scanErr != nil && g.fallback != nil {
		return g.fallback.CountLines(ctx, content)
	}
	if scanErr != nil {
		return nil, fmt.Errorf("failed to scan go source: %w", scanErr)
	}
	return counts, nil
}

// identifierParts counts the case-change subtokens of an identifier. Runs of
// underscores separate parts without counting; an identifier made only of
// underscores counts once.
func identifierParts(ident string) int {
	n := 0
	for _, part := range camelcase.Split(ident) {
		if strings.Trim(part, "_") != "" {
			n++
		}
	}
	return max(n, 1)
}
