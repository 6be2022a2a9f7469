package indexer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkerWalk(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"z.py":                "x = 1\n",
		"b/main.go":           "package main\n",
		"a.ts":                "let a = 1\n",
		"node_modules/m.js":   "ignored()\n",
		"docs/readme.md":      "# Title\n",
		"build.log":           "noise",
		".gitignore":          "# comment\n\n*.gen.go\n",
		"b/schema.gen.go":     "package main\n",
		"nested/.gitignore":   "secret.py\n",
		"nested/secret.py":    "token = 1\n",
		"nested/visible.java": "class A {}\n",
	})

	walker, err := NewWalker(root)
	require.NoError(t, err)

	result := walker.Walk(context.Background())
	assert.Empty(t, result.Errors)

	var paths []string
	for _, f := range result.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"a.ts", "b/main.go", "docs/readme.md", "nested/visible.java", "z.py"}, paths)
	assert.Equal(t, LangTypeScript, result.Files[0].Lang)
	assert.Equal(t, int64(len("let a = 1\n")), result.Files[0].SizeBytes)
}

func TestNewWalkerRejectsMissingRoot(t *testing.T) {
	_, err := NewWalker("/definitely/not/here")
	assert.Error(t, err)
}

func TestDefaultLanguageDetector(t *testing.T) {
	d := NewDefaultLanguageDetector()
	tests := []struct {
		path string
		want Language
	}{
		{"main.go", LangGo},
		{"App.TSX", LangTypeScript},
		{"lib.rs", LangRust},
		{"README.md", LangMarkdown},
		{"Makefile", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.Detect(tt.path), tt.path)
	}
}
