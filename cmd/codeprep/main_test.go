package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/codeprep/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n\nfunc fooBar() {}\n")
	writeFile(t, filepath.Join(root, "notes.md"), "hello world\n\nsecond para here")

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"-repo", root, "-window", "4", "-locate", "13", "-log-level", "error",
		"-cache-db", filepath.Join(".cache", "counts.db"),
	}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "2 files")
	assert.Contains(t, text, "14 tokens, 4 windows of 4 (stride 4), 0 skipped")
	assert.Contains(t, text, "token 13: notes.md: (3:2)")
	assert.FileExists(t, filepath.Join(root, ".cache", "counts.db"))
}

func TestRunLocateOutOfRange(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "one two")

	var out bytes.Buffer
	err := run(context.Background(), []string{"-repo", root, "-locate", "2", "-log-level", "error"}, &out)
	assert.Error(t, err)
}

func TestLoadConfigPrecedence(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, config.Save(config.Path(root), &config.Config{
		WindowSize: 100, Concurrency: 2, CacheSize: 1, LogLevel: "info",
	}))
	t.Setenv("CODEPREP_WINDOW_SIZE", "200")
	t.Setenv("CODEPREP_CONCURRENCY", "3")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var o flagOverrides
	fs.IntVar(&o.window, "window", 0, "")
	require.NoError(t, fs.Parse([]string{"-window", "300"}))

	cfg, err := loadConfig(root, fs, o)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.WindowSize)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 1, cfg.CacheSize)
}

func TestRunRejectsMissingExplicitConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "one two")

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"-repo", root, "-config", filepath.Join(root, "typo.json"), "-log-level", "error",
	}, &out)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, out.String())
}

func TestResolveRepoRootRejectsFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	writeFile(t, path, "x")
	_, err := resolveRepoRoot(path)
	assert.Error(t, err)
}
