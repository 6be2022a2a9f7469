package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChamsBouzaiene/codeprep/internal/codestructure"
	"github.com/ChamsBouzaiene/codeprep/internal/tokenizer"
)

// Config configures the indexer behavior.
type Config struct {
	// Concurrency limits how many files are tokenized at once. Default: 4
	Concurrency int
	// FollowSymlinks is passed to the walker.
	FollowSymlinks bool
	// Cache stores line counts by content hash. Optional.
	Cache CountCache
	// TokenizerFor picks the tokenizer for a language. Default: tokenizer.ForLanguage
	TokenizerFor func(Language) tokenizer.Tokenizer
	// Logger receives progress and per-file failures. Default: zap.NewNop()
	Logger *zap.Logger
}

// Indexer turns a repository into a Corpus.
type Indexer struct {
	repoRoot string
	walker   *Walker
	config   Config
	log      *zap.Logger
}

// BuildResult is the outcome of one Build.
type BuildResult struct {
	Corpus codestructure.Corpus
	// Files are the files present in Corpus, in corpus order.
	Files []FileInfo
	// Errors lists the files that were skipped.
	Errors []WalkError
	// Bytes is the total size of Files.
	Bytes int64
}

// New creates an indexer for the repository at repoRoot.
func New(repoRoot string, config Config) (*Indexer, error) {
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	if config.TokenizerFor == nil {
		config.TokenizerFor = func(lang Language) tokenizer.Tokenizer {
			return tokenizer.ForLanguage(string(lang))
		}
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	walker, err := NewWalkerWithConfig(repoRoot, WalkerConfig{
		MaxConcurrency: config.Concurrency,
		FollowSymlinks: config.FollowSymlinks,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create walker: %w", err)
	}

	return &Indexer{
		repoRoot: repoRoot,
		walker:   walker,
		config:   config,
		log:      config.Logger.With(zap.String("repo", repoRoot)),
	}, nil
}

// Walker returns the walker used for file discovery.
func (ix *Indexer) Walker() *Walker {
	return ix.walker
}

// Build walks the repository, tokenizes every file and folds the per-file
// corpora in path order. Files that cannot be read or tokenized are skipped and
// reported in BuildResult.Errors. Cancellation and adjacency violations abort.
func (ix *Indexer) Build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()
	walk := ix.walker.Walk(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ix.log.Debug("walk finished", zap.Int("files", len(walk.Files)), zap.Int("errors", len(walk.Errors)))

	corpora := make([]codestructure.Corpus, len(walk.Files))
	fileErrs := make([]error, len(walk.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.config.Concurrency)
	for i, file := range walk.Files {
		g.Go(func() error {
			c, err := ix.BuildFile(gctx, file)
			if err == nil {
				corpora[i] = c
				return nil
			}
			if errors.Is(err, codestructure.ErrNotAdjacent) || gctx.Err() != nil {
				return err
			}
			fileErrs[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build aborted: %w", err)
	}

	for _, e := range walk.Errors {
		ix.log.Warn("walk error", zap.String("path", e.Path), zap.Error(e.Err))
	}
	result := &BuildResult{Errors: walk.Errors}
	var b codestructure.CorpusBuilder
	for i, file := range walk.Files {
		if fileErrs[i] != nil {
			ix.log.Warn("skipping file", zap.String("path", file.Path), zap.Error(fileErrs[i]))
			result.Errors = append(result.Errors, WalkError{Path: file.Path, Err: fileErrs[i]})
			continue
		}
		if err := b.Merge(corpora[i]); err != nil {
			return nil, fmt.Errorf("failed to fold %s: %w", file.Path, err)
		}
		result.Files = append(result.Files, file)
		result.Bytes += file.SizeBytes
	}
	result.Corpus = b.Corpus()

	ix.log.Info("build finished",
		zap.Int("files", len(result.Files)),
		zap.Int("skipped", len(result.Errors)),
		zap.Int("tokens", result.Corpus.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// BuildFile builds the corpus of a single file.
func (ix *Indexer) BuildFile(ctx context.Context, file FileInfo) (codestructure.Corpus, error) {
	content, err := os.ReadFile(filepath.Join(ix.repoRoot, filepath.FromSlash(file.Path)))
	if err != nil {
		return codestructure.Corpus{}, fmt.Errorf("failed to read file: %w", err)
	}
	counts, err := ix.countLines(ctx, file, content)
	if err != nil {
		return codestructure.Corpus{}, err
	}
	return FileCorpus(file.Path, counts)
}

func (ix *Indexer) countLines(ctx context.Context, file FileInfo, content []byte) ([]int, error) {
	tok := ix.config.TokenizerFor(file.Lang)
	numLines := tokenizer.NumLines(content)
	key := cacheKey(tok.Name(), content)

	if cache := ix.config.Cache; cache != nil {
		counts, ok, err := cache.Get(ctx, key)
		switch {
		case err != nil:
			ix.log.Warn("cache read failed", zap.String("path", file.Path), zap.Error(err))
		case ok && len(counts) == numLines && !slices.ContainsFunc(counts, isNegative):
			return counts, nil
		}
	}

	counts, err := tok.CountLines(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize with %s: %w", tok.Name(), err)
	}
	if len(counts) != numLines {
		return nil, fmt.Errorf("tokenizer %s returned %d line counts for %d lines", tok.Name(), len(counts), numLines)
	}
	for line, n := range counts {
		if n < 0 {
			return nil, fmt.Errorf("tokenizer %s returned negative count %d at line %d", tok.Name(), n, line)
		}
	}

	if cache := ix.config.Cache; cache != nil {
		if err := cache.Put(ctx, key, counts); err != nil {
			ix.log.Warn("cache write failed", zap.String("path", file.Path), zap.Error(err))
		}
	}
	return counts, nil
}

func isNegative(n int) bool {
	return n < 0
}

func cacheKey(tokenizerName string, content []byte) string {
	sum := sha256.Sum256(content)
	return tokenizerName + ":" + hex.EncodeToString(sum[:])
}
