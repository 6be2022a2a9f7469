package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileWatcher watches a repository and reports batches of changed source files.
type FileWatcher struct {
	repoRoot      string
	watcher       *fsnotify.Watcher
	walker        *Walker
	onChange      func([]string)
	debounceTime  time.Duration
	log           *zap.Logger
	mu            sync.Mutex
	pendingEvents map[string]bool
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewFileWatcher creates a watcher that filters events through walker's ignore
// rules and language detection.
func NewFileWatcher(walker *Walker, debounce time.Duration, logger *zap.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileWatcher{
		repoRoot:      walker.repoRoot,
		watcher:       watcher,
		walker:        walker,
		debounceTime:  debounce,
		log:           logger,
		pendingEvents: make(map[string]bool),
	}, nil
}

// OnChange sets the callback for changed files. Paths are relative to the
// repository root, slash separated and sorted.
func (fw *FileWatcher) OnChange(callback func([]string)) {
	fw.onChange = callback
}

// Start adds every non-ignored directory and begins processing events until
// ctx is done or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(fw.repoRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		relPath, err := filepath.Rel(fw.repoRoot, path)
		if err != nil {
			return nil
		}
		if relPath != "." && fw.walker.Ignored(relPath) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			fw.log.Warn("failed to watch directory", zap.String("dir", path), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk repo: %w", err)
	}

	ctx, fw.cancel = context.WithCancel(ctx)
	fw.wg.Add(2)
	go fw.eventLoop(ctx)
	go fw.debounceLoop(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutines.
func (fw *FileWatcher) Stop() error {
	if fw.cancel != nil {
		fw.cancel()
	}
	fw.wg.Wait()
	return fw.watcher.Close()
}

func (fw *FileWatcher) eventLoop(ctx context.Context) {
	defer fw.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(fw.repoRoot, event.Name)
	if err != nil || fw.walker.Ignored(relPath) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.watcher.Add(event.Name); err != nil {
				fw.log.Warn("failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return
		}
	}

	if fw.walker.Detect(event.Name) == "" {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		fw.mu.Lock()
		fw.pendingEvents[filepath.ToSlash(relPath)] = true
		fw.mu.Unlock()
	}
}

func (fw *FileWatcher) debounceLoop(ctx context.Context) {
	defer fw.wg.Done()

	ticker := time.NewTicker(fw.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fw.flush()
		}
	}
}

// flush hands the pending paths to the callback and clears them.
func (fw *FileWatcher) flush() {
	fw.mu.Lock()
	if len(fw.pendingEvents) == 0 {
		fw.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(fw.pendingEvents))
	for path := range fw.pendingEvents {
		paths = append(paths, path)
	}
	fw.pendingEvents = make(map[string]bool)
	fw.mu.Unlock()

	sort.Strings(paths)
	fw.log.Debug("files changed", zap.Strings("paths", paths))
	if fw.onChange != nil {
		fw.onChange(paths)
	}
}

// Watch rebuilds the corpus after every batch of changes until ctx is done.
// onBuild receives each rebuild result.
func (ix *Indexer) Watch(ctx context.Context, debounce time.Duration, onBuild func(*BuildResult, error)) error {
	fw, err := NewFileWatcher(ix.walker, debounce, ix.log)
	if err != nil {
		return err
	}

	rebuild := make(chan struct{}, 1)
	fw.OnChange(func(paths []string) {
		ix.log.Info("rebuilding after changes", zap.Int("changed", len(paths)))
		select {
		case rebuild <- struct{}{}:
		default:
		}
	})
	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return err
	}
	defer fw.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-rebuild:
			onBuild(ix.Build(ctx))
		}
	}
}
