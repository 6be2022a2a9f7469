package indexer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Language represents a programming language.
type Language string

const (
	LangGo         Language = "go"
	LangTypeScript Language = "ts"
	LangJavaScript Language = "js"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangMarkdown   Language = "markdown"
)

// FileInfo describes a source file selected for the corpus.
type FileInfo struct {
	Path      string // relative to the repository root, slash separated
	Lang      Language
	SizeBytes int64
	MtimeUnix int64
}

// WalkError records a file that could not be read or processed.
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *WalkError) Unwrap() error {
	return e.Err
}

// WalkResult contains the results of a repository walk.
type WalkResult struct {
	Files  []FileInfo
	Errors []WalkError
}

// DefaultIgnorePatterns are directories and files never worth tokenizing.
var DefaultIgnorePatterns = []string{
	".git",
	"node_modules",
	"dist",
	"build",
	"vendor",
	"__pycache__",
	"coverage",
	".cache",
	"target",
	"bin",
	".idea",
	".vscode",
	".DS_Store",
}

// LanguageDetector defines how to detect file languages.
type LanguageDetector interface {
	Detect(path string) Language
}

// DefaultLanguageDetector detects language from file extension.
type DefaultLanguageDetector struct {
	extMap map[string]Language
}

// NewDefaultLanguageDetector creates a new default language detector.
func NewDefaultLanguageDetector() *DefaultLanguageDetector {
	return &DefaultLanguageDetector{
		extMap: map[string]Language{
			".go":   LangGo,
			".ts":   LangTypeScript,
			".tsx":  LangTypeScript,
			".js":   LangJavaScript,
			".jsx":  LangJavaScript,
			".py":   LangPython,
			".rs":   LangRust,
			".java": LangJava,
			".c":    LangC,
			".h":    LangC,
			".cpp":  LangCPP,
			".cc":   LangCPP,
			".hpp":  LangCPP,
			".md":   LangMarkdown,
		},
	}
}

// Detect returns the language for path, or "" if the extension is unknown.
func (d *DefaultLanguageDetector) Detect(path string) Language {
	return d.extMap[strings.ToLower(filepath.Ext(path))]
}

// WalkerConfig configures the file walker behavior.
type WalkerConfig struct {
	// MaxConcurrency limits parallel stat calls. Default: 4
	MaxConcurrency int
	// LanguageDetector for custom language detection. Default: DefaultLanguageDetector
	LanguageDetector LanguageDetector
	// FollowSymlinks enables symlink following with cycle detection. Default: false
	FollowSymlinks bool
}

// Walker discovers the source files of a repository in a stable order.
type Walker struct {
	repoRoot        string
	config          WalkerConfig
	ignoreMatcher   gitignore.IgnoreParser
	langDetector    LanguageDetector
	visitedSymlinks map[string]bool
	symlinkMutex    sync.Mutex
}

// NewWalker creates a walker with the default configuration.
func NewWalker(repoRoot string) (*Walker, error) {
	return NewWalkerWithConfig(repoRoot, WalkerConfig{})
}

// NewWalkerWithConfig creates a walker honoring DefaultIgnorePatterns and every
// .gitignore found under repoRoot.
func NewWalkerWithConfig(repoRoot string, config WalkerConfig) (*Walker, error) {
	if info, err := os.Stat(repoRoot); err != nil {
		return nil, fmt.Errorf("failed to stat repository root: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("repository root is not a directory: %s", repoRoot)
	}
	// Set defaults
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.LanguageDetector == nil {
		config.LanguageDetector = NewDefaultLanguageDetector()
	}

	// Collect all ignore patterns
	patterns := append([]string(nil), DefaultIgnorePatterns...)
	patterns = append(patterns, loadGitignorePatterns(repoRoot)...)

	return &Walker{
		repoRoot:        repoRoot,
		config:          config,
		ignoreMatcher:   gitignore.CompileIgnoreLines(patterns...),
		langDetector:    config.LanguageDetector,
		visitedSymlinks: make(map[string]bool),
	}, nil
}

// Ignored reports whether a path relative to the repository root is excluded.
func (w *Walker) Ignored(relPath string) bool {
	return w.ignoreMatcher.MatchesPath(relPath)
}

// Detect returns the language of path.
func (w *Walker) Detect(path string) Language {
	return w.langDetector.Detect(path)
}

// loadGitignorePatterns collects the patterns of every .gitignore in the tree.
// Nested files are not scoped to their directory.
func loadGitignorePatterns(repoRoot string) []string {
	var patterns []string
	filepath.WalkDir(repoRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if d.IsDir() || d.Name() != ".gitignore" {
			return nil
		}
		if lines, err := readGitignoreLines(path); err == nil {
			patterns = append(patterns, lines...)
		}
		return nil
	})
	return patterns
}

func readGitignoreLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// Walk discovers all source files and returns them sorted by path.
func (w *Walker) Walk(ctx context.Context) WalkResult {
	// Symlink cycle detection is per walk
	w.symlinkMutex.Lock()
	w.visitedSymlinks = make(map[string]bool)
	w.symlinkMutex.Unlock()

	pathChan := make(chan string, 100)
	resultChan := make(chan FileInfo, 100)
	errorChan := make(chan WalkError, 100)

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < w.config.MaxConcurrency; i++ {
		wg.Add(1)
		go w.statFiles(pathChan, resultChan, errorChan, &wg)
	}

	// Start collector goroutine
	var result WalkResult
	collectDone := make(chan struct{})
	go func() {
		defer close(collectDone)
		for resultChan != nil || errorChan != nil {
			select {
			case info, ok := <-resultChan:
				if !ok {
					resultChan = nil
					continue
				}
				result.Files = append(result.Files, info)
			case walkErr, ok := <-errorChan:
				if !ok {
					errorChan = nil
					continue
				}
				result.Errors = append(result.Errors, walkErr)
			}
		}
	}()

	// Walk the filesystem and send paths to workers
	walkErr := filepath.WalkDir(w.repoRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			errorChan <- WalkError{Path: path, Err: err}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		relPath, err := filepath.Rel(w.repoRoot, path)
		if err != nil {
			errorChan <- WalkError{Path: path, Err: err}
			return nil
		}
		if relPath == "." {
			return nil
		}
		// Check if path should be ignored
		if w.Ignored(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			if !w.config.FollowSymlinks {
				return nil
			}
			realPath, err := filepath.EvalSymlinks(path)
			if err != nil {
				errorChan <- WalkError{Path: relPath, Err: fmt.Errorf("failed to resolve symlink: %w", err)}
				return nil
			}
			w.symlinkMutex.Lock()
			seen := w.visitedSymlinks[realPath]
			w.visitedSymlinks[realPath] = true
			w.symlinkMutex.Unlock()
			if seen {
				return nil // Skip cycle
			}
		}

		// Skip directories and files without a recognized language
		if d.IsDir() || w.Detect(path) == "" {
			return nil
		}
		pathChan <- path
		return nil
	})

	// Drain workers, then the collector
	close(pathChan)
	wg.Wait()
	close(resultChan)
	close(errorChan)
	<-collectDone

	if walkErr != nil {
		result.Errors = append(result.Errors, WalkError{Path: w.repoRoot, Err: walkErr})
	}
	sort.Slice(result.Files, func(i, j int) bool { return result.Files[i].Path < result.Files[j].Path })
	return result
}

func (w *Walker) statFiles(pathChan <-chan string, resultChan chan<- FileInfo, errorChan chan<- WalkError, wg *sync.WaitGroup) {
	defer wg.Done()

	for path := range pathChan {
		relPath, err := filepath.Rel(w.repoRoot, path)
		if err != nil {
			errorChan <- WalkError{Path: path, Err: err}
			continue
		}
		stat, err := os.Stat(path)
		if err != nil {
			errorChan <- WalkError{Path: relPath, Err: fmt.Errorf("failed to stat file: %w", err)}
			continue
		}
		resultChan <- FileInfo{
			Path:      filepath.ToSlash(relPath),
			Lang:      w.Detect(path),
			SizeBytes: stat.Size(),
			MtimeUnix: stat.ModTime().Unix(),
		}
	}
}
