package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ChamsBouzaiene/codeprep/internal/config"
	"github.com/ChamsBouzaiene/codeprep/internal/indexer"
)

type runtimeEnv struct {
	RepoRoot string
	Config   *config.Config
	Logger   *zap.Logger
	Cache    indexer.CountCache
	closers  []func() error
}

func (r *runtimeEnv) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.Logger.Warn("close failed", zap.Error(err))
		}
	}
	_ = r.Logger.Sync()
}

// flagOverrides holds the flags that may override configured values.
type flagOverrides struct {
	configPath string
	window     int
	stride     int
	cacheDB    string
	logLevel   string
}

func resolveRepoRoot(repoFlag string) (string, error) {
	repoRoot := repoFlag
	if repoRoot == "" {
		var err error
		repoRoot, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	absRepoRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve repository path: %w", err)
	}
	if info, err := os.Stat(absRepoRoot); err != nil || !info.IsDir() {
		return "", fmt.Errorf("repository path is not a valid directory: %s", absRepoRoot)
	}
	return absRepoRoot, nil
}

// loadConfig layers the config file, CODEPREP_* variables and explicitly set
// flags, in that order.
func loadConfig(repoRoot string, fs *flag.FlagSet, o flagOverrides) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.LoadRequired(o.configPath)
	} else {
		cfg, err = config.Load(config.Path(repoRoot))
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "window":
			cfg.WindowSize = o.window
		case "stride":
			cfg.WindowStride = o.stride
		case "cache-db":
			cfg.CacheDB = o.cacheDB
		case "log-level":
			cfg.LogLevel = o.logLevel
		}
	})
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// newCache builds the count cache the config asks for: memory, sqlite, both
// tiered, or none.
func newCache(ctx context.Context, repoRoot string, cfg *config.Config) (indexer.CountCache, func() error, error) {
	var mem *indexer.MemoryCache
	if cfg.CacheSize > 0 {
		var err error
		mem, err = indexer.NewMemoryCache(cfg.CacheSize)
		if err != nil {
			return nil, nil, err
		}
	}
	if cfg.CacheDB == "" {
		if mem == nil {
			return nil, nil, nil
		}
		return mem, nil, nil
	}

	dbPath := cfg.CacheDB
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(repoRoot, dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := indexer.NewSQLiteCache(ctx, dbPath)
	if err != nil {
		return nil, nil, err
	}
	if mem == nil {
		return db, db.Close, nil
	}
	return indexer.NewTieredCache(mem, db), db.Close, nil
}

func prepareRuntimeEnv(ctx context.Context, repoFlag string, fs *flag.FlagSet, o flagOverrides) (*runtimeEnv, error) {
	repoRoot, err := resolveRepoRoot(repoFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(repoRoot, fs, o)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	env := &runtimeEnv{RepoRoot: repoRoot, Config: cfg, Logger: logger}
	cache, closeCache, err := newCache(ctx, repoRoot, cfg)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to open count cache: %w", err)
	}
	env.Cache = cache
	if closeCache != nil {
		env.closers = append(env.closers, closeCache)
	}
	return env, nil
}
