package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	units "github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/codeprep/internal/indexer"
	"github.com/ChamsBouzaiene/codeprep/internal/window"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("codeprep: %v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("codeprep", flag.ExitOnError)
	repoFlag := fs.String("repo", "", "Path to repository root (default: current directory)")
	var o flagOverrides
	fs.StringVar(&o.configPath, "config", "", "Path to config file (default: <repo>/.codeprep.json)")
	fs.IntVar(&o.window, "window", 0, "Tokens per window")
	fs.IntVar(&o.stride, "stride", 0, "Tokens between window starts (default: window size)")
	fs.StringVar(&o.cacheDB, "cache-db", "", "SQLite file caching line counts across runs")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	show := fs.Int("show", 10, "Number of windows to print")
	locate := fs.Int("locate", -1, "Print the position of the token at this global index")
	watch := fs.Bool("watch", false, "Rebuild whenever source files change")

	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := prepareRuntimeEnv(ctx, *repoFlag, fs, o)
	if err != nil {
		return err
	}
	defer env.Close()

	logger := env.Logger.With(zap.String("run_id", uuid.NewString()))
	ix, err := indexer.New(env.RepoRoot, indexer.Config{
		Concurrency:    env.Config.Concurrency,
		FollowSymlinks: env.Config.FollowSymlinks,
		Cache:          env.Cache,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	r := reporter{
		out:    out,
		size:   env.Config.WindowSize,
		stride: env.Config.Stride(),
		show:   *show,
		locate: *locate,
	}

	result, err := ix.Build(ctx)
	if err != nil {
		return err
	}
	if err := r.report(result); err != nil {
		return err
	}
	if !*watch {
		return nil
	}

	logger.Info("watching for changes", zap.String("repo", env.RepoRoot))
	return ix.Watch(ctx, 0, func(result *indexer.BuildResult, err error) {
		if err != nil {
			logger.Error("rebuild failed", zap.Error(err))
			return
		}
		if err := r.report(result); err != nil {
			logger.Error("report failed", zap.Error(err))
		}
	})
}

type reporter struct {
	out    io.Writer
	size   int
	stride int
	show   int
	locate int
}

func (r reporter) report(result *indexer.BuildResult) error {
	c := result.Corpus
	windows, err := window.Cut(c, r.size, r.stride)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%d files (%s), %d tokens, %d windows of %d (stride %d), %d skipped\n",
		len(result.Files), units.HumanSize(float64(result.Bytes)), c.Len(),
		len(windows), r.size, r.stride, len(result.Errors))

	for i, w := range windows {
		if i >= r.show {
			fmt.Fprintf(r.out, "... %d more\n", len(windows)-i)
			break
		}
		fmt.Fprintln(r.out, w)
	}

	if r.locate >= 0 {
		p, err := c.Locate(r.locate)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "token %d: %v\n", r.locate, p)
	}
	return nil
}
