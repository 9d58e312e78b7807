package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/uievolve/uievolve/pkg/archive"
	"github.com/uievolve/uievolve/pkg/catalog"
	"github.com/uievolve/uievolve/pkg/codegen"
	"github.com/uievolve/uievolve/pkg/config"
	"github.com/uievolve/uievolve/pkg/crawler"
	"github.com/uievolve/uievolve/pkg/engine"
	"github.com/uievolve/uievolve/pkg/fitness"
	"github.com/uievolve/uievolve/pkg/logging"
	"github.com/uievolve/uievolve/pkg/runner"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "uievolve: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "path to a YAML config file")
		targetURL   = flag.String("url", "", "target page to evolve against (overrides config)")
		seed        = flag.Int64("seed", 0, "random seed; 0 seeds from the clock (overrides config)")
		generations = flag.Int("generations", 0, "generation cap (overrides config)")
		outputDir   = flag.String("out", "", "artifact directory (overrides config)")
		headful     = flag.Bool("headful", false, "run the browser with a visible window")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *targetURL != "" {
		cfg.TargetURL = *targetURL
		cfg.Browser.StartURL = *targetURL
	}
	if *seed != 0 {
		cfg.Engine.Seed = *seed
	}
	if *generations > 0 {
		cfg.Engine.Generations = *generations
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *headful {
		cfg.Browser.Headless = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logging.ParseSeverity(strings.ToUpper(cfg.Logging.Level)),
		Outputs:  []logging.Output{logging.NewConsoleOutput(true)},
	}))
	logger := logging.GetLogger()
	logging.InitGlobalFlightRecorder()

	// An interrupt aborts the run at the next generation boundary and
	// still reports the best chromosome so far.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Discovering action catalog at %s", cfg.TargetURL)
	cat, err := crawler.New(&cfg.Browser).Discover(ctx)
	if err != nil {
		return err
	}

	opts := []engine.Option{engine.WithEvalCache(archive.NewEvalCache(0))}
	var store *archive.SQLiteArchive
	if cfg.Output.Archive {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return err
		}
		store, err = archive.NewSQLiteArchive(filepath.Join(cfg.Output.Dir, "runs.db"))
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn(ctx, "Failed to close run archive: %v", err)
			}
		}()
		opts = append(opts, engine.WithRecorder(store))
	}

	evaluator := fitness.NewEvaluator(cfg.Fitness.Weights, cfg.Fitness.Floor)
	eng, err := engine.New(&cfg.Engine, cat, runner.New(&cfg.Browser), evaluator, opts...)
	if err != nil {
		return err
	}
	if store != nil {
		if err := store.BeginRun(ctx, eng.RunID(), cfg.TargetURL); err != nil {
			return err
		}
	}

	result, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(os.Stdout, cfg, cat, result)

	if cfg.Output.ReplayProgram {
		path := filepath.Join(cfg.Output.Dir, codegen.SuggestedFilename(result.Best))
		if err := codegen.New().WriteFile(path, result.Best, cfg.TargetURL); err != nil {
			return err
		}
		logger.Info(ctx, "Replay program written to %s", path)
	}
	return nil
}

func printSummary(w *os.File, cfg *config.Config, cat *catalog.Catalog, result *engine.Result) {
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "target:       %s\n", cfg.TargetURL)
	fmt.Fprintf(w, "catalog:      %d actions\n", cat.Len())
	fmt.Fprintf(w, "generations:  %d\n", result.Generations)
	fmt.Fprintf(w, "best fitness: %.3f (found in generation %d)\n", result.Fitness, result.FoundAt)
	fmt.Fprintln(w, "best sequence:")
	for i, action := range result.Best.Actions() {
		fmt.Fprintf(w, "  %2d. %s\n", i+1, action)
	}
	if tr := result.Best.Trace(); tr != nil {
		fmt.Fprintf(w, "trace:        %d distinct URLs, %d distinct states, %d error signatures, status=%s\n",
			tr.DistinctURLs(), tr.DistinctSignatures(), len(tr.Errors), tr.Status)
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
}
