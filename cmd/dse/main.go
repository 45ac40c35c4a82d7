package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/chipflow-eda/dse-core/internal/design/simddot"
	"github.com/chipflow-eda/dse-core/internal/evaluator"
	"github.com/chipflow-eda/dse-core/internal/pareto"
	"github.com/chipflow-eda/dse-core/internal/report"
	"github.com/chipflow-eda/dse-core/internal/sampler"
	"github.com/chipflow-eda/dse-core/internal/scheduler"
	"github.com/chipflow-eda/dse-core/internal/study"
	"github.com/chipflow-eda/dse-core/pkg/config"
	"github.com/chipflow-eda/dse-core/pkg/logger"
)

func main() {
	var (
		configPath    string
		studyName     string
		storage       string
		trials        int
		seed          int64
		parallelism   int
		computeBudget int
		outputDir     string
		quickTest     bool
		logLevel      string
	)

	flag.StringVar(&configPath, "config", "", "path to YAML run configuration")
	flag.StringVar(&studyName, "study", "", "study name (resumes existing trial history)")
	flag.StringVar(&storage, "storage", "", "study database directory")
	flag.IntVar(&trials, "trials", 0, "number of new trials to run")
	flag.Int64Var(&seed, "seed", -1, "sampler seed")
	flag.IntVar(&parallelism, "parallelism", 0, "batch width (variants per build invocation)")
	flag.IntVar(&computeBudget, "compute-budget", 0, "total compute units split across a batch")
	flag.StringVar(&outputDir, "output-dir", "", "directory for result artifacts")
	flag.BoolVar(&quickTest, "quick-test", false, "run a short smoke study")
	flag.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	cfg := config.DefaultRunConfig()
	if configPath != "" {
		loaded, err := config.LoadRunConfig(configPath)
		if err != nil {
			logger.Error("failed to load configuration", "path", configPath, "error", err)
			os.Exit(2)
		}
		cfg = loaded
	}

	// Flags override the file.
	if studyName != "" {
		cfg.Study.Name = studyName
	}
	if storage != "" {
		cfg.Study.Storage = storage
	}
	if trials > 0 {
		cfg.Run.Trials = trials
	}
	if seed >= 0 {
		cfg.Run.Seed = seed
	}
	if parallelism > 0 {
		cfg.Run.Parallelism = parallelism
	}
	if computeBudget > 0 {
		cfg.Run.ComputeBudget = computeBudget
	}
	if outputDir != "" {
		cfg.Run.OutputDir = outputDir
	}
	if quickTest {
		cfg.Run.QuickTest = true
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	logger.SetDefault(logger.NewText(cfg.LogLevel, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			logger.Error("invalid configuration", "error", err)
			os.Exit(2)
		}
		if errors.Is(err, context.Canceled) {
			logger.Warn("run interrupted")
			os.Exit(130)
		}
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.RunConfig) error {
	design := simddot.New()

	store, err := study.Open(cfg.Study.Storage, cfg.Study.Name)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSpace(design.Space().Fingerprint()); err != nil {
		return err
	}

	timeout, err := cfg.Evaluator.GetTimeout()
	if err != nil {
		return err
	}

	var eval evaluator.Evaluator
	switch cfg.Evaluator.Kind {
	case "command":
		eval = evaluator.NewCommandEvaluator(cfg.Evaluator.Command, cfg.Evaluator.WorkspaceRoot, timeout)
	default:
		eval = evaluator.NewBazelEvaluator(cfg.Evaluator.Command, cfg.Evaluator.WorkspaceRoot, timeout)
	}

	sched, err := scheduler.New(scheduler.Options{
		Store:         store,
		Sampler:       sampler.NewDesign(design.SuggestParams, cfg.Run.Seed),
		Design:        design,
		Evaluator:     eval,
		Parallelism:   cfg.Run.Parallelism,
		ComputeBudget: cfg.Run.ComputeBudget,
		Observer:      scheduler.LogObserver{},
	})
	if err != nil {
		return err
	}

	nTrials := cfg.Run.EffectiveTrials()
	logger.Info("starting exploration",
		"design", design.Name(),
		"study", cfg.Study.Name,
		"trials", nTrials,
		"parallelism", sched.Parallelism(),
		"compute_budget", cfg.Run.ComputeBudget,
		"evaluator", cfg.Evaluator.Kind)

	runErr := sched.Run(ctx, nTrials)

	// Report whatever finished, even when the run was cut short.
	trials, err := store.Trials()
	if err != nil {
		if runErr != nil {
			return runErr
		}
		return err
	}

	summary := &report.Summary{
		Study:    cfg.Study.Name,
		Labels:   design.Labels(),
		Trials:   trials,
		Frontier: pareto.Frontier(trials),
	}
	if err := summary.Save(cfg.Run.OutputDir); err != nil {
		logger.Error("failed to save results", "dir", cfg.Run.OutputDir, "error", err)
	} else {
		logger.Info("results saved", "dir", cfg.Run.OutputDir, "frontier_points", len(summary.Frontier))
	}
	if err := summary.Write(os.Stdout); err != nil {
		logger.Warn("failed to print summary", "error", err)
	}

	return runErr
}
