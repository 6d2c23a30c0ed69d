package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/collector"
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/writers"
	"github.com/rxtech-lab/argo-tickbench/internal/logger"
	"github.com/rxtech-lab/argo-tickbench/internal/version"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const progressThrottle = 100 * time.Millisecond

// runner holds what one invocation of the backtest command needs.
type runner struct {
	configPath   string
	strategyPath string
	dataPath     string
	resultsPath  string
	postgresDSN  string
	cacheSize    int
	validateOnly bool
	log          *logger.Logger
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	level := zapcore.InfoLevel
	if cmd.Bool("verbose") {
		level = zapcore.DebugLevel
	}

	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() { _ = log.Sync() }()

	r := &runner{
		configPath:   cmd.String("config"),
		strategyPath: cmd.String("strategy"),
		dataPath:     cmd.String("data"),
		resultsPath:  cmd.String("results"),
		postgresDSN:  cmd.String("postgres"),
		cacheSize:    int(cmd.Int("cache-size")),
		validateOnly: cmd.Bool("validate"),
		log:          log,
	}

	return r.run(ctx)
}

func (r *runner) run(ctx context.Context) error {
	config, err := os.ReadFile(r.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	backtester := engine_v1.NewBacktestEngineV1WithLogger(r.log)

	if err := backtester.Initialize(string(config)); err != nil {
		return fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	if err := backtester.LoadStrategyFromFile(r.strategyPath); err != nil {
		return fmt.Errorf("failed to load strategy: %w", err)
	}

	duck, err := datasource.NewDataSource(":memory:", r.log)
	if err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}

	if err := duck.Initialize(r.dataPath); err != nil {
		_ = duck.Close()

		return fmt.Errorf("failed to attach market data: %w", err)
	}

	source := datasource.NewCachedDataSource(duck, r.cacheSize)
	defer func() { _ = source.Close() }()

	if err := backtester.SetDataSource(source); err != nil {
		return fmt.Errorf("failed to set data source: %w", err)
	}

	// the dry run loads the first unit; the full run reads it from the cache
	if err := backtester.Validate(ctx); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if r.validateOnly {
		r.log.Info("Configuration and strategy are valid")

		return nil
	}

	if err := backtester.SetResultsFolder(r.resultsPath); err != nil {
		return fmt.Errorf("failed to set results folder: %w", err)
	}

	if r.postgresDSN != "" {
		pool, err := writers.NewPool(ctx, r.postgresDSN)
		if err != nil {
			return err
		}

		defer pool.Close()

		backtester.SetPostgres(pool)
	}

	_, err = backtester.Run(ctx, r.callbacks())

	return err
}

// callbacks drives a progress bar and logs instrument failures.
func (r *runner) callbacks() engine.LifecycleCallbacks {
	var bar *progressbar.ProgressBar

	onStart := engine.OnBacktestStartCallback(func(totalVariants, totalInstruments, totalTicks int) error {
		r.log.Info("Running backtest",
			zap.Int("variants", totalVariants),
			zap.Int("instruments", totalInstruments),
			zap.Int("ticks", totalTicks),
		)

		bar = progressbar.NewOptions(totalTicks,
			progressbar.OptionSetDescription("Replaying ticks"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(progressThrottle),
		)

		return nil
	})

	onProgress := engine.OnProcessDataCallback(func(current, _ int) error {
		if bar != nil {
			_ = bar.Set(current)
		}

		return nil
	})

	onInstrumentError := engine.OnInstrumentErrorCallback(func(symbol string, day int, err error) {
		r.log.Warn("Instrument failed",
			zap.String("symbol", symbol),
			zap.Int("day", day),
			zap.Error(err),
		)
	})

	onResult := engine.OnResultCallback(func(runID string, result collector.Result) error {
		r.log.Info("Backtest result",
			zap.String("run_id", runID),
			zap.Int("variants", len(result.Variants)),
			zap.Int("trades", len(result.Trades())),
			zap.Int("failures", len(result.Failures)),
		)

		return nil
	})

	onEnd := engine.OnBacktestEndCallback(func(err error) {
		if bar != nil {
			_ = bar.Finish()
		}

		if err != nil {
			r.log.Error("Backtest failed", zap.Error(err))
		}
	})

	return engine.LifecycleCallbacks{
		OnBacktestStart:   &onStart,
		OnBacktestEnd:     &onEnd,
		OnProcessData:     &onProgress,
		OnInstrumentError: &onInstrumentError,
		OnResult:          &onResult,
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Replay historical ticks against a strategy for every parameter variant",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the engine configuration `FILE` (YAML)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"s"},
				Usage:    "Path to the strategy expression `FILE` (YAML)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Parquet file or glob with the historical ticks",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Output directory; each run writes into <results>/<strategy>/<run id>",
				Value:   "results",
			},
			&cli.StringFlag{
				Name:    "postgres",
				Usage:   "Postgres DSN; when set, closed trades are also copied into backtest_trades",
				Sources: cli.EnvVars("BACKTEST_POSTGRES_DSN"),
			},
			&cli.BoolFlag{
				Name:  "validate",
				Usage: "Check the configuration and dry-run the strategy without producing results",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Action: backtestAction,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
