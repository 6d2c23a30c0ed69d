package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine"
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/collector"
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/writers"
	"github.com/rxtech-lab/argo-tickbench/internal/logger"
	"github.com/rxtech-lab/argo-tickbench/internal/runtime"
	"github.com/rxtech-lab/argo-tickbench/internal/runtime/expr"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/internal/version"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"
)

const (
	tradesFileName = "trades.parquet"
	statsFileName  = "stats.yaml"
)

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	initialized   bool
	predicate     runtime.Predicate
	datasource    datasource.DataSource
	resultsFolder string
	postgres      writers.Copier
	log           *logger.Logger
}

// runPlan is everything a run needs once the configuration has been checked.
type runPlan struct {
	variants []types.Variant
	vars     map[types.VariantKey][]float64
	deps     runDeps
	rng      datasource.Range
	units    []Unit
	jobs     []Job
	ticks    int
}

func NewBacktestEngineV1() engine.Engine {
	return NewBacktestEngineV1WithLogger(nil)
}

// NewBacktestEngineV1WithLogger creates an engine that logs to log. A nil
// logger is replaced by a production logger on Initialize.
func NewBacktestEngineV1WithLogger(log *logger.Logger) *BacktestEngineV1 {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		initialized:   false,
		predicate:     nil,
		datasource:    nil,
		resultsFolder: "",
		postgres:      nil,
		log:           log,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	if b.log == nil {
		log, err := logger.NewLogger()
		if err != nil {
			return err
		}

		b.log = log
	}

	parsed := EmptyConfig()
	if err := yaml.Unmarshal([]byte(config), &parsed); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := validator.New().Struct(parsed); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := checkConfig(parsed); err != nil {
		return err
	}

	b.config = parsed
	b.initialized = true

	b.log.Debug("Backtest engine initialized",
		zap.String("venue", string(parsed.Venue)),
		zap.String("partition", string(parsed.Partition)),
		zap.String("variant_mode", string(parsed.Variants.Mode)),
	)

	return nil
}

// checkConfig covers the rules struct tags cannot express.
func checkConfig(config BacktestEngineV1Config) error {
	switch config.Partition {
	case PartitionBySymbol, "":
	case PartitionByDay, PartitionBySymbolDay:
		if !config.ResetEachDay || !config.Exit.DayEndLiquidation {
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"partition %q requires reset_each_day and day_end_liquidation", config.Partition)
		}
	default:
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown partition strategy %q", config.Partition)
	}

	for _, orderType := range []types.OrderType{config.Entry.OrderType, config.Exit.OrderType} {
		if orderType != types.OrderTypeMarket && orderType != types.OrderTypeLimit {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown order type %q", orderType)
		}
	}

	for _, column := range config.PrecomputeColumns {
		if !column.Valid() {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown column %q", column)
		}
	}

	if config.Session.End != 0 && config.Session.Start > config.Session.End {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"session start %d is after session end %d", config.Session.Start, config.Session.End)
	}

	if config.StartTime.IsSome() && config.EndTime.IsSome() && config.EndTime.Unwrap().Before(config.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end_time is before start_time")
	}

	return nil
}

// LoadStrategy implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategy(strategy runtime.Predicate) error {
	if strategy == nil {
		return errors.New(errors.ErrCodeStrategyNotLoaded, "strategy is nil")
	}

	b.predicate = strategy
	b.logger().Debug("Strategy loaded",
		zap.String("strategy", strategy.Name()),
	)

	return nil
}

// LoadStrategyFromFile implements engine.Engine. Expression strategies are
// compiled against the variant width of the current config, so Initialize
// should be called first.
func (b *BacktestEngineV1) LoadStrategyFromFile(strategyPath string) error {
	extension := filepath.Ext(strategyPath)

	switch extension {
	case ".yaml", ".yml":
		source, err := expr.LoadSource(strategyPath)
		if err != nil {
			return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to load strategy", err)
		}

		return b.loadSource(source)
	default:
		return errors.Newf(errors.ErrCodeStrategyConfigError, "unsupported strategy type: %s", extension)
	}
}

// LoadStrategyFromBytes implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategyFromBytes(strategyBytes []byte, strategyType engine.StrategyType) error {
	switch strategyType {
	case engine.StrategyTypeExpr:
		source, err := expr.ParseSource(strategyBytes)
		if err != nil {
			return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse strategy", err)
		}

		return b.loadSource(source)
	default:
		return errors.Newf(errors.ErrCodeStrategyConfigError, "unsupported strategy type: %s", strategyType)
	}
}

func (b *BacktestEngineV1) loadSource(source expr.Source) error {
	if err := version.CheckCompatibility(version.GetVersion(), source.EngineVersion); err != nil {
		return err
	}

	source.Variables = b.config.Variants.Width()

	predicate, err := expr.New(source)
	if err != nil {
		return err
	}

	return b.LoadStrategy(predicate)
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.logger().Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// SetPostgres makes every run copy its trades into Postgres as well.
func (b *BacktestEngineV1) SetPostgres(db writers.Copier) {
	b.postgres = db
}

// Validate implements engine.Engine.
func (b *BacktestEngineV1) Validate(ctx context.Context) error {
	if err := b.preRunCheck(); err != nil {
		return err
	}

	if err := b.predicate.Validate(); err != nil {
		return err
	}

	plan, err := b.prepare(ctx)
	if err != nil {
		return err
	}

	if len(plan.units) == 0 {
		return nil
	}

	deps := plan.deps
	deps.strict = true

	dry := &worker{
		id:       0,
		deps:     deps,
		source:   b.datasource,
		rng:      plan.rng,
		out:      nil,
		progress: nil,
		log:      b.log.Worker(0),
	}

	unit := plan.units[0]
	if _, err := dry.runUnit(ctx, unit); err != nil {
		return fmt.Errorf("dry run of %s failed: %w", unit.Symbol, err)
	}

	b.log.Debug("Validation passed",
		zap.Int("variants", len(plan.variants)),
		zap.Int("instruments", len(plan.units)),
	)

	return nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (result collector.Result, err error) {
	if err := b.preRunCheck(); err != nil {
		return collector.Result{}, err
	}

	defer func() {
		if callbacks.OnBacktestEnd != nil {
			(*callbacks.OnBacktestEnd)(err)
		}
	}()

	if err := b.predicate.Validate(); err != nil {
		return collector.Result{}, err
	}

	plan, err := b.prepare(ctx)
	if err != nil {
		return collector.Result{}, err
	}

	runID := uuid.New().String()

	b.log.Info("Backtest started",
		zap.String("run_id", runID),
		zap.String("strategy", b.predicate.Name()),
		zap.Int("variants", len(plan.variants)),
		zap.Int("units", len(plan.units)),
		zap.Int("workers", len(plan.jobs)),
		zap.Int("ticks", plan.ticks),
	)

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(plan.variants), len(plan.units), plan.ticks); err != nil {
			return collector.Result{}, err
		}
	}

	result, err = b.execute(ctx, plan, callbacks)
	if err != nil {
		return collector.Result{}, err
	}

	if callbacks.OnResult != nil {
		if err := (*callbacks.OnResult)(runID, result); err != nil {
			return collector.Result{}, err
		}
	}

	if err := b.writeResults(ctx, runID, plan, result); err != nil {
		return collector.Result{}, fmt.Errorf("failed to write results: %w", err)
	}

	b.log.Info("Backtest finished",
		zap.String("run_id", runID),
		zap.Int("variants", len(result.Variants)),
		zap.Int("failures", len(result.Failures)),
	)

	return result, nil
}

// prepare expands the variants and partitions the data. Every configuration
// error surfaces here, before any worker starts.
func (b *BacktestEngineV1) prepare(ctx context.Context) (*runPlan, error) {
	variants, err := b.config.Variants.Expand()
	if err != nil {
		return nil, err
	}

	sizer, err := NewSizer(b.config)
	if err != nil {
		return nil, err
	}

	if err := b.config.Indicators.Validate(); err != nil {
		return nil, err
	}

	vars := make(map[types.VariantKey][]float64, len(variants))
	for _, variant := range variants {
		vars[variant.VariantKey] = variant.Vars
	}

	rng := datasource.Range{
		Start:        b.config.StartTime,
		End:          b.config.EndTime,
		Day:          0,
		SessionStart: b.config.Session.Start,
		SessionEnd:   b.config.Session.End,
	}

	units, ticks, err := b.units(ctx, rng)
	if err != nil {
		return nil, err
	}

	workers := b.config.Workers
	if workers == 0 {
		workers = goruntime.NumCPU()
	}

	return &runPlan{
		variants: variants,
		vars:     vars,
		deps: runDeps{
			config:    &b.config,
			variants:  variants,
			predicate: b.predicate,
			fee:       commission_fee.GetFeeModel(b.config.Venue, b.config.Rates),
			sizer:     sizer,
			strict:    false,
			log:       b.log,
		},
		rng:   rng,
		units: units,
		jobs:  Partition(units, b.config.Partition, workers),
		ticks: ticks,
	}, nil
}

// units lists the work of the run. Symbols without records are skipped.
func (b *BacktestEngineV1) units(ctx context.Context, rng datasource.Range) ([]Unit, int, error) {
	symbols, err := b.datasource.Symbols(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list symbols: %w", err)
	}

	var units []Unit

	total := 0

	for _, symbol := range symbols {
		if b.config.Partition == PartitionBySymbol || b.config.Partition == "" {
			count, err := b.datasource.Count(ctx, symbol, rng)
			if err != nil {
				return nil, 0, fmt.Errorf("failed to count %s: %w", symbol, err)
			}

			if count > 0 {
				units = append(units, Unit{Symbol: symbol, Day: 0, Ticks: count})
				total += count
			}

			continue
		}

		days, err := b.datasource.Days(ctx, symbol, rng)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list days of %s: %w", symbol, err)
		}

		for _, day := range days {
			if day.Ticks > 0 {
				units = append(units, Unit{Symbol: symbol, Day: day.Day, Ticks: day.Ticks})
				total += day.Ticks
			}
		}
	}

	return units, total, nil
}

// execute fans the jobs out to the workers. Each sub-aggregator owns one
// collector fed by a subset of the workers; the top aggregator merges
// their partials into the result.
func (b *BacktestEngineV1) execute(ctx context.Context, plan *runPlan, callbacks engine.LifecycleCallbacks) (collector.Result, error) {
	resolution := b.config.HeldResolution
	aggregators := max(1, min(b.config.Aggregators, len(plan.jobs)))

	inboxes := make([]chan Message, aggregators)
	for i := range inboxes {
		inboxes[i] = make(chan Message, 2*len(plan.jobs)+1)
	}

	progress := make(chan Progress, 4*len(plan.jobs)+1)
	partials := make(chan *collector.Partial, aggregators)
	top := collector.NewAggregator(resolution)

	// callbacks are serialized
	var mu sync.Mutex

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer func() {
			for _, inbox := range inboxes {
				close(inbox)
			}

			close(progress)
		}()

		workers, wctx := errgroup.WithContext(gctx)

		for _, job := range plan.jobs {
			w := &worker{
				id:       job.Worker,
				deps:     plan.deps,
				source:   b.datasource,
				rng:      plan.rng,
				out:      inboxes[job.Worker%aggregators],
				progress: progress,
				log:      b.log.Worker(job.Worker),
			}

			workers.Go(func() error {
				return w.run(wctx, job)
			})
		}

		return workers.Wait()
	})

	onFailure := func(failure collector.Failure) {
		if callbacks.OnInstrumentError == nil {
			return
		}

		mu.Lock()
		defer mu.Unlock()

		(*callbacks.OnInstrumentError)(failure.Symbol, failure.Day, errors.New(errors.ErrCodeInstrumentFailed, failure.Message))
	}

	var subs sync.WaitGroup

	for _, inbox := range inboxes {
		subs.Add(1)

		group.Go(func() error {
			defer subs.Done()

			collect(gctx, inbox, partials, resolution, onFailure)

			return nil
		})
	}

	group.Go(func() error {
		subs.Wait()
		close(partials)

		return nil
	})

	group.Go(func() error {
		for partial := range partials {
			if err := top.Receive(partial); err != nil {
				return err
			}
		}

		return nil
	})

	group.Go(func() error {
		done := 0

		for p := range progress {
			done += p.Ticks

			if callbacks.OnProcessData == nil {
				continue
			}

			mu.Lock()
			err := (*callbacks.OnProcessData)(done, plan.ticks)
			mu.Unlock()

			if err != nil {
				return err
			}
		}

		return nil
	})

	err := group.Wait()

	if ctx.Err() != nil {
		b.log.Warn("Backtest cancelled", zap.Error(ctx.Err()))

		return collector.Result{}, errors.Wrap(errors.ErrCodeBacktestCancelled, "backtest cancelled", ctx.Err())
	}

	if err != nil {
		return collector.Result{}, err
	}

	return top.Result()
}

// collect drains one inbox into a collector. Every completed unit flushes
// the trades buffered so far.
func collect(ctx context.Context, inbox <-chan Message, partials chan<- *collector.Partial, resolution int, onFailure func(collector.Failure)) {
	c := collector.New(resolution, func(partial *collector.Partial) {
		select {
		case partials <- partial:
		case <-ctx.Done():
		}
	})

	for msg := range inbox {
		if msg.Failure != nil {
			c.Fail(*msg.Failure)
			onFailure(*msg.Failure)
		}

		if len(msg.Trades) > 0 {
			c.Add(msg.Trades)
		}

		if msg.Done {
			c.Complete()
		}
	}

	c.Complete()
}

func (b *BacktestEngineV1) writeResults(ctx context.Context, runID string, plan *runPlan, result collector.Result) error {
	if b.resultsFolder != "" {
		folder := getResultFolder(b.resultsFolder, b.predicate.Name(), runID, b.config)
		if err := os.MkdirAll(folder, 0755); err != nil {
			return fmt.Errorf("failed to create result folder: %w", err)
		}

		tradesPath := filepath.Join(folder, tradesFileName)
		if err := writeTrades(tradesPath, result.Trades()); err != nil {
			return err
		}

		stats := result.Stats(runID, time.Now(), plan.vars)
		for i := range stats {
			stats[i].TradesFilePath = tradesPath
		}

		if err := types.WriteVariantStats(filepath.Join(folder, statsFileName), stats); err != nil {
			return fmt.Errorf("failed to write stats: %w", err)
		}

		b.log.Debug("Results written",
			zap.String("folder", folder),
		)
	}

	if b.postgres != nil {
		writer := writers.NewPostgresWriter(b.postgres, runID)
		if err := writer.EnsureSchema(ctx); err != nil {
			return err
		}

		copied, err := writer.Write(ctx, result.Trades())
		if err != nil {
			return err
		}

		b.log.Debug("Trades copied to postgres",
			zap.Int64("rows", copied),
		)
	}

	return nil
}

func writeTrades(path string, trades []types.ClosedTrade) error {
	writer := writers.NewTradesWriter(path)
	if err := writer.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize trades writer: %w", err)
	}
	defer writer.Close()

	if err := writer.Write(trades); err != nil {
		return fmt.Errorf("failed to write trades: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush trades: %w", err)
	}

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if !b.initialized {
		return errors.New(errors.ErrCodeBacktestInitFailed, "engine is not initialized")
	}

	if b.predicate == nil {
		b.logger().Error("No strategy loaded")

		return errors.New(errors.ErrCodeBacktestNoStrategy, "no strategy loaded")
	}

	if b.datasource == nil {
		b.logger().Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	return nil
}

// logger returns a no-op logger until Initialize has run.
func (b *BacktestEngineV1) logger() *logger.Logger {
	if b.log == nil {
		return logger.NewNopLogger()
	}

	return b.log
}
