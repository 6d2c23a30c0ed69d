package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine"
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/collector"
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-tickbench/internal/logger"
	"github.com/rxtech-lab/argo-tickbench/internal/runtime"
	go_runtime "github.com/rxtech-lab/argo-tickbench/internal/runtime/go"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/internal/version"
	"github.com/rxtech-lab/argo-tickbench/mocks"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BacktestEngineV1TestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
}

func TestBacktestEngineV1Suite(t *testing.T) {
	suite.Run(t, new(BacktestEngineV1TestSuite))
}

func (suite *BacktestEngineV1TestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
}

func (suite *BacktestEngineV1TestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

const (
	configHead = "venue: flat\nallocation: 1000\ntick_size: 1\naggregators: 2\n"
	singleVar  = "variants:\n  mode: single\n  values: [3]\n"
	baseConfig = configHead + "workers: 2\n" + singleVar
)

var sessionStart = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

// minuteTicks returns one tick per minute with prices start, start+1, ...
func minuteTicks(symbol string, day time.Time, start float64, count int) []types.Tick {
	ticks := make([]types.Tick, 0, count)
	for i := range count {
		price := start + float64(i)
		ticks = append(ticks, types.Tick{
			Symbol: symbol,
			Time:   day.Add(time.Duration(i) * time.Minute),
			Price:  price,
			Open:   start,
			High:   price,
			Low:    start,
		})
	}

	return ticks
}

// holdTwoMinutes buys when flat and sells after two minutes.
func holdTwoMinutes(env *runtime.Env) runtime.Signals {
	return runtime.Signals{
		Buy:  env.CanBuy && !env.Holding,
		Sell: env.Holding && env.HoldSeconds >= 120,
	}
}

func (suite *BacktestEngineV1TestSuite) newEngine(config string, ticks []types.Tick, decide go_runtime.DecideFunc) *BacktestEngineV1 {
	b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
	suite.Require().NoError(b.Initialize(config))
	suite.Require().NoError(b.SetDataSource(datasource.NewInMemoryDataSource(ticks)))
	suite.Require().NoError(b.LoadStrategy(go_runtime.NewGoRuntime("e2e", decide)))

	return b
}

func (suite *BacktestEngineV1TestSuite) TestRun() {
	ticks := append(minuteTicks("AAA", sessionStart, 100, 6), minuteTicks("BBB", sessionStart, 200, 6)...)
	b := suite.newEngine(baseConfig, ticks, holdTwoMinutes)

	folder := suite.T().TempDir()
	suite.Require().NoError(b.SetResultsFolder(folder))

	var (
		started  []int
		progress []int
		runID    string
		endErr   error
		ended    bool
	)

	onStart := engine.OnBacktestStartCallback(func(totalVariants, totalInstruments, totalTicks int) error {
		started = []int{totalVariants, totalInstruments, totalTicks}
		return nil
	})
	onProgress := engine.OnProcessDataCallback(func(current, total int) error {
		progress = append(progress, current)
		suite.Equal(12, total)
		return nil
	})
	onResult := engine.OnResultCallback(func(id string, _ collector.Result) error {
		runID = id
		return nil
	})
	onEnd := engine.OnBacktestEndCallback(func(err error) {
		ended = true
		endErr = err
	})

	result, err := b.Run(context.Background(), engine.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnBacktestEnd:   &onEnd,
		OnProcessData:   &onProgress,
		OnResult:        &onResult,
	})
	suite.Require().NoError(err)

	suite.Equal([]int{1, 2, 12}, started)
	suite.True(ended)
	suite.NoError(endErr)
	suite.NotEmpty(progress)
	suite.LessOrEqual(progress[len(progress)-1], 12)

	suite.Empty(result.Failures)
	suite.Require().Len(result.Variants, 1)

	variant := result.Variants[0]
	suite.Equal(types.VariantKey{Group: 0, Key: 0}, variant.Variant)
	suite.Require().Len(variant.Trades, 4)

	// AAA: 10 @ 100 -> 102, then 9 @ 103 -> 105 at the day end.
	// BBB: 5 @ 200 -> 202, then 4 @ 203 -> 205 at the day end.
	expected := []struct {
		symbol string
		profit float64
		reason types.ExitReason
	}{
		{"AAA", 20, types.ExitReasonStrategy},
		{"BBB", 10, types.ExitReasonStrategy},
		{"AAA", 18, types.ExitReasonDayEnd},
		{"BBB", 8, types.ExitReasonDayEnd},
	}

	for i, want := range expected {
		trade := variant.Trades[i]
		suite.Equal(want.symbol, trade.Symbol, "trade %d", i)
		suite.InDelta(want.profit, trade.Profit, 1e-9, "trade %d", i)
		suite.Equal(want.reason, trade.ExitReason, "trade %d", i)
		suite.False(trade.StillHeld)
	}

	suite.Equal(2, variant.MaxHeld)

	runFolder := filepath.Join(folder, "e2e", runID)
	suite.FileExists(filepath.Join(runFolder, tradesFileName))

	stats, err := os.ReadFile(filepath.Join(runFolder, statsFileName))
	suite.Require().NoError(err)
	suite.Contains(string(stats), runID)
}

func (suite *BacktestEngineV1TestSuite) TestRunIsDeterministicAcrossPartitions() {
	day2 := sessionStart.AddDate(0, 0, 1)

	var ticks []types.Tick
	for _, symbol := range []string{"AAA", "BBB", "CCC"} {
		ticks = append(ticks, minuteTicks(symbol, sessionStart, 100, 8)...)
		ticks = append(ticks, minuteTicks(symbol, day2, 110, 8)...)
	}

	var results []collector.Result

	for _, partition := range []string{"symbol", "day", "symbol_day"} {
		for _, workers := range []string{"1", "3"} {
			config := configHead + singleVar + "partition: " + partition + "\nworkers: " + workers + "\n"

			b := suite.newEngine(config, ticks, holdTwoMinutes)

			result, err := b.Run(context.Background(), engine.LifecycleCallbacks{})
			suite.Require().NoError(err, "partition %s workers %s", partition, workers)

			results = append(results, result)
		}
	}

	for i := 1; i < len(results); i++ {
		suite.Equal(results[0], results[i], "result %d", i)
	}
}

func (suite *BacktestEngineV1TestSuite) TestStopLossTakesPrecedence() {
	ticks := []types.Tick{
		{Symbol: "AAA", Time: sessionStart, Price: 100},
		{Symbol: "AAA", Time: sessionStart.Add(time.Minute), Price: 90},
		{Symbol: "AAA", Time: sessionStart.Add(2 * time.Minute), Price: 95},
	}

	config := baseConfig + `
exit:
  order_type: MARKET
  stop_loss_pct: 5
  day_end_liquidation: true
`

	// the predicate asks to sell on every tick it sees while holding
	b := suite.newEngine(config, ticks, func(env *runtime.Env) runtime.Signals {
		return runtime.Signals{Buy: env.CanBuy && env.Index == 0, Sell: env.Holding}
	})

	result, err := b.Run(context.Background(), engine.LifecycleCallbacks{})
	suite.Require().NoError(err)

	trades := result.Trades()
	suite.Require().Len(trades, 1)
	suite.Equal(types.ExitReasonStopLoss, trades[0].ExitReason)
	suite.Equal(90.0, trades[0].ExitPrice)
}

func (suite *BacktestEngineV1TestSuite) TestTrancheEntriesRespectBlackout() {
	// one record every ten seconds from 09:00:00 to 09:01:20
	ticks := make([]types.Tick, 0, 9)
	for i := range 9 {
		ticks = append(ticks, types.Tick{
			Symbol: "AAA",
			Time:   sessionStart.Add(time.Duration(i*10) * time.Second),
			Price:  100,
		})
	}

	config := baseConfig + `
entry:
  order_type: MARKET
  tranches: [0.5, 0.5]
  blackouts:
    - {start: 90010, end: 90100}
`

	b := suite.newEngine(config, ticks, func(*runtime.Env) runtime.Signals {
		return runtime.Signals{Buy: true}
	})

	result, err := b.Run(context.Background(), engine.LifecycleCallbacks{})
	suite.Require().NoError(err)

	trades := result.Trades()
	suite.Require().Len(trades, 1)
	suite.Equal(types.ExitReasonDayEnd, trades[0].ExitReason)
	suite.Equal([]time.Time{sessionStart, sessionStart.Add(70 * time.Second)}, trades[0].EntryTimes)
	suite.InDelta(1000.0, trades[0].EntryNotional, 1e-9)
}

func (suite *BacktestEngineV1TestSuite) TestDayBoundaryLiquidation() {
	day2 := sessionStart.AddDate(0, 0, 1)
	ticks := append(minuteTicks("AAA", sessionStart, 100, 2), minuteTicks("AAA", day2, 100, 2)...)

	var entries []int

	var mu sync.Mutex

	b := suite.newEngine(baseConfig, ticks, func(env *runtime.Env) runtime.Signals {
		if env.CanBuy && !env.Holding {
			mu.Lock()
			entries = append(entries, env.TradesToday)
			mu.Unlock()

			return runtime.Signals{Buy: true}
		}

		return runtime.Signals{}
	})

	result, err := b.Run(context.Background(), engine.LifecycleCallbacks{})
	suite.Require().NoError(err)

	trades := result.Trades()
	suite.Require().Len(trades, 2)
	suite.Equal(types.ExitReasonDayEnd, trades[0].ExitReason)
	suite.Equal(types.ExitReasonDayEnd, trades[1].ExitReason)

	// the day counters start from zero on the second day
	suite.Equal([]int{0, 0}, entries)
}

func (suite *BacktestEngineV1TestSuite) TestInstrumentFailureIsIsolated() {
	ticks := append(minuteTicks("AAA", sessionStart, 100, 6), minuteTicks("BAD", sessionStart, 100, 6)...)

	b := suite.newEngine(baseConfig, ticks, func(env *runtime.Env) runtime.Signals {
		if env.Symbol == "BAD" && env.Index == 3 {
			panic("boom")
		}

		return holdTwoMinutes(env)
	})

	var failed []string

	onError := engine.OnInstrumentErrorCallback(func(symbol string, _ int, err error) {
		failed = append(failed, symbol)
		suite.True(errors.HasCode(err, errors.ErrCodeInstrumentFailed))
	})

	result, err := b.Run(context.Background(), engine.LifecycleCallbacks{OnInstrumentError: &onError})
	suite.Require().NoError(err)

	suite.Equal([]string{"BAD"}, failed)
	suite.Require().Len(result.Failures, 1)
	suite.Equal("BAD", result.Failures[0].Symbol)
	suite.Contains(result.Failures[0].Message, "boom")

	for _, trade := range result.Trades() {
		suite.Equal("AAA", trade.Symbol)
	}

	suite.Len(result.Trades(), 2)
}

func (suite *BacktestEngineV1TestSuite) TestCancellation() {
	ticks := minuteTicks("AAA", sessionStart, 100, 6)
	b := suite.newEngine(baseConfig, ticks, holdTwoMinutes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	onStart := engine.OnBacktestStartCallback(func(int, int, int) error {
		cancel()
		return nil
	})

	var endErr error

	onEnd := engine.OnBacktestEndCallback(func(err error) {
		endErr = err
	})

	result, err := b.Run(ctx, engine.LifecycleCallbacks{OnBacktestStart: &onStart, OnBacktestEnd: &onEnd})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestCancelled))
	suite.ErrorIs(err, context.Canceled)
	suite.Equal(collector.Result{}, result)
	suite.Equal(err, endErr)
}

func (suite *BacktestEngineV1TestSuite) TestValidationErrorsSurfaceBeforeWorkers() {
	config := configHead + "workers: 2\nvariants:\n  mode: turn\n  ranges:\n    - {start: 1, end: 30, step: 1}\n"

	b := suite.newEngine(config, minuteTicks("AAA", sessionStart, 100, 6), holdTwoMinutes)

	called := false
	onStart := engine.OnBacktestStartCallback(func(int, int, int) error {
		called = true
		return nil
	})

	_, err := b.Run(context.Background(), engine.LifecycleCallbacks{OnBacktestStart: &onStart})
	suite.True(errors.HasCode(err, errors.ErrCodeTooManyVariantValues))
	suite.False(called)
}

func (suite *BacktestEngineV1TestSuite) TestInitializeRejectsBadConfig() {
	tests := []struct {
		name   string
		config string
	}{
		{name: "unknown venue", config: "venue: nyse\nallocation: 1000\n"},
		{name: "missing allocation", config: "venue: flat\n"},
		{name: "day partition without liquidation", config: "venue: flat\nallocation: 1000\npartition: day\nexit:\n  order_type: MARKET\n  day_end_liquidation: false\n"},
		{name: "unknown partition", config: "venue: flat\nallocation: 1000\npartition: week\n"},
		{name: "unknown column", config: "venue: flat\nallocation: 1000\nprecompute_columns: [price, mood]\n"},
		{name: "inverted session", config: "venue: flat\nallocation: 1000\nsession: {start: 150000, end: 90000}\n"},
		{name: "broken yaml", config: "venue: [flat\n"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
			err := b.Initialize(tc.config)
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration), "got %v", err)
		})
	}
}

func (suite *BacktestEngineV1TestSuite) TestPreRunChecks() {
	ctx := context.Background()

	b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
	_, err := b.Run(ctx, engine.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestInitFailed))

	suite.Require().NoError(b.Initialize(baseConfig))
	_, err = b.Run(ctx, engine.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoStrategy))

	suite.Require().NoError(b.LoadStrategy(go_runtime.NewGoRuntime("noop", holdTwoMinutes)))
	_, err = b.Run(ctx, engine.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoDatasource))

	suite.True(errors.HasCode(b.LoadStrategy(nil), errors.ErrCodeStrategyNotLoaded))
}

func (suite *BacktestEngineV1TestSuite) TestDataSourceErrorStopsRun() {
	source := mocks.NewMockDataSource(suite.ctrl)
	source.EXPECT().Symbols(gomock.Any()).Return(nil, errors.New(errors.ErrCodeDataSourceUnavailable, "offline"))

	b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
	suite.Require().NoError(b.Initialize(baseConfig))
	suite.Require().NoError(b.SetDataSource(source))
	suite.Require().NoError(b.LoadStrategy(go_runtime.NewGoRuntime("noop", holdTwoMinutes)))

	_, err := b.Run(context.Background(), engine.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}

func (suite *BacktestEngineV1TestSuite) TestLoadFailureBecomesInstrumentFailure() {
	source := mocks.NewMockDataSource(suite.ctrl)
	source.EXPECT().Symbols(gomock.Any()).Return([]string{"AAA"}, nil)
	source.EXPECT().Count(gomock.Any(), "AAA", gomock.Any()).Return(10, nil)
	source.EXPECT().Load(gomock.Any(), "AAA", gomock.Any()).Return(nil, errors.New(errors.ErrCodeQueryFailed, "corrupt file"))

	b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
	suite.Require().NoError(b.Initialize(baseConfig))
	suite.Require().NoError(b.SetDataSource(source))
	suite.Require().NoError(b.LoadStrategy(go_runtime.NewGoRuntime("noop", holdTwoMinutes)))

	result, err := b.Run(context.Background(), engine.LifecycleCallbacks{})
	suite.Require().NoError(err)
	suite.Require().Len(result.Failures, 1)
	suite.Contains(result.Failures[0].Message, "corrupt file")
	suite.Empty(result.Variants)
}

func (suite *BacktestEngineV1TestSuite) TestValidateThenRunLoadsOnceThroughCache() {
	ticks := minuteTicks("AAA", sessionStart, 100, 6)

	source := mocks.NewMockDataSource(suite.ctrl)
	source.EXPECT().Symbols(gomock.Any()).Return([]string{"AAA"}, nil).Times(2)
	source.EXPECT().Count(gomock.Any(), "AAA", gomock.Any()).Return(len(ticks), nil).Times(2)
	source.EXPECT().Load(gomock.Any(), "AAA", gomock.Any()).Return(ticks, nil).Times(1)

	b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
	suite.Require().NoError(b.Initialize(baseConfig))
	suite.Require().NoError(b.SetDataSource(datasource.NewCachedDataSource(source, 4)))
	suite.Require().NoError(b.LoadStrategy(go_runtime.NewGoRuntime("hold", holdTwoMinutes)))

	suite.Require().NoError(b.Validate(context.Background()))

	result, err := b.Run(context.Background(), engine.LifecycleCallbacks{})
	suite.Require().NoError(err)
	suite.Len(result.Trades(), 2)
}

func (suite *BacktestEngineV1TestSuite) TestValidate() {
	ticks := minuteTicks("AAA", sessionStart, 100, 6)

	suite.Run("expression strategy passes", func() {
		b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
		suite.Require().NoError(b.Initialize(baseConfig))
		suite.Require().NoError(b.SetDataSource(datasource.NewInMemoryDataSource(ticks)))
		suite.Require().NoError(b.LoadStrategyFromBytes([]byte("name: momentum\nbuy: can_buy && price > vars[0]\nsell: holding && profit_pct > 1\n"), engine.StrategyTypeExpr))

		suite.NoError(b.Validate(context.Background()))
	})

	suite.Run("expression reading past the variables fails", func() {
		b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
		suite.Require().NoError(b.Initialize(baseConfig))
		suite.Require().NoError(b.SetDataSource(datasource.NewInMemoryDataSource(ticks)))
		suite.Require().NoError(b.LoadStrategyFromBytes([]byte("name: broken\nbuy: vars[4] > 1\n"), engine.StrategyTypeExpr))

		err := b.Validate(context.Background())
		suite.True(errors.HasCode(err, errors.ErrCodePredicateRuntime), "got %v", err)
	})

	suite.Run("runtime error in the dry run fails", func() {
		predicate := mocks.NewMockPredicate(suite.ctrl)
		predicate.EXPECT().Name().Return("mock").AnyTimes()
		predicate.EXPECT().Validate().Return(nil)
		predicate.EXPECT().Evaluate(gomock.Any()).Return(runtime.Signals{}, errors.New(errors.ErrCodePredicateRuntime, "nil column")).AnyTimes()

		b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
		suite.Require().NoError(b.Initialize(baseConfig))
		suite.Require().NoError(b.SetDataSource(datasource.NewInMemoryDataSource(ticks)))
		suite.Require().NoError(b.LoadStrategy(predicate))

		err := b.Validate(context.Background())
		suite.True(errors.HasCode(err, errors.ErrCodePredicateRuntime), "got %v", err)
	})

	suite.Run("compile error", func() {
		b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
		suite.Require().NoError(b.Initialize(baseConfig))

		err := b.LoadStrategyFromBytes([]byte("name: broken\nbuy: price >\n"), engine.StrategyTypeExpr)
		suite.True(errors.HasCode(err, errors.ErrCodePredicateCompile), "got %v", err)
	})
}

func (suite *BacktestEngineV1TestSuite) TestLoadStrategyFromFile() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "strategy.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("name: file\nbuy: can_buy\n"), 0644))

	b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
	suite.Require().NoError(b.Initialize(baseConfig))
	suite.Require().NoError(b.LoadStrategyFromFile(path))
	suite.Equal("file", b.predicate.Name())

	err := b.LoadStrategyFromFile(filepath.Join(dir, "strategy.wasm"))
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (suite *BacktestEngineV1TestSuite) TestStrategyEngineVersion() {
	original := version.Version
	defer func() { version.Version = original }()

	version.Version = "1.4.0"

	b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
	suite.Require().NoError(b.Initialize(baseConfig))

	suite.NoError(b.LoadStrategyFromBytes([]byte("name: ok\nengine_version: 1.4.2\nbuy: can_buy\n"), engine.StrategyTypeExpr))

	err := b.LoadStrategyFromBytes([]byte("name: old\nengine_version: 1.3.0\nbuy: can_buy\n"), engine.StrategyTypeExpr)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError), "got %v", err)
}

func (suite *BacktestEngineV1TestSuite) TestGetConfigSchema() {
	b := NewBacktestEngineV1()

	schema, err := b.GetConfigSchema()
	suite.Require().NoError(err)
	suite.Contains(schema, "backtest-engine-v1-config")
	suite.Contains(schema, "allocation")
}
