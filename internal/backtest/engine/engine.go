package engine

import (
	"context"

	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/collector"
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-tickbench/internal/runtime"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called once the work has been partitioned.
type OnBacktestStartCallback func(totalVariants int, totalInstruments int, totalTicks int) error

// OnBacktestEndCallback is called when the backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnProcessDataCallback reports the ticks processed so far. Progress is best
// effort: updates may be skipped under load.
type OnProcessDataCallback func(current int, total int) error

// OnInstrumentErrorCallback is called when an instrument fails. The run
// continues with the remaining instruments.
type OnInstrumentErrorCallback func(symbol string, day int, err error)

// OnResultCallback is called with the merged result before it is written.
type OnResultCallback func(runID string, result collector.Result) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
// Callbacks are never invoked concurrently.
type LifecycleCallbacks struct {
	OnBacktestStart   *OnBacktestStartCallback
	OnBacktestEnd     *OnBacktestEndCallback
	OnProcessData     *OnProcessDataCallback
	OnInstrumentError *OnInstrumentErrorCallback
	OnResult          *OnResultCallback
}

// StrategyType selects how strategy bytes are interpreted.
type StrategyType string

const (
	StrategyTypeExpr StrategyType = "expr"
)

//nolint:interfacebloat // Engine is a core interface that naturally requires multiple methods
type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetDataSource sets the historical data source.
	SetDataSource(dataSource datasource.DataSource) error
	// SetResultsFolder sets the output directory. Each run writes into
	// <folder>/<run id>. An empty folder disables file output.
	SetResultsFolder(folder string) error
	// LoadStrategy sets the predicate evaluated for every variant.
	LoadStrategy(strategy runtime.Predicate) error
	// LoadStrategyFromFile loads a strategy source file.
	LoadStrategyFromFile(strategyPath string) error
	// LoadStrategyFromBytes loads a strategy from source bytes.
	LoadStrategyFromBytes(strategyBytes []byte, strategyType StrategyType) error
	// Validate checks the configuration, the variants and the strategy and
	// dry-runs the strategy against the first instrument, without producing results.
	Validate(ctx context.Context) error
	// Run runs the backtest. Cancelling ctx stops the workers and returns
	// without results.
	Run(ctx context.Context, callbacks LifecycleCallbacks) (collector.Result, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
