package engine

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/collector"
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-tickbench/internal/logger"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
	"go.uber.org/zap"
)

const (
	// tradeBatchSize is the most trades carried by one message.
	tradeBatchSize = 512
	// progressInterval is the number of ticks between progress reports.
	progressInterval = 1000
)

// Message carries the output of one unit from a worker to the aggregators.
// The last message of a unit has Done set.
type Message struct {
	Worker  int
	Unit    Unit
	Trades  []types.ClosedTrade
	Failure *collector.Failure
	Done    bool
}

// Progress counts the ticks a worker processed since its previous report.
type Progress struct {
	Worker int
	Ticks  int
}

// InstrumentError is a failure confined to one unit of work.
type InstrumentError struct {
	Symbol string
	Day    int
	Worker int
	Err    error
}

func (e *InstrumentError) Error() string {
	if e.Day != 0 {
		return fmt.Sprintf("instrument %s day %d failed: %v", e.Symbol, e.Day, e.Err)
	}

	return fmt.Sprintf("instrument %s failed: %v", e.Symbol, e.Err)
}

func (e *InstrumentError) Unwrap() error {
	return e.Err
}

// worker replays its job unit by unit. Trades of a unit are only sent once
// the unit completed, so a failing unit contributes nothing but its failure.
type worker struct {
	id       int
	deps     runDeps
	source   datasource.DataSource
	rng      datasource.Range
	out      chan<- Message
	progress chan<- Progress
	log      *logger.Logger
}

func (w *worker) run(ctx context.Context, job Job) error {
	w.log.Debug("Worker started",
		zap.Int("units", len(job.Units)),
		zap.Int("ticks", job.Ticks),
	)

	for _, unit := range job.Units {
		if err := ctx.Err(); err != nil {
			return err
		}

		trades, err := w.runUnit(ctx, unit)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			var instErr *InstrumentError
			if !errors.As(err, &instErr) {
				return err
			}

			w.log.Warn("Instrument failed",
				zap.String("symbol", unit.Symbol),
				zap.Int("day", unit.Day),
				zap.Error(err),
			)

			failure := &collector.Failure{
				Symbol:  unit.Symbol,
				Day:     unit.Day,
				Worker:  w.id,
				Message: instErr.Err.Error(),
			}

			if err := w.send(ctx, Message{Worker: w.id, Unit: unit, Trades: nil, Failure: failure, Done: true}); err != nil {
				return err
			}

			continue
		}

		if err := w.emit(ctx, unit, trades); err != nil {
			return err
		}
	}

	return nil
}

// runUnit replays one unit. Panics are recovered into an InstrumentError.
func (w *worker) runUnit(ctx context.Context, unit Unit) (trades []types.ClosedTrade, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			trades = nil
			err = &InstrumentError{
				Symbol: unit.Symbol,
				Day:    unit.Day,
				Worker: w.id,
				Err:    errors.Newf(errors.ErrCodeInstrumentFailed, "panic: %v", recovered),
			}
		}
	}()

	rng := w.rng
	if unit.Day != 0 {
		rng = rng.WithDay(unit.Day)
	}

	ticks, err := w.source.Load(ctx, unit.Symbol, rng)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, &InstrumentError{Symbol: unit.Symbol, Day: unit.Day, Worker: w.id, Err: err}
	}

	run, err := newInstrumentRun(unit.Symbol, ticks, w.deps)
	if err != nil {
		return nil, &InstrumentError{Symbol: unit.Symbol, Day: unit.Day, Worker: w.id, Err: err}
	}

	pending := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !run.Step() {
			break
		}

		pending++
		if pending >= progressInterval {
			w.report(pending)
			pending = 0
		}
	}

	w.report(pending)

	if err := run.Failure(); err != nil {
		return nil, err
	}

	return run.Drain(), nil
}

func (w *worker) emit(ctx context.Context, unit Unit, trades []types.ClosedTrade) error {
	for start := 0; start < len(trades); start += tradeBatchSize {
		end := min(start+tradeBatchSize, len(trades))

		msg := Message{Worker: w.id, Unit: unit, Trades: trades[start:end], Failure: nil, Done: false}
		if err := w.send(ctx, msg); err != nil {
			return err
		}
	}

	return w.send(ctx, Message{Worker: w.id, Unit: unit, Trades: nil, Failure: nil, Done: true})
}

// send blocks until the aggregators accept msg or the run is cancelled.
func (w *worker) send(ctx context.Context, msg Message) error {
	select {
	case w.out <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// report drops the update when the progress consumer is behind.
func (w *worker) report(ticks int) {
	if ticks == 0 || w.progress == nil {
		return
	}

	select {
	case w.progress <- Progress{Worker: w.id, Ticks: ticks}:
	default:
	}
}
