package engine

import (
	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-tickbench/internal/feature"
	"github.com/rxtech-lab/argo-tickbench/internal/indicator"
	"github.com/rxtech-lab/argo-tickbench/internal/logger"
	"github.com/rxtech-lab/argo-tickbench/internal/runtime"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"go.uber.org/zap"
)

// instrumentRun replays the records of one instrument for every variant.
// It is owned by one worker goroutine.
type instrumentRun struct {
	symbol    string
	config    *BacktestEngineV1Config
	window    *feature.Window
	battery   *indicator.Battery
	lifecycle *Lifecycle
	policy    *EntryPolicy
	sizer     *Sizer
	predicate runtime.Predicate
	env       *runtime.Env
	table     StateTable
	keys      []types.VariantKey
	trades    []types.ClosedTrade
	strict    bool
	failure   error
	log       *logger.Logger
}

// runDeps are the run-wide objects shared read-only by every instrument.
type runDeps struct {
	config    *BacktestEngineV1Config
	variants  []types.Variant
	predicate runtime.Predicate
	fee       commission_fee.FeeModel
	sizer     *Sizer
	// strict keeps the first predicate error instead of skipping it.
	strict bool
	log    *logger.Logger
}

func newInstrumentRun(symbol string, ticks []types.Tick, deps runDeps) (*instrumentRun, error) {
	window, err := feature.NewWindow(symbol, ticks, feature.Config{
		Lookbacks:    Lookbacks(deps.variants),
		Columns:      deps.config.PrecomputeColumns,
		ResetEachDay: deps.config.ResetEachDay,
	})
	if err != nil {
		return nil, err
	}

	battery, err := indicator.NewBattery(deps.config.Indicators, deps.log)
	if err != nil {
		return nil, err
	}

	table := NewStateTable(deps.variants)

	run := &instrumentRun{
		symbol:    symbol,
		config:    deps.config,
		window:    window,
		battery:   battery,
		lifecycle: nil,
		policy:    nil,
		sizer:     deps.sizer,
		predicate: deps.predicate,
		env:       runtime.NewEnv(window),
		table:     table,
		keys:      table.Keys(),
		trades:    nil,
		strict:    deps.strict,
		failure:   nil,
		log:       deps.log,
	}

	run.lifecycle = NewLifecycle(symbol, *deps.config, deps.fee, deps.sizer, func(trade types.ClosedTrade) {
		run.trades = append(run.trades, trade)
	})
	run.policy = run.lifecycle.Policy()

	return run, nil
}

// Len returns the number of records of the instrument.
func (r *instrumentRun) Len() int {
	return r.window.Len()
}

// Drain returns and forgets the trades closed since the last call.
func (r *instrumentRun) Drain() []types.ClosedTrade {
	trades := r.trades
	r.trades = nil

	return trades
}

// Failure returns the first predicate error of a strict run.
func (r *instrumentRun) Failure() error {
	return r.failure
}

// Step processes the next record. It returns false once every record has
// been processed.
func (r *instrumentRun) Step() bool {
	if !r.window.Advance() {
		return false
	}

	index := r.window.Cursor()
	tick := r.window.Current()
	lastOfDay := r.window.IsLastOfDay()
	lastOfData := r.window.IsLast()

	r.env.SetTick(index, tick)
	r.env.Ind = r.indicators()

	for _, key := range r.keys {
		vs := r.table[key]
		r.processVariant(vs, tick, index, lastOfDay, lastOfData)

		if lastOfDay {
			vs.Day = DayCounters{} //nolint:exhaustruct // new day
		}
	}

	return true
}

func (r *instrumentRun) indicators() indicator.Snapshot {
	if len(r.battery.Active()) == 0 {
		return nil
	}

	return r.battery.Compute(indicator.SeriesFromTicks(r.window.Slice(r.battery.History())))
}

func (r *instrumentRun) processVariant(vs *VariantState, tick types.Tick, index int, lastOfDay, lastOfData bool) {
	r.lifecycle.ProcessPending(vs, tick, index)

	if lastOfData || (lastOfDay && r.config.Exit.DayEndLiquidation) {
		reason := types.ExitReasonEndOfData
		if lastOfDay && r.config.Exit.DayEndLiquidation {
			reason = types.ExitReasonDayEnd
		}

		r.lifecycle.Liquidate(vs, tick, reason)

		return
	}

	outcome := r.lifecycle.Mark(vs, tick)

	if r.lifecycle.CheckStopLoss(vs, tick, outcome) {
		return
	}

	if r.lifecycle.CheckLadder(vs, tick, outcome) {
		return
	}

	block := r.policy.Allow(tick, vs.Day)
	if vs.Order.Holding {
		block = r.policy.AllowTranche(tick, vs.Day)
	}

	r.fillEnv(vs, tick, outcome.ProfitPct, block)

	signals, err := r.predicate.Evaluate(r.env)
	if err != nil {
		if r.strict && r.failure == nil {
			r.failure = err
		}

		r.log.Debug("Predicate failed, no action taken",
			zap.String("symbol", r.symbol),
			zap.Int("group", vs.Variant.Group),
			zap.Int("key", vs.Variant.Key),
			zap.Int("index", index),
			zap.Error(err),
		)

		return
	}

	if !signals.Any() {
		return
	}

	r.route(vs, tick, index, signals, block)
}

func (r *instrumentRun) canAdd(s *OrderState, side types.PositionType) bool {
	return s.Holding && s.Side == side && !s.Buy.Active && !s.Sell.Active &&
		s.PartialBuyCount < r.sizer.EntryTranches()
}

func (r *instrumentRun) fillEnv(vs *VariantState, tick types.Tick, profitPct float64, block Block) {
	s := &vs.Order
	env := r.env

	r.window.SetEntryIndex(s.EntryIndex)
	env.SetVariant(vs.Variant)

	env.Holding = s.Holding
	env.Short = s.Holding && s.Side == types.PositionTypeShort
	env.EntryPrice = s.EntryPrice
	env.HeldQty = s.HeldQty
	env.ProfitPct = profitPct
	env.HighProfitPct = s.HighProfitPct
	env.LowProfitPct = s.LowProfitPct
	env.HoldSeconds = 0

	if s.Holding {
		env.HoldSeconds = int64(tick.Time.Sub(s.EntryTime).Seconds())
	}

	env.PartialBuyCount = s.PartialBuyCount
	env.PartialSellCount = s.PartialSellCount
	env.BuyPending = s.Buy.Active
	env.SellPending = s.Sell.Active
	env.TradesToday = vs.Day.TradeCount

	flat := s.Phase() == PhaseFlat
	allowed := block == BlockNone
	env.CanBuy = allowed && (flat || r.canAdd(s, types.PositionTypeLong))
	env.CanShort = allowed && r.config.AllowShort && (flat || r.canAdd(s, types.PositionTypeShort))
	env.CanSell = s.Holding && s.Side == types.PositionTypeLong && !s.Sell.Active
	env.CanCover = s.Holding && s.Side == types.PositionTypeShort && !s.Sell.Active
}

func (r *instrumentRun) route(vs *VariantState, tick types.Tick, index int, signals runtime.Signals, block Block) {
	s := &vs.Order

	switch s.Phase() {
	case PhaseFlat:
		if block != BlockNone {
			return
		}

		switch {
		case signals.Buy:
			r.lifecycle.Open(vs, types.PositionTypeLong, tick, index, r.weight(vs, tick))
		case signals.Short && r.config.AllowShort:
			r.lifecycle.Open(vs, types.PositionTypeShort, tick, index, r.weight(vs, tick))
		}
	case PhaseHolding:
		long := s.Side == types.PositionTypeLong

		if (long && signals.Sell) || (!long && signals.Cover) {
			r.lifecycle.PlaceExit(vs, tick, types.ExitReasonStrategy)

			return
		}

		if block != BlockNone {
			return
		}

		if ((long && signals.Buy) || (!long && signals.Short)) && r.canAdd(s, s.Side) {
			r.lifecycle.AddTranche(vs, tick, index, r.weight(vs, tick))
		}
	case PhaseBuyPending, PhasePartialBuyPending, PhaseSellPending:
	}
}

func (r *instrumentRun) weight(vs *VariantState, tick types.Tick) float64 {
	return r.sizer.Weight(tick, r.window, vs.Variant.Lookback())
}
