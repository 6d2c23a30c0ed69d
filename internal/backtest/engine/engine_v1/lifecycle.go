package engine

import (
	"strings"
	"time"

	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/internal/utils"
	"github.com/shopspring/decimal"
)

const quantityEpsilon = 1e-9

// futuresPricePlaces is the precision kept for derivative fill prices.
const futuresPricePlaces = 4

// Lifecycle applies orders, fills and exits to the variant states of one
// instrument. It is not safe for concurrent use.
type Lifecycle struct {
	symbol     string
	venue      commission_fee.Venue
	fee        commission_fee.FeeModel
	entry      EntryConfig
	exit       ExitConfig
	minuteBars bool
	fixedTick  float64
	tags       map[string]string
	sizer      *Sizer
	policy     *EntryPolicy
	emit       func(types.ClosedTrade)
}

// NewLifecycle builds the lifecycle for symbol. Every closed trade is passed to emit.
func NewLifecycle(symbol string, config BacktestEngineV1Config, fee commission_fee.FeeModel, sizer *Sizer, emit func(types.ClosedTrade)) *Lifecycle {
	l := &Lifecycle{
		symbol:     symbol,
		venue:      config.Venue,
		fee:        fee,
		entry:      config.Entry,
		exit:       config.Exit,
		minuteBars: config.MinuteBars,
		fixedTick:  config.TickSize,
		tags:       config.SymbolTags,
		sizer:      sizer,
		policy:     nil,
		emit:       emit,
	}
	l.policy = NewEntryPolicy(config.Entry, l.TickSize)

	return l
}

// Policy returns the entry policy bound to this instrument's tick sizes.
func (l *Lifecycle) Policy() *EntryPolicy {
	return l.policy
}

// TickSize returns the price increment at price.
func (l *Lifecycle) TickSize(price float64) float64 {
	return utils.TickSize(l.venue, price, l.fixedTick)
}

func (l *Lifecycle) pricePlaces(price float64) int {
	if l.venue == commission_fee.VenueFutures {
		return futuresPricePlaces
	}

	return utils.DecimalPlaces(l.TickSize(price))
}

// Unrealized settles the held quantity at price without changing the state.
func (l *Lifecycle) Unrealized(s *OrderState, price float64) commission_fee.Outcome {
	if !s.Holding || s.HeldQty <= 0 {
		return commission_fee.Outcome{}
	}

	return l.fee.Settle(commission_fee.Settlement{
		EntryNotional: notional(s.HeldQty, s.EntryPrice),
		ExitNotional:  notional(s.HeldQty, price),
		Side:          s.Side,
		EntryType:     s.EntryType,
		ExitType:      l.exit.OrderType,
	})
}

// Mark refreshes the profit water marks at the current price.
func (l *Lifecycle) Mark(vs *VariantState, tick types.Tick) commission_fee.Outcome {
	s := &vs.Order
	outcome := l.Unrealized(s, tick.Price)

	if s.Holding {
		s.HighProfitPct = max(s.HighProfitPct, outcome.ProfitPct)
		s.LowProfitPct = min(s.LowProfitPct, outcome.ProfitPct)
	}

	return outcome
}

// Open sizes and places the first entry order of a position.
func (l *Lifecycle) Open(vs *VariantState, side types.PositionType, tick types.Tick, index int, weight float64) bool {
	qty := l.sizer.EntryQuantity(tick.Price, weight, 0)
	if qty <= 0 {
		return false
	}

	vs.Order.Side = side
	l.placeEntry(vs, tick, index, qty)

	return true
}

// AddTranche places the next entry tranche of a held position.
func (l *Lifecycle) AddTranche(vs *VariantState, tick types.Tick, index int, weight float64) bool {
	qty := l.sizer.EntryQuantity(tick.Price, weight, vs.Order.PartialBuyCount)
	if qty <= 0 {
		return false
	}

	l.placeEntry(vs, tick, index, qty)

	return true
}

// PlaceExit places the next exit tranche with reason.
func (l *Lifecycle) PlaceExit(vs *VariantState, tick types.Tick, reason types.ExitReason) {
	s := &vs.Order
	qty := l.sizer.ExitQuantity(s)

	order := l.newOrder(l.exit.OrderType, l.exit.Limit, s.Side.ExitSide(), tick, qty)
	order.Reason = reason
	s.Sell = order
	s.OrderQty = qty

	if order.Type == types.OrderTypeMarket {
		l.tryFillExit(vs, tick)
	}
}

// CheckStopLoss forces a full market liquidation when the loss limit is hit.
// It returns true while a stop-loss liquidation is in progress.
func (l *Lifecycle) CheckStopLoss(vs *VariantState, tick types.Tick, outcome commission_fee.Outcome) bool {
	s := &vs.Order
	if !s.Holding {
		return false
	}

	if s.Sell.Active && s.Sell.Reason == types.ExitReasonStopLoss {
		return true
	}

	triggered := (l.exit.StopLossPct > 0 && outcome.ProfitPct <= -l.exit.StopLossPct) ||
		(l.exit.StopLossAmount > 0 && outcome.Profit <= -l.exit.StopLossAmount)
	if !triggered {
		return false
	}

	s.Buy = PendingOrder{} //nolint:exhaustruct // cancelled
	s.Sell = PendingOrder{
		Active:         true,
		Type:           types.OrderTypeMarket,
		RawPrice:       tick.Price,
		EffectivePrice: tick.Price,
		TickSize:       l.TickSize(tick.Price),
		Quantity:       s.HeldQty,
		RepriceCount:   0,
		CancelAt:       time.Time{},
		PlacedAt:       tick.Time,
		Reason:         types.ExitReasonStopLoss,
	}
	s.OrderQty = s.HeldQty
	vs.Day.StopLossCount++
	vs.Day.LastStopLossTime = tick.Time

	l.tryFillExit(vs, tick)

	return true
}

// CheckLadder places a tranche exit when profit or loss reaches the next step.
func (l *Lifecycle) CheckLadder(vs *VariantState, tick types.Tick, outcome commission_fee.Outcome) bool {
	s := &vs.Order
	if !s.Holding || s.Sell.Active {
		return false
	}

	step := float64(s.PartialSellCount + 1)
	profitHit := l.exit.Ladder.ProfitStepPct > 0 && outcome.ProfitPct >= l.exit.Ladder.ProfitStepPct*step
	lossHit := l.exit.Ladder.LossStepPct > 0 && outcome.ProfitPct <= -l.exit.Ladder.LossStepPct*step

	if !profitHit && !lossHit {
		return false
	}

	l.PlaceExit(vs, tick, types.ExitReasonLadder)

	return true
}

// ProcessPending advances pending orders placed on earlier records.
func (l *Lifecycle) ProcessPending(vs *VariantState, tick types.Tick, index int) {
	if vs.Order.Buy.Active {
		l.processEntry(vs, tick, index)
	}

	if vs.Order.Sell.Active && vs.Order.Holding {
		l.processExit(vs, tick)
	}
}

// Liquidate drops pending orders and closes the position at the record price.
func (l *Lifecycle) Liquidate(vs *VariantState, tick types.Tick, reason types.ExitReason) {
	s := &vs.Order
	s.Buy = PendingOrder{}  //nolint:exhaustruct // dropped
	s.Sell = PendingOrder{} //nolint:exhaustruct // dropped

	if s.Holding {
		l.applyExitFill(vs, tick, s.HeldQty, tick.Price, reason, types.OrderTypeMarket)
	}

	vs.Order = NewOrderState()
}

func (l *Lifecycle) placeEntry(vs *VariantState, tick types.Tick, index int, qty float64) {
	s := &vs.Order
	s.Buy = l.newOrder(l.entry.OrderType, l.entry.Limit, s.Side.EntrySide(), tick, qty)
	s.OrderQty = qty

	if s.Buy.Type == types.OrderTypeMarket {
		l.tryFillEntry(vs, tick, index)
	}
}

func (l *Lifecycle) processEntry(vs *VariantState, tick types.Tick, index int) {
	order := &vs.Order.Buy
	if order.Type != types.OrderTypeLimit {
		l.tryFillEntry(vs, tick, index)

		return
	}

	if l.entry.CancelOnAttentionExit && !l.policy.InAttention(tick) {
		vs.Order.Buy = PendingOrder{} //nolint:exhaustruct // cancelled

		return
	}

	if expired(order, tick) {
		vs.Order.Buy = PendingOrder{} //nolint:exhaustruct // cancelled

		return
	}

	side := vs.Order.Side.EntrySide()
	l.maybeReprice(order, l.entry.Limit, side, tick)

	if price, ok := l.limitCrossed(order, side, tick); ok {
		l.applyEntryFill(vs, tick, index, order.Quantity, price, types.OrderTypeLimit)
	}
}

func (l *Lifecycle) processExit(vs *VariantState, tick types.Tick) {
	order := &vs.Order.Sell

	if order.Type == types.OrderTypeLimit && expired(order, tick) {
		// an exit that timed out is not dropped, it falls back to the market
		order.Type = types.OrderTypeMarket
	}

	if order.Type != types.OrderTypeLimit {
		l.tryFillExit(vs, tick)

		return
	}

	side := vs.Order.Side.ExitSide()
	l.maybeReprice(order, l.exit.Limit, side, tick)

	if price, ok := l.limitCrossed(order, side, tick); ok {
		l.applyExitFill(vs, tick, order.Quantity, price, order.Reason, types.OrderTypeLimit)
	}
}

func expired(order *PendingOrder, tick types.Tick) bool {
	return !order.CancelAt.IsZero() && tick.Time.After(order.CancelAt)
}

func (l *Lifecycle) tryFillEntry(vs *VariantState, tick types.Tick, index int) {
	order := vs.Order.Buy

	fill, ok := l.marketFill(tick, vs.Order.Side.EntrySide(), order.Quantity)
	if !ok {
		return
	}

	l.applyEntryFill(vs, tick, index, fill.Quantity, fill.AvgPrice, types.OrderTypeMarket)
}

func (l *Lifecycle) tryFillExit(vs *VariantState, tick types.Tick) {
	order := vs.Order.Sell

	fill, ok := l.marketFill(tick, vs.Order.Side.ExitSide(), order.Quantity)
	if !ok {
		return
	}

	l.applyExitFill(vs, tick, fill.Quantity, fill.AvgPrice, order.Reason, types.OrderTypeMarket)
}

// marketFill walks the book. Records without any depth fill at their price.
func (l *Lifecycle) marketFill(tick types.Tick, side types.PurchaseType, qty float64) (Fill, bool) {
	if qty <= 0 {
		return Fill{}, false
	}

	if !hasDepth(tick) {
		return Fill{
			Quantity: qty,
			Notional: notional(qty, tick.Price),
			AvgPrice: tick.Price,
		}, tick.Price > 0
	}

	return FillAgainstDepth(bookSide(tick, side), qty, l.pricePlaces(tick.Price))
}

func (l *Lifecycle) newOrder(orderType types.OrderType, limit LimitConfig, side types.PurchaseType, tick types.Tick, qty float64) PendingOrder {
	order := PendingOrder{
		Active:         true,
		Type:           orderType,
		RawPrice:       tick.Price,
		EffectivePrice: tick.Price,
		TickSize:       l.TickSize(tick.Price),
		Quantity:       qty,
		RepriceCount:   0,
		CancelAt:       time.Time{},
		PlacedAt:       tick.Time,
		Reason:         types.ExitReasonStrategy,
	}

	if orderType != types.OrderTypeLimit {
		order.Type = types.OrderTypeMarket

		return order
	}

	l.quote(&order, limit, side, tick)

	if limit.CancelAfterSeconds > 0 {
		order.CancelAt = tick.Time.Add(time.Duration(limit.CancelAfterSeconds) * time.Second)
	}

	return order
}

// quote anchors a limit order to its reference price, offset by whole ticks
// (up for buys, down for sells).
func (l *Lifecycle) quote(order *PendingOrder, limit LimitConfig, side types.PurchaseType, tick types.Tick) {
	reference := tick.Price

	switch limit.Reference {
	case types.PriceReferenceBestAsk:
		if ask := tick.BestAsk(); ask > 0 {
			reference = ask
		}
	case types.PriceReferenceBestBid:
		if bid := tick.BestBid(); bid > 0 {
			reference = bid
		}
	case types.PriceReferenceCurrent:
	}

	tickSize := l.TickSize(reference)
	offset := float64(limit.OffsetTicks) * tickSize

	price := reference + offset
	if side == types.PurchaseTypeSell {
		price = reference - offset
	}

	order.RawPrice = reference
	order.TickSize = tickSize
	order.EffectivePrice = utils.RoundToTick(price, tickSize)
}

// maybeReprice chases the market when it ran away from the order: buys follow
// the price up, sells follow it down.
func (l *Lifecycle) maybeReprice(order *PendingOrder, limit LimitConfig, side types.PurchaseType, tick types.Tick) {
	if order.RepriceCount >= limit.RepriceMax {
		return
	}

	threshold := float64(limit.RepriceThresholdTicks) * order.TickSize

	var moved float64
	if side == types.PurchaseTypeBuy {
		moved = tick.Price - order.EffectivePrice
	} else {
		moved = order.EffectivePrice - tick.Price
	}

	if moved <= threshold {
		return
	}

	l.quote(order, limit, side, tick)
	order.RepriceCount++
}

// limitCrossed reports whether the record trades through the limit price and
// the price the order fills at.
func (l *Lifecycle) limitCrossed(order *PendingOrder, side types.PurchaseType, tick types.Tick) (float64, bool) {
	price := order.EffectivePrice

	if !l.minuteBars {
		if side == types.PurchaseTypeBuy {
			return price, tick.Price > 0 && tick.Price <= price
		}

		return price, tick.Price >= price
	}

	crossed := tick.High >= price
	if side == types.PurchaseTypeBuy {
		crossed = tick.Low > 0 && tick.Low <= price
	}

	if !crossed {
		return 0, false
	}

	return min(max(price, tick.Low), tick.High), true
}

func (l *Lifecycle) applyEntryFill(vs *VariantState, tick types.Tick, index int, qty, price float64, orderType types.OrderType) {
	s := &vs.Order

	if !s.Holding {
		s.Holding = true
		s.EntryPrice = price
		s.HeldQty = qty
		s.OriginalQty = qty
		s.EntryIndex = index
		s.EntryTime = tick.Time
		s.EntryTimes = []time.Time{tick.Time}
		s.EntryType = orderType
		s.EntrySnapshot = tick.Snapshot()
		s.PartialBuyCount = 1
		s.HighProfitPct = 0
		s.LowProfitPct = 0
		vs.Day.TradeCount++
	} else {
		s.EntryPrice = WeightedAverage(s.HeldQty, s.EntryPrice, qty, price, l.pricePlaces(price))
		s.HeldQty += qty
		s.OriginalQty = max(s.OriginalQty, s.HeldQty)
		s.EntryTimes = append(s.EntryTimes, tick.Time)
		s.PartialBuyCount++
	}

	s.Buy = PendingOrder{} //nolint:exhaustruct // filled
}

func (l *Lifecycle) applyExitFill(vs *VariantState, tick types.Tick, qty, price float64, reason types.ExitReason, orderType types.OrderType) {
	s := &vs.Order
	qty = min(qty, s.HeldQty)

	entryNotional := notional(qty, s.EntryPrice)
	exitNotional := notional(qty, price)

	outcome := l.fee.Settle(commission_fee.Settlement{
		EntryNotional: entryNotional,
		ExitNotional:  exitNotional,
		Side:          s.Side,
		EntryType:     s.EntryType,
		ExitType:      orderType,
	})

	remaining := s.HeldQty - qty
	stillHeld := remaining > quantityEpsilon

	l.emit(types.ClosedTrade{
		Symbol:        l.symbol,
		Tag:           l.tag(s.Side),
		EntryTime:     s.EntryTime,
		ExitTime:      tick.Time,
		HoldSeconds:   int64(tick.Time.Sub(s.EntryTime) / time.Second),
		EntryPrice:    s.EntryPrice,
		ExitPrice:     price,
		EntryNotional: entryNotional,
		ExitNotional:  exitNotional,
		Profit:        outcome.Profit,
		ProfitPct:     outcome.ProfitPct,
		ExitReason:    reason,
		EntryTimes:    append([]time.Time(nil), s.EntryTimes...),
		StillHeld:     stillHeld,
		Variant:       vs.Variant.VariantKey,
		EntrySnapshot: s.EntrySnapshot,
		ExitSnapshot:  tick.Snapshot(),
	})

	s.Sell = PendingOrder{} //nolint:exhaustruct // filled

	if stillHeld {
		s.HeldQty = remaining
		s.ExitPrice = price
		s.PartialSellCount++

		return
	}

	vs.Day.LastExitTime = tick.Time
	if reason == types.ExitReasonStopLoss {
		vs.Day.LastStopLossTime = tick.Time
	}

	vs.Order = NewOrderState()
}

func (l *Lifecycle) tag(side types.PositionType) string {
	if l.venue == commission_fee.VenueFutures {
		return strings.ToLower(string(side))
	}

	return l.tags[l.symbol]
}

func notional(qty, price float64) float64 {
	return decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}
