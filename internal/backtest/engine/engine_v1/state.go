package engine

import (
	"slices"
	"time"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
)

// Phase is the lifecycle position of one variant's order state.
type Phase string

const (
	PhaseFlat              Phase = "FLAT"
	PhaseBuyPending        Phase = "BUY_PENDING"
	PhaseHolding           Phase = "HOLDING"
	PhasePartialBuyPending Phase = "PARTIAL_BUY_PENDING"
	PhaseSellPending       Phase = "SELL_PENDING"
)

// PendingOrder is an order waiting for a fill.
type PendingOrder struct {
	Active bool
	Type   types.OrderType
	// RawPrice is the reference quote the order was anchored to.
	RawPrice float64
	// EffectivePrice is the tick-rounded limit price.
	EffectivePrice float64
	TickSize       float64
	Quantity       float64
	RepriceCount   int
	CancelAt       time.Time
	PlacedAt       time.Time
	Reason         types.ExitReason
}

// OrderState is the position and order book of one variant on one instrument.
// Buy opens or adds to the position and Sell reduces it, whatever the side.
type OrderState struct {
	Holding          bool
	Side             types.PositionType
	EntryPrice       float64
	ExitPrice        float64
	OrderQty         float64
	HeldQty          float64
	OriginalQty      float64
	HighProfitPct    float64
	LowProfitPct     float64
	EntryIndex       int
	EntryTime        time.Time
	EntryTimes       []time.Time
	EntryType        types.OrderType
	Buy              PendingOrder
	Sell             PendingOrder
	PartialBuyCount  int
	PartialSellCount int
	EntrySnapshot    types.MarketSnapshot
}

// NewOrderState returns the flat state every variant starts from and returns
// to after a full exit.
func NewOrderState() OrderState {
	return OrderState{
		Holding:          false,
		Side:             types.PositionTypeLong,
		EntryPrice:       0,
		ExitPrice:        0,
		OrderQty:         0,
		HeldQty:          0,
		OriginalQty:      0,
		HighProfitPct:    0,
		LowProfitPct:     0,
		EntryIndex:       -1,
		EntryTime:        time.Time{},
		EntryTimes:       nil,
		EntryType:        types.OrderTypeMarket,
		Buy:              PendingOrder{}, //nolint:exhaustruct // inactive order
		Sell:             PendingOrder{}, //nolint:exhaustruct // inactive order
		PartialBuyCount:  0,
		PartialSellCount: 0,
		EntrySnapshot:    types.MarketSnapshot{}, //nolint:exhaustruct // empty snapshot
	}
}

// Phase reports where the state sits in the order lifecycle.
func (s *OrderState) Phase() Phase {
	switch {
	case !s.Holding && s.Buy.Active:
		return PhaseBuyPending
	case !s.Holding:
		return PhaseFlat
	case s.Sell.Active:
		return PhaseSellPending
	case s.Buy.Active:
		return PhasePartialBuyPending
	default:
		return PhaseHolding
	}
}

// DayCounters are the per-day limits of one variant. They reset only at day
// boundaries.
type DayCounters struct {
	TradeCount       int
	StopLossCount    int
	LastExitTime     time.Time
	LastStopLossTime time.Time
}

// VariantState is everything the lifecycle tracks for one variant.
type VariantState struct {
	Variant types.Variant
	Order   OrderState
	Day     DayCounters
}

// StateTable holds the variant states of one instrument. It is owned by a
// single goroutine.
type StateTable map[types.VariantKey]*VariantState

// NewStateTable creates a flat state for every variant.
func NewStateTable(variants []types.Variant) StateTable {
	table := make(StateTable, len(variants))
	for _, variant := range variants {
		table[variant.VariantKey] = &VariantState{
			Variant: variant,
			Order:   NewOrderState(),
			Day:     DayCounters{}, //nolint:exhaustruct // zero counters
		}
	}

	return table
}

// Keys returns the variant keys in group, key order.
func (t StateTable) Keys() []types.VariantKey {
	keys := make([]types.VariantKey, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}

	slices.SortFunc(keys, func(a, b types.VariantKey) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})

	return keys
}
