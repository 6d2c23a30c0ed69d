package collector

import (
	"time"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
)

// TradeColumns stores the closed trades of one variant column by column.
type TradeColumns struct {
	Symbol        []string
	Tag           []string
	EntryTime     []time.Time
	ExitTime      []time.Time
	HoldSeconds   []int64
	EntryPrice    []float64
	ExitPrice     []float64
	EntryNotional []float64
	ExitNotional  []float64
	Profit        []float64
	ProfitPct     []float64
	ExitReason    []types.ExitReason
	EntryTimes    [][]time.Time
	StillHeld     []bool
	EntrySnapshot []types.MarketSnapshot
	ExitSnapshot  []types.MarketSnapshot
}

// Len returns the number of rows.
func (c *TradeColumns) Len() int {
	return len(c.Symbol)
}

// Append adds trade as the last row.
func (c *TradeColumns) Append(trade types.ClosedTrade) {
	c.Symbol = append(c.Symbol, trade.Symbol)
	c.Tag = append(c.Tag, trade.Tag)
	c.EntryTime = append(c.EntryTime, trade.EntryTime)
	c.ExitTime = append(c.ExitTime, trade.ExitTime)
	c.HoldSeconds = append(c.HoldSeconds, trade.HoldSeconds)
	c.EntryPrice = append(c.EntryPrice, trade.EntryPrice)
	c.ExitPrice = append(c.ExitPrice, trade.ExitPrice)
	c.EntryNotional = append(c.EntryNotional, trade.EntryNotional)
	c.ExitNotional = append(c.ExitNotional, trade.ExitNotional)
	c.Profit = append(c.Profit, trade.Profit)
	c.ProfitPct = append(c.ProfitPct, trade.ProfitPct)
	c.ExitReason = append(c.ExitReason, trade.ExitReason)
	c.EntryTimes = append(c.EntryTimes, trade.EntryTimes)
	c.StillHeld = append(c.StillHeld, trade.StillHeld)
	c.EntrySnapshot = append(c.EntrySnapshot, trade.EntrySnapshot)
	c.ExitSnapshot = append(c.ExitSnapshot, trade.ExitSnapshot)
}

// Concat appends every row of other.
func (c *TradeColumns) Concat(other *TradeColumns) {
	c.Symbol = append(c.Symbol, other.Symbol...)
	c.Tag = append(c.Tag, other.Tag...)
	c.EntryTime = append(c.EntryTime, other.EntryTime...)
	c.ExitTime = append(c.ExitTime, other.ExitTime...)
	c.HoldSeconds = append(c.HoldSeconds, other.HoldSeconds...)
	c.EntryPrice = append(c.EntryPrice, other.EntryPrice...)
	c.ExitPrice = append(c.ExitPrice, other.ExitPrice...)
	c.EntryNotional = append(c.EntryNotional, other.EntryNotional...)
	c.ExitNotional = append(c.ExitNotional, other.ExitNotional...)
	c.Profit = append(c.Profit, other.Profit...)
	c.ProfitPct = append(c.ProfitPct, other.ProfitPct...)
	c.ExitReason = append(c.ExitReason, other.ExitReason...)
	c.EntryTimes = append(c.EntryTimes, other.EntryTimes...)
	c.StillHeld = append(c.StillHeld, other.StillHeld...)
	c.EntrySnapshot = append(c.EntrySnapshot, other.EntrySnapshot...)
	c.ExitSnapshot = append(c.ExitSnapshot, other.ExitSnapshot...)
}

// Row rebuilds row i as a trade record of variant key.
func (c *TradeColumns) Row(key types.VariantKey, i int) types.ClosedTrade {
	return types.ClosedTrade{
		Symbol:        c.Symbol[i],
		Tag:           c.Tag[i],
		EntryTime:     c.EntryTime[i],
		ExitTime:      c.ExitTime[i],
		HoldSeconds:   c.HoldSeconds[i],
		EntryPrice:    c.EntryPrice[i],
		ExitPrice:     c.ExitPrice[i],
		EntryNotional: c.EntryNotional[i],
		ExitNotional:  c.ExitNotional[i],
		Profit:        c.Profit[i],
		ProfitPct:     c.ProfitPct[i],
		ExitReason:    c.ExitReason[i],
		EntryTimes:    c.EntryTimes[i],
		StillHeld:     c.StillHeld[i],
		Variant:       key,
		EntrySnapshot: c.EntrySnapshot[i],
		ExitSnapshot:  c.ExitSnapshot[i],
	}
}

// Rows rebuilds every row in storage order.
func (c *TradeColumns) Rows(key types.VariantKey) []types.ClosedTrade {
	rows := make([]types.ClosedTrade, c.Len())
	for i := range rows {
		rows[i] = c.Row(key, i)
	}

	return rows
}
