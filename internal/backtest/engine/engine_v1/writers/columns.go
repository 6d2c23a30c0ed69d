package writers

import (
	"time"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
)

// tradeColumns is the flat row layout shared by every trade sink.
var tradeColumns = []string{
	"variant_group", "variant_key", "symbol", "tag",
	"entry_time", "exit_time", "hold_seconds",
	"entry_price", "exit_price", "entry_notional", "exit_notional",
	"profit", "profit_pct", "exit_reason", "entry_count", "still_held",
	"entry_change_rate", "entry_trade_value", "entry_tick_strength", "entry_turnover",
	"entry_high_low_spread", "entry_depth_ratio", "entry_spread_pct",
	"exit_change_rate", "exit_trade_value", "exit_tick_strength", "exit_turnover",
	"exit_high_low_spread", "exit_depth_ratio", "exit_spread_pct",
}

// tradeRow flattens trade in tradeColumns order.
func tradeRow(trade types.ClosedTrade) []any {
	return []any{
		trade.Variant.Group, trade.Variant.Key, trade.Symbol, trade.Tag,
		trade.EntryTime.UTC(), trade.ExitTime.UTC(), trade.HoldSeconds,
		trade.EntryPrice, trade.ExitPrice, trade.EntryNotional, trade.ExitNotional,
		trade.Profit, trade.ProfitPct, string(trade.ExitReason), len(trade.EntryTimes), trade.StillHeld,
		trade.EntrySnapshot.ChangeRate, trade.EntrySnapshot.TradeValue, trade.EntrySnapshot.TickStrength,
		trade.EntrySnapshot.Turnover, trade.EntrySnapshot.HighLowSpread, trade.EntrySnapshot.DepthRatio,
		trade.EntrySnapshot.SpreadPct,
		trade.ExitSnapshot.ChangeRate, trade.ExitSnapshot.TradeValue, trade.ExitSnapshot.TickStrength,
		trade.ExitSnapshot.Turnover, trade.ExitSnapshot.HighLowSpread, trade.ExitSnapshot.DepthRatio,
		trade.ExitSnapshot.SpreadPct,
	}
}

func firstEntry(trade types.ClosedTrade) time.Time {
	if len(trade.EntryTimes) > 0 {
		return trade.EntryTimes[0]
	}

	return trade.EntryTime
}
