package types

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

type TradeHoldingTime struct {
	// Minimum holding time of a trade in seconds
	Min int64 `yaml:"min"`
	// Maximum holding time of a trade in seconds
	Max int64 `yaml:"max"`
	// Average holding time of a trade in seconds
	Avg int64 `yaml:"avg"`
}

type TradeResult struct {
	// Count of exit fills, partial exits included.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of exits with positive profit.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of exits with negative profit.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Win rate in percent.
	WinRate float64 `yaml:"win_rate"`
	// Count of exits caused by the stop-loss.
	NumberOfStopLosses int `yaml:"number_of_stop_losses"`
}

type TradePnl struct {
	// Sum of realized profit.
	TotalProfit float64 `yaml:"total_profit"`
	// Sum of realized profit percent across exits.
	TotalProfitPct float64 `yaml:"total_profit_pct"`
	// Average realized profit percent per exit.
	AvgProfitPct float64 `yaml:"avg_profit_pct"`
	// Worst single exit.
	MaximumLoss float64 `yaml:"maximum_loss"`
	// Best single exit.
	MaximumProfit float64 `yaml:"maximum_profit"`
	// Largest peak-to-trough drop of cumulative profit.
	MaxDrawdown float64 `yaml:"max_drawdown"`
}

// VariantStats summarizes the closed trades of one variant.
type VariantStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Variant is the (group, key) pair the stats belong to.
	Variant VariantKey `yaml:"variant" json:"variant"`
	// Vars is the parameter vector of the variant.
	Vars []float64 `yaml:"vars" json:"vars"`
	// Result of all exits.
	TradeResult TradeResult `yaml:"trade_result"`
	// Holding time of all exits.
	TradeHoldingTime TradeHoldingTime `yaml:"trade_holding_time"`
	// PnL of all exits.
	TradePnl TradePnl `yaml:"trade_pnl"`
	// MaxHeld is the highest number of instruments held at the same time.
	MaxHeld int `yaml:"max_held"`
	// TradesFilePath is the path to the trades parquet file.
	TradesFilePath string `yaml:"trades_file_path" json:"trades_file_path"`
}

// ComputeVariantStats derives the trade statistics of one variant from its closed trades.
func ComputeVariantStats(key VariantKey, trades []ClosedTrade) VariantStats {
	stats := VariantStats{Variant: key} //nolint:exhaustruct // remaining fields are accumulated below
	if len(trades) == 0 {
		return stats
	}

	ordered := make([]ClosedTrade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExitTime.Before(ordered[j].ExitTime)
	})

	stats.TradePnl.MaximumLoss = math.Inf(1)
	stats.TradePnl.MaximumProfit = math.Inf(-1)
	stats.TradeHoldingTime.Min = math.MaxInt64

	var cumulative, peak, holdSum float64

	for _, t := range ordered {
		stats.TradeResult.NumberOfTrades++

		switch {
		case t.Profit > 0:
			stats.TradeResult.NumberOfWinningTrades++
		case t.Profit < 0:
			stats.TradeResult.NumberOfLosingTrades++
		}

		if t.ExitReason == ExitReasonStopLoss {
			stats.TradeResult.NumberOfStopLosses++
		}

		stats.TradePnl.TotalProfit += t.Profit
		stats.TradePnl.TotalProfitPct += t.ProfitPct
		stats.TradePnl.MaximumLoss = math.Min(stats.TradePnl.MaximumLoss, t.Profit)
		stats.TradePnl.MaximumProfit = math.Max(stats.TradePnl.MaximumProfit, t.Profit)

		cumulative += t.Profit
		peak = math.Max(peak, cumulative)
		stats.TradePnl.MaxDrawdown = math.Max(stats.TradePnl.MaxDrawdown, peak-cumulative)

		if t.HoldSeconds < stats.TradeHoldingTime.Min {
			stats.TradeHoldingTime.Min = t.HoldSeconds
		}

		if t.HoldSeconds > stats.TradeHoldingTime.Max {
			stats.TradeHoldingTime.Max = t.HoldSeconds
		}

		holdSum += float64(t.HoldSeconds)
	}

	n := float64(stats.TradeResult.NumberOfTrades)
	stats.TradeResult.WinRate = math.Round(float64(stats.TradeResult.NumberOfWinningTrades)/n*10000) / 100
	stats.TradePnl.AvgProfitPct = math.Round(stats.TradePnl.TotalProfitPct/n*100) / 100
	stats.TradeHoldingTime.Avg = int64(math.Round(holdSum / n))

	return stats
}

func WriteVariantStats(path string, stats []VariantStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal variant stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write variant stats to file: %w", err)
	}

	return nil
}
