package engine

import (
	"time"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/internal/utils"
)

// Block names the rule that refused an entry.
type Block string

const (
	BlockNone        Block = ""
	BlockAttention   Block = "attention"
	BlockMaxTrades   Block = "max_trades"
	BlockMaxStops    Block = "max_stop_losses"
	BlockBlackout    Block = "blackout"
	BlockExitGap     Block = "exit_interval"
	BlockStopGap     Block = "stop_loss_interval"
	BlockRoundFigure Block = "round_figure"
)

// EntryPolicy decides whether a new position may be opened.
type EntryPolicy struct {
	config EntryConfig
	// tickSize returns the price increment at a price.
	tickSize func(price float64) float64
}

func NewEntryPolicy(config EntryConfig, tickSize func(price float64) float64) *EntryPolicy {
	return &EntryPolicy{
		config:   config,
		tickSize: tickSize,
	}
}

// InAttention reports whether the record is inside the attention list.
func (p *EntryPolicy) InAttention(tick types.Tick) bool {
	if p.config.AttentionTopN == 0 {
		return true
	}

	return tick.AttentionRank > 0 && tick.AttentionRank <= p.config.AttentionTopN
}

// Allow checks every entry rule in order and returns the first one that refuses.
func (p *EntryPolicy) Allow(tick types.Tick, day DayCounters) Block {
	if !p.InAttention(tick) {
		return BlockAttention
	}

	if p.config.MaxTradesPerDay > 0 && day.TradeCount >= p.config.MaxTradesPerDay {
		return BlockMaxTrades
	}

	if p.config.MaxStopLossesPerDay > 0 && day.StopLossCount >= p.config.MaxStopLossesPerDay {
		return BlockMaxStops
	}

	return p.marketRules(tick, day)
}

// AllowTranche gates adding to an open position. The daily caps count
// positions, so only the attention and market rules apply.
func (p *EntryPolicy) AllowTranche(tick types.Tick, day DayCounters) Block {
	if !p.InAttention(tick) {
		return BlockAttention
	}

	return p.marketRules(tick, day)
}

func (p *EntryPolicy) marketRules(tick types.Tick, day DayCounters) Block {
	timeOfDay := tick.TimeOfDay()
	for _, blackout := range p.config.Blackouts {
		if blackout.Contains(timeOfDay) {
			return BlockBlackout
		}
	}

	if within(tick.Time, day.LastExitTime, p.config.MinSecondsAfterExit) {
		return BlockExitGap
	}

	if within(tick.Time, day.LastStopLossTime, p.config.MinSecondsAfterStop) {
		return BlockStopGap
	}

	if p.nearRoundFigure(tick.Price) {
		return BlockRoundFigure
	}

	return BlockNone
}

func within(now, last time.Time, seconds int) bool {
	if seconds <= 0 || last.IsZero() {
		return false
	}

	return now.Sub(last) < time.Duration(seconds)*time.Second
}

// nearRoundFigure reports whether price sits within the configured ticks below
// the next round figure.
func (p *EntryPolicy) nearRoundFigure(price float64) bool {
	if p.config.RoundFigureTicks == 0 || p.config.RoundFigureUnit == 0 || price <= 0 {
		return false
	}

	next := utils.NextRoundFigure(price, p.config.RoundFigureUnit)

	return next-price <= float64(p.config.RoundFigureTicks)*p.tickSize(price)
}
