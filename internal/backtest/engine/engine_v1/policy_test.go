package engine

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/stretchr/testify/suite"
)

type PolicyTestSuite struct {
	suite.Suite
}

func TestPolicySuite(t *testing.T) {
	suite.Run(t, new(PolicyTestSuite))
}

func (suite *PolicyTestSuite) TestAllow() {
	now := time.Date(2024, 1, 2, 9, 5, 0, 0, time.UTC)
	tick := types.Tick{Symbol: "AAA", Time: now, Price: 990, AttentionRank: 2}

	tests := []struct {
		name   string
		config EntryConfig
		tick   types.Tick
		day    DayCounters
		want   Block
	}{
		{name: "no rules", config: EntryConfig{}, tick: tick, want: BlockNone},
		{name: "outside attention", config: EntryConfig{AttentionTopN: 1}, tick: tick, want: BlockAttention},
		{name: "inside attention", config: EntryConfig{AttentionTopN: 3}, tick: tick, want: BlockNone},
		{name: "max trades", config: EntryConfig{MaxTradesPerDay: 1}, tick: tick, day: DayCounters{TradeCount: 1}, want: BlockMaxTrades},
		{name: "max stop losses", config: EntryConfig{MaxStopLossesPerDay: 2}, tick: tick, day: DayCounters{StopLossCount: 2}, want: BlockMaxStops},
		{name: "blackout", config: EntryConfig{Blackouts: []TimeRange{{Start: 90000, End: 91000}}}, tick: tick, want: BlockBlackout},
		{name: "after blackout", config: EntryConfig{Blackouts: []TimeRange{{Start: 90000, End: 90459}}}, tick: tick, want: BlockNone},
		{name: "blackout across midnight", config: EntryConfig{Blackouts: []TimeRange{{Start: 230000, End: 10000}}}, tick: types.Tick{Symbol: "AAA", Time: time.Date(2024, 1, 2, 23, 30, 0, 0, time.UTC), Price: 990}, want: BlockBlackout},
		{name: "early morning inside wrapped blackout", config: EntryConfig{Blackouts: []TimeRange{{Start: 230000, End: 10000}}}, tick: types.Tick{Symbol: "AAA", Time: time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC), Price: 990}, want: BlockBlackout},
		{name: "outside wrapped blackout", config: EntryConfig{Blackouts: []TimeRange{{Start: 230000, End: 10000}}}, tick: tick, want: BlockNone},
		{name: "exit gap", config: EntryConfig{MinSecondsAfterExit: 60}, tick: tick, day: DayCounters{LastExitTime: now.Add(-30 * time.Second)}, want: BlockExitGap},
		{name: "exit gap elapsed", config: EntryConfig{MinSecondsAfterExit: 60}, tick: tick, day: DayCounters{LastExitTime: now.Add(-60 * time.Second)}, want: BlockNone},
		{name: "stop gap", config: EntryConfig{MinSecondsAfterStop: 300}, tick: tick, day: DayCounters{LastStopLossTime: now.Add(-time.Minute)}, want: BlockStopGap},
		{name: "far from round figure", config: EntryConfig{RoundFigureTicks: 2, RoundFigureUnit: 1000}, tick: tick, want: BlockNone},
		{name: "below round figure", config: EntryConfig{RoundFigureTicks: 2, RoundFigureUnit: 1000}, tick: types.Tick{Symbol: "AAA", Time: now, Price: 999}, want: BlockRoundFigure},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			policy := NewEntryPolicy(tc.config, func(float64) float64 { return 1 })
			suite.Equal(tc.want, policy.Allow(tc.tick, tc.day))
		})
	}
}

func (suite *PolicyTestSuite) TestRulesApplyInOrder() {
	now := time.Date(2024, 1, 2, 9, 5, 0, 0, time.UTC)
	policy := NewEntryPolicy(EntryConfig{
		AttentionTopN:   1,
		MaxTradesPerDay: 1,
	}, func(float64) float64 { return 1 })

	block := policy.Allow(types.Tick{Symbol: "AAA", Time: now, Price: 10, AttentionRank: 5}, DayCounters{TradeCount: 3})
	suite.Equal(BlockAttention, block)
}

func (suite *PolicyTestSuite) TestAllowTranche() {
	now := time.Date(2024, 1, 2, 9, 5, 0, 0, time.UTC)
	tick := types.Tick{Symbol: "AAA", Time: now, Price: 990, AttentionRank: 2}
	full := DayCounters{TradeCount: 1, StopLossCount: 1}

	tests := []struct {
		name   string
		config EntryConfig
		tick   types.Tick
		want   Block
	}{
		{name: "daily caps do not apply", config: EntryConfig{MaxTradesPerDay: 1, MaxStopLossesPerDay: 1}, tick: tick, want: BlockNone},
		{name: "outside attention", config: EntryConfig{AttentionTopN: 1}, tick: tick, want: BlockAttention},
		{name: "blackout", config: EntryConfig{MaxTradesPerDay: 1, Blackouts: []TimeRange{{Start: 90000, End: 91000}}}, tick: tick, want: BlockBlackout},
		{name: "below round figure", config: EntryConfig{RoundFigureTicks: 2, RoundFigureUnit: 1000}, tick: types.Tick{Symbol: "AAA", Time: now, Price: 999}, want: BlockRoundFigure},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			policy := NewEntryPolicy(tc.config, func(float64) float64 { return 1 })
			suite.Equal(tc.want, policy.AllowTranche(tc.tick, full))
		})
	}
}
