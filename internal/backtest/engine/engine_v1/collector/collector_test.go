package collector

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type CollectorTestSuite struct {
	suite.Suite
	base time.Time
}

func TestCollectorSuite(t *testing.T) {
	suite.Run(t, new(CollectorTestSuite))
}

func (suite *CollectorTestSuite) SetupTest() {
	suite.base = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
}

func (suite *CollectorTestSuite) trade(symbol string, group, key int, entryMin, exitMin int, profit float64, stillHeld bool) types.ClosedTrade {
	entry := suite.base.Add(time.Duration(entryMin) * time.Minute)
	exit := suite.base.Add(time.Duration(exitMin) * time.Minute)

	return types.ClosedTrade{ //nolint:exhaustruct // snapshots are irrelevant here
		Symbol:      symbol,
		EntryTime:   entry,
		ExitTime:    exit,
		HoldSeconds: int64(exit.Sub(entry).Seconds()),
		EntryPrice:  100,
		ExitPrice:   100 + profit,
		Profit:      profit,
		ExitReason:  types.ExitReasonStrategy,
		EntryTimes:  []time.Time{entry},
		StillHeld:   stillHeld,
		Variant:     types.VariantKey{Group: group, Key: key},
	}
}

func (suite *CollectorTestSuite) TestCompleteFlushesOnlyNewData() {
	var flushed []*Partial
	c := New(60, func(p *Partial) { flushed = append(flushed, p) })

	suite.Equal(StateIdle, c.State())
	suite.False(c.Complete())

	c.Add([]types.ClosedTrade{suite.trade("AAA", 0, 0, 0, 5, 10, false)})
	suite.Equal(StateReceiving, c.State())
	suite.True(c.Complete())
	suite.Equal(StateFlushed, c.State())

	// a second completion without new data must not flush again
	suite.False(c.Complete())
	suite.Len(flushed, 1)

	c.Add([]types.ClosedTrade{suite.trade("BBB", 0, 0, 1, 2, -5, false)})
	suite.True(c.Complete())
	suite.Len(flushed, 2)
	suite.Equal(1, flushed[1].Trades[types.VariantKey{Group: 0, Key: 0}].Len())
}

func (suite *CollectorTestSuite) TestHeldSeriesCountsFinalExitsOnly() {
	p := NewPartial(60)
	p.Add(suite.trade("AAA", 0, 0, 0, 2, 5, true))
	p.Add(suite.trade("AAA", 0, 0, 0, 3, 5, false))
	p.Add(suite.trade("BBB", 0, 0, 2, 4, 5, false))

	result := Finalize(p)
	suite.Require().Len(result.Variants, 1)

	variant := result.Variants[0]
	suite.Len(variant.Trades, 3)
	suite.Equal(2, variant.MaxHeld)

	start := suite.base.Unix()
	suite.Equal([]HeldPoint{
		{Time: start, Count: 1},
		{Time: start + 60, Count: 1},
		{Time: start + 120, Count: 2},
		{Time: start + 180, Count: 2},
		{Time: start + 240, Count: 1},
	}, variant.Held)
}

func (suite *CollectorTestSuite) TestMergeIsOrderIndependent() {
	build := func(trades ...types.ClosedTrade) *Partial {
		p := NewPartial(60)
		for _, t := range trades {
			p.Add(t)
		}

		return p
	}

	a := []types.ClosedTrade{suite.trade("AAA", 0, 0, 0, 5, 10, false), suite.trade("AAA", 1, 0, 1, 3, -2, false)}
	b := []types.ClosedTrade{suite.trade("BBB", 0, 0, 2, 6, 4, false)}
	c := []types.ClosedTrade{suite.trade("CCC", 1, 0, 0, 1, 1, false)}

	left := build(a...)
	left.Merge(build(b...))
	left.Merge(build(c...))

	right := build(c...)
	bc := build(b...)
	bc.Merge(build(a...))
	right.Merge(bc)

	suite.Equal(Finalize(left), Finalize(right))
}

func (suite *CollectorTestSuite) TestResultOrderingAndStats() {
	p := NewPartial(60)
	p.Add(suite.trade("BBB", 1, 0, 0, 5, 10, false))
	p.Add(suite.trade("AAA", 0, 1, 0, 5, -4, false))
	p.Add(suite.trade("AAA", 0, 0, 0, 6, 6, false))
	p.Add(suite.trade("CCC", 0, 0, 0, 2, 2, false))
	p.Fail(Failure{Symbol: "ZZZ", Day: 0, Worker: 1, Message: "boom"})
	p.Fail(Failure{Symbol: "YYY", Day: 0, Worker: 0, Message: "boom"})

	result := Finalize(p)
	suite.Require().Len(result.Variants, 3)
	suite.Equal(types.VariantKey{Group: 0, Key: 0}, result.Variants[0].Variant)
	suite.Equal(types.VariantKey{Group: 0, Key: 1}, result.Variants[1].Variant)
	suite.Equal(types.VariantKey{Group: 1, Key: 0}, result.Variants[2].Variant)
	suite.Equal("CCC", result.Variants[0].Trades[0].Symbol)
	suite.Equal("AAA", result.Variants[0].Trades[1].Symbol)
	suite.Equal("YYY", result.Failures[0].Symbol)
	suite.Len(result.Trades(), 4)

	vars := map[types.VariantKey][]float64{{Group: 0, Key: 0}: {30, 5}}
	stats := result.Stats("run", suite.base, vars)
	suite.Require().Len(stats, 3)
	suite.Equal("run", stats[0].ID)
	suite.Equal([]float64{30, 5}, stats[0].Vars)
	suite.Equal(2, stats[0].TradeResult.NumberOfTrades)
	suite.Equal(8.0, stats[0].TradePnl.TotalProfit)
	suite.Equal(2, stats[0].MaxHeld)
}

func (suite *CollectorTestSuite) TestAggregatorEmitsOnce() {
	agg := NewAggregator(60)

	sub := New(60, func(p *Partial) { suite.Require().NoError(agg.Receive(p)) })
	sub.Add([]types.ClosedTrade{suite.trade("AAA", 0, 0, 0, 5, 10, false)})
	sub.Complete()

	result, err := agg.Result()
	suite.Require().NoError(err)
	suite.Len(result.Trades(), 1)

	_, err = agg.Result()
	suite.True(errors.HasCode(err, errors.ErrCodeCollectorClosed))

	err = agg.Receive(NewPartial(60))
	suite.True(errors.HasCode(err, errors.ErrCodeCollectorClosed))
}
