package engine

import (
	"testing"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/stretchr/testify/suite"
)

type FillTestSuite struct {
	suite.Suite
}

func TestFillSuite(t *testing.T) {
	suite.Run(t, new(FillTestSuite))
}

func (suite *FillTestSuite) TestFillAgainstDepth() {
	levels := []types.DepthLevel{{Price: 100, Quantity: 40}, {Price: 101, Quantity: 70}}

	tests := []struct {
		name     string
		quantity float64
		places   int
		ok       bool
		avg      float64
		notional float64
	}{
		{name: "single level", quantity: 30, places: 0, ok: true, avg: 100, notional: 3000},
		{name: "walks two levels", quantity: 100, places: 2, ok: true, avg: 100.6, notional: 10060},
		{name: "rounds to tick places", quantity: 100, places: 0, ok: true, avg: 101, notional: 10060},
		{name: "exactly the book", quantity: 110, places: 2, ok: true, avg: 100.64, notional: 11070},
		{name: "insufficient depth", quantity: 111, places: 2, ok: false},
		{name: "zero quantity", quantity: 0, places: 2, ok: false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			fill, ok := FillAgainstDepth(levels, tc.quantity, tc.places)
			suite.Equal(tc.ok, ok)

			if !tc.ok {
				suite.Equal(Fill{}, fill)

				return
			}

			suite.Equal(tc.quantity, fill.Quantity)
			suite.InDelta(tc.avg, fill.AvgPrice, 1e-9)
			suite.InDelta(tc.notional, fill.Notional, 1e-9)
			suite.GreaterOrEqual(fill.AvgPrice, levels[0].Price)
			suite.LessOrEqual(fill.AvgPrice, levels[1].Price)
		})
	}
}

func (suite *FillTestSuite) TestFillSkipsEmptyLevels() {
	levels := []types.DepthLevel{{Price: 0, Quantity: 0}, {Price: 50, Quantity: 10}}

	fill, ok := FillAgainstDepth(levels, 10, 0)
	suite.True(ok)
	suite.Equal(50.0, fill.AvgPrice)
}

func (suite *FillTestSuite) TestWeightedAverage() {
	suite.Equal(103.0, WeightedAverage(10, 100, 30, 104, 0))
	suite.InDelta(100.67, WeightedAverage(1, 100, 2, 101, 2), 1e-9)
	suite.Equal(0.0, WeightedAverage(0, 100, 0, 101, 2))
}

func (suite *FillTestSuite) TestBookSide() {
	tick := types.Tick{Symbol: "AAA", Price: 100}
	tick.Asks[0] = types.DepthLevel{Price: 101, Quantity: 1}
	tick.Bids[0] = types.DepthLevel{Price: 99, Quantity: 1}

	suite.Equal(101.0, bookSide(tick, types.PurchaseTypeBuy)[0].Price)
	suite.Equal(99.0, bookSide(tick, types.PurchaseTypeSell)[0].Price)
	suite.True(hasDepth(tick))
	suite.False(hasDepth(types.Tick{Symbol: "AAA", Price: 100}))
}
