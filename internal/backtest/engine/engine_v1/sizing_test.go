package engine

import (
	"testing"

	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SizingTestSuite struct {
	suite.Suite
}

func TestSizingSuite(t *testing.T) {
	suite.Run(t, new(SizingTestSuite))
}

func (suite *SizingTestSuite) TestValidation() {
	tests := []struct {
		name   string
		mutate func(config *BacktestEngineV1Config)
		code   errors.ErrorCode
	}{
		{name: "tranche above one", mutate: func(c *BacktestEngineV1Config) { c.Entry.Tranches = []float64{1.5} }, code: errors.ErrCodeInvalidTrancheRatios},
		{name: "tranche sum above one", mutate: func(c *BacktestEngineV1Config) { c.Exit.Tranches = []float64{0.6, 0.6} }, code: errors.ErrCodeInvalidTrancheRatios},
		{name: "zero tranche", mutate: func(c *BacktestEngineV1Config) { c.Entry.Tranches = []float64{0} }, code: errors.ErrCodeInvalidTrancheRatios},
		{name: "unknown weighting key", mutate: func(c *BacktestEngineV1Config) { c.Entry.Weighting.Key = "moon_phase" }, code: errors.ErrCodeInvalidWeightingTiers},
		{name: "weighting without tiers", mutate: func(c *BacktestEngineV1Config) { c.Entry.Weighting.Key = WeightKeyTurnover }, code: errors.ErrCodeInvalidWeightingTiers},
		{name: "tiers not ascending", mutate: func(c *BacktestEngineV1Config) {
			c.Entry.Weighting = WeightingConfig{Key: WeightKeyTurnover, Tiers: []WeightTier{{Min: 2, Weight: 1}, {Min: 1, Weight: 1}}}
		}, code: errors.ErrCodeInvalidWeightingTiers},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := TestConfig(1000, commission_fee.VenueFlat)
			tc.mutate(&config)

			_, err := NewSizer(config)
			suite.Error(err)
			suite.True(errors.HasCode(err, tc.code))
		})
	}
}

func (suite *SizingTestSuite) TestEntryQuantity() {
	config := TestConfig(1000, commission_fee.VenueSpot)
	config.DecimalPrecision = 2

	sizer, err := NewSizer(config)
	suite.Require().NoError(err)

	suite.Equal(3.33, sizer.EntryQuantity(300, 1, 0))
	suite.Equal(0.0, sizer.EntryQuantity(300, 1, 1))
	suite.Equal(0.0, sizer.EntryQuantity(0, 1, 0))
	suite.Equal(1, sizer.EntryTranches())

	equity, err := NewSizer(TestConfig(1000, commission_fee.VenueEquity))
	suite.Require().NoError(err)
	suite.Equal(3.0, equity.EntryQuantity(300, 1, 0))
}

func (suite *SizingTestSuite) TestExitQuantity() {
	config := TestConfig(1000, commission_fee.VenueFlat)
	config.Exit.Tranches = []float64{0.3, 0.3, 0.4}

	sizer, err := NewSizer(config)
	suite.Require().NoError(err)

	state := NewOrderState()
	state.Holding = true
	state.HeldQty = 10
	state.OriginalQty = 10

	suite.Equal(3.0, sizer.ExitQuantity(&state))

	state.PartialSellCount = 1
	state.HeldQty = 7
	suite.Equal(3.0, sizer.ExitQuantity(&state))

	state.PartialSellCount = 2
	state.HeldQty = 4
	suite.Equal(4.0, sizer.ExitQuantity(&state))

	// a tranche that rounds to nothing closes everything
	state.PartialSellCount = 0
	state.HeldQty = 2
	state.OriginalQty = 2
	suite.Equal(2.0, sizer.ExitQuantity(&state))
}

func (suite *SizingTestSuite) TestWeightTiers() {
	config := TestConfig(1000, commission_fee.VenueFlat)
	config.Entry.Weighting = WeightingConfig{
		Key: WeightKeyTurnover,
		Tiers: []WeightTier{
			{Min: 1, Weight: 0.5},
			{Min: 5, Weight: 1},
			{Min: 10, Weight: 2},
		},
	}

	sizer, err := NewSizer(config)
	suite.Require().NoError(err)

	for turnover, want := range map[float64]float64{0: 0.5, 1: 0.5, 4.9: 0.5, 5: 1, 12: 2} {
		suite.Equal(want, sizer.Weight(types.Tick{Symbol: "AAA", Turnover: turnover}, nil, 0), "turnover %v", turnover)
	}
}
