package utils

import (
	"testing"

	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsTestSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func (suite *UtilsTestSuite) TestRounding() {
	suite.Equal(1.23, RoundToDecimalPrecision(1.239, 2))
	suite.Equal(3.0, RoundHalfAway(2.5, 0))
	suite.Equal(-2.0, RoundHalfAway(-1.5, 0))
}

func (suite *UtilsTestSuite) TestTickSize() {
	tests := []struct {
		name     string
		venue    commission_fee.Venue
		price    float64
		fixed    float64
		expected float64
	}{
		{"equity low band", commission_fee.VenueEquity, 1_500, 0, 1},
		{"equity band edge", commission_fee.VenueEquity, 2_000, 0, 5},
		{"equity mid band", commission_fee.VenueEquity, 45_000, 0, 50},
		{"equity top band", commission_fee.VenueEquity, 700_000, 0, 1_000},
		{"spot small coin", commission_fee.VenueSpot, 0.5, 0, 0.0001},
		{"spot large coin", commission_fee.VenueSpot, 90_000_000, 0, 1_000},
		{"futures default", commission_fee.VenueFutures, 65_000, 0, DefaultFuturesTickSize},
		{"fixed overrides", commission_fee.VenueFutures, 65_000, 0.1, 0.1},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, TickSize(tc.venue, tc.price, tc.fixed))
		})
	}
}

func (suite *UtilsTestSuite) TestRoundToTick() {
	suite.Equal(10_050.0, RoundToTick(10_049, 50))
	suite.Equal(1.23, RoundToTick(1.2301, 0.01))
	suite.Equal(7.5, RoundToTick(7.5, 0))
}

func (suite *UtilsTestSuite) TestNextRoundFigure() {
	suite.Equal(10_000.0, NextRoundFigure(9_950, 1_000))
	suite.Equal(11_000.0, NextRoundFigure(10_000, 1_000))
	suite.Equal(0.0, NextRoundFigure(10, 0))
}

func (suite *UtilsTestSuite) TestDecimalPlaces() {
	suite.Equal(0, DecimalPlaces(50))
	suite.Equal(2, DecimalPlaces(0.01))
	suite.Equal(5, DecimalPlaces(0.00001))
}
