package utils

import (
	"math"

	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/commission_fee"
)

type tickBand struct {
	below float64
	size  float64
}

// equity price bands, in currency units
var equityTickBands = []tickBand{
	{below: 2_000, size: 1},
	{below: 5_000, size: 5},
	{below: 20_000, size: 10},
	{below: 50_000, size: 50},
	{below: 200_000, size: 100},
	{below: 500_000, size: 500},
	{below: math.Inf(1), size: 1_000},
}

var spotTickBands = []tickBand{
	{below: 0.1, size: 0.00001},
	{below: 1, size: 0.0001},
	{below: 10, size: 0.001},
	{below: 100, size: 0.01},
	{below: 1_000, size: 0.1},
	{below: 10_000, size: 1},
	{below: 100_000, size: 10},
	{below: 500_000, size: 50},
	{below: 1_000_000, size: 100},
	{below: 2_000_000, size: 500},
	{below: math.Inf(1), size: 1_000},
}

// DefaultFuturesTickSize is used when a futures run does not configure one.
const DefaultFuturesTickSize = 0.01

// TickSize returns the minimum price increment at price. Futures use the fixed
// size when it is positive.
func TickSize(venue commission_fee.Venue, price float64, fixed float64) float64 {
	if fixed > 0 {
		return fixed
	}

	switch venue {
	case commission_fee.VenueEquity:
		return lookupBand(equityTickBands, price)
	case commission_fee.VenueSpot:
		return lookupBand(spotTickBands, price)
	case commission_fee.VenueFutures:
		return DefaultFuturesTickSize
	default:
		return lookupBand(spotTickBands, price)
	}
}

// RoundToTick snaps price to the nearest multiple of tick.
func RoundToTick(price float64, tick float64) float64 {
	if tick <= 0 {
		return price
	}

	steps := math.Round(price / tick)
	places := DecimalPlaces(tick)

	return RoundHalfAway(steps*tick, places)
}

// NextRoundFigure returns the smallest multiple of unit strictly above price.
func NextRoundFigure(price float64, unit float64) float64 {
	if unit <= 0 {
		return 0
	}

	return (math.Floor(price/unit) + 1) * unit
}

func lookupBand(bands []tickBand, price float64) float64 {
	for _, band := range bands {
		if price < band.below {
			return band.size
		}
	}

	return bands[len(bands)-1].size
}

// DecimalPlaces returns the number of decimals needed to express tick.
func DecimalPlaces(tick float64) int {
	places := 0
	for places < 10 && math.Abs(tick-math.Round(tick)) > 1e-12 {
		tick *= 10
		places++
	}

	return places
}
