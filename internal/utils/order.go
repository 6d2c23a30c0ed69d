package utils

import (
	"math"
)

// RoundToDecimalPrecision rounds the quantity down to the specified decimal precision.
func RoundToDecimalPrecision(quantity float64, decimalPrecision int) float64 {
	multiplier := math.Pow10(decimalPrecision)

	return math.Floor(quantity*multiplier) / multiplier
}

// RoundHalfAway rounds value to places decimals, halves away from zero.
func RoundHalfAway(value float64, places int) float64 {
	multiplier := math.Pow10(places)

	return math.Round(value*multiplier) / multiplier
}
