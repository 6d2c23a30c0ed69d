package engine

import (
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/shopspring/decimal"
)

// Fill is the result of matching an order against the book.
type Fill struct {
	Quantity float64
	Notional float64
	AvgPrice float64
}

// FillAgainstDepth matches quantity against levels in the order given, which
// must be best price first. Matching is all-or-nothing: when the levels do not
// hold enough quantity, nothing fills and ok is false. The average price is
// rounded to places decimals.
func FillAgainstDepth(levels []types.DepthLevel, quantity float64, places int) (fill Fill, ok bool) {
	if quantity <= 0 {
		return Fill{}, false
	}

	remaining := decimal.NewFromFloat(quantity)
	notional := decimal.Zero

	for _, level := range levels {
		if level.Quantity <= 0 || level.Price <= 0 {
			continue
		}

		take := decimal.Min(remaining, decimal.NewFromFloat(level.Quantity))
		notional = notional.Add(take.Mul(decimal.NewFromFloat(level.Price)))
		remaining = remaining.Sub(take)

		if remaining.Sign() <= 0 {
			qty := decimal.NewFromFloat(quantity)

			return Fill{
				Quantity: quantity,
				Notional: notional.InexactFloat64(),
				AvgPrice: notional.Div(qty).Round(int32(places)).InexactFloat64(),
			}, true
		}
	}

	return Fill{}, false
}

// WeightedAverage returns the average price of two lots rounded to places decimals.
func WeightedAverage(qty1, price1, qty2, price2 float64, places int) float64 {
	total := decimal.NewFromFloat(qty1).Add(decimal.NewFromFloat(qty2))
	if total.IsZero() {
		return 0
	}

	notional := decimal.NewFromFloat(qty1).Mul(decimal.NewFromFloat(price1)).
		Add(decimal.NewFromFloat(qty2).Mul(decimal.NewFromFloat(price2)))

	return notional.Div(total).Round(int32(places)).InexactFloat64()
}

// bookSide returns the levels an order of side matches against.
func bookSide(tick types.Tick, side types.PurchaseType) []types.DepthLevel {
	if side == types.PurchaseTypeBuy {
		return tick.Asks[:]
	}

	return tick.Bids[:]
}

// hasDepth reports whether the record carries any order book at all.
func hasDepth(tick types.Tick) bool {
	for i := range types.DepthLevels {
		if tick.Asks[i].Quantity > 0 || tick.Bids[i].Quantity > 0 {
			return true
		}
	}

	return false
}
