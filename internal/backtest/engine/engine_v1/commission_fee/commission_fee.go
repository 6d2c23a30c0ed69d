package commission_fee

import (
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/shopspring/decimal"
)

// Settlement describes both legs of a closed (or partially closed) position.
type Settlement struct {
	// EntryNotional is the gross amount paid to open the settled quantity.
	EntryNotional float64
	// ExitNotional is the gross amount received to close it.
	ExitNotional float64
	Side         types.PositionType
	EntryType    types.OrderType
	ExitType     types.OrderType
}

// Outcome is the realized result of a settlement after fees and taxes.
type Outcome struct {
	NetProceeds float64
	Profit      float64
	ProfitPct   float64
}

// FeeModel converts gross notionals into realized profit for one venue.
type FeeModel interface {
	Settle(settlement Settlement) Outcome
	// Venue reports which venue's rules the model applies.
	Venue() Venue
}

type Venue string

const (
	VenueEquity  Venue = "equity"
	VenueSpot    Venue = "spot"
	VenueFutures Venue = "futures"
	VenueFlat    Venue = "flat"
)

var AllVenues = []any{
	VenueEquity,
	VenueSpot,
	VenueFutures,
	VenueFlat,
}

// Rates overrides the default venue rates. Zero fields keep the defaults.
type Rates struct {
	// Commission is the per-side commission rate for equity and spot venues.
	Commission float64 `yaml:"commission" json:"commission,omitempty" jsonschema:"title=Commission,description=Per-side commission rate"`
	// Tax is the securities transaction tax applied to equity sells.
	Tax float64 `yaml:"tax" json:"tax,omitempty" jsonschema:"title=Tax,description=Transaction tax rate on sells"`
	// Maker and Taker apply per futures leg depending on the order type.
	Maker float64 `yaml:"maker" json:"maker,omitempty" jsonschema:"title=Maker,description=Maker commission rate"`
	Taker float64 `yaml:"taker" json:"taker,omitempty" jsonschema:"title=Taker,description=Taker commission rate"`
	// QuotePrecision is the number of decimals kept on spot net proceeds.
	QuotePrecision int `yaml:"quote_precision" json:"quote_precision,omitempty" validate:"gte=0" jsonschema:"title=Quote Precision,description=Decimals kept on spot proceeds; 0 rounds to whole units"`
	// Flat is the fixed fee charged per side by the flat model.
	Flat float64 `yaml:"flat" json:"flat,omitempty" jsonschema:"title=Flat,description=Fixed fee per side"`
}

// GetFeeModel returns the model for venue. Unknown venues fall back to a zero flat fee.
func GetFeeModel(venue Venue, rates Rates) FeeModel {
	switch venue {
	case VenueEquity:
		return NewEquityFeeModel(rates)
	case VenueSpot:
		return NewSpotFeeModel(rates)
	case VenueFutures:
		return NewFuturesFeeModel(rates)
	case VenueFlat:
		return NewFlatFeeModel(rates.Flat)
	default:
		return NewFlatFeeModel(0)
	}
}

func profitPct(profit, entry decimal.Decimal) float64 {
	if entry.IsZero() {
		return 0
	}

	return profit.Div(entry).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

func outcome(net, entry decimal.Decimal) Outcome {
	profit := net.Sub(entry)

	return Outcome{
		NetProceeds: net.InexactFloat64(),
		Profit:      profit.InexactFloat64(),
		ProfitPct:   profitPct(profit, entry),
	}
}

func orDefault(value, fallback float64) float64 {
	if value == 0 {
		return fallback
	}

	return value
}
