package commission_fee

import "github.com/shopspring/decimal"

const DefaultSpotCommission = 0.0005

// SpotFeeModel charges the same commission rate on both legs and rounds the
// net proceeds to the quote currency precision.
type SpotFeeModel struct {
	commission decimal.Decimal
	// places kept on net proceeds; 0 is whole units as in KRW markets.
	places int32
}

func NewSpotFeeModel(rates Rates) FeeModel {
	return &SpotFeeModel{
		commission: decimal.NewFromFloat(orDefault(rates.Commission, DefaultSpotCommission)),
		places:     int32(max(rates.QuotePrecision, 0)),
	}
}

func (m *SpotFeeModel) Venue() Venue {
	return VenueSpot
}

func (m *SpotFeeModel) Settle(settlement Settlement) Outcome {
	entry := decimal.NewFromFloat(settlement.EntryNotional)
	exit := decimal.NewFromFloat(settlement.ExitNotional)

	fees := entry.Add(exit).Mul(m.commission)
	net := exit.Sub(fees).Round(m.places)

	return outcome(net, entry)
}
