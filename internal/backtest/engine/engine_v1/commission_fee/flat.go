package commission_fee

import "github.com/shopspring/decimal"

// FlatFeeModel charges a fixed amount on each leg.
type FlatFeeModel struct {
	fee decimal.Decimal
}

func NewFlatFeeModel(fee float64) FeeModel {
	return &FlatFeeModel{fee: decimal.NewFromFloat(fee)}
}

func NewZeroFeeModel() FeeModel {
	return NewFlatFeeModel(0)
}

func (m *FlatFeeModel) Venue() Venue {
	return VenueFlat
}

func (m *FlatFeeModel) Settle(settlement Settlement) Outcome {
	entry := decimal.NewFromFloat(settlement.EntryNotional)
	exit := decimal.NewFromFloat(settlement.ExitNotional)

	net := exit.Sub(m.fee.Mul(decimal.NewFromInt(2)))

	return outcome(net, entry)
}
