package commission_fee

import "github.com/shopspring/decimal"

const (
	DefaultEquityCommission = 0.00015
	DefaultEquityTax        = 0.0018
)

// EquityFeeModel charges a per-side commission truncated to tens of currency
// units and a sell-side tax truncated to whole units.
type EquityFeeModel struct {
	commission decimal.Decimal
	tax        decimal.Decimal
}

func NewEquityFeeModel(rates Rates) FeeModel {
	return &EquityFeeModel{
		commission: decimal.NewFromFloat(orDefault(rates.Commission, DefaultEquityCommission)),
		tax:        decimal.NewFromFloat(orDefault(rates.Tax, DefaultEquityTax)),
	}
}

func (m *EquityFeeModel) Venue() Venue {
	return VenueEquity
}

func (m *EquityFeeModel) Settle(settlement Settlement) Outcome {
	entry := decimal.NewFromFloat(settlement.EntryNotional)
	exit := decimal.NewFromFloat(settlement.ExitNotional)

	buyFee := truncateToTens(entry.Mul(m.commission))
	sellFee := truncateToTens(exit.Mul(m.commission))
	tax := exit.Mul(m.tax).Truncate(0)

	net := exit.Sub(tax).Sub(sellFee).Sub(buyFee)

	return outcome(net, entry)
}

func truncateToTens(amount decimal.Decimal) decimal.Decimal {
	ten := decimal.NewFromInt(10)

	return amount.Div(ten).Truncate(0).Mul(ten)
}
