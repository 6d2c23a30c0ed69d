package commission_fee

import (
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/shopspring/decimal"
)

const (
	DefaultFuturesTaker = 0.0004
	DefaultFuturesMaker = 0.0002
)

// FuturesFeeModel charges maker or taker commission per leg. Limit orders
// pay maker rates, market orders taker rates.
type FuturesFeeModel struct {
	maker decimal.Decimal
	taker decimal.Decimal
}

func NewFuturesFeeModel(rates Rates) FeeModel {
	return &FuturesFeeModel{
		maker: decimal.NewFromFloat(orDefault(rates.Maker, DefaultFuturesMaker)),
		taker: decimal.NewFromFloat(orDefault(rates.Taker, DefaultFuturesTaker)),
	}
}

func (m *FuturesFeeModel) Venue() Venue {
	return VenueFutures
}

func (m *FuturesFeeModel) rate(orderType types.OrderType) decimal.Decimal {
	if orderType == types.OrderTypeLimit {
		return m.maker
	}

	return m.taker
}

func (m *FuturesFeeModel) Settle(settlement Settlement) Outcome {
	entry := decimal.NewFromFloat(settlement.EntryNotional)
	exit := decimal.NewFromFloat(settlement.ExitNotional)

	fees := entry.Mul(m.rate(settlement.EntryType)).Add(exit.Mul(m.rate(settlement.ExitType)))

	var net decimal.Decimal
	if settlement.Side == types.PositionTypeShort {
		// a short returns the margin plus the price drop
		net = entry.Mul(decimal.NewFromInt(2)).Sub(exit).Sub(fees)
	} else {
		net = exit.Sub(fees)
	}

	return outcome(net.Round(4), entry)
}
