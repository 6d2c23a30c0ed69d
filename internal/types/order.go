package types

// PurchaseType is the direction of a single order.
type PurchaseType string

// OrderType selects how an order is matched.
type OrderType string

// PositionType is the direction of a held position.
type PositionType string

// ExitReason tags why a position (or a tranche of it) was closed.
type ExitReason string

// PriceReference is the quote a limit order is anchored to.
type PriceReference string

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

const (
	PositionTypeLong  PositionType = "LONG"
	PositionTypeShort PositionType = "SHORT"
)

const (
	ExitReasonStrategy  ExitReason = "strategy"
	ExitReasonStopLoss  ExitReason = "stop_loss"
	ExitReasonLadder    ExitReason = "ladder"
	ExitReasonDayEnd    ExitReason = "day_end"
	ExitReasonEndOfData ExitReason = "end_of_data"
)

const (
	PriceReferenceCurrent PriceReference = "current"
	PriceReferenceBestAsk PriceReference = "best_ask"
	PriceReferenceBestBid PriceReference = "best_bid"
)

// Direction returns +1 for long positions and -1 for short positions.
func (p PositionType) Direction() float64 {
	if p == PositionTypeShort {
		return -1
	}

	return 1
}

// EntrySide is the order side that opens or adds to a position of type p.
func (p PositionType) EntrySide() PurchaseType {
	if p == PositionTypeShort {
		return PurchaseTypeSell
	}

	return PurchaseTypeBuy
}

// ExitSide is the order side that reduces a position of type p.
func (p PositionType) ExitSide() PurchaseType {
	if p == PositionTypeShort {
		return PurchaseTypeBuy
	}

	return PurchaseTypeSell
}

// Forced reports whether the exit was imposed on the strategy.
func (r ExitReason) Forced() bool {
	return r == ExitReasonStopLoss || r == ExitReasonDayEnd || r == ExitReasonEndOfData
}
