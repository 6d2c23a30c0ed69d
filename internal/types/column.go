package types

// Column names a numeric field of a Tick.
type Column string

const (
	ColumnPrice         Column = "price"
	ColumnOpen          Column = "open"
	ColumnHigh          Column = "high"
	ColumnLow           Column = "low"
	ColumnChangeRate    Column = "change_rate"
	ColumnTradeValue    Column = "trade_value"
	ColumnTickStrength  Column = "tick_strength"
	ColumnTurnover      Column = "turnover"
	ColumnPrevDayRatio  Column = "prev_day_ratio"
	ColumnSameTimeRatio Column = "same_time_ratio"
	ColumnVolume        Column = "volume"
	ColumnTotalAskQty   Column = "total_ask_qty"
	ColumnTotalBidQty   Column = "total_bid_qty"
	ColumnBestAsk       Column = "best_ask"
	ColumnBestBid       Column = "best_bid"
	ColumnHighLowSpread Column = "high_low_spread"
)

// AllColumns lists every column a strategy may address.
var AllColumns = []Column{
	ColumnPrice, ColumnOpen, ColumnHigh, ColumnLow,
	ColumnChangeRate, ColumnTradeValue, ColumnTickStrength, ColumnTurnover,
	ColumnPrevDayRatio, ColumnSameTimeRatio, ColumnVolume,
	ColumnTotalAskQty, ColumnTotalBidQty, ColumnBestAsk, ColumnBestBid,
	ColumnHighLowSpread,
}

// Valid reports whether c is a known column.
func (c Column) Valid() bool {
	for _, known := range AllColumns {
		if known == c {
			return true
		}
	}

	return false
}

// Value returns the column value of the tick. Unknown columns read as zero.
func (t Tick) Value(c Column) float64 {
	switch c {
	case ColumnPrice:
		return t.Price
	case ColumnOpen:
		return t.Open
	case ColumnHigh:
		return t.High
	case ColumnLow:
		return t.Low
	case ColumnChangeRate:
		return t.ChangeRate
	case ColumnTradeValue:
		return t.TradeValue
	case ColumnTickStrength:
		return t.TickStrength
	case ColumnTurnover:
		return t.Turnover
	case ColumnPrevDayRatio:
		return t.PrevDayRatio
	case ColumnSameTimeRatio:
		return t.SameTimeRatio
	case ColumnVolume:
		return t.Volume
	case ColumnTotalAskQty:
		return t.TotalAskQty
	case ColumnTotalBidQty:
		return t.TotalBidQty
	case ColumnBestAsk:
		return t.BestAsk()
	case ColumnBestBid:
		return t.BestBid()
	case ColumnHighLowSpread:
		return t.HighLowSpread()
	default:
		return 0
	}
}
