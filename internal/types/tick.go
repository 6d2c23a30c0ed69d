package types

import "time"

// DepthLevels is the number of order-book levels carried per side.
const DepthLevels = 5

// DepthLevel is one price level of the synthetic order book.
type DepthLevel struct {
	Price    float64 `yaml:"price" json:"price"`
	Quantity float64 `yaml:"quantity" json:"quantity"`
}

// Tick is one row of market data for a single instrument.
// A tick is immutable once it has been appended to a feature window; its
// index in the window is its identity for the session.
type Tick struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`

	Price float64 `json:"price"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`

	// ChangeRate is the percentage change against the previous close.
	ChangeRate float64 `json:"change_rate"`
	// TradeValue is the cumulative traded value of the day.
	TradeValue    float64 `json:"trade_value"`
	TickStrength  float64 `json:"tick_strength"`
	Turnover      float64 `json:"turnover"`
	PrevDayRatio  float64 `json:"prev_day_ratio"`
	SameTimeRatio float64 `json:"same_time_ratio"`
	Volume        float64 `json:"volume"`

	// AttentionRank is the trade-value rank of the instrument at this tick.
	// Zero means the feed did not provide a rank.
	AttentionRank int `json:"attention_rank"`

	// Asks are ordered from best (lowest) to worst; Bids from best (highest) to worst.
	Asks        [DepthLevels]DepthLevel `json:"asks"`
	Bids        [DepthLevels]DepthLevel `json:"bids"`
	TotalAskQty float64                 `json:"total_ask_qty"`
	TotalBidQty float64                 `json:"total_bid_qty"`
}

// BestAsk returns the lowest ask price or zero if the book side is empty.
func (t Tick) BestAsk() float64 {
	return t.Asks[0].Price
}

// BestBid returns the highest bid price or zero if the book side is empty.
func (t Tick) BestBid() float64 {
	return t.Bids[0].Price
}

// Day returns the calendar day of the tick as YYYYMMDD.
func (t Tick) Day() int {
	y, m, d := t.Time.Date()

	return y*10000 + int(m)*100 + d
}

// TimeOfDay returns the wall clock of the tick as HHMMSS.
func (t Tick) TimeOfDay() int {
	h, m, s := t.Time.Clock()

	return h*10000 + m*100 + s
}

// HighLowSpread is the percentage distance of the day's high from its low.
func (t Tick) HighLowSpread() float64 {
	if t.Low <= 0 {
		return 0
	}

	return (t.High - t.Low) / t.Low * 100
}

// DepthRatio is the bid side quantity divided by the ask side quantity.
func (t Tick) DepthRatio() float64 {
	if t.TotalAskQty <= 0 {
		return 0
	}

	return t.TotalBidQty / t.TotalAskQty
}

// SpreadPct is the best ask/bid spread as a percentage of the best bid.
func (t Tick) SpreadPct() float64 {
	if t.BestBid() <= 0 {
		return 0
	}

	return (t.BestAsk() - t.BestBid()) / t.BestBid() * 100
}

// Snapshot captures the market condition fields recorded on trade entry and exit.
func (t Tick) Snapshot() MarketSnapshot {
	return MarketSnapshot{
		ChangeRate:    t.ChangeRate,
		TradeValue:    t.TradeValue,
		TickStrength:  t.TickStrength,
		Turnover:      t.Turnover,
		HighLowSpread: t.HighLowSpread(),
		DepthRatio:    t.DepthRatio(),
		SpreadPct:     t.SpreadPct(),
	}
}

// MarketSnapshot is the fixed set of market conditions stored with a closed trade.
type MarketSnapshot struct {
	ChangeRate    float64 `yaml:"change_rate" json:"change_rate"`
	TradeValue    float64 `yaml:"trade_value" json:"trade_value"`
	TickStrength  float64 `yaml:"tick_strength" json:"tick_strength"`
	Turnover      float64 `yaml:"turnover" json:"turnover"`
	HighLowSpread float64 `yaml:"high_low_spread" json:"high_low_spread"`
	DepthRatio    float64 `yaml:"depth_ratio" json:"depth_ratio"`
	SpreadPct     float64 `yaml:"spread_pct" json:"spread_pct"`
}
