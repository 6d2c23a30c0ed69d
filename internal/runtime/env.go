package runtime

import (
	"github.com/rxtech-lab/argo-tickbench/internal/feature"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
)

// Env is everything a predicate may read for one variant on one tick.
// Tick fields and look-back functions are shared by every variant of the
// tick; variant and state fields are rewritten before each evaluation.
type Env struct {
	Symbol        string  `expr:"symbol"`
	Price         float64 `expr:"price"`
	Open          float64 `expr:"open"`
	High          float64 `expr:"high"`
	Low           float64 `expr:"low"`
	ChangeRate    float64 `expr:"change_rate"`
	TradeValue    float64 `expr:"trade_value"`
	TickStrength  float64 `expr:"tick_strength"`
	Turnover      float64 `expr:"turnover"`
	PrevDayRatio  float64 `expr:"prev_day_ratio"`
	SameTimeRatio float64 `expr:"same_time_ratio"`
	Volume        float64 `expr:"volume"`
	BestAsk       float64 `expr:"best_ask"`
	BestBid       float64 `expr:"best_bid"`
	TotalAskQty   float64 `expr:"total_ask_qty"`
	TotalBidQty   float64 `expr:"total_bid_qty"`
	HighLowSpread float64 `expr:"high_low_spread"`
	DepthRatio    float64 `expr:"depth_ratio"`
	TimeOfDay     int     `expr:"time_of_day"`
	AttentionRank int     `expr:"attention_rank"`
	Index         int     `expr:"index"`

	// Look-back functions take lengths and offsets as numbers so that
	// variant variables can be passed directly; fractions are truncated.

	// Value reads column back records before the cursor.
	Value func(column string, back float64) float64 `expr:"value"`
	// EntryValue reads column at the entry of the current position.
	EntryValue func(column string) float64 `expr:"entry_value"`
	Highest    func(column string, length, back float64) float64 `expr:"highest"`
	Lowest     func(column string, length, back float64) float64 `expr:"lowest"`
	Total      func(column string, length, back float64) float64 `expr:"total"`
	Average    func(column string, length, back float64) float64 `expr:"average"`
	Angle      func(column string, length, back float64) float64 `expr:"angle"`
	// AngleScaled is Angle with an explicit scale factor on the delta.
	AngleScaled func(column string, length, back, scale float64) float64 `expr:"angle_scaled"`

	Ind map[string]float64 `expr:"ind"`

	Vars  []float64 `expr:"vars"`
	Group int       `expr:"group"`
	Key   int       `expr:"key"`

	Holding          bool    `expr:"holding"`
	Short            bool    `expr:"short"`
	EntryPrice       float64 `expr:"entry_price"`
	HeldQty          float64 `expr:"held_qty"`
	ProfitPct        float64 `expr:"profit_pct"`
	HighProfitPct    float64 `expr:"high_profit_pct"`
	LowProfitPct     float64 `expr:"low_profit_pct"`
	HoldSeconds      int64   `expr:"hold_seconds"`
	PartialBuyCount  int     `expr:"partial_buy_count"`
	PartialSellCount int     `expr:"partial_sell_count"`
	BuyPending       bool    `expr:"buy_pending"`
	SellPending      bool    `expr:"sell_pending"`
	TradesToday      int     `expr:"trades_today"`

	CanBuy   bool `expr:"can_buy"`
	CanSell  bool `expr:"can_sell"`
	CanShort bool `expr:"can_short"`
	CanCover bool `expr:"can_cover"`
}

// NewEnv returns an environment whose look-back functions read window.
func NewEnv(window *feature.Window) *Env {
	env := &Env{} //nolint:exhaustruct // filled per tick
	env.Bind(window)

	return env
}

// Bind points the look-back functions at window. A nil window makes every
// look-back read 0.
func (e *Env) Bind(window *feature.Window) {
	if window == nil {
		zero2 := func(string, float64) float64 { return 0 }
		zero3 := func(string, float64, float64) float64 { return 0 }
		e.Value = zero2
		e.EntryValue = func(string) float64 { return 0 }
		e.Highest, e.Lowest, e.Total, e.Average, e.Angle = zero3, zero3, zero3, zero3, zero3
		e.AngleScaled = func(string, float64, float64, float64) float64 { return 0 }

		return
	}

	aggregate := func(op feature.AggregateOp) func(string, float64, float64) float64 {
		return func(column string, length, back float64) float64 {
			return window.Aggregate(types.Column(column), int(length), feature.Now(int(back)), op)
		}
	}

	e.Value = func(column string, back float64) float64 {
		return window.ValueAt(types.Column(column), feature.Now(int(back)))
	}
	e.EntryValue = func(column string) float64 {
		return window.ValueAt(types.Column(column), feature.FromEntry())
	}
	e.Highest = aggregate(feature.OpMax)
	e.Lowest = aggregate(feature.OpMin)
	e.Total = aggregate(feature.OpSum)
	e.Average = aggregate(feature.OpMean)
	e.Angle = func(column string, length, back float64) float64 {
		return window.Angle(types.Column(column), int(length), feature.Now(int(back)), 1)
	}
	e.AngleScaled = func(column string, length, back, scale float64) float64 {
		return window.Angle(types.Column(column), int(length), feature.Now(int(back)), scale)
	}
}

// SetTick copies the market fields of tick.
func (e *Env) SetTick(index int, tick types.Tick) {
	e.Symbol = tick.Symbol
	e.Price = tick.Price
	e.Open = tick.Open
	e.High = tick.High
	e.Low = tick.Low
	e.ChangeRate = tick.ChangeRate
	e.TradeValue = tick.TradeValue
	e.TickStrength = tick.TickStrength
	e.Turnover = tick.Turnover
	e.PrevDayRatio = tick.PrevDayRatio
	e.SameTimeRatio = tick.SameTimeRatio
	e.Volume = tick.Volume
	e.BestAsk = tick.BestAsk()
	e.BestBid = tick.BestBid()
	e.TotalAskQty = tick.TotalAskQty
	e.TotalBidQty = tick.TotalBidQty
	e.HighLowSpread = tick.HighLowSpread()
	e.DepthRatio = tick.DepthRatio()
	e.TimeOfDay = tick.TimeOfDay()
	e.AttentionRank = tick.AttentionRank
	e.Index = index
}

// SetVariant sets the parameter vector of the variant being evaluated.
func (e *Env) SetVariant(variant types.Variant) {
	e.Vars = variant.Vars
	e.Group = variant.Group
	e.Key = variant.Key
}
