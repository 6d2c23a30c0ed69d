package types

import "time"

// VariantKey identifies one parameter combination: Group shares a look-back
// length, Key selects the combination inside the group.
type VariantKey struct {
	Group int `yaml:"group" json:"group"`
	Key   int `yaml:"key" json:"key"`
}

// Less orders keys by group, then key.
func (k VariantKey) Less(other VariantKey) bool {
	if k.Group != other.Group {
		return k.Group < other.Group
	}

	return k.Key < other.Key
}

// Variant is a parameter vector under evaluation. Vars[0] is the look-back length.
type Variant struct {
	VariantKey
	Vars []float64
}

// Lookback returns the look-back length shared by the variant's group.
func (v Variant) Lookback() int {
	if len(v.Vars) == 0 {
		return 0
	}

	return int(v.Vars[0])
}

// ClosedTrade is emitted for every exit fill. Partial exits carry StillHeld=true.
// Records are immutable once produced.
type ClosedTrade struct {
	Symbol        string         `json:"symbol"`
	Tag           string         `json:"tag"`
	EntryTime     time.Time      `json:"entry_time"`
	ExitTime      time.Time      `json:"exit_time"`
	HoldSeconds   int64          `json:"hold_seconds"`
	EntryPrice    float64        `json:"entry_price"`
	ExitPrice     float64        `json:"exit_price"`
	EntryNotional float64        `json:"entry_notional"`
	ExitNotional  float64        `json:"exit_notional"`
	Profit        float64        `json:"profit"`
	ProfitPct     float64        `json:"profit_pct"`
	ExitReason    ExitReason     `json:"exit_reason"`
	EntryTimes    []time.Time    `json:"entry_times"`
	StillHeld     bool           `json:"still_held"`
	Variant       VariantKey     `json:"variant"`
	EntrySnapshot MarketSnapshot `json:"entry_snapshot"`
	ExitSnapshot  MarketSnapshot `json:"exit_snapshot"`
}
