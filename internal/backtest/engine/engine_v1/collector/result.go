package collector

import (
	"cmp"
	"slices"
	"time"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
)

// VariantResult is the sorted output of one variant.
type VariantResult struct {
	Variant types.VariantKey    `yaml:"variant" json:"variant"`
	Trades  []types.ClosedTrade `yaml:"-" json:"trades"`
	Held    []HeldPoint         `yaml:"held" json:"held"`
	MaxHeld int                 `yaml:"max_held" json:"max_held"`
}

// Result is the deterministic output of a run.
type Result struct {
	Variants []VariantResult `yaml:"variants" json:"variants"`
	Failures []Failure       `yaml:"failures" json:"failures"`
}

// Finalize sorts everything in partial so that equal inputs produce equal
// results whatever order they were merged in.
func Finalize(partial *Partial) Result {
	keys := make(map[types.VariantKey]struct{})
	for key := range partial.Trades {
		keys[key] = struct{}{}
	}

	for key := range partial.Held {
		keys[key] = struct{}{}
	}

	result := Result{
		Variants: make([]VariantResult, 0, len(keys)),
		Failures: slices.Clone(partial.Failures),
	}

	for key := range keys {
		variant := VariantResult{
			Variant: key,
			Trades:  nil,
			Held:    nil,
			MaxHeld: 0,
		}

		if columns, ok := partial.Trades[key]; ok {
			variant.Trades = columns.Rows(key)
			slices.SortFunc(variant.Trades, compareTrades)
		}

		if series, ok := partial.Held[key]; ok {
			variant.Held = series.Points()
			variant.MaxHeld = series.Max()
		}

		result.Variants = append(result.Variants, variant)
	}

	slices.SortFunc(result.Variants, func(a, b VariantResult) int {
		if c := cmp.Compare(a.Variant.Group, b.Variant.Group); c != 0 {
			return c
		}

		return cmp.Compare(a.Variant.Key, b.Variant.Key)
	})

	slices.SortFunc(result.Failures, func(a, b Failure) int {
		if c := cmp.Compare(a.Symbol, b.Symbol); c != 0 {
			return c
		}

		if c := cmp.Compare(a.Day, b.Day); c != 0 {
			return c
		}

		return cmp.Compare(a.Message, b.Message)
	})

	return result
}

func compareTrades(a, b types.ClosedTrade) int {
	if c := a.ExitTime.Compare(b.ExitTime); c != 0 {
		return c
	}

	if c := cmp.Compare(a.Symbol, b.Symbol); c != 0 {
		return c
	}

	if c := a.EntryTime.Compare(b.EntryTime); c != 0 {
		return c
	}

	if c := cmp.Compare(a.HoldSeconds, b.HoldSeconds); c != 0 {
		return c
	}

	if c := cmp.Compare(a.ExitPrice, b.ExitPrice); c != 0 {
		return c
	}

	return cmp.Compare(a.Profit, b.Profit)
}

// Trades returns every trade of every variant in variant order.
func (r Result) Trades() []types.ClosedTrade {
	var trades []types.ClosedTrade
	for _, variant := range r.Variants {
		trades = append(trades, variant.Trades...)
	}

	return trades
}

// Stats computes the statistics of every variant. vars maps each key to its
// parameter vector.
func (r Result) Stats(runID string, timestamp time.Time, vars map[types.VariantKey][]float64) []types.VariantStats {
	stats := make([]types.VariantStats, 0, len(r.Variants))

	for _, variant := range r.Variants {
		s := types.ComputeVariantStats(variant.Variant, variant.Trades)
		s.ID = runID
		s.Timestamp = timestamp
		s.Vars = vars[variant.Variant]
		s.MaxHeld = variant.MaxHeld
		stats = append(stats, s)
	}

	return stats
}
