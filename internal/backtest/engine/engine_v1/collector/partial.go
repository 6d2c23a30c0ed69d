package collector

import (
	"github.com/rxtech-lab/argo-tickbench/internal/types"
)

// Failure records an instrument that could not be processed.
type Failure struct {
	Symbol  string `yaml:"symbol" json:"symbol"`
	Day     int    `yaml:"day" json:"day"`
	Worker  int    `yaml:"worker" json:"worker"`
	Message string `yaml:"message" json:"message"`
}

// Partial is the mergeable result of any subset of the work.
// Merge is list concatenation plus elementwise addition.
type Partial struct {
	Trades     map[types.VariantKey]*TradeColumns
	Held       map[types.VariantKey]*HeldSeries
	Failures   []Failure
	resolution int
}

// NewPartial creates an empty partial whose held series use resolution seconds.
func NewPartial(resolution int) *Partial {
	return &Partial{
		Trades:     map[types.VariantKey]*TradeColumns{},
		Held:       map[types.VariantKey]*HeldSeries{},
		Failures:   nil,
		resolution: resolution,
	}
}

// Empty reports whether nothing has been added.
func (p *Partial) Empty() bool {
	return len(p.Trades) == 0 && len(p.Held) == 0 && len(p.Failures) == 0
}

// Add records a closed trade. Final exits also count toward the held series.
func (p *Partial) Add(trade types.ClosedTrade) {
	columns, ok := p.Trades[trade.Variant]
	if !ok {
		columns = &TradeColumns{} //nolint:exhaustruct // columns grow on append
		p.Trades[trade.Variant] = columns
	}

	columns.Append(trade)

	if trade.StillHeld {
		return
	}

	entry := trade.EntryTime
	if len(trade.EntryTimes) > 0 {
		entry = trade.EntryTimes[0]
	}

	p.series(trade.Variant).Add(entry, trade.ExitTime)
}

// Fail records an instrument failure.
func (p *Partial) Fail(failure Failure) {
	p.Failures = append(p.Failures, failure)
}

func (p *Partial) series(key types.VariantKey) *HeldSeries {
	series, ok := p.Held[key]
	if !ok {
		series = NewHeldSeries(p.resolution)
		p.Held[key] = series
	}

	return series
}

// Merge folds other into p. other must not be used afterwards.
func (p *Partial) Merge(other *Partial) {
	if other == nil {
		return
	}

	for key, columns := range other.Trades {
		existing, ok := p.Trades[key]
		if !ok {
			p.Trades[key] = columns

			continue
		}

		existing.Concat(columns)
	}

	for key, series := range other.Held {
		p.series(key).Merge(series)
	}

	p.Failures = append(p.Failures, other.Failures...)
}
