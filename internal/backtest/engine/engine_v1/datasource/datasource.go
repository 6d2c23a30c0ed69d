package datasource

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
)

// Range restricts the records returned for a symbol. Zero fields do not filter.
type Range struct {
	Start optional.Option[time.Time]
	End   optional.Option[time.Time]
	// Day selects a single calendar day (YYYYMMDD).
	Day int
	// SessionStart and SessionEnd bound the time of day (HHMMSS, inclusive).
	SessionStart int
	SessionEnd   int
}

// FullRange returns a range that loads everything.
func FullRange() Range {
	return Range{
		Start:        optional.None[time.Time](),
		End:          optional.None[time.Time](),
		Day:          0,
		SessionStart: 0,
		SessionEnd:   0,
	}
}

// WithDay returns a copy of r restricted to day.
func (r Range) WithDay(day int) Range {
	r.Day = day

	return r
}

// Contains reports whether tick passes every filter of r.
func (r Range) Contains(tick types.Tick) bool {
	if r.Start.IsSome() && tick.Time.Before(r.Start.Unwrap()) {
		return false
	}

	if r.End.IsSome() && tick.Time.After(r.End.Unwrap()) {
		return false
	}

	if r.Day != 0 && tick.Day() != r.Day {
		return false
	}

	if r.hasSession() {
		tod := tick.TimeOfDay()
		if tod < r.SessionStart || tod > r.SessionEnd {
			return false
		}
	}

	return true
}

func (r Range) hasSession() bool {
	return r.SessionEnd > 0 && (r.SessionStart > 0 || r.SessionEnd < 235959)
}

// DayCount is the number of records of one calendar day.
type DayCount struct {
	Day   int
	Ticks int
}

// DataSource serves the historical records of every instrument.
// Implementations must be safe for concurrent use by workers.
type DataSource interface {
	// Symbols returns every symbol, sorted.
	Symbols(ctx context.Context) ([]string, error)
	// Count returns the number of records of symbol inside r.
	Count(ctx context.Context, symbol string, r Range) (int, error)
	// Days returns the record count per calendar day of symbol, ascending.
	Days(ctx context.Context, symbol string, r Range) ([]DayCount, error)
	// Load returns the records of symbol inside r in time order.
	Load(ctx context.Context, symbol string, r Range) ([]types.Tick, error)
	// Close releases the resources of the data source.
	Close() error
}
