package datasource

import (
	"context"
	"slices"
	"sync"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
)

// InMemoryDataSource serves records held in memory, indexed by symbol.
type InMemoryDataSource struct {
	data map[string][]types.Tick
	mu   sync.RWMutex
}

// NewInMemoryDataSource indexes ticks by symbol and sorts each symbol by time.
func NewInMemoryDataSource(ticks []types.Tick) *InMemoryDataSource {
	data := make(map[string][]types.Tick)
	for _, tick := range ticks {
		data[tick.Symbol] = append(data[tick.Symbol], tick)
	}

	for symbol := range data {
		slices.SortStableFunc(data[symbol], func(a, b types.Tick) int {
			return a.Time.Compare(b.Time)
		})
	}

	return &InMemoryDataSource{
		data: data,
		mu:   sync.RWMutex{},
	}
}

// Symbols implements DataSource.
func (ds *InMemoryDataSource) Symbols(_ context.Context) ([]string, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	symbols := make([]string, 0, len(ds.data))
	for symbol := range ds.data {
		symbols = append(symbols, symbol)
	}

	slices.Sort(symbols)

	return symbols, nil
}

// Count implements DataSource.
func (ds *InMemoryDataSource) Count(ctx context.Context, symbol string, r Range) (int, error) {
	ticks, err := ds.Load(ctx, symbol, r)
	if err != nil {
		return 0, err
	}

	return len(ticks), nil
}

// Days implements DataSource.
func (ds *InMemoryDataSource) Days(ctx context.Context, symbol string, r Range) ([]DayCount, error) {
	ticks, err := ds.Load(ctx, symbol, r)
	if err != nil {
		return nil, err
	}

	var days []DayCount

	for _, tick := range ticks {
		day := tick.Day()
		if len(days) == 0 || days[len(days)-1].Day != day {
			days = append(days, DayCount{Day: day, Ticks: 0})
		}

		days[len(days)-1].Ticks++
	}

	return days, nil
}

// Load implements DataSource.
func (ds *InMemoryDataSource) Load(ctx context.Context, symbol string, r Range) ([]types.Tick, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds.mu.RLock()
	defer ds.mu.RUnlock()

	ticks, ok := ds.data[symbol]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no data for symbol %s", symbol)
	}

	result := make([]types.Tick, 0, len(ticks))

	for _, tick := range ticks {
		if r.Contains(tick) {
			result = append(result, tick)
		}
	}

	return result, nil
}

// Close implements DataSource.
func (ds *InMemoryDataSource) Close() error {
	return nil
}
