package feature

import (
	"math"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
)

// Config controls which aggregates the window precomputes.
type Config struct {
	// Lookbacks are the window lengths shared by variant groups.
	Lookbacks []int `yaml:"lookbacks" json:"lookbacks"`
	// Columns are the tick columns aggregated for every look-back.
	Columns []types.Column `yaml:"columns" json:"columns"`
	// ResetEachDay bounds look-backs to the current trading day.
	ResetEachDay bool `yaml:"reset_each_day" json:"reset_each_day"`
}

type precomputeKey struct {
	column types.Column
	length int
	op     AggregateOp
}

// Window owns the chronological ticks of one instrument and answers
// look-back queries relative to a movable cursor.
//
// Queries that would read before the first available record (or before the
// day start when ResetEachDay is set) or after the cursor return 0. This is
// the warm-up policy, not an error.
type Window struct {
	symbol string
	ticks  []types.Tick
	config Config

	cursor int
	entry  int
	floor  int

	lookbacks   map[int]struct{}
	columns     map[types.Column]struct{}
	precomputed map[precomputeKey][]float64
	ready       []bool
}

// NewWindow builds a window over ticks, which must be strictly ordered by time.
func NewWindow(symbol string, ticks []types.Tick, config Config) (*Window, error) {
	for i := 1; i < len(ticks); i++ {
		if !ticks[i].Time.After(ticks[i-1].Time) {
			return nil, errors.Newf(errors.ErrCodeUnorderedTicks,
				"ticks for %s are not strictly ordered at index %d (%s <= %s)",
				symbol, i, ticks[i].Time, ticks[i-1].Time)
		}
	}

	w := &Window{
		symbol:      symbol,
		ticks:       ticks,
		config:      config,
		cursor:      -1,
		entry:       -1,
		floor:       0,
		lookbacks:   make(map[int]struct{}, len(config.Lookbacks)),
		columns:     make(map[types.Column]struct{}, len(config.Columns)),
		precomputed: make(map[precomputeKey][]float64),
		ready:       make([]bool, len(ticks)),
	}

	for _, length := range config.Lookbacks {
		if length > 0 {
			w.lookbacks[length] = struct{}{}
		}
	}

	for _, column := range config.Columns {
		w.columns[column] = struct{}{}
	}

	for length := range w.lookbacks {
		for column := range w.columns {
			for _, op := range AllOps {
				w.precomputed[precomputeKey{column: column, length: length, op: op}] = make([]float64, len(ticks))
			}
		}
	}

	return w, nil
}

// Symbol returns the instrument the window belongs to.
func (w *Window) Symbol() string {
	return w.symbol
}

// Len returns the number of records in the window.
func (w *Window) Len() int {
	return len(w.ticks)
}

// Cursor returns the current tick index, or -1 before the first Advance.
func (w *Window) Cursor() int {
	return w.cursor
}

// Current returns the tick at the cursor.
func (w *Window) Current() types.Tick {
	if w.cursor < 0 || w.cursor >= len(w.ticks) {
		return types.Tick{} //nolint:exhaustruct // zero tick before the first advance
	}

	return w.ticks[w.cursor]
}

// At returns the tick at index i or a zero tick when out of range.
func (w *Window) At(i int) types.Tick {
	if i < 0 || i >= len(w.ticks) {
		return types.Tick{} //nolint:exhaustruct // zero tick out of range
	}

	return w.ticks[i]
}

// Advance moves the cursor to the next record and produces the precomputed
// aggregates for it. It returns false once the data is exhausted.
func (w *Window) Advance() bool {
	if w.cursor+1 >= len(w.ticks) {
		return false
	}

	w.cursor++
	if w.config.ResetEachDay && w.IsDayBoundary() {
		w.floor = w.cursor
	}

	w.precompute(w.cursor)

	return true
}

// Floor returns the lowest index look-backs may read.
func (w *Window) Floor() int {
	return w.floor
}

// IsDayBoundary reports whether the cursor sits on the first record of a new day.
func (w *Window) IsDayBoundary() bool {
	if w.cursor <= 0 {
		return w.cursor == 0
	}

	return w.ticks[w.cursor].Day() != w.ticks[w.cursor-1].Day()
}

// SetEntryIndex anchors FromEntry queries to index i. A negative index clears it.
func (w *Window) SetEntryIndex(i int) {
	if i < 0 {
		w.entry = -1

		return
	}

	w.entry = i
}

// EntryIndex returns the anchored entry index or -1.
func (w *Window) EntryIndex() int {
	return w.entry
}

// IsLastOfDay reports whether the cursor sits on the final record of its
// trading day or of the data.
func (w *Window) IsLastOfDay() bool {
	if w.cursor < 0 {
		return false
	}

	if w.cursor == len(w.ticks)-1 {
		return true
	}

	return w.ticks[w.cursor+1].Day() != w.ticks[w.cursor].Day()
}

// IsLast reports whether the cursor sits on the final record of the data.
func (w *Window) IsLast() bool {
	return w.cursor == len(w.ticks)-1
}

// Slice returns up to length records ending at the cursor, bounded by the floor.
func (w *Window) Slice(length int) []types.Tick {
	if w.cursor < 0 || length <= 0 {
		return nil
	}

	start := max(w.cursor-length+1, w.floor)

	return w.ticks[start : w.cursor+1]
}

// ValueAt returns the raw column value addressed by offset.
func (w *Window) ValueAt(column types.Column, offset Offset) float64 {
	idx, ok := w.resolve(offset)
	if !ok {
		return 0
	}

	return w.ticks[idx].Value(column)
}

// Aggregate reduces length consecutive records ending at offset.
// Lengths configured as look-backs are served from the precomputed columns.
func (w *Window) Aggregate(column types.Column, length int, offset Offset, op AggregateOp) float64 {
	idx, ok := w.resolve(offset)
	if !ok || length <= 0 || idx-length+1 < w.floor {
		return 0
	}

	if values, hit := w.precomputed[precomputeKey{column: column, length: length, op: op}]; hit {
		if !w.ready[idx] {
			w.precompute(idx)
		}

		return values[idx]
	}

	return w.reduce(column, idx-length+1, idx, op)
}

// Angle expresses the change of column across a window as an angle in degrees:
// atan2((end-start)*scale, length) normalized to [-180, 180] and rounded to two decimals.
func (w *Window) Angle(column types.Column, length int, offset Offset, scale float64) float64 {
	idx, ok := w.resolve(offset)
	if !ok || length <= 0 || idx-length+1 < w.floor {
		return 0
	}

	end := w.ticks[idx].Value(column)
	start := w.ticks[idx-length+1].Value(column)

	return DirectionalAngle(start, end, length, scale)
}

// DirectionalAngle computes the angle formula on raw values.
func DirectionalAngle(start, end float64, length int, scale float64) float64 {
	if length <= 0 {
		return 0
	}

	radians := math.Atan2((end-start)*scale, float64(length))

	return math.Round(radians/(2*math.Pi)*360*100) / 100
}

func (w *Window) resolve(offset Offset) (int, bool) {
	var idx int

	switch offset.Anchor {
	case AnchorEntry:
		if w.entry < 0 {
			return 0, false
		}

		idx = w.entry - offset.Back
	default:
		idx = w.cursor - offset.Back
	}

	if idx < w.floor || idx > w.cursor || idx < 0 {
		return 0, false
	}

	return idx, true
}

func (w *Window) precompute(idx int) {
	for key, values := range w.precomputed {
		start := idx - key.length + 1
		if start < w.floor {
			values[idx] = 0

			continue
		}

		values[idx] = w.reduce(key.column, start, idx, key.op)
	}

	w.ready[idx] = true
}

func (w *Window) reduce(column types.Column, start, end int, op AggregateOp) float64 {
	result := w.ticks[start].Value(column)

	for i := start + 1; i <= end; i++ {
		v := w.ticks[i].Value(column)

		switch op {
		case OpMax:
			result = math.Max(result, v)
		case OpMin:
			result = math.Min(result, v)
		case OpSum, OpMean:
			result += v
		}
	}

	if op == OpMean {
		result /= float64(end - start + 1)
	}

	return result
}
