package indicator

import (
	"fmt"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
)

// Series is the price and volume history an indicator is computed over,
// oldest first.
type Series struct {
	Close  []float64
	High   []float64
	Low    []float64
	Volume []float64
}

// SeriesFromTicks extracts the indicator inputs from ticks.
func SeriesFromTicks(ticks []types.Tick) Series {
	series := Series{
		Close:  make([]float64, len(ticks)),
		High:   make([]float64, len(ticks)),
		Low:    make([]float64, len(ticks)),
		Volume: make([]float64, len(ticks)),
	}

	for i, tick := range ticks {
		series.Close[i] = tick.Price
		series.High[i] = tick.High
		series.Low[i] = tick.Low
		series.Volume[i] = tick.Volume
	}

	return series
}

// Len returns the number of records in the series.
func (s Series) Len() int {
	return len(s.Close)
}

// Result holds the latest value of every output of one indicator, or the
// reason it could not be computed.
type Result struct {
	Values map[string]float64
	Err    error
}

// Indicator interface defines methods that any technical indicator must implement
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Outputs lists the snapshot keys the indicator produces
	Outputs() []string
	// Calculate computes the indicator over the series
	Calculate(series Series) Result
}

type computeFunc func(series Series) [][]float64

// talibIndicator adapts a go-talib function returning one array per output.
type talibIndicator struct {
	name     types.IndicatorType
	outputs  []string
	required int
	compute  computeFunc
}

func (t *talibIndicator) Name() types.IndicatorType {
	return t.name
}

func (t *talibIndicator) Outputs() []string {
	return t.outputs
}

func (t *talibIndicator) Calculate(series Series) (result Result) {
	if series.Len() < t.required {
		return Result{
			Values: nil,
			Err: errors.NewInsufficientDataErrorf(t.required, series.Len(), "",
				"%s needs %d records", t.name, t.required),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			result = Result{
				Values: nil,
				Err:    errors.Newf(errors.ErrCodeIndicatorCalculation, "%s panicked: %v", t.name, r),
			}
		}
	}()

	arrays := t.compute(series)
	if len(arrays) != len(t.outputs) {
		return Result{
			Values: nil,
			Err: errors.Newf(errors.ErrCodeIndicatorCalculation,
				"%s returned %d outputs, expected %d", t.name, len(arrays), len(t.outputs)),
		}
	}

	values := make(map[string]float64, len(t.outputs))

	for i, output := range t.outputs {
		if len(arrays[i]) == 0 {
			return Result{
				Values: nil,
				Err:    errors.New(errors.ErrCodeIndicatorCalculation, fmt.Sprintf("%s returned no values", output)),
			}
		}

		values[output] = arrays[i][len(arrays[i])-1]
	}

	return Result{Values: values, Err: nil}
}
