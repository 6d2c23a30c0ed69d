package indicator

import (
	"slices"

	"github.com/rxtech-lab/argo-tickbench/internal/logger"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"go.uber.org/zap"
)

// Snapshot maps every indicator output key to its latest value.
type Snapshot map[string]float64

// Battery computes every enabled indicator once per tick. Outputs of disabled
// or failed indicators read as 0.
type Battery struct {
	registry IndicatorRegistry
	history  int
	keys     []string
	logger   *logger.Logger
}

// OutputKeys returns every snapshot key the battery can produce, sorted.
func OutputKeys() []string {
	keys := make([]string, 0, len(constructors)+8)
	for _, construct := range constructors {
		keys = append(keys, construct(Params{}).Outputs()...) //nolint:exhaustruct // outputs do not depend on params
	}

	slices.Sort(keys)

	return keys
}

// NewBattery registers the enabled indicators of settings.
func NewBattery(settings Settings, log *logger.Logger) (*Battery, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	registry := NewIndicatorRegistry()

	for name, params := range settings.Indicators {
		if !params.enabled(name) {
			continue
		}

		if err := registry.RegisterIndicator(constructors[name](params)); err != nil {
			return nil, err
		}
	}

	return &Battery{
		registry: registry,
		history:  settings.History,
		keys:     OutputKeys(),
		logger:   log,
	}, nil
}

// History returns the number of records the battery wants per computation.
func (b *Battery) History() int {
	return b.history
}

// Active lists the enabled indicators.
func (b *Battery) Active() []types.IndicatorType {
	return b.registry.ListIndicators()
}

// Compute evaluates every enabled indicator over series.
func (b *Battery) Compute(series Series) Snapshot {
	snapshot := make(Snapshot, len(b.keys))
	for _, key := range b.keys {
		snapshot[key] = 0
	}

	for _, name := range b.registry.ListIndicators() {
		ind, err := b.registry.GetIndicator(name)
		if err != nil {
			continue
		}

		result := ind.Calculate(series)
		if result.Err != nil {
			b.logger.Debug("Indicator degraded to zero",
				zap.String("indicator", string(name)),
				zap.Int("records", series.Len()),
				zap.Error(result.Err),
			)

			continue
		}

		for key, value := range result.Values {
			snapshot[key] = value
		}
	}

	return snapshot
}
