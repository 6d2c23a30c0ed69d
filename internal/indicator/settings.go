package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
)

// MaType selects the moving average used inside an indicator.
type MaType string

const (
	MaTypeSMA MaType = "sma"
	MaTypeEMA MaType = "ema"
)

func (m MaType) talib() talib.MaType {
	if m == MaTypeEMA {
		return talib.EMA
	}

	return talib.SMA
}

// Params is the parameter set of one indicator. A zero primary parameter
// (Acceleration for SAR, Fast for ADOSC, APO, PPO and MACD, Period for the
// rest) disables the indicator.
type Params struct {
	// Period is the look-back, or the fast %K length for the stochastics.
	Period int `yaml:"period" json:"period,omitempty"`
	Fast   int `yaml:"fast" json:"fast,omitempty"`
	// Slow is the slow period, or the slow %K length for the slow stochastic.
	Slow int `yaml:"slow" json:"slow,omitempty"`
	// Signal is the MACD signal length, or the %D length for the stochastics.
	Signal       int     `yaml:"signal" json:"signal,omitempty"`
	DevUp        float64 `yaml:"dev_up" json:"dev_up,omitempty"`
	DevDown      float64 `yaml:"dev_down" json:"dev_down,omitempty"`
	Acceleration float64 `yaml:"acceleration" json:"acceleration,omitempty"`
	Maximum      float64 `yaml:"maximum" json:"maximum,omitempty"`
	MaType       MaType  `yaml:"ma_type" json:"ma_type,omitempty" jsonschema:"enum=sma,enum=ema"`
}

func (p Params) enabled(name types.IndicatorType) bool {
	switch name {
	case types.IndicatorTypeSAR:
		return p.Acceleration > 0
	case types.IndicatorTypeADOSC, types.IndicatorTypeAPO, types.IndicatorTypePPO, types.IndicatorTypeMACD:
		return p.Fast > 0
	default:
		return p.Period > 0
	}
}

func (p Params) required() int {
	return max(p.Period, p.Fast, p.Slow, p.Signal, 1) + p.Signal + 1
}

// Settings configures the indicator battery.
type Settings struct {
	// History is the number of records, ending at the cursor, fed to every indicator.
	History    int                           `yaml:"history" json:"history,omitempty" validate:"gte=0"`
	Indicators map[types.IndicatorType]Params `yaml:"indicators" json:"indicators,omitempty"`
}

// Enabled reports whether at least one indicator is switched on.
func (s Settings) Enabled() bool {
	for name, params := range s.Indicators {
		if params.enabled(name) {
			return true
		}
	}

	return false
}

// Validate checks names and parameter signs.
func (s Settings) Validate() error {
	if s.History < 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "indicator history must not be negative, got %d", s.History)
	}

	if s.Enabled() && s.History == 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "indicator history must be set when indicators are enabled")
	}

	for name, params := range s.Indicators {
		if _, ok := constructors[name]; !ok {
			return errors.Newf(errors.ErrCodeIndicatorNotFound, "unknown indicator %s", name)
		}

		if params.Period < 0 || params.Fast < 0 || params.Slow < 0 || params.Signal < 0 ||
			params.Acceleration < 0 || params.Maximum < 0 {
			return errors.Newf(errors.ErrCodeInvalidParameter, "indicator %s has a negative parameter", name)
		}

		if params.enabled(name) && params.Slow > 0 && params.Fast > params.Slow {
			return errors.Newf(errors.ErrCodeInvalidParameter, "indicator %s fast period %d exceeds slow period %d",
				name, params.Fast, params.Slow)
		}
	}

	return nil
}
