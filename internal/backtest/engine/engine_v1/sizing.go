package engine

import (
	"math"
	"slices"

	"github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-tickbench/internal/feature"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/internal/utils"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
)

// WeightKey names the market condition that scales the entry allocation.
type WeightKey string

const (
	WeightKeyNone            WeightKey = ""
	WeightKeyHighLowSpread   WeightKey = "high_low_spread"
	WeightKeyChangeRateAngle WeightKey = "change_rate_angle"
	WeightKeyTradeValueAngle WeightKey = "trade_value_angle"
	WeightKeyPrevDayRatio    WeightKey = "prev_day_ratio"
	WeightKeyTurnover        WeightKey = "turnover"
	WeightKeySameTimeRatio   WeightKey = "same_time_ratio"
)

const trancheTolerance = 1e-9

// Sizer turns allocations into order quantities.
type Sizer struct {
	allocation    float64
	precision     int
	weighting     WeightingConfig
	entryTranches []float64
	exitTranches  []float64
}

// NewSizer validates the tranche and weighting settings of config.
func NewSizer(config BacktestEngineV1Config) (*Sizer, error) {
	if err := validateTranches("entry", config.Entry.Tranches); err != nil {
		return nil, err
	}

	if err := validateTranches("exit", config.Exit.Tranches); err != nil {
		return nil, err
	}

	if err := validateTiers(config.Entry.Weighting); err != nil {
		return nil, err
	}

	precision := config.DecimalPrecision
	if config.Venue == commission_fee.VenueEquity {
		precision = 0
	}

	return &Sizer{
		allocation:    config.Allocation,
		precision:     precision,
		weighting:     config.Entry.Weighting,
		entryTranches: config.Entry.Tranches,
		exitTranches:  config.Exit.Tranches,
	}, nil
}

func validateTranches(leg string, ratios []float64) error {
	sum := 0.0

	for i, ratio := range ratios {
		if ratio <= 0 || ratio > 1 {
			return errors.Newf(errors.ErrCodeInvalidTrancheRatios, "%s tranche %d has ratio %v outside (0, 1]", leg, i, ratio)
		}

		sum += ratio
	}

	if sum > 1+trancheTolerance {
		return errors.Newf(errors.ErrCodeInvalidTrancheRatios, "%s tranche ratios sum to %v, more than 1", leg, sum)
	}

	return nil
}

func validateTiers(weighting WeightingConfig) error {
	switch weighting.Key {
	case WeightKeyNone, WeightKeyHighLowSpread, WeightKeyChangeRateAngle, WeightKeyTradeValueAngle,
		WeightKeyPrevDayRatio, WeightKeyTurnover, WeightKeySameTimeRatio:
	default:
		return errors.Newf(errors.ErrCodeInvalidWeightingTiers, "unknown weighting key %q", weighting.Key)
	}

	if weighting.Key != WeightKeyNone && len(weighting.Tiers) == 0 {
		return errors.Newf(errors.ErrCodeInvalidWeightingTiers, "weighting key %s has no tiers", weighting.Key)
	}

	for i, tier := range weighting.Tiers {
		if tier.Weight <= 0 {
			return errors.Newf(errors.ErrCodeInvalidWeightingTiers, "tier %d has non-positive weight %v", i, tier.Weight)
		}

		if i > 0 && tier.Min <= weighting.Tiers[i-1].Min {
			return errors.Newf(errors.ErrCodeInvalidWeightingTiers, "tier %d minimum %v is not above tier %d", i, tier.Min, i-1)
		}
	}

	return nil
}

// Weight picks the tier for the current market condition. Tiers are ascending
// lower bounds; a value below every bound uses the first tier.
func (s *Sizer) Weight(tick types.Tick, window *feature.Window, lookback int) float64 {
	if s.weighting.Key == WeightKeyNone || len(s.weighting.Tiers) == 0 {
		return 1
	}

	value := s.weightValue(tick, window, lookback)

	idx := slices.IndexFunc(s.weighting.Tiers, func(tier WeightTier) bool { return tier.Min > value })

	switch idx {
	case -1:
		return s.weighting.Tiers[len(s.weighting.Tiers)-1].Weight
	case 0:
		return s.weighting.Tiers[0].Weight
	default:
		return s.weighting.Tiers[idx-1].Weight
	}
}

func (s *Sizer) weightValue(tick types.Tick, window *feature.Window, lookback int) float64 {
	length := s.weighting.AngleLength
	if length == 0 {
		length = lookback
	}

	scale := s.weighting.AngleScale
	if scale == 0 {
		scale = 1
	}

	switch s.weighting.Key {
	case WeightKeyHighLowSpread:
		return tick.HighLowSpread()
	case WeightKeyChangeRateAngle:
		return window.Angle(types.ColumnChangeRate, length, feature.Now(0), scale)
	case WeightKeyTradeValueAngle:
		return window.Angle(types.ColumnTradeValue, length, feature.Now(0), scale)
	case WeightKeyPrevDayRatio:
		return tick.PrevDayRatio
	case WeightKeyTurnover:
		return tick.Turnover
	case WeightKeySameTimeRatio:
		return tick.SameTimeRatio
	default:
		return 0
	}
}

// EntryQuantity sizes the entry tranche with index tranche at price.
// It returns 0 once every tranche has been used.
func (s *Sizer) EntryQuantity(price, weight float64, tranche int) float64 {
	if price <= 0 {
		return 0
	}

	ratio := 1.0

	if len(s.entryTranches) > 0 {
		if tranche >= len(s.entryTranches) {
			return 0
		}

		ratio = s.entryTranches[tranche]
	} else if tranche > 0 {
		return 0
	}

	return utils.RoundToDecimalPrecision(s.allocation*weight/price*ratio, s.precision)
}

// EntryTranches returns the number of entry tranches, at least one.
func (s *Sizer) EntryTranches() int {
	return max(len(s.entryTranches), 1)
}

// ExitQuantity sizes the next exit tranche of state. The last tranche, and
// any tranche that would round to nothing, closes the whole position.
func (s *Sizer) ExitQuantity(state *OrderState) float64 {
	if len(s.exitTranches) == 0 || state.PartialSellCount >= len(s.exitTranches)-1 {
		return state.HeldQty
	}

	qty := utils.RoundToDecimalPrecision(state.OriginalQty*s.exitTranches[state.PartialSellCount], s.precision)
	if qty <= 0 || qty >= state.HeldQty-math.Pow10(-s.precision-1) {
		return state.HeldQty
	}

	return qty
}
