package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-tickbench/internal/types"
)

var constructors = map[types.IndicatorType]func(Params) Indicator{
	types.IndicatorTypeAD:        NewAD,
	types.IndicatorTypeADOSC:     NewADOSC,
	types.IndicatorTypeADXR:      NewADXR,
	types.IndicatorTypeAPO:       NewAPO,
	types.IndicatorTypeAroon:     NewAroon,
	types.IndicatorTypeBBands:    NewBBands,
	types.IndicatorTypeCCI:       NewCCI,
	types.IndicatorTypeMinusDI:   NewMinusDI,
	types.IndicatorTypePlusDI:    NewPlusDI,
	types.IndicatorTypeMACD:      NewMACD,
	types.IndicatorTypeMFI:       NewMFI,
	types.IndicatorTypeMOM:       NewMOM,
	types.IndicatorTypeOBV:       NewOBV,
	types.IndicatorTypePPO:       NewPPO,
	types.IndicatorTypeROC:       NewROC,
	types.IndicatorTypeRSI:       NewRSI,
	types.IndicatorTypeSAR:       NewSAR,
	types.IndicatorTypeStochS:    NewStochSlow,
	types.IndicatorTypeStochF:    NewStochFast,
	types.IndicatorTypeWilliamsR: NewWilliamsR,
}

func single(name types.IndicatorType, required int, compute func(series Series) []float64) Indicator {
	return &talibIndicator{
		name:     name,
		outputs:  []string{string(name)},
		required: required,
		compute: func(series Series) [][]float64 {
			return [][]float64{compute(series)}
		},
	}
}

func NewAD(p Params) Indicator {
	return single(types.IndicatorTypeAD, 1, func(s Series) []float64 {
		return talib.Ad(s.High, s.Low, s.Close, s.Volume)
	})
}

func NewADOSC(p Params) Indicator {
	return single(types.IndicatorTypeADOSC, p.required(), func(s Series) []float64 {
		return talib.AdOsc(s.High, s.Low, s.Close, s.Volume, p.Fast, p.Slow)
	})
}

func NewADXR(p Params) Indicator {
	return single(types.IndicatorTypeADXR, 3*p.Period+1, func(s Series) []float64 {
		return talib.AdxR(s.High, s.Low, s.Close, p.Period)
	})
}

func NewAPO(p Params) Indicator {
	return single(types.IndicatorTypeAPO, p.required(), func(s Series) []float64 {
		return talib.Apo(s.Close, p.Fast, p.Slow, p.MaType.talib())
	})
}

func NewAroon(p Params) Indicator {
	return &talibIndicator{
		name:     types.IndicatorTypeAroon,
		outputs:  []string{"aroon_down", "aroon_up"},
		required: p.required(),
		compute: func(s Series) [][]float64 {
			down, up := talib.Aroon(s.High, s.Low, p.Period)

			return [][]float64{down, up}
		},
	}
}

func NewBBands(p Params) Indicator {
	devUp, devDown := p.DevUp, p.DevDown
	if devUp == 0 {
		devUp = 2
	}

	if devDown == 0 {
		devDown = 2
	}

	return &talibIndicator{
		name:     types.IndicatorTypeBBands,
		outputs:  []string{"bbands_upper", "bbands_middle", "bbands_lower"},
		required: p.required(),
		compute: func(s Series) [][]float64 {
			upper, middle, lower := talib.BBands(s.Close, p.Period, devUp, devDown, p.MaType.talib())

			return [][]float64{upper, middle, lower}
		},
	}
}

func NewCCI(p Params) Indicator {
	return single(types.IndicatorTypeCCI, p.required(), func(s Series) []float64 {
		return talib.Cci(s.High, s.Low, s.Close, p.Period)
	})
}

func NewMinusDI(p Params) Indicator {
	return single(types.IndicatorTypeMinusDI, p.required(), func(s Series) []float64 {
		return talib.MinusDI(s.High, s.Low, s.Close, p.Period)
	})
}

func NewPlusDI(p Params) Indicator {
	return single(types.IndicatorTypePlusDI, p.required(), func(s Series) []float64 {
		return talib.PlusDI(s.High, s.Low, s.Close, p.Period)
	})
}

func NewMACD(p Params) Indicator {
	slow, signal := p.Slow, p.Signal
	if slow == 0 {
		slow = 26
	}

	if signal == 0 {
		signal = 9
	}

	return &talibIndicator{
		name:     types.IndicatorTypeMACD,
		outputs:  []string{"macd", "macd_signal", "macd_hist"},
		required: slow + signal,
		compute: func(s Series) [][]float64 {
			macd, macdSignal, hist := talib.Macd(s.Close, p.Fast, slow, signal)

			return [][]float64{macd, macdSignal, hist}
		},
	}
}

func NewMFI(p Params) Indicator {
	return single(types.IndicatorTypeMFI, p.required(), func(s Series) []float64 {
		return talib.Mfi(s.High, s.Low, s.Close, s.Volume, p.Period)
	})
}

func NewMOM(p Params) Indicator {
	return single(types.IndicatorTypeMOM, p.required(), func(s Series) []float64 {
		return talib.Mom(s.Close, p.Period)
	})
}

func NewOBV(p Params) Indicator {
	return single(types.IndicatorTypeOBV, 1, func(s Series) []float64 {
		return talib.Obv(s.Close, s.Volume)
	})
}

func NewPPO(p Params) Indicator {
	return single(types.IndicatorTypePPO, p.required(), func(s Series) []float64 {
		return talib.Ppo(s.Close, p.Fast, p.Slow, p.MaType.talib())
	})
}

func NewROC(p Params) Indicator {
	return single(types.IndicatorTypeROC, p.required(), func(s Series) []float64 {
		return talib.Roc(s.Close, p.Period)
	})
}

func NewRSI(p Params) Indicator {
	return single(types.IndicatorTypeRSI, p.required(), func(s Series) []float64 {
		return talib.Rsi(s.Close, p.Period)
	})
}

func NewSAR(p Params) Indicator {
	maximum := p.Maximum
	if maximum == 0 {
		maximum = 0.2
	}

	return single(types.IndicatorTypeSAR, 2, func(s Series) []float64 {
		return talib.Sar(s.High, s.Low, p.Acceleration, maximum)
	})
}

func NewStochSlow(p Params) Indicator {
	slowK, slowD := max(p.Slow, 1), max(p.Signal, 1)

	return &talibIndicator{
		name:     types.IndicatorTypeStochS,
		outputs:  []string{"stoch_slow_k", "stoch_slow_d"},
		required: p.Period + slowK + slowD,
		compute: func(s Series) [][]float64 {
			k, d := talib.Stoch(s.High, s.Low, s.Close, p.Period, slowK, p.MaType.talib(), slowD, p.MaType.talib())

			return [][]float64{k, d}
		},
	}
}

func NewStochFast(p Params) Indicator {
	fastD := max(p.Signal, 1)

	return &talibIndicator{
		name:     types.IndicatorTypeStochF,
		outputs:  []string{"stoch_fast_k", "stoch_fast_d"},
		required: p.Period + fastD,
		compute: func(s Series) [][]float64 {
			k, d := talib.StochF(s.High, s.Low, s.Close, p.Period, fastD, p.MaType.talib())

			return [][]float64{k, d}
		},
	}
}

func NewWilliamsR(p Params) Indicator {
	return single(types.IndicatorTypeWilliamsR, p.required(), func(s Series) []float64 {
		return talib.WillR(s.High, s.Low, s.Close, p.Period)
	})
}
