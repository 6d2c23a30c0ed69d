package types

type IndicatorType string

const (
	IndicatorTypeAD        IndicatorType = "ad"
	IndicatorTypeADOSC     IndicatorType = "adosc"
	IndicatorTypeADXR      IndicatorType = "adxr"
	IndicatorTypeAPO       IndicatorType = "apo"
	IndicatorTypeAroon     IndicatorType = "aroon"
	IndicatorTypeBBands    IndicatorType = "bbands"
	IndicatorTypeCCI       IndicatorType = "cci"
	IndicatorTypeMinusDI   IndicatorType = "minus_di"
	IndicatorTypePlusDI    IndicatorType = "plus_di"
	IndicatorTypeMACD      IndicatorType = "macd"
	IndicatorTypeMFI       IndicatorType = "mfi"
	IndicatorTypeMOM       IndicatorType = "mom"
	IndicatorTypeOBV       IndicatorType = "obv"
	IndicatorTypePPO       IndicatorType = "ppo"
	IndicatorTypeROC       IndicatorType = "roc"
	IndicatorTypeRSI       IndicatorType = "rsi"
	IndicatorTypeSAR       IndicatorType = "sar"
	IndicatorTypeStochS    IndicatorType = "stoch_slow"
	IndicatorTypeStochF    IndicatorType = "stoch_fast"
	IndicatorTypeWilliamsR IndicatorType = "williams_r"
)
