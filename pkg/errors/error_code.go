package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

// Category groups error codes by their hundreds digit.
type Category int

const (
	CategoryGeneral    Category = 0
	CategoryValidation Category = 1
	CategoryData       Category = 2
	CategoryIndicator  Category = 3
	CategoryStrategy   Category = 4
	CategoryTrading    Category = 5
	CategoryBacktest   Category = 6
	CategoryCollector  Category = 9
)

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter      ErrorCode = 100
	ErrCodeInvalidConfiguration  ErrorCode = 101
	ErrCodeTooManyVariantValues  ErrorCode = 102
	ErrCodeTooManyCombinations   ErrorCode = 103
	ErrCodePredicateCompile      ErrorCode = 104
	ErrCodePredicateRuntime      ErrorCode = 105
	ErrCodeInvalidVariableRange  ErrorCode = 106
	ErrCodeInvalidTrancheRatios  ErrorCode = 107
	ErrCodeInvalidWeightingTiers ErrorCode = 108

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeUnorderedTicks        ErrorCode = 203

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyNotLoaded    ErrorCode = 400
	ErrCodeStrategyConfigError  ErrorCode = 401
	ErrCodeStrategyRuntimeError ErrorCode = 402

	// Trading errors (500-599)
	ErrCodeInsufficientDepth ErrorCode = 500
	ErrCodeInvalidQuantity   ErrorCode = 501

	// Backtest errors (600-699)
	ErrCodeBacktestInitFailed   ErrorCode = 600
	ErrCodeBacktestNoStrategy   ErrorCode = 601
	ErrCodeBacktestNoDatasource ErrorCode = 602
	ErrCodeInstrumentFailed     ErrorCode = 603
	ErrCodeBacktestCancelled    ErrorCode = 604

	// Collector errors (900-999)
	ErrCodeCollectorClosed ErrorCode = 900
)

// Category returns the category the code belongs to.
func (c ErrorCode) Category() Category {
	return Category(int(c) / 100)
}
