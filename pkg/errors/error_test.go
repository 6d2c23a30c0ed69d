package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestWrapKeepsCause() {
	cause := errors.New("disk gone")
	err := Wrapf(ErrCodeQueryFailed, cause, "load %s", "005930")
	suite.Equal("[202] load 005930: disk gone", err.Error())
	suite.True(Is(err, cause))
	suite.Equal(cause, errors.Unwrap(err))
}

func (suite *ErrorTestSuite) TestGetCodeThroughFmtWrap() {
	inner := New(ErrCodeTooManyVariantValues, "too many")
	outer := fmt.Errorf("run: %w", inner)

	suite.Equal(ErrCodeTooManyVariantValues, GetCode(outer))
	suite.True(HasCode(outer, ErrCodeTooManyVariantValues))
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
}

func (suite *ErrorTestSuite) TestCategories() {
	tests := []struct {
		name     string
		code     ErrorCode
		expected Category
	}{
		{"unknown", ErrCodeUnknown, CategoryGeneral},
		{"predicate compile", ErrCodePredicateCompile, CategoryValidation},
		{"query", ErrCodeQueryFailed, CategoryData},
		{"indicator", ErrCodeIndicatorCalculation, CategoryIndicator},
		{"depth", ErrCodeInsufficientDepth, CategoryTrading},
		{"instrument", ErrCodeInstrumentFailed, CategoryBacktest},
		{"collector", ErrCodeCollectorClosed, CategoryCollector},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, tc.code.Category())
		})
	}
}

func (suite *ErrorTestSuite) TestIsValidation() {
	suite.True(IsValidation(New(ErrCodePredicateRuntime, "x")))
	suite.False(IsValidation(New(ErrCodeInstrumentFailed, "x")))
	suite.False(IsValidation(errors.New("plain")))
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataErrorf(30, 12, "BTC", "need %d ticks, have %d", 30, 12)
	suite.Equal("need 30 ticks, have 12", err.Error())
	suite.True(IsInsufficientDataError(fmt.Errorf("wrap: %w", err)))
	suite.False(IsInsufficientDataError(errors.New("other")))
}
