package engine

import (
	"testing"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type VariantsTestSuite struct {
	suite.Suite
}

func TestVariantsSuite(t *testing.T) {
	suite.Run(t, new(VariantsTestSuite))
}

func (suite *VariantsTestSuite) TestSingle() {
	variants, err := VariantConfig{Mode: VariantModeSingle, Values: []float64{20, 1.5}}.Expand()
	suite.Require().NoError(err)
	suite.Equal([]types.Variant{{VariantKey: types.VariantKey{Group: 0, Key: 0}, Vars: []float64{20, 1.5}}}, variants)
	suite.Equal(20, variants[0].Lookback())
}

func (suite *VariantsTestSuite) TestTurnGroupsByFirstVariable() {
	config := VariantConfig{
		Mode: VariantModeTurn,
		Ranges: []VariableRange{
			{Start: 5, End: 10, Step: 5},
			{Start: 0.1, End: 0.3, Step: 0.1},
		},
	}

	variants, err := config.Expand()
	suite.Require().NoError(err)
	suite.Require().Len(variants, 6)

	suite.Equal(types.VariantKey{Group: 0, Key: 0}, variants[0].VariantKey)
	suite.Equal([]float64{5, 0.1}, variants[0].Vars)
	suite.Equal([]float64{5, 0.3}, variants[2].Vars)
	suite.Equal(types.VariantKey{Group: 1, Key: 2}, variants[5].VariantKey)
	suite.Equal([]float64{10, 0.3}, variants[5].Vars)

	suite.Equal([]int{5, 10}, Lookbacks(variants))
	suite.Equal(2, config.Width())
}

func (suite *VariantsTestSuite) TestBatchSortsGroups() {
	config := VariantConfig{
		Mode:  VariantModeBatch,
		Batch: [][]float64{{30, 1}, {10, 2}, {30, 3}},
	}

	variants, err := config.Expand()
	suite.Require().NoError(err)
	suite.Require().Len(variants, 3)

	suite.Equal(types.VariantKey{Group: 0, Key: 0}, variants[0].VariantKey)
	suite.Equal([]float64{10, 2}, variants[0].Vars)
	suite.Equal(types.VariantKey{Group: 1, Key: 1}, variants[2].VariantKey)
	suite.Equal([]float64{30, 3}, variants[2].Vars)
}

func (suite *VariantsTestSuite) TestErrors() {
	many := make([][]float64, 0, MaxVariantValues+1)
	for i := range MaxVariantValues + 1 {
		many = append(many, []float64{5, float64(i)})
	}

	tests := []struct {
		name   string
		config VariantConfig
		code   errors.ErrorCode
	}{
		{
			name:   "range with too many values",
			config: VariantConfig{Mode: VariantModeTurn, Ranges: []VariableRange{{Start: 1, End: 21, Step: 1}}},
			code:   errors.ErrCodeTooManyVariantValues,
		},
		{
			name:   "batch with too many distinct values",
			config: VariantConfig{Mode: VariantModeBatch, Batch: many},
			code:   errors.ErrCodeTooManyVariantValues,
		},
		{
			name: "group with too many combinations",
			config: VariantConfig{Mode: VariantModeTurn, Ranges: []VariableRange{
				{Start: 5, End: 5, Step: 0},
				{Start: 1, End: 10, Step: 1},
				{Start: 1, End: 6, Step: 1},
			}},
			code: errors.ErrCodeTooManyCombinations,
		},
		{
			name:   "zero step",
			config: VariantConfig{Mode: VariantModeTurn, Ranges: []VariableRange{{Start: 1, End: 2, Step: 0}}},
			code:   errors.ErrCodeInvalidVariableRange,
		},
		{
			name:   "reversed range",
			config: VariantConfig{Mode: VariantModeTurn, Ranges: []VariableRange{{Start: 3, End: 1, Step: 1}}},
			code:   errors.ErrCodeInvalidVariableRange,
		},
		{
			name:   "unknown mode",
			config: VariantConfig{Mode: "grid"},
			code:   errors.ErrCodeInvalidConfiguration,
		},
		{
			name:   "empty batch",
			config: VariantConfig{Mode: VariantModeBatch},
			code:   errors.ErrCodeInvalidConfiguration,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := tc.config.Expand()
			suite.Error(err)
			suite.True(errors.HasCode(err, tc.code), "got %v", err)
			suite.True(errors.IsValidation(err))
		})
	}
}

func (suite *VariantsTestSuite) TestTwentyValuesAreAllowed() {
	variants, err := VariantConfig{Mode: VariantModeTurn, Ranges: []VariableRange{{Start: 1, End: 20, Step: 1}}}.Expand()
	suite.Require().NoError(err)
	suite.Len(variants, 20)
}
