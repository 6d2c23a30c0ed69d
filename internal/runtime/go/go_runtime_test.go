package go_runtime

import (
	"testing"

	"github.com/rxtech-lab/argo-tickbench/internal/runtime"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type GoRuntimeTestSuite struct {
	suite.Suite
}

func TestGoRuntimeSuite(t *testing.T) {
	suite.Run(t, new(GoRuntimeTestSuite))
}

func (suite *GoRuntimeTestSuite) TestEvaluate() {
	strategy := NewGoRuntime("momentum", func(env *runtime.Env) runtime.Signals {
		return runtime.Signals{Buy: !env.Holding && env.ChangeRate > 2, Sell: env.Holding && env.ProfitPct > 1}
	})

	suite.Equal("momentum", strategy.Name())
	suite.NoError(strategy.Validate())

	env := runtime.NewEnv(nil)
	env.ChangeRate = 3

	signals, err := strategy.Evaluate(env)
	suite.NoError(err)
	suite.Equal(runtime.Signals{Buy: true}, signals)
	suite.True(signals.Any())

	env.Holding = true
	env.ProfitPct = 1.5

	signals, err = strategy.Evaluate(env)
	suite.NoError(err)
	suite.Equal(runtime.Signals{Sell: true}, signals)
}

func (suite *GoRuntimeTestSuite) TestMissingFunction() {
	strategy := NewGoRuntime("empty", nil)

	err := strategy.Validate()
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyNotLoaded))

	_, err = strategy.Evaluate(runtime.NewEnv(nil))
	suite.Error(err)
}
