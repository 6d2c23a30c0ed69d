package mocks

//go:generate mockgen -destination=./mock_predicate.go -package=mocks github.com/rxtech-lab/argo-tickbench/internal/runtime Predicate
//go:generate mockgen -destination=./mock_fee_model.go -package=mocks github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/commission_fee FeeModel
//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1/datasource DataSource
