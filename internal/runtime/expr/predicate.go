package expr

import (
	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rxtech-lab/argo-tickbench/internal/indicator"
	"github.com/rxtech-lab/argo-tickbench/internal/runtime"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
)

type action int

const (
	actionBuy action = iota
	actionSell
	actionShort
	actionCover
	actionCount
)

var actionNames = [actionCount]string{"buy", "sell", "short", "cover"}

// Predicate evaluates compiled expressions against a runtime.Env.
// Compiled programs are immutable, so one Predicate may serve every worker.
type Predicate struct {
	name      string
	variables int
	programs  [actionCount]*vm.Program
}

var _ runtime.Predicate = (*Predicate)(nil)

// New compiles every non-empty expression of source.
func New(source Source) (*Predicate, error) {
	p := &Predicate{
		name:      source.Name,
		variables: source.Variables,
		programs:  [actionCount]*vm.Program{},
	}

	for i, code := range [actionCount]string{source.Buy, source.Sell, source.Short, source.Cover} {
		if code == "" {
			continue
		}

		program, err := exprlang.Compile(code, exprlang.Env(runtime.Env{}), exprlang.AsBool()) //nolint:exhaustruct // type information only
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodePredicateCompile, err, "failed to compile %s expression of %s", actionNames[i], source.Name)
		}

		p.programs[i] = program
	}

	return p, nil
}

func (p *Predicate) Name() string {
	return p.name
}

// Evaluate runs the expressions in buy, sell, short, cover order.
func (p *Predicate) Evaluate(env *runtime.Env) (runtime.Signals, error) {
	var fired [actionCount]bool

	for i, program := range p.programs {
		if program == nil {
			continue
		}

		out, err := exprlang.Run(program, env)
		if err != nil {
			return runtime.Signals{}, errors.Wrapf(errors.ErrCodePredicateRuntime, err, "%s expression of %s failed", actionNames[i], p.name)
		}

		fired[i], _ = out.(bool)
	}

	return runtime.Signals{
		Buy:   fired[actionBuy],
		Sell:  fired[actionSell],
		Short: fired[actionShort],
		Cover: fired[actionCover],
	}, nil
}

// Validate evaluates every expression once against a synthetic environment
// with every indicator output and variable present.
func (p *Predicate) Validate() error {
	env := runtime.NewEnv(nil)
	env.Symbol = "VALIDATE"
	env.Price, env.Open, env.High, env.Low = 1, 1, 1, 1
	env.Vars = make([]float64, p.variables)
	env.Ind = make(map[string]float64)

	for _, key := range indicator.OutputKeys() {
		env.Ind[key] = 0
	}

	for i := range env.Vars {
		env.Vars[i] = 1
	}

	for _, holding := range []bool{false, true} {
		env.Holding = holding

		if _, err := p.Evaluate(env); err != nil {
			return err
		}
	}

	return nil
}
