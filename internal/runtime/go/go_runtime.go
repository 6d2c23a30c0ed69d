package go_runtime

import (
	"github.com/rxtech-lab/argo-tickbench/internal/runtime"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
)

// DecideFunc is a strategy written as a plain Go function.
type DecideFunc func(env *runtime.Env) runtime.Signals

// GoRuntime is a runtime for a strategy that is written in Go.
// So you don't need to write an expression file to run it.
// It is used for testing and development purposes.
type GoRuntime struct {
	name   string
	decide DecideFunc
}

var _ runtime.Predicate = (*GoRuntime)(nil)

func NewGoRuntime(name string, decide DecideFunc) *GoRuntime {
	return &GoRuntime{
		name:   name,
		decide: decide,
	}
}

// Evaluate implements runtime.Predicate.
func (g *GoRuntime) Evaluate(env *runtime.Env) (runtime.Signals, error) {
	if g.decide == nil {
		return runtime.Signals{}, errors.Newf(errors.ErrCodeStrategyNotLoaded, "strategy %s has no decision function", g.name)
	}

	return g.decide(env), nil
}

// Validate implements runtime.Predicate.
func (g *GoRuntime) Validate() error {
	if g.decide == nil {
		return errors.Newf(errors.ErrCodeStrategyNotLoaded, "strategy %s has no decision function", g.name)
	}

	return nil
}

// Name implements runtime.Predicate.
func (g *GoRuntime) Name() string {
	return g.name
}
