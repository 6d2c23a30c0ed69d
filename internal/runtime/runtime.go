package runtime

// Signals are the actions a predicate requests for one variant on one tick.
type Signals struct {
	Buy   bool
	Sell  bool
	Short bool
	Cover bool
}

// Any reports whether at least one action was requested.
func (s Signals) Any() bool {
	return s.Buy || s.Sell || s.Short || s.Cover
}

// Predicate decides entries and exits from the market features and the
// position state of one variant.
type Predicate interface {
	// Evaluate returns the requested actions. An error means no action.
	Evaluate(env *Env) (Signals, error)
	// Validate runs the predicate against a synthetic environment.
	Validate() error
	Name() string
}
