package collector

import (
	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
)

// State is the flush state of a Collector.
type State string

const (
	StateIdle      State = "idle"
	StateReceiving State = "receiving"
	StateFlushed   State = "flushed"
)

// Collector buffers trades from workers and hands them on as partials.
// It is owned by a single goroutine.
type Collector struct {
	state      State
	resolution int
	partial    *Partial
	flush      func(*Partial)
}

// New creates a collector that passes every flushed partial to flush.
func New(resolution int, flush func(*Partial)) *Collector {
	return &Collector{
		state:      StateIdle,
		resolution: resolution,
		partial:    NewPartial(resolution),
		flush:      flush,
	}
}

// State returns the current flush state.
func (c *Collector) State() State {
	return c.state
}

// Add buffers a batch of trades.
func (c *Collector) Add(batch []types.ClosedTrade) {
	for _, trade := range batch {
		c.partial.Add(trade)
	}

	c.state = StateReceiving
}

// Fail buffers an instrument failure.
func (c *Collector) Fail(failure Failure) {
	c.partial.Fail(failure)
	c.state = StateReceiving
}

// Complete flushes the buffered partial when data arrived since the last
// flush. It reports whether a partial was flushed.
func (c *Collector) Complete() bool {
	if c.state != StateReceiving {
		return false
	}

	c.flush(c.partial)
	c.partial = NewPartial(c.resolution)
	c.state = StateFlushed

	return true
}

// Aggregator merges flushed partials and produces the final Result once.
type Aggregator struct {
	partial *Partial
	emitted bool
}

// NewAggregator creates an empty top-level aggregator.
func NewAggregator(resolution int) *Aggregator {
	return &Aggregator{
		partial: NewPartial(resolution),
		emitted: false,
	}
}

// Receive merges a flushed partial.
func (a *Aggregator) Receive(partial *Partial) error {
	if a.emitted {
		return errors.New(errors.ErrCodeCollectorClosed, "aggregator already emitted its result")
	}

	a.partial.Merge(partial)

	return nil
}

// Result emits the merged result. Only the first call succeeds.
func (a *Aggregator) Result() (Result, error) {
	if a.emitted {
		return Result{}, errors.New(errors.ErrCodeCollectorClosed, "aggregator already emitted its result")
	}

	a.emitted = true

	return Finalize(a.partial), nil
}
