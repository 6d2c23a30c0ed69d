package feature

// Anchor selects the index a look-back is measured from.
type Anchor int

const (
	// AnchorNow measures back from the cursor.
	AnchorNow Anchor = iota
	// AnchorEntry reads at the entry index of the current position.
	AnchorEntry
)

// Offset addresses a record relative to the cursor or to the position entry.
type Offset struct {
	Anchor Anchor
	Back   int
}

// Now addresses the record back ticks before the cursor.
func Now(back int) Offset {
	return Offset{Anchor: AnchorNow, Back: back}
}

// FromEntry addresses the record at which the current position was entered.
func FromEntry() Offset {
	return Offset{Anchor: AnchorEntry, Back: 0}
}

// AggregateOp is a reduction over a look-back window.
type AggregateOp int

const (
	OpMax AggregateOp = iota
	OpMin
	OpSum
	OpMean
)

// AllOps lists every reduction in a stable order.
var AllOps = []AggregateOp{OpMax, OpMin, OpSum, OpMean}

func (op AggregateOp) String() string {
	switch op {
	case OpMax:
		return "max"
	case OpMin:
		return "min"
	case OpSum:
		return "sum"
	case OpMean:
		return "mean"
	default:
		return "unknown"
	}
}
