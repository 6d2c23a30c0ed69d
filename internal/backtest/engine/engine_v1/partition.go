package engine

import (
	"cmp"
	"slices"
)

// PartitionStrategy selects the unit of work handed to a worker.
type PartitionStrategy string

const (
	// PartitionBySymbol gives each worker whole instruments.
	PartitionBySymbol PartitionStrategy = "symbol"
	// PartitionByDay gives each worker whole calendar days of every instrument.
	PartitionByDay PartitionStrategy = "day"
	// PartitionBySymbolDay balances single instrument-days independently.
	PartitionBySymbolDay PartitionStrategy = "symbol_day"
)

// Unit is one symbol, optionally restricted to one calendar day (YYYYMMDD).
type Unit struct {
	Symbol string
	Day    int
	Ticks  int
}

// Job is the ordered list of units processed by one worker.
type Job struct {
	Worker int
	Units  []Unit
	Ticks  int
}

type bundle struct {
	units []Unit
	ticks int
}

// Partition assigns units to at most workers jobs. Units of the same day stay
// together under PartitionByDay.
func Partition(units []Unit, strategy PartitionStrategy, workers int) []Job {
	var bundles []bundle

	if strategy == PartitionByDay {
		byDay := map[int]int{}
		for _, unit := range units {
			i, ok := byDay[unit.Day]
			if !ok {
				i = len(bundles)
				byDay[unit.Day] = i
				bundles = append(bundles, bundle{units: nil, ticks: 0})
			}

			bundles[i].units = append(bundles[i].units, unit)
			bundles[i].ticks += unit.Ticks
		}
	} else {
		for _, unit := range units {
			bundles = append(bundles, bundle{units: []Unit{unit}, ticks: unit.Ticks})
		}
	}

	return balance(bundles, workers)
}

// balance is longest-processing-time-first: bundles in descending size, each
// to the least loaded job. Empty jobs are dropped.
func balance(bundles []bundle, workers int) []Job {
	if workers < 1 {
		workers = 1
	}

	ordered := slices.Clone(bundles)
	slices.SortStableFunc(ordered, func(a, b bundle) int {
		if c := cmp.Compare(b.ticks, a.ticks); c != 0 {
			return c
		}

		return compareUnit(a.units[0], b.units[0])
	})

	jobs := make([]Job, workers)
	for i := range jobs {
		jobs[i].Worker = i
	}

	for _, b := range ordered {
		target := 0
		for i := 1; i < len(jobs); i++ {
			if jobs[i].Ticks < jobs[target].Ticks {
				target = i
			}
		}

		jobs[target].Units = append(jobs[target].Units, b.units...)
		jobs[target].Ticks += b.ticks
	}

	for i := range jobs {
		slices.SortFunc(jobs[i].Units, compareUnit)
	}

	return slices.DeleteFunc(jobs, func(j Job) bool { return len(j.Units) == 0 })
}

func compareUnit(a, b Unit) int {
	if c := cmp.Compare(a.Symbol, b.Symbol); c != 0 {
		return c
	}

	return cmp.Compare(a.Day, b.Day)
}
