package collector

import (
	"cmp"
	"slices"
	"time"
)

// HeldPoint is the number of positions open during one time bucket.
type HeldPoint struct {
	Time  int64 `yaml:"time" json:"time"`
	Count int   `yaml:"count" json:"count"`
}

// HeldSeries counts concurrently held positions per time bucket. Buckets are
// unix seconds truncated to the resolution.
type HeldSeries struct {
	resolution int64
	buckets    map[int64]int
}

// NewHeldSeries creates an empty series with buckets of resolution seconds.
func NewHeldSeries(resolution int) *HeldSeries {
	if resolution < 1 {
		resolution = 1
	}

	return &HeldSeries{
		resolution: int64(resolution),
		buckets:    map[int64]int{},
	}
}

func (h *HeldSeries) bucket(t time.Time) int64 {
	unix := t.Unix()

	return unix - unix%h.resolution
}

// Add counts a position held from entry to exit, both buckets included.
func (h *HeldSeries) Add(entry, exit time.Time) {
	if exit.Before(entry) {
		entry, exit = exit, entry
	}

	for b := h.bucket(entry); b <= h.bucket(exit); b += h.resolution {
		h.buckets[b]++
	}
}

// Merge adds the counts of other bucket by bucket.
func (h *HeldSeries) Merge(other *HeldSeries) {
	for b, count := range other.buckets {
		h.buckets[b] += count
	}
}

// Points returns the non-empty buckets in time order.
func (h *HeldSeries) Points() []HeldPoint {
	points := make([]HeldPoint, 0, len(h.buckets))
	for b, count := range h.buckets {
		points = append(points, HeldPoint{Time: b, Count: count})
	}

	slices.SortFunc(points, func(a, b HeldPoint) int {
		return cmp.Compare(a.Time, b.Time)
	})

	return points
}

// Max returns the largest bucket count.
func (h *HeldSeries) Max() int {
	peak := 0
	for _, count := range h.buckets {
		peak = max(peak, count)
	}

	return peak
}
