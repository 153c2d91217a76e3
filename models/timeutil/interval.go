// Package timeutil provides half-open time interval algebra and IANA
// timezone resolution shared by the recurrence, instance, freebusy,
// availability and booking engines.
package timeutil

import (
	"sort"
	"time"
)

// Interval is a half-open range [Start, End) in UTC.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New returns an Interval normalized to UTC.
func New(start, end time.Time) Interval {
	return Interval{Start: start.UTC(), End: end.UTC()}
}

// Valid reports whether the interval is non-empty and correctly ordered.
func (iv Interval) Valid() bool {
	return iv.End.After(iv.Start)
}

// Duration returns the interval's length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Contains reports whether t falls within [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Overlaps reports whether iv and other share any instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Intersect returns the overlapping portion of iv and other, and whether
// one exists.
func (iv Interval) Intersect(other Interval) (Interval, bool) {
	if !iv.Overlaps(other) {
		return Interval{}, false
	}
	start := iv.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := iv.End
	if other.End.Before(end) {
		end = other.End
	}
	result := Interval{Start: start, End: end}
	return result, result.Valid()
}

// Clip restricts iv to the bounds of window, returning false if there is no
// overlap.
func (iv Interval) Clip(window Interval) (Interval, bool) {
	return iv.Intersect(window)
}

// UnionSorted merges overlapping or adjacent intervals in intervals into a
// sorted, disjoint list. The input need not be pre-sorted.
func UnionSorted(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].End.Before(sorted[j].End)
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})

	out := make([]Interval, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if !next.Start.After(cur.End) {
			if next.End.After(cur.End) {
				cur.End = next.End
			}
			continue
		}
		out = append(out, cur)
		cur = next
	}
	out = append(out, cur)
	return out
}

// Difference subtracts the union of subtrahends from minuend, returning the
// remaining sorted, disjoint pieces of minuend.
func Difference(minuend Interval, subtrahends []Interval) []Interval {
	if !minuend.Valid() {
		return nil
	}
	cuts := UnionSorted(subtrahends)
	remaining := []Interval{minuend}
	for _, cut := range cuts {
		var next []Interval
		for _, r := range remaining {
			clipped, ok := cut.Intersect(r)
			if !ok {
				next = append(next, r)
				continue
			}
			if clipped.Start.After(r.Start) {
				next = append(next, Interval{Start: r.Start, End: clipped.Start})
			}
			if r.End.After(clipped.End) {
				next = append(next, Interval{Start: clipped.End, End: r.End})
			}
		}
		remaining = next
	}
	sort.Slice(remaining, func(i, j int) bool {
		return remaining[i].Start.Before(remaining[j].Start)
	})
	return remaining
}

// ClipAll clips every interval in intervals to window, dropping pieces that
// do not overlap it.
func ClipAll(intervals []Interval, window Interval) []Interval {
	out := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if clipped, ok := iv.Clip(window); ok {
			out = append(out, clipped)
		}
	}
	return out
}
