// Package freebusy merges expanded event instances from one or more
// calendars into a normalized, sorted, disjoint busy timeline, honoring
// explicit non-busy events as holes carved into that timeline.
package freebusy

import (
	"time"

	"github.com/kairoscal/server/engine/instance"
	"github.com/kairoscal/server/models/calendar"
	"github.com/kairoscal/server/models/timeutil"
)

// Window is the UTC query window [Start, End) results are clipped to.
type Window struct {
	Start time.Time
	End   time.Time
}

// Options tunes the computation.
type Options struct {
	// IncludeTentative, when false (the default), excludes tentative events
	// from the busy set.
	IncludeTentative bool
}

// Compute merges instances into a busy timeline per spec: busy instances
// (filtered by status and IncludeTentative) are unioned, then non-busy
// instances overlapping the window carve holes out of that union. The
// result is sorted, disjoint, and clipped to window.
func Compute(instances []instance.Instance, window Window, opts Options) []timeutil.Interval {
	var busy, free []timeutil.Interval
	w := timeutil.Interval{Start: window.Start, End: window.End}

	for _, inst := range instances {
		iv := timeutil.Interval{Start: inst.Start, End: inst.End}
		if !iv.Overlaps(w) {
			continue
		}
		if inst.Busy {
			if inst.Status == calendar.StatusCancelled {
				continue
			}
			if inst.Status == calendar.StatusTentative && !opts.IncludeTentative {
				continue
			}
			busy = append(busy, iv)
			continue
		}
		free = append(free, iv)
	}

	busyNormalized := timeutil.UnionSorted(busy)
	var result []timeutil.Interval
	for _, b := range busyNormalized {
		result = append(result, timeutil.Difference(b, free)...)
	}
	result = timeutil.UnionSorted(result)
	return timeutil.ClipAll(result, w)
}

// MultiResult maps a user id to its busy timeline.
type MultiResult map[int64][]timeutil.Interval

// ComputeMulti computes Compute independently per user, keyed by user id.
// instancesByUser groups already-expanded instances per user, typically
// loaded in a single batched repository query.
func ComputeMulti(instancesByUser map[int64][]instance.Instance, window Window, opts Options) MultiResult {
	out := make(MultiResult, len(instancesByUser))
	for userID, instances := range instancesByUser {
		out[userID] = Compute(instances, window, opts)
	}
	return out
}
