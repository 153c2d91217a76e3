// Package instance converts a stored Event plus a query window into its
// concrete occurrences, honoring recurrence, exception dates, and the
// configured instance cap. Expansion is a pure function of its inputs:
// identical (event snapshot, window, timezone) always produce identical
// output.
package instance

import (
	"context"
	"fmt"
	"time"

	"github.com/kairoscal/server/engine/recurrence"
	"github.com/kairoscal/server/models/calendar"
	"github.com/kairoscal/server/models/timeutil"
)

// Instance is one concrete occurrence of an event.
type Instance struct {
	EventID int64
	Start   time.Time
	End     time.Time
	Busy    bool
	Status  calendar.EventStatus
}

// Window is the UTC query window [Start, End) instances are bounded by.
type Window struct {
	Start time.Time
	End   time.Time
}

// Options bounds expansion beyond the window itself.
type Options struct {
	MaxInstances int // 0 means no extra cap beyond the recurrence engine's own default
}

// Expand returns event's concrete instances overlapping window, in a
// calendar's timezone for recurrence enumeration purposes. A non-recurring
// event yields at most one instance.
func Expand(ctx context.Context, event *calendar.Event, window Window, loc *time.Location, opts Options) ([]Instance, error) {
	duration := time.Duration(event.DurationMs) * time.Millisecond

	if !event.IsRecurring() {
		start := event.Start
		end := start.Add(duration)
		if !overlaps(start, end, window) {
			return nil, nil
		}
		return []Instance{{
			EventID: event.ID,
			Start:   start,
			End:     end,
			Busy:    event.Busy,
			Status:  event.Status,
		}}, nil
	}

	cur, err := recurrence.New(recurrence.Options{
		Rule:        *event.Recurrence,
		DTStart:     event.Start,
		Location:    loc,
		Exdates:     event.Exdates,
		Window:      recurrence.Window{Start: window.Start, End: window.End},
		InstanceCap: opts.MaxInstances,
	})
	if err != nil {
		return nil, fmt.Errorf("instance: %w", err)
	}

	var out []Instance
	for {
		start, ok := cur.Next(ctx)
		if !ok {
			break
		}
		if !start.Before(window.End) {
			break
		}
		end := start.Add(duration)
		if !overlaps(start, end, window) {
			continue
		}
		out = append(out, Instance{
			EventID: event.ID,
			Start:   start,
			End:     end,
			Busy:    event.Busy,
			Status:  event.Status,
		})
		if opts.MaxInstances > 0 && len(out) >= opts.MaxInstances {
			break
		}
	}
	return out, nil
}

func overlaps(start, end time.Time, window Window) bool {
	iv := timeutil.Interval{Start: start, End: end}
	w := timeutil.Interval{Start: window.Start, End: window.End}
	return iv.Overlaps(w)
}
