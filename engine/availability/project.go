// Package availability projects a schedule's weekly rules and date overrides
// into concrete, sorted, disjoint UTC intervals bounded by a query window.
// It is the schedule-variant counterpart to engine/freebusy's calendar
// variant; engine/booking combines both behind a single resource interface.
package availability

import (
	"time"

	"github.com/kairoscal/server/models/schedule"
	"github.com/kairoscal/server/models/timeutil"
)

// Window is the UTC query window [Start, End) results are clipped to.
type Window struct {
	Start time.Time
	End   time.Time
}

// Project walks every local calendar day the window touches in loc, resolves
// each day's effective rule (a DateRule override takes precedence over a
// WeekdayRule for the same weekday; a day with neither rule projects to no
// availability), converts that rule's LocalIntervals to UTC instants using
// loc's wall clock for that specific day (DST-safe, matching the conversion
// point engine/recurrence uses), and returns the sorted, disjoint, clipped
// union.
func Project(sched *schedule.Schedule, window Window, loc *time.Location) []timeutil.Interval {
	if !window.End.After(window.Start) {
		return nil
	}

	w := timeutil.Interval{Start: window.Start, End: window.End}
	var out []timeutil.Interval

	for day := timeutil.DateOf(window.Start, loc); day.Midnight(loc).Before(window.End); day = day.AddDays(1) {
		for _, iv := range intervalsFor(sched, day) {
			instant := localIntervalToUTC(iv, day, loc)
			if clipped, ok := instant.Clip(w); ok {
				out = append(out, clipped)
			}
		}
	}

	return timeutil.UnionSorted(out)
}

// intervalsFor returns the effective LocalIntervals for day: its DateRule
// override if one exists, otherwise its WeekdayRule, otherwise none.
func intervalsFor(sched *schedule.Schedule, day timeutil.LocalDate) []schedule.LocalInterval {
	if rule, ok := sched.DateRuleFor(day); ok {
		return rule.Intervals
	}
	if rule, ok := sched.WeekdayRuleFor(day.Weekday()); ok {
		return rule.Intervals
	}
	return nil
}

// localIntervalToUTC converts a minutes-since-midnight interval on day,
// observed in loc, to a UTC instant interval.
func localIntervalToUTC(iv schedule.LocalInterval, day timeutil.LocalDate, loc *time.Location) timeutil.Interval {
	start := time.Date(day.Year, day.Month, day.Day, 0, iv.StartMinute, 0, 0, loc)
	end := time.Date(day.Year, day.Month, day.Day, 0, iv.EndMinute, 0, 0, loc)
	return timeutil.Interval{Start: start.UTC(), End: end.UTC()}
}
