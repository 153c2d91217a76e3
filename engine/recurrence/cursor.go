// Package recurrence evaluates an RRULE-style recurrence rule into a lazy,
// restartable, strictly increasing sequence of UTC instants bounded by a
// query window. It is written by hand rather than borrowed from any host
// ecosystem's date library, so the timezone and DST semantics stay
// auditable end to end: enumeration walks local calendar dates (immune to
// DST by construction), and each candidate date is converted to a UTC
// instant exactly once, using the calendar's timezone offset for that
// specific date.
package recurrence

import (
	"context"
	"fmt"
	"time"

	"github.com/kairoscal/server/models/calendar"
	"github.com/kairoscal/server/models/timeutil"
)

// defaultInstanceCap bounds the number of instances a Cursor will ever
// enumerate, independent of count/until, as a safety net against
// pathological or malicious rule combinations.
const defaultInstanceCap = 100_000

// Options configures a Cursor.
type Options struct {
	Rule        calendar.RRuleOptions
	DTStart     time.Time // UTC
	Location    *time.Location
	Exdates     []time.Time // UTC, must equal a generated instance start to drop it
	Window      Window
	InstanceCap int // 0 uses defaultInstanceCap
}

// Window is the UTC query window [Start, End) instances are bounded by.
type Window struct {
	Start time.Time
	End   time.Time
}

// Cursor enumerates instances one at a time. It is restartable: a fresh
// Cursor built from the same Options always reproduces the same sequence.
type Cursor struct {
	opts    Options
	exdates map[int64]bool
	until   time.Time
	cap     int
	emitted int

	period    timeutil.LocalDate // current period's anchor local date
	pending   []time.Time        // remaining candidate instants (UTC) in the current period, ascending
	exhausted bool
}

// New validates opts and returns a Cursor ready for Next.
func New(opts Options) (*Cursor, error) {
	if err := opts.Rule.Validate(); err != nil {
		return nil, fmt.Errorf("recurrence: %w", err)
	}
	if opts.Location == nil {
		return nil, fmt.Errorf("recurrence: location is required")
	}
	if !opts.Window.End.After(opts.Window.Start) {
		return nil, fmt.Errorf("recurrence: window must be non-empty")
	}

	cap := opts.InstanceCap
	if cap <= 0 {
		cap = defaultInstanceCap
	}

	until := opts.Window.End
	if opts.Rule.Until != nil && opts.Rule.Until.Before(until) {
		until = *opts.Rule.Until
	}

	exmap := make(map[int64]bool, len(opts.Exdates))
	for _, x := range opts.Exdates {
		exmap[x.UTC().UnixMilli()] = true
	}

	c := &Cursor{
		opts:    opts,
		exdates: exmap,
		until:   until,
		cap:     cap,
		period:  alignFirstPeriod(opts.Rule, timeutil.DateOf(opts.DTStart, opts.Location)),
	}
	return c, nil
}

// Next returns the next instance's UTC start, or false when the sequence is
// exhausted (horizon reached, count satisfied, or the instance cap hit).
// ctx is checked before each candidate instant, so between emitted
// instances, and a caller with a deadline does not pay for unbounded
// enumeration.
func (c *Cursor) Next(ctx context.Context) (time.Time, bool) {
	for {
		if c.exhausted {
			return time.Time{}, false
		}
		if c.opts.Rule.Count != nil && c.emitted >= *c.opts.Rule.Count {
			c.exhausted = true
			return time.Time{}, false
		}
		if c.emitted >= c.cap {
			c.exhausted = true
			return time.Time{}, false
		}

		select {
		case <-ctx.Done():
			c.exhausted = true
			return time.Time{}, false
		default:
		}

		if len(c.pending) == 0 {
			if !c.fillNextPeriod() {
				c.exhausted = true
				return time.Time{}, false
			}
			continue
		}

		t := c.pending[0]
		c.pending = c.pending[1:]

		if t.Before(c.opts.DTStart) {
			continue
		}
		if t.After(c.until) || !t.Before(c.opts.Window.End) {
			c.exhausted = true
			return time.Time{}, false
		}
		if c.exdates[t.UnixMilli()] {
			continue
		}

		c.emitted++
		return t, true
	}
}

// fillNextPeriod advances the period walk until either pending instants are
// produced or the horizon is passed.
func (c *Cursor) fillNextPeriod() bool {
	untilDate := timeutil.DateOf(c.until, c.opts.Location)
	for len(c.pending) == 0 {
		if c.period.After(untilDate) {
			return false
		}

		dates := candidatesForPeriod(c.opts.Rule, c.period, timeutil.DateOf(c.opts.DTStart, c.opts.Location))
		dates = applyBySetPos(c.opts.Rule, dates)

		c.pending = toUTCSorted(dates, c.opts.DTStart, c.opts.Location)
		c.period = advancePeriod(c.opts.Rule, c.period)
	}
	return true
}
