// Package booking combines per-resource availability into service-wide
// bookable slots. It is intentionally pure: callers load each resource's raw
// availability (via engine/freebusy for the Calendar variant or
// engine/availability for the Schedule variant, intersected with the
// resource's booking horizon) and hand it in; this package only applies
// buffers, walks days, and resolves the service's MultiPersonPolicy.
package booking

import (
	"errors"
	"sort"
	"time"

	"github.com/kairoscal/server/models/booking"
	"github.com/kairoscal/server/models/timeutil"
)

// Window is the UTC query window [Start, End) slots are bounded by.
type Window struct {
	Start time.Time
	End   time.Time
}

// ResourceAvailability is one resource's raw availability, already computed
// per its AvailabilityVariant and clipped to Window and its own booking
// horizon, but not yet buffer-shrunk.
type ResourceAvailability struct {
	Resource booking.ServiceResource
	Raw      []timeutil.Interval
}

// Slot is one bookable moment.
type Slot struct {
	Start    time.Time
	Duration time.Duration
	// UserIDs lists the eligible hosts for Group and the chosen host for
	// RoundRobin. It is nil for Collective, where every filtered resource
	// participates in every slot by construction.
	UserIDs []int64
}

// Day is one local day's slots. Slots is empty (non-nil) when the day had at
// least one resource with availability but no service-wide slot matched.
type Day struct {
	Date  timeutil.LocalDate
	Slots []Slot
}

// Request describes one booking-slot computation.
type Request struct {
	Service      *booking.Service
	Window       Window
	Location     *time.Location
	SlotDuration time.Duration
	SlotInterval time.Duration
	HostUserIDs  []int64
	Now          time.Time
	Resources    []ResourceAvailability
}

// Generate resolves req into per-day slot arrays ordered by start, applying
// buffers, the service's MultiPersonPolicy, and the past-slot and
// empty-day edge policies.
func Generate(req Request) ([]Day, error) {
	if req.Service == nil {
		return nil, errors.New("booking: service is required")
	}
	if req.SlotDuration <= 0 {
		return nil, errors.New("booking: slot duration must be positive")
	}
	if req.SlotInterval <= 0 {
		return nil, errors.New("booking: slot interval must be positive")
	}
	if !req.Window.End.After(req.Window.Start) {
		return nil, errors.New("booking: window must be non-empty")
	}
	if req.Location == nil {
		return nil, errors.New("booking: location is required")
	}
	if err := req.Service.MultiPersonPolicy.Validate(); err != nil {
		return nil, err
	}

	filtered := req.Service.ResourcesFiltered(req.HostUserIDs)
	if len(filtered) == 0 {
		return nil, nil
	}
	allowed := make(map[int64]bool, len(filtered))
	for _, res := range filtered {
		allowed[res.UserID] = true
	}

	shrunk := make(map[int64][]timeutil.Interval, len(req.Resources))
	for _, ra := range req.Resources {
		if !allowed[ra.Resource.UserID] {
			continue
		}
		shrunk[ra.Resource.UserID] = shrinkByBuffer(ra.Raw, ra.Resource, req.SlotDuration)
	}

	var days []Day
	for date := timeutil.DateOf(req.Window.Start, req.Location); date.Midnight(req.Location).Before(req.Window.End); date = date.AddDays(1) {
		dayStart := date.Midnight(req.Location)
		dayEnd := date.AddDays(1).Midnight(req.Location)

		perResource := make(map[int64]map[time.Time]bool, len(filtered))
		anyAvailability := false
		for _, res := range filtered {
			dayIntervals := timeutil.ClipAll(shrunk[res.UserID], timeutil.Interval{Start: dayStart, End: dayEnd})
			if len(dayIntervals) > 0 {
				anyAvailability = true
			}
			perResource[res.UserID] = slotsForDay(dayStart, dayEnd, req.SlotInterval, req.SlotDuration, dayIntervals, req.Now)
		}
		if !anyAvailability {
			continue
		}

		slots := combine(req.Service.MultiPersonPolicy, req.SlotDuration, filtered, perResource)
		if slots == nil {
			slots = []Slot{}
		}
		days = append(days, Day{
			Date:  date,
			Slots: slots,
		})
	}

	return days, nil
}

// shrinkByBuffer applies a resource's buffer_before/buffer_after to each of
// its raw availability intervals and drops any interval left shorter than
// duration.
func shrinkByBuffer(raw []timeutil.Interval, res booking.ServiceResource, duration time.Duration) []timeutil.Interval {
	before := time.Duration(res.BufferBeforeMin) * time.Minute
	after := time.Duration(res.BufferAfterMin) * time.Minute

	out := make([]timeutil.Interval, 0, len(raw))
	for _, iv := range raw {
		shrunk := timeutil.Interval{Start: iv.Start.Add(before), End: iv.End.Add(-after)}
		if shrunk.Duration() >= duration {
			out = append(out, shrunk)
		}
	}
	return out
}

// slotsForDay returns the set of slot start instants within [dayStart,
// dayEnd) that are fully contained in intervals, strided by step, excluding
// any starting before now.
func slotsForDay(dayStart, dayEnd time.Time, step, duration time.Duration, intervals []timeutil.Interval, now time.Time) map[time.Time]bool {
	out := make(map[time.Time]bool)
	for t := dayStart; t.Before(dayEnd); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		end := t.Add(duration)
		if containedInAny(t, end, intervals) {
			out[t] = true
		}
	}
	return out
}

func containedInAny(start, end time.Time, intervals []timeutil.Interval) bool {
	for _, iv := range intervals {
		if !start.Before(iv.Start) && !end.After(iv.End) {
			return true
		}
	}
	return false
}

// combine resolves the service's MultiPersonPolicy over each resource's
// per-slot-start availability, returning the service-wide slots for one day
// sorted by start.
func combine(policy booking.MultiPersonPolicy, duration time.Duration, resources []booking.ServiceResource, perResource map[int64]map[time.Time]bool) []Slot {
	switch policy.Variant {
	case booking.PolicyCollective:
		return combineCollective(duration, resources, perResource)
	case booking.PolicyGroup:
		return combineGroup(policy.N, duration, resources, perResource)
	case booking.PolicyRoundRobin:
		return combineRoundRobin(duration, resources, perResource)
	default:
		return nil
	}
}

func combineCollective(duration time.Duration, resources []booking.ServiceResource, perResource map[int64]map[time.Time]bool) []Slot {
	if len(resources) == 0 {
		return nil
	}
	starts := starts(perResource[resources[0].UserID])
	var out []Slot
	for _, t := range starts {
		inAll := true
		for _, res := range resources[1:] {
			if !perResource[res.UserID][t] {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, Slot{Start: t, Duration: duration})
		}
	}
	return out
}

func combineGroup(n int, duration time.Duration, resources []booking.ServiceResource, perResource map[int64]map[time.Time]bool) []Slot {
	counts := make(map[time.Time][]int64)
	for _, res := range resources {
		for t := range perResource[res.UserID] {
			counts[t] = append(counts[t], res.UserID)
		}
	}
	var out []Slot
	for t, hosts := range counts {
		if len(hosts) >= n {
			sort.Slice(hosts, func(i, j int) bool { return hosts[i] < hosts[j] })
			out = append(out, Slot{Start: t, Duration: duration, UserIDs: hosts})
		}
	}
	sortSlots(out)
	return out
}

func combineRoundRobin(duration time.Duration, resources []booking.ServiceResource, perResource map[int64]map[time.Time]bool) []Slot {
	candidates := make(map[time.Time][]int64)
	for _, res := range resources {
		for t := range perResource[res.UserID] {
			candidates[t] = append(candidates[t], res.UserID)
		}
	}
	var out []Slot
	for t, hosts := range candidates {
		host := hosts[0]
		for _, id := range hosts[1:] {
			if id < host {
				host = id
			}
		}
		out = append(out, Slot{Start: t, Duration: duration, UserIDs: []int64{host}})
	}
	sortSlots(out)
	return out
}

func starts(set map[time.Time]bool) []time.Time {
	out := make([]time.Time, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func sortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
}
