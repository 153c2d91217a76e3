// Package booking orchestrates bookable-slot generation: it loads each
// resource's raw availability from its configured source (a calendar's
// free/busy timeline or a schedule's weekly projection), intersects it with
// the resource's booking horizon around "now", and hands the result to
// engine/booking to combine into service-wide slots.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kairoscal/server/engine/availability"
	enginebooking "github.com/kairoscal/server/engine/booking"
	"github.com/kairoscal/server/engine/freebusy"
	"github.com/kairoscal/server/engine/instance"
	"github.com/kairoscal/server/models/booking"
	"github.com/kairoscal/server/models/calendar"
	"github.com/kairoscal/server/models/schedule"
	"github.com/kairoscal/server/models/timeutil"
	svcerrors "github.com/kairoscal/server/services/errors"
)

// Config bounds how wide a booking-slot query window may be.
type Config struct {
	// QueryDurationLimit bounds Window.End - Window.Start. Zero disables
	// the check.
	QueryDurationLimit time.Duration
}

// Service orchestrates slot generation for a booking.Service.
type Service struct {
	services  booking.Repository
	events    calendar.EventRepository
	calendars calendar.CalendarRepository
	schedules schedule.Repository
	cfg       Config
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(services booking.Repository, events calendar.EventRepository, calendars calendar.CalendarRepository, schedules schedule.Repository, cfg Config, logger *slog.Logger) *Service {
	return &Service{services: services, events: events, calendars: calendars, schedules: schedules, cfg: cfg, logger: logger}
}

// Request describes one slot-generation call.
type Request struct {
	ServiceID    int64
	Window       enginebooking.Window
	Location     *time.Location
	SlotDuration time.Duration
	SlotInterval time.Duration
	HostUserIDs  []int64
	Now          time.Time
}

// GenerateSlots loads req.ServiceID's resources, computes each one's raw
// availability, and returns the combined per-day bookable slots.
func (s *Service) GenerateSlots(ctx context.Context, req Request) ([]enginebooking.Day, error) {
	if !req.Window.End.After(req.Window.Start) {
		return nil, svcerrors.Validation("generate_slots", fmt.Errorf("window must be non-empty"))
	}
	if s.cfg.QueryDurationLimit > 0 && req.Window.End.Sub(req.Window.Start) > s.cfg.QueryDurationLimit {
		return nil, svcerrors.Validation("generate_slots", fmt.Errorf("window exceeds the configured duration limit"))
	}
	if req.Location == nil {
		return nil, svcerrors.Validation("generate_slots", fmt.Errorf("location is required"))
	}

	svc, err := s.services.FindByID(ctx, req.ServiceID)
	if err != nil {
		return nil, svcerrors.NotFound("generate_slots", err)
	}

	filtered := svc.ResourcesFiltered(req.HostUserIDs)
	resources := make([]enginebooking.ResourceAvailability, 0, len(filtered))
	for _, res := range filtered {
		window := restrictToHorizon(req.Window, res, req.Now)
		raw, err := s.loadAvailability(ctx, res, window, req.Location)
		if err != nil {
			return nil, err
		}
		resources = append(resources, enginebooking.ResourceAvailability{Resource: res, Raw: raw})
	}

	days, err := enginebooking.Generate(enginebooking.Request{
		Service:      svc,
		Window:       req.Window,
		Location:     req.Location,
		SlotDuration: req.SlotDuration,
		SlotInterval: req.SlotInterval,
		HostUserIDs:  req.HostUserIDs,
		Now:          req.Now,
		Resources:    resources,
	})
	if err != nil {
		return nil, svcerrors.Validation("generate_slots", err)
	}
	return days, nil
}

// restrictToHorizon narrows window to [now+ClosestBookingMin,
// now+FurthestBookingMin) when those bounds are configured on res, so a
// resource that requires e.g. 24 hours' notice never offers slots sooner
// than that regardless of its underlying availability.
func restrictToHorizon(window enginebooking.Window, res booking.ServiceResource, now time.Time) enginebooking.Window {
	if now.IsZero() {
		return window
	}
	start := window.Start
	if res.ClosestBookingMin > 0 {
		if earliest := now.Add(time.Duration(res.ClosestBookingMin) * time.Minute); earliest.After(start) {
			start = earliest
		}
	}
	end := window.End
	if res.FurthestBookingMin > 0 {
		if latest := now.Add(time.Duration(res.FurthestBookingMin) * time.Minute); latest.Before(end) {
			end = latest
		}
	}
	return enginebooking.Window{Start: start, End: end}
}

// loadAvailability computes one resource's raw bookable intervals per its
// AvailabilityVariant.
func (s *Service) loadAvailability(ctx context.Context, res booking.ServiceResource, window enginebooking.Window, loc *time.Location) ([]timeutil.Interval, error) {
	if !window.End.After(window.Start) {
		return nil, nil
	}

	switch res.Availability {
	case booking.AvailabilityCalendar:
		return s.loadCalendarAvailability(ctx, res, window, loc)
	case booking.AvailabilitySchedule:
		return s.loadScheduleAvailability(ctx, res, window, loc)
	case booking.AvailabilityEmpty:
		return nil, nil
	default:
		return nil, svcerrors.Internal("load_availability", fmt.Errorf("unrecognized availability variant %q", res.Availability))
	}
}

// loadCalendarAvailability computes free time on res's calendar (plus any
// extra busy calendars overlaid on it) and returns it as the resource's raw
// availability: the window minus whatever engine/freebusy reports busy.
func (s *Service) loadCalendarAvailability(ctx context.Context, res booking.ServiceResource, window enginebooking.Window, loc *time.Location) ([]timeutil.Interval, error) {
	calendarIDs := append([]int64{*res.CalendarID}, res.BusyCalendarIDs...)

	events, err := s.events.GetByCalendars(ctx, calendarIDs, calendar.EventWindow{Start: window.Start, End: window.End}, true)
	if err != nil {
		return nil, svcerrors.Storage("load_calendar_availability", err)
	}

	var instances []instance.Instance
	for _, event := range events {
		expanded, err := instance.Expand(ctx, event, instance.Window{Start: window.Start, End: window.End}, loc, instance.Options{})
		if err != nil {
			return nil, svcerrors.Validation("load_calendar_availability", err)
		}
		instances = append(instances, expanded...)
	}

	busy := freebusy.Compute(instances, freebusy.Window{Start: window.Start, End: window.End}, freebusy.Options{IncludeTentative: true})
	whole := timeutil.Interval{Start: window.Start, End: window.End}
	return timeutil.Difference(whole, busy), nil
}

// loadScheduleAvailability projects res's schedule into UTC intervals and
// carves out any busy-calendar overlay configured on top of it.
func (s *Service) loadScheduleAvailability(ctx context.Context, res booking.ServiceResource, window enginebooking.Window, loc *time.Location) ([]timeutil.Interval, error) {
	sched, err := s.schedules.FindByID(ctx, *res.ScheduleID)
	if err != nil {
		return nil, svcerrors.NotFound("load_schedule_availability", err)
	}

	raw := availability.Project(sched, availability.Window{Start: window.Start, End: window.End}, loc)
	if len(res.BusyCalendarIDs) == 0 {
		return raw, nil
	}

	events, err := s.events.GetByCalendars(ctx, res.BusyCalendarIDs, calendar.EventWindow{Start: window.Start, End: window.End}, true)
	if err != nil {
		return nil, svcerrors.Storage("load_schedule_availability", err)
	}
	var instances []instance.Instance
	for _, event := range events {
		expanded, err := instance.Expand(ctx, event, instance.Window{Start: window.Start, End: window.End}, loc, instance.Options{})
		if err != nil {
			return nil, svcerrors.Validation("load_schedule_availability", err)
		}
		instances = append(instances, expanded...)
	}
	busy := freebusy.Compute(instances, freebusy.Window{Start: window.Start, End: window.End}, freebusy.Options{IncludeTentative: true})

	var out []timeutil.Interval
	for _, iv := range raw {
		out = append(out, timeutil.Difference(iv, busy)...)
	}
	return timeutil.UnionSorted(out), nil
}
