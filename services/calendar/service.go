// Package calendar orchestrates the calendar engine packages
// (engine/recurrence, engine/instance, engine/freebusy) around the
// repository layer: it is the only place allowed to do both I/O and engine
// math in the same call, translating repository failures and engine
// rejections into the shared services/errors taxonomy.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/uuid"

	"github.com/kairoscal/server/engine/freebusy"
	"github.com/kairoscal/server/engine/instance"
	"github.com/kairoscal/server/engine/recurrence"
	"github.com/kairoscal/server/models/base"
	"github.com/kairoscal/server/models/calendar"
	"github.com/kairoscal/server/models/timeutil"
	svcerrors "github.com/kairoscal/server/services/errors"
)

// Config bounds request-shaped operations the way the outer HTTP layer's
// configured limits require.
type Config struct {
	// MaxEventsReturnedBySearch caps Search results regardless of the
	// caller-requested limit.
	MaxEventsReturnedBySearch int
	// InstancesQueryDurationLimit bounds how wide a GetInstances/Timespan
	// window may be.
	InstancesQueryDurationLimit time.Duration
}

// Service orchestrates event, calendar and recurrence operations.
type Service struct {
	events    calendar.EventRepository
	calendars calendar.CalendarRepository
	users     calendar.UserRepository
	cfg       Config
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(events calendar.EventRepository, calendars calendar.CalendarRepository, users calendar.UserRepository, cfg Config, logger *slog.Logger) *Service {
	return &Service{events: events, calendars: calendars, users: users, cfg: cfg, logger: logger}
}

// CreateEvent validates event against its calendar's timezone, materializes
// RecurringUntil from its rule, assigns an external id if the caller left
// one unset, and persists it.
func (s *Service) CreateEvent(ctx context.Context, event *calendar.Event) error {
	cal, err := s.calendars.FindByID(ctx, event.CalendarID)
	if err != nil {
		return svcerrors.NotFound("create_event", err)
	}
	loc, err := cal.Location()
	if err != nil {
		return svcerrors.Internal("create_event", err)
	}
	if err := event.Validate(); err != nil {
		return svcerrors.Validation("create_event", err)
	}
	until, err := materializeRecurringUntil(event, loc)
	if err != nil {
		return svcerrors.Validation("create_event", err)
	}
	event.RecurringUntil = until

	if event.ExternalID == nil {
		id, err := uuid.NewV4()
		if err != nil {
			return svcerrors.Internal("create_event", err)
		}
		external := id.String()
		event.ExternalID = &external
	}

	if err := s.events.Create(ctx, event); err != nil {
		return svcerrors.Storage("create_event", err)
	}
	return nil
}

// GetEvent retrieves a single event by id, translating a missing row into
// the shared not-found kind. It exists so a PATCH handler can load the
// current row to merge partial updates onto before calling UpdateEvent.
func (s *Service) GetEvent(ctx context.Context, id int64) (*calendar.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, svcerrors.NotFound("get_event", err)
	}
	return event, nil
}

// UpdateEvent drops stale exdates when Start changed (spec policy: a
// rescheduled event's exception dates referenced instances of the old
// rule and no longer mean anything), re-materializes RecurringUntil, and
// persists the change.
func (s *Service) UpdateEvent(ctx context.Context, event *calendar.Event) error {
	existing, err := s.events.FindByID(ctx, event.ID)
	if err != nil {
		return svcerrors.NotFound("update_event", err)
	}
	if !existing.Start.Equal(event.Start) {
		event.ClearExdatesOnReschedule()
	}

	cal, err := s.calendars.FindByID(ctx, event.CalendarID)
	if err != nil {
		return svcerrors.NotFound("update_event", err)
	}
	loc, err := cal.Location()
	if err != nil {
		return svcerrors.Internal("update_event", err)
	}
	if err := event.Validate(); err != nil {
		return svcerrors.Validation("update_event", err)
	}
	until, err := materializeRecurringUntil(event, loc)
	if err != nil {
		return svcerrors.Validation("update_event", err)
	}
	event.RecurringUntil = until

	if err := s.events.Update(ctx, event); err != nil {
		return svcerrors.Storage("update_event", err)
	}
	return nil
}

// DeleteEvent removes a single event. Cancelling a recurring parent does
// not cascade to its exception children; they are kept as orphans by
// design (spec §9).
func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return svcerrors.Storage("delete_event", err)
	}
	return nil
}

// GetInstances expands a single event's occurrences overlapping window,
// rejecting windows wider than the configured instances-query limit.
func (s *Service) GetInstances(ctx context.Context, eventID int64, window instance.Window, maxInstances int) ([]instance.Instance, error) {
	if err := s.checkWindowLimit(window.Start, window.End); err != nil {
		return nil, err
	}
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, svcerrors.NotFound("get_instances", err)
	}
	cal, err := s.calendars.FindByID(ctx, event.CalendarID)
	if err != nil {
		return nil, svcerrors.NotFound("get_instances", err)
	}
	loc, err := cal.Location()
	if err != nil {
		return nil, svcerrors.Internal("get_instances", err)
	}

	instances, err := instance.Expand(ctx, event, window, loc, instance.Options{MaxInstances: maxInstances})
	if err != nil {
		return nil, svcerrors.Validation("get_instances", err)
	}
	return instances, nil
}

// Search returns events matching filter, capped at the configured maximum
// regardless of the caller's requested limit.
func (s *Service) Search(ctx context.Context, filter *base.Filter, sorting *base.Sorting, limit int) ([]*calendar.Event, error) {
	if limit <= 0 || limit > s.cfg.MaxEventsReturnedBySearch {
		limit = s.cfg.MaxEventsReturnedBySearch
	}
	events, err := s.events.Search(ctx, filter, sorting, limit)
	if err != nil {
		return nil, svcerrors.Storage("search", err)
	}
	return events, nil
}

// Timespan loads every event across calendarIDs overlapping window and
// returns, alongside the events themselves, their expanded instances keyed
// by event id.
func (s *Service) Timespan(ctx context.Context, calendarIDs []int64, window instance.Window, includeRecurring bool, maxInstances int) ([]*calendar.Event, map[int64][]instance.Instance, error) {
	if err := s.checkWindowLimit(window.Start, window.End); err != nil {
		return nil, nil, err
	}
	events, err := s.events.GetByCalendars(ctx, calendarIDs, calendar.EventWindow{Start: window.Start, End: window.End}, includeRecurring)
	if err != nil {
		return nil, nil, svcerrors.Storage("timespan", err)
	}

	locByCalendar := make(map[int64]*time.Location)
	out := make(map[int64][]instance.Instance, len(events))
	for _, event := range events {
		loc, ok := locByCalendar[event.CalendarID]
		if !ok {
			cal, err := s.calendars.FindByID(ctx, event.CalendarID)
			if err != nil {
				return nil, nil, svcerrors.NotFound("timespan", err)
			}
			loc, err = cal.Location()
			if err != nil {
				return nil, nil, svcerrors.Internal("timespan", err)
			}
			locByCalendar[event.CalendarID] = loc
		}
		instances, err := instance.Expand(ctx, event, window, loc, instance.Options{MaxInstances: maxInstances})
		if err != nil {
			return nil, nil, svcerrors.Validation("timespan", err)
		}
		out[event.ID] = instances
	}
	return events, out, nil
}

// FreeBusy computes a single user's busy timeline over calendarIDs (every
// calendar the user owns, if empty) within window.
func (s *Service) FreeBusy(ctx context.Context, userID int64, calendarIDs []int64, window freebusy.Window, includeTentative bool, maxInstances int) ([]timeutil.Interval, error) {
	if err := s.checkWindowLimit(window.Start, window.End); err != nil {
		return nil, err
	}
	if len(calendarIDs) == 0 {
		cals, err := s.calendars.FindByUser(ctx, userID)
		if err != nil {
			return nil, svcerrors.Storage("freebusy", err)
		}
		for _, c := range cals {
			calendarIDs = append(calendarIDs, c.ID)
		}
	}
	if len(calendarIDs) == 0 {
		return nil, nil
	}

	instances, err := s.loadInstances(ctx, calendarIDs, window, maxInstances)
	if err != nil {
		return nil, err
	}
	return freebusy.Compute(instances, window, freebusy.Options{IncludeTentative: includeTentative}), nil
}

// FreeBusyMulti computes busy timelines for every user in userIDs,
// independently per user. Calendars are looked up with one query per user;
// the events of all those calendars are then loaded together, once for
// expansion and once more to map each event to its calendar.
func (s *Service) FreeBusyMulti(ctx context.Context, userIDs []int64, window freebusy.Window, includeTentative bool, maxInstances int) (freebusy.MultiResult, error) {
	if err := s.checkWindowLimit(window.Start, window.End); err != nil {
		return nil, err
	}

	calendarsByUser := make(map[int64][]int64, len(userIDs))
	var allCalendarIDs []int64
	for _, userID := range userIDs {
		cals, err := s.calendars.FindByUser(ctx, userID)
		if err != nil {
			return nil, svcerrors.Storage("freebusy_multi", err)
		}
		for _, c := range cals {
			calendarsByUser[userID] = append(calendarsByUser[userID], c.ID)
			allCalendarIDs = append(allCalendarIDs, c.ID)
		}
	}
	if len(allCalendarIDs) == 0 {
		return freebusy.MultiResult{}, nil
	}

	allInstances, err := s.loadInstances(ctx, allCalendarIDs, window, maxInstances)
	if err != nil {
		return nil, err
	}
	instancesByCalendar := make(map[int64][]instance.Instance)
	calendarByEvent := make(map[int64]int64)
	events, err := s.events.GetByCalendars(ctx, allCalendarIDs, calendar.EventWindow{Start: window.Start, End: window.End}, true)
	if err != nil {
		return nil, svcerrors.Storage("freebusy_multi", err)
	}
	for _, e := range events {
		calendarByEvent[e.ID] = e.CalendarID
	}
	for _, inst := range allInstances {
		calID := calendarByEvent[inst.EventID]
		instancesByCalendar[calID] = append(instancesByCalendar[calID], inst)
	}

	instancesByUser := make(map[int64][]instance.Instance, len(userIDs))
	for _, userID := range userIDs {
		for _, calID := range calendarsByUser[userID] {
			instancesByUser[userID] = append(instancesByUser[userID], instancesByCalendar[calID]...)
		}
	}
	return freebusy.ComputeMulti(instancesByUser, window, freebusy.Options{IncludeTentative: includeTentative}), nil
}

// loadInstances loads and expands every event overlapping window across
// calendarIDs in one repository round trip.
func (s *Service) loadInstances(ctx context.Context, calendarIDs []int64, window freebusy.Window, maxInstances int) ([]instance.Instance, error) {
	events, err := s.events.GetByCalendars(ctx, calendarIDs, calendar.EventWindow{Start: window.Start, End: window.End}, true)
	if err != nil {
		return nil, svcerrors.Storage("load_instances", err)
	}

	locByCalendar := make(map[int64]*time.Location)
	var out []instance.Instance
	for _, event := range events {
		loc, ok := locByCalendar[event.CalendarID]
		if !ok {
			cal, err := s.calendars.FindByID(ctx, event.CalendarID)
			if err != nil {
				return nil, svcerrors.NotFound("load_instances", err)
			}
			loc, err = cal.Location()
			if err != nil {
				return nil, svcerrors.Internal("load_instances", err)
			}
			locByCalendar[event.CalendarID] = loc
		}
		instances, err := instance.Expand(ctx, event, instance.Window{Start: window.Start, End: window.End}, loc, instance.Options{MaxInstances: maxInstances})
		if err != nil {
			return nil, svcerrors.Validation("load_instances", err)
		}
		out = append(out, instances...)
	}
	return out, nil
}

// checkWindowLimit rejects windows wider than the configured limit before
// any repository load happens.
func (s *Service) checkWindowLimit(start, end time.Time) error {
	if !end.After(start) {
		return svcerrors.Validation("window", fmt.Errorf("window must be non-empty"))
	}
	if s.cfg.InstancesQueryDurationLimit > 0 && end.Sub(start) > s.cfg.InstancesQueryDurationLimit {
		return svcerrors.Validation("window", fmt.Errorf("window exceeds the configured duration limit"))
	}
	return nil
}

// materializeRecurringUntil derives Event.RecurringUntil from its rule: the
// rule's Until if set, the start of its last occurrence if Count is set
// without Until, or nil if the rule is unbounded.
func materializeRecurringUntil(event *calendar.Event, loc *time.Location) (*time.Time, error) {
	if !event.IsRecurring() {
		return nil, nil
	}
	rule := event.Recurrence
	if rule.Until != nil {
		return rule.Until, nil
	}
	if rule.Count == nil {
		return nil, nil
	}

	cur, err := recurrence.New(recurrence.Options{
		Rule:     *rule,
		DTStart:  event.Start,
		Location: loc,
		Window:   recurrence.Window{Start: event.Start, End: event.Start.AddDate(100, 0, 0)},
	})
	if err != nil {
		return nil, err
	}
	var last time.Time
	for {
		next, ok := cur.Next(context.Background())
		if !ok {
			break
		}
		last = next
	}
	if last.IsZero() {
		return nil, nil
	}
	return &last, nil
}
