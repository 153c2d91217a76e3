// Package calendar exposes calendar event, search, timespan and free/busy
// operations over HTTP, delegating all orchestration to services/calendar.
package calendar

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/kairoscal/server/api/common"
	"github.com/kairoscal/server/auth/jwt"
	"github.com/kairoscal/server/engine/freebusy"
	"github.com/kairoscal/server/engine/instance"
	"github.com/kairoscal/server/models/base"
	"github.com/kairoscal/server/models/calendar"
	calendarSvc "github.com/kairoscal/server/services/calendar"
)

// Resource defines the calendar API resource.
type Resource struct {
	Service *calendarSvc.Service
}

// NewResource creates a new calendar resource.
func NewResource(service *calendarSvc.Service) *Resource {
	return &Resource{Service: service}
}

// Routes registers calendar endpoints directly onto r, behind JWT auth. It
// takes a shared router rather than returning its own mountable
// sub-router, since this resource's paths (/user/*, /events/*) and
// api/booking's (/service/*) share the same root and chi refuses to Mount
// two routers at an identical pattern.
func (rs *Resource) Routes(r chi.Router) {
	tokenAuth, _ := jwt.NewTokenAuth()

	r.Group(func(r chi.Router) {
		r.Use(tokenAuth.Verifier())
		r.Use(jwt.Authenticator)

		r.Post("/user/{userId}/events", rs.createEvent)
		r.Patch("/user/events/{id}", rs.updateEvent)
		r.Delete("/user/events/{id}", rs.deleteEvent)
		r.Get("/user/events/{id}/instances", rs.getInstances)

		r.Post("/events/search", rs.searchEvents)
		r.Post("/events/timespan", rs.timespan)

		r.Get("/user/{userId}/freebusy", rs.freeBusy)
		r.Post("/user/freebusy", rs.freeBusyMulti)
	})
}

// EventRequest is the create/update payload for a single event.
type EventRequest struct {
	CalendarID int64                   `json:"calendar_id"`
	ServiceID  *int64                  `json:"service_id,omitempty"`
	Title      string                  `json:"title"`
	Status     string                  `json:"status,omitempty"`
	Start      time.Time               `json:"start_time"`
	DurationMs int64                   `json:"duration_ms"`
	Busy       *bool                   `json:"busy,omitempty"`
	AllDay     bool                    `json:"all_day,omitempty"`
	EventType  string                  `json:"event_type,omitempty"`
	Recurrence *calendar.RRuleOptions  `json:"recurrence,omitempty"`
	Exdates    []time.Time             `json:"exdates,omitempty"`
	ExternalID *string                 `json:"external_id,omitempty"`
	Metadata   map[string]interface{}  `json:"metadata,omitempty"`
}

// Bind validates the event request.
func (req *EventRequest) Bind(_ *http.Request) error {
	if req.Start.IsZero() {
		return errors.New("start_time is required")
	}
	if req.DurationMs < 0 {
		return errors.New("duration_ms must not be negative")
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required),
	)
}

func (req *EventRequest) toEvent() *calendar.Event {
	event := &calendar.Event{}
	req.applyTo(event)
	return event
}

// applyTo overlays req onto event in place, leaving fields the request
// doesn't carry (UserID, AccountID, ParentID, RecurringEventID, ...)
// untouched, so a PATCH never silently clears them.
func (req *EventRequest) applyTo(event *calendar.Event) {
	event.CalendarID = req.CalendarID
	event.ServiceID = req.ServiceID
	event.Title = req.Title
	status := calendar.EventStatus(req.Status)
	if status == "" {
		status = calendar.StatusTentative
	}
	event.Status = status
	event.Start = req.Start
	event.DurationMs = req.DurationMs
	if req.Busy != nil {
		event.Busy = *req.Busy
	} else {
		event.Busy = true
	}
	event.AllDay = req.AllDay
	event.EventType = req.EventType
	event.Recurrence = req.Recurrence
	event.Exdates = req.Exdates
	event.ExternalID = req.ExternalID
	event.Metadata = req.Metadata
}

// IntervalResponse is the wire shape of a timeutil.Interval.
type IntervalResponse struct {
	Start common.Time `json:"start"`
	End   common.Time `json:"end"`
}

// InstanceResponse is the wire shape of an instance.Instance.
type InstanceResponse struct {
	EventID int64              `json:"event_id"`
	Start   common.Time        `json:"start"`
	End     common.Time        `json:"end"`
	Busy    bool               `json:"busy"`
	Status  calendar.EventStatus `json:"status"`
}

func newInstanceResponse(in instance.Instance) InstanceResponse {
	return InstanceResponse{
		EventID: in.EventID,
		Start:   common.Time(in.Start),
		End:     common.Time(in.End),
		Busy:    in.Busy,
		Status:  in.Status,
	}
}

func newInstanceResponses(instances []instance.Instance) []InstanceResponse {
	out := make([]InstanceResponse, len(instances))
	for i, in := range instances {
		out[i] = newInstanceResponse(in)
	}
	return out
}

// parseWindowQuery reads startTime/endTime query parameters as RFC3339
// timestamps.
func parseWindowQuery(r *http.Request) (time.Time, time.Time, error) {
	startStr := r.URL.Query().Get("startTime")
	endStr := r.URL.Query().Get("endTime")
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, errors.New("startTime and endTime are required")
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid startTime format")
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid endTime format")
	}
	return start, end, nil
}

func parseCalendarIDs(r *http.Request) []int64 {
	raw := r.URL.Query().Get("calendarIds")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (rs *Resource) createEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := common.ParseIDParam(r, "userId")
	if err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(errors.New(common.MsgInvalidUserID)))
		return
	}

	req := &EventRequest{}
	if err := render.Bind(r, req); err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(err))
		return
	}

	event := req.toEvent()
	event.UserID = userID

	if err := rs.Service.CreateEvent(r.Context(), event); err != nil {
		common.RenderError(w, r, common.ErrorRenderer(err))
		return
	}

	common.Respond(w, r, http.StatusCreated, event, "event created")
}

func (rs *Resource) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseIDParam(r, "id")
	if err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(errors.New(common.MsgInvalidEventID)))
		return
	}

	existing, err := rs.Service.GetEvent(r.Context(), id)
	if err != nil {
		common.RenderError(w, r, common.ErrorRenderer(err))
		return
	}

	req := &EventRequest{}
	if err := render.Bind(r, req); err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(err))
		return
	}

	req.applyTo(existing)

	if err := rs.Service.UpdateEvent(r.Context(), existing); err != nil {
		common.RenderError(w, r, common.ErrorRenderer(err))
		return
	}

	common.Respond(w, r, http.StatusOK, existing, "event updated")
}

func (rs *Resource) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseIDParam(r, "id")
	if err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(errors.New(common.MsgInvalidEventID)))
		return
	}

	if err := rs.Service.DeleteEvent(r.Context(), id); err != nil {
		common.RenderError(w, r, common.ErrorRenderer(err))
		return
	}

	common.RespondNoContent(w, r)
}

func (rs *Resource) getInstances(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseIDParam(r, "id")
	if err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(errors.New(common.MsgInvalidEventID)))
		return
	}

	start, end, err := parseWindowQuery(r)
	if err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(err))
		return
	}

	instances, err := rs.Service.GetInstances(r.Context(), id, instance.Window{Start: start, End: end}, 0)
	if err != nil {
		common.RenderError(w, r, common.ErrorRenderer(err))
		return
	}

	common.Respond(w, r, http.StatusOK, newInstanceResponses(instances), "instances retrieved")
}

// SearchRequest is the body of POST /events/search.
type SearchRequest struct {
	CalendarIDs []int64 `json:"calendar_ids,omitempty"`
	UserID      *int64  `json:"user_id,omitempty"`
	Status      string  `json:"status,omitempty"`
	Limit       int     `json:"limit,omitempty"`
}

// Bind is a no-op; every field of SearchRequest is optional.
func (req *SearchRequest) Bind(_ *http.Request) error { return nil }

func (rs *Resource) searchEvents(w http.ResponseWriter, r *http.Request) {
	req := &SearchRequest{}
	if err := render.Bind(r, req); err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(err))
		return
	}

	filter := base.NewFilter()
	if len(req.CalendarIDs) > 0 {
		ids := make([]interface{}, len(req.CalendarIDs))
		for i, id := range req.CalendarIDs {
			ids[i] = id
		}
		filter.In("calendar_id", ids...)
	}
	if req.UserID != nil {
		filter.Equal("user_id", *req.UserID)
	}
	if req.Status != "" {
		filter.Equal("status", req.Status)
	}

	events, err := rs.Service.Search(r.Context(), filter, nil, req.Limit)
	if err != nil {
		common.RenderError(w, r, common.ErrorRenderer(err))
		return
	}

	common.Respond(w, r, http.StatusOK, events, "events found")
}

// TimespanRequest is the body of POST /events/timespan.
type TimespanRequest struct {
	CalendarIDs      []int64   `json:"calendar_ids"`
	Start            time.Time `json:"start_time"`
	End              time.Time `json:"end_time"`
	IncludeRecurring bool      `json:"include_recurring"`
	MaxInstances     int       `json:"max_instances,omitempty"`
}

// Bind validates the timespan request.
func (req *TimespanRequest) Bind(_ *http.Request) error {
	if len(req.CalendarIDs) == 0 {
		return errors.New("calendar_ids is required")
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return errors.New("start_time and end_time are required")
	}
	return nil
}

// TimespanResponse is the response shape of POST /events/timespan.
type TimespanResponse struct {
	Events    []*calendar.Event             `json:"events"`
	Instances map[int64][]InstanceResponse `json:"instances,omitempty"`
}

func (rs *Resource) timespan(w http.ResponseWriter, r *http.Request) {
	req := &TimespanRequest{}
	if err := render.Bind(r, req); err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(err))
		return
	}

	events, instancesByUser, err := rs.Service.Timespan(r.Context(), req.CalendarIDs, instance.Window{Start: req.Start, End: req.End}, req.IncludeRecurring, req.MaxInstances)
	if err != nil {
		common.RenderError(w, r, common.ErrorRenderer(err))
		return
	}

	resp := TimespanResponse{Events: events}
	if len(instancesByUser) > 0 {
		resp.Instances = make(map[int64][]InstanceResponse, len(instancesByUser))
		for userID, instances := range instancesByUser {
			resp.Instances[userID] = newInstanceResponses(instances)
		}
	}

	common.Respond(w, r, http.StatusOK, resp, "timespan computed")
}

func (rs *Resource) freeBusy(w http.ResponseWriter, r *http.Request) {
	userID, err := common.ParseIDParam(r, "userId")
	if err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(errors.New(common.MsgInvalidUserID)))
		return
	}

	start, end, err := parseWindowQuery(r)
	if err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(err))
		return
	}

	calendarIDs := parseCalendarIDs(r)
	includeTentative := r.URL.Query().Get("includeTentative") == "true"

	busy, err := rs.Service.FreeBusy(r.Context(), userID, calendarIDs, freebusy.Window{Start: start, End: end}, includeTentative, 0)
	if err != nil {
		common.RenderError(w, r, common.ErrorRenderer(err))
		return
	}

	out := make([]IntervalResponse, len(busy))
	for i, iv := range busy {
		out[i] = IntervalResponse{Start: common.Time(iv.Start), End: common.Time(iv.End)}
	}

	common.Respond(w, r, http.StatusOK, out, "free/busy computed")
}

// FreeBusyMultiRequest is the body of POST /user/freebusy.
type FreeBusyMultiRequest struct {
	UserIDs          []int64   `json:"user_ids"`
	Start            time.Time `json:"start_time"`
	End              time.Time `json:"end_time"`
	IncludeTentative bool      `json:"include_tentative"`
	MaxInstances     int       `json:"max_instances,omitempty"`
}

// Bind validates the multi free/busy request.
func (req *FreeBusyMultiRequest) Bind(_ *http.Request) error {
	if len(req.UserIDs) == 0 {
		return errors.New("user_ids is required")
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return errors.New("start_time and end_time are required")
	}
	return nil
}

func (rs *Resource) freeBusyMulti(w http.ResponseWriter, r *http.Request) {
	req := &FreeBusyMultiRequest{}
	if err := render.Bind(r, req); err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(err))
		return
	}

	result, err := rs.Service.FreeBusyMulti(r.Context(), req.UserIDs, freebusy.Window{Start: req.Start, End: req.End}, req.IncludeTentative, req.MaxInstances)
	if err != nil {
		common.RenderError(w, r, common.ErrorRenderer(err))
		return
	}

	out := make(map[int64][]IntervalResponse, len(result))
	for userID, intervals := range result {
		entries := make([]IntervalResponse, len(intervals))
		for i, iv := range intervals {
			entries[i] = IntervalResponse{Start: common.Time(iv.Start), End: common.Time(iv.End)}
		}
		out[userID] = entries
	}

	common.Respond(w, r, http.StatusOK, out, "free/busy computed")
}
