// Package booking exposes bookable-slot generation over HTTP, delegating
// all orchestration to services/booking.
package booking

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kairoscal/server/api/common"
	"github.com/kairoscal/server/auth/jwt"
	enginebooking "github.com/kairoscal/server/engine/booking"
	"github.com/kairoscal/server/models/timeutil"
	bookingSvc "github.com/kairoscal/server/services/booking"
)

// Resource defines the booking API resource.
type Resource struct {
	Service *bookingSvc.Service
}

// NewResource creates a new booking resource.
func NewResource(service *bookingSvc.Service) *Resource {
	return &Resource{Service: service}
}

// Routes registers booking endpoints directly onto r, behind JWT auth. It
// takes a shared router rather than returning its own mountable
// sub-router, since api/calendar's paths (/user/*, /events/*) and this
// resource's (/service/*) share the same root and chi refuses to Mount
// two routers at an identical pattern.
func (rs *Resource) Routes(r chi.Router) {
	tokenAuth, _ := jwt.NewTokenAuth()

	r.Group(func(r chi.Router) {
		r.Use(tokenAuth.Verifier())
		r.Use(jwt.Authenticator)

		r.Get("/service/{id}/booking", rs.getSlots)
	})
}

// SlotResponse is the wire shape of an engine/booking.Slot.
type SlotResponse struct {
	Start       common.Time `json:"start"`
	DurationMin int         `json:"duration_min"`
	UserIDs     []int64     `json:"user_ids,omitempty"`
}

// DayResponse is the wire shape of an engine/booking.Day.
type DayResponse struct {
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

func newDayResponses(days []enginebooking.Day) []DayResponse {
	out := make([]DayResponse, len(days))
	for i, day := range days {
		slots := make([]SlotResponse, len(day.Slots))
		for j, slot := range day.Slots {
			slots[j] = SlotResponse{
				Start:       common.Time(slot.Start),
				DurationMin: int(slot.Duration / time.Minute),
				UserIDs:     slot.UserIDs,
			}
		}
		out[i] = DayResponse{Date: day.Date.String(), Slots: slots}
	}
	return out
}

func parseHostUserIDs(r *http.Request) []int64 {
	raw := r.URL.Query().Get("hostUserIds")
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

func parseMinutesParam(r *http.Request, name string) (time.Duration, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, errors.New(name + " is required")
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0, errors.New(name + " must be a positive integer number of minutes")
	}
	return time.Duration(minutes) * time.Minute, nil
}

func (rs *Resource) getSlots(w http.ResponseWriter, r *http.Request) {
	serviceID, err := common.ParseIDParam(r, "id")
	if err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(errors.New(common.MsgInvalidServiceID)))
		return
	}

	q := r.URL.Query()
	tz := q.Get("timezone")
	if tz == "" {
		common.RenderError(w, r, common.ErrorInvalidRequest(errors.New(common.MsgInvalidTimezone)))
		return
	}
	loc, err := timeutil.ResolveLocation(tz)
	if err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(errors.New(common.MsgInvalidTimezone)))
		return
	}

	startStr, endStr := q.Get("startDate"), q.Get("endDate")
	if startStr == "" || endStr == "" {
		common.RenderError(w, r, common.ErrorInvalidRequest(errors.New("startDate and endDate are required")))
		return
	}
	startDate, err := timeutil.ParseLocalDate(startStr)
	if err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(errors.New("invalid startDate format")))
		return
	}
	endDate, err := timeutil.ParseLocalDate(endStr)
	if err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(errors.New("invalid endDate format")))
		return
	}

	duration, err := parseMinutesParam(r, "duration")
	if err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(err))
		return
	}
	interval, err := parseMinutesParam(r, "interval")
	if err != nil {
		common.RenderError(w, r, common.ErrorInvalidRequest(err))
		return
	}

	window := enginebooking.Window{
		Start: startDate.Midnight(loc).UTC(),
		End:   endDate.AddDays(1).Midnight(loc).UTC(),
	}

	days, err := rs.Service.GenerateSlots(r.Context(), bookingSvc.Request{
		ServiceID:    serviceID,
		Window:       window,
		Location:     loc,
		SlotDuration: duration,
		SlotInterval: interval,
		HostUserIDs:  parseHostUserIDs(r),
		Now:          time.Now().UTC(),
	})
	if err != nil {
		common.RenderError(w, r, common.ErrorRenderer(err))
		return
	}

	common.Respond(w, r, http.StatusOK, newDayResponses(days), "booking slots computed")
}
