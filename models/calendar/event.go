package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/kairoscal/server/models/base"
	"github.com/uptrace/bun"
)

// tableEvents is the schema-qualified table name.
const tableEvents = "calendar.events"

// EventStatus is the event status lattice: tentative and confirmed freely
// transition between each other; cancelled is terminal for free/busy
// purposes but an update may still revive an event back to tentative or
// confirmed.
type EventStatus string

const (
	StatusTentative EventStatus = "tentative"
	StatusConfirmed EventStatus = "confirmed"
	StatusCancelled EventStatus = "cancelled"
)

// IsValid reports whether s is one of the recognized status values.
func (s EventStatus) IsValid() bool {
	switch s {
	case StatusTentative, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Frequency is an RRULE frequency.
type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
	FreqYearly  Frequency = "yearly"
)

// IsValid reports whether f is one of the recognized frequency values.
func (f Frequency) IsValid() bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqMonthly, FreqYearly:
		return true
	}
	return false
}

// ByWeekday is a BYDAY-style weekday reference with an optional ordinal
// prefix (RFC5545 "+1MO", "-1FR"). Stored as a JSON object with a numeric
// weekday (0 = Sunday) and the ordinal n, which is omitted when zero.
type ByWeekday struct {
	Weekday time.Weekday `json:"weekday"`
	N       int          `json:"n,omitempty"`
}

// RRuleOptions describes a recurrence rule. It is the persisted shape of
// Event.Recurrence; the recurrence engine parses it into a candidate
// generator, it never re-derives it from a string.
type RRuleOptions struct {
	Freq       Frequency   `json:"freq"`
	Interval   int         `json:"interval"`
	Count      *int        `json:"count,omitempty"`
	Until      *time.Time  `json:"until,omitempty"`
	BySetPos   []int       `json:"bysetpos,omitempty"`
	ByWeekday  []ByWeekday `json:"byweekday,omitempty"`
	ByMonthDay []int       `json:"bymonthday,omitempty"`
	ByMonth    []int       `json:"bymonth,omitempty"`
	ByYearDay  []int       `json:"byyearday,omitempty"`
	ByWeekNo   []int       `json:"byweekno,omitempty"`
	WeekStart  *time.Weekday `json:"weekstart,omitempty"`
}

// Validate checks RRuleOptions fields in isolation, independent of any
// particular dtstart.
func (o *RRuleOptions) Validate() error {
	if !o.Freq.IsValid() {
		return errors.New("invalid recurrence frequency")
	}
	if o.Interval <= 0 {
		return errors.New("recurrence interval must be greater than zero")
	}
	for _, d := range o.ByMonthDay {
		if d == 0 || d < -31 || d > 31 {
			return errors.New("bymonthday out of range")
		}
	}
	for _, m := range o.ByMonth {
		if m < 1 || m > 12 {
			return errors.New("bymonth out of range")
		}
	}
	for _, d := range o.ByYearDay {
		if d == 0 || d < -366 || d > 366 {
			return errors.New("byyearday out of range")
		}
	}
	return nil
}

// Event is a single calendar event, recurring or not.
type Event struct {
	base.Model `bun:"schema:calendar,table:events"`

	CalendarID int64       `bun:"calendar_id,notnull" json:"calendar_id"`
	UserID     int64       `bun:"user_id,notnull" json:"user_id"`
	AccountID  int64       `bun:"account_id,notnull" json:"account_id"`
	ServiceID  *int64      `bun:"service_id" json:"service_id,omitempty"`
	Title      string      `bun:"title,notnull" json:"title"`
	Status     EventStatus `bun:"status,notnull,default:'tentative'" json:"status"`

	Start      time.Time `bun:"start_time,notnull" json:"start_time"`
	DurationMs int64     `bun:"duration_ms,notnull" json:"duration_ms"`
	End        time.Time `bun:"end_time,notnull" json:"end_time"`

	Busy      bool   `bun:"busy,notnull,default:true" json:"busy"`
	AllDay    bool   `bun:"all_day,notnull,default:false" json:"all_day"`
	EventType string `bun:"event_type" json:"event_type,omitempty"`

	Recurrence     *RRuleOptions `bun:"recurrence,type:jsonb" json:"recurrence,omitempty"`
	RecurringUntil *time.Time    `bun:"recurring_until" json:"recurring_until,omitempty"`
	Exdates        []time.Time   `bun:"exdates,type:jsonb" json:"exdates,omitempty"`

	ParentID         *int64     `bun:"parent_id" json:"parent_id,omitempty"`
	ExternalID       *string    `bun:"external_id" json:"external_id,omitempty"`
	RecurringEventID *int64     `bun:"recurring_event_id" json:"recurring_event_id,omitempty"`
	OriginalStart    *time.Time `bun:"original_start" json:"original_start,omitempty"`

	Reminders json.RawMessage        `bun:"reminders,type:jsonb" json:"reminders,omitempty"`
	Metadata  map[string]interface{} `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
}

// TableName returns the database table name.
func (e *Event) TableName() string {
	return tableEvents
}

// GetID returns the event ID.
func (e *Event) GetID() interface{} {
	return e.ID
}

// GetCreatedAt returns the creation timestamp.
func (e *Event) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp.
func (e *Event) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// Validate checks the event's own fields; it does not check referential
// integrity against its calendar, user or account (that is the service
// layer's job, since it requires a repository round trip).
func (e *Event) Validate() error {
	if e.Title == "" {
		return errors.New("title is required")
	}
	// An empty Status is accepted; the column default stores it as tentative.
	if e.Status != "" && !e.Status.IsValid() {
		return errors.New("invalid event status")
	}
	if e.DurationMs < 0 {
		return errors.New("duration must not be negative")
	}
	if !e.End.Equal(e.Start.Add(time.Duration(e.DurationMs) * time.Millisecond)) {
		return errors.New("end must equal start + duration")
	}
	if e.Recurrence != nil {
		if err := e.Recurrence.Validate(); err != nil {
			return err
		}
	}
	for i := 1; i < len(e.Exdates); i++ {
		if !e.Exdates[i].After(e.Exdates[i-1]) {
			return errors.New("exdates must be sorted and unique")
		}
	}
	return nil
}

// BeforeAppend derives End from Start+DurationMs before every insert or
// update, so the stored column never drifts from the source fields.
func (e *Event) BeforeAppend() error {
	if err := e.Model.BeforeAppend(); err != nil {
		return err
	}
	e.End = e.Start.Add(time.Duration(e.DurationMs) * time.Millisecond)
	return nil
}

// IsRecurring reports whether the event carries a recurrence rule.
func (e *Event) IsRecurring() bool {
	return e.Recurrence != nil
}

// ClearExdatesOnReschedule drops every exdate; called when Start changes so
// stale exception dates (which referenced instances of the old rule) are
// not silently carried over to the new one. This is a deliberate policy
// consequence, not an oversight.
func (e *Event) ClearExdatesOnReschedule() {
	e.Exdates = nil
}

// EventRepository defines operations for working with events.
type EventRepository interface {
	base.Repository[*Event]
	// GetByCalendars returns every event whose [start,end) overlaps window,
	// or whose recurrence rule could still produce an instance inside it
	// (recurringUntil IS NULL OR recurringUntil > window.Start).
	GetByCalendars(ctx context.Context, calendarIDs []int64, window EventWindow, includeRecurring bool) ([]*Event, error)
	GetByRecurring(ctx context.Context, recurringEventIDs []int64, window EventWindow) ([]*Event, error)
	InsertMany(ctx context.Context, events []*Event) error
	DeleteMany(ctx context.Context, ids []int64) error
	Search(ctx context.Context, filter *base.Filter, sorting *base.Sorting, limit int) ([]*Event, error)
}

// EventWindow is a UTC query window [Start, End).
type EventWindow struct {
	Start time.Time
	End   time.Time
}

// DefaultEventRepository is the bun-backed implementation of
// EventRepository.
type DefaultEventRepository struct {
	db *bun.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *bun.DB) EventRepository {
	return &DefaultEventRepository{db: db}
}

// Create inserts a new event into the database.
func (r *DefaultEventRepository) Create(ctx context.Context, event *Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	_, err := r.db.NewInsert().Model(event).Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "create", Err: err}
	}
	return nil
}

// InsertMany inserts every event in a single transaction; a failure on any
// row aborts the whole batch.
func (r *DefaultEventRepository) InsertMany(ctx context.Context, events []*Event) error {
	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&events).Exec(ctx)
		if err != nil {
			return &base.DatabaseError{Op: "insert_many", Err: err}
		}
		return nil
	})
}

// FindByID retrieves an event by its ID.
func (r *DefaultEventRepository) FindByID(ctx context.Context, id interface{}) (*Event, error) {
	event := new(Event)
	err := r.db.NewSelect().Model(event).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_id", Err: err}
	}
	return event, nil
}

// GetByCalendars returns events overlapping window from calendarIDs,
// optionally including events whose recurrence rule could still produce an
// instance inside the window.
func (r *DefaultEventRepository) GetByCalendars(ctx context.Context, calendarIDs []int64, window EventWindow, includeRecurring bool) ([]*Event, error) {
	var events []*Event
	query := r.db.NewSelect().Model(&events).Where("calendar_id IN (?)", bun.In(calendarIDs))

	if includeRecurring {
		query = query.Where(
			"(start_time < ? AND end_time > ?) OR (recurrence IS NOT NULL AND start_time < ? AND (recurring_until IS NULL OR recurring_until > ?))",
			window.End, window.Start, window.End, window.Start,
		)
	} else {
		query = query.Where("start_time < ? AND end_time > ?", window.End, window.Start)
	}

	if err := query.Order("start_time ASC").Scan(ctx); err != nil {
		return nil, &base.DatabaseError{Op: "get_by_calendars", Err: err}
	}
	return events, nil
}

// GetByRecurring returns recurring events by recurring_event_id whose rule
// could still produce an instance inside window.
func (r *DefaultEventRepository) GetByRecurring(ctx context.Context, recurringEventIDs []int64, window EventWindow) ([]*Event, error) {
	var events []*Event
	err := r.db.NewSelect().
		Model(&events).
		Where("recurring_event_id IN (?)", bun.In(recurringEventIDs)).
		Where("start_time < ?", window.End).
		Where("recurring_until IS NULL OR recurring_until > ?", window.Start).
		Order("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "get_by_recurring", Err: err}
	}
	return events, nil
}

// Search returns events matching filter, ordered by sorting, up to limit
// rows. The repository does not mutate state, so repeated calls from a
// retried client are safe.
func (r *DefaultEventRepository) Search(ctx context.Context, filter *base.Filter, sorting *base.Sorting, limit int) ([]*Event, error) {
	var events []*Event
	query := r.db.NewSelect().Model(&events)
	if filter != nil {
		query = filter.ApplyToQuery(query)
	}
	if sorting != nil {
		query = sorting.ApplyToQuery(query)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, &base.DatabaseError{Op: "search", Err: err}
	}
	return events, nil
}

// Update updates an existing event. Callers that change Start must call
// ClearExdatesOnReschedule first per the documented policy.
func (r *DefaultEventRepository) Update(ctx context.Context, event *Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	_, err := r.db.NewUpdate().Model(event).WherePK().Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "update", Err: err}
	}
	return nil
}

// Delete removes a single event. Cancelling a recurring parent does not
// cascade to its exception children; orphans are kept by design.
func (r *DefaultEventRepository) Delete(ctx context.Context, id interface{}) error {
	_, err := r.db.NewDelete().Model((*Event)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "delete", Err: err}
	}
	return nil
}

// DeleteMany removes every event in ids. Absent ids are not an error.
func (r *DefaultEventRepository) DeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.NewDelete().Model((*Event)(nil)).Where("id IN (?)", bun.In(ids)).Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "delete_many", Err: err}
	}
	return nil
}

// List retrieves events matching the provided filters.
func (r *DefaultEventRepository) List(ctx context.Context, options *base.QueryOptions) ([]*Event, error) {
	var events []*Event
	query := r.db.NewSelect().Model(&events)
	if options != nil {
		query = options.ApplyToQuery(query)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, &base.DatabaseError{Op: "list", Err: err}
	}
	return events, nil
}
