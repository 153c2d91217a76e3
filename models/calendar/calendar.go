package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/kairoscal/server/models/base"
	"github.com/kairoscal/server/models/timeutil"
	"github.com/uptrace/bun"
)

// tableCalendars is the schema-qualified table name.
const tableCalendars = "calendar.calendars"

// Calendar groups events under a timezone and week-start convention. A
// Calendar's exclusive owner is its User; deleting it cascades to its
// events.
type Calendar struct {
	base.Model `bun:"schema:calendar,table:calendars"`

	UserID    int64                  `bun:"user_id,notnull" json:"user_id"`
	AccountID int64                  `bun:"account_id,notnull" json:"account_id"`
	Timezone  string                 `bun:"timezone,notnull" json:"timezone"`
	WeekStart time.Weekday           `bun:"week_start,notnull,default:0" json:"week_start"`
	Key       *string                `bun:"key" json:"key,omitempty"`
	Metadata  map[string]interface{} `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
}

// TableName returns the database table name.
func (c *Calendar) TableName() string {
	return tableCalendars
}

// GetID returns the calendar ID.
func (c *Calendar) GetID() interface{} {
	return c.ID
}

// GetCreatedAt returns the creation timestamp.
func (c *Calendar) GetCreatedAt() time.Time {
	return c.CreatedAt
}

// GetUpdatedAt returns the last update timestamp.
func (c *Calendar) GetUpdatedAt() time.Time {
	return c.UpdatedAt
}

// Validate checks the calendar's own fields, including that Timezone
// parses as an IANA zone.
func (c *Calendar) Validate() error {
	if c.UserID <= 0 {
		return errors.New("user_id is required")
	}
	if c.Key != nil && *c.Key == "" {
		return errors.New("key must not be empty when present")
	}
	if _, err := timeutil.ResolveLocation(c.Timezone); err != nil {
		return err
	}
	return nil
}

// BeforeAppend sets default values before saving to the database.
func (c *Calendar) BeforeAppend() error {
	return c.Model.BeforeAppend()
}

// Location resolves the calendar's timezone.
func (c *Calendar) Location() (*time.Location, error) {
	return timeutil.ResolveLocation(c.Timezone)
}

// CalendarRepository defines operations for working with calendars.
type CalendarRepository interface {
	base.Repository[*Calendar]
	FindByUser(ctx context.Context, userID int64) ([]*Calendar, error)
	FindByUserAndKey(ctx context.Context, userID int64, key string) (*Calendar, error)
	FindByMetadata(ctx context.Context, key, value string) ([]*Calendar, error)
}

// DefaultCalendarRepository is the bun-backed implementation of
// CalendarRepository.
type DefaultCalendarRepository struct {
	db *bun.DB
}

// NewCalendarRepository creates a new calendar repository.
func NewCalendarRepository(db *bun.DB) CalendarRepository {
	return &DefaultCalendarRepository{db: db}
}

// Create inserts a new calendar. (user_id, key) must be unique when key is
// present; the adapter enforces this via a partial unique index.
func (r *DefaultCalendarRepository) Create(ctx context.Context, cal *Calendar) error {
	if err := cal.Validate(); err != nil {
		return err
	}
	_, err := r.db.NewInsert().Model(cal).Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "create", Err: err}
	}
	return nil
}

// FindByID retrieves a calendar by its ID.
func (r *DefaultCalendarRepository) FindByID(ctx context.Context, id interface{}) (*Calendar, error) {
	cal := new(Calendar)
	err := r.db.NewSelect().Model(cal).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_id", Err: err}
	}
	return cal, nil
}

// FindByUser retrieves every calendar owned by userID.
func (r *DefaultCalendarRepository) FindByUser(ctx context.Context, userID int64) ([]*Calendar, error) {
	var cals []*Calendar
	err := r.db.NewSelect().Model(&cals).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_user", Err: err}
	}
	return cals, nil
}

// FindByUserAndKey retrieves a calendar by its (user, key) pair.
func (r *DefaultCalendarRepository) FindByUserAndKey(ctx context.Context, userID int64, key string) (*Calendar, error) {
	cal := new(Calendar)
	err := r.db.NewSelect().
		Model(cal).
		Where("user_id = ?", userID).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_user_and_key", Err: err}
	}
	return cal, nil
}

// FindByMetadata retrieves calendars whose top-level metadata has key=value.
func (r *DefaultCalendarRepository) FindByMetadata(ctx context.Context, key, value string) ([]*Calendar, error) {
	var cals []*Calendar
	err := r.db.NewSelect().
		Model(&cals).
		Where("metadata ->> ? = ?", key, value).
		Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_metadata", Err: err}
	}
	return cals, nil
}

// Update updates an existing calendar.
func (r *DefaultCalendarRepository) Update(ctx context.Context, cal *Calendar) error {
	if err := cal.Validate(); err != nil {
		return err
	}
	_, err := r.db.NewUpdate().Model(cal).WherePK().Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "update", Err: err}
	}
	return nil
}

// Delete removes a calendar. Deleting a calendar cascades to its events.
func (r *DefaultCalendarRepository) Delete(ctx context.Context, id interface{}) error {
	_, err := r.db.NewDelete().Model((*Calendar)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "delete", Err: err}
	}
	return nil
}

// List retrieves calendars matching the provided filters.
func (r *DefaultCalendarRepository) List(ctx context.Context, options *base.QueryOptions) ([]*Calendar, error) {
	var cals []*Calendar
	query := r.db.NewSelect().Model(&cals)
	if options != nil {
		query = options.ApplyToQuery(query)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, &base.DatabaseError{Op: "list", Err: err}
	}
	return cals, nil
}
