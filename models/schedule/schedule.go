// Package schedule holds the weekly-plus-overrides availability model
// consumed by engine/availability and, through it, engine/booking.
package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/kairoscal/server/models/base"
	"github.com/kairoscal/server/models/timeutil"
	"github.com/uptrace/bun"
)

// tableSchedules is the schema-qualified table name.
const tableSchedules = "schedule.schedules"

// LocalInterval is a [start, end) range expressed in minutes since local
// midnight, e.g. 09:00-10:00 is {540, 600}.
type LocalInterval struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// Valid reports whether the interval is well formed and within a single
// calendar day.
func (iv LocalInterval) Valid() bool {
	return iv.StartMinute >= 0 && iv.EndMinute <= 24*60 && iv.EndMinute > iv.StartMinute
}

// RuleVariant distinguishes a weekday rule from a date override.
type RuleVariant string

const (
	RuleWeekday RuleVariant = "weekday"
	RuleDate    RuleVariant = "date"
)

// Rule is one entry of a Schedule's rule list: either a WeekdayRule or a
// DateRule, tagged by Variant. Exactly one of Weekday/Date is meaningful
// depending on Variant.
type Rule struct {
	Variant   RuleVariant           `json:"variant"`
	Weekday   time.Weekday          `json:"weekday,omitempty"`
	Date      *timeutil.LocalDate   `json:"date,omitempty"`
	Intervals []LocalInterval       `json:"intervals"`
}

// WeekdayRule constructs a Rule covering every occurrence of weekday.
func WeekdayRule(weekday time.Weekday, intervals ...LocalInterval) Rule {
	return Rule{Variant: RuleWeekday, Weekday: weekday, Intervals: intervals}
}

// DateRule constructs a Rule overriding a single local date. An empty
// intervals list marks the date fully unavailable.
func DateRule(date timeutil.LocalDate, intervals ...LocalInterval) Rule {
	return Rule{Variant: RuleDate, Date: &date, Intervals: intervals}
}

// Schedule is a weekly availability template plus date-specific overrides,
// projected by engine/availability into concrete UTC intervals.
type Schedule struct {
	base.Model `bun:"schema:schedule,table:schedules"`

	UserID   int64  `bun:"user_id,notnull" json:"user_id"`
	Timezone string `bun:"timezone,notnull" json:"timezone"`
	Rules    []Rule `bun:"rules,type:jsonb" json:"rules"`
}

// TableName returns the database table name.
func (s *Schedule) TableName() string {
	return tableSchedules
}

// GetID returns the schedule ID.
func (s *Schedule) GetID() interface{} {
	return s.ID
}

// GetCreatedAt returns the creation timestamp.
func (s *Schedule) GetCreatedAt() time.Time {
	return s.CreatedAt
}

// GetUpdatedAt returns the last update timestamp.
func (s *Schedule) GetUpdatedAt() time.Time {
	return s.UpdatedAt
}

// Validate checks the schedule's own fields: a valid timezone, and that
// every rule's intervals are disjoint, within a day, and that weekday rules
// collectively cover each weekday at most by the rules the caller supplied
// (the engine tolerates a weekday with no rule: it projects to unavailable).
func (s *Schedule) Validate() error {
	if s.UserID <= 0 {
		return errors.New("user_id is required")
	}
	if _, err := timeutil.ResolveLocation(s.Timezone); err != nil {
		return err
	}
	for _, rule := range s.Rules {
		switch rule.Variant {
		case RuleWeekday:
			if rule.Weekday < time.Sunday || rule.Weekday > time.Saturday {
				return errors.New("invalid weekday in rule")
			}
		case RuleDate:
			if rule.Date == nil {
				return errors.New("date rule missing date")
			}
		default:
			return errors.New("invalid rule variant")
		}
		if err := validateDisjoint(rule.Intervals); err != nil {
			return err
		}
	}
	return nil
}

func validateDisjoint(intervals []LocalInterval) error {
	sorted := make([]LocalInterval, len(intervals))
	copy(sorted, intervals)
	for i, iv := range sorted {
		if !iv.Valid() {
			return errors.New("interval must be within [00:00, 24:00) and end after start")
		}
		for j := i + 1; j < len(sorted); j++ {
			other := sorted[j]
			if iv.StartMinute < other.EndMinute && other.StartMinute < iv.EndMinute {
				return errors.New("intervals within a rule must be disjoint")
			}
		}
	}
	return nil
}

// BeforeAppend sets default values before saving to the database.
func (s *Schedule) BeforeAppend() error {
	return s.Model.BeforeAppend()
}

// Location resolves the schedule's timezone.
func (s *Schedule) Location() (*time.Location, error) {
	return timeutil.ResolveLocation(s.Timezone)
}

// WeekdayRuleFor returns the most specific WeekdayRule matching weekday, if
// any is configured.
func (s *Schedule) WeekdayRuleFor(weekday time.Weekday) (Rule, bool) {
	for _, rule := range s.Rules {
		if rule.Variant == RuleWeekday && rule.Weekday == weekday {
			return rule, true
		}
	}
	return Rule{}, false
}

// DateRuleFor returns the DateRule overriding date, if any is configured.
func (s *Schedule) DateRuleFor(date timeutil.LocalDate) (Rule, bool) {
	for _, rule := range s.Rules {
		if rule.Variant == RuleDate && rule.Date != nil && rule.Date.Equal(date) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Repository defines operations for working with schedules.
type Repository interface {
	base.Repository[*Schedule]
	FindByUser(ctx context.Context, userID int64) ([]*Schedule, error)
}

// DefaultRepository is the bun-backed implementation of Repository.
type DefaultRepository struct {
	db *bun.DB
}

// NewRepository creates a new schedule repository.
func NewRepository(db *bun.DB) Repository {
	return &DefaultRepository{db: db}
}

// Create inserts a new schedule.
func (r *DefaultRepository) Create(ctx context.Context, sched *Schedule) error {
	if err := sched.Validate(); err != nil {
		return err
	}
	_, err := r.db.NewInsert().Model(sched).Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "create", Err: err}
	}
	return nil
}

// FindByID retrieves a schedule by its ID.
func (r *DefaultRepository) FindByID(ctx context.Context, id interface{}) (*Schedule, error) {
	sched := new(Schedule)
	err := r.db.NewSelect().Model(sched).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_id", Err: err}
	}
	return sched, nil
}

// FindByUser retrieves every schedule owned by userID.
func (r *DefaultRepository) FindByUser(ctx context.Context, userID int64) ([]*Schedule, error) {
	var schedules []*Schedule
	err := r.db.NewSelect().Model(&schedules).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_user", Err: err}
	}
	return schedules, nil
}

// Update updates an existing schedule.
func (r *DefaultRepository) Update(ctx context.Context, sched *Schedule) error {
	if err := sched.Validate(); err != nil {
		return err
	}
	_, err := r.db.NewUpdate().Model(sched).WherePK().Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "update", Err: err}
	}
	return nil
}

// Delete removes a schedule.
func (r *DefaultRepository) Delete(ctx context.Context, id interface{}) error {
	_, err := r.db.NewDelete().Model((*Schedule)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "delete", Err: err}
	}
	return nil
}

// List retrieves schedules matching the provided filters.
func (r *DefaultRepository) List(ctx context.Context, options *base.QueryOptions) ([]*Schedule, error) {
	var schedules []*Schedule
	query := r.db.NewSelect().Model(&schedules)
	if options != nil {
		query = options.ApplyToQuery(query)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, &base.DatabaseError{Op: "list", Err: err}
	}
	return schedules, nil
}
