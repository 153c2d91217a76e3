// Package booking holds the bookable-Service data model consumed by
// engine/booking.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/kairoscal/server/models/base"
	"github.com/uptrace/bun"
)

// tableServices is the schema-qualified table name.
const tableServices = "booking.services"

// AvailabilityVariant selects what a ServiceResource's availability is
// computed from.
type AvailabilityVariant string

const (
	AvailabilityCalendar AvailabilityVariant = "calendar"
	AvailabilitySchedule AvailabilityVariant = "schedule"
	AvailabilityEmpty    AvailabilityVariant = "empty"
)

// IsValid reports whether v is a recognized availability variant.
func (v AvailabilityVariant) IsValid() bool {
	switch v {
	case AvailabilityCalendar, AvailabilitySchedule, AvailabilityEmpty:
		return true
	}
	return false
}

// RoundRobinAlgorithm selects how RoundRobin resolves a host among resources
// that share a slot. Only LowestUserID is implemented; the type exists so
// engine/booking's strategy table can grow additional algorithms without an
// incompatible policy shape change.
type RoundRobinAlgorithm string

const (
	RoundRobinLowestUserID RoundRobinAlgorithm = "lowest_user_id"
)

// MultiPersonVariant tags a MultiPersonPolicy.
type MultiPersonVariant string

const (
	PolicyCollective  MultiPersonVariant = "collective"
	PolicyGroup       MultiPersonVariant = "group"
	PolicyRoundRobin  MultiPersonVariant = "round_robin"
)

// MultiPersonPolicy is a sum type over how a Service with multiple
// resources combines their individual slot sets into service-wide slots.
// Only the field matching Variant is meaningful.
type MultiPersonPolicy struct {
	Variant   MultiPersonVariant  `json:"variant"`
	N         int                 `json:"n,omitempty"`
	Algorithm RoundRobinAlgorithm `json:"algorithm,omitempty"`
}

// Validate checks the policy is internally consistent.
func (p MultiPersonPolicy) Validate() error {
	switch p.Variant {
	case PolicyCollective:
		return nil
	case PolicyGroup:
		if p.N <= 0 {
			return errors.New("group policy requires n > 0")
		}
		return nil
	case PolicyRoundRobin:
		if p.Algorithm == "" {
			return errors.New("round_robin policy requires an algorithm")
		}
		return nil
	default:
		return errors.New("invalid multi-person policy variant")
	}
}

// ServiceResource is one user's participation in a Service: where its
// availability comes from, and the booking constraints applied around it.
type ServiceResource struct {
	UserID              int64                `json:"user_id"`
	Availability        AvailabilityVariant  `json:"availability"`
	CalendarID          *int64               `json:"calendar_id,omitempty"`
	ScheduleID          *int64               `json:"schedule_id,omitempty"`
	BusyCalendarIDs     []int64              `json:"busy_calendar_ids,omitempty"`
	BufferBeforeMin     int                  `json:"buffer_before_min"`
	BufferAfterMin      int                  `json:"buffer_after_min"`
	ClosestBookingMin   int                  `json:"closest_booking_min"`
	FurthestBookingMin  int                  `json:"furthest_booking_min"`
}

// Validate checks a single resource's own fields.
func (r ServiceResource) Validate() error {
	if r.UserID <= 0 {
		return errors.New("user_id is required")
	}
	if !r.Availability.IsValid() {
		return errors.New("invalid availability variant")
	}
	if r.Availability == AvailabilityCalendar && r.CalendarID == nil {
		return errors.New("calendar availability requires calendar_id")
	}
	if r.Availability == AvailabilitySchedule && r.ScheduleID == nil {
		return errors.New("schedule availability requires schedule_id")
	}
	if r.BufferBeforeMin < 0 || r.BufferAfterMin < 0 {
		return errors.New("buffers must not be negative")
	}
	if r.ClosestBookingMin > r.FurthestBookingMin {
		return errors.New("closest_booking_min must not exceed furthest_booking_min")
	}
	return nil
}

// Service is a bookable offering backed by one or more ServiceResources.
type Service struct {
	base.Model `bun:"schema:booking,table:services"`

	AccountID         int64                  `bun:"account_id,notnull" json:"account_id"`
	Name              string                 `bun:"name,notnull" json:"name"`
	Resources         []ServiceResource      `bun:"resources,type:jsonb" json:"resources"`
	MultiPersonPolicy MultiPersonPolicy      `bun:"multi_person_policy,type:jsonb" json:"multi_person_policy"`
	Metadata          map[string]interface{} `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
}

// TableName returns the database table name.
func (s *Service) TableName() string {
	return tableServices
}

// GetID returns the service ID.
func (s *Service) GetID() interface{} {
	return s.ID
}

// GetCreatedAt returns the creation timestamp.
func (s *Service) GetCreatedAt() time.Time {
	return s.CreatedAt
}

// GetUpdatedAt returns the last update timestamp.
func (s *Service) GetUpdatedAt() time.Time {
	return s.UpdatedAt
}

// Validate checks the service's own fields, including that resource user
// ids are unique within the service.
func (s *Service) Validate() error {
	if s.AccountID <= 0 {
		return errors.New("account_id is required")
	}
	if s.Name == "" {
		return errors.New("name is required")
	}
	if err := s.MultiPersonPolicy.Validate(); err != nil {
		return err
	}
	seen := make(map[int64]bool, len(s.Resources))
	for _, res := range s.Resources {
		if err := res.Validate(); err != nil {
			return err
		}
		if seen[res.UserID] {
			return errors.New("resource user ids must be unique per service")
		}
		seen[res.UserID] = true
	}
	return nil
}

// BeforeAppend sets default values before saving to the database.
func (s *Service) BeforeAppend() error {
	return s.Model.BeforeAppend()
}

// ResourcesFiltered returns s.Resources restricted to hostUserIDs, or every
// resource when hostUserIDs is empty.
func (s *Service) ResourcesFiltered(hostUserIDs []int64) []ServiceResource {
	if len(hostUserIDs) == 0 {
		return s.Resources
	}
	allowed := make(map[int64]bool, len(hostUserIDs))
	for _, id := range hostUserIDs {
		allowed[id] = true
	}
	out := make([]ServiceResource, 0, len(s.Resources))
	for _, res := range s.Resources {
		if allowed[res.UserID] {
			out = append(out, res)
		}
	}
	return out
}

// Repository defines operations for working with services.
type Repository interface {
	base.Repository[*Service]
	FindByAccount(ctx context.Context, accountID int64) ([]*Service, error)
}

// DefaultRepository is the bun-backed implementation of Repository.
type DefaultRepository struct {
	db *bun.DB
}

// NewRepository creates a new service repository.
func NewRepository(db *bun.DB) Repository {
	return &DefaultRepository{db: db}
}

// Create inserts a new service.
func (r *DefaultRepository) Create(ctx context.Context, svc *Service) error {
	if err := svc.Validate(); err != nil {
		return err
	}
	_, err := r.db.NewInsert().Model(svc).Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "create", Err: err}
	}
	return nil
}

// FindByID retrieves a service by its ID.
func (r *DefaultRepository) FindByID(ctx context.Context, id interface{}) (*Service, error) {
	svc := new(Service)
	err := r.db.NewSelect().Model(svc).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_id", Err: err}
	}
	return svc, nil
}

// FindByAccount retrieves every service owned by accountID.
func (r *DefaultRepository) FindByAccount(ctx context.Context, accountID int64) ([]*Service, error) {
	var services []*Service
	err := r.db.NewSelect().Model(&services).Where("account_id = ?", accountID).Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_account", Err: err}
	}
	return services, nil
}

// Update updates an existing service.
func (r *DefaultRepository) Update(ctx context.Context, svc *Service) error {
	if err := svc.Validate(); err != nil {
		return err
	}
	_, err := r.db.NewUpdate().Model(svc).WherePK().Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "update", Err: err}
	}
	return nil
}

// Delete removes a service.
func (r *DefaultRepository) Delete(ctx context.Context, id interface{}) error {
	_, err := r.db.NewDelete().Model((*Service)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "delete", Err: err}
	}
	return nil
}

// List retrieves services matching the provided filters.
func (r *DefaultRepository) List(ctx context.Context, options *base.QueryOptions) ([]*Service, error) {
	var services []*Service
	query := r.db.NewSelect().Model(&services)
	if options != nil {
		query = options.ApplyToQuery(query)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, &base.DatabaseError{Op: "list", Err: err}
	}
	return services, nil
}
