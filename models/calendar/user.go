package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/kairoscal/server/models/base"
	"github.com/uptrace/bun"
)

// tableUsers is the schema-qualified table name.
const tableUsers = "calendar.users"

// User is an account-scoped calendar participant. It has no password or
// role of its own; authentication is the caller's API key or JWT, not the
// User row (auth mechanics are out of scope here).
type User struct {
	base.Model `bun:"schema:calendar,table:users"`

	AccountID  int64                  `bun:"account_id,notnull" json:"account_id"`
	ExternalID *string                `bun:"external_id" json:"external_id,omitempty"`
	Metadata   map[string]interface{} `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
}

// TableName returns the database table name.
func (u *User) TableName() string {
	return tableUsers
}

// GetID returns the user ID.
func (u *User) GetID() interface{} {
	return u.ID
}

// GetCreatedAt returns the creation timestamp.
func (u *User) GetCreatedAt() time.Time {
	return u.CreatedAt
}

// GetUpdatedAt returns the last update timestamp.
func (u *User) GetUpdatedAt() time.Time {
	return u.UpdatedAt
}

// Validate checks the user's own fields.
func (u *User) Validate() error {
	if u.AccountID <= 0 {
		return errors.New("account_id is required")
	}
	if u.ExternalID != nil && *u.ExternalID == "" {
		return errors.New("external_id must not be empty when present")
	}
	return nil
}

// BeforeAppend sets default values before saving to the database.
func (u *User) BeforeAppend() error {
	return u.Model.BeforeAppend()
}

// UserRepository defines operations for working with users.
type UserRepository interface {
	base.Repository[*User]
	FindByExternalID(ctx context.Context, accountID int64, externalID string) (*User, error)
	FindByAccount(ctx context.Context, accountID int64) ([]*User, error)
}

// DefaultUserRepository is the bun-backed implementation of
// UserRepository.
type DefaultUserRepository struct {
	db *bun.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *bun.DB) UserRepository {
	return &DefaultUserRepository{db: db}
}

// Create inserts a new user. (account_id, external_id) must be unique when
// external_id is present; the repository adapter enforces this via a
// partial unique index, surfacing a conflict as a base.DatabaseError.
func (r *DefaultUserRepository) Create(ctx context.Context, user *User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	_, err := r.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "create", Err: err}
	}
	return nil
}

// FindByID retrieves a user by its ID.
func (r *DefaultUserRepository) FindByID(ctx context.Context, id interface{}) (*User, error) {
	user := new(User)
	err := r.db.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_id", Err: err}
	}
	return user, nil
}

// FindByExternalID retrieves a user by its account-scoped external id.
func (r *DefaultUserRepository) FindByExternalID(ctx context.Context, accountID int64, externalID string) (*User, error) {
	user := new(User)
	err := r.db.NewSelect().
		Model(user).
		Where("account_id = ?", accountID).
		Where("external_id = ?", externalID).
		Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_external_id", Err: err}
	}
	return user, nil
}

// FindByAccount retrieves every user owned by accountID.
func (r *DefaultUserRepository) FindByAccount(ctx context.Context, accountID int64) ([]*User, error) {
	var users []*User
	err := r.db.NewSelect().Model(&users).Where("account_id = ?", accountID).Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_account", Err: err}
	}
	return users, nil
}

// Update updates an existing user.
func (r *DefaultUserRepository) Update(ctx context.Context, user *User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	_, err := r.db.NewUpdate().Model(user).WherePK().Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "update", Err: err}
	}
	return nil
}

// Delete removes a user.
func (r *DefaultUserRepository) Delete(ctx context.Context, id interface{}) error {
	_, err := r.db.NewDelete().Model((*User)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "delete", Err: err}
	}
	return nil
}

// List retrieves users matching the provided filters.
func (r *DefaultUserRepository) List(ctx context.Context, options *base.QueryOptions) ([]*User, error) {
	var users []*User
	query := r.db.NewSelect().Model(&users)
	if options != nil {
		query = options.ApplyToQuery(query)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, &base.DatabaseError{Op: "list", Err: err}
	}
	return users, nil
}
