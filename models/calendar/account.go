package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/kairoscal/server/models/base"
	"github.com/uptrace/bun"
)

// tableAccounts is the schema-qualified table name.
const tableAccounts = "calendar.accounts"

// Account is the tenant root: every other entity is owned by exactly one
// account, directly or transitively.
type Account struct {
	base.Model `bun:"schema:calendar,table:accounts"`

	SecretKey  string `bun:"secret_key,notnull,unique" json:"-"`
	PubKey     string `bun:"pub_key" json:"pub_key,omitempty"`
	WebhookURL string `bun:"webhook_url" json:"webhook_url,omitempty"`
}

// TableName returns the database table name.
func (a *Account) TableName() string {
	return tableAccounts
}

// GetID returns the account ID.
func (a *Account) GetID() interface{} {
	return a.ID
}

// GetCreatedAt returns the creation timestamp.
func (a *Account) GetCreatedAt() time.Time {
	return a.CreatedAt
}

// GetUpdatedAt returns the last update timestamp.
func (a *Account) GetUpdatedAt() time.Time {
	return a.UpdatedAt
}

// Validate ensures the account fields are well formed.
func (a *Account) Validate() error {
	if a.SecretKey == "" {
		return errors.New("secret_key is required")
	}
	return nil
}

// BeforeAppend sets default values before saving to the database.
func (a *Account) BeforeAppend() error {
	return a.Model.BeforeAppend()
}

// AccountRepository defines operations for working with accounts.
type AccountRepository interface {
	base.Repository[*Account]
	FindBySecretKey(ctx context.Context, secretKey string) (*Account, error)
}

// DefaultAccountRepository is the bun-backed implementation of
// AccountRepository.
type DefaultAccountRepository struct {
	db *bun.DB
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *bun.DB) AccountRepository {
	return &DefaultAccountRepository{db: db}
}

// Create inserts a new account into the database.
func (r *DefaultAccountRepository) Create(ctx context.Context, account *Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	_, err := r.db.NewInsert().Model(account).Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "create", Err: err}
	}
	return nil
}

// FindByID retrieves an account by its ID.
func (r *DefaultAccountRepository) FindByID(ctx context.Context, id interface{}) (*Account, error) {
	account := new(Account)
	err := r.db.NewSelect().Model(account).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_id", Err: err}
	}
	return account, nil
}

// FindBySecretKey retrieves an account by its API secret key.
func (r *DefaultAccountRepository) FindBySecretKey(ctx context.Context, secretKey string) (*Account, error) {
	account := new(Account)
	err := r.db.NewSelect().Model(account).Where("secret_key = ?", secretKey).Scan(ctx)
	if err != nil {
		return nil, &base.DatabaseError{Op: "find_by_secret_key", Err: err}
	}
	return account, nil
}

// Update updates an existing account.
func (r *DefaultAccountRepository) Update(ctx context.Context, account *Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	_, err := r.db.NewUpdate().Model(account).WherePK().Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "update", Err: err}
	}
	return nil
}

// Delete removes an account. Deleting an account cascades to every entity
// it owns; enforcing that cascade is the repository adapter's concern.
func (r *DefaultAccountRepository) Delete(ctx context.Context, id interface{}) error {
	_, err := r.db.NewDelete().Model((*Account)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return &base.DatabaseError{Op: "delete", Err: err}
	}
	return nil
}

// List retrieves accounts matching the provided filters.
func (r *DefaultAccountRepository) List(ctx context.Context, options *base.QueryOptions) ([]*Account, error) {
	var accounts []*Account
	query := r.db.NewSelect().Model(&accounts)
	if options != nil {
		query = options.ApplyToQuery(query)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, &base.DatabaseError{Op: "list", Err: err}
	}
	return accounts, nil
}
