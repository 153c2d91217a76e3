package jwt

import (
	"time"

	"github.com/uptrace/bun"
)

// Token is the persisted half of a refresh token: the client holds the
// signed JWT, the server holds this row so the token can be looked up,
// revoked, or rotated without decoding every request.
type Token struct {
	bun.BaseModel `bun:"table:auth.tokens"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	AccountID  int64     `bun:"account_id,notnull" json:"account_id"`
	Token      string    `bun:"token,notnull,unique" json:"token"`
	Expiry     time.Time `bun:"expiry,notnull" json:"expiry"`
	Mobile     bool      `bun:"mobile,notnull,default:false" json:"mobile"`
	Identifier string    `bun:"identifier" json:"identifier,omitempty"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// BeforeInsert hook executed before database insert operation
func (t *Token) BeforeInsert(db *bun.DB) error {
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return nil
}

// BeforeUpdate hook executed before database update operation
func (t *Token) BeforeUpdate(db *bun.DB) error {
	t.UpdatedAt = time.Now()
	return nil
}

// IsExpired reports whether the token is past its expiry.
func (t *Token) IsExpired() bool {
	return time.Now().After(t.Expiry)
}

// Claims returns the RefreshClaims to embed in the refresh JWT for this row.
func (t *Token) Claims() RefreshClaims {
	return RefreshClaims{
		AccountID: t.AccountID,
		Token:     t.Token,
	}
}
