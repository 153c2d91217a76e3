package jwt

import (
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

type CommonClaims struct {
	ExpiresAt int64 `json:"exp,omitempty"`
	IssuedAt  int64 `json:"iat,omitempty"`
}

// AppClaims represent the claims parsed from an access token. A token is
// scoped to exactly one Account (the tenant); UserID/ExternalID identify
// the acting user within that account when the caller is a user rather
// than the account's own bootstrap credential.
type AppClaims struct {
	AccountID  int64  `json:"account_id,omitempty"`
	Sub        string `json:"sub,omitempty"`
	UserID     int64  `json:"user_id,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	CommonClaims
}

// Helper functions for safe claim extraction

func getRequiredInt64(claims map[string]any, key string) (int64, error) {
	val, ok := claims[key]
	if !ok {
		return 0, fmt.Errorf("missing required claim: %s", key)
	}
	f, ok := val.(float64)
	if !ok {
		return 0, fmt.Errorf("claim %s is not a number", key)
	}
	return int64(f), nil
}

func getOptionalInt64(claims map[string]any, key string) int64 {
	val, ok := claims[key]
	if !ok || val == nil {
		return 0
	}
	f, ok := val.(float64)
	if !ok {
		return 0
	}
	return int64(f)
}

func getRequiredString(claims map[string]any, key string) (string, error) {
	val, ok := claims[key]
	if !ok {
		return "", fmt.Errorf("missing required claim: %s", key)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("claim %s is not a string", key)
	}
	return s, nil
}

func getOptionalString(claims map[string]any, key string) string {
	val, ok := claims[key]
	if !ok || val == nil {
		return ""
	}
	s, _ := val.(string)
	return s
}

// ParseClaims parses JWT claims into AppClaims.
// Uses safe type assertions to prevent panics from malformed tokens.
func (c *AppClaims) ParseClaims(claims map[string]any) error {
	var err error

	c.AccountID, err = getRequiredInt64(claims, "account_id")
	if err != nil {
		return err
	}

	c.Sub, err = getRequiredString(claims, jwt.SubjectKey)
	if err != nil {
		return err
	}

	c.UserID = getOptionalInt64(claims, "user_id")
	c.ExternalID = getOptionalString(claims, "external_id")

	return nil
}

// RefreshClaims represents the claims parsed from JWT refresh token.
type RefreshClaims struct {
	AccountID int64  `json:"account_id,omitempty"`
	Token     string `json:"token,omitempty"`
	CommonClaims
}

// ParseClaims parses the JWT claims into RefreshClaims.
func (c *RefreshClaims) ParseClaims(claims map[string]any) error {
	id, ok := claims["account_id"]
	if !ok {
		return errors.New("could not parse claim account_id")
	}
	switch v := id.(type) {
	case float64:
		c.AccountID = int64(v)
	case int:
		c.AccountID = int64(v)
	case int64:
		c.AccountID = v
	default:
		return errors.New("invalid type for claim account_id")
	}

	token, ok := claims["token"]
	if !ok {
		return errors.New("could not parse claim token")
	}
	tokenStr, ok := token.(string)
	if !ok {
		return errors.New("invalid type for claim token")
	}
	c.Token = tokenStr

	return nil
}
