package jwt

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/spf13/viper"
)

// TokenAuth implements JWT authentication flow.
type TokenAuth struct {
	JwtAuth          *jwtauth.JWTAuth
	JwtExpiry        time.Duration
	JwtRefreshExpiry time.Duration
}

// NewTokenAuth configures and returns a JWT authentication instance.
func NewTokenAuth() (*TokenAuth, error) {
	secret := viper.GetString("auth_jwt_secret")

	// Handle "random" secret setting with persistence
	if secret == "random" {
		var err error
		secret, err = resolveRandomSecret()
		if err != nil {
			return nil, err
		}
	}

	// Validate secret length/strength
	if len(secret) < 32 {
		slog.Warn("jwt secret is too short, recommend at least 32 chars", "secret_length", len(secret))
	}

	return NewTokenAuthWithSecret(secret)
}

// resolveRandomSecret generates or loads a persistent development secret.
func resolveRandomSecret() (string, error) {
	// Check environment - don't allow random in production
	env := viper.GetString("app_env")
	if env == "production" {
		return "", errors.New("JWT secret cannot be 'random' in production")
	}

	// For development, use a persistent secret file
	baseDir := viper.GetString("app_base_dir")
	if baseDir == "" {
		var err error
		baseDir, err = os.Getwd()
		if err != nil {
			baseDir = "."
		}
	}

	// Store secret in a file within the project
	secretFile := filepath.Join(baseDir, ".jwt-dev-secret.key")
	secretBytes, err := os.ReadFile(secretFile)

	if err == nil && len(secretBytes) >= 32 {
		slog.Info("using persistent jwt secret", "file", secretFile)
		return string(secretBytes), nil
	}

	// Generate new secret
	secret := randStringBytes(32)
	slog.Info("generated new jwt secret", "file", secretFile)

	// Save for future use
	if err := os.WriteFile(secretFile, []byte(secret), 0600); err != nil {
		slog.Warn("could not persist jwt secret", "file", secretFile, "error", err)
	}

	return secret, nil
}

// NewTokenAuthWithSecret creates a TokenAuth with a specific secret
func NewTokenAuthWithSecret(secret string) (*TokenAuth, error) {
	a := &TokenAuth{
		JwtAuth:          jwtauth.New("HS256", []byte(secret), nil),
		JwtExpiry:        viper.GetDuration("auth_jwt_expiry"),
		JwtRefreshExpiry: viper.GetDuration("auth_jwt_refresh_expiry"),
	}

	return a, nil
}

var defaultTokenAuth *TokenAuth

// SetDefaultTokenAuth replaces the package-level TokenAuth returned by
// GetDefaultTokenAuth; nil clears it.
func SetDefaultTokenAuth(a *TokenAuth) {
	defaultTokenAuth = a
}

// GetDefaultTokenAuth returns the package-level TokenAuth, creating it with
// NewTokenAuth when none is set.
func GetDefaultTokenAuth() (*TokenAuth, error) {
	if defaultTokenAuth == nil {
		a, err := NewTokenAuth()
		if err != nil {
			return nil, err
		}
		defaultTokenAuth = a
	}
	return defaultTokenAuth, nil
}

// Verifier http middleware will verify a jwt string from a http request.
func (a *TokenAuth) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(a.JwtAuth)
}

// GenTokenPair returns both an access token and a refresh token.
func (a *TokenAuth) GenTokenPair(accessClaims AppClaims, refreshClaims RefreshClaims) (string, string, error) {
	access, err := a.CreateJWT(accessClaims)
	if err != nil {
		return "", "", err
	}
	refresh, err := a.CreateRefreshJWT(refreshClaims)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// CreateJWT returns an access token for provided account claims.
func (a *TokenAuth) CreateJWT(c AppClaims) (string, error) {
	c.IssuedAt = time.Now().Unix()
	c.ExpiresAt = time.Now().Add(a.JwtExpiry).Unix()

	claims, err := ParseStructToMap(c)
	if err != nil {
		return "", err
	}

	_, tokenString, err := a.JwtAuth.Encode(claims)
	return tokenString, err
}

func ParseStructToMap(c any) (map[string]any, error) {
	var claims map[string]any
	inrec, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(inrec, &claims)
	if err != nil {
		return nil, err
	}

	// Special handling for embedded structs like CommonClaims
	// This ensures all fields from embedded structs are properly included
	if appClaims, ok := c.(AppClaims); ok {
		claims["account_id"] = appClaims.AccountID
		claims["user_id"] = appClaims.UserID
		claims["external_id"] = appClaims.ExternalID

		// Set common claims manually to ensure they're included
		claims["exp"] = appClaims.ExpiresAt
		claims["iat"] = appClaims.IssuedAt
	}

	if refreshClaims, ok := c.(RefreshClaims); ok {
		claims["account_id"] = refreshClaims.AccountID
		claims["token"] = refreshClaims.Token
		claims["exp"] = refreshClaims.ExpiresAt
		claims["iat"] = refreshClaims.IssuedAt
	}

	return claims, nil
}

// CreateRefreshJWT returns a refresh token for provided token Claims.
func (a *TokenAuth) CreateRefreshJWT(c RefreshClaims) (string, error) {
	c.IssuedAt = time.Now().Unix()
	c.ExpiresAt = time.Now().Add(a.JwtRefreshExpiry).Unix()

	claims, err := ParseStructToMap(c)
	if err != nil {
		return "", err
	}

	_, tokenString, err := a.JwtAuth.Encode(claims)
	return tokenString, err
}

// GetRefreshExpiry returns the refresh token expiration duration
func (a *TokenAuth) GetRefreshExpiry() time.Duration {
	return a.JwtRefreshExpiry
}

const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randStringBytes(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}

	for k, v := range buf {
		buf[k] = letterBytes[v%byte(len(letterBytes))]
	}
	return string(buf)
}
