package shared

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golang-jwt/jwt/v5"
)

// Session is the persisted login state: the bearer token plus the identity it was issued to.
type Session struct {
	Token       string    `toml:"token"`
	UserID      string    `toml:"user_id"`
	Email       string    `toml:"email"`
	DisplayName string    `toml:"display_name"`
	SavedAt     time.Time `toml:"saved_at"`
}

// TokenClaims is the subset of the bearer token's claims the client reads.
type TokenClaims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the claims carry an expiry that is before now.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// LoadSession reads the session file at path, returning [ErrNoSession] when it does not exist.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	} else if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s Session
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if s.Token == "" {
		return nil, ErrNoSession
	}
	return &s, nil
}

// SaveSession writes s to path with owner-only permissions.
func SaveSession(path string, s *Session) error {
	if s == nil || s.Token == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now().UTC()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}

	// The open mode only applies on create; tighten a file left by an older run.
	if err := f.Chmod(0600); err != nil {
		f.Close()
		return fmt.Errorf("failed to restrict session file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// ClearSession removes the session file. A missing file is not an error.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// ParseTokenClaims reads the claims of a JWT bearer token without verifying its signature.
//
// The server is the only party that can verify the token; the client uses the claims
// for display and as an identity hint.
func ParseTokenClaims(token string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: malformed token: %v", ErrInvalidInput, err)
	}

	out := &TokenClaims{}
	for _, key := range []string{"id", "userId", "_id", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			out.UserID = v
			break
		}
	}
	if v, ok := claims["email"].(string); ok {
		out.Email = v
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
