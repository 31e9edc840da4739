package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/shared"
)

// AuthService implements [Accounts] against the catalog API.
type AuthService struct {
	api *APIService
}

// NewAuthService creates an [AuthService] backed by api.
func NewAuthService(api *APIService) *AuthService {
	return &AuthService{api: api}
}

// Login calls POST /api/login. Credentials are validated before any request is made.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*LoginResult, error) {
	if err := models.Validate(&creds); err != nil {
		return nil, err
	}

	body, err := s.api.doJSON(ctx, http.MethodPost, "/api/login", creds)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	var result LoginResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("%w: server returned no token", shared.ErrAuthFailed)
	}
	return &result, nil
}

// Register calls POST /api/users after validating the form, including the password confirmation.
func (s *AuthService) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	if err := models.ValidateRegistration(&reg); err != nil {
		return nil, err
	}

	body, err := s.api.doJSON(ctx, http.MethodPost, "/api/users", reg)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := decodeEnvelope(body, "user", &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// Profile calls GET /api/profile and returns its "user" field.
func (s *AuthService) Profile(ctx context.Context) (*models.User, error) {
	body, err := s.api.doJSON(ctx, http.MethodGet, "/api/profile", nil)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := decodeEnvelope(body, "user", &user); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: profile has no user id", shared.ErrNotAuthenticated)
	}
	return &user, nil
}

// UpdateUser calls PUT /api/users/:id with the non-zero fields of update.
func (s *AuthService) UpdateUser(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}
	if update.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", shared.ErrInvalidInput)
	}
	if err := models.Validate(&update); err != nil {
		return nil, err
	}

	body, err := s.api.doJSON(ctx, http.MethodPut, "/api/users/"+url.PathEscape(userID), update)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := decodeEnvelope(body, "user", &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// DeleteUser calls DELETE /api/users/:id and returns the server's message.
func (s *AuthService) DeleteUser(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	body, err := s.api.doJSON(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return "", err
	}
	return serverMessage(body), nil
}

// RecoverPassword calls POST /api/users/recover-password.
func (s *AuthService) RecoverPassword(ctx context.Context, email string) (string, error) {
	if !models.ValidEmail(email) {
		return "", fmt.Errorf("%w: invalid email address", shared.ErrValidation)
	}

	body, err := s.api.doJSON(ctx, http.MethodPost, "/api/users/recover-password", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	return serverMessage(body), nil
}
