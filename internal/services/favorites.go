package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/shared"
)

// FavoritesService implements [FavoritesAPI] against the catalog API.
type FavoritesService struct {
	api *APIService
}

// NewFavoritesService creates a [FavoritesService] backed by api.
func NewFavoritesService(api *APIService) *FavoritesService {
	return &FavoritesService{api: api}
}

func favoritesPath(userID string) string {
	return "/api/users/" + url.PathEscape(userID) + "/favorites"
}

// Favorites calls GET /api/users/:id/favorites.
func (s *FavoritesService) Favorites(ctx context.Context, userID string) (models.Favorites, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrNotAuthenticated)
	}

	body, err := s.api.doJSON(ctx, http.MethodGet, favoritesPath(userID), nil)
	if err != nil {
		return nil, err
	}
	return models.DecodeFavorites(body)
}

// ToggleFavorite calls PATCH /api/users/:id/favorites/:movieId.
//
// When the response carries the updated list (either {"favorites"} or {"user": {"favorites"}})
// the result is marked Confirmed.
func (s *FavoritesService) ToggleFavorite(ctx context.Context, userID, movieID string) (*ToggleResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrNotAuthenticated)
	}
	if movieID == "" {
		return nil, fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}

	body, err := s.api.doJSON(ctx, http.MethodPatch, favoritesPath(userID)+"/"+url.PathEscape(movieID), nil)
	if err != nil {
		return nil, err
	}
	return decodeToggle(body)
}

// decodeToggle reads a toggle response. The flip has already happened once the server
// answered 2xx, so a list that does not decode leaves the result unconfirmed rather than failing.
func decodeToggle(body []byte) (*ToggleResult, error) {
	result := &ToggleResult{}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return result, nil
	}

	if body[0] == '[' {
		if favs, err := models.DecodeFavorites(body); err == nil {
			result.Favorites, result.Confirmed = favs, true
		}
		return result, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		// Non-JSON success bodies carry no state.
		return result, nil
	}

	if raw, ok := obj["message"]; ok {
		if err := json.Unmarshal(raw, &result.Message); err != nil {
			result.Message = string(bytes.TrimSpace(raw))
		}
	}

	raw, ok := obj["favorites"]
	if !ok {
		if userRaw, hasUser := obj["user"]; hasUser {
			var user map[string]json.RawMessage
			if json.Unmarshal(userRaw, &user) == nil {
				raw, ok = user["favorites"]
			}
		}
	}
	if !ok || string(raw) == "null" {
		return result, nil
	}

	if favs, err := models.DecodeFavorites(raw); err == nil {
		result.Favorites, result.Confirmed = favs, true
	}
	return result, nil
}
